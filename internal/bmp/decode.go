package bmp

import (
	"encoding/binary"
	"fmt"
	"image"
	"image/color"
	"io"
)

const (
	fileHeaderSize = 14
	infoHeaderSize = 40
)

type fileHeader struct {
	Signature  uint16
	FileSize   uint32
	Reserved1  uint16
	Reserved2  uint16
	OffsetBits uint32
}

func readFileHeader(r io.Reader) (fileHeader, error) {
	h := fileHeader{}
	if err := binary.Read(r, binary.LittleEndian, &h); err != nil {
		return fileHeader{}, err
	}

	sig := make([]byte, 2)
	binary.LittleEndian.PutUint16(sig, h.Signature)

	if string(sig) != "BM" {
		return fileHeader{}, fmt.Errorf("bmp: file signature should be 'BM' (got: %q)", sig)
	}

	return h, nil
}

type infoHeaderWithoutSize struct {
	Width          int32
	Height         int32
	Planes         uint16
	BitCount       uint16
	Compression    uint32
	SizeImage      uint32
	XPelsPerMeter  int32
	YPelsPerMeter  int32
	ColorUsed      uint32
	ColorImportant uint32
}

// InfoHeader is a BITMAPINFOHEADER. Larger V4/V5 headers are read through
// their common prefix; the caller skips the remainder.
type InfoHeader struct {
	Size uint32
	infoHeaderWithoutSize
}

// ReadInfoHeader reads the DIB header that follows the file header in a BMP
// file, or that starts a bitmap frame inside an ICO file.
func ReadInfoHeader(r io.Reader) (InfoHeader, error) {
	var size uint32
	if err := binary.Read(r, binary.LittleEndian, &size); err != nil {
		return InfoHeader{}, err
	}

	ihws := infoHeaderWithoutSize{}
	if err := binary.Read(r, binary.LittleEndian, &ihws); err != nil {
		return InfoHeader{}, err
	}

	h := InfoHeader{
		Size:                  size,
		infoHeaderWithoutSize: ihws,
	}

	if h.Width <= 0 {
		return InfoHeader{}, fmt.Errorf("bmp: width should be greater than zero (got: %d)", h.Width)
	}

	if h.Height == 0 {
		return InfoHeader{}, fmt.Errorf("bmp: height should be non-zero (got: %d)", h.Height)
	}

	return h, nil
}

// colorBGR is BGR order
type colorBGR struct {
	B        uint8
	G        uint8
	R        uint8
	Reserved uint8
}

func (c colorBGR) RGBA() color.RGBA {
	return color.RGBA{c.R, c.G, c.B, 0xff}
}

// rowSize returns the length of one pixel row; rows are padded to 4 bytes.
func rowSize(width, bpp int) int {
	return (width*bpp + 31) / 32 * 4
}

type decoder struct {
	bpp     int
	topDown bool
	config  image.Config
}

func newDecoder(r io.Reader) (*decoder, error) {
	_, err := readFileHeader(r)
	if err != nil {
		return nil, err
	}

	ih, err := ReadInfoHeader(r)
	if err != nil {
		return nil, err
	}

	switch ih.Size {
	case infoHeaderSize:
	case 108, 124:
		if _, err := io.CopyN(io.Discard, r, int64(ih.Size-infoHeaderSize)); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("bmp: unsupported DIB header size (got: %d)", ih.Size)
	}

	var topDown bool
	if ih.Height < 0 {
		ih.Height *= -1
		topDown = true
	}

	if ih.Compression != 0 {
		return nil, fmt.Errorf("bmp: supported compression method is only 0 (got: %d)", ih.Compression)
	}

	var model color.Model

	switch ih.BitCount {
	case 1, 4, 8:
		if ih.ColorUsed == 0 {
			ih.ColorUsed = 1 << ih.BitCount
		}
		if ih.ColorUsed > 1<<ih.BitCount {
			return nil, fmt.Errorf("bmp: too many palette entries for %d bpp (got: %d)", ih.BitCount, ih.ColorUsed)
		}
		clrs := make([]colorBGR, ih.ColorUsed)
		if err := binary.Read(r, binary.LittleEndian, &clrs); err != nil {
			return nil, err
		}
		palette := make(color.Palette, ih.ColorUsed)
		for i := range palette {
			palette[i] = clrs[i].RGBA()
		}
		model = palette
	case 24:
		model = color.RGBAModel
	case 32:
		model = color.NRGBAModel
	default:
		return nil, fmt.Errorf("bmp: unsupported bpp (got: %d)", ih.BitCount)
	}

	d := &decoder{
		bpp:     int(ih.BitCount),
		topDown: topDown,
		config:  image.Config{ColorModel: model, Width: int(ih.Width), Height: int(ih.Height)},
	}

	return d, nil
}

// rows reads every pixel row into row and calls fn with the row's y
// coordinate, honouring bottom-up and top-down storage.
func (d *decoder) rows(r io.Reader, row []byte, fn func(y int) error) error {
	h := d.config.Height

	y0, y1, dy := h-1, -1, -1
	if d.topDown {
		y0, y1, dy = 0, h, 1
	}

	for y := y0; y != y1; y += dy {
		if _, err := io.ReadFull(r, row); err != nil {
			if err == io.EOF {
				return io.ErrUnexpectedEOF
			}
			return err
		}
		if err := fn(y); err != nil {
			return err
		}
	}

	return nil
}

func (d *decoder) decodePaletted(r io.Reader) (image.Image, error) {
	w, h := d.config.Width, d.config.Height
	palette := d.config.ColorModel.(color.Palette)
	paletted := image.NewPaletted(image.Rect(0, 0, w, h), palette)

	perByte := 8 / d.bpp
	mask := byte(1<<d.bpp - 1)

	row := make([]byte, rowSize(w, d.bpp))
	err := d.rows(r, row, func(y int) error {
		p := paletted.Pix[y*paletted.Stride : y*paletted.Stride+w]
		for x := range p {
			shift := uint(8 - d.bpp*(x%perByte+1))
			idx := (row[x/perByte] >> shift) & mask
			if int(idx) >= len(palette) {
				return fmt.Errorf("bmp: palette index out of range (got: %d)", idx)
			}
			p[x] = idx
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return paletted, nil
}

func (d *decoder) decode24(r io.Reader) (image.Image, error) {
	w, h := d.config.Width, d.config.Height
	rgba := image.NewRGBA(image.Rect(0, 0, w, h))

	row := make([]byte, rowSize(w, 24))
	err := d.rows(r, row, func(y int) error {
		p := rgba.Pix[y*rgba.Stride : (y+1)*rgba.Stride]
		for i, j := 0, 0; i < w*4; i, j = i+4, j+3 {
			// BGR order
			p[i+0] = row[j+2]
			p[i+1] = row[j+1]
			p[i+2] = row[j+0]
			p[i+3] = 0xff
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return rgba, nil
}

func (d *decoder) decode32(r io.Reader) (image.Image, error) {
	w, h := d.config.Width, d.config.Height
	nrgba := image.NewNRGBA(image.Rect(0, 0, w, h))

	row := make([]byte, rowSize(w, 32))
	err := d.rows(r, row, func(y int) error {
		p := nrgba.Pix[y*nrgba.Stride : (y+1)*nrgba.Stride]
		copy(p, row)
		for i := 0; i < w*4; i += 4 {
			// BGRA order
			p[i], p[i+2] = p[i+2], p[i]
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return nrgba, nil
}

func (d *decoder) decode(r io.Reader) (image.Image, error) {
	switch d.bpp {
	case 1, 4, 8:
		return d.decodePaletted(r)
	case 24:
		return d.decode24(r)
	case 32:
		return d.decode32(r)
	}

	return nil, fmt.Errorf("bmp: no decoder for %d bpp", d.bpp)
}

// Decode reads a BMP image from io.Reader and returns an image.Image
func Decode(r io.Reader) (image.Image, error) {
	d, err := newDecoder(r)
	if err != nil {
		return nil, err
	}

	return d.decode(r)
}

// DecodeConfig reads a BMP image from io.Reader and returns an image.Config
func DecodeConfig(r io.Reader) (image.Config, error) {
	d, err := newDecoder(r)
	if err != nil {
		return image.Config{}, err
	}

	return d.config, nil
}

func init() {
	image.RegisterFormat("bmp", "BM", Decode, DecodeConfig)
}
