// Package ico reads and writes Windows icon (ICO) files.
package ico

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"io"

	"github.com/ur65/go-favicon/internal/bmp"
)

const (
	headerSize    = 6
	directorySize = 16
)

const (
	bmpHeaderSize     = 14
	bmpInfoHeaderSize = 40
)

// magic is the ICONDIR prefix: reserved 0, type 1 (icon).
const magic = "\x00\x00\x01\x00"

type header struct {
	Reserved  int16
	ImageType int16
	Count     int16
}

func readHeader(r io.Reader) (header, error) {
	h := header{}
	if err := binary.Read(r, binary.LittleEndian, &h); err != nil {
		return h, fmt.Errorf("ico: reading header: %w", err)
	}

	if h.ImageType != 1 {
		return h, fmt.Errorf("ico: image type should be 1 (got: %d)", h.ImageType)
	}

	if h.Count <= 0 {
		return h, fmt.Errorf("ico: invalid the number of images (got: %d)", h.Count)
	}

	return h, nil
}

type directory struct {
	Width       uint8
	Height      uint8
	ColorCount  uint8
	Reserved    uint8
	Planes      int16
	BitCount    int16
	BytesInRes  int32
	ImageOffset int32
}

// size returns the frame dimensions; 0 in the directory means 256.
func (d directory) size() (w, h int) {
	w, h = int(d.Width), int(d.Height)
	if w == 0 {
		w = 256
	}
	if h == 0 {
		h = 256
	}
	return w, h
}

func readDirectories(r io.Reader, size int) ([]directory, error) {
	ds := make([]directory, size)

	if err := binary.Read(r, binary.LittleEndian, ds); err != nil {
		return nil, fmt.Errorf("ico: reading directory: %w", err)
	}

	return ds, nil
}

// splitDIB turns an ICO bitmap frame into two standalone BMP files: the
// colour (XOR) bitmap and the 1bpp transparency (AND) mask.
func splitDIB(data []byte) (xor, and []byte, err error) {
	r := bytes.NewReader(data)
	ih, err := bmp.ReadInfoHeader(r)
	if err != nil {
		return nil, nil, err
	}
	if ih.Size < bmpInfoHeaderSize || int(ih.Size) > len(data) {
		return nil, nil, fmt.Errorf("ico: invalid DIB header size (got: %d)", ih.Size)
	}
	d := data[ih.Size:]

	psize := uint(ih.ColorUsed) * 4
	if psize == 0 && ih.BitCount < 16 {
		psize = (1 << ih.BitCount) * 4
	}

	// the stored height covers both bitmaps
	height := ih.Height / 2
	if height < 0 {
		height = -height
	}
	if height == 0 {
		return nil, nil, fmt.Errorf("ico: invalid frame height (got: %d)", ih.Height)
	}

	// rows must be an integer multiple of 4 bytes
	xorStride := (uint(ih.Width)*uint(ih.BitCount) + 31) / 32 * 4
	andStride := (uint(ih.Width) + 31) / 32 * 4

	xorSize := psize + xorStride*uint(height)
	andSize := andStride * uint(height)
	if uint(len(d)) < xorSize+andSize {
		return nil, nil, fmt.Errorf("ico: frame data too short (got: %d, want: %d)", len(d), xorSize+andSize)
	}

	bb := &bytes.Buffer{}

	// BITMAPFILEHEADER
	bb.WriteString("BM")
	binary.Write(bb, binary.LittleEndian, uint32(bmpHeaderSize+bmpInfoHeaderSize+xorSize))
	binary.Write(bb, binary.LittleEndian, int16(0))
	binary.Write(bb, binary.LittleEndian, int16(0))
	binary.Write(bb, binary.LittleEndian, uint32(bmpHeaderSize+bmpInfoHeaderSize+psize))

	// BITMAPINFOHEADER
	binary.Write(bb, binary.LittleEndian, uint32(bmpInfoHeaderSize))
	binary.Write(bb, binary.LittleEndian, ih.Width)
	binary.Write(bb, binary.LittleEndian, height)
	binary.Write(bb, binary.LittleEndian, ih.Planes)
	binary.Write(bb, binary.LittleEndian, ih.BitCount)
	binary.Write(bb, binary.LittleEndian, ih.Compression)
	binary.Write(bb, binary.LittleEndian, ih.SizeImage)
	binary.Write(bb, binary.LittleEndian, ih.XPelsPerMeter)
	binary.Write(bb, binary.LittleEndian, ih.YPelsPerMeter)
	binary.Write(bb, binary.LittleEndian, ih.ColorUsed)
	binary.Write(bb, binary.LittleEndian, ih.ColorImportant)

	// COLOR TABLE + IMAGEDATA
	bb.Write(d[:xorSize])
	xor = bb.Bytes()

	bb = &bytes.Buffer{}
	mpsize := uint(2 * 4)

	// BITMAPFILEHEADER
	bb.WriteString("BM")
	binary.Write(bb, binary.LittleEndian, uint32(bmpHeaderSize+bmpInfoHeaderSize+mpsize+andSize))
	binary.Write(bb, binary.LittleEndian, int16(0))
	binary.Write(bb, binary.LittleEndian, int16(0))
	binary.Write(bb, binary.LittleEndian, uint32(bmpHeaderSize+bmpInfoHeaderSize+mpsize))

	// BITMAPINFOHEADER
	binary.Write(bb, binary.LittleEndian, uint32(bmpInfoHeaderSize))
	binary.Write(bb, binary.LittleEndian, ih.Width)
	binary.Write(bb, binary.LittleEndian, height)
	binary.Write(bb, binary.LittleEndian, uint16(1))
	binary.Write(bb, binary.LittleEndian, uint16(1))
	binary.Write(bb, binary.LittleEndian, [6]uint32{})

	// COLOR TABLE
	bb.Write([]byte{0x00, 0x00, 0x00, 0xff})
	bb.Write([]byte{0xff, 0xff, 0xff, 0xff})

	// IMAGEDATA
	bb.Write(d[xorSize : xorSize+andSize])
	and = bb.Bytes()

	return xor, and, nil
}

func decodeDIB(data []byte) (image.Image, error) {
	xor, and, err := splitDIB(data)
	if err != nil {
		return nil, err
	}

	xorImg, err := bmp.Decode(bytes.NewReader(xor))
	if err != nil {
		return nil, err
	}

	andImg, err := bmp.Decode(bytes.NewReader(and))
	if err != nil {
		return nil, err
	}

	// a 1bpp bitmap always decodes to *image.Paletted; set bits are transparent
	andImg.(*image.Paletted).Palette[1] = color.RGBA{0, 0, 0, 0}

	img := image.NewNRGBA(xorImg.Bounds())
	draw.DrawMask(img, img.Bounds(), xorImg, image.Point{}, andImg, image.Point{}, draw.Src)

	return img, nil
}

func isPNG(data []byte) bool {
	return len(data) >= 4 && string(data[1:4]) == "PNG"
}

// Decode decodes the given io.Reader and returns all images contained in the data.
func Decode(r io.Reader) ([]image.Image, error) {
	h, err := readHeader(r)
	if err != nil {
		return nil, err
	}

	ds, err := readDirectories(r, int(h.Count))
	if err != nil {
		return nil, err
	}

	buf, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	base := int64(headerSize + directorySize*len(ds))
	imgs := make([]image.Image, len(ds))
	for i, v := range ds {
		offset := int64(v.ImageOffset) - base
		size := int64(v.BytesInRes)
		if offset < 0 || size <= 0 || offset+size > int64(len(buf)) {
			return nil, fmt.Errorf("ico: image %d out of bounds (offset: %d, size: %d)", i, v.ImageOffset, v.BytesInRes)
		}
		data := buf[offset : offset+size]

		if isPNG(data) {
			img, err := png.Decode(bytes.NewReader(data))
			if err != nil {
				return nil, fmt.Errorf("ico: image %d: %w", i, err)
			}
			imgs[i] = img
			continue
		}

		img, err := decodeDIB(data)
		if err != nil {
			return nil, fmt.Errorf("ico: image %d: %w", i, err)
		}
		imgs[i] = img
	}

	return imgs, nil
}

// DecodeConfig returns the dimensions of the first image in the icon
// without decoding any pixel data.
func DecodeConfig(r io.Reader) (image.Config, error) {
	h, err := readHeader(r)
	if err != nil {
		return image.Config{}, err
	}

	ds, err := readDirectories(r, int(h.Count))
	if err != nil {
		return image.Config{}, err
	}

	w, ht := ds[0].size()
	return image.Config{ColorModel: color.NRGBAModel, Width: w, Height: ht}, nil
}

func decodeFirst(r io.Reader) (image.Image, error) {
	imgs, err := Decode(r)
	if err != nil {
		return nil, err
	}
	return imgs[0], nil
}

func init() {
	image.RegisterFormat("ico", magic, decodeFirst, DecodeConfig)
}
