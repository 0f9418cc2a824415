package bmp

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"image"
	"image/draw"
	"io"
)

func toNRGBA(m image.Image) *image.NRGBA {
	if n, ok := m.(*image.NRGBA); ok && n.Rect.Min == (image.Point{}) {
		return n
	}
	b := m.Bounds()
	n := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(n, n.Bounds(), m, b.Min, draw.Src)
	return n
}

func writeInfoHeader(w io.Writer, width, height, sizeImage int) {
	binary.Write(w, binary.LittleEndian, uint32(infoHeaderSize))
	binary.Write(w, binary.LittleEndian, infoHeaderWithoutSize{
		Width:     int32(width),
		Height:    int32(height),
		Planes:    1,
		BitCount:  32,
		SizeImage: uint32(sizeImage),
	})
}

// writePixels writes n as bottom-up 32bpp BGRA rows.
func writePixels(w io.Writer, n *image.NRGBA) error {
	width, height := n.Rect.Dx(), n.Rect.Dy()
	row := make([]byte, width*4)
	for y := height - 1; y >= 0; y-- {
		p := n.Pix[y*n.Stride : y*n.Stride+width*4]
		for i := 0; i < len(row); i += 4 {
			row[i+0] = p[i+2]
			row[i+1] = p[i+1]
			row[i+2] = p[i+0]
			row[i+3] = p[i+3]
		}
		if _, err := w.Write(row); err != nil {
			return err
		}
	}
	return nil
}

// Encode writes m as an uncompressed 32bpp BMP file.
func Encode(w io.Writer, m image.Image) error {
	n := toNRGBA(m)
	width, height := n.Rect.Dx(), n.Rect.Dy()
	if width == 0 || height == 0 {
		return fmt.Errorf("bmp: cannot encode an empty image (%dx%d)", width, height)
	}

	pixSize := width * height * 4
	fh := fileHeader{
		Signature:  binary.LittleEndian.Uint16([]byte("BM")),
		FileSize:   uint32(fileHeaderSize + infoHeaderSize + pixSize),
		OffsetBits: fileHeaderSize + infoHeaderSize,
	}

	bw := &bytes.Buffer{}
	binary.Write(bw, binary.LittleEndian, fh)
	writeInfoHeader(bw, width, height, pixSize)
	if err := writePixels(bw, n); err != nil {
		return err
	}

	_, err := w.Write(bw.Bytes())
	return err
}

// EncodeDIB writes m as an icon frame: a BITMAPINFOHEADER whose height
// covers both the XOR and AND bitmaps, 32bpp BGRA pixels, then a 1bpp AND
// mask with a bit set for every fully transparent pixel.
func EncodeDIB(w io.Writer, m image.Image) error {
	n := toNRGBA(m)
	width, height := n.Rect.Dx(), n.Rect.Dy()
	if width == 0 || height == 0 {
		return fmt.Errorf("bmp: cannot encode an empty image (%dx%d)", width, height)
	}

	maskStride := rowSize(width, 1)
	pixSize := width * height * 4

	bw := &bytes.Buffer{}
	writeInfoHeader(bw, width, height*2, pixSize+maskStride*height)
	if err := writePixels(bw, n); err != nil {
		return err
	}

	mask := make([]byte, maskStride)
	for y := height - 1; y >= 0; y-- {
		for i := range mask {
			mask[i] = 0
		}
		for x := 0; x < width; x++ {
			if n.Pix[y*n.Stride+x*4+3] == 0 {
				mask[x/8] |= 0x80 >> uint(x%8)
			}
		}
		bw.Write(mask)
	}

	_, err := w.Write(bw.Bytes())
	return err
}
