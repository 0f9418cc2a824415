package ico

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"image"
	"image/png"
	"io"

	"github.com/ur65/go-favicon/internal/bmp"
)

// MaxSize is the largest frame side an icon directory can describe.
const MaxSize = 256

// FrameFormat selects how each frame's pixels are stored.
type FrameFormat int

const (
	// FramePNG stores frames as PNG streams, as Vista and later expect.
	FramePNG FrameFormat = iota
	// FrameBMP stores frames as 32bpp DIBs with an AND mask.
	FrameBMP
)

func (f FrameFormat) String() string {
	switch f {
	case FramePNG:
		return "png"
	case FrameBMP:
		return "bmp"
	}
	return fmt.Sprintf("FrameFormat(%d)", int(f))
}

// Options are the encoding parameters. A nil *Options means FramePNG.
type Options struct {
	Format FrameFormat
}

// ErrNoImages is returned by EncodeAll when given nothing to encode.
var ErrNoImages = errors.New("ico: no images to encode")

// Encode writes m to w as a single-frame icon.
func Encode(w io.Writer, m image.Image) error {
	return EncodeAll(w, []image.Image{m}, nil)
}

// EncodeAll writes imgs to w as one icon, in order. Every frame must be
// between 1 and MaxSize pixels on each side. Nothing is written to w if any
// frame fails to encode.
func EncodeAll(w io.Writer, imgs []image.Image, o *Options) error {
	if len(imgs) == 0 {
		return ErrNoImages
	}

	format := FramePNG
	if o != nil {
		format = o.Format
	}

	payloads := make([][]byte, len(imgs))
	ds := make([]directory, len(imgs))
	offset := headerSize + directorySize*len(imgs)

	for i, m := range imgs {
		b := m.Bounds()
		if b.Dx() < 1 || b.Dy() < 1 || b.Dx() > MaxSize || b.Dy() > MaxSize {
			return fmt.Errorf("ico: image %d is %dx%d, sides must be 1..%d", i, b.Dx(), b.Dy(), MaxSize)
		}

		data, err := encodeFrame(m, format)
		if err != nil {
			return fmt.Errorf("ico: image %d: %w", i, err)
		}
		payloads[i] = data

		ds[i] = directory{
			// 256 wraps to 0, which the format reads back as 256
			Width:       uint8(b.Dx()),
			Height:      uint8(b.Dy()),
			Planes:      1,
			BitCount:    32,
			BytesInRes:  int32(len(data)),
			ImageOffset: int32(offset),
		}
		offset += len(data)
	}

	bb := &bytes.Buffer{}
	binary.Write(bb, binary.LittleEndian, header{ImageType: 1, Count: int16(len(imgs))})
	binary.Write(bb, binary.LittleEndian, ds)
	for _, p := range payloads {
		bb.Write(p)
	}

	_, err := w.Write(bb.Bytes())
	return err
}

func encodeFrame(m image.Image, format FrameFormat) ([]byte, error) {
	bb := &bytes.Buffer{}

	switch format {
	case FramePNG:
		if err := png.Encode(bb, m); err != nil {
			return nil, err
		}
	case FrameBMP:
		if err := bmp.EncodeDIB(bb, m); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("unknown frame format %v", format)
	}

	return bb.Bytes(), nil
}
