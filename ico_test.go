package ico_test

import (
	"bytes"
	"encoding/binary"
	"image"
	"image/color"
	"testing"

	refico "github.com/sergeymakinen/go-ico"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ico "github.com/ur65/go-favicon"
)

func gradient(w, h int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, color.NRGBA{R: uint8(x * 7), G: uint8(y * 5), B: uint8(x ^ y), A: 0xff})
		}
	}
	return img
}

func encodeWith(t *testing.T, imgs []image.Image, format ico.FrameFormat) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, ico.EncodeAll(&buf, imgs, &ico.Options{Format: format}))
	return buf.Bytes()
}

func assertSamePixels(t *testing.T, want, got image.Image) {
	t.Helper()
	require.Equal(t, want.Bounds().Size(), got.Bounds().Size())
	wb, gb := want.Bounds(), got.Bounds()
	for y := 0; y < wb.Dy(); y++ {
		for x := 0; x < wb.Dx(); x++ {
			wc := color.NRGBAModel.Convert(want.At(wb.Min.X+x, wb.Min.Y+y))
			gc := color.NRGBAModel.Convert(got.At(gb.Min.X+x, gb.Min.Y+y))
			if !assert.Equal(t, wc, gc, "pixel (%d,%d)", x, y) {
				return
			}
		}
	}
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	for _, format := range []ico.FrameFormat{ico.FramePNG, ico.FrameBMP} {
		t.Run(format.String(), func(t *testing.T) {
			src := gradient(32, 32)
			data := encodeWith(t, []image.Image{src}, format)

			imgs, err := ico.Decode(bytes.NewReader(data))
			require.NoError(t, err)
			require.Len(t, imgs, 1)
			assertSamePixels(t, src, imgs[0])
		})
	}
}

func TestEncodeHeader(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, ico.Encode(&buf, gradient(32, 32)))
	data := buf.Bytes()

	assert.Equal(t, []byte{0, 0, 1, 0, 1, 0}, data[:6])
	// directory entry: width, height, colours, reserved, planes, bpp
	assert.Equal(t, []byte{32, 32, 0, 0, 1, 0, 32, 0}, data[6:14])
	assert.EqualValues(t, len(data)-22, binary.LittleEndian.Uint32(data[14:18]))
	assert.EqualValues(t, 22, binary.LittleEndian.Uint32(data[18:22]))
	assert.Equal(t, "\x89PNG", string(data[22:26]))
}

func TestBMPFrameKeepsTransparency(t *testing.T) {
	src := gradient(16, 16)
	src.SetNRGBA(3, 4, color.NRGBA{R: 0x40, G: 0x40, B: 0x40, A: 0})

	data := encodeWith(t, []image.Image{src}, ico.FrameBMP)
	imgs, err := ico.Decode(bytes.NewReader(data))
	require.NoError(t, err)

	_, _, _, a := imgs[0].At(3, 4).RGBA()
	assert.Zero(t, a)
	_, _, _, a = imgs[0].At(4, 3).RGBA()
	assert.EqualValues(t, 0xffff, a)
}

func TestEncodeAllMultipleFrames(t *testing.T) {
	sizes := []int{16, 32, 48, 256}
	var frames []image.Image
	for _, s := range sizes {
		frames = append(frames, gradient(s, s))
	}

	for _, format := range []ico.FrameFormat{ico.FramePNG, ico.FrameBMP} {
		t.Run(format.String(), func(t *testing.T) {
			data := encodeWith(t, frames, format)

			imgs, err := ico.Decode(bytes.NewReader(data))
			require.NoError(t, err)
			require.Len(t, imgs, len(sizes))
			for i, s := range sizes {
				assert.Equal(t, image.Pt(s, s), imgs[i].Bounds().Size())
			}
		})
	}
}

func TestDecodeConfigReadsFirstFrame(t *testing.T) {
	data := encodeWith(t, []image.Image{gradient(256, 256), gradient(16, 16)}, ico.FramePNG)

	cfg, err := ico.DecodeConfig(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, 256, cfg.Width)
	assert.Equal(t, 256, cfg.Height)
}

func TestImagePackageRecognisesICO(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, ico.Encode(&buf, gradient(24, 24)))

	img, format, err := image.Decode(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	assert.Equal(t, "ico", format)
	assert.Equal(t, image.Pt(24, 24), img.Bounds().Size())
}

func TestIndependentDecoderAcceptsOutput(t *testing.T) {
	for _, format := range []ico.FrameFormat{ico.FramePNG, ico.FrameBMP} {
		t.Run(format.String(), func(t *testing.T) {
			src := gradient(32, 32)
			data := encodeWith(t, []image.Image{src}, format)

			cfg, err := refico.DecodeConfig(bytes.NewReader(data))
			require.NoError(t, err)
			assert.Equal(t, 32, cfg.Width)
			assert.Equal(t, 32, cfg.Height)

			img, err := refico.Decode(bytes.NewReader(data))
			require.NoError(t, err)
			assertSamePixels(t, src, img)
		})
	}
}

func TestEncodeRejectsInvalidInput(t *testing.T) {
	tests := []struct {
		name string
		imgs []image.Image
	}{
		{"no images", nil},
		{"empty image", []image.Image{image.NewNRGBA(image.Rect(0, 0, 0, 0))}},
		{"too wide", []image.Image{gradient(257, 16)}},
		{"second frame too tall", []image.Image{gradient(16, 16), gradient(16, 300)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			assert.Error(t, ico.EncodeAll(&buf, tt.imgs, nil))
			assert.Zero(t, buf.Len())
		})
	}

	var buf bytes.Buffer
	assert.ErrorIs(t, ico.EncodeAll(&buf, nil, nil), ico.ErrNoImages)
	assert.Error(t, ico.EncodeAll(&buf, []image.Image{gradient(4, 4)}, &ico.Options{Format: ico.FrameFormat(9)}))
}

func TestDecodeRejectsMalformedInput(t *testing.T) {
	valid := encodeWith(t, []image.Image{gradient(8, 8)}, ico.FramePNG)

	cursor := append([]byte(nil), valid...)
	cursor[2] = 2

	noImages := append([]byte(nil), valid...)
	noImages[4] = 0

	badOffset := append([]byte(nil), valid...)
	binary.LittleEndian.PutUint32(badOffset[18:22], 1<<20)

	tests := []struct {
		name string
		data []byte
	}{
		{"empty", nil},
		{"cursor type", cursor},
		{"zero count", noImages},
		{"offset past end", badOffset},
		{"truncated payload", valid[:len(valid)-10]},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ico.Decode(bytes.NewReader(tt.data))
			assert.Error(t, err)
		})
	}
}
