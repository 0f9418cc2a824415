// Package resample stretches images to an exact size.
package resample

import (
	"errors"
	"fmt"
	"image"
	"sort"

	"github.com/nfnt/resize"
	"golang.org/x/image/draw"
)

// DefaultFilter is the bicubic filter used when none is named.
const DefaultFilter = "catmullrom"

var (
	ErrEmptySource = errors.New("resample: source image is empty")
	ErrBadSize     = errors.New("resample: target size must be positive")
)

type scaler func(src image.Image, w, h int) image.Image

func drawScaler(k draw.Interpolator) scaler {
	return func(src image.Image, w, h int) image.Image {
		dst := image.NewNRGBA(image.Rect(0, 0, w, h))
		k.Scale(dst, dst.Rect, src, src.Bounds(), draw.Src, nil)
		return dst
	}
}

func nfntScaler(f resize.InterpolationFunction) scaler {
	return func(src image.Image, w, h int) image.Image {
		return resize.Resize(uint(w), uint(h), src, f)
	}
}

var filters = map[string]scaler{
	"nearest":        drawScaler(draw.NearestNeighbor),
	"approxbilinear": drawScaler(draw.ApproxBiLinear),
	"bilinear":       drawScaler(draw.BiLinear),
	"catmullrom":     drawScaler(draw.CatmullRom),
	"mitchell":       nfntScaler(resize.MitchellNetravali),
	"lanczos3":       nfntScaler(resize.Lanczos3),
}

// Filters returns the supported filter names, sorted.
func Filters() []string {
	names := make([]string, 0, len(filters))
	for name := range filters {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Resize returns src scaled to exactly w×h. The aspect ratio is not
// preserved. An empty filter name selects DefaultFilter.
func Resize(src image.Image, w, h int, filter string) (image.Image, error) {
	if filter == "" {
		filter = DefaultFilter
	}
	scale, ok := filters[filter]
	if !ok {
		return nil, fmt.Errorf("resample: unknown filter %q", filter)
	}
	if w <= 0 || h <= 0 {
		return nil, fmt.Errorf("%w (got: %dx%d)", ErrBadSize, w, h)
	}
	if src == nil || src.Bounds().Empty() {
		return nil, ErrEmptySource
	}

	dst := scale(src, w, h)
	if got := dst.Bounds().Size(); got != image.Pt(w, h) {
		return nil, fmt.Errorf("resample: %s produced %dx%d, want %dx%d", filter, got.X, got.Y, w, h)
	}
	return dst, nil
}
