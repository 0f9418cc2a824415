package favicon

import (
	"fmt"
	"path/filepath"

	ico "github.com/ur65/go-favicon"
	"github.com/ur65/go-favicon/internal/resample"
)

const (
	DefaultSize = 32
	DefaultDest = "favicon.ico"
)

// DefaultSource is the source image path, relative to the base directory.
var DefaultSource = filepath.Join("images", "7c389157daa23d3137bbe4cd860845f9.jpg")

// Options configures a run. Size is the side of the square icon and must
// be 1..ico.MaxSize; Filter names a resample filter.
type Options struct {
	Source string
	Dest   string
	Size   int
	Filter string
	Frame  ico.FrameFormat
}

// DefaultOptions returns the default paths resolved against baseDir,
// normally the directory holding the program.
func DefaultOptions(baseDir string) Options {
	return Options{
		Source: filepath.Join(baseDir, DefaultSource),
		Dest:   filepath.Join(baseDir, DefaultDest),
		Size:   DefaultSize,
		Filter: resample.DefaultFilter,
		Frame:  ico.FramePNG,
	}
}

func (o Options) withDefaults() Options {
	if o.Size == 0 {
		o.Size = DefaultSize
	}
	if o.Filter == "" {
		o.Filter = resample.DefaultFilter
	}
	return o
}

// Validate checks the options that can be checked without touching the
// filesystem.
func (o Options) Validate() error {
	if o.Source == "" {
		return fmt.Errorf("favicon: source path is empty")
	}
	if o.Dest == "" {
		return fmt.Errorf("favicon: destination path is empty")
	}
	if o.Size < 1 || o.Size > ico.MaxSize {
		return fmt.Errorf("favicon: size must be 1..%d (got: %d)", ico.MaxSize, o.Size)
	}

	for _, f := range resample.Filters() {
		if f == o.Filter {
			return nil
		}
	}
	return fmt.Errorf("favicon: unknown filter %q", o.Filter)
}
