// Package favicon turns a single source image into a square ICO favicon.
package favicon

import (
	"bufio"
	"bytes"
	"errors"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/fatih/color"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	ico "github.com/ur65/go-favicon"
	_ "github.com/ur65/go-favicon/internal/bmp"
	"github.com/ur65/go-favicon/internal/resample"
)

const filePerm = 0644

var (
	success = color.New(color.FgGreen)
	failure = color.New(color.FgRed)
)

// Run generates the favicon described by opts, prints exactly one status
// line to w and reports whether it succeeded.
func Run(w io.Writer, opts Options) bool {
	opts = opts.withDefaults()

	err := Generate(opts)

	var missing *SourceNotFoundError
	switch {
	case err == nil:
		success.Fprintf(w, "Favicon created successfully at: %s\n", opts.Dest)
		return true
	case errors.As(err, &missing):
		failure.Fprintf(w, "Error: Source image not found at %s\n", missing.Path)
	default:
		failure.Fprintf(w, "Error creating favicon: %v\n", err)
	}
	return false
}

// Generate checks that the source exists, decodes it, stretches it to
// Size×Size and writes it to Dest as an icon, replacing any existing file.
// Dest is left untouched on failure.
func Generate(opts Options) error {
	opts = opts.withDefaults()
	if err := opts.Validate(); err != nil {
		return err
	}

	if _, err := os.Stat(opts.Source); errors.Is(err, fs.ErrNotExist) {
		return &SourceNotFoundError{Path: opts.Source}
	}

	src, err := decode(opts.Source)
	if err != nil {
		return &StageError{Stage: StageDecode, Path: opts.Source, Err: err}
	}

	img, err := resample.Resize(src, opts.Size, opts.Size, opts.Filter)
	if err != nil {
		return &StageError{Stage: StageResize, Err: err}
	}

	bb := &bytes.Buffer{}
	if err := ico.EncodeAll(bb, []image.Image{img}, &ico.Options{Format: opts.Frame}); err != nil {
		return &StageError{Stage: StageEncode, Err: err}
	}

	if err := writeFile(opts.Dest, bb.Bytes()); err != nil {
		return &StageError{Stage: StageWrite, Path: opts.Dest, Err: err}
	}

	return nil
}

func decode(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	img, _, err := image.Decode(bufio.NewReader(f))
	return img, err
}

// writeFile replaces path with data through a temporary file in the same
// directory and a rename, so readers never see a partial icon.
func writeFile(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}
	name := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(name)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(name)
		return err
	}
	if err := os.Chmod(name, filePerm); err != nil {
		os.Remove(name)
		return err
	}
	if err := os.Rename(name, path); err != nil {
		os.Remove(name)
		return err
	}
	return nil
}
