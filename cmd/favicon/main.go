// favicon writes favicon.ico next to the program from
// images/7c389157daa23d3137bbe4cd860845f9.jpg, stretched to 32x32.
//
// Usage: favicon [--src FILE] [--dst FILE] [--size N] [--filter NAME] [--frame png|bmp]
package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	ico "github.com/ur65/go-favicon"
	"github.com/ur65/go-favicon/internal/favicon"
	"github.com/ur65/go-favicon/internal/resample"
)

// errFailed means the status line has already been printed.
var errFailed = errors.New("favicon generation failed")

func parseFrame(s string) (ico.FrameFormat, error) {
	switch strings.ToLower(s) {
	case "png":
		return ico.FramePNG, nil
	case "bmp":
		return ico.FrameBMP, nil
	}
	return 0, fmt.Errorf("unknown frame format %q (want png or bmp)", s)
}

func newRootCmd(baseDir string, out io.Writer) *cobra.Command {
	opts := favicon.DefaultOptions(baseDir)
	frame := opts.Frame.String()

	cmd := &cobra.Command{
		Use:           "favicon",
		Short:         "Create favicon.ico from the site image",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := parseFrame(frame)
			if err != nil {
				return err
			}
			opts.Frame = f

			if !favicon.Run(out, opts) {
				return errFailed
			}
			return nil
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&opts.Source, "src", opts.Source, "source image")
	flags.StringVar(&opts.Dest, "dst", opts.Dest, "icon to write")
	flags.IntVar(&opts.Size, "size", opts.Size, "icon width and height in pixels")
	flags.StringVar(&opts.Filter, "filter", opts.Filter, "resampling filter: "+strings.Join(resample.Filters(), ", "))
	flags.StringVar(&frame, "frame", frame, "frame encoding: png or bmp")

	return cmd
}

// programDir returns the directory holding the running binary.
func programDir() string {
	exe, err := os.Executable()
	if err != nil {
		return "."
	}
	if resolved, err := filepath.EvalSymlinks(exe); err == nil {
		exe = resolved
	}
	return filepath.Dir(exe)
}

func main() {
	if err := newRootCmd(programDir(), os.Stdout).Execute(); err != nil {
		if !errors.Is(err, errFailed) {
			fmt.Fprintln(os.Stderr, "Error:", err)
		}
		os.Exit(1)
	}
}
