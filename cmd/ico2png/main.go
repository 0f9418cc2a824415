package main

import (
	"fmt"
	"image/png"
	"os"
	"path/filepath"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	ico "github.com/ur65/go-favicon"
)

// extract writes every frame of the icon at icopath into outdir as
// <base>NN.png and returns the written paths.
func extract(icopath, outdir string) ([]string, error) {
	if err := os.MkdirAll(outdir, 0755); err != nil {
		return nil, err
	}

	f, err := os.Open(icopath)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	imgs, err := ico.Decode(f)
	if err != nil {
		return nil, err
	}

	base := strings.TrimSuffix(filepath.Base(icopath), filepath.Ext(icopath))
	paths := make([]string, 0, len(imgs))
	for i, v := range imgs {
		p := filepath.Join(outdir, fmt.Sprintf("%s%02d.png", base, i+1))
		out, err := os.Create(p)
		if err != nil {
			return paths, err
		}
		err = png.Encode(out, v)
		if cerr := out.Close(); err == nil {
			err = cerr
		}
		if err != nil {
			return paths, err
		}
		paths = append(paths, p)
	}

	return paths, nil
}

func newRootCmd() *cobra.Command {
	var outdir string

	cmd := &cobra.Command{
		Use:          "ico2png [-o OUTDIR] ICO_FILE",
		Short:        "Write each image of an icon as a PNG file",
		Example:      "ico2png -o ./out ./favicon.ico",
		Args:         cobra.ExactArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			paths, err := extract(args[0], outdir)
			for _, p := range paths {
				color.New(color.FgGreen).Fprintln(cmd.OutOrStdout(), p)
			}
			return err
		},
	}
	cmd.Flags().StringVarP(&outdir, "out", "o", ".", "output directory")

	return cmd
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
