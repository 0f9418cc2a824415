package main

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"os"
	"path/filepath"
	"testing"

	fcolor "github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ico "github.com/ur65/go-favicon"
	"github.com/ur65/go-favicon/internal/favicon"
)

func init() {
	fcolor.NoColor = true
}

func writeSource(t *testing.T, path string, w, h int) {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for i := range img.Pix {
		img.Pix[i] = 0xff
	}
	img.Set(0, 0, color.Black)

	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, img, nil))
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0644))
}

func execute(baseDir string, args ...string) (string, error) {
	var out bytes.Buffer
	cmd := newRootCmd(baseDir, &out)
	cmd.SetArgs(append([]string{}, args...))
	err := cmd.Execute()
	return out.String(), err
}

func iconSize(t *testing.T, path string) image.Point {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	cfg, err := ico.DecodeConfig(f)
	require.NoError(t, err)
	return image.Pt(cfg.Width, cfg.Height)
}

func TestNoArgumentsUsesBaseDir(t *testing.T) {
	dir := t.TempDir()
	writeSource(t, filepath.Join(dir, favicon.DefaultSource), 800, 600)

	out, err := execute(dir)
	require.NoError(t, err)

	dest := filepath.Join(dir, "favicon.ico")
	assert.Equal(t, "Favicon created successfully at: "+dest+"\n", out)
	assert.Equal(t, image.Pt(32, 32), iconSize(t, dest))
}

func TestMissingSourceFails(t *testing.T) {
	dir := t.TempDir()

	out, err := execute(dir)
	assert.ErrorIs(t, err, errFailed)
	assert.Equal(t, "Error: Source image not found at "+filepath.Join(dir, favicon.DefaultSource)+"\n", out)
}

func TestFlagsOverrideDefaults(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "logo.jpg")
	dst := filepath.Join(dir, "out.ico")
	writeSource(t, src, 64, 40)

	out, err := execute(t.TempDir(), "--src", src, "--dst", dst, "--size", "48", "--filter", "bilinear", "--frame", "bmp")
	require.NoError(t, err, out)
	assert.Equal(t, image.Pt(48, 48), iconSize(t, dst))
}

func TestBadFlagValues(t *testing.T) {
	dir := t.TempDir()
	writeSource(t, filepath.Join(dir, favicon.DefaultSource), 10, 10)

	_, err := execute(dir, "--frame", "gif")
	assert.ErrorContains(t, err, `unknown frame format "gif"`)

	out, err := execute(dir, "--filter", "sinc")
	assert.ErrorIs(t, err, errFailed)
	assert.Contains(t, out, `unknown filter "sinc"`)

	_, err = execute(dir, "extra")
	assert.Error(t, err)
	assert.NoFileExists(t, filepath.Join(dir, "favicon.ico"))
}

func TestParseFrame(t *testing.T) {
	f, err := parseFrame("PNG")
	require.NoError(t, err)
	assert.Equal(t, ico.FramePNG, f)

	f, err = parseFrame("bmp")
	require.NoError(t, err)
	assert.Equal(t, ico.FrameBMP, f)
}
