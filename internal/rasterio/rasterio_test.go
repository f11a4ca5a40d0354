package rasterio_test

import (
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rastml/segpipe/internal/rasterio"
	"github.com/rastml/segpipe/pkg/dataset"
)

func writeGrayPNG(t *testing.T, path string, w, h int) {
	t.Helper()

	img := image.NewGray(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetGray(x, y, color.Gray{Y: uint8((x + y) % 256)})
		}
	}
	writePNG(t, path, img)
}

func writeRGBPNG(t *testing.T, path string, w, h int) {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: 255, G: 0, B: uint8(x % 256), A: 255})
		}
	}
	writePNG(t, path, img)
}

func writePNG(t *testing.T, path string, img image.Image) {
	t.Helper()

	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, png.Encode(f, img))
}

func TestOpenListsPNGsInOrder(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeGrayPNG(t, filepath.Join(dir, "b.png"), 4, 4)
	writeGrayPNG(t, filepath.Join(dir, "a.png"), 4, 4)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("skip me"), 0o644))

	r, err := rasterio.Open(dir)
	require.NoError(t, err)
	assert.Equal(t, 2, r.Len())
}

func TestAtGrayscale(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeGrayPNG(t, filepath.Join(dir, "img.png"), 6, 4)

	r, err := rasterio.Open(dir)
	require.NoError(t, err)

	d, err := r.At(0)
	require.NoError(t, err)

	assert.Equal(t, []int{4, 6}, d.Shape())
	assert.InDelta(t, 0, d.At(0, 0), 1e-6)
	assert.InDelta(t, 3.0/255, d.At(1, 2), 1e-6)
}

func TestAtRGB(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeRGBPNG(t, filepath.Join(dir, "img.png"), 3, 2)

	r, err := rasterio.Open(dir)
	require.NoError(t, err)

	d, err := r.At(0)
	require.NoError(t, err)

	assert.Equal(t, []int{2, 3, 3}, d.Shape())
	assert.InDelta(t, 1, d.At(0, 0, 0), 1e-6)
	assert.InDelta(t, 0, d.At(0, 0, 1), 1e-6)
	assert.InDelta(t, 2.0/255, d.At(1, 2, 2), 1e-6)
}

func TestAtIsRepeatable(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeGrayPNG(t, filepath.Join(dir, "img.png"), 4, 4)

	r, err := rasterio.Open(dir)
	require.NoError(t, err)

	first, err := r.At(0)
	require.NoError(t, err)
	second, err := r.At(0)
	require.NoError(t, err)

	assert.Equal(t, first.Data(), second.Data())
}

func TestAtOutOfRange(t *testing.T) {
	t.Parallel()

	r, err := rasterio.Open(t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, 0, r.Len())

	_, err = r.At(0)
	require.Error(t, err)
	assert.ErrorIs(t, err, dataset.ErrIndexOutOfRange)
}

func TestOpenMissingDir(t *testing.T) {
	t.Parallel()

	_, err := rasterio.Open(filepath.Join(t.TempDir(), "missing"))
	assert.Error(t, err)
}
