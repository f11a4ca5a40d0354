// Package rasterio provides a directory-of-PNGs Reader. Grayscale files
// decode to rank-2 arrays, everything else to rank-3 channel-last RGB;
// values are scaled to [0,1].
package rasterio

import (
	"image"
	"image/png"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/pkg/errors"

	"github.com/rastml/segpipe/pkg/dataset"
	"github.com/rastml/segpipe/pkg/tensor"
)

// DirReader reads the PNG files of one directory in lexical order.
type DirReader struct {
	dir   string
	files []string
}

// Open lists the directory once; file contents are read lazily per At
// call.
func Open(dir string) (*DirReader, error) {
	listing, err := os.ReadDir(dir)
	if err != nil {
		return nil, errors.Wrapf(err, "read dir %s", dir)
	}

	var files []string
	for _, entry := range listing {
		if entry.IsDir() {
			continue
		}
		if strings.EqualFold(filepath.Ext(entry.Name()), ".png") {
			files = append(files, entry.Name())
		}
	}
	sort.Strings(files)

	return &DirReader{dir: dir, files: files}, nil
}

func (r *DirReader) Len() int { return len(r.files) }

func (r *DirReader) At(i int) (*tensor.Dense, error) {
	if i < 0 || i >= len(r.files) {
		return nil, errors.Wrapf(dataset.ErrIndexOutOfRange, "index %d, %d files", i, len(r.files))
	}

	path := filepath.Join(r.dir, r.files[i])
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "open %s", path)
	}
	defer f.Close()

	img, err := png.Decode(f)
	if err != nil {
		return nil, errors.Wrapf(err, "decode %s", path)
	}

	return fromImage(img)
}

func fromImage(img image.Image) (*tensor.Dense, error) {
	bounds := img.Bounds()
	h, w := bounds.Dy(), bounds.Dx()

	if gray, ok := img.(*image.Gray); ok {
		data := make([]float32, h*w)
		for y := 0; y < h; y++ {
			for x := 0; x < w; x++ {
				data[y*w+x] = float32(gray.GrayAt(bounds.Min.X+x, bounds.Min.Y+y).Y) / 255
			}
		}

		return tensor.New(data, h, w)
	}

	data := make([]float32, h*w*3)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			cr, cg, cb, _ := img.At(bounds.Min.X+x, bounds.Min.Y+y).RGBA()
			off := (y*w + x) * 3
			data[off] = float32(cr>>8) / 255
			data[off+1] = float32(cg>>8) / 255
			data[off+2] = float32(cb>>8) / 255
		}
	}

	return tensor.New(data, h, w, 3)
}

var _ dataset.Reader = (*DirReader)(nil)
