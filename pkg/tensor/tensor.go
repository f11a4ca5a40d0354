// Package tensor provides the dense, row-major float32 tensor that carries
// raster samples between readers, transforms and the model.
package tensor

import (
	"github.com/pkg/errors"
)

var (
	ErrBadShape      = errors.New("shape dimensions must be positive")
	ErrShapeMismatch = errors.New("data length does not match shape")
)

// Dense is a dense tensor with row-major layout. The zero value is not
// usable; create instances with New or Zeros.
type Dense struct {
	shape   []int
	strides []int
	data    []float32
}

// New wraps data in a tensor of the given shape. The data slice is used
// directly, not copied.
func New(data []float32, shape ...int) (*Dense, error) {
	size, err := sizeOf(shape)
	if err != nil {
		return nil, err
	}
	if len(data) != size {
		return nil, errors.Wrapf(ErrShapeMismatch, "have %d values, shape needs %d", len(data), size)
	}

	return &Dense{
		shape:   append([]int{}, shape...),
		strides: stridesOf(shape),
		data:    data,
	}, nil
}

// Zeros creates a zero-filled tensor of the given shape.
func Zeros(shape ...int) (*Dense, error) {
	size, err := sizeOf(shape)
	if err != nil {
		return nil, err
	}

	return &Dense{
		shape:   append([]int{}, shape...),
		strides: stridesOf(shape),
		data:    make([]float32, size),
	}, nil
}

func sizeOf(shape []int) (int, error) {
	if len(shape) == 0 {
		return 0, errors.Wrap(ErrBadShape, "shape must have at least one dimension")
	}
	size := 1
	for _, dim := range shape {
		if dim <= 0 {
			return 0, errors.Wrapf(ErrBadShape, "dimension %d", dim)
		}
		size *= dim
	}

	return size, nil
}

func stridesOf(shape []int) []int {
	strides := make([]int, len(shape))
	stride := 1
	for i := len(shape) - 1; i >= 0; i-- {
		strides[i] = stride
		stride *= shape[i]
	}

	return strides
}

// Rank returns the number of axes.
func (d *Dense) Rank() int { return len(d.shape) }

// Dim returns the length of axis i.
func (d *Dense) Dim(i int) int { return d.shape[i] }

// Shape returns a copy of the tensor shape.
func (d *Dense) Shape() []int { return append([]int{}, d.shape...) }

// Len returns the total number of elements.
func (d *Dense) Len() int { return len(d.data) }

// Data returns the backing slice. Mutating it mutates the tensor.
func (d *Dense) Data() []float32 { return d.data }

// At returns the element at the given indices. Like slice indexing, an
// index outside the shape panics.
func (d *Dense) At(indices ...int) float32 {
	return d.data[d.offset(indices)]
}

// Set stores v at the given indices.
func (d *Dense) Set(v float32, indices ...int) {
	d.data[d.offset(indices)] = v
}

func (d *Dense) offset(indices []int) int {
	if len(indices) != len(d.shape) {
		panic(errors.Errorf("tensor: %d indices for rank %d", len(indices), len(d.shape)))
	}
	off := 0
	for i, idx := range indices {
		if idx < 0 || idx >= d.shape[i] {
			panic(errors.Errorf("tensor: index %d out of range for axis %d of length %d", idx, i, d.shape[i]))
		}
		off += idx * d.strides[i]
	}

	return off
}

// Clone returns a deep copy.
func (d *Dense) Clone() *Dense {
	data := make([]float32, len(d.data))
	copy(data, d.data)

	return &Dense{
		shape:   append([]int{}, d.shape...),
		strides: append([]int{}, d.strides...),
		data:    data,
	}
}
