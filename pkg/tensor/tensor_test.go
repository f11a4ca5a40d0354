package tensor_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rastml/segpipe/pkg/tensor"
)

func TestNew(t *testing.T) {
	t.Parallel()

	d, err := tensor.New([]float32{1, 2, 3, 4, 5, 6}, 2, 3)
	require.NoError(t, err)

	assert.Equal(t, 2, d.Rank())
	assert.Equal(t, []int{2, 3}, d.Shape())
	assert.Equal(t, 6, d.Len())
	assert.InDelta(t, 6, d.At(1, 2), 0)
	assert.InDelta(t, 4, d.At(1, 0), 0)
}

func TestNewShapeMismatch(t *testing.T) {
	t.Parallel()

	_, err := tensor.New([]float32{1, 2, 3}, 2, 2)
	require.Error(t, err)
	assert.ErrorIs(t, err, tensor.ErrShapeMismatch)
}

func TestNewBadShape(t *testing.T) {
	t.Parallel()

	_, err := tensor.New(nil, 0, 3)
	require.Error(t, err)
	assert.ErrorIs(t, err, tensor.ErrBadShape)

	_, err = tensor.New(nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, tensor.ErrBadShape)
}

func TestZerosSet(t *testing.T) {
	t.Parallel()

	d, err := tensor.Zeros(3, 4, 5)
	require.NoError(t, err)
	assert.Equal(t, 60, d.Len())

	d.Set(2.5, 2, 3, 4)
	assert.InDelta(t, 2.5, d.At(2, 3, 4), 0)
	assert.InDelta(t, 0, d.At(0, 0, 0), 0)
}

func TestAtPanicsOutOfRange(t *testing.T) {
	t.Parallel()

	d, err := tensor.Zeros(2, 2)
	require.NoError(t, err)

	assert.Panics(t, func() { d.At(2, 0) })
	assert.Panics(t, func() { d.At(0) })
}

func TestClone(t *testing.T) {
	t.Parallel()

	d, err := tensor.New([]float32{1, 2, 3, 4}, 2, 2)
	require.NoError(t, err)

	c := d.Clone()
	c.Set(9, 0, 0)

	assert.InDelta(t, 1, d.At(0, 0), 0)
	assert.InDelta(t, 9, c.At(0, 0), 0)
}
