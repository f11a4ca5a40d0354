package dataset_test

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rastml/segpipe/pkg/dataset"
	"github.com/rastml/segpipe/pkg/tensor"
)

// fakeReader yields deterministic 2x2 arrays so index alignment is
// checkable from the values.
type fakeReader struct {
	count int
	base  float32
	errAt int // index that fails, -1 for none
}

func newFakeReader(count int, base float32) *fakeReader {
	return &fakeReader{count: count, base: base, errAt: -1}
}

func (r *fakeReader) Len() int { return r.count }

func (r *fakeReader) At(i int) (*tensor.Dense, error) {
	if i < 0 || i >= r.count {
		return nil, errors.Wrapf(dataset.ErrIndexOutOfRange, "index %d", i)
	}
	if i == r.errAt {
		return nil, errors.New("broken sample")
	}

	return tensor.New([]float32{r.base + float32(i), r.base, 0, 1}, 2, 2)
}

// identity passes raw arrays through unchanged.
type identity struct{}

func (identity) Apply(in *tensor.Dense) (*tensor.Dense, error) { return in, nil }

func TestNewPairedEqualCounts(t *testing.T) {
	t.Parallel()

	ds, err := dataset.NewPaired(identity{}, newFakeReader(5, 0), newFakeReader(5, 100))
	require.NoError(t, err)
	assert.Equal(t, 5, ds.Len())
}

func TestNewPairedUnequalCounts(t *testing.T) {
	t.Parallel()

	_, err := dataset.NewPaired(identity{},
		newFakeReader(5, 0),
		newFakeReader(5, 100),
		newFakeReader(3, 200),
	)
	require.Error(t, err)
	assert.ErrorIs(t, err, dataset.ErrLengthMismatch)
}

func TestNewPairedNoReaders(t *testing.T) {
	t.Parallel()

	_, err := dataset.NewPaired(identity{})
	require.Error(t, err)
	assert.ErrorIs(t, err, dataset.ErrNoReaders)
}

func TestNewPairedNoTransform(t *testing.T) {
	t.Parallel()

	_, err := dataset.NewPaired(nil, newFakeReader(1, 0))
	require.Error(t, err)
	assert.ErrorIs(t, err, dataset.ErrNoTransform)
}

func TestAtAlignsReaders(t *testing.T) {
	t.Parallel()

	ds, err := dataset.NewPaired(identity{}, newFakeReader(4, 0), newFakeReader(4, 100))
	require.NoError(t, err)

	for i := 0; i < 4; i++ {
		sample, err := ds.At(i)
		require.NoError(t, err)
		require.Len(t, sample, 2)

		// Both tuple entries come from the same index.
		assert.InDelta(t, float32(i), sample[0].At(0, 0), 0)
		assert.InDelta(t, float32(100+i), sample[1].At(0, 0), 0)
	}
}

func TestAtOutOfRange(t *testing.T) {
	t.Parallel()

	ds, err := dataset.NewPaired(identity{}, newFakeReader(3, 0))
	require.NoError(t, err)

	_, err = ds.At(3)
	require.Error(t, err)
	assert.ErrorIs(t, err, dataset.ErrIndexOutOfRange)

	_, err = ds.At(-1)
	require.Error(t, err)
	assert.ErrorIs(t, err, dataset.ErrIndexOutOfRange)
}

func TestAtReaderError(t *testing.T) {
	t.Parallel()

	broken := newFakeReader(3, 0)
	broken.errAt = 1

	ds, err := dataset.NewPaired(identity{}, newFakeReader(3, 100), broken)
	require.NoError(t, err)

	_, err = ds.At(0)
	require.NoError(t, err)

	_, err = ds.At(1)
	assert.Error(t, err)
}
