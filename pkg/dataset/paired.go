package dataset

import (
	"github.com/pkg/errors"

	"github.com/rastml/segpipe/pkg/tensor"
)

var (
	ErrNoReaders       = errors.New("at least one reader must be provided")
	ErrNoTransform     = errors.New("transform must be set")
	ErrLengthMismatch  = errors.New("readers must report equal sample counts")
	ErrIndexOutOfRange = errors.New("sample index out of range")
)

// Sample is one aligned tuple of transformed tensors, one per reader, in
// reader order.
type Sample []*tensor.Dense

// Paired composes readers index-by-index through a shared transform.
// Element i is the tuple of Transform(reader[j].At(i)) for every reader j.
type Paired struct {
	readers []Reader
	tf      Transform
	length  int
}

// NewPaired builds a paired dataset. All readers must report the same
// count; nothing is read until At is called.
func NewPaired(tf Transform, readers ...Reader) (*Paired, error) {
	if tf == nil {
		return nil, ErrNoTransform
	}
	if len(readers) == 0 {
		return nil, ErrNoReaders
	}

	length := readers[0].Len()
	for i, r := range readers {
		if r.Len() != length {
			return nil, errors.Wrapf(ErrLengthMismatch, "reader 0 has %d samples, reader %d has %d", length, i, r.Len())
		}
	}

	return &Paired{
		readers: readers,
		tf:      tf,
		length:  length,
	}, nil
}

// Len returns the common reader count.
func (p *Paired) Len() int { return p.length }

// At reads and transforms the sample tuple at index i. Nothing is cached;
// every call reads from the underlying sources again.
func (p *Paired) At(i int) (Sample, error) {
	if i < 0 || i >= p.length {
		return nil, errors.Wrapf(ErrIndexOutOfRange, "index %d, length %d", i, p.length)
	}

	sample := make(Sample, len(p.readers))
	for j, r := range p.readers {
		raw, err := r.At(i)
		if err != nil {
			return nil, errors.Wrapf(err, "reader %d at index %d", j, i)
		}
		out, err := p.tf.Apply(raw)
		if err != nil {
			return nil, errors.Wrapf(err, "transform reader %d at index %d", j, i)
		}
		sample[j] = out
	}

	return sample, nil
}
