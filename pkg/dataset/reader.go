// Package dataset aligns independent raw-sample sources into paired
// training samples and iterates over them in batches.
package dataset

import (
	"github.com/rastml/segpipe/pkg/tensor"
)

// Reader is an ordered, read-only source of raw raster samples. At must be
// pure: the same index always yields the same array for a given instance.
type Reader interface {
	Len() int
	At(i int) (*tensor.Dense, error)
}

// Transform normalizes one raw sample. Implementations must be safe for
// concurrent use; loader workers share a single instance.
type Transform interface {
	Apply(*tensor.Dense) (*tensor.Dense, error)
}
