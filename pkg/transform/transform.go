// Package transform normalizes raw raster arrays into fixed-size,
// channel-first tensors.
package transform

import (
	"github.com/pkg/errors"

	"github.com/rastml/segpipe/pkg/tensor"
)

var (
	ErrBadRank   = errors.New("input must have rank 2 or 3")
	ErrBadTarget = errors.New("target dimensions must be positive")
)

// Padder grows inputs to at least the target spatial size using reflective
// boundary extension and reorders them to channel-first. It is stateless
// and safe for concurrent use.
//
// Inputs smaller than the target are mirrored on the bottom/right edges up
// to the target size. Inputs already larger in an axis keep that axis
// unchanged; content is never cropped.
type Padder struct {
	targetH int
	targetW int
}

// NewPadder creates a Padder with the given target spatial size.
func NewPadder(targetH, targetW int) (*Padder, error) {
	if targetH <= 0 || targetW <= 0 {
		return nil, errors.Wrapf(ErrBadTarget, "%dx%d", targetH, targetW)
	}

	return &Padder{targetH: targetH, targetW: targetW}, nil
}

// Apply maps a rank-2 (H,W) or rank-3 channel-last (H,W,C) array to a
// rank-3 channel-first (C, max(H,targetH), max(W,targetW)) tensor.
func (p *Padder) Apply(in *tensor.Dense) (*tensor.Dense, error) {
	if in == nil {
		return nil, errors.Wrap(ErrBadRank, "input is nil")
	}

	var h, w, c int
	var at func(y, x, ch int) float32

	switch in.Rank() {
	case 2:
		h, w, c = in.Dim(0), in.Dim(1), 1
		at = func(y, x, _ int) float32 { return in.At(y, x) }
	case 3:
		h, w, c = in.Dim(0), in.Dim(1), in.Dim(2)
		at = func(y, x, ch int) float32 { return in.At(y, x, ch) }
	default:
		return nil, errors.Wrapf(ErrBadRank, "got rank %d", in.Rank())
	}

	outH := max(h, p.targetH)
	outW := max(w, p.targetW)

	out, err := tensor.Zeros(c, outH, outW)
	if err != nil {
		return nil, errors.Wrap(err, "allocate output")
	}

	for ch := 0; ch < c; ch++ {
		for y := 0; y < outH; y++ {
			sy := reflect(y, h)
			for x := 0; x < outW; x++ {
				out.Set(at(sy, reflect(x, w), ch), ch, y, x)
			}
		}
	}

	return out, nil
}

// reflect maps an output index onto a source axis of length n by mirroring
// around the last element without repeating it. An axis of length one
// degenerates to replication.
func reflect(i, n int) int {
	if i < n {
		return i
	}
	if n == 1 {
		return 0
	}
	period := 2 * (n - 1)
	i %= period
	if i >= n {
		i = period - i
	}

	return i
}
