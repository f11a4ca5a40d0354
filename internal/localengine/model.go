package localengine

import (
	"context"

	"github.com/pkg/errors"

	"github.com/rastml/segpipe/pkg/pipeline"
	"github.com/rastml/segpipe/pkg/tensor"
)

var ErrShapeMismatch = errors.New("prediction and target shapes differ")

// ThresholdModel is a parameter-free segmenter: a pixel is foreground when
// its channel mean reaches the threshold. It exists so the CLI can
// exercise every stage without a training backend.
type ThresholdModel struct {
	threshold float32
}

func NewThresholdModel(threshold float32) *ThresholdModel {
	if threshold <= 0 {
		threshold = 0.5
	}

	return &ThresholdModel{threshold: threshold}
}

// Forward maps a (C,H,W) input to a binary (1,H,W) mask.
func (m *ThresholdModel) Forward(_ context.Context, in *tensor.Dense) (*tensor.Dense, error) {
	if in.Rank() != 3 {
		return nil, errors.Errorf("expected channel-first input, got rank %d", in.Rank())
	}

	c, h, w := in.Dim(0), in.Dim(1), in.Dim(2)
	out, err := tensor.Zeros(1, h, w)
	if err != nil {
		return nil, err
	}

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			var sum float32
			for ch := 0; ch < c; ch++ {
				sum += in.At(ch, y, x)
			}
			if sum/float32(c) >= m.threshold {
				out.Set(1, 0, y, x)
			}
		}
	}

	return out, nil
}

// Loss is the mean squared error between prediction and target.
func (m *ThresholdModel) Loss(pred, target *tensor.Dense) (float64, error) {
	if pred.Len() != target.Len() {
		return 0, errors.Wrapf(ErrShapeMismatch, "%v vs %v", pred.Shape(), target.Shape())
	}

	var sum float64
	p, t := pred.Data(), target.Data()
	for i := range p {
		diff := float64(p[i] - t[i])
		sum += diff * diff
	}

	return sum / float64(len(p)), nil
}

var _ pipeline.Model = (*ThresholdModel)(nil)
