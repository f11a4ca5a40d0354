// Package localengine is the in-repo reference engine used by the CLI. It
// runs every stage synchronously in-process; a production session would
// swap in a real training backend behind the same contract.
package localengine

import (
	"context"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/rastml/segpipe/pkg/dataset"
	"github.com/rastml/segpipe/pkg/pipeline"
	"github.com/rastml/segpipe/pkg/tensor"
)

var ErrIncompleteSample = errors.New("sample must hold an image and a mask")

// Engine iterates loaders and reports losses through the logger. It holds
// no state between stages.
type Engine struct {
	epochs int
	log    *zap.Logger
}

func New(epochs int, log *zap.Logger) *Engine {
	if epochs < 1 {
		epochs = 1
	}

	return &Engine{epochs: epochs, log: log}
}

func (e *Engine) Fit(ctx context.Context, model pipeline.Model, train, val *dataset.Loader) error {
	for epoch := 1; epoch <= e.epochs; epoch++ {
		trainLoss, err := e.pass(ctx, model, train)
		if err != nil {
			return errors.Wrapf(err, "epoch %d train pass", epoch)
		}
		valLoss, err := e.pass(ctx, model, val)
		if err != nil {
			return errors.Wrapf(err, "epoch %d val pass", epoch)
		}

		e.log.Info("epoch finished",
			zap.Int("epoch", epoch),
			zap.Float64("train_loss", trainLoss),
			zap.Float64("val_loss", valLoss),
		)
	}

	return nil
}

func (e *Engine) Test(ctx context.Context, model pipeline.Model, test *dataset.Loader) error {
	loss, err := e.pass(ctx, model, test)
	if err != nil {
		return errors.Wrap(err, "test pass")
	}

	e.log.Info("test finished", zap.Float64("test_loss", loss))

	return nil
}

func (e *Engine) Predict(ctx context.Context, model pipeline.Model, predict *dataset.Loader) ([]*tensor.Dense, error) {
	var preds []*tensor.Dense
	err := predict.Iterate(ctx, func(b dataset.Batch) error {
		for _, sample := range b.Samples {
			if len(sample) == 0 {
				return ErrIncompleteSample
			}
			out, err := model.Forward(ctx, sample[0])
			if err != nil {
				return errors.Wrapf(err, "batch %d", b.Index)
			}
			preds = append(preds, out)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	return preds, nil
}

// pass runs one forward/loss sweep over a loader and returns the mean
// sample loss.
func (e *Engine) pass(ctx context.Context, model pipeline.Model, loader *dataset.Loader) (float64, error) {
	var total float64
	var count int

	err := loader.Iterate(ctx, func(b dataset.Batch) error {
		for _, sample := range b.Samples {
			if len(sample) < 2 {
				return ErrIncompleteSample
			}
			pred, err := model.Forward(ctx, sample[0])
			if err != nil {
				return errors.Wrapf(err, "batch %d forward", b.Index)
			}
			loss, err := model.Loss(pred, sample[1])
			if err != nil {
				return errors.Wrapf(err, "batch %d loss", b.Index)
			}
			total += loss
			count++
		}

		return nil
	})
	if err != nil {
		return 0, err
	}
	if count == 0 {
		return 0, nil
	}

	return total / float64(count), nil
}

var _ pipeline.Engine = (*Engine)(nil)
