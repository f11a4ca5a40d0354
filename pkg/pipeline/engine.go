package pipeline

import (
	"context"

	"github.com/rastml/segpipe/pkg/dataset"
	"github.com/rastml/segpipe/pkg/tensor"
)

// Model is the minimal surface the engine needs from a segmentation model.
// Architecture and parameter handling live entirely behind it.
type Model interface {
	Forward(ctx context.Context, in *tensor.Dense) (*tensor.Dense, error)
	Loss(pred, target *tensor.Dense) (float64, error)
}

// Engine executes one stage synchronously. Each entrypoint blocks until
// the stage finishes or fails; interruption of a long run is the engine's
// own concern.
type Engine interface {
	Fit(ctx context.Context, model Model, train, val *dataset.Loader) error
	Test(ctx context.Context, model Model, test *dataset.Loader) error
	Predict(ctx context.Context, model Model, predict *dataset.Loader) ([]*tensor.Dense, error)
}
