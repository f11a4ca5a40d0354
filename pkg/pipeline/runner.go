package pipeline

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/rastml/segpipe/internal/logging"
	"github.com/rastml/segpipe/internal/telemetry"
	"github.com/rastml/segpipe/pkg/datamodule"
	"github.com/rastml/segpipe/pkg/pipeline/drawer"
	"github.com/rastml/segpipe/pkg/tensor"
)

var (
	ErrModelMustBeSet  = errors.New("model must be set")
	ErrEngineMustBeSet = errors.New("engine must be set")
)

// Runner dispatches a stage to the matching engine entrypoint and records
// the outcome. One Runner lives for one training session; its run-status
// record only ever grows.
type Runner struct {
	model  Model
	engine Engine
	status *Status
	store  StatusStore
	flow   *drawer.Flow
	now    func() time.Time
	log    *zap.Logger
}

type Option func(*Runner)

// WithStatusStore persists every run-status entry as a side effect of Run.
func WithStatusStore(store StatusStore) Option {
	return func(r *Runner) {
		r.store = store
	}
}

// WithDrawer records the session's data flow for later rendering.
func WithDrawer(flow *drawer.Flow) Option {
	return func(r *Runner) {
		r.flow = flow
	}
}

// WithClock replaces the wall clock, for tests.
func WithClock(now func() time.Time) Option {
	return func(r *Runner) {
		r.now = now
	}
}

func WithLogger(log *zap.Logger) Option {
	return func(r *Runner) {
		r.log = log
	}
}

// New creates a runner around a model and an engine.
func New(model Model, engine Engine, opts ...Option) (*Runner, error) {
	if model == nil {
		return nil, ErrModelMustBeSet
	}
	if engine == nil {
		return nil, ErrEngineMustBeSet
	}

	runner := &Runner{
		model:  model,
		engine: engine,
		status: &Status{},
		now:    time.Now,
		log:    logging.L(),
	}
	for _, opt := range opts {
		opt(runner)
	}

	return runner, nil
}

// Status returns a copy of the run-status record.
func (r *Runner) Status() []Entry {
	return r.status.Entries()
}

// Run sets up the datamodule for the stage, hands the matching loaders to
// the engine and blocks until the entrypoint returns. The outcome is
// appended to the run-status record either way; engine failures are
// recorded and then propagated, never swallowed. For the predict stage the
// engine's prediction sequence is returned; other stages return nil.
//
// An unknown stage is rejected by Setup before the engine is touched, so
// invalid input leaves no partial side effects.
func (r *Runner) Run(ctx context.Context, mod *datamodule.Module, stage datamodule.Stage) ([]*tensor.Dense, error) {
	if err := mod.Setup(stage); err != nil {
		return nil, errors.Wrapf(err, "setup stage %s", stage)
	}

	start := r.now()
	r.log.Info("stage starting", zap.String("stage", stage.String()))

	preds, runErr := r.dispatch(ctx, mod, stage)
	elapsed := r.now().Sub(start)

	entry := Entry{
		Stage:     stage.String(),
		StartedAt: start,
		Duration:  elapsed,
		Outcome:   OutcomeSucceeded,
	}
	if runErr != nil {
		entry.Outcome = OutcomeFailed
		entry.Error = runErr.Error()
	}
	r.status.add(entry)
	telemetry.ObserveStage(entry.Stage, string(entry.Outcome), elapsed)

	if r.store != nil {
		if err := r.store.Record(ctx, entry); err != nil {
			// Best-effort logging; the engine outcome wins.
			r.log.Warn("persist run status", zap.String("stage", entry.Stage), zap.Error(err))
		}
	}
	if r.flow != nil {
		if err := r.recordFlow(stage, elapsed); err != nil {
			r.log.Warn("record flow", zap.String("stage", entry.Stage), zap.Error(err))
		}
	}

	if runErr != nil {
		r.log.Error("stage failed", zap.String("stage", entry.Stage), zap.Duration("elapsed", elapsed), zap.Error(runErr))

		return nil, errors.Wrapf(runErr, "engine %s", stage)
	}

	r.log.Info("stage finished", zap.String("stage", entry.Stage), zap.Duration("elapsed", elapsed))

	return preds, nil
}

func (r *Runner) dispatch(ctx context.Context, mod *datamodule.Module, stage datamodule.Stage) ([]*tensor.Dense, error) {
	switch stage {
	case datamodule.StageFit:
		train, err := mod.TrainLoader()
		if err != nil {
			return nil, err
		}
		val, err := mod.ValLoader()
		if err != nil {
			return nil, err
		}

		return nil, r.engine.Fit(ctx, r.model, train, val)
	case datamodule.StageTest:
		test, err := mod.TestLoader()
		if err != nil {
			return nil, err
		}

		return nil, r.engine.Test(ctx, r.model, test)
	case datamodule.StagePredict:
		predict, err := mod.PredictLoader()
		if err != nil {
			return nil, err
		}

		return r.engine.Predict(ctx, r.model, predict)
	default:
		// Setup already rejected anything outside the enum.
		return nil, errors.Wrapf(datamodule.ErrUnknownStage, "stage %d", stage)
	}
}

func (r *Runner) recordFlow(stage datamodule.Stage, elapsed time.Duration) error {
	engineNode := "engine:" + stage.String()

	var chains [][2]string
	switch stage {
	case datamodule.StageFit:
		chains = [][2]string{{"dataset:train", "loader:train"}, {"dataset:val", "loader:val"}}
	case datamodule.StageTest:
		chains = [][2]string{{"dataset:test", "loader:test"}}
	case datamodule.StagePredict:
		chains = [][2]string{{"dataset:predict", "loader:predict"}}
	}

	if err := r.flow.AddNode(engineNode); err != nil {
		return err
	}
	for _, chain := range chains {
		ds, loader := chain[0], chain[1]
		if err := r.flow.AddNode(ds); err != nil {
			return err
		}
		if err := r.flow.AddNode(loader); err != nil {
			return err
		}
		if err := r.flow.AddEdge(ds, loader); err != nil {
			return err
		}
		if err := r.flow.AddEdge(loader, engineNode); err != nil {
			return err
		}
	}

	return r.flow.SetDuration(engineNode, elapsed)
}
