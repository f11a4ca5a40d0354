// Package datamodule holds the stage-scoped dataset lifecycle: it builds
// only the paired datasets a given stage needs and wraps them in loaders.
package datamodule

import (
	"path/filepath"
	"runtime"

	"github.com/pkg/errors"

	"github.com/rastml/segpipe/pkg/dataset"
)

var (
	ErrNoTransform = errors.New("transform must be set")
	ErrNoFactory   = errors.New("reader factory must be set")
	ErrNotSetUp    = errors.New("dataset not built, call Setup first")
)

// ReaderFactory opens one raw-sample source rooted at dir. The datamodule
// never decodes rasters itself.
type ReaderFactory func(dir string) (dataset.Reader, error)

// Config is the data-layer configuration surface.
type Config struct {
	// TrainPath and AnnotationPath are the image and mask roots. Each
	// contains train/, val/ and test/ split subdirectories.
	TrainPath      string
	AnnotationPath string

	// BatchSize defaults to 1.
	BatchSize int

	// NumWorkers defaults to the worker resolver's value (host CPU count
	// unless overridden), resolved once at construction.
	NumWorkers int
}

type Option func(*Module)

// WithWorkerResolver replaces the host-CPU default used when
// Config.NumWorkers is unset.
func WithWorkerResolver(fn func() int) Option {
	return func(m *Module) {
		m.resolve = fn
	}
}

// WithSeed fixes the train loader's shuffle sequence.
func WithSeed(seed int64) Option {
	return func(m *Module) {
		m.seed = seed
	}
}

// Module owns the per-stage dataset slots. It starts empty; Setup is the
// only mutator and rebuilds the slots for the requested stage from the
// configured roots every time it is called.
type Module struct {
	cfg     Config
	tf      dataset.Transform
	open    ReaderFactory
	resolve func() int
	workers int
	seed    int64

	train   *dataset.Paired
	val     *dataset.Paired
	test    *dataset.Paired
	predict *dataset.Paired
}

// New creates an empty module. No datasets are built until Setup.
func New(cfg Config, tf dataset.Transform, open ReaderFactory, opts ...Option) (*Module, error) {
	if tf == nil {
		return nil, ErrNoTransform
	}
	if open == nil {
		return nil, ErrNoFactory
	}

	mod := &Module{
		cfg:     cfg,
		tf:      tf,
		open:    open,
		resolve: runtime.NumCPU,
	}
	for _, opt := range opts {
		opt(mod)
	}

	if mod.cfg.BatchSize < 1 {
		mod.cfg.BatchSize = 1
	}
	mod.workers = mod.cfg.NumWorkers
	if mod.workers < 1 {
		mod.workers = mod.resolve()
	}
	if mod.workers < 1 {
		mod.workers = 1
	}

	return mod, nil
}

// Workers returns the resolved loader worker count.
func (m *Module) Workers() int { return m.workers }

// Setup builds the datasets for one stage: fit fills the train and val
// slots, test and predict share one dataset built from the test split.
// Slots belonging to the other stage are cleared, so only one stage's
// datasets exist at a time. Unknown stages are rejected without touching
// any slot.
func (m *Module) Setup(stage Stage) error {
	switch stage {
	case StageFit:
		train, err := m.buildSplit("train")
		if err != nil {
			return errors.Wrap(err, "train split")
		}
		val, err := m.buildSplit("val")
		if err != nil {
			return errors.Wrap(err, "val split")
		}
		m.train, m.val = train, val
		m.test, m.predict = nil, nil
	case StageTest, StagePredict:
		eval, err := m.buildSplit("test")
		if err != nil {
			return errors.Wrap(err, "test split")
		}
		m.test, m.predict = eval, eval
		m.train, m.val = nil, nil
	default:
		return errors.Wrapf(ErrUnknownStage, "stage %d", stage)
	}

	return nil
}

func (m *Module) buildSplit(split string) (*dataset.Paired, error) {
	images, err := m.open(filepath.Join(m.cfg.TrainPath, split))
	if err != nil {
		return nil, errors.Wrap(err, "open image reader")
	}
	masks, err := m.open(filepath.Join(m.cfg.AnnotationPath, split))
	if err != nil {
		return nil, errors.Wrap(err, "open mask reader")
	}

	paired, err := dataset.NewPaired(m.tf, images, masks)
	if err != nil {
		return nil, errors.Wrap(err, "pair readers")
	}

	return paired, nil
}

// TrainLoader wraps the train dataset in a shuffling loader. A fresh
// loader is built on every call; there is no shared state between them.
func (m *Module) TrainLoader() (*dataset.Loader, error) {
	if m.train == nil {
		return nil, errors.Wrap(ErrNotSetUp, "train loader")
	}

	return dataset.NewLoader(m.train, "train",
		dataset.LoaderBatchSize(m.cfg.BatchSize),
		dataset.LoaderWorkers(m.workers),
		dataset.LoaderShuffle(),
		dataset.LoaderSeed(m.seed),
	)
}

// ValLoader wraps the val dataset in an order-preserving loader.
func (m *Module) ValLoader() (*dataset.Loader, error) {
	if m.val == nil {
		return nil, errors.Wrap(ErrNotSetUp, "val loader")
	}

	return m.evalLoader(m.val, "val")
}

// TestLoader wraps the test dataset in an order-preserving loader.
func (m *Module) TestLoader() (*dataset.Loader, error) {
	if m.test == nil {
		return nil, errors.Wrap(ErrNotSetUp, "test loader")
	}

	return m.evalLoader(m.test, "test")
}

// PredictLoader wraps the predict dataset in an order-preserving loader.
func (m *Module) PredictLoader() (*dataset.Loader, error) {
	if m.predict == nil {
		return nil, errors.Wrap(ErrNotSetUp, "predict loader")
	}

	return m.evalLoader(m.predict, "predict")
}

func (m *Module) evalLoader(ds *dataset.Paired, name string) (*dataset.Loader, error) {
	return dataset.NewLoader(ds, name,
		dataset.LoaderBatchSize(m.cfg.BatchSize),
		dataset.LoaderWorkers(m.workers),
	)
}
