package dataset

import (
	"context"
	"math/rand"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"github.com/rastml/segpipe/internal/telemetry"
)

var ErrNoDataset = errors.New("dataset must be set")

// Batch is one slice of the dataset handed to the consumer.
type Batch struct {
	Index   int
	Samples []Sample
}

// Loader iterates over a paired dataset in batches. Samples inside a batch
// are fetched by a bounded pool of workers; batches are always delivered in
// order. A shuffling loader reshuffles on every Iterate call, so one call
// corresponds to one epoch.
type Loader struct {
	ds        *Paired
	name      string
	batchSize int
	workers   int
	shuffle   bool
	rnd       *rand.Rand
}

type LoaderOption func(*Loader)

// LoaderBatchSize sets the number of samples per batch. The final batch
// may be smaller.
func LoaderBatchSize(n int) LoaderOption {
	return func(l *Loader) {
		l.batchSize = n
	}
}

// LoaderWorkers bounds the number of concurrent sample fetches.
func LoaderWorkers(n int) LoaderOption {
	return func(l *Loader) {
		l.workers = n
	}
}

// LoaderShuffle makes every Iterate call visit samples in a fresh random
// order.
func LoaderShuffle() LoaderOption {
	return func(l *Loader) {
		l.shuffle = true
	}
}

// LoaderSeed fixes the shuffle sequence. Zero keeps the time-based default.
func LoaderSeed(seed int64) LoaderOption {
	return func(l *Loader) {
		if seed != 0 {
			l.rnd = rand.New(rand.NewSource(seed))
		}
	}
}

// NewLoader wraps a paired dataset. The name labels metrics and errors,
// usually the split name.
func NewLoader(ds *Paired, name string, opts ...LoaderOption) (*Loader, error) {
	if ds == nil {
		return nil, ErrNoDataset
	}

	loader := &Loader{
		ds:        ds,
		name:      name,
		batchSize: 1,
		workers:   1,
		rnd:       rand.New(rand.NewSource(time.Now().UnixNano())),
	}
	for _, opt := range opts {
		opt(loader)
	}
	if loader.batchSize < 1 {
		loader.batchSize = 1
	}
	if loader.workers < 1 {
		loader.workers = 1
	}

	return loader, nil
}

// Len returns the number of batches per epoch.
func (l *Loader) Len() int {
	return (l.ds.Len() + l.batchSize - 1) / l.batchSize
}

// Iterate runs one epoch, calling fn once per batch in order. It stops on
// the first fetch error, the first error returned by fn, or context
// cancellation.
func (l *Loader) Iterate(ctx context.Context, fn func(Batch) error) error {
	order := make([]int, l.ds.Len())
	for i := range order {
		order[i] = i
	}
	if l.shuffle {
		l.rnd.Shuffle(len(order), func(i, j int) {
			order[i], order[j] = order[j], order[i]
		})
	}

	for start := 0; start < len(order); start += l.batchSize {
		select {
		case <-ctx.Done():
			return errors.Wrapf(ctx.Err(), "loader %s", l.name)
		default:
		}

		indices := order[start:min(start+l.batchSize, len(order))]
		samples := make([]Sample, len(indices))

		grp, gCtx := errgroup.WithContext(ctx)
		grp.SetLimit(l.workers)
		for k, idx := range indices {
			grp.Go(func() error {
				if err := gCtx.Err(); err != nil {
					return err
				}
				sample, err := l.ds.At(idx)
				if err != nil {
					return errors.Wrapf(err, "loader %s", l.name)
				}
				samples[k] = sample

				return nil
			})
		}
		if err := grp.Wait(); err != nil {
			return err
		}

		telemetry.AddSamples(l.name, len(indices))
		telemetry.AddBatch(l.name)

		if err := fn(Batch{Index: start / l.batchSize, Samples: samples}); err != nil {
			return err
		}
	}

	return nil
}
