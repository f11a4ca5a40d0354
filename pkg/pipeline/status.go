package pipeline

import (
	"context"
	"os"
	"sync"
	"time"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Outcome is the recorded result of one stage run.
type Outcome string

const (
	OutcomeSucceeded Outcome = "succeeded"
	OutcomeFailed    Outcome = "failed"
)

// Entry is one line of the run-status record.
type Entry struct {
	Stage     string        `yaml:"stage"`
	StartedAt time.Time     `yaml:"started_at"`
	Duration  time.Duration `yaml:"duration"`
	Outcome   Outcome       `yaml:"outcome"`
	Error     string        `yaml:"error,omitempty"`
}

// Status is the append-only record of stage runs for one session. Entries
// are never overwritten, including for repeated runs of the same stage.
type Status struct {
	mu      sync.Mutex
	entries []Entry
}

func (s *Status) add(e Entry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = append(s.entries, e)
}

// Entries returns a copy of the record in append order.
func (s *Status) Entries() []Entry {
	s.mu.Lock()
	defer s.mu.Unlock()

	return append([]Entry{}, s.entries...)
}

// StatusStore persists run-status entries. Recording is best-effort from
// the runner's perspective: a store failure is logged, never returned in
// place of the engine outcome.
type StatusStore interface {
	Record(ctx context.Context, e Entry) error
}

// FileStore appends entries to a YAML file, rewriting the whole list on
// every record.
type FileStore struct {
	mu   sync.Mutex
	path string
}

func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

func (f *FileStore) Record(_ context.Context, e Entry) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	var entries []Entry
	raw, err := os.ReadFile(f.path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(raw, &entries); err != nil {
			return errors.Wrapf(err, "decode %s", f.path)
		}
	case os.IsNotExist(err):
	default:
		return errors.Wrapf(err, "read %s", f.path)
	}

	entries = append(entries, e)
	out, err := yaml.Marshal(entries)
	if err != nil {
		return errors.Wrap(err, "encode run status")
	}
	if err := os.WriteFile(f.path, out, 0o644); err != nil {
		return errors.Wrapf(err, "write %s", f.path)
	}

	return nil
}

var _ StatusStore = (*FileStore)(nil)
