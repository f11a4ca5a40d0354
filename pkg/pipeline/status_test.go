package pipeline_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/rastml/segpipe/pkg/pipeline"
)

func TestFileStoreAppends(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "run_status.yaml")
	store := pipeline.NewFileStore(path)
	ctx := context.Background()

	first := pipeline.Entry{
		Stage:     "fit",
		StartedAt: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC),
		Duration:  3 * time.Second,
		Outcome:   pipeline.OutcomeSucceeded,
	}
	second := pipeline.Entry{
		Stage:     "test",
		StartedAt: time.Date(2024, 3, 1, 12, 5, 0, 0, time.UTC),
		Duration:  time.Second,
		Outcome:   pipeline.OutcomeFailed,
		Error:     "device lost",
	}

	require.NoError(t, store.Record(ctx, first))
	require.NoError(t, store.Record(ctx, second))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)

	var entries []pipeline.Entry
	require.NoError(t, yaml.Unmarshal(raw, &entries))

	require.Len(t, entries, 2)
	assert.Equal(t, "fit", entries[0].Stage)
	assert.Equal(t, pipeline.OutcomeSucceeded, entries[0].Outcome)
	assert.Equal(t, "test", entries[1].Stage)
	assert.Equal(t, "device lost", entries[1].Error)
	assert.Equal(t, time.Second, entries[1].Duration)
}

func TestFileStoreRejectsCorruptFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "run_status.yaml")
	require.NoError(t, os.WriteFile(path, []byte("{not yaml"), 0o644))

	store := pipeline.NewFileStore(path)
	err := store.Record(context.Background(), pipeline.Entry{Stage: "fit"})
	assert.Error(t, err)
}
