package statusdb_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rastml/segpipe/internal/statusdb"
	"github.com/rastml/segpipe/pkg/pipeline"
)

func TestRecordAndEntries(t *testing.T) {
	t.Parallel()

	store, err := statusdb.Open(filepath.Join(t.TempDir(), "status.sqlite"))
	require.NoError(t, err)
	defer store.Close()

	ctx := context.Background()
	started := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	require.NoError(t, store.Record(ctx, pipeline.Entry{
		Stage:     "fit",
		StartedAt: started,
		Duration:  3 * time.Second,
		Outcome:   pipeline.OutcomeSucceeded,
	}))
	require.NoError(t, store.Record(ctx, pipeline.Entry{
		Stage:     "predict",
		StartedAt: started.Add(time.Minute),
		Duration:  time.Second,
		Outcome:   pipeline.OutcomeFailed,
		Error:     "device lost",
	}))

	entries, err := store.Entries(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 2)

	assert.Equal(t, "fit", entries[0].Stage)
	assert.Equal(t, pipeline.OutcomeSucceeded, entries[0].Outcome)
	assert.Equal(t, started.UnixNano(), entries[0].StartedAt.UnixNano())
	assert.Equal(t, 3*time.Second, entries[0].Duration)

	assert.Equal(t, "predict", entries[1].Stage)
	assert.Equal(t, "device lost", entries[1].Error)
}

func TestOpenCreatesParentDirs(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "nested", "dir", "status.sqlite")
	store, err := statusdb.Open(path)
	require.NoError(t, err)
	defer store.Close()

	entries, err := store.Entries(context.Background())
	require.NoError(t, err)
	assert.Empty(t, entries)
}
