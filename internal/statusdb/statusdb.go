// Package statusdb persists the run-status record in a local sqlite
// database, as an alternative to the YAML file store.
package statusdb

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"time"

	"github.com/pkg/errors"
	_ "modernc.org/sqlite"

	"github.com/rastml/segpipe/pkg/pipeline"
)

// Store appends run-status entries to a single sqlite table. Entries are
// never updated or deleted.
type Store struct {
	db   *sql.DB
	path string
}

// Open creates the database file (and parent directories) if needed.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, errors.Wrapf(err, "create %s", dir)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, errors.Wrap(err, "open sqlite")
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()

		return nil, errors.Wrap(err, "ping sqlite")
	}

	store := &Store{db: db, path: path}
	if err := store.initSchema(ctx); err != nil {
		_ = db.Close()

		return nil, err
	}

	return store, nil
}

func (s *Store) initSchema(ctx context.Context) error {
	stmts := []string{
		`PRAGMA journal_mode=WAL;`,
		`PRAGMA synchronous=NORMAL;`,
		`PRAGMA busy_timeout=5000;`,
		`
CREATE TABLE IF NOT EXISTS run_entries (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  stage TEXT NOT NULL,
  started_at_ns INTEGER NOT NULL,
  duration_ns INTEGER NOT NULL,
  outcome TEXT NOT NULL,
  error TEXT NOT NULL DEFAULT ''
);`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return errors.Wrap(err, "init schema")
		}
	}

	return nil
}

// Record appends one entry.
func (s *Store) Record(ctx context.Context, e pipeline.Entry) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO run_entries (stage, started_at_ns, duration_ns, outcome, error) VALUES (?, ?, ?, ?, ?);`,
		e.Stage, e.StartedAt.UnixNano(), int64(e.Duration), string(e.Outcome), e.Error,
	)
	if err != nil {
		return errors.Wrap(err, "insert run entry")
	}

	return nil
}

// Entries returns the whole record in append order.
func (s *Store) Entries(ctx context.Context) ([]pipeline.Entry, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT stage, started_at_ns, duration_ns, outcome, error FROM run_entries ORDER BY id;`)
	if err != nil {
		return nil, errors.Wrap(err, "query run entries")
	}
	defer rows.Close()

	var entries []pipeline.Entry
	for rows.Next() {
		var (
			entry              pipeline.Entry
			startNS, durNS     int64
			outcome, diagError string
		)
		if err := rows.Scan(&entry.Stage, &startNS, &durNS, &outcome, &diagError); err != nil {
			return nil, errors.Wrap(err, "scan run entry")
		}
		entry.StartedAt = time.Unix(0, startNS)
		entry.Duration = time.Duration(durNS)
		entry.Outcome = pipeline.Outcome(outcome)
		entry.Error = diagError
		entries = append(entries, entry)
	}

	return entries, errors.Wrap(rows.Err(), "iterate run entries")
}

func (s *Store) Close() error {
	return s.db.Close()
}

var _ pipeline.StatusStore = (*Store)(nil)
