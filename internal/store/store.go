package store

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/elonfeng/mediatracker/pkg/ingest"
)

// Run is one recorded ingestion run.
type Run struct {
	ID         string    `db:"id" json:"id"`
	StartedAt  time.Time `db:"started_at" json:"started_at"`
	FinishedAt time.Time `db:"finished_at" json:"finished_at"`
	Candidates int       `db:"candidates" json:"candidates"`
	Appended   int       `db:"appended" json:"appended"`
	Notified   bool      `db:"notified" json:"notified"`
	Recipients int       `db:"recipients" json:"recipients"`
	Error      string    `db:"error" json:"error,omitempty"`
}

// Hit is one search result seen during a run.
type Hit struct {
	ID       int64  `db:"id" json:"-"`
	RunID    string `db:"run_id" json:"run_id"`
	Query    string `db:"query" json:"query"`
	URL      string `db:"url" json:"url"`
	Title    string `db:"title" json:"title"`
	Source   string `db:"source" json:"source"`
	Accepted bool   `db:"accepted" json:"accepted"`
}

// Store is the run-ledger interface.
type Store interface {
	RecordRun(ctx context.Context, r *ingest.Report) error
	ListRuns(ctx context.Context, limit int) ([]Run, error)
	HitsForRun(ctx context.Context, runID string) ([]Hit, error)
	Close() error
}

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db *sqlx.DB
}

// New opens a SQLite database and runs migrations.
func New(path string) (*SQLiteStore, error) {
	db, err := sqlx.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// RecordRun stores the run summary and every hit in one transaction.
func (s *SQLiteStore) RecordRun(ctx context.Context, r *ingest.Report) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin record run: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO runs (id, started_at, finished_at, candidates, appended, notified, recipients, error)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, r.RunID, r.StartedAt.UTC(), r.FinishedAt.UTC(), len(r.Candidates), r.Appended,
		r.Notified, r.Recipients, r.Error)
	if err != nil {
		return fmt.Errorf("insert run %s: %w", r.RunID, err)
	}

	for _, h := range r.Hits {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO search_hits (run_id, query, url, title, source, accepted)
			VALUES (?, ?, ?, ?, ?, ?)
		`, r.RunID, h.Query, h.URL, h.Title, h.Source, h.Accepted)
		if err != nil {
			return fmt.Errorf("insert hit %s: %w", h.URL, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit run %s: %w", r.RunID, err)
	}
	return nil
}

// ListRuns returns the most recent runs first.
func (s *SQLiteStore) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 20
	}
	var runs []Run
	if err := s.db.SelectContext(ctx, &runs,
		"SELECT * FROM runs ORDER BY started_at DESC LIMIT ?", limit); err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	return runs, nil
}

// HitsForRun returns the hits of one run in the order they were seen.
func (s *SQLiteStore) HitsForRun(ctx context.Context, runID string) ([]Hit, error) {
	var hits []Hit
	if err := s.db.SelectContext(ctx, &hits,
		"SELECT * FROM search_hits WHERE run_id = ? ORDER BY id", runID); err != nil {
		return nil, fmt.Errorf("hits for run %s: %w", runID, err)
	}
	return hits, nil
}
