// Package store provides SQLite-backed persistence for the history of
// documentation runs and the documents each run produced.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/oklog/ulid/v2"
	_ "modernc.org/sqlite"

	"github.com/julianshen/docgen/internal/docgen"
)

// Run is one recorded pipeline run.
type Run struct {
	ID         string
	Project    string
	Repository string
	Branch     string
	OutputDir  string
	Status     string
	Error      string
	Documents  int
	StartedAt  time.Time
	FinishedAt *time.Time
}

// Duration returns how long the run took, or zero while it is running.
func (r Run) Duration() time.Duration {
	if r.FinishedAt == nil {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}

// RunDocument is one document written by a run.
type RunDocument struct {
	RunID  string
	Dir    string
	Path   string
	Files  int
	Failed bool
	Bytes  int
}

// Store wraps a SQLite database of runs. It satisfies docgen.Recorder.
type Store struct {
	db *sql.DB
}

var _ docgen.Recorder = (*Store)(nil)

// NewStore opens (or creates) a SQLite database at dbPath and ensures
// all required tables exist. Use ":memory:" for an in-memory database.
func NewStore(dbPath string) (*Store, error) {
	if dbPath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	// One connection: an in-memory database exists per connection, and
	// SQLite serialises writers anyway.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(`PRAGMA foreign_keys = ON`); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}
	if err := createTables(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("create tables: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func createTables(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			id          TEXT PRIMARY KEY,
			project     TEXT NOT NULL,
			repository  TEXT NOT NULL,
			branch      TEXT NOT NULL,
			output_dir  TEXT NOT NULL,
			status      TEXT NOT NULL,
			error       TEXT NOT NULL DEFAULT '',
			documents   INTEGER NOT NULL DEFAULT 0,
			started_at  DATETIME NOT NULL,
			finished_at DATETIME
		)`,
		`CREATE TABLE IF NOT EXISTS run_documents (
			run_id  TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
			dir     TEXT NOT NULL,
			path    TEXT NOT NULL,
			files   INTEGER NOT NULL,
			failed  INTEGER NOT NULL,
			bytes   INTEGER NOT NULL,
			PRIMARY KEY (run_id, path)
		)`,
	}
	for _, stmt := range stmts {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("exec %q: %w", stmt[:40], err)
		}
	}
	return nil
}

// StartRun inserts a running run and returns its new ID.
func (s *Store) StartRun(ctx context.Context, info docgen.RunInfo) (string, error) {
	id := ulid.Make().String()
	started := info.StartedAt
	if started.IsZero() {
		started = time.Now()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO runs (id, project, repository, branch, output_dir, status, started_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		id, info.Project, info.Repository, info.Branch, info.OutputDir, docgen.StatusRunning, started.UTC(),
	)
	if err != nil {
		return "", fmt.Errorf("start run: %w", err)
	}
	return id, nil
}

// AddDocument records a document of a run. Recording the same path twice
// replaces the earlier record.
func (s *Store) AddDocument(ctx context.Context, runID string, doc docgen.DocumentRecord) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO run_documents (run_id, dir, path, files, failed, bytes)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		runID, doc.Dir, doc.Path, doc.Files, doc.Failed, doc.Bytes,
	)
	if err != nil {
		return fmt.Errorf("add document: %w", err)
	}
	return nil
}

// FinishRun sets the final status of a run.
func (s *Store) FinishRun(ctx context.Context, runID string, summary docgen.RunSummary) error {
	finished := summary.FinishedAt
	if finished.IsZero() {
		finished = time.Now()
	}
	res, err := s.db.ExecContext(ctx,
		`UPDATE runs SET status = ?, error = ?, documents = ?, finished_at = ? WHERE id = ?`,
		summary.Status, summary.Error, summary.Documents, finished.UTC(), runID,
	)
	if err != nil {
		return fmt.Errorf("finish run: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("finish run: unknown run %q", runID)
	}
	return nil
}

const runColumns = `id, project, repository, branch, output_dir, status, error, documents, started_at, finished_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (*Run, error) {
	var r Run
	var finished sql.NullTime
	if err := row.Scan(&r.ID, &r.Project, &r.Repository, &r.Branch, &r.OutputDir,
		&r.Status, &r.Error, &r.Documents, &r.StartedAt, &finished); err != nil {
		return nil, err
	}
	if finished.Valid {
		t := finished.Time
		r.FinishedAt = &t
	}
	return &r, nil
}

// GetRun retrieves a run by ID. Returns nil if the run is not found.
func (s *Store) GetRun(ctx context.Context, id string) (*Run, error) {
	r, err := scanRun(s.db.QueryRowContext(ctx, `SELECT `+runColumns+` FROM runs WHERE id = ?`, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get run: %w", err)
	}
	return r, nil
}

// ListRuns returns the most recent runs first. A non-positive limit returns
// all runs.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+runColumns+` FROM runs ORDER BY started_at DESC, id DESC LIMIT ?`, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		runs = append(runs, *r)
	}
	return runs, rows.Err()
}

// ListDocuments returns the documents of a run, sorted by path.
func (s *Store) ListDocuments(ctx context.Context, runID string) ([]RunDocument, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT run_id, dir, path, files, failed, bytes
		 FROM run_documents WHERE run_id = ? ORDER BY path`, runID,
	)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	defer rows.Close()

	var docs []RunDocument
	for rows.Next() {
		var d RunDocument
		if err := rows.Scan(&d.RunID, &d.Dir, &d.Path, &d.Files, &d.Failed, &d.Bytes); err != nil {
			return nil, fmt.Errorf("scan document: %w", err)
		}
		docs = append(docs, d)
	}
	return docs, rows.Err()
}

// DeleteRun removes a run and its documents.
func (s *Store) DeleteRun(ctx context.Context, id string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM runs WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete run: %w", err)
	}
	return nil
}
