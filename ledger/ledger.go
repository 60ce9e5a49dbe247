// Package ledger records batch runs, the documents they processed and the
// headings each document produced in a SQLite database.
package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/tsawler/outliner/model"
)

// Status is the outcome of one document
type Status string

const (
	StatusOK     Status = "ok"
	StatusEmpty  Status = "empty"
	StatusFailed Status = "failed"
)

// ErrRunNotFound is returned for an unknown run ID
var ErrRunNotFound = errors.New("run not found")

// Run is one batch invocation
type Run struct {
	ID            string
	StartedAt     time.Time
	FinishedAt    time.Time // zero while the run is in progress
	Model         string
	Workers       int
	DocumentCount int
	FailedCount   int
}

// Finished reports whether FinishRun was called for the run
func (r Run) Finished() bool {
	return !r.FinishedAt.IsZero()
}

// Document is the record of one processed file
type Document struct {
	ID           int64
	RunID        string
	Path         string
	OutputPath   string
	Status       Status
	Error        string
	Title        string
	Language     string
	PageCount    int
	WarningCount int
	Duration     time.Duration
	Headings     []model.Heading
}

// Ledger is a handle to the run database. It is safe for concurrent use.
type Ledger struct {
	db   *sql.DB
	path string
}

// Open opens or creates the ledger database at path
func Open(path string) (*Ledger, error) {
	db, err := sql.Open("sqlite", path+"?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite allows a single writer; serialize through one connection.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	l := &Ledger{db: db, path: path}
	if err := l.ensureSchemaExists(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return l, nil
}

func (l *Ledger) ensureSchemaExists() error {
	var name string
	err := l.db.QueryRow("SELECT name FROM sqlite_master WHERE type='table' AND name='runs'").Scan(&name)
	if errors.Is(err, sql.ErrNoRows) {
		_, err = l.db.Exec(schema)
		return err
	}
	if err != nil {
		return fmt.Errorf("failed to check schema: %w", err)
	}
	return nil
}

// Path returns the database file path
func (l *Ledger) Path() string {
	return l.path
}

// Close closes the database
func (l *Ledger) Close() error {
	return l.db.Close()
}

// StartRun creates a run with a new ID
func (l *Ledger) StartRun(ctx context.Context, modelPath string, workers int) (*Run, error) {
	run := &Run{
		ID:        uuid.NewString(),
		StartedAt: time.Now().UTC(),
		Model:     modelPath,
		Workers:   workers,
	}

	_, err := l.db.ExecContext(ctx,
		`INSERT INTO runs (run_id, started_at, model, workers) VALUES (?, ?, ?, ?)`,
		run.ID, formatTime(run.StartedAt), run.Model, run.Workers)
	if err != nil {
		return nil, fmt.Errorf("failed to insert run: %w", err)
	}
	return run, nil
}

// RecordDocument stores a document and its headings in one transaction and
// returns the document ID.
func (l *Ledger) RecordDocument(ctx context.Context, doc Document) (int64, error) {
	tx, err := l.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx, `
		INSERT INTO documents (run_id, path, output_path, status, error, title, language,
			page_count, warning_count, duration_ms)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		doc.RunID, doc.Path, doc.OutputPath, string(doc.Status), doc.Error, doc.Title,
		doc.Language, doc.PageCount, doc.WarningCount, doc.Duration.Milliseconds())
	if err != nil {
		return 0, fmt.Errorf("failed to insert document %s: %w", doc.Path, err)
	}

	docID, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get document id: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO headings (document_id, position, level, text, page) VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return 0, fmt.Errorf("failed to prepare heading insert: %w", err)
	}
	defer stmt.Close()

	for i, h := range doc.Headings {
		if _, err := stmt.ExecContext(ctx, docID, i, string(h.Level), h.Text, h.Page); err != nil {
			return 0, fmt.Errorf("failed to insert heading %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit document: %w", err)
	}
	return docID, nil
}

// FinishRun stamps the run's end time and document counts
func (l *Ledger) FinishRun(ctx context.Context, runID string) error {
	res, err := l.db.ExecContext(ctx, `
		UPDATE runs SET
			finished_at = ?,
			document_count = (SELECT COUNT(*) FROM documents WHERE run_id = ?),
			failed_count = (SELECT COUNT(*) FROM documents WHERE run_id = ? AND status = ?)
		WHERE run_id = ?`,
		formatTime(time.Now().UTC()), runID, runID, string(StatusFailed), runID)
	if err != nil {
		return fmt.Errorf("failed to finish run: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to finish run: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	}
	return nil
}

// GetRun returns one run by ID
func (l *Ledger) GetRun(ctx context.Context, runID string) (*Run, error) {
	row := l.db.QueryRowContext(ctx, `
		SELECT run_id, started_at, finished_at, model, workers, document_count, failed_count
		FROM runs WHERE run_id = ?`, runID)

	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	}
	if err != nil {
		return nil, err
	}
	return run, nil
}

// ListRuns returns the most recent runs first. limit <= 0 returns all runs.
func (l *Ledger) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	query := `
		SELECT run_id, started_at, finished_at, model, workers, document_count, failed_count
		FROM runs ORDER BY started_at DESC, rowid DESC`
	args := []any{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := l.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, *run)
	}
	return runs, rows.Err()
}

// Documents returns the documents of a run in insertion order, with headings
func (l *Ledger) Documents(ctx context.Context, runID string) ([]Document, error) {
	rows, err := l.db.QueryContext(ctx, `
		SELECT document_id, run_id, path, COALESCE(output_path, ''), status, COALESCE(error, ''),
			COALESCE(title, ''), COALESCE(language, ''), page_count, warning_count, duration_ms
		FROM documents WHERE run_id = ? ORDER BY document_id`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query documents: %w", err)
	}

	var docs []Document
	for rows.Next() {
		var d Document
		var status string
		var durationMS int64
		if err := rows.Scan(&d.ID, &d.RunID, &d.Path, &d.OutputPath, &status, &d.Error,
			&d.Title, &d.Language, &d.PageCount, &d.WarningCount, &durationMS); err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan document: %w", err)
		}
		d.Status = Status(status)
		d.Duration = time.Duration(durationMS) * time.Millisecond
		docs = append(docs, d)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, err
	}
	rows.Close()

	// One connection: the document cursor is closed before querying headings.
	for i := range docs {
		headings, err := l.headings(ctx, docs[i].ID)
		if err != nil {
			return nil, err
		}
		docs[i].Headings = headings
	}
	return docs, nil
}

func (l *Ledger) headings(ctx context.Context, docID int64) ([]model.Heading, error) {
	rows, err := l.db.QueryContext(ctx,
		`SELECT level, text, page FROM headings WHERE document_id = ? ORDER BY position`, docID)
	if err != nil {
		return nil, fmt.Errorf("failed to query headings: %w", err)
	}
	defer rows.Close()

	var headings []model.Heading
	for rows.Next() {
		var h model.Heading
		var level string
		if err := rows.Scan(&level, &h.Text, &h.Page); err != nil {
			return nil, fmt.Errorf("failed to scan heading: %w", err)
		}
		h.Level = model.Level(level)
		headings = append(headings, h)
	}
	return headings, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(s scanner) (*Run, error) {
	var run Run
	var started string
	var finished, modelPath sql.NullString
	if err := s.Scan(&run.ID, &started, &finished, &modelPath, &run.Workers,
		&run.DocumentCount, &run.FailedCount); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan run: %w", err)
	}

	var err error
	if run.StartedAt, err = parseTime(started); err != nil {
		return nil, err
	}
	if finished.Valid {
		if run.FinishedAt, err = parseTime(finished.String); err != nil {
			return nil, err
		}
	}
	run.Model = modelPath.String
	return &run, nil
}

// timeLayout has fixed-width fractional seconds so stored values sort as text
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

func formatTime(t time.Time) string {
	return t.Format(timeLayout)
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid timestamp %q: %w", s, err)
	}
	return t, nil
}
