// Package history records batch download runs in a local SQLite database.
// It is the library-level stand-in for the git history the published data
// normally lives in: each run row captures what was downloaded, what was
// skipped, and any size-change advisories.
package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/RogerHowellDfE/gias-data/internal/gias"
)

// Entry represents one recorded batch run.
type Entry struct {
	ID          string
	DateToken   string
	Status      string
	Downloaded  int
	Skipped     int
	Warnings    []string
	Error       string
	StartedAt   time.Time
	CompletedAt *time.Time
}

// FileEntry represents one file outcome within a run.
type FileEntry struct {
	File   string
	Status string
}

// Log provides read/write access to the run history database.
type Log struct {
	db *sql.DB
}

// Open opens (or creates) the history database at the given path and
// configures WAL mode.
func Open(path string) (*Log, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, eris.Wrap(err, "history: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "history: exec %s", pragma)
		}
	}
	return &Log{db: db}, nil
}

const migration = `
CREATE TABLE IF NOT EXISTS runs (
	id           TEXT PRIMARY KEY,
	date_token   TEXT NOT NULL,
	status       TEXT NOT NULL DEFAULT 'running',
	downloaded   INTEGER NOT NULL DEFAULT 0,
	skipped      INTEGER NOT NULL DEFAULT 0,
	warnings     TEXT,
	error        TEXT,
	started_at   DATETIME NOT NULL DEFAULT (datetime('now')),
	completed_at DATETIME
);

CREATE TABLE IF NOT EXISTS run_files (
	id     TEXT PRIMARY KEY,
	run_id TEXT NOT NULL REFERENCES runs(id),
	file   TEXT NOT NULL,
	status TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_runs_started_at ON runs(started_at);
CREATE INDEX IF NOT EXISTS idx_run_files_run_id ON run_files(run_id);
`

// Migrate creates the history schema if it does not exist.
func (l *Log) Migrate(ctx context.Context) error {
	_, err := l.db.ExecContext(ctx, migration)
	return eris.Wrap(err, "history: migrate")
}

// Close closes the underlying database.
func (l *Log) Close() error {
	return l.db.Close()
}

// Start records the beginning of a batch run and returns its ID.
func (l *Log) Start(ctx context.Context, dateToken string) (string, error) {
	id := uuid.New().String()
	_, err := l.db.ExecContext(ctx,
		`INSERT INTO runs (id, date_token, status, started_at) VALUES (?, ?, 'running', ?)`,
		id, dateToken, time.Now().UTC(),
	)
	if err != nil {
		return "", eris.Wrapf(err, "history: start run for %s", dateToken)
	}
	return id, nil
}

// Complete marks a run as finished and records the per-file outcomes.
func (l *Log) Complete(ctx context.Context, runID string, result *gias.BatchResult) error {
	var warningsJSON []byte
	if len(result.Warnings) > 0 {
		var err error
		warningsJSON, err = json.Marshal(result.Warnings)
		if err != nil {
			return eris.Wrap(err, "history: marshal warnings")
		}
	}

	// The run update and its file rows land together or not at all.
	tx, err := l.db.BeginTx(ctx, nil)
	if err != nil {
		return eris.Wrapf(err, "history: begin complete run %s", runID)
	}
	defer tx.Rollback() //nolint:errcheck

	_, err = tx.ExecContext(ctx,
		`UPDATE runs
		 SET status = 'complete', completed_at = ?, downloaded = ?, skipped = ?, warnings = ?
		 WHERE id = ?`,
		time.Now().UTC(), len(result.Downloaded), len(result.Skipped), warningsJSON, runID,
	)
	if err != nil {
		return eris.Wrapf(err, "history: complete run %s", runID)
	}

	for _, path := range result.Downloaded {
		if err := insertFile(ctx, tx, runID, filepath.Base(path), "downloaded"); err != nil {
			return err
		}
	}
	for _, name := range result.Skipped {
		if err := insertFile(ctx, tx, runID, name, "skipped"); err != nil {
			return err
		}
	}
	return eris.Wrapf(tx.Commit(), "history: commit run %s", runID)
}

// Fail marks a run as failed with the given error message.
func (l *Log) Fail(ctx context.Context, runID string, msg string) error {
	_, err := l.db.ExecContext(ctx,
		`UPDATE runs SET status = 'failed', completed_at = ?, error = ? WHERE id = ?`,
		time.Now().UTC(), msg, runID,
	)
	return eris.Wrapf(err, "history: fail run %s", runID)
}

func insertFile(ctx context.Context, tx *sql.Tx, runID, file, status string) error {
	_, err := tx.ExecContext(ctx,
		`INSERT INTO run_files (id, run_id, file, status) VALUES (?, ?, ?, ?)`,
		uuid.New().String(), runID, file, status,
	)
	return eris.Wrapf(err, "history: record file %s", file)
}

// Recent returns the most recent runs, newest first.
func (l *Log) Recent(ctx context.Context, limit int) ([]Entry, error) {
	rows, err := l.db.QueryContext(ctx,
		`SELECT id, date_token, status, downloaded, skipped, warnings, error, started_at, completed_at
		 FROM runs ORDER BY started_at DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, eris.Wrap(err, "history: query runs")
	}
	defer rows.Close() //nolint:errcheck

	var entries []Entry
	for rows.Next() {
		var e Entry
		var warnings, errMsg sql.NullString
		var completed sql.NullTime
		if err := rows.Scan(&e.ID, &e.DateToken, &e.Status, &e.Downloaded, &e.Skipped,
			&warnings, &errMsg, &e.StartedAt, &completed); err != nil {
			return nil, eris.Wrap(err, "history: scan run")
		}
		if warnings.Valid && warnings.String != "" {
			if err := json.Unmarshal([]byte(warnings.String), &e.Warnings); err != nil {
				return nil, eris.Wrapf(err, "history: parse warnings for run %s", e.ID)
			}
		}
		e.Error = errMsg.String
		if completed.Valid {
			t := completed.Time
			e.CompletedAt = &t
		}
		entries = append(entries, e)
	}
	return entries, eris.Wrap(rows.Err(), "history: iterate runs")
}

// Files returns the per-file outcomes recorded for a run.
func (l *Log) Files(ctx context.Context, runID string) ([]FileEntry, error) {
	rows, err := l.db.QueryContext(ctx,
		`SELECT file, status FROM run_files WHERE run_id = ? ORDER BY file`,
		runID,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "history: query files for run %s", runID)
	}
	defer rows.Close() //nolint:errcheck

	var files []FileEntry
	for rows.Next() {
		var f FileEntry
		if err := rows.Scan(&f.File, &f.Status); err != nil {
			return nil, eris.Wrap(err, "history: scan file")
		}
		files = append(files, f)
	}
	return files, eris.Wrap(rows.Err(), "history: iterate files")
}
