// Package ledger keeps a SQLite record of crawl runs and of the aircraft-days
// that could not be fetched, parsed or persisted.
//
// The checkpoint advances after every run regardless of failures, so the
// ledger is the only place a missed day is remembered. A failed day stays
// unresolved until a later fetch of that day succeeds.
package ledger

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"trackcrawler/pkg/logger"

	_ "modernc.org/sqlite"
)

const dayLayout = "2006-01-02"

// Stage is the step of the pipeline a failure happened in
type Stage string

const (
	StageFetch   Stage = "fetch"
	StageParse   Stage = "parse"
	StagePersist Stage = "persist"
)

// Run summarises one crawl or retry run
type Run struct {
	ID         string
	Mode       string
	StartedAt  time.Time
	FinishedAt time.Time
	Checkpoint time.Time
	Aircraft   int
	Targets    int
	Persisted  int
	Dropped    int
	Failed     int
	Failures   []Failure
	// Resolved lists the days fetched successfully during the run
	Resolved []Key
}

// Key identifies one aircraft-day
type Key struct {
	Identifier string
	Day        time.Time
}

// Failure is one aircraft-day that did not produce an output unit
type Failure struct {
	Identifier string
	Day        time.Time
	URL        string
	Stage      Stage
	StatusCode int
	Message    string
	RunID      string
	Attempts   int
	UpdatedAt  time.Time
}

// Ledger stores runs and failures in a SQLite database
type Ledger struct {
	db     *sql.DB
	path   string
	logger logger.Logger
}

// NewRunID returns a fresh run identifier
func NewRunID() string {
	return uuid.NewString()
}

// Open opens or creates the ledger database at path
func Open(path string, log logger.Logger) (*Ledger, error) {
	if log == nil {
		log = logger.GetLogger()
	}

	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create ledger directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite allows a single writer
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA busy_timeout=5000",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to apply %q: %w", pragma, err)
		}
	}

	if err := initDatabase(db); err != nil {
		db.Close()
		return nil, err
	}

	log.DebugWithFields("Ledger opened", map[string]interface{}{
		"path": path,
	})

	return &Ledger{db: db, path: path, logger: log}, nil
}

func initDatabase(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS runs (
			id TEXT PRIMARY KEY,
			mode TEXT NOT NULL,
			started_at TEXT NOT NULL,
			finished_at TEXT NOT NULL,
			checkpoint TEXT NOT NULL,
			aircraft INTEGER NOT NULL,
			targets INTEGER NOT NULL,
			persisted INTEGER NOT NULL,
			dropped INTEGER NOT NULL,
			failed INTEGER NOT NULL
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create runs table: %w", err)
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS failures (
			icao TEXT NOT NULL,
			day TEXT NOT NULL,
			url TEXT NOT NULL,
			stage TEXT NOT NULL,
			status_code INTEGER NOT NULL,
			message TEXT NOT NULL,
			run_id TEXT NOT NULL,
			attempts INTEGER NOT NULL DEFAULT 1,
			resolved BOOLEAN NOT NULL DEFAULT 0,
			updated_at TEXT NOT NULL,
			PRIMARY KEY (icao, day)
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create failures table: %w", err)
	}

	_, err = db.Exec(`CREATE INDEX IF NOT EXISTS idx_failures_resolved ON failures(resolved)`)
	if err != nil {
		return fmt.Errorf("failed to create resolved index: %w", err)
	}

	return nil
}

// Path returns the database location
func (l *Ledger) Path() string {
	return l.path
}

// Close closes the database connection
func (l *Ledger) Close() error {
	if l.db != nil {
		return l.db.Close()
	}
	return nil
}

// RecordRun stores a run and upserts its failures in one transaction.
// A day that fails again keeps one row with its attempt count increased.
func (l *Ledger) RecordRun(ctx context.Context, run Run) error {
	tx, err := l.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO runs
		(id, mode, started_at, finished_at, checkpoint, aircraft, targets, persisted, dropped, failed)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID,
		run.Mode,
		run.StartedAt.UTC().Format(time.RFC3339),
		run.FinishedAt.UTC().Format(time.RFC3339),
		run.Checkpoint.Format(dayLayout),
		run.Aircraft,
		run.Targets,
		run.Persisted,
		run.Dropped,
		run.Failed,
	)
	if err != nil {
		return fmt.Errorf("failed to insert run: %w", err)
	}

	now := run.FinishedAt.UTC().Format(time.RFC3339)
	for _, f := range run.Failures {
		_, err = tx.ExecContext(ctx,
			`INSERT INTO failures
			(icao, day, url, stage, status_code, message, run_id, attempts, resolved, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, 1, 0, ?)
			ON CONFLICT(icao, day) DO UPDATE SET
				url = excluded.url,
				stage = excluded.stage,
				status_code = excluded.status_code,
				message = excluded.message,
				run_id = excluded.run_id,
				attempts = failures.attempts + 1,
				resolved = 0,
				updated_at = excluded.updated_at`,
			f.Identifier,
			f.Day.Format(dayLayout),
			f.URL,
			string(f.Stage),
			f.StatusCode,
			f.Message,
			run.ID,
			now,
		)
		if err != nil {
			return fmt.Errorf("failed to record failure for %s on %s: %w", f.Identifier, f.Day.Format(dayLayout), err)
		}
	}

	for _, k := range run.Resolved {
		_, err = tx.ExecContext(ctx,
			`UPDATE failures SET resolved = 1, updated_at = ? WHERE icao = ? AND day = ? AND resolved = 0`,
			now,
			k.Identifier,
			k.Day.Format(dayLayout),
		)
		if err != nil {
			return fmt.Errorf("failed to resolve %s on %s: %w", k.Identifier, k.Day.Format(dayLayout), err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit run: %w", err)
	}

	l.logger.DebugWithFields("Run recorded in ledger", map[string]interface{}{
		"run_id":   run.ID,
		"failures": len(run.Failures),
		"resolved": len(run.Resolved),
	})
	return nil
}

// Resolve marks the failure of identifier on day as resolved.
// Resolving a day that never failed is a no-op.
func (l *Ledger) Resolve(ctx context.Context, identifier string, day time.Time) error {
	_, err := l.db.ExecContext(ctx,
		`UPDATE failures SET resolved = 1, updated_at = ? WHERE icao = ? AND day = ?`,
		time.Now().UTC().Format(time.RFC3339),
		identifier,
		day.Format(dayLayout),
	)
	if err != nil {
		return fmt.Errorf("failed to resolve failure: %w", err)
	}
	return nil
}

// Unresolved returns the failures still awaiting a successful fetch, ordered by aircraft then day
func (l *Ledger) Unresolved(ctx context.Context) ([]Failure, error) {
	rows, err := l.db.QueryContext(ctx,
		`SELECT icao, day, url, stage, status_code, message, run_id, attempts, updated_at
		FROM failures
		WHERE resolved = 0
		ORDER BY icao, day`)
	if err != nil {
		return nil, fmt.Errorf("failed to query failures: %w", err)
	}
	defer rows.Close()

	var failures []Failure
	for rows.Next() {
		var (
			f         Failure
			day       string
			stage     string
			updatedAt string
		)
		if err := rows.Scan(&f.Identifier, &day, &f.URL, &stage, &f.StatusCode, &f.Message, &f.RunID, &f.Attempts, &updatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan failure: %w", err)
		}
		if f.Day, err = time.Parse(dayLayout, day); err != nil {
			return nil, fmt.Errorf("invalid day %q in ledger: %w", day, err)
		}
		f.Stage = Stage(stage)
		f.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)
		failures = append(failures, f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate failures: %w", err)
	}

	return failures, nil
}

// LastRun returns the most recent run, or nil when none was recorded
func (l *Ledger) LastRun(ctx context.Context) (*Run, error) {
	row := l.db.QueryRowContext(ctx,
		`SELECT id, mode, started_at, finished_at, checkpoint, aircraft, targets, persisted, dropped, failed
		FROM runs
		ORDER BY finished_at DESC, rowid DESC
		LIMIT 1`)

	var (
		run                             Run
		startedAt, finishedAt, checkDay string
	)
	err := row.Scan(&run.ID, &run.Mode, &startedAt, &finishedAt, &checkDay,
		&run.Aircraft, &run.Targets, &run.Persisted, &run.Dropped, &run.Failed)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query last run: %w", err)
	}

	run.StartedAt, _ = time.Parse(time.RFC3339, startedAt)
	run.FinishedAt, _ = time.Parse(time.RFC3339, finishedAt)
	run.Checkpoint, _ = time.Parse(dayLayout, checkDay)
	return &run, nil
}
