// Package history keeps a durable record of orchestrated sweeps in SQLite so
// regressions between runs can be spotted without diffing summary files.
package history

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/roach88/uismoke/internal/report"
)

//go:embed schema.sql
var schemaSQL string

// Schema version tracking:
// 0 - no tables
// 1 - sweeps and runner_outcomes
// 2 - index on runner_outcomes.runner
const currentSchemaVersion = 2

// Store records sweeps.
type Store struct {
	db    *sql.DB
	newID func() string
}

// Option configures a Store.
type Option func(*Store)

// WithIDs replaces the sweep ID generator.
func WithIDs(next func() string) Option {
	return func(s *Store) { s.newID = next }
}

// Open creates or opens the history database at path, creating parent
// directories as needed. Pragmas and migrations are applied on every open.
func Open(path string, opts ...Option) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create history directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// One writer at a time avoids SQLITE_BUSY.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := applyPragmas(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply pragmas: %w", err)
	}
	if err := applySchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}

	s := &Store{db: db, newID: newSweepID}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

func newSweepID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}

// Close closes the database.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

func applyPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA foreign_keys = ON",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			return fmt.Errorf("failed to execute %q: %w", pragma, err)
		}
	}
	return nil
}

func applySchema(db *sql.DB) error {
	if _, err := db.Exec(schemaSQL); err != nil {
		return fmt.Errorf("failed to execute schema: %w", err)
	}
	return runMigrations(db)
}

func runMigrations(db *sql.DB) error {
	var version int
	if err := db.QueryRow("PRAGMA user_version").Scan(&version); err != nil {
		return fmt.Errorf("get user_version: %w", err)
	}

	if version < 2 {
		if _, err := db.Exec(`CREATE INDEX IF NOT EXISTS idx_runner_outcomes_runner ON runner_outcomes(runner)`); err != nil {
			return fmt.Errorf("migrate to v2: %w", err)
		}
	}

	if _, err := db.Exec(fmt.Sprintf("PRAGMA user_version = %d", currentSchemaVersion)); err != nil {
		return fmt.Errorf("set user_version: %w", err)
	}
	return nil
}

// timeLayout keeps stored timestamps sortable as text.
const timeLayout = "2006-01-02T15:04:05.000Z07:00"

// Sweep is a stored sweep header.
type Sweep struct {
	ID          string
	StartedAt   time.Time
	FinishedAt  time.Time
	Total       int
	Passed      int
	Failed      int
	SummaryPath string
}

// RecordSweep stores a sweep and its runner outcomes in one transaction and
// returns the new sweep ID.
func (s *Store) RecordSweep(ctx context.Context, sum *report.Summary, summaryPath string) (string, error) {
	id := s.newID()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("record sweep: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO sweeps (id, started_at, finished_at, total, passed, failed, summary)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`,
		id,
		sum.StartedAt.UTC().Format(timeLayout),
		sum.FinishedAt.UTC().Format(timeLayout),
		sum.Total(),
		sum.Passed(),
		sum.Failed(),
		summaryPath,
	)
	if err != nil {
		return "", fmt.Errorf("record sweep: %w", err)
	}

	for i, o := range sum.Outcomes {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO runner_outcomes
			(sweep_id, position, runner, passed, timed_out, exit_code, duration_ms, first_error, report_path)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		`,
			id, i, o.Runner, o.Passed, o.TimedOut, o.ExitCode, o.Duration.Milliseconds(), o.FirstError, o.ReportPath,
		)
		if err != nil {
			return "", fmt.Errorf("record outcome %s: %w", o.Runner, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("record sweep: %w", err)
	}
	return id, nil
}

// RecentSweeps returns up to limit sweeps, newest first.
func (s *Store) RecentSweeps(ctx context.Context, limit int) ([]Sweep, error) {
	if limit <= 0 {
		limit = 10
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, started_at, finished_at, total, passed, failed, summary
		FROM sweeps
		ORDER BY started_at DESC, id DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("query sweeps: %w", err)
	}
	defer rows.Close()

	sweeps := []Sweep{}
	for rows.Next() {
		var (
			sw                Sweep
			started, finished string
		)
		if err := rows.Scan(&sw.ID, &started, &finished, &sw.Total, &sw.Passed, &sw.Failed, &sw.SummaryPath); err != nil {
			return nil, fmt.Errorf("scan sweep: %w", err)
		}
		if sw.StartedAt, err = time.Parse(timeLayout, started); err != nil {
			return nil, fmt.Errorf("sweep %s: started_at: %w", sw.ID, err)
		}
		if sw.FinishedAt, err = time.Parse(timeLayout, finished); err != nil {
			return nil, fmt.Errorf("sweep %s: finished_at: %w", sw.ID, err)
		}
		sweeps = append(sweeps, sw)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sweeps: %w", err)
	}
	return sweeps, nil
}

// SweepOutcomes returns the runner outcomes of one sweep in execution order.
// Captured output is not stored, so Stdout and Stderr are empty.
func (s *Store) SweepOutcomes(ctx context.Context, sweepID string) ([]report.RunnerOutcome, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT runner, passed, timed_out, exit_code, duration_ms, first_error, report_path
		FROM runner_outcomes
		WHERE sweep_id = ?
		ORDER BY position ASC
	`, sweepID)
	if err != nil {
		return nil, fmt.Errorf("query outcomes: %w", err)
	}
	defer rows.Close()

	outcomes := []report.RunnerOutcome{}
	for rows.Next() {
		var o report.RunnerOutcome
		if err := rows.Scan(&o.Runner, &o.Passed, &o.TimedOut, &o.ExitCode, &o.DurationMS, &o.FirstError, &o.ReportPath); err != nil {
			return nil, fmt.Errorf("scan outcome: %w", err)
		}
		o.Duration = time.Duration(o.DurationMS) * time.Millisecond
		outcomes = append(outcomes, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate outcomes: %w", err)
	}
	return outcomes, nil
}

// RunnerStreak counts how many of the most recent sweeps that included
// runner had it failing, stopping at the first pass.
func (s *Store) RunnerStreak(ctx context.Context, runner string) (int, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT o.passed
		FROM runner_outcomes o
		JOIN sweeps w ON w.id = o.sweep_id
		WHERE o.runner = ?
		ORDER BY w.started_at DESC, w.id DESC
	`, runner)
	if err != nil {
		return 0, fmt.Errorf("query streak: %w", err)
	}
	defer rows.Close()

	streak := 0
	for rows.Next() {
		var passed bool
		if err := rows.Scan(&passed); err != nil {
			return 0, fmt.Errorf("scan streak: %w", err)
		}
		if passed {
			break
		}
		streak++
	}
	return streak, rows.Err()
}
