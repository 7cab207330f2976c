package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/vlad89buzan/dataquality/internal/suite"
)

// ErrRunNotFound is returned by ReadRun for an unknown run id.
var ErrRunNotFound = errors.New("run not found")

// DefaultListLimit caps ListRuns when no limit is given.
const DefaultListLimit = 20

// Run is the stored header of a suite run.
type Run struct {
	RunID     string        `json:"run_id"`
	Suite     string        `json:"suite"`
	StartedAt time.Time     `json:"started_at"`
	Summary   suite.Summary `json:"summary"`
}

// Pass reports whether every check of the run passed.
func (r Run) Pass() bool {
	return r.Summary.Failed == 0 && r.Summary.Errored == 0
}

// ListFilter narrows ListRuns.
type ListFilter struct {
	// Suite restricts the listing to one suite name. Empty means all suites.
	Suite string
	// Limit caps the number of runs. Zero or less means DefaultListLimit.
	Limit int
}

// ListRuns returns stored runs, newest first.
// Returns an empty slice (not nil) if no runs match.
func (s *Store) ListRuns(ctx context.Context, f ListFilter) ([]Run, error) {
	limit := f.Limit
	if limit <= 0 {
		limit = DefaultListLimit
	}

	query := `
		SELECT run_id, suite, started_at, total, passed, failed, errored
		FROM runs`
	args := []any{}
	if f.Suite != "" {
		query += ` WHERE suite = ?`
		args = append(args, f.Suite)
	}
	query += ` ORDER BY started_at DESC, run_id COLLATE BINARY DESC LIMIT ?`
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	runs := []Run{}
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	return runs, nil
}

// ReadRun returns a stored run with its check results in declaration order.
// Returns ErrRunNotFound if the run id is unknown.
func (s *Store) ReadRun(ctx context.Context, runID string) (*suite.Result, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT run_id, suite, started_at, total, passed, failed, errored
		FROM runs
		WHERE run_id = ?
	`, runID)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	}
	if err != nil {
		return nil, err
	}

	checks, err := s.readChecks(ctx, runID)
	if err != nil {
		return nil, err
	}

	return &suite.Result{
		RunID:     run.RunID,
		Suite:     run.Suite,
		StartedAt: run.StartedAt,
		Checks:    checks,
		Summary:   run.Summary,
	}, nil
}

func (s *Store) readChecks(ctx context.Context, runID string) ([]suite.CheckResult, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT check_id, name, type, status, message, details, duration_ns
		FROM check_results
		WHERE run_id = ?
		ORDER BY seq ASC
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("query check results: %w", err)
	}
	defer rows.Close()

	checks := []suite.CheckResult{}
	for rows.Next() {
		var (
			c        suite.CheckResult
			status   string
			duration int64
		)
		if err := rows.Scan(&c.ID, &c.Name, &c.Type, &status, &c.Message, &c.Details, &duration); err != nil {
			return nil, fmt.Errorf("scan check result: %w", err)
		}
		c.Status = suite.Status(status)
		c.Duration = time.Duration(duration)
		checks = append(checks, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate check results: %w", err)
	}
	return checks, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(sc scanner) (Run, error) {
	var (
		run       Run
		startedAt string
	)
	err := sc.Scan(
		&run.RunID,
		&run.Suite,
		&startedAt,
		&run.Summary.Total,
		&run.Summary.Passed,
		&run.Summary.Failed,
		&run.Summary.Errored,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, err
	}
	if err != nil {
		return Run{}, fmt.Errorf("scan run: %w", err)
	}
	if run.StartedAt, err = parseTime(startedAt); err != nil {
		return Run{}, err
	}
	return run, nil
}
