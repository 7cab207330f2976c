package store

import (
	"context"
	"fmt"
	"time"

	"github.com/vlad89buzan/dataquality/internal/suite"
)

// timeLayout keeps stored timestamps lexically sortable.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// WriteResult records a suite run and all of its check results in one
// transaction. Uses ON CONFLICT(run_id) DO NOTHING for idempotency - a run id
// that is already stored is left untouched, check results included.
func (s *Store) WriteResult(ctx context.Context, r *suite.Result) error {
	if r.RunID == "" {
		return fmt.Errorf("write result: run id is empty")
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("write result: begin: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
		INSERT INTO runs
		(run_id, suite, started_at, total, passed, failed, errored)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(run_id) DO NOTHING
	`,
		r.RunID,
		r.Suite,
		r.StartedAt.UTC().Format(timeLayout),
		r.Summary.Total,
		r.Summary.Passed,
		r.Summary.Failed,
		r.Summary.Errored,
	)
	if err != nil {
		return fmt.Errorf("write result: insert run: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("write result: %w", err)
	}
	if n == 0 {
		return tx.Commit()
	}

	for i, c := range r.Checks {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO check_results
			(run_id, seq, check_id, name, type, status, message, details, duration_ns)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		`,
			r.RunID,
			i,
			c.ID,
			c.Name,
			c.Type,
			string(c.Status),
			c.Message,
			c.Details,
			int64(c.Duration),
		)
		if err != nil {
			return fmt.Errorf("write result: insert check %q: %w", c.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("write result: commit: %w", err)
	}
	return nil
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse started_at %q: %w", s, err)
	}
	return t, nil
}
