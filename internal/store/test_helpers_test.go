package store

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/vlad89buzan/dataquality/internal/suite"
)

// createTestStore opens a fresh store in a temp directory.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "history.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// createTestResult builds a run with one passing and one failing check.
func createTestResult(runID, suiteName string, started time.Time) *suite.Result {
	return &suite.Result{
		RunID:     runID,
		Suite:     suiteName,
		StartedAt: started,
		Checks: []suite.CheckResult{
			{ID: "orders-not-empty", Type: "not_empty", Status: suite.StatusPassed, Duration: 3 * time.Millisecond},
			{
				ID:       "orders-unique",
				Name:     "order ids are unique",
				Type:     "duplicates",
				Status:   suite.StatusFailed,
				Message:  "1 duplicate group(s) found",
				Details:  "Duplicate values found in column 'id':\n  id  count\n  7   2",
				Duration: 5 * time.Millisecond,
			},
		},
		Summary: suite.Summary{Total: 2, Passed: 1, Failed: 1},
	}
}
