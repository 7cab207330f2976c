package suite

import (
	"errors"
	"time"

	"github.com/vlad89buzan/dataquality/internal/dq"
)

// Status is the outcome of a check.
type Status string

const (
	// StatusPassed means the data satisfies the check.
	StatusPassed Status = "passed"
	// StatusFailed means the data violates the check.
	StatusFailed Status = "failed"
	// StatusError means the check could not run: bad configuration,
	// catalog failure, unreadable dataset.
	StatusError Status = "error"
)

// CheckResult is the outcome of one check.
type CheckResult struct {
	ID      string `json:"id"`
	Name    string `json:"name,omitempty"`
	Type    string `json:"type"`
	Status  Status `json:"status"`
	Message string `json:"message,omitempty"`
	// Details is the rendered diagnostic of a failure.
	Details  string        `json:"details,omitempty"`
	Duration time.Duration `json:"duration_ns"`
}

// Summary counts check outcomes.
type Summary struct {
	Total   int `json:"total"`
	Passed  int `json:"passed"`
	Failed  int `json:"failed"`
	Errored int `json:"errored"`
}

// Result is the outcome of a suite run.
type Result struct {
	RunID     string        `json:"run_id"`
	Suite     string        `json:"suite"`
	StartedAt time.Time     `json:"started_at"`
	Checks    []CheckResult `json:"checks"`
	Summary   Summary       `json:"summary"`
}

// Pass reports whether every check passed.
func (r *Result) Pass() bool {
	return r.Summary.Failed == 0 && r.Summary.Errored == 0
}

func (r *Result) add(cr CheckResult) {
	r.Checks = append(r.Checks, cr)
	r.Summary.Total++
	switch cr.Status {
	case StatusPassed:
		r.Summary.Passed++
	case StatusFailed:
		r.Summary.Failed++
	default:
		r.Summary.Errored++
	}
}

// classify maps a check error onto a status, message and details.
func classify(err error) (Status, string, string) {
	if err == nil {
		return StatusPassed, "", ""
	}

	var ae *dq.AssertionError
	if errors.As(err, &ae) {
		msg := ae.Message
		if ae.Cause != nil {
			msg += ": " + ae.Cause.Error()
		}
		var details string
		if ae.Diagnostic != nil {
			details = ae.Diagnostic.String()
		}
		return StatusFailed, msg, details
	}
	return StatusError, err.Error(), ""
}
