package suite

import (
	"fmt"
	"io"
	"strings"
)

var statusTags = map[Status]string{
	StatusPassed: "PASS",
	StatusFailed: "FAIL",
	StatusError:  "ERROR",
}

// WriteReport renders a result for humans. The report leaves out the run id,
// timestamps and durations so it is stable across runs.
func WriteReport(w io.Writer, r *Result) error {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Suite: %s\n", r.Suite)
	for _, c := range r.Checks {
		label := c.ID
		if c.Name != "" {
			label += " " + c.Name
		}
		fmt.Fprintf(&buf, "[%s] %s (%s)\n", statusTags[c.Status], label, c.Type)
		if c.Message != "" {
			writeIndented(&buf, c.Message)
		}
		if c.Details != "" {
			writeIndented(&buf, c.Details)
		}
	}
	fmt.Fprintf(&buf, "\nSummary: %d passed, %d failed, %d errored, %d total\n",
		r.Summary.Passed, r.Summary.Failed, r.Summary.Errored, r.Summary.Total)

	_, err := io.WriteString(w, buf.String())
	return err
}

func writeIndented(buf *strings.Builder, text string) {
	for _, line := range strings.Split(text, "\n") {
		buf.WriteString("  ")
		buf.WriteString(line)
		buf.WriteString("\n")
	}
}
