package dq

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/vlad89buzan/dataquality/internal/dataset"
)

// NullCount is the number of null cells found in one column.
type NullCount struct {
	Column string
	Nulls  int
}

// NullReport is the diagnostic of a failed not-null check.
type NullReport struct {
	Columns []NullCount
}

// String implements Diagnostic.
func (r *NullReport) String() string {
	rows := make([][]string, len(r.Columns))
	for i, c := range r.Columns {
		rows[i] = []string{c.Column, strconv.Itoa(c.Nulls)}
	}
	return renderTable("  ", []string{"column", "nulls"}, rows)
}

// CheckNotNull fails if any of the named columns (all columns when none are
// given) contains a null. Every offending column is reported, not just the
// first one.
func CheckNotNull(d *dataset.Dataset, columns ...string) error {
	if len(columns) == 0 {
		columns = d.Names()
	}

	cols, err := d.Select(columns...)
	if err != nil {
		return configErrorf(KindNotNull, "%v", err)
	}

	report := &NullReport{}
	for _, c := range cols {
		if n := c.NullCount(); n > 0 {
			report.Columns = append(report.Columns, NullCount{Column: c.Name, Nulls: n})
		}
	}

	if len(report.Columns) == 0 {
		return nil
	}

	names := make([]string, len(report.Columns))
	for i, c := range report.Columns {
		names[i] = c.Column
	}
	return &AssertionError{
		Check:      KindNotNull,
		Message:    fmt.Sprintf("null values found in column(s): %s", strings.Join(names, ", ")),
		Diagnostic: report,
	}
}
