package dq

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/vlad89buzan/dataquality/internal/dataset"
)

// DuplicateOptions selects the key used for duplicate detection.
//
// With no Columns the full row is the key. With Columns and PerColumn unset
// the combination of Columns is the key. With PerColumn set every listed
// column is checked on its own and all failures are reported together.
type DuplicateOptions struct {
	Columns   []string
	PerColumn bool
}

// DuplicateGroup is a key that occurs more than once.
type DuplicateGroup struct {
	Values []any
	Count  int
}

// DuplicateFinding lists the duplicate groups found for one key definition.
type DuplicateFinding struct {
	Columns []string
	// FullRow is set when the key was the whole row.
	FullRow bool
	Groups  []DuplicateGroup
}

// DuplicateReport is the diagnostic of a failed duplicate check.
type DuplicateReport struct {
	Findings []DuplicateFinding
}

// String implements Diagnostic.
func (r *DuplicateReport) String() string {
	var parts []string
	for _, f := range r.Findings {
		var title string
		switch {
		case f.FullRow:
			title = "Duplicate full rows found:"
		case len(f.Columns) == 1:
			title = fmt.Sprintf("Duplicate values found in column '%s':", f.Columns[0])
		default:
			title = fmt.Sprintf("Duplicate rows found on combination of columns [%s]:", strings.Join(f.Columns, ", "))
		}

		header := append(append([]string{}, f.Columns...), "count")
		rows := make([][]string, len(f.Groups))
		for i, g := range f.Groups {
			rows[i] = append(formatCells(g.Values), strconv.Itoa(g.Count))
		}
		parts = append(parts, title+"\n"+renderTable("  ", header, rows))
	}
	return strings.Join(parts, "\n")
}

// CheckDuplicates fails when any key occurs at least twice.
// Groups are reported by descending count; ties keep first-occurrence order.
func CheckDuplicates(d *dataset.Dataset, opts DuplicateOptions) error {
	for _, name := range opts.Columns {
		if !d.Has(name) {
			return configErrorf(KindDuplicates, "column %q not found in dataset", name)
		}
	}

	var keys [][]string
	fullRow := len(opts.Columns) == 0
	switch {
	case fullRow:
		keys = [][]string{d.Names()}
	case opts.PerColumn:
		for _, name := range opts.Columns {
			keys = append(keys, []string{name})
		}
	default:
		keys = [][]string{opts.Columns}
	}

	report := &DuplicateReport{}
	for _, names := range keys {
		cols, err := d.Select(names...)
		if err != nil {
			return configErrorf(KindDuplicates, "%v", err)
		}
		groups := duplicateGroups(cols, d.Len())
		if len(groups) > 0 {
			report.Findings = append(report.Findings, DuplicateFinding{
				Columns: names,
				FullRow: fullRow,
				Groups:  groups,
			})
		}
	}

	if len(report.Findings) == 0 {
		return nil
	}

	total := 0
	for _, f := range report.Findings {
		total += len(f.Groups)
	}
	return &AssertionError{
		Check:      KindDuplicates,
		Message:    fmt.Sprintf("%d duplicate group(s) found", total),
		Diagnostic: report,
	}
}

func duplicateGroups(cols []*dataset.Column, rows int) []DuplicateGroup {
	var dups []*dataset.Group
	for _, g := range dataset.GroupRows(cols, rows).Groups() {
		if g.Count >= 2 {
			dups = append(dups, g)
		}
	}
	sort.SliceStable(dups, func(i, j int) bool {
		return dups[i].Count > dups[j].Count
	})

	out := make([]DuplicateGroup, len(dups))
	for i, g := range dups {
		out[i] = DuplicateGroup{Values: g.Values, Count: g.Count}
	}
	return out
}
