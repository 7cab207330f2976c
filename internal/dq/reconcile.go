package dq

import (
	"fmt"
	"strconv"

	"github.com/vlad89buzan/dataquality/internal/dataset"
)

// Direction tags a reconciliation difference.
type Direction string

const (
	InSourceNotInTarget Direction = "in source not in target"
	InTargetNotInSource Direction = "in target not in source"
)

// DiffRow is a compared-column tuple present on one side only.
// Count is the number of rows carrying the tuple on that side.
type DiffRow struct {
	Values    []any
	Direction Direction
	Count     int
}

// ReconcileReport is the diagnostic of a failed reconciliation.
type ReconcileReport struct {
	Columns []string
	Rows    []DiffRow
}

// String implements Diagnostic.
func (r *ReconcileReport) String() string {
	header := append(append([]string{}, r.Columns...), "diff_type", "count")
	rows := make([][]string, len(r.Rows))
	for i, d := range r.Rows {
		rows[i] = append(formatCells(d.Values), string(d.Direction), strconv.Itoa(d.Count))
	}
	return renderTable("  ", header, rows)
}

// Only returns the rows for one direction.
func (r *ReconcileReport) Only(dir Direction) []DiffRow {
	var out []DiffRow
	for _, d := range r.Rows {
		if d.Direction == dir {
			out = append(out, d)
		}
	}
	return out
}

// Reconcile fails unless source and target hold the same set of tuples over
// the compared columns (all source columns when none are given).
//
// Columns are harmonized pairwise before comparison: temporal if either side
// is a timestamp or date, numeric if either side is numeric, string
// otherwise. Values that cannot be converted become null. Harmonization works
// on copies; the inputs are never modified. Nulls compare equal to nulls.
func Reconcile(source, target *dataset.Dataset, columns ...string) error {
	if len(columns) == 0 {
		columns = source.Names()
	}
	for _, name := range columns {
		if !source.Has(name) {
			return configErrorf(KindReconcile, "column %q not found in source", name)
		}
		if !target.Has(name) {
			return configErrorf(KindReconcile, "column %q not found in target", name)
		}
	}

	srcCols := make([]*dataset.Column, len(columns))
	tgtCols := make([]*dataset.Column, len(columns))
	for i, name := range columns {
		s, _ := source.Column(name)
		t, _ := target.Column(name)
		srcCols[i], tgtCols[i] = harmonize(s, t)
	}

	report := &ReconcileReport{Columns: columns}
	report.Rows = append(report.Rows, antiJoin(srcCols, source.Len(), tgtCols, target.Len(), InSourceNotInTarget)...)
	report.Rows = append(report.Rows, antiJoin(tgtCols, target.Len(), srcCols, source.Len(), InTargetNotInSource)...)

	if len(report.Rows) == 0 {
		return nil
	}

	return &AssertionError{
		Check:      KindReconcile,
		Message:    fmt.Sprintf("datasets do not match: %d differing tuple(s)", len(report.Rows)),
		Diagnostic: report,
	}
}

// antiJoin returns the tuples of left whose key does not occur in right.
func antiJoin(left []*dataset.Column, leftRows int, right []*dataset.Column, rightRows int, dir Direction) []DiffRow {
	present := dataset.GroupRows(right, rightRows)

	missing := dataset.NewGrouper()
	for i := 0; i < leftRows; i++ {
		key := dataset.Key(left, i)
		if present.Count(key) == 0 {
			missing.Add(key, dataset.Tuple(left, i), i)
		}
	}

	out := make([]DiffRow, 0, missing.Len())
	for _, g := range missing.Groups() {
		out = append(out, DiffRow{Values: g.Values, Direction: dir, Count: g.Count})
	}
	return out
}

// harmonize converts a column pair to a common comparable type.
func harmonize(a, b *dataset.Column) (*dataset.Column, *dataset.Column) {
	var target dataset.Type
	switch {
	case a.Type.IsTemporal() || b.Type.IsTemporal():
		target = dataset.Timestamp
	case a.Type.IsNumeric() || b.Type.IsNumeric():
		target = dataset.Numeric
	default:
		target = dataset.String
	}
	return convertColumn(a, target), convertColumn(b, target)
}

// convertColumn returns a converted copy of c. Unconvertible cells become nil.
func convertColumn(c *dataset.Column, t dataset.Type) *dataset.Column {
	out := &dataset.Column{Name: c.Name, Type: t, Values: make([]any, len(c.Values))}
	for i, v := range c.Values {
		converted, ok := dataset.Coerce(v, t)
		if !ok {
			converted = nil
		}
		out.Values[i] = converted
	}
	return out
}
