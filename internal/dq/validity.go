package dq

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/vlad89buzan/dataquality/internal/dataset"
)

// MaxInvalidRowsShown caps the rows rendered in a column validity failure.
const MaxInvalidRowsShown = 20

// Constraint is one condition of a column rule. A row violates a rule when
// it violates any of the rule's constraints.
type Constraint interface {
	// compile checks the constraint against the column and returns a
	// function reporting whether a cell violates it.
	compile(col *dataset.Column) (func(v any) bool, error)
	String() string
}

// Bounds flags values below Min or above Max. Both bounds are inclusive and
// optional. Null cells never violate bounds.
type Bounds struct {
	Min any
	Max any
}

// OneOf flags values outside Values. A null cell is flagged unless Values
// contains nil.
type OneOf struct {
	Values []any
}

// Predicate flags values for which Fn returns false. Fn receives the raw
// cell, nil for null, and must not retain it.
type Predicate struct {
	Name string
	Fn   func(v any) bool
}

// Rule binds constraints to a column. A rule without constraints never flags
// a row.
type Rule struct {
	Column      string
	Constraints []Constraint
}

// InvalidRow is a cell that violated the rule of its column.
type InvalidRow struct {
	Row    int
	Column string
	Value  any
}

// InvalidRows is the result table of a column validity check.
type InvalidRows []InvalidRow

// Dataset exposes the invalid rows as a table with the columns
// row, invalid_column and value. Values are rendered as strings.
func (r InvalidRows) Dataset() (*dataset.Dataset, error) {
	b := dataset.NewBuilder(
		dataset.Field{Name: "row", Type: dataset.Int},
		dataset.Field{Name: "invalid_column", Type: dataset.String},
		dataset.Field{Name: "value", Type: dataset.String},
	)
	for i, ir := range r {
		var value any
		if ir.Value != nil {
			value = dataset.FormatValue(ir.Value)
		}
		if err := b.Append(int64(ir.Row), ir.Column, value); err != nil {
			return nil, fmt.Errorf("invalid row %d: %w", i, err)
		}
	}
	return b.Build()
}

// InvalidRowsReport is the diagnostic of a failed column validity check.
type InvalidRowsReport struct {
	Shown InvalidRows
	Total int
}

// String implements Diagnostic.
func (r *InvalidRowsReport) String() string {
	rows := make([][]string, len(r.Shown))
	for i, ir := range r.Shown {
		rows[i] = []string{strconv.Itoa(ir.Row), ir.Column, dataset.FormatValue(ir.Value)}
	}
	return renderTable("  ", []string{"row", "invalid_column", "value"}, rows) +
		fmt.Sprintf("\n  (Total %d invalid rows)", r.Total)
}

// CheckColumnValidity evaluates every rule against its column and collects
// the rows that violate it, tagged with the column. On success it returns an
// empty, non-nil table; on failure it returns the full table together with an
// AssertionError showing the first MaxInvalidRowsShown rows and the total.
func CheckColumnValidity(d *dataset.Dataset, rules []Rule) (InvalidRows, error) {
	type compiled struct {
		col    *dataset.Column
		checks []func(any) bool
	}

	prepared := make([]compiled, 0, len(rules))
	for i, rule := range rules {
		if rule.Column == "" {
			return nil, configErrorf(KindColumnValidity, "rule %d has no column", i)
		}
		col, ok := d.Column(rule.Column)
		if !ok {
			return nil, configErrorf(KindColumnValidity, "column %q not found in dataset", rule.Column)
		}
		c := compiled{col: col}
		for _, constraint := range rule.Constraints {
			fn, err := constraint.compile(col)
			if err != nil {
				return nil, configErrorf(KindColumnValidity, "column %q: %v", rule.Column, err)
			}
			c.checks = append(c.checks, fn)
		}
		prepared = append(prepared, c)
	}

	invalid := InvalidRows{}
	for _, c := range prepared {
		if len(c.checks) == 0 {
			continue
		}
		for row, v := range c.col.Values {
			for _, violated := range c.checks {
				if violated(v) {
					invalid = append(invalid, InvalidRow{Row: row, Column: c.col.Name, Value: v})
					break
				}
			}
		}
	}

	if len(invalid) == 0 {
		return invalid, nil
	}

	shown := invalid
	if len(shown) > MaxInvalidRowsShown {
		shown = shown[:MaxInvalidRowsShown]
	}

	return invalid, &AssertionError{
		Check:      KindColumnValidity,
		Message:    fmt.Sprintf("invalid values found in column(s): %s", strings.Join(invalidColumns(invalid), ", ")),
		Diagnostic: &InvalidRowsReport{Shown: shown, Total: len(invalid)},
	}
}

func invalidColumns(rows InvalidRows) []string {
	seen := make(map[string]bool)
	var names []string
	for _, r := range rows {
		if !seen[r.Column] {
			seen[r.Column] = true
			names = append(names, r.Column)
		}
	}
	return names
}

func (b Bounds) String() string {
	return fmt.Sprintf("bounds[min=%s, max=%s]", boundString(b.Min), boundString(b.Max))
}

func boundString(v any) string {
	if v == nil {
		return "-"
	}
	return dataset.FormatValue(v)
}

func (b Bounds) compile(col *dataset.Column) (func(any) bool, error) {
	if b.Min == nil && b.Max == nil {
		return func(any) bool { return false }, nil
	}

	cmp, err := comparatorFor(col.Type)
	if err != nil {
		return nil, err
	}

	var lo, hi any
	if b.Min != nil {
		if lo, err = cmp.bound(b.Min); err != nil {
			return nil, fmt.Errorf("min: %w", err)
		}
	}
	if b.Max != nil {
		if hi, err = cmp.bound(b.Max); err != nil {
			return nil, fmt.Errorf("max: %w", err)
		}
	}

	return func(v any) bool {
		if v == nil {
			return false
		}
		if lo != nil && cmp.compare(v, lo) < 0 {
			return true
		}
		if hi != nil && cmp.compare(v, hi) > 0 {
			return true
		}
		return false
	}, nil
}

func (o OneOf) String() string {
	return fmt.Sprintf("one_of%v", formatCells(o.Values))
}

func (o OneOf) compile(col *dataset.Column) (func(any) bool, error) {
	allowed := make(map[string]bool, len(o.Values))
	single := []*dataset.Column{{Type: col.Type, Values: make([]any, 1)}}
	for _, v := range o.Values {
		converted, ok := dataset.Coerce(v, col.Type)
		if !ok {
			return nil, fmt.Errorf("allowed value %v cannot be converted to %s", v, col.Type)
		}
		single[0].Values[0] = converted
		allowed[dataset.Key(single, 0)] = true
	}

	probe := []*dataset.Column{{Type: col.Type, Values: make([]any, 1)}}
	return func(v any) bool {
		probe[0].Values[0] = v
		return !allowed[dataset.Key(probe, 0)]
	}, nil
}

func (p Predicate) String() string {
	if p.Name == "" {
		return "predicate"
	}
	return "predicate[" + p.Name + "]"
}

func (p Predicate) compile(*dataset.Column) (func(any) bool, error) {
	if p.Fn == nil {
		return nil, fmt.Errorf("predicate %q has no function", p.Name)
	}
	fn := p.Fn
	return func(v any) bool { return !fn(v) }, nil
}

// comparator orders non-null cells of one column type.
type comparator struct {
	bound   func(v any) (any, error)
	compare func(a, b any) int
}

func comparatorFor(t dataset.Type) (comparator, error) {
	switch {
	case t.IsNumeric():
		return comparator{
			bound: func(v any) (any, error) {
				d, ok := dataset.ToDecimal(v)
				if !ok {
					return nil, fmt.Errorf("bound %v is not numeric", v)
				}
				return d, nil
			},
			compare: func(a, b any) int {
				da, _ := dataset.ToDecimal(a)
				return da.Cmp(b.(decimal.Decimal))
			},
		}, nil
	case t.IsTemporal():
		return comparator{
			bound: func(v any) (any, error) {
				ts, ok := dataset.ToTime(v)
				if !ok {
					return nil, fmt.Errorf("bound %v is not a time", v)
				}
				return ts, nil
			},
			compare: func(a, b any) int {
				return a.(time.Time).Compare(b.(time.Time))
			},
		}, nil
	case t == dataset.String:
		return comparator{
			bound: func(v any) (any, error) {
				return dataset.FormatValue(v), nil
			},
			compare: func(a, b any) int {
				return strings.Compare(a.(string), b.(string))
			},
		}, nil
	default:
		return comparator{}, fmt.Errorf("bounds are not supported on %s columns", t)
	}
}
