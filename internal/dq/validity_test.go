package dq

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vlad89buzan/dataquality/internal/dataset"
	"github.com/vlad89buzan/dataquality/internal/testutil"
)

func measurements(t *testing.T) *dataset.Dataset {
	return testutil.Table(t,
		[]dataset.Field{
			testutil.Col("id", dataset.Int),
			testutil.Col("status", dataset.String),
			testutil.Col("amount", dataset.Float),
			testutil.Col("day", dataset.Date),
			testutil.Col("active", dataset.Bool),
		},
		[]any{1, "open", 10.0, "2024-01-01", true},
		[]any{2, "closed", -1.5, "2024-06-30", false},
		[]any{3, "lost", 99.9, "2025-01-01", nil},
		[]any{4, nil, nil, nil, true},
	)
}

func TestCheckColumnValidity_EmptyRuleSetNeverFlags(t *testing.T) {
	d := measurements(t)

	invalid, err := CheckColumnValidity(d, nil)
	require.NoError(t, err)
	assert.NotNil(t, invalid)
	assert.Empty(t, invalid)

	invalid, err = CheckColumnValidity(d, []Rule{{Column: "id"}, {Column: "status"}})
	require.NoError(t, err)
	assert.Empty(t, invalid)
}

func TestCheckColumnValidity_EqualBoundsFlagEveryOtherValue(t *testing.T) {
	d := testutil.Table(t, []dataset.Field{testutil.Col("n", dataset.Int)},
		[]any{1}, []any{3}, []any{3}, []any{7}, []any{-3},
	)

	for _, m := range []int64{1, 3, 7, 42} {
		invalid, err := CheckColumnValidity(d, []Rule{{
			Column:      "n",
			Constraints: []Constraint{Bounds{Min: m, Max: m}},
		}})

		col, _ := d.Column("n")
		var want []int
		for i, v := range col.Values {
			if v.(int64) != m {
				want = append(want, i)
			}
		}

		var got []int
		for _, r := range invalid {
			got = append(got, r.Row)
		}
		assert.Equal(t, want, got, "m=%d", m)
		assert.Equal(t, len(want) > 0, err != nil, "m=%d", m)
	}
}

func TestCheckColumnValidity_Bounds(t *testing.T) {
	tests := []struct {
		name   string
		rule   Rule
		wanted []int
	}{
		{
			name:   "float min",
			rule:   Rule{Column: "amount", Constraints: []Constraint{Bounds{Min: 0}}},
			wanted: []int{1},
		},
		{
			name:   "float max from string",
			rule:   Rule{Column: "amount", Constraints: []Constraint{Bounds{Max: "50"}}},
			wanted: []int{2},
		},
		{
			name:   "date range",
			rule:   Rule{Column: "day", Constraints: []Constraint{Bounds{Min: "2024-01-01", Max: "2024-12-31"}}},
			wanted: []int{2},
		},
		{
			name:   "string lexical",
			rule:   Rule{Column: "status", Constraints: []Constraint{Bounds{Min: "d"}}},
			wanted: []int{1},
		},
		{
			name:   "no bounds",
			rule:   Rule{Column: "amount", Constraints: []Constraint{Bounds{}}},
			wanted: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			invalid, _ := CheckColumnValidity(measurements(t), []Rule{tt.rule})
			var got []int
			for _, r := range invalid {
				got = append(got, r.Row)
			}
			assert.Equal(t, tt.wanted, got)
		})
	}
}

func TestCheckColumnValidity_OneOf(t *testing.T) {
	d := measurements(t)

	invalid, err := CheckColumnValidity(d, []Rule{{
		Column:      "status",
		Constraints: []Constraint{OneOf{Values: []any{"open", "closed"}}},
	}})
	require.Error(t, err)
	require.Len(t, invalid, 2)
	assert.Equal(t, InvalidRow{Row: 2, Column: "status", Value: "lost"}, invalid[0])
	// Nulls are outside the allowed set unless nil is listed.
	assert.Equal(t, InvalidRow{Row: 3, Column: "status", Value: nil}, invalid[1])

	invalid, err = CheckColumnValidity(d, []Rule{{
		Column:      "status",
		Constraints: []Constraint{OneOf{Values: []any{"open", "closed", "lost", nil}}},
	}})
	require.NoError(t, err)
	assert.Empty(t, invalid)
}

func TestCheckColumnValidity_OneOfCoercesAllowedValues(t *testing.T) {
	d := measurements(t)

	invalid, err := CheckColumnValidity(d, []Rule{{
		Column:      "id",
		Constraints: []Constraint{OneOf{Values: []any{"1", 2.0, 3, int64(4)}}},
	}})
	require.NoError(t, err)
	assert.Empty(t, invalid)
}

func TestCheckColumnValidity_Predicate(t *testing.T) {
	d := measurements(t)
	var seen []any

	invalid, err := CheckColumnValidity(d, []Rule{{
		Column: "active",
		Constraints: []Constraint{Predicate{Name: "set", Fn: func(v any) bool {
			seen = append(seen, v)
			return v != nil
		}}},
	}})
	require.Error(t, err)
	require.Len(t, invalid, 1)
	assert.Equal(t, 2, invalid[0].Row)
	assert.Equal(t, []any{true, false, nil, true}, seen)
}

func TestCheckColumnValidity_ConstraintsAreORed(t *testing.T) {
	d := measurements(t)

	invalid, err := CheckColumnValidity(d, []Rule{{
		Column: "amount",
		Constraints: []Constraint{
			Bounds{Min: 0},
			Bounds{Max: 50},
			Predicate{Name: "not_null", Fn: func(v any) bool { return v != nil }},
		},
	}})
	require.Error(t, err)

	var rows []int
	for _, r := range invalid {
		rows = append(rows, r.Row)
	}
	assert.Equal(t, []int{1, 2, 3}, rows)
}

func TestCheckColumnValidity_TagsColumnsInRuleOrder(t *testing.T) {
	d := measurements(t)

	invalid, err := CheckColumnValidity(d, []Rule{
		{Column: "amount", Constraints: []Constraint{Bounds{Min: 0}}},
		{Column: "status", Constraints: []Constraint{OneOf{Values: []any{"open"}}}},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid values found in column(s): amount, status")

	var cols []string
	for _, r := range invalid {
		cols = append(cols, r.Column)
	}
	assert.Equal(t, []string{"amount", "status", "status", "status"}, cols)
}

func TestCheckColumnValidity_ShowsFirstTwentyRows(t *testing.T) {
	rows := make([][]any, 25)
	for i := range rows {
		rows[i] = []any{i}
	}
	d := testutil.Table(t, []dataset.Field{testutil.Col("n", dataset.Int)}, rows...)

	invalid, err := CheckColumnValidity(d, []Rule{{
		Column:      "n",
		Constraints: []Constraint{Bounds{Min: 100}},
	}})
	require.Error(t, err)
	assert.Len(t, invalid, 25)

	report := DiagnosticOf(err).(*InvalidRowsReport)
	assert.Len(t, report.Shown, MaxInvalidRowsShown)
	assert.Equal(t, 25, report.Total)
	assert.True(t, strings.HasSuffix(err.Error(), "(Total 25 invalid rows)"))
	assert.NotContains(t, err.Error(), fmt.Sprintf("  %d ", 21))
}

func TestCheckColumnValidity_ConfigErrors(t *testing.T) {
	tests := []struct {
		name string
		rule Rule
	}{
		{name: "no column", rule: Rule{Constraints: []Constraint{Bounds{Min: 1}}}},
		{name: "unknown column", rule: Rule{Column: "nope"}},
		{name: "bounds on bool", rule: Rule{Column: "active", Constraints: []Constraint{Bounds{Min: 0}}}},
		{name: "non numeric bound", rule: Rule{Column: "amount", Constraints: []Constraint{Bounds{Max: "lots"}}}},
		{name: "non temporal bound", rule: Rule{Column: "day", Constraints: []Constraint{Bounds{Min: "yesterday"}}}},
		{name: "bad allowed value", rule: Rule{Column: "id", Constraints: []Constraint{OneOf{Values: []any{"x"}}}}},
		{name: "nil predicate", rule: Rule{Column: "id", Constraints: []Constraint{Predicate{Name: "p"}}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			invalid, err := CheckColumnValidity(measurements(t), []Rule{tt.rule})
			require.Error(t, err)
			assert.True(t, IsConfigError(err), "got %v", err)
			assert.Nil(t, invalid)
		})
	}
}

func TestInvalidRows_Dataset(t *testing.T) {
	rows := InvalidRows{
		{Row: 0, Column: "amount", Value: -1.5},
		{Row: 3, Column: "day", Value: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)},
		{Row: 4, Column: "status", Value: nil},
	}

	d, err := rows.Dataset()
	require.NoError(t, err)
	assert.Equal(t, []string{"row", "invalid_column", "value"}, d.Names())
	assert.Equal(t, 3, d.Len())
	assert.Equal(t, []any{int64(3), "day", "2025-01-01"}, d.Row(1))
	assert.Equal(t, []any{int64(4), "status", nil}, d.Row(2))

	empty, err := InvalidRows{}.Dataset()
	require.NoError(t, err)
	assert.Equal(t, 0, empty.Len())
	assert.Equal(t, []string{"row", "invalid_column", "value"}, empty.Names())
}
