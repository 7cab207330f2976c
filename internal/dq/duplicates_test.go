package dq

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vlad89buzan/dataquality/internal/dataset"
	"github.com/vlad89buzan/dataquality/internal/testutil"
)

var orderFields = []dataset.Field{
	testutil.Col("code", dataset.String),
	testutil.Col("qty", dataset.Int),
}

func TestCheckDuplicates_NoDuplicatesPasses(t *testing.T) {
	d := testutil.Table(t, orderFields,
		[]any{"a", 1},
		[]any{"b", 2},
		[]any{"a", 2},
	)

	assert.NoError(t, CheckDuplicates(d, DuplicateOptions{}))
}

func TestCheckDuplicates_InsertedRowFails(t *testing.T) {
	rows := [][]any{{"a", 1}, {"b", 2}, {"c", nil}}
	d := testutil.Table(t, orderFields, rows...)
	require.NoError(t, CheckDuplicates(d, DuplicateOptions{}))

	for i, row := range rows {
		withDup := testutil.Table(t, orderFields, append(rows, row)...)
		err := CheckDuplicates(withDup, DuplicateOptions{})
		require.Error(t, err, "duplicating row %d", i)
		require.True(t, IsAssertionError(err))

		report, ok := DiagnosticOf(err).(*DuplicateReport)
		require.True(t, ok)
		require.Len(t, report.Findings, 1)
		assert.True(t, report.Findings[0].FullRow)
		require.Len(t, report.Findings[0].Groups, 1)
		assert.GreaterOrEqual(t, report.Findings[0].Groups[0].Count, 2)
	}
}

func TestCheckDuplicates_CombinedKey(t *testing.T) {
	d := testutil.Table(t,
		[]dataset.Field{
			testutil.Col("code", dataset.String),
			testutil.Col("qty", dataset.Int),
			testutil.Col("note", dataset.String),
		},
		[]any{"a", 1, "first"},
		[]any{"a", 1, "second"},
		[]any{"a", 2, "third"},
	)

	// Full rows are distinct.
	require.NoError(t, CheckDuplicates(d, DuplicateOptions{}))

	err := CheckDuplicates(d, DuplicateOptions{Columns: []string{"code", "qty"}})
	require.Error(t, err)

	report := DiagnosticOf(err).(*DuplicateReport)
	require.Len(t, report.Findings, 1)
	f := report.Findings[0]
	assert.False(t, f.FullRow)
	assert.Equal(t, []string{"code", "qty"}, f.Columns)
	require.Len(t, f.Groups, 1)
	assert.Equal(t, []any{"a", int64(1)}, f.Groups[0].Values)
	assert.Equal(t, 2, f.Groups[0].Count)

	assert.Contains(t, err.Error(), "Duplicate rows found on combination of columns [code, qty]:")
}

func TestCheckDuplicates_PerColumnAggregatesAllFailures(t *testing.T) {
	d := testutil.Table(t, orderFields,
		[]any{"x", 1},
		[]any{"x", 1},
		[]any{"y", 1},
		[]any{"z", 2},
	)

	err := CheckDuplicates(d, DuplicateOptions{Columns: []string{"code", "qty"}, PerColumn: true})
	require.Error(t, err)

	report := DiagnosticOf(err).(*DuplicateReport)
	require.Len(t, report.Findings, 2)

	assert.Equal(t, []string{"code"}, report.Findings[0].Columns)
	assert.Equal(t, []DuplicateGroup{{Values: []any{"x"}, Count: 2}}, report.Findings[0].Groups)

	assert.Equal(t, []string{"qty"}, report.Findings[1].Columns)
	assert.Equal(t, []DuplicateGroup{{Values: []any{int64(1)}, Count: 3}}, report.Findings[1].Groups)

	msg := err.Error()
	assert.Contains(t, msg, "2 duplicate group(s) found")
	assert.Contains(t, msg, "Duplicate values found in column 'code':")
	assert.Contains(t, msg, "Duplicate values found in column 'qty':")
}

func TestCheckDuplicates_PerColumnOnlyReportsFailingColumns(t *testing.T) {
	d := testutil.Table(t, orderFields,
		[]any{"x", 1},
		[]any{"y", 1},
	)

	err := CheckDuplicates(d, DuplicateOptions{Columns: []string{"code", "qty"}, PerColumn: true})
	require.Error(t, err)

	report := DiagnosticOf(err).(*DuplicateReport)
	require.Len(t, report.Findings, 1)
	assert.Equal(t, []string{"qty"}, report.Findings[0].Columns)
}

func TestCheckDuplicates_GroupsSortedByDescendingCount(t *testing.T) {
	d := testutil.Table(t, []dataset.Field{testutil.Col("v", dataset.String)},
		[]any{"a"}, []any{"b"}, []any{"b"}, []any{"a"}, []any{"b"},
		[]any{"c"}, []any{"c"},
	)

	err := CheckDuplicates(d, DuplicateOptions{Columns: []string{"v"}})
	require.Error(t, err)

	groups := DiagnosticOf(err).(*DuplicateReport).Findings[0].Groups
	require.Len(t, groups, 3)
	assert.Equal(t, DuplicateGroup{Values: []any{"b"}, Count: 3}, groups[0])
	// Ties keep first-occurrence order.
	assert.Equal(t, DuplicateGroup{Values: []any{"a"}, Count: 2}, groups[1])
	assert.Equal(t, DuplicateGroup{Values: []any{"c"}, Count: 2}, groups[2])
}

func TestCheckDuplicates_NullsGroupTogether(t *testing.T) {
	d := testutil.Table(t, []dataset.Field{testutil.Col("v", dataset.String)},
		[]any{nil}, []any{nil}, []any{"NULL"},
	)

	err := CheckDuplicates(d, DuplicateOptions{})
	require.Error(t, err)

	groups := DiagnosticOf(err).(*DuplicateReport).Findings[0].Groups
	require.Len(t, groups, 1)
	assert.Equal(t, []any{nil}, groups[0].Values)
	assert.Equal(t, 2, groups[0].Count)
}

func TestCheckDuplicates_UnknownColumn(t *testing.T) {
	d := testutil.Table(t, orderFields, []any{"a", 1})

	err := CheckDuplicates(d, DuplicateOptions{Columns: []string{"missing"}})
	require.Error(t, err)
	assert.True(t, IsConfigError(err))
	assert.False(t, IsAssertionError(err))
	assert.Contains(t, err.Error(), `"missing"`)
}

func TestCheckDuplicates_EmptyDatasetPasses(t *testing.T) {
	d := testutil.Table(t, orderFields)
	assert.NoError(t, CheckDuplicates(d, DuplicateOptions{}))
}
