package testutil

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vlad89buzan/dataquality/internal/dataset"
)

// Table builds a dataset from fields and rows, coercing every cell to its
// column type. It fails the test on any error.
//
//	d := testutil.Table(t,
//		[]dataset.Field{{Name: "code", Type: dataset.String}, {Name: "qty", Type: dataset.Int}},
//		[]any{"732A", 5},
//	)
func Table(t testing.TB, fields []dataset.Field, rows ...[]any) *dataset.Dataset {
	t.Helper()

	b := dataset.NewBuilder(fields...)
	for i, row := range rows {
		require.NoError(t, b.Append(row...), "row %d", i)
	}
	d, err := b.Build()
	require.NoError(t, err)
	return d
}

// Col is shorthand for a dataset.Field.
func Col(name string, typ dataset.Type) dataset.Field {
	return dataset.Field{Name: name, Type: typ}
}
