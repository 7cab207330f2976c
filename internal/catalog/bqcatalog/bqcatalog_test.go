package bqcatalog

import (
	"math/big"
	"testing"
	"time"

	"cloud.google.com/go/bigquery"
	"cloud.google.com/go/civil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vlad89buzan/dataquality/internal/catalog"
	"github.com/vlad89buzan/dataquality/internal/dataset"
)

func TestParseTableID(t *testing.T) {
	tests := []struct {
		id      string
		want    tableRef
		wantErr bool
	}{
		{id: "proj.sales.orders", want: tableRef{"proj", "sales", "orders"}},
		{id: "`proj.sales.orders`", want: tableRef{"proj", "sales", "orders"}},
		{id: "proj:sales.orders", want: tableRef{"proj", "sales", "orders"}},
		{id: "sales.orders", want: tableRef{"default-proj", "sales", "orders"}},
		{id: "orders", wantErr: true},
		{id: "a..b", wantErr: true},
		{id: "a.b.c.d", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.id, func(t *testing.T) {
			got, err := parseTableID(tt.id, "default-proj")
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestToSchema(t *testing.T) {
	s := bigquery.Schema{
		{Name: "id", Type: bigquery.IntegerFieldType, Required: true},
		{Name: "amount", Type: bigquery.NumericFieldType},
		{Name: "tags", Type: bigquery.StringFieldType, Repeated: true},
	}

	assert.Equal(t, catalog.Schema{
		{Name: "id", Type: "INTEGER", Nullable: false},
		{Name: "amount", Type: "NUMERIC", Nullable: true},
		{Name: "tags", Type: "ARRAY<STRING>", Nullable: true},
	}, toSchema(s))
}

func TestConvertValue(t *testing.T) {
	assert.Nil(t, convertValue(nil))
	assert.Equal(t, time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
		convertValue(civil.Date{Year: 2024, Month: time.March, Day: 1}))
	assert.Equal(t, "10:11:12", convertValue(civil.Time{Hour: 10, Minute: 11, Second: 12}))
	assert.Equal(t, "[a, 1]", convertValue([]bigquery.Value{"a", int64(1)}))

	dt := convertValue(civil.DateTime{
		Date: civil.Date{Year: 2024, Month: time.March, Day: 1},
		Time: civil.Time{Hour: 8},
	}).(time.Time)
	assert.True(t, dt.Equal(time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC)))
}

func TestToDataset(t *testing.T) {
	s := bigquery.Schema{
		{Name: "id", Type: bigquery.IntegerFieldType},
		{Name: "price", Type: bigquery.NumericFieldType},
		{Name: "day", Type: bigquery.DateFieldType},
		{Name: "ok", Type: bigquery.BooleanFieldType},
		{Name: "geo", Type: bigquery.GeographyFieldType},
	}
	rows := [][]bigquery.Value{
		{int64(1), big.NewRat(25, 2), civil.Date{Year: 2024, Month: time.January, Day: 5}, true, "POINT(1 2)"},
		{nil, nil, nil, nil, nil},
	}

	d, err := toDataset(s, rows)
	require.NoError(t, err)
	require.Equal(t, 2, d.Len())

	price, _ := d.Column("price")
	assert.Equal(t, dataset.Numeric, price.Type)
	assert.Equal(t, "12.5", dataset.FormatValue(price.Values[0]))

	day, _ := d.Column("day")
	assert.Equal(t, dataset.Date, day.Type)
	assert.Equal(t, "2024-01-05", dataset.FormatValue(day.Values[0]))

	geo, _ := d.Column("geo")
	assert.Equal(t, dataset.String, geo.Type)

	assert.Equal(t, []any{nil, nil, nil, nil, nil}, d.Row(1))
}

func TestToDataset_EmptyResult(t *testing.T) {
	d, err := toDataset(bigquery.Schema{{Name: "x", Type: bigquery.StringFieldType}}, nil)
	require.NoError(t, err)
	assert.Equal(t, 0, d.Len())
	assert.Equal(t, []string{"x"}, d.Names())
}
