package sqlcatalog

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vlad89buzan/dataquality/internal/catalog"
	"github.com/vlad89buzan/dataquality/internal/dataset"
)

func openSeeded(t *testing.T) *Catalog {
	t.Helper()

	c, err := Open("sqlite", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { c.Close() })

	_, err = c.DB().Exec(`
		CREATE TABLE orders (
			id INTEGER NOT NULL PRIMARY KEY,
			code VARCHAR(16) NOT NULL,
			qty INT,
			price NUMERIC(10, 2),
			ratio REAL,
			paid BOOLEAN,
			order_date DATE,
			created_at TIMESTAMP
		);
		INSERT INTO orders VALUES
			(1, '732A', 5, 12.50, 0.5, 1, '2024-01-02', '2024-01-02 10:11:12'),
			(2, '732B', NULL, NULL, NULL, 0, NULL, NULL);
		CREATE TABLE empty_table (x TEXT);
	`)
	require.NoError(t, err)
	return c
}

func TestOpen_UnsupportedDriver(t *testing.T) {
	_, err := Open("oracle", "whatever")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported driver")
}

func TestOpen_AppliesPragmas(t *testing.T) {
	c := openSeeded(t)
	assert.Equal(t, "sqlite", c.Dialect())

	var timeout int
	require.NoError(t, c.DB().QueryRow("PRAGMA busy_timeout").Scan(&timeout))
	assert.Equal(t, 5000, timeout)

	var fk int
	require.NoError(t, c.DB().QueryRow("PRAGMA foreign_keys").Scan(&fk))
	assert.Equal(t, 1, fk)
}

func TestExecuteQuery_TypesFromDeclaration(t *testing.T) {
	c := openSeeded(t)

	d, err := c.ExecuteQuery(context.Background(), "SELECT * FROM orders ORDER BY id")
	require.NoError(t, err)
	require.Equal(t, 2, d.Len())

	wantTypes := map[string]dataset.Type{
		"id":         dataset.Int,
		"code":       dataset.String,
		"qty":        dataset.Int,
		"price":      dataset.Numeric,
		"ratio":      dataset.Float,
		"paid":       dataset.Bool,
		"order_date": dataset.Date,
		"created_at": dataset.Timestamp,
	}
	for name, want := range wantTypes {
		col, ok := d.Column(name)
		require.True(t, ok, name)
		assert.Equal(t, want, col.Type, name)
	}

	row := d.Row(0)
	assert.Equal(t, int64(1), row[0])
	assert.Equal(t, "732A", row[1])
	assert.Equal(t, int64(5), row[2])
	assert.Equal(t, "12.5", dataset.FormatValue(row[3]))
	assert.Equal(t, 0.5, row[4])
	assert.Equal(t, true, row[5])
	assert.Equal(t, "2024-01-02", dataset.FormatValue(row[6]))
	assert.True(t, row[7].(time.Time).Equal(time.Date(2024, 1, 2, 10, 11, 12, 0, time.UTC)))

	nulls := d.Row(1)
	assert.Nil(t, nulls[2])
	assert.Nil(t, nulls[3])
	assert.Equal(t, false, nulls[5])
	assert.Nil(t, nulls[7])
}

func TestExecuteQuery_ComputedColumnsInferred(t *testing.T) {
	c := openSeeded(t)

	d, err := c.ExecuteQuery(context.Background(),
		"SELECT COUNT(*) AS n, MAX(ratio) AS top, 'x' AS tag, NULL AS empty_val FROM orders")
	require.NoError(t, err)

	types := make(map[string]dataset.Type)
	for _, col := range d.Columns() {
		types[col.Name] = col.Type
	}
	assert.Equal(t, dataset.Int, types["n"])
	assert.Equal(t, dataset.Float, types["top"])
	assert.Equal(t, dataset.String, types["tag"])
	assert.Equal(t, dataset.String, types["empty_val"])
	assert.Equal(t, []any{int64(2), 0.5, "x", nil}, d.Row(0))
}

func TestExecuteQuery_EmptyResultKeepsColumns(t *testing.T) {
	c := openSeeded(t)

	d, err := c.ExecuteQuery(context.Background(), `SELECT * FROM "empty_table" LIMIT 1`)
	require.NoError(t, err)
	assert.Equal(t, 0, d.Len())
	assert.Equal(t, []string{"x"}, d.Names())
}

func TestExecuteQuery_Error(t *testing.T) {
	c := openSeeded(t)

	_, err := c.ExecuteQuery(context.Background(), "SELECT * FROM missing_table")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "query failed")
}

func TestGetSchema_SQLite(t *testing.T) {
	c := openSeeded(t)

	schema, err := c.GetSchema(context.Background(), "orders")
	require.NoError(t, err)

	assert.Equal(t, catalog.Schema{
		{Name: "id", Type: "INT64", Nullable: false},
		{Name: "code", Type: "STRING", Nullable: false},
		{Name: "qty", Type: "INT64", Nullable: true},
		{Name: "price", Type: "NUMERIC", Nullable: true},
		{Name: "ratio", Type: "FLOAT64", Nullable: true},
		{Name: "paid", Type: "BOOL", Nullable: true},
		{Name: "order_date", Type: "DATE", Nullable: true},
		{Name: "created_at", Type: "TIMESTAMP", Nullable: true},
	}, schema)

	qualified, err := c.GetSchema(context.Background(), "main.orders")
	require.NoError(t, err)
	assert.Equal(t, schema, qualified)
}

func TestGetSchema_MissingTable(t *testing.T) {
	c := openSeeded(t)

	_, err := c.GetSchema(context.Background(), "nope")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "table nope not found")
}

func TestQuoteTable(t *testing.T) {
	c := openSeeded(t)
	assert.Equal(t, `"orders"`, c.QuoteTable("orders"))
	assert.Equal(t, `"analytics"."orders"`, c.QuoteTable("analytics.orders"))
	assert.Equal(t, `"we""ird"`, c.QuoteTable(`we"ird`))

	var _ catalog.Quoter = c
}

func TestWarehouseType(t *testing.T) {
	tests := map[string]string{
		"INTEGER":                     "INT64",
		"int8":                        "INT64",
		"bigint":                      "INT64",
		"VARCHAR(255)":                "STRING",
		"character varying":           "STRING",
		"NUMERIC(10, 2)":              "NUMERIC",
		"double precision":            "FLOAT64",
		"boolean":                     "BOOL",
		"timestamp with time zone":    "TIMESTAMP",
		"timestamp without time zone": "DATETIME",
		"date":                        "DATE",
		"bytea":                       "BYTES",
		"geography":                   "GEOGRAPHY",
		"":                            "",
	}
	for in, want := range tests {
		assert.Equal(t, want, WarehouseType(in), in)
	}
}

func TestLookupDialect(t *testing.T) {
	for _, name := range []string{"sqlite", "SQLite3"} {
		d, err := lookupDialect(name)
		require.NoError(t, err)
		assert.Equal(t, "sqlite3", d.driver)
	}
	for _, name := range []string{"postgres", "postgresql", "pgx"} {
		d, err := lookupDialect(name)
		require.NoError(t, err)
		assert.Equal(t, "pgx", d.driver)
	}
}
