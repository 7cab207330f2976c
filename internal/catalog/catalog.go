// Package catalog defines the warehouse capability the validation engine
// depends on: running ad-hoc queries and describing table schemas.
//
// Implementations live in subpackages:
//   - sqlcatalog: database/sql backed (SQLite, Postgres)
//   - bqcatalog:  Google BigQuery
package catalog

import (
	"context"
	"strings"

	"github.com/vlad89buzan/dataquality/internal/dataset"
)

// Catalog executes queries against a warehouse and reports table schemas.
//
// ExecuteQuery runs literal query text built by the caller. GetSchema takes a
// fully-qualified table identifier. Both are blocking calls with no retries;
// errors are returned unchanged to the caller.
type Catalog interface {
	ExecuteQuery(ctx context.Context, query string) (*dataset.Dataset, error)
	GetSchema(ctx context.Context, table string) (Schema, error)
}

// Quoter is implemented by catalogs that need a specific identifier quoting
// style for probe queries. Catalogs that do not implement it get BigQuery
// style backticks.
type Quoter interface {
	QuoteTable(table string) string
}

// Field describes one column of a warehouse table.
// Type is the warehouse type name (e.g. "INT64", "INTEGER", "STRING").
type Field struct {
	Name     string `json:"name" yaml:"name"`
	Type     string `json:"type" yaml:"type"`
	Nullable bool   `json:"nullable" yaml:"nullable"`
}

// Schema is the ordered list of a table's columns.
type Schema []Field

// Lookup finds a field by name.
func (s Schema) Lookup(name string) (Field, bool) {
	for _, f := range s {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

// QuoteTable quotes a table identifier for use in probe queries, delegating
// to the catalog when it implements Quoter.
func QuoteTable(c Catalog, table string) string {
	if q, ok := c.(Quoter); ok {
		return q.QuoteTable(table)
	}
	return "`" + strings.ReplaceAll(table, "`", "") + "`"
}
