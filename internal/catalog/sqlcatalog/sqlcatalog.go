// Package sqlcatalog implements catalog.Catalog on top of database/sql.
//
// Two dialects are supported:
//   - sqlite: github.com/mattn/go-sqlite3, driver name "sqlite3"
//   - postgres: github.com/jackc/pgx/v5/stdlib, driver name "pgx"
//
// Native column types are translated into warehouse type names (INT64,
// FLOAT64, STRING, ...) so that schema expectations written for the
// warehouse apply unchanged to local databases.
package sqlcatalog

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/mattn/go-sqlite3"

	"github.com/vlad89buzan/dataquality/internal/catalog"
	"github.com/vlad89buzan/dataquality/internal/dataset"
)

// Catalog is a database/sql backed catalog.
type Catalog struct {
	db      *sql.DB
	dialect *dialect
}

var _ catalog.Catalog = (*Catalog)(nil)

// Open connects to a database. driver is one of "sqlite", "sqlite3",
// "postgres" or "pgx".
//
// SQLite connections are configured with:
//   - a single open connection, so ":memory:" databases are shared
//   - 5-second busy timeout for lock contention
//   - foreign key enforcement
func Open(driver, dsn string) (*Catalog, error) {
	d, err := lookupDialect(driver)
	if err != nil {
		return nil, err
	}

	db, err := sql.Open(d.driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Verify connection works
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if d.singleConn {
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)
	}

	if err := applyPragmas(db, d.pragmas); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply pragmas: %w", err)
	}

	return &Catalog{db: db, dialect: d}, nil
}

// Close closes the database connection.
func (c *Catalog) Close() error {
	if c.db == nil {
		return nil
	}
	return c.db.Close()
}

// DB returns the underlying sql.DB, used by tests and fixtures to seed data.
func (c *Catalog) DB() *sql.DB {
	return c.db
}

// Dialect returns the dialect name ("sqlite" or "postgres").
func (c *Catalog) Dialect() string {
	return c.dialect.name
}

// QuoteTable implements catalog.Quoter.
func (c *Catalog) QuoteTable(table string) string {
	return c.dialect.quoteTable(table)
}

// ExecuteQuery runs query and materializes the result.
//
// Column types come from the driver's declared type when there is one;
// computed columns with no declared type are typed from their first
// non-null value.
func (c *Catalog) ExecuteQuery(ctx context.Context, query string) (*dataset.Dataset, error) {
	rows, err := c.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query failed: %w", err)
	}
	defer rows.Close()

	colTypes, err := rows.ColumnTypes()
	if err != nil {
		return nil, fmt.Errorf("failed to read column types: %w", err)
	}

	var raw [][]any
	for rows.Next() {
		values := make([]any, len(colTypes))
		ptrs := make([]any, len(colTypes))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("failed to scan row %d: %w", len(raw), err)
		}
		raw = append(raw, values)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate rows: %w", err)
	}

	fields := make([]dataset.Field, len(colTypes))
	for i, ct := range colTypes {
		fields[i] = dataset.Field{Name: ct.Name(), Type: c.columnType(ct.DatabaseTypeName(), raw, i)}
	}

	b := dataset.NewBuilder(fields...)
	for i, row := range raw {
		if err := b.Append(row...); err != nil {
			return nil, fmt.Errorf("row %d: %w", i, err)
		}
	}
	return b.Build()
}

// GetSchema returns the columns of table in declaration order.
func (c *Catalog) GetSchema(ctx context.Context, table string) (catalog.Schema, error) {
	schema, err := c.dialect.schema(ctx, c.db, table)
	if err != nil {
		return nil, err
	}
	if len(schema) == 0 {
		return nil, fmt.Errorf("table %s not found", table)
	}
	return schema, nil
}

func (c *Catalog) columnType(declared string, raw [][]any, col int) dataset.Type {
	if declared != "" {
		return catalog.DatasetType(WarehouseType(declared))
	}
	for _, row := range raw {
		switch row[col].(type) {
		case nil:
			continue
		case int64:
			return dataset.Int
		case float64:
			return dataset.Float
		case bool:
			return dataset.Bool
		case time.Time:
			return dataset.Timestamp
		default:
			return dataset.String
		}
	}
	return dataset.String
}

// applyPragmas sets dialect specific connection configuration.
func applyPragmas(db *sql.DB, pragmas []string) error {
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			return fmt.Errorf("failed to execute %q: %w", pragma, err)
		}
	}
	return nil
}
