package sqlcatalog

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"
	"strings"

	"github.com/vlad89buzan/dataquality/internal/catalog"
)

type dialect struct {
	name       string
	driver     string
	singleConn bool
	pragmas    []string
	quoteTable func(table string) string
	schema     func(ctx context.Context, db *sql.DB, table string) (catalog.Schema, error)
}

var sqliteDialect = &dialect{
	name:       "sqlite",
	driver:     "sqlite3",
	singleConn: true,
	pragmas: []string{
		"PRAGMA busy_timeout = 5000",
		"PRAGMA foreign_keys = ON",
	},
	quoteTable: quoteDotted,
	schema:     sqliteSchema,
}

var postgresDialect = &dialect{
	name:       "postgres",
	driver:     "pgx",
	quoteTable: quoteDotted,
	schema:     postgresSchema,
}

func lookupDialect(driver string) (*dialect, error) {
	switch strings.ToLower(driver) {
	case "sqlite", "sqlite3":
		return sqliteDialect, nil
	case "postgres", "postgresql", "pgx":
		return postgresDialect, nil
	default:
		return nil, fmt.Errorf("unsupported driver %q (want sqlite or postgres)", driver)
	}
}

// quoteDotted double-quotes every segment of a dotted identifier.
func quoteDotted(table string) string {
	parts := strings.Split(table, ".")
	for i, p := range parts {
		parts[i] = `"` + strings.ReplaceAll(p, `"`, `""`) + `"`
	}
	return strings.Join(parts, ".")
}

// splitTable separates an optional schema prefix from the table name.
func splitTable(table, defaultSchema string) (string, string) {
	if i := strings.LastIndex(table, "."); i >= 0 {
		return table[:i], table[i+1:]
	}
	return defaultSchema, table
}

func sqliteSchema(ctx context.Context, db *sql.DB, table string) (catalog.Schema, error) {
	schemaName, name := splitTable(table, "main")
	rows, err := db.QueryContext(ctx, "SELECT * FROM pragma_table_info(?, ?)", name, schemaName)
	if err != nil {
		return nil, fmt.Errorf("failed to read schema of %s: %w", table, err)
	}
	defer rows.Close()

	var schema catalog.Schema
	for rows.Next() {
		var (
			cid      int
			colName  string
			colType  string
			notNull  int
			defValue sql.NullString
			pk       int
		)
		if err := rows.Scan(&cid, &colName, &colType, &notNull, &defValue, &pk); err != nil {
			return nil, fmt.Errorf("failed to scan schema of %s: %w", table, err)
		}
		schema = append(schema, catalog.Field{
			Name:     colName,
			Type:     WarehouseType(colType),
			Nullable: notNull == 0,
		})
	}
	return schema, rows.Err()
}

func postgresSchema(ctx context.Context, db *sql.DB, table string) (catalog.Schema, error) {
	schemaName, name := splitTable(table, "public")

	rows, err := db.QueryContext(ctx, `
		SELECT column_name, data_type, is_nullable
		FROM information_schema.columns
		WHERE table_schema = $1 AND table_name = $2
		ORDER BY ordinal_position`, schemaName, name)
	if err != nil {
		return nil, fmt.Errorf("failed to read schema of %s: %w", table, err)
	}
	defer rows.Close()

	var schema catalog.Schema
	for rows.Next() {
		var colName, colType, nullable string
		if err := rows.Scan(&colName, &colType, &nullable); err != nil {
			return nil, fmt.Errorf("failed to scan schema of %s: %w", table, err)
		}
		schema = append(schema, catalog.Field{
			Name:     colName,
			Type:     WarehouseType(colType),
			Nullable: nullable == "YES",
		})
	}
	return schema, rows.Err()
}

var typeParams = regexp.MustCompile(`\s*\(.*\)`)

// nativeTypes maps SQLite and Postgres type names to warehouse type names.
var nativeTypes = map[string]string{
	"INTEGER":   "INT64",
	"INT":       "INT64",
	"BIGINT":    "INT64",
	"SMALLINT":  "INT64",
	"TINYINT":   "INT64",
	"MEDIUMINT": "INT64",
	"INT2":      "INT64",
	"INT4":      "INT64",
	"INT8":      "INT64",
	"SERIAL":    "INT64",
	"BIGSERIAL": "INT64",

	"REAL":             "FLOAT64",
	"FLOAT":            "FLOAT64",
	"DOUBLE":           "FLOAT64",
	"DOUBLE PRECISION": "FLOAT64",
	"FLOAT4":           "FLOAT64",
	"FLOAT8":           "FLOAT64",

	"NUMERIC": "NUMERIC",
	"DECIMAL": "NUMERIC",

	"TEXT":              "STRING",
	"VARCHAR":           "STRING",
	"CHAR":              "STRING",
	"CHARACTER":         "STRING",
	"CHARACTER VARYING": "STRING",
	"BPCHAR":            "STRING",
	"CLOB":              "STRING",
	"NAME":              "STRING",
	"UUID":              "STRING",
	"JSON":              "STRING",
	"JSONB":             "STRING",

	"BOOLEAN": "BOOL",
	"BOOL":    "BOOL",

	"TIMESTAMP":                   "TIMESTAMP",
	"TIMESTAMPTZ":                 "TIMESTAMP",
	"TIMESTAMP WITH TIME ZONE":    "TIMESTAMP",
	"TIMESTAMP WITHOUT TIME ZONE": "DATETIME",
	"DATETIME":                    "DATETIME",
	"DATE":                        "DATE",
	"TIME":                        "TIME",
	"TIME WITHOUT TIME ZONE":      "TIME",

	"BLOB":  "BYTES",
	"BYTEA": "BYTES",
}

// WarehouseType translates a native SQLite or Postgres column type into the
// warehouse type name used by schema expectations. Length and precision
// parameters are dropped. Unknown names are returned upper-cased.
func WarehouseType(native string) string {
	name := strings.ToUpper(strings.TrimSpace(typeParams.ReplaceAllString(native, "")))
	if wh, ok := nativeTypes[name]; ok {
		return wh
	}
	return name
}
