// Package schemaconv turns warehouse schema exports into schema expectation
// files that suites can reference with schema_file.
//
// The input is the JSON array produced by exporting
// INFORMATION_SCHEMA.COLUMNS for a table. The output is YAML keyed by
// column name, in column order:
//
//	Code:
//	  type: STRING
//	  nullable: true
package schemaconv

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/vlad89buzan/dataquality/internal/catalog"
	"github.com/vlad89buzan/dataquality/internal/dq"
)

// Column is one row of an INFORMATION_SCHEMA.COLUMNS export.
type Column struct {
	Name       string `json:"column_name"`
	DataType   string `json:"data_type"`
	IsNullable string `json:"is_nullable"`
}

// typeMapping folds warehouse type names into the expectation domain.
var typeMapping = map[string]string{
	"STRING":     "STRING",
	"BYTES":      "BYTES",
	"INT64":      "INT64",
	"INTEGER":    "INT64",
	"FLOAT64":    "FLOAT64",
	"FLOAT":      "FLOAT64",
	"NUMERIC":    "NUMERIC",
	"BIGNUMERIC": "NUMERIC",
	"BOOL":       "BOOL",
	"BOOLEAN":    "BOOL",
	"TIMESTAMP":  "TIMESTAMP",
	"DATE":       "DATE",
	"TIME":       "TIME",
	"DATETIME":   "DATETIME",
	"GEOGRAPHY":  "STRING",
}

// MapType returns the expectation type for a warehouse type name.
// Anything unknown, including parameterized and nested types, maps to STRING.
func MapType(dataType string) string {
	if t, ok := typeMapping[strings.ToUpper(strings.TrimSpace(dataType))]; ok {
		return t
	}
	return "STRING"
}

// ParseColumns decodes an INFORMATION_SCHEMA.COLUMNS JSON export.
func ParseColumns(r io.Reader) ([]Column, error) {
	var cols []Column
	if err := json.NewDecoder(r).Decode(&cols); err != nil {
		return nil, fmt.Errorf("failed to parse schema export: %w", err)
	}
	for i, c := range cols {
		if c.Name == "" {
			return nil, fmt.Errorf("entry %d: column_name is required", i)
		}
		if c.DataType == "" {
			return nil, fmt.Errorf("column %q: data_type is required", c.Name)
		}
	}
	return cols, nil
}

// Fields converts export rows into schema fields. A missing is_nullable
// means nullable.
func Fields(cols []Column) catalog.Schema {
	out := make(catalog.Schema, len(cols))
	for i, c := range cols {
		nullable := c.IsNullable == "" || strings.EqualFold(c.IsNullable, "YES")
		out[i] = catalog.Field{Name: c.Name, Type: MapType(c.DataType), Nullable: nullable}
	}
	return out
}

// FromSchema converts a live catalog schema into expectation fields. Types
// are written the way CheckSchema compares them, so the result passes
// against the table it came from. Columns whose type an expectation cannot
// express are reported together as an error.
func FromSchema(s catalog.Schema) (catalog.Schema, error) {
	out := make(catalog.Schema, len(s))
	var unsupported []string
	for i, f := range s {
		t := dq.NormalizeType(f.Type)
		if !dq.IsDomainType(t) {
			unsupported = append(unsupported, fmt.Sprintf("%s (%s)", f.Name, f.Type))
		}
		out[i] = catalog.Field{Name: f.Name, Type: t, Nullable: f.Nullable}
	}
	if len(unsupported) > 0 {
		return nil, fmt.Errorf("column types not supported in schema expectations: %s", strings.Join(unsupported, ", "))
	}
	return out, nil
}

// Write encodes fields as an expectation YAML document, keeping column order.
func Write(w io.Writer, fields catalog.Schema) error {
	doc := &yaml.Node{Kind: yaml.MappingNode}
	for _, f := range fields {
		doc.Content = append(doc.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Value: f.Name},
			&yaml.Node{Kind: yaml.MappingNode, Content: []*yaml.Node{
				{Kind: yaml.ScalarNode, Value: "type"},
				{Kind: yaml.ScalarNode, Value: f.Type},
				{Kind: yaml.ScalarNode, Value: "nullable"},
				{Kind: yaml.ScalarNode, Tag: "!!bool", Value: strconv.FormatBool(f.Nullable)},
			}},
		)
	}

	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("failed to encode schema: %w", err)
	}
	return enc.Close()
}

// ConvertFile reads an export from in and writes the expectation to out.
// It returns the number of columns written.
func ConvertFile(in, out string) (int, error) {
	f, err := os.Open(in)
	if err != nil {
		return 0, fmt.Errorf("failed to open %s: %w", in, err)
	}
	defer f.Close()

	cols, err := ParseColumns(f)
	if err != nil {
		return 0, err
	}

	var buf bytes.Buffer
	if err := Write(&buf, Fields(cols)); err != nil {
		return 0, err
	}
	if err := os.WriteFile(out, buf.Bytes(), 0o644); err != nil {
		return 0, fmt.Errorf("failed to write %s: %w", out, err)
	}
	return len(cols), nil
}

// ReadExpectation loads an expectation file written by Write.
func ReadExpectation(path string) (dq.SchemaExpectation, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read schema file: %w", err)
	}

	var exp dq.SchemaExpectation
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&exp); err != nil {
		return nil, fmt.Errorf("failed to parse schema file %s: %w", path, err)
	}
	if len(exp) == 0 {
		return nil, fmt.Errorf("schema file %s defines no columns", path)
	}
	return exp, nil
}
