package dq

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/vlad89buzan/dataquality/internal/catalog"
)

// ExpectedColumn is the expected type and nullability of one column.
type ExpectedColumn struct {
	Type     string `json:"type" yaml:"type"`
	Nullable bool   `json:"nullable" yaml:"nullable"`
}

// SchemaExpectation maps column names to their expected definition.
type SchemaExpectation map[string]ExpectedColumn

// domainTypes is the set of type names a SchemaExpectation may use after
// normalization.
var domainTypes = map[string]bool{
	"STRING":    true,
	"BYTES":     true,
	"INT64":     true,
	"FLOAT64":   true,
	"BOOL":      true,
	"NUMERIC":   true,
	"TIMESTAMP": true,
	"DATE":      true,
	"TIME":      true,
	"DATETIME":  true,
}

var typeEquivalents = map[string]string{
	"INTEGER": "INT64",
	"FLOAT":   "FLOAT64",
	"BOOLEAN": "BOOL",
}

// NormalizeType maps a warehouse type name to its canonical spelling.
// Names without an equivalent map to themselves, upper-cased.
func NormalizeType(name string) string {
	n := cases.Upper(language.Und).String(strings.TrimSpace(name))
	if eq, ok := typeEquivalents[n]; ok {
		return eq
	}
	return n
}

// IsDomainType reports whether name, after normalization, is a type a
// SchemaExpectation may use.
func IsDomainType(name string) bool {
	return domainTypes[NormalizeType(name)]
}

// FailKind classifies a schema discrepancy.
type FailKind string

const (
	FailMissing             FailKind = "missing"
	FailTypeMismatch        FailKind = "type mismatch"
	FailNullabilityMismatch FailKind = "nullability mismatch"
	FailUnexpected          FailKind = "unexpected column"
)

// FailItem is a single schema discrepancy.
type FailItem struct {
	Column   string
	Kind     FailKind
	Expected string
	Actual   string
}

// String renders the item on one line.
func (f FailItem) String() string {
	switch f.Kind {
	case FailMissing:
		return fmt.Sprintf("column %s: missing", f.Column)
	case FailUnexpected:
		return fmt.Sprintf("column %s: unexpected column (%s)", f.Column, f.Actual)
	default:
		return fmt.Sprintf("column %s: %s: expected %s, got %s", f.Column, f.Kind, f.Expected, f.Actual)
	}
}

// SchemaReport is the diagnostic of a failed schema conformance check.
type SchemaReport struct {
	Table string
	Items []FailItem
}

// String implements Diagnostic.
func (r *SchemaReport) String() string {
	lines := make([]string, len(r.Items))
	for i, item := range r.Items {
		lines[i] = "  - " + item.String()
	}
	return strings.Join(lines, "\n")
}

// CheckSchema compares the schema of table against expected. Every
// discrepancy is collected before failing: missing columns, type and
// nullability mismatches, and columns the expectation does not mention.
func CheckSchema(ctx context.Context, cat catalog.Catalog, table string, expected SchemaExpectation) error {
	names := make([]string, 0, len(expected))
	for name, col := range expected {
		if !IsDomainType(col.Type) {
			return configErrorf(KindSchema, "column %q: unsupported expected type %q", name, col.Type)
		}
		names = append(names, name)
	}
	sort.Strings(names)

	actual, err := cat.GetSchema(ctx, table)
	if err != nil {
		return &IOError{Check: KindSchema, Table: table, Err: err}
	}

	var items []FailItem
	for _, name := range names {
		want := expected[name]
		got, ok := actual.Lookup(name)
		if !ok {
			items = append(items, FailItem{Column: name, Kind: FailMissing})
			continue
		}

		wantType, gotType := NormalizeType(want.Type), NormalizeType(got.Type)
		if wantType != gotType {
			items = append(items, FailItem{
				Column:   name,
				Kind:     FailTypeMismatch,
				Expected: wantType,
				Actual:   gotType,
			})
		}
		if want.Nullable != got.Nullable {
			items = append(items, FailItem{
				Column:   name,
				Kind:     FailNullabilityMismatch,
				Expected: nullability(want.Nullable),
				Actual:   nullability(got.Nullable),
			})
		}
	}

	for _, f := range actual {
		if _, ok := expected[f.Name]; !ok {
			items = append(items, FailItem{
				Column: f.Name,
				Kind:   FailUnexpected,
				Actual: NormalizeType(f.Type),
			})
		}
	}

	if len(items) == 0 {
		return nil
	}

	return &AssertionError{
		Check:      KindSchema,
		Message:    fmt.Sprintf("table %s does not match expected schema: %d issue(s)", table, len(items)),
		Diagnostic: &SchemaReport{Table: table, Items: items},
	}
}

func nullability(nullable bool) string {
	return "nullable=" + strconv.FormatBool(nullable)
}
