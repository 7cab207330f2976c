package dataset

import "fmt"

// Field declares a column name and type for a Builder.
type Field struct {
	Name string
	Type Type
}

// Builder accumulates rows and converts each cell to its column type.
// Loaders and catalogs use it so that type tags are fixed at ingestion.
type Builder struct {
	cols []*Column
}

// NewBuilder creates a builder for the given fields.
func NewBuilder(fields ...Field) *Builder {
	cols := make([]*Column, len(fields))
	for i, f := range fields {
		cols[i] = &Column{Name: f.Name, Type: f.Type, Values: []any{}}
	}
	return &Builder{cols: cols}
}

// Append adds one row. The number of values must match the number of fields.
// Each value is coerced to its column type; an unconvertible value is an error.
func (b *Builder) Append(values ...any) error {
	if len(values) != len(b.cols) {
		return fmt.Errorf("row has %d values, expected %d", len(values), len(b.cols))
	}

	converted := make([]any, len(values))
	for i, v := range values {
		c, ok := Coerce(v, b.cols[i].Type)
		if !ok {
			return fmt.Errorf("column %q: cannot convert %v (%T) to %s", b.cols[i].Name, v, v, b.cols[i].Type)
		}
		converted[i] = c
	}

	for i, c := range converted {
		b.cols[i].Values = append(b.cols[i].Values, c)
	}
	return nil
}

// Len returns the number of rows appended so far.
func (b *Builder) Len() int {
	if len(b.cols) == 0 {
		return 0
	}
	return b.cols[0].Len()
}

// Build returns the dataset. The builder must not be used afterwards.
func (b *Builder) Build() (*Dataset, error) {
	return New(b.cols...)
}
