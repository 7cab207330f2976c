package dataset

import (
	"fmt"
)

// Column is a named, typed sequence of cells.
type Column struct {
	Name   string
	Type   Type
	Values []any
}

// Len returns the number of cells in the column.
func (c *Column) Len() int {
	return len(c.Values)
}

// NullCount returns the number of nil cells.
func (c *Column) NullCount() int {
	n := 0
	for _, v := range c.Values {
		if v == nil {
			n++
		}
	}
	return n
}

// clone returns a deep copy of the column's slice.
func (c *Column) clone() *Column {
	values := make([]any, len(c.Values))
	copy(values, c.Values)
	return &Column{Name: c.Name, Type: c.Type, Values: values}
}

// Dataset is an in-memory table with named, typed columns of equal length.
type Dataset struct {
	cols  []*Column
	index map[string]int
	rows  int
}

// New builds a dataset from columns, enforcing the package invariants.
// The columns are used as-is; callers must not modify them afterwards.
func New(cols ...*Column) (*Dataset, error) {
	d := &Dataset{
		cols:  make([]*Column, 0, len(cols)),
		index: make(map[string]int, len(cols)),
	}

	for i, col := range cols {
		if col == nil {
			return nil, fmt.Errorf("column %d is nil", i)
		}
		if col.Name == "" {
			return nil, fmt.Errorf("column %d has no name", i)
		}
		if _, dup := d.index[col.Name]; dup {
			return nil, fmt.Errorf("duplicate column name %q", col.Name)
		}
		if i == 0 {
			d.rows = col.Len()
		} else if col.Len() != d.rows {
			return nil, fmt.Errorf("column %q has %d rows, expected %d", col.Name, col.Len(), d.rows)
		}
		for row, v := range col.Values {
			if !matchesType(v, col.Type) {
				return nil, fmt.Errorf("column %q row %d: value %v (%T) is not a %s", col.Name, row, v, v, col.Type)
			}
		}

		d.index[col.Name] = len(d.cols)
		d.cols = append(d.cols, col)
	}

	return d, nil
}

// MustNew is like New but panics on error. Intended for tests and fixtures.
func MustNew(cols ...*Column) *Dataset {
	d, err := New(cols...)
	if err != nil {
		panic(err)
	}
	return d
}

// Len returns the number of rows.
func (d *Dataset) Len() int {
	if d == nil {
		return 0
	}
	return d.rows
}

// Empty reports whether the dataset has no rows.
func (d *Dataset) Empty() bool {
	return d.Len() == 0
}

// Names returns the column names in order.
func (d *Dataset) Names() []string {
	names := make([]string, len(d.cols))
	for i, c := range d.cols {
		names[i] = c.Name
	}
	return names
}

// Columns returns the columns in order. The slice is a copy; the columns are not.
func (d *Dataset) Columns() []*Column {
	out := make([]*Column, len(d.cols))
	copy(out, d.cols)
	return out
}

// Column looks up a column by name.
func (d *Dataset) Column(name string) (*Column, bool) {
	i, ok := d.index[name]
	if !ok {
		return nil, false
	}
	return d.cols[i], true
}

// Has reports whether the dataset contains the named column.
func (d *Dataset) Has(name string) bool {
	_, ok := d.index[name]
	return ok
}

// Row returns the cells of row i across all columns.
func (d *Dataset) Row(i int) []any {
	row := make([]any, len(d.cols))
	for j, c := range d.cols {
		row[j] = c.Values[i]
	}
	return row
}

// Clone returns a deep copy of the dataset. Cell values are immutable types,
// so copying the slices is sufficient.
func (d *Dataset) Clone() *Dataset {
	out := &Dataset{
		cols:  make([]*Column, len(d.cols)),
		index: make(map[string]int, len(d.index)),
		rows:  d.rows,
	}
	for i, c := range d.cols {
		out.cols[i] = c.clone()
		out.index[c.Name] = i
	}
	return out
}

// Select returns the named columns in the given order.
// An unknown name is reported as an error.
func (d *Dataset) Select(names ...string) ([]*Column, error) {
	cols := make([]*Column, len(names))
	for i, name := range names {
		c, ok := d.Column(name)
		if !ok {
			return nil, fmt.Errorf("column %q not found", name)
		}
		cols[i] = c
	}
	return cols, nil
}
