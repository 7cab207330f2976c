package dataset

import (
	"fmt"
	"strings"
)

// Type is the logical type tag of a column.
type Type int

const (
	String Type = iota
	Int
	Float
	Numeric
	Bool
	Timestamp
	Date
)

var typeNames = map[Type]string{
	String:    "string",
	Int:       "int",
	Float:     "float",
	Numeric:   "numeric",
	Bool:      "bool",
	Timestamp: "timestamp",
	Date:      "date",
}

// String implements fmt.Stringer.
func (t Type) String() string {
	if name, ok := typeNames[t]; ok {
		return name
	}
	return fmt.Sprintf("Type(%d)", int(t))
}

// IsTemporal reports whether the type holds time.Time values.
func (t Type) IsTemporal() bool {
	return t == Timestamp || t == Date
}

// IsNumeric reports whether the type holds numbers.
func (t Type) IsNumeric() bool {
	return t == Int || t == Float || t == Numeric
}

// ParseType maps a type name to a Type. Accepted spellings cover the names
// used in suite files ("int", "integer", "int64", "timestamp", ...).
func ParseType(name string) (Type, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "string", "str", "text":
		return String, nil
	case "int", "integer", "int64", "bigint":
		return Int, nil
	case "float", "float64", "double", "real":
		return Float, nil
	case "numeric", "decimal", "bignumeric":
		return Numeric, nil
	case "bool", "boolean":
		return Bool, nil
	case "timestamp", "datetime":
		return Timestamp, nil
	case "date":
		return Date, nil
	default:
		return String, fmt.Errorf("unknown column type %q", name)
	}
}
