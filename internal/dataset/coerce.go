package dataset

import (
	"fmt"
	"math"
	"math/big"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// timeLayouts are tried in order when parsing temporal strings.
var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999 MST",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04:05.999999999",
	"2006-01-02",
}

// dateLayout is the canonical rendering of Date cells.
const dateLayout = "2006-01-02"

// matchesType reports whether v is a valid cell for a column of type t.
func matchesType(v any, t Type) bool {
	if v == nil {
		return true
	}
	switch t {
	case String:
		_, ok := v.(string)
		return ok
	case Int:
		_, ok := v.(int64)
		return ok
	case Float:
		_, ok := v.(float64)
		return ok
	case Numeric:
		_, ok := v.(decimal.Decimal)
		return ok
	case Bool:
		_, ok := v.(bool)
		return ok
	case Timestamp, Date:
		_, ok := v.(time.Time)
		return ok
	}
	return false
}

// Coerce converts v to the Go representation of t.
// Null input yields (nil, true). A value that cannot be converted yields
// (nil, false); callers decide whether that is an error or an invalid marker.
func Coerce(v any, t Type) (any, bool) {
	if v == nil {
		return nil, true
	}
	switch t {
	case String:
		return FormatValue(v), true
	case Int:
		return toInt(v)
	case Float:
		return toFloat(v)
	case Numeric:
		d, ok := ToDecimal(v)
		if !ok {
			return nil, false
		}
		return d, true
	case Bool:
		return toBool(v)
	case Timestamp:
		ts, ok := ToTime(v)
		if !ok {
			return nil, false
		}
		return ts, true
	case Date:
		ts, ok := ToTime(v)
		if !ok {
			return nil, false
		}
		return truncateDate(ts), true
	}
	return nil, false
}

// FormatValue renders a cell as a string. Times use RFC3339Nano in UTC, or
// the bare date when the value falls exactly on midnight UTC.
func FormatValue(v any) string {
	switch val := v.(type) {
	case nil:
		return "NULL"
	case string:
		return val
	case []byte:
		return string(val)
	case int64:
		return strconv.FormatInt(val, 10)
	case int:
		return strconv.Itoa(val)
	case float64:
		return strconv.FormatFloat(val, 'g', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(val), 'g', -1, 32)
	case bool:
		return strconv.FormatBool(val)
	case decimal.Decimal:
		return val.String()
	case *big.Rat:
		return val.RatString()
	case time.Time:
		u := val.UTC()
		if u.Equal(truncateDate(u)) {
			return u.Format(dateLayout)
		}
		return u.Format(time.RFC3339Nano)
	case fmt.Stringer:
		return val.String()
	default:
		return fmt.Sprintf("%v", val)
	}
}

// ToDecimal converts numeric, boolean and string values to a decimal.
func ToDecimal(v any) (decimal.Decimal, bool) {
	switch val := v.(type) {
	case decimal.Decimal:
		return val, true
	case int64:
		return decimal.NewFromInt(val), true
	case int:
		return decimal.NewFromInt(int64(val)), true
	case int32:
		return decimal.NewFromInt(int64(val)), true
	case float64:
		if math.IsNaN(val) || math.IsInf(val, 0) {
			return decimal.Decimal{}, false
		}
		return decimal.NewFromFloat(val), true
	case float32:
		f := float64(val)
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return decimal.Decimal{}, false
		}
		return decimal.NewFromFloat32(val), true
	case bool:
		if val {
			return decimal.NewFromInt(1), true
		}
		return decimal.Zero, true
	case *big.Rat:
		d, err := decimal.NewFromString(val.FloatString(9))
		if err != nil {
			return decimal.Decimal{}, false
		}
		return d, true
	case string:
		d, err := decimal.NewFromString(strings.TrimSpace(val))
		if err != nil {
			return decimal.Decimal{}, false
		}
		return d, true
	case []byte:
		return ToDecimal(string(val))
	}
	return decimal.Decimal{}, false
}

// ToTime converts time values and parseable strings to a UTC time.
func ToTime(v any) (time.Time, bool) {
	switch val := v.(type) {
	case time.Time:
		return val.UTC(), true
	case string:
		s := strings.TrimSpace(val)
		for _, layout := range timeLayouts {
			if ts, err := time.Parse(layout, s); err == nil {
				return ts.UTC(), true
			}
		}
	case []byte:
		return ToTime(string(val))
	}
	return time.Time{}, false
}

func toInt(v any) (any, bool) {
	switch val := v.(type) {
	case int64:
		return val, true
	case int:
		return int64(val), true
	case int32:
		return int64(val), true
	case int16:
		return int64(val), true
	case int8:
		return int64(val), true
	case uint32:
		return int64(val), true
	case uint16:
		return int64(val), true
	case uint8:
		return int64(val), true
	case float64:
		if math.IsNaN(val) {
			return nil, true
		}
		if val != math.Trunc(val) || math.IsInf(val, 0) {
			return nil, false
		}
		return int64(val), true
	case decimal.Decimal:
		if !val.IsInteger() {
			return nil, false
		}
		return val.IntPart(), true
	case bool:
		if val {
			return int64(1), true
		}
		return int64(0), true
	case string:
		n, err := strconv.ParseInt(strings.TrimSpace(val), 10, 64)
		if err != nil {
			return nil, false
		}
		return n, true
	case []byte:
		return toInt(string(val))
	}
	return nil, false
}

func toFloat(v any) (any, bool) {
	switch val := v.(type) {
	case float64:
		if math.IsNaN(val) {
			return nil, true
		}
		return val, true
	case float32:
		return float64(val), true
	case int64:
		return float64(val), true
	case int:
		return float64(val), true
	case int32:
		return float64(val), true
	case decimal.Decimal:
		f, _ := val.Float64()
		return f, true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(val), 64)
		if err != nil {
			return nil, false
		}
		return f, true
	case []byte:
		return toFloat(string(val))
	}
	return nil, false
}

func toBool(v any) (any, bool) {
	switch val := v.(type) {
	case bool:
		return val, true
	case int64:
		return val != 0, true
	case int:
		return val != 0, true
	case string:
		b, err := strconv.ParseBool(strings.TrimSpace(val))
		if err != nil {
			return nil, false
		}
		return b, true
	case []byte:
		return toBool(string(val))
	}
	return nil, false
}

func truncateDate(ts time.Time) time.Time {
	u := ts.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}
