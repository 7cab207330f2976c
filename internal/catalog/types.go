package catalog

import (
	"strings"

	"github.com/vlad89buzan/dataquality/internal/dataset"
)

// DatasetType maps a warehouse type name to the dataset column type used
// for its values. Both standard and legacy BigQuery names are accepted.
// Types without a dedicated representation (TIME, BYTES, GEOGRAPHY, ...) are
// carried as strings.
func DatasetType(warehouseType string) dataset.Type {
	switch strings.ToUpper(strings.TrimSpace(warehouseType)) {
	case "INT64", "INTEGER":
		return dataset.Int
	case "FLOAT64", "FLOAT":
		return dataset.Float
	case "NUMERIC", "BIGNUMERIC", "DECIMAL", "BIGDECIMAL":
		return dataset.Numeric
	case "BOOL", "BOOLEAN":
		return dataset.Bool
	case "TIMESTAMP", "DATETIME":
		return dataset.Timestamp
	case "DATE":
		return dataset.Date
	default:
		return dataset.String
	}
}
