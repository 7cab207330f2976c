package dq

import (
	"context"
	"errors"
	"fmt"

	"github.com/vlad89buzan/dataquality/internal/catalog"
)

// errNoResult is the cause recorded when a probe returns no result at all.
var errNoResult = errors.New("probe returned no result")

// TableExists issues a one-row probe against table. It fails if the probe
// errors or yields no result object. An empty result still means the table
// exists. A cancelled context is an IOError: the probe never answered.
func TableExists(ctx context.Context, cat catalog.Catalog, table string) error {
	if err := ctx.Err(); err != nil {
		return &IOError{Check: KindTableExists, Table: table, Err: err}
	}

	query := fmt.Sprintf("SELECT 1 FROM %s LIMIT 1", catalog.QuoteTable(cat, table))

	res, err := cat.ExecuteQuery(ctx, query)
	if err != nil && ctx.Err() != nil {
		return &IOError{Check: KindTableExists, Table: table, Err: err}
	}
	if err == nil && res == nil {
		err = errNoResult
	}
	if err != nil {
		return &AssertionError{
			Check:   KindTableExists,
			Message: fmt.Sprintf("table %s does not exist or is not accessible", table),
			Cause:   err,
		}
	}
	return nil
}

// TableNotEmpty fetches at most limit rows from table and fails if none come
// back.
func TableNotEmpty(ctx context.Context, cat catalog.Catalog, table string, limit int) error {
	if limit < 1 {
		return configErrorf(KindTableNotEmpty, "limit must be at least 1, got %d", limit)
	}

	query := fmt.Sprintf("SELECT * FROM %s LIMIT %d", catalog.QuoteTable(cat, table), limit)
	res, err := cat.ExecuteQuery(ctx, query)
	if err != nil {
		return &IOError{Check: KindTableNotEmpty, Table: table, Err: err}
	}

	if res.Len() == 0 {
		return &AssertionError{
			Check:   KindTableNotEmpty,
			Message: fmt.Sprintf("table %s is empty", table),
		}
	}
	return nil
}
