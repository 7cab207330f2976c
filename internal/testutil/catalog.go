package testutil

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/vlad89buzan/dataquality/internal/catalog"
	"github.com/vlad89buzan/dataquality/internal/dataset"
)

// FakeCatalog is a scripted catalog.Catalog for tests.
//
// Query results are matched by substring: the first registered fragment
// contained in the query text wins, in registration order. Unmatched queries
// return ErrNoScript. Every query is recorded.
//
// Thread-safety: All methods are safe for concurrent use via internal mutex.
type FakeCatalog struct {
	mu       sync.Mutex
	queries  []scriptedQuery
	schemas  map[string]catalog.Schema
	failures map[string]error
	executed []string
}

type scriptedQuery struct {
	fragment string
	result   *dataset.Dataset
	err      error
}

// ErrNoScript is returned for queries and tables nothing was registered for.
var ErrNoScript = fmt.Errorf("testutil: no scripted response")

// NewFakeCatalog creates an empty fake catalog.
func NewFakeCatalog() *FakeCatalog {
	return &FakeCatalog{
		schemas:  make(map[string]catalog.Schema),
		failures: make(map[string]error),
	}
}

// OnQuery registers the result for queries containing fragment.
// A nil result is returned as-is, which lets tests model a driver that
// yields no result object.
func (f *FakeCatalog) OnQuery(fragment string, result *dataset.Dataset) *FakeCatalog {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.queries = append(f.queries, scriptedQuery{fragment: fragment, result: result})
	return f
}

// FailQuery registers an error for queries containing fragment.
func (f *FakeCatalog) FailQuery(fragment string, err error) *FakeCatalog {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.queries = append(f.queries, scriptedQuery{fragment: fragment, err: err})
	return f
}

// WithSchema registers the schema returned for table.
func (f *FakeCatalog) WithSchema(table string, schema catalog.Schema) *FakeCatalog {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.schemas[table] = schema
	return f
}

// FailSchema registers an error returned by GetSchema for table.
func (f *FakeCatalog) FailSchema(table string, err error) *FakeCatalog {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failures[table] = err
	return f
}

// ExecuteQuery implements catalog.Catalog.
func (f *FakeCatalog) ExecuteQuery(ctx context.Context, query string) (*dataset.Dataset, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.executed = append(f.executed, query)

	for _, q := range f.queries {
		if strings.Contains(query, q.fragment) {
			if q.err != nil {
				return nil, q.err
			}
			return q.result, nil
		}
	}
	return nil, fmt.Errorf("%w for query %q", ErrNoScript, query)
}

// GetSchema implements catalog.Catalog.
func (f *FakeCatalog) GetSchema(ctx context.Context, table string) (catalog.Schema, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if err, ok := f.failures[table]; ok {
		return nil, err
	}
	schema, ok := f.schemas[table]
	if !ok {
		return nil, fmt.Errorf("%w for table %q", ErrNoScript, table)
	}
	return schema, nil
}

// Executed returns the queries run so far, in order.
func (f *FakeCatalog) Executed() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.executed))
	copy(out, f.executed)
	return out
}
