package dq

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vlad89buzan/dataquality/internal/dataset"
	"github.com/vlad89buzan/dataquality/internal/testutil"
)

var oneCol = []dataset.Field{testutil.Col("n", dataset.Int)}

func TestTableExists(t *testing.T) {
	ctx := context.Background()

	t.Run("empty result still exists", func(t *testing.T) {
		cat := testutil.NewFakeCatalog().OnQuery("proj.ds.orders", testutil.Table(t, oneCol))

		require.NoError(t, TableExists(ctx, cat, "proj.ds.orders"))
		assert.Equal(t, []string{"SELECT 1 FROM `proj.ds.orders` LIMIT 1"}, cat.Executed())
	})

	t.Run("probe error", func(t *testing.T) {
		boom := errors.New("404 not found")
		cat := testutil.NewFakeCatalog().FailQuery("orders", boom)

		err := TableExists(ctx, cat, "proj.ds.orders")
		require.Error(t, err)
		assert.True(t, IsAssertionError(err))
		assert.False(t, IsIOError(err))
		assert.ErrorIs(t, err, boom)
		assert.Contains(t, err.Error(), "table proj.ds.orders does not exist")
	})

	t.Run("no result object", func(t *testing.T) {
		cat := testutil.NewFakeCatalog().OnQuery("orders", nil)

		err := TableExists(ctx, cat, "orders")
		require.Error(t, err)
		assert.True(t, IsAssertionError(err))
		assert.ErrorIs(t, err, errNoResult)
	})

	t.Run("cancelled context", func(t *testing.T) {
		cancelled, cancel := context.WithCancel(ctx)
		cancel()
		cat := testutil.NewFakeCatalog().OnQuery("orders", testutil.Table(t, oneCol))

		err := TableExists(cancelled, cat, "orders")
		require.Error(t, err)
		assert.True(t, IsIOError(err))
		assert.False(t, IsAssertionError(err))
		assert.ErrorIs(t, err, context.Canceled)
		assert.Empty(t, cat.Executed())
	})

	t.Run("cancelled during probe", func(t *testing.T) {
		cancelled, cancel := context.WithCancel(ctx)
		cat := cancellingCatalog{FakeCatalog: testutil.NewFakeCatalog(), cancel: cancel}

		err := TableExists(cancelled, cat, "orders")
		require.Error(t, err)
		assert.True(t, IsIOError(err))
		assert.NotContains(t, err.Error(), "does not exist")
	})
}

// cancellingCatalog cancels the caller's context mid-query.
type cancellingCatalog struct {
	*testutil.FakeCatalog
	cancel context.CancelFunc
}

func (c cancellingCatalog) ExecuteQuery(ctx context.Context, query string) (*dataset.Dataset, error) {
	c.cancel()
	return nil, errors.New("query interrupted")
}

func TestTableNotEmpty(t *testing.T) {
	ctx := context.Background()

	t.Run("rows present", func(t *testing.T) {
		cat := testutil.NewFakeCatalog().OnQuery("orders", testutil.Table(t, oneCol, []any{1}))

		require.NoError(t, TableNotEmpty(ctx, cat, "orders", 5))
		assert.Equal(t, []string{"SELECT * FROM `orders` LIMIT 5"}, cat.Executed())
	})

	t.Run("empty table", func(t *testing.T) {
		cat := testutil.NewFakeCatalog().OnQuery("orders", testutil.Table(t, oneCol))

		err := TableNotEmpty(ctx, cat, "orders", 1)
		require.Error(t, err)
		assert.True(t, IsAssertionError(err))
		assert.Contains(t, err.Error(), "table orders is empty")
	})

	t.Run("query error", func(t *testing.T) {
		boom := errors.New("permission denied")
		cat := testutil.NewFakeCatalog().FailQuery("orders", boom)

		err := TableNotEmpty(ctx, cat, "orders", 1)
		require.Error(t, err)
		assert.True(t, IsIOError(err))
		assert.False(t, IsAssertionError(err))
		assert.ErrorIs(t, err, boom)
	})

	t.Run("invalid limit", func(t *testing.T) {
		cat := testutil.NewFakeCatalog()

		err := TableNotEmpty(ctx, cat, "orders", 0)
		require.Error(t, err)
		assert.True(t, IsConfigError(err))
		assert.Empty(t, cat.Executed())
	})
}

type quotingCatalog struct {
	*testutil.FakeCatalog
}

func (quotingCatalog) QuoteTable(table string) string {
	return `"` + table + `"`
}

func TestTableExists_UsesCatalogQuoting(t *testing.T) {
	fake := testutil.NewFakeCatalog().OnQuery("orders", testutil.Table(t, oneCol))

	require.NoError(t, TableExists(context.Background(), quotingCatalog{fake}, "orders"))
	assert.Equal(t, []string{`SELECT 1 FROM "orders" LIMIT 1`}, fake.Executed())
}
