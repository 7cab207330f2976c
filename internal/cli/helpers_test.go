package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"

	"github.com/vlad89buzan/dataquality/internal/catalog/sqlcatalog"
)

// execute runs cmd with args and returns what it wrote to stdout.
func execute(t *testing.T, cmd *cobra.Command, args ...string) (string, error) {
	t.Helper()
	out := &bytes.Buffer{}
	cmd.SetOut(out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

// sqliteEnv creates a seeded sqlite warehouse and an environment config
// pointing at it through ${DQ_TEST_DSN}. It returns the config path.
func sqliteEnv(t *testing.T, dir string) string {
	t.Helper()

	dbPath := filepath.Join(dir, "warehouse.db")
	c, err := sqlcatalog.Open("sqlite", dbPath)
	require.NoError(t, err)
	_, err = c.DB().Exec(`
		CREATE TABLE orders (id INTEGER NOT NULL, code TEXT, qty INT);
		INSERT INTO orders VALUES (1, 'A', 5), (2, 'B', 7);
	`)
	require.NoError(t, err)
	require.NoError(t, c.Close())

	t.Setenv("DQ_TEST_DSN", dbPath)
	return writeFile(t, dir, "env_config.yaml", `
environments:
  test:
    warehouse: sqlite
    dsn: ${DQ_TEST_DSN}
    tables:
      ORDERS: orders
`)
}
