package cli

import (
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const extractSuite = `
name: extracts
datasets:
  orders:
    file: orders.csv
    types: {id: int}
checks:
  - id: TC-1
    name: ids unique
    type: duplicates
    dataset: orders
    columns: [id]
  - id: TC-2
    type: not_null
    dataset: orders
`

func TestRunMissingArgs(t *testing.T) {
	_, err := execute(t, NewRunCommand(&RootOptions{Format: "text"}))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "accepts 1 arg")
}

func TestRunSuitePathNotFound(t *testing.T) {
	out, err := execute(t, NewRunCommand(&RootOptions{Format: "text"}), "/nonexistent/suites")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, out, "suite path not found")
}

func TestRunFileSuitePasses(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "orders.csv", "id,code\n1,A\n2,B\n")
	path := writeFile(t, dir, "extracts.yaml", extractSuite)

	out, err := execute(t, NewRunCommand(&RootOptions{Format: "text"}), path)
	require.NoError(t, err)
	assert.Contains(t, out, "Suite: extracts")
	assert.Contains(t, out, "[PASS] TC-1 ids unique (duplicates)")
	assert.Contains(t, out, "[PASS] TC-2 (not_null)")
	assert.Contains(t, out, "✓ All checks passed")
}

func TestRunFileSuiteFails(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "orders.csv", "id,code\n1,A\n1,\n")
	path := writeFile(t, dir, "extracts.yaml", extractSuite)

	out, err := execute(t, NewRunCommand(&RootOptions{Format: "text"}), path)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, err.Error(), "2 check(s) failed, 0 errored")
	assert.Contains(t, out, "[FAIL] TC-1 ids unique (duplicates)")
	assert.Contains(t, out, "null values found in column(s): code")
	assert.NotContains(t, out, "All checks passed")
}

func TestRunJSON(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "orders.csv", "id,code\n1,A\n1,\n")
	path := writeFile(t, dir, "extracts.yaml", extractSuite)

	out, err := execute(t, NewRunCommand(&RootOptions{Format: "json"}), path)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	var resp struct {
		Status string    `json:"status"`
		Data   RunOutput `json:"data"`
		Error  *CLIError `json:"error"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "error", resp.Status)
	require.NotNil(t, resp.Error)
	assert.Equal(t, ErrCodeChecksFailed, resp.Error.Code)
	assert.Equal(t, RunSummary{Suites: 1, Total: 2, Failed: 2}, resp.Data.Summary)
	require.Len(t, resp.Data.Results, 1)
	assert.NotEmpty(t, resp.Data.Results[0].RunID)
	assert.Equal(t, "TC-1", resp.Data.Results[0].Checks[0].ID)
}

func TestRunFilter(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "orders.csv", "id,code\n1,A\n1,\n")
	path := writeFile(t, dir, "extracts.yaml", extractSuite)

	out, err := execute(t, NewRunCommand(&RootOptions{Format: "text"}), path, "--filter", "TC-2")
	require.Error(t, err)
	assert.NotContains(t, out, "TC-1")
	assert.Contains(t, out, "[FAIL] TC-2 (not_null)")

	out, err = execute(t, NewRunCommand(&RootOptions{Format: "text"}), path, "--filter", "nothing-*")
	require.NoError(t, err)
	assert.Contains(t, out, "No checks to run.")
}

func TestRunInvalidSuite(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "bad.yaml", "name: bad\nchecks:\n  - type: duplicates\n")

	out, err := execute(t, NewRunCommand(&RootOptions{Format: "json"}), path)
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))

	var resp CLIResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	require.NotNil(t, resp.Error)
	assert.Equal(t, ErrCodeInvalidSuite, resp.Error.Code)
	assert.Contains(t, resp.Error.Message, "dataset is required")
}

func TestRunAgainstSQLiteEnvironment(t *testing.T) {
	dir := t.TempDir()
	cfg := sqliteEnv(t, dir)
	path := writeFile(t, dir, "suites/warehouse.yaml", `
name: warehouse
datasets:
  orders:
    query: SELECT id, code, qty FROM {{.ORDERS}}
checks:
  - id: exists
    type: table_exists
    table: ORDERS
  - id: unique
    type: duplicates
    dataset: orders
    columns: [id]
  - id: populated
    type: table_not_empty
    table: ORDERS
  - id: qty
    type: column_validity
    dataset: orders
    rules:
      - column: qty
        min: 1
        predicate: positive
`)

	out, err := execute(t, NewRunCommand(&RootOptions{Format: "text"}),
		filepath.Dir(path),
		"--env", "test",
		"--config", cfg,
		"--env-file", filepath.Join(dir, "missing.env"),
	)
	require.NoError(t, err, out)
	assert.Contains(t, out, "Suite: warehouse")
	assert.Contains(t, out, "[PASS] populated (table_not_empty)")
	assert.Contains(t, out, "✓ All checks passed")
}

func TestRunUnknownEnvironment(t *testing.T) {
	dir := t.TempDir()
	cfg := sqliteEnv(t, dir)
	writeFile(t, dir, "orders.csv", "id,code\n1,A\n")
	path := writeFile(t, dir, "extracts.yaml", extractSuite)

	out, err := execute(t, NewRunCommand(&RootOptions{Format: "text"}), path, "--env", "prod", "--config", cfg)
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, out, `environment "prod" not defined`)
}

func TestRunMissingConfig(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "orders.csv", "id,code\n1,A\n")
	path := writeFile(t, dir, "extracts.yaml", extractSuite)

	out, err := execute(t, NewRunCommand(&RootOptions{Format: "text"}), path,
		"--env", "dev", "--config", filepath.Join(dir, "nope.yaml"))
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, out, "failed to connect")
}
