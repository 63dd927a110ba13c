package cli

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bq-bridge/internal/domain"
	"bq-bridge/internal/testutil"
)

var bqArgs = []string{"--project", "my-project", "--dataset", "analytics"}

func withArgs(base []string, args ...string) []string {
	out := append([]string{}, base...)
	return append(out, args...)
}

func decodeJSON(t *testing.T, s string) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(s), &out), s)
	return out
}

func TestVersionCmd(t *testing.T) {
	res := runCmd(t, nil, "version")
	require.NoError(t, res.err)
	assert.Equal(t, "bqw version dev (commit: none)\n", res.stdout)

	res = runCmd(t, nil, "version", "-o", "json")
	require.NoError(t, res.err)
	out := decodeJSON(t, res.stdout)
	assert.Equal(t, "dev", out["version"])
}

func TestInvalidOutputFormat(t *testing.T) {
	res := runCmd(t, nil, "version", "-o", "yaml")
	require.Error(t, res.err)
	assert.Contains(t, res.err.Error(), "unsupported output format")
}

func TestCommandsCmd(t *testing.T) {
	t.Run("filter", func(t *testing.T) {
		res := runCmd(t, nil, "commands", "--filter", "INSERT", "-o", "json")
		require.NoError(t, res.err)

		var entries []CommandEntry
		require.NoError(t, json.Unmarshal([]byte(res.stdout), &entries))
		paths := make([]string, 0, len(entries))
		for _, e := range entries {
			paths = append(paths, e.Path)
		}
		assert.Contains(t, paths, "insert")
		assert.Contains(t, paths, "insert-sql")
		assert.NotContains(t, paths, "count")
	})

	t.Run("group with required flags", func(t *testing.T) {
		res := runCmd(t, nil, "commands", "--group", "count", "-o", "json")
		require.NoError(t, res.err)

		var entries []CommandEntry
		require.NoError(t, json.Unmarshal([]byte(res.stdout), &entries))
		require.Len(t, entries, 1)
		assert.Equal(t, "<table>", entries[0].Args)
		require.NotEmpty(t, entries[0].Flags)
		assert.Equal(t, "where", entries[0].Flags[0].Name)
		assert.True(t, entries[0].Flags[0].Required)
	})

	t.Run("table output skips completion", func(t *testing.T) {
		res := runCmd(t, nil, "commands")
		require.NoError(t, res.err)
		assert.True(t, strings.HasPrefix(res.stdout, "PATH"))
		assert.Contains(t, res.stdout, "ensure-table")
		assert.NotContains(t, res.stdout, "completion")
	})
}

func TestCompletionCmd(t *testing.T) {
	res := runCmd(t, nil, "completion", "bash")
	require.NoError(t, res.err)
	assert.Contains(t, res.stdout, "bqw")

	res = runCmd(t, nil, "completion", "tcsh")
	require.Error(t, res.err)
}

func TestInsertSQLCmd(t *testing.T) {
	isolateEnv(t)
	backend := &testutil.MockBackend{}

	res := runCmd(t, backend, withArgs(bqArgs, "insert-sql", "contacts", "--set", "id=5", "--set", "name=Ann")...)
	require.NoError(t, res.err)
	require.Len(t, backend.Execs, 1)
	assert.Equal(t, "INSERT INTO `analytics`.`contacts` (`id`, `name`) VALUES (5, 'Ann')", backend.Execs[0].SQL)
	assert.Contains(t, res.stdout, "done")
	assert.True(t, backend.Closed)
}

func TestUpdateCmd_QueryParams(t *testing.T) {
	isolateEnv(t)
	backend := &testutil.MockBackend{}

	res := runCmd(t, backend, withArgs(bqArgs, "--query-params",
		"update", "contacts", "--where", "id=5", "--set", "note=")...)
	require.NoError(t, res.err)
	require.Len(t, backend.Execs, 1)
	stmt := backend.Execs[0]
	assert.Contains(t, stmt.SQL, "UPDATE `analytics`.`contacts` SET `note` = NULL WHERE `id` = @")
	require.Len(t, stmt.Params, 1)
	assert.Equal(t, int64(5), stmt.Params[0].Value)
}

func TestUpsertCmd(t *testing.T) {
	isolateEnv(t)

	t.Run("inserts when nothing matches", func(t *testing.T) {
		backend := &testutil.MockBackend{}
		res := runCmd(t, backend, withArgs(bqArgs, "upsert", "contacts", "--where", "id=5", "--set", "name=Ann")...)
		require.NoError(t, res.err)
		require.Len(t, backend.Queries, 1)
		require.Len(t, backend.Execs, 1)
		assert.Equal(t, "INSERT INTO `analytics`.`contacts` (`id`, `name`) VALUES (5, 'Ann')", backend.Execs[0].SQL)
	})

	t.Run("updates when a row matches", func(t *testing.T) {
		backend := &testutil.MockBackend{
			QueryFn: func(_ context.Context, _ domain.Statement) (domain.RowIterator, error) {
				return testutil.CountRows(1), nil
			},
		}
		res := runCmd(t, backend, withArgs(bqArgs, "upsert", "contacts", "--where", "id=5", "--set", "name=Ann")...)
		require.NoError(t, res.err)
		require.Len(t, backend.Execs, 1)
		assert.Equal(t, "UPDATE `analytics`.`contacts` SET `name` = 'Ann' WHERE `id` = 5", backend.Execs[0].SQL)
	})

	t.Run("where is required", func(t *testing.T) {
		backend := &testutil.MockBackend{}
		res := runCmd(t, backend, withArgs(bqArgs, "upsert", "contacts", "--set", "name=Ann")...)
		require.Error(t, res.err)
		assert.Empty(t, backend.Queries)
	})
}

func TestCountCmd_JSON(t *testing.T) {
	isolateEnv(t)
	backend := &testutil.MockBackend{
		QueryFn: func(_ context.Context, _ domain.Statement) (domain.RowIterator, error) {
			return testutil.CountRows(3), nil
		},
	}

	res := runCmd(t, backend, withArgs(bqArgs, "-o", "json", "count", "contacts", "--where", "id=5")...)
	require.NoError(t, res.err)
	out := decodeJSON(t, res.stdout)
	assert.InDelta(t, 3, out["count"], 0)
	require.Len(t, backend.Queries, 1)
	assert.Equal(t, "SELECT COUNT(*) AS total FROM `my-project`.`analytics`.`contacts` WHERE `id` = 5", backend.Queries[0].SQL)
}

func TestInsertCmd_Batches(t *testing.T) {
	dir := isolateEnv(t)
	rows := filepath.Join(dir, "rows.jsonl")
	require.NoError(t, os.WriteFile(rows, []byte("{\"id\":1}\n{\"id\":2}\n{\"id\":3}\n{\"id\":4}\n{\"id\":5}\n"), 0o644))
	backend := &testutil.MockBackend{}

	res := runCmd(t, backend, withArgs(bqArgs, "-o", "json", "insert", "contacts", "--rows", rows, "--batch-size", "2")...)
	require.NoError(t, res.err)
	require.Len(t, backend.Inserts, 3)
	assert.Equal(t, "analytics", backend.Inserts[0].Dataset)
	assert.Len(t, backend.Inserts[2].Rows, 1)

	out := decodeJSON(t, res.stdout)
	assert.InDelta(t, 5, out["rows"], 0)
	assert.InDelta(t, 3, out["batches"], 0)
}

func TestInsertCmd_StopsAtRejectedBatch(t *testing.T) {
	dir := isolateEnv(t)
	rows := filepath.Join(dir, "rows.json")
	require.NoError(t, os.WriteFile(rows, []byte(`[{"id":1},{"id":"x"},{"id":3}]`), 0o644))
	backend := &testutil.MockBackend{
		InsertRowsFn: func(_ context.Context, _, _ string, _ domain.InsertBatch) (*domain.InsertResponse, error) {
			return &domain.InsertResponse{FailedRows: []domain.FailedRow{{
				Index:  1,
				Errors: []domain.RowError{{Reason: "invalid", Message: "Cannot convert value to integer"}},
			}}}, nil
		},
	}

	res := runCmd(t, backend, withArgs(bqArgs, "insert", "contacts", "--rows", rows, "--batch-size", "2")...)
	require.Error(t, res.err)
	require.Len(t, backend.Inserts, 1)
	assert.Contains(t, res.stderr, "batch rejected")

	obj := errorObject(res.err)
	assert.Equal(t, "contacts", obj["table"])
	failed, ok := obj["failed_rows"].([]domain.FailedRow)
	require.True(t, ok)
	require.Len(t, failed, 1)
	assert.Equal(t, 1, failed[0].Index)
}

func TestErrorObject(t *testing.T) {
	obj := errorObject(&domain.QueryExecutionError{SQL: "SELECT 1"})
	assert.Equal(t, "SELECT 1", obj["sql"])
	assert.NotEmpty(t, obj["error"])

	obj = errorObject(domain.ErrValidation("bad"))
	assert.Equal(t, map[string]interface{}{"error": "bad"}, obj)
}

func TestConfigErrorsSurface(t *testing.T) {
	isolateEnv(t)
	res := runCmd(t, nil, "count", "contacts", "--where", "id=1")
	require.Error(t, res.err)
	assert.Contains(t, res.err.Error(), "BQ_DATASET_ID is required")
}

// TestLocalSQLiteWorkflow drives every write command against a SQLite file.
func TestLocalSQLiteWorkflow(t *testing.T) {
	dir := isolateEnv(t)
	base := []string{"--backend", "sqlite3", "--dataset", "analytics", "--dsn", filepath.Join(dir, "warehouse.db"), "-o", "json"}

	schema := filepath.Join(dir, "contacts.yaml")
	require.NoError(t, os.WriteFile(schema, []byte(`
fields:
  - {name: id, type: INTEGER, mode: REQUIRED}
  - {name: name, type: STRING}
  - {name: note, type: STRING}
  - {name: inserted_to_datawarehouse, type: BOOLEAN}
`), 0o644))
	rows := filepath.Join(dir, "contacts.jsonl")
	require.NoError(t, os.WriteFile(rows, []byte("{\"id\":1,\"name\":\"Ann\"}\n{\"id\":2,\"name\":\"Bob\"}\n"), 0o644))

	res := runCmd(t, nil, withArgs(base, "ensure-table", "contacts", "--schema", schema)...)
	require.NoError(t, res.err)
	out := decodeJSON(t, res.stdout)
	assert.InDelta(t, 4, out["fields"], 0)

	res = runCmd(t, nil, withArgs(base, "insert", "contacts", "--rows", rows)...)
	require.NoError(t, res.err)

	res = runCmd(t, nil, withArgs(base, "insert-sql", "contacts", "--set", "id=3", "--set", "inserted_to_datawarehouse=true")...)
	require.NoError(t, res.err)

	res = runCmd(t, nil, withArgs(base, "upsert", "contacts", "--where", "id=2", "--set", "name=Bobby")...)
	require.NoError(t, res.err)

	res = runCmd(t, nil, withArgs(base, "upsert", "contacts", "--where", "id=4", "--set", "name=Dee")...)
	require.NoError(t, res.err)

	res = runCmd(t, nil, withArgs(base, "update", "contacts", "--where", "id=1", "--set", "note=")...)
	require.NoError(t, res.err)

	res = runCmd(t, nil, withArgs(base, "count", "contacts", "--where", "name=Bobby")...)
	require.NoError(t, res.err)
	assert.InDelta(t, 1, decodeJSON(t, res.stdout)["count"], 0)

	res = runCmd(t, nil, withArgs(base, "count", "contacts", "--where", "id=4")...)
	require.NoError(t, res.err)
	assert.InDelta(t, 1, decodeJSON(t, res.stdout)["count"], 0)

	res = runCmd(t, nil, withArgs(base, "count", "contacts", "--where", "note=null")...)
	require.NoError(t, res.err)
	assert.InDelta(t, 4, decodeJSON(t, res.stdout)["count"], 0)

	// Recreating drops the rows.
	res = runCmd(t, nil, withArgs(base, "ensure-table", "contacts", "--schema", schema, "--force")...)
	require.NoError(t, res.err)
	res = runCmd(t, nil, withArgs(base, "count", "contacts", "--where", "id=1")...)
	require.NoError(t, res.err)
	assert.InDelta(t, 0, decodeJSON(t, res.stdout)["count"], 0)
}
