package sqlpen

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// seedDatabase creates a database with table t holding three rows.
func seedDatabase(t *testing.T, ws *Workspace, name string) {
	t.Helper()

	_, err := ws.CreateDatabase(name)
	require.NoError(t, err)

	exec := NewExecutor(ws)
	res := exec.Execute(name, "CREATE TABLE t (id INTEGER, name TEXT)")
	require.False(t, res.IsError(), res.Message)
	res = exec.Execute(name, "INSERT INTO t VALUES (1, 'a'); INSERT INTO t VALUES (2, 'b'); INSERT INTO t VALUES (3, 'c')")
	require.False(t, res.IsError(), res.Message)
}

// countRows reads COUNT(*) in a fresh executor call.
func countRows(t *testing.T, ws *Workspace, dbName, tableName string) int64 {
	t.Helper()

	res := NewExecutor(ws).Execute(dbName, "SELECT COUNT(*) FROM "+tableName)
	require.True(t, res.IsQuery(), res.Message)
	require.Len(t, res.Rows, 1)
	n, ok := res.Rows[0][0].(int64)
	require.True(t, ok, "unexpected count type %T", res.Rows[0][0])
	return n
}

func TestExecutorCommandBatch(t *testing.T) {
	t.Parallel()

	ws := newTestWorkspace(t)
	_, err := ws.CreateDatabase("shop")
	require.NoError(t, err)

	exec := NewExecutor(ws)

	res := exec.Execute("shop", "CREATE TABLE t (id INTEGER); INSERT INTO t VALUES (1); INSERT INTO t VALUES (2);")
	require.False(t, res.IsError(), res.Message)
	assert.False(t, res.IsQuery())
	assert.Equal(t, commandConfirmation, res.Message)
	assert.Nil(t, res.Columns)
	assert.Nil(t, res.Rows)

	// Every command's effect is visible to a later call
	assert.EqualValues(t, 2, countRows(t, ws, "shop", "t"))
}

func TestExecutorFirstQueryShortCircuits(t *testing.T) {
	t.Parallel()

	ws := newTestWorkspace(t)
	seedDatabase(t, ws, "shop")

	// The DELETE after the first query-shaped statement must never run
	res := NewExecutor(ws).Execute("shop", "SELECT * FROM t; DELETE FROM t;")
	require.True(t, res.IsQuery(), res.Message)
	assert.Equal(t, []string{"id", "name"}, res.Columns)
	assert.Len(t, res.Rows, 3)

	assert.EqualValues(t, 3, countRows(t, ws, "shop", "t"))
}

func TestExecutorQueryBatchIsNotCommitted(t *testing.T) {
	t.Parallel()

	ws := newTestWorkspace(t)
	seedDatabase(t, ws, "shop")

	// The query sees the uncommitted insert, but the batch transaction
	// is rolled back afterwards.
	res := NewExecutor(ws).Execute("shop", "INSERT INTO t VALUES (4, 'd'); SELECT * FROM t;")
	require.True(t, res.IsQuery(), res.Message)
	assert.Len(t, res.Rows, 4)

	assert.EqualValues(t, 3, countRows(t, ws, "shop", "t"))
}

func TestExecutorQueryRowValues(t *testing.T) {
	t.Parallel()

	ws := newTestWorkspace(t)
	seedDatabase(t, ws, "shop")

	res := NewExecutor(ws).Execute("shop", "SELECT id, name FROM t ORDER BY id")
	require.True(t, res.IsQuery(), res.Message)
	require.Len(t, res.Rows, 3)
	assert.EqualValues(t, 1, res.Rows[0][0])
	assert.Equal(t, "a", res.Rows[0][1])
	assert.EqualValues(t, 3, res.Rows[2][0])
	assert.Equal(t, "c", res.Rows[2][1])
}

func TestExecutorMalformedStatementRollsBackBatch(t *testing.T) {
	t.Parallel()

	ws := newTestWorkspace(t)
	seedDatabase(t, ws, "shop")

	res := NewExecutor(ws).Execute("shop", "INSERT INTO t VALUES (4, 'd'); BOGUS STATEMENT;")
	require.True(t, res.IsError())
	assert.True(t, strings.HasPrefix(res.Message, sqlErrorPrefix), res.Message)
	assert.False(t, res.IsQuery())

	// The insert before the failing statement must not persist
	assert.EqualValues(t, 3, countRows(t, ws, "shop", "t"))
}

func TestExecutorMalformedQuery(t *testing.T) {
	t.Parallel()

	ws := newTestWorkspace(t)
	seedDatabase(t, ws, "shop")

	res := NewExecutor(ws).Execute("shop", "SELECT * FROM missing_table")
	require.True(t, res.IsError())
	assert.True(t, strings.HasPrefix(res.Message, sqlErrorPrefix), res.Message)
}

func TestExecutorConstraintViolation(t *testing.T) {
	t.Parallel()

	ws := newTestWorkspace(t)
	_, err := ws.CreateDatabase("shop")
	require.NoError(t, err)

	exec := NewExecutor(ws)
	res := exec.Execute("shop", "CREATE TABLE u (id INTEGER PRIMARY KEY); INSERT INTO u VALUES (1);")
	require.False(t, res.IsError(), res.Message)

	res = exec.Execute("shop", "INSERT INTO u VALUES (1)")
	require.True(t, res.IsError())
	assert.True(t, strings.HasPrefix(res.Message, sqlErrorPrefix), res.Message)

	assert.EqualValues(t, 1, countRows(t, ws, "shop", "u"))
}

func TestExecutorUnknownDatabase(t *testing.T) {
	t.Parallel()

	ws := newTestWorkspace(t)

	res := NewExecutor(ws).Execute("missing", "SELECT 1")
	require.True(t, res.IsError())
	assert.ErrorIs(t, res.Err, ErrDatabaseNotFound)
	assert.True(t, strings.HasPrefix(res.Message, genericErrorPrefix), res.Message)

	// No file is created as a side effect
	assert.False(t, ws.Exists("missing"))
}

func TestExecutorEmptyInput(t *testing.T) {
	t.Parallel()

	ws := newTestWorkspace(t)
	_, err := ws.CreateDatabase("shop")
	require.NoError(t, err)

	res := NewExecutor(ws).Execute("shop", "  ;  ; ")
	require.True(t, res.IsError())
	assert.ErrorIs(t, res.Err, ErrNoStatements)
}

func TestExecutorWithClauseIsQueryShaped(t *testing.T) {
	t.Parallel()

	ws := newTestWorkspace(t)
	seedDatabase(t, ws, "shop")

	res := NewExecutor(ws).Execute("shop", "WITH big AS (SELECT id FROM t WHERE id > 1) SELECT COUNT(*) FROM big")
	require.True(t, res.IsQuery(), res.Message)
	require.Len(t, res.Rows, 1)
	assert.EqualValues(t, 2, res.Rows[0][0])
}
