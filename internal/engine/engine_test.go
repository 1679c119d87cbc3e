package engine

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInMemoryEngineHasNoFile(t *testing.T) {
	e, err := New()
	require.NoError(t, err)

	out := e.Execute(`CREATE TABLE t (id INT PRIMARY KEY, name VARCHAR)`)
	assert.Equal(t, "Query executed successfully", out)

	out = e.Execute(`INSERT INTO t VALUES (1, 'a')`)
	assert.Contains(t, out, "| 1  | a    |")
}

func TestMissingFileStartsEmptyAndIsCreatedOnFirstMutation(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "quill.db")

	e, err := New(WithFile(path))
	require.NoError(t, err)

	out := e.Execute(`CREATE TABLE t (id INT PRIMARY KEY)`)
	assert.Equal(t, "Query executed successfully", out)
	assert.FileExists(t, path)
}

func TestPersistenceRoundTripsAcrossEngineInstances(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "quill.db")

	e1, err := New(WithFile(path))
	require.NoError(t, err)
	require.NotContains(t, e1.Execute(`CREATE TABLE users (id INT PRIMARY KEY, name VARCHAR)`), "Error")
	require.NotContains(t, e1.Execute(`INSERT INTO users VALUES (1, 'Ann')`), "Error")

	e2, err := New(WithFile(path))
	require.NoError(t, err)
	out := e2.Execute(`SELECT name FROM users WHERE id = 1`)
	assert.Contains(t, out, "Ann")
}

func TestNonMutatingStatementDoesNotTouchTheFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "quill.db")

	e, err := New(WithFile(path))
	require.NoError(t, err)
	require.NotContains(t, e.Execute(`CREATE TABLE t (id INT PRIMARY KEY)`), "Error")

	before, err := os.ReadFile(path)
	require.NoError(t, err)

	out := e.Execute(`SELECT * FROM t`)
	assert.Contains(t, out, "No rows")

	after, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestSyntaxErrorIsFormattedUniformly(t *testing.T) {
	e, err := New()
	require.NoError(t, err)
	out := e.Execute(`SELECT FROM`)
	assert.True(t, strings.HasPrefix(out, "Error: "))
}

func TestEvalErrorIsFormattedUniformly(t *testing.T) {
	e, err := New()
	require.NoError(t, err)
	out := e.Execute(`SELECT * FROM ghost`)
	assert.True(t, strings.HasPrefix(out, "Error: "))
}

func TestExecuteContextSurfacesCancellationOnMutatingStatement(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "quill.db")

	e, err := New(WithFile(path))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	out := e.ExecuteContext(ctx, `CREATE TABLE t (id INT PRIMARY KEY)`)
	assert.True(t, strings.HasPrefix(out, "Error: "))
}

func TestWithOrderIsHonoredForNewDatabases(t *testing.T) {
	e, err := New(WithOrder(4))
	require.NoError(t, err)
	assert.Equal(t, 4, e.order)
}
