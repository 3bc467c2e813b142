package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/felixgeelhaar/flightwatch/internal/shared/infrastructure/database"
)

func openTestConnection(t *testing.T) database.Connection {
	t.Helper()
	conn, err := NewConnection(context.Background(), database.Config{
		SQLitePath: filepath.Join(t.TempDir(), "test.db"),
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func TestNewConnection(t *testing.T) {
	conn := openTestConnection(t)

	assert.NoError(t, conn.Ping(context.Background()))
	assert.Equal(t, database.DriverSQLite, conn.Driver())
}

func TestNewConnection_ViaFactory(t *testing.T) {
	conn, err := database.NewConnection(context.Background(), database.Config{
		Driver:     database.DriverSQLite,
		SQLitePath: filepath.Join(t.TempDir(), "factory.db"),
	})
	require.NoError(t, err)
	defer conn.Close()

	assert.Equal(t, database.DriverSQLite, conn.Driver())
}

func TestNewConnection_RejectsUnsafePath(t *testing.T) {
	_, err := NewConnection(context.Background(), database.Config{
		SQLitePath: filepath.Join(t.TempDir(), "data.db;rm -rf"),
	})
	assert.ErrorContains(t, err, "invalid SQLite path")
}

func TestUnitOfWork_CommitAndRollback(t *testing.T) {
	ctx := context.Background()
	conn := openTestConnection(t)
	_, err := conn.Exec(ctx, `CREATE TABLE airports (code TEXT PRIMARY KEY, name TEXT)`)
	require.NoError(t, err)

	uow := database.NewUnitOfWork(conn)

	txCtx, err := uow.Begin(ctx)
	require.NoError(t, err)
	_, err = database.ExecutorFromContext(txCtx, conn).Exec(txCtx, `INSERT INTO airports VALUES (?, ?)`, "KPAO", "Palo Alto")
	require.NoError(t, err)

	// A nested unit joins the outer transaction and does not commit it.
	nestedCtx, err := uow.Begin(txCtx)
	require.NoError(t, err)
	require.NoError(t, uow.Commit(nestedCtx))
	require.NoError(t, uow.Commit(txCtx))

	txCtx, err = uow.Begin(ctx)
	require.NoError(t, err)
	_, err = database.ExecutorFromContext(txCtx, conn).Exec(txCtx, `INSERT INTO airports VALUES (?, ?)`, "KSQL", "San Carlos")
	require.NoError(t, err)
	require.NoError(t, uow.Rollback(txCtx))

	var count int
	require.NoError(t, conn.QueryRow(ctx, `SELECT COUNT(*) FROM airports`).Scan(&count))
	assert.Equal(t, 1, count)
}

func TestIsNoRows(t *testing.T) {
	ctx := context.Background()
	conn := openTestConnection(t)
	_, err := conn.Exec(ctx, `CREATE TABLE airports (code TEXT PRIMARY KEY)`)
	require.NoError(t, err)

	var code string
	err = conn.QueryRow(ctx, `SELECT code FROM airports WHERE code = ?`, "KXXX").Scan(&code)

	assert.True(t, database.IsNoRows(err))
	assert.False(t, database.IsNoRows(nil))
}
