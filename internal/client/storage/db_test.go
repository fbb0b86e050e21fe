package storage

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenDatabase_CreatesFileAndSchema(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "state", "bililive.db")

	db, err := OpenDatabase(ctx, path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	_, err = db.ExecContext(ctx, `INSERT INTO metadata(key, value, updated_at) VALUES ('k', x'01', 1)`)
	require.NoError(t, err)

	var n int
	require.NoError(t, db.QueryRowContext(ctx, `SELECT COUNT(*) FROM metadata`).Scan(&n))
	assert.Equal(t, 1, n)
}

func TestOpenDatabase_MigrationsAreIdempotent(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "bililive.db")

	db, err := OpenDatabase(ctx, path)
	require.NoError(t, err)
	require.NoError(t, db.Close())

	db, err = OpenDatabase(ctx, path)
	require.NoError(t, err)
	require.NoError(t, RunMigrations(ctx, db))
	require.NoError(t, db.Close())
}

func TestOpenDatabase_InMemory(t *testing.T) {
	db, err := OpenDatabase(context.Background(), ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	var name string
	require.NoError(t, db.QueryRow(`SELECT name FROM sqlite_master WHERE type='table' AND name='metadata'`).Scan(&name))
	assert.Equal(t, "metadata", name)
}
