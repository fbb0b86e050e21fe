package metadata

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/bililive/internal/dbx"
)

const (
	queryGet       = `SELECT value FROM metadata WHERE key = ?`
	queryUpdatedAt = `SELECT updated_at FROM metadata WHERE key = ?`
	queryUpsert    = `INSERT INTO metadata (key, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`
)

// SQLiteRepository works on either the database or an open transaction.
type SQLiteRepository struct {
	db  dbx.DBTX
	now func() time.Time
}

func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db, now: time.Now}
}

func (r *SQLiteRepository) Get(ctx context.Context, key string) ([]byte, error) {
	var value []byte
	switch err := r.db.QueryRowContext(ctx, queryGet, key).Scan(&value); {
	case errors.Is(err, sql.ErrNoRows):
		return nil, nil
	case err != nil:
		return nil, fmt.Errorf("metadata get %q: %w", key, err)
	}
	return value, nil
}

// Set upserts key and stamps it with the current time.
func (r *SQLiteRepository) Set(ctx context.Context, key string, value []byte) error {
	if _, err := r.db.ExecContext(ctx, queryUpsert, key, value, r.now().UnixMilli()); err != nil {
		return fmt.Errorf("metadata set %q: %w", key, err)
	}
	return nil
}

// UpdatedAt returns the zero time for a missing key.
func (r *SQLiteRepository) UpdatedAt(ctx context.Context, key string) (time.Time, error) {
	var ms int64
	switch err := r.db.QueryRowContext(ctx, queryUpdatedAt, key).Scan(&ms); {
	case errors.Is(err, sql.ErrNoRows):
		return time.Time{}, nil
	case err != nil:
		return time.Time{}, fmt.Errorf("metadata updated_at %q: %w", key, err)
	}
	return time.UnixMilli(ms), nil
}

// Delete removes keys; missing keys are not an error.
func (r *SQLiteRepository) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}

	args := make([]any, len(keys))
	for i, k := range keys {
		args[i] = k
	}
	in := strings.TrimSuffix(strings.Repeat("?,", len(keys)), ",")

	if _, err := r.db.ExecContext(ctx, `DELETE FROM metadata WHERE key IN (`+in+`)`, args...); err != nil {
		return fmt.Errorf("metadata delete %q: %w", keys, err)
	}
	return nil
}
