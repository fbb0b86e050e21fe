// Package metadata is a small key/value table in the local SQLite database.
// The session persistence layer keeps the sealed session blob and its
// encryption parameters here.
package metadata

import (
	"context"
	"time"
)

// Repository is a key/value store. Get returns (nil, nil) for a missing key.
type Repository interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	UpdatedAt(ctx context.Context, key string) (time.Time, error)
	Delete(ctx context.Context, keys ...string) error
}
