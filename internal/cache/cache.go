package cache

import (
	"context"
	"errors"
)

var ErrNotFound = errors.New("cache entry not found")

// Cache stores encoded operation results keyed by cache key.
//
// Entries are never mutated in place: a Set for an existing key
// replaces the whole value, so readers either see the old bytes
// or the new bytes, never a mix of both.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Has(ctx context.Context, key string) (bool, error)
}
