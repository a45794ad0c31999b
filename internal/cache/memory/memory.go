package memory

import (
	"bytes"
	"context"
	cachepkg "github.com/cirruslabs/bucketcache/internal/cache"
	"github.com/puzpuzpuz/xsync/v3"
)

// Memory keeps entries for the lifetime of the process.
type Memory struct {
	entries *xsync.MapOf[string, []byte]
}

func New() *Memory {
	return &Memory{
		entries: xsync.NewMapOf[string, []byte](),
	}
}

func (memory *Memory) Get(_ context.Context, key string) ([]byte, error) {
	value, ok := memory.entries.Load(key)
	if !ok {
		return nil, cachepkg.ErrNotFound
	}

	// Callers are free to modify the returned slice
	return bytes.Clone(value), nil
}

func (memory *Memory) Set(_ context.Context, key string, value []byte) error {
	memory.entries.Store(key, bytes.Clone(value))

	return nil
}

func (memory *Memory) Has(_ context.Context, key string) (bool, error) {
	_, ok := memory.entries.Load(key)

	return ok, nil
}

func (memory *Memory) Len() int {
	return memory.entries.Size()
}
