package noop

import (
	"context"
	cachepkg "github.com/cirruslabs/bucketcache/internal/cache"
)

type NoOp struct{}

func New() *NoOp {
	return &NoOp{}
}

func (noop *NoOp) Get(_ context.Context, _ string) ([]byte, error) {
	return nil, cachepkg.ErrNotFound
}

func (noop *NoOp) Set(_ context.Context, _ string, _ []byte) error {
	return nil
}

func (noop *NoOp) Has(_ context.Context, _ string) (bool, error) {
	return false, nil
}
