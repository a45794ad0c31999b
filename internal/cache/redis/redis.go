package redis

import (
	"context"
	"errors"
	"fmt"
	cachepkg "github.com/cirruslabs/bucketcache/internal/cache"
	"github.com/redis/go-redis/v9"
)

// Redis shares entries between several bucketcache replicas.
type Redis struct {
	client *redis.Client
}

func New(client *redis.Client) *Redis {
	return &Redis{
		client: client,
	}
}

func (r *Redis) Get(ctx context.Context, key string) ([]byte, error) {
	value, err := r.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, cachepkg.ErrNotFound
		}

		return nil, fmt.Errorf("failed to retrieve cache entry %q: %w", key, err)
	}

	return value, nil
}

func (r *Redis) Set(ctx context.Context, key string, value []byte) error {
	// Entries never expire
	if err := r.client.Set(ctx, key, value, 0).Err(); err != nil {
		return fmt.Errorf("failed to store cache entry %q: %w", key, err)
	}

	return nil
}

func (r *Redis) Has(ctx context.Context, key string) (bool, error) {
	count, err := r.client.Exists(ctx, key).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check cache entry %q: %w", key, err)
	}

	return count > 0, nil
}
