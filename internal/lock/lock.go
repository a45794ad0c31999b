package lock

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"github.com/redis/go-redis/v9"
	"time"
)

const keyPrefix = "lock:"

const unlockScript = `
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
else
	return 0
end
`

type Lock interface {
	Unlock(ctx context.Context) error
}

// Locker provides mutual exclusion between bucketcache replicas
// that populate the same shared cache.
type Locker interface {
	// TryLock returns false without an error when the lock
	// is currently held by someone else.
	TryLock(ctx context.Context, key string) (Lock, bool, error)
}

type Redis struct {
	client   *redis.Client
	ttl      time.Duration
	newToken func() (string, error)
}

func NewRedis(client *redis.Client, ttl time.Duration) *Redis {
	return &Redis{
		client:   client,
		ttl:      ttl,
		newToken: newToken,
	}
}

func (r *Redis) TryLock(ctx context.Context, key string) (Lock, bool, error) {
	token, err := r.newToken()
	if err != nil {
		return nil, false, fmt.Errorf("failed to generate lock token: %w", err)
	}

	ok, err := r.client.SetNX(ctx, keyPrefix+key, token, r.ttl).Result()
	if err != nil {
		return nil, false, fmt.Errorf("failed to acquire lock %q: %w", key, err)
	}

	if !ok {
		return nil, false, nil
	}

	return &RedisLock{
		client: r.client,
		key:    keyPrefix + key,
		token:  token,
	}, true, nil
}

type RedisLock struct {
	client *redis.Client
	key    string
	token  string
}

// Unlock releases the lock only if it's still ours, it might have
// expired and been acquired by another replica in the meantime.
func (l *RedisLock) Unlock(ctx context.Context) error {
	if err := l.client.Eval(ctx, unlockScript, []string{l.key}, l.token).Err(); err != nil {
		return fmt.Errorf("failed to release lock %q: %w", l.key, err)
	}

	return nil
}

func newToken() (string, error) {
	buf := make([]byte, 16)

	if _, err := rand.Read(buf); err != nil {
		return "", err
	}

	return hex.EncodeToString(buf), nil
}
