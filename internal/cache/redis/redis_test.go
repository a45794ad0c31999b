package redis_test

import (
	"context"
	"errors"
	cachepkg "github.com/cirruslabs/bucketcache/internal/cache"
	redispkg "github.com/cirruslabs/bucketcache/internal/cache/redis"
	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/require"
	"testing"
)

func TestGet(t *testing.T) {
	ctx := context.Background()
	client, mock := redismock.NewClientMock()

	cache := redispkg.New(client)

	mock.ExpectGet("list-files/docs").SetVal(`{"files":["a.txt"]}`)
	mock.ExpectGet("list-files/missing").RedisNil()
	mock.ExpectGet("list-files/broken").SetErr(errors.New("connection reset"))

	value, err := cache.Get(ctx, "list-files/docs")
	require.NoError(t, err)
	require.Equal(t, []byte(`{"files":["a.txt"]}`), value)

	_, err = cache.Get(ctx, "list-files/missing")
	require.ErrorIs(t, err, cachepkg.ErrNotFound)

	_, err = cache.Get(ctx, "list-files/broken")
	require.Error(t, err)
	require.NotErrorIs(t, err, cachepkg.ErrNotFound)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSet(t *testing.T) {
	ctx := context.Background()
	client, mock := redismock.NewClientMock()

	cache := redispkg.New(client)

	value := []byte(`{"files":[]}`)

	mock.ExpectSet("list-files/empty", value, 0).SetVal("OK")

	require.NoError(t, cache.Set(ctx, "list-files/empty", value))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestHas(t *testing.T) {
	ctx := context.Background()
	client, mock := redismock.NewClientMock()

	cache := redispkg.New(client)

	mock.ExpectExists("list-files/docs").SetVal(1)
	mock.ExpectExists("list-files/missing").SetVal(0)

	has, err := cache.Has(ctx, "list-files/docs")
	require.NoError(t, err)
	require.True(t, has)

	has, err = cache.Has(ctx, "list-files/missing")
	require.NoError(t, err)
	require.False(t, has)

	require.NoError(t, mock.ExpectationsWereMet())
}
