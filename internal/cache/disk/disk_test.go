package disk_test

import (
	"context"
	cachepkg "github.com/cirruslabs/bucketcache/internal/cache"
	"github.com/cirruslabs/bucketcache/internal/cache/disk"
	"github.com/stretchr/testify/require"
	"os"
	"strings"
	"testing"
)

func TestSimple(t *testing.T) {
	ctx := context.Background()

	cache, err := disk.New(t.TempDir(), 1*1024*1024)
	require.NoError(t, err)

	// Retrieval of a non-existent key should fail
	_, err = cache.Get(ctx, "test")
	require.ErrorIs(t, err, cachepkg.ErrNotFound)

	has, err := cache.Has(ctx, "test")
	require.NoError(t, err)
	require.False(t, has)

	// Insertion of a non-existent key should succeed
	contentBytes := []byte("Hello, World!")
	require.NoError(t, cache.Set(ctx, "test", contentBytes))

	// Retrieval of an existent key should succeed
	retrievedContentBytes, err := cache.Get(ctx, "test")
	require.NoError(t, err)
	require.Equal(t, contentBytes, retrievedContentBytes)

	has, err = cache.Has(ctx, "test")
	require.NoError(t, err)
	require.True(t, has)

	// Re-insertion of an existent key should succeed
	newContentsBytes := []byte("Bye bye!")
	require.NoError(t, cache.Set(ctx, "test", newContentsBytes))

	// Retrieval of a re-inserted key should yield modified contents
	retrievedContentBytes, err = cache.Get(ctx, "test")
	require.NoError(t, err)
	require.Equal(t, newContentsBytes, retrievedContentBytes)
}

func TestEvict(t *testing.T) {
	ctx := context.Background()

	cache, err := disk.New(t.TempDir(), 5)
	require.NoError(t, err)

	// Eviction shouldn't occur if cache entries fit the budget
	require.NoError(t, cache.Set(ctx, "small1", []byte("ab")))
	require.NoError(t, cache.Set(ctx, "small2", []byte("cde")))

	_, err = cache.Get(ctx, "small1")
	require.NoError(t, err)

	_, err = cache.Get(ctx, "small2")
	require.NoError(t, err)

	// Eviction should occur for oldest entry if the budget is violated
	require.NoError(t, cache.Set(ctx, "small3", []byte("f")))

	_, err = cache.Get(ctx, "small1")
	require.ErrorIs(t, err, cachepkg.ErrNotFound)

	_, err = cache.Get(ctx, "small2")
	require.NoError(t, err)

	_, err = cache.Get(ctx, "small3")
	require.NoError(t, err)

	// Entries larger than the whole budget are rejected
	require.Error(t, cache.Set(ctx, "large", []byte("too large")))
}

func TestSecure(t *testing.T) {
	ctx := context.Background()

	cacheDir := t.TempDir()
	cache, err := disk.New(cacheDir, 1*1024*1024)
	require.NoError(t, err)

	// Ensure that keys never escape the cache directory
	require.NoError(t, cache.Set(ctx, "../../../../../etc/passwd", []byte("doesn't matter")))

	dirEntries, err := os.ReadDir(cacheDir)
	require.NoError(t, err)

	var dirEntryNames []string

	for _, entry := range dirEntries {
		if strings.HasPrefix(entry.Name(), ".") {
			continue
		}

		dirEntryNames = append(dirEntryNames, entry.Name())
	}

	require.Len(t, dirEntryNames, 1)
	require.Len(t, dirEntryNames[0], 64)
}
