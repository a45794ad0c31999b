package s3_test

import (
	"context"
	"github.com/aws/aws-sdk-go-v2/aws"
	s3pkg "github.com/aws/aws-sdk-go-v2/service/s3"
	cachepkg "github.com/cirruslabs/bucketcache/internal/cache"
	"github.com/cirruslabs/bucketcache/internal/cache/s3"
	"github.com/cirruslabs/bucketcache/internal/s3client"
	"github.com/cirruslabs/bucketcache/internal/testutil"
	"github.com/stretchr/testify/require"
	"testing"
)

func TestSimple(t *testing.T) {
	ctx := context.Background()

	client, err := s3client.New(ctx, testutil.S3(t))
	require.NoError(t, err)

	_, err = client.CreateBucket(ctx, &s3pkg.CreateBucketInput{
		Bucket: aws.String("cache"),
	})
	require.NoError(t, err)

	cache := s3.New(client, "cache")

	// Retrieval of a non-existent key should fail
	_, err = cache.Get(ctx, "list-files/docs")
	require.ErrorIs(t, err, cachepkg.ErrNotFound)

	has, err := cache.Has(ctx, "list-files/docs")
	require.NoError(t, err)
	require.False(t, has)

	// Insertion of a non-existent key should succeed
	contentBytes := []byte(`{"files":["a.txt"]}`)
	require.NoError(t, cache.Set(ctx, "list-files/docs", contentBytes))

	// Retrieval of an existent key should succeed
	retrievedContentBytes, err := cache.Get(ctx, "list-files/docs")
	require.NoError(t, err)
	require.Equal(t, contentBytes, retrievedContentBytes)

	has, err = cache.Has(ctx, "list-files/docs")
	require.NoError(t, err)
	require.True(t, has)

	// Re-insertion of an existent key should succeed
	newContentsBytes := []byte(`{"files":[]}`)
	require.NoError(t, cache.Set(ctx, "list-files/docs", newContentsBytes))

	// Retrieval of a re-inserted key should yield modified contents
	retrievedContentBytes, err = cache.Get(ctx, "list-files/docs")
	require.NoError(t, err)
	require.Equal(t, newContentsBytes, retrievedContentBytes)
}
