package local_test

import (
	"context"
	"github.com/cirruslabs/bucketcache/internal/failure"
	"github.com/cirruslabs/bucketcache/internal/source/local"
	"github.com/stretchr/testify/require"
	"io"
	"testing"
)

func TestList(t *testing.T) {
	ctx := context.Background()

	source, err := local.New(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, source.CreateContainer("docs"))
	require.NoError(t, source.Put("docs", "b.txt", []byte("B")))
	require.NoError(t, source.Put("docs", "a.txt", []byte("A")))
	require.NoError(t, source.Put("docs", "nested/c.txt", []byte("C")))

	keys, err := source.List(ctx, "docs")
	require.NoError(t, err)
	require.Equal(t, []string{"a.txt", "b.txt", "nested/c.txt"}, keys)
}

func TestListEmpty(t *testing.T) {
	ctx := context.Background()

	source, err := local.New(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, source.CreateContainer("empty-bucket"))

	keys, err := source.List(ctx, "empty-bucket")
	require.NoError(t, err)
	require.NotNil(t, keys)
	require.Empty(t, keys)
}

func TestListMissing(t *testing.T) {
	ctx := context.Background()

	source, err := local.New(t.TempDir())
	require.NoError(t, err)

	_, err = source.List(ctx, "missing-bucket")
	requireKind(t, failure.KindNotFound, err)
}

func TestOpen(t *testing.T) {
	ctx := context.Background()

	source, err := local.New(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, source.CreateContainer("docs"))
	require.NoError(t, source.Put("docs", "nested/c.txt", []byte("Hello, World!")))

	reader, err := source.Open(ctx, "docs", "nested/c.txt")
	require.NoError(t, err)

	contents, err := io.ReadAll(reader)
	require.NoError(t, err)
	require.NoError(t, reader.Close())
	require.Equal(t, "Hello, World!", string(contents))

	_, err = source.Open(ctx, "docs", "missing.txt")
	requireKind(t, failure.KindNotFound, err)

	_, err = source.Open(ctx, "docs", "../../etc/passwd")
	requireKind(t, failure.KindNotFound, err)

	_, err = source.Open(ctx, "missing-bucket", "a.txt")
	requireKind(t, failure.KindNotFound, err)
}

func TestContainers(t *testing.T) {
	source, err := local.New(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, source.CreateContainer("docs"))
	require.NoError(t, source.CreateContainer("../escape"))

	containers, err := source.Containers()
	require.NoError(t, err)
	require.ElementsMatch(t, []string{"docs", "../escape"}, containers)
}

func requireKind(t *testing.T, expected failure.Kind, err error) {
	t.Helper()

	var failureErr *failure.Error
	require.ErrorAs(t, err, &failureErr)
	require.Equal(t, expected, failureErr.Kind)
}
