package source

import (
	"context"
	"errors"
	"fmt"
	"github.com/cirruslabs/bucketcache/internal/failure"
	"github.com/samber/lo"
	"golang.org/x/sync/errgroup"
	"io"
	"os"
	"path/filepath"
	"strings"
)

const fetchConcurrency = 8

// FetchAll downloads every object of the container into stagingDir,
// preserving object keys as relative paths, and returns the local paths
// in listing order.
//
// The first failed download aborts the whole operation. Objects that
// were already staged are left in place, but no partial list is returned.
func FetchAll(ctx context.Context, src Source, container string, stagingDir string) ([]string, error) {
	keys, err := src.List(ctx, container)
	if err != nil {
		return nil, err
	}

	// Directory placeholders carry no contents
	keys = lo.Filter(keys, func(key string, _ int) bool {
		return !strings.HasSuffix(key, "/")
	})

	paths := make([]string, len(keys))

	group, ctx := errgroup.WithContext(ctx)
	group.SetLimit(fetchConcurrency)

	for i, key := range keys {
		group.Go(func() error {
			path, err := stage(ctx, src, container, key, stagingDir)
			if err != nil {
				return err
			}

			paths[i] = path

			return nil
		})
	}

	if err := group.Wait(); err != nil {
		return nil, err
	}

	return paths, nil
}

func stage(ctx context.Context, src Source, container string, key string, stagingDir string) (string, error) {
	relativePath := filepath.FromSlash(key)

	if !filepath.IsLocal(relativePath) {
		return "", failure.Upstream(nil, "object %q in container %q can't be staged locally",
			key, container)
	}

	targetPath := filepath.Join(stagingDir, relativePath)

	if err := os.MkdirAll(filepath.Dir(targetPath), 0755); err != nil && !errors.Is(err, os.ErrExist) {
		return "", fmt.Errorf("failed to create staging directory for %q: %w", key, err)
	}

	objectReader, err := src.Open(ctx, container, key)
	if err != nil {
		return "", err
	}
	defer objectReader.Close()

	// Write to a temporary file first so that a concurrent download-file
	// request never observes a partially written object
	tmpFile, err := os.CreateTemp(filepath.Dir(targetPath), ".staging-*")
	if err != nil {
		return "", fmt.Errorf("failed to create a temporary file for %q: %w", key, err)
	}

	if _, err := io.Copy(tmpFile, objectReader); err != nil {
		_ = tmpFile.Close()
		_ = os.Remove(tmpFile.Name())

		return "", failure.Upstream(err, "failed to download object %q from container %q",
			key, container)
	}

	if err := tmpFile.Close(); err != nil {
		_ = os.Remove(tmpFile.Name())

		return "", fmt.Errorf("failed to close staged object %q: %w", key, err)
	}

	if err := os.Rename(tmpFile.Name(), targetPath); err != nil {
		_ = os.Remove(tmpFile.Name())

		return "", fmt.Errorf("failed to stage object %q: %w", key, err)
	}

	return targetPath, nil
}
