package source

import (
	"context"
	"github.com/cirruslabs/bucketcache/internal/failure"
	"io"
	"strings"
)

// Source is the object storage whose listings and contents are cached.
//
// Implementations return failure.NotFoundf() errors for missing
// containers and objects and failure.Upstream() errors for anything
// that went wrong when talking to the storage.
type Source interface {
	List(ctx context.Context, container string) ([]string, error)
	Open(ctx context.Context, container string, key string) (io.ReadCloser, error)
}

// ValidateContainer rejects container names that can't be used
// as a single path component in the staging directory.
func ValidateContainer(container string) error {
	if container == "" {
		return failure.Validationf("bucket_name is required")
	}

	if strings.ContainsAny(container, `/\`) || container == "." || container == ".." {
		return failure.Validationf("bucket_name %q is not a valid container name", container)
	}

	return nil
}
