package local

import (
	"context"
	"errors"
	"fmt"
	"github.com/cirruslabs/bucketcache/internal/failure"
	"github.com/cirruslabs/bucketcache/internal/source/local/percentencoding"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// Local serves containers from sub-directories of a single directory,
// which is handy for development and tests.
type Local struct {
	dir string
}

func New(dir string) (*Local, error) {
	// Pre-create the root directory if not created yet
	if err := os.MkdirAll(dir, 0755); err != nil && !errors.Is(err, os.ErrExist) {
		return nil, err
	}

	return &Local{
		dir: dir,
	}, nil
}

func (local *Local) List(_ context.Context, container string) ([]string, error) {
	root := local.containerPath(container)

	if err := local.checkContainer(container); err != nil {
		return nil, err
	}

	keys := []string{}

	err := filepath.WalkDir(root, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		if !entry.Type().IsRegular() || strings.HasPrefix(entry.Name(), ".") {
			return nil
		}

		relativePath, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}

		keys = append(keys, filepath.ToSlash(relativePath))

		return nil
	})
	if err != nil {
		return nil, convertErr(err, "failed to list objects in container %q", container)
	}

	return keys, nil
}

func (local *Local) Open(_ context.Context, container string, key string) (io.ReadCloser, error) {
	relativePath := filepath.FromSlash(key)

	if !filepath.IsLocal(relativePath) {
		return nil, failure.NotFoundf("object %q not found in container %q", key, container)
	}

	if err := local.checkContainer(container); err != nil {
		return nil, err
	}

	file, err := os.Open(filepath.Join(local.containerPath(container), relativePath))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, failure.NotFoundf("object %q not found in container %q", key, container)
		}

		return nil, convertErr(err, "failed to open object %q in container %q", key, container)
	}

	return file, nil
}

// CreateContainer makes an empty container, succeeding if it already exists.
func (local *Local) CreateContainer(container string) error {
	return os.MkdirAll(local.containerPath(container), 0755)
}

func (local *Local) Put(container string, key string, data []byte) error {
	relativePath := filepath.FromSlash(key)

	if !filepath.IsLocal(relativePath) {
		return fmt.Errorf("object key %q escapes the container", key)
	}

	if err := local.checkContainer(container); err != nil {
		return err
	}

	path := filepath.Join(local.containerPath(container), relativePath)

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}

	return os.WriteFile(path, data, 0600)
}

// Containers returns the names of all containers.
func (local *Local) Containers() ([]string, error) {
	dirEntries, err := os.ReadDir(local.dir)
	if err != nil {
		return nil, err
	}

	var containers []string

	for _, dirEntry := range dirEntries {
		if !dirEntry.IsDir() {
			continue
		}

		container, err := percentencoding.Decode(dirEntry.Name())
		if err != nil {
			// Not created by us
			continue
		}

		containers = append(containers, container)
	}

	return containers, nil
}

func (local *Local) containerPath(container string) string {
	return filepath.Join(local.dir, percentencoding.Encode(container))
}

func (local *Local) checkContainer(container string) error {
	fi, err := os.Stat(local.containerPath(container))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return failure.NotFoundf("container %q not found", container)
		}

		return convertErr(err, "failed to access container %q", container)
	}

	if !fi.IsDir() {
		return failure.NotFoundf("container %q not found", container)
	}

	return nil
}

func convertErr(err error, format string, args ...any) error {
	if errors.Is(err, os.ErrPermission) {
		return failure.Upstream(err, "permission denied: "+format, args...)
	}

	return failure.Upstream(err, format, args...)
}
