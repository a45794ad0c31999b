package disk

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	cachepkg "github.com/cirruslabs/bucketcache/internal/cache"
	"github.com/gofrs/flock"
	"github.com/samber/lo"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"
)

const lockFileName = ".lock"

// Disk keeps entries as files in a single directory and evicts
// the least recently used ones once the size limit is reached.
//
// Several processes may share the same directory, mutations are
// serialized with an advisory file lock.
type Disk struct {
	dir        string
	limitBytes uint64
	mtx        sync.Mutex
	fileLock   *flock.Flock
}

func New(dir string, limitBytes uint64) (*Disk, error) {
	disk := &Disk{
		dir:        dir,
		limitBytes: limitBytes,
		fileLock:   flock.New(filepath.Join(dir, lockFileName)),
	}

	// Pre-create the disk's directory if not created yet
	if err := os.MkdirAll(dir, 0755); err != nil && !errors.Is(err, os.ErrExist) {
		return nil, err
	}

	return disk, nil
}

func (disk *Disk) Get(_ context.Context, key string) ([]byte, error) {
	disk.mtx.Lock()
	defer disk.mtx.Unlock()

	value, err := os.ReadFile(disk.path(key))
	if err != nil {
		// Convert the error for consumer's convenience
		if errors.Is(err, os.ErrNotExist) {
			return nil, cachepkg.ErrNotFound
		}

		return nil, fmt.Errorf("failed to read cache entry %q: %w", key, err)
	}

	// Update the access and modification times so that eviction would work correctly
	now := time.Now()

	if err := os.Chtimes(disk.path(key), now, now); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to set access and modification times "+
			"for the cache entry %q: %w", key, err)
	}

	return value, nil
}

func (disk *Disk) Set(_ context.Context, key string, value []byte) error {
	// Stage the entry next to its final location so that the rename is atomic
	tmpFile, err := os.CreateTemp(disk.dir, ".set-*")
	if err != nil {
		return fmt.Errorf("failed to create a temporary file for the cache entry %q: %w",
			key, err)
	}

	if _, err := tmpFile.Write(value); err != nil {
		_ = tmpFile.Close()
		_ = os.Remove(tmpFile.Name())

		return fmt.Errorf("failed to write cache entry %q: %w", key, err)
	}

	if err := tmpFile.Close(); err != nil {
		_ = os.Remove(tmpFile.Name())

		return fmt.Errorf("failed to close cache entry %q: %w", key, err)
	}

	if err := disk.accept(key, tmpFile.Name(), uint64(len(value))); err != nil {
		_ = os.Remove(tmpFile.Name())

		return fmt.Errorf("failed to accept cache entry %q: %w", key, err)
	}

	return nil
}

func (disk *Disk) Has(_ context.Context, key string) (bool, error) {
	_, err := os.Stat(disk.path(key))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return false, nil
		}

		return false, err
	}

	return true, nil
}

func (disk *Disk) path(key string) string {
	// On macOS, the maximum filename length is 255 characters (inclusive),
	// so the safest way to avoid errors is to hash the cache entry's key
	hash := sha256.Sum256([]byte(key))

	return filepath.Join(disk.dir, hex.EncodeToString(hash[:]))
}

func (disk *Disk) accept(key string, path string, size uint64) error {
	disk.mtx.Lock()
	defer disk.mtx.Unlock()

	if err := disk.fileLock.Lock(); err != nil {
		return fmt.Errorf("failed to lock the cache directory: %w", err)
	}
	defer func() {
		_ = disk.fileLock.Unlock()
	}()

	if err := disk.evict(size); err != nil {
		return err
	}

	// Accept new cache entry
	return os.Rename(path, disk.path(key))
}

func (disk *Disk) evict(needBytes uint64) error {
	// Does it even make sense to evict anything?
	if needBytes > disk.limitBytes {
		return fmt.Errorf("cannot accept cache entry as it's size of %d bytes"+
			" is larger than the disk limit of %d bytes", needBytes, disk.limitBytes)
	}

	// Collect a slice of cache entries, sorted by modification time, ascending order
	type Entry struct {
		Name    string
		Size    uint64
		ModTime time.Time
	}

	var entries []*Entry

	dirEntries, err := os.ReadDir(disk.dir)
	if err != nil {
		return err
	}

	for _, entry := range dirEntries {
		// Skip the lock file and in-flight entries
		if strings.HasPrefix(entry.Name(), ".") {
			continue
		}

		fi, err := entry.Info()
		if err != nil {
			// Evicted by another process in the meantime
			if errors.Is(err, os.ErrNotExist) {
				continue
			}

			return err
		}

		entries = append(entries, &Entry{
			Name:    entry.Name(),
			Size:    uint64(fi.Size()),
			ModTime: fi.ModTime(),
		})
	}

	slices.SortFunc(entries, func(a, b *Entry) int {
		return a.ModTime.Compare(b.ModTime)
	})

	usedBytes := lo.SumBy(entries, func(entry *Entry) uint64 {
		return entry.Size
	})

	// Evict the oldest entries to fit the new entry
	for _, entry := range entries {
		if (usedBytes + needBytes) <= disk.limitBytes {
			return nil
		}

		if err := os.Remove(filepath.Join(disk.dir, entry.Name)); err != nil && !errors.Is(err, os.ErrNotExist) {
			return err
		}

		usedBytes -= entry.Size
	}

	return nil
}
