package cache

import (
	"context"
	"encoding/json"
	"io/fs"
	"os"
	"path/filepath"
	"time"
)

// FileCache implements a file-based cache for CLI usage.
// Each entry is a JSON file holding the data and its expiry.
type FileCache struct {
	dir string
}

// NewFileCache creates a file-based cache in the given directory.
// The directory will be created if it doesn't exist.
func NewFileCache(dir string) (*FileCache, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}
	return &FileCache{dir: dir}, nil
}

// cacheEntry wraps cached data with metadata.
type cacheEntry struct {
	Data      []byte    `json:"data"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Dir returns the cache directory.
func (c *FileCache) Dir() string { return c.dir }

// Get retrieves a value from the cache. Corrupt and expired entries are
// removed and reported as misses.
func (c *FileCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	path := c.path(key)

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	var entry cacheEntry
	if err := json.Unmarshal(data, &entry); err != nil {
		_ = os.Remove(path)
		return nil, false, nil
	}
	if entry.expired(time.Now()) {
		_ = os.Remove(path)
		return nil, false, nil
	}
	return entry.Data, true, nil
}

// Set stores a value in the cache. The entry is written to a temporary file
// and renamed into place, so concurrent readers never see a partial entry.
func (c *FileCache) Set(ctx context.Context, key string, data []byte, ttl time.Duration) error {
	entry := cacheEntry{Data: data}
	if ttl > 0 {
		entry.ExpiresAt = time.Now().Add(ttl)
	}

	entryData, err := json.Marshal(entry)
	if err != nil {
		return err
	}

	path := c.path(key)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".entry-*")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(entryData); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), path)
}

// Delete removes a value from the cache.
func (c *FileCache) Delete(ctx context.Context, key string) error {
	err := os.Remove(c.path(key))
	if os.IsNotExist(err) {
		return nil
	}
	return err
}

// Clear removes every entry and empty shard directory and returns the
// number of entries removed.
func (c *FileCache) Clear() (int, error) {
	count := 0
	err := filepath.WalkDir(c.dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil || path == c.dir || d.IsDir() {
			return nil
		}
		if os.Remove(path) == nil {
			count++
		}
		return nil
	})
	if err != nil {
		return count, err
	}

	shards, _ := os.ReadDir(c.dir)
	for _, s := range shards {
		if s.IsDir() {
			_ = os.Remove(filepath.Join(c.dir, s.Name()))
		}
	}
	return count, nil
}

// Close does nothing for file cache.
func (c *FileCache) Close() error {
	return nil
}

func (e cacheEntry) expired(now time.Time) bool {
	return !e.ExpiresAt.IsZero() && now.After(e.ExpiresAt)
}

// path converts a cache key to a file path.
// The first two hex characters of the key hash name a shard directory.
func (c *FileCache) path(key string) string {
	hash := Hash([]byte(key))
	return filepath.Join(c.dir, hash[:2], hash[2:]+".json")
}

// Ensure FileCache implements Cache.
var _ Cache = (*FileCache)(nil)
