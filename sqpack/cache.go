package sqpack

import (
	"os"
	"time"
)

// FileCache is a keep-open store keyed by path, not a generic LRU: the
// same .dat or .index file is typically touched by many consecutive
// commands within one apply pass, so it is cheaper to keep handles open
// for the pass's duration than to reopen per command. It is owned
// exclusively by the Config it is attached to.
type FileCache struct {
	tries int
	delay time.Duration
	files map[string]*os.File
}

// NewFileCache returns an empty cache that opens misses via
// OpenWithRetry(tries, delay).
func NewFileCache(tries int, delay time.Duration) *FileCache {
	return &FileCache{
		tries: tries,
		delay: delay,
		files: make(map[string]*os.File),
	}
}

// Open returns the cached handle for path, opening and inserting one on a
// miss.
func (c *FileCache) Open(path string) (*os.File, error) {
	if f, ok := c.files[path]; ok {
		return f, nil
	}
	f, err := OpenWithRetry(path, ModeReadWriteCreate, c.tries, c.delay)
	if err != nil {
		return nil, err
	}
	c.files[path] = f
	return f, nil
}

// Len reports how many pack-file handles are currently open in the
// cache.
func (c *FileCache) Len() int {
	return len(c.files)
}

// Close closes every cached handle, returning the first error
// encountered (if any) after attempting to close them all.
func (c *FileCache) Close() error {
	var firstErr error
	for path, f := range c.files {
		if err := f.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
		delete(c.files, path)
	}
	return firstErr
}
