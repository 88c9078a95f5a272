// Package sqpack implements the on-disk side of applying a patch: opening
// pack files with retry, writing byte ranges, zero-filling ("wiping"), and
// caching open handles across the many small commands that typically
// touch the same .dat or .index file in sequence. Config threads through
// every command the way internal/install.Ctx threads through an install
// pass.
package sqpack

import (
	"path/filepath"
	"time"

	"github.com/distr1/zipatch/sqex"
)

// Default retry parameters for OpenWithRetry, matching the spec's
// "default 1s x up to 5 attempts".
const (
	DefaultRetryTries = 5
	DefaultRetryDelay = 1 * time.Second
)

// Config is the mutable record threaded through every applied command.
type Config struct {
	GamePath          string
	Platform          sqex.Platform
	IgnoreMissing     bool
	IgnoreOldMismatch bool
	RetryTries        int
	RetryDelay        time.Duration

	cache *FileCache
}

// NewConfig returns a Config rooted at gamePath, targeting platform, with
// the default retry parameters and no open-file cache.
func NewConfig(gamePath string, platform sqex.Platform) *Config {
	return &Config{
		GamePath:   gamePath,
		Platform:   platform,
		RetryTries: DefaultRetryTries,
		RetryDelay: DefaultRetryDelay,
	}
}

// WithOpenFileCache attaches a FileCache that WithFile reuses across
// commands instead of opening a fresh handle each time.
func (c *Config) WithOpenFileCache(cache *FileCache) *Config {
	c.cache = cache
	return c
}

// WithIgnoreMissing sets the flag an APLY(IgnoreMissing) command toggles.
func (c *Config) WithIgnoreMissing(v bool) *Config {
	c.IgnoreMissing = v
	return c
}

// WithIgnoreOldMismatch sets the flag an APLY(IgnoreOldMismatch) command
// toggles.
func (c *Config) WithIgnoreOldMismatch(v bool) *Config {
	c.IgnoreOldMismatch = v
	return c
}

// Cache returns the attached open-file cache, or nil if commands should
// open fresh handles each time.
func (c *Config) Cache() *FileCache {
	return c.cache
}

// Path resolves a relative pack path against GamePath.
func (c *Config) Path(rel string) string {
	return filepath.Join(c.GamePath, filepath.FromSlash(rel))
}
