package sqpack

import (
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"syscall"
	"time"

	"golang.org/x/sys/unix"
	"golang.org/x/xerrors"
)

// FileStreamRetryExhausted reports that OpenWithRetry gave up after
// exhausting its attempts.
type FileStreamRetryExhausted struct {
	Path  string
	Tries int
}

func (e *FileStreamRetryExhausted) Error() string {
	return fmt.Sprintf("sqpack: open %s: gave up after %d attempts", e.Path, e.Tries)
}

// OpenMode selects how OpenWithRetry opens a path.
type OpenMode int

const (
	// ModeReadOnly opens an existing file for reading only.
	ModeReadOnly OpenMode = iota
	// ModeReadWriteCreate opens (creating if necessary) a file for
	// reading and writing, without truncating existing content.
	ModeReadWriteCreate
)

func openOnce(path string, mode OpenMode) (*os.File, error) {
	switch mode {
	case ModeReadOnly:
		return os.Open(path)
	default:
		return os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0644)
	}
}

// isRetryable reports whether err is the kind of transient failure the
// spec calls out: another process (anti-virus, the game itself) holding a
// share on the target file on Windows, surfaced on this platform as
// PermissionDenied or WouldBlock.
func isRetryable(err error) bool {
	if os.IsPermission(err) {
		return true
	}
	var errno syscall.Errno
	if errors.As(err, &errno) {
		return errno == unix.EACCES || errno == unix.EAGAIN || errno == unix.EWOULDBLOCK
	}
	return false
}

// OpenWithRetry opens path, retrying on PermissionDenied/WouldBlock up to
// tries times total with delay between attempts. Other errors return
// immediately. Exhaustion returns FileStreamRetryExhausted.
func OpenWithRetry(path string, mode OpenMode, tries int, delay time.Duration) (*os.File, error) {
	if tries <= 0 {
		tries = DefaultRetryTries
	}
	for attempt := 0; attempt < tries; attempt++ {
		f, err := openOnce(path, mode)
		if err == nil {
			return f, nil
		}
		if !isRetryable(err) {
			return nil, err
		}
		if attempt < tries-1 {
			log.Printf("sqpack: open %s: %v, retrying in %s (attempt %d/%d)", path, err, delay, attempt+1, tries)
			time.Sleep(delay)
		}
	}
	return nil, &FileStreamRetryExhausted{Path: path, Tries: tries}
}

// WriteAt seeks to offset and writes buf in full.
func WriteAt(f *os.File, offset int64, buf []byte) error {
	if _, err := f.Seek(offset, io.SeekStart); err != nil {
		return xerrors.Errorf("seeking to %d: %w", offset, err)
	}
	if _, err := f.Write(buf); err != nil {
		return xerrors.Errorf("writing %d bytes at %d: %w", len(buf), offset, err)
	}
	return nil
}

const wipeChunkSize = 64 * 1024

// Wipe writes length zero bytes at the file's current position, in 64 KiB
// chunks.
func Wipe(f *os.File, length int64) error {
	if length <= 0 {
		return nil
	}
	zero := make([]byte, wipeChunkSize)
	for length > 0 {
		n := int64(len(zero))
		if length < n {
			n = length
		}
		if _, err := f.Write(zero[:n]); err != nil {
			return xerrors.Errorf("wiping %d bytes: %w", length, err)
		}
		length -= n
	}
	return nil
}

// WithFile resolves relPath against cfg, creates its parent directory if
// missing, opens it (via cfg's open-file cache when present, otherwise a
// fresh retried handle), invokes fn, and
// closes the handle afterwards only if it was opened fresh — a cached
// handle is owned by the cache for the lifetime of the apply pass. This
// is the only way commands touch pack files, so that the cache path and
// the direct path never both hold a mutable borrow of the same handle at
// once.
func WithFile(cfg *Config, relPath string, fn func(*os.File) error) error {
	full := cfg.Path(relPath)
	if err := os.MkdirAll(filepath.Dir(full), 0755); err != nil {
		return xerrors.Errorf("creating directory for %s: %w", full, err)
	}
	if cache := cfg.Cache(); cache != nil {
		f, err := cache.Open(full)
		if err != nil {
			return err
		}
		return fn(f)
	}
	f, err := OpenWithRetry(full, ModeReadWriteCreate, cfg.RetryTries, cfg.RetryDelay)
	if err != nil {
		return err
	}
	defer f.Close()
	return fn(f)
}
