// Package checksum folds every byte read through a stream into a resettable
// CRC32, the way a chunked container verifies each record against a
// trailing checksum word.
package checksum

import (
	"hash"
	"hash/crc32"
	"io"
)

// Reader wraps an io.Reader and accumulates a running CRC32 (IEEE
// polynomial) over every byte it yields. Seeking the underlying reader
// (where supported) bypasses the accumulator entirely: callers must only
// seek between checksum scopes, never within one.
type Reader struct {
	r   io.Reader
	crc hash.Hash32
}

// NewReader returns a Reader that folds bytes read from r into a fresh
// CRC32 accumulator.
func NewReader(r io.Reader) *Reader {
	return &Reader{r: r, crc: crc32.NewIEEE()}
}

// Read implements io.Reader, folding every byte successfully read into the
// running CRC32.
func (cr *Reader) Read(p []byte) (int, error) {
	n, err := cr.r.Read(p)
	if n > 0 {
		cr.crc.Write(p[:n])
	}
	return n, err
}

// Reset clears the accumulated CRC32 back to its initial state.
func (cr *Reader) Reset() {
	cr.crc.Reset()
}

// Sum32 returns the CRC32 accumulated since the last Reset.
func (cr *Reader) Sum32() uint32 {
	return cr.crc.Sum32()
}

// Unwrap returns the underlying reader, for callers that need to bypass
// checksum folding (e.g. reading a trailing CRC word that is itself not
// part of the checksum scope).
func (cr *Reader) Unwrap() io.Reader {
	return cr.r
}
