// Package guard scopes a reader to an exact byte count, and on leaving
// scope consumes any bytes the body decoder left unread by reading them
// through the underlying reader rather than seeking past them — so that a
// wrapping checksum.Reader still sees every body byte.
package guard

import (
	"io"

	"golang.org/x/xerrors"
)

const drainBufSize = 32 * 1024

// Reader is a sub-reader bounded to exactly size bytes of an underlying
// reader.
type Reader struct {
	r      io.Reader
	remain int64
}

// New returns a Reader that forwards at most size bytes from r.
func New(r io.Reader, size int64) *Reader {
	return &Reader{r: r, remain: size}
}

// Read implements io.Reader, never yielding more than the remaining bytes
// in scope.
func (g *Reader) Read(p []byte) (int, error) {
	if g.remain <= 0 {
		return 0, io.EOF
	}
	if int64(len(p)) > g.remain {
		p = p[:g.remain]
	}
	n, err := g.r.Read(p)
	g.remain -= int64(n)
	return n, err
}

// Close drains any unread bytes remaining in scope through the underlying
// reader, in bounded-size buffered reads, so that a CRC accumulator
// wrapping the underlying reader still folds them in. If a drain read
// fails, Close falls back to seeking past the remainder on a
// io.Seeker-capable underlying reader, accepting that the checksum scope
// is now broken — the chunk framing's trailing CRC comparison will then
// detect and report the mismatch.
func (g *Reader) Close() error {
	if g.remain <= 0 {
		return nil
	}
	buf := make([]byte, drainBufSize)
	for g.remain > 0 {
		n := int64(len(buf))
		if g.remain < n {
			n = g.remain
		}
		read, err := g.r.Read(buf[:n])
		g.remain -= int64(read)
		if err != nil {
			if g.remain <= 0 {
				return nil
			}
			if seeker, ok := g.r.(io.Seeker); ok {
				if _, serr := seeker.Seek(g.remain, io.SeekCurrent); serr == nil {
					g.remain = 0
					return nil
				}
			}
			return xerrors.Errorf("draining %d remaining bytes: %w", g.remain, err)
		}
	}
	return nil
}
