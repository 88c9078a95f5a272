// Package binary reads fixed-width integers and fixed-length strings off an
// io.Reader, field by field, the way internal/squashfs decodes its on-disk
// structures. ZiPatch mixes endianness within a single stream, so unlike
// encoding/binary.Read against a whole struct, every call here names its
// own byte order explicitly.
package binary

import (
	"bytes"
	"encoding/binary"
	"io"
	"strings"
	"unicode/utf8"

	"golang.org/x/xerrors"
)

// Reader wraps an io.Reader and decodes primitive values from it.
type Reader struct {
	r io.Reader
}

// NewReader returns a Reader that decodes values from r.
func NewReader(r io.Reader) *Reader {
	return &Reader{r: r}
}

func (r *Reader) read(n int) ([]byte, error) {
	buf := make([]byte, n)
	if _, err := io.ReadFull(r.r, buf); err != nil {
		return nil, xerrors.Errorf("short read (wanted %d bytes): %w", n, err)
	}
	return buf, nil
}

// Bytes reads exactly n bytes and returns them verbatim.
func (r *Reader) Bytes(n int) ([]byte, error) {
	return r.read(n)
}

// Skip reads and discards exactly n bytes, so that any wrapping checksum
// reader still folds them in.
func (r *Reader) Skip(n int) error {
	_, err := r.read(n)
	return err
}

// U16BE reads a big-endian uint16.
func (r *Reader) U16BE() (uint16, error) {
	b, err := r.read(2)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint16(b), nil
}

// U16LE reads a little-endian uint16.
func (r *Reader) U16LE() (uint16, error) {
	b, err := r.read(2)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(b), nil
}

// I16BE reads a big-endian int16.
func (r *Reader) I16BE() (int16, error) {
	v, err := r.U16BE()
	return int16(v), err
}

// I16LE reads a little-endian int16.
func (r *Reader) I16LE() (int16, error) {
	v, err := r.U16LE()
	return int16(v), err
}

// U32BE reads a big-endian uint32.
func (r *Reader) U32BE() (uint32, error) {
	b, err := r.read(4)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint32(b), nil
}

// U32LE reads a little-endian uint32.
func (r *Reader) U32LE() (uint32, error) {
	b, err := r.read(4)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b), nil
}

// I32BE reads a big-endian int32.
func (r *Reader) I32BE() (int32, error) {
	v, err := r.U32BE()
	return int32(v), err
}

// I32LE reads a little-endian int32.
func (r *Reader) I32LE() (int32, error) {
	v, err := r.U32LE()
	return int32(v), err
}

// U64BE reads a big-endian uint64.
func (r *Reader) U64BE() (uint64, error) {
	b, err := r.read(8)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint64(b), nil
}

// U64LE reads a little-endian uint64.
func (r *Reader) U64LE() (uint64, error) {
	b, err := r.read(8)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(b), nil
}

// I64BE reads a big-endian int64.
func (r *Reader) I64BE() (int64, error) {
	v, err := r.U64BE()
	return int64(v), err
}

// I64LE reads a little-endian int64.
func (r *Reader) I64LE() (int64, error) {
	v, err := r.U64LE()
	return int64(v), err
}

// FixedString reads n bytes and returns them as a string truncated at the
// first NUL byte. Invalid UTF-8 is replaced lossily rather than rejected,
// since tag and name fields are not guaranteed to be valid UTF-8.
func (r *Reader) FixedString(n int) (string, error) {
	b, err := r.read(n)
	if err != nil {
		return "", err
	}
	if idx := bytes.IndexByte(b, 0); idx >= 0 {
		b = b[:idx]
	}
	if !utf8.Valid(b) {
		return strings.ToValidUTF8(string(b), string(utf8.RuneError)), nil
	}
	return string(b), nil
}
