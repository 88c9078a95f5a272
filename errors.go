package zipatch

import (
	"fmt"

	"golang.org/x/xerrors"
)

// ErrMagicMismatch is returned when the first 12 bytes of a stream don't
// match the expected ZiPatch magic triplet.
var ErrMagicMismatch = xerrors.New("zipatch: magic mismatch")

// ErrHeaderNotFound is returned when the stream reaches EOF_ before an
// FHDR chunk was seen.
var ErrHeaderNotFound = xerrors.New("zipatch: FHDR chunk not found before EOF_")

// ChecksumMismatch reports that a chunk's trailing CRC32 disagreed with
// the CRC32 accumulated while decoding its body.
type ChecksumMismatch struct {
	Offset   int64
	Expected uint32
	Actual   uint32
}

func (e *ChecksumMismatch) Error() string {
	return fmt.Sprintf("zipatch: checksum mismatch at offset %d: expected %08x, got %08x", e.Offset, e.Expected, e.Actual)
}

// UnknownChunkType reports an outer chunk tag outside the closed set this
// decoder understands. Unknown tags are fatal because their body length
// cannot be inferred from the tag alone.
type UnknownChunkType struct {
	Tag    string
	Offset int64
}

func (e *UnknownChunkType) Error() string {
	return fmt.Sprintf("zipatch: unknown chunk type %q at offset %d", e.Tag, e.Offset)
}

// UnknownSqpkCommand reports an inner SQPK command code outside the
// closed set this decoder understands.
type UnknownSqpkCommand struct {
	Cmd    byte
	Offset int64
}

func (e *UnknownSqpkCommand) Error() string {
	return fmt.Sprintf("zipatch: unknown SQPK command %q at offset %d", e.Cmd, e.Offset)
}

// InvalidFileHeaderVersion reports an FHDR version outside {2, 3}.
type InvalidFileHeaderVersion struct {
	Version int
}

func (e *InvalidFileHeaderVersion) Error() string {
	return fmt.Sprintf("zipatch: invalid file header version %d", e.Version)
}

// SqpkSizeMismatch reports that an SQPK command's inner size disagreed
// with its outer chunk size, indicating framing desynchronisation.
type SqpkSizeMismatch struct {
	Outer uint32
	Inner int32
}

func (e *SqpkSizeMismatch) Error() string {
	return fmt.Sprintf("zipatch: SQPK size mismatch: outer=%d inner=%d", e.Outer, e.Inner)
}
