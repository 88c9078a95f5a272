// Package deflate decodes one compressed-or-raw block of a ZiPatch loose
// file payload: a small little-endian header, followed by either raw
// bytes or a deflate stream, padded to a 128-byte boundary.
package deflate

import (
	"bytes"
	"fmt"
	"io"

	"github.com/klauspost/compress/flate"
	"golang.org/x/xerrors"

	zbinary "github.com/distr1/zipatch/binary"
)

// rawMarker is the sentinel compressed_size value indicating the block's
// payload is stored uncompressed.
const rawMarker = 0x7D00

const headerSize = 16

// DecompressionFailed wraps a deflate stream that could not be expanded.
type DecompressionFailed struct {
	Err error
}

func (e *DecompressionFailed) Error() string {
	return fmt.Sprintf("deflate: decompression failed: %v", e.Err)
}

func (e *DecompressionFailed) Unwrap() error { return e.Err }

// Block is one decoded compressed-or-raw block.
type Block struct {
	HeaderSize       int32
	CompressedSize   int32
	DecompressedSize int32

	raw  bool
	data []byte

	// TotalSize is the on-wire length of the block including its header
	// and any trailing padding, i.e. how many bytes the caller must
	// account for for the next block to start at the right offset.
	TotalSize int64
}

// paddedTotal rounds (headerSize + payload) up to the next 128-byte
// boundary, matching ((payload + 143) &^ 0x7F).
func paddedTotal(payload int64) int64 {
	return (payload + headerSize + 127) &^ 0x7F
}

// Read decodes one block from r: a 16-byte little-endian header followed
// by either raw bytes (compressed_size == 0x7D00) or a deflate stream plus
// its trailing padding filler.
func Read(r io.Reader) (*Block, error) {
	br := zbinary.NewReader(r)

	hdrSize, err := br.I32LE()
	if err != nil {
		return nil, xerrors.Errorf("reading block header size: %w", err)
	}
	if _, err := br.U32LE(); err != nil { // pad
		return nil, xerrors.Errorf("reading block header padding: %w", err)
	}
	compressedSize, err := br.I32LE()
	if err != nil {
		return nil, xerrors.Errorf("reading compressed size: %w", err)
	}
	decompressedSize, err := br.I32LE()
	if err != nil {
		return nil, xerrors.Errorf("reading decompressed size: %w", err)
	}

	b := &Block{
		HeaderSize:       hdrSize,
		CompressedSize:   compressedSize,
		DecompressedSize: decompressedSize,
	}

	if compressedSize == rawMarker {
		b.raw = true
		payload := int64(decompressedSize)
		data, err := br.Bytes(int(payload))
		if err != nil {
			return nil, xerrors.Errorf("reading raw block payload: %w", err)
		}
		b.data = data
		total := paddedTotal(payload)
		if remainder := total - headerSize - payload; remainder > 0 {
			if err := br.Skip(int(remainder)); err != nil {
				return nil, xerrors.Errorf("discarding raw block framing remainder: %w", err)
			}
		}
		b.TotalSize = total
		return b, nil
	}

	payload := int64(compressedSize)
	total := paddedTotal(payload)
	remaining := total - headerSize
	data, err := br.Bytes(int(remaining))
	if err != nil {
		return nil, xerrors.Errorf("reading compressed block payload: %w", err)
	}
	b.data = data
	b.TotalSize = total
	return b, nil
}

// ExpandInto writes the block's decompressed content to w. Raw blocks are
// copied verbatim and cannot fail; compressed blocks are inflated with a
// deflate decompressor.
func (b *Block) ExpandInto(w io.Writer) error {
	if b.raw {
		_, err := w.Write(b.data)
		return err
	}
	fr := flate.NewReader(bytes.NewReader(b.data))
	defer fr.Close()
	if _, err := io.Copy(w, fr); err != nil {
		return &DecompressionFailed{Err: err}
	}
	return nil
}
