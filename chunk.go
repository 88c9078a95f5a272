// Package zipatch decodes and applies ZiPatch files: the chunked, mixed
// endian, CRC32-checksummed binary format used to distribute incremental
// updates to a Final Fantasy XIV installation.
package zipatch

import (
	"encoding/binary"
	"io"

	"golang.org/x/xerrors"

	zbinary "github.com/distr1/zipatch/binary"
	"github.com/distr1/zipatch/checksum"
	"github.com/distr1/zipatch/guard"
	"github.com/distr1/zipatch/sqpack"
)

// Outer chunk tags.
const (
	TagFHDR = "FHDR"
	TagAPLY = "APLY"
	TagAPFS = "APFS"
	TagADIR = "ADIR"
	TagDELD = "DELD"
	TagSQPK = "SQPK"
	TagEOF  = "EOF_"
	TagXXXX = "XXXX"
)

// magicWords are the three little-endian 32-bit words that must open
// every ZiPatch stream.
var magicWords = [3]uint32{0x50495A91, 0x48435441, 0x0A1A0A0D}

// Chunk is one decoded outer frame: FHDR, APLY, APFS, ADIR, DELD, SQPK,
// EOF_ or XXXX.
type Chunk interface {
	// Tag returns the chunk's 4-character tag.
	Tag() string
	// Apply mutates cfg and the on-disk installation it points at.
	Apply(cfg *sqpack.Config) error
}

// posReader wraps a reader and counts total bytes read, so that chunk
// decode errors can report the offset they occurred at.
type posReader struct {
	r   io.Reader
	pos int64
}

func (p *posReader) Read(b []byte) (int, error) {
	n, err := p.r.Read(b)
	p.pos += int64(n)
	return n, err
}

// decoder decodes a sequence of chunks from a single underlying stream.
type decoder struct {
	pr *posReader
	cr *checksum.Reader
}

// newDecoder decodes chunks from r, reporting offsets relative to the
// whole patch stream: base is r's current position within it (just after
// the magic header for a full pass), so errors name the offset of the
// chunk's size field as it appears in the file.
func newDecoder(r io.Reader, base int64) *decoder {
	pr := &posReader{r: r, pos: base}
	return &decoder{pr: pr, cr: checksum.NewReader(pr)}
}

// verifyMagic reads and checks the 12-byte ZiPatch magic header.
func verifyMagic(r io.Reader) error {
	br := zbinary.NewReader(r)
	for _, want := range magicWords {
		got, err := br.U32LE()
		if err != nil {
			return xerrors.Errorf("reading magic header: %w", err)
		}
		if got != want {
			return ErrMagicMismatch
		}
	}
	return nil
}

// decodeChunk decodes exactly one outer chunk, per:
//
//	offset = stream.position()
//	size   = read_u32_be(stream)       // uncovered by CRC
//	crc_reset(stream)
//	tag    = read_ascii_4(stream)      // CRC begins here
//	with guard(stream, size):
//	  chunk = decode_body(tag, guard, size, offset)
//	expected = crc_current(stream)
//	actual   = read_u32_be(stream)     // not folded into CRC
//	if expected != actual: ChecksumMismatch{offset, expected, actual}
func (d *decoder) decodeChunk() (Chunk, error) {
	offset := d.pr.pos

	sizeBuf := make([]byte, 4)
	if _, err := io.ReadFull(d.pr, sizeBuf); err != nil {
		return nil, xerrors.Errorf("reading chunk size at offset %d: %w", offset, err)
	}
	size := binary.BigEndian.Uint32(sizeBuf)

	d.cr.Reset()
	tagBuf := make([]byte, 4)
	if _, err := io.ReadFull(d.cr, tagBuf); err != nil {
		return nil, xerrors.Errorf("reading chunk tag at offset %d: %w", offset, err)
	}
	tag := string(tagBuf)

	g := guard.New(d.cr, int64(size))
	chunk, decodeErr := decodeBody(tag, g, size, offset)
	if closeErr := g.Close(); closeErr != nil && decodeErr == nil {
		decodeErr = xerrors.Errorf("closing chunk %s body at offset %d: %w", tag, offset, closeErr)
	}
	if decodeErr != nil {
		return nil, decodeErr
	}

	expected := d.cr.Sum32()
	crcBuf := make([]byte, 4)
	if _, err := io.ReadFull(d.pr, crcBuf); err != nil {
		return nil, xerrors.Errorf("reading chunk CRC at offset %d: %w", offset, err)
	}
	actual := binary.BigEndian.Uint32(crcBuf)
	if expected != actual {
		return nil, &ChecksumMismatch{Offset: offset, Expected: expected, Actual: actual}
	}
	return chunk, nil
}

func decodeBody(tag string, g *guard.Reader, size uint32, offset int64) (Chunk, error) {
	switch tag {
	case TagFHDR:
		return decodeFileHeader(zbinary.NewReader(g))
	case TagAPLY:
		return decodeApplyOption(zbinary.NewReader(g))
	case TagAPFS:
		return &ApplyFreeSpaceChunk{}, nil
	case TagADIR:
		return decodeAddDirectory(zbinary.NewReader(g))
	case TagDELD:
		return decodeDeleteDirectory(zbinary.NewReader(g))
	case TagSQPK:
		return decodeSqpk(g, size, offset)
	case TagEOF:
		return &EOFChunk{}, nil
	case TagXXXX:
		return &UnknownXXXXChunk{Size: size}, nil
	default:
		return nil, &UnknownChunkType{Tag: tag, Offset: offset}
	}
}

// FileHeaderChunk is the FHDR chunk: patch format version, patch type, and
// (for version 3) command-count totals used for cross-validation against
// ActualCounts.
type FileHeaderChunk struct {
	Version    int
	PatchType  string
	EntryFiles uint32

	// The following fields are populated only for Version == 3.
	AddDirectories    uint32
	DeleteDirectories uint32
	DeletedDataSize   uint64
	MinorVersion      uint32
	RepositoryName    uint32
	TotalCommands     uint32
	SqpkAdd           uint32
	SqpkDelete        uint32
	SqpkExpand        uint32
	SqpkHeader        uint32
	SqpkFile          uint32
}

func (c *FileHeaderChunk) Tag() string { return TagFHDR }

// Apply is a no-op: FHDR only carries descriptive metadata, it mutates
// nothing on disk.
func (c *FileHeaderChunk) Apply(cfg *sqpack.Config) error { return nil }

func decodeFileHeader(br *zbinary.Reader) (*FileHeaderChunk, error) {
	word, err := br.U32LE()
	if err != nil {
		return nil, xerrors.Errorf("reading FHDR version word: %w", err)
	}
	version := int(word >> 16)
	if version != 2 && version != 3 {
		return nil, &InvalidFileHeaderVersion{Version: version}
	}

	patchType, err := br.FixedString(4)
	if err != nil {
		return nil, xerrors.Errorf("reading FHDR patch type: %w", err)
	}
	entryFiles, err := br.U32BE()
	if err != nil {
		return nil, xerrors.Errorf("reading FHDR entry_files: %w", err)
	}

	c := &FileHeaderChunk{Version: version, PatchType: patchType, EntryFiles: entryFiles}
	if version != 3 {
		return c, nil
	}

	fields := []*uint32{
		&c.AddDirectories, &c.DeleteDirectories,
	}
	var deletedLo, deletedHi uint32
	readU32 := func(dst *uint32) error {
		v, err := br.U32BE()
		if err != nil {
			return err
		}
		*dst = v
		return nil
	}
	for _, f := range fields {
		if err := readU32(f); err != nil {
			return nil, xerrors.Errorf("reading FHDR v3 directory counts: %w", err)
		}
	}
	if err := readU32(&deletedLo); err != nil {
		return nil, xerrors.Errorf("reading FHDR deleted_data_lo: %w", err)
	}
	if err := readU32(&deletedHi); err != nil {
		return nil, xerrors.Errorf("reading FHDR deleted_data_hi: %w", err)
	}
	c.DeletedDataSize = uint64(deletedLo) | (uint64(deletedHi) << 32)

	for _, f := range []*uint32{
		&c.MinorVersion, &c.RepositoryName, &c.TotalCommands,
		&c.SqpkAdd, &c.SqpkDelete, &c.SqpkExpand, &c.SqpkHeader, &c.SqpkFile,
	} {
		if err := readU32(f); err != nil {
			return nil, xerrors.Errorf("reading FHDR v3 command counts: %w", err)
		}
	}
	return c, nil
}

// ApplyOptionChunk is the APLY chunk: toggles one boolean on Config.
type ApplyOptionChunk struct {
	Kind  uint32
	Value bool
}

const (
	ApplyOptionIgnoreMissing     = 1
	ApplyOptionIgnoreOldMismatch = 2
)

func (c *ApplyOptionChunk) Tag() string { return TagAPLY }

func (c *ApplyOptionChunk) Apply(cfg *sqpack.Config) error {
	switch c.Kind {
	case ApplyOptionIgnoreMissing:
		cfg.IgnoreMissing = c.Value
	case ApplyOptionIgnoreOldMismatch:
		cfg.IgnoreOldMismatch = c.Value
	}
	// Unknown kinds are ignored, not an error.
	return nil
}

func decodeApplyOption(br *zbinary.Reader) (*ApplyOptionChunk, error) {
	kind, err := br.U32BE()
	if err != nil {
		return nil, xerrors.Errorf("reading APLY kind: %w", err)
	}
	if err := br.Skip(4); err != nil { // padding, claimed always 0x0000_0004, never checked
		return nil, xerrors.Errorf("reading APLY padding: %w", err)
	}
	value, err := br.U32BE()
	if err != nil {
		return nil, xerrors.Errorf("reading APLY value: %w", err)
	}
	return &ApplyOptionChunk{Kind: kind, Value: value != 0}, nil
}

// ApplyFreeSpaceChunk is the APFS chunk: decoded for framing only, its
// apply is a no-op.
type ApplyFreeSpaceChunk struct{}

func (c *ApplyFreeSpaceChunk) Tag() string                    { return TagAPFS }
func (c *ApplyFreeSpaceChunk) Apply(cfg *sqpack.Config) error { return nil }

// AddDirectoryChunk is the ADIR chunk.
type AddDirectoryChunk struct {
	Name string
}

func (c *AddDirectoryChunk) Tag() string { return TagADIR }

func (c *AddDirectoryChunk) Apply(cfg *sqpack.Config) error {
	return mkdirAll(cfg.Path(c.Name))
}

func decodeAddDirectory(br *zbinary.Reader) (*AddDirectoryChunk, error) {
	name, err := decodeNamedDirectory(br)
	if err != nil {
		return nil, xerrors.Errorf("decoding ADIR: %w", err)
	}
	return &AddDirectoryChunk{Name: name}, nil
}

// DeleteDirectoryChunk is the DELD chunk.
type DeleteDirectoryChunk struct {
	Name string
}

func (c *DeleteDirectoryChunk) Tag() string { return TagDELD }

func (c *DeleteDirectoryChunk) Apply(cfg *sqpack.Config) error {
	return removeDirIfExists(cfg.Path(c.Name))
}

func decodeDeleteDirectory(br *zbinary.Reader) (*DeleteDirectoryChunk, error) {
	name, err := decodeNamedDirectory(br)
	if err != nil {
		return nil, xerrors.Errorf("decoding DELD: %w", err)
	}
	return &DeleteDirectoryChunk{Name: name}, nil
}

func decodeNamedDirectory(br *zbinary.Reader) (string, error) {
	nameLen, err := br.U32BE()
	if err != nil {
		return "", err
	}
	return br.FixedString(int(nameLen))
}

// EOFChunk is the EOF_ chunk marking the end of the stream.
type EOFChunk struct{}

func (c *EOFChunk) Tag() string                    { return TagEOF }
func (c *EOFChunk) Apply(cfg *sqpack.Config) error { return nil }

// UnknownXXXXChunk is the reserved XXXX chunk. It has never been observed
// in the wild; whatever its declared size, its body is simply skipped
// (the guard drains it), and its apply is a no-op.
type UnknownXXXXChunk struct {
	Size uint32
}

func (c *UnknownXXXXChunk) Tag() string                    { return TagXXXX }
func (c *UnknownXXXXChunk) Apply(cfg *sqpack.Config) error { return nil }
