// Package zipatchtest builds minimal, byte-exact ZiPatch streams for
// tests: the magic header, one FHDR, a run of commands, and EOF_, each
// chunk framed and checksummed exactly like the real format.
package zipatchtest

import (
	"bytes"
	"encoding/binary"
	"hash/crc32"
)

// Builder accumulates a ZiPatch byte stream chunk by chunk.
type Builder struct {
	buf bytes.Buffer
}

// New returns a Builder whose stream already has the 12-byte magic
// header written.
func New() *Builder {
	b := &Builder{}
	var word [4]byte
	for _, w := range [3]uint32{0x50495A91, 0x48435441, 0x0A1A0A0D} {
		binary.LittleEndian.PutUint32(word[:], w)
		b.buf.Write(word[:])
	}
	return b
}

// Chunk appends one outer chunk: size (u32 BE), tag, body, then the
// CRC32 of tag||body (u32 BE).
func (b *Builder) Chunk(tag string, body []byte) *Builder {
	var sizeBuf [4]byte
	binary.BigEndian.PutUint32(sizeBuf[:], uint32(len(body)))
	b.buf.Write(sizeBuf[:])

	crc := crc32.NewIEEE()
	crc.Write([]byte(tag))
	crc.Write(body)

	b.buf.WriteString(tag)
	b.buf.Write(body)

	var crcBuf [4]byte
	binary.BigEndian.PutUint32(crcBuf[:], crc.Sum32())
	b.buf.Write(crcBuf[:])
	return b
}

// FHDRv2 appends a version-2 FHDR chunk.
func (b *Builder) FHDRv2(patchType string, entryFiles uint32) *Builder {
	var body bytes.Buffer
	var word [4]byte
	binary.LittleEndian.PutUint32(word[:], uint32(2)<<16)
	body.Write(word[:])
	body.WriteString(padTo(patchType, 4))
	putU32BE(&body, entryFiles)
	return b.Chunk("FHDR", body.Bytes())
}

// FHDRv3Counts names the v3 command-count fields, all caller-supplied so
// tests can exercise both matching and mismatching ActualCounts.
type FHDRv3Counts struct {
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

// FHDRv3 appends a version-3 FHDR chunk.
func (b *Builder) FHDRv3(patchType string, entryFiles uint32, counts FHDRv3Counts) *Builder {
	var body bytes.Buffer
	var word [4]byte
	binary.LittleEndian.PutUint32(word[:], uint32(3)<<16)
	body.Write(word[:])
	body.WriteString(padTo(patchType, 4))
	putU32BE(&body, entryFiles)
	putU32BE(&body, counts.AddDirectories)
	putU32BE(&body, counts.DeleteDirectories)
	putU32BE(&body, uint32(counts.DeletedDataSize))
	putU32BE(&body, uint32(counts.DeletedDataSize>>32))
	putU32BE(&body, counts.MinorVersion)
	putU32BE(&body, counts.RepositoryName)
	putU32BE(&body, counts.TotalCommands)
	putU32BE(&body, counts.SqpkAdd)
	putU32BE(&body, counts.SqpkDelete)
	putU32BE(&body, counts.SqpkExpand)
	putU32BE(&body, counts.SqpkHeader)
	putU32BE(&body, counts.SqpkFile)
	return b.Chunk("FHDR", body.Bytes())
}

// ADIR appends an AddDirectory chunk.
func (b *Builder) ADIR(name string) *Builder {
	return b.Chunk("ADIR", namedDirectoryBody(name))
}

// DELD appends a DeleteDirectory chunk.
func (b *Builder) DELD(name string) *Builder {
	return b.Chunk("DELD", namedDirectoryBody(name))
}

func namedDirectoryBody(name string) []byte {
	var body bytes.Buffer
	putU32BE(&body, uint32(len(name)))
	body.WriteString(name)
	return body.Bytes()
}

// EOF appends the terminating EOF_ chunk.
func (b *Builder) EOF() *Builder {
	return b.Chunk("EOF_", nil)
}

// APLY appends an Apply-option chunk.
func (b *Builder) APLY(kind uint32, value bool) *Builder {
	var body bytes.Buffer
	putU32BE(&body, kind)
	putU32BE(&body, 4)
	if value {
		putU32BE(&body, 1)
	} else {
		putU32BE(&body, 0)
	}
	return b.Chunk("APLY", body.Bytes())
}

// SQPK appends an SQPK outer chunk wrapping inner, prefixed with the
// redundant inner_size field and the command code.
func (b *Builder) SQPK(cmd byte, inner []byte) *Builder {
	var body bytes.Buffer
	putI32BE(&body, int32(5+len(inner)))
	body.WriteByte(cmd)
	body.Write(inner)
	return b.Chunk("SQPK", body.Bytes())
}

// SqpkAddData builds the inner frame for SQPK command A or E.
func SqpkAddData(mainID, subID uint16, fileID uint32, blockOffset, blockNumber, blockDeleteNumber uint32, payload []byte) []byte {
	var body bytes.Buffer
	body.Write([]byte{0, 0, 0})
	putU16BE(&body, mainID)
	putU16BE(&body, subID)
	putU32BE(&body, fileID)
	putU32BE(&body, blockOffset>>7)
	putU32BE(&body, blockNumber>>7)
	putU32BE(&body, blockDeleteNumber>>7)
	body.Write(payload)
	return body.Bytes()
}

// SqpkDeleteData builds the inner frame for SQPK command D.
func SqpkDeleteData(mainID, subID uint16, fileID uint32, blockOffset uint32, blockNumber uint32) []byte {
	var body bytes.Buffer
	body.Write([]byte{0, 0, 0})
	putU16BE(&body, mainID)
	putU16BE(&body, subID)
	putU32BE(&body, fileID)
	putU32BE(&body, blockOffset>>7)
	putU32BE(&body, blockNumber)
	body.Write([]byte{0, 0, 0, 0})
	return body.Bytes()
}

// SqpkHeaderWrite builds the inner frame for SQPK command H.
func SqpkHeaderWrite(fileKind, headerKind byte, mainID, subID uint16, fileID uint32, data [1024]byte) []byte {
	var body bytes.Buffer
	body.WriteByte(fileKind)
	body.WriteByte(headerKind)
	body.WriteByte(0)
	putU16BE(&body, mainID)
	putU16BE(&body, subID)
	putU32BE(&body, fileID)
	body.Write(data[:])
	return body.Bytes()
}

// SqpkTargetInfo builds the inner frame for SQPK command T.
func SqpkTargetInfo(platform uint16, isDebug bool, version uint16) []byte {
	var body bytes.Buffer
	body.Write([]byte{0, 0, 0})
	putU16BE(&body, platform)
	putI16BE(&body, -1) // region: Global
	if isDebug {
		putI16BE(&body, 1)
	} else {
		putI16BE(&body, 0)
	}
	putU16BE(&body, version)
	putU64LE(&body, 0)
	putU64LE(&body, 0)
	return body.Bytes()
}

// SqpkFileOpHeader builds the fixed-size header of an F command, without
// any trailing compressed blocks; callers append those themselves for
// op 'A'.
func SqpkFileOpHeader(op byte, fileOffset, fileSize int64, expansionID uint16, path string) []byte {
	var body bytes.Buffer
	body.WriteByte(op)
	body.Write([]byte{0, 0})
	putI64BE(&body, fileOffset)
	putI64BE(&body, fileSize)
	putU32BE(&body, uint32(len(path)))
	putU16BE(&body, expansionID)
	body.Write([]byte{0, 0})
	body.WriteString(path)
	return body.Bytes()
}

// Bytes returns the accumulated stream.
func (b *Builder) Bytes() []byte {
	return b.buf.Bytes()
}

func padTo(s string, n int) string {
	if len(s) >= n {
		return s[:n]
	}
	return s + string(make([]byte, n-len(s)))
}

func putU16BE(buf *bytes.Buffer, v uint16) {
	var b [2]byte
	binary.BigEndian.PutUint16(b[:], v)
	buf.Write(b[:])
}

func putI16BE(buf *bytes.Buffer, v int16) {
	putU16BE(buf, uint16(v))
}

func putU32BE(buf *bytes.Buffer, v uint32) {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], v)
	buf.Write(b[:])
}

func putI32BE(buf *bytes.Buffer, v int32) {
	putU32BE(buf, uint32(v))
}

func putI64BE(buf *bytes.Buffer, v int64) {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], uint64(v))
	buf.Write(b[:])
}

func putU64LE(buf *bytes.Buffer, v uint64) {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], v)
	buf.Write(b[:])
}
