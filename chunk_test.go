package zipatch_test

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/distr1/zipatch"
	"github.com/distr1/zipatch/internal/zipatchtest"
	"github.com/distr1/zipatch/sqex"
	"github.com/distr1/zipatch/sqpack"
)

func testConfig(t *testing.T) *sqpack.Config {
	t.Helper()
	return sqpack.NewConfig(t.TempDir(), sqex.PlatformWin32)
}

func TestFileHeaderVersions(t *testing.T) {
	v2 := zipatchtest.New().FHDRv2("D", 7).EOF().Bytes()
	p := openPatch(t, v2)
	h := p.Header()
	if h.Version != 2 {
		t.Fatalf("Version = %d, want 2", h.Version)
	}
	if h.EntryFiles != 7 {
		t.Fatalf("EntryFiles = %d, want 7", h.EntryFiles)
	}
	if h.TotalCommands != 0 {
		t.Fatalf("TotalCommands = %d, want 0 (absent for v2)", h.TotalCommands)
	}

	v3 := zipatchtest.New().FHDRv3("D", 7, zipatchtest.FHDRv3Counts{
		SqpkAdd: 3, TotalCommands: 3,
	}).EOF().Bytes()
	p3 := openPatch(t, v3)
	h3 := p3.Header()
	if h3.Version != 3 {
		t.Fatalf("Version = %d, want 3", h3.Version)
	}
	if h3.SqpkAdd != 3 {
		t.Fatalf("SqpkAdd = %d, want 3", h3.SqpkAdd)
	}
}

// TestFileHeaderTrailingBytesDrained pads an FHDR v3 body out to the
// 0xB8 bytes observed in real patches: the decoder reads only the fields
// it knows, and the remainder must be consumed through the checksum
// reader so that both the trailing CRC and the next chunk's framing
// still line up.
func TestFileHeaderTrailingBytesDrained(t *testing.T) {
	var body bytes.Buffer
	var word [4]byte
	binary.LittleEndian.PutUint32(word[:], uint32(3)<<16)
	body.Write(word[:])
	body.WriteString("DIFF")
	var be [4]byte
	binary.BigEndian.PutUint32(be[:], 7) // entry_files
	body.Write(be[:])
	for i := 0; i < 13; i++ { // directory counts, deleted size, version, command counts
		body.Write([]byte{0, 0, 0, 0})
	}
	body.Write(make([]byte, 0xB8-body.Len()))

	stream := zipatchtest.New().
		Chunk("FHDR", body.Bytes()).
		ADIR("after/header").
		EOF().
		Bytes()

	p := openPatch(t, stream)
	if got := p.Header().EntryFiles; got != 7 {
		t.Fatalf("EntryFiles = %d, want 7", got)
	}
	counts, err := p.ActualCounts()
	if err != nil {
		t.Fatalf("ActualCounts() after padded FHDR failed: %v", err)
	}
	if counts.AddDirectories != 1 {
		t.Fatalf("AddDirectories = %d, want 1", counts.AddDirectories)
	}
}

func TestInvalidFileHeaderVersionRejected(t *testing.T) {
	var body bytes.Buffer
	var word [4]byte
	binary.LittleEndian.PutUint32(word[:], uint32(9)<<16) // version 9: not 2 or 3
	body.Write(word[:])
	body.WriteString("DIFF")
	body.Write(make([]byte, 4)) // entry_files

	stream := zipatchtest.New().
		Chunk("FHDR", body.Bytes()).
		Bytes()

	_, err := zipatch.OpenStream(bytes.NewReader(stream))
	if err == nil {
		t.Fatal("OpenStream() with FHDR version 9 succeeded, want InvalidFileHeaderVersion")
	}
	if _, ok := err.(*zipatch.InvalidFileHeaderVersion); !ok {
		t.Fatalf("err = %v (%T), want *zipatch.InvalidFileHeaderVersion", err, err)
	}
}

func TestHeaderNotFoundBeforeEOF(t *testing.T) {
	stream := zipatchtest.New().EOF().Bytes()
	_, err := zipatch.OpenStream(bytes.NewReader(stream))
	if err != zipatch.ErrHeaderNotFound {
		t.Fatalf("err = %v, want ErrHeaderNotFound", err)
	}
}

func TestUnknownChunkTypeRejected(t *testing.T) {
	stream := zipatchtest.New().
		FHDRv3("D", 0, zipatchtest.FHDRv3Counts{}).
		Chunk("ZZZZ", []byte{1, 2, 3}).
		EOF().
		Bytes()

	p := openPatch(t, stream)
	_, err := p.ActualCounts()
	unknown, ok := err.(*zipatch.UnknownChunkType)
	if !ok {
		t.Fatalf("err = %v (%T), want *zipatch.UnknownChunkType", err, err)
	}
	if unknown.Tag != "ZZZZ" {
		t.Fatalf("UnknownChunkType.Tag = %q, want %q", unknown.Tag, "ZZZZ")
	}
}

func TestSqpkSizeMismatchRejected(t *testing.T) {
	// An SQPK body whose redundant inner size disagrees with the outer
	// chunk size: framing desynchronisation, not a valid command.
	var body bytes.Buffer
	binary.Write(&body, binary.BigEndian, int32(9999))
	body.WriteByte('X')
	stream := zipatchtest.New().
		FHDRv3("D", 0, zipatchtest.FHDRv3Counts{}).
		Chunk("SQPK", body.Bytes()).
		EOF().
		Bytes()

	p := openPatch(t, stream)
	_, err := p.ActualCounts()
	if _, ok := err.(*zipatch.SqpkSizeMismatch); !ok {
		t.Fatalf("err = %v (%T), want *zipatch.SqpkSizeMismatch", err, err)
	}
}

func TestUnknownSqpkCommandRejected(t *testing.T) {
	stream := zipatchtest.New().
		FHDRv3("D", 0, zipatchtest.FHDRv3Counts{}).
		SQPK('Q', nil).
		EOF().
		Bytes()

	p := openPatch(t, stream)
	_, err := p.ActualCounts()
	unknown, ok := err.(*zipatch.UnknownSqpkCommand)
	if !ok {
		t.Fatalf("err = %v (%T), want *zipatch.UnknownSqpkCommand", err, err)
	}
	if unknown.Cmd != 'Q' {
		t.Fatalf("UnknownSqpkCommand.Cmd = %q, want 'Q'", unknown.Cmd)
	}
}

func TestApplyOptionTogglesConfig(t *testing.T) {
	stream := zipatchtest.New().
		FHDRv3("D", 0, zipatchtest.FHDRv3Counts{}).
		APLY(zipatch.ApplyOptionIgnoreMissing, true).
		APLY(zipatch.ApplyOptionIgnoreOldMismatch, true).
		EOF().
		Bytes()

	p := openPatch(t, stream)
	cfg := testConfig(t)
	if err := p.ApplyAll(cfg); err != nil {
		t.Fatalf("ApplyAll() failed: %v", err)
	}
	if !cfg.IgnoreMissing {
		t.Error("IgnoreMissing = false, want true")
	}
	if !cfg.IgnoreOldMismatch {
		t.Error("IgnoreOldMismatch = false, want true")
	}
}
