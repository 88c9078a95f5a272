package deflate_test

import (
	"bytes"
	"compress/flate"
	"encoding/binary"
	"io"
	"io/ioutil"
	"testing"

	"github.com/distr1/zipatch/deflate"
	"github.com/orcaman/writerseeker"
)

func rawBlockBytes(t *testing.T, payload []byte) []byte {
	t.Helper()
	var buf bytes.Buffer
	binary.Write(&buf, binary.LittleEndian, int32(16))
	binary.Write(&buf, binary.LittleEndian, uint32(0))
	binary.Write(&buf, binary.LittleEndian, int32(0x7D00))
	binary.Write(&buf, binary.LittleEndian, int32(len(payload)))
	buf.Write(payload)
	total := (int64(len(payload)) + 16 + 127) &^ 0x7F
	for int64(buf.Len()) < total {
		buf.WriteByte(0)
	}
	return buf.Bytes()
}

func compressedBlockBytes(t *testing.T, payload []byte) []byte {
	t.Helper()
	var compressed bytes.Buffer
	zw, err := flate.NewWriter(&compressed, flate.DefaultCompression)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := zw.Write(payload); err != nil {
		t.Fatal(err)
	}
	if err := zw.Close(); err != nil {
		t.Fatal(err)
	}

	var buf bytes.Buffer
	binary.Write(&buf, binary.LittleEndian, int32(16))
	binary.Write(&buf, binary.LittleEndian, uint32(0))
	binary.Write(&buf, binary.LittleEndian, int32(compressed.Len()))
	binary.Write(&buf, binary.LittleEndian, int32(len(payload)))
	buf.Write(compressed.Bytes())
	total := (int64(compressed.Len()) + 16 + 127) &^ 0x7F
	for int64(buf.Len()) < total {
		buf.WriteByte(0)
	}
	return buf.Bytes()
}

func TestRawBlockBypassesDeflate(t *testing.T) {
	payload := []byte("raw bytes, no compression")
	wire := rawBlockBytes(t, payload)

	blk, err := deflate.Read(bytes.NewReader(wire))
	if err != nil {
		t.Fatal(err)
	}
	var out bytes.Buffer
	if err := blk.ExpandInto(&out); err != nil {
		t.Fatal(err)
	}
	if out.String() != string(payload) {
		t.Fatalf("ExpandInto() = %q, want %q", out.String(), payload)
	}
	if blk.TotalSize != int64(len(wire)) {
		t.Fatalf("TotalSize = %d, want %d", blk.TotalSize, len(wire))
	}
}

func TestCompressedBlockInflates(t *testing.T) {
	payload := bytes.Repeat([]byte("compress me please "), 20)
	wire := compressedBlockBytes(t, payload)

	blk, err := deflate.Read(bytes.NewReader(wire))
	if err != nil {
		t.Fatal(err)
	}
	var out bytes.Buffer
	if err := blk.ExpandInto(&out); err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(out.Bytes(), payload) {
		t.Fatalf("ExpandInto() produced %d bytes, want %d matching bytes", out.Len(), len(payload))
	}
	if blk.TotalSize != int64(len(wire)) {
		t.Fatalf("TotalSize = %d, want %d", blk.TotalSize, len(wire))
	}
}

func TestMultipleBlocksReadSequentially(t *testing.T) {
	a := rawBlockBytes(t, []byte("first"))
	b := rawBlockBytes(t, []byte("second block payload"))
	stream := bytes.NewReader(append(append([]byte{}, a...), b...))

	blk1, err := deflate.Read(stream)
	if err != nil {
		t.Fatal(err)
	}
	var out1 bytes.Buffer
	if err := blk1.ExpandInto(&out1); err != nil {
		t.Fatal(err)
	}
	if out1.String() != "first" {
		t.Fatalf("first block = %q, want %q", out1.String(), "first")
	}

	blk2, err := deflate.Read(stream)
	if err != nil {
		t.Fatal(err)
	}
	var out2 bytes.Buffer
	if err := blk2.ExpandInto(&out2); err != nil {
		t.Fatal(err)
	}
	if out2.String() != "second block payload" {
		t.Fatalf("second block = %q, want %q", out2.String(), "second block payload")
	}
}

// TestExpandIntoSeekableSink exercises ExpandInto against a seekable
// in-memory sink rather than a bare bytes.Buffer, mirroring how the F/A
// file-operation command expands blocks at an arbitrary file offset
// instead of always appending.
func TestExpandIntoSeekableSink(t *testing.T) {
	payload := []byte("seekable sink payload")
	wire := rawBlockBytes(t, payload)

	blk, err := deflate.Read(bytes.NewReader(wire))
	if err != nil {
		t.Fatal(err)
	}

	var sink writerseeker.WriterSeeker
	if _, err := sink.Seek(10, io.SeekStart); err != nil {
		t.Fatal(err)
	}
	if err := blk.ExpandInto(&sink); err != nil {
		t.Fatal(err)
	}

	got, err := ioutil.ReadAll(sink.Reader())
	if err != nil {
		t.Fatal(err)
	}
	if len(got) < 10+len(payload) {
		t.Fatalf("sink length = %d, want at least %d", len(got), 10+len(payload))
	}
	if !bytes.Equal(got[10:10+len(payload)], payload) {
		t.Fatalf("sink[10:] = %q, want %q", got[10:10+len(payload)], payload)
	}
}
