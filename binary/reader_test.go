package binary_test

import (
	"bytes"
	"strings"
	"testing"

	"github.com/distr1/zipatch/binary"
)

func TestMixedEndianReads(t *testing.T) {
	// u32 BE = 1, u32 LE = 1, i16 BE = -1, u64 LE = 2
	buf := []byte{
		0x00, 0x00, 0x00, 0x01,
		0x01, 0x00, 0x00, 0x00,
		0xFF, 0xFF,
		0x02, 0, 0, 0, 0, 0, 0, 0,
	}
	r := binary.NewReader(bytes.NewReader(buf))

	be32, err := r.U32BE()
	if err != nil || be32 != 1 {
		t.Fatalf("U32BE() = %v, %v, want 1, nil", be32, err)
	}
	le32, err := r.U32LE()
	if err != nil || le32 != 1 {
		t.Fatalf("U32LE() = %v, %v, want 1, nil", le32, err)
	}
	i16, err := r.I16BE()
	if err != nil || i16 != -1 {
		t.Fatalf("I16BE() = %v, %v, want -1, nil", i16, err)
	}
	le64, err := r.U64LE()
	if err != nil || le64 != 2 {
		t.Fatalf("U64LE() = %v, %v, want 2, nil", le64, err)
	}
}

func TestFixedStringNULTrim(t *testing.T) {
	r := binary.NewReader(bytes.NewReader([]byte("SQPK\x00\x00\x00\x00")))
	s, err := r.FixedString(8)
	if err != nil {
		t.Fatal(err)
	}
	if s != "SQPK" {
		t.Fatalf("FixedString() = %q, want %q", s, "SQPK")
	}
}

func TestFixedStringInvalidUTF8(t *testing.T) {
	r := binary.NewReader(bytes.NewReader([]byte{0xff, 0xfe, 0x00}))
	s, err := r.FixedString(3)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.ContainsRune(s, '�') {
		t.Fatalf("FixedString() = %q, want lossy replacement", s)
	}
}

func TestShortReadFails(t *testing.T) {
	r := binary.NewReader(bytes.NewReader([]byte{0x01, 0x02}))
	if _, err := r.U32BE(); err == nil {
		t.Fatal("U32BE() on short buffer succeeded, want error")
	}
}
