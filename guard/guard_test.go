package guard_test

import (
	"bytes"
	"io"
	"testing"

	"github.com/distr1/zipatch/checksum"
	"github.com/distr1/zipatch/guard"
)

func TestDrainsUnreadBytesThroughChecksum(t *testing.T) {
	body := []byte("four bytes used, the rest is padding filler that must be consumed")
	cr := checksum.NewReader(bytes.NewReader(body))

	g := guard.New(cr, int64(len(body)))
	used := make([]byte, 4)
	if _, err := io.ReadFull(g, used); err != nil {
		t.Fatal(err)
	}
	if err := g.Close(); err != nil {
		t.Fatal(err)
	}

	want := checksum.NewReader(bytes.NewReader(body))
	io.ReadAll(want)
	if got, want := cr.Sum32(), want.Sum32(); got != want {
		t.Fatalf("CRC after drain = %08x, want %08x (full body checksum)", got, want)
	}
}

func TestReadNeverExceedsSize(t *testing.T) {
	g := guard.New(bytes.NewReader([]byte("0123456789")), 4)
	buf := make([]byte, 100)
	n, err := g.Read(buf)
	if err != nil {
		t.Fatal(err)
	}
	if n != 4 {
		t.Fatalf("Read() = %d bytes, want 4", n)
	}
	if n2, err := g.Read(buf); err != io.EOF || n2 != 0 {
		t.Fatalf("second Read() = %d, %v, want 0, io.EOF", n2, err)
	}
}

func TestCloseNoOpWhenFullyConsumed(t *testing.T) {
	g := guard.New(bytes.NewReader([]byte("abcd")), 4)
	if _, err := io.ReadFull(g, make([]byte, 4)); err != nil {
		t.Fatal(err)
	}
	if err := g.Close(); err != nil {
		t.Fatalf("Close() after full consumption = %v, want nil", err)
	}
}
