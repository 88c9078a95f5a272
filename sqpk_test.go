package zipatch_test

import (
	"bytes"
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"

	"github.com/distr1/zipatch/internal/zipatchtest"
	"github.com/distr1/zipatch/sqex"
	"github.com/distr1/zipatch/sqpack"
)

func testPlatform() sqex.Platform { return sqex.PlatformWin32 }

func rawDeflateBlock(payload []byte) []byte {
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

func TestFileOpAddCreatesFile(t *testing.T) {
	payload := []byte("hello from a patched file")
	header := zipatchtest.SqpkFileOpHeader('A', 0, int64(len(payload)), 0, "common/newfile.dat")
	body := append(append([]byte{}, header...), rawDeflateBlock(payload)...)

	stream := zipatchtest.New().
		FHDRv3("D", 0, zipatchtest.FHDRv3Counts{}).
		SQPK('F', body).
		EOF().
		Bytes()

	dir := t.TempDir()
	cfg := sqpack.NewConfig(dir, testPlatform())
	p := openPatch(t, stream)
	if err := p.ApplyAll(cfg); err != nil {
		t.Fatalf("ApplyAll() failed: %v", err)
	}

	got, err := os.ReadFile(filepath.Join(dir, "common", "newfile.dat"))
	if err != nil {
		t.Fatalf("reading created file: %v", err)
	}
	if !bytes.Equal(got, payload) {
		t.Fatalf("file contents = %q, want %q", got, payload)
	}
}

func TestFileOpDeleteRemovesFile(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "common", "old.dat")
	if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(target, []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}

	header := zipatchtest.SqpkFileOpHeader('D', 0, 0, 0, "common/old.dat")
	stream := zipatchtest.New().
		FHDRv3("D", 0, zipatchtest.FHDRv3Counts{}).
		SQPK('F', header).
		EOF().
		Bytes()

	cfg := sqpack.NewConfig(dir, testPlatform())
	p := openPatch(t, stream)
	if err := p.ApplyAll(cfg); err != nil {
		t.Fatalf("ApplyAll() failed: %v", err)
	}
	if _, err := os.Stat(target); !os.IsNotExist(err) {
		t.Fatalf("target still exists after F/D, err=%v", err)
	}
}

func TestFileOpMkdirCreatesTree(t *testing.T) {
	header := zipatchtest.SqpkFileOpHeader('M', 0, 0, 0, "common/newdir/sub")
	stream := zipatchtest.New().
		FHDRv3("D", 0, zipatchtest.FHDRv3Counts{}).
		SQPK('F', header).
		EOF().
		Bytes()

	dir := t.TempDir()
	cfg := sqpack.NewConfig(dir, testPlatform())
	p := openPatch(t, stream)
	if err := p.ApplyAll(cfg); err != nil {
		t.Fatalf("ApplyAll() failed: %v", err)
	}
	info, err := os.Stat(filepath.Join(dir, "common", "newdir", "sub"))
	if err != nil {
		t.Fatalf("stat created dir: %v", err)
	}
	if !info.IsDir() {
		t.Fatal("created path is not a directory")
	}
}

func TestFileOpRemoveAllKeepsVarAndMovies(t *testing.T) {
	dir := t.TempDir()
	sqpackDir := filepath.Join(dir, "sqpack", "ffxiv")
	if err := os.MkdirAll(sqpackDir, 0755); err != nil {
		t.Fatal(err)
	}
	keep := []string{"000000.win32.var", "000000.win32.00000.bk2"}
	drop := []string{"000000.win32.dat0", "000001.win32.index"}
	for _, name := range append(append([]string{}, keep...), drop...) {
		if err := os.WriteFile(filepath.Join(sqpackDir, name), []byte("x"), 0644); err != nil {
			t.Fatal(err)
		}
	}

	header := zipatchtest.SqpkFileOpHeader('R', 0, 0, 0, "")
	stream := zipatchtest.New().
		FHDRv3("D", 0, zipatchtest.FHDRv3Counts{}).
		SQPK('F', header).
		EOF().
		Bytes()

	cfg := sqpack.NewConfig(dir, testPlatform())
	p := openPatch(t, stream)
	if err := p.ApplyAll(cfg); err != nil {
		t.Fatalf("ApplyAll() failed: %v", err)
	}

	for _, name := range keep {
		if _, err := os.Stat(filepath.Join(sqpackDir, name)); err != nil {
			t.Errorf("kept file %s missing after remove-all: %v", name, err)
		}
	}
	for _, name := range drop {
		if _, err := os.Stat(filepath.Join(sqpackDir, name)); !os.IsNotExist(err) {
			t.Errorf("dropped file %s still present after remove-all (err=%v)", name, err)
		}
	}
}

func TestIndexAndPatchInfoAreNoOps(t *testing.T) {
	indexInner := make([]byte, 27) // add/delete, is_synonym, alignment, pack id, file_hash, block_offset, block_number

	patchInfoInner := make([]byte, 11) // status, version, alignment, install_size
	stream := zipatchtest.New().
		FHDRv3("D", 0, zipatchtest.FHDRv3Counts{}).
		SQPK('I', indexInner).
		SQPK('X', patchInfoInner).
		EOF().
		Bytes()

	dir := t.TempDir()
	cfg := sqpack.NewConfig(dir, testPlatform())
	p := openPatch(t, stream)
	if err := p.ApplyAll(cfg); err != nil {
		t.Fatalf("ApplyAll() over SQPK I and X failed: %v", err)
	}
}
