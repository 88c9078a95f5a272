package zipatch

import (
	"io"
	"os"
	"path/filepath"
	"strings"

	zbinary "github.com/distr1/zipatch/binary"
	"github.com/distr1/zipatch/deflate"
	"github.com/distr1/zipatch/guard"
	"github.com/distr1/zipatch/sqex"
	"github.com/distr1/zipatch/sqpack"
	"golang.org/x/xerrors"
)

// File-op command codes.
const (
	FileOpAdd       = 'A'
	FileOpRemoveAll = 'R'
	FileOpDelete    = 'D'
	FileOpMkdir     = 'M'
)

// sqpkFileOpHeaderBytes is every fixed-size field preceding the path,
// used to compute how many bytes remain for compressed blocks on add.
const sqpkFileOpHeaderBytes = 1 + 2 + 8 + 8 + 4 + 2 + 2 // op, align, offset, size, path_len, expansion_id, padding

// SqpkFileOpChunk is the F command: a whole-file mutation addressed by a
// relative path, rather than a byte-range pack-file write.
type SqpkFileOpChunk struct {
	Op          byte
	FileOffset  int64
	FileSize    int64
	ExpansionID uint16
	Path        string
	Blocks      []*deflate.Block
}

func (c *SqpkFileOpChunk) SqpkCmd() byte { return SqpkFileOp }
func (c *SqpkFileOpChunk) Tag() string   { return TagSQPK }

func (c *SqpkFileOpChunk) Apply(cfg *sqpack.Config) error {
	switch c.Op {
	case FileOpAdd:
		return c.applyAdd(cfg)
	case FileOpRemoveAll:
		return c.applyRemoveAll(cfg)
	case FileOpDelete:
		return c.applyDelete(cfg)
	case FileOpMkdir:
		return mkdirAll(cfg.Path(c.Path))
	}
	return nil
}

func (c *SqpkFileOpChunk) applyAdd(cfg *sqpack.Config) error {
	full := cfg.Path(c.Path)
	if err := mkdirAll(filepath.Dir(full)); err != nil {
		return err
	}
	f, err := sqpack.OpenWithRetry(full, sqpack.ModeReadWriteCreate, cfg.RetryTries, cfg.RetryDelay)
	if err != nil {
		return err
	}
	defer f.Close()

	if c.FileOffset == 0 {
		if err := f.Truncate(0); err != nil {
			return xerrors.Errorf("truncating %s: %w", full, err)
		}
	}
	if _, err := f.Seek(c.FileOffset, io.SeekStart); err != nil {
		return xerrors.Errorf("seeking to %d in %s: %w", c.FileOffset, full, err)
	}
	for _, block := range c.Blocks {
		if err := block.ExpandInto(f); err != nil {
			return xerrors.Errorf("expanding block into %s: %w", full, err)
		}
	}
	return nil
}

// keepSuffixes lists the file-name endings applyRemoveAll preserves: user
// settings and the four movie containers other launchers keep across a
// full reinstall.
var keepSuffixes = []string{".var", "00000.bk2", "00001.bk2", "00002.bk2", "00003.bk2"}

func (c *SqpkFileOpChunk) applyRemoveAll(cfg *sqpack.Config) error {
	folder := sqex.ExpansionFolder(c.ExpansionID)
	for _, top := range []string{"sqpack", "movie"} {
		dir := cfg.Path(filepath.Join(top, folder))
		entries, err := os.ReadDir(dir)
		if err != nil {
			continue // directory absent is not an error for a remove-all pass
		}
		for _, entry := range entries {
			if entry.IsDir() {
				continue
			}
			if keepName(entry.Name()) {
				continue
			}
			os.Remove(filepath.Join(dir, entry.Name())) // best effort, errors ignored
		}
	}
	return nil
}

func keepName(name string) bool {
	for _, suffix := range keepSuffixes {
		if strings.HasSuffix(name, suffix) {
			return true
		}
	}
	return false
}

func (c *SqpkFileOpChunk) applyDelete(cfg *sqpack.Config) error {
	full := cfg.Path(c.Path)
	if err := os.Remove(full); err != nil && !os.IsNotExist(err) {
		return xerrors.Errorf("removing %s: %w", full, err)
	}
	return nil
}

// decodeSqpkFileOp decodes the F framing: op byte, 2 alignment bytes,
// file_offset/file_size (i64 BE), path_len (u32 BE), expansion_id (u16
// BE), 2 padding bytes, then path_len bytes of path. For op 'A' the
// remainder of the chunk holds concatenated compressed blocks.
func decodeSqpkFileOp(br *zbinary.Reader, g *guard.Reader, outerSize uint32) (*SqpkFileOpChunk, error) {
	opBuf, err := br.Bytes(1)
	if err != nil {
		return nil, xerrors.Errorf("reading SQPK F op: %w", err)
	}
	op := opBuf[0]
	if err := br.Skip(2); err != nil {
		return nil, xerrors.Errorf("reading SQPK F alignment: %w", err)
	}
	fileOffset, err := br.I64BE()
	if err != nil {
		return nil, xerrors.Errorf("reading SQPK F file_offset: %w", err)
	}
	fileSize, err := br.I64BE()
	if err != nil {
		return nil, xerrors.Errorf("reading SQPK F file_size: %w", err)
	}
	pathLen, err := br.U32BE()
	if err != nil {
		return nil, xerrors.Errorf("reading SQPK F path_len: %w", err)
	}
	expansionID, err := br.U16BE()
	if err != nil {
		return nil, xerrors.Errorf("reading SQPK F expansion_id: %w", err)
	}
	if err := br.Skip(2); err != nil {
		return nil, xerrors.Errorf("reading SQPK F padding: %w", err)
	}
	path, err := br.FixedString(int(pathLen))
	if err != nil {
		return nil, xerrors.Errorf("reading SQPK F path: %w", err)
	}

	c := &SqpkFileOpChunk{
		Op:          op,
		FileOffset:  fileOffset,
		FileSize:    fileSize,
		ExpansionID: expansionID,
		Path:        path,
	}
	if op != FileOpAdd {
		return c, nil
	}

	// header_bytes spans everything preceding the compressed blocks:
	// inner_size(4) + cmd(1), both already consumed in decodeSqpk, plus
	// the fixed fields and path read here.
	headerBytes := int64(4+1) + int64(sqpkFileOpHeaderBytes) + int64(pathLen)
	remaining := int64(outerSize) - headerBytes
	for remaining > 0 {
		block, err := deflate.Read(g)
		if err != nil {
			return nil, xerrors.Errorf("reading compressed block for %s: %w", path, err)
		}
		c.Blocks = append(c.Blocks, block)
		remaining -= block.TotalSize
	}
	return c, nil
}
