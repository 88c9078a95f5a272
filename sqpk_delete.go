package zipatch

import (
	"encoding/binary"
	"io"
	"os"

	zbinary "github.com/distr1/zipatch/binary"
	"github.com/distr1/zipatch/sqex"
	"github.com/distr1/zipatch/sqpack"
	"golang.org/x/xerrors"
)

// SqpkDeleteDataChunk is the D (delete-data) command: it does not remove
// bytes from the pack file, it overwrites the targeted block range with
// an empty-file-block header so the game engine treats it as free space.
type SqpkDeleteDataChunk struct {
	PackID      sqex.PackID
	BlockOffset int64
	BlockNumber uint32
}

func (c *SqpkDeleteDataChunk) SqpkCmd() byte { return SqpkDeleteData }
func (c *SqpkDeleteDataChunk) Tag() string   { return TagSQPK }

// emptyFileBlockHeader is the 20-byte little-endian header written over a
// deleted block: {size=128, unused1=0, unused2=0, block_count, unused3=0}.
func emptyFileBlockHeader(blockNumber uint32) []byte {
	buf := make([]byte, 20)
	binary.LittleEndian.PutUint32(buf[0:4], 128)
	binary.LittleEndian.PutUint32(buf[4:8], 0)
	binary.LittleEndian.PutUint32(buf[8:12], 0)
	binary.LittleEndian.PutUint32(buf[12:16], blockNumber-1)
	binary.LittleEndian.PutUint32(buf[16:20], 0)
	return buf
}

func (c *SqpkDeleteDataChunk) Apply(cfg *sqpack.Config) error {
	path := c.PackID.DatName(cfg.Platform)
	return sqpack.WithFile(cfg, path, func(f *os.File) error {
		if _, err := f.Seek(c.BlockOffset, io.SeekStart); err != nil {
			return xerrors.Errorf("seeking to %d: %w", c.BlockOffset, err)
		}
		if err := sqpack.Wipe(f, int64(c.BlockNumber)<<7); err != nil {
			return err
		}
		return sqpack.WriteAt(f, c.BlockOffset, emptyFileBlockHeader(c.BlockNumber))
	})
}

// decodeSqpkDeleteData decodes: 3 alignment bytes, pack-file id,
// block_offset (u32 BE << 7), block_number (u32 BE), 4 reserved bytes.
func decodeSqpkDeleteData(br *zbinary.Reader) (*SqpkDeleteDataChunk, error) {
	if err := br.Skip(3); err != nil {
		return nil, xerrors.Errorf("reading SQPK D alignment: %w", err)
	}
	packID, err := sqex.DecodePackID(br)
	if err != nil {
		return nil, xerrors.Errorf("reading SQPK D pack id: %w", err)
	}
	blockOffset, err := br.U32BE()
	if err != nil {
		return nil, xerrors.Errorf("reading SQPK D block_offset: %w", err)
	}
	blockNumber, err := br.U32BE()
	if err != nil {
		return nil, xerrors.Errorf("reading SQPK D block_number: %w", err)
	}
	if err := br.Skip(4); err != nil {
		return nil, xerrors.Errorf("reading SQPK D reserved bytes: %w", err)
	}
	return &SqpkDeleteDataChunk{
		PackID:      packID,
		BlockOffset: int64(blockOffset) << 7,
		BlockNumber: blockNumber,
	}, nil
}
