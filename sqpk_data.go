package zipatch

import (
	"os"

	zbinary "github.com/distr1/zipatch/binary"
	"github.com/distr1/zipatch/sqex"
	"github.com/distr1/zipatch/sqpack"
	"golang.org/x/xerrors"
)

// SqpkDataChunk is the A (add-data) or E (expand-data) command: a raw
// payload write into a pack's .dat file, followed by zero-filling the
// space the old data occupied. The two commands share identical framing
// and apply behaviour; E is conventionally emitted when a patch expands
// a pack file into newly reserved free space.
type SqpkDataChunk struct {
	cmd byte

	PackID            sqex.PackID
	BlockOffset       int64
	BlockNumber       int64
	BlockDeleteNumber int64
	Payload           []byte
}

func (c *SqpkDataChunk) SqpkCmd() byte { return c.cmd }
func (c *SqpkDataChunk) Tag() string   { return TagSQPK }

func (c *SqpkDataChunk) Apply(cfg *sqpack.Config) error {
	path := c.PackID.DatName(cfg.Platform)
	return sqpack.WithFile(cfg, path, func(f *os.File) error {
		if err := sqpack.WriteAt(f, c.BlockOffset, c.Payload); err != nil {
			return err
		}
		return sqpack.Wipe(f, c.BlockDeleteNumber)
	})
}

// decodeSqpkData decodes the A/E framing: 3 alignment bytes, pack-file
// id, three u32 BE fields each left-shifted 7 to yield byte offsets and
// lengths, then block_number bytes of raw payload.
func decodeSqpkData(br *zbinary.Reader, cmd byte) (*SqpkDataChunk, error) {
	if err := br.Skip(3); err != nil {
		return nil, xerrors.Errorf("reading SQPK %c alignment: %w", cmd, err)
	}
	packID, err := sqex.DecodePackID(br)
	if err != nil {
		return nil, xerrors.Errorf("reading SQPK %c pack id: %w", cmd, err)
	}
	blockOffset, err := br.U32BE()
	if err != nil {
		return nil, xerrors.Errorf("reading SQPK %c block_offset: %w", cmd, err)
	}
	blockNumber, err := br.U32BE()
	if err != nil {
		return nil, xerrors.Errorf("reading SQPK %c block_number: %w", cmd, err)
	}
	blockDeleteNumber, err := br.U32BE()
	if err != nil {
		return nil, xerrors.Errorf("reading SQPK %c block_delete_number: %w", cmd, err)
	}
	number := int64(blockNumber) << 7
	payload, err := br.Bytes(int(number))
	if err != nil {
		return nil, xerrors.Errorf("reading SQPK %c payload: %w", cmd, err)
	}
	return &SqpkDataChunk{
		cmd:               cmd,
		PackID:            packID,
		BlockOffset:       int64(blockOffset) << 7,
		BlockNumber:       number,
		BlockDeleteNumber: int64(blockDeleteNumber) << 7,
		Payload:           payload,
	}, nil
}
