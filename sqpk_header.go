package zipatch

import (
	"os"

	zbinary "github.com/distr1/zipatch/binary"
	"github.com/distr1/zipatch/sqex"
	"github.com/distr1/zipatch/sqpack"
	"golang.org/x/xerrors"
)

const sqpkHeaderDataSize = 1024

// SqpkHeaderWriteChunk is the H command: overwrites the version or index
// header block of a pack file.
type SqpkHeaderWriteChunk struct {
	FileKind   byte // 'D' (.dat) or 'I' (.index)
	HeaderKind byte // 'V' (version), 'I' or 'D'
	PackID     sqex.PackID
	Data       []byte
}

func (c *SqpkHeaderWriteChunk) SqpkCmd() byte { return SqpkHeaderWrite }
func (c *SqpkHeaderWriteChunk) Tag() string   { return TagSQPK }

func (c *SqpkHeaderWriteChunk) Apply(cfg *sqpack.Config) error {
	offset := int64(sqpkHeaderDataSize)
	if c.HeaderKind == 'V' {
		offset = 0
	}
	path := c.PackID.Path(cfg.Platform, c.FileKind)
	return sqpack.WithFile(cfg, path, func(f *os.File) error {
		return sqpack.WriteAt(f, offset, c.Data)
	})
}

// decodeSqpkHeaderWrite decodes: file_kind byte, header_kind byte, 1
// alignment byte, pack-file id, 1024 bytes of header data.
func decodeSqpkHeaderWrite(br *zbinary.Reader) (*SqpkHeaderWriteChunk, error) {
	kinds, err := br.Bytes(2)
	if err != nil {
		return nil, xerrors.Errorf("reading SQPK H kinds: %w", err)
	}
	if err := br.Skip(1); err != nil {
		return nil, xerrors.Errorf("reading SQPK H alignment: %w", err)
	}
	packID, err := sqex.DecodePackID(br)
	if err != nil {
		return nil, xerrors.Errorf("reading SQPK H pack id: %w", err)
	}
	data, err := br.Bytes(sqpkHeaderDataSize)
	if err != nil {
		return nil, xerrors.Errorf("reading SQPK H header data: %w", err)
	}
	return &SqpkHeaderWriteChunk{
		FileKind:   kinds[0],
		HeaderKind: kinds[1],
		PackID:     packID,
		Data:       data,
	}, nil
}
