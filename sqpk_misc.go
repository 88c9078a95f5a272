package zipatch

import (
	zbinary "github.com/distr1/zipatch/binary"
	"github.com/distr1/zipatch/sqex"
	"github.com/distr1/zipatch/sqpack"
	"golang.org/x/xerrors"
)

// SqpkIndexChunk is the I command. It is decoded in full for
// completeness but its apply is a no-op: index mutation is not part of
// byte-range patch application.
type SqpkIndexChunk struct {
	IsAdd       bool
	IsSynonym   bool
	PackID      sqex.PackID
	FileHash    uint64
	BlockOffset uint32
	BlockNumber uint32
}

func (c *SqpkIndexChunk) SqpkCmd() byte              { return SqpkIndex }
func (c *SqpkIndexChunk) Tag() string                { return TagSQPK }
func (c *SqpkIndexChunk) Apply(*sqpack.Config) error { return nil }

func decodeSqpkIndex(br *zbinary.Reader) (*SqpkIndexChunk, error) {
	flags, err := br.Bytes(2)
	if err != nil {
		return nil, xerrors.Errorf("reading SQPK I flags: %w", err)
	}
	if err := br.Skip(1); err != nil {
		return nil, xerrors.Errorf("reading SQPK I alignment: %w", err)
	}
	packID, err := sqex.DecodePackID(br)
	if err != nil {
		return nil, xerrors.Errorf("reading SQPK I pack id: %w", err)
	}
	fileHash, err := br.U64BE()
	if err != nil {
		return nil, xerrors.Errorf("reading SQPK I file_hash: %w", err)
	}
	blockOffset, err := br.U32BE()
	if err != nil {
		return nil, xerrors.Errorf("reading SQPK I block_offset: %w", err)
	}
	blockNumber, err := br.U32BE()
	if err != nil {
		return nil, xerrors.Errorf("reading SQPK I block_number: %w", err)
	}
	return &SqpkIndexChunk{
		IsAdd:       flags[0] != 0,
		IsSynonym:   flags[1] != 0,
		PackID:      packID,
		FileHash:    fileHash,
		BlockOffset: blockOffset,
		BlockNumber: blockNumber,
	}, nil
}

// SqpkPatchInfoChunk is the X command. Apply is a no-op.
type SqpkPatchInfoChunk struct {
	Status      byte
	Version     byte
	InstallSize uint64
}

func (c *SqpkPatchInfoChunk) SqpkCmd() byte              { return SqpkPatchInfo }
func (c *SqpkPatchInfoChunk) Tag() string                { return TagSQPK }
func (c *SqpkPatchInfoChunk) Apply(*sqpack.Config) error { return nil }

func decodeSqpkPatchInfo(br *zbinary.Reader) (*SqpkPatchInfoChunk, error) {
	fields, err := br.Bytes(2)
	if err != nil {
		return nil, xerrors.Errorf("reading SQPK X status/version: %w", err)
	}
	if err := br.Skip(1); err != nil {
		return nil, xerrors.Errorf("reading SQPK X alignment: %w", err)
	}
	installSize, err := br.U64BE()
	if err != nil {
		return nil, xerrors.Errorf("reading SQPK X install_size: %w", err)
	}
	return &SqpkPatchInfoChunk{Status: fields[0], Version: fields[1], InstallSize: installSize}, nil
}

// SqpkTargetInfoChunk is the T command: declares which platform the
// remainder of the patch targets and overwrites the shared Config.
type SqpkTargetInfoChunk struct {
	Platform        sqex.Platform
	Region          string
	IsDebug         bool
	Version         uint16
	DeletedDataSize uint64
	SeekCount       uint64
}

func (c *SqpkTargetInfoChunk) SqpkCmd() byte { return SqpkTargetInfo }
func (c *SqpkTargetInfoChunk) Tag() string   { return TagSQPK }

func (c *SqpkTargetInfoChunk) Apply(cfg *sqpack.Config) error {
	cfg.Platform = c.Platform
	return nil
}

func decodeSqpkTargetInfo(br *zbinary.Reader) (*SqpkTargetInfoChunk, error) {
	if err := br.Skip(3); err != nil {
		return nil, xerrors.Errorf("reading SQPK T reserved bytes: %w", err)
	}
	platformWord, err := br.U16BE()
	if err != nil {
		return nil, xerrors.Errorf("reading SQPK T platform: %w", err)
	}
	platform, err := sqex.ParsePlatform(platformWord)
	if err != nil {
		return nil, xerrors.Errorf("decoding SQPK T: %w", err)
	}
	// region: only -1 ("Global") is a recognised value; everything else
	// collapses to Global too, so the decoded value itself is discarded.
	if _, err := br.I16BE(); err != nil {
		return nil, xerrors.Errorf("reading SQPK T region: %w", err)
	}
	isDebug, err := br.I16BE()
	if err != nil {
		return nil, xerrors.Errorf("reading SQPK T is_debug: %w", err)
	}
	version, err := br.U16BE()
	if err != nil {
		return nil, xerrors.Errorf("reading SQPK T version: %w", err)
	}
	deletedDataSize, err := br.U64LE()
	if err != nil {
		return nil, xerrors.Errorf("reading SQPK T deleted_data_size: %w", err)
	}
	seekCount, err := br.U64LE()
	if err != nil {
		return nil, xerrors.Errorf("reading SQPK T seek_count: %w", err)
	}

	return &SqpkTargetInfoChunk{
		Platform:        platform,
		Region:          "Global",
		IsDebug:         isDebug != 0,
		Version:         version,
		DeletedDataSize: deletedDataSize,
		SeekCount:       seekCount,
	}, nil
}
