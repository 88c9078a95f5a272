package zipatch

import (
	zbinary "github.com/distr1/zipatch/binary"
	"github.com/distr1/zipatch/guard"
	"golang.org/x/xerrors"
)

// SqpkCommand is one decoded inner SQPK command: A, D, E, F, H, I, X or T.
type SqpkCommand interface {
	Chunk
	// SqpkCmd returns the 1-byte command code.
	SqpkCmd() byte
}

// SQPK command codes.
const (
	SqpkAddData     = 'A'
	SqpkDeleteData  = 'D'
	SqpkExpandData  = 'E'
	SqpkFileOp      = 'F'
	SqpkHeaderWrite = 'H'
	SqpkIndex       = 'I'
	SqpkPatchInfo   = 'X'
	SqpkTargetInfo  = 'T'
)

// decodeSqpk decodes the SQPK outer chunk's inner frame: a redundant
// inner size (which must equal the outer size) followed by a 1-byte
// command code and command-specific fields.
func decodeSqpk(g *guard.Reader, outerSize uint32, offset int64) (Chunk, error) {
	br := zbinary.NewReader(g)
	innerSize, err := br.I32BE()
	if err != nil {
		return nil, xerrors.Errorf("reading SQPK inner_size: %w", err)
	}
	if uint32(innerSize) != outerSize {
		return nil, &SqpkSizeMismatch{Outer: outerSize, Inner: innerSize}
	}

	cmdBuf, err := br.Bytes(1)
	if err != nil {
		return nil, xerrors.Errorf("reading SQPK command code: %w", err)
	}
	cmd := cmdBuf[0]

	switch cmd {
	case SqpkAddData:
		return decodeSqpkData(br, SqpkAddData)
	case SqpkDeleteData:
		return decodeSqpkDeleteData(br)
	case SqpkExpandData:
		return decodeSqpkData(br, SqpkExpandData)
	case SqpkFileOp:
		return decodeSqpkFileOp(br, g, outerSize)
	case SqpkHeaderWrite:
		return decodeSqpkHeaderWrite(br)
	case SqpkIndex:
		return decodeSqpkIndex(br)
	case SqpkPatchInfo:
		return decodeSqpkPatchInfo(br)
	case SqpkTargetInfo:
		return decodeSqpkTargetInfo(br)
	default:
		return nil, &UnknownSqpkCommand{Cmd: cmd, Offset: offset}
	}
}
