// Package sqex derives SqPack pack-file names from the 8-byte identifier
// carried in the patch stream. A path is always composed from
// main_id/sub_id/file_id/platform — never by echoing strings found
// elsewhere in the stream.
package sqex

import (
	"fmt"

	zbinary "github.com/distr1/zipatch/binary"
)

// PackID identifies one pack file: a main category, a sub category (whose
// high byte names the expansion) and a numbered file within that pack.
type PackID struct {
	MainID uint16
	SubID  uint16
	FileID uint32
}

// DecodePackID reads the 8-byte pack-file identifier: main_id u16 BE,
// sub_id u16 BE, file_id u32 BE.
func DecodePackID(r *zbinary.Reader) (PackID, error) {
	mainID, err := r.U16BE()
	if err != nil {
		return PackID{}, err
	}
	subID, err := r.U16BE()
	if err != nil {
		return PackID{}, err
	}
	fileID, err := r.U32BE()
	if err != nil {
		return PackID{}, err
	}
	return PackID{MainID: mainID, SubID: subID, FileID: fileID}, nil
}

// ExpansionID is the high byte of SubID.
func (p PackID) ExpansionID() byte {
	return byte(p.SubID >> 8)
}

// ExpansionFolder returns "ffxiv" for the base game or "exN" for expansion
// N, derived from an expansion id (not necessarily from a PackID — the
// SQPK file-operation command carries its own expansion_id field).
func ExpansionFolder(expansionID uint16) string {
	if expansionID == 0 {
		return "ffxiv"
	}
	return fmt.Sprintf("ex%d", expansionID)
}

// ExpansionFolder returns the expansion folder this pack file lives under.
func (p PackID) ExpansionFolder() string {
	return ExpansionFolder(uint16(p.ExpansionID()))
}

func (p PackID) baseName(platform Platform) string {
	return fmt.Sprintf("%02x%04x.%s", p.MainID, p.SubID, platform)
}

// DatName returns the relative path of this pack file's .dat file, e.g.
// "sqpack/ex1/0a0100.win32.dat0".
func (p PackID) DatName(platform Platform) string {
	return fmt.Sprintf("sqpack/%s/%s.dat%d", p.ExpansionFolder(), p.baseName(platform), p.FileID)
}

// IndexName returns the relative path of this pack file's .index file,
// e.g. "sqpack/ffxiv/000000.win32.index" or "...index1" for file_id != 0.
func (p PackID) IndexName(platform Platform) string {
	if p.FileID == 0 {
		return fmt.Sprintf("sqpack/%s/%s.index", p.ExpansionFolder(), p.baseName(platform))
	}
	return fmt.Sprintf("sqpack/%s/%s.index%d", p.ExpansionFolder(), p.baseName(platform), p.FileID)
}

// Path returns DatName or IndexName depending on kind, which is 'D' or 'I'
// as carried by the SQPK Header-Write command's file_kind byte.
func (p PackID) Path(platform Platform, kind byte) string {
	if kind == 'I' {
		return p.IndexName(platform)
	}
	return p.DatName(platform)
}
