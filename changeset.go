package zipatch

import (
	"path"
	"sort"

	"github.com/distr1/zipatch/sqex"
)

// ChangeSet is the set of relative pack paths a patch stream adds,
// modifies or deletes, derived purely from its command stream rather
// than by comparing against an on-disk installation.
type ChangeSet struct {
	Added    []string
	Modified []string
	Deleted  []string
}

// ChangeSet decodes the patch stream and derives the files it adds,
// modifies and deletes. platform seeds the naming of any SQPK command
// that precedes a Target-Info (T) command; a T command encountered
// during the pass overrides it for everything that follows, mirroring
// how ApplyAll lets SQPK T mutate the shared Config's platform.
func (p *Patch) ChangeSet(platform sqex.Platform) (*ChangeSet, error) {
	added := make(map[string]struct{})
	modified := make(map[string]struct{})
	deleted := make(map[string]struct{})

	err := p.walk(func(chunk Chunk) error {
		switch v := chunk.(type) {
		case *AddDirectoryChunk:
			added[v.Name] = struct{}{}
		case *DeleteDirectoryChunk:
			deleted[v.Name] = struct{}{}
		case *SqpkTargetInfoChunk:
			platform = v.Platform
		case *SqpkDataChunk:
			modified[v.PackID.DatName(platform)] = struct{}{}
		case *SqpkDeleteDataChunk:
			modified[v.PackID.DatName(platform)] = struct{}{}
		case *SqpkHeaderWriteChunk:
			modified[v.PackID.Path(platform, v.FileKind)] = struct{}{}
		case *SqpkFileOpChunk:
			applyFileOpToChangeSet(v, added, modified, deleted)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	for name := range modified {
		delete(added, name)
	}

	return &ChangeSet{
		Added:    sortedKeys(added),
		Modified: sortedKeys(modified),
		Deleted:  sortedKeys(deleted),
	}, nil
}

func applyFileOpToChangeSet(v *SqpkFileOpChunk, added, modified, deleted map[string]struct{}) {
	switch v.Op {
	case FileOpAdd:
		if v.FileOffset == 0 {
			added[v.Path] = struct{}{}
		} else {
			modified[v.Path] = struct{}{}
		}
	case FileOpDelete:
		deleted[v.Path] = struct{}{}
	case FileOpMkdir:
		added[v.Path] = struct{}{}
	case FileOpRemoveAll:
		folder := sqex.ExpansionFolder(v.ExpansionID)
		deleted[path.Join("sqpack", folder)+"/"] = struct{}{}
		deleted[path.Join("movie", folder)+"/"] = struct{}{}
	}
}

func sortedKeys(m map[string]struct{}) []string {
	if len(m) == 0 {
		return nil
	}
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
