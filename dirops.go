package zipatch

import (
	"os"

	"golang.org/x/xerrors"
)

// mkdirAll creates path and any missing parents, matching
// internal/install's directory creation mode.
func mkdirAll(path string) error {
	if err := os.MkdirAll(path, 0755); err != nil {
		return xerrors.Errorf("creating directory %s: %w", path, err)
	}
	return nil
}

// removeDirIfExists removes path if it currently exists. The removal is
// non-recursive (os.Remove, not RemoveAll) — a DELD chunk only ever
// targets a directory the corresponding ADIR left empty. A directory that
// was never created (e.g. a repeated patch apply) is not an error.
func removeDirIfExists(path string) error {
	err := os.Remove(path)
	if err == nil || os.IsNotExist(err) {
		return nil
	}
	return xerrors.Errorf("removing directory %s: %w", path, err)
}
