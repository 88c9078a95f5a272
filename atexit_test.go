package zipatch_test

import (
	"testing"

	"github.com/distr1/zipatch"
	"github.com/distr1/zipatch/sqpack"
)

// RunAtExit latches process-wide exit state, so every RegisterAtExit
// call this binary will ever make has to happen before the single
// RunAtExit call below - hence one test exercising both paths instead
// of two.
func TestRegisterAtExitRunsInOrder(t *testing.T) {
	var order []int
	zipatch.RegisterAtExit(func() error {
		order = append(order, 1)
		return nil
	})
	zipatch.RegisterAtExit(func() error {
		order = append(order, 2)
		return nil
	})

	cache := sqpack.NewFileCache(1, 0)
	if _, err := cache.Open(t.TempDir() + "/000000.win32.dat0"); err != nil {
		t.Fatal(err)
	}
	zipatch.RegisterFileCacheClose(cache)

	if err := zipatch.RunAtExit(); err != nil {
		t.Fatalf("RunAtExit() = %v, want nil", err)
	}
	if len(order) != 2 || order[0] != 1 || order[1] != 2 {
		t.Fatalf("order = %v, want [1 2]", order)
	}
	if cache.Len() != 0 {
		t.Fatalf("FileCache.Len() after RunAtExit = %d, want 0 (RegisterFileCacheClose should have closed it)", cache.Len())
	}
}
