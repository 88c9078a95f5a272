package zipatch

import (
	"log"
	"sync"
	"sync/atomic"

	"github.com/distr1/zipatch/sqpack"
)

// atExit holds functions registered via RegisterAtExit, e.g. a
// sqpack.FileCache.Close call from a long-running driver that wants its
// open pack-file handles flushed no matter which exit path is taken.
var atExit struct {
	sync.Mutex
	fns    []func() error
	closed uint32
}

// RegisterAtExit queues fn to run when RunAtExit is called.
func RegisterAtExit(fn func() error) {
	if atomic.LoadUint32(&atExit.closed) != 0 {
		panic("BUG: RegisterAtExit must not be called from an atExit func")
	}
	atExit.Lock()
	defer atExit.Unlock()
	atExit.fns = append(atExit.fns, fn)
}

// RegisterFileCacheClose queues cache to be flushed at exit, logging how
// many pack-file handles were still open so an apply pass interrupted
// mid-patch (see InterruptibleContext) reports what it flushed instead
// of exiting silently with handles dangling.
func RegisterFileCacheClose(cache *sqpack.FileCache) {
	RegisterAtExit(func() error {
		if n := cache.Len(); n > 0 {
			log.Printf("zipatch: closing %d open pack file handle(s)", n)
		}
		return cache.Close()
	})
}

// RunAtExit runs every function registered via RegisterAtExit, in
// registration order, stopping at the first error.
func RunAtExit() error {
	atomic.StoreUint32(&atExit.closed, 1)
	for _, fn := range atExit.fns {
		if err := fn(); err != nil {
			return err
		}
	}
	return nil
}
