package zipatch

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
)

// InterruptibleContext returns a context which is canceled when the program
// is interrupted (i.e. receiving SIGINT or SIGTERM), so a long
// ApplyAllContext pass over a large patch can be stopped cleanly between
// chunks instead of being killed mid-write. The signal is logged so that
// an apply pass stopped this way is distinguishable from one that simply
// ran to completion or failed outright: ApplyAllContext's returned error
// is a bare context.Canceled with no chunk offset attached, since
// cancellation is checked between chunks rather than surfaced as a chunk
// decode error.
func InterruptibleContext() (context.Context, context.CancelFunc) {
	ctx, canc := context.WithCancel(context.Background())
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sig
		// Subsequent signals will result in immediate termination, which is
		// useful in case cleanup hangs:
		signal.Stop(sig)
		log.Printf("zipatch: interrupted, canceling in-progress apply pass between chunks")
		canc()
	}()
	return ctx, canc
}
