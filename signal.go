package urcu

import (
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/kolkov/urcu/internal/urcu/mo"
)

// FenceSignal is the signal Init listens for to trigger a best-effort,
// process-wide fence nudge. It plays the role of SIGURCU in the original
// C implementation, which delivers this signal to a specific reader
// thread rather than the whole process; see Init's doc comment for why
// that targeting can't carry over to Go.
const FenceSignal = syscall.SIGUSR1

// signalStop holds the installed-or-not status of the best-effort
// FenceSignal handler, guarded by signalMu so Init/Shutdown are safe to
// call from multiple goroutines (mirrors urcu_init/urcu_exit being
// idempotent constructors/destructors in the C original).
var (
	signalMu   sync.Mutex
	signalStop chan struct{}
)

// Init installs the process-wide fence-nudge signal handler.
//
// In the original C implementation a writer forces quiescence by
// delivering a realtime signal directly to each reader's pthread; the
// signal handler executes a memory barrier and clears a per-thread flag.
// Go cannot target a signal at one goroutine, so the checkpoint protocol
// in internal/urcu/grace does the real work: readers acknowledge a
// pending fence request at their own next ReadLock, ReadUnlock, or
// Checkpoint call, with no signal involved.
//
// The handler Init installs here is a best-effort, non-load-bearing
// analogue of the original's: receiving FenceSignal performs one
// process-wide sequentially consistent fence, which can only ever make a
// concurrent Synchronize call's wait shorter, never longer or incorrect
// if the signal never arrives at all. Programs that never call Init
// still get every correctness guarantee SynchronizeRCU makes; they just
// don't get the nudge.
//
// Init is safe to call multiple times; subsequent calls are no-ops.
func Init() {
	signalMu.Lock()
	defer signalMu.Unlock()
	if signalStop != nil {
		return
	}

	ch := make(chan os.Signal, 1)
	signal.Notify(ch, FenceSignal)
	stop := make(chan struct{})
	signalStop = stop

	go func() {
		for {
			select {
			case <-ch:
				mo.SeqCstFence()
			case <-stop:
				signal.Stop(ch)
				return
			}
		}
	}()
}

// Shutdown removes the signal handler installed by Init. Safe to call
// even if Init was never called.
func Shutdown() {
	signalMu.Lock()
	defer signalMu.Unlock()
	if signalStop == nil {
		return
	}
	close(signalStop)
	signalStop = nil
}
