package mo

import "sync/atomic"

// FenceFlag is the per-reader "please fence" cell from the spec's R_t
// need_fence field. A writer requests a fence by calling Request; the
// owning reader clears it by calling Ack at its next checkpoint (its own
// ReadLock, ReadUnlock, or an explicit Checkpoint call).
//
// In the original C algorithm this cell is set and cleared from an async
// signal handler running on the target OS thread. Go cannot deliver a
// signal to one specific goroutine, so Ack is instead called directly by
// the owning goroutine at its own checkpoints; see internal/urcu/grace
// for how the writer and reader sides meet here.
type FenceFlag struct {
	pending atomic.Bool
}

// Request asks the owning reader to execute a fence and clear the flag.
// Safe to call from any goroutine.
func (f *FenceFlag) Request() {
	f.pending.Store(true)
}

// Pending reports whether a fence has been requested and not yet
// acknowledged. Safe to call from any goroutine.
func (f *FenceFlag) Pending() bool {
	return f.pending.Load()
}

// Ack executes the fence protocol's handler-side steps — a sequentially
// consistent fence, clearing the flag, and a second sequentially
// consistent fence — and reports whether a fence had actually been
// requested. Must only be called by the owning reader.
func (f *FenceFlag) Ack() bool {
	if !f.pending.Load() {
		return false
	}
	SeqCstFence()
	f.pending.Store(false)
	SeqCstFence()
	return true
}
