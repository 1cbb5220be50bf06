// Package mo provides the memory-ordering primitives the reader registry
// and grace-period engine are built on: typed atomic load/store/exchange
// helpers, a spin hint for busy-wait loops, and the per-reader fence-flag
// cell used by the cross-thread fence protocol.
//
// Go's sync/atomic already gives every Load/Store/Swap sequentially
// consistent ordering, which is stronger than the acquire/release/relaxed
// vocabulary urcu's algorithm is described in. The wrappers here exist so
// every call site names the ordering the algorithm actually requires,
// rather than leaving readers to infer it from a bare atomic.Uint64 call.
package mo

import (
	"runtime"
	"sync/atomic"
)

// LoadAcquire reads a grace-period/active word. The load is acquire
// ordered with respect to everything the writer published before the
// corresponding release-ordered store.
func LoadAcquire(a *atomic.Uint64) uint64 {
	return a.Load()
}

// StoreRelease publishes a grace-period/active word. The store is release
// ordered: every write the calling goroutine performed earlier is visible
// to any goroutine that acquire-loads the same cell afterwards.
func StoreRelease(a *atomic.Uint64, v uint64) {
	a.Store(v)
}

// ExchangePointer atomically replaces the pointer stored at p and returns
// the previous value. Used by the wait-free queue's tail pointer.
func ExchangePointer[T any](p *atomic.Pointer[T], v *T) *T {
	return p.Swap(v)
}

// Relax is the spin hint a busy-wait loop issues between polls of a
// contended cell. It is the idiomatic Go substitute for a hardware PAUSE
// instruction: Go does not expose one portably, and inserting a tight
// loop with no yield point risks starving the goroutine that the spinner
// is waiting on when GOMAXPROCS is small. A single call is cheap on the
// fast, uncontended path; callers that spin for a while should back off
// (see the grace and wfq polling loops) rather than calling Relax in a
// pure tight loop indefinitely.
func Relax() {
	runtime.Gosched()
}

// seqCstCounter is touched by SeqCstFence purely so the operation is a
// genuine atomic RMW and cannot be optimized away.
var seqCstCounter atomic.Uint64

// SeqCstFence performs a sequentially consistent atomic operation at a
// point in the algorithm where the C original issues a standalone memory
// barrier "not strictly required by the proof, but materially aids
// auditing". Go's atomics already impose the ordering the algorithm
// needs; this call exists so the Go source has a fence call at exactly
// the same points the algorithm names them, keeping the two readable
// side by side.
func SeqCstFence() {
	seqCstCounter.Add(1)
}
