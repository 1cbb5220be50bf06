// Package urcu provides the public API for the Go userspace RCU runtime.
//
// See doc.go for detailed documentation and examples.
package urcu

import (
	"sync/atomic"

	"github.com/kolkov/urcu/internal/urcu/grace"
)

// defaultDomain is the process-wide RCU domain every package-level
// function operates on. A single domain is all spec.md's model requires:
// one global counter, one registry, for the process lifetime.
var defaultDomain = grace.NewEngine()

// Reader is a registered read-side handle. It must only be used by the
// goroutine that created it via RegisterReader; sharing a Reader across
// goroutines defeats the per-reader state it wraps.
type Reader struct {
	inner *grace.Reader
}

// RegisterReader registers the calling goroutine as a reader and returns
// its handle. The handle must be released with Unregister when the
// goroutine is done reading, typically via defer immediately after
// registration.
func RegisterReader() *Reader {
	return &Reader{inner: defaultDomain.Register()}
}

// Unregister removes the reader from the registry. The reader must not
// be holding a read lock when this is called.
func (r *Reader) Unregister() {
	r.inner.Unregister()
}

// ReadLock enters a read-side critical section. Calls may nest; each
// ReadLock must be matched by a ReadUnlock. Wait-free: never blocks,
// never allocates. It performs no atomic read-modify-write on the
// reader's own state; acknowledging a writer's pending fence request,
// which ReadLock and ReadUnlock both do, runs one atomic Add.
func (r *Reader) ReadLock() {
	r.inner.ReadLock()
}

// ReadUnlock leaves one level of read-side critical section entered by
// ReadLock.
func (r *Reader) ReadUnlock() {
	r.inner.ReadUnlock()
}

// Checkpoint gives the reader a chance to acknowledge a writer's pending
// fence request while outside any critical section. A reader that spends
// long stretches between ReadLock/ReadUnlock pairs should call this
// periodically so a concurrent SynchronizeRCU call isn't left waiting on
// it longer than necessary.
func (r *Reader) Checkpoint() {
	r.inner.Checkpoint()
}

// Dereference loads the pointer held at p for use inside a read-side
// critical section. It is a plain atomic load: Go's memory model already
// gives atomic.Pointer loads acquire ordering, so there is nothing
// further to do beyond naming the operation the algorithm expects at
// every dereference site.
func Dereference[T any](p *atomic.Pointer[T]) *T {
	return p.Load()
}

// AssignPointer publishes v at p for readers to observe. Safe to call
// concurrently with readers; not safe to call concurrently with another
// writer mutating the same p without external synchronization, since
// spec.md's model writes the pointer only under a single writer's
// control.
func AssignPointer[T any](p *atomic.Pointer[T], v *T) {
	p.Store(v)
}

// XchgPointer atomically replaces the pointer at p with v and returns
// the previous value. Unlike PublishAndWait, it does not wait for a
// grace period: the caller is responsible for calling SynchronizeRCU (or
// PublishAndWait next time) before reclaiming the old value.
func XchgPointer[T any](p *atomic.Pointer[T], v *T) *T {
	return p.Swap(v)
}

// PublishAndWait atomically replaces the pointer at p with v, waits for
// a full grace period, and returns the previous value, now safe to
// reclaim: no reader that could have observed it is still in a critical
// section that started before the swap.
func PublishAndWait[T any](p *atomic.Pointer[T], v *T) *T {
	old := p.Swap(v)
	SynchronizeRCU()
	return old
}

// SynchronizeRCU blocks until every reader that was active when it was
// called has left its critical section. Concurrent callers serialize
// internally; at most one grace period runs at a time.
func SynchronizeRCU() {
	defaultDomain.Synchronize()
}
