// Package registry tracks every currently-registered reader so a writer
// can find them all when starting a grace period. It is the Go analogue
// of urcu.c's registry array: a growth-by-doubling slice guarded by one
// mutex, with swap-with-last removal so Deregister never shifts the tail.
package registry

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/kolkov/urcu/internal/urcu/mo"
)

// initialCapacity mirrors urcu.c's INIT_NUM_THREADS.
const initialCapacity = 4

// Entry is one registered reader's state, as seen by a writer walking the
// registry during a grace period.
type Entry struct {
	// Handle is the reader's thread_handle (see internal/urcu/handle).
	Handle uint64

	// Active holds the reader's nesting/parity word (the spec's
	// "active readers" cell). Only the owning reader ever writes it;
	// writers only ever read it.
	Active atomic.Uint64

	// NeedFence is the writer-to-reader fence request cell.
	NeedFence mo.FenceFlag
}

// Registry is the set of currently registered readers.
type Registry struct {
	mu      sync.Mutex
	entries []*Entry
}

// New returns an empty registry, pre-sized the way urcu_init sizes its
// array.
func New() *Registry {
	return &Registry{entries: make([]*Entry, 0, initialCapacity)}
}

// Register adds e to the registry. Panics if e, or another entry with the
// same Handle, is already registered, since that indicates a reader bug
// (double registration), not a recoverable runtime condition.
func (r *Registry) Register(e *Entry) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.entries {
		if existing == e || existing.Handle == e.Handle {
			panic(fmt.Sprintf("registry: handle %d already registered", e.Handle))
		}
	}
	r.entries = append(r.entries, e)
}

// Deregister removes e from the registry via swap-with-last, the same
// technique rcu_remove_reader uses to avoid shifting the whole array down
// by one slot. Panics if e is not registered.
func (r *Registry) Deregister(e *Entry) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i, existing := range r.entries {
		if existing == e {
			last := len(r.entries) - 1
			r.entries[i] = r.entries[last]
			r.entries[last] = nil
			r.entries = r.entries[:last]
			return
		}
	}
	panic(fmt.Sprintf("registry: handle %d not registered", e.Handle))
}

// Lock acquires the registry mutex. A writer must hold it for the
// duration of a grace period so the registered-reader set cannot change
// mid-scan.
func (r *Registry) Lock() {
	r.mu.Lock()
}

// Unlock releases the registry mutex.
func (r *Registry) Unlock() {
	r.mu.Unlock()
}

// Snapshot invokes visit for every currently registered entry. The caller
// must hold the registry lock (via Lock) for the duration of the call.
func (r *Registry) Snapshot(visit func(*Entry)) {
	for _, e := range r.entries {
		visit(e)
	}
}

// Len reports the number of registered readers. The caller must hold the
// registry lock.
func (r *Registry) Len() int {
	return len(r.entries)
}
