// Package grace implements the grace-period engine: the parity-flipping
// counter protocol a writer runs in Synchronize to wait until every
// reader that might have observed pre-update state has left its
// critical section.
//
// The algorithm is urcu.c's two-half quiescent-state wait, ported bit for
// bit: a single global counter pre-biased so "zero" unambiguously means
// "not in a critical section", a top-bit parity flag, and a reader-local
// word that is either zero or a snapshot of the global counter plus a
// nest count. What's redesigned for Go is how a writer forces a reader to
// fence: urcu.c delivers a realtime signal to the reader's pthread and
// busy-polls a flag the signal handler clears; Go cannot target a signal
// at one goroutine, so readers instead acknowledge a pending fence
// request at their own next checkpoint (ReadLock, ReadUnlock, or an
// explicit Checkpoint call). See Reader.ack.
package grace

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/kolkov/urcu/internal/urcu/handle"
	"github.com/kolkov/urcu/internal/urcu/mo"
	"github.com/kolkov/urcu/internal/urcu/registry"
)

const (
	// bias is RCU_GP_COUNT: pre-added to the global counter so that a
	// reader's active word is nonzero for the entire time it holds at
	// least one nested read lock, leaving zero free to mean "not
	// reading" unambiguously.
	bias = 1

	// parityBit is RCU_GP_CTR_BIT: the top bit of the word, flipped by
	// the writer once per half grace period.
	parityBit = uint64(1) << 63

	// nestMask is RCU_GP_CTR_NEST_MASK: the bits below parityBit, which
	// count nested ReadLock calls.
	nestMask = parityBit - 1

	// kickInterval bounds how many spin iterations wait-for-quiescence
	// performs before re-requesting a fence from the readers it is
	// still waiting on, mirroring urcu.c's KICK_READER_LOOPS resend of
	// a stalled signal.
	kickInterval = 1 << 10

	// spinSleep is a small yield inserted after a long spin run so a
	// writer waiting on GOMAXPROCS=1 doesn't starve the very reader
	// it's waiting for. urcu.c's pure spin assumes true parallel OS
	// threads; Go's M:N scheduler doesn't guarantee that, so this
	// sleep has no equivalent in the original and exists only to keep
	// the wait live under low parallelism.
	spinSleep = 50 * time.Microsecond
)

// Engine owns the global grace-period counter and the registry of
// readers a writer must wait on.
type Engine struct {
	reg       *registry.Registry
	gp        atomic.Uint64
	completed atomic.Uint64

	// writerMu serializes Synchronize calls, the same role
	// urcu.c's rcu_gp_lock plays: only one grace period runs at a time.
	writerMu sync.Mutex
}

// NewEngine returns a ready-to-use engine with no readers registered.
func NewEngine() *Engine {
	e := &Engine{reg: registry.New()}
	e.gp.Store(bias)
	return e
}

// Reader is a registered read-side handle. It must only be used by the
// goroutine that created it via Register.
type Reader struct {
	engine  *Engine
	entry   *registry.Entry
	release func()
}

// Register creates and registers a new reader bound to e. The returned
// Reader must be closed with Unregister when the calling goroutine is
// done with it.
func (e *Engine) Register() *Reader {
	id, release := handle.Acquire()
	entry := &registry.Entry{Handle: id}
	e.reg.Register(entry)
	return &Reader{engine: e, entry: entry, release: release}
}

// Unregister removes the reader from its engine. The reader must not be
// holding a read lock.
func (r *Reader) Unregister() {
	r.engine.reg.Deregister(r.entry)
	r.release()
}

// ReadLock enters a (possibly nested) read-side critical section. It is
// wait-free: no loop, no allocation, and no atomic read-modify-write on
// the active word. When a writer has requested a fence, the ack at the
// start of ReadLock runs mo.SeqCstFence, which is an atomic Add.
func (r *Reader) ReadLock() {
	r.ack()
	tmp := r.entry.Active.Load()
	if tmp&nestMask == 0 {
		mo.StoreRelease(&r.entry.Active, mo.LoadAcquire(&r.engine.gp))
	} else {
		mo.StoreRelease(&r.entry.Active, tmp+1)
	}
}

// ReadUnlock leaves one level of read-side critical section. The
// outermost unlock stores a literal zero rather than subtracting the
// bias, matching urcu.c's _rcu_read_unlock exactly: it is what lets
// rcu_old_gp_ongoing treat zero as unambiguously "not reading" even
// though bias is nonzero.
func (r *Reader) ReadUnlock() {
	tmp := r.entry.Active.Load()
	if tmp&nestMask == bias {
		mo.StoreRelease(&r.entry.Active, 0)
	} else {
		mo.StoreRelease(&r.entry.Active, tmp-1)
	}
	r.ack()
}

// Checkpoint gives the reader a chance to acknowledge a pending fence
// request while it is outside any critical section. Long-lived readers
// that rarely call ReadLock/ReadUnlock should call this periodically so
// a writer waiting in Synchronize doesn't stall on them.
func (r *Reader) Checkpoint() {
	r.ack()
}

func (r *Reader) ack() {
	r.entry.NeedFence.Ack()
}

// ongoing reports whether the reader whose active word is v might still
// be inside a critical section that began during the half grace period
// identified by gp's current parity. Ports rcu_old_gp_ongoing: a reader
// with a zero nest count isn't reading at all, and a reader whose parity
// bit matches the current global parity entered after the flip and so
// can't be observing the stale state.
func ongoing(v, gp uint64) bool {
	return v&nestMask != 0 && (v^gp)&parityBit != 0
}

// Synchronize blocks until every reader that was active when it was
// called has left its critical section: the defining guarantee of
// SynchronizeRCU. Only one Synchronize call runs the protocol at a time;
// concurrent callers serialize on Engine's internal lock, exactly as
// urcu.c serializes synchronize_rcu callers on rcu_gp_lock.
func (e *Engine) Synchronize() {
	e.writerMu.Lock()
	defer e.writerMu.Unlock()

	e.reg.Lock()
	defer e.reg.Unlock()

	e.forceFenceAllReaders()

	e.flipParity()
	mo.SeqCstFence()
	e.waitForQuiescence()
	mo.SeqCstFence()

	e.flipParity()
	mo.SeqCstFence()
	e.waitForQuiescence()

	e.forceFenceAllReaders()

	e.completed.Add(1)
}

// CompletedGracePeriods reports how many Synchronize calls have returned
// so far. Diagnostic only; participates in no correctness invariant.
func (e *Engine) CompletedGracePeriods() uint64 {
	return e.completed.Load()
}

// RegisteredReaders reports the number of currently registered readers.
// Diagnostic only.
func (e *Engine) RegisteredReaders() int {
	e.reg.Lock()
	defer e.reg.Unlock()
	return e.reg.Len()
}

// flipParity toggles the global counter's parity bit, the Go analogue of
// switch_next_urcu_qparity.
func (e *Engine) flipParity() {
	mo.StoreRelease(&e.gp, mo.LoadAcquire(&e.gp)^parityBit)
}

// waitForQuiescence spins until every currently registered reader either
// wasn't active or has since advanced past the grace period's current
// parity. Caller must hold the registry lock.
func (e *Engine) waitForQuiescence() {
	spins := 0
	for {
		anyOngoing := false
		gp := mo.LoadAcquire(&e.gp)
		e.reg.Snapshot(func(ent *registry.Entry) {
			if ongoing(ent.Active.Load(), gp) {
				anyOngoing = true
				if spins != 0 && spins%kickInterval == 0 {
					ent.NeedFence.Request()
				}
			}
		})
		if !anyOngoing {
			return
		}
		spins++
		mo.Relax()
		if spins%kickInterval == 0 {
			time.Sleep(spinSleep)
		}
	}
}

// forceFenceAllReaders requests a fence from every registered reader, the
// Go analogue of force_mb_all_threads. Unlike the original it does not
// wait for every reader to acknowledge: a reader's next checkpoint may be
// arbitrarily far in the future if it is in the middle of an unrelated,
// long-running critical section, and that reader has no bearing on the
// grace period waitForQuiescence is about to wait out. Blocking here
// would make Synchronize hang on readers the current grace period
// doesn't even need to wait for. The request is a pure optimization: a
// reader that happens to hit a checkpoint soon clears its pending flag a
// little sooner, but correctness never depends on it, since Go's atomics
// already give every Load/Store here sequentially consistent ordering
// without a forced fence. Caller must hold the registry lock.
func (e *Engine) forceFenceAllReaders() {
	e.reg.Snapshot(func(ent *registry.Entry) {
		ent.NeedFence.Request()
	})
	mo.SeqCstFence()
}
