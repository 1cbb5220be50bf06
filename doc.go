// Package urcu provides a userspace read-copy-update (RCU) synchronization
// primitive and a companion wait-free multi-producer, single-consumer
// queue, ported from the liburcu quiescent-state-based algorithm.
//
// RCU lets readers traverse shared data with no locking: a read-side
// critical section is a pair of atomic stores to the reader's own word
// around the reads it protects, with no atomic read-modify-write on that
// word (acknowledging a writer's pending fence request, done on the same
// calls, is one atomic Add). Writers publish a
// new version of the data with AssignPointer or XchgPointer, then call
// SynchronizeRCU to block until every reader that might have observed the
// old version has left its critical section, at which point the old
// version is safe to reclaim.
//
// # Quick Start
//
//	var config atomic.Pointer[Config]
//	config.Store(loadConfig())
//
//	func handleRequest() {
//		r := urcu.RegisterReader()
//		defer r.Unregister()
//
//		r.ReadLock()
//		cfg := urcu.Dereference(&config)
//		defer r.ReadUnlock()
//		use(cfg)
//	}
//
//	func reload() {
//		next := loadConfig()
//		old := urcu.PublishAndWait(&config, next)
//		_ = old // safe to discard now; no reader can still see it
//	}
//
// # API Overview
//
// The package provides functions for:
//   - Reader lifecycle: [RegisterReader], [Reader.Unregister]
//   - Read-side critical sections: [Reader.ReadLock], [Reader.ReadUnlock], [Reader.Checkpoint]
//   - Publishing updates: [AssignPointer], [XchgPointer], [PublishAndWait], [Dereference]
//   - Waiting for quiescence: [SynchronizeRCU]
//   - The companion queue: [NewQueue], [NewNode], [Queue.Enqueue], [Queue.EnqueueNode], [Queue.DequeueBlocking]
//   - Process lifecycle: [Init], [Shutdown], [FenceSignal]
//   - Diagnostics: [GetStats]
//
// # How It Works
//
// Every registered reader carries a small atomic word recording whether
// it is inside a critical section and, if so, during which half of the
// current grace period it entered. SynchronizeRCU flips a global parity
// bit twice, waiting after each flip for every reader whose word still
// shows the old parity to leave its critical section. A reader that
// entered after the flip can't be observing pre-update state, so it is
// never waited on.
//
// Because Go has no portable way to force another goroutine to execute a
// memory fence, the fence a writer would otherwise deliver via signal is
// instead acknowledged cooperatively: a reader clears a pending fence
// request the next time it calls ReadLock, ReadUnlock, or Checkpoint. See
// the internal/urcu/grace package doc for the full protocol.
//
// # Examples
//
// See package-level examples in the documentation:
//   - [Example] - registering a reader and publishing an update
//   - [Example_queue] - a producer and a consumer on the wait-free queue
package urcu
