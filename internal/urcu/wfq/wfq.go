// Package wfq implements the wait-free multi-producer, single-consumer
// queue urcu's wfqueue.h describes: enqueue is a single atomic pointer
// exchange plus a release store, with no locking and no retry loop.
// Dequeue is blocking and takes an internal lock, since a single-consumer
// queue gains nothing from a lock-free dequeue and the adaptive
// spin-then-sleep wait needs somewhere to serialize multiple waiting
// consumers.
package wfq

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/kolkov/urcu/internal/urcu/mo"
)

const (
	// adaptAttempts is WFQ_ADAPT_ATTEMPTS: how many times Dequeue spins
	// on an empty-but-in-flight node before falling back to sleeping.
	adaptAttempts = 10

	// waitStep is WFQ_WAIT: how long Dequeue sleeps between spin
	// bursts once it gives up on pure spinning.
	waitStep = 10 * time.Millisecond
)

// Node is one queue element. Callers embed Node as the first field of
// their payload type and recover the payload with an unsafe.Pointer
// conversion of the *Node, the same convention wfqueue.h's container_of
// macro expresses in C; the root urcu package's Node[T] does exactly this.
type Node struct {
	next atomic.Pointer[Node]
}

// Queue is a wait-free MPSC queue of *Node values. The zero Queue is not
// ready to use; call NewQueue.
type Queue struct {
	mu    sync.Mutex
	head  *Node
	tail  atomic.Pointer[Node]
	dummy Node
	depth atomic.Int64
}

// NewQueue returns an empty, ready-to-use queue.
func NewQueue() *Queue {
	q := &Queue{}
	q.head = &q.dummy
	q.tail.Store(&q.dummy)
	return q
}

// Enqueue adds n to the tail of the queue. Wait-free: a single atomic
// exchange establishes n as the new tail, and a release store publishes
// the link from the old tail, mirroring wfq_enqueue exactly. Safe to call
// from any number of concurrent producer goroutines.
func (q *Queue) Enqueue(n *Node) {
	n.next.Store(nil)
	old := mo.ExchangePointer(&q.tail, n)
	old.next.Store(n)
	q.depth.Add(1)
}

// Depth reports the approximate number of nodes currently enqueued.
// Diagnostic only: with concurrent producers the value can be stale by
// the time a caller observes it.
func (q *Queue) Depth() int64 {
	return q.depth.Load()
}

// DequeueBlocking removes and returns the node at the head of the queue.
// If the queue is genuinely empty — nothing enqueued and no enqueue in
// flight — it returns (nil, false) immediately instead of blocking,
// exactly as wfqueue.h's own dequeue checks emptiness before ever
// spinning. If an Enqueue is in flight (its tail exchange has completed
// but its link store hasn't yet), DequeueBlocking blocks for that
// producer to finish publishing, since the node, and so the eventual
// result, already exists. Only ever safe to call from a single consumer
// goroutine at a time; concurrent callers serialize on an internal lock
// but the queue's single-consumer contract still applies to ordering
// guarantees.
func (q *Queue) DequeueBlocking() (*Node, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.dequeueLocked()
}

// dequeueLocked implements __wfq_dequeue_blocking. The lock is held by
// the caller for the whole call, including the retry after requeuing the
// dummy node, just as wfq_dequeue_blocking holds its mutex across the
// same recursion in the C original.
func (q *Queue) dequeueLocked() (*Node, bool) {
	for {
		node := q.head
		if node == &q.dummy && q.tail.Load() == &q.dummy {
			// head == tail == &dummy: nothing has been enqueued
			// and none is in flight. wfqueue.h checks exactly this
			// pair before spinning; report empty rather than
			// blocking forever.
			return nil, false
		}

		next := q.waitForNext(node)

		q.head = next
		if node == &q.dummy {
			// The node we just consumed was the sentinel: requeue
			// it and retry, exactly as __wfq_dequeue_blocking does,
			// so callers never observe the dummy as a result. Not
			// counted against depth: the dummy never holds caller
			// data.
			q.dummy.next.Store(nil)
			old := mo.ExchangePointer(&q.tail, &q.dummy)
			old.next.Store(&q.dummy)
			continue
		}
		q.depth.Add(-1)
		return node, true
	}
}

// waitForNext blocks until node.next is non-nil, using the same
// adaptive spin-then-sleep policy as wfqueue.h: spin with a relax hint
// for adaptAttempts iterations, then alternate short sleeps and spin
// bursts until a producer's Enqueue publishes the link.
func (q *Queue) waitForNext(node *Node) *Node {
	for {
		for i := 0; i < adaptAttempts; i++ {
			if next := node.next.Load(); next != nil {
				return next
			}
			mo.Relax()
		}
		if next := node.next.Load(); next != nil {
			return next
		}
		time.Sleep(waitStep)
	}
}
