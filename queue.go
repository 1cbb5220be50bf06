package urcu

import (
	"unsafe"

	"github.com/kolkov/urcu/internal/urcu/wfq"
)

// Node is a caller-owned queue element holding a Value of type T.
// Embedding wfq.Node as the first field lets DequeueBlocking recover the
// payload from the *wfq.Node the underlying queue hands back with a
// single unsafe.Pointer conversion, the same container_of convention
// wfqueue.h's C macro expresses; see internal/urcu/wfq's doc comment.
//
// Most callers never need Node directly: Queue.Enqueue allocates one per
// call. NewNode exists for callers that want to preallocate or reuse a
// node across enqueues, mirroring wfq_node_init in the original.
type Node[T any] struct {
	wfq.Node
	Value T
}

// NewNode returns a new, unenqueued node holding v. The node must not be
// enqueued into more than one queue, and not enqueued again until it has
// been dequeued.
func NewNode[T any](v T) *Node[T] {
	return &Node[T]{Value: v}
}

// Queue is a wait-free multi-producer, single-consumer queue of values of
// type T. The zero Queue is not ready to use; call NewQueue.
type Queue[T any] struct {
	inner *wfq.Queue
}

// NewQueue returns an empty, ready-to-use queue.
func NewQueue[T any]() *Queue[T] {
	return &Queue[T]{inner: wfq.NewQueue()}
}

// Enqueue adds v to the tail of the queue. Wait-free; safe to call from
// any number of concurrent producer goroutines.
func (q *Queue[T]) Enqueue(v T) {
	q.EnqueueNode(NewNode(v))
}

// EnqueueNode adds a preallocated node to the tail of the queue. Wait-
// free; safe to call from any number of concurrent producer goroutines.
func (q *Queue[T]) EnqueueNode(n *Node[T]) {
	q.inner.Enqueue(&n.Node)
}

// DequeueBlocking removes and returns the value at the head of the
// queue. If the queue is empty and no enqueue is in flight, it returns
// the zero value and false immediately instead of blocking; if an
// enqueue is in flight it blocks until that producer publishes its node.
// Only ever safe to call from a single consumer goroutine at a time.
func (q *Queue[T]) DequeueBlocking() (T, bool) {
	n, ok := q.inner.DequeueBlocking()
	if !ok {
		var zero T
		return zero, false
	}
	return (*Node[T])(unsafe.Pointer(n)).Value, true
}

// Depth reports the approximate number of values currently enqueued.
// Diagnostic only.
func (q *Queue[T]) Depth() int64 {
	return q.inner.Depth()
}
