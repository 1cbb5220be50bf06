package wfq

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"github.com/kolkov/urcu/internal/urcu/mo"
)

type payload struct {
	Node
	value int
}

func TestEnqueueDequeuePreservesOrderAndValues(t *testing.T) {
	q := NewQueue()
	nodes := make([]*payload, 5)
	for i := range nodes {
		nodes[i] = &payload{value: i}
		q.Enqueue(&nodes[i].Node)
	}

	for i, want := range nodes {
		got, ok := q.DequeueBlocking()
		require.True(t, ok)
		require.Same(t, &want.Node, got, "dequeue order must match enqueue order")
		gotPayload := (*payload)(nil)
		for _, n := range nodes {
			if &n.Node == got {
				gotPayload = n
			}
		}
		require.NotNil(t, gotPayload)
		assert.Equal(t, i, gotPayload.value)
	}
}

// TestDequeueBlockingReturnsFalseOnEmptyQueue is the S5/spec.md §4.4
// "empty" property: a queue with nothing enqueued and no enqueue in
// flight must report empty immediately, not block.
func TestDequeueBlockingReturnsFalseOnEmptyQueue(t *testing.T) {
	q := NewQueue()

	done := make(chan struct {
		node *Node
		ok   bool
	}, 1)
	go func() {
		node, ok := q.DequeueBlocking()
		done <- struct {
			node *Node
			ok   bool
		}{node, ok}
	}()

	select {
	case result := <-done:
		assert.False(t, result.ok)
		assert.Nil(t, result.node)
	case <-time.After(time.Second):
		t.Fatal("DequeueBlocking blocked on a genuinely empty queue instead of reporting empty")
	}
}

// TestDequeueBlocksOnInFlightEnqueue exercises the other half of that
// same distinction: once a producer's tail exchange has completed but
// its link store hasn't landed yet, the queue is no longer "empty" in
// the sense DequeueBlocking reports — a dequeuer must wait for that
// enqueue to finish publishing rather than report empty.
func TestDequeueBlocksOnInFlightEnqueue(t *testing.T) {
	q := NewQueue()
	n := &payload{value: 7}

	// Replicate Enqueue's first step only: the atomic tail exchange.
	// Withholding the second step (publishing old.next) simulates the
	// window a concurrent producer's Enqueue passes through.
	old := mo.ExchangePointer(&q.tail, &n.Node)
	require.Same(t, &q.dummy, old)

	done := make(chan struct {
		node *Node
		ok   bool
	}, 1)
	go func() {
		node, ok := q.DequeueBlocking()
		done <- struct {
			node *Node
			ok   bool
		}{node, ok}
	}()

	select {
	case <-done:
		t.Fatal("DequeueBlocking returned before the in-flight enqueue published its link")
	case <-time.After(50 * time.Millisecond):
	}

	old.next.Store(&n.Node)

	select {
	case result := <-done:
		assert.True(t, result.ok)
		assert.Same(t, &n.Node, result.node)
	case <-time.After(2 * time.Second):
		t.Fatal("DequeueBlocking did not wake up after the link was published")
	}
}

func TestMultiProducerSingleConsumerPreservesAllItems(t *testing.T) {
	q := NewQueue()
	const producers = 8
	const perProducer = 200
	const total = producers * perProducer

	var g errgroup.Group
	for p := 0; p < producers; p++ {
		p := p
		g.Go(func() error {
			for i := 0; i < perProducer; i++ {
				n := &payload{value: p*perProducer + i}
				q.Enqueue(&n.Node)
			}
			return nil
		})
	}
	require.NoError(t, g.Wait())

	for i := 0; i < total; i++ {
		_, ok := q.DequeueBlocking()
		require.True(t, ok)
	}

	_, ok := q.DequeueBlocking()
	assert.False(t, ok, "queue must report empty once every enqueued item has been dequeued")
}

func TestQueueSurvivesDummyRequeue(t *testing.T) {
	// Dequeuing down to empty and then enqueuing again exercises the
	// dummy-node requeue-and-recurse path in dequeueLocked more than
	// once on the same queue.
	q := NewQueue()
	for round := 0; round < 3; round++ {
		p := &payload{value: round}
		q.Enqueue(&p.Node)
		got, ok := q.DequeueBlocking()
		require.True(t, ok)
		assert.Same(t, &p.Node, got)
	}
}
