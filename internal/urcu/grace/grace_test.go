package grace

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
)

func TestReadLockSetsAndReadUnlockClearsActiveWord(t *testing.T) {
	e := NewEngine()
	r := e.Register()
	defer r.Unregister()

	r.ReadLock()
	assert.NotZero(t, r.entry.Active.Load())
	r.ReadUnlock()
	assert.Zero(t, r.entry.Active.Load())
}

func TestNestedReadLockTracksDepth(t *testing.T) {
	e := NewEngine()
	r := e.Register()
	defer r.Unregister()

	r.ReadLock()
	r.ReadLock()
	r.ReadLock()
	assert.Equal(t, uint64(3), r.entry.Active.Load()&nestMask)
	r.ReadUnlock()
	r.ReadUnlock()
	assert.NotZero(t, r.entry.Active.Load())
	r.ReadUnlock()
	assert.Zero(t, r.entry.Active.Load())
}

func TestSynchronizeReturnsImmediatelyWithNoReaders(t *testing.T) {
	e := NewEngine()
	done := make(chan struct{})
	go func() {
		e.Synchronize()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Synchronize did not return with no registered readers")
	}
}

// TestSynchronizeWaitsForActiveReader is the core grace-period property:
// a writer's Synchronize call must not return while a reader that was
// active when it started is still inside its critical section.
func TestSynchronizeWaitsForActiveReader(t *testing.T) {
	e := NewEngine()
	r := e.Register()

	r.ReadLock()

	syncDone := make(chan struct{})
	go func() {
		e.Synchronize()
		close(syncDone)
	}()

	select {
	case <-syncDone:
		t.Fatal("Synchronize returned while a reader was still in its critical section")
	case <-time.After(50 * time.Millisecond):
	}

	r.ReadUnlock()
	r.Checkpoint()

	select {
	case <-syncDone:
	case <-time.After(2 * time.Second):
		t.Fatal("Synchronize did not return after the reader left its critical section")
	}

	r.Unregister()
}

func TestSynchronizeDoesNotWaitForReaderThatEnteredAfter(t *testing.T) {
	e := NewEngine()
	r1 := e.Register()
	defer r1.Unregister()

	// r1 holds a read lock so Synchronize is still running, past its
	// first parity flip, when r2 starts registering.
	r1.ReadLock()

	syncDone := make(chan struct{})
	go func() {
		e.Synchronize()
		close(syncDone)
	}()
	for e.gp.Load()&parityBit == 0 {
		time.Sleep(time.Millisecond)
	}

	r2Done := make(chan struct{})
	defer close(r2Done)
	go func() {
		r2 := e.Register()
		defer r2.Unregister()
		r2.ReadLock()
		<-r2Done
		r2.ReadUnlock()
	}()

	r1.ReadUnlock()

	select {
	case <-syncDone:
	case <-time.After(2 * time.Second):
		t.Fatal("Synchronize waited for a reader that registered after it started")
	}
}

func TestConcurrentReadersAndWriters(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping hammer test in short mode")
	}

	e := NewEngine()
	var shared atomic.Uint64
	const readers = 16
	const writers = 4
	const iterations = 200

	var wg sync.WaitGroup
	stop := make(chan struct{})

	for i := 0; i < readers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			r := e.Register()
			defer r.Unregister()
			for {
				select {
				case <-stop:
					return
				default:
				}
				r.ReadLock()
				_ = shared.Load()
				r.ReadUnlock()
				r.Checkpoint()
			}
		}()
	}

	var g errgroup.Group
	for i := 0; i < writers; i++ {
		g.Go(func() error {
			for j := 0; j < iterations; j++ {
				shared.Add(1)
				e.Synchronize()
			}
			return nil
		})
	}
	require.NoError(t, g.Wait())
	close(stop)
	wg.Wait()
}

func TestOngoing(t *testing.T) {
	// Reader not in a critical section: never ongoing regardless of parity.
	assert.False(t, ongoing(0, 0))
	assert.False(t, ongoing(0, parityBit))

	// Reader entered during the gp's current parity: not "old", so the
	// grace period currently waiting on the opposite parity must not
	// treat it as ongoing.
	assert.False(t, ongoing(bias, 0))

	// Reader entered during the opposite parity: still ongoing.
	assert.True(t, ongoing(bias|parityBit, 0))
}
