package handle

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAcquireReturnsDistinctHandles(t *testing.T) {
	id1, release1 := Acquire()
	defer release1()

	// Handles identify goroutines, so the second one is acquired by
	// another goroutine while both are held.
	ids := make(chan uint64)
	done := make(chan struct{})
	defer close(done)
	go func() {
		id2, release2 := Acquire()
		defer release2()
		ids <- id2
		<-done
	}()
	id2 := <-ids

	assert.NotEqual(t, id1, id2)
}

func TestAcquireReleaseIsSafeToCall(t *testing.T) {
	_, release := Acquire()
	assert.NotPanics(t, release)
}
