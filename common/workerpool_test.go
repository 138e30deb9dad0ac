package common

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func waitDone(t *testing.T, done <-chan struct{}) {
	t.Helper()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("task did not finish")
	}
}

func TestWorkerPool(t *testing.T) {
	requests := []string{"alpha", "beta", "gamma", "delta", "epsilon"}
	wp := NewWorkerPool(3, len(requests))
	defer wp.Close()
	for i := 0; i < 1000; i++ {
		rspChan := make(chan string, len(requests))
		var pending []<-chan struct{}
		for _, r := range requests {
			r := r
			done, err := wp.TrySubmit(func() {
				rspChan <- r
			})
			require.NoError(t, err)
			pending = append(pending, done)
		}
		for _, done := range pending {
			waitDone(t, done)
		}

		close(rspChan)
		rspSet := map[string]struct{}{}
		for rsp := range rspChan {
			rspSet[rsp] = struct{}{}
		}
		if len(rspSet) < len(requests) {
			t.Fatal("Did not handle all requests")
		}
		for _, req := range requests {
			if _, ok := rspSet[req]; !ok {
				t.Fatal("Missing expected values:", req)
			}
		}
	}
}

func TestWorkerPoolDoneChannel(t *testing.T) {
	wp := NewWorkerPool(2, 4)
	defer wp.Close()

	var ran int32
	done, err := wp.TrySubmit(func() {
		time.Sleep(20 * time.Millisecond)
		atomic.StoreInt32(&ran, 1)
	})
	require.NoError(t, err)
	waitDone(t, done)
	assert.Equal(t, int32(1), atomic.LoadInt32(&ran))
}

func TestWorkerPoolPanicStillCompletes(t *testing.T) {
	wp := NewWorkerPool(1, 1)
	defer wp.Close()

	done, err := wp.TrySubmit(func() { panic("boom") })
	require.NoError(t, err)
	waitDone(t, done)

	// the worker survived the panic
	var ran int32
	done, err = wp.TrySubmit(func() { atomic.StoreInt32(&ran, 1) })
	require.NoError(t, err)
	waitDone(t, done)
	assert.Equal(t, int32(1), atomic.LoadInt32(&ran))
}

func TestWorkerPoolStopWait(t *testing.T) {
	wp := NewWorkerPool(2, 8)
	var count int32
	for i := 0; i < 8; i++ {
		_, err := wp.TrySubmit(func() {
			time.Sleep(5 * time.Millisecond)
			atomic.AddInt32(&count, 1)
		})
		require.NoError(t, err)
	}
	wp.Close()
	assert.Equal(t, int32(8), atomic.LoadInt32(&count))

	_, err := wp.TrySubmit(func() {})
	assert.ErrorIs(t, err, ErrorStopped)
}

func TestWorkerPoolTrySubmit(t *testing.T) {
	wp := NewWorkerPool(1, 1)
	defer wp.Close()

	release := make(chan struct{})
	started := make(chan struct{})
	_, err := wp.TrySubmit(func() {
		close(started)
		<-release
	})
	require.NoError(t, err)
	<-started

	// the worker is busy, one slot left in the queue
	queued, err := wp.TrySubmit(func() {})
	require.NoError(t, err)
	_, err = wp.TrySubmit(func() {})
	assert.ErrorIs(t, err, ErrorQueueFull)

	close(release)
	waitDone(t, queued)
}
