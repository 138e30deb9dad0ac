package common

import (
	"errors"
	"runtime"
	"runtime/debug"
	"sync"
	"sync/atomic"

	"github.com/housepower/redwatch/log"
)

const (
	StateRunning uint32 = 0
	StateStopped uint32 = 1
)

var (
	MaxWorkersDefault int = MaxInt(runtime.NumCPU(), 4)

	// ErrorStopped when stopped
	ErrorStopped = errors.New("WorkerPool already stopped")
	// ErrorQueueFull when TrySubmit finds no room
	ErrorQueueFull = errors.New("WorkerPool queue is full")
)

// WorkerPool is a bounded worker pool inspired by https://github.com/gammazero/workerpool/
// Every submitted task reports completion through its own channel so callers
// can wait for it with a deadline of their choosing.
type WorkerPool struct {
	inNums  uint64
	outNums uint64

	maxWorkers int
	workChan   chan func()

	taskDone *sync.Cond
	once     sync.Once
	state    uint32
	sync.Mutex
}

// NewWorkerPool creates and starts a pool of worker goroutines.
func NewWorkerPool(maxWorkers int, queueSize int) *WorkerPool {
	if maxWorkers <= 0 {
		maxWorkers = MaxWorkersDefault
	}
	w := &WorkerPool{
		maxWorkers: maxWorkers,
		workChan:   make(chan func(), queueSize),
	}
	w.taskDone = sync.NewCond(w)
	for i := 0; i < w.maxWorkers; i++ {
		go w.workerFunc()
	}
	return w
}

func (w *WorkerPool) workerFunc() {
	for fn := range w.workChan {
		runFunc(fn)
		w.Lock()
		w.outNums++
		if w.inNums == w.outNums {
			w.taskDone.Broadcast()
		}
		w.Unlock()
	}
}

func runFunc(fn func()) {
	defer func() {
		if err := recover(); err != nil {
			log.Logger.Errorf("err:%v\n%v", err, string(debug.Stack()))
		}
	}()
	fn()
}

// TrySubmit enqueues fn without blocking. The returned channel is closed once
// fn has run, even if it panicked. It fails with ErrorQueueFull when every
// worker is busy and the queue has no room left.
func (w *WorkerPool) TrySubmit(fn func()) (<-chan struct{}, error) {
	w.Lock()
	defer w.Unlock()
	if atomic.LoadUint32(&w.state) == StateStopped {
		return nil, ErrorStopped
	}
	done := make(chan struct{})
	task := func() {
		defer close(done)
		fn()
	}
	select {
	case w.workChan <- task:
		w.inNums++
		return done, nil
	default:
		return nil, ErrorQueueFull
	}
}

// StopWait stops accepting tasks and waits for all queued tasks to complete.
func (w *WorkerPool) StopWait() {
	w.Lock()
	defer w.Unlock()
	atomic.StoreUint32(&w.state, StateStopped)
	for w.inNums != w.outNums {
		w.taskDone.Wait()
	}
}

func (w *WorkerPool) Close() {
	w.StopWait()
	w.once.Do(func() {
		close(w.workChan)
	})
}
