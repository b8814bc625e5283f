// Package workerpool provides a bounded goroutine pool with backpressure.
//
// The pool bounds how many uploaded images are decoded and resized at once.
// SubmitWait blocks while the queue is full.
//
//	pool := workerpool.New(4)
//	defer pool.Shutdown()
//
//	pool.RunAll(func() { resize(a) }, func() { resize(b) })
package workerpool

import (
	"errors"
	"fmt"
	"sync"

	"github.com/shashiranjanraj/stockroom/pkg/logger"
)

// ErrPoolClosed is returned by SubmitWait after Shutdown has been called.
var ErrPoolClosed = errors.New("workerpool: pool is closed")

// Pool is a bounded goroutine pool.
type Pool struct {
	tasks chan func()
	wg    sync.WaitGroup
	once  sync.Once

	// mu guards closed and the send side of tasks; senders hold it shared.
	mu     sync.RWMutex
	closed bool
}

// New creates a Pool with the given number of workers.
func New(size int) *Pool {
	if size <= 0 {
		size = 1
	}

	p := &Pool{
		// Buffer equal to 2× the worker count so bursts can be absorbed.
		tasks: make(chan func(), size*2),
	}

	for i := 0; i < size; i++ {
		p.wg.Add(1)
		go p.worker()
	}

	return p
}

// SubmitWait enqueues task, blocking until a queue slot is available.
// Returns ErrPoolClosed if the pool is shutting down.
func (p *Pool) SubmitWait(task func()) error {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return ErrPoolClosed
	}
	p.tasks <- task
	return nil
}

// RunAll runs every task on the pool and blocks until all have finished.
// Tasks that cannot be queued because the pool is closed run on the
// calling goroutine instead, so RunAll always completes the work.
func (p *Pool) RunAll(tasks ...func()) {
	var wg sync.WaitGroup
	for _, task := range tasks {
		wg.Add(1)
		wrapped := func() {
			defer wg.Done()
			task()
		}
		if err := p.SubmitWait(wrapped); err != nil {
			safeRun(wrapped)
		}
	}
	wg.Wait()
}

// Shutdown stops accepting new tasks, waits for all in-flight tasks to
// complete, and releases all worker goroutines.
// It is safe to call multiple times.
func (p *Pool) Shutdown() {
	p.once.Do(func() {
		p.mu.Lock()
		p.closed = true
		close(p.tasks)
		p.mu.Unlock()
		p.wg.Wait()
	})
}

// worker drains the task channel until it is closed.
func (p *Pool) worker() {
	defer p.wg.Done()
	for task := range p.tasks {
		safeRun(task)
	}
}

// safeRun executes task, recovering from panics so a bad task doesn't kill
// the worker goroutine.
func safeRun(task func()) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("workerpool: task panicked", "error", fmt.Sprint(r))
		}
	}()
	task()
}
