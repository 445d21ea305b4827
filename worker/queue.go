// Package worker runs fire-and-forget tasks on a fixed pool of goroutines.
// A full queue drops the task instead of blocking the caller.
// file: worker/queue.go
package worker

import (
	"context"
	"sync"
	"sync/atomic"

	"go-event-checkin/logger"
)

// Task is one unit of background work.
type Task func(ctx context.Context)

type job struct {
	name string
	run  Task
}

// Queue is a bounded task channel drained by N workers.
type Queue struct {
	jobs chan job
	wg   sync.WaitGroup

	mu     sync.RWMutex
	closed bool

	ctx    context.Context
	cancel context.CancelFunc

	dropped atomic.Int64
	done    atomic.Int64
}

// New starts workers goroutines reading from a queue of the given size.
func New(workers, size int) *Queue {
	if workers < 1 {
		workers = 1
	}
	if size < 1 {
		size = 1
	}
	ctx, cancel := context.WithCancel(context.Background())
	q := &Queue{
		jobs:   make(chan job, size),
		ctx:    ctx,
		cancel: cancel,
	}
	q.wg.Add(workers)
	for i := 0; i < workers; i++ {
		go q.loop(i)
	}
	logger.Info.Printf("[worker] started %d workers (queue=%d)", workers, size)
	return q
}

func (q *Queue) loop(id int) {
	defer q.wg.Done()
	for j := range q.jobs {
		q.run(id, j)
	}
}

func (q *Queue) run(id int, j job) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error.Printf("[worker %d] task %s panicked: %v", id, j.name, r)
		}
		q.done.Add(1)
	}()
	j.run(q.ctx)
}

// Submit enqueues task without blocking. It returns false when the queue is
// full or closed; the task is then dropped and logged.
func (q *Queue) Submit(name string, task Task) bool {
	q.mu.RLock()
	defer q.mu.RUnlock()
	if q.closed {
		logger.Warn.Printf("[worker] queue closed, dropping task %s", name)
		q.dropped.Add(1)
		return false
	}
	select {
	case q.jobs <- job{name: name, run: task}:
		return true
	default:
		logger.Warn.Printf("[worker] queue full, dropping task %s", name)
		q.dropped.Add(1)
		return false
	}
}

// Pending is the number of queued tasks not yet picked up.
func (q *Queue) Pending() int { return len(q.jobs) }

// Dropped is the number of tasks rejected by Submit.
func (q *Queue) Dropped() int64 { return q.dropped.Load() }

// Completed is the number of tasks that have finished running.
func (q *Queue) Completed() int64 { return q.done.Load() }

// Close stops accepting tasks and waits for queued ones to finish, or for ctx
// to expire. Tasks still running after ctx expires see their context cancelled.
func (q *Queue) Close(ctx context.Context) error {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return nil
	}
	q.closed = true
	close(q.jobs)
	q.mu.Unlock()

	finished := make(chan struct{})
	go func() {
		q.wg.Wait()
		close(finished)
	}()

	select {
	case <-finished:
		q.cancel()
		return nil
	case <-ctx.Done():
		q.cancel()
		return ctx.Err()
	}
}
