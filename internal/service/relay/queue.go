package relay

import "sync"

// queue runs transcript operations one at a time, in submission order, on a
// single goroutine. Once closed, submitted work runs inline on the caller.
type queue struct {
	mu     sync.Mutex
	jobs   chan func()
	closed bool
	done   chan struct{}
}

func newQueue(size int) *queue {
	q := &queue{
		jobs: make(chan func(), size),
		done: make(chan struct{}),
	}
	go q.run()
	return q
}

func (q *queue) run() {
	defer close(q.done)
	for job := range q.jobs {
		job()
	}
}

// Go submits fn without waiting for it.
func (q *queue) Go(fn func()) {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		fn()
		return
	}
	q.jobs <- fn
	q.mu.Unlock()
}

// Do submits fn and waits until it has run, which also means every job
// submitted before it has finished.
func (q *queue) Do(fn func()) {
	finished := make(chan struct{})
	q.Go(func() {
		defer close(finished)
		fn()
	})
	<-finished
}

// Close stops accepting jobs and waits for the queued ones to drain.
func (q *queue) Close() {
	q.mu.Lock()
	if !q.closed {
		q.closed = true
		close(q.jobs)
	}
	q.mu.Unlock()
	<-q.done
}
