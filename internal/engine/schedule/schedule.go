// Package schedule coalesces redraw requests and queues work for the
// graphics thread.
package schedule

import (
	"sync"
	"sync/atomic"
)

// Scheduler is shared between any goroutine that wants a frame or needs
// to touch GPU state, and the graphics thread that serves them.
type Scheduler struct {
	mu    sync.Mutex
	queue []func()
	dirty atomic.Bool
	wake  func()
}

// New creates a Scheduler. wake is called, from the requesting goroutine,
// whenever the graphics thread has something new to do. It may be nil.
func New(wake func()) *Scheduler {
	if wake == nil {
		wake = func() {}
	}
	return &Scheduler{wake: wake}
}

// RequestRedraw marks a frame as due. Requests before the next TakeRedraw
// coalesce, and only the first of them wakes the graphics thread.
func (s *Scheduler) RequestRedraw() {
	if s.dirty.CompareAndSwap(false, true) {
		s.wake()
	}
}

// TakeRedraw reports whether a frame is due and clears the request.
func (s *Scheduler) TakeRedraw() bool {
	return s.dirty.Swap(false)
}

// ScheduleOnGraphicsThread queues fn for the next RunQueued.
func (s *Scheduler) ScheduleOnGraphicsThread(fn func()) {
	s.mu.Lock()
	s.queue = append(s.queue, fn)
	s.mu.Unlock()
	s.wake()
}

// RunQueued runs every queued function in order and returns how many ran.
// Functions queued while running wait for the next call.
func (s *Scheduler) RunQueued() int {
	s.mu.Lock()
	queue := s.queue
	s.queue = nil
	s.mu.Unlock()

	for _, fn := range queue {
		fn()
	}
	return len(queue)
}
