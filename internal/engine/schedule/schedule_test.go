package schedule

import (
	"sync"
	"sync/atomic"
	"testing"
)

func TestRedrawCoalesces(t *testing.T) {
	var wakes atomic.Int32
	s := New(func() { wakes.Add(1) })

	for i := 0; i < 10; i++ {
		s.RequestRedraw()
	}

	if wakes.Load() != 1 {
		t.Errorf("expected one wake for coalesced requests, got %d", wakes.Load())
	}
	if !s.TakeRedraw() {
		t.Fatal("expected a redraw to be due")
	}
	if s.TakeRedraw() {
		t.Error("expected the request to be consumed")
	}

	s.RequestRedraw()
	if wakes.Load() != 2 || !s.TakeRedraw() {
		t.Error("expected a new request after the frame")
	}
}

func TestRedrawConcurrent(t *testing.T) {
	var wakes atomic.Int32
	s := New(func() { wakes.Add(1) })

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				s.RequestRedraw()
			}
		}()
	}
	wg.Wait()

	if wakes.Load() != 1 {
		t.Errorf("expected one wake, got %d", wakes.Load())
	}
}

func TestRunQueuedInOrder(t *testing.T) {
	var wakes atomic.Int32
	s := New(func() { wakes.Add(1) })

	var got []int
	for i := 0; i < 3; i++ {
		s.ScheduleOnGraphicsThread(func() { got = append(got, i) })
	}
	if len(s.queue) != 3 || wakes.Load() != 3 {
		t.Errorf("expected 3 pending and 3 wakes, got %d and %d", len(s.queue), wakes.Load())
	}

	if n := s.RunQueued(); n != 3 {
		t.Errorf("expected 3 functions run, got %d", n)
	}
	for i, v := range got {
		if v != i {
			t.Errorf("expected order 0,1,2, got %v", got)
			break
		}
	}
	if s.RunQueued() != 0 {
		t.Error("expected an empty queue")
	}
}

func TestRunQueuedDefersNewWork(t *testing.T) {
	s := New(nil)

	ran := 0
	s.ScheduleOnGraphicsThread(func() {
		ran++
		s.ScheduleOnGraphicsThread(func() { ran++ })
	})

	s.RunQueued()
	if ran != 1 || len(s.queue) != 1 {
		t.Errorf("expected work queued during a run to wait, ran=%d pending=%d", ran, len(s.queue))
	}
	s.RunQueued()
	if ran != 2 {
		t.Errorf("expected the deferred work to run, ran=%d", ran)
	}
}
