package backup

import (
	"context"
	"sync"
	"time"
)

// Scheduler calls a function periodically on its own goroutine. It is owned
// by whoever starts it; after Stop returns the function never runs again.
type Scheduler struct {
	every time.Duration
	fn    func(context.Context)

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// NewScheduler returns a stopped Scheduler that runs fn every period.
func NewScheduler(every time.Duration, fn func(context.Context)) *Scheduler {
	return &Scheduler{every: every, fn: fn}
}

// Start begins ticking. Starting a running scheduler restarts its timer.
func (s *Scheduler) Start(ctx context.Context) {
	s.Stop()

	s.mu.Lock()
	defer s.mu.Unlock()

	runCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	s.cancel = cancel
	s.done = done

	go func() {
		defer close(done)
		ticker := time.NewTicker(s.every)
		defer ticker.Stop()
		for {
			select {
			case <-runCtx.Done():
				return
			case <-ticker.C:
				if runCtx.Err() != nil {
					return
				}
				s.fn(runCtx)
			}
		}
	}()
}

// Stop cancels the timer and waits for an in-flight call to finish.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	cancel, done := s.cancel, s.done
	s.cancel, s.done = nil, nil
	s.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
}

// Running reports whether the scheduler has been started and not stopped.
func (s *Scheduler) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cancel != nil
}
