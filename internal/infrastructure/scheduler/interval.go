package scheduler

import (
	"context"
	"sync"
	"time"

	"newsweave/internal/ports"
)

// IntervalScheduler runs a job immediately and then on a fixed period.
type IntervalScheduler struct {
	every    time.Duration
	stop     chan struct{}
	stopOnce sync.Once
}

var _ ports.Scheduler = (*IntervalScheduler)(nil)

// NewInterval builds a scheduler with the given period.
func NewInterval(every time.Duration) *IntervalScheduler {
	return &IntervalScheduler{every: every}
}

// Start begins ticking. The first run fires right away.
func (s *IntervalScheduler) Start(ctx context.Context, job func(time.Time)) error {
	if job == nil {
		return nil
	}

	if s.stop != nil {
		return nil
	}

	s.stop = make(chan struct{})
	go func() {
		ticker := time.NewTicker(s.every)
		defer ticker.Stop()
		job(time.Now())
		for {
			select {
			case t := <-ticker.C:
				job(t)
			case <-ctx.Done():
				return
			case <-s.stop:
				return
			}
		}
	}()

	return nil
}

// Stop halts the ticker goroutine. Safe to call more than once; the stop
// channel stays non-nil so the goroutine's pending receive always fires.
func (s *IntervalScheduler) Stop(ctx context.Context) error {
	if s.stop == nil {
		return nil
	}
	s.stopOnce.Do(func() { close(s.stop) })
	return nil
}
