package app

import (
	"context"
	"log"
	"sync"
	"time"
)

// StaleResetter is the slice of UserStore the scheduler needs.
type StaleResetter interface {
	ResetAllStale(ctx context.Context, today time.Time) (int64, error)
}

const (
	// resetWindow is how long after UTC midnight a wake-up still counts as
	// the midnight reset.
	resetWindow = 5 * time.Minute
	// sweepBackoff is the retry delay after a failed sweep.
	sweepBackoff = 5 * time.Minute
	// maxSleep keeps the loop responsive to cancellation and clock drift.
	maxSleep = time.Hour
)

// ResetScheduler proactively resets daily quotas shortly after UTC midnight
// so idle users see fresh quotas without visiting first. It is advisory: the
// engine's reset-on-read keeps quota state correct even if this loop never
// runs. One instance per process; Start is idempotent and Stop waits for the
// loop to exit.
type ResetScheduler struct {
	store StaleResetter
	now   func() time.Time

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

func NewResetScheduler(store StaleResetter) *ResetScheduler {
	return &ResetScheduler{store: store, now: time.Now}
}

// Start launches the background loop. Calling Start on a running scheduler
// is a no-op.
func (s *ResetScheduler) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.done = make(chan struct{})
	go s.run(ctx, s.done)
	log.Printf("daily reset scheduler started")
}

// Stop cancels the loop and blocks until it has exited. Safe to call when
// not running.
func (s *ResetScheduler) Stop() {
	s.mu.Lock()
	cancel, done := s.cancel, s.done
	s.cancel, s.done = nil, nil
	s.mu.Unlock()
	if cancel == nil {
		return
	}
	cancel()
	<-done
	log.Printf("daily reset scheduler stopped")
}

func (s *ResetScheduler) run(ctx context.Context, done chan struct{}) {
	defer close(done)
	for {
		now := s.now().UTC()
		if inResetWindow(now) {
			if !s.sweep(ctx, now) {
				if !sleepCtx(ctx, sweepBackoff) {
					return
				}
				continue
			}
		}

		sleep := nextMidnightUTC(now).Sub(now)
		if sleep > maxSleep {
			sleep = maxSleep
		}
		if !sleepCtx(ctx, sleep) {
			return
		}

		woke := s.now().UTC()
		if inResetWindow(woke) {
			if !s.sweep(ctx, woke) {
				if !sleepCtx(ctx, sweepBackoff) {
					return
				}
			}
		}
	}
}

// sweep resets every stale user record. Returns false on failure so the
// caller can back off; a failed cycle never terminates the loop.
func (s *ResetScheduler) sweep(ctx context.Context, now time.Time) bool {
	n, err := s.store.ResetAllStale(ctx, dateUTC(now))
	if err != nil {
		log.Printf("daily reset sweep failed: %v", err)
		return false
	}
	log.Printf("daily reset sweep completed, %d users reset", n)
	return true
}

// sleepCtx sleeps for d or until ctx is canceled; false means canceled.
func sleepCtx(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}

func inResetWindow(t time.Time) bool {
	return t.Hour() == 0 && t.Sub(dateUTC(t)) < resetWindow
}

func nextMidnightUTC(t time.Time) time.Time {
	return dateUTC(t).Add(24 * time.Hour)
}
