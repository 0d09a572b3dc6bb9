package app

import (
	"context"
	"sync/atomic"
	"testing"
	"time"
)

func TestNextMidnightUTC(t *testing.T) {
	now := time.Date(2026, 8, 28, 23, 15, 0, 0, time.UTC)
	next := nextMidnightUTC(now)
	want := time.Date(2026, 8, 29, 0, 0, 0, 0, time.UTC)
	if !next.Equal(want) {
		t.Fatalf("expected %v, got %v", want, next)
	}
	if d := next.Sub(now); d != 45*time.Minute {
		t.Fatalf("expected 45m to midnight, got %v", d)
	}
}

func TestInResetWindow(t *testing.T) {
	cases := []struct {
		at   time.Time
		want bool
	}{
		{time.Date(2026, 8, 28, 0, 0, 1, 0, time.UTC), true},
		{time.Date(2026, 8, 28, 0, 4, 59, 0, time.UTC), true},
		{time.Date(2026, 8, 28, 0, 5, 0, 0, time.UTC), false},
		{time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC), false},
		{time.Date(2026, 8, 28, 23, 59, 59, 0, time.UTC), false},
	}
	for _, c := range cases {
		if got := inResetWindow(c.at); got != c.want {
			t.Fatalf("inResetWindow(%v) = %v, want %v", c.at, got, c.want)
		}
	}
}

func TestSchedulerStartStopLifecycle(t *testing.T) {
	store := &countingResetter{}
	s := NewResetScheduler(store)

	s.Start()
	s.Start() // idempotent
	s.Stop()  // must join the loop
	s.Stop()  // safe when stopped
}

func TestSchedulerSweepsInsideWindow(t *testing.T) {
	store := &countingResetter{}
	s := NewResetScheduler(store)
	// Freeze the clock just after midnight so the loop sweeps immediately.
	s.now = func() time.Time { return time.Date(2026, 8, 28, 0, 1, 0, 0, time.UTC) }

	s.Start()
	deadline := time.After(2 * time.Second)
	for atomic.LoadInt64(&store.calls) == 0 {
		select {
		case <-deadline:
			t.Fatalf("expected a sweep within the reset window")
		case <-time.After(10 * time.Millisecond):
		}
	}
	s.Stop()

	if day := store.lastDay.Load(); day == nil || !day.(time.Time).Equal(time.Date(2026, 8, 28, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("expected sweep for 2026-08-28, got %v", day)
	}
}

type countingResetter struct {
	calls   int64
	lastDay atomic.Value
}

func (c *countingResetter) ResetAllStale(_ context.Context, today time.Time) (int64, error) {
	atomic.AddInt64(&c.calls, 1)
	c.lastDay.Store(today)
	return 1, nil
}
