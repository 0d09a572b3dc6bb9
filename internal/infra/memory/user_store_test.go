package memory

import (
	"context"
	"testing"
	"time"

	"daily-quiz-service/internal/domain"
)

func TestUserStoreTouchAndReset(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 8, 28, 10, 0, 0, 0, time.UTC)
	store := NewUserStoreWithClock(func() time.Time { return now })

	rec, err := store.TouchUser(ctx, 1, "alice")
	if err != nil {
		t.Fatalf("touch: %v", err)
	}
	if rec.Username != "alice" || rec.DailyCompleted != 0 {
		t.Fatalf("expected fresh record, got %+v", rec)
	}
	if !rec.LastResetDate.Equal(midnightUTC(now)) {
		t.Fatalf("expected reset date today, got %v", rec.LastResetDate)
	}

	if _, err := store.TouchUser(ctx, 1, "alice2"); err != nil {
		t.Fatalf("touch again: %v", err)
	}
	rec, _ = store.GetUser(ctx, 1)
	if rec.Username != "alice2" {
		t.Fatalf("expected username refresh, got %q", rec.Username)
	}

	tomorrow := midnightUTC(now).AddDate(0, 0, 1)
	if err := store.ResetDailyProgress(ctx, 1, tomorrow); err != nil {
		t.Fatalf("reset: %v", err)
	}
	rec, _ = store.GetUser(ctx, 1)
	if rec.DailyCompleted != 0 || !rec.LastResetDate.Equal(tomorrow) {
		t.Fatalf("expected reset to tomorrow, got %+v", rec)
	}

	if err := store.ResetDailyProgress(ctx, 99, tomorrow); err != domain.ErrUserNotFound {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}

func TestUserStoreCompleteSessionRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := NewUserStore()

	rec := domain.CompletedSessionRecord{
		SessionID:     "sess-1",
		UserID:        2,
		Mode:          domain.ModeDaily,
		Topic:         "",
		QuestionCount: 5,
		Score:         4,
		CompletedAt:   time.Date(2026, 8, 28, 11, 0, 0, 0, time.UTC),
	}
	if err := store.CompleteSession(ctx, rec, true); err != nil {
		t.Fatalf("complete: %v", err)
	}

	user, _ := store.GetUser(ctx, 2)
	if user.TotalAnswered != 5 || user.TotalCorrect != 4 || user.DailyCompleted != 5 {
		t.Fatalf("expected stats applied, got %+v", user)
	}
	if user.TotalCorrect > user.TotalAnswered {
		t.Fatalf("invariant violated: %+v", user)
	}

	got, err := store.GetCompletedSession(ctx, "sess-1")
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	if got.QuestionCount != rec.QuestionCount || got.Score != rec.Score || got.Mode != rec.Mode {
		t.Fatalf("round trip mismatch: %+v vs %+v", got, rec)
	}

	// Practice sessions leave the daily counter alone.
	practice := rec
	practice.SessionID = "sess-2"
	practice.Mode = domain.ModePractice
	if err := store.CompleteSession(ctx, practice, false); err != nil {
		t.Fatalf("complete practice: %v", err)
	}
	user, _ = store.GetUser(ctx, 2)
	if user.DailyCompleted != 5 || user.TotalAnswered != 10 {
		t.Fatalf("expected daily untouched by practice, got %+v", user)
	}
}

func TestUserStoreResetAllStale(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 8, 28, 0, 2, 0, 0, time.UTC)
	store := NewUserStoreWithClock(func() time.Time { return now })

	today := midnightUTC(now)
	store.SeedUser(domain.UserRecord{UserID: 1, DailyCompleted: 5, LastResetDate: today.AddDate(0, 0, -1)})
	store.SeedUser(domain.UserRecord{UserID: 2, DailyCompleted: 3, LastResetDate: today})

	n, err := store.ResetAllStale(ctx, today)
	if err != nil {
		t.Fatalf("reset all: %v", err)
	}
	if n != 1 {
		t.Fatalf("expected 1 stale user reset, got %d", n)
	}
	stale, _ := store.GetUser(ctx, 1)
	fresh, _ := store.GetUser(ctx, 2)
	if stale.DailyCompleted != 0 || fresh.DailyCompleted != 3 {
		t.Fatalf("expected only stale user reset: %+v %+v", stale, fresh)
	}
}
