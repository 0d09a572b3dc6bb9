package memory

import (
	"context"
	"sync"
	"time"

	"daily-quiz-service/internal/domain"
)

// UserStore is an in-memory implementation of app.UserStore for tests and
// database-less runs. It mirrors the postgres store's semantics, including
// the all-or-nothing CompleteSession write.
type UserStore struct {
	mu       sync.Mutex
	now      func() time.Time
	users    map[int64]*domain.UserRecord
	sessions map[string]domain.CompletedSessionRecord
}

func NewUserStore() *UserStore {
	return NewUserStoreWithClock(time.Now)
}

// NewUserStoreWithClock allows deterministic timestamps in tests.
func NewUserStoreWithClock(now func() time.Time) *UserStore {
	return &UserStore{
		now:      now,
		users:    make(map[int64]*domain.UserRecord),
		sessions: make(map[string]domain.CompletedSessionRecord),
	}
}

func (s *UserStore) GetUser(_ context.Context, userID int64) (*domain.UserRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.users[userID]
	if !ok {
		return nil, nil
	}
	copied := *rec
	return &copied, nil
}

func (s *UserStore) TouchUser(_ context.Context, userID int64, username string) (*domain.UserRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now().UTC()
	rec, ok := s.users[userID]
	if !ok {
		rec = &domain.UserRecord{
			UserID:        userID,
			Username:      username,
			LastResetDate: midnightUTC(now),
			CreatedAt:     now,
			UpdatedAt:     now,
		}
		s.users[userID] = rec
	} else {
		rec.Username = username
		rec.UpdatedAt = now
	}
	copied := *rec
	return &copied, nil
}

func (s *UserStore) ResetDailyProgress(_ context.Context, userID int64, today time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.users[userID]
	if !ok {
		return domain.ErrUserNotFound
	}
	rec.DailyCompleted = 0
	rec.LastResetDate = midnightUTC(today)
	rec.UpdatedAt = s.now().UTC()
	return nil
}

func (s *UserStore) CompleteSession(_ context.Context, rec domain.CompletedSessionRecord, countsTowardDaily bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now().UTC()
	user, ok := s.users[rec.UserID]
	if !ok {
		user = &domain.UserRecord{
			UserID:        rec.UserID,
			LastResetDate: midnightUTC(now),
			CreatedAt:     now,
		}
		s.users[rec.UserID] = user
	}
	user.TotalAnswered += rec.QuestionCount
	user.TotalCorrect += rec.Score
	if countsTowardDaily {
		user.DailyCompleted += rec.QuestionCount
	}
	user.UpdatedAt = now
	s.sessions[rec.SessionID] = rec
	return nil
}

func (s *UserStore) ResetAllStale(_ context.Context, today time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	day := midnightUTC(today)
	var n int64
	for _, rec := range s.users {
		if rec.LastResetDate.Before(day) {
			rec.DailyCompleted = 0
			rec.LastResetDate = day
			rec.UpdatedAt = s.now().UTC()
			n++
		}
	}
	return n, nil
}

// GetCompletedSession reads back an archived session for audit.
func (s *UserStore) GetCompletedSession(_ context.Context, sessionID string) (domain.CompletedSessionRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.sessions[sessionID]
	if !ok {
		return domain.CompletedSessionRecord{}, domain.ErrSessionNotFound
	}
	return rec, nil
}

// SeedUser installs a record directly, for tests that need a known state.
func (s *UserStore) SeedUser(rec domain.UserRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	copied := rec
	s.users[rec.UserID] = &copied
}

func midnightUTC(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
