package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"daily-quiz-service/internal/domain"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
)

// UserStore is the Postgres implementation of app.UserStore. It is the
// single source of truth for quota state, aggregate statistics and the
// completed-session history.
type UserStore struct {
	pool *pgxpool.Pool
}

func NewUserStore(pool *pgxpool.Pool) *UserStore {
	return &UserStore{pool: pool}
}

func (s *UserStore) GetUser(ctx context.Context, userID int64) (*domain.UserRecord, error) {
	var rec domain.UserRecord
	err := s.pool.QueryRow(ctx, `
		SELECT user_id, username, daily_completed, last_reset_date,
		       total_answered, total_correct, created_at, updated_at
		FROM users WHERE user_id=$1`, userID).
		Scan(&rec.UserID, &rec.Username, &rec.DailyCompleted, &rec.LastResetDate,
			&rec.TotalAnswered, &rec.TotalCorrect, &rec.CreatedAt, &rec.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	return &rec, nil
}

func (s *UserStore) TouchUser(ctx context.Context, userID int64, username string) (*domain.UserRecord, error) {
	var rec domain.UserRecord
	err := s.pool.QueryRow(ctx, `
		INSERT INTO users (user_id, username, daily_completed, last_reset_date,
		                   total_answered, total_correct, created_at, updated_at)
		VALUES ($1, $2, 0, (now() AT TIME ZONE 'utc')::date, 0, 0, now(), now())
		ON CONFLICT (user_id)
		DO UPDATE SET username = EXCLUDED.username, updated_at = now()
		RETURNING user_id, username, daily_completed, last_reset_date,
		          total_answered, total_correct, created_at, updated_at`,
		userID, username).
		Scan(&rec.UserID, &rec.Username, &rec.DailyCompleted, &rec.LastResetDate,
			&rec.TotalAnswered, &rec.TotalCorrect, &rec.CreatedAt, &rec.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("touch user: %w", err)
	}
	return &rec, nil
}

func (s *UserStore) ResetDailyProgress(ctx context.Context, userID int64, today time.Time) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE users
		SET daily_completed = 0, last_reset_date = $2, updated_at = now()
		WHERE user_id = $1`, userID, today.UTC())
	if err != nil {
		return fmt.Errorf("reset daily progress: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}

// CompleteSession archives the history row and applies the statistics
// increments inside one transaction, so quota, totals and history are
// all-or-nothing.
func (s *UserStore) CompleteSession(ctx context.Context, rec domain.CompletedSessionRecord, countsTowardDaily bool) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("complete session: begin: %w", err)
	}
	defer tx.Rollback(ctx)

	// Session completion may be the user's first durable write.
	if _, err := tx.Exec(ctx, `
		INSERT INTO users (user_id, username, daily_completed, last_reset_date,
		                   total_answered, total_correct, created_at, updated_at)
		VALUES ($1, '', 0, (now() AT TIME ZONE 'utc')::date, 0, 0, now(), now())
		ON CONFLICT (user_id) DO NOTHING`, rec.UserID); err != nil {
		return fmt.Errorf("complete session: ensure user: %w", err)
	}

	daily := 0
	if countsTowardDaily {
		daily = rec.QuestionCount
	}
	if _, err := tx.Exec(ctx, `
		UPDATE users
		SET total_answered = total_answered + $2,
		    total_correct = total_correct + $3,
		    daily_completed = daily_completed + $4,
		    updated_at = now()
		WHERE user_id = $1`,
		rec.UserID, rec.QuestionCount, rec.Score, daily); err != nil {
		return fmt.Errorf("complete session: update stats: %w", err)
	}

	if _, err := tx.Exec(ctx, `
		INSERT INTO completed_sessions (session_id, user_id, mode, topic,
		                                question_count, score, completed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		rec.SessionID, rec.UserID, string(rec.Mode), rec.Topic,
		rec.QuestionCount, rec.Score, rec.CompletedAt.UTC()); err != nil {
		return fmt.Errorf("complete session: insert history: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("complete session: commit: %w", err)
	}
	return nil
}

func (s *UserStore) ResetAllStale(ctx context.Context, today time.Time) (int64, error) {
	tag, err := s.pool.Exec(ctx, `
		UPDATE users
		SET daily_completed = 0, last_reset_date = $1, updated_at = now()
		WHERE last_reset_date < $1`, today.UTC())
	if err != nil {
		return 0, fmt.Errorf("reset stale users: %w", err)
	}
	return tag.RowsAffected(), nil
}

// GetCompletedSession reads back an archived session for audit.
func (s *UserStore) GetCompletedSession(ctx context.Context, sessionID string) (domain.CompletedSessionRecord, error) {
	var rec domain.CompletedSessionRecord
	var mode string
	err := s.pool.QueryRow(ctx, `
		SELECT session_id, user_id, mode, topic, question_count, score, completed_at
		FROM completed_sessions WHERE session_id=$1`, sessionID).
		Scan(&rec.SessionID, &rec.UserID, &mode, &rec.Topic,
			&rec.QuestionCount, &rec.Score, &rec.CompletedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.CompletedSessionRecord{}, domain.ErrSessionNotFound
	}
	if err != nil {
		return domain.CompletedSessionRecord{}, fmt.Errorf("get completed session: %w", err)
	}
	rec.Mode = domain.Mode(mode)
	return rec, nil
}
