package app

import (
	"context"
	"log"
	"math/rand"
	"strings"
	"time"

	"daily-quiz-service/internal/domain"
	"github.com/google/uuid"
)

// SessionRegistry holds the single active quiz session per user. It is
// volatile; a process restart forces users onto a fresh session.
type SessionRegistry interface {
	Get(userID int64) (*domain.QuizSession, bool)
	Put(session *domain.QuizSession)
	Delete(userID int64)
}

// UserStore is the durable record of quota state, aggregate statistics and
// completed-session history. It is the single source of truth across restarts.
type UserStore interface {
	// GetUser returns (nil, nil) when the user has never been seen.
	GetUser(ctx context.Context, userID int64) (*domain.UserRecord, error)
	// TouchUser creates the record with default zeros on first contact and
	// refreshes the username otherwise.
	TouchUser(ctx context.Context, userID int64, username string) (*domain.UserRecord, error)
	// ResetDailyProgress zeroes the daily counter and stamps the reset day.
	ResetDailyProgress(ctx context.Context, userID int64, today time.Time) error
	// CompleteSession archives the history row and applies the statistics
	// increments in a single all-or-nothing write. countsTowardDaily adds the
	// question count to the user's daily progress as well.
	CompleteSession(ctx context.Context, rec domain.CompletedSessionRecord, countsTowardDaily bool) error
	// ResetAllStale resets every user whose last reset day is before today.
	ResetAllStale(ctx context.Context, today time.Time) (int64, error)
}

// QuestionSource supplies normalized question records. Upstream failures
// surface as empty results, so an empty pool is a handleable outcome here,
// never a crash.
type QuestionSource interface {
	FetchAll(ctx context.Context) ([]domain.Question, error)
	FetchByTopic(ctx context.Context, topic string) ([]domain.Question, error)
	ListTopics(ctx context.Context) ([]string, error)
}

// QuizEngine orchestrates quota checks, session lifecycle, grading and
// statistics. Quota refusals, empty pools and missing sessions are modeled
// as nil/zero returns; only store I/O failures propagate as errors.
//
// Callers are expected to serialize requests per user. The registry guards
// its own map, but concurrent SubmitAnswer calls for the same user have no
// ordering guarantee beyond last write wins.
type QuizEngine struct {
	sessions  SessionRegistry
	users     UserStore
	questions QuestionSource
	limit     int
	now       func() time.Time
}

func NewQuizEngine(sessions SessionRegistry, users UserStore, questions QuestionSource, dailyLimit int) *QuizEngine {
	return NewQuizEngineWithClock(sessions, users, questions, dailyLimit, time.Now)
}

// NewQuizEngineWithClock allows deterministic "today" in tests.
func NewQuizEngineWithClock(sessions SessionRegistry, users UserStore, questions QuestionSource, dailyLimit int, now func() time.Time) *QuizEngine {
	if dailyLimit <= 0 {
		dailyLimit = 5
	}
	return &QuizEngine{
		sessions:  sessions,
		users:     users,
		questions: questions,
		limit:     dailyLimit,
		now:       now,
	}
}

// DailyLimit reports the configured daily question quota.
func (e *QuizEngine) DailyLimit() int {
	return e.limit
}

// RegisterUser creates or refreshes the durable user record. Transports call
// this on every command so first-time users exist before they start a quiz.
func (e *QuizEngine) RegisterUser(ctx context.Context, userID int64, username string) error {
	_, err := e.users.TouchUser(ctx, userID, username)
	return err
}

// CanStartDaily reports whether the user may start a daily session today.
// If the stored reset day is older than the current UTC date the quota is
// reset first, so the answer is always fresh relative to "today" regardless
// of background scheduler liveness.
func (e *QuizEngine) CanStartDaily(ctx context.Context, userID int64) (bool, error) {
	rec, err := e.freshUser(ctx, userID)
	if err != nil {
		return false, err
	}
	if rec == nil {
		return true, nil
	}
	return rec.DailyCompleted < e.limit, nil
}

// StartDaily begins a quota-gated daily session. A nil session with a nil
// error is a refusal: quota exhausted or no questions available. An existing
// active session is silently replaced and discarded without being archived.
func (e *QuizEngine) StartDaily(ctx context.Context, userID int64) (*domain.QuizSession, error) {
	ok, err := e.CanStartDaily(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}

	pool, err := e.questions.FetchAll(ctx)
	if err != nil {
		return nil, err
	}
	if len(pool) == 0 {
		log.Printf("no questions available for daily quiz")
		return nil, nil
	}

	session := e.newSession(userID, domain.ModeDaily, "", sampleQuestions(pool, e.limit))
	e.sessions.Put(session)
	return session, nil
}

// StartPractice begins an unlimited practice session, optionally filtered by
// topic (case-insensitive exact match). When the topic has fewer questions
// than the daily limit the pool is supplemented with random questions from
// other topics; a pool smaller than the limit yields a shorter session, not
// an error. The quota is neither consulted nor mutated.
func (e *QuizEngine) StartPractice(ctx context.Context, userID int64, topic string) (*domain.QuizSession, error) {
	var pool []domain.Question
	var err error

	if topic != "" {
		pool, err = e.questions.FetchByTopic(ctx, topic)
		if err != nil {
			return nil, err
		}
		if len(pool) < e.limit {
			all, err := e.questions.FetchAll(ctx)
			if err != nil {
				return nil, err
			}
			complement := make([]domain.Question, 0, len(all))
			for _, q := range all {
				if !strings.EqualFold(q.Topic, topic) {
					complement = append(complement, q)
				}
			}
			pool = append(pool, sampleQuestions(complement, e.limit-len(pool))...)
		}
	} else {
		pool, err = e.questions.FetchAll(ctx)
		if err != nil {
			return nil, err
		}
	}

	if len(pool) == 0 {
		log.Printf("no questions available for practice quiz")
		return nil, nil
	}

	session := e.newSession(userID, domain.ModePractice, topic, sampleQuestions(pool, e.limit))
	e.sessions.Put(session)
	return session, nil
}

// ActiveSession returns the user's in-progress session, if any.
func (e *QuizEngine) ActiveSession(userID int64) (*domain.QuizSession, bool) {
	session, ok := e.sessions.Get(userID)
	if !ok || session.Completed {
		return nil, false
	}
	return session, true
}

// CurrentQuestion returns the question at the session cursor, or nil when no
// session is in progress. Purely a read.
func (e *QuizEngine) CurrentQuestion(userID int64) *domain.Question {
	session, ok := e.ActiveSession(userID)
	if !ok || session.Cursor >= len(session.Questions) {
		return nil
	}
	return &session.Questions[session.Cursor]
}

// SubmitAnswer grades the answer against the current question, advances the
// cursor, and on the final question archives the session and updates the
// user's statistics in one transactional store write. Submitting without an
// active session is a no-op refusal: (false, zero feedback, nil).
func (e *QuizEngine) SubmitAnswer(ctx context.Context, userID int64, answer string) (bool, domain.AnswerFeedback, error) {
	session, ok := e.ActiveSession(userID)
	if !ok || session.Cursor >= len(session.Questions) {
		return false, domain.AnswerFeedback{}, nil
	}

	question := session.Questions[session.Cursor]
	isCorrect := strings.EqualFold(strings.TrimSpace(answer), strings.TrimSpace(question.CorrectOption))

	session.AnswersGiven = append(session.AnswersGiven, answer)
	if isCorrect {
		session.Score++
	}
	number := session.Cursor + 1
	session.Cursor++

	feedback := domain.AnswerFeedback{
		IsCorrect:      isCorrect,
		CorrectOption:  question.CorrectOption,
		Explanation:    question.Explanation,
		QuestionNumber: number,
		TotalQuestions: len(session.Questions),
	}

	if session.Cursor == len(session.Questions) {
		session.Completed = true
		record := domain.CompletedSessionRecord{
			SessionID:     session.SessionID,
			UserID:        session.UserID,
			Mode:          session.Mode,
			Topic:         session.Topic,
			QuestionCount: len(session.Questions),
			Score:         session.Score,
			CompletedAt:   e.now().UTC(),
		}
		if err := e.users.CompleteSession(ctx, record, session.Mode == domain.ModeDaily); err != nil {
			return isCorrect, feedback, err
		}
		e.sessions.Delete(userID)
		feedback.QuizCompleted = true
		feedback.FinalScore = session.Score
		feedback.Mode = session.Mode
	}

	return isCorrect, feedback, nil
}

// Stats returns the user's quota and aggregate statistics after the same
// lazy daily-reset check as CanStartDaily. Nil for never-seen users.
func (e *QuizEngine) Stats(ctx context.Context, userID int64) (*domain.UserStats, error) {
	rec, err := e.freshUser(ctx, userID)
	if err != nil || rec == nil {
		return nil, err
	}

	accuracy := 0.0
	if rec.TotalAnswered > 0 {
		accuracy = float64(rec.TotalCorrect) / float64(rec.TotalAnswered) * 100
	}
	return &domain.UserStats{
		DailyCompleted: rec.DailyCompleted,
		DailyLimit:     e.limit,
		QuotaExhausted: rec.DailyCompleted >= e.limit,
		TotalAnswered:  rec.TotalAnswered,
		TotalCorrect:   rec.TotalCorrect,
		Accuracy:       accuracy,
	}, nil
}

// Topics lists the distinct topics available for practice sessions.
func (e *QuizEngine) Topics(ctx context.Context) ([]string, error) {
	return e.questions.ListTopics(ctx)
}

// freshUser loads the record and applies the lazy daily reset when the
// stored reset day predates the current UTC date.
func (e *QuizEngine) freshUser(ctx context.Context, userID int64) (*domain.UserRecord, error) {
	rec, err := e.users.GetUser(ctx, userID)
	if err != nil || rec == nil {
		return nil, err
	}
	today := dateUTC(e.now())
	if rec.LastResetDate.Before(today) {
		if err := e.users.ResetDailyProgress(ctx, userID, today); err != nil {
			return nil, err
		}
		rec.DailyCompleted = 0
		rec.LastResetDate = today
	}
	return rec, nil
}

func (e *QuizEngine) newSession(userID int64, mode domain.Mode, topic string, questions []domain.Question) *domain.QuizSession {
	return &domain.QuizSession{
		SessionID:    uuid.NewString(),
		UserID:       userID,
		Mode:         mode,
		Topic:        topic,
		Questions:    questions,
		AnswersGiven: make([]string, 0, len(questions)),
		StartedAt:    e.now().UTC(),
	}
}

// sampleQuestions draws up to n questions uniformly without replacement.
// A pool smaller than n is returned whole, shuffled.
func sampleQuestions(pool []domain.Question, n int) []domain.Question {
	shuffled := make([]domain.Question, len(pool))
	copy(shuffled, pool)
	rand.Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})
	if n < len(shuffled) {
		shuffled = shuffled[:n]
	}
	return shuffled
}

// dateUTC truncates t to midnight UTC of its calendar day.
func dateUTC(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
