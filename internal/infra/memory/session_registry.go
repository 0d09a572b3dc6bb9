package memory

import (
	"sync"

	"daily-quiz-service/internal/domain"
)

// SessionRegistry is the in-memory implementation of app.SessionRegistry.
// It keeps at most one active session per user; Put replaces any existing
// entry. Contents are lost on restart by design.
type SessionRegistry struct {
	mu       sync.RWMutex
	sessions map[int64]*domain.QuizSession
}

func NewSessionRegistry() *SessionRegistry {
	return &SessionRegistry{
		sessions: make(map[int64]*domain.QuizSession),
	}
}

func (r *SessionRegistry) Get(userID int64) (*domain.QuizSession, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	session, ok := r.sessions[userID]
	return session, ok
}

func (r *SessionRegistry) Put(session *domain.QuizSession) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[session.UserID] = session
}

func (r *SessionRegistry) Delete(userID int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, userID)
}
