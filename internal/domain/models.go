package domain

import "time"

// Mode distinguishes quota-gated daily sessions from free practice sessions.
type Mode string

const (
	ModeDaily    Mode = "daily"
	ModePractice Mode = "practice"
)

// Option is one labelled answer choice for a question.
type Option struct {
	Key  string `json:"key"`
	Text string `json:"text"`
}

// Question is a normalized MCQ record supplied by the question source.
// Loaders guarantee at least 2 non-empty options and a CorrectOption that
// points at a non-empty option; the core never sees anything else.
type Question struct {
	Topic         string   `json:"topic"`
	Prompt        string   `json:"prompt"`
	Options       []Option `json:"options"`
	CorrectOption string   `json:"correctOption"`
	Explanation   string   `json:"explanation,omitempty"`
}

// OptionText returns the text for a labelled option, or "" if absent.
func (q Question) OptionText(key string) string {
	for _, o := range q.Options {
		if o.Key == key {
			return o.Text
		}
	}
	return ""
}

// UserRecord is the durable per-user quota and statistics state.
// Invariant: 0 <= TotalCorrect <= TotalAnswered.
type UserRecord struct {
	UserID         int64
	Username       string
	DailyCompleted int
	LastResetDate  time.Time // midnight UTC of the last quota reset day
	TotalAnswered  int
	TotalCorrect   int
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// QuizSession is the single mutable in-progress quiz for one user.
// Invariants: len(AnswersGiven) == Cursor and 0 <= Score <= Cursor <= len(Questions).
type QuizSession struct {
	SessionID    string
	UserID       int64
	Mode         Mode
	Topic        string // practice only, "" otherwise
	Questions    []Question
	Cursor       int
	Score        int
	AnswersGiven []string
	StartedAt    time.Time
	Completed    bool
}

// CompletedSessionRecord is the append-only historical snapshot archived
// when a session completes. Never mutated after insertion.
type CompletedSessionRecord struct {
	SessionID     string
	UserID        int64
	Mode          Mode
	Topic         string
	QuestionCount int
	Score         int
	CompletedAt   time.Time
}

// AnswerFeedback summarizes the outcome of one graded submission.
// FinalScore and Mode are populated only when QuizCompleted is true.
type AnswerFeedback struct {
	IsCorrect      bool   `json:"isCorrect"`
	CorrectOption  string `json:"correctOption"`
	Explanation    string `json:"explanation,omitempty"`
	QuestionNumber int    `json:"questionNumber"`
	TotalQuestions int    `json:"totalQuestions"`
	QuizCompleted  bool   `json:"quizCompleted"`
	FinalScore     int    `json:"finalScore,omitempty"`
	Mode           Mode   `json:"mode,omitempty"`
}

// UserStats is the reporting view over a UserRecord.
type UserStats struct {
	DailyCompleted int     `json:"dailyCompleted"`
	DailyLimit     int     `json:"dailyLimit"`
	QuotaExhausted bool    `json:"quotaExhausted"`
	TotalAnswered  int     `json:"totalAnswered"`
	TotalCorrect   int     `json:"totalCorrect"`
	Accuracy       float64 `json:"accuracy"`
}
