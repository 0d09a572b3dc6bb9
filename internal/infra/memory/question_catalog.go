package memory

import (
	"context"
	"math/rand"
	"sort"
	"strings"
	"sync"
	"time"

	"daily-quiz-service/internal/domain"
	"golang.org/x/sync/singleflight"
)

// QuestionLoader fetches the full normalized question list from a backing
// source (CSV directory, spreadsheet, DB).
type QuestionLoader interface {
	LoadQuestions(ctx context.Context) ([]domain.Question, error)
}

// QuestionCatalog caches the question list with TTL to avoid repeated source
// hits, and serves the app.QuestionSource queries from the cached list.
type QuestionCatalog struct {
	loader QuestionLoader
	ttl    time.Duration
	clock  func() time.Time
	sf     singleflight.Group
	rnd    *rand.Rand

	mu        sync.RWMutex
	questions []domain.Question
	expiresAt time.Time
}

func NewQuestionCatalog(loader QuestionLoader, ttl time.Duration) *QuestionCatalog {
	return &QuestionCatalog{
		loader: loader,
		ttl:    ttl,
		clock:  time.Now,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (c *QuestionCatalog) FetchAll(ctx context.Context) ([]domain.Question, error) {
	return c.load(ctx)
}

func (c *QuestionCatalog) FetchByTopic(ctx context.Context, topic string) ([]domain.Question, error) {
	all, err := c.load(ctx)
	if err != nil {
		return nil, err
	}
	matched := make([]domain.Question, 0, len(all))
	for _, q := range all {
		if strings.EqualFold(q.Topic, topic) {
			matched = append(matched, q)
		}
	}
	return matched, nil
}

func (c *QuestionCatalog) ListTopics(ctx context.Context) ([]string, error) {
	all, err := c.load(ctx)
	if err != nil {
		return nil, err
	}
	seen := make(map[string]string)
	for _, q := range all {
		key := strings.ToLower(q.Topic)
		if _, ok := seen[key]; !ok && q.Topic != "" {
			seen[key] = q.Topic
		}
	}
	topics := make([]string, 0, len(seen))
	for _, topic := range seen {
		topics = append(topics, topic)
	}
	sort.Strings(topics)
	return topics, nil
}

func (c *QuestionCatalog) load(ctx context.Context) ([]domain.Question, error) {
	now := c.clock()

	c.mu.RLock()
	if c.questions != nil && c.expiresAt.After(now) {
		cached := c.questions
		c.mu.RUnlock()
		return cached, nil
	}
	c.mu.RUnlock()

	result, err, _ := c.sf.Do("questions", func() (interface{}, error) {
		now := c.clock()
		c.mu.RLock()
		if c.questions != nil && c.expiresAt.After(now) {
			cached := c.questions
			c.mu.RUnlock()
			return cached, nil
		}
		c.mu.RUnlock()

		questions, err := c.loader.LoadQuestions(ctx)
		if err != nil {
			return nil, err
		}

		c.mu.Lock()
		c.questions = questions
		c.expiresAt = now.Add(c.ttlWithJitter())
		c.mu.Unlock()
		return questions, nil
	})
	if err != nil {
		return nil, err
	}
	return result.([]domain.Question), nil
}

func (c *QuestionCatalog) ttlWithJitter() time.Duration {
	if c.ttl <= 0 {
		return 0
	}
	// add up to 10% jitter to spread expirations
	jitterMax := int64(c.ttl) / 10
	return c.ttl + time.Duration(c.rnd.Int63n(jitterMax+1))
}

// StaticLoader is a loader backed by a fixed slice (useful for tests/demos).
type StaticLoader struct {
	questions []domain.Question
}

func NewStaticLoader(questions []domain.Question) *StaticLoader {
	return &StaticLoader{questions: questions}
}

func (l *StaticLoader) LoadQuestions(_ context.Context) ([]domain.Question, error) {
	return l.questions, nil
}
