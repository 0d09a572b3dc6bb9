package redis

import (
	"context"
	"encoding/json"
	"math/rand"
	"sort"
	"strings"
	"time"

	"daily-quiz-service/internal/domain"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"
)

// QuestionLoader fetches the full question list from a backing source.
type QuestionLoader interface {
	LoadQuestions(ctx context.Context) ([]domain.Question, error)
}

const catalogKey = "quiz:questions"

// QuestionCatalog caches the normalized question list as a JSON value in
// Redis and falls back to the loader on cache miss. Sharing the cache lets
// several instances reuse one spreadsheet/CSV parse.
type QuestionCatalog struct {
	client *redis.Client
	loader QuestionLoader
	ttl    time.Duration
	sf     singleflight.Group
	rnd    *rand.Rand
}

func NewQuestionCatalog(client *redis.Client, loader QuestionLoader, ttl time.Duration) *QuestionCatalog {
	return &QuestionCatalog{
		client: client,
		loader: loader,
		ttl:    ttl,
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
	if cached, ok := c.fromCache(ctx); ok {
		return cached, nil
	}

	result, err, _ := c.sf.Do(catalogKey, func() (interface{}, error) {
		// Re-check cache in case another goroutine filled it.
		if cached, ok := c.fromCache(ctx); ok {
			return cached, nil
		}

		questions, err := c.loader.LoadQuestions(ctx)
		if err != nil {
			return nil, err
		}

		if data, err := json.Marshal(questions); err == nil {
			// best-effort: a failed cache write just means a reload next time
			_ = c.client.Set(ctx, catalogKey, data, c.ttlWithJitter()).Err()
		}
		return questions, nil
	})
	if err != nil {
		return nil, err
	}
	return result.([]domain.Question), nil
}

func (c *QuestionCatalog) fromCache(ctx context.Context) ([]domain.Question, bool) {
	raw, err := c.client.Get(ctx, catalogKey).Bytes()
	if err != nil || len(raw) == 0 {
		return nil, false
	}
	var questions []domain.Question
	if err := json.Unmarshal(raw, &questions); err != nil {
		return nil, false
	}
	return questions, true
}

func (c *QuestionCatalog) ttlWithJitter() time.Duration {
	if c.ttl <= 0 {
		return 0
	}
	jitterMax := int64(c.ttl) / 10
	return c.ttl + time.Duration(c.rnd.Int63n(jitterMax+1))
}
