package memory

import (
	"context"
	"testing"
	"time"

	"daily-quiz-service/internal/domain"
)

func TestQuestionCatalogCaches(t *testing.T) {
	loader := &countingLoader{QuestionLoader: NewStaticLoader(sampleBank())}
	catalog := NewQuestionCatalog(loader, time.Minute)

	if _, err := catalog.FetchAll(context.Background()); err != nil {
		t.Fatalf("fetch all: %v", err)
	}
	if loader.calls != 1 {
		t.Fatalf("expected loader once, got %d", loader.calls)
	}

	if _, err := catalog.FetchAll(context.Background()); err != nil {
		t.Fatalf("fetch all 2: %v", err)
	}
	if loader.calls != 1 {
		t.Fatalf("expected cache hit, loader calls %d", loader.calls)
	}
}

func TestQuestionCatalogTopicQueries(t *testing.T) {
	catalog := NewQuestionCatalog(NewStaticLoader(sampleBank()), time.Minute)
	ctx := context.Background()

	matched, err := catalog.FetchByTopic(ctx, "grammar") // case-insensitive
	if err != nil {
		t.Fatalf("fetch by topic: %v", err)
	}
	if len(matched) != 2 {
		t.Fatalf("expected 2 grammar questions, got %d", len(matched))
	}

	topics, err := catalog.ListTopics(ctx)
	if err != nil {
		t.Fatalf("list topics: %v", err)
	}
	if len(topics) != 2 || topics[0] != "Grammar" || topics[1] != "Vocabulary" {
		t.Fatalf("expected sorted [Grammar Vocabulary], got %v", topics)
	}
}

type countingLoader struct {
	QuestionLoader
	calls int
}

func (l *countingLoader) LoadQuestions(ctx context.Context) ([]domain.Question, error) {
	l.calls++
	return l.QuestionLoader.LoadQuestions(ctx)
}

func sampleBank() []domain.Question {
	opts := []domain.Option{{Key: "A", Text: "yes"}, {Key: "B", Text: "no"}}
	return []domain.Question{
		{Topic: "Grammar", Prompt: "g1", Options: opts, CorrectOption: "A"},
		{Topic: "Grammar", Prompt: "g2", Options: opts, CorrectOption: "B"},
		{Topic: "Vocabulary", Prompt: "v1", Options: opts, CorrectOption: "A"},
	}
}
