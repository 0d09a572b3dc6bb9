package csvfile

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func TestLoaderParsesTopicFiles(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "grammar.csv", `question,option_a,option_b,option_c,option_d,correct_answer,explanation
Which is correct?,She doesn't,She don't,She not,She no,A,third person singular
Pick the article.,a,an,the,,C,
`)
	writeFile(t, dir, "vocabulary.csv", `question,option_a,option_b,correct_answer,explanation
Synonym of rapid?,quick,slow,A,
`)

	questions, err := NewLoader(dir).LoadQuestions(context.Background())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(questions) != 3 {
		t.Fatalf("expected 3 questions, got %d", len(questions))
	}

	byTopic := map[string]int{}
	for _, q := range questions {
		byTopic[q.Topic]++
	}
	if byTopic["Grammar"] != 2 || byTopic["Vocabulary"] != 1 {
		t.Fatalf("expected topics from file names, got %v", byTopic)
	}

	for _, q := range questions {
		if q.OptionText(q.CorrectOption) == "" {
			t.Fatalf("correct option must point at a non-empty option: %+v", q)
		}
	}
}

func TestLoaderSkipsInvalidRows(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "mixed.csv", `question,option_a,option_b,option_c,option_d,correct_answer,explanation
Valid?,yes,no,,,A,
,yes,no,,,A,missing prompt
Only one option,yes,,,,A,needs two options
Bad key,yes,no,,,D,correct option empty
`)

	questions, err := NewLoader(dir).LoadQuestions(context.Background())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(questions) != 1 {
		t.Fatalf("expected only the valid row, got %d", len(questions))
	}
	if questions[0].Prompt != "Valid?" {
		t.Fatalf("unexpected surviving row: %+v", questions[0])
	}
}

func TestLoaderRejectsMissingColumns(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "broken.csv", `prompt,answer
hello,A
`)
	writeFile(t, dir, "good.csv", `question,option_a,option_b,correct_answer
ok?,yes,no,A
`)

	questions, err := NewLoader(dir).LoadQuestions(context.Background())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	// The broken file is skipped whole; the good one still loads.
	if len(questions) != 1 || questions[0].Topic != "Good" {
		t.Fatalf("expected 1 question from good.csv, got %+v", questions)
	}
}

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
}
