// Package csvfile loads question banks from per-topic CSV files. Each
// <topic>.csv in the questions directory holds the columns
// question,option_a,option_b,option_c,option_d,correct_answer,explanation;
// the file name becomes the topic.
package csvfile

import (
	"context"
	"encoding/csv"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"daily-quiz-service/internal/domain"
)

var optionKeys = []string{"A", "B", "C", "D"}

// Loader implements the QuestionLoader consumed by the question catalogs.
type Loader struct {
	dir string
}

func NewLoader(dir string) *Loader {
	return &Loader{dir: dir}
}

// LoadQuestions parses every CSV file in the directory. Rows that violate
// the question invariant (at least 2 non-empty options, a correct option
// pointing at a non-empty option) are skipped with a log line, never
// surfaced downstream.
func (l *Loader) LoadQuestions(_ context.Context) ([]domain.Question, error) {
	entries, err := os.ReadDir(l.dir)
	if err != nil {
		return nil, fmt.Errorf("read questions dir: %w", err)
	}

	var questions []domain.Question
	for _, entry := range entries {
		if entry.IsDir() || !strings.EqualFold(filepath.Ext(entry.Name()), ".csv") {
			continue
		}
		topic := topicFromFilename(entry.Name())
		loaded, err := l.loadFile(filepath.Join(l.dir, entry.Name()), topic)
		if err != nil {
			log.Printf("skipping %s: %v", entry.Name(), err)
			continue
		}
		questions = append(questions, loaded...)
	}
	return questions, nil
}

func (l *Loader) loadFile(path, topic string) ([]domain.Question, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	col := make(map[string]int, len(header))
	for i, name := range header {
		col[normalizeHeader(name)] = i
	}
	for _, required := range []string{"question", "correct_answer"} {
		if _, ok := col[required]; !ok {
			return nil, fmt.Errorf("missing column %q", required)
		}
	}

	var questions []domain.Question
	for line := 2; ; line++ {
		row, err := reader.Read()
		if err != nil {
			break
		}
		field := func(name string) string {
			i, ok := col[name]
			if !ok || i >= len(row) {
				return ""
			}
			return strings.TrimSpace(row[i])
		}

		q := domain.Question{
			Topic:         topic,
			Prompt:        field("question"),
			CorrectOption: strings.ToUpper(field("correct_answer")),
			Explanation:   field("explanation"),
		}
		for _, key := range optionKeys {
			if text := field("option_" + strings.ToLower(key)); text != "" {
				q.Options = append(q.Options, domain.Option{Key: key, Text: text})
			}
		}

		if !valid(q) {
			log.Printf("skipping row %d in %s: invalid question", line, filepath.Base(path))
			continue
		}
		questions = append(questions, q)
	}
	return questions, nil
}

// valid enforces the invariant the core relies on.
func valid(q domain.Question) bool {
	if q.Prompt == "" || len(q.Options) < 2 {
		return false
	}
	return q.OptionText(q.CorrectOption) != ""
}

func normalizeHeader(name string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(name)), " ", "_")
}

// topicFromFilename turns grammar.csv into "Grammar".
func topicFromFilename(name string) string {
	base := strings.TrimSuffix(name, filepath.Ext(name))
	if base == "" {
		return base
	}
	return strings.ToUpper(base[:1]) + base[1:]
}
