package http

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"daily-quiz-service/internal/app"
	"daily-quiz-service/internal/domain"
	"daily-quiz-service/internal/infra/memory"
	"github.com/gorilla/websocket"
)

func TestWebSocketDailyQuizFlow(t *testing.T) {
	engine := app.NewQuizEngine(
		memory.NewSessionRegistry(),
		memory.NewUserStore(),
		memory.NewQuestionCatalog(memory.NewStaticLoader(sampleBank()), time.Minute),
		2,
	)
	wsHandler := NewWSHandler(engine)

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", wsHandler.ServeWS)
	server := httptest.NewServer(mux)
	defer server.Close()

	u := "ws" + server.URL[len("http"):] + "/ws?userId=1&name=Alice"
	conn, _, err := websocket.DefaultDialer.Dial(u, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	send(conn, t, map[string]any{"type": "start_daily"})
	msgType, payload := readNext(conn, t, "question")
	if payload["total"].(float64) != 2 {
		t.Fatalf("expected 2-question session, got %v", payload["total"])
	}

	// First answer: feedback then the next question.
	send(conn, t, map[string]any{"type": "answer", "payload": map[string]any{"option": "A"}})
	_, payload = readNext(conn, t, "feedback")
	if payload["isCorrect"] != true || payload["quizCompleted"] == true {
		t.Fatalf("expected correct, unfinished feedback, got %v", payload)
	}
	readNext(conn, t, "question")

	// Final answer completes the quiz; no further question follows.
	send(conn, t, map[string]any{"type": "answer", "payload": map[string]any{"option": "B"}})
	_, payload = readNext(conn, t, "feedback")
	if payload["quizCompleted"] != true {
		t.Fatalf("expected completion, got %v", payload)
	}
	if payload["finalScore"].(float64) != 1 {
		t.Fatalf("expected final score 1, got %v", payload["finalScore"])
	}

	send(conn, t, map[string]any{"type": "stats"})
	_, payload = readNext(conn, t, "stats")
	if payload["dailyCompleted"].(float64) != 2 || payload["quotaExhausted"] != true {
		t.Fatalf("expected exhausted quota stats, got %v", payload)
	}

	// Quota exhausted: a new daily start is refused, not errored.
	send(conn, t, map[string]any{"type": "start_daily"})
	msgType, _ = readNext(conn, t, "")
	if msgType != "refusal" {
		t.Fatalf("expected refusal, got %s", msgType)
	}
}

func TestWebSocketRejectsBadUserID(t *testing.T) {
	engine := app.NewQuizEngine(
		memory.NewSessionRegistry(),
		memory.NewUserStore(),
		memory.NewQuestionCatalog(memory.NewStaticLoader(sampleBank()), time.Minute),
		2,
	)
	server := httptest.NewServer(http.HandlerFunc(NewWSHandler(engine).ServeWS))
	defer server.Close()

	resp, err := http.Get(server.URL + "?userId=abc")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}

func send(conn *websocket.Conn, t *testing.T, msg map[string]any) {
	t.Helper()
	if err := conn.WriteJSON(msg); err != nil {
		t.Fatalf("write: %v", err)
	}
}

func readNext(conn *websocket.Conn, t *testing.T, expect string) (string, map[string]any) {
	t.Helper()
	var msg struct {
		Type    string         `json:"type"`
		Payload map[string]any `json:"payload"`
	}
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("read json: %v", err)
	}
	if expect != "" && msg.Type != expect {
		t.Fatalf("expected type %s, got %s", expect, msg.Type)
	}
	return msg.Type, msg.Payload
}

func sampleBank() []domain.Question {
	opts := []domain.Option{
		{Key: "A", Text: "right"},
		{Key: "B", Text: "wrong"},
	}
	return []domain.Question{
		{Topic: "Grammar", Prompt: "q1", Options: opts, CorrectOption: "A"},
		{Topic: "Grammar", Prompt: "q2", Options: opts, CorrectOption: "A"},
	}
}
