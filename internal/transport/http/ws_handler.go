package http

import (
	"encoding/json"
	"log"
	"net/http"
	"strconv"

	"daily-quiz-service/internal/app"
	"daily-quiz-service/internal/domain"
	"github.com/gorilla/websocket"
)

type WSHandler struct {
	engine   *app.QuizEngine
	upgrader websocket.Upgrader
}

func NewWSHandler(engine *app.QuizEngine) *WSHandler {
	return &WSHandler{
		engine: engine,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

type inboundMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type practicePayload struct {
	Topic string `json:"topic"`
}

type answerPayload struct {
	Option string `json:"option"`
}

type questionPayload struct {
	Number  int             `json:"number"`
	Total   int             `json:"total"`
	Topic   string          `json:"topic"`
	Prompt  string          `json:"prompt"`
	Options []domain.Option `json:"options"`
}

type outboundMessage[T any] struct {
	Type    string `json:"type"`
	Payload T      `json:"payload"`
}

type textPayload struct {
	Message string `json:"message"`
}

// ServeWS upgrades HTTP requests to websockets and wires them into the quiz
// engine. All messages for one connection are handled on the read loop, so
// requests for a single user are naturally serialized.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	rawUserID := r.URL.Query().Get("userId")
	name := r.URL.Query().Get("name")
	userID, err := strconv.ParseInt(rawUserID, 10, 64)
	if rawUserID == "" || err != nil {
		http.Error(w, "missing or invalid userId", http.StatusBadRequest)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("ws upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	ctx := r.Context()
	if err := h.engine.RegisterUser(ctx, userID, name); err != nil {
		writeError(conn, err)
		return
	}

	for {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			break
		}

		switch inbound.Type {
		case "start_daily":
			session, err := h.engine.StartDaily(ctx, userID)
			if err != nil {
				writeError(conn, err)
				return
			}
			if session == nil {
				writeRefusal(conn, "daily quota reached or no questions available")
				continue
			}
			h.sendCurrentQuestion(conn, userID)

		case "start_practice":
			var payload practicePayload
			if len(inbound.Payload) > 0 {
				if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
					writeRefusal(conn, "invalid practice payload")
					continue
				}
			}
			session, err := h.engine.StartPractice(ctx, userID, payload.Topic)
			if err != nil {
				writeError(conn, err)
				return
			}
			if session == nil {
				writeRefusal(conn, "no questions available")
				continue
			}
			h.sendCurrentQuestion(conn, userID)

		case "answer":
			var payload answerPayload
			if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
				writeRefusal(conn, "invalid answer payload")
				continue
			}
			_, feedback, err := h.engine.SubmitAnswer(ctx, userID, payload.Option)
			if err != nil {
				writeError(conn, err)
				return
			}
			if feedback.TotalQuestions == 0 {
				writeRefusal(conn, "no quiz in progress")
				continue
			}
			_ = conn.WriteJSON(outboundMessage[domain.AnswerFeedback]{Type: "feedback", Payload: feedback})
			if !feedback.QuizCompleted {
				h.sendCurrentQuestion(conn, userID)
			}

		case "question":
			h.sendCurrentQuestion(conn, userID)

		case "stats":
			stats, err := h.engine.Stats(ctx, userID)
			if err != nil {
				writeError(conn, err)
				return
			}
			if stats == nil {
				writeRefusal(conn, "no statistics yet")
				continue
			}
			_ = conn.WriteJSON(outboundMessage[*domain.UserStats]{Type: "stats", Payload: stats})

		default:
			writeRefusal(conn, "unknown message type")
		}
	}
}

func (h *WSHandler) sendCurrentQuestion(conn *websocket.Conn, userID int64) {
	session, ok := h.engine.ActiveSession(userID)
	question := h.engine.CurrentQuestion(userID)
	if !ok || question == nil {
		writeRefusal(conn, "no quiz in progress")
		return
	}
	_ = conn.WriteJSON(outboundMessage[questionPayload]{Type: "question", Payload: questionPayload{
		Number:  session.Cursor + 1,
		Total:   len(session.Questions),
		Topic:   question.Topic,
		Prompt:  question.Prompt,
		Options: question.Options,
	}})
}

// writeRefusal reports a handled precondition failure; the client retries or
// adjusts, no error type inspection needed.
func writeRefusal(conn *websocket.Conn, message string) {
	_ = conn.WriteJSON(outboundMessage[textPayload]{Type: "refusal", Payload: textPayload{Message: message}})
}

func writeError(conn *websocket.Conn, err error) {
	log.Printf("ws request failed: %v", err)
	_ = conn.WriteJSON(outboundMessage[textPayload]{Type: "error", Payload: textPayload{Message: err.Error()}})
}
