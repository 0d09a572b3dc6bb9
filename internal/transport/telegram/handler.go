// Package telegram exposes the quiz engine over a Telegram bot: /daily and
// /practice sessions with inline A-D answer keyboards, plus /stats.
package telegram

import (
	"context"
	"fmt"
	"log"
	"strings"

	"daily-quiz-service/internal/app"
	"daily-quiz-service/internal/domain"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

type Bot struct {
	api    *tgbotapi.BotAPI
	engine *app.QuizEngine
}

func NewBot(token string, engine *app.QuizEngine) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, err
	}
	return &Bot{api: api, engine: engine}, nil
}

// Run consumes the long-poll update stream until ctx is canceled. Updates
// arrive sequentially, so each user's requests are serialized by the loop.
func (b *Bot) Run(ctx context.Context) {
	log.Printf("telegram bot authorized as %s", b.api.Self.UserName)

	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	updates := b.api.GetUpdatesChan(u)

	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			return
		case update, ok := <-updates:
			if !ok {
				return
			}
			if update.Message != nil {
				b.handleCommand(ctx, update.Message)
			}
			if update.CallbackQuery != nil {
				b.handleCallback(ctx, update.CallbackQuery)
			}
		}
	}
}

func (b *Bot) handleCommand(ctx context.Context, msg *tgbotapi.Message) {
	userID := msg.From.ID
	if err := b.engine.RegisterUser(ctx, userID, msg.From.UserName); err != nil {
		log.Printf("register user %d: %v", userID, err)
		b.send(msg.Chat.ID, "Something went wrong, please try again later.")
		return
	}

	switch msg.Command() {
	case "start":
		b.send(msg.Chat.ID, "Welcome! Use /daily for your daily quiz, /practice [topic] to train, /stats for your progress.")
	case "daily":
		b.startDaily(ctx, msg.Chat.ID, userID)
	case "practice":
		b.startPractice(ctx, msg.Chat.ID, userID, strings.TrimSpace(msg.CommandArguments()))
	case "stats":
		b.sendStats(ctx, msg.Chat.ID, userID)
	case "topics":
		b.sendTopics(ctx, msg.Chat.ID)
	default:
		b.send(msg.Chat.ID, "Unknown command. Try /daily, /practice or /stats.")
	}
}

func (b *Bot) handleCallback(ctx context.Context, callback *tgbotapi.CallbackQuery) {
	if _, err := b.api.Request(tgbotapi.NewCallback(callback.ID, "")); err != nil {
		log.Printf("answer callback: %v", err)
	}

	chatID := callback.Message.Chat.ID
	userID := callback.From.ID
	data := callback.Data

	if !strings.HasPrefix(data, "answer_") {
		return
	}
	option := strings.TrimPrefix(data, "answer_")

	_, feedback, err := b.engine.SubmitAnswer(ctx, userID, option)
	if err != nil {
		log.Printf("submit answer for %d: %v", userID, err)
		b.send(chatID, "Something went wrong, please try again later.")
		return
	}
	if feedback.TotalQuestions == 0 {
		b.send(chatID, "No quiz in progress. Start one with /daily or /practice.")
		return
	}

	b.send(chatID, formatFeedback(feedback))
	if !feedback.QuizCompleted {
		b.sendCurrentQuestion(chatID, userID)
	}
}

func (b *Bot) startDaily(ctx context.Context, chatID, userID int64) {
	session, err := b.engine.StartDaily(ctx, userID)
	if err != nil {
		log.Printf("start daily for %d: %v", userID, err)
		b.send(chatID, "Something went wrong, please try again later.")
		return
	}
	if session == nil {
		b.send(chatID, "Your daily quiz is done for today (or no questions are loaded). Come back tomorrow, or use /practice!")
		return
	}
	b.sendCurrentQuestion(chatID, userID)
}

func (b *Bot) startPractice(ctx context.Context, chatID, userID int64, topic string) {
	session, err := b.engine.StartPractice(ctx, userID, topic)
	if err != nil {
		log.Printf("start practice for %d: %v", userID, err)
		b.send(chatID, "Something went wrong, please try again later.")
		return
	}
	if session == nil {
		b.send(chatID, "No questions are available right now, please try again later.")
		return
	}
	b.sendCurrentQuestion(chatID, userID)
}

func (b *Bot) sendCurrentQuestion(chatID, userID int64) {
	session, ok := b.engine.ActiveSession(userID)
	question := b.engine.CurrentQuestion(userID)
	if !ok || question == nil {
		b.send(chatID, "No quiz in progress. Start one with /daily or /practice.")
		return
	}

	text := fmt.Sprintf("Question %d/%d\nTopic: %s\n\n%s",
		session.Cursor+1, len(session.Questions), question.Topic, question.Prompt)

	var rows [][]tgbotapi.InlineKeyboardButton
	for _, opt := range question.Options {
		label := fmt.Sprintf("%s. %s", opt.Key, opt.Text)
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(label, "answer_"+opt.Key),
		))
	}

	msg := tgbotapi.NewMessage(chatID, text)
	msg.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(rows...)
	if _, err := b.api.Send(msg); err != nil {
		log.Printf("send question: %v", err)
	}
}

func (b *Bot) sendStats(ctx context.Context, chatID, userID int64) {
	stats, err := b.engine.Stats(ctx, userID)
	if err != nil {
		log.Printf("stats for %d: %v", userID, err)
		b.send(chatID, "Something went wrong, please try again later.")
		return
	}
	if stats == nil {
		b.send(chatID, "No statistics yet. Start with /daily!")
		return
	}
	b.send(chatID, fmt.Sprintf(
		"Today: %d/%d questions\nTotal answered: %d\nTotal correct: %d\nAccuracy: %.1f%%",
		stats.DailyCompleted, stats.DailyLimit, stats.TotalAnswered, stats.TotalCorrect, stats.Accuracy))
}

func (b *Bot) sendTopics(ctx context.Context, chatID int64) {
	topics, err := b.engine.Topics(ctx)
	if err != nil || len(topics) == 0 {
		b.send(chatID, "No topics available right now.")
		return
	}
	b.send(chatID, "Available topics:\n- "+strings.Join(topics, "\n- "))
}

func (b *Bot) send(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	if _, err := b.api.Send(msg); err != nil {
		log.Printf("send message: %v", err)
	}
}

func formatFeedback(f domain.AnswerFeedback) string {
	var sb strings.Builder
	if f.IsCorrect {
		sb.WriteString("Correct!\n")
	} else {
		fmt.Fprintf(&sb, "Incorrect. The correct answer is %s.\n", f.CorrectOption)
	}
	if f.Explanation != "" {
		fmt.Fprintf(&sb, "Explanation: %s\n", f.Explanation)
	}
	if f.QuizCompleted {
		fmt.Fprintf(&sb, "\nQuiz completed! Final score: %d/%d", f.FinalScore, f.TotalQuestions)
		if f.TotalQuestions > 0 {
			fmt.Fprintf(&sb, " (%.1f%%)", float64(f.FinalScore)/float64(f.TotalQuestions)*100)
		}
		if f.Mode == domain.ModeDaily {
			sb.WriteString("\nDaily quiz done, come back tomorrow. Want more right now? Try /practice!")
		} else {
			sb.WriteString("\nGreat practice round! /practice starts another one.")
		}
	}
	return sb.String()
}
