package cli

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"daily-quiz-service/internal/app"
	"daily-quiz-service/internal/config"
	"daily-quiz-service/internal/domain"
	"daily-quiz-service/internal/infra/csvfile"
	"daily-quiz-service/internal/infra/memory"
	pgstore "daily-quiz-service/internal/infra/postgres"
	redisinfra "daily-quiz-service/internal/infra/redis"
	transport "daily-quiz-service/internal/transport/http"
	"daily-quiz-service/internal/transport/telegram"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
)

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the quiz server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), *configPath, *port)
		},
	}
}

func runServer(ctx context.Context, configPath, portFlag string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	if cfg.Postgres.URL != "" {
		if err := runMigrationsWithConfig(ctx, cfg); err != nil {
			return err
		}
	}

	finalPort := portFlag
	if finalPort == "" {
		finalPort = cfg.Server.Port
	}
	if finalPort == "" {
		finalPort = "8080"
	}

	var redisClient *redis.Client
	if cfg.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
	}

	var pool *pgxpool.Pool
	if cfg.Postgres.URL != "" {
		pool, err = pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return err
		}
		defer pool.Close()
	}

	var loader memory.QuestionLoader = memory.NewStaticLoader(sampleQuestions())
	if cfg.Quiz.QuestionsDir != "" {
		loader = csvfile.NewLoader(cfg.Quiz.QuestionsDir)
	}

	cacheTTL := config.TTLDuration(cfg.Quiz.CacheTTL, 10*time.Minute)
	var questions app.QuestionSource
	if redisClient != nil {
		questions = redisinfra.NewQuestionCatalog(redisClient, loader, cacheTTL)
	} else {
		questions = memory.NewQuestionCatalog(loader, cacheTTL)
	}

	var users app.UserStore
	if pool != nil {
		users = pgstore.NewUserStore(pool)
	} else {
		log.Printf("postgres not configured, using in-memory user store")
		users = memory.NewUserStore()
	}

	engine := app.NewQuizEngine(memory.NewSessionRegistry(), users, questions, cfg.DailyLimit())

	scheduler := app.NewResetScheduler(users)
	scheduler.Start()
	defer scheduler.Stop()

	wsHandler := transport.NewWSHandler(engine)

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	mux.HandleFunc("/ws", wsHandler.ServeWS)

	server := &http.Server{
		Addr:         ":" + finalPort,
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	botCtx, cancelBot := context.WithCancel(ctx)
	defer cancelBot()
	if cfg.Telegram.Token != "" {
		bot, err := telegram.NewBot(cfg.Telegram.Token, engine)
		if err != nil {
			return err
		}
		go bot.Run(botCtx)
	}

	go func() {
		log.Printf("starting quiz service on :%s", finalPort)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("failed to start server: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-stop:
		log.Println("shutting down server...")
	case <-ctx.Done():
		log.Println("context canceled, shutting down server...")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

// sampleQuestions provides a minimal question bank for runs without a
// questions directory; point quiz.questions_dir at real CSV files in
// production.
func sampleQuestions() []domain.Question {
	return []domain.Question{
		{
			Topic:  "Grammar",
			Prompt: "Which sentence is correct?",
			Options: []domain.Option{
				{Key: "A", Text: "She don't like tea."},
				{Key: "B", Text: "She doesn't like tea."},
				{Key: "C", Text: "She not like tea."},
				{Key: "D", Text: "She no likes tea."},
			},
			CorrectOption: "B",
			Explanation:   "Third person singular takes doesn't.",
		},
		{
			Topic:  "Vocabulary",
			Prompt: "Pick the synonym of \"rapid\".",
			Options: []domain.Option{
				{Key: "A", Text: "slow"},
				{Key: "B", Text: "quick"},
				{Key: "C", Text: "quiet"},
				{Key: "D", Text: "heavy"},
			},
			CorrectOption: "B",
		},
	}
}
