package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/code-samurai/learner-client/internal/api"
	"github.com/code-samurai/learner-client/internal/cache"
	"github.com/code-samurai/learner-client/internal/config"
	"github.com/code-samurai/learner-client/internal/content"
	"github.com/code-samurai/learner-client/internal/events"
	"github.com/code-samurai/learner-client/internal/review"
	"github.com/code-samurai/learner-client/internal/services"
	"github.com/code-samurai/learner-client/internal/session"
	"github.com/code-samurai/learner-client/internal/tui"
	"github.com/code-samurai/learner-client/internal/utils"
	"github.com/code-samurai/learner-client/internal/validator"
	"github.com/code-samurai/learner-client/pkg"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "codesamurai:", err)
		os.Exit(1)
	}
}

func run() error {
	lessonQuery := flag.String("lesson", "", `open a lesson at start-up, e.g. "practice", "remote" or "fast-forward=2"`)
	flag.Parse()

	var startLesson *services.LessonOptions
	if *lessonQuery != "" {
		opts, err := services.ParseLessonOptions(*lessonQuery)
		if err != nil {
			return fmt.Errorf("-lesson %q: %s", *lessonQuery, services.UserMessage(err))
		}
		startLesson = &opts
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// the TUI owns the terminal, so logs go to a file
	logFile, err := os.OpenFile(cfg.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	defer logFile.Close()

	format := "json"
	if cfg.IsDevelopment() {
		format = "text"
	}
	logger := utils.NewLogger(logFile, utils.ParseLevel(cfg.LogLevel), format)
	slogger := utils.ToSlogLogger(logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	client := api.NewClient(cfg.APIBaseURL,
		api.WithTimeout(cfg.APITimeout),
		api.WithLogger(logger),
	)
	v := validator.New()
	if err := v.Problem().ValidatePool(content.ProblemPool()); err != nil {
		return fmt.Errorf("built-in problem pool is broken: %w", err)
	}
	store := session.NewStore(client, v, logger.With("component", "session"))

	feedCache := newFeedCache(ctx, cfg, slogger)

	bus, err := cfg.Events.CreateEventBus(slogger)
	if err != nil {
		logger.Warn("Event bus unavailable, keeping events in memory", "error", err)
		bus = &config.EventBus{Publisher: events.NewMockEventPublisher(slogger), Topic: cfg.Events.LessonTopic}
	}

	serviceLogger := func(component string) *services.ServiceLogger {
		return services.NewServiceLogger(slogger, services.LogConfig{
			Service:     "learner-client",
			Component:   component,
			EnableDebug: cfg.IsDevelopment(),
		})
	}

	recorder := services.NewActivityRecorder(store, serviceLogger("activity"))
	publisher, err := recorder.Wire(ctx, bus)
	if err != nil {
		return err
	}
	defer publisher.Close()

	feed := services.NewProblemFeed(client, store, feedCache, cfg.FeedCacheTTL, v, serviceLogger("problem_feed"))
	grading := services.NewGradingService(client, store, v, serviceLogger("grading"))
	lessons := services.NewLessonService(services.LessonDeps{
		Feed:      feed,
		Grader:    grading,
		Progress:  store,
		Identity:  store,
		Publisher: publisher,
		Logger:    serviceLogger("lesson"),
	})

	app := tui.New(tui.Deps{
		Store:    store,
		Lessons:  lessons,
		Feed:     feed,
		Exporter: review.NewExporter(cfg.ExportDir, serviceLogger("review")),
		Pinger:   client,
		Logger:   logger,
		Timeout:  cfg.APITimeout,
		Language: cfg.DefaultLanguage,
		Lesson:   startLesson,
	})

	logger.Info("Starting learner client", "api_base_url", cfg.APIBaseURL, "environment", cfg.Environment)
	if _, err := tea.NewProgram(app, tea.WithAltScreen()).Run(); err != nil {
		return fmt.Errorf("ui failed: %w", err)
	}
	return nil
}

// newFeedCache prefers Redis and falls back to an in-process cache
func newFeedCache(ctx context.Context, cfg *config.Config, logger *slog.Logger) cache.CacheService {
	if cfg.RedisURL == "" {
		return cache.NewMemoryCache()
	}
	client, err := pkg.NewRedisClient(ctx, cfg)
	if err != nil {
		logger.Warn("Redis unavailable, using in-memory feed cache", "error", err)
		return cache.NewMemoryCache()
	}
	return cache.NewRedisCache(client, logger)
}
