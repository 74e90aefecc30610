package main

import (
	_ "github.com/joho/godotenv/autoload" // Load .env file automatically

	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"taskbridge-bot/api/routes"
	"taskbridge-bot/internal/chatbot"
	"taskbridge-bot/internal/config"
	"taskbridge-bot/internal/events"
	"taskbridge-bot/internal/intent"
	"taskbridge-bot/internal/llm"
	"taskbridge-bot/internal/pipeline"
	"taskbridge-bot/internal/resolver"
	"taskbridge-bot/internal/speech"
	"taskbridge-bot/internal/tasks"
	"taskbridge-bot/internal/tasks/todoist"
	"taskbridge-bot/internal/tasks/yougile"
	"taskbridge-bot/pkg/logger"
	"taskbridge-bot/version"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger := logger.New(cfg.Log.Level, cfg.Log.Development)
	defer func() { _ = logger.Sync() }()

	if err := cfg.Validate(); err != nil {
		logger.Fatalw("Invalid configuration", "error", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Fatalw("Bot stopped with error", "error", err)
	}
	logger.Info("Bot exited")
}

func run(ctx context.Context, cfg *config.Config, logger *logger.Logger) error {
	zapLogger := logger.Zap()

	eventBus := events.NewEventBus(zapLogger)
	defer func() {
		if err := eventBus.Close(); err != nil {
			logger.Errorw("Failed to close event bus", "error", err)
		}
	}()

	provider, directory := newProvider(cfg, zapLogger)

	completer, err := llm.NewCompleter(ctx, cfg.LLM, zapLogger)
	if err != nil {
		return fmt.Errorf("failed to initialize LLM backend: %w", err)
	}

	telegram, err := chatbot.NewTelegramProvider(cfg.Telegram, zapLogger)
	if err != nil {
		return fmt.Errorf("failed to initialize Telegram provider: %w", err)
	}

	recognizer := speech.NewSpeechKitRecognizer(cfg.SpeechKit, zapLogger)
	_, err = pipeline.NewService(eventBus, zapLogger, pipeline.Dependencies{
		Provider:    provider,
		Extractor:   intent.NewExtractor(completer, provider.Dialect(), zapLogger),
		Resolver:    resolver.New(directory, cfg.Resolver.Strict, zapLogger),
		Transcriber: speech.NewTranscriber(recognizer, cfg.SpeechKit.Models, zapLogger),
		Audio:       telegram,
	}, time.Duration(cfg.Pipeline.Timeout)*time.Second)
	if err != nil {
		return fmt.Errorf("failed to initialize pipeline: %w", err)
	}

	chatbotService, err := chatbot.NewService(eventBus, zapLogger, telegram, cfg.Telegram, provider.Name())
	if err != nil {
		return fmt.Errorf("failed to initialize chatbot service: %w", err)
	}

	logger.Infow("Services initialized",
		"version", version.String(),
		"provider", provider.Name(),
		"llm", completer.GetModelInfo().Name,
		"mode", cfg.Telegram.Mode,
		"strict_resolution", cfg.Resolver.Strict)

	if cfg.Telegram.Mode == config.ModeWebhook {
		return serveWebhook(ctx, cfg, logger, telegram, chatbotService, provider.Name())
	}
	return chatbotService.Run(ctx)
}

// newProvider selects the task tracker. Only Todoist exposes a project
// directory, so Yougile requests always keep their names unresolved.
func newProvider(cfg *config.Config, logger *zap.Logger) (tasks.Provider, tasks.ProjectDirectory) {
	if cfg.Provider == config.ProviderYougile {
		return yougile.NewClient(cfg.Yougile, logger), nil
	}
	client := todoist.NewClient(cfg.Todoist, logger)
	return client, client
}

func serveWebhook(ctx context.Context, cfg *config.Config, logger *logger.Logger, telegram chatbot.TelegramProvider, chatbotService *chatbot.Service, providerName string) error {
	if cfg.Telegram.WebhookURL != "" {
		if err := telegram.SetWebhook(cfg.Telegram.WebhookURL, cfg.Telegram.WebhookSecret); err != nil {
			return fmt.Errorf("failed to register webhook: %w", err)
		}
		logger.Infow("Webhook registered", "url", cfg.Telegram.WebhookURL)
	}

	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	routes.SetupRoutes(router, logger, chatbotService, providerName, cfg.Telegram.WebhookSecret)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Infow("Starting server", "port", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}
	return nil
}
