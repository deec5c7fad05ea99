package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/ai-portfolio/backend/internal/api"
	"github.com/ai-portfolio/backend/internal/api/handlers"
	"github.com/ai-portfolio/backend/internal/assistant"
	"github.com/ai-portfolio/backend/internal/bootstrap"
	"github.com/ai-portfolio/backend/internal/document"
	"github.com/ai-portfolio/backend/internal/drafts"
	"github.com/ai-portfolio/backend/internal/extraction"
	"github.com/ai-portfolio/backend/internal/llm"
	"github.com/ai-portfolio/backend/internal/metrics"
	"github.com/ai-portfolio/backend/internal/middleware/ratelimit"
	"github.com/ai-portfolio/backend/internal/middleware/validation"
	"github.com/ai-portfolio/backend/internal/projects"
	"github.com/ai-portfolio/backend/internal/tracker"
	"github.com/ai-portfolio/backend/pkg/config"
	appLogger "github.com/ai-portfolio/backend/pkg/logger"
	"github.com/ai-portfolio/backend/pkg/retry"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	err = appLogger.Init(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.OutputPath)
	if err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer appLogger.Sync()

	appLogger.Info("Starting AI portfolio API server",
		zap.String("environment", cfg.Server.Environment),
		zap.String("projects_backend", cfg.Projects.Backend),
		zap.String("tracker_backend", cfg.Tracker.Backend),
	)

	metrics.Init()

	rc := retry.DefaultConfig()
	rc.Logger = appLogger.GetLogger()

	startCtx, cancelStart := context.WithTimeout(context.Background(), 30*time.Second)
	backends := bootstrap.Open(startCtx, cfg, rc)
	cancelStart()
	defer backends.Close()

	llmClient := llm.NewClient(llm.Config{
		APIKey:          cfg.LLM.APIKey,
		BaseURL:         cfg.LLM.BaseURL,
		Model:           cfg.LLM.Model,
		ExtractionModel: cfg.LLM.ExtractionModel,
		Temperature:     cfg.LLM.Temperature,
		MaxTokens:       cfg.LLM.MaxTokens,
		Timeout:         time.Duration(cfg.LLM.TimeoutSec) * time.Second,
	})

	structured, err := extraction.New(llmClient, cfg.LLM.ExtractionModel)
	if err != nil {
		appLogger.Fatal("Failed to build extractor", zap.Error(err))
	}

	projectService := projects.NewService(backends.Projects)
	trackerService := tracker.NewService(backends.Interactions, cfg.Tracker.Backend)

	draftTTL := time.Duration(cfg.Drafts.TTLSec) * time.Second
	var draftStore drafts.Store = drafts.NewMemoryStore(draftTTL)
	opts := assistant.Options{
		CacheTTL: time.Duration(cfg.Redis.AnswerTTLSec) * time.Second,
	}
	var invalidator handlers.AnswerInvalidator
	if backends.Cache != nil {
		draftStore = drafts.NewRedisStore(backends.Cache, draftTTL)
		opts.Cache = backends.Cache
		invalidator = backends.Cache
	}

	rateLimiter := ratelimit.New(ratelimit.Config{
		MaxRequestsPerMinute: cfg.RateLimit.RequestsPerMinute,
		Logger:               appLogger.GetLogger(),
	})
	defer rateLimiter.Stop()

	app := api.BuildRouter(api.RouterConfig{
		ReadTimeout:    time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout:   time.Duration(cfg.Server.WriteTimeout) * time.Second,
		BodyLimit:      cfg.Server.BodyLimit,
		AllowedOrigins: cfg.Server.AllowedOrigins,
		IsDevelopment:  cfg.IsDevelopment(),
		RequestLogging: true,
		Validation: validation.Config{
			MaxUploadSize: int64(cfg.Server.BodyLimit),
			Logger:        appLogger.GetLogger(),
		},
	}, api.RouterDeps{
		Projects:    projectService,
		Assistant:   assistant.New(llmClient, projectService, trackerService, opts),
		Documents:   document.NewExtractor(),
		Structured:  structured,
		Drafts:      draftStore,
		Tracker:     trackerService,
		RateLimiter: rateLimiter,
		Invalidator: invalidator,
		Checks: append(backends.Checks, handlers.Check{
			Name: "llm",
			Fn: func(context.Context) error {
				if !llmClient.Configured() {
					return llm.ErrNotConfigured
				}
				return nil
			},
		}),
	})

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	appLogger.Info("Server starting", zap.String("address", addr))

	go func() {
		if err := app.Listen(addr); err != nil {
			appLogger.Fatal("Server failed to start", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	appLogger.Info("Server shutting down gracefully...")
	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		appLogger.Error("Server shutdown failed", zap.Error(err))
	}
	appLogger.Info("Server stopped")
}
