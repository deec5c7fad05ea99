package api

import (
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/websocket/v2"

	"github.com/ai-portfolio/backend/internal/api/handlers"
	"github.com/ai-portfolio/backend/internal/assistant"
	"github.com/ai-portfolio/backend/internal/document"
	"github.com/ai-portfolio/backend/internal/drafts"
	"github.com/ai-portfolio/backend/internal/extraction"
	"github.com/ai-portfolio/backend/internal/metrics"
	"github.com/ai-portfolio/backend/internal/middleware/ratelimit"
	"github.com/ai-portfolio/backend/internal/middleware/security"
	"github.com/ai-portfolio/backend/internal/middleware/validation"
	"github.com/ai-portfolio/backend/internal/projects"
	"github.com/ai-portfolio/backend/internal/tracker"
	"github.com/ai-portfolio/backend/pkg/logger"
)

type RouterConfig struct {
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	BodyLimit      int
	AllowedOrigins []string
	IsDevelopment  bool
	// RequestLogging enables the per-request access log.
	RequestLogging bool
	Validation     validation.Config
}

type RouterDeps struct {
	Projects    *projects.Service
	Assistant   *assistant.Assistant
	Documents   *document.Extractor
	Structured  *extraction.Extractor
	Drafts      drafts.Store
	Tracker     *tracker.Service
	RateLimiter *ratelimit.RateLimiter
	// Invalidator is nil when no answer cache is configured.
	Invalidator handlers.AnswerInvalidator
	Checks      []handlers.Check
}

func BuildRouter(cfg RouterConfig, dep RouterDeps) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:               "ai-portfolio",
		ReadTimeout:           cfg.ReadTimeout,
		WriteTimeout:          cfg.WriteTimeout,
		BodyLimit:             cfg.BodyLimit,
		DisableStartupMessage: true,
	})

	app.Use(recover.New())
	if cfg.RequestLogging {
		app.Use(fiberlogger.New())
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins:  strings.Join(cfg.AllowedOrigins, ", "),
		AllowHeaders:  "Origin, Content-Type, Accept, Authorization, " + handlers.SessionHeader,
		AllowMethods:  "GET, POST, DELETE, OPTIONS",
		ExposeHeaders: handlers.SessionHeader,
	}))
	app.Use(security.HeadersMiddleware(security.HeadersConfig{
		AllowedOrigins: cfg.AllowedOrigins,
		IsDevelopment:  cfg.IsDevelopment,
	}))

	vcfg := cfg.Validation
	if vcfg.Logger == nil {
		vcfg.Logger = logger.GetLogger()
	}

	limited := func(c *fiber.Ctx) error { return c.Next() }
	if dep.RateLimiter != nil {
		limited = dep.RateLimiter.Middleware()
	}

	healthHandler := handlers.NewHealthHandler(dep.Checks...)
	projectHandler := handlers.NewProjectHandler(dep.Projects, dep.Invalidator)
	askHandler := handlers.NewAskHandler(dep.Assistant)
	documentHandler := handlers.NewDocumentHandler(dep.Documents, dep.Structured, dep.Drafts, dep.Projects)
	analyticsHandler := handlers.NewAnalyticsHandler(dep.Tracker)
	wsHandler := handlers.NewWebSocketHandler(dep.Assistant, vcfg.MaxQuestionLength)

	app.Get("/metrics", metrics.MetricsHandler())

	api := app.Group("/api/v1")
	api.Use(validation.ContentType(vcfg))

	api.Get("/health", healthHandler.Health)
	api.Get("/ready", healthHandler.Ready)

	api.Get("/projects", projectHandler.ListProjects)
	api.Post("/projects", projectHandler.CreateProject)
	api.Get("/projects/:title", projectHandler.GetProject)
	api.Delete("/projects/:title", projectHandler.DeleteProject)
	api.Post("/projects/:title/ask", limited, validation.Question(vcfg), askHandler.HandleAsk)
	api.Post("/projects/:title/demo", projectHandler.RunDemo)

	api.Post("/documents", limited, validation.Upload(vcfg), documentHandler.UploadDocument)
	api.Post("/drafts/text", limited, documentHandler.ExtractText)
	api.Get("/drafts", documentHandler.GetDraft)
	api.Delete("/drafts", documentHandler.DiscardDraft)
	api.Post("/drafts/save", documentHandler.SaveDraft)

	api.Get("/analytics", analyticsHandler.GetSummary)
	api.Get("/analytics/interactions", analyticsHandler.GetInteractions)
	api.Get("/analytics/export", analyticsHandler.ExportXLSX)

	app.Get("/ws/ask", limited, handlers.RequireUpgrade, websocket.New(wsHandler.HandleConnection))

	return app
}
