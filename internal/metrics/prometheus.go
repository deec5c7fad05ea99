package metrics

import (
	"sync"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	QuestionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "portfolio_questions_total",
			Help: "Questions answered, by outcome",
		},
		[]string{"status"},
	)

	QuestionDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "portfolio_question_duration_seconds",
			Help:    "Time to answer a question in seconds",
			Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30},
		},
		[]string{"source"},
	)

	LLMRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "portfolio_llm_request_duration_seconds",
			Help:    "LLM API call duration in seconds",
			Buckets: []float64{0.25, 0.5, 1, 2, 5, 10, 30, 60},
		},
		[]string{"model", "status"},
	)

	LLMTokensUsed = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "portfolio_llm_tokens_used",
			Help: "Total LLM tokens used",
		},
		[]string{"model", "type"},
	)

	ExtractionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "portfolio_extractions_total",
			Help: "Structured extractions, by result",
		},
		[]string{"result"},
	)

	DocumentsProcessed = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "portfolio_documents_processed_total",
			Help: "Uploaded documents processed, by kind and status",
		},
		[]string{"kind", "status"},
	)

	InteractionsLogged = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "portfolio_interactions_logged_total",
			Help: "Interaction log writes, by backend and status",
		},
		[]string{"backend", "status"},
	)

	ProjectsSaved = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "portfolio_projects_saved_total",
			Help: "Project save attempts, by result",
		},
		[]string{"result"},
	)

	CacheHits = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "portfolio_cache_hits_total",
			Help: "Total cache hits",
		},
		[]string{"cache_type"},
	)

	CacheMisses = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "portfolio_cache_misses_total",
			Help: "Total cache misses",
		},
		[]string{"cache_type"},
	)

	ActiveDrafts = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "portfolio_active_drafts",
			Help: "Unsaved drafts held in memory",
		},
	)
)

var registerOnce sync.Once

// Init registers the collectors with the default registry. Safe to call more
// than once.
func Init() {
	registerOnce.Do(func() {
		prometheus.MustRegister(
			QuestionsTotal,
			QuestionDuration,
			LLMRequestDuration,
			LLMTokensUsed,
			ExtractionsTotal,
			DocumentsProcessed,
			InteractionsLogged,
			ProjectsSaved,
			CacheHits,
			CacheMisses,
			ActiveDrafts,
		)
	})
}

func MetricsHandler() fiber.Handler {
	return adaptor.HTTPHandler(promhttp.Handler())
}
