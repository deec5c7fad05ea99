// Package assistant answers visitor questions about a project using the
// project's AI context as grounding.
package assistant

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ai-portfolio/backend/internal/llm"
	"github.com/ai-portfolio/backend/internal/metrics"
	"github.com/ai-portfolio/backend/internal/projects"
	"github.com/ai-portfolio/backend/internal/storage/models"
	"github.com/ai-portfolio/backend/pkg/circuitbreaker"
	"github.com/ai-portfolio/backend/pkg/logger"
	"github.com/ai-portfolio/backend/pkg/utils"
)

var (
	ErrEmptyQuestion   = errors.New("please enter a question first")
	ErrProjectNotFound = errors.New("project not found")
)

const (
	WarnUnavailable   = "⚠️ AI service is temporarily unavailable. Please try again later."
	WarnNotConfigured = "⚠️ AI service is not configured. Ask the site owner to set an API key."
	WarnFailed        = "⚠️ The AI assistant could not answer right now. Please try again."
)

type Explainer interface {
	ExplainProject(ctx context.Context, question, aiContext string) (string, error)
}

type ProjectLookup interface {
	Get(ctx context.Context, title string) (*models.Project, error)
}

type Recorder interface {
	Record(ctx context.Context, project, question string) error
}

// AnswerCache is optional.
type AnswerCache interface {
	GetAnswer(ctx context.Context, key string, answer interface{}) (bool, error)
	SetAnswer(ctx context.Context, key string, answer interface{}, ttl time.Duration) error
}

type AskRequest struct {
	Project  string
	Question string
}

type AskResponse struct {
	ID        string `json:"id"`
	Project   string `json:"project"`
	Question  string `json:"question"`
	Answer    string `json:"answer"`
	Warning   bool   `json:"warning"`
	Cached    bool   `json:"cached"`
	LatencyMS int    `json:"latency_ms"`
}

type Options struct {
	Cache    AnswerCache
	CacheTTL time.Duration
}

type Assistant struct {
	llm      Explainer
	projects ProjectLookup
	recorder Recorder
	cache    AnswerCache
	cacheTTL time.Duration
}

func New(explainer Explainer, lookup ProjectLookup, recorder Recorder, opts Options) *Assistant {
	return &Assistant{
		llm:      explainer,
		projects: lookup,
		recorder: recorder,
		cache:    opts.Cache,
		cacheTTL: opts.CacheTTL,
	}
}

type cachedAnswer struct {
	Answer string `json:"answer"`
}

// Ask validates the question, answers it and logs the interaction. Provider
// failures come back as a warning answer, not an error.
func (a *Assistant) Ask(ctx context.Context, req AskRequest) (*AskResponse, error) {
	start := time.Now()

	question := strings.TrimSpace(req.Question)
	if question == "" {
		metrics.QuestionsTotal.WithLabelValues("invalid").Inc()
		return nil, ErrEmptyQuestion
	}

	project, err := a.projects.Get(ctx, req.Project)
	if err != nil {
		if errors.Is(err, projects.ErrNotFound) {
			metrics.QuestionsTotal.WithLabelValues("not_found").Inc()
			return nil, ErrProjectNotFound
		}
		return nil, err
	}

	resp := &AskResponse{
		ID:       uuid.New().String(),
		Project:  project.Title,
		Question: question,
	}

	logger.Info("Processing question",
		zap.String("question_id", resp.ID),
		zap.String("project", project.Title),
	)

	source := "llm"
	key := utils.HashParts(project.Title, question)
	if a.lookupCache(ctx, key, resp) {
		source = "cache"
	} else {
		answer, err := a.llm.ExplainProject(ctx, question, project.AIContext)
		if err != nil {
			resp.Answer = warningFor(err)
			resp.Warning = true
			logger.Warn("AI answer failed", zap.String("question_id", resp.ID), zap.Error(err))
		} else {
			resp.Answer = answer
			a.storeCache(ctx, key, answer)
		}
	}

	if err := a.recorder.Record(ctx, project.Title, question); err != nil {
		logger.Warn("Interaction not logged", zap.String("question_id", resp.ID), zap.Error(err))
	}

	status := "answered"
	if resp.Warning {
		status = "warning"
	}
	metrics.QuestionsTotal.WithLabelValues(status).Inc()
	metrics.QuestionDuration.WithLabelValues(source).Observe(time.Since(start).Seconds())

	resp.LatencyMS = int(time.Since(start).Milliseconds())
	return resp, nil
}

func (a *Assistant) lookupCache(ctx context.Context, key string, resp *AskResponse) bool {
	if a.cache == nil {
		return false
	}

	var cached cachedAnswer
	found, err := a.cache.GetAnswer(ctx, key, &cached)
	if err != nil {
		logger.Warn("Answer cache read failed", zap.Error(err))
		return false
	}
	if !found {
		metrics.CacheMisses.WithLabelValues("answer").Inc()
		return false
	}

	metrics.CacheHits.WithLabelValues("answer").Inc()
	resp.Answer = cached.Answer
	resp.Cached = true
	return true
}

func (a *Assistant) storeCache(ctx context.Context, key, answer string) {
	if a.cache == nil {
		return
	}
	if err := a.cache.SetAnswer(ctx, key, cachedAnswer{Answer: answer}, a.cacheTTL); err != nil {
		logger.Warn("Answer cache write failed", zap.Error(err))
	}
}

func warningFor(err error) string {
	switch {
	case errors.Is(err, llm.ErrRateLimited), errors.Is(err, circuitbreaker.ErrOpen):
		return WarnUnavailable
	case errors.Is(err, llm.ErrNotConfigured):
		return WarnNotConfigured
	default:
		return WarnFailed
	}
}
