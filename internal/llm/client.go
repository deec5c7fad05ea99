package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/ai-portfolio/backend/internal/metrics"
	"github.com/ai-portfolio/backend/pkg/circuitbreaker"
	"github.com/ai-portfolio/backend/pkg/logger"
)

var (
	ErrNotConfigured = errors.New("LLM API key is not configured")
	ErrRateLimited   = errors.New("LLM provider rate limit reached")
	ErrEmptyResponse = errors.New("LLM returned no choices")
)

type Config struct {
	APIKey          string
	BaseURL         string
	Model           string
	ExtractionModel string
	Temperature     float32
	MaxTokens       int
	Timeout         time.Duration
}

type Client struct {
	client          *openai.Client
	model           string
	extractionModel string
	temperature     float32
	maxTokens       int
	timeout         time.Duration
	cb              *circuitbreaker.CircuitBreaker
}

type CompletionRequest struct {
	Model        string
	SystemPrompt string
	UserPrompt   string
	Temperature  float32
	MaxTokens    int
}

type CompletionResponse struct {
	Content string
	Usage   Usage
}

type Usage struct {
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}

// NewClient returns a client even without an API key; calls then fail with
// ErrNotConfigured so the rest of the service keeps working.
func NewClient(cfg Config) *Client {
	c := &Client{
		model:           cfg.Model,
		extractionModel: cfg.ExtractionModel,
		temperature:     cfg.Temperature,
		maxTokens:       cfg.MaxTokens,
		timeout:         cfg.Timeout,
	}
	if c.extractionModel == "" {
		c.extractionModel = c.model
	}
	if c.timeout <= 0 {
		c.timeout = 60 * time.Second
	}

	c.cb = circuitbreaker.New("llm", circuitbreaker.Config{
		FailureThreshold: 5,
		OpenTimeout:      30 * time.Second,
		IsFailure:        countsAgainstProvider,
		Logger:           logger.GetLogger(),
	})

	if cfg.APIKey == "" {
		logger.Warn("LLM API key missing, AI features are disabled")
		return c
	}

	oc := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		oc.BaseURL = cfg.BaseURL
	}
	c.client = openai.NewClientWithConfig(oc)

	logger.Info("LLM client initialized",
		zap.String("model", c.model),
		zap.String("extraction_model", c.extractionModel),
		zap.Bool("custom_base_url", cfg.BaseURL != ""),
	)

	return c
}

func (c *Client) Configured() bool {
	return c != nil && c.client != nil
}

func (c *Client) BreakerState() circuitbreaker.State {
	return c.cb.State()
}

func (c *Client) Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error) {
	if !c.Configured() {
		return nil, ErrNotConfigured
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	model := req.Model
	if model == "" {
		model = c.model
	}
	temperature := req.Temperature
	if temperature == 0 {
		temperature = c.temperature
	}
	maxTokens := req.MaxTokens
	if maxTokens == 0 {
		maxTokens = c.maxTokens
	}

	messages := make([]openai.ChatCompletionMessage, 0, 2)
	if req.SystemPrompt != "" {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: req.SystemPrompt,
		})
	}
	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleUser,
		Content: req.UserPrompt,
	})

	var result *CompletionResponse
	start := time.Now()

	err := c.cb.Execute(func() error {
		resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
			Model:       model,
			Messages:    messages,
			Temperature: temperature,
			MaxTokens:   maxTokens,
		})
		if err != nil {
			return classify(err)
		}
		if len(resp.Choices) == 0 {
			return ErrEmptyResponse
		}

		logger.Debug("LLM completion generated",
			zap.String("model", model),
			zap.Int("prompt_tokens", resp.Usage.PromptTokens),
			zap.Int("completion_tokens", resp.Usage.CompletionTokens),
		)

		result = &CompletionResponse{
			Content: resp.Choices[0].Message.Content,
			Usage: Usage{
				PromptTokens:     resp.Usage.PromptTokens,
				CompletionTokens: resp.Usage.CompletionTokens,
				TotalTokens:      resp.Usage.TotalTokens,
			},
		}
		return nil
	})

	status := "success"
	if err != nil {
		status = "error"
	}
	metrics.LLMRequestDuration.WithLabelValues(model, status).Observe(time.Since(start).Seconds())

	if err != nil {
		return nil, err
	}

	metrics.LLMTokensUsed.WithLabelValues(model, "prompt").Add(float64(result.Usage.PromptTokens))
	metrics.LLMTokensUsed.WithLabelValues(model, "completion").Add(float64(result.Usage.CompletionTokens))

	return result, nil
}

// Generate sends a single inline prompt, the form used by the document
// extraction path. An empty model selects the extraction model.
func (c *Client) Generate(ctx context.Context, model, prompt string) (string, error) {
	if model == "" {
		model = c.extractionModel
	}

	resp, err := c.Complete(ctx, CompletionRequest{
		Model:       model,
		UserPrompt:  prompt,
		Temperature: 0.2,
	})
	if err != nil {
		return "", err
	}
	return resp.Content, nil
}

func (c *Client) ExplainProject(ctx context.Context, question, aiContext string) (string, error) {
	systemPrompt := "You are a helpful assistant explaining data science projects. Context: " + aiContext

	resp, err := c.Complete(ctx, CompletionRequest{
		SystemPrompt: systemPrompt,
		UserPrompt:   question,
	})
	if err != nil {
		return "", fmt.Errorf("failed to explain project: %w", err)
	}

	logger.Info("Response generated", zap.Int("response_length", len(resp.Content)))
	return resp.Content, nil
}

func classify(err error) error {
	if statusCode(err) == http.StatusTooManyRequests {
		return fmt.Errorf("%w: %w", ErrRateLimited, err)
	}
	return fmt.Errorf("failed to create completion: %w", err)
}

func statusCode(err error) int {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.HTTPStatusCode
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return reqErr.HTTPStatusCode
	}
	return 0
}

// countsAgainstProvider keeps caller-side problems from opening the circuit.
func countsAgainstProvider(err error) bool {
	if errors.Is(err, context.Canceled) {
		return false
	}
	code := statusCode(err)
	return code == 0 || code == http.StatusTooManyRequests || code >= 500
}
