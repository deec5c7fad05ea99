package llm

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ai-portfolio/backend/pkg/circuitbreaker"
)

type chatRequest struct {
	Model    string `json:"model"`
	Messages []struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	} `json:"messages"`
}

func newFakeProvider(t *testing.T, handler func(w http.ResponseWriter, req chatRequest)) *httptest.Server {
	t.Helper()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/chat/completions" {
			http.NotFound(w, r)
			return
		}
		body, _ := io.ReadAll(r.Body)
		var req chatRequest
		_ = json.Unmarshal(body, &req)
		handler(w, req)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func writeCompletion(w http.ResponseWriter, content string) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"id":      "chatcmpl-1",
		"object":  "chat.completion",
		"created": 1,
		"model":   "test-model",
		"choices": []map[string]any{{
			"index":         0,
			"message":       map[string]string{"role": "assistant", "content": content},
			"finish_reason": "stop",
		}},
		"usage": map[string]int{"prompt_tokens": 10, "completion_tokens": 5, "total_tokens": 15},
	})
}

func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"error": map[string]any{"message": message, "type": "error", "code": nil},
	})
}

func newTestClient(srv *httptest.Server) *Client {
	return NewClient(Config{
		APIKey:          "test-key",
		BaseURL:         srv.URL + "/v1",
		Model:           "chat-model",
		ExtractionModel: "extract-model",
		Temperature:     0.3,
		MaxTokens:       256,
	})
}

func TestExplainProject_SendsRoleSeparatedMessages(t *testing.T) {
	var got chatRequest
	srv := newFakeProvider(t, func(w http.ResponseWriter, req chatRequest) {
		got = req
		writeCompletion(w, "Logistic regression is interpretable.")
	})

	answer, err := newTestClient(srv).ExplainProject(context.Background(), "Why logistic regression?", "Churn context")
	require.NoError(t, err)
	assert.Equal(t, "Logistic regression is interpretable.", answer)

	assert.Equal(t, "chat-model", got.Model)
	require.Len(t, got.Messages, 2)
	assert.Equal(t, "system", got.Messages[0].Role)
	assert.Contains(t, got.Messages[0].Content, "helpful assistant explaining data science projects")
	assert.Contains(t, got.Messages[0].Content, "Churn context")
	assert.Equal(t, "user", got.Messages[1].Role)
	assert.Equal(t, "Why logistic regression?", got.Messages[1].Content)
}

func TestGenerate_UsesExtractionModelAndInlinePrompt(t *testing.T) {
	var got chatRequest
	srv := newFakeProvider(t, func(w http.ResponseWriter, req chatRequest) {
		got = req
		writeCompletion(w, `{"title":"x"}`)
	})

	out, err := newTestClient(srv).Generate(context.Background(), "", "extract this")
	require.NoError(t, err)
	assert.Equal(t, `{"title":"x"}`, out)
	assert.Equal(t, "extract-model", got.Model)
	require.Len(t, got.Messages, 1)
	assert.Equal(t, "user", got.Messages[0].Role)
}

func TestComplete_RateLimited(t *testing.T) {
	srv := newFakeProvider(t, func(w http.ResponseWriter, _ chatRequest) {
		writeError(w, http.StatusTooManyRequests, "quota exceeded")
	})

	_, err := newTestClient(srv).ExplainProject(context.Background(), "q", "ctx")
	assert.ErrorIs(t, err, ErrRateLimited)
}

func TestComplete_NotConfigured(t *testing.T) {
	c := NewClient(Config{Model: "chat-model"})
	assert.False(t, c.Configured())

	_, err := c.Generate(context.Background(), "", "prompt")
	assert.ErrorIs(t, err, ErrNotConfigured)
}

func TestComplete_ServerErrorsOpenCircuit(t *testing.T) {
	var calls atomic.Int32
	srv := newFakeProvider(t, func(w http.ResponseWriter, _ chatRequest) {
		calls.Add(1)
		writeError(w, http.StatusInternalServerError, "boom")
	})
	c := newTestClient(srv)

	for i := 0; i < 5; i++ {
		_, err := c.Generate(context.Background(), "", "prompt")
		require.Error(t, err)
	}
	assert.Equal(t, circuitbreaker.StateOpen, c.BreakerState())

	_, err := c.Generate(context.Background(), "", "prompt")
	assert.ErrorIs(t, err, circuitbreaker.ErrOpen)
	assert.Equal(t, int32(5), calls.Load())
}

func TestComplete_ClientErrorsDoNotOpenCircuit(t *testing.T) {
	srv := newFakeProvider(t, func(w http.ResponseWriter, _ chatRequest) {
		writeError(w, http.StatusBadRequest, "bad request")
	})
	c := newTestClient(srv)

	for i := 0; i < 6; i++ {
		_, _ = c.Generate(context.Background(), "", "prompt")
	}
	assert.Equal(t, circuitbreaker.StateClosed, c.BreakerState())
}

func TestComplete_NoChoices(t *testing.T) {
	srv := newFakeProvider(t, func(w http.ResponseWriter, _ chatRequest) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"x","object":"chat.completion","choices":[]}`))
	})

	_, err := newTestClient(srv).Generate(context.Background(), "", "prompt")
	assert.ErrorIs(t, err, ErrEmptyResponse)
}
