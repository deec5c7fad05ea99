// Package extraction asks the LLM to turn free text into a project draft.
package extraction

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"go.uber.org/zap"

	"github.com/ai-portfolio/backend/internal/metrics"
	"github.com/ai-portfolio/backend/internal/storage/models"
	"github.com/ai-portfolio/backend/pkg/logger"
)

// MaxInputChars bounds the text sent to the model.
const MaxInputChars = 10000

var (
	// ErrNoResult is the absent result: nothing usable came back and the
	// user should retry or fill the form by hand.
	ErrNoResult   = errors.New("no project could be extracted")
	ErrEmptyInput = errors.New("no text to extract from")
)

// Generator is the part of the LLM client the extractor needs.
type Generator interface {
	Generate(ctx context.Context, model, prompt string) (string, error)
}

const promptTemplate = `You are a Data Science Portfolio Manager.
Extract details about a SINGLE project from the following text.

TEXT CONTENT:
%s

INSTRUCTIONS:
1. Identify the main project described.
2. Extract the Title, a Short Description, Skills used, and a Detailed Context for AI.
3. Return ONLY a valid JSON object. Do not add Markdown formatting (` + "```json" + `).

JSON FORMAT:
{
    "title": "Project Name",
    "description": "One sentence summary.",
    "skills": "Python, SQL, Machine Learning (Comma separated string)",
    "ai_context": "Detailed explanation of the problem, solution, model, and results. This will be used by an AI chatbot to answer questions."
}`

var draftSchema = map[string]any{
	"type":     "object",
	"required": []string{"title", "description", "skills", "ai_context"},
	"properties": map[string]any{
		"title":       map[string]any{"type": "string", "minLength": 1},
		"description": map[string]any{"type": "string"},
		"skills":      map[string]any{"type": "string"},
		"ai_context":  map[string]any{"type": "string"},
	},
}

type Extractor struct {
	gen    Generator
	model  string
	schema *jsonschema.Schema
}

// New builds an extractor. model may be empty to use the generator's default.
func New(gen Generator, model string) (*Extractor, error) {
	schema, err := compileSchema(draftSchema)
	if err != nil {
		return nil, err
	}
	return &Extractor{gen: gen, model: model, schema: schema}, nil
}

// Extract returns a draft, or nil and an error wrapping ErrNoResult.
func (e *Extractor) Extract(ctx context.Context, text string) (*models.ProjectDraft, error) {
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyInput
	}

	prompt := BuildPrompt(text)

	raw, err := e.gen.Generate(ctx, e.model, prompt)
	if err != nil {
		return nil, e.fail("llm", err)
	}

	draft, err := e.parse(raw)
	if err != nil {
		return nil, e.fail("parse", err)
	}

	metrics.ExtractionsTotal.WithLabelValues("success").Inc()
	logger.Info("Project extracted", zap.String("title", draft.Title))
	return draft, nil
}

func (e *Extractor) fail(stage string, err error) error {
	metrics.ExtractionsTotal.WithLabelValues("failed_" + stage).Inc()
	logger.Warn("AI extraction failed", zap.String("stage", stage), zap.Error(err))
	return fmt.Errorf("%w: %w", ErrNoResult, err)
}

// BuildPrompt embeds text, cut to MaxInputChars runes, in the instruction template.
func BuildPrompt(text string) string {
	return fmt.Sprintf(promptTemplate, truncate(text, MaxInputChars))
}

func (e *Extractor) parse(raw string) (*models.ProjectDraft, error) {
	data := []byte(StripFences(raw))

	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return nil, fmt.Errorf("invalid JSON: %w", err)
	}
	if err := e.schema.Validate(v); err != nil {
		return nil, fmt.Errorf("json does not match schema: %w", err)
	}

	var draft models.ProjectDraft
	if err := json.Unmarshal(data, &draft); err != nil {
		return nil, fmt.Errorf("failed to decode draft: %w", err)
	}
	return &draft, nil
}

// StripFences removes markdown code fences a model may add despite being told not to.
func StripFences(s string) string {
	s = strings.ReplaceAll(s, "```json", "")
	s = strings.ReplaceAll(s, "```", "")
	return strings.TrimSpace(s)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

func compileSchema(schemaMap map[string]any) (*jsonschema.Schema, error) {
	b, err := json.Marshal(schemaMap)
	if err != nil {
		return nil, fmt.Errorf("marshal schema: %w", err)
	}
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("draft.json", bytes.NewReader(b)); err != nil {
		return nil, fmt.Errorf("add schema: %w", err)
	}
	schema, err := compiler.Compile("draft.json")
	if err != nil {
		return nil, fmt.Errorf("compile schema: %w", err)
	}
	return schema, nil
}
