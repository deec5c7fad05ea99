package handlers

import (
	"context"
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"go.uber.org/zap"

	"github.com/ai-portfolio/backend/internal/assistant"
	"github.com/ai-portfolio/backend/internal/middleware/validation"
	"github.com/ai-portfolio/backend/pkg/logger"
)

type WebSocketHandler struct {
	assistant         *assistant.Assistant
	maxQuestionLength int
}

func NewWebSocketHandler(a *assistant.Assistant, maxQuestionLength int) *WebSocketHandler {
	if maxQuestionLength <= 0 {
		maxQuestionLength = 2000
	}
	return &WebSocketHandler{
		assistant:         a,
		maxQuestionLength: maxQuestionLength,
	}
}

// RequireUpgrade rejects plain HTTP requests to the WebSocket route.
func RequireUpgrade(c *fiber.Ctx) error {
	if websocket.IsWebSocketUpgrade(c) {
		return c.Next()
	}
	return fiber.ErrUpgradeRequired
}

type askMessage struct {
	Type     string `json:"type"`
	Project  string `json:"project"`
	Question string `json:"question"`
}

func (h *WebSocketHandler) HandleConnection(c *websocket.Conn) {
	logger.Info("WebSocket connection established")

	defer func() {
		c.Close()
		logger.Info("WebSocket connection closed")
	}()

	for {
		var msg askMessage
		if err := c.ReadJSON(&msg); err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				logger.Warn("Failed to read WebSocket message", zap.Error(err))
			}
			break
		}

		if msg.Type != "ask" {
			continue
		}

		if err := h.streamAnswer(c, msg); err != nil {
			logger.Error("Failed to stream answer", zap.Error(err))
			break
		}
	}
}

func (h *WebSocketHandler) streamAnswer(c *websocket.Conn, msg askMessage) error {
	question, err := validation.CheckQuestion(msg.Question, h.maxQuestionLength)
	if err != nil {
		return h.sendError(c, err.Error())
	}

	if err := h.sendChunk(c, "status", "Thinking..."); err != nil {
		return err
	}

	resp, err := h.assistant.Ask(context.Background(), assistant.AskRequest{
		Project:  strings.TrimSpace(msg.Project),
		Question: question,
	})
	if err != nil {
		switch {
		case errors.Is(err, assistant.ErrEmptyQuestion):
			return h.sendError(c, "Please enter a question first.")
		case errors.Is(err, assistant.ErrProjectNotFound):
			return h.sendError(c, "Project not found")
		default:
			logger.Error("Failed to answer question", zap.Error(err))
			return h.sendError(c, "Failed to process question")
		}
	}

	words := splitIntoWords(resp.Answer)
	for i, word := range words {
		chunk := word
		if i < len(words)-1 && word != "\n" && words[i+1] != "\n" {
			chunk += " "
		}
		if err := h.sendChunk(c, "chunk", chunk); err != nil {
			return err
		}
	}

	return h.sendComplete(c, resp)
}

func (h *WebSocketHandler) sendChunk(c *websocket.Conn, msgType, content string) error {
	return c.WriteJSON(fiber.Map{
		"type":    msgType,
		"content": content,
	})
}

func (h *WebSocketHandler) sendComplete(c *websocket.Conn, resp *assistant.AskResponse) error {
	return c.WriteJSON(fiber.Map{
		"type":       "complete",
		"message_id": resp.ID,
		"project":    resp.Project,
		"warning":    resp.Warning,
		"cached":     resp.Cached,
		"latency_ms": resp.LatencyMS,
	})
}

func (h *WebSocketHandler) sendError(c *websocket.Conn, errorMsg string) error {
	return c.WriteJSON(fiber.Map{
		"type":  "error",
		"error": errorMsg,
	})
}

// splitIntoWords splits on spaces and keeps newlines as their own tokens.
func splitIntoWords(text string) []string {
	words := []string{}
	var current strings.Builder

	flush := func() {
		if current.Len() > 0 {
			words = append(words, current.String())
			current.Reset()
		}
	}

	for _, r := range text {
		switch r {
		case ' ':
			flush()
		case '\n':
			flush()
			words = append(words, "\n")
		default:
			current.WriteRune(r)
		}
	}
	flush()

	return words
}
