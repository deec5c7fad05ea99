package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/ai-portfolio/backend/internal/assistant"
	"github.com/ai-portfolio/backend/internal/middleware/validation"
	"github.com/ai-portfolio/backend/internal/projects"
	"github.com/ai-portfolio/backend/pkg/logger"
)

type AskHandler struct {
	assistant *assistant.Assistant
}

func NewAskHandler(a *assistant.Assistant) *AskHandler {
	return &AskHandler{
		assistant: a,
	}
}

// HandleAsk expects validation.Question to have run first.
func (h *AskHandler) HandleAsk(c *fiber.Ctx) error {
	question, ok := c.Locals(validation.QuestionKey).(string)
	if !ok {
		var req struct {
			Question string `json:"question"`
		}
		if err := c.BodyParser(&req); err != nil {
			return errorJSON(c, fiber.StatusBadRequest, "Invalid request body")
		}
		question = req.Question
	}

	resp, err := h.assistant.Ask(c.UserContext(), assistant.AskRequest{
		Project:  titleParam(c),
		Question: question,
	})
	if err != nil {
		switch {
		case errors.Is(err, assistant.ErrEmptyQuestion):
			return errorJSON(c, fiber.StatusBadRequest, "Please enter a question first.")
		case errors.Is(err, assistant.ErrProjectNotFound):
			return errorJSON(c, fiber.StatusNotFound, "Project not found")
		case errors.Is(err, projects.ErrStoreUnavailable):
			return errorJSON(c, fiber.StatusServiceUnavailable, "Project storage is unavailable")
		default:
			logger.Error("Failed to answer question", zap.Error(err))
			return errorJSON(c, fiber.StatusInternalServerError, "Failed to process question")
		}
	}

	return c.JSON(resp)
}
