package handlers

import (
	"context"
	"errors"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/ai-portfolio/backend/internal/demo"
	"github.com/ai-portfolio/backend/internal/projects"
	"github.com/ai-portfolio/backend/internal/storage/models"
	"github.com/ai-portfolio/backend/pkg/logger"
)

// AnswerInvalidator drops cached answers once a project changes.
type AnswerInvalidator interface {
	InvalidateAnswers(ctx context.Context) error
}

type ProjectHandler struct {
	projects    *projects.Service
	invalidator AnswerInvalidator
}

// NewProjectHandler accepts a nil invalidator when no answer cache is configured.
func NewProjectHandler(svc *projects.Service, invalidator AnswerInvalidator) *ProjectHandler {
	return &ProjectHandler{
		projects:    svc,
		invalidator: invalidator,
	}
}

func (h *ProjectHandler) ListProjects(c *fiber.Ctx) error {
	list, err := h.projects.List(c.UserContext())
	resp := fiber.Map{
		"projects": list,
		"count":    len(list),
	}
	if err != nil {
		resp["warning"] = "Saved projects are unavailable; showing built-in projects only."
	}
	return c.JSON(resp)
}

func (h *ProjectHandler) GetProject(c *fiber.Ctx) error {
	p, err := h.projects.Get(c.UserContext(), titleParam(c))
	if err != nil {
		return h.projectError(c, err)
	}
	return c.JSON(p)
}

type createProjectRequest struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Skills      []string `json:"skills"`
	DemoType    string   `json:"demo_type"`
	AIContext   string   `json:"ai_context"`
}

func (h *ProjectHandler) CreateProject(c *fiber.Ctx) error {
	var req createProjectRequest
	if err := c.BodyParser(&req); err != nil {
		logger.Error("Failed to parse request body", zap.Error(err))
		return errorJSON(c, fiber.StatusBadRequest, "Invalid request body")
	}

	p := models.Project{
		Title:       req.Title,
		Description: req.Description,
		Skills:      req.Skills,
		DemoType:    models.DemoType(req.DemoType),
		AIContext:   req.AIContext,
	}

	inserted, err := h.projects.Save(c.UserContext(), p)
	if err != nil {
		return h.projectError(c, err)
	}

	return savedResponse(c, p.Title, inserted)
}

func (h *ProjectHandler) DeleteProject(c *fiber.Ctx) error {
	title := titleParam(c)
	if err := h.projects.Delete(c.UserContext(), title); err != nil {
		return h.projectError(c, err)
	}

	if h.invalidator != nil {
		if err := h.invalidator.InvalidateAnswers(c.UserContext()); err != nil {
			logger.Warn("Failed to invalidate answer cache", zap.Error(err))
		}
	}

	return c.SendStatus(fiber.StatusNoContent)
}

func (h *ProjectHandler) RunDemo(c *fiber.Ctx) error {
	p, err := h.projects.Get(c.UserContext(), titleParam(c))
	if err != nil {
		return h.projectError(c, err)
	}

	var in demo.Input
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&in); err != nil {
			return errorJSON(c, fiber.StatusBadRequest, "Invalid request body")
		}
	}

	res, err := demo.Run(p.DemoType, in)
	if errors.Is(err, demo.ErrNoDemo) {
		return errorJSON(c, fiber.StatusNotFound, "This project has no interactive demo")
	}
	if err != nil {
		return errorJSON(c, fiber.StatusInternalServerError, "Failed to run demo")
	}
	return c.JSON(res)
}

func savedResponse(c *fiber.Ctx, title string, inserted bool) error {
	if !inserted {
		return c.JSON(fiber.Map{
			"inserted": false,
			"title":    title,
			"message":  "A project with this title already exists; nothing was changed.",
		})
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"inserted": true,
		"title":    title,
		"message":  "Project saved",
	})
}

func (h *ProjectHandler) projectError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, projects.ErrNotFound):
		return errorJSON(c, fiber.StatusNotFound, "Project not found")
	case errors.Is(err, projects.ErrInvalidProject):
		return errorJSON(c, fiber.StatusBadRequest, err.Error())
	case errors.Is(err, projects.ErrBuiltIn):
		return errorJSON(c, fiber.StatusForbidden, err.Error())
	case errors.Is(err, projects.ErrStoreUnavailable):
		return errorJSON(c, fiber.StatusServiceUnavailable, "Project storage is unavailable")
	default:
		logger.Error("Project request failed", zap.Error(err))
		return errorJSON(c, fiber.StatusInternalServerError, "Internal error")
	}
}
