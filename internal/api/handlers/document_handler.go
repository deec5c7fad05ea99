package handlers

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/utils"
	"go.uber.org/zap"

	"github.com/ai-portfolio/backend/internal/document"
	"github.com/ai-portfolio/backend/internal/drafts"
	"github.com/ai-portfolio/backend/internal/extraction"
	"github.com/ai-portfolio/backend/internal/llm"
	"github.com/ai-portfolio/backend/internal/metrics"
	"github.com/ai-portfolio/backend/internal/projects"
	"github.com/ai-portfolio/backend/internal/storage/models"
	"github.com/ai-portfolio/backend/pkg/logger"
)

const msgNoResult = "AI could not extract project details. Please retry or fill in the form manually."

type DocumentHandler struct {
	documents  *document.Extractor
	structured *extraction.Extractor
	drafts     drafts.Store
	projects   *projects.Service
}

func NewDocumentHandler(docs *document.Extractor, structured *extraction.Extractor, store drafts.Store, svc *projects.Service) *DocumentHandler {
	return &DocumentHandler{
		documents:  docs,
		structured: structured,
		drafts:     store,
		projects:   svc,
	}
}

// UploadDocument extracts a project draft from an uploaded file and keeps it
// for the caller's session.
func (h *DocumentHandler) UploadDocument(c *fiber.Ctx) error {
	file, err := c.FormFile("file")
	if err != nil {
		return errorJSON(c, fiber.StatusBadRequest, "No file selected")
	}

	f, err := file.Open()
	if err != nil {
		logger.Error("Failed to open upload", zap.Error(err))
		return errorJSON(c, fiber.StatusBadRequest, "Failed to read upload")
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		logger.Error("Failed to read upload", zap.Error(err))
		return errorJSON(c, fiber.StatusBadRequest, "Failed to read upload")
	}

	kind := document.DetectKind(file.Filename, file.Header.Get(fiber.HeaderContentType))
	res, err := h.documents.ExtractDocument(bytes.NewReader(data), int64(len(data)), file.Filename, file.Header.Get(fiber.HeaderContentType))
	if err != nil {
		metrics.DocumentsProcessed.WithLabelValues(string(kind), "error").Inc()
		logger.Warn("Document extraction failed", zap.String("filename", file.Filename), zap.Error(err))
		if errors.Is(err, document.ErrUnsupported) {
			return errorJSON(c, fiber.StatusUnsupportedMediaType, "Unsupported file type")
		}
		prefix := "Error reading document: "
		if kind == document.KindPDF {
			prefix = "Error reading PDF: "
		}
		return errorJSON(c, fiber.StatusUnprocessableEntity, prefix+err.Error())
	}
	metrics.DocumentsProcessed.WithLabelValues(string(kind), "success").Inc()

	logger.Info("Document processed",
		zap.String("filename", file.Filename),
		zap.Int("pages", res.Pages),
		zap.Int("chars", len(res.Text)),
	)

	return h.extractDraft(c, res.Text)
}

// ExtractText runs the extraction on pasted text.
func (h *DocumentHandler) ExtractText(c *fiber.Ctx) error {
	var req struct {
		Text string `json:"text"`
	}
	if err := c.BodyParser(&req); err != nil {
		return errorJSON(c, fiber.StatusBadRequest, "Invalid request body")
	}
	return h.extractDraft(c, req.Text)
}

func (h *DocumentHandler) extractDraft(c *fiber.Ctx, text string) error {
	draft, err := h.structured.Extract(c.UserContext(), text)
	if err != nil {
		switch {
		case errors.Is(err, extraction.ErrEmptyInput):
			return errorJSON(c, fiber.StatusUnprocessableEntity, "No text found in the document")
		case errors.Is(err, llm.ErrNotConfigured):
			return errorJSON(c, fiber.StatusServiceUnavailable, "AI service is not configured")
		default:
			return errorJSON(c, fiber.StatusUnprocessableEntity, msgNoResult)
		}
	}

	// The header value is only valid during the request; the store keeps it.
	session := utils.CopyString(c.Get(SessionHeader))
	if session == "" {
		session = drafts.NewSessionID()
	}

	if err := h.drafts.Put(c.UserContext(), session, *draft); err != nil {
		logger.Error("Failed to store draft", zap.Error(err))
		return errorJSON(c, fiber.StatusServiceUnavailable, "Failed to keep the draft, please retry")
	}

	c.Set(SessionHeader, session)
	return c.JSON(fiber.Map{
		"session_id": session,
		"draft":      draft,
	})
}

func (h *DocumentHandler) GetDraft(c *fiber.Ctx) error {
	draft, found, err := h.lookupDraft(c.UserContext(), c.Get(SessionHeader))
	if err != nil {
		return errorJSON(c, fiber.StatusServiceUnavailable, "Draft storage is unavailable")
	}
	if !found {
		return errorJSON(c, fiber.StatusNotFound, "No draft for this session")
	}
	return c.JSON(fiber.Map{"draft": draft})
}

func (h *DocumentHandler) DiscardDraft(c *fiber.Ctx) error {
	session := c.Get(SessionHeader)
	if session != "" {
		if err := h.drafts.Delete(c.UserContext(), session); err != nil {
			logger.Error("Failed to discard draft", zap.Error(err))
			return errorJSON(c, fiber.StatusServiceUnavailable, "Draft storage is unavailable")
		}
	}
	return c.SendStatus(fiber.StatusNoContent)
}

type saveDraftRequest struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	Skills      *string `json:"skills"`
	AIContext   *string `json:"ai_context"`
	DemoType    string  `json:"demo_type"`
}

// SaveDraft stores the session's draft, with any edits from the body, as a
// project. The draft is cleared once the store accepts the call.
func (h *DocumentHandler) SaveDraft(c *fiber.Ctx) error {
	session := c.Get(SessionHeader)

	draft, found, err := h.lookupDraft(c.UserContext(), session)
	if err != nil {
		return errorJSON(c, fiber.StatusServiceUnavailable, "Draft storage is unavailable")
	}
	if !found {
		return errorJSON(c, fiber.StatusNotFound, "No draft for this session")
	}

	var req saveDraftRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return errorJSON(c, fiber.StatusBadRequest, "Invalid request body")
		}
	}
	applyEdits(&draft, req)

	p := draft.ToProject(models.DemoType(req.DemoType))
	inserted, err := h.projects.Save(c.UserContext(), p)
	if err != nil {
		switch {
		case errors.Is(err, projects.ErrInvalidProject):
			return errorJSON(c, fiber.StatusBadRequest, err.Error())
		default:
			return errorJSON(c, fiber.StatusServiceUnavailable, "Project storage is unavailable")
		}
	}

	if err := h.drafts.Delete(c.UserContext(), session); err != nil {
		logger.Warn("Failed to clear saved draft", zap.Error(err))
	}

	return savedResponse(c, p.Title, inserted)
}

func (h *DocumentHandler) lookupDraft(ctx context.Context, session string) (models.ProjectDraft, bool, error) {
	if strings.TrimSpace(session) == "" {
		return models.ProjectDraft{}, false, nil
	}
	draft, found, err := h.drafts.Get(ctx, session)
	if err != nil {
		logger.Error("Failed to load draft", zap.Error(err))
	}
	return draft, found, err
}

func applyEdits(d *models.ProjectDraft, req saveDraftRequest) {
	if req.Title != nil {
		d.Title = *req.Title
	}
	if req.Description != nil {
		d.Description = *req.Description
	}
	if req.Skills != nil {
		d.Skills = *req.Skills
	}
	if req.AIContext != nil {
		d.AIContext = *req.AIContext
	}
}
