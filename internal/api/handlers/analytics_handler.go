package handlers

import (
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/ai-portfolio/backend/internal/tracker"
	"github.com/ai-portfolio/backend/pkg/logger"
)

const msgNoData = "Interaction data is unavailable; showing no data."

type AnalyticsHandler struct {
	tracker *tracker.Service
}

func NewAnalyticsHandler(t *tracker.Service) *AnalyticsHandler {
	return &AnalyticsHandler{
		tracker: t,
	}
}

// GetSummary never fails: an unreadable log degrades to an empty dashboard.
func (h *AnalyticsHandler) GetSummary(c *fiber.Ctx) error {
	table, err := h.tracker.Load(c.UserContext())

	resp := fiber.Map{
		"backend": h.tracker.Backend(),
		"summary": tracker.Summarize(table.Rows),
	}
	if err != nil {
		resp["warning"] = msgNoData
	}
	return c.JSON(resp)
}

func (h *AnalyticsHandler) GetInteractions(c *fiber.Ctx) error {
	table, err := h.tracker.Load(c.UserContext())

	resp := fiber.Map{
		"columns": table.Columns,
		"rows":    table.Rows,
		"count":   len(table.Rows),
	}
	if err != nil {
		resp["warning"] = msgNoData
	}
	return c.JSON(resp)
}

func (h *AnalyticsHandler) ExportXLSX(c *fiber.Ctx) error {
	table, err := h.tracker.Load(c.UserContext())
	if err != nil {
		logger.Warn("Exporting empty analytics", zap.Error(err))
	}

	data, err := tracker.ExportXLSX(table)
	if err != nil {
		logger.Error("Failed to export analytics", zap.Error(err))
		return errorJSON(c, fiber.StatusInternalServerError, "Failed to export analytics")
	}

	filename := fmt.Sprintf("visitor_analytics_%s.xlsx", time.Now().Format("20060102"))
	c.Set(fiber.HeaderContentType, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf(`attachment; filename="%s"`, filename))
	return c.Send(data)
}
