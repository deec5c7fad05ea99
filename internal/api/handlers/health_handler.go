package handlers

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
)

// Check reports whether one dependency is usable.
type Check struct {
	Name string
	Fn   func(ctx context.Context) error
}

type HealthHandler struct {
	checks []Check
}

func NewHealthHandler(checks ...Check) *HealthHandler {
	return &HealthHandler{checks: checks}
}

func (h *HealthHandler) Health(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status": "healthy",
		"time":   time.Now().Unix(),
	})
}

// Ready runs every check. Failing dependencies make the service degraded,
// not down, so the status code stays 200.
func (h *HealthHandler) Ready(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), 3*time.Second)
	defer cancel()

	status := "ready"
	results := make(fiber.Map, len(h.checks))
	for _, check := range h.checks {
		if err := check.Fn(ctx); err != nil {
			status = "degraded"
			results[check.Name] = err.Error()
			continue
		}
		results[check.Name] = "ok"
	}

	return c.JSON(fiber.Map{
		"status": status,
		"checks": results,
	})
}
