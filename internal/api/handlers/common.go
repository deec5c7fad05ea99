package handlers

import (
	"net/url"
	"strings"

	"github.com/gofiber/fiber/v2"
)

// SessionHeader carries the caller's session id. Drafts are scoped to it.
const SessionHeader = "X-Session-ID"

func errorJSON(c *fiber.Ctx, status int, msg string) error {
	return c.Status(status).JSON(fiber.Map{
		"error": msg,
	})
}

// titleParam decodes the :title route parameter ("Churn%20Prediction").
func titleParam(c *fiber.Ctx) string {
	raw := c.Params("title")
	title, err := url.PathUnescape(raw)
	if err != nil {
		return raw
	}
	return strings.TrimSpace(title)
}
