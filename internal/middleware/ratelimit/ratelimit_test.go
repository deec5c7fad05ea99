package ratelimit

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newApp(rl *RateLimiter) *fiber.App {
	app := fiber.New()
	app.Use(rl.Middleware())
	app.Get("/", func(c *fiber.Ctx) error { return c.SendString("ok") })
	return app
}

func get(t *testing.T, app *fiber.App, session string) int {
	t.Helper()
	req := httptest.NewRequest("GET", "/", nil)
	if session != "" {
		req.Header.Set(SessionHeader, session)
	}
	resp, err := app.Test(req)
	require.NoError(t, err)
	return resp.StatusCode
}

func TestMiddleware_LimitsPerSession(t *testing.T) {
	rl := New(Config{MaxRequestsPerMinute: 2})
	defer rl.Stop()
	app := newApp(rl)

	assert.Equal(t, fiber.StatusOK, get(t, app, "a"))
	assert.Equal(t, fiber.StatusOK, get(t, app, "a"))
	assert.Equal(t, fiber.StatusTooManyRequests, get(t, app, "a"))

	assert.Equal(t, fiber.StatusOK, get(t, app, "b"), "sessions have separate buckets")
}

func TestAllow_Refills(t *testing.T) {
	rl := New(Config{MaxRequestsPerMinute: 2})
	defer rl.Stop()

	now := time.Now()
	rl.now = func() time.Time { return now }

	assert.True(t, rl.allow("k"))
	assert.True(t, rl.allow("k"))
	assert.False(t, rl.allow("k"))

	now = now.Add(30 * time.Second)
	assert.True(t, rl.allow("k"))
	assert.False(t, rl.allow("k"))
}

func TestEvictIdle(t *testing.T) {
	rl := New(Config{MaxRequestsPerMinute: 5})
	defer rl.Stop()

	now := time.Now()
	rl.now = func() time.Time { return now }
	rl.allow("old")

	now = now.Add(11 * time.Minute)
	rl.allow("fresh")
	rl.evictIdle(10 * time.Minute)

	rl.mu.RLock()
	defer rl.mu.RUnlock()
	assert.NotContains(t, rl.buckets, "old")
	assert.Contains(t, rl.buckets, "fresh")
}

func TestStop_Idempotent(t *testing.T) {
	rl := New(Config{})
	rl.Stop()
	assert.NotPanics(t, rl.Stop)
}

func TestMiddleware_BucketKeysSurviveLaterRequests(t *testing.T) {
	rl := New(Config{MaxRequestsPerMinute: 1})
	defer rl.Stop()
	app := newApp(rl)

	assert.Equal(t, fiber.StatusOK, get(t, app, "session-AAAAAAAA"))
	assert.Equal(t, fiber.StatusOK, get(t, app, "session-BBBBBBBB"))

	rl.mu.RLock()
	_, hasA := rl.buckets["session-AAAAAAAA"]
	_, hasB := rl.buckets["session-BBBBBBBB"]
	rl.mu.RUnlock()
	assert.True(t, hasA)
	assert.True(t, hasB)

	assert.Equal(t, fiber.StatusTooManyRequests, get(t, app, "session-AAAAAAAA"))
}
