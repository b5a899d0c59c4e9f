package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ustore/logging"
)

func TestRateLimiterRejectsBurstOverflow(t *testing.T) {
	rl := NewRateLimiter(1, 2, logging.Discard())
	app := fiber.New()
	app.Post("/signin", rl.Handler(), func(c *fiber.Ctx) error {
		return c.SendStatus(http.StatusOK)
	})

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		resp, err := app.Test(httptest.NewRequest(http.MethodPost, "/signin", nil), -1)
		require.NoError(t, err)
		codes = append(codes, resp.StatusCode)
	}

	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)
}

func TestRateLimiterKeysByClient(t *testing.T) {
	rl := NewRateLimiter(1, 1, logging.Discard())

	assert.True(t, rl.limiter("10.0.0.1").Allow())
	assert.False(t, rl.limiter("10.0.0.1").Allow())
	assert.True(t, rl.limiter("10.0.0.2").Allow())
	assert.Same(t, rl.limiter("10.0.0.1"), rl.limiter("10.0.0.1"))
}
