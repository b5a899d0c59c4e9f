package middleware

import (
	"github.com/gofiber/fiber/v2"

	"ustore/metrics"
)

// Metrics records request counts and latency labelled by route template, so
// /api/products/1 and /api/products/2 share a series.
func Metrics() fiber.Handler {
	return func(c *fiber.Ctx) error {
		done := metrics.RequestStarted()
		err := c.Next()

		status := c.Response().StatusCode()
		if err != nil {
			if fe, ok := err.(*fiber.Error); ok {
				status = fe.Code
			} else {
				status = fiber.StatusInternalServerError
			}
		}
		route := c.Route().Path
		if route == "" || route == "/" {
			route = "unmatched"
		}
		done(c.Method(), route, status)
		return err
	}
}
