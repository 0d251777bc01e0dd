package middleware

import (
	"strconv"
	"time"

	"storefront/pkg/metrics"

	"github.com/gofiber/fiber/v2"
)

// Metrics records request counts and latency per matched route.
// It runs before the error handler writes the status, so the status label
// comes from the returned error when there is one.
func Metrics(m *metrics.ServerMetrics, statusOf func(error) int) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()

		status := c.Response().StatusCode()
		if err != nil {
			status = statusOf(err)
		}
		route := c.Route().Path
		m.Requests.WithLabelValues(route, c.Method(), strconv.Itoa(status)).Inc()
		m.LatencyMS.WithLabelValues(route, c.Method()).Observe(float64(time.Since(start).Milliseconds()))
		return err
	}
}
