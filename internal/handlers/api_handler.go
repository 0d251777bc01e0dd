package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"
)

const apiVersion = "1.0.0"

// HandleAPIInfo describes the available endpoints.
func HandleAPIInfo(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"message": "Products and carts API",
		"version": apiVersion,
		"endpoints": fiber.Map{
			"products": "/api/products",
			"carts":    "/api/carts",
			"views": fiber.Map{
				"home":     "/",
				"realtime": "/realtimeproducts",
			},
			"websocket": "/ws",
			"metrics":   "/metrics",
		},
	})
}

// HealthHandler reports liveness with the store driver and the number of
// connected real-time subscribers.
func HealthHandler(storeDriver string, subscribers func() int) fiber.Handler {
	return func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusOK).JSON(fiber.Map{
			"status":      "healthy",
			"time":        time.Now().Format(time.RFC3339),
			"store":       storeDriver,
			"subscribers": subscribers(),
		})
	}
}
