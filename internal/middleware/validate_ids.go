package middleware

import (
	"storefront/internal/apperror"

	"github.com/gofiber/fiber/v2"
)

// ValidateIDs rejects the request before it reaches a handler when any of
// the named path parameters is not an id the owning store can hold.
func ValidateIDs(valid func(string) bool, params ...string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		for _, p := range params {
			if id := c.Params(p); id != "" && !valid(id) {
				return apperror.Validation("invalid id in parameter: " + p)
			}
		}
		return c.Next()
	}
}
