package handlers

import (
	"errors"
	"log"

	"storefront/internal/apperror"

	"github.com/gofiber/fiber/v2"
)

// StatusOf maps an error returned by a handler to its HTTP status.
func StatusOf(err error) int {
	var fe *fiber.Error
	if errors.As(err, &fe) {
		return fe.Code
	}
	switch apperror.KindOf(err) {
	case apperror.KindValidation:
		return fiber.StatusBadRequest
	case apperror.KindNotFound:
		return fiber.StatusNotFound
	case apperror.KindConflict:
		return fiber.StatusConflict
	default:
		return fiber.StatusInternalServerError
	}
}

// ErrorHandler renders every error returned by a handler as
// {"status":"error","message":...,"errors"?:[...]}. In production internal
// failures are logged but not described to the client.
func ErrorHandler(production bool) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		status := StatusOf(err)
		body := fiber.Map{"status": "error", "message": err.Error()}

		var appErr *apperror.Error
		if errors.As(err, &appErr) {
			body["message"] = appErr.Message
			if len(appErr.Details) > 0 {
				body["errors"] = appErr.Details
			}
		}
		if status >= fiber.StatusInternalServerError {
			log.Printf("Error handling %s %s: %v", c.Method(), c.Path(), err)
			if production {
				body["message"] = apperror.PublicMessage(err)
			}
		}
		return c.Status(status).JSON(body)
	}
}

// RouteNotFound answers any request no route matched.
func RouteNotFound(c *fiber.Ctx) error {
	return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
		"status":  "error",
		"message": "route not found",
		"path":    c.Path(),
		"method":  c.Method(),
	})
}

func success(c *fiber.Ctx, status int, message string, data interface{}) error {
	body := fiber.Map{"status": "success", "data": data}
	if message != "" {
		body["message"] = message
	}
	return c.Status(status).JSON(body)
}

func parseBody(c *fiber.Ctx, out interface{}) error {
	if err := c.BodyParser(out); err != nil {
		log.Printf("Error parsing request body: %v", err)
		return apperror.Validation("invalid request body", err.Error())
	}
	return nil
}
