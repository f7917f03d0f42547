package handler

import (
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

// All endpoints answer with the same envelope: {"success": true, "data": ...}
// or {"success": false, "error": "..."}.

func ok(c *fiber.Ctx, data any) error {
	return c.JSON(fiber.Map{"success": true, "data": data})
}

func created(c *fiber.Ctx, data any) error {
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"success": true, "data": data})
}

func fail(c *fiber.Ctx, status int, message string) error {
	return c.Status(status).JSON(fiber.Map{"success": false, "error": message})
}

// formatValidationError converts validator errors into a request-level
// message naming the first offending field.
func formatValidationError(err error) string {
	var ve validator.ValidationErrors
	if errors.As(err, &ve) {
		for _, fe := range ve {
			field := fe.Field()
			switch fe.Tag() {
			case "required":
				return "invalid request: " + field + " is required"
			case "notblank":
				return "invalid request: " + field + " cannot be blank"
			case "max":
				return "invalid request: " + field + " exceeds maximum length"
			case "min":
				return "invalid request: " + field + " is too short"
			case "email":
				return "invalid request: " + field + " must be a valid email"
			case "phone":
				return "invalid request: " + field + " must be a valid phone number"
			case "oneof":
				return "invalid request: " + field + " has an unsupported value"
			case "gte", "len", "numeric":
				return "invalid request: " + field + " is invalid"
			default:
				return "invalid request: " + field + " is invalid"
			}
		}
	}
	return "invalid request"
}
