package middleware

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/aggregator-demo/aggregator/internal/apperr"
)

const internalErrorMessage = "internal error"

// StatusOf maps err to the HTTP status reported to the caller.
func StatusOf(err error) int {
	var fe *fiber.Error
	switch {
	case errors.As(err, &fe):
		return fe.Code
	case errors.Is(err, apperr.ErrNotFound):
		return http.StatusNotFound
	case apperr.Known(err):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// ErrorHandler renders handler errors as {"error": "..."} bodies. Internal
// failures are logged and their detail withheld.
func ErrorHandler(logger *slog.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		status := StatusOf(err)
		message := err.Error()
		var fe *fiber.Error
		if errors.As(err, &fe) {
			message = fe.Message
		}
		if status == http.StatusInternalServerError {
			logger.ErrorContext(c.UserContext(), "request failed",
				slog.String("path", c.Path()),
				slog.String("request_id", RequestIDFrom(c)),
				slog.Any("error", err),
			)
			message = internalErrorMessage
		}
		return c.Status(status).JSON(fiber.Map{"error": message})
	}
}
