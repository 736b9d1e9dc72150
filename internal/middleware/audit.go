package middleware

import (
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/aggregator-demo/aggregator/internal/identity"
)

var quietPaths = map[string]bool{
	"/healthz": true,
	"/metrics": true,
}

// Audit emits one structured log line per request. Failures log at warn and
// server errors at error; health and metrics endpoints are skipped.
func Audit(logger *slog.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if quietPaths[c.Path()] {
			return c.Next()
		}
		start := time.Now()
		err := c.Next()

		status := c.Response().StatusCode()
		if err != nil {
			status = StatusOf(err)
		}

		attrs := []any{
			slog.String("method", c.Method()),
			slog.String("path", c.Path()),
			slog.Int("status", status),
			slog.Duration("duration", time.Since(start)),
		}
		if requestID := RequestIDFrom(c); requestID != "" {
			attrs = append(attrs, slog.String("request_id", requestID))
		}
		if session, ok := identity.SessionFrom(c.UserContext()); ok {
			attrs = append(attrs, slog.String("user_id", session.UserID))
			if session.Admin {
				attrs = append(attrs, slog.Bool("admin", true))
			}
		}
		if err != nil {
			attrs = append(attrs, slog.Any("error", err))
		}

		switch {
		case status >= fiber.StatusInternalServerError:
			logger.Error("request completed", attrs...)
		case status >= fiber.StatusBadRequest:
			logger.Warn("request completed", attrs...)
		default:
			logger.Info("request completed", attrs...)
		}
		return err
	}
}
