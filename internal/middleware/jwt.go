package middleware

import (
	"net/http"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/aggregator-demo/aggregator/internal/identity"
)

// TokenParser resolves a bearer token to a session.
type TokenParser interface {
	Parse(token string) (identity.Session, error)
}

// JWTAuth validates bearer access tokens and places the resolved session on
// the request's user context.
func JWTAuth(tokens TokenParser) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authz := c.Get(fiber.HeaderAuthorization)
		if !strings.HasPrefix(strings.ToLower(authz), "bearer ") {
			return fiber.NewError(http.StatusUnauthorized, "Authentication required")
		}
		session, err := tokens.Parse(strings.TrimSpace(authz[len("Bearer "):]))
		if err != nil {
			return fiber.NewError(http.StatusUnauthorized, "Invalid or expired token")
		}

		c.SetUserContext(identity.WithSession(c.UserContext(), session))
		return c.Next()
	}
}

// RequireAdmin rejects callers whose session is not an admin session.
func RequireAdmin(primaryAdmin string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		session, ok := identity.SessionFrom(c.UserContext())
		if !ok {
			return fiber.NewError(http.StatusUnauthorized, "Authentication required")
		}
		if !session.Admin {
			return c.Status(http.StatusForbidden).JSON(fiber.Map{
				"error": "Admin access required",
				"hint":  "Login as " + primaryAdmin,
			})
		}
		return c.Next()
	}
}
