package wallet

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/aggregator-demo/aggregator/internal/identity"
)

// Handler exposes wallet HTTP endpoints.
type Handler struct {
	service *Service
}

// NewHandler builds a wallet HTTP handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Balance returns every token balance of the authenticated user.
func (h *Handler) Balance(c *fiber.Ctx) error {
	session, ok := identity.SessionFrom(c.UserContext())
	if !ok {
		return fiber.NewError(http.StatusUnauthorized, "unauthorized")
	}
	balances, err := h.service.Balances(c.UserContext(), session.UserID)
	if err != nil {
		return err
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{"balances": balances})
}

// Tokens lists the static token catalog.
func (h *Handler) Tokens(c *fiber.Ctx) error {
	return c.Status(http.StatusOK).JSON(fiber.Map{"tokens": h.service.Catalog().Tokens()})
}
