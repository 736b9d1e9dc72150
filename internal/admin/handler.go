package admin

import (
	"net/http"

	"github.com/gofiber/fiber/v2"
)

// Handler exposes admin rollups.
type Handler struct {
	service *Service
}

// NewHandler constructs an admin handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Overview returns platform totals.
func (h *Handler) Overview(c *fiber.Ctx) error {
	overview, err := h.service.Overview(c.UserContext())
	if err != nil {
		return err
	}
	return c.Status(http.StatusOK).JSON(overview)
}

// Profiles returns per-user rollups.
func (h *Handler) Profiles(c *fiber.Ctx) error {
	profiles, limit, err := h.service.Profiles(c.UserContext(), c.QueryInt("limit", DefaultProfileLimit))
	if err != nil {
		return err
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{"profiles": profiles, "limit": limit})
}

// Transactions returns the newest transactions across all users.
func (h *Handler) Transactions(c *fiber.Ctx) error {
	txns, limit, err := h.service.Transactions(c.UserContext(), c.QueryInt("limit", DefaultTransactionLimit))
	if err != nil {
		return err
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{"transactions": txns, "limit": limit})
}
