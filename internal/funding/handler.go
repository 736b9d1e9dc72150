package funding

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/aggregator-demo/aggregator/internal/identity"
	"github.com/aggregator-demo/aggregator/internal/validation"
)

// Handler exposes HTTP endpoints for mock deposits.
type Handler struct {
	service *Service
}

// NewHandler constructs a funding handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

type depositRequest struct {
	TokenMint string  `json:"tokenMint" validate:"required"`
	Amount    float64 `json:"amount" validate:"gt=0"`
}

// Deposit credits the authenticated user's wallet.
func (h *Handler) Deposit(c *fiber.Ctx) error {
	session, ok := identity.SessionFrom(c.UserContext())
	if !ok {
		return fiber.NewError(http.StatusUnauthorized, "unauthorized")
	}
	var req depositRequest
	if err := validation.Bind(c, &req); err != nil {
		return err
	}

	result, err := h.service.Deposit(c.UserContext(), DepositInput{
		UserID:    session.UserID,
		TokenMint: req.TokenMint,
		Amount:    req.Amount,
	})
	if err != nil {
		return err
	}

	return c.Status(http.StatusOK).JSON(fiber.Map{
		"success":    true,
		"newBalance": result.NewBalance,
		"token":      result.Symbol,
	})
}
