package swap

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/aggregator-demo/aggregator/internal/identity"
	"github.com/aggregator-demo/aggregator/internal/ledger"
	"github.com/aggregator-demo/aggregator/internal/validation"
)

// Handler exposes swap endpoints.
type Handler struct {
	service *Service
}

// NewHandler constructs a swap handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

type swapRequest struct {
	InputMint    string   `json:"inputMint" validate:"required"`
	OutputMint   string   `json:"outputMint" validate:"required,nefield=InputMint"`
	InputAmount  float64  `json:"inputAmount" validate:"gt=0"`
	OutputAmount float64  `json:"outputAmount" validate:"gte=0"`
	Slippage     *float64 `json:"slippage" validate:"omitempty,gte=0"`
	USDValue     float64  `json:"usdValue" validate:"gte=0"`
}

// Swap executes a mock swap for the authenticated user.
func (h *Handler) Swap(c *fiber.Ctx) error {
	session, ok := identity.SessionFrom(c.UserContext())
	if !ok {
		return fiber.NewError(http.StatusUnauthorized, "unauthorized")
	}
	var req swapRequest
	if err := validation.Bind(c, &req); err != nil {
		return err
	}
	slippage := DefaultSlippage
	if req.Slippage != nil {
		slippage = *req.Slippage
	}

	res, err := h.service.Swap(c.UserContext(), Input{
		UserID:       session.UserID,
		InputMint:    req.InputMint,
		OutputMint:   req.OutputMint,
		InputAmount:  req.InputAmount,
		OutputAmount: req.OutputAmount,
		Slippage:     slippage,
		USDValue:     req.USDValue,
	})
	if err != nil {
		return err
	}

	return c.Status(http.StatusOK).JSON(fiber.Map{
		"success":           true,
		"transaction":       res.Transaction.View(),
		"newBalances":       res.Balances,
		"newBalancesByMint": res.BalancesByMint,
	})
}

// Transactions lists the authenticated user's recent transactions.
func (h *Handler) Transactions(c *fiber.Ctx) error {
	session, ok := identity.SessionFrom(c.UserContext())
	if !ok {
		return fiber.NewError(http.StatusUnauthorized, "unauthorized")
	}
	txns, err := h.service.History(c.UserContext(), session.UserID)
	if err != nil {
		return err
	}
	views := make([]ledger.TransactionView, 0, len(txns))
	for _, t := range txns {
		views = append(views, t.View())
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{"transactions": views})
}
