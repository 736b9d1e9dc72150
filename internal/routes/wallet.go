package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/aggregator-demo/aggregator/internal/wallet"
)

// RegisterWalletRoutes wires wallet-related endpoints.
func RegisterWalletRoutes(r fiber.Router, h *wallet.Handler, authenticated fiber.Handler) {
	r.Get("/tokens", h.Tokens)
	r.Get("/wallet/balance", authenticated, h.Balance)
}
