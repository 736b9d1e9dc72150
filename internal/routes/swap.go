package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/aggregator-demo/aggregator/internal/swap"
)

// RegisterSwapRoutes wires swap execution and history.
func RegisterSwapRoutes(r fiber.Router, h *swap.Handler, authenticated, idempotent fiber.Handler) {
	r.Post("/swap", authenticated, idempotent, h.Swap)
	r.Get("/transactions", authenticated, h.Transactions)
}
