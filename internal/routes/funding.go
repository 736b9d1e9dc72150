package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/aggregator-demo/aggregator/internal/funding"
)

// RegisterFundingRoutes wires the mock deposit endpoint.
func RegisterFundingRoutes(r fiber.Router, h *funding.Handler, authenticated, idempotent fiber.Handler) {
	r.Post("/wallet/deposit", authenticated, idempotent, h.Deposit)
}
