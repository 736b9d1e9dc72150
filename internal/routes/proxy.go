package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/aggregator-demo/aggregator/internal/upstream"
)

// RegisterProxyRoutes wires the Jupiter and CoinGecko pass-through endpoints.
func RegisterProxyRoutes(r fiber.Router, h *upstream.Handler) {
	r.Get("/search", h.Search)
	r.Get("/shield", h.Shield)
	r.Get("/order", h.Order)
	r.Post("/execute", h.Execute)
	r.Get("/holdings/:address", h.Holdings)
	r.Get("/price/:token", h.PriceHistory)
}
