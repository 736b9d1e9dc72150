package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/aggregator-demo/aggregator/internal/admin"
	"github.com/aggregator-demo/aggregator/internal/news"
)

// RegisterAdminRoutes wires the admin dashboard endpoints. r must already
// enforce admin access.
func RegisterAdminRoutes(r fiber.Router, h *admin.Handler, newsHandler *news.Handler) {
	r.Get("/overview", h.Overview)
	r.Get("/profiles", h.Profiles)
	r.Get("/transactions", h.Transactions)
	r.Get("/news", newsHandler.List)
	r.Post("/news", newsHandler.Create)
	r.Delete("/news/:id", newsHandler.Delete)
}
