package routes

import (
	"net/http"

	"github.com/gofiber/fiber/v2"
)

// RegisterInitRoute exposes the development-only schema and demo data bootstrap.
func RegisterInitRoute(r fiber.Router, d Deps, s *Services) {
	r.Get("/init-db", func(c *fiber.Ctx) error {
		if _, err := s.Initialize(c.UserContext(), true); err != nil {
			return err
		}
		primary := fiber.Map{}
		if len(d.Cfg.Admins) > 0 {
			primary = fiber.Map{"email": d.Cfg.Admins[0].Email, "password": d.Cfg.Admins[0].Password}
		}
		return c.Status(http.StatusOK).JSON(fiber.Map{
			"success": true,
			"message": "Database initialized: demo users, news, and admin 10k USDC prepared",
			"admin":   primary,
		})
	})
}
