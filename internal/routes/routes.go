package routes

import (
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/aggregator-demo/aggregator/internal/admin"
	"github.com/aggregator-demo/aggregator/internal/auth"
	"github.com/aggregator-demo/aggregator/internal/funding"
	"github.com/aggregator-demo/aggregator/internal/middleware"
	"github.com/aggregator-demo/aggregator/internal/news"
	"github.com/aggregator-demo/aggregator/internal/swap"
	"github.com/aggregator-demo/aggregator/internal/upstream"
	"github.com/aggregator-demo/aggregator/internal/wallet"
)

// Setup configures middlewares and all application routes.
func Setup(app *fiber.App, d Deps, s *Services) {
	app.Use(recover.New())
	app.Use(middleware.RequestID())
	app.Use(middleware.Audit(d.Logger))

	RegisterHealthRoutes(app, d, s)

	api := app.Group("/api")
	api.Get("/ping", func(c *fiber.Ctx) error {
		return c.Status(http.StatusOK).JSON(fiber.Map{
			"status":     "ok",
			"request_id": middleware.RequestIDFrom(c),
			"timestamp":  time.Now().UTC().Format(time.RFC3339Nano),
		})
	})

	authenticated := middleware.JWTAuth(s.Tokens)
	idempotent := middleware.Idempotency(d.Cache, d.Cfg.IdempotencyTTL, d.Logger)

	RegisterAuthRoutes(api,
		auth.NewHandler(s.Identities, s.Tokens, s.Wallets, d.Logger),
		middleware.LoginRateLimit(d.Cache, d.Cfg.LoginRateLimit),
		authenticated,
	)
	RegisterWalletRoutes(api, wallet.NewHandler(s.Wallets), authenticated)
	RegisterFundingRoutes(api, funding.NewHandler(s.Funding), authenticated, idempotent)
	RegisterSwapRoutes(api, swap.NewHandler(s.Swap), authenticated, idempotent)

	newsHandler := news.NewHandler(s.News)
	api.Get("/news", newsHandler.List)

	adminGroup := api.Group("/admin", authenticated, middleware.RequireAdmin(s.Identities.Admins().Primary()))
	RegisterAdminRoutes(adminGroup, admin.NewHandler(s.Admin), newsHandler)

	RegisterProxyRoutes(api, upstream.NewHandler(s.Upstream))

	if d.Cfg.IsDevelopment() {
		RegisterInitRoute(api, d, s)
	}
}
