package server

import (
	"context"
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/aggregator-demo/aggregator/internal/config"
	"github.com/aggregator-demo/aggregator/internal/metrics"
	"github.com/aggregator-demo/aggregator/internal/middleware"
	"github.com/aggregator-demo/aggregator/internal/routes"
)

// Server wraps the Fiber application and shared dependencies.
type Server struct {
	app      *fiber.App
	cfg      config.Config
	services *routes.Services
	logger   *slog.Logger
}

// New instantiates the HTTP server and delegates route wiring to routes.Setup.
// db and cache may be nil in development.
func New(cfg config.Config, db *pgxpool.Pool, cache *redis.Client, logger *slog.Logger) (*Server, error) {
	deps := routes.Deps{Cfg: cfg, DB: db, Cache: cache, Logger: logger, Metrics: metrics.New()}
	services, err := routes.Build(deps)
	if err != nil {
		return nil, err
	}

	app := fiber.New(fiber.Config{
		AppName:      cfg.AppName,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		ErrorHandler: middleware.ErrorHandler(logger),
	})
	routes.Setup(app, deps, services)

	return &Server{app: app, cfg: cfg, services: services, logger: logger}, nil
}

// Initialize migrates the schema and seeds demo data when enabled. It must
// complete before Listen.
func (s *Server) Initialize(ctx context.Context) error {
	report, err := s.services.Initialize(ctx, s.cfg.SeedOnStartup)
	if err != nil {
		return err
	}
	if s.cfg.SeedOnStartup {
		s.logger.Info("initialization complete", slog.Int("users_created", report.UsersCreated))
	}
	return nil
}

// App exposes the underlying Fiber application for tests.
func (s *Server) App() *fiber.App {
	return s.app
}

// Listen starts the HTTP server.
func (s *Server) Listen() error {
	return s.app.Listen(s.cfg.Address())
}

// Shutdown gracefully stops the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.app.ShutdownWithContext(ctx)
}
