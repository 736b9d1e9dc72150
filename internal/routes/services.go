package routes

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/aggregator-demo/aggregator/internal/admin"
	"github.com/aggregator-demo/aggregator/internal/auth"
	"github.com/aggregator-demo/aggregator/internal/catalog"
	"github.com/aggregator-demo/aggregator/internal/config"
	"github.com/aggregator-demo/aggregator/internal/funding"
	"github.com/aggregator-demo/aggregator/internal/identity"
	"github.com/aggregator-demo/aggregator/internal/infra"
	"github.com/aggregator-demo/aggregator/internal/ledger"
	"github.com/aggregator-demo/aggregator/internal/metrics"
	"github.com/aggregator-demo/aggregator/internal/news"
	"github.com/aggregator-demo/aggregator/internal/notification"
	"github.com/aggregator-demo/aggregator/internal/seed"
	"github.com/aggregator-demo/aggregator/internal/swap"
	"github.com/aggregator-demo/aggregator/internal/upstream"
	"github.com/aggregator-demo/aggregator/internal/wallet"
)

// Deps aggregates shared dependencies required to wire routes.
type Deps struct {
	Cfg     config.Config
	DB      *pgxpool.Pool
	Cache   *redis.Client
	Logger  *slog.Logger
	Metrics *metrics.Metrics
	// Hasher overrides the password hasher. Nil selects bcrypt.
	Hasher identity.Hasher
}

// Services holds the domain services shared by the handlers.
type Services struct {
	Identities *identity.Service
	Tokens     *auth.Service
	Wallets    *wallet.Service
	Funding    *funding.Service
	Swap       *swap.Service
	News       *news.Service
	Admin      *admin.Service
	Upstream   *upstream.Client
	Seeder     *seed.Seeder
	// Migrator is nil when running on in-memory stores.
	Migrator seed.Migrator
}

// Build constructs the services, falling back to in-memory stores when no
// database is configured.
func Build(d Deps) (*Services, error) {
	if !d.Cfg.IsDevelopment() {
		if d.DB == nil {
			return nil, fmt.Errorf("database is required when APP_ENV=%s", d.Cfg.AppEnv)
		}
		if d.Cache == nil {
			return nil, fmt.Errorf("redis is required when APP_ENV=%s", d.Cfg.AppEnv)
		}
	}

	var (
		store       ledger.Store
		userRepo    identity.Repository
		newsRepo    news.Repository
		migrator    seed.Migrator
		cat         = catalog.Default()
		prices      = catalog.DefaultPrices()
		admins      = identity.NewAdminSet(d.Cfg.Admins)
		notifier    = notification.Multi{notification.NewLoggerNotifier(d.Logger)}
		upstreamCfg = upstream.Config{
			JupiterURL:     d.Cfg.JupiterURL,
			CoinGeckoURL:   d.Cfg.CoinGeckoURL,
			SearchCacheTTL: d.Cfg.SearchCacheTTL,
			Metrics:        d.Metrics,
			Logger:         d.Logger,
		}
	)
	if d.DB != nil {
		store = ledger.NewPostgresStore(d.DB)
		userRepo = identity.NewPostgresRepository(d.DB)
		newsRepo = news.NewPostgresRepository(d.DB)
		migrator = infra.NewMigrator(d.DB)
	} else {
		store = ledger.NewInMemory()
		userRepo = identity.NewMemoryRepository()
		newsRepo = news.NewMemoryRepository()
	}
	if d.Cache != nil {
		upstreamCfg.Cache = d.Cache
		notifier = append(notifier, notification.NewStreamNotifier(d.Cache))
	}

	client := upstream.New(upstreamCfg)
	identities := identity.NewService(userRepo, d.Hasher, admins)
	wallets := wallet.NewService(store, cat, client)
	feed := news.NewService(newsRepo, admins.Primary())

	fundingSvc, err := funding.NewService(store, wallets, funding.Options{
		Prices:   prices,
		Notifier: notifier,
		Metrics:  d.Metrics,
		Logger:   d.Logger,
	})
	if err != nil {
		return nil, err
	}
	swapSvc := swap.NewService(store, wallets, swap.Options{
		Prices:   prices,
		Notifier: notifier,
		Metrics:  d.Metrics,
		Logger:   d.Logger,
	})

	seeder := seed.New(seed.Config{
		Admins:         d.Cfg.Admins,
		TargetProfiles: d.Cfg.DemoProfiles,
		Seed:           d.Cfg.DemoSeed,
	}, seed.Deps{
		Identities: identities,
		Wallets:    wallets,
		Store:      store,
		News:       feed,
		Prices:     prices,
		Metrics:    d.Metrics,
		Logger:     d.Logger,
	})

	return &Services{
		Identities: identities,
		Tokens:     auth.NewService(d.Cfg.JWTSecret, d.Cfg.TokenTTL, admins),
		Wallets:    wallets,
		Funding:    fundingSvc,
		Swap:       swapSvc,
		News:       feed,
		Admin:      admin.NewService(identities, store, prices, seeder),
		Upstream:   client,
		Seeder:     seeder,
		Migrator:   migrator,
	}, nil
}

// Initialize migrates the schema and, when seedData is set, ensures the demo data.
func (s *Services) Initialize(ctx context.Context, seedData bool) (seed.Report, error) {
	if !seedData {
		if s.Migrator == nil {
			return seed.Report{}, nil
		}
		return seed.Report{}, s.Migrator.Migrate(ctx)
	}
	return seed.Initialize(ctx, s.Migrator, s.Seeder)
}
