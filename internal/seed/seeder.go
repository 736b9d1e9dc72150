// Package seed populates a fresh environment with demo accounts, balances,
// transaction history and news.
package seed

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"math/rand/v2"
	"time"

	"github.com/aggregator-demo/aggregator/internal/catalog"
	"github.com/aggregator-demo/aggregator/internal/identity"
	"github.com/aggregator-demo/aggregator/internal/ledger"
	"github.com/aggregator-demo/aggregator/internal/logging"
	"github.com/aggregator-demo/aggregator/internal/metrics"
	"github.com/aggregator-demo/aggregator/internal/news"
	"github.com/aggregator-demo/aggregator/internal/swap"
	"github.com/aggregator-demo/aggregator/internal/wallet"
)

const (
	defaultTargetProfiles = 25
	defaultDemoPassword   = "student123"
	defaultSeed           = 42
	demoEmailPattern      = "student%02d@aggregator.local"
)

// Config controls what the seeder creates.
type Config struct {
	// Admins are the accounts ensured first. The first one signs default news.
	Admins []identity.Account
	// TargetProfiles is the number of non-admin users the seeder tops up to.
	TargetProfiles int
	DemoPassword   string
	// Seed drives the generator used by Run.
	Seed uint64
}

// Report summarises what a run created.
type Report struct {
	AdminsCreated       int
	UsersCreated        int
	TransactionsCreated int
	NewsCreated         int
}

// Seeder populates demo data. Every step is idempotent.
type Seeder struct {
	cfg        Config
	identities *identity.Service
	wallets    *wallet.Service
	store      ledger.Store
	news       *news.Service
	prices     catalog.Prices
	metrics    *metrics.Metrics
	logger     *slog.Logger
	now        func() time.Time
}

// Deps are the collaborators of a Seeder.
type Deps struct {
	Identities *identity.Service
	Wallets    *wallet.Service
	Store      ledger.Store
	News       *news.Service
	Prices     catalog.Prices
	Metrics    *metrics.Metrics
	Logger     *slog.Logger
}

// New constructs a seeder, filling zero config values with defaults.
func New(cfg Config, deps Deps) *Seeder {
	if cfg.TargetProfiles <= 0 {
		cfg.TargetProfiles = defaultTargetProfiles
	}
	if cfg.DemoPassword == "" {
		cfg.DemoPassword = defaultDemoPassword
	}
	if cfg.Seed == 0 {
		cfg.Seed = defaultSeed
	}
	if deps.Prices == nil {
		deps.Prices = catalog.DefaultPrices()
	}
	if deps.Logger == nil {
		deps.Logger = logging.Discard()
	}
	return &Seeder{
		cfg:        cfg,
		identities: deps.Identities,
		wallets:    deps.Wallets,
		store:      deps.Store,
		news:       deps.News,
		prices:     deps.Prices,
		metrics:    deps.Metrics,
		logger:     deps.Logger,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// Run seeds with a generator built from the configured seed, so repeated runs
// against the same empty store produce the same data.
func (s *Seeder) Run(ctx context.Context) (Report, error) {
	return s.RunWith(ctx, rand.New(rand.NewPCG(s.cfg.Seed, s.cfg.Seed)))
}

// RunWith seeds using rng for every random draw.
func (s *Seeder) RunWith(ctx context.Context, rng *rand.Rand) (Report, error) {
	var report Report

	for _, account := range s.cfg.Admins {
		user, created, err := s.identities.Ensure(ctx, account.Email, account.Password)
		if err != nil {
			return report, fmt.Errorf("ensure admin %s: %w", account.Email, err)
		}
		if created {
			report.AdminsCreated++
		}
		if err := s.wallets.ProvisionStarter(ctx, user.ID, true); err != nil {
			return report, fmt.Errorf("provision admin %s: %w", account.Email, err)
		}
	}

	users, err := s.identities.List(ctx)
	if err != nil {
		return report, err
	}
	profiles := 0
	for _, u := range users {
		if !s.identities.IsAdmin(u.Email) {
			profiles++
		}
	}

	for next := 1; profiles < s.cfg.TargetProfiles; next++ {
		email := fmt.Sprintf(demoEmailPattern, next)
		if s.identities.IsAdmin(email) {
			continue
		}
		user, created, err := s.identities.Ensure(ctx, email, s.cfg.DemoPassword)
		if err != nil {
			return report, fmt.Errorf("ensure demo user %s: %w", email, err)
		}
		if !created {
			continue
		}
		n, err := s.populate(ctx, rng, user.ID)
		if err != nil {
			return report, fmt.Errorf("populate demo user %s: %w", email, err)
		}
		report.UsersCreated++
		report.TransactionsCreated += n
		profiles++
	}

	users, err = s.identities.List(ctx)
	if err != nil {
		return report, err
	}
	for _, u := range users {
		if err := s.wallets.ProvisionStarter(ctx, u.ID, s.identities.IsAdmin(u.Email)); err != nil {
			return report, fmt.Errorf("provision %s: %w", u.Email, err)
		}
	}

	if s.news != nil {
		if report.NewsCreated, err = s.news.EnsureDefaults(ctx); err != nil {
			return report, err
		}
	}

	s.metrics.SeededUsers(report.UsersCreated)
	s.logger.InfoContext(ctx, "demo data ensured",
		slog.Int("admins_created", report.AdminsCreated),
		slog.Int("users_created", report.UsersCreated),
		slog.Int("transactions_created", report.TransactionsCreated),
		slog.Int("news_created", report.NewsCreated),
	)
	return report, nil
}

// populate gives a freshly created demo user random balances and a synthetic
// history. Synthetic transactions do not move balances.
func (s *Seeder) populate(ctx context.Context, rng *rand.Rand, userID string) (int, error) {
	tokens := s.wallets.Catalog().Tokens()
	count := 0
	err := s.store.WithinTx(ctx, func(ctx context.Context, tx ledger.Tx) error {
		for _, token := range tokens {
			balance := catalog.Round(uniform(rng, 1, 25), 4)
			if catalog.IsStable(token.Symbol) {
				balance = catalog.Round(uniform(rng, 100, 800), 2)
			}
			w, err := wallet.Ensure(ctx, tx, userID, token)
			if err != nil {
				return err
			}
			if w.Balance <= 0 {
				if err := tx.SetBalance(ctx, w.ID, balance); err != nil {
					return err
				}
			}
		}

		if len(tokens) < 2 {
			return nil
		}
		count = randInt(rng, 2, 5)
		for i := 0; i < count; i++ {
			if _, err := tx.AppendTransaction(ctx, s.syntheticTransaction(rng, userID, tokens)); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return count, nil
}

func (s *Seeder) syntheticTransaction(rng *rand.Rand, userID string, tokens []catalog.Token) ledger.Transaction {
	from, to := sampleTwo(rng, tokens)

	var fromAmount float64
	switch {
	case catalog.IsStable(from.Symbol):
		fromAmount = catalog.Round(uniform(rng, 25, 400), 2)
	case from.Symbol == "BONK":
		fromAmount = catalog.Round(uniform(rng, 15000, 800000), 2)
	default:
		fromAmount = catalog.Round(uniform(rng, 0.1, 8), 4)
	}
	usd := catalog.RoundUSD(s.prices.Estimate(from.Symbol, fromAmount))
	toAmount := catalog.Round(math.Max(0.000001, usd/s.prices.USD(to.Symbol)*uniform(rng, 0.985, 1.015)), 6)

	age := time.Duration(randInt(rng, 0, 14))*24*time.Hour +
		time.Duration(randInt(rng, 0, 23))*time.Hour +
		time.Duration(randInt(rng, 0, 59))*time.Minute

	return ledger.Transaction{
		UserID:     userID,
		FromMint:   from.Mint,
		FromSymbol: from.Symbol,
		FromAmount: fromAmount,
		ToMint:     to.Mint,
		ToSymbol:   to.Symbol,
		ToAmount:   toAmount,
		Rate:       ledger.Rate(fromAmount, toAmount),
		Fee:        swap.FeePercent,
		Slippage:   swap.DefaultSlippage,
		USDValue:   usd,
		Status:     ledger.StatusCompleted,
		CreatedAt:  s.now().Add(-age),
	}
}

func uniform(rng *rand.Rand, lo, hi float64) float64 {
	return lo + (hi-lo)*rng.Float64()
}

// randInt returns an integer in [lo, hi].
func randInt(rng *rand.Rand, lo, hi int) int {
	return lo + rng.IntN(hi-lo+1)
}

func sampleTwo(rng *rand.Rand, tokens []catalog.Token) (catalog.Token, catalog.Token) {
	i := rng.IntN(len(tokens))
	j := rng.IntN(len(tokens) - 1)
	if j >= i {
		j++
	}
	return tokens[i], tokens[j]
}
