// Package admin computes read-only rollups over users and the ledger.
package admin

import (
	"context"
	"time"

	"github.com/aggregator-demo/aggregator/internal/catalog"
	"github.com/aggregator-demo/aggregator/internal/identity"
	"github.com/aggregator-demo/aggregator/internal/ledger"
	"github.com/aggregator-demo/aggregator/internal/seed"
)

const (
	DefaultProfileLimit     = 25
	MinProfileLimit         = 1
	MaxProfileLimit         = 100
	DefaultTransactionLimit = 100
	MinTransactionLimit     = 10
	MaxTransactionLimit     = 300
)

// Seeder ensures demo data exists before a rollup is computed.
type Seeder interface {
	Run(ctx context.Context) (seed.Report, error)
}

// Overview summarises platform activity.
type Overview struct {
	Users                int     `json:"users"`
	Transactions         int     `json:"transactions"`
	TotalUSDTransferred  float64 `json:"totalUsdTransferred"`
	AvgUSDPerTransaction float64 `json:"avgUsdPerTransaction"`
	USDLast24h           float64 `json:"usdLast24h"`
}

// Profile is the per-user rollup.
type Profile struct {
	ID                  string     `json:"id"`
	Email               string     `json:"email"`
	CreatedAt           time.Time  `json:"createdAt"`
	WalletCount         int        `json:"walletCount"`
	TransactionCount    int        `json:"transactionCount"`
	WalletUSDValue      float64    `json:"walletUsdValue"`
	TotalUSDTransferred float64    `json:"totalUsdTransferred"`
	LastTransactionAt   *time.Time `json:"lastTransactionAt"`
}

// TransactionEntry is a transaction annotated with its owner.
type TransactionEntry struct {
	ledger.TransactionView
	UserEmail string `json:"userEmail"`
}

// Service aggregates identity and ledger data for administrators.
type Service struct {
	identities *identity.Service
	store      ledger.Store
	prices     catalog.Prices
	seeder     Seeder
	now        func() time.Time
}

// NewService constructs the admin service. seeder may be nil.
func NewService(identities *identity.Service, store ledger.Store, prices catalog.Prices, seeder Seeder) *Service {
	if prices == nil {
		prices = catalog.DefaultPrices()
	}
	return &Service{
		identities: identities,
		store:      store,
		prices:     prices,
		seeder:     seeder,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// EstimateUSD returns the stored USD value of t, or its source amount priced
// with the static table when none was recorded.
func EstimateUSD(prices catalog.Prices, t ledger.Transaction) float64 {
	if t.USDValue > 0 {
		return t.USDValue
	}
	return prices.Estimate(t.FromSymbol, t.FromAmount)
}

// Overview returns platform totals. Admin accounts are not counted as users.
func (s *Service) Overview(ctx context.Context) (Overview, error) {
	if err := s.ensure(ctx); err != nil {
		return Overview{}, err
	}
	profiles, err := s.profileUsers(ctx)
	if err != nil {
		return Overview{}, err
	}
	txns, err := s.store.Transactions(ctx, ledger.TransactionFilter{})
	if err != nil {
		return Overview{}, err
	}

	since := s.now().Add(-24 * time.Hour)
	var total, daily float64
	for _, t := range txns {
		usd := EstimateUSD(s.prices, t)
		total += usd
		if !t.CreatedAt.Before(since) {
			daily += usd
		}
	}
	var avg float64
	if len(txns) > 0 {
		avg = total / float64(len(txns))
	}
	return Overview{
		Users:                len(profiles),
		Transactions:         len(txns),
		TotalUSDTransferred:  catalog.RoundUSD(total),
		AvgUSDPerTransaction: catalog.RoundUSD(avg),
		USDLast24h:           catalog.RoundUSD(daily),
	}, nil
}

// Profiles returns rollups for the oldest non-admin users. The limit is
// clamped and the effective value returned.
func (s *Service) Profiles(ctx context.Context, limit int) ([]Profile, int, error) {
	limit = clamp(limit, MinProfileLimit, MaxProfileLimit)
	if err := s.ensure(ctx); err != nil {
		return nil, limit, err
	}
	users, err := s.profileUsers(ctx)
	if err != nil {
		return nil, limit, err
	}
	if len(users) > limit {
		users = users[:limit]
	}

	out := make([]Profile, 0, len(users))
	for _, u := range users {
		p, err := s.profile(ctx, u)
		if err != nil {
			return nil, limit, err
		}
		out = append(out, p)
	}
	return out, limit, nil
}

func (s *Service) profile(ctx context.Context, u identity.User) (Profile, error) {
	wallets, err := s.store.Wallets(ctx, u.ID)
	if err != nil {
		return Profile{}, err
	}
	txns, err := s.store.Transactions(ctx, ledger.TransactionFilter{UserID: u.ID})
	if err != nil {
		return Profile{}, err
	}

	p := Profile{
		ID:               u.ID,
		Email:            u.Email,
		CreatedAt:        u.CreatedAt,
		WalletCount:      len(wallets),
		TransactionCount: len(txns),
	}
	var walletUSD, total float64
	for _, w := range wallets {
		walletUSD += s.prices.Estimate(w.TokenSymbol, w.Balance)
	}
	for _, t := range txns {
		total += EstimateUSD(s.prices, t)
		if p.LastTransactionAt == nil || t.CreatedAt.After(*p.LastTransactionAt) {
			last := t.CreatedAt
			p.LastTransactionAt = &last
		}
	}
	p.WalletUSDValue = catalog.RoundUSD(walletUSD)
	p.TotalUSDTransferred = catalog.RoundUSD(total)
	return p, nil
}

// Transactions returns the newest transactions across all users. The limit is
// clamped and the effective value returned.
func (s *Service) Transactions(ctx context.Context, limit int) ([]TransactionEntry, int, error) {
	limit = clamp(limit, MinTransactionLimit, MaxTransactionLimit)
	if err := s.ensure(ctx); err != nil {
		return nil, limit, err
	}
	users, err := s.identities.List(ctx)
	if err != nil {
		return nil, limit, err
	}
	emails := make(map[string]string, len(users))
	for _, u := range users {
		emails[u.ID] = u.Email
	}

	txns, err := s.store.Transactions(ctx, ledger.TransactionFilter{Limit: limit})
	if err != nil {
		return nil, limit, err
	}
	out := make([]TransactionEntry, 0, len(txns))
	for _, t := range txns {
		email, ok := emails[t.UserID]
		if !ok {
			continue
		}
		view := t.View()
		view.USDValue = catalog.RoundUSD(EstimateUSD(s.prices, t))
		out = append(out, TransactionEntry{TransactionView: view, UserEmail: email})
	}
	return out, limit, nil
}

func (s *Service) ensure(ctx context.Context) error {
	if s.seeder == nil {
		return nil
	}
	_, err := s.seeder.Run(ctx)
	return err
}

func (s *Service) profileUsers(ctx context.Context) ([]identity.User, error) {
	users, err := s.identities.List(ctx)
	if err != nil {
		return nil, err
	}
	out := users[:0:0]
	for _, u := range users {
		if !s.identities.IsAdmin(u.Email) {
			out = append(out, u)
		}
	}
	return out, nil
}

func clamp(v, lo, hi int) int {
	return max(lo, min(v, hi))
}
