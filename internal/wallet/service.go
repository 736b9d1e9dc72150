package wallet

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aggregator-demo/aggregator/internal/apperr"
	"github.com/aggregator-demo/aggregator/internal/catalog"
	"github.com/aggregator-demo/aggregator/internal/ledger"
)

// Service resolves token wallets and provisions balances on top of the ledger store.
type Service struct {
	store    ledger.Store
	catalog  *catalog.Catalog
	searcher TokenSearcher
}

// NewService builds a wallet service instance. searcher may be nil, in which
// case only catalog tokens can be resolved.
func NewService(store ledger.Store, cat *catalog.Catalog, searcher TokenSearcher) *Service {
	if cat == nil {
		cat = catalog.Default()
	}
	return &Service{store: store, catalog: cat, searcher: searcher}
}

// Catalog returns the token catalog backing this service.
func (s *Service) Catalog() *catalog.Catalog {
	return s.catalog
}

// Resolve describes a catalog token.
func (s *Service) Resolve(mint string) (catalog.Token, error) {
	token, ok := s.catalog.Lookup(mint)
	if !ok {
		return catalog.Token{}, fmt.Errorf("%w: %s", apperr.ErrUnknownToken, mint)
	}
	return token, nil
}

// Describe resolves the descriptor of a swap destination: an existing wallet
// first, then the catalog, then the token search. It must be called outside a
// ledger transaction since the search may reach the network.
func (s *Service) Describe(ctx context.Context, userID, mint string) (catalog.Token, error) {
	w, err := s.store.Wallet(ctx, userID, mint)
	if err == nil {
		return Token(w), nil
	}
	if !errors.Is(err, ledger.ErrWalletNotFound) {
		return catalog.Token{}, err
	}
	if token, ok := s.catalog.Lookup(mint); ok {
		return token, nil
	}
	if s.searcher == nil {
		return catalog.Token{}, fmt.Errorf("%w: %s", apperr.ErrUnknownToken, mint)
	}
	found, err := s.searcher.SearchTokens(ctx, mint)
	if err != nil || len(found) == 0 {
		return catalog.Token{}, fmt.Errorf("%w: %s", apperr.ErrUnknownToken, mint)
	}
	token := found[0]
	for _, t := range found {
		if t.Mint == mint {
			token = t
			break
		}
	}
	token.Mint = mint
	return token, nil
}

// GetOrCreate returns the wallet of userID for a catalog token, creating it
// with a zero balance inside tx when absent.
func (s *Service) GetOrCreate(ctx context.Context, tx ledger.Tx, userID, mint string) (ledger.Wallet, error) {
	w, err := tx.FindWallet(ctx, userID, mint)
	if err == nil {
		return w, nil
	}
	if !errors.Is(err, ledger.ErrWalletNotFound) {
		return ledger.Wallet{}, err
	}
	token, err := s.Resolve(mint)
	if err != nil {
		return ledger.Wallet{}, err
	}
	return Ensure(ctx, tx, userID, token)
}

// Ensure returns the wallet of userID for token, creating it with a zero
// balance when absent. A concurrent create is resolved by re-reading the row.
func Ensure(ctx context.Context, tx ledger.Tx, userID string, token catalog.Token) (ledger.Wallet, error) {
	w, err := tx.FindWallet(ctx, userID, token.Mint)
	if err == nil {
		return w, nil
	}
	if !errors.Is(err, ledger.ErrWalletNotFound) {
		return ledger.Wallet{}, err
	}
	w, err = tx.CreateWallet(ctx, ledger.Wallet{
		UserID:        userID,
		TokenMint:     token.Mint,
		TokenSymbol:   token.Symbol,
		TokenName:     token.Name,
		TokenIcon:     token.Icon,
		TokenDecimals: token.Decimals,
		CreatedAt:     time.Now().UTC(),
	})
	if errors.Is(err, ledger.ErrWalletExists) {
		return tx.FindWallet(ctx, userID, token.Mint)
	}
	return w, err
}

// ProvisionStarter makes sure userID holds a wallet for every catalog token.
// Admin accounts are forced to the admin pattern; regular accounts are topped
// up to the starter table and never decreased.
func (s *Service) ProvisionStarter(ctx context.Context, userID string, admin bool) error {
	return s.store.WithinTx(ctx, func(ctx context.Context, tx ledger.Tx) error {
		return s.provision(ctx, tx, userID, admin)
	})
}

func (s *Service) provision(ctx context.Context, tx ledger.Tx, userID string, admin bool) error {
	for _, token := range s.catalog.Tokens() {
		w, err := Ensure(ctx, tx, userID, token)
		if err != nil {
			return err
		}
		target := w.Balance
		if admin {
			target = AdminBalance(token.Symbol)
		} else if starter := StarterBalance(token.Symbol); w.Balance < starter {
			target = starter
		}
		if target == w.Balance {
			continue
		}
		if err := tx.SetBalance(ctx, w.ID, target); err != nil {
			return err
		}
	}
	return nil
}

// Balances lists the holdings of userID.
func (s *Service) Balances(ctx context.Context, userID string) ([]Balance, error) {
	wallets, err := s.store.Wallets(ctx, userID)
	if err != nil {
		return nil, err
	}
	out := make([]Balance, 0, len(wallets))
	for _, w := range wallets {
		out = append(out, toBalance(w))
	}
	return out, nil
}
