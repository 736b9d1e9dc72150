package funding

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"

	"github.com/aggregator-demo/aggregator/internal/apperr"
	"github.com/aggregator-demo/aggregator/internal/catalog"
	"github.com/aggregator-demo/aggregator/internal/ledger"
	"github.com/aggregator-demo/aggregator/internal/logging"
	"github.com/aggregator-demo/aggregator/internal/metrics"
	"github.com/aggregator-demo/aggregator/internal/notification"
	"github.com/aggregator-demo/aggregator/internal/wallet"
)

const operationDeposit = "deposit"

// Service credits mock deposits into token wallets.
type Service struct {
	store    ledger.Store
	wallets  *wallet.Service
	prices   catalog.Prices
	notifier notification.Notifier
	metrics  *metrics.Metrics
	logger   *slog.Logger
}

// Options carries the optional collaborators of the service.
type Options struct {
	Prices   catalog.Prices
	Notifier notification.Notifier
	Metrics  *metrics.Metrics
	Logger   *slog.Logger
}

// NewService prepares a funding service.
func NewService(store ledger.Store, wallets *wallet.Service, opts Options) (*Service, error) {
	if wallets == nil {
		return nil, fmt.Errorf("wallet service is required")
	}
	if opts.Prices == nil {
		opts.Prices = catalog.DefaultPrices()
	}
	if opts.Logger == nil {
		opts.Logger = logging.Discard()
	}
	return &Service{
		store:    store,
		wallets:  wallets,
		prices:   opts.Prices,
		notifier: opts.Notifier,
		metrics:  opts.Metrics,
		logger:   opts.Logger,
	}, nil
}

// DepositInput captures the data required to credit a wallet.
type DepositInput struct {
	UserID    string
	TokenMint string
	Amount    float64
}

// DepositResult is the outcome of a committed deposit.
type DepositResult struct {
	Symbol      string
	NewBalance  float64
	Transaction ledger.Transaction
}

// Deposit credits amount of a catalog token to the user's wallet and records
// the matching transaction in the same unit of work.
func (s *Service) Deposit(ctx context.Context, input DepositInput) (DepositResult, error) {
	result, err := s.deposit(ctx, input)
	s.metrics.LedgerOperation(operationDeposit, err)
	if err != nil {
		return DepositResult{}, err
	}

	s.logger.InfoContext(ctx, "deposit completed",
		slog.String("user_id", input.UserID),
		slog.String("token", result.Symbol),
		slog.Float64("amount", input.Amount),
		slog.String("transaction_id", result.Transaction.ID),
	)
	if s.notifier != nil {
		if err := s.notifier.Send(ctx, notification.FromTransaction(notification.KindDeposit, result.Transaction)); err != nil {
			s.logger.WarnContext(ctx, "deposit notification failed", slog.Any("error", err))
		}
	}
	return result, nil
}

func (s *Service) deposit(ctx context.Context, input DepositInput) (DepositResult, error) {
	if input.UserID == "" {
		return DepositResult{}, fmt.Errorf("%w: user is required", apperr.ErrInvalidRequest)
	}
	if input.TokenMint == "" {
		return DepositResult{}, fmt.Errorf("%w: token mint is required", apperr.ErrInvalidRequest)
	}
	if !(input.Amount > 0) || math.IsInf(input.Amount, 0) {
		return DepositResult{}, fmt.Errorf("%w: amount must be positive", apperr.ErrInvalidRequest)
	}

	var result DepositResult
	err := s.store.WithinTx(ctx, func(ctx context.Context, tx ledger.Tx) error {
		w, err := s.wallets.GetOrCreate(ctx, tx, input.UserID, input.TokenMint)
		if errors.Is(err, apperr.ErrUnknownToken) {
			return fmt.Errorf("%w: %w", apperr.ErrInvalidRequest, err)
		}
		if err != nil {
			return err
		}

		balance := w.Balance + input.Amount
		if err := tx.SetBalance(ctx, w.ID, balance); err != nil {
			return err
		}

		txn, err := tx.AppendTransaction(ctx, ledger.Transaction{
			UserID:     input.UserID,
			FromMint:   catalog.DepositMint,
			FromSymbol: catalog.DepositSymbol,
			FromAmount: input.Amount,
			ToMint:     w.TokenMint,
			ToSymbol:   w.TokenSymbol,
			ToAmount:   input.Amount,
			Rate:       ledger.Rate(input.Amount, input.Amount),
			USDValue:   s.prices.Estimate(w.TokenSymbol, input.Amount),
			Status:     ledger.StatusCompleted,
		})
		if err != nil {
			return err
		}

		result = DepositResult{Symbol: w.TokenSymbol, NewBalance: balance, Transaction: txn}
		return nil
	})
	if err != nil {
		return DepositResult{}, err
	}
	return result, nil
}
