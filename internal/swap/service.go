package swap

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

const (
	operationSwap = "swap"

	// FeePercent is the nominal fee recorded on every swap.
	FeePercent = 0.3
	// DefaultSlippage is used when the caller does not choose one.
	DefaultSlippage = 0.5
	// HistoryLimit bounds the transaction history returned to a user.
	HistoryLimit = 50
)

// Service executes mock swaps between token wallets.
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

// NewService constructs a swap service.
func NewService(store ledger.Store, wallets *wallet.Service, opts Options) *Service {
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
	}
}

// Input captures a swap request. The output amount is taken as quoted by the
// caller and is not re-derived on the server.
type Input struct {
	UserID       string
	InputMint    string
	OutputMint   string
	InputAmount  float64
	OutputAmount float64
	Slippage     float64
	// USDValue overrides the estimated USD value when positive.
	USDValue float64
}

// Result is the outcome of a committed swap.
type Result struct {
	Transaction ledger.Transaction
	// Balances maps token symbols to their balance after the swap. When both
	// sides share a symbol the destination balance wins; use BalancesByMint.
	Balances map[string]float64
	// BalancesByMint maps both token mints to their balance after the swap.
	BalancesByMint map[string]float64
}

// Swap debits the source wallet, credits the destination wallet and records
// the transaction, all in one unit of work.
func (s *Service) Swap(ctx context.Context, input Input) (Result, error) {
	result, err := s.swap(ctx, input)
	s.metrics.LedgerOperation(operationSwap, err)
	if err != nil {
		return Result{}, err
	}

	txn := result.Transaction
	s.logger.InfoContext(ctx, "swap completed",
		slog.String("user_id", input.UserID),
		slog.String("from", txn.FromSymbol),
		slog.String("to", txn.ToSymbol),
		slog.Float64("rate", txn.Rate),
		slog.String("transaction_id", txn.ID),
	)
	if s.notifier != nil {
		if err := s.notifier.Send(ctx, notification.FromTransaction(notification.KindSwap, txn)); err != nil {
			s.logger.WarnContext(ctx, "swap notification failed", slog.Any("error", err))
		}
	}
	return result, nil
}

func (s *Service) swap(ctx context.Context, input Input) (Result, error) {
	if err := validate(input); err != nil {
		return Result{}, err
	}

	// Resolved before the unit of work opens since it may query the token search.
	dest, err := s.wallets.Describe(ctx, input.UserID, input.OutputMint)
	if err != nil {
		return Result{}, err
	}

	var result Result
	err = s.store.WithinTx(ctx, func(ctx context.Context, tx ledger.Tx) error {
		source, err := tx.FindWallet(ctx, input.UserID, input.InputMint)
		if errors.Is(err, ledger.ErrWalletNotFound) {
			return fmt.Errorf("%w: no %s wallet", apperr.ErrInsufficientBalance, input.InputMint)
		}
		if err != nil {
			return err
		}
		if source.Balance < input.InputAmount {
			return fmt.Errorf("%w: %s balance %g is below %g", apperr.ErrInsufficientBalance, source.TokenSymbol, source.Balance, input.InputAmount)
		}

		target, err := wallet.Ensure(ctx, tx, input.UserID, dest)
		if err != nil {
			return err
		}

		sourceBalance := source.Balance - input.InputAmount
		targetBalance := target.Balance + input.OutputAmount
		if err := tx.SetBalance(ctx, source.ID, sourceBalance); err != nil {
			return err
		}
		if err := tx.SetBalance(ctx, target.ID, targetBalance); err != nil {
			return err
		}

		usd := input.USDValue
		if usd <= 0 {
			usd = s.prices.Estimate(source.TokenSymbol, input.InputAmount)
		}

		txn, err := tx.AppendTransaction(ctx, ledger.Transaction{
			UserID:     input.UserID,
			FromMint:   source.TokenMint,
			FromSymbol: source.TokenSymbol,
			FromAmount: input.InputAmount,
			ToMint:     target.TokenMint,
			ToSymbol:   target.TokenSymbol,
			ToAmount:   input.OutputAmount,
			Rate:       ledger.Rate(input.InputAmount, input.OutputAmount),
			Fee:        FeePercent,
			Slippage:   input.Slippage,
			USDValue:   usd,
			Status:     ledger.StatusCompleted,
		})
		if err != nil {
			return err
		}

		result = Result{
			Transaction: txn,
			Balances: map[string]float64{
				source.TokenSymbol: sourceBalance,
				target.TokenSymbol: targetBalance,
			},
			BalancesByMint: map[string]float64{
				source.TokenMint: sourceBalance,
				target.TokenMint: targetBalance,
			},
		}
		return nil
	})
	if err != nil {
		return Result{}, err
	}
	return result, nil
}

func validate(input Input) error {
	switch {
	case input.UserID == "":
		return fmt.Errorf("%w: user is required", apperr.ErrInvalidRequest)
	case input.InputMint == "" || input.OutputMint == "":
		return fmt.Errorf("%w: input and output mints are required", apperr.ErrInvalidRequest)
	case input.InputMint == input.OutputMint:
		return fmt.Errorf("%w: input and output mints must differ", apperr.ErrInvalidRequest)
	case !(input.InputAmount > 0) || math.IsInf(input.InputAmount, 0):
		return fmt.Errorf("%w: input amount must be positive", apperr.ErrInvalidRequest)
	case !(input.OutputAmount >= 0) || math.IsInf(input.OutputAmount, 0):
		return fmt.Errorf("%w: output amount must not be negative", apperr.ErrInvalidRequest)
	case input.USDValue < 0 || math.IsNaN(input.USDValue):
		return fmt.Errorf("%w: usd value must not be negative", apperr.ErrInvalidRequest)
	case input.Slippage < 0 || math.IsNaN(input.Slippage):
		return fmt.Errorf("%w: slippage must not be negative", apperr.ErrInvalidRequest)
	}
	return nil
}

// History returns the newest transactions of userID.
func (s *Service) History(ctx context.Context, userID string) ([]ledger.Transaction, error) {
	return s.store.Transactions(ctx, ledger.TransactionFilter{UserID: userID, Limit: HistoryLimit})
}
