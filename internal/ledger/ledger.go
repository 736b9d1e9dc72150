package ledger

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrWalletNotFound occurs when no wallet exists for a (user, mint) pair.
	ErrWalletNotFound = errors.New("wallet not found")

	// ErrWalletExists indicates a concurrent writer already created the wallet.
	ErrWalletExists = errors.New("wallet already exists")
)

// Status is the settlement state of a recorded transaction.
type Status string

const (
	StatusPending   Status = "pending"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

// Wallet is the balance a user holds in a single token.
type Wallet struct {
	ID            string
	UserID        string
	TokenMint     string
	TokenSymbol   string
	TokenName     string
	TokenIcon     string
	TokenDecimals int
	Balance       float64
	CreatedAt     time.Time
}

// Transaction is an immutable swap or deposit record.
type Transaction struct {
	ID         string
	UserID     string
	FromMint   string
	FromSymbol string
	FromAmount float64
	ToMint     string
	ToSymbol   string
	ToAmount   float64
	Rate       float64
	Fee        float64
	Slippage   float64
	USDValue   float64
	Status     Status
	CreatedAt  time.Time
}

// Rate returns to/from, or 0 when from is 0.
func Rate(from, to float64) float64 {
	if from == 0 {
		return 0
	}
	return to / from
}

// TransactionFilter narrows transaction listings. Zero values mean no restriction.
type TransactionFilter struct {
	UserID string
	Since  time.Time
	Limit  int
}

// Tx is the unit of work handed to Store.WithinTx. Every mutation made through
// it commits or rolls back together.
type Tx interface {
	// FindWallet locks and returns the wallet for (userID, mint).
	FindWallet(ctx context.Context, userID, mint string) (Wallet, error)
	// CreateWallet inserts a wallet, returning ErrWalletExists on a uniqueness conflict.
	CreateWallet(ctx context.Context, wallet Wallet) (Wallet, error)
	// SetBalance overwrites the balance of a wallet previously returned by this Tx.
	SetBalance(ctx context.Context, walletID string, balance float64) error
	// AppendTransaction records a transaction. A zero CreatedAt is stamped with now.
	AppendTransaction(ctx context.Context, txn Transaction) (Transaction, error)
}

// Store defines the contract implemented by ledger backends (e.g. Postgres).
type Store interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error
	Wallet(ctx context.Context, userID, mint string) (Wallet, error)
	Wallets(ctx context.Context, userID string) ([]Wallet, error)
	// Transactions lists matching transactions newest first.
	Transactions(ctx context.Context, filter TransactionFilter) ([]Transaction, error)
}
