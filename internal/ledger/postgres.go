package ledger

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore persists wallets and transactions in PostgreSQL.
type PostgresStore struct {
	db *pgxpool.Pool
}

// NewPostgresStore constructs a Postgres-backed ledger store.
func NewPostgresStore(db *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{db: db}
}

// WithinTx runs fn inside a single database transaction and commits when fn returns nil.
func (s *PostgresStore) WithinTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error {
	tx, err := s.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx) // nolint:errcheck

	if err := fn(ctx, &pgTx{tx: tx}); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

const walletColumns = `id, user_id, token_mint, token_symbol, token_name, token_icon, token_decimals, balance, created_at`

// Wallet returns the wallet for (userID, mint) without locking it.
func (s *PostgresStore) Wallet(ctx context.Context, userID, mint string) (Wallet, error) {
	uid, err := uuid.Parse(userID)
	if err != nil {
		return Wallet{}, ErrWalletNotFound
	}
	row := s.db.QueryRow(ctx, `SELECT `+walletColumns+` FROM wallets WHERE user_id = $1 AND token_mint = $2`, uid, mint)
	return scanWallet(row)
}

// Wallets lists every wallet owned by the user.
func (s *PostgresStore) Wallets(ctx context.Context, userID string) ([]Wallet, error) {
	uid, err := uuid.Parse(userID)
	if err != nil {
		return nil, nil
	}
	rows, err := s.db.Query(ctx, `SELECT `+walletColumns+` FROM wallets WHERE user_id = $1 ORDER BY created_at, token_symbol`, uid)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Wallet
	for rows.Next() {
		w, err := scanWallet(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, w)
	}
	return out, rows.Err()
}

const transactionColumns = `id, user_id, from_token_mint, from_token_symbol, from_amount,
        to_token_mint, to_token_symbol, to_amount, rate, fee, slippage, usd_value, status, created_at`

// Transactions lists transactions newest first.
func (s *PostgresStore) Transactions(ctx context.Context, filter TransactionFilter) ([]Transaction, error) {
	var (
		where []string
		args  []any
	)
	if filter.UserID != "" {
		uid, err := uuid.Parse(filter.UserID)
		if err != nil {
			return nil, nil
		}
		args = append(args, uid)
		where = append(where, fmt.Sprintf("user_id = $%d", len(args)))
	}
	if !filter.Since.IsZero() {
		args = append(args, filter.Since.UTC())
		where = append(where, fmt.Sprintf("created_at >= $%d", len(args)))
	}

	query := `SELECT ` + transactionColumns + ` FROM transactions`
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, " AND ")
	}
	query += ` ORDER BY created_at DESC`
	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}

	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

type pgTx struct {
	tx pgx.Tx
}

func (t *pgTx) FindWallet(ctx context.Context, userID, mint string) (Wallet, error) {
	uid, err := uuid.Parse(userID)
	if err != nil {
		return Wallet{}, ErrWalletNotFound
	}
	row := t.tx.QueryRow(ctx, `SELECT `+walletColumns+` FROM wallets
        WHERE user_id = $1 AND token_mint = $2 FOR UPDATE`, uid, mint)
	return scanWallet(row)
}

func (t *pgTx) CreateWallet(ctx context.Context, w Wallet) (Wallet, error) {
	uid, err := uuid.Parse(w.UserID)
	if err != nil {
		return Wallet{}, fmt.Errorf("invalid user id %q: %w", w.UserID, err)
	}
	id := uuid.New()
	if w.CreatedAt.IsZero() {
		w.CreatedAt = time.Now().UTC()
	}
	// The (user_id, token_mint) unique constraint turns a lost creation race into ErrWalletExists.
	row := t.tx.QueryRow(ctx, `INSERT INTO wallets (`+walletColumns+`)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
        ON CONFLICT (user_id, token_mint) DO NOTHING
        RETURNING id`, id, uid, w.TokenMint, w.TokenSymbol, w.TokenName, w.TokenIcon, w.TokenDecimals, w.Balance, w.CreatedAt.UTC())
	var inserted uuid.UUID
	if err := row.Scan(&inserted); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Wallet{}, ErrWalletExists
		}
		return Wallet{}, err
	}
	w.ID = inserted.String()
	w.CreatedAt = w.CreatedAt.UTC()
	return w, nil
}

func (t *pgTx) SetBalance(ctx context.Context, walletID string, balance float64) error {
	id, err := uuid.Parse(walletID)
	if err != nil {
		return ErrWalletNotFound
	}
	cmd, err := t.tx.Exec(ctx, `UPDATE wallets SET balance = $1 WHERE id = $2`, balance, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrWalletNotFound
	}
	return nil
}

func (t *pgTx) AppendTransaction(ctx context.Context, txn Transaction) (Transaction, error) {
	uid, err := uuid.Parse(txn.UserID)
	if err != nil {
		return Transaction{}, fmt.Errorf("invalid user id %q: %w", txn.UserID, err)
	}
	id := uuid.New()
	if txn.CreatedAt.IsZero() {
		txn.CreatedAt = time.Now().UTC()
	}
	if txn.Status == "" {
		txn.Status = StatusCompleted
	}
	if _, err := t.tx.Exec(ctx, `INSERT INTO transactions (`+transactionColumns+`)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`,
		id, uid, txn.FromMint, txn.FromSymbol, txn.FromAmount,
		txn.ToMint, txn.ToSymbol, txn.ToAmount, txn.Rate, txn.Fee, txn.Slippage, txn.USDValue,
		string(txn.Status), txn.CreatedAt.UTC()); err != nil {
		return Transaction{}, err
	}
	txn.ID = id.String()
	txn.CreatedAt = txn.CreatedAt.UTC()
	return txn, nil
}

func scanWallet(row pgx.Row) (Wallet, error) {
	var (
		w         Wallet
		id        uuid.UUID
		userID    uuid.UUID
		createdAt time.Time
	)
	if err := row.Scan(&id, &userID, &w.TokenMint, &w.TokenSymbol, &w.TokenName, &w.TokenIcon, &w.TokenDecimals, &w.Balance, &createdAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Wallet{}, ErrWalletNotFound
		}
		return Wallet{}, err
	}
	w.ID = id.String()
	w.UserID = userID.String()
	w.CreatedAt = createdAt.UTC()
	return w, nil
}

func scanTransaction(row pgx.Row) (Transaction, error) {
	var (
		t         Transaction
		id        uuid.UUID
		userID    uuid.UUID
		status    string
		createdAt time.Time
	)
	if err := row.Scan(&id, &userID, &t.FromMint, &t.FromSymbol, &t.FromAmount,
		&t.ToMint, &t.ToSymbol, &t.ToAmount, &t.Rate, &t.Fee, &t.Slippage, &t.USDValue, &status, &createdAt); err != nil {
		return Transaction{}, err
	}
	t.ID = id.String()
	t.UserID = userID.String()
	t.Status = Status(status)
	t.CreatedAt = createdAt.UTC()
	return t, nil
}
