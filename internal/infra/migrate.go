package infra

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// schema is applied in order on every start. Statements must stay idempotent.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS users (
        id            UUID PRIMARY KEY,
        email         TEXT NOT NULL UNIQUE,
        password_hash TEXT NOT NULL,
        created_at    TIMESTAMPTZ NOT NULL DEFAULT now()
    )`,
	`CREATE TABLE IF NOT EXISTS wallets (
        id             UUID PRIMARY KEY,
        user_id        UUID NOT NULL REFERENCES users (id) ON DELETE CASCADE,
        token_mint     TEXT NOT NULL,
        token_symbol   TEXT NOT NULL,
        token_name     TEXT NOT NULL DEFAULT '',
        token_icon     TEXT NOT NULL DEFAULT '',
        token_decimals INTEGER NOT NULL DEFAULT 9,
        balance        DOUBLE PRECISION NOT NULL DEFAULT 0,
        created_at     TIMESTAMPTZ NOT NULL DEFAULT now(),
        CONSTRAINT wallets_user_mint_key UNIQUE (user_id, token_mint)
    )`,
	`CREATE TABLE IF NOT EXISTS transactions (
        id                UUID PRIMARY KEY,
        user_id           UUID NOT NULL REFERENCES users (id) ON DELETE CASCADE,
        from_token_mint   TEXT NOT NULL,
        from_token_symbol TEXT NOT NULL,
        from_amount       DOUBLE PRECISION NOT NULL,
        to_token_mint     TEXT NOT NULL,
        to_token_symbol   TEXT NOT NULL,
        to_amount         DOUBLE PRECISION NOT NULL,
        rate              DOUBLE PRECISION NOT NULL DEFAULT 0,
        fee               DOUBLE PRECISION NOT NULL DEFAULT 0,
        slippage          DOUBLE PRECISION NOT NULL DEFAULT 0,
        status            TEXT NOT NULL DEFAULT 'completed',
        created_at        TIMESTAMPTZ NOT NULL DEFAULT now()
    )`,
	// Databases created before USD tracking lack the column.
	`ALTER TABLE transactions ADD COLUMN IF NOT EXISTS usd_value DOUBLE PRECISION NOT NULL DEFAULT 0`,
	`CREATE INDEX IF NOT EXISTS transactions_user_created_idx ON transactions (user_id, created_at DESC)`,
	`CREATE INDEX IF NOT EXISTS transactions_created_idx ON transactions (created_at DESC)`,
	`CREATE TABLE IF NOT EXISTS news_posts (
        id           BIGSERIAL PRIMARY KEY,
        title        VARCHAR(200) NOT NULL,
        summary      VARCHAR(1000) NOT NULL,
        category     VARCHAR(50) NOT NULL DEFAULT 'General',
        author_email TEXT NOT NULL DEFAULT '',
        created_at   TIMESTAMPTZ NOT NULL DEFAULT now()
    )`,
}

// Migrator applies the schema to a PostgreSQL database.
type Migrator struct {
	db *pgxpool.Pool
}

// NewMigrator builds a migrator for pool.
func NewMigrator(pool *pgxpool.Pool) *Migrator {
	return &Migrator{db: pool}
}

// Migrate applies every schema statement inside one transaction.
func (m *Migrator) Migrate(ctx context.Context) error {
	tx, err := m.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin migration: %w", err)
	}
	defer tx.Rollback(ctx) // nolint:errcheck

	for i, stmt := range schema {
		if _, err := tx.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("migration step %d: %w", i+1, err)
		}
	}
	return tx.Commit(ctx)
}
