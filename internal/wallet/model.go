package wallet

import (
	"context"

	"github.com/aggregator-demo/aggregator/internal/catalog"
	"github.com/aggregator-demo/aggregator/internal/ledger"
)

// TokenSearcher resolves token descriptors that are not in the static catalog.
type TokenSearcher interface {
	SearchTokens(ctx context.Context, query string) ([]catalog.Token, error)
}

// Balance is a single token holding presented to the wallet owner.
type Balance struct {
	TokenMint string  `json:"tokenMint"`
	Symbol    string  `json:"symbol"`
	Name      string  `json:"name"`
	Icon      string  `json:"icon"`
	Decimals  int     `json:"decimals"`
	Balance   float64 `json:"balance"`
}

func toBalance(w ledger.Wallet) Balance {
	return Balance{
		TokenMint: w.TokenMint,
		Symbol:    w.TokenSymbol,
		Name:      w.TokenName,
		Icon:      w.TokenIcon,
		Decimals:  w.TokenDecimals,
		Balance:   w.Balance,
	}
}

// Token returns the descriptor stored on a wallet.
func Token(w ledger.Wallet) catalog.Token {
	return catalog.Token{
		Mint:     w.TokenMint,
		Symbol:   w.TokenSymbol,
		Name:     w.TokenName,
		Decimals: w.TokenDecimals,
		Icon:     w.TokenIcon,
	}
}

// Starter balances granted to regular accounts.
var starterBalances = map[string]float64{
	"SOL":  1.5,
	"USDC": 120,
	"USDT": 80,
	"BONK": 20000,
	"JUP":  25,
}

const (
	defaultStarterBalance = 10.0
	adminStableBalance    = 10000.0
	adminStableSymbol     = "USDC"
)

// StarterBalance returns the top-up target of symbol for a regular account.
func StarterBalance(symbol string) float64 {
	if v, ok := starterBalances[symbol]; ok {
		return v
	}
	return defaultStarterBalance
}

// AdminBalance returns the fixed balance of symbol for an admin account.
func AdminBalance(symbol string) float64 {
	if symbol == adminStableSymbol {
		return adminStableBalance
	}
	return 0
}
