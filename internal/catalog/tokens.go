package catalog

import "strings"

// Mints of the tokens shipped with the catalog.
const (
	MintSOL  = "So11111111111111111111111111111111111111112"
	MintUSDC = "EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v"
	MintUSDT = "Es9vMFrzaCERmJfrF4H2FYD4KCoNkY11McCe8BenwNYB"
	MintBONK = "DezXAZ8z7PnrnRJjz3wXBoRgixCa6xjnB7YaB1pPB263"
	MintJUP  = "JUPyiwrYJFskUPiHa7hkeR8VUtAeFoSYbKedZNsDvCN"
)

// DepositMint and DepositSymbol describe the pseudo token recorded as the source
// side of a deposit.
const (
	DepositMint   = "cash"
	DepositSymbol = "DEPOSIT"
)

// Token is an immutable token descriptor.
type Token struct {
	Mint     string `json:"mint"`
	Symbol   string `json:"symbol"`
	Name     string `json:"name"`
	Decimals int    `json:"decimals"`
	Icon     string `json:"icon"`
}

// Catalog is the static list of supported tokens.
type Catalog struct {
	tokens []Token
	byMint map[string]Token
}

// New builds a catalog from the provided descriptors. Later duplicates of a mint are ignored.
func New(tokens []Token) *Catalog {
	c := &Catalog{byMint: make(map[string]Token, len(tokens))}
	for _, t := range tokens {
		if _, exists := c.byMint[t.Mint]; exists {
			continue
		}
		c.tokens = append(c.tokens, t)
		c.byMint[t.Mint] = t
	}
	return c
}

// Default returns the catalog of common Solana tokens.
func Default() *Catalog {
	return New([]Token{
		{
			Mint:     MintSOL,
			Symbol:   "SOL",
			Name:     "Solana",
			Decimals: 9,
			Icon:     "https://raw.githubusercontent.com/solana-labs/token-list/main/assets/mainnet/So11111111111111111111111111111111111111112/logo.png",
		},
		{
			Mint:     MintUSDC,
			Symbol:   "USDC",
			Name:     "USD Coin",
			Decimals: 6,
			Icon:     "https://raw.githubusercontent.com/solana-labs/token-list/main/assets/mainnet/EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v/logo.png",
		},
		{
			Mint:     MintUSDT,
			Symbol:   "USDT",
			Name:     "Tether USD",
			Decimals: 6,
			Icon:     "https://assets.coingecko.com/coins/images/325/small/Tether.png",
		},
		{
			Mint:     MintBONK,
			Symbol:   "BONK",
			Name:     "Bonk",
			Decimals: 5,
			Icon:     "https://arweave.net/hQiPZOsRZXGXBJd_82PhVdlM_hACsT_q6wqwf5cSY7I",
		},
		{
			Mint:     MintJUP,
			Symbol:   "JUP",
			Name:     "Jupiter",
			Decimals: 6,
			Icon:     "https://static.jup.ag/jup/icon.png",
		},
	})
}

// Tokens returns a copy of the catalog entries in declaration order.
func (c *Catalog) Tokens() []Token {
	out := make([]Token, len(c.tokens))
	copy(out, c.tokens)
	return out
}

// Lookup finds a token by mint.
func (c *Catalog) Lookup(mint string) (Token, bool) {
	t, ok := c.byMint[mint]
	return t, ok
}

// BySymbol finds a token by symbol, ignoring case.
func (c *Catalog) BySymbol(symbol string) (Token, bool) {
	for _, t := range c.tokens {
		if strings.EqualFold(t.Symbol, symbol) {
			return t, true
		}
	}
	return Token{}, false
}

// IsStable reports whether the symbol is a USD-pegged token.
func IsStable(symbol string) bool {
	switch strings.ToUpper(symbol) {
	case "USDC", "USDT":
		return true
	default:
		return false
	}
}
