package upstream

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	priceTimeout     = 10 * time.Second
	DefaultPriceDays = "1"
	fallbackCoinID   = "solana"
)

var coinIDs = map[string]string{
	"SOL":  "solana",
	"USDC": "usd-coin",
	"USDT": "tether",
	"BONK": "bonk",
	"JUP":  "jupiter-exchange-solana",
}

// CoinID maps a token symbol to its CoinGecko identifier. Unknown symbols map to Solana.
func CoinID(symbol string) string {
	if id, ok := coinIDs[strings.ToUpper(symbol)]; ok {
		return id
	}
	return fallbackCoinID
}

// PriceHistory is a USD price series as [timestamp_ms, price] pairs.
type PriceHistory struct {
	Token  string          `json:"token"`
	Prices json.RawMessage `json:"prices"`
	Days   string          `json:"days"`
}

// PriceHistory fetches the market chart of symbol over the given number of days.
func (c *Client) PriceHistory(ctx context.Context, symbol, days string) (PriceHistory, error) {
	if days == "" {
		days = DefaultPriceDays
	}
	resp, err := c.do(ctx, call{
		endpoint: "price_history",
		breaker:  c.coingecko,
		method:   http.MethodGet,
		url:      c.coingeckoURL + "/coins/" + CoinID(symbol) + "/market_chart",
		query:    url.Values{"vs_currency": {"usd"}, "days": {days}},
		timeout:  priceTimeout,
	})
	if err != nil {
		return PriceHistory{}, err
	}
	if resp.Status != http.StatusOK {
		return PriceHistory{}, fmt.Errorf("%w: market chart returned %d", ErrUnavailable, resp.Status)
	}

	var chart struct {
		Prices json.RawMessage `json:"prices"`
	}
	if err := json.Unmarshal(resp.Body, &chart); err != nil {
		return PriceHistory{}, fmt.Errorf("%w: market chart: %v", ErrMalformed, err)
	}
	if len(chart.Prices) == 0 || string(chart.Prices) == "null" {
		chart.Prices = json.RawMessage("[]")
	}
	return PriceHistory{Token: strings.ToUpper(symbol), Prices: chart.Prices, Days: days}, nil
}
