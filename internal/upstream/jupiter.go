package upstream

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/aggregator-demo/aggregator/internal/catalog"
)

const (
	searchTimeout      = 10 * time.Second
	shieldTimeout      = 10 * time.Second
	orderTimeout       = 15 * time.Second
	executeTimeout     = 30 * time.Second
	holdingsTimeout    = 15 * time.Second
	tokenLookupTimeout = 5 * time.Second

	searchCachePrefix = "tokensearch:v1:"
)

// Search relays the Jupiter token search.
func (c *Client) Search(ctx context.Context, query string) (Response, error) {
	return c.do(ctx, call{
		endpoint: "search",
		breaker:  c.jupiter,
		method:   http.MethodGet,
		url:      c.jupiterURL + "/ultra/v1/search",
		query:    url.Values{"query": {query}},
		timeout:  searchTimeout,
	})
}

// Shield relays token warnings for a comma separated list of mints.
func (c *Client) Shield(ctx context.Context, mints string) (Response, error) {
	return c.do(ctx, call{
		endpoint: "shield",
		breaker:  c.jupiter,
		method:   http.MethodGet,
		url:      c.jupiterURL + "/ultra/v1/shield",
		query:    url.Values{"mints": {mints}},
		timeout:  shieldTimeout,
	})
}

// OrderParams are the inputs of a quote request. Taker is optional.
type OrderParams struct {
	InputMint  string
	OutputMint string
	Amount     string
	Taker      string
}

// Order relays a swap quote.
func (c *Client) Order(ctx context.Context, p OrderParams) (Response, error) {
	q := url.Values{
		"inputMint":  {p.InputMint},
		"outputMint": {p.OutputMint},
		"amount":     {p.Amount},
	}
	if p.Taker != "" {
		q.Set("taker", p.Taker)
	}
	return c.do(ctx, call{
		endpoint: "order",
		breaker:  c.jupiter,
		method:   http.MethodGet,
		url:      c.jupiterURL + "/ultra/v1/order",
		query:    q,
		timeout:  orderTimeout,
	})
}

// ExecuteRequest submits a signed transaction for a previously quoted order.
type ExecuteRequest struct {
	SignedTransaction string `json:"signedTransaction" validate:"required"`
	RequestID         string `json:"requestId" validate:"required"`
}

// Execute relays a signed order to Jupiter.
func (c *Client) Execute(ctx context.Context, req ExecuteRequest) (Response, error) {
	return c.do(ctx, call{
		endpoint: "execute",
		breaker:  c.jupiter,
		method:   http.MethodPost,
		url:      c.jupiterURL + "/ultra/v1/execute",
		body:     req,
		timeout:  executeTimeout,
	})
}

// Holdings relays the on-chain balances of a wallet address.
func (c *Client) Holdings(ctx context.Context, address string) (Response, error) {
	return c.do(ctx, call{
		endpoint: "holdings",
		breaker:  c.jupiter,
		method:   http.MethodGet,
		url:      c.jupiterURL + "/ultra/v1/holdings/" + url.PathEscape(address),
		timeout:  holdingsTimeout,
	})
}

type searchResult struct {
	ID       string `json:"id"`
	Symbol   string `json:"symbol"`
	Name     string `json:"name"`
	Icon     string `json:"icon"`
	Decimals *int   `json:"decimals"`
}

func (r searchResult) token() catalog.Token {
	t := catalog.Token{Mint: r.ID, Symbol: r.Symbol, Name: r.Name, Icon: r.Icon, Decimals: 9}
	if t.Symbol == "" {
		t.Symbol = "UNKNOWN"
	}
	if t.Name == "" {
		t.Name = "Unknown Token"
	}
	if r.Decimals != nil {
		t.Decimals = *r.Decimals
	}
	return t
}

// SearchTokens resolves token descriptors for query. Results are cached in
// Redis when a cache is configured and concurrent lookups for the same query
// share one upstream call.
func (c *Client) SearchTokens(ctx context.Context, query string) ([]catalog.Token, error) {
	key := searchCachePrefix + query
	if c.cache != nil {
		raw, err := c.cache.Get(ctx, key).Bytes()
		if err == nil {
			var cached []catalog.Token
			if json.Unmarshal(raw, &cached) == nil {
				return cached, nil
			}
		} else if !errors.Is(err, redis.Nil) {
			c.logger.WarnContext(ctx, "token search cache read failed", slog.Any("error", err))
		}
	}

	v, err, _ := c.search.Do(key, func() (interface{}, error) {
		lookupCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), tokenLookupTimeout)
		defer cancel()
		return c.lookupTokens(lookupCtx, query)
	})
	if err != nil {
		return nil, err
	}
	tokens := v.([]catalog.Token)

	if c.cache != nil && len(tokens) > 0 {
		if raw, err := json.Marshal(tokens); err == nil {
			if err := c.cache.Set(ctx, key, raw, c.cacheTTL).Err(); err != nil {
				c.logger.WarnContext(ctx, "token search cache write failed", slog.Any("error", err))
			}
		}
	}
	return tokens, nil
}

func (c *Client) lookupTokens(ctx context.Context, query string) ([]catalog.Token, error) {
	resp, err := c.do(ctx, call{
		endpoint: "token_lookup",
		breaker:  c.jupiter,
		method:   http.MethodGet,
		url:      c.jupiterURL + "/ultra/v1/search",
		query:    url.Values{"query": {query}},
		timeout:  tokenLookupTimeout,
	})
	if err != nil {
		return nil, err
	}
	if resp.Status != http.StatusOK {
		return nil, fmt.Errorf("%w: token search returned %d", ErrUnavailable, resp.Status)
	}
	var results []searchResult
	if err := json.Unmarshal(resp.Body, &results); err != nil {
		return nil, fmt.Errorf("%w: token search: %v", ErrMalformed, err)
	}
	tokens := make([]catalog.Token, 0, len(results))
	for _, r := range results {
		tokens = append(tokens, r.token())
	}
	return tokens, nil
}
