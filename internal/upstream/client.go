// Package upstream talks to the Jupiter Ultra and CoinGecko HTTP APIs.
package upstream

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sony/gobreaker"
	"golang.org/x/sync/singleflight"

	"github.com/aggregator-demo/aggregator/internal/logging"
	"github.com/aggregator-demo/aggregator/internal/metrics"
)

const (
	DefaultJupiterURL   = "https://lite-api.jup.ag"
	DefaultCoinGeckoURL = "https://api.coingecko.com/api/v3"

	defaultSearchCacheTTL = 5 * time.Minute
	maxResponseBytes      = 4 << 20
	tripAfterFailures     = 5
)

var (
	// ErrUnavailable wraps transport failures, 5xx answers and an open breaker.
	ErrUnavailable = errors.New("upstream unavailable")
	// ErrMalformed is returned when the upstream answer is not JSON.
	ErrMalformed = errors.New("upstream returned malformed response")
)

// Response is an upstream answer relayed to the caller unchanged.
type Response struct {
	Status int
	Body   json.RawMessage
}

// Config configures a Client. Zero values select defaults.
type Config struct {
	JupiterURL     string
	CoinGeckoURL   string
	HTTPClient     *http.Client
	Cache          redis.UniversalClient
	SearchCacheTTL time.Duration
	Metrics        *metrics.Metrics
	Logger         *slog.Logger
}

// Client issues upstream requests behind one circuit breaker per API.
type Client struct {
	jupiterURL   string
	coingeckoURL string
	http         *http.Client
	cache        redis.UniversalClient
	cacheTTL     time.Duration
	jupiter      *gobreaker.CircuitBreaker
	coingecko    *gobreaker.CircuitBreaker
	search       singleflight.Group
	metrics      *metrics.Metrics
	logger       *slog.Logger
}

// New builds a Client.
func New(cfg Config) *Client {
	c := &Client{
		jupiterURL:   strings.TrimRight(orDefault(cfg.JupiterURL, DefaultJupiterURL), "/"),
		coingeckoURL: strings.TrimRight(orDefault(cfg.CoinGeckoURL, DefaultCoinGeckoURL), "/"),
		http:         cfg.HTTPClient,
		cache:        cfg.Cache,
		cacheTTL:     cfg.SearchCacheTTL,
		metrics:      cfg.Metrics,
		logger:       cfg.Logger,
	}
	if c.http == nil {
		c.http = &http.Client{}
	}
	if c.cacheTTL <= 0 {
		c.cacheTTL = defaultSearchCacheTTL
	}
	if c.logger == nil {
		c.logger = logging.Discard()
	}
	c.jupiter = c.newBreaker("jupiter")
	c.coingecko = c.newBreaker("coingecko")
	return c
}

func (c *Client) newBreaker(name string) *gobreaker.CircuitBreaker {
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:    name,
		Timeout: 30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= tripAfterFailures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			c.logger.Warn("circuit breaker state changed",
				slog.String("breaker", name),
				slog.String("from", from.String()),
				slog.String("to", to.String()),
			)
			c.metrics.CircuitState(name, breakerState(to))
		},
	})
}

// Breakers reports the state of each upstream circuit breaker.
func (c *Client) Breakers() map[string]string {
	return map[string]string{
		c.jupiter.Name():   c.jupiter.State().String(),
		c.coingecko.Name(): c.coingecko.State().String(),
	}
}

func breakerState(s gobreaker.State) int {
	switch s {
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return 0
	}
}

type call struct {
	endpoint string
	breaker  *gobreaker.CircuitBreaker
	method   string
	url      string
	query    url.Values
	body     any
	timeout  time.Duration
}

// do executes a call through its breaker. 4xx answers are returned as a
// Response and do not count as breaker failures.
func (c *Client) do(ctx context.Context, cl call) (Response, error) {
	ctx, cancel := context.WithTimeout(ctx, cl.timeout)
	defer cancel()

	out, err := cl.breaker.Execute(func() (interface{}, error) {
		return c.roundTrip(ctx, cl)
	})
	c.metrics.UpstreamRequest(cl.endpoint, err)
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return Response{}, fmt.Errorf("%w: %s: %v", ErrUnavailable, cl.endpoint, err)
		}
		c.logger.WarnContext(ctx, "upstream request failed",
			slog.String("endpoint", cl.endpoint),
			slog.Any("error", err),
		)
		return Response{}, err
	}
	return out.(Response), nil
}

func (c *Client) roundTrip(ctx context.Context, cl call) (Response, error) {
	target := cl.url
	if len(cl.query) > 0 {
		target += "?" + cl.query.Encode()
	}

	var body io.Reader
	if cl.body != nil {
		raw, err := json.Marshal(cl.body)
		if err != nil {
			return Response{}, err
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, cl.method, target, body)
	if err != nil {
		return Response{}, err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return Response{}, fmt.Errorf("%w: %s: %v", ErrUnavailable, cl.endpoint, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return Response{}, fmt.Errorf("%w: %s: %v", ErrUnavailable, cl.endpoint, err)
	}
	if resp.StatusCode >= http.StatusInternalServerError {
		return Response{}, fmt.Errorf("%w: %s returned %d", ErrUnavailable, cl.endpoint, resp.StatusCode)
	}
	if !json.Valid(raw) {
		return Response{}, fmt.Errorf("%w: %s", ErrMalformed, cl.endpoint)
	}
	return Response{Status: resp.StatusCode, Body: raw}, nil
}

func orDefault(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}
