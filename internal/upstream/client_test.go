package upstream

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, *int32) {
	t.Helper()
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		handler(w, r)
	}))
	t.Cleanup(srv.Close)
	return New(Config{JupiterURL: srv.URL, CoinGeckoURL: srv.URL}), &hits
}

func TestSearchRelaysUpstreamBody(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/ultra/v1/search" || r.URL.Query().Get("query") != "bonk" {
			t.Errorf("unexpected request %s", r.URL)
		}
		w.Write([]byte(`[{"id":"mint","symbol":"BONK"}]`))
	})

	resp, err := client.Search(context.Background(), "bonk")
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if resp.Status != http.StatusOK || string(resp.Body) != `[{"id":"mint","symbol":"BONK"}]` {
		t.Fatalf("unexpected response %d %s", resp.Status, resp.Body)
	}
}

func TestOrderPassesOptionalTaker(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("inputMint") != "a" || q.Get("outputMint") != "b" || q.Get("amount") != "100" || q.Get("taker") != "me" {
			t.Errorf("unexpected query %s", r.URL.RawQuery)
		}
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error":"bad amount"}`))
	})

	resp, err := client.Order(context.Background(), OrderParams{InputMint: "a", OutputMint: "b", Amount: "100", Taker: "me"})
	if err != nil {
		t.Fatalf("order: %v", err)
	}
	if resp.Status != http.StatusBadRequest {
		t.Fatalf("expected upstream 400 to be relayed, got %d", resp.Status)
	}
}

func TestExecutePostsJSON(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		var body ExecuteRequest
		if r.Method != http.MethodPost || json.NewDecoder(r.Body).Decode(&body) != nil || body.RequestID != "req-1" {
			t.Errorf("unexpected execute request")
		}
		w.Write([]byte(`{"status":"Success"}`))
	})
	if _, err := client.Execute(context.Background(), ExecuteRequest{SignedTransaction: "tx", RequestID: "req-1"}); err != nil {
		t.Fatalf("execute: %v", err)
	}
}

func TestServerErrorsTripBreaker(t *testing.T) {
	client, hits := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})

	for i := 0; i < tripAfterFailures; i++ {
		if _, err := client.Shield(context.Background(), "m"); !errors.Is(err, ErrUnavailable) {
			t.Fatalf("expected unavailable, got %v", err)
		}
	}
	if _, err := client.Shield(context.Background(), "m"); !errors.Is(err, ErrUnavailable) {
		t.Fatalf("expected open breaker to report unavailable, got %v", err)
	}
	if got := atomic.LoadInt32(hits); got != tripAfterFailures {
		t.Fatalf("expected %d upstream hits, got %d", tripAfterFailures, got)
	}
}

func TestMalformedResponse(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html>`))
	})
	if _, err := client.Holdings(context.Background(), "addr"); !errors.Is(err, ErrMalformed) {
		t.Fatalf("expected malformed, got %v", err)
	}
}

func TestSearchTokensAppliesDefaultsAndCaches(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })

	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.Write([]byte(`[{"id":"WifMint"},{"id":"Other","symbol":"OTH","name":"Other","decimals":6}]`))
	}))
	t.Cleanup(srv.Close)
	client := New(Config{JupiterURL: srv.URL, Cache: rdb})

	tokens, err := client.SearchTokens(context.Background(), "WifMint")
	if err != nil {
		t.Fatalf("search tokens: %v", err)
	}
	if len(tokens) != 2 {
		t.Fatalf("expected 2 tokens, got %d", len(tokens))
	}
	first := tokens[0]
	if first.Mint != "WifMint" || first.Symbol != "UNKNOWN" || first.Name != "Unknown Token" || first.Decimals != 9 {
		t.Fatalf("expected defaults applied, got %+v", first)
	}
	if tokens[1].Decimals != 6 {
		t.Fatalf("expected upstream decimals kept, got %d", tokens[1].Decimals)
	}

	if _, err := client.SearchTokens(context.Background(), "WifMint"); err != nil {
		t.Fatalf("cached search: %v", err)
	}
	if got := atomic.LoadInt32(&hits); got != 1 {
		t.Fatalf("expected cached second lookup, got %d upstream hits", got)
	}
	if !mr.Exists(searchCachePrefix + "WifMint") {
		t.Fatalf("expected cache entry")
	}
}

func TestSearchTokensWithoutCache(t *testing.T) {
	client, hits := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[]`))
	})
	for i := 0; i < 2; i++ {
		tokens, err := client.SearchTokens(context.Background(), "nothing")
		if err != nil || len(tokens) != 0 {
			t.Fatalf("expected empty result, got %v err=%v", tokens, err)
		}
	}
	if got := atomic.LoadInt32(hits); got != 2 {
		t.Fatalf("expected uncached lookups, got %d", got)
	}
}

func TestPriceHistory(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/coins/jupiter-exchange-solana/market_chart" || r.URL.Query().Get("days") != "7" || r.URL.Query().Get("vs_currency") != "usd" {
			t.Errorf("unexpected request %s", r.URL)
		}
		w.Write([]byte(`{"prices":[[1700000000000,0.85]],"market_caps":[]}`))
	})

	history, err := client.PriceHistory(context.Background(), "jup", "7")
	if err != nil {
		t.Fatalf("price history: %v", err)
	}
	if history.Token != "JUP" || history.Days != "7" || string(history.Prices) != `[[1700000000000,0.85]]` {
		t.Fatalf("unexpected history %+v", history)
	}
}

func TestPriceHistoryMissingPrices(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{}`))
	})
	history, err := client.PriceHistory(context.Background(), "SOL", "")
	if err != nil {
		t.Fatalf("price history: %v", err)
	}
	if string(history.Prices) != "[]" || history.Days != DefaultPriceDays {
		t.Fatalf("unexpected history %+v", history)
	}
}

func TestCoinID(t *testing.T) {
	if CoinID("usdc") != "usd-coin" {
		t.Fatalf("expected usd-coin")
	}
	if CoinID("WIF") != "solana" {
		t.Fatalf("expected fallback to solana")
	}
}
