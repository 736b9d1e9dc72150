package routes

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"golang.org/x/crypto/bcrypt"

	"github.com/aggregator-demo/aggregator/internal/catalog"
	"github.com/aggregator-demo/aggregator/internal/config"
	"github.com/aggregator-demo/aggregator/internal/identity"
	"github.com/aggregator-demo/aggregator/internal/logging"
	"github.com/aggregator-demo/aggregator/internal/metrics"
	"github.com/aggregator-demo/aggregator/internal/middleware"
)

const primaryAdmin = "admin@aggregator.local"

func newTestApp(t *testing.T) (*fiber.App, *Services) {
	t.Helper()
	jupiter := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[{"id":"WifMint111","symbol":"WIF","name":"dogwifhat","decimals":6}]`))
	}))
	t.Cleanup(jupiter.Close)

	logger := logging.Discard()
	deps := Deps{
		Cfg: config.Config{
			AppEnv:         "development",
			JWTSecret:      "test-secret",
			TokenTTL:       time.Hour,
			IdempotencyTTL: time.Minute,
			JupiterURL:     jupiter.URL,
			CoinGeckoURL:   jupiter.URL,
			Admins:         []identity.Account{{Email: primaryAdmin, Password: "admin"}},
			DemoProfiles:   2,
			DemoSeed:       42,
			LoginRateLimit: 5,
		},
		Logger:  logger,
		Metrics: metrics.New(),
		Hasher:  identity.BcryptHasher{Cost: bcrypt.MinCost},
	}
	services, err := Build(deps)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	app := fiber.New(fiber.Config{ErrorHandler: middleware.ErrorHandler(logger)})
	Setup(app, deps, services)
	return app, services
}

func call(t *testing.T, app *fiber.App, method, path, token, body string) (int, map[string]any) {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	if token != "" {
		req.Header.Set(fiber.HeaderAuthorization, "Bearer "+token)
	}
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	out := map[string]any{}
	_ = json.NewDecoder(resp.Body).Decode(&out)
	return resp.StatusCode, out
}

func register(t *testing.T, app *fiber.App, email string) string {
	t.Helper()
	status, body := call(t, app, http.MethodPost, "/api/auth/register", "", `{"email":"`+email+`","password":"secret1"}`)
	if status != http.StatusOK {
		t.Fatalf("register %s: %d %v", email, status, body)
	}
	return body["token"].(string)
}

func TestDepositSwapAndHistory(t *testing.T) {
	app, _ := newTestApp(t)
	token := register(t, app, "alice@example.com")

	status, body := call(t, app, http.MethodGet, "/api/wallet/balance", token, "")
	if status != http.StatusOK {
		t.Fatalf("balance: %d %v", status, body)
	}
	if n := len(body["balances"].([]any)); n != len(catalog.Default().Tokens()) {
		t.Fatalf("expected a starter wallet per catalog token, got %d", n)
	}

	status, body = call(t, app, http.MethodPost, "/api/wallet/deposit", token, `{"tokenMint":"`+catalog.MintSOL+`","amount":1}`)
	if status != http.StatusOK || body["newBalance"].(float64) != 2.5 || body["token"] != "SOL" {
		t.Fatalf("deposit: %d %v", status, body)
	}

	status, body = call(t, app, http.MethodPost, "/api/swap", token,
		`{"inputMint":"`+catalog.MintSOL+`","outputMint":"`+catalog.MintUSDC+`","inputAmount":1,"outputAmount":98}`)
	if status != http.StatusOK {
		t.Fatalf("swap: %d %v", status, body)
	}
	balances := body["newBalances"].(map[string]any)
	if balances["SOL"].(float64) != 1.5 || balances["USDC"].(float64) != 218 {
		t.Fatalf("unexpected balances %v", balances)
	}
	byMint := body["newBalancesByMint"].(map[string]any)
	if byMint[catalog.MintSOL].(float64) != 1.5 || byMint[catalog.MintUSDC].(float64) != 218 {
		t.Fatalf("unexpected per-mint balances %v", byMint)
	}
	txn := body["transaction"].(map[string]any)
	if txn["fromToken"] != "SOL" || txn["toToken"] != "USDC" || txn["slippage"].(float64) != 0.5 || txn["fee"].(float64) != 0.3 {
		t.Fatalf("unexpected transaction %v", txn)
	}

	status, body = call(t, app, http.MethodPost, "/api/swap", token,
		`{"inputMint":"`+catalog.MintSOL+`","outputMint":"`+catalog.MintUSDC+`","inputAmount":100,"outputAmount":9800}`)
	if status != http.StatusBadRequest || !strings.Contains(body["error"].(string), "insufficient balance") {
		t.Fatalf("expected insufficient balance, got %d %v", status, body)
	}

	status, body = call(t, app, http.MethodGet, "/api/transactions", token, "")
	if status != http.StatusOK || len(body["transactions"].([]any)) != 2 {
		t.Fatalf("transactions: %d %v", status, body)
	}
}

func TestSwapIntoSearchedToken(t *testing.T) {
	app, _ := newTestApp(t)
	token := register(t, app, "bob@example.com")

	status, body := call(t, app, http.MethodPost, "/api/swap", token,
		`{"inputMint":"`+catalog.MintUSDC+`","outputMint":"WifMint111","inputAmount":20,"outputAmount":10}`)
	if status != http.StatusOK {
		t.Fatalf("swap: %d %v", status, body)
	}
	if body["newBalances"].(map[string]any)["WIF"].(float64) != 10 {
		t.Fatalf("expected WIF credited, got %v", body["newBalances"])
	}
}

func TestAuthRequired(t *testing.T) {
	app, _ := newTestApp(t)
	for _, path := range []string{"/api/wallet/balance", "/api/transactions", "/api/auth/me", "/api/admin/overview"} {
		if status, _ := call(t, app, http.MethodGet, path, "", ""); status != http.StatusUnauthorized {
			t.Fatalf("expected 401 for %s, got %d", path, status)
		}
	}
}

func TestAdminAccess(t *testing.T) {
	app, services := newTestApp(t)
	userToken := register(t, app, "carol@example.com")

	status, body := call(t, app, http.MethodGet, "/api/admin/overview", userToken, "")
	if status != http.StatusForbidden || body["hint"] != "Login as "+primaryAdmin {
		t.Fatalf("expected admin guard, got %d %v", status, body)
	}

	if _, err := services.Initialize(context.Background(), true); err != nil {
		t.Fatalf("initialize: %v", err)
	}
	status, body = call(t, app, http.MethodPost, "/api/auth/login", "", `{"email":"`+primaryAdmin+`","password":"admin"}`)
	if status != http.StatusOK {
		t.Fatalf("admin login: %d %v", status, body)
	}
	adminToken := body["token"].(string)

	status, body = call(t, app, http.MethodGet, "/api/admin/overview", adminToken, "")
	if status != http.StatusOK {
		t.Fatalf("overview: %d %v", status, body)
	}
	// Carol already counts towards the demo target, so one student is added.
	if body["users"].(float64) != 2 {
		t.Fatalf("expected 2 non-admin users, got %v", body["users"])
	}

	status, body = call(t, app, http.MethodPost, "/api/admin/news", adminToken, `{"title":"Maintenance","summary":"Tonight"}`)
	if status != http.StatusOK {
		t.Fatalf("create news: %d %v", status, body)
	}
	item := body["item"].(map[string]any)
	if item["category"] != "General" || item["authorEmail"] != primaryAdmin {
		t.Fatalf("unexpected news item %v", item)
	}

	status, body = call(t, app, http.MethodDelete, "/api/admin/news/99999", adminToken, "")
	if status != http.StatusNotFound {
		t.Fatalf("expected 404 deleting unknown news, got %d %v", status, body)
	}

	status, body = call(t, app, http.MethodGet, "/api/news", "", "")
	if status != http.StatusOK || len(body["items"].([]any)) != 5 {
		t.Fatalf("expected 5 news items, got %d %v", status, body)
	}
}

func TestInitDBReportsAdmin(t *testing.T) {
	app, _ := newTestApp(t)
	status, body := call(t, app, http.MethodGet, "/api/init-db", "", "")
	if status != http.StatusOK || body["success"] != true {
		t.Fatalf("init-db: %d %v", status, body)
	}
	if body["admin"].(map[string]any)["email"] != primaryAdmin {
		t.Fatalf("unexpected admin %v", body["admin"])
	}
}

func TestProductionRequiresInfrastructure(t *testing.T) {
	if _, err := Build(Deps{Cfg: config.Config{AppEnv: "production"}, Logger: logging.Discard()}); err == nil {
		t.Fatalf("expected build to fail without database")
	}
}

func TestHealthReportsComponents(t *testing.T) {
	app, _ := newTestApp(t)

	status, body := call(t, app, http.MethodGet, "/healthz", "", "")
	if status != http.StatusOK {
		t.Fatalf("healthz: %d %v", status, body)
	}
	components := body["status"].(map[string]any)
	if components["postgres"] != "in-memory" || components["redis"] != "disabled" {
		t.Fatalf("unexpected component status %v", components)
	}
	breakers := body["upstream"].(map[string]any)
	if breakers["jupiter"] != "closed" || breakers["coingecko"] != "closed" {
		t.Fatalf("unexpected breaker states %v", breakers)
	}
}
