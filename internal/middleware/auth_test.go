package middleware

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"

	"github.com/aggregator-demo/aggregator/internal/identity"
)

type fakeParser map[string]identity.Session

func (f fakeParser) Parse(token string) (identity.Session, error) {
	s, ok := f[token]
	if !ok {
		return identity.Session{}, errors.New("bad token")
	}
	return s, nil
}

func setupGuardedApp() *fiber.App {
	parser := fakeParser{
		"user-token":  {UserID: "u1", Email: "user@example.com"},
		"admin-token": {UserID: "a1", Email: "admin@aggregator.local", Admin: true},
	}
	app := fiber.New()
	app.Get("/me", JWTAuth(parser), func(c *fiber.Ctx) error {
		s, _ := identity.SessionFrom(c.UserContext())
		return c.SendString(s.UserID)
	})
	app.Get("/admin", JWTAuth(parser), RequireAdmin("admin@aggregator.local"), func(c *fiber.Ctx) error {
		return c.SendString("ok")
	})
	return app
}

func get(t *testing.T, app *fiber.App, path, token string) (int, string) {
	t.Helper()
	req := httptest.NewRequest(fiber.MethodGet, path, nil)
	if token != "" {
		req.Header.Set(fiber.HeaderAuthorization, "Bearer "+token)
	}
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return resp.StatusCode, string(body)
}

func TestJWTAuthResolvesSession(t *testing.T) {
	app := setupGuardedApp()

	if status, _ := get(t, app, "/me", ""); status != fiber.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", status)
	}
	if status, _ := get(t, app, "/me", "forged"); status != fiber.StatusUnauthorized {
		t.Fatalf("expected 401 for invalid token, got %d", status)
	}
	status, body := get(t, app, "/me", "user-token")
	if status != fiber.StatusOK || body != "u1" {
		t.Fatalf("expected session for u1, got %d %q", status, body)
	}
}

func TestRequireAdmin(t *testing.T) {
	app := setupGuardedApp()

	status, body := get(t, app, "/admin", "user-token")
	if status != fiber.StatusForbidden {
		t.Fatalf("expected 403 for regular user, got %d", status)
	}
	var decoded map[string]string
	if err := json.Unmarshal([]byte(body), &decoded); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if decoded["error"] != "Admin access required" || decoded["hint"] != "Login as admin@aggregator.local" {
		t.Fatalf("unexpected guard body %v", decoded)
	}

	if status, _ := get(t, app, "/admin", "admin-token"); status != fiber.StatusOK {
		t.Fatalf("expected 200 for admin, got %d", status)
	}
}

func TestLoginRateLimit(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("start miniredis: %v", err)
	}
	defer mr.Close()
	cache := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer cache.Close()

	app := fiber.New()
	app.Post("/login", LoginRateLimit(cache, 2), func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	})

	login := func(email string) *http.Response {
		req := httptest.NewRequest(fiber.MethodPost, "/login", strings.NewReader(`{"email":"`+email+`"}`))
		req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
		resp, err := app.Test(req)
		if err != nil {
			t.Fatalf("app.Test: %v", err)
		}
		resp.Body.Close()
		return resp
	}

	if resp := login("a@b.c"); resp.Header.Get("X-RateLimit-Remaining") != "1" {
		t.Fatalf("expected 1 attempt remaining, got %q", resp.Header.Get("X-RateLimit-Remaining"))
	}
	login("A@b.c")
	resp := login("a@b.c")
	if resp.StatusCode != fiber.StatusTooManyRequests {
		t.Fatalf("expected 429 after limit, got %d", resp.StatusCode)
	}
	if resp.Header.Get(fiber.HeaderRetryAfter) == "" {
		t.Fatalf("expected Retry-After header")
	}
	if ttl := mr.TTL(loginRateKeyPrefix + "a@b.c"); ttl <= 0 || ttl > time.Minute {
		t.Fatalf("expected window ttl within a minute, got %v", ttl)
	}
	if resp := login("other@b.c"); resp.StatusCode != fiber.StatusOK {
		t.Fatalf("expected other email unaffected, got %d", resp.StatusCode)
	}

	mr.FastForward(time.Minute)
	if resp := login("a@b.c"); resp.StatusCode != fiber.StatusOK {
		t.Fatalf("expected window reset, got %d", resp.StatusCode)
	}
}

func TestLoginRateLimitWithoutRedis(t *testing.T) {
	app := fiber.New()
	app.Post("/login", LoginRateLimit(nil, 1), func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	})
	for i := 0; i < 3; i++ {
		resp, err := app.Test(httptest.NewRequest(fiber.MethodPost, "/login", nil))
		if err != nil {
			t.Fatalf("app.Test: %v", err)
		}
		if resp.StatusCode != fiber.StatusOK {
			t.Fatalf("expected pass-through without redis, got %d", resp.StatusCode)
		}
	}
}
