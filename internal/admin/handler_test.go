package admin

import (
	"encoding/json"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
)

func TestHandlerLimitQuery(t *testing.T) {
	f := newFixture(t)
	f.user(t, "alice@example.com")

	h := NewHandler(f.svc)
	app := fiber.New()
	app.Get("/profiles", h.Profiles)
	app.Get("/transactions", h.Transactions)

	cases := []struct {
		path  string
		limit float64
	}{
		{"/profiles", DefaultProfileLimit},
		{"/profiles?limit=0", MinProfileLimit},
		{"/profiles?limit=abc", DefaultProfileLimit},
		{"/profiles?limit=500", MaxProfileLimit},
		{"/transactions", DefaultTransactionLimit},
		{"/transactions?limit=0", MinTransactionLimit},
	}
	for _, tc := range cases {
		resp, err := app.Test(httptest.NewRequest(fiber.MethodGet, tc.path, nil))
		if err != nil {
			t.Fatalf("%s: %v", tc.path, err)
		}
		var body map[string]any
		if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
			t.Fatalf("%s: decode: %v", tc.path, err)
		}
		resp.Body.Close()
		if body["limit"] != tc.limit {
			t.Fatalf("%s: expected limit %v, got %v", tc.path, tc.limit, body["limit"])
		}
	}
}
