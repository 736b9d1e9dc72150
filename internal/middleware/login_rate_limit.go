package middleware

import (
	"context"
	_ "embed"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
)

//go:embed lua/fixed_window.lua
var luaFixedWindow string

var fixedWindow = redis.NewScript(luaFixedWindow)

const (
	loginRateKeyPrefix = "rl:login:"
	loginWindow        = time.Minute
	defaultLoginLimit  = 5
)

// LoginRateLimit limits login attempts per email, or per IP when the body has
// no email, within a fixed one-minute window kept in Redis. Without Redis, or
// when Redis fails, requests pass through.
func LoginRateLimit(cache *redis.Client, maxPerMin int) fiber.Handler {
	if maxPerMin <= 0 {
		maxPerMin = defaultLoginLimit
	}
	return func(c *fiber.Ctx) error {
		if cache == nil {
			return c.Next()
		}
		var req struct {
			Email string `json:"email"`
		}
		_ = json.Unmarshal(c.Body(), &req)
		subject := strings.ToLower(strings.TrimSpace(req.Email))
		if subject == "" {
			subject = c.IP()
		}

		ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
		defer cancel()
		count, ttl, err := hit(ctx, cache, loginRateKeyPrefix+subject, loginWindow)
		if err != nil {
			return c.Next()
		}

		remaining := int64(maxPerMin) - count
		if remaining < 0 {
			remaining = 0
		}
		c.Set("X-RateLimit-Limit", strconv.Itoa(maxPerMin))
		c.Set("X-RateLimit-Remaining", strconv.FormatInt(remaining, 10))
		if count > int64(maxPerMin) {
			c.Set(fiber.HeaderRetryAfter, strconv.Itoa(int((ttl+time.Second-1)/time.Second)))
			return fiber.NewError(http.StatusTooManyRequests, "too many login attempts, try again later")
		}
		return c.Next()
	}
}

// hit counts one attempt against key and returns the count in the current
// window with the time left until it resets.
func hit(ctx context.Context, cache *redis.Client, key string, window time.Duration) (int64, time.Duration, error) {
	res, err := fixedWindow.Run(ctx, cache, []string{key}, window.Milliseconds()).Int64Slice()
	if err != nil {
		return 0, 0, err
	}
	if len(res) != 2 {
		return 0, 0, redis.Nil
	}
	return res[0], time.Duration(res[1]) * time.Millisecond, nil
}
