package middleware

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"

	"github.com/aggregator-demo/aggregator/internal/identity"
)

const (
	idempotencyKeyHeader    = "Idempotency-Key"
	idempotentReplayHeader  = "Idempotent-Replayed"
	idempotencyPrefix       = "idempotency:v2:"
	inProgressMarker        = "__in_progress__"
	idempotencyStoreTimeout = 2 * time.Second
)

type storedResponse struct {
	Fingerprint string            `json:"fingerprint"`
	Status      int               `json:"status"`
	Body        string            `json:"body"`
	Headers     map[string]string `json:"headers"`
}

type idempotencyStore struct {
	cache  *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

// Idempotency replays the stored response of a deposit or swap that repeats
// an Idempotency-Key header with the same body. Reusing a key with another
// body is rejected. Requests without the header pass through. Keys are scoped
// to the authenticated user, so it must run after JWTAuth.
func Idempotency(cache *redis.Client, ttl time.Duration, logger *slog.Logger) fiber.Handler {
	store := idempotencyStore{cache: cache, ttl: ttl, logger: logger}
	return func(c *fiber.Ctx) error {
		switch strings.ToUpper(c.Method()) {
		case fiber.MethodGet, fiber.MethodHead, fiber.MethodOptions:
			return c.Next()
		}

		key := c.Get(idempotencyKeyHeader)
		if key == "" || cache == nil {
			return c.Next()
		}

		scope := "anonymous"
		if session, ok := identity.SessionFrom(c.UserContext()); ok {
			scope = session.UserID
		}
		cacheKey := idempotencyPrefix + scope + ":" + key
		fingerprint := fingerprintOf(c)

		ctx, cancel := context.WithTimeout(c.UserContext(), idempotencyStoreTimeout)
		defer cancel()

		cached, err := cache.Get(ctx, cacheKey).Result()
		switch {
		case err == nil:
			return store.replay(c, key, cached, fingerprint)
		case !errors.Is(err, redis.Nil):
			logger.Error("idempotency lookup failed", slog.String("key", key), slog.Any("error", err))
			return fiber.NewError(fiber.StatusInternalServerError, "idempotency store failure")
		}

		reserved, err := cache.SetNX(ctx, cacheKey, inProgressMarker, ttl).Result()
		if err != nil {
			logger.Error("idempotency reservation failed", slog.String("key", key), slog.Any("error", err))
			return fiber.NewError(fiber.StatusInternalServerError, "idempotency reservation failure")
		}
		if !reserved {
			return fiber.NewError(fiber.StatusConflict, "duplicate request currently processing")
		}

		if err := c.Next(); err != nil {
			store.release(cacheKey)
			return err
		}
		if c.Response().StatusCode() >= fiber.StatusInternalServerError {
			store.release(cacheKey)
			return nil
		}
		return store.persist(c, key, cacheKey, fingerprint)
	}
}

func (s idempotencyStore) replay(c *fiber.Ctx, key, cached, fingerprint string) error {
	if cached == inProgressMarker {
		return fiber.NewError(fiber.StatusConflict, "duplicate request currently processing")
	}

	var stored storedResponse
	if err := json.Unmarshal([]byte(cached), &stored); err != nil {
		s.logger.Warn("failed to decode stored idempotent response", slog.String("key", key), slog.Any("error", err))
		return fiber.NewError(fiber.StatusConflict, "duplicate request")
	}
	if stored.Fingerprint != fingerprint {
		return fiber.NewError(fiber.StatusUnprocessableEntity, "Idempotency-Key reused with a different request")
	}

	for header, value := range stored.Headers {
		if strings.EqualFold(header, fiber.HeaderContentLength) {
			continue
		}
		c.Set(header, value)
	}
	c.Set(idempotentReplayHeader, "true")
	return c.Status(stored.Status).SendString(stored.Body)
}

func (s idempotencyStore) persist(c *fiber.Ctx, key, cacheKey, fingerprint string) error {
	stored := storedResponse{
		Fingerprint: fingerprint,
		Status:      c.Response().StatusCode(),
		Body:        string(c.Response().Body()),
		Headers:     map[string]string{},
	}
	c.Response().Header.VisitAll(func(k, v []byte) {
		stored.Headers[string(k)] = string(v)
	})

	payload, err := json.Marshal(stored)
	if err != nil {
		s.logger.Error("failed to encode idempotent response", slog.String("key", key), slog.Any("error", err))
		s.release(cacheKey)
		return fiber.NewError(fiber.StatusInternalServerError, "idempotency persistence failure")
	}

	ctx, cancel := context.WithTimeout(context.Background(), idempotencyStoreTimeout)
	defer cancel()
	if err := s.cache.Set(ctx, cacheKey, payload, s.ttl).Err(); err != nil {
		s.logger.Error("failed to persist idempotent response", slog.String("key", key), slog.Any("error", err))
		s.release(cacheKey)
		return fiber.NewError(fiber.StatusInternalServerError, "idempotency persistence failure")
	}
	return nil
}

// release drops the reservation so the client can retry with the same key.
func (s idempotencyStore) release(cacheKey string) {
	ctx, cancel := context.WithTimeout(context.Background(), idempotencyStoreTimeout)
	defer cancel()
	if err := s.cache.Del(ctx, cacheKey).Err(); err != nil {
		s.logger.Warn("failed to release idempotency key", slog.Any("error", err))
	}
}

func fingerprintOf(c *fiber.Ctx) string {
	sum := sha256.New()
	sum.Write([]byte(c.Method()))
	sum.Write([]byte(c.Path()))
	sum.Write(c.Body())
	return hex.EncodeToString(sum.Sum(nil))
}
