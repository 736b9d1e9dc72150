package config

import (
	"testing"
	"time"
)

func TestLoadDevelopmentDefaults(t *testing.T) {
	t.Setenv("APP_ENV", "development")
	t.Setenv("DATABASE_URL", "")
	t.Setenv("REDIS_URL", "")
	t.Setenv("JWT_SECRET", "")
	t.Setenv("AGGREGATOR_EXTRA_ADMINS", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.JWTSecret != devJWTSecret {
		t.Fatalf("expected development secret, got %q", cfg.JWTSecret)
	}
	if cfg.TokenTTL != 24*time.Hour || cfg.DemoProfiles != 25 || cfg.DemoSeed != 42 || !cfg.SeedOnStartup {
		t.Fatalf("unexpected defaults %+v", cfg)
	}
	if len(cfg.Admins) != 2 || cfg.Admins[0].Email != defaultAdminEmail || cfg.Admins[1].Email != "daniyar@gmail.com" {
		t.Fatalf("unexpected admins %+v", cfg.Admins)
	}
	if cfg.Address() != ":8080" {
		t.Fatalf("unexpected address %s", cfg.Address())
	}
}

func TestLoadProductionRequiresInfrastructure(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	t.Setenv("DATABASE_URL", "")
	t.Setenv("REDIS_URL", "redis://localhost:6379/0")
	t.Setenv("JWT_SECRET", "s3cret")

	if _, err := Load(); err == nil {
		t.Fatalf("expected missing DATABASE_URL to fail")
	}

	t.Setenv("DATABASE_URL", "postgres://localhost/aggregator")
	t.Setenv("JWT_SECRET", "")
	if _, err := Load(); err == nil {
		t.Fatalf("expected missing JWT_SECRET to fail")
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("APP_ENV", "development")
	t.Setenv("PORT", ":9000")
	t.Setenv("TOKEN_TTL", "2h")
	t.Setenv("IDEMPOTENCY_TTL_SECONDS", "60")
	t.Setenv("DEMO_PROFILES", "3")
	t.Setenv("SEED_ON_STARTUP", "false")
	t.Setenv("AGGREGATOR_ADMIN_EMAIL", " Boss@Example.com ")
	t.Setenv("AGGREGATOR_EXTRA_ADMINS", "ops@example.com:pw1, audit@example.com:pw2")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Address() != ":9000" || cfg.TokenTTL != 2*time.Hour || cfg.IdempotencyTTL != time.Minute {
		t.Fatalf("unexpected durations or address %+v", cfg)
	}
	if cfg.DemoProfiles != 3 || cfg.SeedOnStartup {
		t.Fatalf("unexpected seeding config %+v", cfg)
	}
	if len(cfg.Admins) != 3 || cfg.Admins[0].Email != "boss@example.com" || cfg.Admins[2].Password != "pw2" {
		t.Fatalf("unexpected admins %+v", cfg.Admins)
	}
}

func TestLoadRejectsBadValues(t *testing.T) {
	t.Setenv("APP_ENV", "development")
	t.Setenv("TOKEN_TTL", "soon")
	if _, err := Load(); err == nil {
		t.Fatalf("expected invalid TOKEN_TTL to fail")
	}

	t.Setenv("TOKEN_TTL", "")
	t.Setenv("AGGREGATOR_EXTRA_ADMINS", "missing-password")
	if _, err := Load(); err == nil {
		t.Fatalf("expected invalid admin entry to fail")
	}
}
