package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/aggregator-demo/aggregator/internal/identity"
)

const (
	defaultAppName         = "Aggregator"
	defaultAppEnv          = "development"
	defaultPort            = "8080"
	defaultLogLevel        = "info"
	defaultShutdownDelay   = 10 * time.Second
	defaultIdempotencyTTL  = 24 * time.Hour
	defaultTokenTTL        = 24 * time.Hour
	defaultSearchCacheTTL  = 5 * time.Minute
	defaultJupiterURL      = "https://lite-api.jup.ag"
	defaultCoinGeckoURL    = "https://api.coingecko.com/api/v3"
	defaultAdminEmail      = "admin@aggregator.local"
	defaultAdminPassword   = "admin"
	defaultExtraAdmins     = "daniyar@gmail.com:daniyar"
	defaultDemoProfiles    = 25
	defaultDemoSeed        = 42
	defaultLoginRateLimit  = 5
	devJWTSecret           = "dev-secret-change-me"
	idemTTLSecondsEnvVar   = "IDEMPOTENCY_TTL_SECONDS"
	idemTTLDurEnvVar       = "IDEMPOTENCY_TTL"
	shutdownSecondsEnvVar  = "SHUTDOWN_TIMEOUT_SECONDS"
	shutdownDurationEnvVar = "SHUTDOWN_TIMEOUT"
)

// Config captures application runtime configuration loaded from environment variables.
type Config struct {
	AppName        string
	AppEnv         string
	Port           string
	LogLevel       string
	LogFormat      string
	DatabaseURL    string
	DBMaxConns     int
	RedisURL       string
	RedisPoolSize  int
	ShutdownPeriod time.Duration
	IdempotencyTTL time.Duration

	JWTSecret string
	TokenTTL  time.Duration

	JupiterURL     string
	CoinGeckoURL   string
	SearchCacheTTL time.Duration

	// Admins lists the admin accounts. The first entry is the primary admin.
	Admins         []identity.Account
	DemoProfiles   int
	DemoSeed       uint64
	SeedOnStartup  bool
	LoginRateLimit int
}

// Load reads configuration values from the environment and populates a Config
// instance. A .env file in the working directory is loaded first when present;
// variables already set in the environment win.
func Load() (Config, error) {
	_ = godotenv.Load()

	cfg := Config{
		AppName:        getEnv("APP_NAME", defaultAppName),
		AppEnv:         getEnv("APP_ENV", defaultAppEnv),
		Port:           getEnv("PORT", defaultPort),
		LogLevel:       strings.ToLower(getEnv("LOG_LEVEL", defaultLogLevel)),
		LogFormat:      strings.ToLower(getEnv("LOG_FORMAT", "json")),
		DatabaseURL:    os.Getenv("DATABASE_URL"),
		RedisURL:       os.Getenv("REDIS_URL"),
		ShutdownPeriod: defaultShutdownDelay,
		IdempotencyTTL: defaultIdempotencyTTL,
		JWTSecret:      os.Getenv("JWT_SECRET"),
		JupiterURL:     getEnv("JUPITER_API_URL", defaultJupiterURL),
		CoinGeckoURL:   getEnv("COINGECKO_API_URL", defaultCoinGeckoURL),
	}

	var err error
	if cfg.ShutdownPeriod, err = durationEnv(shutdownSecondsEnvVar, shutdownDurationEnvVar, defaultShutdownDelay); err != nil {
		return Config{}, err
	}
	if cfg.IdempotencyTTL, err = durationEnv(idemTTLSecondsEnvVar, idemTTLDurEnvVar, defaultIdempotencyTTL); err != nil {
		return Config{}, err
	}
	if cfg.TokenTTL, err = durationEnv("TOKEN_TTL_SECONDS", "TOKEN_TTL", defaultTokenTTL); err != nil {
		return Config{}, err
	}
	if cfg.SearchCacheTTL, err = durationEnv("TOKEN_SEARCH_CACHE_TTL_SECONDS", "TOKEN_SEARCH_CACHE_TTL", defaultSearchCacheTTL); err != nil {
		return Config{}, err
	}
	if cfg.DemoProfiles, err = intEnv("DEMO_PROFILES", defaultDemoProfiles); err != nil {
		return Config{}, err
	}
	if cfg.DBMaxConns, err = intEnv("DB_MAX_CONNS", 0); err != nil {
		return Config{}, err
	}
	if cfg.RedisPoolSize, err = intEnv("REDIS_POOL_SIZE", 0); err != nil {
		return Config{}, err
	}
	if cfg.LoginRateLimit, err = intEnv("LOGIN_RATE_LIMIT", defaultLoginRateLimit); err != nil {
		return Config{}, err
	}
	seed, err := intEnv("DEMO_SEED", defaultDemoSeed)
	if err != nil {
		return Config{}, err
	}
	cfg.DemoSeed = uint64(seed)
	if cfg.SeedOnStartup, err = boolEnv("SEED_ON_STARTUP", true); err != nil {
		return Config{}, err
	}

	primary := identity.Account{
		Email:    identity.NormalizeEmail(getEnv("AGGREGATOR_ADMIN_EMAIL", defaultAdminEmail)),
		Password: getEnv("AGGREGATOR_ADMIN_PASSWORD", defaultAdminPassword),
	}
	extra, err := parseAccounts(getEnv("AGGREGATOR_EXTRA_ADMINS", defaultExtraAdmins))
	if err != nil {
		return Config{}, err
	}
	cfg.Admins = append([]identity.Account{primary}, extra...)

	if cfg.IsDevelopment() {
		if cfg.JWTSecret == "" {
			cfg.JWTSecret = devJWTSecret
		}
		return cfg, nil
	}

	if cfg.DatabaseURL == "" {
		return Config{}, fmt.Errorf("DATABASE_URL must be set")
	}

	if cfg.RedisURL == "" {
		return Config{}, fmt.Errorf("REDIS_URL must be set")
	}

	if cfg.JWTSecret == "" {
		return Config{}, fmt.Errorf("JWT_SECRET must be set")
	}

	return cfg, nil
}

// IsDevelopment reports whether the service runs in development mode, where
// in-memory stores replace missing infrastructure.
func (c Config) IsDevelopment() bool {
	return c.AppEnv == defaultAppEnv || c.AppEnv == "dev"
}

// Address returns the listen address in the format Fiber expects.
func (c Config) Address() string {
	if strings.HasPrefix(c.Port, ":") {
		return c.Port
	}
	return fmt.Sprintf(":%s", c.Port)
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

// durationEnv reads whole seconds from secondsKey, or a Go duration from durationKey.
func durationEnv(secondsKey, durationKey string, fallback time.Duration) (time.Duration, error) {
	if v := os.Getenv(secondsKey); v != "" {
		seconds, err := strconv.Atoi(v)
		if err != nil {
			return 0, fmt.Errorf("invalid %s: %w", secondsKey, err)
		}
		return time.Duration(seconds) * time.Second, nil
	}
	if v := os.Getenv(durationKey); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return 0, fmt.Errorf("invalid %s: %w", durationKey, err)
		}
		return d, nil
	}
	return fallback, nil
}

func intEnv(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("invalid %s: %q", key, v)
	}
	return n, nil
}

func boolEnv(key string, fallback bool) (bool, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("invalid %s: %w", key, err)
	}
	return b, nil
}

// parseAccounts reads a comma separated list of email:password pairs.
func parseAccounts(raw string) ([]identity.Account, error) {
	var out []identity.Account
	for _, item := range strings.Split(raw, ",") {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		email, password, ok := strings.Cut(item, ":")
		if !ok || strings.TrimSpace(email) == "" || password == "" {
			return nil, fmt.Errorf("invalid AGGREGATOR_EXTRA_ADMINS entry %q", item)
		}
		out = append(out, identity.Account{Email: identity.NormalizeEmail(email), Password: password})
	}
	return out, nil
}
