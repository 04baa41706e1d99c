package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/v2"
	"github.com/shopspring/decimal"

	"github.com/noah-isme/backend-erp/internal/pricing"
)

// Config holds application configuration loaded from the environment.
type Config struct {
	AppEnv             string
	Port               string
	DatabaseURL        string
	RedisURL           string
	CORSAllowedOrigins []string
	LogLevel           string
	LogFormat          string

	WholesaleMarkup decimal.Decimal
	RetailMarkup    decimal.Decimal
	MRPBuffer       decimal.Decimal

	PreviewCacheTTL        time.Duration
	PreviewRateLimitMax    int
	PreviewRateLimitWindow time.Duration
	AdminRateLimit         string
	IdempotencyTTL         time.Duration
	MaxBodyBytes           int64
	MigrateOnStart         bool
	MigrateLockTimeout     time.Duration
	AuditEnabled           bool

	BreakerMinRequests  int
	BreakerFailureRatio float64
	BreakerOpenFor      time.Duration
	DBRetryAttempts     int

	MetricsEnabled   bool
	MetricsNamespace string
	MetricsBuckets   string
	TracingEnabled   bool
	ServiceName      string
	TracingEndpoint  string
	TracingExporter  string
	TracingSample    float64
}

// Load reads configuration from environment variables and optional .env files.
func Load() (*Config, error) {
	_ = godotenv.Load()

	k := koanf.New(".")
	if err := k.Load(env.Provider("", ".", func(s string) string { return s }), nil); err != nil {
		return nil, fmt.Errorf("load env: %w", err)
	}

	defaults := pricing.DefaultPolicy()
	cfg := &Config{
		AppEnv:             valueOrDefault(k.String("APP_ENV"), "development"),
		Port:               valueOrDefault(k.String("PORT"), "8080"),
		DatabaseURL:        k.String("DATABASE_URL"),
		RedisURL:           k.String("REDIS_URL"),
		CORSAllowedOrigins: splitAndTrim(k.String("CORS_ALLOWED_ORIGINS")),
		LogLevel:           valueOrDefault(k.String("OBS_LOG_LEVEL"), "info"),
		LogFormat:          valueOrDefault(k.String("OBS_LOG_FORMAT"), "json"),

		PreviewCacheTTL:        parseDuration(k.String("PREVIEW_CACHE_TTL"), "5m"),
		PreviewRateLimitMax:    parseInt(k.String("PREVIEW_RATE_LIMIT_MAX"), 120),
		PreviewRateLimitWindow: parseDuration(k.String("PREVIEW_RATE_LIMIT_WINDOW"), "1m"),
		AdminRateLimit:         valueOrDefault(k.String("ADMIN_RATE_LIMIT"), "60-M"),
		IdempotencyTTL:         parseDuration(k.String("IDEMPOTENCY_TTL"), "24h"),
		MaxBodyBytes:           int64(parseInt(k.String("MAX_BODY_BYTES"), 1<<20)),
		MigrateOnStart:         parseBool(k.String("MIGRATE_ON_START")),
		MigrateLockTimeout:     parseDuration(k.String("MIGRATE_LOCK_TIMEOUT"), "2m"),
		AuditEnabled:           parseBoolDefault(k.String("AUDIT_ENABLED"), true),

		BreakerMinRequests:  parseInt(k.String("DB_BREAKER_MIN_REQUESTS"), 10),
		BreakerFailureRatio: parseFloat(k.String("DB_BREAKER_FAILURE_RATIO"), 0.5),
		BreakerOpenFor:      parseDuration(k.String("DB_BREAKER_OPEN_FOR"), "15s"),
		DBRetryAttempts:     parseInt(k.String("DB_RETRY_ATTEMPTS"), 2),

		MetricsEnabled:   parseBoolDefault(k.String("OBS_ENABLE_PROMETHEUS"), true),
		MetricsNamespace: valueOrDefault(k.String("OBS_METRICS_NAMESPACE"), "erp"),
		MetricsBuckets:   k.String("OBS_METRICS_BUCKETS_MS"),
		TracingEnabled:   parseBool(k.String("OBS_ENABLE_TRACING")),
		ServiceName:      valueOrDefault(k.String("OBS_SERVICE_NAME"), "erp-api"),
		TracingEndpoint:  strings.TrimSpace(k.String("OBS_OTLP_ENDPOINT")),
		TracingExporter:  valueOrDefault(k.String("OBS_TRACING_EXPORTER"), "otlp"),
		TracingSample:    parseFloat(k.String("OBS_TRACING_SAMPLING_RATIO"), 1.0),
	}

	var err error
	if cfg.WholesaleMarkup, err = parseRate("PRICING_WHOLESALE_MARKUP", k.String("PRICING_WHOLESALE_MARKUP"), defaults.WholesaleMarkup); err != nil {
		return nil, err
	}
	if cfg.RetailMarkup, err = parseRate("PRICING_RETAIL_MARKUP", k.String("PRICING_RETAIL_MARKUP"), defaults.RetailMarkup); err != nil {
		return nil, err
	}
	if cfg.MRPBuffer, err = parseRate("PRICING_MRP_BUFFER", k.String("PRICING_MRP_BUFFER"), defaults.MRPBuffer); err != nil {
		return nil, err
	}

	if cfg.DatabaseURL == "" {
		return nil, errors.New("DATABASE_URL is required")
	}
	if cfg.RedisURL == "" {
		return nil, errors.New("REDIS_URL is required")
	}
	if cfg.PreviewRateLimitMax <= 0 {
		return nil, errors.New("PREVIEW_RATE_LIMIT_MAX must be positive")
	}

	return cfg, nil
}

// HTTPAddr returns the address the HTTP server should bind to.
func (c *Config) HTTPAddr() string {
	port := strings.TrimSpace(c.Port)
	if port == "" {
		port = "8080"
	}
	if strings.HasPrefix(port, ":") {
		return port
	}
	return ":" + port
}

// Pricing returns the markup policy used to derive suggested prices.
func (c *Config) Pricing() pricing.Policy {
	return pricing.Policy{
		WholesaleMarkup: c.WholesaleMarkup,
		RetailMarkup:    c.RetailMarkup,
		MRPBuffer:       c.MRPBuffer,
	}
}

// IsProduction reports whether the service runs with production defaults.
func (c *Config) IsProduction() bool {
	return strings.EqualFold(strings.TrimSpace(c.AppEnv), "production")
}

func splitAndTrim(value string) []string {
	if value == "" {
		return nil
	}
	parts := strings.Split(value, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}

func valueOrDefault(value, fallback string) string {
	if strings.TrimSpace(value) != "" {
		return value
	}
	return fallback
}

func parseDuration(value, fallback string) time.Duration {
	base := strings.TrimSpace(value)
	if base == "" {
		base = fallback
	}
	d, err := time.ParseDuration(base)
	if err != nil {
		d, _ = time.ParseDuration(fallback)
	}
	return d
}

func parseInt(value string, fallback int) int {
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return fallback
	}
	return n
}

func parseFloat(value string, fallback float64) float64 {
	f, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
	if err != nil {
		return fallback
	}
	return f
}

// parseRate reads a non-negative fractional markup such as 0.15.
func parseRate(key, value string, fallback decimal.Decimal) (decimal.Decimal, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return fallback, nil
	}
	d, err := decimal.NewFromString(value)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%s: %w", key, err)
	}
	if d.IsNegative() {
		return decimal.Zero, fmt.Errorf("%s must not be negative", key)
	}
	return d, nil
}

func parseBool(value string) bool {
	return parseBoolDefault(value, false)
}

func parseBoolDefault(value string, fallback bool) bool {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	default:
		return fallback
	}
}

// MustLoad behaves like Load but panics on error. Useful for tests and command entrypoints.
func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		panic(err)
	}
	return cfg
}

// LoadForTests allows tests to override environment variables without touching the real environment.
func LoadForTests(env map[string]string) (*Config, error) {
	original := make(map[string]string, len(env))
	for key := range env {
		original[key] = os.Getenv(key)
		if err := setEnvVar(key, env[key]); err != nil {
			return nil, err
		}
	}
	cfg, err := Load()
	restoreErr := restoreEnv(original)
	if err != nil {
		return nil, err
	}
	return cfg, restoreErr
}

func setEnvVar(key, value string) error {
	if value == "" {
		return os.Unsetenv(key)
	}
	return os.Setenv(key, value)
}

func restoreEnv(values map[string]string) error {
	var errs []string
	for key, value := range values {
		if err := setEnvVar(key, value); err != nil {
			errs = append(errs, fmt.Sprintf("%s: %v", key, err))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("restore env: %s", strings.Join(errs, "; "))
	}
	return nil
}
