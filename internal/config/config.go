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

	"github.com/noah-isme/roller-shop/internal/resilience"
)

// Config holds application configuration loaded from the environment.
type Config struct {
	AppEnv             string
	Port               string
	DatabaseURL        string
	RedisURL           string
	CORSAllowedOrigins []string

	JWTSecret        string
	JWTRefreshSecret string
	JWTIssuer        string
	JWTAudience      string
	AccessTokenTTL   time.Duration
	RefreshTokenTTL  time.Duration

	AuthRateLimitMax    int
	AuthRateLimitWindow time.Duration
	APIRateLimit        string
	BodyLimitBytes      int64
	IdempotencyTTL      time.Duration
	HSTSEnabled         bool
	TrustForwardProto   bool
	CachePrefix         string
	PricingCacheTTL     time.Duration

	PricingTableFile   string
	PricingMinAreaM2   float64
	StorefrontDebounce time.Duration
	ShopBaseURL        string

	OutboundTimeout    time.Duration
	RetryMaxAttempts   int
	RetryBaseBackoff   time.Duration
	RetryJitter        float64
	CircuitMinRequests int
	CircuitFailureRate float64
	CircuitOpenFor     time.Duration

	Obs    ObsConfig
	Worker WorkerConfig
}

// ObsConfig groups logging, metrics and tracing switches.
type ObsConfig struct {
	LogFormat        string
	LogLevel         string
	MetricsEnabled   bool
	MetricsNamespace string
	MetricsBuckets   string
	TracingEnabled   bool
	TracingExporter  string
	OTLPEndpoint     string
	SamplingRatio    float64
	ServiceName      string
	PprofEnabled     bool
	PprofUser        string
	PprofPass        string
}

// WorkerConfig configures cmd/worker.
type WorkerConfig struct {
	Concurrency   int
	PurgeSchedule string
	PurgeLockTTL  time.Duration
}

// Load reads configuration from environment variables and optional .env
// files and checks the settings the API and worker cannot start without.
func Load() (*Config, error) {
	cfg, err := read()
	if err != nil {
		return nil, err
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadTooling reads the same sources as Load without requiring database or
// JWT settings. Operator tools use it for pricing, shop and outbound knobs.
func LoadTooling() (*Config, error) {
	cfg, err := read()
	if err != nil {
		return nil, err
	}
	if cfg.PricingMinAreaM2 <= 0 {
		return nil, fmt.Errorf("PRICING_MIN_AREA_M2 must be positive, got %v", cfg.PricingMinAreaM2)
	}
	return cfg, nil
}

func read() (*Config, error) {
	_ = godotenv.Load()

	k := koanf.New(".")
	if err := k.Load(env.Provider("", ".", func(s string) string { return s }), nil); err != nil {
		return nil, fmt.Errorf("load env: %w", err)
	}

	cfg := &Config{
		AppEnv:             valueOrDefault(k.String("APP_ENV"), "development"),
		Port:               valueOrDefault(k.String("APP_PORT"), valueOrDefault(k.String("PORT"), "3000")),
		DatabaseURL:        k.String("DATABASE_URL"),
		RedisURL:           valueOrDefault(k.String("REDIS_URL"), "redis://localhost:6379/0"),
		CORSAllowedOrigins: splitAndTrim(k.String("CORS_ALLOWED_ORIGINS")),

		JWTSecret:        k.String("JWT_SECRET"),
		JWTRefreshSecret: k.String("JWT_REFRESH_SECRET"),
		JWTIssuer:        valueOrDefault(k.String("JWT_ISSUER"), "roller-shop"),
		JWTAudience:      valueOrDefault(k.String("JWT_AUDIENCE"), "roller-shop-api"),
		AccessTokenTTL:   parseDuration(k.String("JWT_ACCESS_TTL"), "1h"),
		RefreshTokenTTL:  parseDuration(k.String("JWT_REFRESH_TTL"), "168h"),

		AuthRateLimitMax:    parseInt(k.String("RATE_LIMIT_AUTH_MAX"), 10),
		AuthRateLimitWindow: parseDuration(k.String("RATE_LIMIT_AUTH_WINDOW"), "15m"),
		APIRateLimit:        valueOrDefault(k.String("RATE_LIMIT_API"), "100-M"),
		BodyLimitBytes:      int64(parseInt(k.String("BODY_LIMIT_BYTES"), 1<<20)),
		IdempotencyTTL:      parseDuration(k.String("IDEMPOTENCY_TTL"), "24h"),
		HSTSEnabled:         parseBoolDefault(k.String("SECURITY_ENABLE_HSTS"), false),
		TrustForwardProto:   parseBoolDefault(k.String("SECURITY_TRUST_FORWARDED_PROTO"), false),
		CachePrefix:         valueOrDefault(k.String("CACHE_PREFIX"), "roller"),
		PricingCacheTTL:     parseDuration(k.String("PRICING_CACHE_TTL"), "1h"),

		PricingTableFile:   strings.TrimSpace(k.String("PRICING_TABLE_FILE")),
		PricingMinAreaM2:   parseFloat(k.String("PRICING_MIN_AREA_M2"), 1.0),
		StorefrontDebounce: parseDuration(k.String("STOREFRONT_DEBOUNCE"), "50ms"),
		ShopBaseURL:        strings.TrimRight(strings.TrimSpace(k.String("SHOP_BASE_URL")), "/"),

		OutboundTimeout:    parseDuration(k.String("OUTBOUND_TIMEOUT"), "5s"),
		RetryMaxAttempts:   parseInt(k.String("RETRY_MAX_ATTEMPTS"), 3),
		RetryBaseBackoff:   parseDuration(k.String("RETRY_BASE_BACKOFF"), "200ms"),
		RetryJitter:        parseFloat(k.String("RETRY_JITTER"), 0.2),
		CircuitMinRequests: parseInt(k.String("CIRCUIT_MIN_REQUESTS"), 10),
		CircuitFailureRate: parseFloat(k.String("CIRCUIT_FAILURE_RATIO"), 0.5),
		CircuitOpenFor:     parseDuration(k.String("CIRCUIT_OPEN_FOR"), "30s"),

		Obs: ObsConfig{
			LogFormat:        valueOrDefault(k.String("OBS_LOG_FORMAT"), "json"),
			LogLevel:         valueOrDefault(k.String("OBS_LOG_LEVEL"), "info"),
			MetricsEnabled:   parseBoolDefault(k.String("OBS_ENABLE_PROMETHEUS"), true),
			MetricsNamespace: valueOrDefault(k.String("OBS_METRICS_NAMESPACE"), "roller"),
			MetricsBuckets:   k.String("OBS_METRICS_BUCKETS_MS"),
			TracingEnabled:   parseBoolDefault(k.String("OBS_ENABLE_TRACING"), false),
			TracingExporter:  valueOrDefault(k.String("OTEL_TRACES_EXPORTER"), "otlp"),
			OTLPEndpoint:     k.String("OTEL_EXPORTER_OTLP_ENDPOINT"),
			SamplingRatio:    parseFloat(k.String("OTEL_TRACES_SAMPLER_ARG"), 1.0),
			ServiceName:      valueOrDefault(k.String("OTEL_SERVICE_NAME"), "roller-api"),
			PprofEnabled:     parseBoolDefault(k.String("OBS_ENABLE_PPROF"), false),
			PprofUser:        strings.TrimSpace(k.String("SECURE_PPROF_BASIC_AUTH_USER")),
			PprofPass:        strings.TrimSpace(k.String("SECURE_PPROF_BASIC_AUTH_PASS")),
		},
		Worker: WorkerConfig{
			Concurrency:   parseInt(k.String("WORKER_CONCURRENCY"), 2),
			PurgeSchedule: valueOrDefault(k.String("WORKER_PURGE_SCHEDULE"), "@hourly"),
			PurgeLockTTL:  parseDuration(k.String("WORKER_PURGE_LOCK_TTL"), "5m"),
		},
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch {
	case c.DatabaseURL == "":
		return errors.New("DATABASE_URL is required")
	case c.JWTSecret == "":
		return errors.New("JWT_SECRET is required")
	case c.JWTRefreshSecret == "":
		return errors.New("JWT_REFRESH_SECRET is required")
	case c.PricingMinAreaM2 <= 0:
		return fmt.Errorf("PRICING_MIN_AREA_M2 must be positive, got %v", c.PricingMinAreaM2)
	}
	return nil
}

// Outbound returns the retry and breaker settings for calls to target.
func (c *Config) Outbound(target string) resilience.Options {
	return resilience.Options{
		Target:       target,
		Timeout:      c.OutboundTimeout,
		MaxAttempts:  c.RetryMaxAttempts,
		BaseBackoff:  c.RetryBaseBackoff,
		Jitter:       c.RetryJitter,
		MinRequests:  c.CircuitMinRequests,
		FailureRatio: c.CircuitFailureRate,
		OpenFor:      c.CircuitOpenFor,
	}
}

// IsProduction reports whether error details should be hidden from clients.
func (c *Config) IsProduction() bool {
	return strings.EqualFold(strings.TrimSpace(c.AppEnv), "production")
}

// HTTPAddr returns the address the HTTP server should bind to.
func (c *Config) HTTPAddr() string {
	port := strings.TrimSpace(c.Port)
	if port == "" {
		port = "3000"
	}
	if strings.HasPrefix(port, ":") {
		return port
	}
	return ":" + port
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

func parseBoolDefault(value string, fallback bool) bool {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "1", "t", "true", "yes", "on":
		return true
	case "0", "f", "false", "no", "off":
		return false
	default:
		return fallback
	}
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
