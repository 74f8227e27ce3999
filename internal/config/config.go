package config

import (
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	// Application
	AppName string
	AppEnv  string
	Port    string

	// Database (optional driver switch via ENV, default: sqlite)
	DBDriver     string
	DBConnection string

	// Observability (optional)
	SentryDSN      string
	MetricsEnabled bool // Serves /metrics when true

	// Friends feed cache (optional, disabled when REDIS_URL is empty)
	RedisURL     string
	FeedCacheTTL time.Duration

	// Export archive storage (S3-compatible, optional, disabled when S3_BUCKET is empty)
	S3Region        string
	S3Bucket        string
	S3AccessKey     string
	S3SecretKey     string
	S3Endpoint      string        // Optional: for S3-compatible services (MinIO, DO Spaces, R2, etc.)
	S3PresignExpiry time.Duration // Expiry for export archive links - default: 1 hour

	// Rate limiting for mutating API requests, per client IP
	RateLimitMutations float64 // Requests per second
	RateLimitBurst     int
}

// ClientConfig configures the goalctl terminal client.
type ClientConfig struct {
	BaseURL string
	OwnerID string
	Timeout time.Duration
}

func Load() *Config {
	loadDotenv()

	cfg := &Config{
		// Application
		AppName: envString("APP_NAME", "Goalboard"),
		AppEnv:  envRequired("APP_ENV"), // Required: 'development' or 'production'
		Port:    envString("PORT", "8090"),

		// Database
		DBDriver:     envString("DB_DRIVER", "sqlite"),
		DBConnection: envString("DB_CONNECTION", "./data/goalboard.db?_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"),

		// Observability
		SentryDSN:      envString("SENTRY_DSN", ""),
		MetricsEnabled: envBool("METRICS_ENABLED", true),

		// Cache
		RedisURL:     envString("REDIS_URL", ""),
		FeedCacheTTL: envDuration("FEED_CACHE_TTL", 30*time.Second),

		// Storage
		S3Region:        envString("S3_REGION", "us-east-1"),
		S3Bucket:        envString("S3_BUCKET", ""),
		S3AccessKey:     envString("S3_ACCESS_KEY", ""),
		S3SecretKey:     envString("S3_SECRET_KEY", ""),
		S3Endpoint:      envString("S3_ENDPOINT", ""), // Optional: for non-AWS providers
		S3PresignExpiry: envDuration("S3_PRESIGN_EXPIRY", 1*time.Hour),

		// Rate limiting
		RateLimitMutations: envFloat("RATE_LIMIT_MUTATIONS", 5),
		RateLimitBurst:     envInt("RATE_LIMIT_BURST", 10),
	}

	return cfg
}

// LoadClient reads the goalctl settings. Unlike Load it requires nothing.
func LoadClient() *ClientConfig {
	loadDotenv()

	return &ClientConfig{
		BaseURL: envString("GOALBOARD_URL", "http://localhost:8090"),
		OwnerID: envString("GOALBOARD_OWNER", ""),
		Timeout: envDuration("GOALBOARD_TIMEOUT", 10*time.Second),
	}
}

func loadDotenv() {
	// Load .env file if it exists
	err := godotenv.Load()
	if err != nil {
		slog.Debug("no .env file found, using environment variables")
	}
}

func envString(key, def string) string {
	value := os.Getenv(key)
	if value == "" {
		value = def
	}
	return value
}

func envBool(key string, def bool) bool {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		slog.Warn("config invalid bool, using default", "key", key, "value", v, "default", def)
		return def
	}
	return b
}

func envInt(key string, def int) int {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return def
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		slog.Warn("config invalid int, using default", "key", key, "value", v, "default", def)
		return def
	}
	return i
}

func envFloat(key string, def float64) float64 {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		slog.Warn("config invalid float, using default", "key", key, "value", v, "default", def)
		return def
	}
	return f
}

func envDuration(key string, def time.Duration) time.Duration {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		slog.Warn("config invalid duration, using default", "key", key, "value", v, "default", def)
		return def
	}
	return d
}

func envRequired(key string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	slog.Error("config required env var missing", "key", key)
	os.Exit(1)
	return ""
}

func (c *Config) IsDevelopment() bool {
	return c.AppEnv == "development"
}

func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

func (c *Config) CacheEnabled() bool {
	return c.RedisURL != ""
}

func (c *Config) StorageEnabled() bool {
	return c.S3Bucket != ""
}

// Sanitized returns a copy of the config with only public/safe fields.
// Credentials, connection strings and the Sentry DSN are excluded.
// Safe to log at startup.
func (c *Config) Sanitized() *Config {
	return &Config{
		AppName: c.AppName,
		AppEnv:  c.AppEnv,
		Port:    c.Port,

		DBDriver: c.DBDriver,

		MetricsEnabled: c.MetricsEnabled,

		FeedCacheTTL: c.FeedCacheTTL,

		S3Region:        c.S3Region,
		S3Bucket:        c.S3Bucket,
		S3Endpoint:      c.S3Endpoint,
		S3PresignExpiry: c.S3PresignExpiry,

		RateLimitMutations: c.RateLimitMutations,
		RateLimitBurst:     c.RateLimitBurst,
	}
}
