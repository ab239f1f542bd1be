package config

import (
	"errors"
	"fmt"
	"time"

	pkgconfig "github.com/utafrali/review-service/pkg/config"
	"github.com/utafrali/review-service/pkg/database"
)

// Config holds all configuration for the review service.
type Config struct {
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`

	// HTTP server
	HTTPPort int `env:"REVIEW_HTTP_PORT" envDefault:"8013"`

	// PostgreSQL
	PostgresHost string `env:"POSTGRES_HOST" envDefault:"localhost"`
	PostgresPort int    `env:"POSTGRES_PORT" envDefault:"5432"`
	PostgresUser string `env:"POSTGRES_USER" envDefault:"ecommerce"`
	PostgresPass string `env:"POSTGRES_PASSWORD" envDefault:"ecommerce_secret"`
	PostgresDB   string `env:"REVIEW_DB_NAME" envDefault:"review_db"`
	PostgresSSL  string `env:"POSTGRES_SSL_MODE" envDefault:"disable"`

	// Database pool
	DBMaxConns            int32 `env:"DB_MAX_CONNS" envDefault:"25"`
	DBMinConns            int32 `env:"DB_MIN_CONNS" envDefault:"5"`
	DBMaxConnLifetimeMins int   `env:"DB_MAX_CONN_LIFETIME_MINUTES" envDefault:"60"`
	DBMaxConnIdleTimeMins int   `env:"DB_MAX_CONN_IDLE_TIME_MINUTES" envDefault:"30"`

	// Moderator shared secret. Empty rejects every moderator call.
	AdminToken string `env:"ADMIN_TOKEN"`

	// Kafka
	KafkaEnabled bool     `env:"KAFKA_ENABLED" envDefault:"true"`
	KafkaBrokers []string `env:"KAFKA_BROKERS" envDefault:"localhost:9092" envSeparator:","`

	// Redis rating cache
	RatingCacheEnabled bool   `env:"RATING_CACHE_ENABLED" envDefault:"false"`
	RedisAddr          string `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	RedisPass          string `env:"REDIS_PASSWORD" envDefault:""`
	RedisDB            int    `env:"REDIS_DB" envDefault:"0"`
	RatingCacheTTLSecs int    `env:"RATING_CACHE_TTL_SECONDS" envDefault:"300"`

	// Catalog service; empty skips the product existence check.
	CatalogServiceURL string `env:"CATALOG_SERVICE_URL" envDefault:""`

	// Per-IP rate limit on mutating routes; zero RPS disables it.
	RateLimitRPS   float64 `env:"RATE_LIMIT_RPS" envDefault:"20"`
	RateLimitBurst int     `env:"RATE_LIMIT_BURST" envDefault:"40"`

	// OpenTelemetry
	OTELEnabled    bool    `env:"OTEL_ENABLED" envDefault:"false"`
	OTELEndpoint   string  `env:"OTEL_EXPORTER_OTLP_ENDPOINT" envDefault:"localhost:4318"`
	OTELInsecure   bool    `env:"OTEL_EXPORTER_OTLP_INSECURE" envDefault:"true"`
	OTELSampleRate float64 `env:"OTEL_SAMPLE_RATE" envDefault:"1.0"`

	// Pprof debug endpoints (IP allowlist in CIDR notation)
	PprofAllowedCIDRs []string `env:"PPROF_ALLOWED_CIDRS" envDefault:"10.0.0.0/8,172.16.0.0/12,192.168.0.0/16,127.0.0.0/8,::1/128" envSeparator:","`

	// Slow query logging
	SlowQueryThresholdMs int `env:"LOG_SLOW_QUERY_MS" envDefault:"500"`
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := pkgconfig.Load(cfg); err != nil {
		return nil, fmt.Errorf("load review config: %w", err)
	}
	return cfg, nil
}

// Validate checks configuration invariants.
func (c *Config) Validate() error {
	if c.HTTPPort < 1 || c.HTTPPort > 65535 {
		return fmt.Errorf("invalid HTTP port: %d", c.HTTPPort)
	}
	if c.PostgresHost == "" {
		return errors.New("POSTGRES_HOST is required")
	}
	if c.PostgresUser == "" {
		return errors.New("POSTGRES_USER is required")
	}
	if c.KafkaEnabled && len(c.KafkaBrokers) == 0 {
		return errors.New("KAFKA_BROKERS is required when KAFKA_ENABLED is set")
	}
	if c.RatingCacheEnabled && c.RatingCacheTTLSecs <= 0 {
		return fmt.Errorf("invalid RATING_CACHE_TTL_SECONDS: %d", c.RatingCacheTTLSecs)
	}
	if c.OTELSampleRate < 0 || c.OTELSampleRate > 1 {
		return fmt.Errorf("invalid OTEL_SAMPLE_RATE: %v", c.OTELSampleRate)
	}
	if c.AdminToken == "" && !c.IsDevelopment() {
		return errors.New("ADMIN_TOKEN is required outside development")
	}
	return nil
}

// IsDevelopment reports whether the service runs in the development environment.
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// Postgres returns the connection settings for database.NewPostgresPool.
func (c *Config) Postgres() database.PostgresConfig {
	return database.PostgresConfig{
		Host:            c.PostgresHost,
		Port:            c.PostgresPort,
		User:            c.PostgresUser,
		Password:        c.PostgresPass,
		DBName:          c.PostgresDB,
		SSLMode:         c.PostgresSSL,
		MaxConns:        c.DBMaxConns,
		MinConns:        c.DBMinConns,
		MaxConnLifetime: time.Duration(c.DBMaxConnLifetimeMins) * time.Minute,
		MaxConnIdleTime: time.Duration(c.DBMaxConnIdleTimeMins) * time.Minute,
	}
}

// Redis returns the connection settings for database.NewRedisClient.
func (c *Config) Redis() database.RedisConfig {
	return database.RedisConfig{Addr: c.RedisAddr, Password: c.RedisPass, DB: c.RedisDB}
}

// RatingCacheTTL is the lifetime of a cached rating summary.
func (c *Config) RatingCacheTTL() time.Duration {
	return time.Duration(c.RatingCacheTTLSecs) * time.Second
}

// SlowQueryThreshold is the duration above which queries are logged.
func (c *Config) SlowQueryThreshold() time.Duration {
	return time.Duration(c.SlowQueryThresholdMs) * time.Millisecond
}
