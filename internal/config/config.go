// Package config handles application configuration loading from environment
// variables and an optional .env file. It provides a centralized Config
// struct used across the application.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"github.com/spf13/cast"
)

// Config holds all application configuration values loaded from the environment.
type Config struct {
	// Server settings
	Host        string
	Port        string
	Env         string // "development", "production", "testing"
	ServiceName string
	LogLevel    string

	// PostgreSQL connection
	DBHost     string
	DBPort     int
	DBUser     string
	DBPassword string
	DBName     string

	// Valkey (Redis-compatible cache)
	ValkeyHost     string
	ValkeyPort     string
	ValkeyPassword string
	TreeCacheTTL   time.Duration

	// Category rules
	MaxDepth int

	// Kafka change events; empty brokers disables publishing.
	KafkaBrokers []string
	KafkaTopic   string
	KafkaGroupID string

	// MinIO export uploads; empty endpoint disables uploads.
	MinioEndpoint    string
	MinioAccessKeyID string
	MinioSecretKey   string
	MinioBucket      string
	MinioSecure      bool

	// Rate limiting on mutating routes
	RateLimitRequests int
	RateLimitWindow   time.Duration
}

// Load reads configuration from the environment, after loading the file at
// ENV_FILE_PATH (default ".env") when it exists. Returns an error if
// critical values are missing in production mode.
func Load() (*Config, error) {
	envFile := cast.ToString(getOrReturnDefault("ENV_FILE_PATH", ".env"))
	if err := godotenv.Load(envFile); err != nil && !os.IsNotExist(errors.Cause(err)) {
		return nil, errors.Wrapf(err, "load %s", envFile)
	}

	cfg := &Config{
		Host:        cast.ToString(getOrReturnDefault("APP_HOST", "0.0.0.0")),
		Port:        cast.ToString(getOrReturnDefault("APP_PORT", "8080")),
		Env:         cast.ToString(getOrReturnDefault("APP_ENV", "development")),
		ServiceName: cast.ToString(getOrReturnDefault("SERVICE_NAME", "marketplace")),

		DBHost:     cast.ToString(getOrReturnDefault("POSTGRES_HOST", "localhost")),
		DBPort:     cast.ToInt(getOrReturnDefault("POSTGRES_PORT", 5432)),
		DBUser:     cast.ToString(getOrReturnDefault("POSTGRES_USER", "marketplace")),
		DBPassword: cast.ToString(getOrReturnDefault("POSTGRES_PASSWORD", "changeme")),
		DBName:     cast.ToString(getOrReturnDefault("POSTGRES_DB", "marketplace")),

		ValkeyHost:     cast.ToString(getOrReturnDefault("VALKEY_HOST", "localhost")),
		ValkeyPort:     cast.ToString(getOrReturnDefault("VALKEY_PORT", "6379")),
		ValkeyPassword: os.Getenv("VALKEY_PASSWORD"),
		TreeCacheTTL:   cast.ToDuration(getOrReturnDefault("TREE_CACHE_TTL", "5m")),

		MaxDepth: cast.ToInt(getOrReturnDefault("CATEGORY_MAX_DEPTH", 16)),

		KafkaBrokers: splitList(cast.ToString(getOrReturnDefault("KAFKA_BROKERS", ""))),
		KafkaTopic:   cast.ToString(getOrReturnDefault("KAFKA_TOPIC", "marketplace.categories")),
		KafkaGroupID: cast.ToString(getOrReturnDefault("KAFKA_GROUP_ID", "marketplace")),

		MinioEndpoint:    os.Getenv("MINIO_ENDPOINT"),
		MinioAccessKeyID: os.Getenv("MINIO_ACCESS_KEY_ID"),
		MinioSecretKey:   os.Getenv("MINIO_SECRET_KEY"),
		MinioBucket:      cast.ToString(getOrReturnDefault("MINIO_BUCKET", "exports")),
		MinioSecure:      cast.ToBool(getOrReturnDefault("MINIO_SECURE", true)),

		RateLimitRequests: cast.ToInt(getOrReturnDefault("RATE_LIMIT_REQUESTS", 60)),
		RateLimitWindow:   cast.ToDuration(getOrReturnDefault("RATE_LIMIT_WINDOW", "1m")),
	}

	cfg.LogLevel = cast.ToString(getOrReturnDefault("LOG_LEVEL", defaultLogLevel(cfg.Env)))

	if cfg.Env == "production" {
		if cfg.DBPassword == "changeme" {
			return nil, errors.New("POSTGRES_PASSWORD must be set in production")
		}
	}
	if cfg.MaxDepth < 0 {
		return nil, errors.Errorf("CATEGORY_MAX_DEPTH must not be negative, got %d", cfg.MaxDepth)
	}

	return cfg, nil
}

// DSN returns the PostgreSQL connection string.
func (c *Config) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=disable",
		c.DBUser, c.DBPassword, c.DBHost, c.DBPort, c.DBName,
	)
}

// Addr returns the server listen address (host:port).
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%s", c.Host, c.Port)
}

// IsDev returns true if the application is running in development mode.
func (c *Config) IsDev() bool {
	return c.Env == "development"
}

// EventsEnabled reports whether Kafka brokers are configured.
func (c *Config) EventsEnabled() bool {
	return len(c.KafkaBrokers) > 0
}

// UploadsEnabled reports whether a MinIO endpoint is configured.
func (c *Config) UploadsEnabled() bool {
	return c.MinioEndpoint != ""
}

// getOrReturnDefault returns the raw environment value, or defaultValue when
// the variable is unset or empty.
func getOrReturnDefault(key string, defaultValue interface{}) interface{} {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return defaultValue
}

func defaultLogLevel(env string) string {
	if env == "development" || env == "testing" {
		return "debug"
	}
	return "info"
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
