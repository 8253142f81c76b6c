package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v10"
)

// Config holds configuration for the storefront client SDK.
type Config struct {
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`

	// Storefront backend API
	APIBaseURL     string        `env:"STOREFRONT_API_URL" envDefault:"http://localhost:8080/api"`
	RequestTimeout time.Duration `env:"STOREFRONT_REQUEST_TIMEOUT" envDefault:"15s"`
	MaxRetries     int           `env:"STOREFRONT_MAX_RETRIES" envDefault:"3"`

	// Durable client storage. "memory", "file" or "redis".
	StorageBackend string `env:"STOREFRONT_STORAGE" envDefault:"file"`
	StoragePath    string `env:"STOREFRONT_STORAGE_PATH" envDefault:".storefront"`

	// Redis (used when STOREFRONT_STORAGE=redis, e.g. server-side sessions)
	RedisAddr string `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	RedisPass string `env:"REDIS_PASSWORD" envDefault:""`
	RedisDB   int    `env:"REDIS_DB" envDefault:"0"`

	// Kafka analytics events; empty brokers disables publication.
	KafkaBrokers []string `env:"KAFKA_BROKERS" envDefault:"" envSeparator:","`
}

// Load parses environment variables into the provided struct. The struct
// should use `env` tags to define mappings.
func Load(cfg any) error {
	if err := env.Parse(cfg); err != nil {
		return fmt.Errorf("parse config: %w", err)
	}
	return nil
}

// FromEnv reads the SDK configuration from environment variables.
func FromEnv() (*Config, error) {
	cfg := &Config{}
	if err := Load(cfg); err != nil {
		return nil, fmt.Errorf("load storefront config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// validate checks configuration invariants.
func (c *Config) validate() error {
	if c.APIBaseURL == "" {
		return fmt.Errorf("api base url is required")
	}
	switch c.StorageBackend {
	case "memory", "file", "redis":
	default:
		return fmt.Errorf("unknown storage backend: %q", c.StorageBackend)
	}
	if c.RequestTimeout <= 0 {
		return fmt.Errorf("request timeout must be positive")
	}
	return nil
}
