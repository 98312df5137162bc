package app

import (
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/kelseyhightower/envconfig"

	"github.com/odyssey-erp/closeboard/internal/platform/kv"
)

// Config holds runtime configuration for the application.
type Config struct {
	AppEnv            string        `envconfig:"APP_ENV" default:"development"`
	AppAddr           string        `envconfig:"APP_ADDR" default:":8080"`
	AppReadTimeout    time.Duration `envconfig:"APP_READ_TIMEOUT" default:"15s"`
	AppWriteTimeout   time.Duration `envconfig:"APP_WRITE_TIMEOUT" default:"15s"`
	AppRequestTimeout time.Duration `envconfig:"APP_REQUEST_TIMEOUT" default:"30s"`

	LogFormat string     `envconfig:"LOG_FORMAT" default:"text"`
	LogLevel  slog.Level `envconfig:"LOG_LEVEL" default:"INFO"`

	StoreBackend   string `envconfig:"STORE_BACKEND" default:"file"`
	StoreDir       string `envconfig:"STORE_DIR" default:"./data"`
	StoreKeyPrefix string `envconfig:"STORE_KEY_PREFIX"`
	SQLitePath     string `envconfig:"SQLITE_PATH" default:"./data/closeboard.db"`

	PGDSN string `envconfig:"PG_DSN"`

	RedisAddr         string `envconfig:"REDIS_ADDR" default:"127.0.0.1:6379"`
	WorkerMetricsAddr string `envconfig:"WORKER_METRICS_ADDR" default:":9091"`

	RateLimitPerMinute int `envconfig:"RATE_LIMIT_PER_MINUTE" default:"120"`
}

// LoadConfig reads configuration from environment variables.
func LoadConfig() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.StoreBackend == "" {
		c.StoreBackend = kv.KindFile
	}
	if !slices.Contains(kv.Kinds, c.StoreBackend) {
		return fmt.Errorf("config: unknown STORE_BACKEND %q", c.StoreBackend)
	}
	if c.StoreBackend == kv.KindPostgres && c.PGDSN == "" {
		return fmt.Errorf("config: PG_DSN required for the postgres backend")
	}
	if c.RateLimitPerMinute < 1 {
		return fmt.Errorf("config: RATE_LIMIT_PER_MINUTE must be positive")
	}
	return nil
}

// IsProduction returns true when the application runs in production.
func (c *Config) IsProduction() bool {
	return c != nil && c.AppEnv == "production"
}

// StoreOptions translates the storage settings for kv.Open.
func (c *Config) StoreOptions() kv.Options {
	return kv.Options{
		Kind:       c.StoreBackend,
		Dir:        c.StoreDir,
		RedisAddr:  c.RedisAddr,
		SQLitePath: c.SQLitePath,
		PGDSN:      c.PGDSN,
		KeyPrefix:  c.StoreKeyPrefix,
	}
}
