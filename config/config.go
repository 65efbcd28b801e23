// Package config loads service settings from the environment.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds every setting the service reads at startup.
type Config struct {
	HTTPAddr        string
	DataDir         string
	UploadDir       string
	NumWorkers      int
	PollInterval    time.Duration
	DBDriver        string
	DBPath          string
	DatabaseURL     string
	RedisURL        string
	DividerCacheTTL time.Duration
	MaxUploadBytes  int64
	LogLevel        string
}

// Load reads the configuration from environment variables, falling back to
// defaults for anything unset.
func Load() (*Config, error) {
	v := viper.New()
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.SetDefault("HTTP_ADDR", ":8080")
	v.SetDefault("DATA_DIR", ".data")
	v.SetDefault("UPLOAD_DIR", ".uploads")
	v.SetDefault("NUM_WORKERS", 4)
	v.SetDefault("POLL_INTERVAL", 5*time.Second)
	v.SetDefault("DB_DRIVER", "sqlite")
	v.SetDefault("DB_PATH", "budget.db")
	v.SetDefault("DATABASE_URL", "")
	v.SetDefault("REDIS_URL", "")
	v.SetDefault("DIVIDER_CACHE_TTL", 10*time.Minute)
	v.SetDefault("MAX_UPLOAD_BYTES", 10<<20)
	v.SetDefault("LOG_LEVEL", "info")

	cfg := &Config{
		HTTPAddr:        v.GetString("HTTP_ADDR"),
		DataDir:         v.GetString("DATA_DIR"),
		UploadDir:       v.GetString("UPLOAD_DIR"),
		NumWorkers:      v.GetInt("NUM_WORKERS"),
		PollInterval:    v.GetDuration("POLL_INTERVAL"),
		DBDriver:        strings.ToLower(v.GetString("DB_DRIVER")),
		DBPath:          v.GetString("DB_PATH"),
		DatabaseURL:     v.GetString("DATABASE_URL"),
		RedisURL:        v.GetString("REDIS_URL"),
		DividerCacheTTL: v.GetDuration("DIVIDER_CACHE_TTL"),
		MaxUploadBytes:  v.GetInt64("MAX_UPLOAD_BYTES"),
		LogLevel:        v.GetString("LOG_LEVEL"),
	}
	return cfg, cfg.validate()
}

func (c *Config) validate() error {
	switch c.DBDriver {
	case "sqlite":
	case "postgres":
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required when DB_DRIVER=postgres")
		}
	default:
		return fmt.Errorf("unsupported DB_DRIVER %q", c.DBDriver)
	}
	if c.NumWorkers < 1 {
		return fmt.Errorf("NUM_WORKERS must be at least 1, got %d", c.NumWorkers)
	}
	if c.PollInterval <= 0 {
		return fmt.Errorf("POLL_INTERVAL must be positive, got %s", c.PollInterval)
	}
	if c.MaxUploadBytes <= 0 {
		return fmt.Errorf("MAX_UPLOAD_BYTES must be positive, got %d", c.MaxUploadBytes)
	}
	return nil
}
