// Package config materializes the runtime configuration from the
// environment, optionally seeded from a .env file.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
)

// Config represents the full application configuration surface.
type Config struct {
	Server   ServerConfig
	Storage  StorageConfig
	Sessions SessionConfig
}

// ServerConfig holds HTTP server related options.
type ServerConfig struct {
	Addr string
}

// StorageConfig locates the sqlite database file.
type StorageConfig struct {
	SQLitePath string
}

// SessionConfig controls login session lifetime and cleanup.
type SessionConfig struct {
	TTLHours      int
	SweepSchedule string
}

// Load reads environment variables (optionally from the provided file)
// and materializes a Config instance.
func Load(envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			if !errors.Is(err, os.ErrNotExist) {
				return nil, fmt.Errorf("failed loading env file %s: %w", envFile, err)
			}
		}
	} else {
		// Missing .env files are acceptable when configuration comes
		// from the environment directly.
		_ = godotenv.Load()
	}

	ttlRaw := getenvWithDefault("STONEYARD_SESSION_TTL_HOURS", "12")
	ttl, err := strconv.Atoi(ttlRaw)
	if err != nil {
		return nil, fmt.Errorf("STONEYARD_SESSION_TTL_HOURS must be an integer, got %q", ttlRaw)
	}

	cfg := &Config{
		Server: ServerConfig{
			Addr: getenvWithDefault("STONEYARD_ADDR", ":8080"),
		},
		Storage: StorageConfig{
			SQLitePath: getenvWithDefault("STONEYARD_DB", "stoneyard.db"),
		},
		Sessions: SessionConfig{
			TTLHours:      ttl,
			SweepSchedule: getenvWithDefault("STONEYARD_SESSION_SWEEP_CRON", "11 * * * *"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate ensures that required configuration fields are populated
// and well formed.
func (c *Config) Validate() error {
	if c == nil {
		return errors.New("config is nil")
	}
	if c.Server.Addr == "" {
		return errors.New("STONEYARD_ADDR must be provided")
	}
	if c.Storage.SQLitePath == "" {
		return errors.New("STONEYARD_DB must be provided")
	}
	if c.Sessions.TTLHours <= 0 {
		return errors.New("STONEYARD_SESSION_TTL_HOURS must be positive")
	}
	if _, err := cron.ParseStandard(c.Sessions.SweepSchedule); err != nil {
		return fmt.Errorf("STONEYARD_SESSION_SWEEP_CRON is not a valid schedule: %w", err)
	}
	return nil
}

func getenvWithDefault(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
