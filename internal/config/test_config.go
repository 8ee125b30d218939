package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// LoadTestConfig loads the database settings for integration tests from TEST_DB_* variables.
// Unset variables are left empty, so tests can fall back to a default DSN or skip.
func LoadTestConfig() (*Config, error) {
	// Both paths are optional
	_ = godotenv.Load("./../../.env")
	_ = godotenv.Load()

	cfg := &Config{}
	if err := env.ParseWithOptions(&cfg.Database, env.Options{Prefix: "TEST_DB_"}); err != nil {
		return nil, fmt.Errorf("failed to parse test config: %w", err)
	}
	if cfg.Database.Host == "" || cfg.Database.User == "" || cfg.Database.DBName == "" {
		return &Config{}, nil
	}
	return cfg, nil
}

// HasDatabase reports whether a test database is configured
func (c *Config) HasDatabase() bool {
	return c.Database.Host != ""
}
