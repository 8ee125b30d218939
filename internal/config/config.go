// Package config provides configuration for the application
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Backend selects where users and works live
type Backend string

// Backend constants
const (
	BackendRemote Backend = "remote"
	BackendLocal  Backend = "local"
)

// Store selects the key-value store holding sessions and local data
type Store string

// Store constants
const (
	StoreMySQL Store = "mysql"
	StoreRedis Store = "redis"
)

// Config holds all configuration for the application
type Config struct {
	Server   ServerConfig   `envPrefix:"SERVER_"`
	Logging  LoggingConfig  `envPrefix:"LOG_"`
	CORS     CORSConfig     `envPrefix:"CORS_"`
	Remote   RemoteConfig   `envPrefix:"REMOTE_"`
	Database DatabaseConfig `envPrefix:"DB_"`
	Redis    RedisConfig    `envPrefix:"REDIS_"`

	Backend Backend `env:"BACKEND" envDefault:"remote"`
	Store   Store   `env:"STORE" envDefault:"mysql"`

	// AdminSecret unlocks admin mode in the UI. Empty disables admin mode.
	AdminSecret string `env:"ADMIN_SECRET"`
	// Seed fills an empty local backend with mock users and works at startup
	Seed bool `env:"SEED" envDefault:"true"`
}

// ServerConfig holds server settings
type ServerConfig struct {
	Port           int           `env:"PORT" envDefault:"8080"`
	SecureCookies  bool          `env:"SECURE_COOKIES" envDefault:"false"`
	RateLimit      int           `env:"RATE_LIMIT" envDefault:"100"`
	MaxBodyBytes   int64         `env:"MAX_BODY_BYTES" envDefault:"12582912"`
	SessionIdle    time.Duration `env:"SESSION_IDLE" envDefault:"30m"`
	SweepInterval  time.Duration `env:"SWEEP_INTERVAL" envDefault:"5m"`
	ShutdownPeriod time.Duration `env:"SHUTDOWN_PERIOD" envDefault:"30s"`
}

// LoggingConfig holds logging settings
type LoggingConfig struct {
	Level string `env:"LEVEL" envDefault:"info"`
}

// CORSConfig holds CORS settings
type CORSConfig struct {
	AllowedOrigins []string `env:"ALLOWED_ORIGINS" envSeparator:"," envDefault:"*"`
}

// RemoteConfig holds the endpoints of the remote auth and portfolio services
type RemoteConfig struct {
	AuthURL      string        `env:"AUTH_URL"`
	PortfolioURL string        `env:"PORTFOLIO_URL"`
	Timeout      time.Duration `env:"TIMEOUT" envDefault:"15s"`
}

// DatabaseConfig holds database connection settings
type DatabaseConfig struct {
	Host     string `env:"HOST"`
	Port     int    `env:"PORT" envDefault:"3306"`
	User     string `env:"USER"`
	Password string `env:"PASSWORD"`
	DBName   string `env:"NAME"`
}

// RedisConfig holds Redis connection settings
type RedisConfig struct {
	Addr     string        `env:"ADDR" envDefault:"localhost:6379"`
	Password string        `env:"PASSWORD"`
	DB       int           `env:"DB" envDefault:"0"`
	TTL      time.Duration `env:"TTL" envDefault:"0s"`
}

// Load reads configuration from environment variables.
// A .env file in the working directory is loaded first when present.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		var pathErr *os.PathError
		if !errors.As(err, &pathErr) {
			return nil, fmt.Errorf("failed to load .env file: %w", err)
		}
	}

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	cfg.CORS.AllowedOrigins = trimAll(cfg.CORS.AllowedOrigins)
	if len(cfg.CORS.AllowedOrigins) == 0 {
		cfg.CORS.AllowedOrigins = []string{"*"}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that the settings the selected backend and store need are present
func (c *Config) Validate() error {
	var errs []error

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("invalid SERVER_PORT: %d", c.Server.Port))
	}
	if c.Server.RateLimit <= 0 {
		errs = append(errs, fmt.Errorf("SERVER_RATE_LIMIT must be positive"))
	}

	switch c.Backend {
	case BackendRemote:
		if err := validateURL("REMOTE_AUTH_URL", c.Remote.AuthURL); err != nil {
			errs = append(errs, err)
		}
		if err := validateURL("REMOTE_PORTFOLIO_URL", c.Remote.PortfolioURL); err != nil {
			errs = append(errs, err)
		}
	case BackendLocal:
	default:
		errs = append(errs, fmt.Errorf("invalid BACKEND %q: must be %q or %q", c.Backend, BackendRemote, BackendLocal))
	}

	switch c.Store {
	case StoreMySQL:
		if c.Database.Host == "" {
			errs = append(errs, errors.New("DB_HOST is required"))
		}
		if c.Database.User == "" {
			errs = append(errs, errors.New("DB_USER is required"))
		}
		if c.Database.DBName == "" {
			errs = append(errs, errors.New("DB_NAME is required"))
		}
	case StoreRedis:
		if c.Redis.Addr == "" {
			errs = append(errs, errors.New("REDIS_ADDR is required"))
		}
	default:
		errs = append(errs, fmt.Errorf("invalid STORE %q: must be %q or %q", c.Store, StoreMySQL, StoreRedis))
	}

	return errors.Join(errs...)
}

// DSN returns the database connection string
func (c *Config) DSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?parseTime=true&charset=utf8mb4",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.DBName,
	)
}

// PersistAdmin reports whether admin elevation survives a restart.
// Only the local backend keeps it, as the admin flag is then part of the local data.
func (c *Config) PersistAdmin() bool {
	return c.Backend == BackendLocal
}

func validateURL(name, raw string) error {
	if raw == "" {
		return fmt.Errorf("%s is required", name)
	}
	u, err := url.Parse(raw)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("invalid %s: %q", name, raw)
	}
	return nil
}

func trimAll(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
