// Package config loads familysync settings: defaults, then an optional YAML
// file, then environment overrides.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Storage drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// DevJWTSecret is the default signing secret. Validate rejects it unless
// AllowDevSecret is set.
const DevJWTSecret = "familysync-dev-secret"

// Config holds all familysync settings.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Storage  StorageConfig  `yaml:"storage"`
	Realtime RealtimeConfig `yaml:"realtime"`
	Auth     AuthConfig     `yaml:"auth"`
	Logging  LoggingConfig  `yaml:"logging"`
	Families FamiliesConfig `yaml:"families"`
}

type ServerConfig struct {
	Addr            string `yaml:"addr"`
	ShutdownTimeout string `yaml:"shutdown_timeout"`
}

type StorageConfig struct {
	Driver      string `yaml:"driver"` // sqlite, postgres
	Path        string `yaml:"path"`   // sqlite database file
	DatabaseURL string `yaml:"database_url"`
	MaxRetries  int    `yaml:"max_retries"`
}

type RealtimeConfig struct {
	// RedisURL enables the Redis change feed. Empty keeps notifications in
	// process, which only works for a single server instance.
	RedisURL       string `yaml:"redis_url"`
	ChannelPrefix  string `yaml:"channel_prefix"`
	ResyncInterval string `yaml:"resync_interval"`
}

type AuthConfig struct {
	JWTSecret      string `yaml:"jwt_secret"`
	TokenTTL       string `yaml:"token_ttl"`
	AllowDevSecret bool   `yaml:"allow_dev_secret"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // text, json
}

type FamiliesConfig struct {
	CodeMaxAttempts int `yaml:"code_max_attempts"`
}

// DefaultConfig returns settings for a local single-instance server.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:            ":8080",
			ShutdownTimeout: "10s",
		},
		Storage: StorageConfig{
			Driver:     DriverSQLite,
			Path:       "./data/familysync.db",
			MaxRetries: 5,
		},
		Realtime: RealtimeConfig{
			ChannelPrefix:  "familysync:",
			ResyncInterval: "5s",
		},
		Auth: AuthConfig{
			JWTSecret:      DevJWTSecret,
			TokenTTL:       "720h",
			AllowDevSecret: true,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
		Families: FamiliesConfig{
			CodeMaxAttempts: 10,
		},
	}
}

// Load reads path (skipped when empty) over the defaults and applies
// environment overrides.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	}

	if err := cfg.applyEnvOverrides(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func (c *Config) applyEnvOverrides() error {
	c.Server.Addr = getEnv("FAMILYSYNC_ADDR", c.Server.Addr)
	c.Storage.Driver = getEnv("DB_DRIVER", c.Storage.Driver)
	c.Storage.Path = getEnv("DB_PATH", c.Storage.Path)
	c.Storage.DatabaseURL = getEnv("DATABASE_URL", c.Storage.DatabaseURL)
	c.Realtime.RedisURL = getEnv("REDIS_URL", c.Realtime.RedisURL)
	c.Auth.TokenTTL = getEnv("TOKEN_TTL", c.Auth.TokenTTL)
	c.Logging.Level = getEnv("LOG_LEVEL", c.Logging.Level)
	c.Logging.Format = getEnv("LOG_FORMAT", c.Logging.Format)

	if secret := os.Getenv("JWT_SECRET"); secret != "" {
		c.Auth.JWTSecret = secret
		c.Auth.AllowDevSecret = false
	}
	if v := os.Getenv("CODE_MAX_ATTEMPTS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("CODE_MAX_ATTEMPTS: %w", err)
		}
		c.Families.CodeMaxAttempts = n
	}
	return nil
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	var errs []error

	switch c.Storage.Driver {
	case DriverSQLite:
		if c.Storage.Path == "" {
			errs = append(errs, errors.New("storage.path is required for sqlite"))
		}
	case DriverPostgres:
		if c.Storage.DatabaseURL == "" {
			errs = append(errs, errors.New("storage.database_url is required for postgres"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown storage driver %q", c.Storage.Driver))
	}
	if c.Storage.MaxRetries < 0 {
		errs = append(errs, errors.New("storage.max_retries must not be negative"))
	}

	if c.Auth.JWTSecret == "" {
		errs = append(errs, errors.New("auth.jwt_secret is required"))
	} else if c.Auth.JWTSecret == DevJWTSecret && !c.Auth.AllowDevSecret {
		errs = append(errs, errors.New("auth.jwt_secret must be changed from the development default"))
	}

	for name, value := range map[string]string{
		"server.shutdown_timeout":  c.Server.ShutdownTimeout,
		"auth.token_ttl":           c.Auth.TokenTTL,
		"realtime.resync_interval": c.Realtime.ResyncInterval,
	} {
		if d, err := time.ParseDuration(value); err != nil || d <= 0 {
			errs = append(errs, fmt.Errorf("%s: invalid duration %q", name, value))
		}
	}

	switch c.Logging.Format {
	case "text", "json":
	default:
		errs = append(errs, fmt.Errorf("unknown logging format %q", c.Logging.Format))
	}

	if c.Families.CodeMaxAttempts < 1 {
		errs = append(errs, errors.New("families.code_max_attempts must be at least 1"))
	}

	return errors.Join(errs...)
}

// GetShutdownTimeout returns the shutdown timeout as a duration.
func (c *Config) GetShutdownTimeout() time.Duration {
	return mustDuration(c.Server.ShutdownTimeout, 10*time.Second)
}

// GetTokenTTL returns the token lifetime as a duration.
func (c *Config) GetTokenTTL() time.Duration {
	return mustDuration(c.Auth.TokenTTL, 720*time.Hour)
}

// GetResyncInterval returns the sync resync interval as a duration.
func (c *Config) GetResyncInterval() time.Duration {
	return mustDuration(c.Realtime.ResyncInterval, 5*time.Second)
}

func mustDuration(value string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(value)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}
