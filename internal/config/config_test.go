package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "familysync.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, DriverSQLite, cfg.Storage.Driver)
	assert.Equal(t, 720*time.Hour, cfg.GetTokenTTL())
	assert.Equal(t, 10, cfg.Families.CodeMaxAttempts)
}

func TestLoad_FileThenEnv(t *testing.T) {
	path := writeConfig(t, `
server:
  addr: ":9090"
storage:
  driver: postgres
  database_url: postgres://file/db
realtime:
  redis_url: redis://file:6379/0
auth:
  jwt_secret: from-file
  allow_dev_secret: false
families:
  code_max_attempts: 4
`)
	t.Setenv("DATABASE_URL", "postgres://env/db")
	t.Setenv("LOG_FORMAT", "json")
	t.Setenv("CODE_MAX_ATTEMPTS", "7")

	cfg, err := Load(path)
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, ":9090", cfg.Server.Addr)
	assert.Equal(t, DriverPostgres, cfg.Storage.Driver)
	assert.Equal(t, "postgres://env/db", cfg.Storage.DatabaseURL)
	assert.Equal(t, "redis://file:6379/0", cfg.Realtime.RedisURL)
	assert.Equal(t, "from-file", cfg.Auth.JWTSecret)
	assert.Equal(t, "json", cfg.Logging.Format)
	assert.Equal(t, 7, cfg.Families.CodeMaxAttempts)
	// Untouched sections keep their defaults.
	assert.Equal(t, 5, cfg.Storage.MaxRetries)
}

func TestLoad_Errors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	_, err = Load(writeConfig(t, "server: [not, a, map"))
	assert.Error(t, err)

	t.Setenv("CODE_MAX_ATTEMPTS", "many")
	_, err = Load("")
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"unknown driver", func(c *Config) { c.Storage.Driver = "mongo" }},
		{"sqlite without path", func(c *Config) { c.Storage.Path = "" }},
		{"postgres without url", func(c *Config) { c.Storage.Driver = DriverPostgres }},
		{"empty secret", func(c *Config) { c.Auth.JWTSecret = "" }},
		{"dev secret disallowed", func(c *Config) { c.Auth.AllowDevSecret = false }},
		{"bad ttl", func(c *Config) { c.Auth.TokenTTL = "forever" }},
		{"negative resync", func(c *Config) { c.Realtime.ResyncInterval = "-1s" }},
		{"bad log format", func(c *Config) { c.Logging.Format = "xml" }},
		{"no code attempts", func(c *Config) { c.Families.CodeMaxAttempts = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestJWTSecretFromEnvDisablesDevSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "s3cret")
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "s3cret", cfg.Auth.JWTSecret)
	assert.False(t, cfg.Auth.AllowDevSecret)
	assert.NoError(t, cfg.Validate())
}
