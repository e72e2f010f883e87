package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("CONFIG_FILE", "")
	t.Setenv("JWT_SECRET", testSecret)
	t.Setenv("STORE_DRIVER", "memory")
	t.Setenv("API_PORT", "9000")
	t.Setenv("JWT_EXPIRY", "2h")
	t.Setenv("REDIS_ADDR", "localhost:6379")
	t.Setenv("RESERVED_DOMAIN_SUFFIXES", "apps.example.net, ,internal.example.net")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, DriverMemory, cfg.StoreDriver)
	assert.Equal(t, 9000, cfg.APIPort)
	assert.Equal(t, 2*time.Hour, cfg.JWTExpiry)
	assert.Equal(t, "localhost:6379", cfg.Redis.Addr)
	assert.Equal(t, []string{"apps.example.net", "internal.example.net"}, cfg.ReservedDomainSuffixes)
	assert.Equal(t, "X-API-Key", cfg.APIKeyHeader)
}

func TestLoadFileThenEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
store_driver: memory
jwt_secret: `+testSecret+`
shutdown_timeout: 5s
log_level: debug
redis:
  addr: redis:6379
  db: 2
reserved_domain_suffixes:
  - apps.example.net
`), 0o600))

	t.Setenv("CONFIG_FILE", path)
	t.Setenv("LOG_LEVEL", "warn")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, DriverMemory, cfg.StoreDriver)
	assert.Equal(t, 5*time.Second, cfg.ShutdownTimeout)
	assert.Equal(t, "warn", cfg.LogLevel)
	assert.Equal(t, "redis:6379", cfg.Redis.Addr)
	assert.Equal(t, 2, cfg.Redis.DB)
	assert.Equal(t, []string{"apps.example.net"}, cfg.ReservedDomainSuffixes)
	assert.Equal(t, 8080, cfg.APIPort)
}

func TestLoadMissingFile(t *testing.T) {
	t.Setenv("CONFIG_FILE", filepath.Join(t.TempDir(), "missing.yaml"))
	_, err := Load()
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"valid", func(c *Config) {}, false},
		{"missing secret", func(c *Config) { c.JWTSecret = "" }, true},
		{"short secret", func(c *Config) { c.JWTSecret = "short" }, true},
		{"unknown driver", func(c *Config) { c.StoreDriver = "sqlite" }, true},
		{"postgres without dsn", func(c *Config) { c.StoreDriver = DriverPostgres; c.DatabaseDSN = "" }, true},
		{"memory without dsn", func(c *Config) { c.StoreDriver = DriverMemory; c.DatabaseDSN = "" }, false},
		{"bad port", func(c *Config) { c.APIPort = 0 }, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Defaults()
			cfg.JWTSecret = testSecret
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
