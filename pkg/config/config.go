// Package config provides environment-based configuration for the domain registry.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Store drivers.
const (
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

// Config holds all configuration for the domain registry.
type Config struct {
	// Storage
	StoreDriver string `yaml:"store_driver"`
	DatabaseDSN string `yaml:"database_url"`
	// SeedFile names a YAML file of users and apps loaded at startup.
	SeedFile string `yaml:"seed_file"`

	// Authentication
	JWTSecret    string        `yaml:"jwt_secret"`
	JWTExpiry    time.Duration `yaml:"jwt_expiry"`
	APIKeyHeader string        `yaml:"api_key_header"`

	// Server configuration
	APIPort         int           `yaml:"api_port"`
	APIHost         string        `yaml:"api_host"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`

	// Logging
	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"`

	// Change notifications
	Redis RedisConfig `yaml:"redis"`

	// ReservedDomainSuffixes are platform-owned names customers cannot claim.
	ReservedDomainSuffixes []string `yaml:"reserved_domain_suffixes"`
}

// RedisConfig holds the pub/sub connection. An empty Addr disables it.
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// Defaults returns the built-in configuration.
func Defaults() *Config {
	return &Config{
		StoreDriver:     DriverPostgres,
		DatabaseDSN:     "postgres://localhost:5432/domains?sslmode=disable",
		JWTExpiry:       24 * time.Hour,
		APIKeyHeader:    "X-API-Key",
		APIPort:         8080,
		APIHost:         "0.0.0.0",
		ShutdownTimeout: 30 * time.Second,
		LogLevel:        "info",
		LogFormat:       "json",
	}
}

// Load builds the configuration from defaults, the YAML file named by
// CONFIG_FILE if set, and finally environment variables, and validates it.
func Load() (*Config, error) {
	cfg := Defaults()

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := cfg.LoadFile(path); err != nil {
			return nil, err
		}
	}
	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadFile overlays the values present in a YAML file.
func (c *Config) LoadFile(path string) error {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}
	return nil
}

func (c *Config) applyEnv() {
	c.StoreDriver = getEnv("STORE_DRIVER", c.StoreDriver)
	c.DatabaseDSN = getEnv("DATABASE_URL", c.DatabaseDSN)
	c.SeedFile = getEnv("SEED_FILE", c.SeedFile)
	c.JWTSecret = getEnv("JWT_SECRET", c.JWTSecret)
	c.JWTExpiry = getDurationEnv("JWT_EXPIRY", c.JWTExpiry)
	c.APIKeyHeader = getEnv("API_KEY_HEADER", c.APIKeyHeader)
	c.APIPort = getIntEnv("API_PORT", c.APIPort)
	c.APIHost = getEnv("API_HOST", c.APIHost)
	c.ShutdownTimeout = getDurationEnv("SHUTDOWN_TIMEOUT", c.ShutdownTimeout)
	c.LogLevel = getEnv("LOG_LEVEL", c.LogLevel)
	c.LogFormat = getEnv("LOG_FORMAT", c.LogFormat)
	c.Redis.Addr = getEnv("REDIS_ADDR", c.Redis.Addr)
	c.Redis.Password = getEnv("REDIS_PASSWORD", c.Redis.Password)
	c.Redis.DB = getIntEnv("REDIS_DB", c.Redis.DB)
	c.ReservedDomainSuffixes = getListEnv("RESERVED_DOMAIN_SUFFIXES", c.ReservedDomainSuffixes)
}

// Validate checks that required configuration values are set.
func (c *Config) Validate() error {
	if c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}
	if len(c.JWTSecret) < 32 {
		return fmt.Errorf("JWT_SECRET must be at least 32 characters")
	}
	switch c.StoreDriver {
	case DriverPostgres:
		if c.DatabaseDSN == "" {
			return fmt.Errorf("DATABASE_URL is required for the postgres store")
		}
	case DriverMemory:
	default:
		return fmt.Errorf("STORE_DRIVER must be %q or %q, got %q", DriverPostgres, DriverMemory, c.StoreDriver)
	}
	if c.APIPort <= 0 || c.APIPort > 65535 {
		return fmt.Errorf("API_PORT must be between 1 and 65535")
	}
	return nil
}

// LoadWithDefaults loads configuration with defaults for development.
// It does not validate required fields, useful for testing.
func LoadWithDefaults() *Config {
	cfg := Defaults()
	cfg.StoreDriver = DriverMemory
	cfg.JWTSecret = "development-secret-key-min-32-chars"
	cfg.applyEnv()
	return cfg
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func getListEnv(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
