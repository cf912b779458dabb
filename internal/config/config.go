// Package config provides configuration management for the farmer lookup API.
// It loads configuration from environment variables and .env files.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Lookup    LookupConfig
	RateLimit RateLimitConfig
	Logging   LoggingConfig
	Metrics   MetricsConfig
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Port         string
	Host         string
	MaxBodyBytes int64
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Postgres PostgresConfig
	Redis    RedisConfig
}

// PostgresConfig holds Postgres configuration
type PostgresConfig struct {
	Host           string
	Port           string
	Database       string
	User           string
	Password       string
	SSLMode        string
	MaxConnections int
	IdleTimeout    time.Duration
}

// RedisConfig holds Redis configuration.
// An empty Host means Redis is not used.
type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
}

// Enabled reports whether a Redis host was configured
func (c RedisConfig) Enabled() bool {
	return c.Host != ""
}

// LookupConfig holds farmer lookup configuration
type LookupConfig struct {
	Table            string
	MaxBulkAddresses int
}

// RateLimitConfig holds per-client rate limiting configuration
type RateLimitConfig struct {
	Enabled     bool
	MaxRequests int
	Window      time.Duration
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string
	Format string
}

// MetricsConfig holds the metrics listener configuration
type MetricsConfig struct {
	Addr string
}

// LoadConfig loads configuration from .env file and environment variables
func LoadConfig() (*Config, error) {
	// Load .env file (optional in production)
	if err := godotenv.Load(); err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("error loading .env file: %w", err)
		}
	}

	config := &Config{
		Server: ServerConfig{
			Port:         getEnv("SERVER_PORT", getEnv("PORT", "3000")),
			Host:         getEnv("SERVER_HOST", "0.0.0.0"),
			MaxBodyBytes: int64(getEnvAsInt("MAX_BODY_BYTES", 100*1024)),
		},
		Database: DatabaseConfig{
			Postgres: PostgresConfig{
				Host:           getEnv("POSTGRES_HOST", "localhost"),
				Port:           getEnv("POSTGRES_PORT", "5432"),
				Database:       getEnv("POSTGRES_DB", "farmers"),
				User:           getEnv("POSTGRES_USER", "farmer_api"),
				Password:       getEnv("POSTGRES_PASSWORD", ""),
				SSLMode:        getEnv("POSTGRES_SSLMODE", "disable"),
				MaxConnections: getEnvAsInt("POSTGRES_MAX_CONNECTIONS", 10),
				IdleTimeout:    getEnvAsDuration("POSTGRES_IDLE_TIMEOUT", 30*time.Second),
			},
			Redis: RedisConfig{
				Host:     getEnv("REDIS_HOST", ""),
				Port:     getEnv("REDIS_PORT", "6379"),
				Password: getEnv("REDIS_PASSWORD", ""),
				DB:       getEnvAsInt("REDIS_DB", 0),
			},
		},
		Lookup: LookupConfig{
			Table:            getEnv("FARMER_TABLE", "farmers"),
			MaxBulkAddresses: getEnvAsInt("MAX_BULK_ADDRESSES", 10000),
		},
		RateLimit: RateLimitConfig{
			Enabled:     getEnvAsBool("RATE_LIMIT_ENABLED", true),
			MaxRequests: getEnvAsInt("RATE_LIMIT_MAX", 100),
			Window:      getEnvAsDuration("RATE_LIMIT_WINDOW", 15*time.Minute),
		},
		Logging: LoggingConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
		Metrics: MetricsConfig{
			Addr: getEnvAllowEmpty("METRICS_ADDR", ":9090"),
		},
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// Validate checks values that would otherwise fail late at runtime
func (c *Config) Validate() error {
	if c.Lookup.Table == "" {
		return fmt.Errorf("FARMER_TABLE must not be empty")
	}
	if c.Database.Postgres.MaxConnections < 1 {
		return fmt.Errorf("POSTGRES_MAX_CONNECTIONS must be at least 1, got %d", c.Database.Postgres.MaxConnections)
	}
	if c.Lookup.MaxBulkAddresses < 1 {
		return fmt.Errorf("MAX_BULK_ADDRESSES must be at least 1, got %d", c.Lookup.MaxBulkAddresses)
	}
	if c.RateLimit.Enabled && (c.RateLimit.MaxRequests < 1 || c.RateLimit.Window <= 0) {
		return fmt.Errorf("rate limit requires RATE_LIMIT_MAX >= 1 and a positive RATE_LIMIT_WINDOW")
	}
	return nil
}

// getEnv gets an environment variable with a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAllowEmpty is like getEnv but an explicitly empty variable wins over the default
func getEnvAllowEmpty(key, defaultValue string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return defaultValue
}

// getEnvAsInt gets an environment variable as an integer with a default value
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

// getEnvAsBool gets an environment variable as a boolean with a default value
func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

// getEnvAsDuration gets an environment variable as a duration with a default value
func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}

	value, err := time.ParseDuration(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}
