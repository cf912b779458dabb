package config

import (
	"os"
	"testing"
	"time"
)

func TestLoadConfig(t *testing.T) {
	// Set some test environment variables
	if err := os.Setenv("SERVER_PORT", "9090"); err != nil {
		t.Fatalf("Failed to set SERVER_PORT: %v", err)
	}
	if err := os.Setenv("POSTGRES_HOST", "testhost"); err != nil {
		t.Fatalf("Failed to set POSTGRES_HOST: %v", err)
	}
	if err := os.Setenv("RATE_LIMIT_WINDOW", "1m"); err != nil {
		t.Fatalf("Failed to set RATE_LIMIT_WINDOW: %v", err)
	}
	defer func() {
		_ = os.Unsetenv("SERVER_PORT")
		_ = os.Unsetenv("POSTGRES_HOST")
		_ = os.Unsetenv("RATE_LIMIT_WINDOW")
	}()

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}

	if cfg.Server.Port != "9090" {
		t.Errorf("Server.Port = %v, want %v", cfg.Server.Port, "9090")
	}

	if cfg.Database.Postgres.Host != "testhost" {
		t.Errorf("Database.Postgres.Host = %v, want %v", cfg.Database.Postgres.Host, "testhost")
	}

	if cfg.RateLimit.Window != time.Minute {
		t.Errorf("RateLimit.Window = %v, want %v", cfg.RateLimit.Window, time.Minute)
	}
}

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}

	if cfg.Server.Port != "3000" {
		t.Errorf("Server.Port = %v, want 3000", cfg.Server.Port)
	}
	if cfg.Database.Postgres.MaxConnections != 10 {
		t.Errorf("Postgres.MaxConnections = %v, want 10", cfg.Database.Postgres.MaxConnections)
	}
	if cfg.Database.Postgres.IdleTimeout != 30*time.Second {
		t.Errorf("Postgres.IdleTimeout = %v, want 30s", cfg.Database.Postgres.IdleTimeout)
	}
	if cfg.Database.Redis.Enabled() {
		t.Error("Redis should be disabled without REDIS_HOST")
	}
	if cfg.RateLimit.MaxRequests != 100 || cfg.RateLimit.Window != 15*time.Minute {
		t.Errorf("RateLimit = %+v, want 100 per 15m", cfg.RateLimit)
	}
	if cfg.Server.MaxBodyBytes != 100*1024 {
		t.Errorf("Server.MaxBodyBytes = %v, want %v", cfg.Server.MaxBodyBytes, 100*1024)
	}
}

func TestLoadConfig_PortFallback(t *testing.T) {
	t.Setenv("PORT", "4000")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}
	if cfg.Server.Port != "4000" {
		t.Errorf("Server.Port = %v, want 4000", cfg.Server.Port)
	}
}

func TestLoadConfig_EmptyMetricsAddrDisables(t *testing.T) {
	t.Setenv("METRICS_ADDR", "")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}
	if cfg.Metrics.Addr != "" {
		t.Errorf("Metrics.Addr = %q, want empty", cfg.Metrics.Addr)
	}
}

func TestConfigValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Database:  DatabaseConfig{Postgres: PostgresConfig{MaxConnections: 10}},
			Lookup:    LookupConfig{Table: "farmers", MaxBulkAddresses: 10},
			RateLimit: RateLimitConfig{Enabled: true, MaxRequests: 100, Window: time.Minute},
		}
	}

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
	}{
		{name: "valid", mutate: func(c *Config) {}},
		{name: "empty table", mutate: func(c *Config) { c.Lookup.Table = "" }, wantErr: true},
		{name: "zero pool size", mutate: func(c *Config) { c.Database.Postgres.MaxConnections = 0 }, wantErr: true},
		{name: "zero bulk cap", mutate: func(c *Config) { c.Lookup.MaxBulkAddresses = 0 }, wantErr: true},
		{name: "zero rate window", mutate: func(c *Config) { c.RateLimit.Window = 0 }, wantErr: true},
		{
			name: "rate limit disabled ignores window",
			mutate: func(c *Config) {
				c.RateLimit.Enabled = false
				c.RateLimit.Window = 0
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestGetEnv(t *testing.T) {
	tests := []struct {
		name         string
		key          string
		defaultValue string
		envValue     string
		want         string
	}{
		{
			name:         "returns environment variable when set",
			key:          "TEST_KEY",
			defaultValue: "default",
			envValue:     "custom",
			want:         "custom",
		},
		{
			name:         "returns default when environment variable not set",
			key:          "NONEXISTENT_KEY",
			defaultValue: "default",
			envValue:     "",
			want:         "default",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.envValue != "" {
				t.Setenv(tt.key, tt.envValue)
			}

			got := getEnv(tt.key, tt.defaultValue)
			if got != tt.want {
				t.Errorf("getEnv() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestGetEnvAsInt(t *testing.T) {
	tests := []struct {
		name         string
		key          string
		defaultValue int
		envValue     string
		want         int
	}{
		{
			name:         "returns integer when valid",
			key:          "TEST_INT",
			defaultValue: 100,
			envValue:     "200",
			want:         200,
		},
		{
			name:         "returns default when invalid",
			key:          "TEST_INT_INVALID",
			defaultValue: 100,
			envValue:     "invalid",
			want:         100,
		},
		{
			name:         "returns default when not set",
			key:          "TEST_INT_NOTSET",
			defaultValue: 100,
			envValue:     "",
			want:         100,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.envValue != "" {
				t.Setenv(tt.key, tt.envValue)
			}

			got := getEnvAsInt(tt.key, tt.defaultValue)
			if got != tt.want {
				t.Errorf("getEnvAsInt() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestGetEnvAsBool(t *testing.T) {
	tests := []struct {
		name         string
		envValue     string
		defaultValue bool
		want         bool
	}{
		{name: "parses false", envValue: "false", defaultValue: true, want: false},
		{name: "parses 1", envValue: "1", defaultValue: false, want: true},
		{name: "invalid keeps default", envValue: "maybe", defaultValue: true, want: true},
		{name: "unset keeps default", envValue: "", defaultValue: false, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.envValue != "" {
				t.Setenv("TEST_BOOL", tt.envValue)
			}

			if got := getEnvAsBool("TEST_BOOL", tt.defaultValue); got != tt.want {
				t.Errorf("getEnvAsBool() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestGetEnvAsDuration(t *testing.T) {
	tests := []struct {
		name         string
		key          string
		defaultValue time.Duration
		envValue     string
		want         time.Duration
	}{
		{
			name:         "returns duration when valid",
			key:          "TEST_DURATION",
			defaultValue: 10 * time.Second,
			envValue:     "30s",
			want:         30 * time.Second,
		},
		{
			name:         "returns default when invalid",
			key:          "TEST_DURATION_INVALID",
			defaultValue: 10 * time.Second,
			envValue:     "invalid",
			want:         10 * time.Second,
		},
		{
			name:         "returns default when not set",
			key:          "TEST_DURATION_NOTSET",
			defaultValue: 10 * time.Second,
			envValue:     "",
			want:         10 * time.Second,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.envValue != "" {
				t.Setenv(tt.key, tt.envValue)
			}

			got := getEnvAsDuration(tt.key, tt.defaultValue)
			if got != tt.want {
				t.Errorf("getEnvAsDuration() = %v, want %v", got, tt.want)
			}
		})
	}
}
