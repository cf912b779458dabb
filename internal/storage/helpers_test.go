package storage

import (
	"context"
	"testing"
	"time"

	"github.com/xrpl-farmer-api/internal/config"
)

// testContext creates a context with timeout for tests
func testContext(t *testing.T) context.Context {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	t.Cleanup(cancel)
	return ctx
}

// testPostgresConfig matches the local development database
func testPostgresConfig() *config.PostgresConfig {
	return &config.PostgresConfig{
		Host:           "localhost",
		Port:           "5432",
		Database:       "farmers",
		User:           "farmer_api",
		Password:       "farmer_dev_password",
		SSLMode:        "disable",
		MaxConnections: 10,
		IdleTimeout:    30 * time.Second,
	}
}

// openTestDB connects to the local database, skipping the test in short
// mode or when Postgres is not reachable.
func openTestDB(t *testing.T) *PostgresDB {
	t.Helper()
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	db, err := NewPostgresDB(testContext(t), testPostgresConfig())
	if err != nil {
		t.Skipf("Skipping test - Postgres not available: %v", err)
	}
	t.Cleanup(db.Close)
	return db
}
