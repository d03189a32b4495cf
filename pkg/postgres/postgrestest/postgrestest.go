// Package postgrestest opens a PostgreSQL connection for tests, skipping
// when no server is reachable. Connection settings come from TEST_POSTGRES_*
// variables.
package postgrestest

import (
	"context"
	"os"
	"strconv"
	"testing"
	"time"

	"github.com/Adithya-Monish-Kumar-K/reuters-search/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/reuters-search/pkg/postgres"
)

// Open returns a client for the test database or skips t.
func Open(t *testing.T) *postgres.Client {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	db, err := postgres.New(ctx, Config())
	if err != nil {
		t.Skipf("skipping: postgres unavailable: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func Config() config.PostgresConfig {
	return config.PostgresConfig{
		Enabled:         true,
		Host:            envOrDefault("TEST_POSTGRES_HOST", "localhost"),
		Port:            envOrDefaultInt("TEST_POSTGRES_PORT", 5432),
		Database:        envOrDefault("TEST_POSTGRES_DB", "reuters_test"),
		User:            envOrDefault("TEST_POSTGRES_USER", "reuters"),
		Password:        envOrDefault("TEST_POSTGRES_PASSWORD", "localdev"),
		SSLMode:         "disable",
		MaxOpenConns:    5,
		MaxIdleConns:    2,
		ConnMaxLifetime: 5 * time.Minute,
	}
}

func envOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envOrDefaultInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}
