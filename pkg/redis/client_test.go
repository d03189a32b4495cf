package redis

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/Adithya-Monish-Kumar-K/reuters-search/pkg/health"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsNilError(t *testing.T) {
	assert.True(t, IsNilError(redis.Nil))
	assert.True(t, IsNilError(fmt.Errorf("get: %w", redis.Nil)))
	assert.False(t, IsNilError(nil))
	assert.False(t, IsNilError(fmt.Errorf("timeout")))
}

func TestHealthCheckDegradedWhenUnreachable(t *testing.T) {
	c := Wrap(redis.NewClient(&redis.Options{Addr: "127.0.0.1:1", DialTimeout: 100 * time.Millisecond, MaxRetries: -1}))
	defer c.Close()
	got := c.HealthCheck()(context.Background())
	assert.Equal(t, health.StatusDegraded, got.Status)
	assert.NotEmpty(t, got.Message)
}

// TestClientRoundTrip needs a server at TEST_REDIS_ADDR.
func TestClientRoundTrip(t *testing.T) {
	addr := os.Getenv("TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("TEST_REDIS_ADDR not set")
	}
	ctx := context.Background()
	c := Wrap(redis.NewClient(&redis.Options{Addr: addr, DB: 15}))
	defer c.Close()
	if err := c.Ping(ctx); err != nil {
		t.Skipf("redis unavailable: %v", err)
	}

	require.NoError(t, c.Set(ctx, "test:search:a", "1", time.Minute))
	require.NoError(t, c.Set(ctx, "test:search:b", "2", time.Minute))
	require.NoError(t, c.Set(ctx, "test:other", "3", time.Minute))

	v, err := c.Get(ctx, "test:search:a")
	require.NoError(t, err)
	assert.Equal(t, "1", v)

	n, err := c.FlushByPattern(ctx, "test:search:*")
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	_, err = c.Get(ctx, "test:search:b")
	assert.True(t, IsNilError(err))
	_, err = c.FlushByPattern(ctx, "test:*")
	require.NoError(t, err)
}
