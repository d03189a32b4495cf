// Package cache memoizes search results in Redis. Keys hash the normalized
// query tokens under the fitted model's fingerprint, so queries that
// normalize alike share an entry, and concurrent misses on one key run the
// search once.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync/atomic"
	"time"

	"github.com/Adithya-Monish-Kumar-K/reuters-search/internal/searcher/executor"
	pkgredis "github.com/Adithya-Monish-Kumar-K/reuters-search/pkg/redis"
	"github.com/Adithya-Monish-Kumar-K/reuters-search/pkg/resilience"
	"golang.org/x/sync/singleflight"
)

const keyPrefix = "search:"

// Backend is the subset of the Redis client the cache uses.
type Backend interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	FlushByPattern(ctx context.Context, pattern string) (int64, error)
}

// QueryCache stores search results in the backend under keys built by Key.
type QueryCache struct {
	backend Backend
	ttl     time.Duration
	breaker *resilience.Breaker
	group   singleflight.Group
	logger  *slog.Logger
	hits    atomic.Int64
	misses  atomic.Int64
	errors  atomic.Int64
}

// New wraps backend. Backend failures trip a breaker, after which lookups
// skip Redis until it recovers.
func New(backend Backend, ttl time.Duration) *QueryCache {
	return &QueryCache{
		backend: backend,
		ttl:     ttl,
		breaker: resilience.NewBreaker("redis-cache", resilience.BreakerConfig{
			FailureThreshold: 5,
			Cooldown:         10 * time.Second,
		}),
		logger: slog.Default().With("component", "query-cache"),
	}
}

// Key derives the cache key from the fitted model's fingerprint, the
// normalized query tokens and the result limit. Token order does not change
// the TF-IDF vector, so tokens are sorted. Entries written by a differently
// fitted index never collide with the current one.
func Key(model string, tokens []string, limit int) string {
	sorted := make([]string, len(tokens))
	copy(sorted, tokens)
	sort.Strings(sorted)
	raw := fmt.Sprintf("%s|limit=%d", strings.Join(sorted, ","), limit)
	hash := sha256.Sum256([]byte(raw))
	return fmt.Sprintf("%s%s:%x", keyPrefix, model, hash[:16])
}

// Get returns the cached result for key. Backend errors and undecodable
// entries count as misses.
func (c *QueryCache) Get(ctx context.Context, key string) (*executor.SearchResult, bool) {
	var data string
	err := c.breaker.Do(func() error {
		var err error
		data, err = c.backend.Get(ctx, key)
		if pkgredis.IsNilError(err) {
			return nil
		}
		return err
	})
	if err != nil {
		c.errors.Add(1)
		c.misses.Add(1)
		c.logger.Warn("cache get failed", "key", key, "error", err)
		return nil, false
	}
	if data == "" {
		c.misses.Add(1)
		return nil, false
	}
	var result executor.SearchResult
	if err := json.Unmarshal([]byte(data), &result); err != nil {
		c.logger.Error("cache unmarshal failed", "key", key, "error", err)
		c.misses.Add(1)
		return nil, false
	}
	c.hits.Add(1)
	return &result, true
}

// Set stores result under key for the cache TTL. Failures are logged and
// otherwise ignored.
func (c *QueryCache) Set(ctx context.Context, key string, result *executor.SearchResult) {
	data, err := json.Marshal(result)
	if err != nil {
		c.logger.Error("cache marshal failed", "key", key, "error", err)
		return
	}
	if err := c.breaker.Do(func() error { return c.backend.Set(ctx, key, data, c.ttl) }); err != nil {
		c.errors.Add(1)
		c.logger.Warn("cache set failed", "key", key, "error", err)
	}
}

// GetOrCompute returns the cached result for key or runs compute once per
// key across concurrent callers and caches its result. The bool reports a
// cache hit. Results are stored with the caller's raw query, so a hit is
// rewritten with the query given here.
func (c *QueryCache) GetOrCompute(
	ctx context.Context,
	key string,
	query string,
	compute func() (*executor.SearchResult, error),
) (*executor.SearchResult, bool, error) {
	if result, ok := c.Get(ctx, key); ok {
		result.Query = query
		return result, true, nil
	}
	val, err, _ := c.group.Do(key, func() (any, error) {
		result, err := compute()
		if err != nil {
			return nil, err
		}
		c.Set(ctx, key, result)
		return result, nil
	})
	if err != nil {
		return nil, false, err
	}
	shared := *val.(*executor.SearchResult)
	shared.Query = query
	return &shared, false, nil
}

// Invalidate removes every cached search result.
func (c *QueryCache) Invalidate(ctx context.Context) (int64, error) {
	deleted, err := c.backend.FlushByPattern(ctx, keyPrefix+"*")
	if err != nil {
		return deleted, fmt.Errorf("invalidating cache: %w", err)
	}
	c.logger.Info("cache invalidated", "keys_deleted", deleted)
	return deleted, nil
}

// Stats is a snapshot of the cache counters.
type Stats struct {
	Hits    int64  `json:"hits"`
	Misses  int64  `json:"misses"`
	Errors  int64  `json:"errors"`
	Total   int64  `json:"total"`
	HitRate string `json:"hit_rate"`
	Circuit string `json:"circuit"`
}

// Stats returns the current counters and the breaker state.
func (c *QueryCache) Stats() Stats {
	s := Stats{
		Hits:    c.hits.Load(),
		Misses:  c.misses.Load(),
		Errors:  c.errors.Load(),
		Circuit: c.breaker.State().String(),
	}
	s.Total = s.Hits + s.Misses
	var rate float64
	if s.Total > 0 {
		rate = float64(s.Hits) / float64(s.Total) * 100
	}
	s.HitRate = fmt.Sprintf("%.1f%%", rate)
	return s
}
