package analytics

import (
	"context"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/Adithya-Monish-Kumar-K/reuters-search/pkg/kafka"
)

// latencyWindow bounds the samples kept for percentiles.
const latencyWindow = 10000

type AggregatedStats struct {
	TotalSearches     int64        `json:"total_searches"`
	CacheHits         int64        `json:"cache_hits"`
	CacheMisses       int64        `json:"cache_misses"`
	ZeroResultCount   int64        `json:"zero_result_count"`
	ErrorCount        int64        `json:"error_count"`
	AvgLatencyMs      float64      `json:"avg_latency_ms"`
	P50LatencyMs      int64        `json:"p50_latency_ms"`
	P95LatencyMs      int64        `json:"p95_latency_ms"`
	P99LatencyMs      int64        `json:"p99_latency_ms"`
	TopQueries        []QueryCount `json:"top_queries"`
	TopTerms          []QueryCount `json:"top_terms"`
	ZeroResultQueries []QueryCount `json:"zero_result_queries"`
	QueriesPerMinute  float64      `json:"queries_per_minute"`
}

type QueryCount struct {
	Query string `json:"query"`
	Count int64  `json:"count"`
}

// Aggregator folds search events into running statistics. It implements
// Tracker so the service can feed it directly when Kafka is disabled.
type Aggregator struct {
	mu                sync.RWMutex
	totalSearches     int64
	cacheHits         int64
	cacheMisses       int64
	zeroResults       int64
	errors            int64
	latencies         []int64
	next              int
	queryCounts       map[string]int64
	termCounts        map[string]int64
	zeroResultQueries map[string]int64
	startTime         time.Time
	now               func() time.Time
	logger            *slog.Logger
}

func NewAggregator() *Aggregator {
	return &Aggregator{
		latencies:         make([]int64, 0, latencyWindow),
		queryCounts:       make(map[string]int64),
		termCounts:        make(map[string]int64),
		zeroResultQueries: make(map[string]int64),
		startTime:         time.Now(),
		now:               time.Now,
		logger:            slog.Default().With("component", "analytics-aggregator"),
	}
}

// HandleEvent decodes a Kafka message into a SearchEvent and records it.
// Undecodable messages are logged and skipped so they do not block the
// partition.
func (a *Aggregator) HandleEvent() kafka.MessageHandler {
	return func(ctx context.Context, key []byte, value []byte) error {
		event, err := kafka.DecodeJSON[SearchEvent](value)
		if err != nil {
			a.logger.Error("failed to decode analytics event", "key", string(key), "error", err)
			return nil
		}
		a.Track(event)
		return nil
	}
}

func (a *Aggregator) Track(event SearchEvent) {
	query := strings.ToLower(strings.TrimSpace(event.Query))

	a.mu.Lock()
	defer a.mu.Unlock()
	a.totalSearches++
	if event.Type == EventError {
		a.errors++
		return
	}
	if event.CacheHit {
		a.cacheHits++
	} else {
		a.cacheMisses++
	}
	if len(a.latencies) < latencyWindow {
		a.latencies = append(a.latencies, event.LatencyMs)
	} else {
		a.latencies[a.next] = event.LatencyMs
		a.next = (a.next + 1) % latencyWindow
	}
	if query != "" {
		a.queryCounts[query]++
	}
	for _, term := range event.Terms {
		a.termCounts[term]++
	}
	if event.TotalHits == 0 {
		a.zeroResults++
		if query != "" {
			a.zeroResultQueries[query]++
		}
	}
}

func (a *Aggregator) Stats() AggregatedStats {
	a.mu.RLock()
	defer a.mu.RUnlock()

	stats := AggregatedStats{
		TotalSearches:   a.totalSearches,
		CacheHits:       a.cacheHits,
		CacheMisses:     a.cacheMisses,
		ZeroResultCount: a.zeroResults,
		ErrorCount:      a.errors,
	}
	if len(a.latencies) > 0 {
		sorted := make([]int64, len(a.latencies))
		copy(sorted, a.latencies)
		sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

		var sum int64
		for _, l := range sorted {
			sum += l
		}
		stats.AvgLatencyMs = float64(sum) / float64(len(sorted))
		stats.P50LatencyMs = percentile(sorted, 50)
		stats.P95LatencyMs = percentile(sorted, 95)
		stats.P99LatencyMs = percentile(sorted, 99)
	}
	stats.TopQueries = topN(a.queryCounts, 10)
	stats.TopTerms = topN(a.termCounts, 10)
	stats.ZeroResultQueries = topN(a.zeroResultQueries, 10)
	if elapsed := a.now().Sub(a.startTime).Minutes(); elapsed > 0 {
		stats.QueriesPerMinute = float64(stats.TotalSearches) / elapsed
	}
	return stats
}

func percentile(sorted []int64, pct int) int64 {
	if len(sorted) == 0 {
		return 0
	}
	idx := (pct * len(sorted)) / 100
	if idx >= len(sorted) {
		idx = len(sorted) - 1
	}
	return sorted[idx]
}

// topN orders by count descending, then query ascending so equal counts
// list deterministically.
func topN(counts map[string]int64, n int) []QueryCount {
	result := make([]QueryCount, 0, len(counts))
	for query, count := range counts {
		result = append(result, QueryCount{Query: query, Count: count})
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].Count != result[j].Count {
			return result[i].Count > result[j].Count
		}
		return result[i].Query < result[j].Query
	})
	if len(result) > n {
		result = result[:n]
	}
	return result
}
