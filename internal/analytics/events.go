// Package analytics collects search events, ships them through Kafka and
// aggregates them into query statistics.
package analytics

import "time"

type EventType string

const (
	EventSearch     EventType = "search"
	EventZeroResult EventType = "zero_result"
	EventError      EventType = "error"
)

type SearchEvent struct {
	Type      EventType `json:"type"`
	Route     string    `json:"route"`
	Query     string    `json:"query"`
	Terms     []string  `json:"terms"`
	TotalHits int       `json:"total_hits"`
	Returned  int       `json:"returned"`
	LatencyMs int64     `json:"latency_ms"`
	CacheHit  bool      `json:"cache_hit"`
	Timestamp time.Time `json:"timestamp"`
	RequestID string    `json:"request_id,omitempty"`
}

// Tracker accepts search events without blocking the caller.
type Tracker interface {
	Track(event SearchEvent)
}
