package analytics

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Adithya-Monish-Kumar-K/reuters-search/pkg/kafka"
)

// Publisher is the subset of kafka.Producer the collector needs.
type Publisher interface {
	Publish(ctx context.Context, events ...kafka.Event) error
}

// CollectorConfig sizes the event buffer and the publish batches. Zero
// values take the defaults.
type CollectorConfig struct {
	BufferSize    int
	BatchSize     int
	FlushInterval time.Duration
}

// Collector buffers events in a bounded channel and publishes them in
// batches, when a batch fills or the flush interval passes. Track never
// blocks: events are dropped when the buffer is full or the collector is
// closed. The event channel is never closed, so Track is safe at any time.
type Collector struct {
	publisher Publisher
	cfg       CollectorConfig
	eventCh   chan SearchEvent
	dropped   atomic.Int64
	closed    atomic.Bool
	logger    *slog.Logger
	quit      chan struct{}
	closeOnce sync.Once
	done      chan struct{}
}

// NewCollector creates a Collector publishing through publisher. Call Start
// to run the publish loop.
func NewCollector(publisher Publisher, cfg CollectorConfig) *Collector {
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = 10000
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 100
	}
	if cfg.FlushInterval <= 0 {
		cfg.FlushInterval = time.Second
	}
	return &Collector{
		publisher: publisher,
		cfg:       cfg,
		eventCh:   make(chan SearchEvent, cfg.BufferSize),
		logger:    slog.Default().With("component", "analytics-collector"),
		quit:      make(chan struct{}),
		done:      make(chan struct{}),
	}
}

// Start runs the publish loop until ctx is cancelled or Close is called.
func (c *Collector) Start(ctx context.Context) {
	go func() {
		defer close(c.done)
		ticker := time.NewTicker(c.cfg.FlushInterval)
		defer ticker.Stop()
		batch := make([]kafka.Event, 0, c.cfg.BatchSize)
		for {
			select {
			case event := <-c.eventCh:
				batch = append(batch, kafka.Event{Key: string(event.Type), Value: event})
				if len(batch) >= c.cfg.BatchSize {
					batch = c.flush(batch)
				}
			case <-ticker.C:
				batch = c.flush(batch)
			case <-c.quit:
				c.flush(c.drain(batch))
				return
			case <-ctx.Done():
				c.closed.Store(true)
				c.flush(c.drain(batch))
				return
			}
		}
	}()
	c.logger.Info("analytics collector started",
		"buffer_size", c.cfg.BufferSize,
		"batch_size", c.cfg.BatchSize,
		"flush_interval", c.cfg.FlushInterval,
	)
}

// Track queues event for publishing without blocking.
func (c *Collector) Track(event SearchEvent) {
	if c.closed.Load() {
		c.dropped.Add(1)
		return
	}
	select {
	case c.eventCh <- event:
	default:
		if c.dropped.Add(1)%1000 == 1 {
			c.logger.Warn("analytics event dropped (buffer full)", "dropped_total", c.dropped.Load())
		}
	}
}

// Dropped returns the number of events discarded on a full buffer or after
// Close.
func (c *Collector) Dropped() int64 { return c.dropped.Load() }

// Close stops accepting events, publishes what is buffered and waits for
// the loop to exit. Later Track calls count as dropped. Close is
// idempotent.
func (c *Collector) Close() {
	c.closeOnce.Do(func() {
		c.closed.Store(true)
		close(c.quit)
	})
	<-c.done
}

// drain appends whatever is buffered without waiting for more.
func (c *Collector) drain(batch []kafka.Event) []kafka.Event {
	for {
		select {
		case event := <-c.eventCh:
			batch = append(batch, kafka.Event{Key: string(event.Type), Value: event})
		default:
			return batch
		}
	}
}

func (c *Collector) flush(batch []kafka.Event) []kafka.Event {
	if len(batch) == 0 {
		return batch
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := c.publisher.Publish(ctx, batch...); err != nil {
		c.logger.Error("failed to publish analytics events", "count", len(batch), "error", err)
	}
	return batch[:0]
}
