// Package tracing times nested phases of an operation. Spans travel in a
// context, form a tree and are written to slog when the root ends.
package tracing

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

type contextKey struct{}

// Span is one timed phase.
type Span struct {
	Name     string
	TraceID  string
	Start    time.Time
	Duration time.Duration

	mu       sync.Mutex
	children []*Span
	attrs    []any
}

// Start opens a span named name. It becomes a child of the span already in
// ctx, or a root span tagged with traceID when there is none.
func Start(ctx context.Context, name, traceID string) (context.Context, *Span) {
	span := &Span{Name: name, TraceID: traceID, Start: time.Now()}
	if parent := FromContext(ctx); parent != nil {
		span.TraceID = parent.TraceID
		parent.mu.Lock()
		parent.children = append(parent.children, span)
		parent.mu.Unlock()
	}
	return context.WithValue(ctx, contextKey{}, span), span
}

// FromContext returns the span carried by ctx, or nil.
func FromContext(ctx context.Context) *Span {
	span, _ := ctx.Value(contextKey{}).(*Span)
	return span
}

// End fixes the span's duration and returns it.
func (s *Span) End() time.Duration {
	s.Duration = time.Since(s.Start)
	return s.Duration
}

// Set attaches key/value pairs reported with the span.
func (s *Span) Set(kv ...any) {
	s.mu.Lock()
	s.attrs = append(s.attrs, kv...)
	s.mu.Unlock()
}

// Children returns the spans opened under s, in start order.
func (s *Span) Children() []*Span {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*Span, len(s.children))
	copy(out, s.children)
	return out
}

// Log writes s and its descendants to logger, depth first.
func (s *Span) Log(logger *slog.Logger) {
	s.log(logger, 0)
}

func (s *Span) log(logger *slog.Logger, depth int) {
	s.mu.Lock()
	attrs := append([]any{
		"trace_id", s.TraceID,
		"span", s.Name,
		"depth", depth,
		"duration_ms", s.Duration.Milliseconds(),
	}, s.attrs...)
	s.mu.Unlock()
	logger.Info("span", attrs...)
	for _, child := range s.Children() {
		child.log(logger, depth+1)
	}
}
