// Package tracing times operations as context-propagated span trees and
// emits them through slog. The index build uses it to attribute wall time
// to individual sources.
package tracing

import (
	"context"
	"log/slog"
	"time"
)

type spanKey struct{}

// Span is one timed operation. Spans form a tree; children are appended by
// StartChildSpan and share the root's trace id.
type Span struct {
	Name     string
	TraceID  string
	started  time.Time
	Duration time.Duration
	Children []*Span
	Attrs    map[string]any
}

func newSpan(name, traceID string) *Span {
	return &Span{
		Name:    name,
		TraceID: traceID,
		started: time.Now(),
		Attrs:   map[string]any{},
	}
}

// StartSpan opens a root span and stores it in the returned context.
func StartSpan(ctx context.Context, name string, traceID string) (context.Context, *Span) {
	s := newSpan(name, traceID)
	return context.WithValue(ctx, spanKey{}, s), s
}

// StartChildSpan opens a span under the one carried by ctx. Without a
// parent the child behaves like a detached root.
func StartChildSpan(ctx context.Context, name string) (context.Context, *Span) {
	child := newSpan(name, "")
	if parent := SpanFromContext(ctx); parent != nil {
		child.TraceID = parent.TraceID
		parent.Children = append(parent.Children, child)
	}
	return context.WithValue(ctx, spanKey{}, child), child
}

// SpanFromContext returns the span carried by ctx, or nil.
func SpanFromContext(ctx context.Context) *Span {
	s, _ := ctx.Value(spanKey{}).(*Span)
	return s
}

// End fixes the span's duration.
func (s *Span) End() {
	s.Duration = time.Since(s.started)
}

// SetAttr attaches a key-value pair to the span.
func (s *Span) SetAttr(key string, value any) {
	s.Attrs[key] = value
}

// Log emits the span tree at debug level, one record per span, parents
// before children.
func (s *Span) Log() {
	s.emit(0)
}

func (s *Span) emit(depth int) {
	attrs := make([]any, 0, 8+2*len(s.Attrs))
	attrs = append(attrs,
		"trace_id", s.TraceID,
		"span", s.Name,
		"duration_ms", s.Duration.Milliseconds(),
		"depth", depth,
	)
	for k, v := range s.Attrs {
		attrs = append(attrs, k, v)
	}
	slog.Debug("trace", attrs...)

	for _, child := range s.Children {
		child.emit(depth + 1)
	}
}
