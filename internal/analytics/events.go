package analytics

import "time"

type EventType string

const (
	EventQueryHit      EventType = "query_hit"
	EventQueryNotFound EventType = "query_not_found"
	EventQueryInvalid  EventType = "query_invalid"
)

// QueryEvent describes one answered lookup.
type QueryEvent struct {
	Type      EventType `json:"type"`
	Term      string    `json:"term"`
	Sources   int       `json:"sources"`
	CacheHit  bool      `json:"cache_hit"`
	LatencyMs int64     `json:"latency_ms"`
	Timestamp time.Time `json:"timestamp"`
	RequestID string    `json:"request_id,omitempty"`
}
