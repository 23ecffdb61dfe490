// Package analytics publishes query events to Kafka from a background
// goroutine. Tracking never blocks the query path: a full buffer drops the
// event with a warning.
package analytics

import (
	"context"
	"log/slog"

	"github.com/searchlab/termindex/pkg/kafka"
)

// Collector buffers query events and ships them to Kafka.
type Collector struct {
	producer *kafka.Producer
	queue    chan QueryEvent
	stopped  chan struct{}
	logger   *slog.Logger
}

// NewCollector creates a Collector with the given buffer capacity.
func NewCollector(producer *kafka.Producer, bufferSize int) *Collector {
	if bufferSize <= 0 {
		bufferSize = 4096
	}
	return &Collector{
		producer: producer,
		queue:    make(chan QueryEvent, bufferSize),
		stopped:  make(chan struct{}),
		logger:   slog.Default().With("component", "analytics-collector"),
	}
}

// Start launches the publisher goroutine. It runs until ctx is cancelled or
// Close is called, flushing whatever is still queued on the way out.
func (c *Collector) Start(ctx context.Context) {
	go c.run(ctx)
	c.logger.Info("collector started", "buffer", cap(c.queue))
}

func (c *Collector) run(ctx context.Context) {
	defer close(c.stopped)
	for {
		select {
		case ev, open := <-c.queue:
			if !open {
				return
			}
			c.publish(ctx, ev)
		case <-ctx.Done():
			c.flush()
			return
		}
	}
}

// Track enqueues an event without blocking.
func (c *Collector) Track(event QueryEvent) {
	select {
	case c.queue <- event:
	default:
		c.logger.Warn("event dropped, buffer full", "term", event.Term)
	}
}

// Close stops accepting events and waits for the publisher to drain.
func (c *Collector) Close() {
	close(c.queue)
	<-c.stopped
}

func (c *Collector) publish(ctx context.Context, ev QueryEvent) {
	if err := c.producer.Publish(ctx, ev.Term, ev); err != nil {
		c.logger.Error("publish failed", "term", ev.Term, "error", err)
	}
}

// flush publishes everything still buffered, then returns.
func (c *Collector) flush() {
	for {
		select {
		case ev, open := <-c.queue:
			if !open {
				return
			}
			c.publish(context.Background(), ev)
		default:
			return
		}
	}
}
