// Package kafka wraps segmentio/kafka-go with a JSON producer. Query
// analytics are published through it for downstream consumers.
package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/searchlab/termindex/pkg/config"
)

// Producer writes JSON-encoded payloads to a single topic, keyed for
// partition affinity.
type Producer struct {
	writer *kafka.Writer
	logger *slog.Logger
}

// NewProducer creates a Producer for the configured analytics topic. Writes
// are batched; a lost analytics event is acceptable, so only the leader
// acknowledges.
func NewProducer(cfg config.KafkaConfig) *Producer {
	return &Producer{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(cfg.Brokers...),
			Topic:        cfg.Topic,
			Balancer:     &kafka.Hash{},
			BatchTimeout: 25 * time.Millisecond,
			RequiredAcks: kafka.RequireOne,
		},
		logger: slog.Default().With("component", "kafka-producer", "topic", cfg.Topic),
	}
}

// Publish marshals payload as JSON and writes it under key.
func (p *Producer) Publish(ctx context.Context, key string, payload any) error {
	value, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encoding payload: %w", err)
	}
	err = p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(key),
		Value: value,
	})
	if err != nil {
		return fmt.Errorf("writing to %s: %w", p.writer.Topic, err)
	}
	p.logger.Debug("event published", "key", key, "bytes", len(value))
	return nil
}

// Close flushes pending batches and releases the writer.
func (p *Producer) Close() error {
	return p.writer.Close()
}
