// Package usage publishes per-query provider accounting to the external
// cost-accounting collaborator. Publishing is best effort: the engine logs
// and ignores failures, and quota enforcement lives elsewhere.
package usage

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"

	"lifequery/internal/models"
	"lifequery/internal/queryengine/ports"
)

// KafkaPublisher writes usage events to a Kafka topic.
type KafkaPublisher struct {
	writer *kafka.Writer
}

// NewKafkaPublisher creates a publisher for the given brokers and topic.
func NewKafkaPublisher(brokers []string, topic string) *KafkaPublisher {
	writer := kafka.NewWriter(kafka.WriterConfig{
		Brokers:      brokers,
		Topic:        topic,
		Balancer:     &kafka.LeastBytes{},
		BatchTimeout: 10 * time.Millisecond,
		BatchSize:    100,
	})
	return &KafkaPublisher{writer: writer}
}

// Publish serializes the usage event as JSON and writes it, keyed by user
// so one user's events stay ordered within a partition.
func (p *KafkaPublisher) Publish(ctx context.Context, event models.UsageEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal usage event: %w", err)
	}

	if err := p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(event.UserID),
		Value: data,
	}); err != nil {
		return fmt.Errorf("failed to write usage event to kafka: %w", err)
	}
	return nil
}

// Close shuts down the underlying writer.
func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}

var _ ports.UsagePublisher = (*KafkaPublisher)(nil)
