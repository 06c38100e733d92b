package repository

import (
	"context"

	"github.com/OQueQuantFirm/Market-Analyzer/internal/domain/models"
	pkgkafka "github.com/OQueQuantFirm/Market-Analyzer/pkg/kafka"
)

// KafkaSignalPublisher implements SignalPublisher over a Kafka topic.
// Messages are keyed by instrument so one partition keeps per-contract
// ordering.
type KafkaSignalPublisher struct {
	producer *pkgkafka.Producer
	topic    string
}

// NewKafkaSignalPublisher creates a Kafka signal publisher.
func NewKafkaSignalPublisher(producer *pkgkafka.Producer, topic string) *KafkaSignalPublisher {
	return &KafkaSignalPublisher{producer: producer, topic: topic}
}

func (p *KafkaSignalPublisher) Publish(ctx context.Context, rec models.CycleRecord) error {
	return p.producer.Publish(ctx, p.topic, []byte(rec.Instrument), map[string]interface{}{
		"timestamp":  rec.Timestamp,
		"instrument": rec.Instrument,
		"price":      rec.Price,
		"oscillator": rec.Oscillator,
		"imbalance":  rec.Imbalance,
		"signal":     string(rec.Signal),
	})
}

func (p *KafkaSignalPublisher) Close() error {
	return p.producer.Close()
}

// NoopSignalPublisher discards signals. Used when Kafka is disabled.
type NoopSignalPublisher struct{}

func (NoopSignalPublisher) Publish(context.Context, models.CycleRecord) error { return nil }
func (NoopSignalPublisher) Close() error                                      { return nil }
