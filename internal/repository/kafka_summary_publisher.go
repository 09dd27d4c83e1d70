package repository

import (
	"context"

	"CandleScope/internal/domain/models"
	domrepo "CandleScope/internal/domain/repository"
	pkgkafka "CandleScope/pkg/kafka"
)

// KafkaSummaryPublisher hands finished summaries to downstream consumers.
// Messages are keyed by symbol so per-symbol ordering survives partitioning.
type KafkaSummaryPublisher struct {
	producer *pkgkafka.Producer
	topic    string
}

// NewKafkaSummaryPublisher creates a Kafka-backed summary publisher.
func NewKafkaSummaryPublisher(producer *pkgkafka.Producer, topic string) domrepo.SummaryPublisher {
	return &KafkaSummaryPublisher{producer: producer, topic: topic}
}

func (p *KafkaSummaryPublisher) Publish(ctx context.Context, s models.Summary) error {
	return p.producer.Publish(ctx, p.topic, []byte(s.Symbol), s)
}

func (p *KafkaSummaryPublisher) Close() error {
	if p.producer != nil {
		return p.producer.Close()
	}
	return nil
}
