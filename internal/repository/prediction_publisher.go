package repository

import (
	"context"
	"fmt"

	"ApexPick/internal/domain/models"
	domrepo "ApexPick/internal/domain/repository"
	pkgkafka "ApexPick/pkg/kafka"
)

// recordSender is the part of pkg/kafka.Producer the publisher needs.
type recordSender interface {
	Send(ctx context.Context, topic string, recs ...pkgkafka.Record) error
}

// KafkaPredictionPublisher emits composed predictions as JSON. The producer
// keys each one by fixture, and a slate goes out as one write.
type KafkaPredictionPublisher struct {
	producer recordSender
	topic    string
}

func NewKafkaPredictionPublisher(producer recordSender, topic string) *KafkaPredictionPublisher {
	return &KafkaPredictionPublisher{producer: producer, topic: topic}
}

func (p *KafkaPredictionPublisher) Publish(ctx context.Context, preds ...*models.ApexPrediction) error {
	recs := make([]pkgkafka.Record, 0, len(preds))
	for i, pred := range preds {
		if pred == nil {
			return fmt.Errorf("publish: nil prediction at %d", i)
		}
		recs = append(recs, pkgkafka.Record{Value: pred})
	}
	return p.producer.Send(ctx, p.topic, recs...)
}

// Close leaves the producer open; it is shared with the log collector and
// closed by its owner.
func (p *KafkaPredictionPublisher) Close() error {
	return nil
}

var _ domrepo.PredictionPublisher = (*KafkaPredictionPublisher)(nil)
