package repository

import (
	"context"

	"github.com/narayanprabad/InvestWise/internal/domain/models"
	domrepo "github.com/narayanprabad/InvestWise/internal/domain/repository"
	pkgkafka "github.com/narayanprabad/InvestWise/pkg/kafka"
)

// snapshotWriter is the part of pkg/kafka.Producer the publisher uses.
type snapshotWriter interface {
	Publish(ctx context.Context, topic string, key []byte, value interface{}) error
	PublishBatch(ctx context.Context, topic string, messages []pkgkafka.Message) error
	Close() error
}

// KafkaSnapshotPublisher publishes snapshots keyed by symbol.
type KafkaSnapshotPublisher struct {
	producer snapshotWriter
	topic    string
}

func NewKafkaSnapshotPublisher(producer *pkgkafka.Producer, topic string) *KafkaSnapshotPublisher {
	return &KafkaSnapshotPublisher{producer: producer, topic: topic}
}

func (p *KafkaSnapshotPublisher) Publish(ctx context.Context, s *models.ConditionSnapshot) error {
	return p.producer.Publish(ctx, p.topic, []byte(s.Symbol), s)
}

func (p *KafkaSnapshotPublisher) PublishBatch(ctx context.Context, snaps []*models.ConditionSnapshot) error {
	if len(snaps) == 0 {
		return nil
	}
	msgs := make([]pkgkafka.Message, len(snaps))
	for i, s := range snaps {
		msgs[i] = pkgkafka.Message{Key: []byte(s.Symbol), Value: s}
	}
	return p.producer.PublishBatch(ctx, p.topic, msgs)
}

func (p *KafkaSnapshotPublisher) Close() error {
	if p.producer != nil {
		return p.producer.Close()
	}
	return nil
}

var _ domrepo.SnapshotPublisher = (*KafkaSnapshotPublisher)(nil)
