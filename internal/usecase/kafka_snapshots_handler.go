package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/narayanprabad/InvestWise/internal/domain/models"
	domrepo "github.com/narayanprabad/InvestWise/internal/domain/repository"
	pkgkafka "github.com/narayanprabad/InvestWise/pkg/kafka"
)

// KafkaSnapshotsHandler consumes published snapshots and writes them to the store.
type KafkaSnapshotsHandler struct {
	topic   string
	store   domrepo.SnapshotStore
	metrics domrepo.Metrics
}

func NewKafkaSnapshotsHandler(topic string, store domrepo.SnapshotStore, metrics domrepo.Metrics) *KafkaSnapshotsHandler {
	return &KafkaSnapshotsHandler{topic: topic, store: store, metrics: metrics}
}

func (h *KafkaSnapshotsHandler) Topic() string { return h.topic }

// Handle expects the JSON form of models.ConditionSnapshot. When the consumer put the
// message key on ctx it must match the payload symbol, since partitioning relies on it.
func (h *KafkaSnapshotsHandler) Handle(ctx context.Context, b []byte) error {
	var s models.ConditionSnapshot
	if err := json.Unmarshal(b, &s); err != nil {
		h.metrics.RecordError("consumer_unmarshal")
		return fmt.Errorf("decode snapshot: %w", err)
	}
	if s.Symbol == "" || s.Timestamp.IsZero() || !s.Condition.Valid() {
		h.metrics.RecordError("consumer_invalid")
		return fmt.Errorf("snapshot %q incomplete", s.ID)
	}
	if key := pkgkafka.SymbolFromContext(ctx); key != "" && key != s.Symbol {
		h.metrics.RecordError("consumer_key_mismatch")
		return fmt.Errorf("snapshot %q: key %q does not match symbol %q", s.ID, key, s.Symbol)
	}
	// publish-to-consume lag
	h.metrics.RecordLatency("ingest_e2e", time.Since(s.Timestamp).Seconds())

	start := time.Now()
	err := h.store.Store(ctx, &s)
	h.metrics.RecordLatency("ch_insert", time.Since(start).Seconds())
	if err != nil {
		h.metrics.RecordError("consumer_store")
		return err
	}
	h.metrics.RecordSnapshotSent("clickhouse", s.Symbol)
	return nil
}

var _ pkgkafka.MessageHandler = (*KafkaSnapshotsHandler)(nil)
