package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/narayanprabad/InvestWise/internal/domain/models"
	domrepo "github.com/narayanprabad/InvestWise/internal/domain/repository"
	"github.com/narayanprabad/InvestWise/pkg/config"
	applogger "github.com/narayanprabad/InvestWise/pkg/logger"
)

// SnapshotRecorder routes condition snapshots to the configured backend.
type SnapshotRecorder struct {
	pub     domrepo.SnapshotPublisher
	store   domrepo.SnapshotStore
	metrics domrepo.Metrics
	backend string
}

func NewSnapshotRecorder(pub domrepo.SnapshotPublisher, store domrepo.SnapshotStore, metrics domrepo.Metrics, backend string) *SnapshotRecorder {
	return &SnapshotRecorder{pub: pub, store: store, metrics: metrics, backend: backend}
}

// Backend returns the configured backend name.
func (r *SnapshotRecorder) Backend() string { return r.backend }

func (r *SnapshotRecorder) processOne(ctx context.Context, s *models.ConditionSnapshot) error {
	if s == nil {
		return fmt.Errorf("snapshot is nil")
	}
	start := time.Now()
	var err error

	switch r.backend {
	case config.BackendKafka:
		err = r.pub.Publish(ctx, s)
	case config.BackendClickHouse:
		err = r.store.Store(ctx, s)
	case config.BackendNone:
	default:
		err = fmt.Errorf("unknown backend: %s", r.backend)
	}

	if err != nil {
		r.metrics.RecordError("record")
		return fmt.Errorf("record snapshot: %w", err)
	}

	r.metrics.RecordSnapshotSent(r.backend, s.Symbol)
	r.metrics.RecordLatency("record", time.Since(start).Seconds())
	return nil
}

// ProcessBatch writes snaps to the backend. A lone snapshot skips the batch path.
func (r *SnapshotRecorder) ProcessBatch(ctx context.Context, snaps []*models.ConditionSnapshot) error {
	switch len(snaps) {
	case 0:
		return nil
	case 1:
		return r.processOne(ctx, snaps[0])
	}
	start := time.Now()
	var err error

	switch r.backend {
	case config.BackendKafka:
		err = r.pub.PublishBatch(ctx, snaps)
	case config.BackendClickHouse:
		err = r.store.StoreBatch(ctx, snaps)
	case config.BackendNone:
	default:
		err = fmt.Errorf("unknown backend: %s", r.backend)
	}

	if err != nil {
		r.metrics.RecordError("record_batch")
		return fmt.Errorf("record batch: %w", err)
	}

	for _, s := range snaps {
		r.metrics.RecordSnapshotSent(r.backend, s.Symbol)
	}
	r.metrics.RecordLatency("record_batch", time.Since(start).Seconds())
	return nil
}

// Close closes underlying resources if available.
func (r *SnapshotRecorder) Close() {
	if r.pub != nil {
		_ = r.pub.Close()
	}
	if r.store != nil {
		_ = r.store.Close()
	}
}

// Submitter accepts snapshots for asynchronous recording.
type Submitter interface {
	Submit(s *models.ConditionSnapshot) error
}

// SnapshotSink turns every report into a snapshot and hands it to a Submitter.
type SnapshotSink struct {
	sub   Submitter
	l     *applogger.Logger
	newID func() string
}

func NewSnapshotSink(sub Submitter, l *applogger.Logger) *SnapshotSink {
	if l == nil {
		l = applogger.Nop()
	}
	return &SnapshotSink{sub: sub, l: l, newID: uuid.NewString}
}

func (s *SnapshotSink) OnReport(r *models.MarketReport) {
	snap := r.Snapshot(s.newID())
	if err := s.sub.Submit(&snap); err != nil {
		s.l.Warn("snapshot not queued",
			applogger.String("symbol", r.Symbol),
			applogger.Error(err))
	}
}

var _ ReportSink = (*SnapshotSink)(nil)
