package middleware

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/narayanprabad/InvestWise/internal/domain/models"
	domrepo "github.com/narayanprabad/InvestWise/internal/domain/repository"
	applogger "github.com/narayanprabad/InvestWise/pkg/logger"
)

// ErrPipelineFull is returned by Submit when the intake queue is full.
var ErrPipelineFull = errors.New("snapshot pipeline full")

// Proc is the downstream the pipeline flushes batches into.
type Proc interface {
	ProcessBatch(ctx context.Context, snaps []*models.ConditionSnapshot) error
}

// SnapshotPipeline sits between classification and snapshot storage. It validates and
// throttles per symbol, batches, and keeps failed batches in a bounded retry buffer so
// callers never wait on Kafka or ClickHouse.
type SnapshotPipeline struct {
	proc    Proc
	metrics domrepo.Metrics
	l       *applogger.Logger

	throttle     time.Duration
	batchSize    int
	batchTimeout time.Duration
	bufSize      int
	now          func() time.Time

	inCh   chan *models.ConditionSnapshot
	stopCh chan struct{}
	done   chan struct{}

	mu       sync.Mutex
	started  bool
	stopped  bool
	lastSeen map[string]time.Time
}

type PipelineOption func(*SnapshotPipeline)

// WithThrottle sets the minimum gap between two accepted snapshots of one symbol.
func WithThrottle(d time.Duration) PipelineOption {
	return func(p *SnapshotPipeline) {
		if d >= 0 {
			p.throttle = d
		}
	}
}

// WithBatch sets the flush size and the maximum time a snapshot waits for a flush.
func WithBatch(size int, timeout time.Duration) PipelineOption {
	return func(p *SnapshotPipeline) {
		if size > 0 {
			p.batchSize = size
		}
		if timeout > 0 {
			p.batchTimeout = timeout
		}
	}
}

// WithBufferSize bounds both the intake queue and the retry buffer.
func WithBufferSize(n int) PipelineOption {
	return func(p *SnapshotPipeline) {
		if n > 0 {
			p.bufSize = n
		}
	}
}

func WithPipelineLogger(l *applogger.Logger) PipelineOption {
	return func(p *SnapshotPipeline) {
		if l != nil {
			p.l = l
		}
	}
}

func NewSnapshotPipeline(proc Proc, metrics domrepo.Metrics, opts ...PipelineOption) *SnapshotPipeline {
	p := &SnapshotPipeline{
		proc:         proc,
		metrics:      metrics,
		l:            applogger.Nop(),
		throttle:     30 * time.Second,
		batchSize:    100,
		batchTimeout: 2 * time.Second,
		bufSize:      1000,
		now:          time.Now,
		stopCh:       make(chan struct{}),
		done:         make(chan struct{}),
		lastSeen:     make(map[string]time.Time),
	}
	for _, opt := range opts {
		opt(p)
	}
	p.inCh = make(chan *models.ConditionSnapshot, p.bufSize)
	return p
}

// Start launches the batching loop. ctx bounds downstream calls made while running.
func (p *SnapshotPipeline) Start(ctx context.Context) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.started {
		return
	}
	p.started = true
	go p.run(ctx)
}

// Stop ends the loop after a final flush of everything queued, waiting at most until ctx is done.
func (p *SnapshotPipeline) Stop(ctx context.Context) error {
	p.mu.Lock()
	if !p.started || p.stopped {
		p.mu.Unlock()
		return nil
	}
	p.stopped = true
	p.mu.Unlock()

	close(p.stopCh)
	select {
	case <-p.done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("snapshot pipeline stop: %w", ctx.Err())
	}
}

// Submit queues a snapshot. Throttled snapshots are dropped without error.
func (p *SnapshotPipeline) Submit(s *models.ConditionSnapshot) error {
	if err := validateSnapshot(s); err != nil {
		p.metrics.RecordError("pipeline_validate")
		return err
	}
	if !p.allow(s.Symbol, s.Timestamp) {
		p.metrics.RecordError("pipeline_throttle")
		return nil
	}
	select {
	case p.inCh <- s:
		return nil
	default:
		p.metrics.RecordError("pipeline_buffer_full")
		return ErrPipelineFull
	}
}

func (p *SnapshotPipeline) run(ctx context.Context) {
	defer close(p.done)

	ticker := time.NewTicker(p.batchTimeout)
	defer ticker.Stop()

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = 100 * time.Millisecond
	bo.MaxInterval = 5 * time.Second
	bo.MaxElapsedTime = 0

	var (
		batch   = make([]*models.ConditionSnapshot, 0, p.batchSize)
		pending []*models.ConditionSnapshot
		retryAt time.Time
	)

	flush := func(ctx context.Context, force bool) {
		if len(pending) > 0 && !force && p.now().Before(retryAt) {
			pending = p.bound(append(pending, batch...))
			batch = batch[:0]
			return
		}
		all := append(pending, batch...)
		batch = batch[:0]
		if len(all) == 0 {
			return
		}

		start := p.now()
		if err := p.proc.ProcessBatch(ctx, all); err != nil {
			p.metrics.RecordError("pipeline_flush")
			pending = p.bound(all)
			wait := bo.NextBackOff()
			retryAt = p.now().Add(wait)
			p.l.Warn("snapshot flush failed, buffering",
				applogger.Int("buffered", len(pending)),
				applogger.Duration("retry_in", wait),
				applogger.Error(err))
			return
		}
		pending = nil
		bo.Reset()
		p.metrics.RecordLatency("pipeline_flush", p.now().Sub(start).Seconds())
	}

	for {
		select {
		case s := <-p.inCh:
			batch = append(batch, s)
			if len(batch) >= p.batchSize {
				flush(ctx, false)
			}
		case <-ticker.C:
			flush(ctx, false)
		case <-p.stopCh:
		drain:
			for {
				select {
				case s := <-p.inCh:
					batch = append(batch, s)
				default:
					break drain
				}
			}
			fctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			flush(fctx, true)
			cancel()
			if len(pending) > 0 {
				p.l.Error("snapshots lost on shutdown", applogger.Int("count", len(pending)))
			}
			return
		}
	}
}

// bound keeps the newest bufSize snapshots.
func (p *SnapshotPipeline) bound(snaps []*models.ConditionSnapshot) []*models.ConditionSnapshot {
	if over := len(snaps) - p.bufSize; over > 0 {
		for i := 0; i < over; i++ {
			p.metrics.RecordError("pipeline_buffer_drop")
		}
		snaps = snaps[over:]
	}
	return snaps
}

func (p *SnapshotPipeline) allow(symbol string, ts time.Time) bool {
	if p.throttle <= 0 {
		return true
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	last, ok := p.lastSeen[symbol]
	if ok && ts.Sub(last) < p.throttle {
		return false
	}
	p.lastSeen[symbol] = ts
	return true
}

func validateSnapshot(s *models.ConditionSnapshot) error {
	switch {
	case s == nil:
		return fmt.Errorf("snapshot nil")
	case s.Symbol == "":
		return fmt.Errorf("snapshot symbol empty")
	case s.Timestamp.IsZero():
		return fmt.Errorf("snapshot timestamp missing")
	case !s.Condition.Valid():
		return fmt.Errorf("snapshot condition: %w", models.ErrInvalidMarketCondition)
	}
	return nil
}
