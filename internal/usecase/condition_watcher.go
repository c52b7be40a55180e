package usecase

import (
	"context"
	"sync"
	"time"

	domrepo "github.com/narayanprabad/InvestWise/internal/domain/repository"
	"github.com/narayanprabad/InvestWise/pkg/cache"
	applogger "github.com/narayanprabad/InvestWise/pkg/logger"
)

// ConditionWatcher re-evaluates a fixed set of symbols on an interval so reports keep
// flowing to subscribers (snapshot pipeline, websocket hub) without client traffic.
// A cache lock per symbol keeps replicas sharing a Redis cache from doing the same work.
type ConditionWatcher struct {
	uc       Conditioner
	locks    cache.Service
	metrics  domrepo.Metrics
	l        *applogger.Logger
	symbols  []string
	interval time.Duration

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewConditionWatcher(uc Conditioner, locks cache.Service, metrics domrepo.Metrics, l *applogger.Logger, symbols []string, interval time.Duration) *ConditionWatcher {
	if l == nil {
		l = applogger.Nop()
	}
	return &ConditionWatcher{uc: uc, locks: locks, metrics: metrics, l: l, symbols: symbols, interval: interval}
}

// Start runs one pass immediately and then one per interval until Stop or ctx is done.
func (w *ConditionWatcher) Start(ctx context.Context) {
	ctx, w.cancel = context.WithCancel(ctx)
	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		ticker := time.NewTicker(w.interval)
		defer ticker.Stop()
		w.tick(ctx)
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				w.tick(ctx)
			}
		}
	}()
	w.l.Info("condition watcher started",
		applogger.Strings("symbols", w.symbols),
		applogger.Duration("interval", w.interval))
}

func (w *ConditionWatcher) Stop() {
	if w.cancel != nil {
		w.cancel()
	}
	w.wg.Wait()
}

func (w *ConditionWatcher) tick(ctx context.Context) {
	for _, sym := range w.symbols {
		if ctx.Err() != nil {
			return
		}
		w.evaluate(ctx, sym)
	}
}

func (w *ConditionWatcher) evaluate(ctx context.Context, sym string) {
	if w.locks != nil {
		// The lock expires on its own, shortly before the next tick.
		ok, err := w.locks.TryLock(ctx, cache.GenerateKey("watch", sym), w.interval*9/10)
		if err != nil {
			w.metrics.RecordError("watcher_lock")
			w.l.Warn("watcher lock failed", applogger.String("symbol", sym), applogger.Error(err))
		} else if !ok {
			return
		}
	}
	if _, err := w.uc.Evaluate(ctx, ConditionParams{Symbol: sym}); err != nil {
		w.metrics.RecordError("watcher_evaluate")
		w.l.Warn("watched symbol not evaluated", applogger.String("symbol", sym), applogger.Error(err))
	}
}
