package server

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"

	"github.com/narayanprabad/InvestWise/internal/handler/api"
	mid "github.com/narayanprabad/InvestWise/internal/middleware"
	"github.com/narayanprabad/InvestWise/internal/service/ratelimit"
	"github.com/narayanprabad/InvestWise/internal/usecase"
	pkgch "github.com/narayanprabad/InvestWise/pkg/clickhouse"
	"github.com/narayanprabad/InvestWise/pkg/config"
	xhttp "github.com/narayanprabad/InvestWise/pkg/http"
	pkgkafka "github.com/narayanprabad/InvestWise/pkg/kafka"
	applogger "github.com/narayanprabad/InvestWise/pkg/logger"
)

// Components groups what the App starts and stops. Optional parts are nil when disabled.
type Components struct {
	Handler  xhttp.Handler
	Registry *prometheus.Registry
	Limiter  *ratelimit.Limiter
	Pipeline *mid.SnapshotPipeline
	Recorder *usecase.SnapshotRecorder
	Hub      *api.StreamHub
	Watcher  *usecase.ConditionWatcher
	Consumer *pkgkafka.Consumer
	Handlers []pkgkafka.MessageHandler
	Producer *pkgkafka.Producer
	CHClient *pkgch.Client
	Redis    *redis.Client
	Closers  []func() error
}

// App encapsulates the entire application lifecycle.
type App struct {
	cfg        *config.Config
	l          *applogger.Logger
	c          Components
	httpServer *xhttp.Server
}

func New(cfg *config.Config, l *applogger.Logger, c Components) *App {
	if l == nil {
		l = applogger.Nop()
	}
	return &App{cfg: cfg, l: l, c: c}
}

// Run starts the application and blocks until interrupted.
func (a *App) Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := a.Start(ctx); err != nil {
		return err
	}
	<-ctx.Done()
	a.l.Info("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.Server.ShutdownTimeout)
	defer cancel()
	return a.Shutdown(shutdownCtx)
}

// Start launches background workers and the HTTP server without blocking.
func (a *App) Start(ctx context.Context) error {
	if a.cfg.LogCollector.Enabled && a.c.Producer != nil {
		a.l.AttachCollector(&applogger.CollectorConfig{
			FlushInterval: a.cfg.LogCollector.FlushInterval,
			MaxEntries:    a.cfg.LogCollector.MaxEntries,
			Topic:         a.cfg.Kafka.LogTopic,
			Publisher:     a.c.Producer,
		})
		a.l.Info("log collector attached", applogger.String("topic", a.cfg.Kafka.LogTopic))
	}

	if a.c.Pipeline != nil {
		a.c.Pipeline.Start(ctx)
		a.l.Info("snapshot pipeline started", applogger.String("backend", a.cfg.Backend.Type))
	}

	if a.c.Consumer != nil && len(a.c.Handlers) > 0 {
		for _, h := range a.c.Handlers {
			a.c.Consumer.RegisterHandler(h)
		}
		if err := a.c.Consumer.Start(); err != nil {
			return err
		}
		a.l.Info("kafka consumer started", applogger.String("topic", a.c.Handlers[0].Topic()))
	}

	if a.c.Watcher != nil {
		a.c.Watcher.Start(ctx)
	}

	if a.c.Limiter != nil {
		go a.pruneLimiter(ctx)
	}

	opts := []xhttp.ServerOption{
		xhttp.WithPort(a.cfg.Server.Port),
		xhttp.WithTimeouts(a.cfg.Server.ReadTimeout, a.cfg.Server.WriteTimeout, a.cfg.Server.ShutdownTimeout),
		xhttp.WithCORSOrigins(a.cfg.Server.CORSOrigins),
		xhttp.WithLogger(a.l),
		xhttp.WithRegistry(a.c.Registry),
	}
	if !a.cfg.Metrics.Enabled {
		opts = append(opts, xhttp.WithMetricsPath(""))
	} else {
		opts = append(opts, xhttp.WithMetricsPath(a.cfg.Metrics.Path))
	}
	if a.c.Limiter != nil {
		opts = append(opts, xhttp.WithMiddleware(a.c.Limiter.Middleware()))
	}
	if a.c.Redis != nil {
		opts = append(opts, xhttp.WithReadinessCheck("redis", func(ctx context.Context) error {
			return a.c.Redis.Ping(ctx).Err()
		}))
	}
	if a.c.CHClient != nil {
		opts = append(opts, xhttp.WithReadinessCheck("clickhouse", a.c.CHClient.Health))
	}
	a.httpServer = xhttp.NewServer(a.c.Handler, opts...)
	return a.httpServer.Start()
}

func (a *App) pruneLimiter(ctx context.Context) {
	t := time.NewTicker(time.Minute)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			if n := a.c.Limiter.Prune(10 * time.Minute); n > 0 {
				a.l.Debug("rate limiter pruned", applogger.Int("clients", n))
			}
		}
	}
}

// Shutdown stops intake first and storage last so queued snapshots get flushed.
func (a *App) Shutdown(ctx context.Context) error {
	a.l.Info("shutting down...")
	var errs []error

	if a.httpServer != nil {
		if err := a.httpServer.Stop(ctx); err != nil {
			errs = append(errs, err)
			a.l.Error("http shutdown error", applogger.Error(err))
		}
	}
	if a.c.Hub != nil {
		a.c.Hub.Close()
	}
	if a.c.Watcher != nil {
		a.c.Watcher.Stop()
	}
	if a.c.Pipeline != nil {
		if err := a.c.Pipeline.Stop(ctx); err != nil {
			errs = append(errs, err)
			a.l.Warn("snapshot pipeline stop error", applogger.Error(err))
		}
	}
	if a.c.Consumer != nil {
		if err := a.c.Consumer.Stop(ctx); err != nil {
			errs = append(errs, err)
			a.l.Warn("kafka consumer stop error", applogger.Error(err))
		}
	}

	// The collector publishes through the producer, so it goes before the producer closes.
	a.l.DetachCollector()

	if a.c.Recorder != nil {
		a.c.Recorder.Close()
	}
	if a.c.Producer != nil {
		if err := a.c.Producer.Close(); err != nil {
			a.l.Warn("kafka producer close error", applogger.Error(err))
		}
	}
	if a.c.CHClient != nil {
		if err := a.c.CHClient.Close(); err != nil {
			a.l.Warn("clickhouse close error", applogger.Error(err))
		}
	}
	if a.c.Redis != nil {
		if err := a.c.Redis.Close(); err != nil {
			a.l.Warn("redis close error", applogger.Error(err))
		}
	}
	for _, c := range a.c.Closers {
		if err := c(); err != nil {
			a.l.Warn("close error", applogger.Error(err))
		}
	}

	a.l.Info("shutdown complete")
	return errors.Join(errs...)
}
