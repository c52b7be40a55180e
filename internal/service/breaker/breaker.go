package breaker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sony/gobreaker"

	"github.com/narayanprabad/InvestWise/internal/domain/models"
	domsvc "github.com/narayanprabad/InvestWise/internal/domain/service"
	"github.com/narayanprabad/InvestWise/pkg/config"
	"github.com/narayanprabad/InvestWise/pkg/logger"
)

// Breaker wraps a gobreaker circuit breaker. Calls rejected by an open breaker surface as
// domsvc.ErrSourceUnavailable so callers take their fallback path.
type Breaker struct {
	cb *gobreaker.CircuitBreaker
}

func New(name string, cfg config.BreakerConfig, log *logger.Logger) *Breaker {
	st := gobreaker.Settings{
		Name:        name,
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
	}
	trip := cfg.ConsecutiveFailures
	if trip == 0 {
		trip = 5
	}
	st.ReadyToTrip = func(c gobreaker.Counts) bool {
		if c.ConsecutiveFailures >= trip {
			return true
		}
		// sustained error rate over a meaningful sample
		return c.Requests >= 20 && float64(c.TotalFailures)/float64(c.Requests) > 0.5
	}
	// A cancelled caller or a rejected symbol says nothing about upstream health.
	st.IsSuccessful = func(err error) bool {
		return err == nil || errors.Is(err, context.Canceled) || models.IsInvalidInput(err)
	}
	if log != nil {
		st.OnStateChange = func(name string, from, to gobreaker.State) {
			log.Warn("circuit breaker state change",
				logger.String("breaker", name),
				logger.String("from", from.String()),
				logger.String("to", to.String()))
		}
	}
	return &Breaker{cb: gobreaker.NewCircuitBreaker(st)}
}

func (b *Breaker) Name() string { return b.cb.Name() }

func (b *Breaker) State() gobreaker.State { return b.cb.State() }

// Execute runs fn through the breaker.
func (b *Breaker) Execute(fn func() (interface{}, error)) (interface{}, error) {
	res, err := b.cb.Execute(fn)
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return nil, fmt.Errorf("%w: %s breaker: %v", domsvc.ErrSourceUnavailable, b.cb.Name(), err)
	}
	return res, err
}

// Trend guards a TrendSource.
type Trend struct {
	next domsvc.TrendSource
	b    *Breaker
}

func NewTrend(next domsvc.TrendSource, b *Breaker) *Trend { return &Trend{next: next, b: b} }

func (t *Trend) Predict(ctx context.Context, symbol string, horizonDays int) (models.TrendPrediction, error) {
	res, err := t.b.Execute(func() (interface{}, error) {
		return t.next.Predict(ctx, symbol, horizonDays)
	})
	if err != nil {
		return models.TrendPrediction{}, err
	}
	return res.(models.TrendPrediction), nil
}

// Sentiment guards a SentimentSource.
type Sentiment struct {
	next domsvc.SentimentSource
	b    *Breaker
}

func NewSentiment(next domsvc.SentimentSource, b *Breaker) *Sentiment {
	return &Sentiment{next: next, b: b}
}

func (s *Sentiment) Analyze(ctx context.Context, symbol string) (models.SentimentScore, error) {
	res, err := s.b.Execute(func() (interface{}, error) {
		return s.next.Analyze(ctx, symbol)
	})
	if err != nil {
		return models.SentimentScore{}, err
	}
	return res.(models.SentimentScore), nil
}

// Quote guards a QuoteSource.
type Quote struct {
	next domsvc.QuoteSource
	b    *Breaker
}

func NewQuote(next domsvc.QuoteSource, b *Breaker) *Quote { return &Quote{next: next, b: b} }

func (q *Quote) Quote(ctx context.Context, symbol string) (models.Quote, error) {
	res, err := q.b.Execute(func() (interface{}, error) {
		return q.next.Quote(ctx, symbol)
	})
	if err != nil {
		return models.Quote{}, err
	}
	return res.(models.Quote), nil
}

var (
	_ domsvc.TrendSource     = (*Trend)(nil)
	_ domsvc.SentimentSource = (*Sentiment)(nil)
	_ domsvc.QuoteSource     = (*Quote)(nil)
)

// DefaultSettings is used by tests and the CLI when no config is loaded.
func DefaultSettings() config.BreakerConfig {
	return config.BreakerConfig{MaxRequests: 1, Interval: time.Minute, Timeout: 30 * time.Second, ConsecutiveFailures: 5}
}
