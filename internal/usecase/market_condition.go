package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/narayanprabad/InvestWise/internal/domain/models"
	domrepo "github.com/narayanprabad/InvestWise/internal/domain/repository"
	domsvc "github.com/narayanprabad/InvestWise/internal/domain/service"
	"github.com/narayanprabad/InvestWise/internal/services/analytics"
	"github.com/narayanprabad/InvestWise/internal/services/features"
	"github.com/narayanprabad/InvestWise/pkg/config"
	applogger "github.com/narayanprabad/InvestWise/pkg/logger"
)

// Source names used in MarketReport.Errors and source-error metrics.
const (
	SourceVolatility      = "volatility"
	SourceVolatilityProxy = "volatility_proxy"
	SourceQuote           = "quote"
	SourceTrend           = "trend"
	SourceSentiment       = "sentiment"
)

// Sources groups the upstream collaborators of the condition use case.
type Sources struct {
	Quotes    domsvc.QuoteSource
	History   domsvc.PriceHistorySource
	Trend     domsvc.TrendSource
	Sentiment domsvc.SentimentSource
}

// ReportSink receives every report the use case produces.
type ReportSink interface {
	OnReport(r *models.MarketReport)
}

// MarketConditionUseCase gathers classifier inputs concurrently and classifies them.
// Upstream failures never fail the call; they degrade the inputs and are listed in the
// report's Errors.
type MarketConditionUseCase struct {
	src        Sources
	classifier *analytics.Classifier
	metrics    domrepo.Metrics
	l          *applogger.Logger

	benchmark      string
	volSymbol      string
	defaultHorizon int
	neutralVol     float64
	proxyWindow    int
	proxyDays      int
	timeout        time.Duration
	now            func() time.Time

	mu    sync.RWMutex
	sinks []ReportSink
}

func NewMarketConditionUseCase(cfg *config.Config, src Sources, classifier *analytics.Classifier, metrics domrepo.Metrics, l *applogger.Logger) *MarketConditionUseCase {
	if l == nil {
		l = applogger.Nop()
	}
	m := cfg.Market
	return &MarketConditionUseCase{
		src:            src,
		classifier:     classifier,
		metrics:        metrics,
		l:              l,
		benchmark:      m.BenchmarkSymbol,
		volSymbol:      m.VolatilitySymbol,
		defaultHorizon: m.HorizonDays,
		neutralVol:     m.NeutralVolatility,
		proxyWindow:    m.ProxyWindow,
		// Calendar days covering the proxy window of trading days plus weekends and holidays.
		proxyDays: m.ProxyWindow*2 + 10,
		timeout:   requestTimeout(cfg),
		now:       time.Now,
	}
}

func requestTimeout(cfg *config.Config) time.Duration {
	t := cfg.MarketData.Timeout + cfg.MarketData.RetryBudget
	if a := cfg.Analytics.Timeout * time.Duration(max(cfg.Analytics.RetryAttempts, 1)); a > t {
		t = a
	}
	if t <= 0 {
		t = 10 * time.Second
	}
	return t
}

// Subscribe registers a sink. Sinks must not block.
func (uc *MarketConditionUseCase) Subscribe(s ReportSink) {
	uc.mu.Lock()
	defer uc.mu.Unlock()
	uc.sinks = append(uc.sinks, s)
}

type ConditionParams struct {
	Symbol      string
	HorizonDays int
}

// NormalizeSymbol upper-cases and trims a ticker and rejects malformed ones.
func NormalizeSymbol(s string) (string, error) {
	s = strings.ToUpper(strings.TrimSpace(s))
	if s == "" || len(s) > 20 || strings.ContainsAny(s, " \t/\\?#") {
		return "", fmt.Errorf("%w: %q", models.ErrInvalidSymbol, s)
	}
	return s, nil
}

// Evaluate classifies the market condition for p.Symbol (the benchmark when empty).
// Only invalid input is returned as an error.
func (uc *MarketConditionUseCase) Evaluate(ctx context.Context, p ConditionParams) (*models.MarketReport, error) {
	start := time.Now()
	if p.Symbol == "" {
		p.Symbol = uc.benchmark
	}
	symbol, err := NormalizeSymbol(p.Symbol)
	if err != nil {
		return nil, err
	}
	if p.HorizonDays == 0 {
		p.HorizonDays = uc.defaultHorizon
	}
	if p.HorizonDays < 1 || p.HorizonDays > 365 {
		return nil, fmt.Errorf("%w: %d days", models.ErrInvalidHorizon, p.HorizonDays)
	}

	ctx, cancel := context.WithTimeout(ctx, uc.timeout)
	defer cancel()

	report := &models.MarketReport{
		Symbol:      symbol,
		HorizonDays: p.HorizonDays,
		Timestamp:   uc.now().UTC(),
		Errors:      map[string]string{},
	}

	type item struct {
		name string
		val  interface{}
		err  error
		errs map[string]error
	}
	ch := make(chan item, 4)
	var wg sync.WaitGroup

	wg.Add(4)
	go func() {
		defer wg.Done()
		v, errs := uc.volatility(ctx)
		ch <- item{name: SourceVolatility, val: v, errs: errs}
	}()
	go func() {
		defer wg.Done()
		v, err := uc.src.Quotes.Quote(ctx, symbol)
		ch <- item{name: SourceQuote, val: v, err: err}
	}()
	go func() {
		defer wg.Done()
		v, err := uc.src.Trend.Predict(ctx, symbol, p.HorizonDays)
		ch <- item{name: SourceTrend, val: v, err: err}
	}()
	go func() {
		defer wg.Done()
		v, err := uc.src.Sentiment.Analyze(ctx, symbol)
		ch <- item{name: SourceSentiment, val: v, err: err}
	}()
	go func() { wg.Wait(); close(ch) }()

	var quoteErr error
	for it := range ch {
		switch it.name {
		case SourceVolatility:
			report.Inputs.Volatility = it.val.(float64)
			for _, name := range []string{SourceVolatility, SourceVolatilityProxy} {
				if err, ok := it.errs[name]; ok {
					uc.recordSourceError(report, name, err)
				}
			}
		case SourceQuote:
			if it.err != nil {
				quoteErr = it.err
				uc.recordSourceError(report, SourceQuote, it.err)
				continue
			}
			q := it.val.(models.Quote)
			report.Quote = &q
			report.Inputs.ChangePercent = q.ChangePercent
			uc.metrics.RecordLastQuote(symbol, q.Price)
		case SourceTrend:
			if it.err != nil {
				uc.recordSourceError(report, SourceTrend, it.err)
				continue
			}
			v := it.val.(models.TrendPrediction)
			report.Inputs.Trend = &v
		case SourceSentiment:
			if it.err != nil {
				uc.recordSourceError(report, SourceSentiment, it.err)
				continue
			}
			v := it.val.(models.SentimentScore)
			report.Inputs.Sentiment = &v
		}
	}

	// An unknown ticker is the caller's mistake, not an outage.
	if errors.Is(quoteErr, models.ErrInvalidSymbol) {
		return nil, quoteErr
	}

	report.Classification = uc.classifier.Classify(report.Inputs)
	if len(report.Errors) == 0 {
		report.Errors = nil
	}

	uc.metrics.RecordClassification(symbol, report.Classification.Condition, report.Classification.Mode)
	uc.metrics.RecordLatency("condition", time.Since(start).Seconds())
	uc.l.Debug("market condition classified",
		applogger.String("symbol", symbol),
		applogger.String("condition", string(report.Classification.Condition)),
		applogger.String("mode", string(report.Classification.Mode)),
		applogger.Float64("volatility", report.Inputs.Volatility),
		applogger.Bool("quoted", report.Quote != nil),
		applogger.Int("source_errors", len(report.Errors)))

	uc.publish(report)
	return report, nil
}

// volatility returns the volatility index level, falling back to a realized-volatility proxy
// on the benchmark and finally to the neutral midpoint. It never fails; skipped steps are
// returned by source name.
func (uc *MarketConditionUseCase) volatility(ctx context.Context) (float64, map[string]error) {
	q, err := uc.src.Quotes.Quote(ctx, uc.volSymbol)
	if err == nil {
		return q.Price, nil
	}
	errs := map[string]error{SourceVolatility: err}

	v, perr := uc.volatilityProxy(ctx)
	if perr == nil {
		return v, errs
	}
	errs[SourceVolatilityProxy] = perr
	return uc.neutralVol, errs
}

func (uc *MarketConditionUseCase) volatilityProxy(ctx context.Context) (float64, error) {
	if uc.src.History == nil {
		return 0, fmt.Errorf("%w: no price history source", domsvc.ErrSourceUnavailable)
	}
	pts, err := uc.src.History.History(ctx, uc.benchmark, uc.proxyDays)
	if err != nil {
		return 0, err
	}
	v, ok := features.VolatilityIndexProxy(features.Closes(pts), uc.proxyWindow)
	if !ok {
		return 0, fmt.Errorf("%w: %d closes for a %d-day window", domsvc.ErrSourceUnavailable, len(pts), uc.proxyWindow)
	}
	return v, nil
}

func (uc *MarketConditionUseCase) recordSourceError(r *models.MarketReport, name string, err error) {
	r.Errors[name] = err.Error()
	uc.metrics.RecordSourceError(name)
	uc.l.Warn("upstream source failed",
		applogger.String("source", name),
		applogger.String("symbol", r.Symbol),
		applogger.Error(err))
}

func (uc *MarketConditionUseCase) publish(r *models.MarketReport) {
	uc.mu.RLock()
	sinks := uc.sinks
	uc.mu.RUnlock()
	for _, s := range sinks {
		s.OnReport(r)
	}
}
