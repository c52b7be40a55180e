package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/narayanprabad/InvestWise/internal/domain/models"
	"github.com/narayanprabad/InvestWise/internal/domain/repository"
)

const namespace = "investwise"

// Recorder implements repository.Metrics using Prometheus.
type Recorder struct {
	classifications *prometheus.CounterVec
	allocations     *prometheus.CounterVec
	sourceErrors    *prometheus.CounterVec
	snapshotsSent   *prometheus.CounterVec
	errorsTotal     *prometheus.CounterVec
	lastQuote       *prometheus.GaugeVec
	lastCondition   *prometheus.GaugeVec
	latency         *prometheus.HistogramVec
}

// New registers the collectors on reg. Each registry accepts one Recorder.
func New(reg prometheus.Registerer) *Recorder {
	f := promauto.With(reg)
	return &Recorder{
		classifications: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "classifications_total",
			Help:      "Market condition classifications by outcome and mode",
		}, []string{"symbol", "condition", "mode"}),
		allocations: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "allocations_total",
			Help:      "Allocations computed by risk profile and condition",
		}, []string{"risk", "condition"}),
		sourceErrors: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "source_errors_total",
			Help:      "Upstream data source failures",
		}, []string{"source"}),
		snapshotsSent: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "snapshots_sent_total",
			Help:      "Condition snapshots handed to a backend",
		}, []string{"backend", "symbol"}),
		errorsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "errors_total",
			Help:      "Total number of errors encountered",
		}, []string{"type"}),
		lastQuote: f.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_quote",
			Help:      "Last observed price for a symbol",
		}, []string{"symbol"}),
		lastCondition: f.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_condition",
			Help:      "Last classified condition per symbol: -1 bearish, 0 neutral, 1 bullish",
		}, []string{"symbol"}),
		latency: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "operation_duration_seconds",
			Help:      "Duration of operations in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"operation"}),
	}
}

func (r *Recorder) RecordClassification(symbol string, condition models.MarketCondition, mode models.ClassificationMode) {
	r.classifications.WithLabelValues(symbol, condition.String(), string(mode)).Inc()
	var v float64
	switch condition {
	case models.Bearish:
		v = -1
	case models.Bullish:
		v = 1
	}
	r.lastCondition.WithLabelValues(symbol).Set(v)
}

func (r *Recorder) RecordAllocation(risk models.RiskProfile, condition models.MarketCondition) {
	r.allocations.WithLabelValues(string(risk), condition.String()).Inc()
}

func (r *Recorder) RecordSourceError(source string) {
	r.sourceErrors.WithLabelValues(source).Inc()
}

func (r *Recorder) RecordSnapshotSent(backend, symbol string) {
	r.snapshotsSent.WithLabelValues(backend, symbol).Inc()
}

// RecordError records an error occurrence.
func (r *Recorder) RecordError(kind string) {
	r.errorsTotal.WithLabelValues(kind).Inc()
}

func (r *Recorder) RecordLastQuote(symbol string, price float64) {
	r.lastQuote.WithLabelValues(symbol).Set(price)
}

// RecordLatency records operation latency in seconds.
func (r *Recorder) RecordLatency(op string, seconds float64) {
	r.latency.WithLabelValues(op).Observe(seconds)
}

// Nop discards all measurements.
type Nop struct{}

func (Nop) RecordClassification(string, models.MarketCondition, models.ClassificationMode) {}
func (Nop) RecordAllocation(models.RiskProfile, models.MarketCondition)                    {}
func (Nop) RecordSourceError(string)                                                       {}
func (Nop) RecordSnapshotSent(string, string)                                              {}
func (Nop) RecordError(string)                                                             {}
func (Nop) RecordLastQuote(string, float64)                                                {}
func (Nop) RecordLatency(string, float64)                                                  {}

var (
	_ repository.Metrics = (*Recorder)(nil)
	_ repository.Metrics = Nop{}
)
