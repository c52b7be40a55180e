package kafka

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// register returns the already registered collector when an identical one exists, so several
// producers or consumers can share a registry.
func register[C prometheus.Collector](reg prometheus.Registerer, c C) C {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing
			}
		}
		panic(err)
	}
	return c
}

func registererOrDefault(reg prometheus.Registerer) prometheus.Registerer {
	if reg == nil {
		return prometheus.DefaultRegisterer
	}
	return reg
}

type producerMetrics struct {
	messages *prometheus.CounterVec
	errors   *prometheus.CounterVec
	bytes    *prometheus.CounterVec
	latency  *prometheus.HistogramVec
}

func newProducerMetrics(reg prometheus.Registerer) *producerMetrics {
	reg = registererOrDefault(reg)
	return &producerMetrics{
		messages: register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "investwise",
			Subsystem: "kafka_producer",
			Name:      "messages_total",
			Help:      "Messages published to Kafka.",
		}, []string{"topic", "compression", "result"})),
		errors: register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "investwise",
			Subsystem: "kafka_producer",
			Name:      "errors_total",
			Help:      "Failed publish calls.",
		}, []string{"topic"})),
		bytes: register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "investwise",
			Subsystem: "kafka_producer",
			Name:      "bytes_total",
			Help:      "Payload bytes published.",
		}, []string{"topic", "compression"})),
		latency: register(reg, prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "investwise",
			Subsystem: "kafka_producer",
			Name:      "publish_seconds",
			Help:      "Publish latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"topic"})),
	}
}

func (m *producerMetrics) observe(topic, comp string, bytes int64, count int, dur time.Duration, err error) {
	result := "ok"
	if err != nil {
		result = "error"
		m.errors.WithLabelValues(topic).Inc()
	}
	m.messages.WithLabelValues(topic, comp, result).Add(float64(count))
	m.bytes.WithLabelValues(topic, comp).Add(float64(bytes))
	m.latency.WithLabelValues(topic).Observe(dur.Seconds())
}

type consumerMetrics struct {
	queueDepth    *prometheus.GaugeVec
	queueFullness *prometheus.GaugeVec
	handleLatency *prometheus.HistogramVec
	outcomes      *prometheus.CounterVec
}

func newConsumerMetrics(reg prometheus.Registerer) *consumerMetrics {
	reg = registererOrDefault(reg)
	return &consumerMetrics{
		queueDepth: register(reg, prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "investwise",
			Subsystem: "kafka_consumer",
			Name:      "queue_depth",
			Help:      "Messages waiting for a worker.",
		}, []string{"topic"})),
		queueFullness: register(reg, prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "investwise",
			Subsystem: "kafka_consumer",
			Name:      "queue_fullness",
			Help:      "Worker queue utilization (len/cap).",
		}, []string{"topic"})),
		handleLatency: register(reg, prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "investwise",
			Subsystem: "kafka_consumer",
			Name:      "handle_seconds",
			Help:      "Handling time per message including retries.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"topic"})),
		outcomes: register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "investwise",
			Subsystem: "kafka_consumer",
			Name:      "messages_total",
			Help:      "Handled messages by outcome (ok, dlq, dropped).",
		}, []string{"topic", "outcome"})),
	}
}

func (m *consumerMetrics) queue(topic string, depth, capacity int) {
	m.queueDepth.WithLabelValues(topic).Set(float64(depth))
	if capacity > 0 {
		m.queueFullness.WithLabelValues(topic).Set(float64(depth) / float64(capacity))
	}
}
