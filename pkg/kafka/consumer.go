package kafka

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/segmentio/kafka-go"

	"github.com/narayanprabad/InvestWise/pkg/config"
	"github.com/narayanprabad/InvestWise/pkg/logger"
)

// MessageHandler handles messages from a specific topic.
type MessageHandler interface {
	Topic() string
	Handle(context.Context, []byte) error
}

// ConsumerOption configures Consumer.
type ConsumerOption func(*ConsumerConfig)

// ConsumerConfig holds consumer configuration.
type ConsumerConfig struct {
	Brokers     []string
	GroupID     string
	WorkerCount int
	BufferSize  int
	RetryMax    int
	BackoffMin  time.Duration
	BackoffMax  time.Duration
	DLQTopic    string
	MinBytes    int
	MaxBytes    int

	Logger     *logger.Logger
	Registerer prometheus.Registerer
}

// ConsumerOptionsFrom maps the kafka consumer section of the application config.
func ConsumerOptionsFrom(cfg *config.Config) []ConsumerOption {
	cc := cfg.Kafka.Consumer
	return []ConsumerOption{
		WithConsumerBrokers(cfg.Kafka.Brokers),
		WithConsumerGroupID(cc.GroupID),
		WithConsumerWorkers(cc.Workers),
		WithConsumerBufferSize(cc.BufferSize),
		WithConsumerRetry(cc.RetryMax, cc.BackoffMin, cc.BackoffMax),
		WithConsumerDLQ(cc.DLQTopic),
		WithConsumerFetch(cc.MinBytes, cc.MaxBytes),
	}
}

func WithConsumerBrokers(brokers []string) ConsumerOption {
	return func(c *ConsumerConfig) {
		c.Brokers = brokers
	}
}

func WithConsumerGroupID(groupID string) ConsumerOption {
	return func(c *ConsumerConfig) {
		if groupID != "" {
			c.GroupID = groupID
		}
	}
}

// WithConsumerWorkers sets the number of handler goroutines.
func WithConsumerWorkers(count int) ConsumerOption {
	return func(c *ConsumerConfig) {
		if count > 0 {
			c.WorkerCount = count
		}
	}
}

// WithConsumerRetry configures handler retries. max is the number of retries after the first attempt.
func WithConsumerRetry(max int, backoffMin, backoffMax time.Duration) ConsumerOption {
	return func(c *ConsumerConfig) {
		if max >= 0 {
			c.RetryMax = max
		}
		if backoffMin > 0 {
			c.BackoffMin = backoffMin
		}
		if backoffMax > 0 {
			c.BackoffMax = backoffMax
		}
	}
}

// WithConsumerDLQ sets the dead letter topic. Empty disables it.
func WithConsumerDLQ(topic string) ConsumerOption {
	return func(c *ConsumerConfig) {
		c.DLQTopic = topic
	}
}

func WithConsumerFetch(minBytes, maxBytes int) ConsumerOption {
	return func(c *ConsumerConfig) {
		if minBytes > 0 {
			c.MinBytes = minBytes
		}
		if maxBytes > 0 {
			c.MaxBytes = maxBytes
		}
	}
}

// WithConsumerBufferSize sets the worker queue size.
func WithConsumerBufferSize(n int) ConsumerOption {
	return func(c *ConsumerConfig) {
		if n > 0 {
			c.BufferSize = n
		}
	}
}

func WithConsumerLogger(l *logger.Logger) ConsumerOption {
	return func(c *ConsumerConfig) {
		c.Logger = l
	}
}

func WithConsumerRegisterer(reg prometheus.Registerer) ConsumerOption {
	return func(c *ConsumerConfig) {
		c.Registerer = reg
	}
}

// messageReader is the subset of *kafka.Reader the consumer needs.
type messageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type partitionKey struct {
	topic     string
	partition int
}

// Consumer reads registered topics and fans messages out to a worker pool. Messages of one
// partition are handled one at a time; offsets are committed after success or after the
// message has been dead-lettered.
type Consumer struct {
	cfg       *ConsumerConfig
	log       *logger.Logger
	metrics   *consumerMetrics
	newReader func(topic string) messageReader
	readers   map[string]messageReader
	handlers  map[string]MessageHandler
	hook      ConsumerHook
	dlq       messageWriter

	ctx      context.Context
	cancel   context.CancelFunc
	msgChan  chan *message
	readWG   sync.WaitGroup
	workWG   sync.WaitGroup
	stopOnce sync.Once

	lockMu    sync.Mutex
	partLocks map[partitionKey]*sync.Mutex
}

type message struct {
	topic string
	data  []byte
	km    kafka.Message
}

// NewConsumer creates a new Kafka consumer.
func NewConsumer(opts ...ConsumerOption) (*Consumer, error) {
	cfg := &ConsumerConfig{
		GroupID:     "investwise",
		WorkerCount: 1,
		BufferSize:  10,
		RetryMax:    3,
		BackoffMin:  50 * time.Millisecond,
		BackoffMax:  2 * time.Second,
		MinBytes:    1,
		MaxBytes:    10e6,
	}
	for _, opt := range opts {
		opt(cfg)
	}
	if len(cfg.Brokers) == 0 {
		return nil, fmt.Errorf("brokers are required")
	}

	l := cfg.Logger
	if l == nil {
		l = logger.Nop()
	}
	ctx, cancel := context.WithCancel(context.Background())
	c := &Consumer{
		cfg:       cfg,
		log:       l.With(logger.String("component", "kafka_consumer")),
		metrics:   newConsumerMetrics(cfg.Registerer),
		readers:   make(map[string]messageReader),
		handlers:  make(map[string]MessageHandler),
		hook:      NoopHook{},
		ctx:       ctx,
		cancel:    cancel,
		msgChan:   make(chan *message, cfg.BufferSize),
		partLocks: make(map[partitionKey]*sync.Mutex),
	}
	c.newReader = func(topic string) messageReader {
		return kafka.NewReader(kafka.ReaderConfig{
			Brokers:  cfg.Brokers,
			Topic:    topic,
			GroupID:  cfg.GroupID,
			MinBytes: cfg.MinBytes,
			MaxBytes: cfg.MaxBytes,
		})
	}
	if cfg.DLQTopic != "" {
		c.dlq = &kafka.Writer{Addr: kafka.TCP(cfg.Brokers...), Balancer: &kafka.Hash{}}
	}
	return c, nil
}

// WithConsumerHook sets the hook run around every handling attempt. Call before Start.
func (c *Consumer) WithConsumerHook(h ConsumerHook) {
	if h != nil {
		c.hook = h
	}
}

// RegisterHandler registers a handler for its topic. The first handler for a topic wins.
func (c *Consumer) RegisterHandler(handler MessageHandler) {
	topic := handler.Topic()
	if _, ok := c.handlers[topic]; ok {
		c.log.Warn("handler already registered", logger.String("topic", topic))
		return
	}
	c.handlers[topic] = handler
}

// Start opens one reader per registered topic and starts the worker pool.
func (c *Consumer) Start() error {
	if len(c.handlers) == 0 {
		return errors.New("kafka consumer: no handlers registered")
	}
	for topic := range c.handlers {
		c.readers[topic] = c.newReader(topic)
		c.log.Info("topic registered", logger.String("topic", topic))
	}

	for i := 0; i < c.cfg.WorkerCount; i++ {
		c.workWG.Add(1)
		go c.messageWorker()
	}
	for topic, reader := range c.readers {
		c.readWG.Add(1)
		go c.consumeMessages(topic, reader)
	}

	c.log.Info("kafka consumer started",
		logger.Int("workers", c.cfg.WorkerCount),
		logger.String("group_id", c.cfg.GroupID))
	return nil
}

// Stop stops reading, lets in-flight handlers finish and closes readers.
// Messages still queued are left uncommitted and will be redelivered.
func (c *Consumer) Stop(ctx context.Context) error {
	var stopErr error
	c.stopOnce.Do(func() {
		c.cancel()

		// Readers must be gone before the queue is closed.
		if err := waitFor(ctx, &c.readWG); err != nil {
			stopErr = err
			return
		}
		close(c.msgChan)
		stopErr = waitFor(ctx, &c.workWG)

		for topic, reader := range c.readers {
			if err := reader.Close(); err != nil {
				c.log.Warn("close reader", logger.String("topic", topic), logger.Error(err))
			}
		}
		if c.dlq != nil {
			if err := c.dlq.Close(); err != nil {
				c.log.Warn("close dlq writer", logger.Error(err))
			}
		}
		if stopErr == nil {
			c.log.Info("kafka consumer stopped")
		}
	})
	return stopErr
}

func waitFor(ctx context.Context, wg *sync.WaitGroup) error {
	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()
	select {
	case <-ctx.Done():
		return fmt.Errorf("timeout waiting for consumer to stop: %w", ctx.Err())
	case <-done:
		return nil
	}
}

func (c *Consumer) consumeMessages(topic string, reader messageReader) {
	defer c.readWG.Done()

	for {
		msg, err := reader.FetchMessage(c.ctx)
		if err != nil {
			if c.ctx.Err() != nil {
				return
			}
			c.log.Warn("fetch message", logger.String("topic", topic), logger.Error(err))
			select {
			case <-time.After(c.cfg.BackoffMin):
				continue
			case <-c.ctx.Done():
				return
			}
		}

		// A full queue blocks the reader, which is the backpressure.
		select {
		case c.msgChan <- &message{topic: topic, data: msg.Value, km: msg}:
			c.metrics.queue(topic, len(c.msgChan), cap(c.msgChan))
		case <-c.ctx.Done():
			return
		}
	}
}

func (c *Consumer) messageWorker() {
	defer c.workWG.Done()

	for msg := range c.msgChan {
		c.metrics.queue(msg.topic, len(c.msgChan), cap(c.msgChan))
		if c.ctx.Err() != nil {
			continue
		}
		c.process(msg)
	}
}

func (c *Consumer) process(m *message) {
	handler, ok := c.handlers[m.topic]
	if !ok {
		return
	}
	start := time.Now()
	defer func() {
		c.metrics.handleLatency.WithLabelValues(m.topic).Observe(time.Since(start).Seconds())
	}()

	pl := c.partitionLock(m.topic, m.km.Partition)
	pl.Lock()
	defer pl.Unlock()

	err := c.handleWithRetry(handler, m)
	if err != nil && c.ctx.Err() != nil {
		// Interrupted by Stop; leave it for the next consumer.
		return
	}

	outcome := "ok"
	if err != nil {
		outcome = "dropped"
		c.hook.OnError(context.Background(), m.topic, m.km, m.data, err)
		c.log.Error("kafka message failed after retries",
			logger.String("topic", m.topic),
			logger.Int("partition", m.km.Partition),
			logger.Int64("offset", m.km.Offset),
			logger.Error(err))
		if c.dlq != nil {
			if dlqErr := c.publishDLQ(m, err); dlqErr != nil {
				c.log.Error("dlq publish failed", logger.String("dlq_topic", c.cfg.DLQTopic), logger.Error(dlqErr))
			} else {
				outcome = "dlq"
			}
		}
	}
	c.metrics.outcomes.WithLabelValues(m.topic, outcome).Inc()

	// Commit after DLQ as well so a poison message cannot block its partition.
	if err == nil || c.dlq != nil {
		c.commit(m)
	}
}

func (c *Consumer) handleWithRetry(handler MessageHandler, m *message) error {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = c.cfg.BackoffMin
	b.MaxInterval = c.cfg.BackoffMax
	b.MaxElapsedTime = 0
	policy := backoff.WithContext(backoff.WithMaxRetries(b, uint64(c.cfg.RetryMax)), c.ctx)

	attempt := func() (err error) {
		defer func() {
			if r := recover(); r != nil {
				err = backoff.Permanent(fmt.Errorf("handler panic: %v", r))
			}
		}()
		hctx, hmsg, hdata, err := c.hook.BeforeHandle(context.Background(), m.topic, m.km, m.data)
		if err != nil {
			return backoff.Permanent(err)
		}
		err = handler.Handle(hctx, hdata)
		c.hook.AfterHandle(hctx, m.topic, hmsg, hdata, err)
		return err
	}
	notify := func(err error, wait time.Duration) {
		c.hook.OnError(context.Background(), m.topic, m.km, m.data, err)
		c.log.Debug("retrying kafka message",
			logger.String("topic", m.topic),
			logger.Int64("offset", m.km.Offset),
			logger.Duration("wait", wait),
			logger.Error(err))
	}
	return backoff.RetryNotify(attempt, policy, notify)
}

func (c *Consumer) publishDLQ(m *message, cause error) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return c.dlq.WriteMessages(ctx, kafka.Message{
		Topic: c.cfg.DLQTopic,
		Key:   m.km.Key,
		Value: m.data,
		Time:  time.Now().UTC(),
		Headers: []kafka.Header{
			{Key: "source_topic", Value: []byte(m.topic)},
			{Key: "error", Value: []byte(cause.Error())},
		},
	})
}

func (c *Consumer) commit(m *message) {
	reader := c.readers[m.topic]
	if reader == nil {
		return
	}
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 50 * time.Millisecond
	b.MaxInterval = 500 * time.Millisecond
	err := backoff.Retry(func() error {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		return reader.CommitMessages(ctx, m.km)
	}, backoff.WithMaxRetries(b, 2))
	if err != nil {
		c.log.Error("commit offset failed",
			logger.String("topic", m.topic),
			logger.Int64("offset", m.km.Offset),
			logger.Error(err))
	}
}

func (c *Consumer) partitionLock(topic string, partition int) *sync.Mutex {
	key := partitionKey{topic: topic, partition: partition}
	c.lockMu.Lock()
	defer c.lockMu.Unlock()
	l, ok := c.partLocks[key]
	if !ok {
		l = &sync.Mutex{}
		c.partLocks[key] = l
	}
	return l
}
