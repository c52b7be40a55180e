package logger

import (
	"context"
	"encoding/json"
	"hash/fnv"
	"strconv"
	"sync"
	"time"
)

// Publisher ships aggregated log batches, e.g. to a Kafka topic.
type Publisher interface {
	PublishMessage(ctx context.Context, topic string, payload interface{}) error
}

type CollectorConfig struct {
	FlushInterval time.Duration
	MaxEntries    int // distinct entries held before an early flush
	Topic         string
	Publisher     Publisher
}

type AggregatedEntry struct {
	Level     string                 `json:"level"`
	Message   string                 `json:"message"`
	Fields    map[string]interface{} `json:"fields"`
	Caller    string                 `json:"caller"`
	Count     int                    `json:"count"`
	FirstSeen time.Time              `json:"first_seen"`
	LastSeen  time.Time              `json:"last_seen"`
}

// Collector folds repeated log entries into counted aggregates so a noisy upstream
// failure produces one message per flush instead of one per request.
type Collector struct {
	cfg     CollectorConfig
	mu      sync.Mutex
	entries map[uint64]*AggregatedEntry
	closed  bool
	flushCh chan []AggregatedEntry
	stop    chan struct{}
	wg      sync.WaitGroup
}

func NewCollector(cfg *CollectorConfig) *Collector {
	c := &Collector{
		cfg:     *cfg,
		entries: make(map[uint64]*AggregatedEntry),
		flushCh: make(chan []AggregatedEntry, 4),
		stop:    make(chan struct{}),
	}
	if c.cfg.FlushInterval <= 0 {
		c.cfg.FlushInterval = 30 * time.Second
	}
	if c.cfg.MaxEntries <= 0 {
		c.cfg.MaxEntries = 100
	}

	c.wg.Add(2)
	go c.tick()
	go c.publish()
	return c
}

func (c *Collector) Add(level, message string, fields map[string]interface{}, caller string) {
	now := time.Now()
	key := entryKey(level, message, fields, caller)

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	if e, ok := c.entries[key]; ok {
		e.Count++
		e.LastSeen = now
	} else {
		c.entries[key] = &AggregatedEntry{
			Level: level, Message: message, Fields: fields, Caller: caller,
			Count: 1, FirstSeen: now, LastSeen: now,
		}
	}
	if len(c.entries) >= c.cfg.MaxEntries {
		c.enqueue(c.drainLocked())
	}
}

// pending returns the number of distinct entries waiting for the next flush.
func (c *Collector) pending() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

func (c *Collector) Close() {
	close(c.stop)
	c.wg.Wait()
}

func (c *Collector) drainLocked() []AggregatedEntry {
	if len(c.entries) == 0 {
		return nil
	}
	out := make([]AggregatedEntry, 0, len(c.entries))
	for _, e := range c.entries {
		out = append(out, *e)
	}
	c.entries = make(map[uint64]*AggregatedEntry)
	return out
}

// enqueue drops the batch when the publisher is backed up.
func (c *Collector) enqueue(batch []AggregatedEntry) {
	select {
	case c.flushCh <- batch:
	default:
	}
}

func (c *Collector) tick() {
	defer c.wg.Done()
	t := time.NewTicker(c.cfg.FlushInterval)
	defer t.Stop()

	for {
		select {
		case <-t.C:
			c.mu.Lock()
			batch := c.drainLocked()
			c.mu.Unlock()
			if batch != nil {
				c.enqueue(batch)
			}
		case <-c.stop:
			c.mu.Lock()
			c.closed = true
			batch := c.drainLocked()
			c.mu.Unlock()
			if batch != nil {
				c.flushCh <- batch
			}
			close(c.flushCh)
			return
		}
	}
}

func (c *Collector) publish() {
	defer c.wg.Done()
	for batch := range c.flushCh {
		if c.cfg.Publisher == nil {
			continue
		}
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		_ = c.cfg.Publisher.PublishMessage(ctx, c.cfg.Topic, batch)
		cancel()
	}
}

func entryKey(level, message string, fields map[string]interface{}, caller string) uint64 {
	h := fnv.New64a()
	h.Write([]byte(level))
	h.Write([]byte{0})
	h.Write([]byte(message))
	h.Write([]byte{0})
	h.Write([]byte(caller))
	// json.Marshal sorts map keys, so equal field sets hash equally
	if b, err := json.Marshal(fields); err == nil {
		h.Write(b)
	} else {
		h.Write([]byte(strconv.Itoa(len(fields))))
	}
	return h.Sum64()
}
