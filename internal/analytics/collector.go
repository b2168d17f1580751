// Package analytics is the optional command-event pipeline: events from the
// server loop are buffered on a bounded channel, published to Kafka behind a
// circuit breaker, and periodically aggregated into PostgreSQL snapshots.
// The pipeline never blocks the server loop; when the buffer is full events
// are dropped.
package analytics

import (
	"context"
	"log/slog"
	"time"

	"github.com/jcampos-dev/docindex/pkg/kafka"
	"github.com/jcampos-dev/docindex/pkg/resilience"
)

// Collector receives command events and fans them out to the sinks.
type Collector struct {
	producer *kafka.Producer
	breaker  *resilience.CircuitBreaker
	store    *Store
	eventCh  chan CommandEvent
	done     chan struct{}
	logger   *slog.Logger

	snapshotEvery time.Duration
	stats         AggregatedStats
}

// NewCollector creates a Collector. producer and store may each be nil,
// disabling that sink.
func NewCollector(producer *kafka.Producer, store *Store, bufferSize int, snapshotEvery time.Duration) *Collector {
	if bufferSize <= 0 {
		bufferSize = 10000
	}
	if snapshotEvery <= 0 {
		snapshotEvery = time.Minute
	}
	return &Collector{
		producer:      producer,
		breaker:       resilience.NewCircuitBreaker("analytics-kafka", resilience.CircuitBreakerConfig{}),
		store:         store,
		eventCh:       make(chan CommandEvent, bufferSize),
		done:          make(chan struct{}),
		logger:        slog.Default().With("component", "analytics-collector"),
		snapshotEvery: snapshotEvery,
		stats:         AggregatedStats{CommandCounts: make(map[string]int64)},
	}
}

// Start launches the collector goroutine. It runs until Close or ctx
// cancellation.
func (c *Collector) Start(ctx context.Context) {
	go func() {
		defer close(c.done)
		ticker := time.NewTicker(c.snapshotEvery)
		defer ticker.Stop()
		for {
			select {
			case event, ok := <-c.eventCh:
				if !ok {
					c.snapshot(context.Background())
					return
				}
				c.consume(ctx, event)
			case <-ticker.C:
				c.snapshot(ctx)
			case <-ctx.Done():
				c.drainRemaining()
				c.snapshot(context.Background())
				return
			}
		}
	}()
	c.logger.Info("analytics collector started", "buffer_size", cap(c.eventCh))
}

// Track enqueues one event without blocking. Events are dropped when the
// buffer is full.
func (c *Collector) Track(event CommandEvent) {
	event.Timestamp = time.Now().UTC()
	select {
	case c.eventCh <- event:
	default:
		c.logger.Warn("analytics event dropped (buffer full)")
	}
}

// Close stops the collector after draining buffered events and writes a
// final snapshot.
func (c *Collector) Close() {
	close(c.eventCh)
	<-c.done
}

func (c *Collector) consume(ctx context.Context, event CommandEvent) {
	c.aggregate(event)
	if c.producer == nil {
		return
	}
	err := c.breaker.Execute(func() error {
		return c.producer.Publish(ctx, kafka.Event{Key: event.Opcode, Value: event})
	})
	if err != nil {
		c.logger.Error("failed to publish analytics event", "error", err)
	}
}

func (c *Collector) aggregate(event CommandEvent) {
	c.stats.CommandCounts[event.Opcode]++
	switch event.Type {
	case EventDocumentIndexed:
		c.stats.TotalDocsIndexed++
	case EventDocumentDeleted:
		c.stats.TotalDocsDeleted++
	case EventSearchExecuted:
		c.stats.TotalSearches++
		if event.CacheHit {
			c.stats.CacheHits++
		} else {
			c.stats.CacheMisses++
		}
	}
}

func (c *Collector) snapshot(ctx context.Context) {
	if c.store == nil {
		return
	}
	if err := c.store.SaveSnapshot(ctx, c.stats); err != nil {
		c.logger.Error("failed to save analytics snapshot", "error", err)
	}
}

func (c *Collector) drainRemaining() {
	for {
		select {
		case event, ok := <-c.eventCh:
			if !ok {
				return
			}
			c.consume(context.Background(), event)
		default:
			return
		}
	}
}
