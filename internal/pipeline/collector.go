package pipeline

import (
	"context"
	"time"

	"github.com/skaldic/muse/internal/capture"
	"github.com/skaldic/muse/internal/metrics"
	"go.uber.org/zap"
)

// Collector polls the content source on a fixed interval and feeds
// admitted items into the queue. One slow poll delays the next tick; it
// never overlaps.
type Collector struct {
	source   capture.Source
	dedupe   *capture.Deduplicator
	queue    *Queue
	interval time.Duration
	metrics  *metrics.Metrics
	logger   *zap.Logger

	cancel context.CancelFunc
	done   chan struct{}
}

// NewCollector wires a source to the queue through the deduplicator.
func NewCollector(source capture.Source, dedupe *capture.Deduplicator, queue *Queue,
	interval time.Duration, m *metrics.Metrics, logger *zap.Logger) *Collector {
	return &Collector{
		source:   source,
		dedupe:   dedupe,
		queue:    queue,
		interval: interval,
		metrics:  m,
		logger:   logger,
	}
}

// Start begins the poll loop in a background goroutine.
func (c *Collector) Start() {
	ctx, cancel := context.WithCancel(context.Background())
	c.cancel = cancel
	c.done = make(chan struct{})
	go c.loop(ctx)
	c.logger.Info("collector started", zap.Duration("interval", c.interval))
}

// Stop halts the poll loop and waits for an in-flight tick to finish.
func (c *Collector) Stop() {
	if c.cancel == nil {
		return
	}
	c.cancel()
	<-c.done
	c.logger.Info("collector stopped")
}

func (c *Collector) loop(ctx context.Context) {
	defer close(c.done)

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.tick(ctx)
		}
	}
}

// tick runs one poll: fetch, fingerprint check, enqueue.
func (c *Collector) tick(ctx context.Context) {
	it, err := c.source.FetchLatest(ctx)
	if err != nil {
		if ctx.Err() == nil {
			c.logger.Warn("fetch failed", zap.Error(err))
		}
		return
	}
	if it == nil {
		return
	}
	c.metrics.Captured.Add(1)

	switch v := c.dedupe.Admit(it); v {
	case capture.VerdictDuplicate:
		c.metrics.Duplicates.Add(1)
		return
	case capture.VerdictTooShort:
		c.metrics.TooShort.Add(1)
		c.logger.Debug("content below minimum length",
			zap.String("fingerprint", it.Fingerprint.Short()),
			zap.Int("length", it.TextLength()))
		return
	}

	if !c.queue.TryEnqueue(it) {
		c.metrics.QueueDrops.Add(1)
		c.logger.Warn("queue full, dropping item",
			zap.String("fingerprint", it.Fingerprint.Short()),
			zap.Int("capacity", c.queue.Cap()))
		return
	}
	c.metrics.Enqueued.Add(1)
	c.logger.Debug("item enqueued",
		zap.String("kind", string(it.Kind)),
		zap.String("fingerprint", it.Fingerprint.Short()),
		zap.Int("bytes", it.Size()))
}
