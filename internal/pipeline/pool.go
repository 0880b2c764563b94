package pipeline

import (
	"context"
	"sync"
	"time"

	"github.com/skaldic/muse/internal/agent"
	"github.com/skaldic/muse/internal/capture"
	"github.com/skaldic/muse/internal/metrics"
	"github.com/skaldic/muse/internal/sink"
	"go.uber.org/zap"
)

const (
	// idleDelay is how long a worker sleeps when the queue is empty.
	idleDelay = 50 * time.Millisecond
	// sinkWriteTimeout bounds one record's delivery to the sinks.
	sinkWriteTimeout = 10 * time.Second
)

// Pool drains the queue with a fixed set of workers. Each worker grabs a
// batch, runs the full agent chain per item, and hands finished records
// to a single writer goroutine so sink latency never blocks analysis.
type Pool struct {
	queue     *Queue
	chain     *agent.Chain
	sink      sink.Sink
	workers   int
	batchSize int
	metrics   *metrics.Metrics
	logger    *zap.Logger

	results    chan *agent.Record
	cancel     context.CancelFunc
	wg         sync.WaitGroup
	writerDone chan struct{}
}

// NewPool creates a pool of workers over the queue.
func NewPool(queue *Queue, chain *agent.Chain, snk sink.Sink,
	workers, batchSize int, m *metrics.Metrics, logger *zap.Logger) *Pool {
	return &Pool{
		queue:     queue,
		chain:     chain,
		sink:      snk,
		workers:   workers,
		batchSize: batchSize,
		metrics:   m,
		logger:    logger,
	}
}

// Start launches the workers and the sink writer.
func (p *Pool) Start() {
	ctx, cancel := context.WithCancel(context.Background())
	p.cancel = cancel
	p.results = make(chan *agent.Record, p.workers*p.batchSize)
	p.writerDone = make(chan struct{})

	go p.writer()
	for i := 0; i < p.workers; i++ {
		p.wg.Add(1)
		go p.worker(ctx, i)
	}
	p.logger.Info("processor pool started",
		zap.Int("workers", p.workers),
		zap.Int("batch_size", p.batchSize))
}

// Stop cancels the workers, waits for in-flight items to wind down, then
// lets the writer flush whatever records made it out.
func (p *Pool) Stop() {
	if p.cancel == nil {
		return
	}
	p.cancel()
	p.wg.Wait()
	close(p.results)
	<-p.writerDone
	p.logger.Info("processor pool stopped")
}

func (p *Pool) worker(ctx context.Context, id int) {
	defer p.wg.Done()
	log := p.logger.With(zap.Int("worker", id))

	for {
		if ctx.Err() != nil {
			return
		}

		batch := p.drainBatch()
		if len(batch) == 0 {
			select {
			case <-ctx.Done():
				return
			case <-time.After(idleDelay):
			}
			continue
		}

		p.metrics.Batches.Add(1)
		for _, it := range batch {
			if ctx.Err() != nil {
				log.Info("shutdown, abandoning batch remainder")
				return
			}
			p.process(ctx, it, log)
		}
	}
}

// drainBatch takes up to batchSize waiting items without blocking.
func (p *Pool) drainBatch() []*capture.Item {
	var batch []*capture.Item
	for len(batch) < p.batchSize {
		it, ok := p.queue.TryDequeue()
		if !ok {
			break
		}
		batch = append(batch, it)
	}
	return batch
}

func (p *Pool) process(ctx context.Context, it *capture.Item, log *zap.Logger) {
	start := time.Now()
	rec, err := p.chain.Run(ctx, it)
	if err != nil {
		if ctx.Err() != nil {
			log.Info("item abandoned during shutdown",
				zap.String("fingerprint", it.Fingerprint.Short()))
			return
		}
		p.metrics.ItemsFailed.Add(1)
		log.Error("chain failed, discarding item",
			zap.String("fingerprint", it.Fingerprint.Short()),
			zap.Error(err))
		return
	}

	p.metrics.ItemsProcessed.Add(1)
	p.metrics.ObserveChainLatency(time.Since(start))
	log.Debug("item analyzed",
		zap.String("record", rec.ID),
		zap.String("fingerprint", it.Fingerprint.Short()),
		zap.Duration("took", time.Since(start)))

	select {
	case p.results <- rec:
	case <-ctx.Done():
		log.Warn("record discarded, writer backlogged at shutdown",
			zap.String("record", rec.ID))
	}
}

// writer is the only goroutine touching the sinks. It runs until the
// results channel closes and drains everything still buffered.
func (p *Pool) writer() {
	defer close(p.writerDone)
	for rec := range p.results {
		ctx, cancel := context.WithTimeout(context.Background(), sinkWriteTimeout)
		err := p.sink.Accept(ctx, rec)
		cancel()
		if err != nil {
			p.metrics.SinkErrors.Add(1)
			p.logger.Warn("sink write failed", zap.String("record", rec.ID), zap.Error(err))
			continue
		}
		p.metrics.RecordsWritten.Add(1)
	}
}
