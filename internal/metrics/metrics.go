// Package metrics keeps the pipeline's counters and a rolling latency
// window, cheap enough to bump from every stage.
package metrics

import (
	"math"
	"sync"
	"sync/atomic"
	"time"
)

// latencyWindowSize is how many recent chain runs feed the latency
// statistics. Older samples fall out of the window.
const latencyWindowSize = 100

// Metrics aggregates counters across the pipeline stages. Counters are
// atomic; bump them directly.
type Metrics struct {
	Captured   atomic.Uint64
	Duplicates atomic.Uint64
	TooShort   atomic.Uint64
	Enqueued   atomic.Uint64
	QueueDrops atomic.Uint64

	Batches        atomic.Uint64
	ItemsProcessed atomic.Uint64
	ItemsFailed    atomic.Uint64

	GenerationCalls    atomic.Uint64
	GenerationFailures atomic.Uint64

	RecordsWritten atomic.Uint64
	SinkErrors     atomic.Uint64

	lat latencyWindow
}

// New creates an empty metrics aggregate.
func New() *Metrics {
	return &Metrics{lat: latencyWindow{size: latencyWindowSize}}
}

// ObserveChainLatency records how long one item's full chain run took.
func (m *Metrics) ObserveChainLatency(d time.Duration) {
	m.lat.observe(float64(d) / float64(time.Millisecond))
}

// Snapshot is a point-in-time copy of every counter, shaped for the
// status API.
type Snapshot struct {
	Captured   uint64 `json:"captured"`
	Duplicates uint64 `json:"duplicates"`
	TooShort   uint64 `json:"too_short"`
	Enqueued   uint64 `json:"enqueued"`
	QueueDrops uint64 `json:"queue_drops"`

	Batches        uint64 `json:"batches"`
	ItemsProcessed uint64 `json:"items_processed"`
	ItemsFailed    uint64 `json:"items_failed"`

	GenerationCalls    uint64 `json:"generation_calls"`
	GenerationFailures uint64 `json:"generation_failures"`

	RecordsWritten uint64 `json:"records_written"`
	SinkErrors     uint64 `json:"sink_errors"`

	ChainLatency LatencyStats `json:"chain_latency"`
}

// Snapshot captures the current counter values.
func (m *Metrics) Snapshot() Snapshot {
	return Snapshot{
		Captured:           m.Captured.Load(),
		Duplicates:         m.Duplicates.Load(),
		TooShort:           m.TooShort.Load(),
		Enqueued:           m.Enqueued.Load(),
		QueueDrops:         m.QueueDrops.Load(),
		Batches:            m.Batches.Load(),
		ItemsProcessed:     m.ItemsProcessed.Load(),
		ItemsFailed:        m.ItemsFailed.Load(),
		GenerationCalls:    m.GenerationCalls.Load(),
		GenerationFailures: m.GenerationFailures.Load(),
		RecordsWritten:     m.RecordsWritten.Load(),
		SinkErrors:         m.SinkErrors.Load(),
		ChainLatency:       m.lat.stats(),
	}
}

// LatencyStats summarizes the rolling window in milliseconds.
type LatencyStats struct {
	Samples  int     `json:"samples"`
	MeanMS   float64 `json:"mean_ms"`
	StddevMS float64 `json:"stddev_ms"`
	MinMS    float64 `json:"min_ms"`
	MaxMS    float64 `json:"max_ms"`
}

// latencyWindow is a fixed-size ring of millisecond samples.
type latencyWindow struct {
	size int

	mu      sync.Mutex
	samples []float64
	next    int
	full    bool
}

func (w *latencyWindow) observe(ms float64) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.samples == nil {
		w.samples = make([]float64, w.size)
	}
	w.samples[w.next] = ms
	w.next++
	if w.next == w.size {
		w.next = 0
		w.full = true
	}
}

func (w *latencyWindow) stats() LatencyStats {
	w.mu.Lock()
	defer w.mu.Unlock()

	n := w.next
	if w.full {
		n = w.size
	}
	if n == 0 {
		return LatencyStats{}
	}

	window := w.samples[:n]
	min, max := window[0], window[0]
	sum := 0.0
	for _, s := range window {
		sum += s
		if s < min {
			min = s
		}
		if s > max {
			max = s
		}
	}
	mean := sum / float64(n)

	variance := 0.0
	for _, s := range window {
		variance += (s - mean) * (s - mean)
	}
	variance /= float64(n)

	return LatencyStats{
		Samples:  n,
		MeanMS:   mean,
		StddevMS: math.Sqrt(variance),
		MinMS:    min,
		MaxMS:    max,
	}
}
