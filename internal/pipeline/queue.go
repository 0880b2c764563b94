// Package pipeline moves captured items from the collector through the
// worker pool: a poll loop feeding a bounded queue drained in batches.
package pipeline

import "github.com/skaldic/muse/internal/capture"

// Queue is the bounded hand-off between the collector and the workers.
// It never blocks the producer: when full, the newest item is dropped.
// Losing fresh items under pressure is acceptable; stalling capture is
// not.
type Queue struct {
	ch chan *capture.Item
}

// NewQueue creates a queue holding at most capacity items.
func NewQueue(capacity int) *Queue {
	return &Queue{ch: make(chan *capture.Item, capacity)}
}

// TryEnqueue offers an item and reports whether it was accepted.
func (q *Queue) TryEnqueue(it *capture.Item) bool {
	select {
	case q.ch <- it:
		return true
	default:
		return false
	}
}

// TryDequeue takes one item without blocking.
func (q *Queue) TryDequeue() (*capture.Item, bool) {
	select {
	case it := <-q.ch:
		return it, true
	default:
		return nil, false
	}
}

// Len reports how many items are waiting.
func (q *Queue) Len() int { return len(q.ch) }

// Cap reports the configured capacity.
func (q *Queue) Cap() int { return cap(q.ch) }
