package pipeline

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/skaldic/muse/internal/capture"
	"github.com/skaldic/muse/internal/metrics"
	"go.uber.org/zap"
)

// stickySource reports the same content on every poll, the way a
// clipboard does until it changes.
type stickySource struct {
	mu   sync.Mutex
	text string
}

func (s *stickySource) FetchLatest(_ context.Context) (*capture.Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.text == "" {
		return nil, nil
	}
	return capture.NewTextItem(s.text), nil
}

func (s *stickySource) set(text string) {
	s.mu.Lock()
	s.text = text
	s.mu.Unlock()
}

// countingSource yields fresh content on every poll.
type countingSource struct {
	mu sync.Mutex
	n  int
}

func (s *countingSource) FetchLatest(_ context.Context) (*capture.Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.n++
	return capture.NewTextItem(fmt.Sprintf("fresh content number %d", s.n)), nil
}

// flakySource fails its first polls, then yields content.
type flakySource struct {
	mu       sync.Mutex
	failures int
}

func (s *flakySource) FetchLatest(_ context.Context) (*capture.Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failures > 0 {
		s.failures--
		return nil, fmt.Errorf("source unavailable")
	}
	return capture.NewTextItem("content after recovery"), nil
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not reached in time")
}

func TestCollectorDeduplicatesRepeatedPolls(t *testing.T) {
	src := &stickySource{}
	src.set("the clipboard holds this text")
	q := NewQueue(8)
	m := metrics.New()
	c := NewCollector(src, capture.NewDeduplicator(0), q, 5*time.Millisecond, m, zap.NewNop())

	c.Start()
	defer c.Stop()

	// The repeated content passes once and is suppressed afterwards.
	waitFor(t, func() bool { return m.Duplicates.Load() >= 2 })
	if got := m.Enqueued.Load(); got != 1 {
		t.Fatalf("got %d enqueued, want 1", got)
	}
	if q.Len() != 1 {
		t.Fatalf("got queue length %d, want 1", q.Len())
	}

	// New content passes again.
	src.set("now the clipboard changed")
	waitFor(t, func() bool { return m.Enqueued.Load() == 2 })
}

func TestCollectorRejectsShortText(t *testing.T) {
	src := &stickySource{}
	src.set("tiny")
	q := NewQueue(8)
	m := metrics.New()
	c := NewCollector(src, capture.NewDeduplicator(10), q, 5*time.Millisecond, m, zap.NewNop())

	c.Start()
	defer c.Stop()

	waitFor(t, func() bool { return m.TooShort.Load() >= 1 })
	if q.Len() != 0 {
		t.Fatalf("got queue length %d, want 0", q.Len())
	}
	if m.Enqueued.Load() != 0 {
		t.Fatalf("got %d enqueued, want 0", m.Enqueued.Load())
	}
}

func TestCollectorDropsWhenQueueFull(t *testing.T) {
	q := NewQueue(1)
	m := metrics.New()
	c := NewCollector(&countingSource{}, capture.NewDeduplicator(0), q, 5*time.Millisecond, m, zap.NewNop())

	c.Start()
	defer c.Stop()

	// Nothing drains the queue, so after the first item everything drops.
	waitFor(t, func() bool { return m.QueueDrops.Load() >= 2 })
	if got := m.Enqueued.Load(); got != 1 {
		t.Fatalf("got %d enqueued, want 1", got)
	}
	if q.Len() != 1 {
		t.Fatalf("got queue length %d, want 1", q.Len())
	}
}

func TestCollectorSurvivesSourceErrors(t *testing.T) {
	src := &flakySource{failures: 3}
	q := NewQueue(8)
	m := metrics.New()
	c := NewCollector(src, capture.NewDeduplicator(0), q, 5*time.Millisecond, m, zap.NewNop())

	c.Start()
	defer c.Stop()

	// The loop must outlive the failing ticks and enqueue once the
	// source recovers.
	waitFor(t, func() bool { return m.Enqueued.Load() >= 1 })
}

func TestCollectorStopIsIdempotentUnstarted(t *testing.T) {
	c := NewCollector(&stickySource{}, capture.NewDeduplicator(0), NewQueue(1),
		time.Second, metrics.New(), zap.NewNop())
	// Stop before Start must not panic.
	c.Stop()
}
