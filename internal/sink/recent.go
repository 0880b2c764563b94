package sink

import (
	"context"
	"sync"

	"github.com/skaldic/muse/internal/agent"
)

// Recent keeps the newest records in memory for the status API. It is
// always configured, even when every external sink is off.
type Recent struct {
	capacity int

	mu      sync.RWMutex
	records []*agent.Record
}

// NewRecent keeps at most capacity records.
func NewRecent(capacity int) *Recent {
	return &Recent{capacity: capacity}
}

// Accept stores the record, evicting the oldest when full.
func (s *Recent) Accept(_ context.Context, rec *agent.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = append(s.records, rec)
	if len(s.records) > s.capacity {
		s.records = s.records[len(s.records)-s.capacity:]
	}
	return nil
}

// List returns up to limit records, newest first. limit <= 0 means all.
func (s *Recent) List(limit int) []*agent.Record {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := len(s.records)
	if limit > 0 && limit < n {
		n = limit
	}
	out := make([]*agent.Record, n)
	for i := 0; i < n; i++ {
		out[i] = s.records[len(s.records)-1-i]
	}
	return out
}

// Len reports how many records are held.
func (s *Recent) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

// Close is a no-op.
func (s *Recent) Close() error {
	return nil
}
