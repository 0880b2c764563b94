package sink

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/skaldic/muse/internal/agent"
	"go.uber.org/zap"
)

// JSONL appends one JSON object per record to a dataset file. Existing
// content is never rewritten; the file only grows.
type JSONL struct {
	path   string
	logger *zap.Logger

	mu  sync.Mutex
	f   *os.File
	enc *json.Encoder
}

// NewJSONL opens (or creates) the dataset file for appending.
func NewJSONL(path string, logger *zap.Logger) (*JSONL, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create dataset dir: %w", err)
		}
	}
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open dataset: %w", err)
	}
	logger.Info("dataset sink ready", zap.String("path", path))
	return &JSONL{path: path, logger: logger, f: f, enc: json.NewEncoder(f)}, nil
}

// Accept writes the record as one line.
func (s *JSONL) Accept(_ context.Context, rec *agent.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enc.Encode(rec); err != nil {
		return fmt.Errorf("append dataset: %w", err)
	}
	return nil
}

// Close flushes and closes the file.
func (s *JSONL) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.f.Close()
}
