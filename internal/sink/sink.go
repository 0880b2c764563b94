// Package sink delivers finished analysis records to their destinations.
// Sinks are append-only and fire-and-forget: a failing destination is
// logged and skipped, never fed back into the pipeline.
package sink

import (
	"context"
	"errors"
	"strings"

	"github.com/skaldic/muse/internal/agent"
	"go.uber.org/zap"
)

// Sink receives finished records.
type Sink interface {
	Accept(ctx context.Context, rec *agent.Record) error
	Close() error
}

// Multi fans a record out to every configured sink. One destination
// failing does not stop the others; the joined error is returned for
// accounting only.
type Multi struct {
	sinks  []Sink
	logger *zap.Logger
}

// NewMulti bundles sinks behind one Accept.
func NewMulti(logger *zap.Logger, sinks ...Sink) *Multi {
	return &Multi{sinks: sinks, logger: logger}
}

// Accept delivers the record to all sinks.
func (m *Multi) Accept(ctx context.Context, rec *agent.Record) error {
	var errs []error
	for _, s := range m.sinks {
		if err := s.Accept(ctx, rec); err != nil {
			m.logger.Warn("sink rejected record",
				zap.String("record", rec.ID),
				zap.Error(err))
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Close closes every sink, keeping the first error.
func (m *Multi) Close() error {
	var first error
	for _, s := range m.sinks {
		if err := s.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// summarize renders a record as a short notification line: the item's
// identity plus each agent's first line of output.
func summarize(rec *agent.Record, perAgent int) string {
	var b strings.Builder
	b.WriteString(rec.Item.Kind)
	b.WriteString(" ")
	b.WriteString(rec.Item.Fingerprint[:8])
	for _, res := range rec.Results {
		line := res.Text
		if i := strings.IndexByte(line, '\n'); i >= 0 {
			line = line[:i]
		}
		if len(line) > perAgent {
			line = line[:perAgent] + "…"
		}
		b.WriteString("\n")
		b.WriteString(res.Agent)
		b.WriteString(": ")
		b.WriteString(line)
	}
	return b.String()
}
