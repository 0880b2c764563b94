package novelty

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

// Generator produces one completion for a prompt on behalf of an agent.
type Generator interface {
	Generate(ctx context.Context, agentID, prompt string) (string, error)
}

// Selector asks the generator for several candidates per prompt and keeps
// the one the model scores highest. Failed attempts are skipped; as long
// as one candidate arrives, selection proceeds.
type Selector struct {
	gen        Generator
	model      *Model
	candidates int
	logger     *zap.Logger
}

// NewSelector wires a generator to a model. candidates is how many
// completions are requested per prompt.
func NewSelector(gen Generator, model *Model, candidates int, logger *zap.Logger) *Selector {
	return &Selector{
		gen:        gen,
		model:      model,
		candidates: candidates,
		logger:     logger,
	}
}

// Select generates candidates sequentially, scores them and returns the
// winner. It fails only when every generation attempt failed.
func (s *Selector) Select(ctx context.Context, agentID, prompt string) (string, error) {
	cands := make([]string, 0, s.candidates)
	var lastErr error
	for i := 0; i < s.candidates; i++ {
		text, err := s.gen.Generate(ctx, agentID, prompt)
		if err != nil {
			lastErr = err
			s.logger.Warn("candidate generation failed",
				zap.String("agent", agentID),
				zap.Int("attempt", i+1),
				zap.Error(err))
			continue
		}
		cands = append(cands, text)
	}
	if len(cands) == 0 {
		return "", fmt.Errorf("all %d generation attempts failed: %w", s.candidates, lastErr)
	}

	best, scores := s.model.SelectAndObserve(cands)
	s.logger.Debug("candidate selected",
		zap.String("agent", agentID),
		zap.Int("index", best),
		zap.Float64("score", scores[best]),
		zap.Int("candidates", len(cands)))
	return cands[best], nil
}
