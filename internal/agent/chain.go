package agent

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/skaldic/muse/internal/capture"
	"go.uber.org/zap"
)

// Selector obtains one completion for a prompt on behalf of an agent.
// The candidate generation and scoring behind it stay out of the chain's
// sight; the chain only sees the winning text.
type Selector interface {
	Select(ctx context.Context, agentID, prompt string) (string, error)
}

// Chain runs the configured agents over one captured item, strictly in
// order, feeding each agent everything the earlier ones said.
type Chain struct {
	agents          []Definition
	selector        Selector
	maxContentChars int
	logger          *zap.Logger
}

// NewChain creates a chain. maxContentChars bounds how much of the
// captured payload is rendered into each prompt.
func NewChain(agents []Definition, selector Selector, maxContentChars int, logger *zap.Logger) *Chain {
	return &Chain{
		agents:          agents,
		selector:        selector,
		maxContentChars: maxContentChars,
		logger:          logger,
	}
}

// Agents returns the chain's definitions in execution order.
func (c *Chain) Agents() []Definition { return c.agents }

// Run executes every agent against the item and assembles the record.
// An agent failure or cancellation abandons the whole item; partial
// analyses are never recorded.
func (c *Chain) Run(ctx context.Context, it *capture.Item) (*Record, error) {
	payload := c.renderPayload(it)
	results := make([]StepResult, 0, len(c.agents))

	for _, def := range c.agents {
		// A step in flight finishes, but no further step starts once
		// the context is gone.
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("chain stopped before agent %s: %w", def.ID, err)
		}

		prompt := c.buildPrompt(def, results, payload, it)
		text, err := c.selector.Select(ctx, def.ID, prompt)
		if err != nil {
			return nil, fmt.Errorf("agent %s: %w", def.ID, err)
		}

		out, cut := Truncate(text, def.MaxOutputChars)
		if cut {
			c.logger.Debug("agent output truncated",
				zap.String("agent", def.ID),
				zap.Int("limit", def.MaxOutputChars))
		}

		prior := make([]string, len(results))
		for i, r := range results {
			prior[i] = r.Text
		}
		results = append(results, StepResult{
			AgentID:   def.ID,
			Agent:     def.Name,
			Text:      out,
			Truncated: cut,
			Context:   prior,
		})
	}

	return &Record{
		ID:         uuid.New().String(),
		Item:       NewItemInfo(it),
		Results:    results,
		ProducedAt: time.Now(),
	}, nil
}

// buildPrompt assembles one agent's prompt: its own instructions, the
// earlier agents' outputs verbatim, then the captured payload.
func (c *Chain) buildPrompt(def Definition, prior []StepResult, payload string, it *capture.Item) string {
	var b strings.Builder
	b.WriteString(def.Prompt)
	b.WriteString("\n")

	if len(prior) > 0 {
		b.WriteString("\nEarlier agents said:\n")
		for _, r := range prior {
			b.WriteString(r.Agent)
			b.WriteString(": ")
			b.WriteString(r.Text)
			b.WriteString("\n")
		}
	}

	b.WriteString("\nContent (")
	b.WriteString(string(it.Kind))
	if it.Path != "" {
		b.WriteString(", ")
		b.WriteString(it.Path)
	}
	b.WriteString("):\n")
	b.WriteString(payload)
	return b.String()
}

// renderPayload turns the item into prompt text. Images go in as base64;
// either form is cut to the content limit with the usual marker.
func (c *Chain) renderPayload(it *capture.Item) string {
	var raw string
	if it.Kind == capture.KindImage {
		raw = base64.StdEncoding.EncodeToString(it.Data)
	} else {
		raw = it.Text
	}
	out, _ := Truncate(raw, c.maxContentChars)
	return out
}
