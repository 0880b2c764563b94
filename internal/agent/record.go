package agent

import (
	"time"

	"github.com/skaldic/muse/internal/capture"
)

// ItemInfo is the slice of a captured item that travels with its record.
// Image bytes stay out; the fingerprint and path identify them.
type ItemInfo struct {
	Kind        string `json:"kind"`
	Fingerprint string `json:"fingerprint"`
	Text        string `json:"text,omitempty"`
	Path        string `json:"path,omitempty"`
	SizeBytes   int    `json:"size_bytes"`
}

// NewItemInfo summarizes a captured item for its record.
func NewItemInfo(it *capture.Item) ItemInfo {
	return ItemInfo{
		Kind:        string(it.Kind),
		Fingerprint: it.Fingerprint.String(),
		Text:        it.Text,
		Path:        it.Path,
		SizeBytes:   it.Size(),
	}
}

// StepResult is one agent's contribution to a record. Context carries the
// texts of the agents that ran before it, in chain order.
type StepResult struct {
	AgentID   string   `json:"agent_id"`
	Agent     string   `json:"agent"`
	Text      string   `json:"text"`
	Truncated bool     `json:"truncated,omitempty"`
	Context   []string `json:"context,omitempty"`
}

// Record is the finished analysis of one captured item: every agent's
// output in execution order.
type Record struct {
	ID         string       `json:"id"`
	Item       ItemInfo     `json:"item"`
	Results    []StepResult `json:"results"`
	ProducedAt time.Time    `json:"produced_at"`
}

// ResultFor returns the step produced by the given agent, if it ran.
func (r *Record) ResultFor(agentID string) (StepResult, bool) {
	for _, res := range r.Results {
		if res.AgentID == agentID {
			return res, true
		}
	}
	return StepResult{}, false
}
