package novelty

import (
	"sync"
	"time"
)

// baseConfidence is the quality prior for every candidate. Backends give
// no usable per-candidate quality signal, so all candidates start equal
// and the novelty term decides between them.
const baseConfidence = 1.0

// Observation records one selected candidate.
type Observation struct {
	Text       string    `json:"text"`
	Pairs      int       `json:"pairs"`
	ObservedAt time.Time `json:"observed_at"`
}

// Model tracks how often keys and values have been seen across selected
// candidates. Frequencies only grow; there is no decay, so content the
// pipeline has settled on keeps scoring lower and the selector drifts
// toward fresh ground.
type Model struct {
	weight      float64
	historySize int

	mu        sync.Mutex
	keyFreq   map[string]int
	valueFreq map[string]int
	history   []Observation
	observed  uint64
}

// Stats is a point-in-time summary of the model.
type Stats struct {
	Weight       float64 `json:"weight"`
	UniqueKeys   int     `json:"unique_keys"`
	UniqueValues int     `json:"unique_values"`
	Observations uint64  `json:"observations"`
	HistorySize  int     `json:"history_size"`
	HistoryLen   int     `json:"history_len"`
}

// NewModel creates a model blending novelty into selection at the given
// weight (0 ignores novelty, 1 selects on novelty alone) and keeping at
// most historySize observations.
func NewModel(weight float64, historySize int) *Model {
	return &Model{
		weight:      weight,
		historySize: historySize,
		keyFreq:     make(map[string]int),
		valueFreq:   make(map[string]int),
	}
}

// Score computes the blended score for a single candidate against the
// current frequencies without recording anything.
func (m *Model) Score(text string) float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.scoreLocked(ParsePairs(text))
}

// Observe records a candidate's pairs into the frequency tables and
// appends it to the bounded history.
func (m *Model) Observe(text string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.observeLocked(text, ParsePairs(text))
}

// SelectAndObserve scores all candidates, picks the best one and records
// it, all under one lock so concurrent selections never interleave
// between scoring and observation. Ties keep the earliest candidate, so
// the result is deterministic for a given model state. The returned
// scores are parallel to cands.
func (m *Model) SelectAndObserve(cands []string) (int, []float64) {
	m.mu.Lock()
	defer m.mu.Unlock()

	scores := make([]float64, len(cands))
	parsed := make([][]Pair, len(cands))
	for i, c := range cands {
		parsed[i] = ParsePairs(c)
		scores[i] = m.scoreLocked(parsed[i])
	}

	best := 0
	for i, s := range scores {
		if s > scores[best] {
			best = i
		}
	}

	m.observeLocked(cands[best], parsed[best])
	return best, scores
}

// History returns a copy of the recorded observations, oldest first.
func (m *Model) History() []Observation {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Observation, len(m.history))
	copy(out, m.history)
	return out
}

// Snapshot reports the model's current shape.
func (m *Model) Snapshot() Stats {
	m.mu.Lock()
	defer m.mu.Unlock()
	return Stats{
		Weight:       m.weight,
		UniqueKeys:   len(m.keyFreq),
		UniqueValues: len(m.valueFreq),
		Observations: m.observed,
		HistorySize:  m.historySize,
		HistoryLen:   len(m.history),
	}
}

// scoreLocked blends the quality prior with the novelty of the parsed
// pairs. Each key and value contributes 1/(frequency+1); a fresh token
// contributes 1.0 and repeated ones approach zero. A candidate without
// pairs has novelty zero and falls back to the weighted prior.
func (m *Model) scoreLocked(pairs []Pair) float64 {
	novelty := 0.0
	if len(pairs) > 0 {
		var keySum, valueSum float64
		for _, p := range pairs {
			keySum += 1.0 / float64(m.keyFreq[p.Key]+1)
			valueSum += 1.0 / float64(m.valueFreq[p.Value]+1)
		}
		n := float64(len(pairs))
		novelty = (keySum/n + valueSum/n) / 2.0
	}
	return (1.0-m.weight)*baseConfidence + m.weight*novelty
}

func (m *Model) observeLocked(text string, pairs []Pair) {
	for _, p := range pairs {
		m.keyFreq[p.Key]++
		m.valueFreq[p.Value]++
	}
	m.history = append(m.history, Observation{
		Text:       text,
		Pairs:      len(pairs),
		ObservedAt: time.Now(),
	})
	if len(m.history) > m.historySize {
		m.history = m.history[len(m.history)-m.historySize:]
	}
	m.observed++
}
