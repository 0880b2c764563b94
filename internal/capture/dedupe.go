package capture

import "sync"

// Verdict is the deduplicator's decision for one item.
type Verdict string

const (
	VerdictNovel     Verdict = "novel"
	VerdictDuplicate Verdict = "duplicate"
	VerdictTooShort  Verdict = "too_short"
)

// Deduplicator suppresses immediate repeats of the same content. It keeps
// only the single most recent fingerprint, so alternating between two
// payloads admits both every time; that is intentional for a source that
// reports the same item on every poll until it changes.
type Deduplicator struct {
	minLength int

	mu       sync.Mutex
	lastSeen Fingerprint
	seenAny  bool
}

// NewDeduplicator creates a deduplicator that also rejects text payloads
// shorter than minLength characters. minLength zero disables the filter.
func NewDeduplicator(minLength int) *Deduplicator {
	return &Deduplicator{minLength: minLength}
}

// Admit decides whether an item enters the pipeline. The comparison and
// the update of the last-seen slot happen under one lock, so concurrent
// callers offering the same fingerprint admit it exactly once.
func (d *Deduplicator) Admit(it *Item) Verdict {
	if it.Kind == KindText && it.TextLength() < d.minLength {
		return VerdictTooShort
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if d.seenAny && d.lastSeen == it.Fingerprint {
		return VerdictDuplicate
	}
	d.lastSeen = it.Fingerprint
	d.seenAny = true
	return VerdictNovel
}

// Last returns the most recently admitted fingerprint, if any.
func (d *Deduplicator) Last() (Fingerprint, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.lastSeen, d.seenAny
}
