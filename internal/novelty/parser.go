// Package novelty scores generated candidates by how unfamiliar their
// structured content is, steering selection away from repetitive output.
package novelty

import "strings"

// Pair is one key/value line extracted from a candidate.
type Pair struct {
	Key   string
	Value string
}

// ParsePairs pulls key/value pairs out of free-form text. Every line
// containing a colon contributes one pair, split at the first colon with
// both halves trimmed. Lines without a colon are ignored, so prose around
// the structured part is harmless.
func ParsePairs(text string) []Pair {
	var pairs []Pair
	for _, line := range strings.Split(text, "\n") {
		key, value, found := strings.Cut(line, ":")
		if !found {
			continue
		}
		pairs = append(pairs, Pair{
			Key:   strings.TrimSpace(key),
			Value: strings.TrimSpace(value),
		})
	}
	return pairs
}
