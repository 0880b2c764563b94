package agent

import "unicode/utf8"

// TruncationMarker is appended to any text that was hard-cut, so readers
// of stored records can tell a short output from a clipped one.
const TruncationMarker = "...[truncated]"

// Truncate cuts s to at most max characters and reports whether it cut.
// A cut result carries the marker, so its total length exceeds max by
// exactly the marker's width.
func Truncate(s string, max int) (string, bool) {
	if utf8.RuneCountInString(s) <= max {
		return s, false
	}
	runes := []rune(s)
	return string(runes[:max]) + TruncationMarker, true
}
