// Package strings holds small text helpers for terminal output.
package strings

import (
	"strings"
)

// DefaultCellMaxLen is the widest a free-text table cell is allowed to be.
const DefaultCellMaxLen = 48

// MinTruncateLen is the smallest maxLen Truncate accepts: one character
// plus "...".
const MinTruncateLen = 4

// Truncate collapses whitespace in s to single spaces and shortens it to
// maxLen runes, ending in "..." when cut. maxLen below MinTruncateLen is
// raised to MinTruncateLen.
func Truncate(s string, maxLen int) string {
	if maxLen < MinTruncateLen {
		maxLen = MinTruncateLen
	}

	s = strings.Join(strings.Fields(s), " ")

	runes := []rune(s)
	if len(runes) > maxLen {
		return string(runes[:maxLen-3]) + "..."
	}
	return s
}
