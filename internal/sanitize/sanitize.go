// Package sanitize cleans raw post text for storage.
package sanitize

import (
	"strings"
	"unicode"
)

// Clean drops every rune outside the 7-bit ASCII range (emoji, accented
// characters, other multi-byte symbols) and trims surrounding whitespace.
func Clean(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r <= unicode.MaxASCII {
			b.WriteRune(r)
		}
	}
	return strings.TrimSpace(b.String())
}
