// Package normalize canonicalizes free-form question text into the key used
// for knowledge-base matching.
package normalize

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// Normalize lowercases the text, decomposes accented characters to their base
// form, strips everything that is not a letter, digit or underscore, and
// collapses whitespace runs to single spaces. Deterministic and idempotent;
// empty input yields the empty string.
func Normalize(text string) string {
	if text == "" {
		return ""
	}

	decomposed := norm.NFKD.String(strings.ToLower(text))

	var b strings.Builder
	b.Grow(len(decomposed))
	pendingSpace := false
	for _, r := range decomposed {
		switch {
		case unicode.Is(unicode.Mn, r):
			// combining mark left over from decomposition
		case unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_':
			if pendingSpace && b.Len() > 0 {
				b.WriteByte(' ')
			}
			pendingSpace = false
			b.WriteRune(r)
		case unicode.IsSpace(r):
			pendingSpace = true
		}
	}
	return b.String()
}
