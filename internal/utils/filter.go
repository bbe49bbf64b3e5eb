package utils

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// CleanQuery trims surrounding space and reports whether what is left is a
// usable query: non-empty, at most maxRunes characters (when positive) and
// free of control characters.
func CleanQuery(s string, maxRunes int) (string, bool) {
	s = strings.TrimSpace(s)
	if s == "" || !utf8.ValidString(s) {
		return "", false
	}
	if maxRunes > 0 && utf8.RuneCountInString(s) > maxRunes {
		return "", false
	}
	for _, r := range s {
		if unicode.IsControl(r) {
			return "", false
		}
	}
	return s, true
}

// Dedup drops repeated strings, keeping first occurrences in order
func Dedup(words []string) []string {
	seen := make(map[string]bool, len(words))
	out := words[:0]
	for _, w := range words {
		if seen[w] {
			continue
		}
		seen[w] = true
		out = append(out, w)
	}
	return out
}
