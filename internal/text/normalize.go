// Package text cleans up user questions before they are put into a prompt.
package text

import (
	"regexp"
	"strings"
)

// RE2 \s is ASCII-only and misses \v, so Unicode separators are listed
// explicitly to keep them as word boundaries.
var reNonWord = regexp.MustCompile(`[^\w\s\p{Z}\v\x{85}]`)

// Normalize trims and lowercases s, drops everything that is neither an
// ASCII word character nor whitespace and collapses whitespace runs (Unicode
// included) into a single space.
func Normalize(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return ""
	}

	s = reNonWord.ReplaceAllString(s, "")

	// Fields also drops whitespace exposed at the edges ("! hi").
	return strings.Join(strings.Fields(s), " ")
}

// Tokens splits a normalized question on whitespace.
func Tokens(normalized string) []string {
	return strings.Fields(normalized)
}

// Preprocess returns the normalized question together with its tokens.
func Preprocess(s string) (string, []string) {
	normalized := Normalize(s)
	return normalized, Tokens(normalized)
}

// FormatTokens renders tokens as a bracketed, quoted list, e.g.
// ['what', 'is', '22'].
func FormatTokens(tokens []string) string {
	if len(tokens) == 0 {
		return "[]"
	}

	var b strings.Builder
	b.WriteByte('[')
	for i, token := range tokens {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteByte('\'')
		b.WriteString(strings.ReplaceAll(token, `'`, `\'`))
		b.WriteByte('\'')
	}
	b.WriteByte(']')

	return b.String()
}
