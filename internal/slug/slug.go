// Package slug builds URL-safe slugs from post titles. Letters and digits of
// any script are kept so non-latin titles still produce readable slugs.
package slug

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

var (
	disallowed = regexp.MustCompile(`[^\p{L}\p{N}\s_-]`)
	separators = regexp.MustCompile(`[\s_-]+`)
	valid      = regexp.MustCompile(`^[\p{L}\p{N}_-]+$`)
	maxLength  = 250
)

// Generate lowercases s, drops punctuation and joins words with hyphens.
// Example: "Hello, World! 2026" → "hello-world-2026"
func Generate(s string) string {
	result := strings.ToLower(strings.TrimSpace(s))
	result = disallowed.ReplaceAllString(result, "")
	result = separators.ReplaceAllString(result, "-")
	result = strings.Trim(result, "-")

	runes := []rune(result)
	if len(runes) > maxLength {
		result = strings.TrimRight(string(runes[:maxLength]), "-")
	}
	return result
}

// Valid reports whether s is usable as a URL path segment as is: letters,
// digits, hyphens and underscores only, at most 250 runes.
func Valid(s string) bool {
	return valid.MatchString(s) && utf8.RuneCountInString(s) <= maxLength
}
