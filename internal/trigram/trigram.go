// Package trigram computes pg_trgm compatible similarity scores so the same
// ranking query can run on sqlite (as a registered SQL function) and on
// PostgreSQL (native pg_trgm).
package trigram

import (
	"strings"
	"unicode"
)

// Set extracts the distinct trigrams of s. Words are maximal runs of letters
// and digits, lowercased and padded with two leading and one trailing space.
func Set(s string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, word := range words(s) {
		padded := append([]rune{' ', ' '}, word...)
		padded = append(padded, ' ')
		for i := 0; i+3 <= len(padded); i++ {
			set[string(padded[i:i+3])] = struct{}{}
		}
	}
	return set
}

// Similarity returns the share of trigrams common to a and b:
// |A ∩ B| / |A ∪ B|, in [0, 1]. Strings without any word score 0.
func Similarity(a, b string) float64 {
	setA := Set(a)
	setB := Set(b)
	if len(setA) == 0 || len(setB) == 0 {
		return 0
	}

	if len(setA) > len(setB) {
		setA, setB = setB, setA
	}
	common := 0
	for tri := range setA {
		if _, ok := setB[tri]; ok {
			common++
		}
	}
	return float64(common) / float64(len(setA)+len(setB)-common)
}

func words(s string) [][]rune {
	var (
		out     [][]rune
		current []rune
	)
	for _, r := range strings.ToLower(s) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			current = append(current, r)
			continue
		}
		if len(current) > 0 {
			out = append(out, current)
			current = nil
		}
	}
	if len(current) > 0 {
		out = append(out, current)
	}
	return out
}
