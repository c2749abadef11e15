package service

import (
	"regexp"
	"strings"
	"unicode"
)

// Trailing tokens stripped from descriptions before proposing a merchant
// pattern: long card/reference digit runs, date-like fragments, and a small
// vocabulary of location/online suffixes.
var (
	digitRunRe = regexp.MustCompile(`^\d{5,}$`)
	dateLikeRe = regexp.MustCompile(`^\d{1,2}[./-]\d{1,2}(?:[./-]\d{2,4})?$`)

	suffixVocabulary = map[string]struct{}{
		"online":   {},
		"www":      {},
		"com":      {},
		"ltd":      {},
		"llc":      {},
		"inc":      {},
		"tlv":      {},
		"telaviv":  {},
		"tel-aviv": {},
		"israel":   {},
		"il":       {},
	}
)

// ExtractPattern proposes a merchant pattern from a free-text description.
// It is used to suggest new merchant mappings, never during normalization.
// Hebrew merchant names keep their first two words; Latin ones keep the first
// word, or two when the first is three characters or shorter.
func ExtractPattern(description string) string {
	words := strings.Fields(description)
	if len(words) == 0 {
		return ""
	}

	// Strip noise tokens off the end.
	for len(words) > 0 {
		last := strings.ToLower(words[len(words)-1])
		if digitRunRe.MatchString(last) || dateLikeRe.MatchString(last) {
			words = words[:len(words)-1]
			continue
		}
		if _, ok := suffixVocabulary[last]; ok {
			words = words[:len(words)-1]
			continue
		}
		break
	}
	if len(words) == 0 {
		return ""
	}

	keep := 1
	switch {
	case containsHebrew(strings.Join(words, " ")):
		keep = 2
	case len([]rune(words[0])) <= 3:
		keep = 2
	}
	if keep > len(words) {
		keep = len(words)
	}
	return strings.Join(words[:keep], " ")
}

func containsHebrew(s string) bool {
	for _, r := range s {
		if unicode.Is(unicode.Hebrew, r) {
			return true
		}
	}
	return false
}
