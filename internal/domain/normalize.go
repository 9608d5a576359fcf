package domain

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// NormalizeText canonicalizes free text for grouping and exclusion matching:
// lowercase, trimmed, accents stripped (NFKD, combining marks dropped), and
// restricted to [a-z0-9 -]. It is total and idempotent: "México " -> "mexico".
func NormalizeText(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))

	t := transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)))
	decomposed, _, err := transform.String(t, s)
	if err != nil {
		decomposed = s
	}

	var b strings.Builder
	b.Grow(len(decomposed))
	for _, r := range decomposed {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == ' ', r == '-':
			b.WriteRune(r)
		}
	}
	// Dropping punctuation can expose edge spaces ("a ." -> "a ").
	return strings.TrimSpace(b.String())
}

// TitleCase is the display grouping form of a categorical value: each word
// capitalized, the rest lowercased, then trimmed ("  CIERVO colorado" -> "Ciervo Colorado").
func TitleCase(s string) string {
	// A Caser keeps state between calls and must not be shared.
	return strings.TrimSpace(cases.Title(language.Spanish).String(s))
}

// LowerTrim is the light normalization used for area identifiers.
func LowerTrim(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
