// Package pricing implements the fuzzy product-name search and SKU-resolution
// pipeline over the OCI price list.
//
// The pipeline has four composed stages: text normalization, alias expansion,
// fuzzy matching, and price selection with optional alternate-currency
// enrichment. [Service] coordinates them behind the two public operations,
// SKU lookup and name search.
package pricing

import (
	"regexp"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

var (
	// punctRe matches runs of anything that is not a letter, digit,
	// underscore, or whitespace.
	punctRe = regexp.MustCompile(`[^\p{L}\p{N}_\s]+`)
	spaceRe = regexp.MustCompile(`\s+`)
)

// Normalize canonicalizes free text for matching: Unicode NFKC, case folding,
// punctuation replaced with spaces, whitespace collapsed and trimmed. It is
// applied identically to queries and catalogue record text so that matching
// is symmetric. Idempotent: Normalize(Normalize(s)) == Normalize(s).
func Normalize(s string) string {
	s = norm.NFKC.String(s)
	s = cases.Fold().String(s)
	s = punctRe.ReplaceAllString(s, " ")
	s = spaceRe.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

// NoSpace removes all whitespace for space-insensitive comparisons.
func NoSpace(s string) string {
	return spaceRe.ReplaceAllString(s, "")
}

// Acronym builds an acronym from the normalized words of s:
// "autonomous database" → "ad". Used as a weak matching hint only.
func Acronym(s string) string {
	var b strings.Builder
	for _, w := range strings.Fields(Normalize(s)) {
		r := []rune(w)
		b.WriteRune(r[0])
	}
	return b.String()
}
