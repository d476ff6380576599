package pricing

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/antzucaro/matchr"

	"github.com/opentariff/ocipricer/internal/catalog"
)

// similarityThreshold is the minimum sequence-similarity ratio for a long
// variant to count as a hit against an item's space-stripped text.
const similarityThreshold = 0.90

var (
	reAutonomous = regexp.MustCompile(`\bautonomous\b`)
	reDatabase   = regexp.MustCompile(`\bdatabase\b`)
)

// SearchItems scores catalogue items against the query's variant set and
// returns up to limit simplified, de-duplicated hits.
//
// Short variants (3–4 runes, e.g. "adb", "oke") are prone to false positives
// as substrings, so they must match as whole words. Long variants (5+ runes)
// tolerate space-insensitive substring matches and near-miss spellings via
// the similarity ratio. When the query carries ADB intent, candidates must
// contain both "autonomous" and "database" as whole words.
func SearchItems(items []catalog.Item, query string, limit int, preferCurrency string) []Simplified {
	v := BuildVariants(query)
	long := v.Long()

	var shortRes []*regexp.Regexp
	for _, s := range v.Short() {
		shortRes = append(shortRes, regexp.MustCompile(`\b`+regexp.QuoteMeta(s)+`\b`))
	}

	res := make([]Simplified, 0, limit)
	seen := make(map[string]struct{})

	for i := range items {
		it := &items[i]
		tn := Normalize(it.CombinedText())
		tns := NoSpace(tn)

		if v.ADBIntent && !(reAutonomous.MatchString(tn) && reDatabase.MatchString(tn)) {
			continue
		}

		if !matchesAny(shortRes, tn, long, tns) {
			continue
		}

		sm := Simplify(it, preferCurrency)
		if _, dup := seen[sm.key()]; dup {
			continue
		}
		seen[sm.key()] = struct{}{}
		res = append(res, sm)
		if len(res) >= limit {
			break
		}
	}
	return res
}

// matchesAny applies the three hit rules in order of cost: word boundary,
// substring, similarity.
func matchesAny(shortRes []*regexp.Regexp, text string, long []string, nospace string) bool {
	for _, re := range shortRes {
		if re.MatchString(text) {
			return true
		}
	}
	for _, lv := range long {
		if strings.Contains(nospace, lv) {
			return true
		}
	}
	for _, lv := range long {
		if similarity(lv, nospace) >= similarityThreshold {
			return true
		}
	}
	return false
}

// similarity computes a normalized edit-distance ratio in [0, 1]:
// 1 - Levenshtein(a, b) / max(len(a), len(b)). Equal strings score 1.
func similarity(a, b string) float64 {
	la, lb := utf8.RuneCountInString(a), utf8.RuneCountInString(b)
	longest := max(la, lb)
	if longest == 0 {
		return 1
	}
	d := matchr.Levenshtein(a, b)
	return 1 - float64(d)/float64(longest)
}
