package pricing

import (
	"slices"
	"strings"
	"unicode/utf8"
)

// aliases maps short-form domain terms to their full names. A deliberately
// small seed: the fuzzy matcher handles the long tail, so there is no value
// in maintaining a huge dictionary. Static data, read-only after init.
var aliases = map[string]string{
	"adb":          "autonomous database",
	"oss":          "object storage",
	"lb":           "load balancer",
	"oke":          "kubernetes engine",
	"oac":          "analytics cloud",
	"genai":        "generative ai",
	"oci":          "oracle cloud infrastructure",
	"db":           "database",
	"vm":           "virtual machine",
	"vmware":       "vmware cloud",
	"bms":          "bare metal server",
	"bmc":          "bare metal cloud",
	"block":        "block storage",
	"file":         "file storage",
	"archive":      "archive storage",
	"object":       "object storage",
	"network":      "virtual cloud network",
	"loadbalancer": "load balancer",
	"dns":          "domain name system",
	"dns zone":     "dns zone management",
}

// minVariantLen is the minimum rune length for a query variant. Shorter
// fragments match far too broadly.
const minVariantLen = 3

// Variants is the expanded form of one search query: the normalized query,
// its space-stripped and acronym forms, and any alias expansions, all
// filtered to [minVariantLen] and sorted for deterministic iteration.
type Variants struct {
	// All holds every variant, sorted.
	All []string

	// ADBIntent is set when the query unambiguously means "Autonomous
	// Database" ("adb", "autonomous db", "autonomousdb"). Matching then
	// requires both the words "autonomous" and "database" in a candidate,
	// so ADB queries cannot hit unrelated database or Autonomous-prefixed
	// services.
	ADBIntent bool
}

// BuildVariants expands query into its variant set. Aliases expand only on an
// exact short-form match, an exact long-form match, or when the long form
// appears inside the query — looser rules produced too many false positives.
func BuildVariants(query string) Variants {
	qn := Normalize(query)

	v := Variants{
		ADBIntent: qn == "adb" || qn == "autonomous db" || qn == "autonomousdb",
	}

	set := map[string]struct{}{
		qn:          {},
		NoSpace(qn): {},
		Acronym(qn): {},
	}

	for short, full := range aliases {
		sn, fn := Normalize(short), Normalize(full)
		if qn == sn || qn == fn || strings.Contains(qn, fn) {
			set[sn] = struct{}{}
			set[NoSpace(sn)] = struct{}{}
			set[fn] = struct{}{}
			set[NoSpace(fn)] = struct{}{}
		}
	}

	for s := range set {
		if utf8.RuneCountInString(s) >= minVariantLen {
			v.All = append(v.All, s)
		}
	}
	slices.Sort(v.All)
	return v
}

// Short returns the variants of 3–4 runes. These require whole-word matches.
func (v Variants) Short() []string {
	var out []string
	for _, s := range v.All {
		if n := utf8.RuneCountInString(s); n >= 3 && n <= 4 {
			out = append(out, s)
		}
	}
	return out
}

// Long returns the variants of 5+ runes, which tolerate substring and
// similarity matching.
func (v Variants) Long() []string {
	var out []string
	for _, s := range v.All {
		if utf8.RuneCountInString(s) >= 5 {
			out = append(out, s)
		}
	}
	return out
}
