// Package courses groups near-duplicate course names so the warehouse's
// course dimension can present one canonical spelling per program. Portal
// operators type course names free-form, so the same program shows up under
// abbreviations, accent variations, and word-order swaps.
package courses

import (
	"sort"
	"strings"
	"unicode"

	"github.com/agnivade/levenshtein"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// DefaultThreshold is the similarity cutoff (0-100) below which two course
// names are considered distinct programs.
const DefaultThreshold = 85

// Grouper clusters course names by token-sort similarity.
type Grouper struct {
	threshold int
}

// NewGrouper builds a Grouper; thresholds outside (0, 100] fall back to the
// default.
func NewGrouper(threshold int) *Grouper {
	if threshold <= 0 || threshold > 100 {
		threshold = DefaultThreshold
	}
	return &Grouper{threshold: threshold}
}

var unifyDiacritics = transform.Chain(
	norm.NFD,
	runes.Remove(runes.In(unicode.Mn)),
	norm.NFC,
)

// tokenKey lowercases, strips diacritics, and sorts the words, so word order
// and accents never count against similarity.
func tokenKey(name string) string {
	out, _, err := transform.String(unifyDiacritics, strings.ToLower(name))
	if err != nil {
		out = strings.ToLower(name)
	}
	fields := strings.Fields(out)
	sort.Strings(fields)
	return strings.Join(fields, " ")
}

// similarity is the token-sort ratio of two names on a 0-100 scale.
func similarity(a, b string) int {
	ka, kb := tokenKey(a), tokenKey(b)
	if ka == kb {
		return 100
	}
	longest := len([]rune(ka))
	if l := len([]rune(kb)); l > longest {
		longest = l
	}
	if longest == 0 {
		return 0
	}
	dist := levenshtein.ComputeDistance(ka, kb)
	return 100 * (longest - dist) / longest
}

// Group assigns each name to the first already-seen name it matches at or
// above the threshold. The returned mapping sends every input name to its
// group's canonical spelling; names forming their own group map to themselves.
func (g *Grouper) Group(names []string) map[string]string {
	mapping := make(map[string]string, len(names))
	var canonicals []string

	for _, name := range names {
		if _, seen := mapping[name]; seen {
			continue
		}
		assigned := false
		for _, canon := range canonicals {
			if similarity(name, canon) >= g.threshold {
				mapping[name] = canon
				assigned = true
				break
			}
		}
		if !assigned {
			canonicals = append(canonicals, name)
			mapping[name] = name
		}
	}
	return mapping
}
