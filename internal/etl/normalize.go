// Package etl reshapes the raw thesis rows into the dimensional warehouse
// schema: provenance validation, surrogate key resolution, bridge
// construction, and an auditable rejection trail.
package etl

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// instituteMisspellings maps frequent portal typos of "instituto" onto the
// canonical spelling before provenance matching.
var instituteMisspellings = strings.NewReplacer(
	"istituto", "instituto",
	"intituto", "instituto",
	"insituto", "instituto",
	"instiuto", "instituto",
)

var diacriticsRemover = transform.Chain(
	norm.NFD,
	runes.Remove(runes.In(unicode.Mn)),
	norm.NFC,
)

// stripDiacritics removes combining marks ("Brasília" becomes "Brasilia").
func stripDiacritics(s string) string {
	out, _, err := transform.String(diacriticsRemover, s)
	if err != nil {
		return s
	}
	return out
}

// normalizeInstitution lowercases, strips diacritics, and folds common
// misspellings; it is the comparison form used by provenance validation.
func normalizeInstitution(s string) string {
	s = strings.ToLower(strings.TrimSpace(stripDiacritics(s)))
	return instituteMisspellings.Replace(s)
}

// titleCase produces the canonical display form shared by dimension values
// and key resolution. Both sides of every dimension join use this function,
// so casing or stray whitespace never breaks referential integrity.
func titleCase(s string) string {
	caser := cases.Title(language.BrazilianPortuguese)
	return strings.Join(strings.Fields(caser.String(s)), " ")
}
