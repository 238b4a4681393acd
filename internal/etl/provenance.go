package etl

import (
	"strings"

	"github.com/integralabs/integra-harvester/internal/config"
)

// federalNetworkPhrases generically identify members of the federal
// technical-education network, covering both institute and CEFET naming.
var federalNetworkPhrases = []string{
	"instituto federal",
	"federal institute",
	"centro federal de educacao tecnologica",
}

// courseLevelKeywords mark higher-education programs; rows whose course name
// carries none of them are filtered out before the dimensional build.
var courseLevelKeywords = []string{
	"bacharelado",
	"tecnologia",
	"licenciatura",
	"engenharia",
	"superior",
}

// courseLevelTag labels every retained course in the course dimension.
const courseLevelTag = "Superior"

// validator checks whether a thesis row's claimed institution plausibly
// belongs to the institution the crawl targeted.
type validator struct {
	registry map[string]config.Institution
}

func newValidator(registry map[string]config.Institution) *validator {
	return &validator{registry: registry}
}

// accept implements provenance validation: the normalized claim must contain
// a federal-network phrase, the normalized target code, or the target's
// normalized full name.
func (v *validator) accept(claimed, code string) bool {
	claim := normalizeInstitution(claimed)
	if claim == "" {
		return false
	}
	for _, phrase := range federalNetworkPhrases {
		if strings.Contains(claim, phrase) {
			return true
		}
	}
	if normCode := normalizeInstitution(code); normCode != "" && strings.Contains(claim, normCode) {
		return true
	}
	if inst, ok := v.registry[code]; ok && inst.Name != "" {
		if strings.Contains(claim, normalizeInstitution(inst.Name)) {
			return true
		}
	}
	return false
}

// isHigherEducation reports whether a course name matches one of the
// higher-education level keywords.
func isHigherEducation(course string) bool {
	c := normalizeInstitution(course)
	for _, kw := range courseLevelKeywords {
		if strings.Contains(c, kw) {
			return true
		}
	}
	return false
}
