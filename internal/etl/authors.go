package etl

import (
	"strings"

	"github.com/integralabs/integra-harvester/internal/portal"
)

// splitAuthors separates the combined author string into orientee names and
// the advisor. The advisor is the comma-separated part carrying the marker
// suffix; everything else is an author.
func splitAuthors(authors string) (students []string, advisor string) {
	for _, part := range strings.Split(authors, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		if strings.Contains(part, portal.AdvisorMarker) {
			advisor = strings.TrimSpace(strings.Replace(part, portal.AdvisorMarker, "", 1))
			continue
		}
		students = append(students, part)
	}
	return students, advisor
}
