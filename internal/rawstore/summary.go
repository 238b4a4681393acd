package rawstore

import (
	"context"
	"fmt"
	"sort"
)

// InstitutionCount holds per-institution row counts.
type InstitutionCount struct {
	Code     string `json:"code"`
	Advisors int    `json:"advisors"`
	Theses   int    `json:"theses"`
}

// Summary aggregates raw store contents for progress reporting. It is not
// consumed by the ETL stage.
type Summary struct {
	Institutions  []InstitutionCount `json:"institutions"`
	TotalAdvisors int                `json:"total_advisors"`
	TotalTheses   int                `json:"total_theses"`
}

// StatusSummary returns per-institution distinct advisor and thesis counts
// plus grand totals, sorted by institution code.
func (s *Store) StatusSummary(ctx context.Context) (Summary, error) {
	counts := map[string]*InstitutionCount{}
	get := func(code string) *InstitutionCount {
		if c, ok := counts[code]; ok {
			return c
		}
		c := &InstitutionCount{Code: code}
		counts[code] = c
		return c
	}

	rows, err := s.conn.QueryContext(ctx,
		"SELECT code, COUNT(DISTINCT slug) FROM advisors GROUP BY code")
	if err != nil {
		return Summary{}, fmt.Errorf("query advisor counts: %w", err)
	}
	for rows.Next() {
		var code string
		var n int
		if err := rows.Scan(&code, &n); err != nil {
			rows.Close()
			return Summary{}, fmt.Errorf("scan advisor count: %w", err)
		}
		get(code).Advisors = n
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return Summary{}, err
	}
	rows.Close()

	rows, err = s.conn.QueryContext(ctx,
		"SELECT code, COUNT(*) FROM theses GROUP BY code")
	if err != nil {
		return Summary{}, fmt.Errorf("query thesis counts: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var code string
		var n int
		if err := rows.Scan(&code, &n); err != nil {
			return Summary{}, fmt.Errorf("scan thesis count: %w", err)
		}
		get(code).Theses = n
	}
	if err := rows.Err(); err != nil {
		return Summary{}, err
	}

	summary := Summary{}
	for _, c := range counts {
		summary.Institutions = append(summary.Institutions, *c)
		summary.TotalAdvisors += c.Advisors
		summary.TotalTheses += c.Theses
	}
	sort.Slice(summary.Institutions, func(i, j int) bool {
		return summary.Institutions[i].Code < summary.Institutions[j].Code
	})
	return summary, nil
}
