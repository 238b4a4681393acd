package mart

import (
	"context"
	"database/sql"
	"fmt"
)

// FlatRow is one denormalized thesis row for export: dimensions joined back
// in, authors collapsed to one comma-separated field.
type FlatRow struct {
	Title       string `json:"title"`
	Abstract    string `json:"abstract,omitempty"`
	Keywords    string `json:"keywords,omitempty"`
	Year        string `json:"year,omitempty"`
	Course      string `json:"course"`
	CourseLevel string `json:"course_level"`
	Institution string `json:"institution"`
	Region      string `json:"region"`
	Campus      string `json:"campus"`
	Authors     string `json:"authors,omitempty"`
	Advisor     string `json:"advisor,omitempty"`
}

// FlatRows joins the star schema back into one row per fact, ordered by fact
// id so export output is deterministic.
func (s *Store) FlatRows(ctx context.Context) ([]FlatRow, error) {
	rows, err := s.conn.QueryContext(ctx, `
		SELECT f.title, f.abstract, f.keywords, f.year,
			co.unified_name, co.level, i.name, i.region, ca.name,
			(SELECT group_concat(p.name, ', ')
				FROM bridge_thesis_author ba
				JOIN dim_person p ON p.id = ba.person_id
				WHERE ba.fact_id = f.id),
			(SELECT p.name
				FROM bridge_thesis_advisor bv
				JOIN dim_person p ON p.id = bv.person_id
				WHERE bv.fact_id = f.id)
		FROM fact_thesis f
		JOIN dim_course co ON co.id = f.course_id
		JOIN dim_institution i ON i.id = f.institution_id
		JOIN dim_campus ca ON ca.id = f.campus_id
		ORDER BY f.id`)
	if err != nil {
		return nil, fmt.Errorf("query flat rows: %w", err)
	}
	defer rows.Close()

	var out []FlatRow
	for rows.Next() {
		var row FlatRow
		var abstract, keywords, year, authors, advisor sql.NullString
		if err := rows.Scan(&row.Title, &abstract, &keywords, &year,
			&row.Course, &row.CourseLevel, &row.Institution, &row.Region,
			&row.Campus, &authors, &advisor); err != nil {
			return nil, fmt.Errorf("scan flat row: %w", err)
		}
		row.Abstract = abstract.String
		row.Keywords = keywords.String
		row.Year = year.String
		row.Authors = authors.String
		row.Advisor = advisor.String
		out = append(out, row)
	}
	return out, rows.Err()
}

// CourseNames returns every course dimension name, ordered by id.
func (s *Store) CourseNames(ctx context.Context) ([]string, error) {
	rows, err := s.conn.QueryContext(ctx, "SELECT name FROM dim_course ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("query course names: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scan course name: %w", err)
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

// UpdateUnifiedNames rewrites course unified names from a canonical mapping.
// Courses absent from the mapping keep their current unified name.
func (s *Store) UpdateUnifiedNames(ctx context.Context, mapping map[string]string) (int64, error) {
	tx, err := s.conn.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin unify tx: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, "UPDATE dim_course SET unified_name = ? WHERE name = ?")
	if err != nil {
		return 0, fmt.Errorf("prepare unify update: %w", err)
	}
	defer stmt.Close()

	var updated int64
	for name, unified := range mapping {
		res, err := stmt.ExecContext(ctx, unified, name)
		if err != nil {
			return 0, fmt.Errorf("update course %q: %w", name, err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return 0, fmt.Errorf("unify rows affected: %w", err)
		}
		updated += n
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit unify tx: %w", err)
	}
	return updated, nil
}
