package rawstore

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/integralabs/integra-harvester/internal/portal"
)

// SaveTheses bulk-inserts thesis rows. Rows already present (same advisor
// slug and title) are silently skipped. Returns the number of rows actually
// inserted.
func (s *Store) SaveTheses(ctx context.Context, theses []portal.Thesis) (int64, error) {
	if len(theses) == 0 {
		return 0, nil
	}
	tx, err := s.conn.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin theses tx: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT OR IGNORE INTO theses (
			advisor_slug, advisor_name, code, institution, region, campus,
			year, course, authors, title, abstract, keywords
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return 0, fmt.Errorf("prepare theses insert: %w", err)
	}
	defer stmt.Close()

	var inserted int64
	for _, th := range theses {
		res, err := stmt.ExecContext(ctx,
			th.AdvisorSlug, nullable(th.AdvisorName), th.InstitutionCode,
			nullable(th.InstitutionName), nullable(th.Region), nullable(th.Campus),
			nullable(th.Year), nullable(th.Course), nullable(th.Authors),
			nullable(th.Title), nullable(th.Abstract), nullable(th.Keywords))
		if err != nil {
			return 0, fmt.Errorf("insert thesis %q: %w", th.Title, err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return 0, fmt.Errorf("thesis rows affected: %w", err)
		}
		inserted += n
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit theses tx: %w", err)
	}
	return inserted, nil
}

// AllTheses returns every thesis row in insertion order; this is the ETL
// transform's input. NULL columns come back as the absent-value marker.
func (s *Store) AllTheses(ctx context.Context) ([]portal.Thesis, error) {
	rows, err := s.conn.QueryContext(ctx, `
		SELECT advisor_slug, advisor_name, code, institution, region, campus,
			year, course, authors, title, abstract, keywords
		FROM theses ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("query theses: %w", err)
	}
	defer rows.Close()

	var theses []portal.Thesis
	for rows.Next() {
		var th portal.Thesis
		var name, institution, region, campus, year, course sql.NullString
		var authors, title, abstract, keywords sql.NullString
		if err := rows.Scan(&th.AdvisorSlug, &name, &th.InstitutionCode,
			&institution, &region, &campus, &year, &course,
			&authors, &title, &abstract, &keywords); err != nil {
			return nil, fmt.Errorf("scan thesis: %w", err)
		}
		th.AdvisorName = name.String
		th.InstitutionName = institution.String
		th.Region = region.String
		th.Campus = campus.String
		th.Year = year.String
		th.Course = course.String
		th.Authors = authors.String
		th.Title = title.String
		th.Abstract = abstract.String
		th.Keywords = keywords.String
		theses = append(theses, th)
	}
	return theses, rows.Err()
}
