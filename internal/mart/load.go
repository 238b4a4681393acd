package mart

import (
	"context"
	"fmt"
)

// warehouseSchema rebuilds every dimensional table from scratch. The rejection
// log lives outside this set; it survives Load and is reset separately.
const warehouseSchema = `
CREATE TABLE dim_institution (
	id     INTEGER PRIMARY KEY,
	code   TEXT NOT NULL UNIQUE,
	name   TEXT NOT NULL,
	region TEXT NOT NULL,
	url    TEXT NOT NULL
);

CREATE TABLE dim_campus (
	id   INTEGER PRIMARY KEY,
	name TEXT NOT NULL UNIQUE
);

CREATE TABLE dim_course (
	id           INTEGER PRIMARY KEY,
	name         TEXT NOT NULL UNIQUE,
	level        TEXT NOT NULL,
	unified_name TEXT NOT NULL
);

CREATE TABLE dim_person (
	id   INTEGER PRIMARY KEY,
	name TEXT NOT NULL UNIQUE
);

CREATE TABLE fact_thesis (
	id             INTEGER PRIMARY KEY,
	title          TEXT NOT NULL,
	abstract       TEXT,
	keywords       TEXT,
	year           TEXT,
	course_id      INTEGER NOT NULL REFERENCES dim_course(id),
	institution_id INTEGER NOT NULL REFERENCES dim_institution(id),
	campus_id      INTEGER NOT NULL REFERENCES dim_campus(id)
);

CREATE TABLE bridge_thesis_author (
	fact_id   INTEGER NOT NULL REFERENCES fact_thesis(id),
	person_id INTEGER NOT NULL REFERENCES dim_person(id),
	PRIMARY KEY (fact_id, person_id)
);

CREATE TABLE bridge_thesis_advisor (
	fact_id   INTEGER NOT NULL REFERENCES fact_thesis(id),
	person_id INTEGER NOT NULL REFERENCES dim_person(id),
	PRIMARY KEY (fact_id, person_id)
);
`

var warehouseTables = []string{
	"bridge_thesis_advisor",
	"bridge_thesis_author",
	"fact_thesis",
	"dim_person",
	"dim_course",
	"dim_campus",
	"dim_institution",
}

// Load replaces the entire warehouse with the given run's output. Drop,
// recreate, and insert all happen in one transaction, so readers see either
// the previous warehouse or the new one, never a mix.
func (s *Store) Load(ctx context.Context, wh Warehouse) error {
	tx, err := s.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin load tx: %w", err)
	}
	defer tx.Rollback()

	for _, table := range warehouseTables {
		if _, err := tx.ExecContext(ctx, "DROP TABLE IF EXISTS "+table); err != nil {
			return fmt.Errorf("drop %s: %w", table, err)
		}
	}
	if _, err := tx.ExecContext(ctx, warehouseSchema); err != nil {
		return fmt.Errorf("create warehouse schema: %w", err)
	}

	for _, inst := range wh.Institutions {
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO dim_institution (id, code, name, region, url) VALUES (?, ?, ?, ?, ?)",
			inst.ID, inst.Code, inst.Name, inst.Region, inst.URL); err != nil {
			return fmt.Errorf("insert institution %s: %w", inst.Code, err)
		}
	}
	for _, campus := range wh.Campuses {
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO dim_campus (id, name) VALUES (?, ?)",
			campus.ID, campus.Name); err != nil {
			return fmt.Errorf("insert campus %q: %w", campus.Name, err)
		}
	}
	for _, course := range wh.Courses {
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO dim_course (id, name, level, unified_name) VALUES (?, ?, ?, ?)",
			course.ID, course.Name, course.Level, course.Name); err != nil {
			return fmt.Errorf("insert course %q: %w", course.Name, err)
		}
	}
	for _, person := range wh.People {
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO dim_person (id, name) VALUES (?, ?)",
			person.ID, person.Name); err != nil {
			return fmt.Errorf("insert person %q: %w", person.Name, err)
		}
	}
	for _, fact := range wh.Facts {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO fact_thesis (id, title, abstract, keywords, year,
				course_id, institution_id, campus_id)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			fact.ID, fact.Title, nullable(fact.Abstract), nullable(fact.Keywords),
			nullable(fact.Year), fact.CourseID, fact.InstitutionID, fact.CampusID); err != nil {
			return fmt.Errorf("insert fact %d: %w", fact.ID, err)
		}
	}
	for _, pair := range wh.AuthorBridge {
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO bridge_thesis_author (fact_id, person_id) VALUES (?, ?)",
			pair.FactID, pair.PersonID); err != nil {
			return fmt.Errorf("insert author bridge (%d,%d): %w", pair.FactID, pair.PersonID, err)
		}
	}
	for _, pair := range wh.AdvisorBridge {
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO bridge_thesis_advisor (fact_id, person_id) VALUES (?, ?)",
			pair.FactID, pair.PersonID); err != nil {
			return fmt.Errorf("insert advisor bridge (%d,%d): %w", pair.FactID, pair.PersonID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit load tx: %w", err)
	}
	return nil
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
