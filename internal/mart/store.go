// Package mart persists the dimensional warehouse: dimensions, the thesis
// fact table, author/advisor bridges, and the ETL rejection log. Each ETL run
// replaces the warehouse wholesale; the rejection log is reset at run start
// and appended to as stages progress.
package mart

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

// InstitutionDim is one configured institution.
type InstitutionDim struct {
	ID     int
	Code   string
	Name   string
	Region string
	URL    string
}

// CampusDim is one distinct normalized campus value.
type CampusDim struct {
	ID   int
	Name string
}

// CourseDim is one distinct normalized course value.
type CourseDim struct {
	ID    int
	Name  string
	Level string
}

// PersonDim is one distinct normalized person name (author or advisor).
type PersonDim struct {
	ID   int
	Name string
}

// Fact is one validated, fully-resolved thesis row.
type Fact struct {
	ID            int
	Title         string
	Abstract      string
	Keywords      string
	Year          string
	CourseID      int
	InstitutionID int
	CampusID      int
}

// BridgePair links a fact to a person.
type BridgePair struct {
	FactID   int
	PersonID int
}

// Warehouse is the complete dimensional output of one ETL run.
type Warehouse struct {
	Institutions  []InstitutionDim
	Campuses      []CampusDim
	Courses       []CourseDim
	People        []PersonDim
	Facts         []Fact
	AuthorBridge  []BridgePair
	AdvisorBridge []BridgePair
}

// Rejection is one audit-trail entry for a row excluded by the transform.
type Rejection struct {
	Stage   string
	Reason  string
	Payload any
}

// Store wraps the warehouse SQLite database.
type Store struct {
	conn *sql.DB
	path string
}

// Open creates or opens the warehouse database and ensures the rejection log
// table exists. The remaining tables are rebuilt by Load.
func Open(dbPath string) (*Store, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}
	conn, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening warehouse database: %w", err)
	}
	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("setting journal mode: %w", err)
	}
	if _, err := conn.Exec(`
		CREATE TABLE IF NOT EXISTS etl_rejections (
			id      INTEGER PRIMARY KEY AUTOINCREMENT,
			stage   TEXT NOT NULL,
			reason  TEXT NOT NULL,
			payload TEXT
		)`); err != nil {
		conn.Close()
		return nil, fmt.Errorf("creating rejection log: %w", err)
	}
	return &Store{conn: conn, path: dbPath}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.conn.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// ResetRejections clears the rejection log for a fresh ETL run.
func (s *Store) ResetRejections(ctx context.Context) error {
	if _, err := s.conn.ExecContext(ctx, "DELETE FROM etl_rejections"); err != nil {
		return fmt.Errorf("reset rejection log: %w", err)
	}
	return nil
}

// AppendRejections appends audit entries; payloads are stored as JSON.
func (s *Store) AppendRejections(ctx context.Context, rejections []Rejection) error {
	if len(rejections) == 0 {
		return nil
	}
	tx, err := s.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin rejections tx: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx,
		"INSERT INTO etl_rejections (stage, reason, payload) VALUES (?, ?, ?)")
	if err != nil {
		return fmt.Errorf("prepare rejection insert: %w", err)
	}
	defer stmt.Close()

	for _, rej := range rejections {
		payload, err := json.Marshal(rej.Payload)
		if err != nil {
			return fmt.Errorf("marshal rejection payload: %w", err)
		}
		if _, err := stmt.ExecContext(ctx, rej.Stage, rej.Reason, string(payload)); err != nil {
			return fmt.Errorf("insert rejection: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit rejections tx: %w", err)
	}
	return nil
}

// RejectionCount returns the number of logged rejections, optionally
// filtered by stage (empty stage counts everything).
func (s *Store) RejectionCount(ctx context.Context, stage string) (int, error) {
	query := "SELECT COUNT(*) FROM etl_rejections"
	var args []any
	if stage != "" {
		query += " WHERE stage = ?"
		args = append(args, stage)
	}
	var n int
	if err := s.conn.QueryRowContext(ctx, query, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("count rejections: %w", err)
	}
	return n, nil
}
