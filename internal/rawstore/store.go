// Package rawstore persists crawled advisors and theses in a SQLite file.
// All writes are insert-if-absent, so re-crawling an institution never
// duplicates rows.
package rawstore

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS advisors (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	code        TEXT NOT NULL,
	name        TEXT,
	campus      TEXT,
	role        TEXT,
	slug        TEXT NOT NULL,
	profile_url TEXT,
	UNIQUE(slug, code)
);

CREATE TABLE IF NOT EXISTS theses (
	id           INTEGER PRIMARY KEY AUTOINCREMENT,
	advisor_slug TEXT NOT NULL,
	advisor_name TEXT,
	code         TEXT NOT NULL,
	institution  TEXT,
	region       TEXT,
	campus       TEXT,
	year         TEXT,
	course       TEXT,
	authors      TEXT,
	title        TEXT,
	abstract     TEXT,
	keywords     TEXT,
	UNIQUE(advisor_slug, title)
);

CREATE INDEX IF NOT EXISTS idx_advisors_slug ON advisors(slug);
CREATE INDEX IF NOT EXISTS idx_advisors_code ON advisors(code);
CREATE INDEX IF NOT EXISTS idx_theses_advisor_slug ON theses(advisor_slug);
CREATE INDEX IF NOT EXISTS idx_theses_code ON theses(code);
`

// Store wraps the raw SQLite database.
type Store struct {
	conn *sql.DB
	path string
}

// Open creates or opens the raw database at the given path and ensures the
// schema exists. An unreachable database file is a structural fault.
func Open(dbPath string) (*Store, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	conn, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening raw database: %w", err)
	}
	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("setting journal mode: %w", err)
	}
	if _, err := conn.Exec(schema); err != nil {
		conn.Close()
		return nil, fmt.Errorf("creating raw schema: %w", err)
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

// nullable maps the absent-value marker to SQL NULL.
func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
