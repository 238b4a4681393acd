package rawstore

import (
	"context"
	"fmt"

	"github.com/integralabs/integra-harvester/internal/portal"
)

// SaveAdvisors bulk-inserts advisor stubs for one institution. Rows already
// present (same slug and code) are silently skipped. Returns the number of
// rows actually inserted.
func (s *Store) SaveAdvisors(ctx context.Context, code string, stubs []portal.AdvisorStub) (int64, error) {
	if len(stubs) == 0 {
		return 0, nil
	}
	tx, err := s.conn.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin advisors tx: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT OR IGNORE INTO advisors (code, name, campus, role, slug, profile_url)
		VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return 0, fmt.Errorf("prepare advisors insert: %w", err)
	}
	defer stmt.Close()

	var inserted int64
	for _, stub := range stubs {
		res, err := stmt.ExecContext(ctx, code,
			nullable(stub.Name), nullable(stub.Campus), nullable(stub.Role),
			stub.Slug, nullable(stub.ProfileURL))
		if err != nil {
			return 0, fmt.Errorf("insert advisor %q: %w", stub.Slug, err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return 0, fmt.Errorf("advisor rows affected: %w", err)
		}
		inserted += n
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit advisors tx: %w", err)
	}
	return inserted, nil
}
