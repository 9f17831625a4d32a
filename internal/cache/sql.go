package cache

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/ziadkadry99/lexhover/internal/db"
)

// SQL persists definitions in the local database so they survive restarts.
type SQL struct {
	db *db.DB
}

// NewSQL returns a cache backed by the definitions table.
func NewSQL(d *db.DB) *SQL {
	return &SQL{db: d}
}

func (s *SQL) Get(ctx context.Context, key string) (Entry, bool, error) {
	var e Entry
	err := s.db.QueryRowContext(ctx,
		`SELECT definition, source FROM definitions WHERE term = ?`, key,
	).Scan(&e.Definition, &e.Source)
	if errors.Is(err, sql.ErrNoRows) {
		return Entry{}, false, nil
	}
	if err != nil {
		return Entry{}, false, fmt.Errorf("querying definition %q: %w", key, err)
	}
	return e, true, nil
}

func (s *SQL) Set(ctx context.Context, key string, e Entry) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO definitions (term, definition, source) VALUES (?, ?, ?)
		 ON CONFLICT(term) DO UPDATE SET definition = excluded.definition, source = excluded.source,
		 created_at = datetime('now')`,
		key, e.Definition, e.Source)
	if err != nil {
		return fmt.Errorf("storing definition %q: %w", key, err)
	}
	return nil
}

func (s *SQL) Len(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM definitions`).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting definitions: %w", err)
	}
	return n, nil
}
