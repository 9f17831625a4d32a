package credentials

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/ziadkadry99/lexhover/internal/db"
)

// SQLStore keeps keys in the settings table of the local database.
type SQLStore struct {
	db *db.DB
}

// NewSQLStore creates a SQLStore backed by the given database.
func NewSQLStore(database *db.DB) *SQLStore {
	return &SQLStore{db: database}
}

func (s *SQLStore) Load(ctx context.Context) (Keys, error) {
	model, err := s.get(ctx, ModelKeyName)
	if err != nil {
		return Keys{}, err
	}
	search, err := s.get(ctx, SearchKeyName)
	if err != nil {
		return Keys{}, err
	}
	return Keys{ModelKey: model, SearchKey: search}, nil
}

// Save validates k and writes both keys in one transaction.
func (s *SQLStore) Save(ctx context.Context, k Keys) error {
	k = k.Trimmed()
	if err := k.Validate(); err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	for name, value := range map[string]string{ModelKeyName: k.ModelKey, SearchKeyName: k.SearchKey} {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO settings (key, value) VALUES (?, ?)
			ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = datetime('now')`,
			name, value); err != nil {
			return fmt.Errorf("saving %s: %w", name, err)
		}
	}
	return tx.Commit()
}

func (s *SQLStore) get(ctx context.Context, name string) (string, error) {
	var v string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM settings WHERE key = ?`, name).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("loading %s: %w", name, err)
	}
	return v, nil
}
