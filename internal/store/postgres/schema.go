package postgres

import (
	"context"
	"fmt"

	"github.com/JonMunkholm/listings/internal/schema"
)

// EnsureSchema creates missing tables and indexes. Existing tables are left
// as they are.
func (s *Store) EnsureSchema(ctx context.Context) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	for _, stmt := range schema.CreateStatements(schema.Postgres) {
		if _, err := tx.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	return tx.Commit(ctx)
}
