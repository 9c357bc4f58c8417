package sqlite

import (
	"context"
	"fmt"

	"github.com/uptrace/bun"

	"github.com/JonMunkholm/listings/internal/schema"
)

// EnsureSchema creates missing tables and indexes.
func (s *Store) EnsureSchema(ctx context.Context) error {
	return s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		for _, stmt := range schema.CreateStatements(schema.SQLite) {
			if _, err := tx.ExecContext(ctx, stmt); err != nil {
				return fmt.Errorf("ensure schema: %w", err)
			}
		}
		return nil
	})
}
