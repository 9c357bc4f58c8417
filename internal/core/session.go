package core

import (
	"context"
	"database/sql/driver"
)

// Column is one column/value pair of a row. Values are pgtype values (or
// anything else implementing driver.Valuer) so both pgx and database/sql
// backends can bind them; a nil driver value means SQL NULL.
type Column struct {
	Name  string
	Value driver.Valuer
}

// IsNull reports whether the column holds SQL NULL.
func (c Column) IsNull() bool {
	if c.Value == nil {
		return true
	}
	v, err := c.Value.Value()
	return err == nil && v == nil
}

// Session is the slice of the persistence layer the pipeline needs.
// Backends render the SQL; the core only names tables and columns.
type Session interface {
	// FindID returns the lowest id whose columns equal match. A null
	// column in match is compared with IS NULL.
	FindID(ctx context.Context, table, idColumn string, match []Column) (int64, bool, error)

	// Insert adds a row and returns its generated id right away, so later
	// rows of the same transaction can find it.
	Insert(ctx context.Context, table, idColumn string, values []Column) (int64, error)

	// Update overwrites the given columns of one row.
	Update(ctx context.Context, table, idColumn string, id int64, values []Column) error
}

// Tx is a Session bound to one database transaction.
type Tx interface {
	Session

	Savepoint(ctx context.Context, name string) error
	RollbackToSavepoint(ctx context.Context, name string) error
	ReleaseSavepoint(ctx context.Context, name string) error

	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// Store opens transactions. Satisfied by the postgres and sqlite stores.
type Store interface {
	Begin(ctx context.Context) (Tx, error)
}
