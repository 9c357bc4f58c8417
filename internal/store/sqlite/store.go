// Package sqlite is the SQLite persistence backend. Queries go through bun
// with the sqlite dialect over the pure-Go modernc driver.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/extra/bundebug"
	_ "modernc.org/sqlite"

	"github.com/JonMunkholm/listings/internal/core"
)

// Store is a core.Store and core.ListingReader on a SQLite file.
type Store struct {
	db *bun.DB
}

// Open opens the database at dsn (a file path or ":memory:"). SQLite has a
// single writer, so the pool is limited to one connection; this also keeps an
// in-memory database alive for the lifetime of the Store.
func Open(ctx context.Context, dsn string) (*Store, error) {
	sqldb, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	sqldb.SetMaxOpenConns(1)

	db := bun.NewDB(sqldb, sqlitedialect.New())
	db.AddQueryHook(bundebug.NewQueryHook(
		bundebug.WithEnabled(false),

		// BUNDEBUG=1 logs failed queries
		// BUNDEBUG=2 logs all queries
		bundebug.FromEnv("BUNDEBUG")))

	for _, pragma := range []string{
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	} {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("%s: %w", pragma, err)
		}
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) Ping(ctx context.Context) error {
	var one int
	return s.db.NewRaw("SELECT 1").Scan(ctx, &one)
}

// Begin starts a transaction.
func (s *Store) Begin(ctx context.Context) (core.Tx, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	return &Tx{tx: tx}, nil
}

// Tx adapts bun.Tx to core.Tx.
type Tx struct {
	tx bun.Tx
}

func (t *Tx) FindID(ctx context.Context, table, idColumn string, match []core.Column) (int64, bool, error) {
	return findID(ctx, t.tx, table, idColumn, match)
}

func (t *Tx) Insert(ctx context.Context, table, idColumn string, values []core.Column) (int64, error) {
	return insert(ctx, t.tx, table, values)
}

func (t *Tx) Update(ctx context.Context, table, idColumn string, id int64, values []core.Column) error {
	return update(ctx, t.tx, table, idColumn, id, values)
}

func (t *Tx) Savepoint(ctx context.Context, name string) error {
	_, err := t.tx.ExecContext(ctx, "SAVEPOINT ?", bun.Ident(name))
	return err
}

func (t *Tx) RollbackToSavepoint(ctx context.Context, name string) error {
	_, err := t.tx.ExecContext(ctx, "ROLLBACK TO SAVEPOINT ?", bun.Ident(name))
	return err
}

func (t *Tx) ReleaseSavepoint(ctx context.Context, name string) error {
	_, err := t.tx.ExecContext(ctx, "RELEASE SAVEPOINT ?", bun.Ident(name))
	return err
}

func (t *Tx) Commit(ctx context.Context) error {
	return t.tx.Commit()
}

// Rollback is a no-op after Commit.
func (t *Tx) Rollback(ctx context.Context) error {
	err := t.tx.Rollback()
	if errors.Is(err, sql.ErrTxDone) {
		return nil
	}
	return err
}

// driverValue resolves a column to the value bun appends to the query.
func driverValue(c core.Column) (any, error) {
	if c.Value == nil {
		return nil, nil
	}
	v, err := c.Value.Value()
	if err != nil {
		return nil, fmt.Errorf("column %s: %w", c.Name, err)
	}
	return v, nil
}

func findID(ctx context.Context, db bun.IDB, table, idColumn string, match []core.Column) (int64, bool, error) {
	q := db.NewSelect().
		TableExpr("?", bun.Ident(table)).
		ColumnExpr("?", bun.Ident(idColumn))

	for _, c := range match {
		v, err := driverValue(c)
		if err != nil {
			return 0, false, err
		}
		if v == nil {
			q = q.Where("? IS NULL", bun.Ident(c.Name))
		} else {
			q = q.Where("? = ?", bun.Ident(c.Name), v)
		}
	}

	var id int64
	err := q.OrderExpr("? ASC", bun.Ident(idColumn)).Limit(1).Scan(ctx, &id)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	return id, true, nil
}

func rowMap(values []core.Column) (map[string]interface{}, error) {
	row := make(map[string]interface{}, len(values))
	for _, c := range values {
		v, err := driverValue(c)
		if err != nil {
			return nil, err
		}
		row[c.Name] = v
	}
	return row, nil
}

func insert(ctx context.Context, db bun.IDB, table string, values []core.Column) (int64, error) {
	row, err := rowMap(values)
	if err != nil {
		return 0, err
	}

	res, err := db.NewInsert().Model(&row).TableExpr("?", bun.Ident(table)).Exec(ctx)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

func update(ctx context.Context, db bun.IDB, table, idColumn string, id int64, values []core.Column) error {
	row, err := rowMap(values)
	if err != nil {
		return err
	}

	res, err := db.NewUpdate().
		Model(&row).
		TableExpr("?", bun.Ident(table)).
		Where("? = ?", bun.Ident(idColumn), id).
		Exec(ctx)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("%s %d not found", table, id)
	}
	return nil
}
