// Package postgres is the PostgreSQL persistence backend, built on pgx.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/JonMunkholm/listings/internal/core"
)

// Options configures the connection pool.
type Options struct {
	URL             string
	MaxConns        int
	MinConns        int
	MaxConnLifetime time.Duration
	MaxConnIdleTime time.Duration
}

// Store is a core.Store and core.ListingReader backed by a pgx pool.
type Store struct {
	pool *pgxpool.Pool
}

// Open parses the URL, applies the pool limits and verifies the connection.
func Open(ctx context.Context, opts Options) (*Store, error) {
	poolConfig, err := pgxpool.ParseConfig(opts.URL)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}
	if opts.MaxConns > 0 {
		poolConfig.MaxConns = int32(opts.MaxConns)
	}
	if opts.MinConns > 0 {
		poolConfig.MinConns = int32(opts.MinConns)
	}
	if opts.MaxConnLifetime > 0 {
		poolConfig.MaxConnLifetime = opts.MaxConnLifetime
	}
	if opts.MaxConnIdleTime > 0 {
		poolConfig.MaxConnIdleTime = opts.MaxConnIdleTime
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("connect: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping: %w", err)
	}
	return &Store{pool: pool}, nil
}

func (s *Store) Close() error {
	s.pool.Close()
	return nil
}

func (s *Store) Ping(ctx context.Context) error {
	var one int
	return s.pool.QueryRow(ctx, "SELECT 1").Scan(&one)
}

// Begin starts a transaction.
func (s *Store) Begin(ctx context.Context) (core.Tx, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	return &Tx{tx: tx}, nil
}

// Tx adapts pgx.Tx to core.Tx.
type Tx struct {
	tx pgx.Tx
}

func (t *Tx) FindID(ctx context.Context, table, idColumn string, match []core.Column) (int64, bool, error) {
	query, args := findSQL(table, idColumn, match)
	var id int64
	err := t.tx.QueryRow(ctx, query, args...).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	return id, true, nil
}

func (t *Tx) Insert(ctx context.Context, table, idColumn string, values []core.Column) (int64, error) {
	query, args := insertSQL(table, idColumn, values)
	var id int64
	if err := t.tx.QueryRow(ctx, query, args...).Scan(&id); err != nil {
		return 0, err
	}
	return id, nil
}

func (t *Tx) Update(ctx context.Context, table, idColumn string, id int64, values []core.Column) error {
	query, args := updateSQL(table, idColumn, id, values)
	tag, err := t.tx.Exec(ctx, query, args...)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%s %d not found", table, id)
	}
	return nil
}

func (t *Tx) Savepoint(ctx context.Context, name string) error {
	return t.exec(ctx, "SAVEPOINT "+quoteIdentifier(name))
}

func (t *Tx) RollbackToSavepoint(ctx context.Context, name string) error {
	return t.exec(ctx, "ROLLBACK TO SAVEPOINT "+quoteIdentifier(name))
}

func (t *Tx) ReleaseSavepoint(ctx context.Context, name string) error {
	return t.exec(ctx, "RELEASE SAVEPOINT "+quoteIdentifier(name))
}

func (t *Tx) Commit(ctx context.Context) error {
	return t.tx.Commit(ctx)
}

// Rollback is a no-op after Commit.
func (t *Tx) Rollback(ctx context.Context) error {
	err := t.tx.Rollback(ctx)
	if errors.Is(err, pgx.ErrTxClosed) {
		return nil
	}
	return err
}

func (t *Tx) exec(ctx context.Context, sql string) error {
	_, err := t.tx.Exec(ctx, sql)
	return err
}

// FilterListings runs the count and the page query of f. f must already be
// normalized.
func (s *Store) FilterListings(ctx context.Context, f core.ListingFilter) (*core.ListingPage, error) {
	countSQL, countArgs, pageSQL, pageArgs := filterSQL(f)

	page := &core.ListingPage{Listings: []core.ListingView{}}
	if err := s.pool.QueryRow(ctx, countSQL, countArgs...).Scan(&page.Count); err != nil {
		return nil, fmt.Errorf("count listings: %w", err)
	}

	rows, err := s.pool.Query(ctx, pageSQL, pageArgs...)
	if err != nil {
		return nil, fmt.Errorf("query listings: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var v core.ListingView
		loc := &v.Location
		if err := rows.Scan(&v.ListingID, &v.Rooms, &v.Area, &v.PriceTotal, &v.PriceSqm,
			&loc.LocationID, &loc.City, &loc.Locality, &loc.CityDistrict, &loc.Street, &loc.FullAddress); err != nil {
			return nil, fmt.Errorf("scan listing: %w", err)
		}
		page.Listings = append(page.Listings, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate listings: %w", err)
	}
	return page, nil
}

func (s *Store) MatchLocations(ctx context.Context, q string, limit int) ([]core.LocationView, error) {
	query, args := matchLocationsSQL(q, limit)
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}

	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (core.LocationView, error) {
		var l core.LocationView
		err := row.Scan(&l.LocationID, &l.City, &l.Locality, &l.CityDistrict, &l.Street, &l.FullAddress)
		return l, err
	})
}

