// Package store opens the configured persistence backend.
package store

import (
	"context"
	"fmt"

	"github.com/JonMunkholm/listings/internal/config"
	"github.com/JonMunkholm/listings/internal/core"
	"github.com/JonMunkholm/listings/internal/store/postgres"
	"github.com/JonMunkholm/listings/internal/store/sqlite"
)

// Backend is everything the commands need from a database.
type Backend interface {
	core.Store
	core.ListingReader

	EnsureSchema(ctx context.Context) error
	Close() error
}

var (
	_ Backend = (*postgres.Store)(nil)
	_ Backend = (*sqlite.Store)(nil)
)

// Open connects to the backend named by cfg.Driver and, when
// cfg.EnsureSchema is set, creates missing tables.
func Open(ctx context.Context, cfg config.DatabaseConfig) (Backend, error) {
	var (
		b   Backend
		err error
	)
	switch cfg.Driver {
	case config.DriverPostgres:
		b, err = postgres.Open(ctx, postgres.Options{
			URL:             cfg.URL,
			MaxConns:        cfg.MaxConns,
			MinConns:        cfg.MinConns,
			MaxConnLifetime: cfg.MaxConnLifetime,
			MaxConnIdleTime: cfg.MaxConnIdleTime,
		})
	case config.DriverSQLite:
		b, err = sqlite.Open(ctx, cfg.URL)
	default:
		return nil, fmt.Errorf("unknown database driver %q", cfg.Driver)
	}
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", cfg.Driver, err)
	}

	if cfg.EnsureSchema {
		if err := b.EnsureSchema(ctx); err != nil {
			b.Close()
			return nil, err
		}
	}
	return b, nil
}
