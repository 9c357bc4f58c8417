// Package config loads the importer and server settings from environment
// variables. Every setting has a default except where noted, and the whole
// configuration is validated once on startup.
package config

import (
	"net"
	"strconv"
	"time"
)

// Config holds all application configuration.
type Config struct {
	Database DatabaseConfig
	Import   ImportConfig
	Server   ServerConfig
	Logging  LoggingConfig
}

// Supported DATABASE_DRIVER values.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// DatabaseConfig selects and tunes the storage backend.
type DatabaseConfig struct {
	// Driver is sqlite or postgres (default: sqlite)
	Driver string `env:"DATABASE_DRIVER" default:"sqlite"`

	// URL is a SQLite file path or a PostgreSQL connection string.
	// DB_URL is accepted as a fallback.
	URL string `env:"DATABASE_URL" envAlt:"DB_URL" default:"listings.db"`

	// EnsureSchema creates missing tables on startup (default: true)
	EnsureSchema bool `env:"DB_ENSURE_SCHEMA" default:"true"`

	// Pool settings, postgres only.
	MaxConns        int           `env:"DB_MAX_CONNS" default:"10"`
	MinConns        int           `env:"DB_MIN_CONNS" default:"1"`
	MaxConnLifetime time.Duration `env:"DB_MAX_CONN_LIFETIME" default:"1h"`
	MaxConnIdleTime time.Duration `env:"DB_MAX_CONN_IDLE_TIME" default:"30m"`
}

// ImportConfig holds CSV import settings.
type ImportConfig struct {
	// BatchSize is the number of listings committed per transaction (default: 50)
	BatchSize int `env:"IMPORT_BATCH_SIZE" default:"50"`

	// LocationMatch is present or exact (default: present)
	LocationMatch string `env:"IMPORT_LOCATION_MATCH" default:"present"`

	// StrictQuotes rejects rows with bare quotes instead of reading them literally
	StrictQuotes bool `env:"IMPORT_STRICT_QUOTES" default:"false"`

	// Timeout bounds a whole import run; 0 means no limit
	Timeout time.Duration `env:"IMPORT_TIMEOUT" default:"0s"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host string `env:"SERVER_HOST" default:"0.0.0.0"`
	Port int    `env:"SERVER_PORT" default:"8080"`

	ReadTimeout     time.Duration `env:"SERVER_READ_TIMEOUT" default:"15s"`
	WriteTimeout    time.Duration `env:"SERVER_WRITE_TIMEOUT" default:"30s"`
	IdleTimeout     time.Duration `env:"SERVER_IDLE_TIMEOUT" default:"60s"`
	ShutdownTimeout time.Duration `env:"SERVER_SHUTDOWN_TIMEOUT" default:"30s"`

	// RequestTimeout is the middleware timeout for requests (default: 30s)
	RequestTimeout time.Duration `env:"SERVER_REQUEST_TIMEOUT" default:"30s"`

	// TrustedProxies is a comma-separated list of proxy CIDRs whose
	// X-Real-IP and X-Forwarded-For headers are believed
	TrustedProxies []string `env:"TRUSTED_PROXIES"`

	// MaxConcurrentQueries caps listing queries in flight; QueryWait is how
	// long a request queues for a slot before it gets a 503
	MaxConcurrentQueries int           `env:"SERVER_MAX_CONCURRENT_QUERIES" default:"16"`
	QueryWait            time.Duration `env:"SERVER_QUERY_WAIT" default:"5s"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: debug, info, warn, error (default: info)
	Level string `env:"LOG_LEVEL" default:"info"`

	// Format is the log format: text or json (default: text)
	Format string `env:"LOG_FORMAT" default:"text"`
}

// Addr returns the server listen address in host:port format.
func (c *ServerConfig) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}
