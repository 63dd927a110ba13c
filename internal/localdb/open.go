// Package localdb implements domain.Backend over database/sql so the client
// can run against DuckDB, SQLite or PostgreSQL instead of BigQuery. It is
// meant for local development and integration tests.
package localdb

import (
	"context"
	"database/sql"
	"log/slog"
	"net/url"
	"strings"
	"time"

	_ "github.com/duckdb/duckdb-go/v2" // registers "duckdb"
	_ "github.com/jackc/pgx/v5/stdlib" // registers "pgx"
	_ "github.com/mattn/go-sqlite3"    // registers "sqlite3"

	"bq-bridge/internal/domain"
	"bq-bridge/internal/logging"
	"bq-bridge/internal/sqlgen"
)

// SQLite DSN parameters for file databases.
const (
	defaultBusyTimeout = "5000" // 5 seconds
	defaultSynchronous = "NORMAL"
	defaultJournalMode = "WAL"
)

// Config selects the driver and connection string.
type Config struct {
	// Dialect is one of sqlgen.DuckDB, sqlgen.SQLite or sqlgen.Postgres.
	Dialect string
	// DSN is passed to the driver. Empty means in-memory for duckdb and
	// sqlite3; postgres requires a DSN.
	DSN    string
	Logger *slog.Logger
}

// driverNames maps dialects to registered database/sql driver names.
var driverNames = map[string]string{
	sqlgen.DuckDB:   "duckdb",
	sqlgen.SQLite:   "sqlite3",
	sqlgen.Postgres: "pgx",
}

// Open opens and pings the database. Failures are returned as
// *domain.ConnectionError.
func Open(ctx context.Context, cfg Config) (*Backend, error) {
	driver, ok := driverNames[cfg.Dialect]
	if !ok {
		return nil, domain.ErrValidation("unsupported local backend %q", cfg.Dialect)
	}
	dialect, err := sqlgen.LookupDialect(cfg.Dialect)
	if err != nil {
		return nil, domain.ErrValidation("%v", err)
	}

	dsn := cfg.DSN
	switch cfg.Dialect {
	case sqlgen.SQLite:
		dsn = buildSQLiteDSN(dsn)
	case sqlgen.Postgres:
		if dsn == "" {
			return nil, domain.ErrValidation("postgres backend requires a DSN")
		}
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, domain.ErrConnection(err, "open %s", cfg.Dialect)
	}
	if cfg.Dialect == sqlgen.Postgres {
		db.SetConnMaxLifetime(time.Hour)
	} else {
		// In-memory databases live as long as their single connection.
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, domain.ErrConnection(err, "ping %s", cfg.Dialect)
	}

	logger := cfg.Logger
	if logger == nil {
		logger = logging.Discard()
	}
	return &Backend{
		db:      db,
		dialect: dialect,
		logger:  logger.With("backend", cfg.Dialect),
	}, nil
}

// buildSQLiteDSN hardens a file DSN. Empty and :memory: DSNs are returned
// as an in-memory database.
func buildSQLiteDSN(path string) string {
	if path == "" || path == ":memory:" {
		return ":memory:"
	}
	if strings.Contains(path, "?") {
		return path
	}
	params := url.Values{}
	params.Set("_journal_mode", defaultJournalMode)
	params.Set("_busy_timeout", defaultBusyTimeout)
	params.Set("_synchronous", defaultSynchronous)
	params.Set("_txlock", "immediate")
	return path + "?" + params.Encode()
}

// DB exposes the underlying pool, mainly for tests.
func (b *Backend) DB() *sql.DB { return b.db }
