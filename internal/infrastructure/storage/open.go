// Package storage implements the relational reconciliation target over
// database/sql, with sqlite (default) and postgres drivers.
package storage

import (
	"database/sql"
	"fmt"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"

	"github.com/codenarok/SteamGameFetcher/internal/config"
)

// Dialect selects placeholder style and schema introspection queries.
type Dialect string

const (
	DialectSQLite   Dialect = "sqlite"
	DialectPostgres Dialect = "postgres"
)

var sqlitePragmas = []string{
	"PRAGMA foreign_keys = ON",
	"PRAGMA journal_mode = WAL",
	"PRAGMA busy_timeout = 10000",
	"PRAGMA synchronous = NORMAL",
}

// Open connects to the configured database and verifies the connection.
func Open(cfg config.DatabaseConfig) (*sql.DB, Dialect, error) {
	var driverName string
	var dialect Dialect

	switch cfg.Driver {
	case "", "sqlite":
		driverName, dialect = "sqlite", DialectSQLite
	case "postgres":
		driverName, dialect = "pgx", DialectPostgres
	default:
		return nil, "", fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}

	db, err := sql.Open(driverName, cfg.DSN)
	if err != nil {
		return nil, "", fmt.Errorf("open %s: %w", cfg.Driver, err)
	}

	if dialect == DialectSQLite {
		for _, pragma := range sqlitePragmas {
			if _, err := db.Exec(pragma); err != nil {
				db.Close()
				return nil, "", fmt.Errorf("%s: %w", pragma, err)
			}
		}
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, "", fmt.Errorf("ping %s: %w", cfg.Driver, err)
	}
	return db, dialect, nil
}
