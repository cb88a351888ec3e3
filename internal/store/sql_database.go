package store

import (
	"database/sql"

	"famledger/internal/logger"
	"famledger/migrations"
)

// DB wraps the local cache database connection. All repositories share one
// *DB so they participate in the same connection pool and migrations run
// exactly once.
type DB struct {
	*sql.DB
	logger *logger.Logger
}

// Migrate applies pending schema migrations to the cache database.
func (db *DB) Migrate() error {
	return migrations.Migrate(db.DB)
}
