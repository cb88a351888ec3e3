package store

import (
	"context"
	"fmt"

	"famledger/internal/config"
	"famledger/internal/logger"
)

// Storages groups the local cache repositories into a single value that can
// be passed to the service layer.
type Storages struct {
	// Repository is the snapshot-level view of the cache.
	Repository Repository
	// CapabilitySlot holds the persisted storage capability descriptor.
	CapabilitySlot CapabilitySlot
	// Settings holds the sync settings document.
	Settings SettingsStore
}

// NewStorages initialises the local cache: opens the SQLite database at
// cfg.DB.DSN (creating the file if needed), runs pending migrations, and
// wires the repositories over the shared connection.
func NewStorages(ctx context.Context, cfg config.CacheStorage, log *logger.Logger) (*Storages, error) {
	log.Info().Msg("creating new storages...")

	db, err := NewConnectSQLite(ctx, cfg.DB, log)
	if err != nil {
		return nil, fmt.Errorf("sqlite connection error: %w", err)
	}

	if err := db.Migrate(); err != nil {
		return nil, fmt.Errorf("migration failed: %w", err)
	}

	return &Storages{
		Repository:     NewSnapshotRepository(db, log),
		CapabilitySlot: NewCapabilitySlot(db, log),
		Settings:       NewSettingsStore(db, log),
	}, nil
}
