package store

import (
	"context"

	"famledger/models"
)

// Repository is the local cache view the sync engine works against. Entity
// CRUD for the UI lives elsewhere; the engine only needs whole-snapshot
// export/import plus the handful of reads and the one atomic write unit the
// recurring materializer relies on.
type Repository interface {
	// ExportSnapshot returns the full application state held in the cache.
	ExportSnapshot(ctx context.Context) (models.SnapshotData, error)

	// ImportSnapshot replaces the full cache contents with data. Full
	// replace, never a merge: the caller decided the source of truth.
	ImportSnapshot(ctx context.Context, data models.SnapshotData) error

	// Templates lists all recurring templates.
	Templates(ctx context.Context) ([]models.RecurringTemplate, error)

	// Account fetches one account by id. Returns [ErrAccountNotFound] when
	// absent.
	Account(ctx context.Context, id string) (models.Account, error)

	// ApplyRecurringOccurrence commits one materialized occurrence as a
	// single atomic unit: insert the generated transaction, apply its
	// signed amount to the account balance, and advance the template's
	// checkpoint. Either all three happen or none do.
	//
	// The transaction id is the occurrence's deterministic idempotency key;
	// if a row with that id already exists the insert and the balance
	// effect are skipped while the checkpoint still advances, so replaying
	// a pass self-heals instead of duplicating. Returns whether a new
	// transaction row was actually inserted.
	ApplyRecurringOccurrence(ctx context.Context, txn models.LedgerTransaction, checkpoint models.Date) (bool, error)
}

// CapabilitySlot persists the storage-capability descriptor across sessions.
// It is a dumb durable slot: no business logic, and a corrupted stored value
// restores as "not configured" rather than an error.
type CapabilitySlot interface {
	Persist(ctx context.Context, cap models.Capability) error

	// Restore returns the stored capability, or (nil, nil) when none is
	// stored or the stored value cannot be decoded.
	Restore(ctx context.Context) (*models.Capability, error)

	Clear(ctx context.Context) error
}

// SettingsStore persists the sync settings document.
type SettingsStore interface {
	// Settings returns the stored settings, or the zero value when none
	// are stored yet.
	Settings(ctx context.Context) (models.Settings, error)

	SaveSettings(ctx context.Context, s models.Settings) error
}
