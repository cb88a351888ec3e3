// SPDX-License-Identifier: Apache-2.0
package service

import (
	"context"

	"famledger/internal/capability"
	"famledger/models"
)

// SyncOrchestrator coordinates the local cache, the storage capability and
// the encryption codec. All operations are safe for concurrent use; every
// state transition is delivered to subscribers and observable via State.
type SyncOrchestrator interface {
	// Initialize restores a previously persisted capability, probes its
	// scope and settles into NotConfigured, NeedsPermission or Ready.
	Initialize(ctx context.Context) error

	// RequestPermission re-requests the capability's scope. It must be
	// called from a user gesture; the gesture flag is asserted by the
	// caller. On success a pending read-only session is upgraded by
	// reloading from the file.
	RequestPermission(ctx context.Context, userGesture bool) error

	// SelectOrCreateStorage runs the provider's picker and adopts the
	// chosen location. A cancelled picker is a no-op, not an error.
	SelectOrCreateStorage(ctx context.Context, req capability.PickRequest) error

	// Save serializes the cache and writes the sync file atomically.
	// It requires the Ready state and re-verifies scope before writing.
	Save(ctx context.Context) error

	// Load reads the sync file and replaces the local cache with its
	// contents. password is required when the file is encrypted and no
	// remembered password is available.
	Load(ctx context.Context, password string) error

	// ScheduleSave requests a debounced save; bursts of calls coalesce
	// into a single write after the quiet period.
	ScheduleSave()

	// SaveNow flushes any pending debounced save immediately.
	SaveNow(ctx context.Context) error

	// Disconnect forgets the capability and remembered password. Local
	// cache data is kept; the sync file is not touched.
	Disconnect(ctx context.Context) error

	// State returns the current externally visible state.
	State() StateSnapshot

	// Subscribe registers a callback invoked on every state transition.
	// The returned function removes the subscription.
	Subscribe(fn func(StateSnapshot)) func()
}

// RecurringMaterializer generates concrete ledger transactions from
// recurring templates that have come due.
type RecurringMaterializer interface {
	// Materialize processes every active template up to now. Failures in
	// one template do not stop the others.
	Materialize(ctx context.Context, now models.Date) (MaterializeSummary, error)
}

// TemplateResult reports the outcome of materializing one template.
type TemplateResult struct {
	TemplateID string
	Generated  int
	Err        error
}

// MaterializeSummary aggregates one Materialize run.
type MaterializeSummary struct {
	GeneratedCount int
	ByTemplate     []TemplateResult
}
