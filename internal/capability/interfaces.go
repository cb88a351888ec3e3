// Package capability abstracts the platform primitive that grants scoped
// access to a user-chosen storage location. On the web that primitive is a
// browser file handle; here the shipped implementation wraps an OS file path
// behind a permission-probing façade. The sync orchestrator only ever talks
// to these interfaces, so substituting a cloud-SDK or sandbox-scoped handle
// does not touch the state machine.
package capability

import (
	"context"

	"famledger/models"
)

// Handle is a live, session-scoped handle to the granted storage location.
// Scope can be revoked externally at any time, so callers re-check
// CurrentScope immediately before relying on it.
type Handle interface {
	// Read returns the full contents of the storage location.
	Read(ctx context.Context) ([]byte, error)

	// Write atomically replaces the contents of the storage location.
	// A concurrent reader never observes a partial file.
	Write(ctx context.Context, data []byte) error

	// CurrentScope probes the access level available right now.
	CurrentScope() models.Scope

	// RequestScope asks the platform to (re-)grant the desired scope.
	// Returns false without error when the user or platform declines.
	RequestScope(ctx context.Context, desired models.Scope) (bool, error)

	// DisplayName is the human-readable name of the location.
	DisplayName() string
}

// PickRequest carries the outcome of the UI's location-selection prompt into
// a provider. The prompt itself is outside this package; an empty Location
// means the user dismissed it.
type PickRequest struct {
	// Location is the provider-specific address the user chose.
	Location string

	// DisplayName overrides the derived display name when non-empty.
	DisplayName string

	// Create permits creating the location if it does not exist yet.
	Create bool
}

// Provider restores handles from persisted capability descriptors and mints
// new ones from a user's selection.
type Provider interface {
	// Kind names this provider; it is recorded in the capability descriptor
	// so the right provider is used to restore it next session.
	Kind() string

	// Supported reports whether the host platform can grant scoped storage
	// handles at all. When false the application runs permanently in
	// local-cache-only mode.
	Supported() bool

	// Restore reopens the location described by a persisted capability.
	// The returned handle starts with whatever scope the platform still
	// grants, which may be less than the descriptor remembers.
	Restore(capability models.Capability) (Handle, error)

	// Pick turns a user selection into a fresh handle plus its persistable
	// descriptor. Returns [ErrCancelled] when the user dismissed the prompt.
	Pick(ctx context.Context, req PickRequest) (Handle, models.Capability, error)
}
