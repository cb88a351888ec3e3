package models

import "time"

// Scope is the access level currently granted by a storage capability.
type Scope string

const (
	ScopeNone      Scope = "none"
	ScopeRead      Scope = "read"
	ScopeReadWrite Scope = "read-write"
)

// AllowsRead reports whether the scope permits reading the storage location.
func (s Scope) AllowsRead() bool { return s == ScopeRead || s == ScopeReadWrite }

// AllowsWrite reports whether the scope permits writing the storage location.
func (s Scope) AllowsWrite() bool { return s == ScopeReadWrite }

// Capability is the serializable descriptor of a user-granted storage
// location. The live platform handle is reconstructed from this descriptor by
// a capability provider on session start; the descriptor itself carries no
// open file handles and is safe to persist in the local cache.
//
// A restored capability always starts its session with an unconfirmed scope:
// the grant recorded here reflects what the user approved in a past session,
// and the platform may have revoked it since. The orchestrator re-verifies
// before treating the location as writable.
type Capability struct {
	// ID uniquely identifies this grant across sessions.
	ID string `json:"id"`

	// Kind names the handle provider that can reopen the location,
	// e.g. "os-file".
	Kind string `json:"kind"`

	// Location is the provider-specific address of the storage location
	// (a filesystem path for the os-file provider).
	Location string `json:"location"`

	// DisplayName is the human-readable name shown in the UI.
	DisplayName string `json:"display_name"`

	// Scope is the access level the user granted when the capability was
	// created. It is a recollection, not a guarantee; see the type comment.
	Scope Scope `json:"scope"`

	// EncryptionEnabled records whether the file at this location is
	// expected to be password-encrypted.
	EncryptionEnabled bool `json:"encryption_enabled"`

	// GrantedAt is when the user approved the grant.
	GrantedAt time.Time `json:"granted_at"`
}
