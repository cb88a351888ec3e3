package models

import "time"

// Settings is the user-facing sync configuration document. It travels inside
// the snapshot and is also kept in the local cache so the orchestrator can
// read it before any file is loaded.
type Settings struct {
	// SyncEnabled turns file synchronization on at all.
	SyncEnabled bool `json:"syncEnabled"`

	// AutoSyncEnabled enables the debounced save-on-mutation behavior; when
	// false, saves happen only on explicit user action.
	AutoSyncEnabled bool `json:"autoSyncEnabled"`

	// EncryptionEnabled requires a password for the sync file.
	EncryptionEnabled bool `json:"encryptionEnabled"`

	// RememberPassword opts in to the volatile in-memory password cache for
	// the current session only.
	RememberPassword bool `json:"rememberPassword"`

	// LastSyncAt is the completion time of the last successful save or load.
	LastSyncAt *time.Time `json:"lastSyncAt,omitempty"`
}
