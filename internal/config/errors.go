package config

import "errors"

// Validation errors returned by [SyncConfig.validate] when required
// configuration groups are incomplete or invalid.
var (
	// ErrInvalidStorageConfigs indicates invalid cache storage settings
	// (for example, an empty DSN after defaulting).
	ErrInvalidStorageConfigs = errors.New("invalid storage configuration")
	// ErrInvalidSyncConfigs indicates invalid sync engine settings
	// (for example, a negative debounce interval or retry budget).
	ErrInvalidSyncConfigs = errors.New("invalid sync configuration")
)
