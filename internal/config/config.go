// SPDX-License-Identifier: Apache-2.0

package config

import (
	"fmt"
	"time"
)

// StructuredConfig is the top-level configuration container for famledger.
// It aggregates all sub-configurations and is populated by merging values
// from environment variables, command-line flags, and an optional JSON file.
//
// Struct tags:
//   - envPrefix: prefix applied to all nested env tag lookups (caarlos0/env).
//   - env: direct environment variable name for scalar fields.
type StructuredConfig struct {
	// App holds application-level settings such as the version string and
	// the log file path.
	App App `envPrefix:"APP_"`

	// Storage holds configuration for the local cache database.
	Storage Storage `envPrefix:"STORAGE_"`

	// Sync holds the sync engine's tuning knobs: the debounce quiet period
	// and the password retry budget.
	Sync Sync `envPrefix:"SYNC_"`

	// JSONFilePath is the optional path to a JSON configuration file.
	// When non-empty, the file is parsed and merged on top of the values
	// already loaded from environment variables and flags.
	// Populated via the CONFIG environment variable or the -c / -config flag.
	JSONFilePath string `env:"CONFIG"`
}

// App holds application-level configuration values.
type App struct {
	// Version is the semantic version string of the running application.
	// Env: APP_VERSION
	Version string `env:"VERSION"`

	// LogPath is the optional file the binary logs to instead of stdout.
	// Env: APP_LOG_PATH
	LogPath string `env:"LOG_PATH"`
}

// Storage groups the configuration for the persistence backends.
type Storage struct {
	// DB holds the local cache database settings.
	DB CacheDB `envPrefix:"DB_"`
}

// CacheDB holds connection settings for the SQLite local cache.
type CacheDB struct {
	// DSN is the SQLite file path backing the local cache, or ":memory:"
	// for an ephemeral cache.
	// Env: STORAGE_DB_DSN
	DSN string `env:"DSN"`
}

// Sync holds the sync engine's tuning parameters.
type Sync struct {
	// DebounceInterval is the quiet period after the last mutation before
	// a save is issued (e.g. "2s").
	// Env: SYNC_DEBOUNCE_INTERVAL
	DebounceInterval time.Duration `env:"DEBOUNCE_INTERVAL"`

	// PasswordRetryLimit is how many consecutive wrong-password failures
	// are tolerated on load before the engine offers the cache fallback.
	// Env: SYNC_PASSWORD_RETRY_LIMIT
	PasswordRetryLimit int `env:"PASSWORD_RETRY_LIMIT"`

	// FilePath optionally preselects the sync file location, bypassing the
	// interactive picker (useful for scripted runs).
	// Env: SYNC_FILE_PATH
	FilePath string `env:"FILE_PATH"`
}

// Defaults applied by GetSyncConfig when neither env, flags, nor JSON set a
// value.
const (
	DefaultDebounceInterval   = 2 * time.Second
	DefaultPasswordRetryLimit = 3
	DefaultCacheDSN           = "famledger-cache.db"
)

// SyncConfig is the validated view handed to the sync engine's wiring.
type SyncConfig struct {
	// App contains application-level settings.
	App App
	// Storage contains local cache settings.
	Storage CacheStorage
	// Sync contains the engine's tuning knobs.
	Sync Sync
}

// CacheStorage groups cache backend settings.
type CacheStorage struct {
	// DB holds local cache database settings.
	DB CacheDB
}

// GetSyncConfig builds and validates the sync-engine config view from the
// merged structured configuration, filling in defaults for unset values.
func GetSyncConfig() (*SyncConfig, error) {
	cfg, err := GetStructuredConfig()
	if err != nil {
		return nil, fmt.Errorf("error get structured config: %w", err)
	}

	syncCfg := &SyncConfig{
		App: cfg.App,
		Storage: CacheStorage{
			DB: CacheDB{DSN: cfg.Storage.DB.DSN},
		},
		Sync: cfg.Sync,
	}

	if syncCfg.Storage.DB.DSN == "" {
		syncCfg.Storage.DB.DSN = DefaultCacheDSN
	}
	if syncCfg.Sync.DebounceInterval == 0 {
		syncCfg.Sync.DebounceInterval = DefaultDebounceInterval
	}
	if syncCfg.Sync.PasswordRetryLimit == 0 {
		syncCfg.Sync.PasswordRetryLimit = DefaultPasswordRetryLimit
	}

	return syncCfg, syncCfg.validate()
}

// GetStructuredConfig assembles the raw merged configuration from all
// sources without applying defaults.
func GetStructuredConfig() (*StructuredConfig, error) {
	return newConfigBuilder().
		withDotEnv().
		withEnv().
		withFlags().
		withJSON().
		build()
}
