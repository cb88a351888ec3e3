package config

import (
	"flag"
	"time"
)

// ParseFlags parses all configuration flags.
//
// Flags:
//
//	-d cache database path (SQLite file)
//	-c/-config json file path with configs
//	-sync-file sync file path (bypasses the interactive picker)
//	-debounce debounce quiet period (e.g., "2s")
//	-password-retries wrong-password retry budget on load
//	-log log file path
func ParseFlags() *StructuredConfig {
	var cacheDSN string
	var jsonConfigPath string
	var syncFilePath string
	var debounceInterval time.Duration
	var passwordRetries int
	var logPath string

	flag.StringVar(&cacheDSN, "d", "", "Cache database path")
	flag.StringVar(&jsonConfigPath, "c", "", "JSON config file path")
	flag.StringVar(&jsonConfigPath, "config", "", "JSON config file path (alias)")
	flag.StringVar(&syncFilePath, "sync-file", "", "Sync file path")
	flag.DurationVar(&debounceInterval, "debounce", 0, "Debounce quiet period (e.g., 2s)")
	flag.IntVar(&passwordRetries, "password-retries", 0, "Wrong-password retry budget")
	flag.StringVar(&logPath, "log", "", "Log file path")

	flag.Parse()

	return &StructuredConfig{
		App: App{
			LogPath: logPath,
		},
		Storage: Storage{
			DB: CacheDB{
				DSN: cacheDSN,
			},
		},
		Sync: Sync{
			DebounceInterval:   debounceInterval,
			PasswordRetryLimit: passwordRetries,
			FilePath:           syncFilePath,
		},
		JSONFilePath: jsonConfigPath,
	}
}
