// Package config provides configuration loading, merging, and validation
// facilities for the application.
//
// Configuration is assembled from multiple sources in the following priority
// order (later sources override earlier non-zero fields):
//  1. Environment variables (optionally bootstrapped from a .env file)
//  2. Command-line flags
//  3. JSON config file
//
// The main entry point is [GetSyncConfig], which returns the merged and
// validated view used to wire the sync engine.
package config
