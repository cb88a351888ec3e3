// SPDX-License-Identifier: Apache-2.0

package config

func (cfg *SyncConfig) validate() error {
	if cfg.Storage.DB.DSN == "" {
		return ErrInvalidStorageConfigs
	}

	if cfg.Sync.DebounceInterval < 0 || cfg.Sync.PasswordRetryLimit < 0 {
		return ErrInvalidSyncConfigs
	}

	return nil
}
