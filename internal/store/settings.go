package store

import (
	"context"
	"encoding/json"
	"fmt"

	"famledger/internal/logger"
	"famledger/models"
)

type settingsStore struct {
	*DB
	logger *logger.Logger
}

// NewSettingsStore constructs the durable slot holding the sync settings
// document.
func NewSettingsStore(db *DB, log *logger.Logger) SettingsStore {
	return &settingsStore{DB: db, logger: log}
}

func (s *settingsStore) Settings(ctx context.Context) (models.Settings, error) {
	value, ok, err := s.slotValue(ctx, slotSettings)
	if err != nil {
		return models.Settings{}, err
	}
	if !ok {
		return models.Settings{}, nil
	}

	var settings models.Settings
	if err := json.Unmarshal([]byte(value), &settings); err != nil {
		return models.Settings{}, fmt.Errorf("decode settings: %w", err)
	}
	return settings, nil
}

func (s *settingsStore) SaveSettings(ctx context.Context, settings models.Settings) error {
	payload, err := json.Marshal(settings)
	if err != nil {
		return fmt.Errorf("encode settings: %w", err)
	}
	return s.setSlot(ctx, slotSettings, string(payload))
}
