package store

import (
	"context"
	"encoding/json"
	"fmt"

	"famledger/internal/logger"
	"famledger/models"
)

type capabilitySlot struct {
	*DB
	logger *logger.Logger
}

// NewCapabilitySlot constructs the durable slot holding the storage
// capability descriptor.
func NewCapabilitySlot(db *DB, log *logger.Logger) CapabilitySlot {
	return &capabilitySlot{DB: db, logger: log}
}

func (s *capabilitySlot) Persist(ctx context.Context, cap models.Capability) error {
	payload, err := json.Marshal(cap)
	if err != nil {
		return fmt.Errorf("encode capability: %w", err)
	}
	return s.setSlot(ctx, slotCapability, string(payload))
}

// Restore fails softly: a missing or undecodable stored capability comes back
// as (nil, nil) so a corrupted slot can never crash startup, only fall back
// to "not configured".
func (s *capabilitySlot) Restore(ctx context.Context) (*models.Capability, error) {
	value, ok, err := s.slotValue(ctx, slotCapability)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}

	var cap models.Capability
	if err := json.Unmarshal([]byte(value), &cap); err != nil {
		s.logger.Warn().Err(err).Msg("stored capability is corrupted, treating as not configured")
		return nil, nil
	}
	if cap.Kind == "" || cap.Location == "" {
		s.logger.Warn().Msg("stored capability is incomplete, treating as not configured")
		return nil, nil
	}

	return &cap, nil
}

func (s *capabilitySlot) Clear(ctx context.Context) error {
	return s.clearSlot(ctx, slotCapability)
}
