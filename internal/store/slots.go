package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// slot helpers shared by the capability slot and the settings store.

func (db *DB) setSlot(ctx context.Context, key, value string) error {
	if _, err := db.ExecContext(ctx, upsertSlot, key, value); err != nil {
		return fmt.Errorf("%w: set slot %s: %v", ErrExecutingStatement, key, err)
	}
	return nil
}

// slotValue returns the stored value and whether the slot exists.
func (db *DB) slotValue(ctx context.Context, key string) (string, bool, error) {
	var value string
	err := db.QueryRowContext(ctx, getSlot, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("%w: get slot %s: %v", ErrExecutingQuery, key, err)
	}
	return value, true, nil
}

func (db *DB) clearSlot(ctx context.Context, key string) error {
	if _, err := db.ExecContext(ctx, deleteSlot, key); err != nil {
		return fmt.Errorf("%w: clear slot %s: %v", ErrExecutingStatement, key, err)
	}
	return nil
}
