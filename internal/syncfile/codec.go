// Package syncfile serializes the full application snapshot to and from the
// versioned sync-file document, with structural validation on the way in.
// It never touches storage; I/O error classification stays with the caller.
package syncfile

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"famledger/models"
)

// SnapshotCodec encodes and decodes [models.SyncSnapshot] documents.
type SnapshotCodec interface {
	// Serialize renders the snapshot as the on-disk JSON document.
	Serialize(snapshot models.SyncSnapshot) ([]byte, error)

	// Deserialize parses and validates a sync-file document. Returns
	// [ErrMalformedSnapshot] for structural problems and
	// [ErrIncompatibleFormat] for unknown format versions; the two are
	// distinct from I/O errors, which never originate here.
	Deserialize(data []byte) (models.SyncSnapshot, error)

	// BuildUnencrypted wraps structured application data into a
	// current-version snapshot.
	BuildUnencrypted(data models.SnapshotData, exportedAt time.Time) (models.SyncSnapshot, error)

	// BuildEncrypted wraps an encrypted envelope into a current-version
	// snapshot.
	BuildEncrypted(envelope models.EncryptedEnvelope, exportedAt time.Time) (models.SyncSnapshot, error)

	// ExtractData returns the structured payload of an unencrypted snapshot.
	ExtractData(snapshot models.SyncSnapshot) (models.SnapshotData, error)

	// ExtractEnvelope returns the opaque envelope of an encrypted snapshot.
	ExtractEnvelope(snapshot models.SyncSnapshot) (models.EncryptedEnvelope, error)
}

type snapshotCodec struct{}

// NewSnapshotCodec constructs the default [SnapshotCodec].
func NewSnapshotCodec() SnapshotCodec {
	return &snapshotCodec{}
}

func (c *snapshotCodec) Serialize(snapshot models.SyncSnapshot) ([]byte, error) {
	out, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode snapshot: %w", err)
	}
	return out, nil
}

// rawSnapshot mirrors models.SyncSnapshot with pointer fields so that absent
// and zero-valued top-level keys can be told apart during validation.
type rawSnapshot struct {
	FormatVersion *string         `json:"formatVersion"`
	ExportedAt    *time.Time      `json:"exportedAt"`
	Encrypted     *bool           `json:"encrypted"`
	Payload       json.RawMessage `json:"payload"`
}

// rawData mirrors models.SnapshotData the same way: a nil slice here means
// the collection key was absent from the file, which current-version files
// are not allowed to do (empty arrays are fine, missing keys are not).
type rawData struct {
	Accounts           []models.Account           `json:"accounts"`
	Transactions       []models.LedgerTransaction `json:"transactions"`
	Categories         []models.Category          `json:"categories"`
	Goals              []models.SavingsGoal       `json:"goals"`
	Assets             []models.Asset             `json:"assets"`
	RecurringTemplates []models.RecurringTemplate `json:"recurringTemplates"`
	Settings           *models.Settings           `json:"settings"`
}

func (c *snapshotCodec) Deserialize(data []byte) (models.SyncSnapshot, error) {
	var raw rawSnapshot
	if err := json.Unmarshal(data, &raw); err != nil {
		return models.SyncSnapshot{}, fmt.Errorf("%w: %v", ErrMalformedSnapshot, err)
	}

	switch {
	case raw.FormatVersion == nil:
		return models.SyncSnapshot{}, fmt.Errorf("%w: missing formatVersion", ErrMalformedSnapshot)
	case raw.ExportedAt == nil:
		return models.SyncSnapshot{}, fmt.Errorf("%w: missing exportedAt", ErrMalformedSnapshot)
	case raw.Encrypted == nil:
		return models.SyncSnapshot{}, fmt.Errorf("%w: missing encrypted flag", ErrMalformedSnapshot)
	case len(raw.Payload) == 0:
		return models.SyncSnapshot{}, fmt.Errorf("%w: missing payload", ErrMalformedSnapshot)
	}

	// Version gate comes before any payload interpretation: a future-major
	// file's payload shape is unknown and must not be guessed at.
	if err := checkVersion(*raw.FormatVersion); err != nil {
		return models.SyncSnapshot{}, err
	}

	snapshot := models.SyncSnapshot{
		FormatVersion: *raw.FormatVersion,
		ExportedAt:    *raw.ExportedAt,
		Encrypted:     *raw.Encrypted,
		Payload:       raw.Payload,
	}

	if snapshot.Encrypted {
		// Only the envelope shape is checkable here; the inner structure is
		// unknown until decrypted.
		if _, err := c.ExtractEnvelope(snapshot); err != nil {
			return models.SyncSnapshot{}, err
		}
		return snapshot, nil
	}

	if _, err := c.ExtractData(snapshot); err != nil {
		return models.SyncSnapshot{}, err
	}
	return snapshot, nil
}

func (c *snapshotCodec) BuildUnencrypted(data models.SnapshotData, exportedAt time.Time) (models.SyncSnapshot, error) {
	payload, err := json.Marshal(data)
	if err != nil {
		return models.SyncSnapshot{}, fmt.Errorf("encode snapshot payload: %w", err)
	}
	return models.SyncSnapshot{
		FormatVersion: models.CurrentFormatVersion,
		ExportedAt:    exportedAt.UTC(),
		Encrypted:     false,
		Payload:       payload,
	}, nil
}

func (c *snapshotCodec) BuildEncrypted(envelope models.EncryptedEnvelope, exportedAt time.Time) (models.SyncSnapshot, error) {
	payload, err := json.Marshal(string(envelope))
	if err != nil {
		return models.SyncSnapshot{}, fmt.Errorf("encode envelope payload: %w", err)
	}
	return models.SyncSnapshot{
		FormatVersion: models.CurrentFormatVersion,
		ExportedAt:    exportedAt.UTC(),
		Encrypted:     true,
		Payload:       payload,
	}, nil
}

func (c *snapshotCodec) ExtractData(snapshot models.SyncSnapshot) (models.SnapshotData, error) {
	if snapshot.Encrypted {
		return models.SnapshotData{}, fmt.Errorf("%w: snapshot is encrypted", ErrMalformedSnapshot)
	}

	var raw rawData
	if err := json.Unmarshal(snapshot.Payload, &raw); err != nil {
		return models.SnapshotData{}, fmt.Errorf("%w: payload: %v", ErrMalformedSnapshot, err)
	}

	for name, present := range map[string]bool{
		"accounts":           raw.Accounts != nil,
		"transactions":       raw.Transactions != nil,
		"categories":         raw.Categories != nil,
		"goals":              raw.Goals != nil,
		"assets":             raw.Assets != nil,
		"recurringTemplates": raw.RecurringTemplates != nil,
		"settings":           raw.Settings != nil,
	} {
		if !present {
			return models.SnapshotData{}, fmt.Errorf("%w: payload missing %s", ErrMalformedSnapshot, name)
		}
	}

	return models.SnapshotData{
		Accounts:           raw.Accounts,
		Transactions:       raw.Transactions,
		Categories:         raw.Categories,
		Goals:              raw.Goals,
		Assets:             raw.Assets,
		RecurringTemplates: raw.RecurringTemplates,
		Settings:           *raw.Settings,
	}, nil
}

func (c *snapshotCodec) ExtractEnvelope(snapshot models.SyncSnapshot) (models.EncryptedEnvelope, error) {
	if !snapshot.Encrypted {
		return "", fmt.Errorf("%w: snapshot is not encrypted", ErrMalformedSnapshot)
	}

	var blob string
	if err := json.Unmarshal(snapshot.Payload, &blob); err != nil {
		return "", fmt.Errorf("%w: encrypted payload must be a string: %v", ErrMalformedSnapshot, err)
	}
	if blob == "" {
		return "", fmt.Errorf("%w: empty encrypted payload", ErrMalformedSnapshot)
	}
	return models.EncryptedEnvelope(blob), nil
}

// checkVersion accepts any version sharing the current major component and
// rejects everything else with [ErrIncompatibleFormat].
func checkVersion(version string) error {
	currentMajor, _, _ := strings.Cut(models.CurrentFormatVersion, ".")

	major, _, _ := strings.Cut(version, ".")
	if _, err := strconv.Atoi(major); err != nil {
		return fmt.Errorf("%w: %q", ErrIncompatibleFormat, version)
	}
	if major != currentMajor {
		return fmt.Errorf("%w: %q (supported major: %s)", ErrIncompatibleFormat, version, currentMajor)
	}
	return nil
}
