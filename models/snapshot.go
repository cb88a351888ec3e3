package models

import (
	"encoding/json"
	"time"
)

// CurrentFormatVersion is the sync-file format produced by this build.
// Readers accept any version with the same major component; anything else
// fails closed with an incompatible-format error.
const CurrentFormatVersion = "1.0"

// SyncSnapshot is the top-level document written to the sync file. Payload is
// kept raw so the envelope of an encrypted file can pass through the codec
// without being interpreted.
type SyncSnapshot struct {
	FormatVersion string          `json:"formatVersion"`
	ExportedAt    time.Time       `json:"exportedAt"`
	Encrypted     bool            `json:"encrypted"`
	Payload       json.RawMessage `json:"payload"`
}

// SnapshotData is the structured application state carried by an unencrypted
// payload, and the plaintext of an encrypted one. All collection fields must
// be present (empty allowed, absent not) in a current-version file.
type SnapshotData struct {
	Accounts           []Account           `json:"accounts"`
	Transactions       []LedgerTransaction `json:"transactions"`
	Categories         []Category          `json:"categories"`
	Goals              []SavingsGoal       `json:"goals"`
	Assets             []Asset             `json:"assets"`
	RecurringTemplates []RecurringTemplate `json:"recurringTemplates"`
	Settings           Settings            `json:"settings"`
}

// EmptySnapshotData returns a valid snapshot with all collections present and
// empty, used for first-run state.
func EmptySnapshotData() SnapshotData {
	return SnapshotData{
		Accounts:           []Account{},
		Transactions:       []LedgerTransaction{},
		Categories:         []Category{},
		Goals:              []SavingsGoal{},
		Assets:             []Asset{},
		RecurringTemplates: []RecurringTemplate{},
	}
}
