package store

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"famledger/internal/logger"
	"famledger/models"
)

func testSnapshotData() models.SnapshotData {
	data := models.EmptySnapshotData()
	data.Accounts = []models.Account{{
		ID:           "acc-1",
		Name:         "Checking",
		CurrencyCode: "EUR",
		Balance:      decimal.RequireFromString("1000"),
		CreatedAt:    time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	}}
	data.RecurringTemplates = []models.RecurringTemplate{{
		ID:           "tpl-1",
		AccountID:    "acc-1",
		Kind:         models.Expense,
		Amount:       decimal.RequireFromString("9.99"),
		CurrencyCode: "EUR",
		Category:     "subscriptions",
		Schedule:     models.Schedule{Rule: models.Monthly, DayOfMonth: 15},
		StartDate:    models.NewDate(2024, time.January, 1),
		Active:       true,
	}}
	data.Settings = models.Settings{SyncEnabled: true}
	return data
}

func TestRepository_ExportEmptyCache(t *testing.T) {
	db := newTestDB(t)
	repo := NewSnapshotRepository(db, logger.Nop())

	data, err := repo.ExportSnapshot(context.Background())
	require.NoError(t, err)

	// all collections present and empty, never nil
	assert.NotNil(t, data.Accounts)
	assert.NotNil(t, data.Transactions)
	assert.NotNil(t, data.Categories)
	assert.NotNil(t, data.Goals)
	assert.NotNil(t, data.Assets)
	assert.NotNil(t, data.RecurringTemplates)
	assert.Empty(t, data.Accounts)
}

func TestRepository_ImportExport_RoundTrip(t *testing.T) {
	db := newTestDB(t)
	repo := NewSnapshotRepository(db, logger.Nop())
	ctx := context.Background()

	want := testSnapshotData()
	require.NoError(t, repo.ImportSnapshot(ctx, want))

	got, err := repo.ExportSnapshot(ctx)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestRepository_ImportIsFullReplace(t *testing.T) {
	db := newTestDB(t)
	repo := NewSnapshotRepository(db, logger.Nop())
	ctx := context.Background()

	first := testSnapshotData()
	first.Transactions = []models.LedgerTransaction{{
		ID: "txn-local-only", AccountID: "acc-1", Kind: models.Income,
		Amount: decimal.RequireFromString("5"), CurrencyCode: "EUR",
		Category: "misc", Date: models.NewDate(2024, time.February, 1),
	}}
	require.NoError(t, repo.ImportSnapshot(ctx, first))

	// a second import with no transactions wipes the local-only entry
	second := testSnapshotData()
	require.NoError(t, repo.ImportSnapshot(ctx, second))

	got, err := repo.ExportSnapshot(ctx)
	require.NoError(t, err)
	assert.Empty(t, got.Transactions, "import must replace, not merge")
}

func TestRepository_Account_NotFound(t *testing.T) {
	db := newTestDB(t)
	repo := NewSnapshotRepository(db, logger.Nop())

	_, err := repo.Account(context.Background(), "ghost")
	assert.ErrorIs(t, err, ErrAccountNotFound)
}

func generatedTxn(id string, amount string, kind models.TransactionKind, date models.Date) models.LedgerTransaction {
	return models.LedgerTransaction{
		ID:               id,
		AccountID:        "acc-1",
		Kind:             kind,
		Amount:           decimal.RequireFromString(amount),
		CurrencyCode:     "EUR",
		Category:         "subscriptions",
		Date:             date,
		SourceTemplateID: "tpl-1",
		CreatedAt:        time.Now().UTC(),
	}
}

func TestRepository_ApplyRecurringOccurrence_CommitsAllThree(t *testing.T) {
	db := newTestDB(t)
	repo := NewSnapshotRepository(db, logger.Nop())
	ctx := context.Background()

	require.NoError(t, repo.ImportSnapshot(ctx, testSnapshotData()))

	occurrence := models.NewDate(2024, time.January, 15)
	inserted, err := repo.ApplyRecurringOccurrence(ctx, generatedTxn("occ-1", "9.99", models.Expense, occurrence), occurrence)
	require.NoError(t, err)
	assert.True(t, inserted)

	account, err := repo.Account(ctx, "acc-1")
	require.NoError(t, err)
	assert.True(t, account.Balance.Equal(decimal.RequireFromString("990.01")),
		"balance = %s, want 990.01", account.Balance)

	templates, err := repo.Templates(ctx)
	require.NoError(t, err)
	require.Len(t, templates, 1)
	require.NotNil(t, templates[0].LastProcessed)
	assert.True(t, templates[0].LastProcessed.Equal(occurrence))

	data, err := repo.ExportSnapshot(ctx)
	require.NoError(t, err)
	require.Len(t, data.Transactions, 1)
	assert.Equal(t, "tpl-1", data.Transactions[0].SourceTemplateID)
}

func TestRepository_ApplyRecurringOccurrence_DuplicateKeyIsNoOp(t *testing.T) {
	db := newTestDB(t)
	repo := NewSnapshotRepository(db, logger.Nop())
	ctx := context.Background()

	require.NoError(t, repo.ImportSnapshot(ctx, testSnapshotData()))

	occurrence := models.NewDate(2024, time.January, 15)
	txn := generatedTxn("occ-1", "9.99", models.Expense, occurrence)

	inserted, err := repo.ApplyRecurringOccurrence(ctx, txn, occurrence)
	require.NoError(t, err)
	require.True(t, inserted)

	// replay: same deterministic id must not double-insert or double-charge
	inserted, err = repo.ApplyRecurringOccurrence(ctx, txn, occurrence)
	require.NoError(t, err)
	assert.False(t, inserted)

	account, err := repo.Account(ctx, "acc-1")
	require.NoError(t, err)
	assert.True(t, account.Balance.Equal(decimal.RequireFromString("990.01")))

	data, err := repo.ExportSnapshot(ctx)
	require.NoError(t, err)
	assert.Len(t, data.Transactions, 1)
}

func TestRepository_ApplyRecurringOccurrence_MissingAccountRollsBack(t *testing.T) {
	db := newTestDB(t)
	repo := NewSnapshotRepository(db, logger.Nop())
	ctx := context.Background()

	data := testSnapshotData()
	data.Accounts = []models.Account{}
	require.NoError(t, repo.ImportSnapshot(ctx, data))

	occurrence := models.NewDate(2024, time.January, 15)
	_, err := repo.ApplyRecurringOccurrence(ctx, generatedTxn("occ-1", "9.99", models.Expense, occurrence), occurrence)
	require.ErrorIs(t, err, ErrAccountNotFound)

	// nothing was committed: no transaction row, no checkpoint advance
	exported, err := repo.ExportSnapshot(ctx)
	require.NoError(t, err)
	assert.Empty(t, exported.Transactions)
	assert.Nil(t, exported.RecurringTemplates[0].LastProcessed)
}

func TestRepository_ApplyRecurringOccurrence_CheckpointNeverMovesBack(t *testing.T) {
	db := newTestDB(t)
	repo := NewSnapshotRepository(db, logger.Nop())
	ctx := context.Background()

	require.NoError(t, repo.ImportSnapshot(ctx, testSnapshotData()))

	later := models.NewDate(2024, time.February, 15)
	_, err := repo.ApplyRecurringOccurrence(ctx, generatedTxn("occ-2", "9.99", models.Expense, later), later)
	require.NoError(t, err)

	earlier := models.NewDate(2024, time.January, 15)
	_, err = repo.ApplyRecurringOccurrence(ctx, generatedTxn("occ-1", "9.99", models.Expense, earlier), earlier)
	require.NoError(t, err)

	templates, err := repo.Templates(ctx)
	require.NoError(t, err)
	require.NotNil(t, templates[0].LastProcessed)
	assert.True(t, templates[0].LastProcessed.Equal(later), "checkpoint moved backwards")
}
