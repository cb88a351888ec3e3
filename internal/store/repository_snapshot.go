package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"famledger/internal/logger"
	"famledger/models"
)

type snapshotRepository struct {
	*DB
	logger *logger.Logger
}

// NewSnapshotRepository constructs the [Repository] over the local cache
// database.
func NewSnapshotRepository(db *DB, log *logger.Logger) Repository {
	return &snapshotRepository{DB: db, logger: log}
}

// execer covers *sql.DB and *sql.Tx so collection helpers work inside and
// outside explicit transactions.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func readCollection[T any](ctx context.Context, q execer, table string) ([]T, error) {
	rows, err := q.QueryContext(ctx, fmt.Sprintf(getAllDocs, table))
	if err != nil {
		return nil, fmt.Errorf("%w: list %s: %v", ErrExecutingQuery, table, err)
	}
	defer rows.Close()

	items := make([]T, 0)
	for rows.Next() {
		var doc string
		if err := rows.Scan(&doc); err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrScanningRows, table, err)
		}
		var item T
		if err := json.Unmarshal([]byte(doc), &item); err != nil {
			return nil, fmt.Errorf("decode %s doc: %w", table, err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrScanningRows, table, err)
	}
	return items, nil
}

func replaceCollection[T any](ctx context.Context, q execer, table string, items []T, id func(T) string) error {
	if _, err := q.ExecContext(ctx, fmt.Sprintf(deleteAllDocs, table)); err != nil {
		return fmt.Errorf("%w: clear %s: %v", ErrExecutingStatement, table, err)
	}
	for _, item := range items {
		doc, err := json.Marshal(item)
		if err != nil {
			return fmt.Errorf("encode %s doc: %w", table, err)
		}
		if _, err := q.ExecContext(ctx, fmt.Sprintf(insertDoc, table), id(item), string(doc)); err != nil {
			return fmt.Errorf("%w: insert into %s: %v", ErrExecutingStatement, table, err)
		}
	}
	return nil
}

func readDoc[T any](ctx context.Context, q execer, table, id string, notFound error) (T, error) {
	var item T

	var doc string
	err := q.QueryRowContext(ctx, fmt.Sprintf(getDoc, table), id).Scan(&doc)
	if errors.Is(err, sql.ErrNoRows) {
		return item, fmt.Errorf("%w: id=%s", notFound, id)
	}
	if err != nil {
		return item, fmt.Errorf("%w: get %s: %v", ErrExecutingQuery, table, err)
	}

	if err := json.Unmarshal([]byte(doc), &item); err != nil {
		return item, fmt.Errorf("decode %s doc: %w", table, err)
	}
	return item, nil
}

func updateDocRow(ctx context.Context, q execer, table, id string, item any) error {
	doc, err := json.Marshal(item)
	if err != nil {
		return fmt.Errorf("encode %s doc: %w", table, err)
	}
	if _, err := q.ExecContext(ctx, fmt.Sprintf(updateDoc, table), string(doc), id); err != nil {
		return fmt.Errorf("%w: update %s: %v", ErrExecutingStatement, table, err)
	}
	return nil
}

func (r *snapshotRepository) ExportSnapshot(ctx context.Context) (models.SnapshotData, error) {
	var data models.SnapshotData
	var err error

	if data.Accounts, err = readCollection[models.Account](ctx, r.DB, tableAccounts); err != nil {
		return models.SnapshotData{}, err
	}
	if data.Transactions, err = readCollection[models.LedgerTransaction](ctx, r.DB, tableTransactions); err != nil {
		return models.SnapshotData{}, err
	}
	if data.Categories, err = readCollection[models.Category](ctx, r.DB, tableCategories); err != nil {
		return models.SnapshotData{}, err
	}
	if data.Goals, err = readCollection[models.SavingsGoal](ctx, r.DB, tableGoals); err != nil {
		return models.SnapshotData{}, err
	}
	if data.Assets, err = readCollection[models.Asset](ctx, r.DB, tableAssets); err != nil {
		return models.SnapshotData{}, err
	}
	if data.RecurringTemplates, err = readCollection[models.RecurringTemplate](ctx, r.DB, tableTemplates); err != nil {
		return models.SnapshotData{}, err
	}

	settings := NewSettingsStore(r.DB, r.logger)
	if data.Settings, err = settings.Settings(ctx); err != nil {
		return models.SnapshotData{}, err
	}

	return data, nil
}

// ImportSnapshot replaces every collection and the settings document in one
// database transaction: the cache is never observable half-replaced.
func (r *snapshotRepository) ImportSnapshot(ctx context.Context, data models.SnapshotData) error {
	tx, err := r.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrBeginningTransaction, err)
	}
	defer tx.Rollback()

	if err := replaceCollection(ctx, tx, tableAccounts, data.Accounts,
		func(a models.Account) string { return a.ID }); err != nil {
		return err
	}
	if err := replaceCollection(ctx, tx, tableTransactions, data.Transactions,
		func(t models.LedgerTransaction) string { return t.ID }); err != nil {
		return err
	}
	if err := replaceCollection(ctx, tx, tableCategories, data.Categories,
		func(c models.Category) string { return c.ID }); err != nil {
		return err
	}
	if err := replaceCollection(ctx, tx, tableGoals, data.Goals,
		func(g models.SavingsGoal) string { return g.ID }); err != nil {
		return err
	}
	if err := replaceCollection(ctx, tx, tableAssets, data.Assets,
		func(a models.Asset) string { return a.ID }); err != nil {
		return err
	}
	if err := replaceCollection(ctx, tx, tableTemplates, data.RecurringTemplates,
		func(t models.RecurringTemplate) string { return t.ID }); err != nil {
		return err
	}

	settingsDoc, err := json.Marshal(data.Settings)
	if err != nil {
		return fmt.Errorf("encode settings: %w", err)
	}
	if _, err := tx.ExecContext(ctx, upsertSlot, slotSettings, string(settingsDoc)); err != nil {
		return fmt.Errorf("%w: set settings slot: %v", ErrExecutingStatement, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: %v", ErrCommitingTransaction, err)
	}
	return nil
}

func (r *snapshotRepository) Templates(ctx context.Context) ([]models.RecurringTemplate, error) {
	return readCollection[models.RecurringTemplate](ctx, r.DB, tableTemplates)
}

func (r *snapshotRepository) Account(ctx context.Context, id string) (models.Account, error) {
	return readDoc[models.Account](ctx, r.DB, tableAccounts, id, ErrAccountNotFound)
}

func (r *snapshotRepository) ApplyRecurringOccurrence(ctx context.Context, txn models.LedgerTransaction, checkpoint models.Date) (bool, error) {
	tx, err := r.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrBeginningTransaction, err)
	}
	defer tx.Rollback()

	template, err := readDoc[models.RecurringTemplate](ctx, tx, tableTemplates, txn.SourceTemplateID, ErrTemplateNotFound)
	if err != nil {
		return false, err
	}

	txnDoc, err := json.Marshal(txn)
	if err != nil {
		return false, fmt.Errorf("encode transaction doc: %w", err)
	}
	res, err := tx.ExecContext(ctx, fmt.Sprintf(insertDocIgnoreConflict, tableTransactions), txn.ID, string(txnDoc))
	if err != nil {
		return false, fmt.Errorf("%w: insert generated transaction: %v", ErrExecutingStatement, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("%w: rows affected: %v", ErrExecutingStatement, err)
	}
	inserted := affected > 0

	// A pre-existing row with the same deterministic id means this
	// occurrence was already committed by an earlier pass; its balance
	// effect was applied then and must not be applied twice.
	if inserted {
		account, err := readDoc[models.Account](ctx, tx, tableAccounts, txn.AccountID, ErrAccountNotFound)
		if err != nil {
			return false, err
		}
		account.Balance = account.Balance.Add(txn.SignedAmount())
		if err := updateDocRow(ctx, tx, tableAccounts, account.ID, account); err != nil {
			return false, err
		}
	}

	// Checkpoint only ever moves forward.
	if template.LastProcessed == nil || checkpoint.After(*template.LastProcessed) {
		cp := checkpoint
		template.LastProcessed = &cp
		if err := updateDocRow(ctx, tx, tableTemplates, template.ID, template); err != nil {
			return false, err
		}
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("%w: %v", ErrCommitingTransaction, err)
	}
	return inserted, nil
}
