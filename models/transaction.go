package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// TransactionKind is the direction of a ledger transaction.
type TransactionKind string

const (
	// Income increases the target account's balance.
	Income TransactionKind = "income"
	// Expense decreases the target account's balance.
	Expense TransactionKind = "expense"
)

// Valid reports whether k is one of the known kinds.
func (k TransactionKind) Valid() bool { return k == Income || k == Expense }

// LedgerTransaction is a single ledger entry. Entries produced by the
// recurring materializer carry a non-empty SourceTemplateID so they are
// distinguishable from manually entered ones.
type LedgerTransaction struct {
	ID           string          `json:"id"`
	AccountID    string          `json:"accountId"`
	Kind         TransactionKind `json:"kind"`
	Amount       decimal.Decimal `json:"amount"`
	CurrencyCode string          `json:"currencyCode"`
	Category     string          `json:"category"`
	Description  string          `json:"description,omitempty"`
	Date         Date            `json:"date"`

	// SourceTemplateID back-references the recurring template that generated
	// this entry; empty for manual entries.
	SourceTemplateID string `json:"sourceTemplateId,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
}

// SignedAmount returns the balance effect of the transaction: positive for
// income, negative for expense.
func (t LedgerTransaction) SignedAmount() decimal.Decimal {
	if t.Kind == Expense {
		return t.Amount.Neg()
	}
	return t.Amount
}
