package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Account is a single money account tracked by the application (wallet, bank
// account, card). Balance mutation normally belongs to the CRUD layer; during
// a recurring-materialization pass it belongs to the materializer.
type Account struct {
	ID           string          `json:"id"`
	Name         string          `json:"name"`
	CurrencyCode string          `json:"currencyCode"`
	Balance      decimal.Decimal `json:"balance"`
	Archived     bool            `json:"archived"`
	CreatedAt    time.Time       `json:"createdAt"`
}

// Category labels transactions for reporting.
type Category struct {
	ID   string          `json:"id"`
	Name string          `json:"name"`
	Kind TransactionKind `json:"kind"`
	Icon string          `json:"icon,omitempty"`
}

// SavingsGoal is a target amount the family is saving toward.
type SavingsGoal struct {
	ID           string          `json:"id"`
	Name         string          `json:"name"`
	TargetAmount decimal.Decimal `json:"targetAmount"`
	SavedAmount  decimal.Decimal `json:"savedAmount"`
	CurrencyCode string          `json:"currencyCode"`
	Deadline     *Date           `json:"deadline,omitempty"`
}

// Asset is a non-account possession with a tracked value (property, vehicle,
// investment position).
type Asset struct {
	ID           string          `json:"id"`
	Name         string          `json:"name"`
	Value        decimal.Decimal `json:"value"`
	CurrencyCode string          `json:"currencyCode"`
	AcquiredAt   *Date           `json:"acquiredAt,omitempty"`
}
