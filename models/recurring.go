package models

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// ScheduleRule selects how a recurring template computes its due dates.
type ScheduleRule string

const (
	// Daily generates one occurrence every calendar day.
	Daily ScheduleRule = "daily"
	// Monthly generates one occurrence on a fixed day of each month.
	Monthly ScheduleRule = "monthly"
	// Yearly generates one occurrence on a fixed day of a fixed month each year.
	Yearly ScheduleRule = "yearly"
)

// Schedule is the recurrence rule of a template. DayOfMonth is restricted to
// 1–28 so every month has the configured day and no end-of-month clamping is
// ever needed.
type Schedule struct {
	Rule        ScheduleRule `json:"rule"`
	DayOfMonth  int          `json:"dayOfMonth,omitempty"`
	MonthOfYear time.Month   `json:"monthOfYear,omitempty"`
}

var (
	ErrUnknownScheduleRule   = errors.New("unknown schedule rule")
	ErrDayOfMonthOutOfRange  = errors.New("schedule day of month must be between 1 and 28")
	ErrMonthOfYearOutOfRange = errors.New("schedule month of year must be between 1 and 12")
)

// Validate checks the schedule's fields against its rule.
func (s Schedule) Validate() error {
	switch s.Rule {
	case Daily:
		return nil
	case Monthly:
		if s.DayOfMonth < 1 || s.DayOfMonth > 28 {
			return fmt.Errorf("%w: got %d", ErrDayOfMonthOutOfRange, s.DayOfMonth)
		}
		return nil
	case Yearly:
		if s.DayOfMonth < 1 || s.DayOfMonth > 28 {
			return fmt.Errorf("%w: got %d", ErrDayOfMonthOutOfRange, s.DayOfMonth)
		}
		if s.MonthOfYear < time.January || s.MonthOfYear > time.December {
			return fmt.Errorf("%w: got %d", ErrMonthOfYearOutOfRange, s.MonthOfYear)
		}
		return nil
	default:
		return fmt.Errorf("%w: %q", ErrUnknownScheduleRule, s.Rule)
	}
}

// FirstOnOrAfter returns the earliest occurrence date that is on or after d.
func (s Schedule) FirstOnOrAfter(d Date) Date {
	switch s.Rule {
	case Monthly:
		candidate := NewDate(d.Year(), d.Month(), s.DayOfMonth)
		if candidate.Before(d) {
			candidate = NewDate(d.Year(), d.Month()+1, s.DayOfMonth)
		}
		return candidate
	case Yearly:
		candidate := NewDate(d.Year(), s.MonthOfYear, s.DayOfMonth)
		if candidate.Before(d) {
			candidate = NewDate(d.Year()+1, s.MonthOfYear, s.DayOfMonth)
		}
		return candidate
	default: // Daily
		return d
	}
}

// NextAfter returns the earliest occurrence date strictly after d.
func (s Schedule) NextAfter(d Date) Date {
	return s.FirstOnOrAfter(d.AddDays(1))
}

// RecurringTemplate describes a transaction that repeats on a schedule. The
// materializer expands it into ledger entries; LastProcessed is the
// checkpoint marking the latest occurrence already materialized. Once set it
// only moves forward.
type RecurringTemplate struct {
	ID           string          `json:"id"`
	AccountID    string          `json:"accountId"`
	Kind         TransactionKind `json:"kind"`
	Amount       decimal.Decimal `json:"amount"`
	CurrencyCode string          `json:"currencyCode"`
	Category     string          `json:"category"`
	Description  string          `json:"description,omitempty"`
	Schedule     Schedule        `json:"schedule"`
	StartDate    Date            `json:"startDate"`
	EndDate      *Date           `json:"endDate,omitempty"`

	// LastProcessed is nil until the first occurrence is materialized.
	LastProcessed *Date `json:"lastProcessedDate,omitempty"`

	Active bool `json:"active"`
}

// DueOccurrences lists, in chronological order, the occurrence dates strictly
// after the checkpoint (or from StartDate inclusive when no checkpoint is
// set) up to and including now, honoring EndDate.
func (t RecurringTemplate) DueOccurrences(now Date) []Date {
	if !t.Active || t.StartDate.After(now) {
		return nil
	}

	var cursor Date
	if t.LastProcessed == nil {
		cursor = t.Schedule.FirstOnOrAfter(t.StartDate)
	} else {
		cursor = t.Schedule.NextAfter(*t.LastProcessed)
	}

	var due []Date
	for !cursor.After(now) {
		if t.EndDate != nil && cursor.After(*t.EndDate) {
			break
		}
		due = append(due, cursor)
		cursor = t.Schedule.NextAfter(cursor)
	}
	return due
}
