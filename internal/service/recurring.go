package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"famledger/internal/logger"
	"famledger/internal/store"
	"famledger/models"
)

// occurrenceNamespace is the fixed UUIDv5 namespace for deterministic
// occurrence transaction ids. The id of a generated transaction is a pure
// function of (template id, occurrence date), so replaying a materialization
// pass on any device produces the same ids and the cache's primary key turns
// duplicates into no-ops.
var occurrenceNamespace = uuid.MustParse("9f2c1e57-8a4b-4d8e-b1f3-6c0a5d2e7b41")

// OccurrenceID returns the deterministic transaction id for one occurrence
// of a template.
func OccurrenceID(templateID string, date models.Date) string {
	return uuid.NewSHA1(occurrenceNamespace, []byte(templateID+"/"+date.String())).String()
}

type recurringMaterializer struct {
	repo   store.Repository
	logger *logger.Logger
}

// NewRecurringMaterializer constructs the materializer over the local cache.
func NewRecurringMaterializer(repo store.Repository, log *logger.Logger) RecurringMaterializer {
	return &recurringMaterializer{repo: repo, logger: log}
}

// Materialize walks every template and commits its due occurrences one at a
// time. Each occurrence is an atomic unit in the cache (transaction row,
// balance effect, checkpoint advance), so a crash mid-pass loses at most
// nothing: the next pass resumes from the checkpoint and the deterministic
// ids swallow any occurrence that did land.
func (m *recurringMaterializer) Materialize(ctx context.Context, now models.Date) (MaterializeSummary, error) {
	templates, err := m.repo.Templates(ctx)
	if err != nil {
		return MaterializeSummary{}, fmt.Errorf("list templates: %w", err)
	}

	var summary MaterializeSummary
	for _, tmpl := range templates {
		result := m.materializeTemplate(ctx, tmpl, now)
		summary.GeneratedCount += result.Generated
		summary.ByTemplate = append(summary.ByTemplate, result)

		if result.Err != nil {
			// One broken template must not starve the rest.
			m.logger.Warn().
				Err(result.Err).
				Str("func", "Materialize").
				Str("template", tmpl.ID).
				Msg("template materialization failed")
		}
	}

	if summary.GeneratedCount > 0 {
		m.logger.Info().
			Str("func", "Materialize").
			Int("generated", summary.GeneratedCount).
			Msg("recurring transactions materialized")
	}
	return summary, nil
}

func (m *recurringMaterializer) materializeTemplate(ctx context.Context, tmpl models.RecurringTemplate, now models.Date) TemplateResult {
	result := TemplateResult{TemplateID: tmpl.ID}

	if err := tmpl.Schedule.Validate(); err != nil {
		result.Err = fmt.Errorf("invalid schedule: %w", err)
		return result
	}

	for _, date := range tmpl.DueOccurrences(now) {
		if err := ctx.Err(); err != nil {
			result.Err = err
			return result
		}

		txn := models.LedgerTransaction{
			ID:               OccurrenceID(tmpl.ID, date),
			AccountID:        tmpl.AccountID,
			Kind:             tmpl.Kind,
			Amount:           tmpl.Amount,
			CurrencyCode:     tmpl.CurrencyCode,
			Category:         tmpl.Category,
			Description:      tmpl.Description,
			Date:             date,
			SourceTemplateID: tmpl.ID,
			CreatedAt:        time.Now().UTC(),
		}

		inserted, err := m.repo.ApplyRecurringOccurrence(ctx, txn, date)
		if err != nil {
			// Stop this template at the failing occurrence; the checkpoint
			// still points at the last committed one, so the next pass
			// retries from here.
			result.Err = fmt.Errorf("occurrence %s: %w", date, err)
			return result
		}
		if inserted {
			result.Generated++
		}
	}
	return result
}
