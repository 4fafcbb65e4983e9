package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"bilancio/internal/core"
	"bilancio/internal/storage"
)

// RecurringProcessor materializes due recurring rules into transactions.
type RecurringProcessor struct {
	storage            *storage.SQLiteRepository
	transactionService *TransactionService
}

func NewRecurringProcessor(storage *storage.SQLiteRepository, transactionService *TransactionService) *RecurringProcessor {
	return &RecurringProcessor{
		storage:            storage,
		transactionService: transactionService,
	}
}

// ProcessDueRules evaluates every active rule against now and creates a
// transaction for each due one. A single failing rule is logged and skipped,
// never aborting the batch.
func (p *RecurringProcessor) ProcessDueRules(ctx context.Context, now time.Time) (int, error) {
	if p.storage == nil || p.transactionService == nil {
		return 0, fmt.Errorf("processor not properly initialized")
	}

	rules, err := p.storage.ListActiveRecurringRules(ctx)
	if err != nil {
		return 0, fmt.Errorf("list active recurring rules: %w", err)
	}

	slog.InfoContext(ctx, "Processing recurring rules",
		"total_active", len(rules),
		"processing_date", now.Format("2006-01-02"))

	processed := 0
	for _, rule := range rules {
		if expired(rule, now) {
			if err := p.storage.DeactivateRecurringRule(ctx, rule.ID); err != nil {
				slog.ErrorContext(ctx, "Failed to deactivate expired rule",
					"rule_id", rule.ID, "error", err)
			}
			continue
		}

		checker, err := GetDuenessChecker(rule.Every)
		if err != nil {
			slog.ErrorContext(ctx, "Skipping rule with unknown frequency",
				"rule_id", rule.ID, "frequency", rule.Every)
			continue
		}
		if !checker.IsDue(rule.LastRun, now, rule.StartDate) {
			continue
		}

		_, err = p.transactionService.CreateTransaction(ctx, core.Transaction{
			AccountID:   rule.AccountID,
			Type:        rule.Type,
			Amount:      rule.Amount,
			Description: rule.Description,
			Category:    rule.Category,
			Date:        core.Date{Time: now},
		})
		if err != nil {
			slog.ErrorContext(ctx, "Failed to create transaction from rule",
				"rule_id", rule.ID,
				"description", rule.Description,
				"error", err)
			continue
		}

		if err := p.storage.MarkRecurringRuleRun(ctx, rule.ID, now); err != nil {
			// Continue anyway - the transaction was created
			slog.ErrorContext(ctx, "Failed to record rule execution",
				"rule_id", rule.ID, "error", err)
		}

		processed++
		slog.InfoContext(ctx, "Created transaction from recurring rule",
			"rule_id", rule.ID,
			"description", rule.Description,
			"amount_cents", rule.Amount.Cents,
			"frequency", rule.Every)
	}

	slog.InfoContext(ctx, "Recurring rule processing complete",
		"processed", processed,
		"total_checked", len(rules))
	return processed, nil
}

// expired reports whether the rule's end date has passed.
func expired(rule core.RecurringRule, now time.Time) bool {
	return !rule.EndDate.IsZero() && now.After(rule.EndDate.Time.AddDate(0, 0, 1))
}
