package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"bilancio/internal/core"
)

// CreateRecurringRule inserts a rule and returns it with the generated ID.
func (r *SQLiteRepository) CreateRecurringRule(ctx context.Context, rule core.RecurringRule) (core.RecurringRule, error) {
	var endDate any
	if !rule.EndDate.IsZero() {
		endDate = rule.EndDate.String()
	}

	res, err := r.db.ExecContext(ctx, `
		INSERT INTO recurring_rules (account_id, type, amount_cents, description, category, every, start_date, end_date, active)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rule.AccountID, string(rule.Type), rule.Amount.Cents, rule.Description, rule.Category,
		string(rule.Every), rule.StartDate.String(), endDate, boolToInt(rule.Active))
	if err != nil {
		return core.RecurringRule{}, fmt.Errorf("insert recurring rule: %w", err)
	}

	rule.ID, err = res.LastInsertId()
	if err != nil {
		return core.RecurringRule{}, fmt.Errorf("recurring rule id: %w", err)
	}

	slog.InfoContext(ctx, "Recurring rule saved", "id", rule.ID, "description", rule.Description, "every", rule.Every)
	return rule, nil
}

// GetRecurringRule returns the rule with the given ID, or ErrNotFound.
func (r *SQLiteRepository) GetRecurringRule(ctx context.Context, id int64) (core.RecurringRule, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, account_id, type, amount_cents, description, category, every, start_date, end_date, active, last_execution
		FROM recurring_rules WHERE id = ?`, id)
	return scanRecurringRule(row)
}

// ListActiveRecurringRules returns the rules the processor should evaluate.
func (r *SQLiteRepository) ListActiveRecurringRules(ctx context.Context) ([]core.RecurringRule, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, account_id, type, amount_cents, description, category, every, start_date, end_date, active, last_execution
		FROM recurring_rules WHERE active = 1 ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list recurring rules: %w", err)
	}
	defer rows.Close()

	var rules []core.RecurringRule
	for rows.Next() {
		rule, err := scanRecurringRule(rows)
		if err != nil {
			return nil, err
		}
		rules = append(rules, rule)
	}
	return rules, rows.Err()
}

// MarkRecurringRuleRun records when the rule last produced a transaction.
func (r *SQLiteRepository) MarkRecurringRuleRun(ctx context.Context, id int64, at time.Time) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE recurring_rules SET last_execution = ? WHERE id = ?`, at.Unix(), id)
	if err != nil {
		return fmt.Errorf("mark recurring rule run: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// DeactivateRecurringRule stops a rule without deleting its history.
func (r *SQLiteRepository) DeactivateRecurringRule(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE recurring_rules SET active = 0 WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deactivate recurring rule: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	slog.InfoContext(ctx, "Recurring rule deactivated", "id", id)
	return nil
}

func scanRecurringRule(row rowScanner) (core.RecurringRule, error) {
	var (
		rule    core.RecurringRule
		typ     string
		every   string
		start   string
		end     sql.NullString
		active  int
		lastRun sql.NullInt64
	)
	err := row.Scan(&rule.ID, &rule.AccountID, &typ, &rule.Amount.Cents, &rule.Description,
		&rule.Category, &every, &start, &end, &active, &lastRun)
	if errors.Is(err, sql.ErrNoRows) {
		return core.RecurringRule{}, ErrNotFound
	}
	if err != nil {
		return core.RecurringRule{}, fmt.Errorf("scan recurring rule: %w", err)
	}

	rule.Type = core.TransactionType(typ)
	rule.Every = core.RepetitionTypes(every)
	rule.Active = active != 0
	if rule.StartDate, err = parseStoredDate(start); err != nil {
		return core.RecurringRule{}, err
	}
	if end.Valid && end.String != "" {
		if rule.EndDate, err = parseStoredDate(end.String); err != nil {
			return core.RecurringRule{}, err
		}
	}
	if lastRun.Valid {
		rule.LastRun = time.Unix(lastRun.Int64, 0).UTC()
	}
	return rule, nil
}
