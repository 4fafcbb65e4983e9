package storage

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"bilancio/internal/core"
)

// CreateBudget inserts a budget; the category is unique per budget.
func (r *SQLiteRepository) CreateBudget(ctx context.Context, b core.Budget) (core.Budget, error) {
	if b.ID == "" {
		b.ID = newID()
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO budgets (id, category, amount_cents, period, alert_thresholds)
		VALUES (?, ?, ?, ?, ?)`,
		b.ID, b.Category, b.Amount.Cents, string(b.Period), joinThresholds(b.AlertThresholds))
	if err != nil {
		return core.Budget{}, fmt.Errorf("insert budget: %w", err)
	}

	slog.InfoContext(ctx, "Budget saved", "id", b.ID, "category", b.Category, "amount_cents", b.Amount.Cents)
	return b, nil
}

// ListBudgets returns all budgets ordered by category.
func (r *SQLiteRepository) ListBudgets(ctx context.Context) ([]core.Budget, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, category, amount_cents, period, alert_thresholds
		FROM budgets ORDER BY category`)
	if err != nil {
		return nil, fmt.Errorf("list budgets: %w", err)
	}
	defer rows.Close()

	var out []core.Budget
	for rows.Next() {
		var (
			b          core.Budget
			period     string
			thresholds string
		)
		if err := rows.Scan(&b.ID, &b.Category, &b.Amount.Cents, &period, &thresholds); err != nil {
			return nil, fmt.Errorf("scan budget: %w", err)
		}
		b.Period = core.RepetitionTypes(period)
		b.AlertThresholds = splitThresholds(thresholds)
		out = append(out, b)
	}
	return out, rows.Err()
}

// ListBudgetUsage pairs every budget with the expenses recorded against its
// category: the month's expenses for monthly budgets, the year's for yearly.
func (r *SQLiteRepository) ListBudgetUsage(ctx context.Context, year, month int) ([]core.BudgetUsage, error) {
	budgets, err := r.ListBudgets(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]core.BudgetUsage, 0, len(budgets))
	for _, b := range budgets {
		from, to := monthStart(year, month), monthEnd(year, month)
		if b.Period == core.Yearly {
			from, to = monthStart(year, 1), monthStart(year+1, 1)
		}

		var spent int64
		err := r.db.QueryRowContext(ctx, `
			SELECT COALESCE(SUM(amount_cents), 0) FROM transactions
			WHERE type = 'expense' AND category = ? AND date >= ? AND date < ? AND deleted_at IS NULL`,
			b.Category, from, to).Scan(&spent)
		if err != nil {
			return nil, fmt.Errorf("sum budget usage for %s: %w", b.Category, err)
		}

		pct := float64(spent) / float64(b.Amount.Cents) * 100
		exceeded := spent > b.Amount.Cents
		if pct > 100 {
			pct = 100
		}
		out = append(out, core.BudgetUsage{
			Budget:     b,
			Spent:      core.Money{Cents: spent},
			Percentage: pct,
			Exceeded:   exceeded,
		})
	}
	return out, nil
}

func joinThresholds(ths []int) string {
	if len(ths) == 0 {
		return "50,80,100"
	}
	parts := make([]string, len(ths))
	for i, th := range ths {
		parts[i] = strconv.Itoa(th)
	}
	return strings.Join(parts, ",")
}

func splitThresholds(s string) []int {
	if s == "" {
		return nil
	}
	var out []int
	for _, part := range strings.Split(s, ",") {
		if v, err := strconv.Atoi(strings.TrimSpace(part)); err == nil {
			out = append(out, v)
		}
	}
	return out
}
