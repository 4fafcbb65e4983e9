package storage

import (
	"context"
	"fmt"
	"sort"

	"bilancio/internal/core"
)

// GetMonthSummary aggregates one month into the dashboard summary: income,
// expenses, net, savings rate and the top expense categories.
func (r *SQLiteRepository) GetMonthSummary(ctx context.Context, year, month int) (core.MonthSummary, error) {
	summary := core.MonthSummary{Year: year, Month: month}
	from, to := monthStart(year, month), monthEnd(year, month)

	err := r.db.QueryRowContext(ctx, `
		SELECT
			COALESCE(SUM(CASE WHEN type = 'income' THEN amount_cents ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN type = 'expense' THEN amount_cents ELSE 0 END), 0)
		FROM transactions
		WHERE date >= ? AND date < ? AND deleted_at IS NULL`,
		from, to).Scan(&summary.Income.Cents, &summary.Expenses.Cents)
	if err != nil {
		return summary, fmt.Errorf("sum month totals: %w", err)
	}

	summary.Net = summary.Income.Sub(summary.Expenses)
	if summary.Income.Cents > 0 {
		summary.SavingsRate = float64(summary.Net.Cents) / float64(summary.Income.Cents) * 100
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT category, SUM(amount_cents) AS total
		FROM transactions
		WHERE type = 'expense' AND date >= ? AND date < ? AND deleted_at IS NULL
		GROUP BY category ORDER BY total DESC LIMIT 5`,
		from, to)
	if err != nil {
		return summary, fmt.Errorf("sum categories: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var ca core.CategoryAmount
		if err := rows.Scan(&ca.Name, &ca.Amount.Cents); err != nil {
			return summary, fmt.Errorf("scan category sum: %w", err)
		}
		if summary.Expenses.Cents > 0 {
			ca.Percentage = float64(ca.Amount.Cents) / float64(summary.Expenses.Cents) * 100
		}
		summary.TopCategories = append(summary.TopCategories, ca)
	}
	return summary, rows.Err()
}

// ListCashFlow returns one point per day that has movements in the month.
// Balance runs over paid movements only, starting from the opening balance
// (account initial balances plus all paid history before the month);
// Projected also counts scheduled but unpaid movements.
func (r *SQLiteRepository) ListCashFlow(ctx context.Context, year, month int) ([]core.CashFlowPoint, error) {
	from, to := monthStart(year, month), monthEnd(year, month)

	var opening, openingProjected int64
	err := r.db.QueryRowContext(ctx, `
		SELECT
			COALESCE((SELECT SUM(initial_balance_cents) FROM accounts), 0)
			+ COALESCE(SUM(CASE WHEN paid = 1 AND type = 'income' THEN amount_cents
			                    WHEN paid = 1 AND type = 'expense' THEN -amount_cents
			                    ELSE 0 END), 0),
			COALESCE((SELECT SUM(initial_balance_cents) FROM accounts), 0)
			+ COALESCE(SUM(CASE WHEN type = 'income' THEN amount_cents
			                    WHEN type = 'expense' THEN -amount_cents
			                    ELSE 0 END), 0)
		FROM transactions
		WHERE date < ? AND deleted_at IS NULL`, from).Scan(&opening, &openingProjected)
	if err != nil {
		return nil, fmt.Errorf("opening balance: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT date,
			COALESCE(SUM(CASE WHEN type = 'income' THEN amount_cents ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN type = 'expense' THEN amount_cents ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN paid = 1 AND type = 'income' THEN amount_cents
			                  WHEN paid = 1 AND type = 'expense' THEN -amount_cents
			                  ELSE 0 END), 0)
		FROM transactions
		WHERE date >= ? AND date < ? AND deleted_at IS NULL
		GROUP BY date ORDER BY date`, from, to)
	if err != nil {
		return nil, fmt.Errorf("list cash flow: %w", err)
	}
	defer rows.Close()

	var out []core.CashFlowPoint
	balance, projected := opening, openingProjected
	for rows.Next() {
		var (
			date    string
			p       core.CashFlowPoint
			paidNet int64
		)
		if err := rows.Scan(&date, &p.Income.Cents, &p.Expense.Cents, &paidNet); err != nil {
			return nil, fmt.Errorf("scan cash flow point: %w", err)
		}
		p.Date, err = parseStoredDate(date)
		if err != nil {
			return nil, err
		}
		balance += paidNet
		projected += p.Income.Cents - p.Expense.Cents
		p.Balance = core.Money{Cents: balance}
		p.Projected = core.Money{Cents: projected}
		out = append(out, p)
	}
	return out, rows.Err()
}

// ListCalendar groups the month's transactions by due date.
func (r *SQLiteRepository) ListCalendar(ctx context.Context, year, month int) ([]core.CalendarDay, error) {
	transactions, err := r.ListTransactions(ctx, year, month)
	if err != nil {
		return nil, err
	}

	byDay := make(map[string]*core.CalendarDay)
	for _, t := range transactions {
		key := t.Date.String()
		day, ok := byDay[key]
		if !ok {
			day = &core.CalendarDay{Date: t.Date}
			byDay[key] = day
		}
		switch t.Type {
		case core.Income:
			day.Income = day.Income.Add(t.Amount)
		case core.Expense:
			day.Expense = day.Expense.Add(t.Amount)
		}
		day.Transactions = append(day.Transactions, t)
	}

	out := make([]core.CalendarDay, 0, len(byDay))
	for _, day := range byDay {
		out = append(out, *day)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date.Time) })
	return out, nil
}
