package http

import (
	"fmt"
	"log/slog"
	"net/http"

	"bilancio/internal/core"
)

func cacheKey(year, month int) string {
	return fmt.Sprintf("%04d-%02d", year, month)
}

func (s *Server) handleDashboardSummary(w http.ResponseWriter, r *http.Request) {
	year, month, err := parseYearMonth(r)
	if err != nil {
		writeError(w, err)
		return
	}

	key := cacheKey(year, month)
	summary, ok := s.summaryCache.Get(key)
	if !ok {
		summary, err = s.repo.GetMonthSummary(r.Context(), year, month)
		if err != nil {
			writeError(w, err)
			return
		}
		s.summaryCache.Set(key, summary)
	} else {
		slog.DebugContext(r.Context(), "Summary cache hit", "key", key)
	}

	categories := make([]categoryAmountResponse, 0, len(summary.TopCategories))
	for _, c := range summary.TopCategories {
		categories = append(categories, categoryAmountResponse{
			Name:       c.Name,
			Amount:     c.Amount.String(),
			Percentage: c.Percentage,
		})
	}
	writeJSON(w, http.StatusOK, monthSummaryResponse{
		Year:          summary.Year,
		Month:         summary.Month,
		Income:        summary.Income.String(),
		Expenses:      summary.Expenses.String(),
		Net:           summary.Net.String(),
		SavingsRate:   summary.SavingsRate,
		TopCategories: categories,
	})
}

func (s *Server) handleDashboardCashFlow(w http.ResponseWriter, r *http.Request) {
	year, month, err := parseYearMonth(r)
	if err != nil {
		writeError(w, err)
		return
	}

	key := cacheKey(year, month)
	points, ok := s.cashFlowCache.Get(key)
	if !ok {
		points, err = s.repo.ListCashFlow(r.Context(), year, month)
		if err != nil {
			writeError(w, err)
			return
		}
		s.cashFlowCache.Set(key, points)
	}

	out := make([]cashFlowPointResponse, 0, len(points))
	for _, p := range points {
		out = append(out, cashFlowPointResponse{
			Date:      p.Date.String(),
			Income:    p.Income.String(),
			Expense:   p.Expense.String(),
			Balance:   p.Balance.String(),
			Projected: p.Projected.String(),
		})
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleDashboardCalendar(w http.ResponseWriter, r *http.Request) {
	year, month, err := parseYearMonth(r)
	if err != nil {
		writeError(w, err)
		return
	}

	days, err := s.repo.ListCalendar(r.Context(), year, month)
	if err != nil {
		writeError(w, err)
		return
	}

	out := make([]calendarDayResponse, 0, len(days))
	for _, d := range days {
		out = append(out, toCalendarDayResponse(d))
	}
	writeJSON(w, http.StatusOK, out)
}

func toCalendarDayResponse(d core.CalendarDay) calendarDayResponse {
	return calendarDayResponse{
		Date:         d.Date.String(),
		Income:       d.Income.String(),
		Expense:      d.Expense.String(),
		Transactions: toTransactionResponses(d.Transactions),
	}
}
