package http

import (
	"net/http"

	"bilancio/internal/core"
)

func (s *Server) handleCreateBudget(w http.ResponseWriter, r *http.Request) {
	var req createBudgetRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	amount, err := parseAmount(req.Amount)
	if err != nil {
		writeError(w, err)
		return
	}

	budget := core.Budget{
		Category:        req.Category,
		Amount:          amount,
		Period:          core.RepetitionTypes(req.Period),
		AlertThresholds: req.AlertThresholds,
	}
	if err := budget.Validate(); err != nil {
		writeError(w, err)
		return
	}

	created, err := s.repo.CreateBudget(r.Context(), budget)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toBudgetResponse(created))
}

func (s *Server) handleListBudgets(w http.ResponseWriter, r *http.Request) {
	budgets, err := s.repo.ListBudgets(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}

	out := make([]budgetResponse, 0, len(budgets))
	for _, b := range budgets {
		out = append(out, toBudgetResponse(b))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleBudgetUsage(w http.ResponseWriter, r *http.Request) {
	year, month, err := parseYearMonth(r)
	if err != nil {
		writeError(w, err)
		return
	}

	usage, err := s.repo.ListBudgetUsage(r.Context(), year, month)
	if err != nil {
		writeError(w, err)
		return
	}

	out := make([]budgetUsageResponse, 0, len(usage))
	for _, u := range usage {
		out = append(out, budgetUsageResponse{
			Budget:     toBudgetResponse(u.Budget),
			Spent:      u.Spent.String(),
			Percentage: u.Percentage,
			Exceeded:   u.Exceeded,
		})
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleCreateRecurringRule(w http.ResponseWriter, r *http.Request) {
	var req createRecurringRuleRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	amount, err := parseAmount(req.Amount)
	if err != nil {
		writeError(w, err)
		return
	}
	startDate, err := parseDate(req.StartDate)
	if err != nil {
		writeError(w, err)
		return
	}

	rule := core.RecurringRule{
		AccountID:   req.AccountID,
		Type:        core.TransactionType(req.Type),
		Amount:      amount,
		Description: req.Description,
		Category:    req.Category,
		Every:       core.RepetitionTypes(req.Every),
		StartDate:   startDate,
		Active:      true,
	}
	if req.EndDate != "" {
		endDate, err := parseDate(req.EndDate)
		if err != nil {
			writeError(w, err)
			return
		}
		rule.EndDate = endDate
	}
	if err := rule.Validate(); err != nil {
		writeError(w, err)
		return
	}

	created, err := s.repo.CreateRecurringRule(r.Context(), rule)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toRecurringRuleResponse(created))
}

func (s *Server) handleListRecurringRules(w http.ResponseWriter, r *http.Request) {
	rules, err := s.repo.ListActiveRecurringRules(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}

	out := make([]recurringRuleResponse, 0, len(rules))
	for _, rule := range rules {
		out = append(out, toRecurringRuleResponse(rule))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleDeactivateRecurringRule(w http.ResponseWriter, r *http.Request) {
	id, err := parseRuleID(r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	if err := s.repo.DeactivateRecurringRule(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
