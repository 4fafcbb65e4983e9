package http

import (
	"log/slog"
	"net/http"

	"bilancio/internal/core"
)

func (s *Server) transactionFromRequest(req createTransactionRequest) (core.Transaction, error) {
	amount, err := parseAmount(req.Amount)
	if err != nil {
		return core.Transaction{}, err
	}
	date, err := parseDate(req.Date)
	if err != nil {
		return core.Transaction{}, err
	}
	return core.Transaction{
		AccountID:    req.AccountID,
		Type:         core.TransactionType(req.Type),
		Amount:       amount,
		Description:  req.Description,
		Category:     req.Category,
		Date:         date,
		Paid:         req.Paid,
		CreditCardID: req.CreditCardID,
		Tags:         req.Tags,
		Notes:        req.Notes,
	}, nil
}

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	var req createTransactionRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	t, err := s.transactionFromRequest(req)
	if err != nil {
		writeError(w, err)
		return
	}

	created, err := s.transactions.CreateTransaction(r.Context(), t)
	if err != nil {
		writeError(w, err)
		return
	}

	s.invalidateDashboardCaches()

	slog.InfoContext(r.Context(), "Transaction created",
		"transaction_id", created.ID,
		"amount_cents", created.Amount.Cents,
		"type", created.Type,
		"component", "transaction_handler")

	writeJSON(w, http.StatusCreated, toTransactionResponse(created))
}

func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	year, month, err := parseYearMonth(r)
	if err != nil {
		writeError(w, err)
		return
	}

	transactions, err := s.transactions.ListTransactions(r.Context(), year, month)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toTransactionResponses(transactions))
}

func (s *Server) handleGetTransaction(w http.ResponseWriter, r *http.Request) {
	t, err := s.transactions.GetTransaction(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toTransactionResponse(t))
}

func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	if err := s.transactions.DeleteTransaction(r.Context(), r.PathValue("id")); err != nil {
		writeError(w, err)
		return
	}
	s.invalidateDashboardCaches()
	w.WriteHeader(http.StatusNoContent)
}

// handleCreateInstallments splits a purchase into monthly installments.
// With ?preview=true nothing is persisted and the computed plan is
// returned instead.
func (s *Server) handleCreateInstallments(w http.ResponseWriter, r *http.Request) {
	var req createInstallmentsRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	t, err := s.transactionFromRequest(req.createTransactionRequest)
	if err != nil {
		writeError(w, err)
		return
	}

	if preview := r.URL.Query().Get("preview"); preview == "1" || preview == "true" {
		plan, err := s.transactions.PreviewInstallments(r.Context(), t.Amount, req.Count, t.Date)
		if err != nil {
			writeError(w, err)
			return
		}
		out := make([]installmentPreviewResponse, 0, len(plan))
		for _, inst := range plan {
			out = append(out, installmentPreviewResponse{
				Index:      inst.Index,
				TotalCount: inst.TotalCount,
				Amount:     inst.Amount.String(),
				DueDate:    inst.DueDate.String(),
			})
		}
		writeJSON(w, http.StatusOK, out)
		return
	}

	created, err := s.transactions.CreateInstallmentPurchase(r.Context(), t, req.Count)
	if err != nil {
		writeError(w, err)
		return
	}

	s.invalidateDashboardCaches()

	slog.InfoContext(r.Context(), "Installment purchase created",
		"installment_count", len(created),
		"total_cents", t.Amount.Cents,
		"component", "transaction_handler")

	writeJSON(w, http.StatusCreated, toTransactionResponses(created))
}

func (s *Server) handleListInstallments(w http.ResponseWriter, r *http.Request) {
	transactions, err := s.transactions.ListInstallments(r.Context(), r.PathValue("parentRef"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toTransactionResponses(transactions))
}
