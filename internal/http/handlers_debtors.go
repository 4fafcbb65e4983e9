package http

import (
	"log/slog"
	"net/http"

	"bilancio/internal/core"
)

func (s *Server) handleCreateDebtor(w http.ResponseWriter, r *http.Request) {
	var req createDebtorRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	principal, err := parseAmount(req.Principal)
	if err != nil {
		writeError(w, err)
		return
	}
	startDate, err := parseDate(req.StartDate)
	if err != nil {
		writeError(w, err)
		return
	}

	created, err := s.debtors.CreateDebtor(r.Context(), core.Debtor{
		Name:        req.Name,
		Description: req.Description,
		Principal:   principal,
		StartDate:   startDate,
		DueDay:      req.DueDay,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	slog.InfoContext(r.Context(), "Debtor created",
		"debtor_id", created.ID,
		"principal_cents", created.Principal.Cents,
		"component", "debtor_handler")

	writeJSON(w, http.StatusCreated, toBareDebtorResponse(created))
}

func (s *Server) handleListDebtors(w http.ResponseWriter, r *http.Request) {
	debtors, err := s.debtors.ListDebtors(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}

	out := make([]debtorResponse, 0, len(debtors))
	for _, d := range debtors {
		out = append(out, toDebtorResponse(d))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleGetDebtor(w http.ResponseWriter, r *http.Request) {
	d, err := s.debtors.GetDebtor(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toDebtorResponse(d))
}

func (s *Server) handleListPayments(w http.ResponseWriter, r *http.Request) {
	payments, err := s.debtors.ListPayments(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}

	out := make([]paymentResponse, 0, len(payments))
	for _, p := range payments {
		out = append(out, toPaymentResponse(p))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleRegisterPayment(w http.ResponseWriter, r *http.Request) {
	var req registerPaymentRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	amount, err := parseAmount(req.Amount)
	if err != nil {
		writeError(w, err)
		return
	}
	date, err := parseDate(req.Date)
	if err != nil {
		writeError(w, err)
		return
	}

	updated, err := s.debtors.RegisterPayment(r.Context(), core.Payment{
		DebtorID:          r.PathValue("id"),
		Amount:            amount,
		Date:              date,
		InstallmentNumber: req.InstallmentNumber,
		Note:              req.Note,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toDebtorResponse(updated))
}

func (s *Server) handleSettleDebtor(w http.ResponseWriter, r *http.Request) {
	d, err := s.debtors.Settle(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}

	slog.InfoContext(r.Context(), "Debtor settled",
		"debtor_id", d.ID,
		"component", "debtor_handler")

	writeJSON(w, http.StatusOK, toBareDebtorResponse(d))
}

func (s *Server) handleCancelDebtor(w http.ResponseWriter, r *http.Request) {
	d, err := s.debtors.Cancel(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toBareDebtorResponse(d))
}

func (s *Server) handleDeleteDebtor(w http.ResponseWriter, r *http.Request) {
	if err := s.debtors.Delete(r.Context(), r.PathValue("id")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleDebtorTotals(w http.ResponseWriter, r *http.Request) {
	totals, err := s.debtors.Totals(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, debtorTotalsResponse{
		ActiveCount:    totals.ActiveCount,
		TotalPrincipal: totals.TotalPrincipal.String(),
		TotalPaid:      totals.TotalPaid.String(),
		TotalRemaining: totals.TotalRemaining.String(),
	})
}
