package http

import (
	"net/http"

	"bilancio/internal/core"
)

func (s *Server) handleCreateAccount(w http.ResponseWriter, r *http.Request) {
	var req createAccountRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	balance, err := parseBalance(req.InitialBalance)
	if err != nil {
		writeError(w, err)
		return
	}

	account := core.Account{
		Name:           req.Name,
		Type:           core.AccountType(req.Type),
		InitialBalance: balance,
		Currency:       req.Currency,
		Color:          req.Color,
		Active:         true,
	}
	if err := account.Validate(); err != nil {
		writeError(w, err)
		return
	}

	created, err := s.repo.CreateAccount(r.Context(), account)
	if err != nil {
		writeError(w, err)
		return
	}

	s.invalidateDashboardCaches()
	writeJSON(w, http.StatusCreated, toAccountResponse(created))
}

func (s *Server) handleListAccounts(w http.ResponseWriter, r *http.Request) {
	accounts, err := s.repo.ListAccounts(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}

	out := make([]accountResponse, 0, len(accounts))
	for _, a := range accounts {
		out = append(out, toAccountResponse(a))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleGetAccount(w http.ResponseWriter, r *http.Request) {
	account, err := s.repo.GetAccount(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toAccountResponse(account))
}

func (s *Server) handleCreateCard(w http.ResponseWriter, r *http.Request) {
	var req createCardRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	limit, err := parseAmount(req.Limit)
	if err != nil {
		writeError(w, err)
		return
	}

	card := core.CreditCard{
		AccountID:  req.AccountID,
		Name:       req.Name,
		LastFour:   req.LastFour,
		Limit:      limit,
		ClosingDay: req.ClosingDay,
		DueDay:     req.DueDay,
		Brand:      req.Brand,
	}
	if err := card.Validate(); err != nil {
		writeError(w, err)
		return
	}

	// The card must hang off an existing account.
	if _, err := s.repo.GetAccount(r.Context(), card.AccountID); err != nil {
		writeError(w, err)
		return
	}

	created, err := s.repo.CreateCreditCard(r.Context(), card)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toCardResponse(created))
}

func (s *Server) handleListCards(w http.ResponseWriter, r *http.Request) {
	cards, err := s.repo.ListCreditCards(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}

	out := make([]cardResponse, 0, len(cards))
	for _, c := range cards {
		out = append(out, toCardResponse(c))
	}
	writeJSON(w, http.StatusOK, out)
}
