package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"bilancio/internal/auth"
	"bilancio/internal/core"
	"bilancio/internal/storage"
)

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Failed to encode response", "error", err)
	}
}

// writeError maps domain errors onto HTTP statuses: validation failures are
// 400, missing rows 404, state conflicts 409, auth failures 401.
func writeError(w http.ResponseWriter, err error) {
	writeJSON(w, statusFor(err), errorResponse{Error: err.Error()})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, storage.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, core.ErrDebtorNotActive),
		errors.Is(err, core.ErrDebtorNotSettleable):
		return http.StatusConflict
	case errors.Is(err, auth.ErrInvalidCredentials),
		errors.Is(err, auth.ErrInvalidToken),
		errors.Is(err, auth.ErrMissingToken):
		return http.StatusUnauthorized
	case errors.Is(err, auth.ErrEmailExists):
		return http.StatusConflict
	case isInvalidArgument(err):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func isInvalidArgument(err error) bool {
	for _, target := range []error{
		core.ErrInvalidAmount,
		core.ErrNegativePayment,
		core.ErrInvalidInstallmentCount,
		core.ErrInvalidDate,
		core.ErrInvalidDueDay,
		core.ErrEmptyDescription,
		core.ErrEmptyName,
		core.ErrEmptyCategory,
		core.ErrInvalidAccountType,
		core.ErrInvalidTransactionType,
		core.ErrInvalidRepetition,
		auth.ErrWeakPassword,
		errBadRequest,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
