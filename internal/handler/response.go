package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/simonkvalheim/pix-ledger/internal/model"
)

// ErrorResponse is the body of every non-2xx response
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// Helper functions for HTTP responses

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, ErrorResponse{Error: message, Code: code})
}

func writeBadRequest(w http.ResponseWriter, message string) {
	writeError(w, http.StatusBadRequest, "bad_request", message)
}

// writeLedgerError maps ledger error kinds to distinct client-facing signals
func writeLedgerError(w http.ResponseWriter, err error) {
	status, code := errorStatus(err)
	message := err.Error()
	if status == http.StatusInternalServerError {
		message = "internal error"
	}
	writeError(w, status, code, message)
}

func errorStatus(err error) (int, string) {
	switch {
	case errors.Is(err, model.ErrValidation):
		return http.StatusBadRequest, "validation_failed"
	case errors.Is(err, model.ErrInvalidAmount):
		return http.StatusBadRequest, "invalid_amount"
	case errors.Is(err, model.ErrSameAccount):
		return http.StatusBadRequest, "same_account"
	case errors.Is(err, model.ErrAccountNotFound), errors.Is(err, model.ErrTicketNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, model.ErrAccountNotActive):
		return http.StatusConflict, "account_inactive"
	case errors.Is(err, model.ErrInsufficientFunds):
		return http.StatusUnprocessableEntity, "insufficient_funds"
	default:
		return http.StatusInternalServerError, "internal"
	}
}
