package handler

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/simonkvalheim/pix-ledger/internal/model"
	"github.com/simonkvalheim/pix-ledger/internal/repository"
)

// AccountHandler handles HTTP requests for accounts
type AccountHandler struct {
	ledger *repository.Ledger
	log    *slog.Logger
}

// NewAccountHandler creates a new AccountHandler
func NewAccountHandler(ledger *repository.Ledger, log *slog.Logger) *AccountHandler {
	return &AccountHandler{ledger: ledger, log: log}
}

// RegisterRoutes sets up the account routes on the given router
func (h *AccountHandler) RegisterRoutes(r chi.Router) {
	r.Route("/accounts", func(r chi.Router) {
		r.Get("/", h.List)
		r.Post("/", h.Open)
		r.Get("/{id}", h.GetByID)
		r.Get("/document/{document}", h.GetByDocument)
		r.Delete("/{id}/close", h.Close)
		r.Put("/{id}/deposit", h.Deposit)
		r.Put("/{id}/withdraw", h.Withdraw)
	})
}

// List handles GET /accounts
func (h *AccountHandler) List(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.ledger.List())
}

// Open handles POST /accounts
func (h *AccountHandler) Open(w http.ResponseWriter, r *http.Request) {
	var req model.OpenAccountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "Invalid request body")
		return
	}

	account, err := h.ledger.OpenAccount(req)
	if err != nil {
		writeLedgerError(w, err)
		return
	}

	h.log.Info("account opened", "id", account.ID, "kind", account.Kind)
	writeJSON(w, http.StatusCreated, account)
}

// GetByID handles GET /accounts/{id}
func (h *AccountHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	id, ok := accountID(w, r)
	if !ok {
		return
	}

	h.log.Info("looking up account", "id", id)
	account, err := h.ledger.FindByID(id)
	if err != nil {
		writeLedgerError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, account)
}

// GetByDocument handles GET /accounts/document/{document}
func (h *AccountHandler) GetByDocument(w http.ResponseWriter, r *http.Request) {
	document := chi.URLParam(r, "document")

	h.log.Info("looking up account by document")
	account, err := h.ledger.FindByDocument(document)
	if err != nil {
		writeLedgerError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, account)
}

// Close handles DELETE /accounts/{id}/close
func (h *AccountHandler) Close(w http.ResponseWriter, r *http.Request) {
	id, ok := accountID(w, r)
	if !ok {
		return
	}

	if _, err := h.ledger.Close(id); err != nil {
		writeLedgerError(w, err)
		return
	}

	h.log.Info("account marked inactive", "id", id)
	w.WriteHeader(http.StatusNoContent)
}

// Deposit handles PUT /accounts/{id}/deposit
// The body is the amount itself, as a JSON number or string.
func (h *AccountHandler) Deposit(w http.ResponseWriter, r *http.Request) {
	h.move(w, r, h.ledger.Deposit)
}

// Withdraw handles PUT /accounts/{id}/withdraw
func (h *AccountHandler) Withdraw(w http.ResponseWriter, r *http.Request) {
	h.move(w, r, h.ledger.Withdraw)
}

func (h *AccountHandler) move(w http.ResponseWriter, r *http.Request, op func(uuid.UUID, decimal.Decimal) (model.Account, error)) {
	id, ok := accountID(w, r)
	if !ok {
		return
	}

	amount, err := decodeAmount(r.Body)
	if err != nil {
		writeLedgerError(w, err)
		return
	}

	account, err := op(id, amount)
	if err != nil {
		writeLedgerError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, account)
}

// decodeAmount reads a bare amount body; missing or null amounts are invalid
func decodeAmount(body io.Reader) (decimal.Decimal, error) {
	var amount decimal.NullDecimal
	if err := json.NewDecoder(body).Decode(&amount); err != nil || !amount.Valid {
		return decimal.Decimal{}, model.ErrInvalidAmount
	}
	return amount.Decimal, nil
}

func accountID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeBadRequest(w, "Invalid account ID format")
		return uuid.Nil, false
	}
	return id, true
}
