package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/simonkvalheim/pix-ledger/internal/model"
	"github.com/simonkvalheim/pix-ledger/internal/queue"
	"github.com/simonkvalheim/pix-ledger/internal/repository"
)

// TransferHandler handles HTTP requests for PIX transfers
type TransferHandler struct {
	ledger    *repository.Ledger
	publisher *queue.Publisher // Optional: if set, POST /pix/async is served
	validate  *validator.Validate
	log       *slog.Logger
}

// NewTransferHandler creates a new TransferHandler.
// publisher may be nil, in which case async endpoints answer 503.
func NewTransferHandler(ledger *repository.Ledger, publisher *queue.Publisher, log *slog.Logger) *TransferHandler {
	return &TransferHandler{
		ledger:    ledger,
		publisher: publisher,
		validate:  validator.New(),
		log:       log,
	}
}

// RegisterRoutes sets up the transfer routes on the given router
func (h *TransferHandler) RegisterRoutes(r chi.Router) {
	r.Route("/pix", func(r chi.Router) {
		r.Put("/", h.Pix)
		r.Post("/async", h.PixAsync)
		r.Get("/{id}", h.GetTicket)
	})
}

// Pix handles PUT /pix and returns the updated source account
func (h *TransferHandler) Pix(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decodePix(w, r)
	if !ok {
		return
	}

	source, err := h.ledger.Transfer(*req.SourceID, *req.DestinationID, *req.Amount)
	if err != nil {
		writeLedgerError(w, err)
		return
	}

	h.log.Info("pix completed", "source_id", req.SourceID, "destination_id", req.DestinationID)
	writeJSON(w, http.StatusOK, source)
}

// PixAsync handles POST /pix/async
// Idempotency-Key header is required for safe retries
func (h *TransferHandler) PixAsync(w http.ResponseWriter, r *http.Request) {
	if h.publisher == nil {
		writeError(w, http.StatusServiceUnavailable, "async_disabled", "Async PIX is disabled (set ASYNC_MODE=true)")
		return
	}

	key := r.Header.Get("Idempotency-Key")
	if key == "" {
		writeBadRequest(w, "Idempotency-Key header is required")
		return
	}

	req, ok := h.decodePix(w, r)
	if !ok {
		return
	}

	// Reject what the ledger would reject anyway before queueing
	if !req.Amount.IsPositive() {
		writeLedgerError(w, model.ErrInvalidAmount)
		return
	}
	if *req.SourceID == *req.DestinationID {
		writeLedgerError(w, model.ErrSameAccount)
		return
	}

	ticket, created, err := h.publisher.Publish(r.Context(), key, req)
	if err != nil {
		h.log.Error("failed to queue pix", "error", err)
		writeLedgerError(w, err)
		return
	}

	status := http.StatusAccepted
	if !created {
		status = http.StatusOK
	}
	writeJSON(w, status, ticket)
}

// GetTicket handles GET /pix/{id}
func (h *TransferHandler) GetTicket(w http.ResponseWriter, r *http.Request) {
	if h.publisher == nil {
		writeError(w, http.StatusServiceUnavailable, "async_disabled", "Async PIX is disabled (set ASYNC_MODE=true)")
		return
	}

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeBadRequest(w, "Invalid ticket ID format")
		return
	}

	ticket, err := h.publisher.Ticket(r.Context(), id)
	if err != nil {
		if !errors.Is(err, model.ErrTicketNotFound) {
			h.log.Error("failed to get ticket", "id", id, "error", err)
		}
		writeLedgerError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, ticket)
}

// decodePix rejects malformed or incomplete bodies before they reach the ledger
func (h *TransferHandler) decodePix(w http.ResponseWriter, r *http.Request) (model.PixRequest, bool) {
	var req model.PixRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "Invalid request body")
		return model.PixRequest{}, false
	}
	if err := h.validate.Struct(req); err != nil {
		writeBadRequest(w, "source_id, destination_id and amount are required")
		return model.PixRequest{}, false
	}
	return req, true
}
