package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/simonkvalheim/pix-ledger/internal/queue"
	"github.com/simonkvalheim/pix-ledger/internal/repository"
)

// HealthHandler serves the banner and health check
type HealthHandler struct {
	ledger    *repository.Ledger
	publisher *queue.Publisher
}

// NewHealthHandler creates a new HealthHandler. publisher may be nil.
func NewHealthHandler(ledger *repository.Ledger, publisher *queue.Publisher) *HealthHandler {
	return &HealthHandler{ledger: ledger, publisher: publisher}
}

// RegisterRoutes sets up the public routes on the given router
func (h *HealthHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.Index)
	r.Get("/health", h.Health)
}

// Index handles GET /
func (h *HealthHandler) Index(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"service": "pix-ledger",
		"about":   "In-memory account ledger with PIX transfers",
	})
}

// Health handles GET /health
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	body := map[string]any{
		"status":   "healthy",
		"accounts": h.ledger.Count(),
	}

	if h.publisher != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := h.publisher.Ping(ctx); err != nil {
			body["status"] = "unhealthy"
			body["queue"] = "disconnected"
			writeJSON(w, http.StatusServiceUnavailable, body)
			return
		}
		body["queue"] = "connected"
		if n, err := h.publisher.QueueLength(ctx); err == nil {
			body["queue_length"] = n
		}
	}

	writeJSON(w, http.StatusOK, body)
}
