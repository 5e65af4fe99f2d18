package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PixRequest is the payload for a PIX transfer between two accounts
type PixRequest struct {
	SourceID      *uuid.UUID       `json:"source_id" validate:"required"`
	DestinationID *uuid.UUID       `json:"destination_id" validate:"required"`
	Amount        *decimal.Decimal `json:"amount" validate:"required"`
}

// TicketStatus represents the state of a queued transfer
type TicketStatus string

const (
	TicketStatusPending   TicketStatus = "pending"
	TicketStatusCompleted TicketStatus = "completed"
	TicketStatusFailed    TicketStatus = "failed"
)

// PixTicket tracks a transfer submitted for asynchronous processing
type PixTicket struct {
	ID             uuid.UUID       `json:"id"`
	IdempotencyKey string          `json:"idempotency_key"`
	SourceID       uuid.UUID       `json:"source_id"`
	DestinationID  uuid.UUID       `json:"destination_id"`
	Amount         decimal.Decimal `json:"amount"`
	Status         TicketStatus    `json:"status"`
	ErrorMessage   string          `json:"error_message,omitempty"`
	SubmittedAt    time.Time       `json:"submitted_at"`
	ProcessedAt    *time.Time      `json:"processed_at,omitempty"`
}
