package processor

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/simonkvalheim/pix-ledger/internal/model"
)

// Transferer applies a PIX transfer between two accounts
type Transferer interface {
	Transfer(sourceID, destinationID uuid.UUID, amount decimal.Decimal) (model.Account, error)
}

// TransferProcessor handles the processing of queued PIX tickets
type TransferProcessor struct {
	ledger Transferer
}

// NewTransferProcessor creates a new TransferProcessor
func NewTransferProcessor(ledger Transferer) *TransferProcessor {
	return &TransferProcessor{ledger: ledger}
}

// ProcessResult contains the result of processing a ticket
type ProcessResult struct {
	Success      bool
	ErrorMessage string
	Source       model.Account
}

// Process applies the ticket's transfer to the ledger.
// Ledger rejections are reported in the result; the error is only set when
// the ticket was not attempted.
func (p *TransferProcessor) Process(ctx context.Context, ticket model.PixTicket) (*ProcessResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("ticket %s not processed: %w", ticket.ID, err)
	}
	if ticket.Status != model.TicketStatusPending {
		return nil, fmt.Errorf("ticket %s is %s, want %s", ticket.ID, ticket.Status, model.TicketStatusPending)
	}

	source, err := p.ledger.Transfer(ticket.SourceID, ticket.DestinationID, ticket.Amount)
	if err != nil {
		return &ProcessResult{Success: false, ErrorMessage: err.Error()}, nil
	}

	return &ProcessResult{Success: true, Source: source}, nil
}
