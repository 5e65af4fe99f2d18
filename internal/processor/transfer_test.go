package processor

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/simonkvalheim/pix-ledger/internal/model"
	"github.com/simonkvalheim/pix-ledger/internal/repository"
)

type stubLedger struct {
	calls int
	err   error
}

func (s *stubLedger) Transfer(sourceID, destinationID uuid.UUID, amount decimal.Decimal) (model.Account, error) {
	s.calls++
	if s.err != nil {
		return model.Account{}, s.err
	}
	return model.Account{ID: sourceID}, nil
}

func pendingTicket(src, dst uuid.UUID, amount string) model.PixTicket {
	return model.PixTicket{
		ID:            uuid.New(),
		SourceID:      src,
		DestinationID: dst,
		Amount:        decimal.RequireFromString(amount),
		Status:        model.TicketStatusPending,
	}
}

func TestProcess(t *testing.T) {
	tests := []struct {
		name        string
		ledgerErr   error
		wantSuccess bool
		wantMessage string
	}{
		{
			name:        "transfer applied",
			wantSuccess: true,
		},
		{
			name:        "insufficient funds",
			ledgerErr:   model.ErrInsufficientFunds,
			wantMessage: "insufficient funds",
		},
		{
			name:        "account closed",
			ledgerErr:   model.ErrAccountNotActive,
			wantMessage: "account is not active",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ledger := &stubLedger{err: tt.ledgerErr}
			p := NewTransferProcessor(ledger)

			result, err := p.Process(context.Background(), pendingTicket(uuid.New(), uuid.New(), "10"))
			if err != nil {
				t.Fatalf("Process() error = %v", err)
			}
			if result.Success != tt.wantSuccess {
				t.Errorf("Process() success = %v, want %v", result.Success, tt.wantSuccess)
			}
			if result.ErrorMessage != tt.wantMessage {
				t.Errorf("Process() message = %q, want %q", result.ErrorMessage, tt.wantMessage)
			}
			if ledger.calls != 1 {
				t.Errorf("ledger called %d times, want 1", ledger.calls)
			}
		})
	}
}

func TestProcess_SkipsWhenNotAttempted(t *testing.T) {
	ledger := &stubLedger{}
	p := NewTransferProcessor(ledger)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := p.Process(ctx, pendingTicket(uuid.New(), uuid.New(), "10")); err == nil {
		t.Error("Process() with cancelled context returned nil error")
	}

	done := pendingTicket(uuid.New(), uuid.New(), "10")
	done.Status = model.TicketStatusCompleted
	if _, err := p.Process(context.Background(), done); err == nil {
		t.Error("Process() on completed ticket returned nil error")
	}

	if ledger.calls != 0 {
		t.Errorf("ledger called %d times, want 0", ledger.calls)
	}
}

func TestProcess_AgainstLedger(t *testing.T) {
	ledger := repository.NewLedger()
	src, err := ledger.OpenAccount(model.OpenAccountRequest{HolderName: "Ana", HolderDocument: "1", InitialBalance: decimal.NewFromInt(100), Kind: "checking"})
	if err != nil {
		t.Fatal(err)
	}
	dst, err := ledger.OpenAccount(model.OpenAccountRequest{HolderName: "Bruno", HolderDocument: "2", Kind: "savings"})
	if err != nil {
		t.Fatal(err)
	}

	result, err := NewTransferProcessor(ledger).Process(context.Background(), pendingTicket(src.ID, dst.ID, "40"))
	if err != nil {
		t.Fatalf("Process() error = %v", err)
	}
	if !result.Success {
		t.Fatalf("Process() failed: %s", result.ErrorMessage)
	}
	if !result.Source.Balance.Equal(decimal.NewFromInt(60)) {
		t.Errorf("source balance = %s, want 60", result.Source.Balance)
	}

	got, _ := ledger.FindByID(dst.ID)
	if !got.Balance.Equal(decimal.NewFromInt(40)) {
		t.Errorf("destination balance = %s, want 40", got.Balance)
	}
}
