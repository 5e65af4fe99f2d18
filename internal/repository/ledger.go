package repository

import (
	"bytes"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/simonkvalheim/pix-ledger/internal/model"
)

// accountSlot holds one account and the lock that serializes its
// read-validate-write sequences.
type accountSlot struct {
	mu      sync.Mutex
	account model.Account
}

func (s *accountSlot) snapshot() model.Account {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.account
}

// Ledger is the in-memory store of accounts.
//
// mu guards the indexes and the insertion order; each slot's own mutex
// guards the account fields. Slots are never removed, so a slot pointer
// obtained under mu stays valid after mu is released. Transfer holds mu for
// reading while it moves money and List holds it for writing, so a listing
// never shows one side of a transfer without the other.
type Ledger struct {
	mu    sync.RWMutex
	order []*accountSlot
	byID  map[uuid.UUID]*accountSlot
	byDoc map[string]*accountSlot

	now   func() time.Time
	newID func() uuid.UUID
}

// NewLedger creates an empty Ledger
func NewLedger() *Ledger {
	return &Ledger{
		byID:  make(map[uuid.UUID]*accountSlot),
		byDoc: make(map[string]*accountSlot),
		now:   time.Now,
		newID: uuid.New,
	}
}

// List returns a snapshot of every account in insertion order
func (l *Ledger) List() []model.Account {
	l.mu.Lock()
	defer l.mu.Unlock()

	accounts := make([]model.Account, 0, len(l.order))
	for _, s := range l.order {
		accounts = append(accounts, s.snapshot())
	}
	return accounts
}

// Count returns the number of accounts in the ledger
func (l *Ledger) Count() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.order)
}

// OpenAccount validates req and appends a new active account
func (l *Ledger) OpenAccount(req model.OpenAccountRequest) (model.Account, error) {
	today := model.DateOf(l.now())

	kind, err := req.Validate(today)
	if err != nil {
		return model.Account{}, err
	}

	openedOn := today
	if req.OpenedOn != nil && !req.OpenedOn.IsZero() {
		openedOn = *req.OpenedOn
	}

	account := model.Account{
		Number:         req.Number,
		Branch:         req.Branch,
		HolderName:     req.HolderName,
		HolderDocument: req.HolderDocument,
		OpenedOn:       openedOn,
		Balance:        req.InitialBalance,
		Active:         true,
		Kind:           kind,
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	for {
		account.ID = l.newID()
		if _, taken := l.byID[account.ID]; !taken {
			break
		}
	}

	slot := &accountSlot{account: account}
	l.order = append(l.order, slot)
	l.byID[account.ID] = slot
	if _, ok := l.byDoc[account.HolderDocument]; !ok {
		l.byDoc[account.HolderDocument] = slot
	}

	return account, nil
}

// FindByID returns the account with the given id
func (l *Ledger) FindByID(id uuid.UUID) (model.Account, error) {
	slot, err := l.slot(id)
	if err != nil {
		return model.Account{}, err
	}
	return slot.snapshot(), nil
}

// FindByDocument returns the first account opened with the given holder document
func (l *Ledger) FindByDocument(document string) (model.Account, error) {
	l.mu.RLock()
	slot, ok := l.byDoc[document]
	l.mu.RUnlock()
	if !ok {
		return model.Account{}, fmt.Errorf("%w: document %s", model.ErrAccountNotFound, document)
	}
	return slot.snapshot(), nil
}

// Close marks the account inactive. Closing a closed account is a no-op.
func (l *Ledger) Close(id uuid.UUID) (model.Account, error) {
	slot, err := l.slot(id)
	if err != nil {
		return model.Account{}, err
	}

	slot.mu.Lock()
	defer slot.mu.Unlock()
	slot.account.Active = false
	return slot.account, nil
}

// Deposit credits amount to the account
func (l *Ledger) Deposit(id uuid.UUID, amount decimal.Decimal) (model.Account, error) {
	if !amount.IsPositive() {
		return model.Account{}, model.ErrInvalidAmount
	}

	slot, err := l.slot(id)
	if err != nil {
		return model.Account{}, err
	}

	slot.mu.Lock()
	defer slot.mu.Unlock()

	if !slot.account.Active {
		return model.Account{}, fmt.Errorf("%w: %s", model.ErrAccountNotActive, id)
	}
	slot.account.Balance = slot.account.Balance.Add(amount)
	return slot.account, nil
}

// Withdraw debits amount from the account if the balance covers it
func (l *Ledger) Withdraw(id uuid.UUID, amount decimal.Decimal) (model.Account, error) {
	if !amount.IsPositive() {
		return model.Account{}, model.ErrInvalidAmount
	}

	slot, err := l.slot(id)
	if err != nil {
		return model.Account{}, err
	}

	slot.mu.Lock()
	defer slot.mu.Unlock()

	if !slot.account.Active {
		return model.Account{}, fmt.Errorf("%w: %s", model.ErrAccountNotActive, id)
	}
	if slot.account.Balance.LessThan(amount) {
		return model.Account{}, model.ErrInsufficientFunds
	}
	slot.account.Balance = slot.account.Balance.Sub(amount)
	return slot.account, nil
}

// Transfer moves amount from source to destination as one unit and returns
// the updated source account.
func (l *Ledger) Transfer(sourceID, destinationID uuid.UUID, amount decimal.Decimal) (model.Account, error) {
	if !amount.IsPositive() {
		return model.Account{}, model.ErrInvalidAmount
	}
	if sourceID == destinationID {
		return model.Account{}, model.ErrSameAccount
	}

	l.mu.RLock()
	defer l.mu.RUnlock()

	source, ok := l.byID[sourceID]
	if !ok {
		return model.Account{}, fmt.Errorf("%w: %s", model.ErrAccountNotFound, sourceID)
	}
	destination, ok := l.byID[destinationID]
	if !ok {
		return model.Account{}, fmt.Errorf("%w: %s", model.ErrAccountNotFound, destinationID)
	}

	// Lock in ascending id order regardless of direction.
	first, second := source, destination
	if bytes.Compare(sourceID[:], destinationID[:]) > 0 {
		first, second = destination, source
	}
	first.mu.Lock()
	defer first.mu.Unlock()
	second.mu.Lock()
	defer second.mu.Unlock()

	if !source.account.Active {
		return model.Account{}, fmt.Errorf("%w: %s", model.ErrAccountNotActive, sourceID)
	}
	if !destination.account.Active {
		return model.Account{}, fmt.Errorf("%w: %s", model.ErrAccountNotActive, destinationID)
	}
	if source.account.Balance.LessThan(amount) {
		return model.Account{}, model.ErrInsufficientFunds
	}

	source.account.Balance = source.account.Balance.Sub(amount)
	destination.account.Balance = destination.account.Balance.Add(amount)
	return source.account, nil
}

func (l *Ledger) slot(id uuid.UUID) (*accountSlot, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	slot, ok := l.byID[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", model.ErrAccountNotFound, id)
	}
	return slot, nil
}
