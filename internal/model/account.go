package model

import (
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// AccountKind represents the type of bank account
type AccountKind string

const (
	AccountKindChecking AccountKind = "checking"
	AccountKindSavings  AccountKind = "savings"
	AccountKindPayroll  AccountKind = "payroll"
)

// kindAliases maps normalized input to a kind, including the legacy pt-BR
// kind names.
var kindAliases = map[string]AccountKind{
	"checking": AccountKindChecking,
	"corrente": AccountKindChecking,
	"savings":  AccountKindSavings,
	"poupança": AccountKindSavings,
	"poupanca": AccountKindSavings,
	"payroll":  AccountKindPayroll,
	"salário":  AccountKindPayroll,
	"salario":  AccountKindPayroll,
}

// ParseAccountKind normalizes s case-insensitively into one of the known kinds
func ParseAccountKind(s string) (AccountKind, error) {
	kind, ok := kindAliases[strings.ToLower(strings.TrimSpace(s))]
	if !ok {
		return "", ErrInvalidAccountKind
	}
	return kind, nil
}

// Account represents a bank account
type Account struct {
	ID             uuid.UUID       `json:"id"`
	Number         string          `json:"number"`
	Branch         string          `json:"branch"`
	HolderName     string          `json:"holder_name"`
	HolderDocument string          `json:"holder_document"`
	OpenedOn       Date            `json:"opened_on"`
	Balance        decimal.Decimal `json:"balance"`
	Active         bool            `json:"active"`
	Kind           AccountKind     `json:"kind"`
}

// OpenAccountRequest is the payload for opening a new account.
// Any id sent by the client is ignored; ids are assigned by the ledger.
type OpenAccountRequest struct {
	Number         string          `json:"number"`
	Branch         string          `json:"branch"`
	HolderName     string          `json:"holder_name"`
	HolderDocument string          `json:"holder_document"`
	OpenedOn       *Date           `json:"opened_on,omitempty"`
	InitialBalance decimal.Decimal `json:"balance"`
	Kind           string          `json:"kind"`
}

// Validate checks the request rules in order and reports the first one that
// fails. On success it returns the normalized account kind.
func (r OpenAccountRequest) Validate(today Date) (AccountKind, error) {
	if strings.TrimSpace(r.HolderName) == "" {
		return "", &ValidationError{Field: "holder_name", Reason: "holder name is required"}
	}
	if strings.TrimSpace(r.HolderDocument) == "" {
		return "", &ValidationError{Field: "holder_document", Reason: "holder document is required"}
	}
	if r.OpenedOn != nil && r.OpenedOn.After(today) {
		return "", &ValidationError{Field: "opened_on", Reason: "opening date cannot be in the future"}
	}
	if r.InitialBalance.IsNegative() {
		return "", &ValidationError{Field: "balance", Reason: "initial balance cannot be negative"}
	}
	kind, err := ParseAccountKind(r.Kind)
	if err != nil {
		return "", &ValidationError{Field: "kind", Reason: err.Error()}
	}
	return kind, nil
}
