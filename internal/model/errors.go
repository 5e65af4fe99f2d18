package model

import "errors"

var (
	// Account errors
	ErrAccountNotFound    = errors.New("account not found")
	ErrInvalidAccountKind = errors.New("invalid account kind: must be checking, savings, or payroll")
	ErrAccountNotActive   = errors.New("account is not active")
	ErrValidation         = errors.New("validation failed")

	// Movement errors
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrInvalidAmount     = errors.New("invalid amount: must be greater than zero")
	ErrSameAccount       = errors.New("source and destination accounts must be different")

	// Async transfer errors
	ErrTicketNotFound = errors.New("transfer ticket not found")
)

// ValidationError reports the first rule an OpenAccountRequest violates
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return e.Reason
}

// Is lets errors.Is(err, ErrValidation) match any ValidationError
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}
