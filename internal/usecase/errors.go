package usecase

import (
	"errors"
	"fmt"

	"github.com/xavierca1/ligue-leads/internal/entity"
)

type ErrorKind string

const (
	KindNotFound     ErrorKind = "NOT_FOUND"
	KindForbidden    ErrorKind = "FORBIDDEN"
	KindConflict     ErrorKind = "CONFLICT"
	KindInvalidInput ErrorKind = "INVALID_INPUT"
)

// DomainError is a rule violation the caller can act on. Message is shown
// to the end user verbatim.
type DomainError struct {
	Kind    ErrorKind
	Code    string
	Message string
}

func (e *DomainError) Error() string {
	return e.Message
}

func IsDomainError(err error) bool {
	var de *DomainError
	return errors.As(err, &de)
}

// TechnicalError is a persistence or infrastructure failure.
type TechnicalError struct {
	Code    string
	Message string
	Err     error
}

func (e *TechnicalError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *TechnicalError) Unwrap() error { return e.Err }

func IsTechnicalError(err error) bool {
	var te *TechnicalError
	return errors.As(err, &te)
}

// ErrReconciliationNeeded marks a failure that left records inconsistent.
var ErrReconciliationNeeded = errors.New("records left inconsistent, reconciliation needed")

func notFound(code, msg string) *DomainError {
	return &DomainError{Kind: KindNotFound, Code: code, Message: msg}
}

func forbidden(msg string) *DomainError {
	return &DomainError{Kind: KindForbidden, Code: "FORBIDDEN", Message: msg}
}

func conflict(code, msg string) *DomainError {
	return &DomainError{Kind: KindConflict, Code: code, Message: msg}
}

func invalid(code, msg string) *DomainError {
	return &DomainError{Kind: KindInvalidInput, Code: code, Message: msg}
}

func technical(op string, err error) *TechnicalError {
	return &TechnicalError{Code: "DATABASE_ERROR", Message: fmt.Sprintf("%s failed", op), Err: err}
}

// classify turns repository errors into domain errors; anything unknown is
// a technical failure of op.
func classify(op string, err error) error {
	if err == nil {
		return nil
	}
	if IsDomainError(err) || IsTechnicalError(err) {
		return err
	}
	switch {
	case errors.Is(err, entity.ErrLeadNotFound):
		return notFound("LEAD_NOT_FOUND", "Lead not found")
	case errors.Is(err, entity.ErrCustomerNotFound):
		return notFound("CUSTOMER_NOT_FOUND", "Customer not found")
	case errors.Is(err, entity.ErrDepositorNotFound):
		return notFound("DEPOSITOR_NOT_FOUND", "Depositor not found")
	case errors.Is(err, entity.ErrListNotFound):
		return notFound("LIST_NOT_FOUND", "Lead list not found")
	case errors.Is(err, entity.ErrLeadAlreadyOwned):
		return conflict("LEAD_ALREADY_OWNED", "Lead is already owned by another agent")
	case errors.Is(err, entity.ErrOwnershipChanged):
		return conflict("OWNERSHIP_CHANGED", "Lead ownership changed, reload and try again")
	case errors.Is(err, entity.ErrCustomerExists):
		return conflict("CUSTOMER_EXISTS", "A customer already exists for this lead")
	case errors.Is(err, entity.ErrSystemList):
		return forbidden("System lists cannot be deleted")
	}
	return technical(op, err)
}
