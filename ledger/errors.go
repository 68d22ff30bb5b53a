package ledger

import (
	"errors"
	"fmt"
)

// Sentinel errors for the ledger. Callers match them with errors.Is; the typed
// errors below unwrap to the matching sentinel.
var (
	ErrAccountNotFound   = errors.New("account not found")
	ErrDuplicateAccount  = errors.New("account already exists")
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrValidation        = errors.New("validation failed")
	ErrStrategyNotFound  = errors.New("transaction strategy not found")
	ErrDuplicateStrategy = errors.New("transaction strategy already registered")
	ErrTransactionFailed = errors.New("transaction failed")
	ErrPersistence       = errors.New("transaction posted but not persisted")
	ErrConcurrentUpdate  = errors.New("account was modified concurrently")
	ErrCorruptLedger     = errors.New("account balance does not match its transactions")
	ErrAlreadyPosted     = errors.New("transaction already posted")
)

// ValidationError names the offending field. Position is the field's index in
// the parameter struct of its kind, or -1 when the field is not a parameter.
type ValidationError struct {
	Field    string
	Position int
	Reason   string
}

func (e *ValidationError) Error() string {
	if e.Position >= 0 {
		return fmt.Sprintf("validation failed: %s (parameter %d): %s", e.Field, e.Position, e.Reason)
	}
	return fmt.Sprintf("validation failed: %s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

func invalid(field, reason string) error {
	return &ValidationError{Field: field, Position: -1, Reason: reason}
}

func invalidParam(field string, position int, reason string) error {
	return &ValidationError{Field: field, Position: position, Reason: reason}
}

// StrategyNotFoundError is returned when no strategy is registered for Kind.
type StrategyNotFoundError struct {
	Kind Kind
}

func (e *StrategyNotFoundError) Error() string {
	return fmt.Sprintf("no transaction strategy registered for kind %q", string(e.Kind))
}

func (e *StrategyNotFoundError) Unwrap() error { return ErrStrategyNotFound }

// TransactionError wraps an unexpected failure while building or posting a
// transaction. Account holds the redacted account number.
type TransactionError struct {
	Operation string
	Account   string
	Err       error
}

func (e *TransactionError) Error() string {
	return fmt.Sprintf("%s on account %s: %v", e.Operation, e.Account, e.Err)
}

func (e *TransactionError) Unwrap() []error { return []error{ErrTransactionFailed, e.Err} }

// PersistenceError is returned when the repository rejects a transaction that
// had already been applied in memory. The posting is rolled back only while
// it is still the account's latest one; when another posting landed on the
// same *Account in the meantime, RolledBack is false and the transaction
// stays applied in memory.
type PersistenceError struct {
	Operation  string
	Account    string
	RolledBack bool
	Err        error
}

func (e *PersistenceError) Error() string {
	if !e.RolledBack {
		return fmt.Sprintf("%s on account %s: persist: %v (posting kept in memory)", e.Operation, e.Account, e.Err)
	}
	return fmt.Sprintf("%s on account %s: persist: %v", e.Operation, e.Account, e.Err)
}

func (e *PersistenceError) Unwrap() []error { return []error{ErrPersistence, e.Err} }
