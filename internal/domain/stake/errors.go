package stake

import (
	"errors"
	"fmt"
)

// Precondition and ledger errors. Transport failures are reported separately
// via TransactionError so callers can tell a rejected request from a failed
// funds movement.
var (
	ErrInvalidAmount    = errors.New("deposit amount must be positive")
	ErrNotConnected     = errors.New("wallet not connected")
	ErrAccountNotFound  = errors.New("account not found")
	ErrWithdrawalLocked = errors.New("withdrawal locked until reward time")
	ErrAlreadySettled   = errors.New("position already settled")
	ErrNotOwner         = errors.New("position belongs to another wallet")
	ErrNotFound         = errors.New("position not found")
	ErrDuplicateID      = errors.New("position id already exists")
)

// TransactionError reports a failed or timed-out funds movement. The
// underlying cause is preserved for the caller.
type TransactionError struct {
	Stage string // "submit" or "confirm"
	Cause error
}

func (e *TransactionError) Error() string {
	return fmt.Sprintf("transaction failed at %s: %v", e.Stage, e.Cause)
}

func (e *TransactionError) Unwrap() error {
	return e.Cause
}
