package model

import (
	"errors"
	"fmt"
)

// Sentinel errors shared across service and handler layers.
var (
	ErrNotFound       = errors.New("not found")
	ErrForbidden      = errors.New("forbidden")
	ErrWalletNotFound = errors.New("wallet not found")
	ErrInvalidAmount  = errors.New("amount must be a positive integer")
)

// InsufficientCreditsError reports a failed balance check. It carries
// the current balance and the required amount so callers can route the
// user to a top-up flow.
type InsufficientCreditsError struct {
	Balance  int64
	Required int64
}

func (e *InsufficientCreditsError) Error() string {
	return fmt.Sprintf("insufficient credits: balance %d, required %d", e.Balance, e.Required)
}
