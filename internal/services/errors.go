package services

import (
	"errors"
	"fmt"
)

var (
	ErrUnauthenticated     = errors.New("unauthenticated")
	ErrInsufficientBalance = errors.New("insufficient token balance")
	ErrUserNotFound        = errors.New("user not found")
	ErrVideoNotFound       = errors.New("video not found")
	ErrJobCreationFailed   = errors.New("failed to create video job")
	ErrUpstreamFailure     = errors.New("upstream service failure")
	ErrInvalidAmount       = errors.New("amount must be positive")
	ErrDuplicatePayment    = errors.New("payment already recorded")
	ErrInvalidTransition   = errors.New("video is not processing")
	ErrUnknownPackage      = errors.New("unknown token package")
	ErrLedgerBusy          = errors.New("ledger is busy, try again")
)

// InsufficientBalanceError carries the shortfall of a rejected spend. It
// matches ErrInsufficientBalance under errors.Is.
type InsufficientBalanceError struct {
	Required int64
	Balance  int64
}

func (e *InsufficientBalanceError) Error() string {
	return fmt.Sprintf("%v: need %d, have %d", ErrInsufficientBalance, e.Required, e.Balance)
}

func (e *InsufficientBalanceError) Unwrap() error {
	return ErrInsufficientBalance
}
