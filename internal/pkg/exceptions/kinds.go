package exceptions

import (
	"errors"
	"fmt"
)

// Error taxonomy. Every error returned by the ledger and subscription
// engines matches exactly one of these through errors.Is.
var (
	ErrNotFound             = errors.New("not found")
	ErrInvalidState         = errors.New("invalid state")
	ErrInsufficientBalance  = errors.New("insufficient balance")
	ErrLimitExceeded        = errors.New("limit exceeded")
	ErrVerificationRequired = errors.New("verification required")
	ErrDuplicateReference   = errors.New("duplicate reference")
	ErrGateway              = errors.New("gateway error")
	ErrLockTimeout          = errors.New("lock timeout")
	ErrInvalidInput         = errors.New("invalid input")
	ErrPaymentRejected      = errors.New("payment rejected")
	ErrInfrastructure       = errors.New("infrastructure failure")
)

// Finer variants, each still matching its taxonomy parent.
var (
	ErrDailyLimit         = fmt.Errorf("daily withdrawal limit exceeded: %w", ErrLimitExceeded)
	ErrMonthlyLimit       = fmt.Errorf("monthly withdrawal limit exceeded: %w", ErrLimitExceeded)
	ErrUsageLimit         = fmt.Errorf("usage limit exceeded: %w", ErrLimitExceeded)
	ErrInactiveWallet     = fmt.Errorf("wallet inactive: %w", ErrInvalidState)
	ErrConflict           = fmt.Errorf("state conflict: %w", ErrInvalidState)
	ErrTransition         = fmt.Errorf("invalid state transition: %w", ErrInvalidState)
	ErrSubscriptionExists = fmt.Errorf("subscription already exists: %w", ErrInvalidState)
	ErrUpgradeNotAllowed  = fmt.Errorf("invalid upgrade: %w", ErrInvalidState)
	ErrSameWallet         = fmt.Errorf("same wallet transfer: %w", ErrInvalidInput)
	ErrReferenceExhausted = fmt.Errorf("reference generation exhausted: %w", ErrDuplicateReference)
)

// IsRetryable reports whether err is transient and may be retried by the caller.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrLockTimeout) || errors.Is(err, ErrGateway) || errors.Is(err, ErrInfrastructure)
}
