package exceptions

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCustomErrorMatchesTaxonomy(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		kind   error
		status int
	}{
		{"wallet not found", ErrWalletNotFound(nil, "w-1"), ErrNotFound, 404},
		{"insufficient", ErrInsufficientFunds("w-1", 10, 20), ErrInsufficientBalance, 422},
		{"daily limit", ErrDailyLimitExceeded("w-1"), ErrLimitExceeded, 422},
		{"monthly limit", ErrMonthlyLimitExceeded("w-1"), ErrMonthlyLimit, 422},
		{"usage limit", ErrUsageLimitExceeded("consultations", 4), ErrLimitExceeded, 403},
		{"verification", ErrWalletVerificationRequired("w-1", 10), ErrVerificationRequired, 403},
		{"transition", ErrInvalidStateTransition("transaction", "failed", "completed"), ErrInvalidState, 409},
		{"conflict", ErrStateConflict("transaction", "t-1", "pending"), ErrConflict, 409},
		{"exhausted", ErrReferenceGenerationExhausted(nil, 5), ErrDuplicateReference, 503},
		{"gateway", ErrPaymentGateway(errors.New("boom"), "oy"), ErrGateway, 502},
		{"lock", ErrLockAcquireTimeout(nil, "wallet w-1"), ErrLockTimeout, 423},
		{"postgres query", ErrPostgresQuery(errors.New("connection reset")), ErrInfrastructure, 500},
		{"postgres tx", ErrPostgresTx(errors.New("commit failed")), ErrInfrastructure, 500},
		{"compensation", ErrCompensationFailed(errors.New("commit failed"), "t-1"), ErrInfrastructure, 500},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, tt.err, tt.kind)

			var customErr *CustomError
			require.ErrorAs(t, tt.err, &customErr)
			assert.Equal(t, tt.status, customErr.StatusCode)
			assert.NotNil(t, customErr.Location)
		})
	}
}

func TestCustomErrorKeepsCause(t *testing.T) {
	cause := errors.New("connection reset")
	err := ErrPaymentGateway(cause, "xendit")

	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "connection reset")
}

func TestBuildNewCustomErrorInheritsKind(t *testing.T) {
	inner := ErrWalletNotFound(nil, "w-9")
	outer := BuildNewCustomError(fmt.Errorf("loading: %w", inner), 500, "x", "y")

	assert.ErrorIs(t, outer, ErrNotFound)
	assert.Equal(t, ErrNotFound, outer.Kind)
}

func TestIsRetryable(t *testing.T) {
	assert.True(t, IsRetryable(ErrLockAcquireTimeout(nil, "wallet")))
	assert.True(t, IsRetryable(ErrPaymentGateway(nil, "oy")))
	assert.True(t, IsRetryable(ErrPostgresTx(errors.New("connection reset"))))
	assert.True(t, IsRetryable(fmt.Errorf("settling: %w", ErrCompensationFailed(nil, "t-1"))))
	assert.True(t, IsRetryable(ErrRedisCommand(nil, "SET")))
	assert.False(t, IsRetryable(ErrReferenceTaken(nil, "SUB-1-20240515")))
	assert.False(t, IsRetryable(ErrInsufficientFunds("w", 1, 2)))
	assert.False(t, IsRetryable(errors.New("plain")))
}
