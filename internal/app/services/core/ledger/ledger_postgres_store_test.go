package ledger

import (
	"database/sql"
	"errors"
	"fmt"
	"reflect"
	"testing"
	"time"

	"konsulin-wallet-service/internal/app/models"
	"konsulin-wallet-service/internal/pkg/exceptions"
	"konsulin-wallet-service/internal/pkg/money"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeRow hands column values to Scan the way database/sql does for a single
// row, converting to the destination's named type.
type fakeRow struct {
	values []interface{}
	err    error
}

func (r fakeRow) Scan(dest ...interface{}) error {
	if r.err != nil {
		return r.err
	}
	if len(dest) != len(r.values) {
		return fmt.Errorf("expected %d destination arguments in Scan, not %d", len(r.values), len(dest))
	}
	for i, value := range r.values {
		if value == nil {
			continue
		}
		target := reflect.ValueOf(dest[i]).Elem()
		target.Set(reflect.ValueOf(value).Convert(target.Type()))
	}
	return nil
}

func TestPostgresErrorMapping(t *testing.T) {
	uniqueViolation := &pq.Error{Code: pgUniqueViolation, Constraint: "wallet_transactions_reference_number_key"}
	lockNotAvailable := &pq.Error{Code: pgLockNotAvailable, Message: "canceling statement due to lock timeout"}

	assert.True(t, isPostgresCode(uniqueViolation, pgUniqueViolation))
	assert.True(t, isPostgresCode(fmt.Errorf("insert: %w", uniqueViolation), pgUniqueViolation))
	assert.False(t, isPostgresCode(lockNotAvailable, pgUniqueViolation))
	assert.False(t, isPostgresCode(errors.New("23505"), pgUniqueViolation))
	assert.False(t, isPostgresCode(nil, pgUniqueViolation))

	tests := []struct {
		name      string
		err       error
		kind      error
		retryable bool
	}{
		{"lock timeout", lockWalletError(lockNotAvailable, "w-1"), exceptions.ErrLockTimeout, true},
		{"missing wallet", lockWalletError(sql.ErrNoRows, "w-1"), exceptions.ErrNotFound, false},
		{"lost connection on lock", lockWalletError(errors.New("driver: bad connection"), "w-1"), exceptions.ErrInfrastructure, true},
		{"duplicate reference", insertTransactionError(uniqueViolation, "SUB-1-20240515"), exceptions.ErrDuplicateReference, false},
		{"other insert failure", insertTransactionError(&pq.Error{Code: "23503"}, "SUB-1-20240515"), exceptions.ErrInfrastructure, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, tt.err, tt.kind)
			assert.Equal(t, tt.retryable, exceptions.IsRetryable(tt.err))
		})
	}
}

func TestScanWallet(t *testing.T) {
	createdAt := time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC)
	lastTransactionAt := createdAt.Add(time.Hour)
	columns := func(last sql.NullTime) []interface{} {
		return []interface{}{
			"w-1", "patient-1", "patient", "IDR",
			int64(90_000), int64(30_000), int64(10_000_000), int64(100_000_000),
			true, false, last, createdAt, lastTransactionAt,
		}
	}

	wallet, err := scanWallet(fakeRow{values: columns(sql.NullTime{Time: lastTransactionAt, Valid: true})})
	require.NoError(t, err)
	assert.Equal(t, models.OwnerTypePatient, wallet.OwnerType)
	assert.Equal(t, money.Amount(90_000), wallet.Balance)
	assert.Equal(t, money.Amount(60_000), wallet.AvailableBalance())
	assert.True(t, wallet.IsActive)
	require.NotNil(t, wallet.LastTransactionAt)
	assert.Equal(t, lastTransactionAt, *wallet.LastTransactionAt)

	wallet, err = scanWallet(fakeRow{values: columns(sql.NullTime{})})
	require.NoError(t, err)
	assert.Nil(t, wallet.LastTransactionAt)

	_, err = scanWallet(fakeRow{err: sql.ErrNoRows})
	assert.ErrorIs(t, err, sql.ErrNoRows)
}

func TestScanTransaction(t *testing.T) {
	createdAt := time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC)
	columns := func(related sql.NullString, metadata []byte, completedAt sql.NullTime) []interface{} {
		return []interface{}{
			"t-2", "w-1", int64(-40_000), "refund", "completed", "RFD-20240501080000-ABC123",
			sql.NullString{}, related, sql.NullString{String: "w-platform", Valid: true},
			"requested", "", metadata, completedAt, createdAt, createdAt,
		}
	}

	transaction, err := scanTransaction(fakeRow{values: columns(
		sql.NullString{String: "t-1", Valid: true},
		[]byte(`{"original_reference":"DEP-20240501070000-XYZ789","reason":"requested"}`),
		sql.NullTime{Time: createdAt, Valid: true},
	)})
	require.NoError(t, err)
	assert.Equal(t, models.TransactionTypeRefund, transaction.Type)
	assert.Equal(t, models.TransactionStatusCompleted, transaction.Status)
	assert.Equal(t, money.Amount(-40_000), transaction.Amount)
	assert.Nil(t, transaction.GatewayReference)
	require.NotNil(t, transaction.RelatedTransactionID)
	assert.Equal(t, "t-1", *transaction.RelatedTransactionID)
	require.NotNil(t, transaction.RelatedWalletID)
	assert.Equal(t, "w-platform", *transaction.RelatedWalletID)
	assert.Equal(t, "DEP-20240501070000-XYZ789", transaction.Metadata["original_reference"])
	require.NotNil(t, transaction.CompletedAt)
	assert.Equal(t, createdAt, *transaction.CompletedAt)

	transaction, err = scanTransaction(fakeRow{values: columns(sql.NullString{}, nil, sql.NullTime{})})
	require.NoError(t, err)
	assert.Nil(t, transaction.RelatedTransactionID)
	assert.Nil(t, transaction.CompletedAt)
	assert.Empty(t, transaction.Metadata)

	_, err = scanTransaction(fakeRow{values: columns(sql.NullString{}, []byte(`{"reason":`), sql.NullTime{})})
	assert.Error(t, err)
}
