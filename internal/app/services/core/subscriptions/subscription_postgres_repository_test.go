package subscriptions

import (
	"database/sql"
	"errors"
	"fmt"
	"reflect"
	"testing"
	"time"

	"konsulin-wallet-service/internal/app/models"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

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

func TestIsUniqueViolation(t *testing.T) {
	ownerTaken := &pq.Error{Code: pgUniqueViolation, Constraint: "uq_subscriptions_open_owner"}

	assert.True(t, isUniqueViolation(ownerTaken))
	assert.True(t, isUniqueViolation(fmt.Errorf("insert subscription: %w", ownerTaken)))
	assert.False(t, isUniqueViolation(&pq.Error{Code: "55P03"}))
	assert.False(t, isUniqueViolation(errors.New("duplicate key value")))
	assert.False(t, isUniqueViolation(nil))
}

func TestScanSubscription(t *testing.T) {
	start := time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC)
	pastDue := start.Add(30 * day)
	columns := func(trialEnd, pastDueSince sql.NullTime, usage []byte) []interface{} {
		return []interface{}{
			"s-1", "patient-1", "w-1", "p-1", "past_due", "monthly", models.PaymentMethodWallet,
			trialEnd, start, start.Add(30 * day), start.Add(30 * day), true,
			usage, pastDueSince, "insufficient balance", sql.NullTime{}, "",
			int64(3), start, pastDue,
		}
	}

	subscription, err := scanSubscription(fakeRow{values: columns(
		sql.NullTime{},
		sql.NullTime{Time: pastDue, Valid: true},
		[]byte(`{"consultations_monthly":4}`),
	)})
	require.NoError(t, err)
	assert.Equal(t, models.SubscriptionStatusPastDue, subscription.Status)
	assert.Equal(t, models.BillingCycleMonthly, subscription.BillingCycle)
	assert.Nil(t, subscription.TrialEndDate)
	assert.Nil(t, subscription.CancelledAt)
	require.NotNil(t, subscription.PastDueSince)
	assert.Equal(t, pastDue, *subscription.PastDueSince)
	assert.Equal(t, int64(4), subscription.UsageData["consultations_monthly"])
	assert.Equal(t, int64(3), subscription.Version)

	subscription, err = scanSubscription(fakeRow{values: columns(sql.NullTime{Time: start.Add(14 * day), Valid: true}, sql.NullTime{}, nil)})
	require.NoError(t, err)
	require.NotNil(t, subscription.TrialEndDate)
	assert.Equal(t, start.Add(14*day), *subscription.TrialEndDate)
	assert.NotNil(t, subscription.UsageData)
	assert.Empty(t, subscription.UsageData)

	_, err = scanSubscription(fakeRow{values: columns(sql.NullTime{}, sql.NullTime{}, []byte(`[1,2]`))})
	assert.Error(t, err)

	_, err = scanSubscription(fakeRow{err: sql.ErrNoRows})
	assert.ErrorIs(t, err, sql.ErrNoRows)
}
