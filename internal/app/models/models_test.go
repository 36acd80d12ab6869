package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTransactionStatusTransitions(t *testing.T) {
	allowed := map[TransactionStatus][]TransactionStatus{
		TransactionStatusPending:   {TransactionStatusCompleted, TransactionStatusFailed, TransactionStatusCancelled},
		TransactionStatusCompleted: {TransactionStatusRefunded},
	}
	all := []TransactionStatus{
		TransactionStatusPending, TransactionStatusCompleted, TransactionStatusFailed,
		TransactionStatusCancelled, TransactionStatusRefunded,
	}

	for _, from := range all {
		for _, to := range all {
			expected := false
			for _, a := range allowed[from] {
				if a == to {
					expected = true
				}
			}
			assert.Equal(t, expected, from.CanTransitionTo(to), "%s -> %s", from, to)
		}
	}
}

func TestSubscriptionStatusTransitions(t *testing.T) {
	assert.True(t, SubscriptionStatusTrial.CanTransitionTo(SubscriptionStatusActive))
	assert.True(t, SubscriptionStatusActive.CanTransitionTo(SubscriptionStatusPastDue))
	assert.True(t, SubscriptionStatusPastDue.CanTransitionTo(SubscriptionStatusExpired))
	assert.False(t, SubscriptionStatusCancelled.CanTransitionTo(SubscriptionStatusActive))
	assert.False(t, SubscriptionStatusExpired.CanTransitionTo(SubscriptionStatusActive))
	assert.False(t, SubscriptionStatusActive.CanTransitionTo(SubscriptionStatusTrial))
}

func TestPlanLimit(t *testing.T) {
	plan := Plan{Limits: map[string]int64{"consultations_monthly": 4, "reports_monthly": -1}}

	limit, ok := plan.Limit("consultations")
	assert.True(t, ok)
	assert.Equal(t, int64(4), limit)

	_, ok = plan.Limit("reports")
	assert.False(t, ok, "-1 is unlimited")

	_, ok = plan.Limit("exports")
	assert.False(t, ok, "missing key is unlimited")
}

func TestSubscriptionExtend(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	sub := Subscription{
		BillingCycle:    BillingCycleMonthly,
		NextBillingDate: start,
		UsageData:       map[string]int64{"consultations": 3},
		FailureReason:   "insufficient balance",
	}

	sub.Extend(start)

	assert.Equal(t, start.AddDate(0, 0, 30), sub.NextBillingDate)
	assert.Equal(t, sub.NextBillingDate, sub.EndDate)
	assert.Empty(t, sub.UsageData)
	assert.Empty(t, sub.FailureReason)
}

func TestWalletConsistent(t *testing.T) {
	assert.True(t, (&Wallet{Balance: 100, BlockedBalance: 40}).Consistent())
	assert.False(t, (&Wallet{Balance: 10, BlockedBalance: 40}).Consistent())
	assert.False(t, (&Wallet{Balance: 10, BlockedBalance: -1}).Consistent())
}
