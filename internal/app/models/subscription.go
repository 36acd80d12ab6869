package models

import "time"

type SubscriptionStatus string

const (
	SubscriptionStatusTrial     SubscriptionStatus = "trial"
	SubscriptionStatusActive    SubscriptionStatus = "active"
	SubscriptionStatusPastDue   SubscriptionStatus = "past_due"
	SubscriptionStatusCancelled SubscriptionStatus = "cancelled"
	SubscriptionStatusExpired   SubscriptionStatus = "expired"
)

var subscriptionTransitions = map[SubscriptionStatus][]SubscriptionStatus{
	SubscriptionStatusTrial:   {SubscriptionStatusActive, SubscriptionStatusPastDue, SubscriptionStatusCancelled, SubscriptionStatusExpired},
	SubscriptionStatusActive:  {SubscriptionStatusPastDue, SubscriptionStatusCancelled, SubscriptionStatusExpired},
	SubscriptionStatusPastDue: {SubscriptionStatusActive, SubscriptionStatusCancelled, SubscriptionStatusExpired},
}

func (s SubscriptionStatus) CanTransitionTo(next SubscriptionStatus) bool {
	for _, allowed := range subscriptionTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// IsOpen reports whether the subscription blocks the owner from opening another one.
func (s SubscriptionStatus) IsOpen() bool {
	return s == SubscriptionStatusTrial || s == SubscriptionStatusActive || s == SubscriptionStatusPastDue
}

// GrantsAccess reports whether usage is metered against the plan.
func (s SubscriptionStatus) GrantsAccess() bool {
	return s == SubscriptionStatusTrial || s == SubscriptionStatusActive
}

func (s SubscriptionStatus) IsTerminal() bool {
	return s == SubscriptionStatusCancelled || s == SubscriptionStatusExpired
}

const (
	PaymentMethodWallet = "wallet"
)

type Subscription struct {
	ID                 string             `json:"id"`
	OwnerID            string             `json:"owner_id"`
	WalletID           string             `json:"wallet_id"`
	PlanID             string             `json:"plan_id"`
	Status             SubscriptionStatus `json:"status"`
	BillingCycle       BillingCycle       `json:"billing_cycle"`
	PaymentMethod      string             `json:"payment_method"`
	TrialEndDate       *time.Time         `json:"trial_end_date,omitempty"`
	StartDate          time.Time          `json:"start_date"`
	EndDate            time.Time          `json:"end_date"`
	NextBillingDate    time.Time          `json:"next_billing_date"`
	AutoRenew          bool               `json:"auto_renew"`
	UsageData          map[string]int64   `json:"usage_data"`
	PastDueSince       *time.Time         `json:"past_due_since,omitempty"`
	FailureReason      string             `json:"failure_reason,omitempty"`
	CancelledAt        *time.Time         `json:"cancelled_at,omitempty"`
	CancellationReason string             `json:"cancellation_reason,omitempty"`
	Version            int64              `json:"version"`
	TimeModel
}

// DueForBilling reports whether a renewal charge should be attempted at now.
func (s *Subscription) DueForBilling(now time.Time) bool {
	if !s.AutoRenew || s.NextBillingDate.After(now) {
		return false
	}
	return s.Status == SubscriptionStatusActive || s.Status == SubscriptionStatusPastDue
}

// Extend moves the billing window forward by one cycle from the current
// next billing date and clears the usage counters.
func (s *Subscription) Extend(at time.Time) {
	next := s.NextBillingDate.AddDate(0, 0, s.BillingCycle.Days())
	s.EndDate = next
	s.NextBillingDate = next
	s.UsageData = map[string]int64{}
	s.PastDueSince = nil
	s.FailureReason = ""
	s.SetUpdatedAt(at)
}

type SubscriptionStatusChange struct {
	Subscription *Subscription
	OldStatus    SubscriptionStatus
}
