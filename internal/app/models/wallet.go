package models

import (
	"time"

	"konsulin-wallet-service/internal/pkg/money"
)

type OwnerType string

const (
	OwnerTypePatient      OwnerType = "patient"
	OwnerTypePractitioner OwnerType = "practitioner"
	OwnerTypeClinic       OwnerType = "clinic"
	OwnerTypePlatform     OwnerType = "platform"
)

func (t OwnerType) IsValid() bool {
	switch t {
	case OwnerTypePatient, OwnerTypePractitioner, OwnerTypeClinic, OwnerTypePlatform:
		return true
	}
	return false
}

// Wallet is an internal balance-holding account. Balance only changes
// together with a posted Transaction on the same wallet.
type Wallet struct {
	ID                     string       `json:"id"`
	OwnerID                string       `json:"owner_id"`
	OwnerType              OwnerType    `json:"owner_type"`
	Currency               string       `json:"currency"`
	Balance                money.Amount `json:"balance"`
	BlockedBalance         money.Amount `json:"blocked_balance"`
	DailyWithdrawalLimit   money.Amount `json:"daily_withdrawal_limit"`
	MonthlyWithdrawalLimit money.Amount `json:"monthly_withdrawal_limit"`
	IsActive               bool         `json:"is_active"`
	IsVerified             bool         `json:"is_verified"`
	LastTransactionAt      *time.Time   `json:"last_transaction_at,omitempty"`
	TimeModel
}

func (w *Wallet) AvailableBalance() money.Amount {
	return w.Balance - w.BlockedBalance
}

// Consistent reports whether balance >= blocked >= 0 holds.
func (w *Wallet) Consistent() bool {
	return w.BlockedBalance >= 0 && w.Balance >= w.BlockedBalance
}

// Apply adds delta to the balance and stamps the activity time.
func (w *Wallet) Apply(delta money.Amount, at time.Time) {
	w.Balance += delta
	w.LastTransactionAt = &at
	w.SetUpdatedAt(at)
}

type WalletSettings struct {
	IsActive               *bool
	IsVerified             *bool
	DailyWithdrawalLimit   *money.Amount
	MonthlyWithdrawalLimit *money.Amount
}
