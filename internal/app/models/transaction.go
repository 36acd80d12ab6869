package models

import (
	"time"

	"konsulin-wallet-service/internal/pkg/money"
)

type TransactionType string

const (
	TransactionTypeDeposit      TransactionType = "deposit"
	TransactionTypeWithdrawal   TransactionType = "withdrawal"
	TransactionTypePayment      TransactionType = "payment"
	TransactionTypeRefund       TransactionType = "refund"
	TransactionTypeTransferIn   TransactionType = "transfer_in"
	TransactionTypeTransferOut  TransactionType = "transfer_out"
	TransactionTypeCommission   TransactionType = "commission"
	TransactionTypeSubscription TransactionType = "subscription"
	TransactionTypeGiftCredit   TransactionType = "gift_credit"
)

// IsDebit reports whether the type removes money from the owning wallet.
// A failed debit must have its already-applied delta reversed.
func (t TransactionType) IsDebit() bool {
	switch t {
	case TransactionTypeWithdrawal, TransactionTypeTransferOut, TransactionTypePayment, TransactionTypeSubscription:
		return true
	}
	return false
}

func (t TransactionType) IsWithdrawal() bool {
	return t == TransactionTypeWithdrawal
}

type TransactionStatus string

const (
	TransactionStatusPending   TransactionStatus = "pending"
	TransactionStatusCompleted TransactionStatus = "completed"
	TransactionStatusFailed    TransactionStatus = "failed"
	TransactionStatusCancelled TransactionStatus = "cancelled"
	TransactionStatusRefunded  TransactionStatus = "refunded"
)

var transactionTransitions = map[TransactionStatus][]TransactionStatus{
	TransactionStatusPending:   {TransactionStatusCompleted, TransactionStatusFailed, TransactionStatusCancelled},
	TransactionStatusCompleted: {TransactionStatusRefunded},
}

func (s TransactionStatus) CanTransitionTo(next TransactionStatus) bool {
	for _, allowed := range transactionTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// IsPosted reports whether the amount counts toward the wallet balance.
// A refunded original stays posted; its reversal is a separate record.
func (s TransactionStatus) IsPosted() bool {
	return s == TransactionStatusCompleted || s == TransactionStatusRefunded
}

type Transaction struct {
	ID                   string            `json:"id"`
	WalletID             string            `json:"wallet_id"`
	Amount               money.Amount      `json:"amount"`
	Type                 TransactionType   `json:"type"`
	Status               TransactionStatus `json:"status"`
	ReferenceNumber      string            `json:"reference_number"`
	GatewayReference     *string           `json:"gateway_reference,omitempty"`
	RelatedTransactionID *string           `json:"related_transaction_id,omitempty"`
	RelatedWalletID      *string           `json:"related_wallet_id,omitempty"`
	Description          string            `json:"description,omitempty"`
	FailureReason        string            `json:"failure_reason,omitempty"`
	Metadata             map[string]string `json:"metadata,omitempty"`
	CompletedAt          *time.Time        `json:"completed_at,omitempty"`
	TimeModel
}

// TransactionStatusChange is a compare-and-swap request: it applies only while
// the stored status still equals From.
type TransactionStatusChange struct {
	From             TransactionStatus
	To               TransactionStatus
	GatewayReference *string
	FailureReason    string
	At               time.Time
}

type TransactionFilter struct {
	WalletID string
	Type     TransactionType
	Status   TransactionStatus
	Limit    int
	Offset   int
}

// TransactionDraft describes a transaction to be created as pending.
// ReferenceNumber is generated when empty; a supplied one acts as an
// idempotency key.
type TransactionDraft struct {
	WalletID             string
	Amount               money.Amount
	Type                 TransactionType
	ReferenceNumber      string
	GatewayReference     *string
	RelatedTransactionID *string
	RelatedWalletID      *string
	Description          string
	Metadata             map[string]string
}
