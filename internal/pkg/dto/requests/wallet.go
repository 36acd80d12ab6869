package requests

import (
	"konsulin-wallet-service/internal/app/models"
	"konsulin-wallet-service/internal/pkg/money"
)

type CreateWallet struct {
	OwnerID                string       `json:"owner_id" validate:"required,max=64"`
	OwnerType              string       `json:"owner_type" validate:"required,owner_type"`
	Currency               string       `json:"currency" validate:"omitempty,len=3"`
	DailyWithdrawalLimit   money.Amount `json:"daily_withdrawal_limit" validate:"gte=0"`
	MonthlyWithdrawalLimit money.Amount `json:"monthly_withdrawal_limit" validate:"gte=0"`
	IsVerified             bool         `json:"is_verified"`
}

type UpdateWalletSettings struct {
	IsActive               *bool         `json:"is_active"`
	IsVerified             *bool         `json:"is_verified"`
	DailyWithdrawalLimit   *money.Amount `json:"daily_withdrawal_limit" validate:"omitempty,gte=0"`
	MonthlyWithdrawalLimit *money.Amount `json:"monthly_withdrawal_limit" validate:"omitempty,gte=0"`
}

type FundsHold struct {
	Amount money.Amount `json:"amount" validate:"required,gt=0"`
}

type Deposit struct {
	WalletID         string       `json:"-"`
	Amount           money.Amount `json:"amount" validate:"required,gt=0"`
	Source           string       `json:"source" validate:"required,max=64"`
	ReferenceNumber  string       `json:"reference_number" validate:"omitempty,max=64"`
	GatewayReference string       `json:"gateway_reference" validate:"omitempty,max=128"`
	Description      string       `json:"description" validate:"omitempty,max=255"`
}

type Withdraw struct {
	WalletID        string       `json:"-"`
	Amount          money.Amount `json:"amount" validate:"required,gt=0"`
	Destination     string       `json:"destination" validate:"required,max=128"`
	ReferenceNumber string       `json:"reference_number" validate:"omitempty,max=64"`
	Description     string       `json:"description" validate:"omitempty,max=255"`
}

type Transfer struct {
	FromWalletID    string       `json:"from_wallet_id" validate:"required"`
	ToWalletID      string       `json:"to_wallet_id" validate:"required"`
	Amount          money.Amount `json:"amount" validate:"required,gt=0"`
	CommissionRate  string       `json:"commission_rate" validate:"omitempty,rate"`
	ReferenceNumber string       `json:"reference_number" validate:"omitempty,max=64"`
	Description     string       `json:"description" validate:"omitempty,max=255"`
}

// Charge debits a wallet in favour of the platform wallet.
type Charge struct {
	WalletID        string
	Amount          money.Amount
	Type            models.TransactionType
	ReferenceNumber string
	Description     string
	Metadata        map[string]string
}

type ConsultationPayment struct {
	PatientID       string       `json:"patient_id" validate:"required,max=64"`
	PractitionerID  string       `json:"practitioner_id" validate:"required,max=64"`
	Amount          money.Amount `json:"amount" validate:"required,gt=0"`
	ReferenceNumber string       `json:"reference_number" validate:"omitempty,max=64"`
	Description     string       `json:"description" validate:"omitempty,max=255"`
}

type Reason struct {
	Reason string `json:"reason" validate:"omitempty,max=255"`
}

type InitiateTopUp struct {
	WalletID      string       `json:"-"`
	Amount        money.Amount `json:"amount" validate:"required,gt=0"`
	CustomerEmail string       `json:"customer_email" validate:"omitempty,email"`
	Description   string       `json:"description" validate:"omitempty,max=255"`
}
