package responses

import (
	"konsulin-wallet-service/internal/app/models"
	"konsulin-wallet-service/internal/pkg/money"
)

type Wallet struct {
	*models.Wallet
	AvailableBalance money.Amount `json:"available_balance"`
}

func NewWallet(wallet *models.Wallet) *Wallet {
	return &Wallet{Wallet: wallet, AvailableBalance: wallet.AvailableBalance()}
}

// TransferResult holds the records written by one transfer. Commission is
// nil when the computed commission is zero.
type TransferResult struct {
	Debit            *models.Transaction `json:"debit"`
	Credit           *models.Transaction `json:"credit"`
	Commission       *models.Transaction `json:"commission,omitempty"`
	NetAmount        money.Amount        `json:"net_amount"`
	CommissionAmount money.Amount        `json:"commission_amount"`
}

type TopUp struct {
	Transaction      *models.Transaction `json:"transaction"`
	RedirectURL      string              `json:"redirect_url"`
	GatewayReference string              `json:"gateway_reference"`
}
