package requests

import "konsulin-wallet-service/internal/pkg/money"

type GatewayInitiate struct {
	Amount            money.Amount
	OrderReference    string
	CallbackReference string
	CustomerID        string
	CustomerEmail     string
	Description       string
}

type FraudAssessment struct {
	WalletID  string
	OwnerID   string
	Amount    money.Amount
	Operation string
}

// SandboxCallback is posted by local tooling to settle a sandbox payment.
type SandboxCallback struct {
	GatewayReference string `json:"gateway_reference" validate:"required,max=128"`
}
