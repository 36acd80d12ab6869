package responses

import "konsulin-wallet-service/internal/pkg/money"

type GatewayInitiation struct {
	RedirectURL      string `json:"redirect_url"`
	GatewayReference string `json:"gateway_reference"`
}

type GatewayVerification struct {
	Amount           money.Amount `json:"amount"`
	CardMask         *string      `json:"card_mask,omitempty"`
	GatewayReference string       `json:"gateway_reference"`
}

type GatewayRefund struct {
	Refunded bool `json:"refunded"`
}

type FraudAssessment struct {
	Score   int      `json:"score"`
	Allowed bool     `json:"allowed"`
	Reasons []string `json:"reasons,omitempty"`
}
