package contracts

import (
	"context"

	"konsulin-wallet-service/internal/pkg/dto/requests"
	"konsulin-wallet-service/internal/pkg/dto/responses"
	"konsulin-wallet-service/internal/pkg/money"
)

// PaymentGateway is the provider-neutral capability. Implementations map
// every provider failure onto the gateway or payment-rejected error kinds.
type PaymentGateway interface {
	Name() string
	Initiate(ctx context.Context, request *requests.GatewayInitiate) (*responses.GatewayInitiation, error)
	Verify(ctx context.Context, gatewayReference string, expectedAmount *money.Amount) (*responses.GatewayVerification, error)
	Refund(ctx context.Context, gatewayReference string, amount *money.Amount) (*responses.GatewayRefund, error)
}
