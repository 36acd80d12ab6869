package payment_gateway

import (
	"context"
	"fmt"
	"sync"

	"konsulin-wallet-service/internal/app/config"
	"konsulin-wallet-service/internal/app/contracts"
	"konsulin-wallet-service/internal/pkg/constvars"
	"konsulin-wallet-service/internal/pkg/dto/requests"
	"konsulin-wallet-service/internal/pkg/dto/responses"
	"konsulin-wallet-service/internal/pkg/exceptions"
	"konsulin-wallet-service/internal/pkg/money"

	"go.uber.org/zap"
)

type sandboxPayment struct {
	amount        money.Amount
	declined      bool
	refunded      bool
	refuseRefunds bool
	refundCalls   int
}

// SandboxService settles every initiated payment in-process. It backs local
// development and tests; Decline and SetPaidAmount script provider outcomes.
type SandboxService struct {
	mu       sync.Mutex
	payments map[string]*sandboxPayment
	Log      *zap.Logger
}

func NewSandboxService(logger *zap.Logger) *SandboxService {
	return &SandboxService{
		payments: map[string]*sandboxPayment{},
		Log:      logger,
	}
}

func (s *SandboxService) Name() string {
	return constvars.PaymentGatewaySandbox
}

func (s *SandboxService) Initiate(ctx context.Context, request *requests.GatewayInitiate) (*responses.GatewayInitiation, error) {
	if !request.Amount.IsPositive() {
		return nil, exceptions.ErrPaymentDeclined(fmt.Errorf("amount %s", request.Amount), request.OrderReference)
	}

	gatewayReference := "sbx-" + request.OrderReference
	s.mu.Lock()
	s.payments[gatewayReference] = &sandboxPayment{amount: request.Amount}
	s.mu.Unlock()

	return &responses.GatewayInitiation{
		RedirectURL:      "https://sandbox.local/pay/" + gatewayReference,
		GatewayReference: gatewayReference,
	}, nil
}

func (s *SandboxService) Verify(ctx context.Context, gatewayReference string, expectedAmount *money.Amount) (*responses.GatewayVerification, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	payment, ok := s.payments[gatewayReference]
	if !ok {
		return nil, exceptions.ErrPaymentDeclined(fmt.Errorf("unknown payment"), gatewayReference)
	}
	if payment.declined {
		return nil, exceptions.ErrPaymentDeclined(fmt.Errorf("declined by issuer"), gatewayReference)
	}
	return &responses.GatewayVerification{
		Amount:           payment.amount,
		GatewayReference: gatewayReference,
	}, nil
}

func (s *SandboxService) Refund(ctx context.Context, gatewayReference string, amount *money.Amount) (*responses.GatewayRefund, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	payment, ok := s.payments[gatewayReference]
	if !ok {
		return &responses.GatewayRefund{Refunded: false}, nil
	}
	payment.refundCalls++
	if payment.declined || payment.refuseRefunds {
		return &responses.GatewayRefund{Refunded: false}, nil
	}
	payment.refunded = true
	return &responses.GatewayRefund{Refunded: true}, nil
}

// Decline makes every later Verify for gatewayReference fail as rejected.
func (s *SandboxService) Decline(gatewayReference string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if payment, ok := s.payments[gatewayReference]; ok {
		payment.declined = true
	}
}

func (s *SandboxService) SetPaidAmount(gatewayReference string, amount money.Amount) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if payment, ok := s.payments[gatewayReference]; ok {
		payment.amount = amount
	}
}

func (s *SandboxService) Refunded(gatewayReference string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	payment, ok := s.payments[gatewayReference]
	return ok && payment.refunded
}

// RefuseRefunds toggles whether later Refund calls for gatewayReference report failure.
func (s *SandboxService) RefuseRefunds(gatewayReference string, refuse bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if payment, ok := s.payments[gatewayReference]; ok {
		payment.refuseRefunds = refuse
	}
}

// RefundCalls counts Refund requests that reached the provider.
func (s *SandboxService) RefundCalls(gatewayReference string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if payment, ok := s.payments[gatewayReference]; ok {
		return payment.refundCalls
	}
	return 0
}

// NewPaymentGateway picks the adapter named by PAYMENT_GATEWAY_PROVIDER.
func NewPaymentGateway(internalConfig *config.InternalConfig, logger *zap.Logger) (contracts.PaymentGateway, error) {
	switch internalConfig.PaymentGateway.Provider {
	case constvars.PaymentGatewayOy:
		return NewOyService(internalConfig, logger), nil
	case constvars.PaymentGatewayXendit:
		return NewXenditService(internalConfig, logger), nil
	case constvars.PaymentGatewaySandbox:
		return NewSandboxService(logger), nil
	}
	return nil, fmt.Errorf("unknown payment gateway provider %q", internalConfig.PaymentGateway.Provider)
}
