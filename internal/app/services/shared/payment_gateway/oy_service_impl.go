package payment_gateway

import (
	"context"
	"fmt"

	"konsulin-wallet-service/internal/app/config"
	"konsulin-wallet-service/internal/app/contracts"
	"konsulin-wallet-service/internal/pkg/constvars"
	"konsulin-wallet-service/internal/pkg/dto/requests"
	"konsulin-wallet-service/internal/pkg/dto/responses"
	"konsulin-wallet-service/internal/pkg/exceptions"
	"konsulin-wallet-service/internal/pkg/money"
	"konsulin-wallet-service/internal/pkg/utils"

	"go.uber.org/zap"
)

type oyService struct {
	*gatewayClient
	Username                string
	ApiKey                  string
	ListEnablePaymentMethod string
	ListEnableSOF           string
}

func NewOyService(internalConfig *config.InternalConfig, logger *zap.Logger) contracts.PaymentGateway {
	cfg := internalConfig.PaymentGateway
	return &oyService{
		gatewayClient:           newGatewayClient(constvars.PaymentGatewayOy, cfg.BaseUrl, cfg.RequestTimeout, cfg.RequestsPerSecond, logger),
		Username:                cfg.Username,
		ApiKey:                  cfg.ApiKey,
		ListEnablePaymentMethod: cfg.ListEnablePaymentMethod,
		ListEnableSOF:           cfg.ListEnableSOF,
	}
}

func (s *oyService) Name() string {
	return constvars.PaymentGatewayOy
}

func (s *oyService) headers() map[string]string {
	return map[string]string{
		constvars.HeaderXOyUsername: s.Username,
		constvars.HeaderXAPIKey:     s.ApiKey,
	}
}

// Initiate creates a payment-routing checkout. OY echoes partner_trx_id in
// its callbacks, so the order reference doubles as the gateway reference.
func (s *oyService) Initiate(ctx context.Context, request *requests.GatewayInitiate) (*responses.GatewayInitiation, error) {
	requestID := utils.GetRequestID(ctx)
	s.Log.Info("oyService.Initiate called",
		zap.String(constvars.LoggingRequestIDKey, requestID),
		zap.String(constvars.LoggingReferenceKey, request.OrderReference),
	)

	body := &requests.PaymentRequest{
		PartnerUserID:           request.CustomerID,
		PartnerTransactionID:    request.OrderReference,
		NeedFrontend:            true,
		SenderEmail:             request.CustomerEmail,
		ReceiveAmount:           request.Amount.Int64(),
		ListEnablePaymentMethod: s.ListEnablePaymentMethod,
		ListEnableSOF:           s.ListEnableSOF,
	}

	var response responses.PaymentResponse
	err := s.do(ctx, constvars.MethodPost, constvars.OyPaymentRoutingResource, body, s.headers(), &response)
	if err != nil {
		return nil, s.classify(err, request.OrderReference)
	}
	if response.Status.Code != constvars.OyStatusCodeSuccess {
		return nil, exceptions.ErrPaymentDeclined(fmt.Errorf("%s: %s", response.Status.Code, response.Status.Message), request.OrderReference)
	}

	return &responses.GatewayInitiation{
		RedirectURL:      response.PaymentInfo.PaymentCheckoutURL,
		GatewayReference: response.PartnerTrxID,
	}, nil
}

func (s *oyService) Verify(ctx context.Context, gatewayReference string, expectedAmount *money.Amount) (*responses.GatewayVerification, error) {
	requestID := utils.GetRequestID(ctx)
	s.Log.Info("oyService.Verify called",
		zap.String(constvars.LoggingRequestIDKey, requestID),
		zap.String(constvars.LoggingGatewayRefKey, gatewayReference),
	)

	body := &requests.PaymentRoutingStatus{PartnerTransactionID: gatewayReference}
	var response responses.PaymentRoutingStatus
	err := s.do(ctx, constvars.MethodPost, constvars.OyCheckStatusResource, body, s.headers(), &response)
	if err != nil {
		return nil, s.classify(err, gatewayReference)
	}

	switch constvars.OYPaymentRoutingStatus(response.PaymentStatus) {
	case constvars.OYPaymentRoutingStatusComplete, constvars.OYPaymentRoutingStatusDisburseInProgress:
		return &responses.GatewayVerification{
			Amount:           money.Amount(response.ReceivedAmount),
			GatewayReference: gatewayReference,
		}, nil
	case constvars.OYPaymentRoutingStatusFailed, constvars.OYPaymentRoutingStatusExpired, constvars.OYPaymentRoutingStatusIncomplete:
		return nil, exceptions.ErrPaymentDeclined(fmt.Errorf("payment status %s", response.PaymentStatus), gatewayReference)
	default:
		return nil, exceptions.ErrPaymentGateway(fmt.Errorf("payment still %s", response.PaymentStatus), s.Name())
	}
}

func (s *oyService) Refund(ctx context.Context, gatewayReference string, amount *money.Amount) (*responses.GatewayRefund, error) {
	requestID := utils.GetRequestID(ctx)
	s.Log.Info("oyService.Refund called",
		zap.String(constvars.LoggingRequestIDKey, requestID),
		zap.String(constvars.LoggingGatewayRefKey, gatewayReference),
	)

	body := &requests.OyRefund{TrxID: gatewayReference}
	if amount != nil {
		body.Amount = amount.Int64()
	}

	var response responses.OyRefund
	err := s.do(ctx, constvars.MethodPost, constvars.OyRefundResource, body, s.headers(), &response)
	if err != nil {
		return nil, s.classify(err, gatewayReference)
	}
	return &responses.GatewayRefund{Refunded: response.Status.Code == constvars.OyStatusCodeSuccess}, nil
}
