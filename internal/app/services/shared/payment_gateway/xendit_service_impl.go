package payment_gateway

import (
	"context"
	"encoding/base64"
	"fmt"
	"math"

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

type xenditService struct {
	*gatewayClient
	authorization string
	currency      string
}

func NewXenditService(internalConfig *config.InternalConfig, logger *zap.Logger) contracts.PaymentGateway {
	cfg := internalConfig.PaymentGateway
	return &xenditService{
		gatewayClient: newGatewayClient(constvars.PaymentGatewayXendit, cfg.BaseUrl, cfg.RequestTimeout, cfg.RequestsPerSecond, logger),
		authorization: "Basic " + base64.StdEncoding.EncodeToString([]byte(cfg.ApiKey+":")),
		currency:      internalConfig.Ledger.Currency,
	}
}

func (s *xenditService) Name() string {
	return constvars.PaymentGatewayXendit
}

func (s *xenditService) headers() map[string]string {
	return map[string]string{constvars.HeaderAuthorization: s.authorization}
}

func (s *xenditService) Initiate(ctx context.Context, request *requests.GatewayInitiate) (*responses.GatewayInitiation, error) {
	requestID := utils.GetRequestID(ctx)
	s.Log.Info("xenditService.Initiate called",
		zap.String(constvars.LoggingRequestIDKey, requestID),
		zap.String(constvars.LoggingReferenceKey, request.OrderReference),
	)

	body := &requests.XenditCreateInvoice{
		ExternalID:  request.OrderReference,
		Amount:      request.Amount.Int64(),
		PayerEmail:  request.CustomerEmail,
		Description: request.Description,
		Currency:    s.currency,
	}
	var invoice responses.XenditInvoice
	err := s.do(ctx, constvars.MethodPost, constvars.XenditInvoiceResource, body, s.headers(), &invoice)
	if err != nil {
		return nil, s.classify(err, request.OrderReference)
	}

	return &responses.GatewayInitiation{
		RedirectURL:      invoice.InvoiceURL,
		GatewayReference: invoice.ID,
	}, nil
}

func (s *xenditService) Verify(ctx context.Context, gatewayReference string, expectedAmount *money.Amount) (*responses.GatewayVerification, error) {
	requestID := utils.GetRequestID(ctx)
	s.Log.Info("xenditService.Verify called",
		zap.String(constvars.LoggingRequestIDKey, requestID),
		zap.String(constvars.LoggingGatewayRefKey, gatewayReference),
	)

	var invoice responses.XenditInvoice
	resource := fmt.Sprintf("%s/%s", constvars.XenditInvoiceResource, gatewayReference)
	err := s.do(ctx, constvars.MethodGet, resource, nil, s.headers(), &invoice)
	if err != nil {
		return nil, s.classify(err, gatewayReference)
	}

	switch constvars.XenditInvoiceStatus(invoice.Status) {
	case constvars.XenditInvoiceStatusPaid, constvars.XenditInvoiceStatusSettled:
		paid := invoice.PaidAmount
		if paid == 0 {
			paid = invoice.Amount
		}
		verification := &responses.GatewayVerification{
			Amount:           money.Amount(math.Round(paid)),
			GatewayReference: invoice.ID,
		}
		if invoice.MaskedCard != "" {
			verification.CardMask = &invoice.MaskedCard
		}
		return verification, nil
	case constvars.XenditInvoiceStatusExpired:
		return nil, exceptions.ErrPaymentDeclined(fmt.Errorf("invoice %s", invoice.Status), gatewayReference)
	default:
		return nil, exceptions.ErrPaymentGateway(fmt.Errorf("invoice still %s", invoice.Status), s.Name())
	}
}

func (s *xenditService) Refund(ctx context.Context, gatewayReference string, amount *money.Amount) (*responses.GatewayRefund, error) {
	requestID := utils.GetRequestID(ctx)
	s.Log.Info("xenditService.Refund called",
		zap.String(constvars.LoggingRequestIDKey, requestID),
		zap.String(constvars.LoggingGatewayRefKey, gatewayReference),
	)

	body := &requests.XenditRefund{InvoiceID: gatewayReference, Reason: "REQUESTED_BY_CUSTOMER"}
	if amount != nil {
		body.Amount = amount.Int64()
	}

	var refund responses.XenditRefund
	headers := s.headers()
	headers[constvars.HeaderXIdempotencyKey] = "refund-" + gatewayReference
	err := s.do(ctx, constvars.MethodPost, constvars.XenditRefundResource, body, headers, &refund)
	if err != nil {
		return nil, s.classify(err, gatewayReference)
	}
	return &responses.GatewayRefund{Refunded: refund.Status != constvars.XenditRefundStatusFailed}, nil
}
