package payment_gateway

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"konsulin-wallet-service/internal/app/config"
	"konsulin-wallet-service/internal/pkg/constvars"
	"konsulin-wallet-service/internal/pkg/dto/requests"
	"konsulin-wallet-service/internal/pkg/exceptions"
	"konsulin-wallet-service/internal/pkg/money"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func testConfig(baseURL string) *config.InternalConfig {
	return &config.InternalConfig{
		Ledger: config.AppLedger{Currency: "IDR"},
		PaymentGateway: config.AppPaymentGateway{
			Provider:          constvars.PaymentGatewayOy,
			Username:          "merchant",
			ApiKey:            "secret",
			BaseUrl:           baseURL,
			RequestTimeout:    2 * time.Second,
			RequestsPerSecond: 100,
		},
	}
}

func TestOyService(t *testing.T) {
	var paymentStatus atomic.Value
	paymentStatus.Store("")
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "merchant", r.Header.Get(constvars.HeaderXOyUsername))
		assert.Equal(t, "secret", r.Header.Get(constvars.HeaderXAPIKey))

		switch r.URL.Path {
		case "/" + constvars.OyPaymentRoutingResource:
			var body requests.PaymentRequest
			assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			assert.Equal(t, int64(50000), body.ReceiveAmount)
			_ = json.NewEncoder(w).Encode(map[string]interface{}{
				"status":         map[string]string{"code": "000", "message": "Success"},
				"trx_id":         "oy-trx-1",
				"partner_trx_id": body.PartnerTransactionID,
				"payment_info":   map[string]string{"payment_checkout_url": "https://pay.oy/abc"},
			})
		case "/" + constvars.OyCheckStatusResource:
			_ = json.NewEncoder(w).Encode(map[string]interface{}{
				"status":          map[string]string{"code": "000"},
				"payment_status":  paymentStatus.Load().(string),
				"received_amount": 50000,
			})
		case "/" + constvars.OyRefundResource:
			w.WriteHeader(http.StatusBadRequest)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer server.Close()

	gateway := NewOyService(testConfig(server.URL), zap.NewNop())
	ctx := context.Background()

	initiation, err := gateway.Initiate(ctx, &requests.GatewayInitiate{Amount: 50000, OrderReference: "DEP-1", CustomerID: "patient-1"})
	require.NoError(t, err)
	assert.Equal(t, "DEP-1", initiation.GatewayReference)
	assert.Equal(t, "https://pay.oy/abc", initiation.RedirectURL)

	t.Run("complete payment verifies with received amount", func(t *testing.T) {
		paymentStatus.Store(string(constvars.OYPaymentRoutingStatusComplete))
		verification, err := gateway.Verify(ctx, "DEP-1", nil)
		require.NoError(t, err)
		assert.Equal(t, money.Amount(50000), verification.Amount)
	})

	t.Run("expired payment is rejected", func(t *testing.T) {
		paymentStatus.Store(string(constvars.OYPaymentRoutingStatusExpired))
		_, err := gateway.Verify(ctx, "DEP-1", nil)
		assert.ErrorIs(t, err, exceptions.ErrPaymentRejected)
		assert.False(t, exceptions.IsRetryable(err))
	})

	t.Run("in-progress payment is retryable", func(t *testing.T) {
		paymentStatus.Store(string(constvars.OYPaymentRoutingStatusPaymentInProgress))
		_, err := gateway.Verify(ctx, "DEP-1", nil)
		assert.ErrorIs(t, err, exceptions.ErrGateway)
		assert.True(t, exceptions.IsRetryable(err))
	})

	t.Run("4xx refund is a rejection", func(t *testing.T) {
		_, err := gateway.Refund(ctx, "DEP-1", nil)
		assert.ErrorIs(t, err, exceptions.ErrPaymentRejected)
	})
}

func TestXenditServiceOutage(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.NotEmpty(t, r.Header.Get(constvars.HeaderAuthorization))
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	gateway := NewXenditService(testConfig(server.URL), zap.NewNop())
	_, err := gateway.Initiate(context.Background(), &requests.GatewayInitiate{Amount: 1000, OrderReference: "DEP-2"})
	assert.ErrorIs(t, err, exceptions.ErrGateway)
}

func TestXenditServicePaidInvoice(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/"+constvars.XenditInvoiceResource+"/inv-9", r.URL.Path)
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"id":                 "inv-9",
			"status":             "PAID",
			"amount":             75000,
			"paid_amount":        75000,
			"masked_card_number": "400000XXXXXX0002",
		})
	}))
	defer server.Close()

	gateway := NewXenditService(testConfig(server.URL), zap.NewNop())
	verification, err := gateway.Verify(context.Background(), "inv-9", nil)
	require.NoError(t, err)
	assert.Equal(t, money.Amount(75000), verification.Amount)
	require.NotNil(t, verification.CardMask)
	assert.Equal(t, "400000XXXXXX0002", *verification.CardMask)
}

func TestSandboxService(t *testing.T) {
	gateway := NewSandboxService(zap.NewNop())
	ctx := context.Background()

	initiation, err := gateway.Initiate(ctx, &requests.GatewayInitiate{Amount: 1000, OrderReference: "DEP-3"})
	require.NoError(t, err)

	verification, err := gateway.Verify(ctx, initiation.GatewayReference, nil)
	require.NoError(t, err)
	assert.Equal(t, money.Amount(1000), verification.Amount)

	gateway.Decline(initiation.GatewayReference)
	_, err = gateway.Verify(ctx, initiation.GatewayReference, nil)
	assert.ErrorIs(t, err, exceptions.ErrPaymentRejected)

	refund, err := gateway.Refund(ctx, initiation.GatewayReference, nil)
	require.NoError(t, err)
	assert.False(t, refund.Refunded)
}

func TestNewPaymentGateway(t *testing.T) {
	cfg := testConfig("http://localhost")
	for _, provider := range []string{constvars.PaymentGatewayOy, constvars.PaymentGatewayXendit, constvars.PaymentGatewaySandbox} {
		cfg.PaymentGateway.Provider = provider
		gateway, err := NewPaymentGateway(cfg, zap.NewNop())
		require.NoError(t, err)
		assert.Equal(t, provider, gateway.Name())
	}

	cfg.PaymentGateway.Provider = "paypal"
	_, err := NewPaymentGateway(cfg, zap.NewNop())
	assert.Error(t, err)
}
