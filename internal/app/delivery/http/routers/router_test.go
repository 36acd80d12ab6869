package routers

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"konsulin-wallet-service/internal/app/config"
	"konsulin-wallet-service/internal/app/contracts"
	"konsulin-wallet-service/internal/app/delivery/http/controllers"
	"konsulin-wallet-service/internal/app/delivery/http/middlewares"
	"konsulin-wallet-service/internal/app/services/core/ledger"
	"konsulin-wallet-service/internal/app/services/core/plans"
	"konsulin-wallet-service/internal/app/services/core/subscriptions"
	"konsulin-wallet-service/internal/app/services/core/transactions"
	"konsulin-wallet-service/internal/app/services/core/wallets"
	"konsulin-wallet-service/internal/app/services/shared/events"
	"konsulin-wallet-service/internal/app/services/shared/fraud"
	"konsulin-wallet-service/internal/app/services/shared/locker"
	"konsulin-wallet-service/internal/app/services/shared/payment_gateway"
	"konsulin-wallet-service/internal/app/services/shared/redis"
	"konsulin-wallet-service/internal/pkg/constvars"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const testAPIKey = "test-superadmin-api-key-12345"

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

type apiClient struct {
	t      *testing.T
	router http.Handler
}

func (c *apiClient) do(method, path string, body interface{}, headers map[string]string) (int, envelope) {
	c.t.Helper()
	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		require.NoError(c.t, err)
	}
	req := httptest.NewRequest(method, "/api/v1"+path, bytes.NewReader(payload))
	req.Header.Set(constvars.HeaderContentType, constvars.MIMEApplicationJSON)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rr := httptest.NewRecorder()
	c.router.ServeHTTP(rr, req)

	var out envelope
	_ = json.Unmarshal(rr.Body.Bytes(), &out)
	return rr.Code, out
}

func (c *apiClient) decode(env envelope, dst interface{}) {
	c.t.Helper()
	require.NoError(c.t, json.Unmarshal(env.Data, dst))
}

func newTestRouter(t *testing.T) (*apiClient, contracts.WalletUsecase, *payment_gateway.SandboxService) {
	t.Helper()
	logger := zap.NewNop()
	cfg := &config.InternalConfig{
		App: config.App{
			Version:                    "v1",
			EndpointPrefix:             "api",
			MaxRequests:                1000,
			MaxTimeRequestsPerSeconds:  1,
			RequestBodyLimitInMegabyte: 1,
			SuperadminAPIKey:           testAPIKey,
			SuperadminAPIKeyRateLimit:  1000,
		},
		Ledger: config.AppLedger{
			PlatformOwnerID:         "platform",
			Currency:                "IDR",
			LockTimeout:             2 * time.Second,
			ReferenceAttempts:       5,
			DailyWithdrawalLimit:    5_000_000,
			MonthlyWithdrawalLimit:  50_000_000,
			VerificationThreshold:   10_000_000,
			MinimumWithdrawal:       10_000,
			DefaultCommissionRate:   "0.05",
			AutoVerifyPlatformOwner: true,
		},
		Subscription: config.AppSubscription{
			TrialDays:          14,
			PastDueGraceDays:   7,
			SweepBatchSize:     100,
			LockTTL:            5 * time.Second,
			LockWait:           2 * time.Second,
			RetryPastDue:       true,
			MaxUsagePerRequest: 100,
		},
	}

	store := ledger.NewLedgerMemoryStore(logger, cfg.Ledger.LockTimeout)
	manager := transactions.NewTransactionManager(logger, cfg.Ledger.ReferenceAttempts, time.Now)
	publisher := events.NewMemoryPublisher()
	sandbox := payment_gateway.NewSandboxService(logger)
	walletUsecase := wallets.NewWalletUsecase(store, manager, sandbox, fraud.NewAllowAllChecker(), publisher, cfg, logger)
	_, err := walletUsecase.EnsurePlatformWallet(context.Background())
	require.NoError(t, err)

	planUsecase := plans.NewPlanUsecase(plans.NewPlanMemoryRepository(), cfg, logger)
	require.NoError(t, planUsecase.SeedDefaultPlans(context.Background()))
	subscriptionUsecase := subscriptions.NewSubscriptionUsecase(
		subscriptions.NewSubscriptionMemoryRepository(),
		planUsecase,
		walletUsecase,
		locker.NewLockService(redis.NewMemoryRepository(), logger),
		publisher,
		cfg,
		logger,
	)

	router := chi.NewRouter()
	SetupRoutes(router, cfg, middlewares.NewMiddlewares(logger, cfg),
		controllers.NewWalletController(logger, walletUsecase),
		controllers.NewPaymentController(logger, walletUsecase, subscriptionUsecase),
		controllers.NewSubscriptionController(logger, planUsecase, subscriptionUsecase),
		controllers.NewAdminController(logger, subscriptionUsecase),
	)
	return &apiClient{t: t, router: router}, walletUsecase, sandbox
}

type walletBody struct {
	ID               string `json:"id"`
	Balance          int64  `json:"balance"`
	AvailableBalance int64  `json:"available_balance"`
}

// Controllers are process-wide singletons, so every scenario shares one router.
func TestRoutes(t *testing.T) {
	api, _, _ := newTestRouter(t)
	admin := map[string]string{constvars.HeaderXAPIKey: testAPIKey}

	createWallet := func(ownerID, ownerType string) walletBody {
		code, env := api.do(http.MethodPost, "/wallets", map[string]interface{}{
			"owner_id":    ownerID,
			"owner_type":  ownerType,
			"is_verified": true,
		}, nil)
		require.Equal(t, http.StatusCreated, code, env.Message)
		var wallet walletBody
		api.decode(env, &wallet)
		return wallet
	}

	patient := createWallet("patient-1", "patient")
	practitioner := createWallet("practitioner-1", "practitioner")

	t.Run("request id is echoed", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/plans", nil)
		req.Header.Set(constvars.HeaderXRequestID, "req-abc")
		rr := httptest.NewRecorder()
		api.router.ServeHTTP(rr, req)
		assert.Equal(t, http.StatusOK, rr.Code)
		assert.Equal(t, "req-abc", rr.Header().Get(constvars.HeaderXRequestID))
	})

	t.Run("duplicate wallet is a conflict", func(t *testing.T) {
		code, _ := api.do(http.MethodPost, "/wallets", map[string]interface{}{
			"owner_id":   "patient-1",
			"owner_type": "patient",
		}, nil)
		assert.Equal(t, http.StatusConflict, code)
	})

	t.Run("invalid body is rejected", func(t *testing.T) {
		code, env := api.do(http.MethodPost, "/wallets", map[string]interface{}{"owner_type": "robot"}, nil)
		assert.Equal(t, http.StatusBadRequest, code)
		assert.False(t, env.Success)
	})

	t.Run("deposit requires the api key", func(t *testing.T) {
		body := map[string]interface{}{"amount": 500_000, "source": "bank"}
		code, _ := api.do(http.MethodPost, "/wallets/"+patient.ID+"/deposit", body, nil)
		assert.Equal(t, http.StatusUnauthorized, code)

		code, env := api.do(http.MethodPost, "/wallets/"+patient.ID+"/deposit", body, admin)
		require.Equal(t, http.StatusCreated, code, env.Message)

		code, env = api.do(http.MethodGet, "/wallets/"+patient.ID, nil, nil)
		require.Equal(t, http.StatusOK, code)
		var wallet walletBody
		api.decode(env, &wallet)
		assert.EqualValues(t, 500_000, wallet.Balance)
	})

	t.Run("consultation payment keeps the default commission", func(t *testing.T) {
		code, env := api.do(http.MethodPost, "/payments/consultations", map[string]interface{}{
			"patient_id":      "patient-1",
			"practitioner_id": "practitioner-1",
			"amount":          100_000,
		}, nil)
		require.Equal(t, http.StatusCreated, code, env.Message)

		var result struct {
			NetAmount        int64 `json:"net_amount"`
			CommissionAmount int64 `json:"commission_amount"`
		}
		api.decode(env, &result)
		assert.EqualValues(t, 95_000, result.NetAmount)
		assert.EqualValues(t, 5_000, result.CommissionAmount)

		code, env = api.do(http.MethodGet, "/wallets/owner/practitioner-1", nil, nil)
		require.Equal(t, http.StatusOK, code)
		var wallet walletBody
		api.decode(env, &wallet)
		assert.EqualValues(t, 95_000, wallet.Balance)
		assert.Equal(t, practitioner.ID, wallet.ID)
	})

	t.Run("transactions are paginated", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/wallets/"+patient.ID+"/transactions?page=1&page_size=1", nil)
		rr := httptest.NewRecorder()
		api.router.ServeHTTP(rr, req)
		require.Equal(t, http.StatusOK, rr.Code)

		var out struct {
			Data       []map[string]interface{} `json:"data"`
			Pagination struct {
				Total   int    `json:"total"`
				NextURL string `json:"next_url"`
			} `json:"pagination"`
		}
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &out))
		assert.Len(t, out.Data, 1)
		assert.Equal(t, 2, out.Pagination.Total)
		assert.NotEmpty(t, out.Pagination.NextURL)
	})

	t.Run("top up settles through the sandbox callback", func(t *testing.T) {
		code, env := api.do(http.MethodPost, "/wallets/"+patient.ID+"/top-up", map[string]interface{}{"amount": 50_000}, nil)
		require.Equal(t, http.StatusCreated, code, env.Message)
		var topUp struct {
			GatewayReference string `json:"gateway_reference"`
		}
		api.decode(env, &topUp)
		require.NotEmpty(t, topUp.GatewayReference)

		callback := map[string]interface{}{"gateway_reference": topUp.GatewayReference}
		code, _ = api.do(http.MethodPost, "/payments/callbacks/sandbox", callback, admin)
		require.Equal(t, http.StatusOK, code)

		// a replayed callback is accepted without crediting twice
		code, _ = api.do(http.MethodPost, "/payments/callbacks/sandbox", callback, admin)
		require.Equal(t, http.StatusOK, code)

		code, env = api.do(http.MethodGet, "/wallets/"+patient.ID, nil, nil)
		require.Equal(t, http.StatusOK, code)
		var wallet walletBody
		api.decode(env, &wallet)
		assert.EqualValues(t, 450_000, wallet.Balance)
	})

	t.Run("subscription lifecycle", func(t *testing.T) {
		code, env := api.do(http.MethodGet, "/plans?type=patient", nil, nil)
		require.Equal(t, http.StatusOK, code)
		var planList []map[string]interface{}
		api.decode(env, &planList)
		assert.NotEmpty(t, planList)

		code, env = api.do(http.MethodPost, "/subscriptions", map[string]interface{}{
			"owner_id":      "patient-1",
			"plan_id":       constvars.PlanCodePatientBasic,
			"billing_cycle": "monthly",
		}, nil)
		require.Equal(t, http.StatusCreated, code, env.Message)
		var subscription struct {
			ID     string `json:"id"`
			Status string `json:"status"`
		}
		api.decode(env, &subscription)
		assert.Equal(t, "active", subscription.Status)

		code, _ = api.do(http.MethodGet, "/subscriptions/owner/patient-1", nil, nil)
		assert.Equal(t, http.StatusOK, code)

		usage := map[string]interface{}{"owner_id": "patient-1", "resource": constvars.UsageResourceConsultations}
		code, env = api.do(http.MethodPost, "/subscriptions/usage/check", usage, nil)
		require.Equal(t, http.StatusOK, code)
		var check struct {
			Allowed bool `json:"allowed"`
		}
		api.decode(env, &check)
		assert.True(t, check.Allowed)

		code, _ = api.do(http.MethodPost, "/subscriptions/usage/record", usage, nil)
		assert.Equal(t, http.StatusOK, code)

		code, env = api.do(http.MethodPost, "/subscriptions/"+subscription.ID+"/cancel", map[string]interface{}{"immediate": true}, nil)
		require.Equal(t, http.StatusOK, code, env.Message)
		api.decode(env, &subscription)
		assert.Equal(t, "cancelled", subscription.Status)
	})

	t.Run("unknown subscription id is not found", func(t *testing.T) {
		code, _ := api.do(http.MethodGet, "/subscriptions/2b4d0e4a-8f0e-4d55-9c36-5e1f2f8b7a10", nil, nil)
		assert.Equal(t, http.StatusNotFound, code)

		code, _ = api.do(http.MethodGet, "/subscriptions/not-a-uuid", nil, nil)
		assert.Equal(t, http.StatusBadRequest, code)
	})

	t.Run("admin sweeps need the api key", func(t *testing.T) {
		code, _ := api.do(http.MethodPost, "/admin/billing/run", nil, nil)
		assert.Equal(t, http.StatusUnauthorized, code)

		code, env := api.do(http.MethodPost, "/admin/billing/run", nil, admin)
		require.Equal(t, http.StatusOK, code)
		var report struct {
			Processed int `json:"processed"`
		}
		api.decode(env, &report)
		assert.Equal(t, 0, report.Processed)

		code, _ = api.do(http.MethodPost, "/admin/expiry/run", nil, admin)
		assert.Equal(t, http.StatusOK, code)
	})
}
