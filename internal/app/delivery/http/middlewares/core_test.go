package middlewares

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"konsulin-wallet-service/internal/app/config"
	"konsulin-wallet-service/internal/pkg/constvars"
	"konsulin-wallet-service/internal/pkg/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestRequestIDMiddleware(t *testing.T) {
	middlewares := newTestMiddlewares()

	t.Run("keeps client request id", func(t *testing.T) {
		var seen string
		handler := middlewares.RequestIDMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			seen = utils.GetRequestID(r.Context())
			assert.Equal(t, true, r.Context().Value(constvars.CONTEXT_IS_CLIENT_REQUEST_ID_KEY))
		}))

		req := httptest.NewRequest("GET", "/", nil)
		req.Header.Set(constvars.HeaderXRequestID, "client-req-1")
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)

		assert.Equal(t, "client-req-1", seen)
		assert.Equal(t, "client-req-1", rr.Header().Get(constvars.HeaderXRequestID))
	})

	t.Run("generates one when absent", func(t *testing.T) {
		var seen string
		handler := middlewares.RequestIDMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			seen, _ = r.Context().Value(constvars.CONTEXT_REQUEST_ID_KEY).(string)
		}))

		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, httptest.NewRequest("GET", "/", nil))

		require.NotEmpty(t, seen)
		assert.Equal(t, seen, rr.Header().Get(constvars.HeaderXRequestID))
	})
}

func TestErrorHandlerRecoversPanics(t *testing.T) {
	middlewares := newTestMiddlewares()
	handler := middlewares.ErrorHandler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))

	rr := httptest.NewRecorder()
	assert.NotPanics(t, func() {
		handler.ServeHTTP(rr, httptest.NewRequest("GET", "/", nil))
	})
	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.Contains(t, rr.Body.String(), constvars.ErrClientSomethingWrongWithApplication)
}

func TestRequireCallbackToken(t *testing.T) {
	middlewares := NewMiddlewares(zap.NewNop(), &config.InternalConfig{
		PaymentGateway: config.AppPaymentGateway{CallbackToken: "cb-secret"},
	})
	handler := middlewares.RequireCallbackToken("oy")(okHandler())

	req := httptest.NewRequest("POST", "/callback", nil)
	req.Header.Set(constvars.HeaderXCallbackToken, "cb-secret")
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusOK, rr.Code)

	req = httptest.NewRequest("POST", "/callback", nil)
	req.Header.Set(constvars.HeaderXCallbackToken, "wrong")
	rr = httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)

	open := newTestMiddlewares().RequireCallbackToken("oy")(okHandler())
	rr = httptest.NewRecorder()
	open.ServeHTTP(rr, httptest.NewRequest("POST", "/callback", nil))
	assert.Equal(t, http.StatusOK, rr.Code, "no configured token skips the check")
}

func TestBodyLimit(t *testing.T) {
	middlewares := NewMiddlewares(zap.NewNop(), &config.InternalConfig{
		App: config.App{RequestBodyLimitInMegabyte: 1},
	})
	var readErr error
	handler := middlewares.BodyLimit(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		buf := make([]byte, 4<<20)
		for readErr == nil {
			_, readErr = r.Body.Read(buf)
		}
	}))

	body := strings.NewReader(strings.Repeat("a", 2<<20))
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("POST", "/", body))

	var maxBytesErr *http.MaxBytesError
	assert.ErrorAs(t, readErr, &maxBytesErr)
}

func TestRateLimiterBlocksAfterBurst(t *testing.T) {
	limiter := NewRateLimiter(zap.NewNop(), 2, time.Second, time.Minute)
	now := time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC)
	limiter.now = func() time.Time { return now }
	handler := limiter.Limit(okHandler())

	call := func(remote string) int {
		req := httptest.NewRequest("POST", "/callback", nil)
		req.RemoteAddr = remote
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)
		return rr.Code
	}

	assert.Equal(t, http.StatusOK, call("10.0.0.1:1234"))
	assert.Equal(t, http.StatusOK, call("10.0.0.1:1234"))
	assert.Equal(t, http.StatusTooManyRequests, call("10.0.0.1:1234"))
	assert.Equal(t, http.StatusOK, call("10.0.0.2:1234"), "other IPs keep their own bucket")

	now = now.Add(30 * time.Second)
	assert.Equal(t, http.StatusTooManyRequests, call("10.0.0.1:1234"), "still blocked")

	now = now.Add(31 * time.Second)
	assert.Equal(t, http.StatusOK, call("10.0.0.1:1234"))
}
