package middlewares

import (
	"crypto/subtle"
	"net/http"

	"konsulin-wallet-service/internal/pkg/constvars"
	"konsulin-wallet-service/internal/pkg/exceptions"
	"konsulin-wallet-service/internal/pkg/utils"

	"go.uber.org/zap"
)

// RequireCallbackToken checks the X-Callback-Token header of gateway
// callbacks against PaymentGateway.CallbackToken. Without a configured token
// the check is skipped.
func (m *Middlewares) RequireCallbackToken(provider string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			expected := m.InternalConfig.PaymentGateway.CallbackToken
			if expected == "" {
				next.ServeHTTP(w, r)
				return
			}

			token := r.Header.Get(constvars.HeaderXCallbackToken)
			if subtle.ConstantTimeCompare([]byte(token), []byte(expected)) != 1 {
				m.Log.Warn("Middlewares.RequireCallbackToken rejected callback",
					zap.Any(constvars.LoggingRequestIDKey, r.Context().Value(constvars.CONTEXT_REQUEST_ID_KEY)),
					zap.String("provider", provider),
					zap.String(constvars.LoggingRemoteAddrKey, r.RemoteAddr),
				)
				utils.BuildErrorResponse(m.Log, w, exceptions.ErrInvalidCallbackToken(provider))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
