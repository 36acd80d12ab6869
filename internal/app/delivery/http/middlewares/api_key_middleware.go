package middlewares

import (
	"context"
	"crypto/subtle"
	"net/http"

	"konsulin-wallet-service/internal/pkg/constvars"
	"konsulin-wallet-service/internal/pkg/exceptions"
	"konsulin-wallet-service/internal/pkg/utils"

	"go.uber.org/zap"
)

type contextKey string

const (
	ContextAPIKeyAuth contextKey = "api_key_auth"
	ContextActor      contextKey = "actor"

	SuperadminActor = "api-key-superadmin"
)

// APIKeyAuth marks the request as superadmin when a valid key is sent and lets
// keyless requests through untouched. A wrong key is always rejected.
func (m *Middlewares) APIKeyAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		apiKey := r.Header.Get(constvars.HeaderXAPIKey)
		if apiKey == "" {
			next.ServeHTTP(w, r)
			return
		}

		if !m.validAPIKey(apiKey) {
			m.Log.Warn("Middlewares.APIKeyAuth invalid api key",
				zap.String(constvars.LoggingRemoteAddrKey, r.RemoteAddr),
				zap.String(constvars.LoggingEndpointKey, r.URL.Path),
			)
			utils.BuildErrorResponse(m.Log, w, exceptions.ErrInvalidAPIKey(nil))
			return
		}

		next.ServeHTTP(w, r.WithContext(m.withSuperadmin(r)))
	})
}

// RequireSuperadminAPIKey guards the operator endpoints.
func (m *Middlewares) RequireSuperadminAPIKey(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		apiKey := r.Header.Get(constvars.HeaderXAPIKey)
		if apiKey == "" {
			utils.BuildErrorResponse(m.Log, w, exceptions.ErrAPIKeyRequired(nil))
			return
		}
		if !m.validAPIKey(apiKey) {
			m.Log.Warn("Middlewares.RequireSuperadminAPIKey invalid api key",
				zap.String(constvars.LoggingRemoteAddrKey, r.RemoteAddr),
				zap.String(constvars.LoggingEndpointKey, r.URL.Path),
			)
			utils.BuildErrorResponse(m.Log, w, exceptions.ErrInvalidAPIKey(nil))
			return
		}

		m.Log.Info("API Key authentication successful",
			zap.String(constvars.LoggingRemoteAddrKey, r.RemoteAddr),
			zap.String(constvars.LoggingEndpointKey, r.URL.Path),
			zap.String(constvars.LoggingMethodKey, r.Method),
			zap.String(constvars.LoggingUserAgentKey, r.UserAgent()),
		)
		next.ServeHTTP(w, r.WithContext(m.withSuperadmin(r)))
	})
}

func (m *Middlewares) validAPIKey(apiKey string) bool {
	expected := m.InternalConfig.App.SuperadminAPIKey
	if expected == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(apiKey), []byte(expected)) == 1
}

func (m *Middlewares) withSuperadmin(r *http.Request) context.Context {
	ctx := context.WithValue(r.Context(), ContextAPIKeyAuth, true)
	return context.WithValue(ctx, ContextActor, SuperadminActor)
}
