package routers

import (
	"time"

	"konsulin-wallet-service/internal/app/config"
	"konsulin-wallet-service/internal/app/delivery/http/controllers"
	"konsulin-wallet-service/internal/app/delivery/http/middlewares"
	"konsulin-wallet-service/internal/pkg/constvars"

	"github.com/go-chi/chi/v5"
)

func attachPaymentRoutes(router chi.Router, middlewares *middlewares.Middlewares, internalConfig *config.InternalConfig, paymentController *controllers.PaymentController) {
	normalLimiter, apiKeyLimiter := middlewares.CreateRateLimiters()
	router.With(middlewares.APIKeyAuth, middlewares.ConditionalRateLimit(normalLimiter, apiKeyLimiter)).
		Post("/consultations", paymentController.PayConsultation)

	callbackLimiter := middlewares.NewCallbackRateLimiter(
		internalConfig.App.MaxRequests,
		time.Duration(internalConfig.App.MaxTimeRequestsPerSeconds)*time.Second,
	)
	router.Route("/callbacks", func(r chi.Router) {
		r.Use(callbackLimiter.Limit)
		r.With(middlewares.RequireCallbackToken(constvars.PaymentGatewayOy)).
			Post("/oy", paymentController.OyCallback)
		r.With(middlewares.RequireCallbackToken(constvars.PaymentGatewayXendit)).
			Post("/xendit", paymentController.XenditInvoiceCallback)
		r.With(middlewares.RequireSuperadminAPIKey).
			Post("/sandbox", paymentController.SandboxCallback)
	})
}
