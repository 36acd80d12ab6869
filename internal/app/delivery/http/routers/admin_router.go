package routers

import (
	"konsulin-wallet-service/internal/app/delivery/http/controllers"
	"konsulin-wallet-service/internal/app/delivery/http/middlewares"

	"github.com/go-chi/chi/v5"
)

func attachAdminRoutes(router chi.Router, middlewares *middlewares.Middlewares, adminController *controllers.AdminController) {
	normalLimiter, apiKeyLimiter := middlewares.CreateRateLimiters()
	router.Use(middlewares.RequireSuperadminAPIKey)
	router.Use(middlewares.ConditionalRateLimit(normalLimiter, apiKeyLimiter))

	router.Post("/billing/run", adminController.RunBillingSweep)
	router.Post("/expiry/run", adminController.RunExpirySweep)
}
