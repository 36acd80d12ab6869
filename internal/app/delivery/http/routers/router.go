package routers

import (
	"fmt"
	"time"

	"konsulin-wallet-service/internal/app/config"
	"konsulin-wallet-service/internal/app/delivery/http/controllers"
	"konsulin-wallet-service/internal/app/delivery/http/middlewares"
	"konsulin-wallet-service/internal/pkg/constvars"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
)

func SetupRoutes(
	router *chi.Mux,
	internalConfig *config.InternalConfig,
	middlewares *middlewares.Middlewares,
	walletController *controllers.WalletController,
	paymentController *controllers.PaymentController,
	subscriptionController *controllers.SubscriptionController,
	adminController *controllers.AdminController,
) {
	corsOptions := cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", constvars.HeaderXRequestID, constvars.HeaderXAPIKey},
		ExposedHeaders:   []string{"Link", constvars.HeaderXRequestID},
		AllowCredentials: true,
		MaxAge:           300,
	}
	router.Use(cors.Handler(corsOptions))
	router.Use(middlewares.RequestIDMiddleware)
	router.Use(middlewares.Logging(middlewares.Log))
	router.Use(middlewares.ErrorHandler)
	router.Use(middlewares.BodyLimit)

	rateLimiter := httprate.LimitByIP(internalConfig.App.MaxRequests, time.Second)

	endpointPrefix := fmt.Sprintf("/%s", internalConfig.App.EndpointPrefix)
	versionPrefix := fmt.Sprintf("/%s", internalConfig.App.Version)

	router.Route(endpointPrefix, func(r chi.Router) {
		r.Route(versionPrefix, func(r chi.Router) {
			r.Group(func(r chi.Router) {
				r.Use(rateLimiter)

				r.Route("/"+constvars.ResourceWallets, func(r chi.Router) {
					attachWalletRoutes(r, middlewares, walletController, paymentController)
				})

				r.Route("/"+constvars.ResourceTransactions, func(r chi.Router) {
					attachTransactionRoutes(r, middlewares, walletController)
				})

				r.Route("/"+constvars.ResourcePlans, func(r chi.Router) {
					attachPlanRoutes(r, middlewares, subscriptionController)
				})

				r.Route("/"+constvars.ResourceSubscriptions, func(r chi.Router) {
					attachSubscriptionRoutes(r, middlewares, subscriptionController)
				})
			})

			r.Route("/"+constvars.ResourcePayments, func(r chi.Router) {
				attachPaymentRoutes(r, middlewares, internalConfig, paymentController)
			})

			r.Route("/"+constvars.ResourceAdmin, func(r chi.Router) {
				attachAdminRoutes(r, middlewares, adminController)
			})
		})
	})
}
