package routers

import (
	"konsulin-wallet-service/internal/app/delivery/http/controllers"
	"konsulin-wallet-service/internal/app/delivery/http/middlewares"

	"github.com/go-chi/chi/v5"
)

func attachPlanRoutes(router chi.Router, middlewares *middlewares.Middlewares, subscriptionController *controllers.SubscriptionController) {
	router.Get("/", subscriptionController.ListPlans)
	router.Get("/{plan_id}", subscriptionController.GetPlan)
}

func attachSubscriptionRoutes(router chi.Router, middlewares *middlewares.Middlewares, subscriptionController *controllers.SubscriptionController) {
	router.Post("/", subscriptionController.CreateSubscription)
	router.Get("/owner/{owner_id}", subscriptionController.GetActiveSubscription)
	router.Post("/usage/check", subscriptionController.CheckUsage)
	router.Post("/usage/record", subscriptionController.RecordUsage)
	router.Get("/{subscription_id}", subscriptionController.GetSubscription)
	router.Post("/{subscription_id}/upgrade", subscriptionController.UpgradeSubscription)
	router.Post("/{subscription_id}/cancel", subscriptionController.CancelSubscription)
}
