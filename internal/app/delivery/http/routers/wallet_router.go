package routers

import (
	"konsulin-wallet-service/internal/app/delivery/http/controllers"
	"konsulin-wallet-service/internal/app/delivery/http/middlewares"

	"github.com/go-chi/chi/v5"
)

func attachWalletRoutes(router chi.Router, middlewares *middlewares.Middlewares, walletController *controllers.WalletController, paymentController *controllers.PaymentController) {
	router.Post("/", walletController.CreateWallet)
	router.Post("/transfer", walletController.Transfer)
	router.Get("/owner/{owner_id}", walletController.GetWalletByOwner)

	router.Route("/{wallet_id}", func(r chi.Router) {
		r.Get("/", walletController.GetWallet)
		r.Get("/transactions", walletController.ListTransactions)
		r.Post("/withdraw", walletController.Withdraw)
		r.Post("/top-up", paymentController.InitiateTopUp)

		// operator-only: direct credits and holds bypass the payment gateway
		r.Group(func(r chi.Router) {
			r.Use(middlewares.RequireSuperadminAPIKey)
			r.Post("/deposit", walletController.Deposit)
			r.Post("/block", walletController.BlockFunds)
			r.Post("/unblock", walletController.UnblockFunds)
			r.Patch("/settings", walletController.UpdateWalletSettings)
		})
	})
}

func attachTransactionRoutes(router chi.Router, middlewares *middlewares.Middlewares, walletController *controllers.WalletController) {
	router.Get("/{transaction_id}", walletController.GetTransaction)

	router.Group(func(r chi.Router) {
		r.Use(middlewares.RequireSuperadminAPIKey)
		r.Post("/{transaction_id}/refund", walletController.RefundTransaction)
		r.Post("/{transaction_id}/cancel", walletController.CancelTransaction)
	})
}
