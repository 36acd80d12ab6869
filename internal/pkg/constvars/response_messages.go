package constvars

const (
	// Generic messages
	ResponseUnknown = "unknown"
	ResponseSuccess = "success"
	ResponseError   = "error"

	// Wallet messages
	WalletCreatedSuccessMessage         = "wallet created successfully"
	WalletGetSuccessMessage             = "get wallet successfully"
	WalletSettingsUpdatedSuccessMessage = "wallet settings updated successfully"
	WalletDepositSuccessMessage         = "deposit recorded successfully"
	WalletWithdrawSuccessMessage        = "withdrawal processed successfully"
	WalletTransferSuccessMessage        = "transfer processed successfully"
	WalletTopUpInitiatedSuccessMessage  = "top up initiated successfully"
	WalletFundsBlockedSuccessMessage    = "funds blocked successfully"
	WalletFundsReleasedSuccessMessage   = "funds released successfully"

	// Transaction messages
	TransactionGetSuccessMessage      = "get transaction successfully"
	TransactionListSuccessMessage     = "get transactions successfully"
	TransactionRefundedSuccessMessage = "transaction refunded successfully"
	TransactionCancelledSuccessMessage = "transaction cancelled successfully"
	ConsultationPaidSuccessMessage     = "consultation paid successfully"

	// Subscription messages
	SubscriptionCreatedSuccessMessage   = "subscription created successfully"
	SubscriptionGetSuccessMessage       = "get subscription successfully"
	SubscriptionUpgradedSuccessMessage  = "subscription upgraded successfully"
	SubscriptionCancelledSuccessMessage = "subscription cancelled successfully"
	SubscriptionUsageSuccessMessage     = "usage checked successfully"
	SubscriptionUsageRecordedMessage    = "usage recorded successfully"
	PlanListSuccessMessage              = "get plans successfully"
	PlanGetSuccessMessage               = "get plan successfully"

	// Admin messages
	RenewalSweepSuccessMessage = "renewal sweep finished"
	ExpirySweepSuccessMessage  = "expiry sweep finished"
	WebhookAcceptedMessage     = "webhook accepted"
)
