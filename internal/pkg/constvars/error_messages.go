package constvars

// Validation messages mapper
var CustomValidationErrorMessages = map[string]string{
	"required":      "is required",
	"numeric":       "must be a number",
	"min":           "must be at least %s",
	"max":           "must be at most %s",
	"len":           "must be %s characters long",
	"oneof":         "must be one of [%s]",
	"gt":            "must be greater than %s",
	"gte":           "must be greater than or equal to %s",
	"lt":            "must be less than %s",
	"lte":           "must be less than or equal to %s",
	"url":           "must be a valid URL",
	"uuid":          "must be a valid UUID",
	"required_if":   "is required when %s is %s",
	"owner_type":    "must be one of [patient, practitioner, clinic, platform]",
	"billing_cycle": "must be either 'monthly' or 'yearly'",
	"rate":          "must be a decimal between 0 and 1",
}

// Tags that require parameter substitution
var TagsWithParams = map[string]bool{
	"min":         true,
	"max":         true,
	"len":         true,
	"gt":          true,
	"gte":         true,
	"lt":          true,
	"lte":         true,
	"oneof":       true,
	"required_if": true,
}

// Error messages for clients
const (
	ErrClientCannotProcessRequest          = "failed to process your request"
	ErrClientSomethingWrongWithApplication = "there is something wrong with the application"
	ErrClientServerLongRespond             = "the app taking too long to respond"
	ErrClientNotAuthorized                 = "you can't access this feature"
	ErrClientResourceNotFound              = "the requested resource was not found"
	ErrClientWalletNotFound                = "wallet not found"
	ErrClientWalletInactive                = "wallet is not active"
	ErrClientWalletAlreadyExists           = "wallet already exists"
	ErrClientTransactionNotFound           = "transaction not found"
	ErrClientInsufficientBalance           = "insufficient balance"
	ErrClientDailyLimitExceeded            = "daily withdrawal limit exceeded"
	ErrClientMonthlyLimitExceeded          = "monthly withdrawal limit exceeded"
	ErrClientVerificationRequired          = "please verify your account before withdrawing this amount"
	ErrClientMinimumWithdrawal             = "amount is below the minimum withdrawal"
	ErrClientInvalidAmount                 = "amount must be greater than zero"
	ErrClientSameWalletTransfer            = "cannot transfer to the same wallet"
	ErrClientDuplicateReference            = "reference number already used"
	ErrClientInvalidTransition             = "this action is not allowed in the current state"
	ErrClientStateConflict                 = "the resource was modified concurrently, please retry"
	ErrClientBusy                          = "the resource is busy, please retry"
	ErrClientPaymentGatewayFailed          = "payment provider is unavailable, please retry"
	ErrClientPaymentRejected               = "payment was rejected"
	ErrClientPlanNotFound                  = "plan not found"
	ErrClientSubscriptionNotFound          = "subscription not found"
	ErrClientActiveSubscriptionExists      = "an active subscription already exists"
	ErrClientInvalidUpgrade                = "new plan must be more expensive than the current plan"
	ErrClientUsageLimitExceeded            = "usage limit for this plan has been reached"
	ErrClientInvalidRate                   = "invalid commission rate"
	ErrClientInvalidBillingCycle           = "billing cycle must be monthly or yearly"
	ErrClientUnsupportedPaymentMethod      = "payment method is not supported"
	ErrClientTooManyRequests               = "too many requests, please slow down"
)

// Error messages for developers
const (
	ErrDevInvalidInput            = "invalid input"
	ErrDevCannotParseJSON         = "cannot parse JSON"
	ErrDevCannotMarshalJSON       = "cannot marshal JSON"
	ErrDevValidationFailed        = "validation failed"
	ErrDevURLParamIDValidation    = "url param %s validation failed"
	ErrDevCreateHTTPRequest       = "failed to create HTTP request"
	ErrDevSendHTTPRequest         = "failed to send HTTP request"
	ErrDevInvalidAPIKey           = "INVALID_API_KEY"
	ErrDevAPIKeyRequired          = "API_KEY_REQUIRED"
	ErrDevServerDeadlineExceeded  = "deadline exceeded"
	ErrDevServerNotFound          = "resource not found"
	ErrDevServerInternalError     = "internal server error"
	ErrDevRequestLimitExceeded    = "request limit exceeded"
	ErrDevPanicRecovered          = "panic recovered"
	ErrDevMissingRequestID        = "request id missing from context"
	ErrDevInvalidCallbackToken    = "invalid callback token from %s"
	ErrDevWalletNotFound          = "wallet %s not found"
	ErrDevWalletOwnerNotFound     = "wallet for owner %s not found"
	ErrDevWalletInactive          = "wallet %s is inactive"
	ErrDevWalletAlreadyExists     = "wallet for owner %s already exists"
	ErrDevTransactionNotFound     = "transaction %s not found"
	ErrDevInsufficientBalance     = "wallet %s available balance %s is below %s"
	ErrDevDailyLimitExceeded      = "daily withdrawal limit exceeded for wallet %s"
	ErrDevMonthlyLimitExceeded    = "monthly withdrawal limit exceeded for wallet %s"
	ErrDevVerificationRequired    = "wallet %s must be verified for amount %s"
	ErrDevMinimumWithdrawal       = "amount %s below minimum withdrawal %s"
	ErrDevInvalidAmount           = "amount %s must be positive"
	ErrDevSameWalletTransfer      = "transfer source and destination are both %s"
	ErrDevDuplicateReference      = "reference number %s already exists"
	ErrDevReferenceExhausted      = "could not generate a unique reference after %d attempts"
	ErrDevInvalidTransition       = "cannot move %s from %s to %s"
	ErrDevStateConflict           = "%s %s is no longer %s"
	ErrDevLockTimeout             = "timed out acquiring lock on %s"
	ErrDevPaymentGateway          = "payment gateway %s failed"
	ErrDevPaymentRejected         = "payment gateway rejected %s"
	ErrDevPlanNotFound            = "plan %s not found"
	ErrDevSubscriptionNotFound    = "subscription %s not found"
	ErrDevActiveSubscription      = "owner %s already has subscription %s"
	ErrDevInvalidUpgrade          = "plan %s price %s is not greater than current %s"
	ErrDevUsageLimitExceeded      = "usage of %s reached limit %d"
	ErrDevInvalidRate             = "invalid rate %q"
	ErrDevPostgresQuery           = "postgres query failed"
	ErrDevPostgresTx              = "postgres transaction failed"
	ErrDevRedisCommand            = "redis command %s failed"
	ErrDevMongoInsert             = "mongo insert failed"
	ErrDevPublishEvent            = "failed to publish event %s"
	ErrDevFraudCheckRejected      = "fraud check rejected %s"
	ErrDevDBConnectionFailed      = "failed to connect to database"
	ErrDevCompensationFailed      = "compensation failed for transaction %s"
	ErrDevGatewayResponseDecoding = "cannot decode %s gateway response"
	ErrDevInvalidBillingCycle     = "invalid billing cycle %q"
	ErrDevUnsupportedPayment      = "unsupported payment method %q"
)

const (
	ErrFileLocationUnknown = "file location unknown"
	ErrLineLocationUnknown = "line location unknown"
	ErrFunctionNameUnknown = "function name unknown"
)
