package exceptions

import (
	"fmt"

	"konsulin-wallet-service/internal/pkg/constvars"
	"konsulin-wallet-service/internal/pkg/money"
)

// Request handling
var (
	ErrInputValidation = func(err error) *CustomError {
		return newKindError(ErrInvalidInput, err, constvars.StatusBadRequest, FormatFirstValidationError(err), constvars.ErrDevValidationFailed)
	}
	ErrURLParamIDValidation = func(err error, paramName string) *CustomError {
		return newKindError(ErrInvalidInput, err, constvars.StatusBadRequest, constvars.ErrClientCannotProcessRequest, fmt.Sprintf(constvars.ErrDevURLParamIDValidation, paramName))
	}
	ErrCannotParseJSON = func(err error) *CustomError {
		return newKindError(ErrInvalidInput, err, constvars.StatusBadRequest, constvars.ErrClientCannotProcessRequest, constvars.ErrDevCannotParseJSON)
	}
	ErrCannotMarshalJSON = func(err error) *CustomError {
		return newKindError(nil, err, constvars.StatusInternalServerError, constvars.ErrClientSomethingWrongWithApplication, constvars.ErrDevCannotMarshalJSON)
	}
	ErrServerDeadlineExceeded = func(err error) *CustomError {
		return newKindError(nil, err, constvars.StatusGatewayTimeout, constvars.ErrClientServerLongRespond, constvars.ErrDevServerDeadlineExceeded)
	}
	ErrInvalidAPIKey = func(err error) *CustomError {
		return newKindError(nil, err, constvars.StatusUnauthorized, constvars.ErrClientNotAuthorized, constvars.ErrDevInvalidAPIKey)
	}
	ErrAPIKeyRequired = func(err error) *CustomError {
		return newKindError(nil, err, constvars.StatusUnauthorized, constvars.ErrClientNotAuthorized, constvars.ErrDevAPIKeyRequired)
	}
	ErrInvalidCallbackToken = func(provider string) *CustomError {
		return newKindError(nil, nil, constvars.StatusUnauthorized, constvars.ErrClientNotAuthorized, fmt.Sprintf(constvars.ErrDevInvalidCallbackToken, provider))
	}
	ErrMissingRequestID = func(err error) *CustomError {
		return newKindError(nil, err, constvars.StatusInternalServerError, constvars.ErrClientSomethingWrongWithApplication, constvars.ErrDevMissingRequestID)
	}
	ErrPanicRecovered = func(err error) *CustomError {
		return newKindError(nil, err, constvars.StatusInternalServerError, constvars.ErrClientSomethingWrongWithApplication, constvars.ErrDevPanicRecovered)
	}
	ErrTooManyRequests = func(err error) *CustomError {
		return newKindError(nil, err, constvars.StatusTooManyRequests, constvars.ErrClientTooManyRequests, constvars.ErrDevRequestLimitExceeded)
	}
	ErrInvalidAmount = func(amount money.Amount) *CustomError {
		return newKindError(ErrInvalidInput, nil, constvars.StatusBadRequest, constvars.ErrClientInvalidAmount, fmt.Sprintf(constvars.ErrDevInvalidAmount, amount))
	}
	ErrInvalidRate = func(err error, raw string) *CustomError {
		return newKindError(ErrInvalidInput, err, constvars.StatusBadRequest, constvars.ErrClientInvalidRate, fmt.Sprintf(constvars.ErrDevInvalidRate, raw))
	}
)

// Wallets and transactions
var (
	ErrWalletNotFound = func(err error, walletID string) *CustomError {
		return newKindError(ErrNotFound, err, constvars.StatusNotFound, constvars.ErrClientWalletNotFound, fmt.Sprintf(constvars.ErrDevWalletNotFound, walletID))
	}
	ErrWalletOwnerNotFound = func(err error, ownerID string) *CustomError {
		return newKindError(ErrNotFound, err, constvars.StatusNotFound, constvars.ErrClientWalletNotFound, fmt.Sprintf(constvars.ErrDevWalletOwnerNotFound, ownerID))
	}
	ErrWalletInactive = func(walletID string) *CustomError {
		return newKindError(ErrInactiveWallet, nil, constvars.StatusConflict, constvars.ErrClientWalletInactive, fmt.Sprintf(constvars.ErrDevWalletInactive, walletID))
	}
	ErrWalletAlreadyExists = func(err error, ownerID string) *CustomError {
		return newKindError(ErrInvalidState, err, constvars.StatusConflict, constvars.ErrClientWalletAlreadyExists, fmt.Sprintf(constvars.ErrDevWalletAlreadyExists, ownerID))
	}
	ErrTransactionNotFound = func(err error, transactionID string) *CustomError {
		return newKindError(ErrNotFound, err, constvars.StatusNotFound, constvars.ErrClientTransactionNotFound, fmt.Sprintf(constvars.ErrDevTransactionNotFound, transactionID))
	}
	ErrInsufficientFunds = func(walletID string, available, requested money.Amount) *CustomError {
		return newKindError(ErrInsufficientBalance, nil, constvars.StatusUnprocessableEntity, constvars.ErrClientInsufficientBalance, fmt.Sprintf(constvars.ErrDevInsufficientBalance, walletID, available, requested))
	}
	ErrDailyLimitExceeded = func(walletID string) *CustomError {
		return newKindError(ErrDailyLimit, nil, constvars.StatusUnprocessableEntity, constvars.ErrClientDailyLimitExceeded, fmt.Sprintf(constvars.ErrDevDailyLimitExceeded, walletID))
	}
	ErrMonthlyLimitExceeded = func(walletID string) *CustomError {
		return newKindError(ErrMonthlyLimit, nil, constvars.StatusUnprocessableEntity, constvars.ErrClientMonthlyLimitExceeded, fmt.Sprintf(constvars.ErrDevMonthlyLimitExceeded, walletID))
	}
	ErrWalletVerificationRequired = func(walletID string, amount money.Amount) *CustomError {
		return newKindError(ErrVerificationRequired, nil, constvars.StatusForbidden, constvars.ErrClientVerificationRequired, fmt.Sprintf(constvars.ErrDevVerificationRequired, walletID, amount))
	}
	ErrBelowMinimumWithdrawal = func(amount, minimum money.Amount) *CustomError {
		return newKindError(ErrInvalidInput, nil, constvars.StatusBadRequest, constvars.ErrClientMinimumWithdrawal, fmt.Sprintf(constvars.ErrDevMinimumWithdrawal, amount, minimum))
	}
	ErrSameWalletTransfer = func(walletID string) *CustomError {
		return newKindError(ErrSameWallet, nil, constvars.StatusBadRequest, constvars.ErrClientSameWalletTransfer, fmt.Sprintf(constvars.ErrDevSameWalletTransfer, walletID))
	}
	ErrReferenceTaken = func(err error, reference string) *CustomError {
		return newKindError(ErrDuplicateReference, err, constvars.StatusConflict, constvars.ErrClientDuplicateReference, fmt.Sprintf(constvars.ErrDevDuplicateReference, reference))
	}
	ErrReferenceGenerationExhausted = func(err error, attempts int) *CustomError {
		return newKindError(ErrReferenceExhausted, err, constvars.StatusServiceUnavailable, constvars.ErrClientSomethingWrongWithApplication, fmt.Sprintf(constvars.ErrDevReferenceExhausted, attempts))
	}
	ErrInvalidStateTransition = func(entity, from, to string) *CustomError {
		return newKindError(ErrTransition, nil, constvars.StatusConflict, constvars.ErrClientInvalidTransition, fmt.Sprintf(constvars.ErrDevInvalidTransition, entity, from, to))
	}
	ErrStateConflict = func(entity, id, expected string) *CustomError {
		return newKindError(ErrConflict, nil, constvars.StatusConflict, constvars.ErrClientStateConflict, fmt.Sprintf(constvars.ErrDevStateConflict, entity, id, expected))
	}
	ErrLockAcquireTimeout = func(err error, resource string) *CustomError {
		return newKindError(ErrLockTimeout, err, constvars.StatusLocked, constvars.ErrClientBusy, fmt.Sprintf(constvars.ErrDevLockTimeout, resource))
	}
	ErrCompensationFailed = func(err error, transactionID string) *CustomError {
		return newKindError(ErrInfrastructure, err, constvars.StatusInternalServerError, constvars.ErrClientSomethingWrongWithApplication, fmt.Sprintf(constvars.ErrDevCompensationFailed, transactionID))
	}
)

// Plans and subscriptions
var (
	ErrPlanNotFound = func(err error, planID string) *CustomError {
		return newKindError(ErrNotFound, err, constvars.StatusNotFound, constvars.ErrClientPlanNotFound, fmt.Sprintf(constvars.ErrDevPlanNotFound, planID))
	}
	ErrSubscriptionNotFound = func(err error, subscriptionID string) *CustomError {
		return newKindError(ErrNotFound, err, constvars.StatusNotFound, constvars.ErrClientSubscriptionNotFound, fmt.Sprintf(constvars.ErrDevSubscriptionNotFound, subscriptionID))
	}
	ErrSubscriptionAlreadyExists = func(err error, ownerID, subscriptionID string) *CustomError {
		return newKindError(ErrSubscriptionExists, err, constvars.StatusConflict, constvars.ErrClientActiveSubscriptionExists, fmt.Sprintf(constvars.ErrDevActiveSubscription, ownerID, subscriptionID))
	}
	ErrInvalidUpgrade = func(planID string, newPrice, currentPrice money.Amount) *CustomError {
		return newKindError(ErrUpgradeNotAllowed, nil, constvars.StatusUnprocessableEntity, constvars.ErrClientInvalidUpgrade, fmt.Sprintf(constvars.ErrDevInvalidUpgrade, planID, newPrice, currentPrice))
	}
	ErrUsageLimitExceeded = func(resource string, limit int64) *CustomError {
		return newKindError(ErrUsageLimit, nil, constvars.StatusForbidden, constvars.ErrClientUsageLimitExceeded, fmt.Sprintf(constvars.ErrDevUsageLimitExceeded, resource, limit))
	}
	ErrInvalidBillingCycle = func(cycle string) *CustomError {
		return newKindError(ErrInvalidInput, nil, constvars.StatusBadRequest, constvars.ErrClientInvalidBillingCycle, fmt.Sprintf(constvars.ErrDevInvalidBillingCycle, cycle))
	}
	ErrUnsupportedPaymentMethod = func(method string) *CustomError {
		return newKindError(ErrInvalidInput, nil, constvars.StatusBadRequest, constvars.ErrClientUnsupportedPaymentMethod, fmt.Sprintf(constvars.ErrDevUnsupportedPayment, method))
	}
)

// External collaborators
var (
	ErrPaymentGateway = func(err error, provider string) *CustomError {
		return newKindError(ErrGateway, err, constvars.StatusBadGateway, constvars.ErrClientPaymentGatewayFailed, fmt.Sprintf(constvars.ErrDevPaymentGateway, provider))
	}
	ErrGatewayResponseDecoding = func(err error, provider string) *CustomError {
		return newKindError(ErrGateway, err, constvars.StatusBadGateway, constvars.ErrClientPaymentGatewayFailed, fmt.Sprintf(constvars.ErrDevGatewayResponseDecoding, provider))
	}
	ErrPaymentDeclined = func(err error, reference string) *CustomError {
		return newKindError(ErrPaymentRejected, err, constvars.StatusPaymentRequired, constvars.ErrClientPaymentRejected, fmt.Sprintf(constvars.ErrDevPaymentRejected, reference))
	}
	ErrFraudRejected = func(reference string) *CustomError {
		return newKindError(ErrPaymentRejected, nil, constvars.StatusPaymentRequired, constvars.ErrClientPaymentRejected, fmt.Sprintf(constvars.ErrDevFraudCheckRejected, reference))
	}
)

// Infrastructure
var (
	ErrPostgresQuery = func(err error) *CustomError {
		return newKindError(ErrInfrastructure, err, constvars.StatusInternalServerError, constvars.ErrClientSomethingWrongWithApplication, constvars.ErrDevPostgresQuery)
	}
	ErrPostgresTx = func(err error) *CustomError {
		return newKindError(ErrInfrastructure, err, constvars.StatusInternalServerError, constvars.ErrClientSomethingWrongWithApplication, constvars.ErrDevPostgresTx)
	}
	ErrRedisCommand = func(err error, command string) *CustomError {
		return newKindError(ErrInfrastructure, err, constvars.StatusInternalServerError, constvars.ErrClientSomethingWrongWithApplication, fmt.Sprintf(constvars.ErrDevRedisCommand, command))
	}
	ErrMongoInsert = func(err error) *CustomError {
		return newKindError(ErrInfrastructure, err, constvars.StatusInternalServerError, constvars.ErrClientSomethingWrongWithApplication, constvars.ErrDevMongoInsert)
	}
	ErrPublishEvent = func(err error, eventType string) *CustomError {
		return newKindError(ErrInfrastructure, err, constvars.StatusInternalServerError, constvars.ErrClientSomethingWrongWithApplication, fmt.Sprintf(constvars.ErrDevPublishEvent, eventType))
	}
	ErrResourceNotFound = func(err error) *CustomError {
		return newKindError(ErrNotFound, err, constvars.StatusNotFound, constvars.ErrClientResourceNotFound, constvars.ErrDevServerNotFound)
	}
)
