package constvars

const (
	LoggingRequestIDKey      = "request_id"
	LoggingDataKey           = "data"
	LoggingQueryParamsKey    = "query_params"
	LoggingResponseKey       = "response"
	LoggingRequestKey        = "request"
	LoggingResponseLengthKey = "response_length"
	LoggingErrorCodeKey      = "error_code"
	LoggingErrorMessageKey   = "error_message"
	LoggingOperationKey      = "operation"
	LoggingDurationKey       = "duration"
	LoggingSuccessKey        = "success"

	LoggingWalletIDKey       = "wallet_id"
	LoggingOwnerIDKey        = "owner_id"
	LoggingTransactionIDKey  = "transaction_id"
	LoggingReferenceKey      = "reference_number"
	LoggingGatewayRefKey     = "gateway_reference"
	LoggingAmountKey         = "amount"
	LoggingStatusKey         = "status"
	LoggingSubscriptionIDKey = "subscription_id"
	LoggingPlanIDKey         = "plan_id"
	LoggingEventIDKey        = "event_id"
	LoggingEventTypeKey      = "event_type"
	LoggingCountKey          = "count"

	LoggingRedisKey              = "redis_key"
	LoggingLockValueKey          = "lock_value"
	LoggingLockExpirationTimeKey = "lock_expiration_time"
	LoggingLockStoredValueKey    = "lock_stored_value"
	LoggingProviderKey           = "provider"
	LoggingURLKey                = "url"
	LoggingHTTPStatusKey         = "http_status"

	LoggingMethodKey     = "method"
	LoggingEndpointKey   = "endpoint"
	LoggingRemoteAddrKey = "remote_addr"
	LoggingUserAgentKey  = "user_agent"
	LoggingQueryKey      = "query"
	LoggingStatusCodeKey = "status_code"
)
