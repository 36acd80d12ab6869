package constvars

type ContextKey string

const (
	CONTEXT_REQUEST_ID_KEY           ContextKey = "request_id"
	CONTEXT_IS_CLIENT_REQUEST_ID_KEY ContextKey = "is_client_request_id"
)

const (
	REQUEST_ID_PREFIX = "KNSLN_WLT_"
)

const (
	AppPaginationUrlFormat = "%s?page=%d&page_size=%d"
	DefaultPageSize        = 20
	MaxPageSize            = 100
)

const (
	AppEnvProduction  = "production"
	AppEnvDevelopment = "development"

	ServiceName = "konsulin-wallet-service"

	StorageMemory   = "memory"
	StoragePostgres = "postgres"
)

const (
	ResourceWallets       = "wallets"
	ResourceTransactions  = "transactions"
	ResourceSubscriptions = "subscriptions"
	ResourcePlans         = "plans"
	ResourcePayments      = "payments"
	ResourceAdmin         = "admin"
)
