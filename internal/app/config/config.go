package config

import (
	"time"

	"konsulin-wallet-service/internal/pkg/constvars"
	"konsulin-wallet-service/internal/pkg/money"
	"konsulin-wallet-service/internal/pkg/utils"

	"github.com/joho/godotenv"
)

func init() {
	godotenv.Load()
}

func NewDriverConfig() *DriverConfig {
	return &DriverConfig{
		Postgres: Postgres{
			Host:            utils.GetEnvString("POSTGRES_HOST", "localhost"),
			Port:            utils.GetEnvString("POSTGRES_PORT", "5432"),
			DbName:          utils.GetEnvString("POSTGRES_DB_NAME", "konsulin_wallet"),
			Username:        utils.GetEnvString("POSTGRES_USERNAME", "postgres"),
			Password:        utils.GetEnvString("POSTGRES_PASSWORD", "postgres"),
			SSLMode:         utils.GetEnvString("POSTGRES_SSL_MODE", "disable"),
			MaxOpenConns:    utils.GetEnvInt("POSTGRES_MAX_OPEN_CONNS", 25),
			MaxIdleConns:    utils.GetEnvInt("POSTGRES_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: utils.GetEnvInt("POSTGRES_CONN_MAX_LIFETIME_IN_MINUTES", 30),
		},
		MongoDB: MongoDB{
			Port:     utils.GetEnvString("MONGODB_PORT", "27017"),
			Host:     utils.GetEnvString("MONGODB_HOST", "localhost"),
			DbName:   utils.GetEnvString("MONGODB_DB_NAME", "konsulin_audit"),
			Username: utils.GetEnvString("MONGODB_USERNAME", ""),
			Password: utils.GetEnvString("MONGODB_PASSWORD", ""),
		},
		Redis: Redis{
			Enabled:  utils.GetEnvBool("REDIS_ENABLED", true),
			Host:     utils.GetEnvString("REDIS_HOST", "localhost"),
			Port:     utils.GetEnvString("REDIS_PORT", "6379"),
			Password: utils.GetEnvString("REDIS_PASSWORD", ""),
			DB:       utils.GetEnvInt("REDIS_DB", 0),
		},
		Logger: Logger{
			Level:               utils.GetEnvString("LOGGER_LEVEL", "debug"),
			OutputFileName:      utils.GetEnvString("LOGGER_OUTPUT_FILENAME", "logger.log"),
			OutputErrorFileName: utils.GetEnvString("LOGGER_OUTPUT_ERROR_FILENAME", "logger_error.log"),
		},
		RabbitMQ: RabbitMQ{
			Port:     utils.GetEnvString("RABBITMQ_PORT", "5672"),
			Host:     utils.GetEnvString("RABBITMQ_HOST", "localhost"),
			Username: utils.GetEnvString("RABBITMQ_USERNAME", "guest"),
			Password: utils.GetEnvString("RABBITMQ_PASSWORD", "guest"),
		},
	}
}

func NewInternalConfig() *InternalConfig {
	return &InternalConfig{
		App: App{
			Env:                        utils.GetEnvString("APP_ENV", constvars.AppEnvDevelopment),
			Port:                       utils.GetEnvString("APP_PORT", "8080"),
			Version:                    utils.GetEnvString("APP_VERSION", "v1"),
			Address:                    utils.GetEnvString("APP_ADDRESS", "localhost"),
			Timezone:                   utils.GetEnvString("APP_TIMEZONE", "Asia/Jakarta"),
			EndpointPrefix:             utils.GetEnvString("APP_ENDPOINT_PREFIX", "api"),
			MaxRequests:                utils.GetEnvInt("APP_MAX_REQUEST", 100),
			MaxTimeRequestsPerSeconds:  utils.GetEnvInt("APP_MAX_TIME_REQUESTS_PER_SECONDS", 60),
			ShutdownTimeoutInSeconds:   utils.GetEnvInt("APP_SHUTDOWN_TIMEOUT", 10),
			RequestBodyLimitInMegabyte: utils.GetEnvInt("APP_REQUEST_BODY_LIMIT_IN_MEGABYTE", 1),
			SuperadminAPIKey:           utils.GetEnvString("APP_SUPERADMIN_API_KEY", ""),
			SuperadminAPIKeyRateLimit:  utils.GetEnvInt("APP_SUPERADMIN_API_KEY_RATE_LIMIT", 30),
		},
		Ledger: AppLedger{
			Storage:                 utils.GetEnvString("LEDGER_STORAGE", "postgres"),
			PlatformOwnerID:         utils.GetEnvString("LEDGER_PLATFORM_OWNER_ID", constvars.PlatformOwnerID),
			Currency:                utils.GetEnvString("LEDGER_CURRENCY", constvars.DefaultCurrency),
			LockTimeout:             utils.GetEnvDuration("LEDGER_LOCK_TIMEOUT", constvars.DefaultLockTimeout),
			ReferenceAttempts:       utils.GetEnvInt("LEDGER_REFERENCE_ATTEMPTS", constvars.DefaultReferenceAttempts),
			DailyWithdrawalLimit:    money.Amount(utils.GetEnvInt64("LEDGER_DAILY_WITHDRAWAL_LIMIT", constvars.DefaultDailyWithdrawalLimit)),
			MonthlyWithdrawalLimit:  money.Amount(utils.GetEnvInt64("LEDGER_MONTHLY_WITHDRAWAL_LIMIT", constvars.DefaultMonthlyWithdrawalLimit)),
			VerificationThreshold:   money.Amount(utils.GetEnvInt64("LEDGER_VERIFICATION_THRESHOLD", constvars.DefaultVerificationThreshold)),
			MinimumWithdrawal:       money.Amount(utils.GetEnvInt64("LEDGER_MINIMUM_WITHDRAWAL", constvars.DefaultMinimumWithdrawal)),
			DefaultCommissionRate:   utils.GetEnvString("LEDGER_DEFAULT_COMMISSION_RATE", constvars.DefaultCommissionRate),
			AutoVerifyPlatformOwner: utils.GetEnvBool("LEDGER_AUTO_VERIFY_PLATFORM_OWNER", true),
		},
		Subscription: AppSubscription{
			Storage:            utils.GetEnvString("SUBSCRIPTION_STORAGE", "postgres"),
			TrialDays:          utils.GetEnvInt("SUBSCRIPTION_TRIAL_DAYS", constvars.DefaultTrialDays),
			PastDueGraceDays:   utils.GetEnvInt("SUBSCRIPTION_PAST_DUE_GRACE_DAYS", constvars.DefaultPastDueGraceDay),
			WorkerCronSpec:     utils.GetEnvString("SUBSCRIPTION_WORKER_CRON_SPEC", "@every 15m"),
			WorkerEnabled:      utils.GetEnvBool("SUBSCRIPTION_WORKER_ENABLED", true),
			SweepBatchSize:     utils.GetEnvInt("SUBSCRIPTION_SWEEP_BATCH_SIZE", 200),
			LockTTL:            utils.GetEnvDuration("SUBSCRIPTION_LOCK_TTL", 30*time.Second),
			LockWait:           utils.GetEnvDuration("SUBSCRIPTION_LOCK_WAIT", constvars.DefaultLockTimeout),
			SeedDefaultPlans:   utils.GetEnvBool("SUBSCRIPTION_SEED_DEFAULT_PLANS", true),
			RetryPastDue:       utils.GetEnvBool("SUBSCRIPTION_RETRY_PAST_DUE", true),
			MaxUsagePerRequest: utils.GetEnvInt64("SUBSCRIPTION_MAX_USAGE_PER_REQUEST", 100),
		},
		PaymentGateway: AppPaymentGateway{
			Provider:                utils.GetEnvString("PAYMENT_GATEWAY_PROVIDER", constvars.PaymentGatewaySandbox),
			Username:                utils.GetEnvString("PAYMENT_GATEWAY_USERNAME", ""),
			ApiKey:                  utils.GetEnvString("PAYMENT_GATEWAY_API_KEY", ""),
			BaseUrl:                 utils.GetEnvString("PAYMENT_GATEWAY_BASE_URL", "https://api-stg.oyindonesia.com/api"),
			CallbackUrl:             utils.GetEnvString("PAYMENT_GATEWAY_CALLBACK_URL", ""),
			CallbackToken:           utils.GetEnvString("PAYMENT_GATEWAY_CALLBACK_TOKEN", ""),
			ListEnablePaymentMethod: utils.GetEnvString("PAYMENT_GATEWAY_LIST_ENABLE_PAYMENT_METHOD", "VA,QRIS"),
			ListEnableSOF:           utils.GetEnvString("PAYMENT_GATEWAY_LIST_ENABLE_SOF", "002,008,014,QRIS"),
			RequestTimeout:          utils.GetEnvDuration("PAYMENT_GATEWAY_REQUEST_TIMEOUT", 15*time.Second),
			RequestsPerSecond:       utils.GetEnvInt("PAYMENT_GATEWAY_REQUESTS_PER_SECOND", 10),
		},
		Fraud: AppFraud{
			Enabled:           utils.GetEnvBool("FRAUD_ENABLED", true),
			ScoreThreshold:    utils.GetEnvInt("FRAUD_SCORE_THRESHOLD", 70),
			HighAmount:        money.Amount(utils.GetEnvInt64("FRAUD_HIGH_AMOUNT", 20_000_000)),
			VelocityWindow:    utils.GetEnvDuration("FRAUD_VELOCITY_WINDOW", 10*time.Minute),
			VelocityMaxEvents: utils.GetEnvInt64("FRAUD_VELOCITY_MAX_EVENTS", 5),
		},
		Events: AppEvents{
			Sinks:            utils.GetEnvString("EVENTS_SINKS", "rabbitmq,mongo"),
			RabbitMQQueue:    utils.GetEnvString("EVENTS_RABBITMQ_QUEUE", "konsulin.ledger.events"),
			RabbitMQExchange: utils.GetEnvString("EVENTS_RABBITMQ_EXCHANGE", constvars.EventExchangeLedger),
			MongoCollection:  utils.GetEnvString("EVENTS_MONGO_COLLECTION", constvars.EventMongoCollectionAudit),
			RedisChannel:     utils.GetEnvString("EVENTS_REDIS_CHANNEL", constvars.EventRedisChannel),
		},
	}
}
