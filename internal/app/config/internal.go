package config

import (
	"time"

	"konsulin-wallet-service/internal/pkg/money"
)

type InternalConfig struct {
	App            App               `mapstructure:"app"`
	Ledger         AppLedger         `mapstructure:"ledger"`
	Subscription   AppSubscription   `mapstructure:"subscription"`
	PaymentGateway AppPaymentGateway `mapstructure:"payment_gateway"`
	Fraud          AppFraud          `mapstructure:"fraud"`
	Events         AppEvents         `mapstructure:"events"`
}

type App struct {
	Env                        string `mapstructure:"env"`
	Port                       string `mapstructure:"port"`
	Version                    string `mapstructure:"version"`
	Address                    string `mapstructure:"address"`
	Timezone                   string `mapstructure:"timezone"`
	EndpointPrefix             string `mapstructure:"endpoint_prefix"`
	MaxRequests                int    `mapstructure:"max_requests"`
	MaxTimeRequestsPerSeconds  int    `mapstructure:"max_time_requests_per_seconds"`
	ShutdownTimeoutInSeconds   int    `mapstructure:"shutdown_timeout_in_seconds"`
	RequestBodyLimitInMegabyte int    `mapstructure:"request_body_limit_in_megabyte"`
	SuperadminAPIKey           string `mapstructure:"superadmin_api_key"`
	SuperadminAPIKeyRateLimit  int    `mapstructure:"superadmin_api_key_rate_limit"`
}

// AppLedger holds wallet engine policy.
type AppLedger struct {
	Storage                 string        `mapstructure:"storage"`
	PlatformOwnerID         string        `mapstructure:"platform_owner_id"`
	Currency                string        `mapstructure:"currency"`
	LockTimeout             time.Duration `mapstructure:"lock_timeout"`
	ReferenceAttempts       int           `mapstructure:"reference_attempts"`
	DailyWithdrawalLimit    money.Amount  `mapstructure:"daily_withdrawal_limit"`
	MonthlyWithdrawalLimit  money.Amount  `mapstructure:"monthly_withdrawal_limit"`
	VerificationThreshold   money.Amount  `mapstructure:"verification_threshold"`
	MinimumWithdrawal       money.Amount  `mapstructure:"minimum_withdrawal"`
	DefaultCommissionRate   string        `mapstructure:"default_commission_rate"`
	AutoVerifyPlatformOwner bool          `mapstructure:"auto_verify_platform_owner"`
}

type AppSubscription struct {
	Storage            string        `mapstructure:"storage"`
	TrialDays          int           `mapstructure:"trial_days"`
	PastDueGraceDays   int           `mapstructure:"past_due_grace_days"`
	WorkerCronSpec     string        `mapstructure:"worker_cron_spec"`
	WorkerEnabled      bool          `mapstructure:"worker_enabled"`
	SweepBatchSize     int           `mapstructure:"sweep_batch_size"`
	LockTTL            time.Duration `mapstructure:"lock_ttl"`
	LockWait           time.Duration `mapstructure:"lock_wait"`
	SeedDefaultPlans   bool          `mapstructure:"seed_default_plans"`
	RetryPastDue       bool          `mapstructure:"retry_past_due"`
	MaxUsagePerRequest int64         `mapstructure:"max_usage_per_request"`
}

type AppPaymentGateway struct {
	Provider                string        `mapstructure:"provider"`
	Username                string        `mapstructure:"username"`
	ApiKey                  string        `mapstructure:"api_key"`
	BaseUrl                 string        `mapstructure:"base_url"`
	CallbackUrl             string        `mapstructure:"callback_url"`
	CallbackToken           string        `mapstructure:"callback_token"`
	ListEnablePaymentMethod string        `mapstructure:"list_enable_payment_method"`
	ListEnableSOF           string        `mapstructure:"list_enable_sof"`
	RequestTimeout          time.Duration `mapstructure:"request_timeout"`
	RequestsPerSecond       int           `mapstructure:"requests_per_second"`
}

type AppFraud struct {
	Enabled           bool          `mapstructure:"enabled"`
	ScoreThreshold    int           `mapstructure:"score_threshold"`
	HighAmount        money.Amount  `mapstructure:"high_amount"`
	VelocityWindow    time.Duration `mapstructure:"velocity_window"`
	VelocityMaxEvents int64         `mapstructure:"velocity_max_events"`
}

type AppEvents struct {
	Sinks            string `mapstructure:"sinks"`
	RabbitMQQueue    string `mapstructure:"rabbitmq_queue"`
	RabbitMQExchange string `mapstructure:"rabbitmq_exchange"`
	MongoCollection  string `mapstructure:"mongo_collection"`
	RedisChannel     string `mapstructure:"redis_channel"`
}
