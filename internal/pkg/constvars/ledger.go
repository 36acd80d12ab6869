package constvars

import "time"

const (
	ReferencePrefixDeposit      = "DEP"
	ReferencePrefixWithdrawal   = "WDR"
	ReferencePrefixTransfer     = "TRF"
	ReferencePrefixCommission   = "COM"
	ReferencePrefixRefund       = "RFD"
	ReferencePrefixSubscription = "SUB"
	ReferencePrefixCharge       = "CHG"
	ReferencePrefixGiftCredit   = "GFT"
	ReferenceTimestampLayout    = "20060102150405"
	ReferenceRandomSuffixLength = 6
	ChargeRetryReferenceFormat  = "%s-R%d"
	MaxChargeRetries            = 10
)

const (
	RefundableState  = "refundable"
	CancellableState = "cancellable"
)

const (
	DefaultCurrency               = "IDR"
	DefaultCommissionRate         = "0.05"
	DefaultDailyWithdrawalLimit   = 10_000_000
	DefaultMonthlyWithdrawalLimit = 100_000_000
	DefaultVerificationThreshold  = 5_000_000
	DefaultMinimumWithdrawal      = 10_000
	DefaultReferenceAttempts      = 5
	DefaultLockTimeout            = 5 * time.Second
)

const (
	MonthlyCycleDays       = 30
	YearlyCycleDays        = 365
	DefaultTrialDays       = 14
	DefaultPastDueGraceDay = 7
	UsageLimitSuffix       = "_monthly"
	UsageLimitUnlimited    = -1
)

const (
	PlatformOwnerID = "platform"
)

const (
	EventExchangeLedger       = "konsulin.ledger"
	EventRoutingKeyPrefix     = "ledger."
	EventRedisChannel         = "konsulin:ledger:events"
	EventMongoCollectionAudit = "ledger_events"
)

const (
	LockKeySubscriptionFormat      = "lock:subscription:%s"
	LockKeySubscriptionOwnerFormat = "lock:subscription-owner:%s"
	LockKeyWorkerFormat            = "lock:worker:%s"
	FraudVelocityKeyFormat         = "fraud:velocity:%s:%s"
)

const (
	SubscriptionChargeReferenceFormat  = "SUB-%s-%s"
	SubscriptionUpgradeReferenceFormat = "SUB-%s-UPG-%s"
	SubscriptionReferenceDateLayout    = "20060102"
	WorkerNameBilling                  = "subscription-billing"
)
