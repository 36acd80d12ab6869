package contracts

import (
	"context"
	"time"

	"konsulin-wallet-service/internal/app/models"
	"konsulin-wallet-service/internal/pkg/dto/requests"
	"konsulin-wallet-service/internal/pkg/dto/responses"
	"konsulin-wallet-service/internal/pkg/money"
)

type SubscriptionRepository interface {
	Create(ctx context.Context, subscription *models.Subscription) error
	FindByID(ctx context.Context, subscriptionID string) (*models.Subscription, error)
	FindOpenByOwnerID(ctx context.Context, ownerID string) (*models.Subscription, error)
	// Update succeeds only if the stored version equals subscription.Version,
	// then bumps the version on both sides.
	Update(ctx context.Context, subscription *models.Subscription) error
	ListDueForBilling(ctx context.Context, now time.Time, includePastDue bool, limit int) ([]models.Subscription, error)
	ListExpiryCandidates(ctx context.Context, now, pastDueCutoff time.Time, limit int) ([]models.Subscription, error)
}

type SubscriptionUsecase interface {
	CreateSubscription(ctx context.Context, request *requests.CreateSubscription) (*models.Subscription, error)
	GetSubscription(ctx context.Context, subscriptionID string) (*models.Subscription, error)
	GetActiveSubscription(ctx context.Context, ownerID string) (*models.Subscription, error)
	UpgradeSubscription(ctx context.Context, subscriptionID string, request *requests.UpgradeSubscription) (*responses.Upgrade, error)
	CancelSubscription(ctx context.Context, subscriptionID string, request *requests.CancelSubscription) (*models.Subscription, error)
	CheckUsageLimit(ctx context.Context, ownerID, resource string, amount int64) (bool, error)
	RecordUsage(ctx context.Context, ownerID, resource string, amount int64) (*models.Subscription, error)
	ProcessRecurringBillings(ctx context.Context) (*responses.SweepReport, error)
	ProcessExpirations(ctx context.Context) (*responses.SweepReport, error)
	ResolveCommissionRate(ctx context.Context, practitionerID string) (money.Rate, error)
}
