package subscriptions

import (
	"context"
	"database/sql"
	"errors"
	"sync"
	"time"

	"konsulin-wallet-service/internal/app/contracts"
	"konsulin-wallet-service/internal/app/models"
	"konsulin-wallet-service/internal/pkg/constvars"
	"konsulin-wallet-service/internal/pkg/exceptions"
	"konsulin-wallet-service/internal/pkg/queries"
	"konsulin-wallet-service/internal/pkg/utils"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/lib/pq"
	"go.uber.org/zap"
)

const pgUniqueViolation = "23505"

type subscriptionPostgresRepository struct {
	DB  *sql.DB
	Log *zap.Logger
}

var (
	subscriptionPostgresRepositoryInstance contracts.SubscriptionRepository
	onceSubscriptionPostgresRepository     sync.Once
)

func NewSubscriptionPostgresRepository(db *sql.DB, logger *zap.Logger) contracts.SubscriptionRepository {
	onceSubscriptionPostgresRepository.Do(func() {
		instance := &subscriptionPostgresRepository{
			DB:  db,
			Log: logger,
		}
		subscriptionPostgresRepositoryInstance = instance
	})
	return subscriptionPostgresRepositoryInstance
}

func (repo *subscriptionPostgresRepository) Create(ctx context.Context, subscription *models.Subscription) error {
	requestID := utils.GetRequestID(ctx)
	repo.Log.Info("subscriptionPostgresRepository.Create called",
		zap.String(constvars.LoggingRequestIDKey, requestID),
		zap.String(constvars.LoggingOwnerIDKey, subscription.OwnerID),
	)

	if subscription.ID == "" {
		subscription.ID = uuid.NewString()
	}
	usage, err := json.Marshal(subscription.UsageData)
	if err != nil {
		return exceptions.ErrCannotMarshalJSON(err)
	}

	_, err = repo.DB.ExecContext(ctx, queries.InsertSubscription,
		subscription.ID,
		subscription.OwnerID,
		subscription.WalletID,
		subscription.PlanID,
		subscription.Status,
		subscription.BillingCycle,
		subscription.PaymentMethod,
		subscription.TrialEndDate,
		subscription.StartDate,
		subscription.EndDate,
		subscription.NextBillingDate,
		subscription.AutoRenew,
		usage,
		subscription.PastDueSince,
		subscription.FailureReason,
		subscription.CancelledAt,
		subscription.CancellationReason,
		1,
		subscription.CreatedAt,
		subscription.UpdatedAt,
	)
	if isUniqueViolation(err) {
		repo.Log.Warn("subscriptionPostgresRepository.Create owner already subscribed",
			zap.String(constvars.LoggingRequestIDKey, requestID),
			zap.String(constvars.LoggingOwnerIDKey, subscription.OwnerID),
		)
		return exceptions.ErrSubscriptionAlreadyExists(err, subscription.OwnerID, "")
	} else if err != nil {
		repo.Log.Error("subscriptionPostgresRepository.Create error executing query",
			zap.String(constvars.LoggingRequestIDKey, requestID),
			zap.Error(err),
		)
		return exceptions.ErrPostgresQuery(err)
	}

	subscription.Version = 1
	return nil
}

func (repo *subscriptionPostgresRepository) FindByID(ctx context.Context, subscriptionID string) (*models.Subscription, error) {
	subscription, err := scanSubscription(repo.DB.QueryRowContext(ctx, queries.GetSubscriptionByID, subscriptionID))
	if err == sql.ErrNoRows {
		return nil, exceptions.ErrSubscriptionNotFound(err, subscriptionID)
	} else if err != nil {
		repo.Log.Error("subscriptionPostgresRepository.FindByID error executing query",
			zap.String(constvars.LoggingRequestIDKey, utils.GetRequestID(ctx)),
			zap.String(constvars.LoggingSubscriptionIDKey, subscriptionID),
			zap.Error(err),
		)
		return nil, exceptions.ErrPostgresQuery(err)
	}
	return subscription, nil
}

func (repo *subscriptionPostgresRepository) FindOpenByOwnerID(ctx context.Context, ownerID string) (*models.Subscription, error) {
	subscription, err := scanSubscription(repo.DB.QueryRowContext(ctx, queries.GetOpenSubscriptionByOwnerID, ownerID))
	if err == sql.ErrNoRows {
		return nil, exceptions.ErrSubscriptionNotFound(err, ownerID)
	} else if err != nil {
		repo.Log.Error("subscriptionPostgresRepository.FindOpenByOwnerID error executing query",
			zap.String(constvars.LoggingRequestIDKey, utils.GetRequestID(ctx)),
			zap.String(constvars.LoggingOwnerIDKey, ownerID),
			zap.Error(err),
		)
		return nil, exceptions.ErrPostgresQuery(err)
	}
	return subscription, nil
}

func (repo *subscriptionPostgresRepository) Update(ctx context.Context, subscription *models.Subscription) error {
	requestID := utils.GetRequestID(ctx)
	usage, err := json.Marshal(subscription.UsageData)
	if err != nil {
		return exceptions.ErrCannotMarshalJSON(err)
	}

	result, err := repo.DB.ExecContext(ctx, queries.UpdateSubscription,
		subscription.ID,
		subscription.PlanID,
		subscription.Status,
		subscription.TrialEndDate,
		subscription.EndDate,
		subscription.NextBillingDate,
		subscription.AutoRenew,
		usage,
		subscription.PastDueSince,
		subscription.FailureReason,
		subscription.CancelledAt,
		subscription.CancellationReason,
		subscription.UpdatedAt,
		subscription.Version,
	)
	if err != nil {
		repo.Log.Error("subscriptionPostgresRepository.Update error executing query",
			zap.String(constvars.LoggingRequestIDKey, requestID),
			zap.String(constvars.LoggingSubscriptionIDKey, subscription.ID),
			zap.Error(err),
		)
		return exceptions.ErrPostgresQuery(err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return exceptions.ErrPostgresQuery(err)
	}
	if affected == 0 {
		if _, err := repo.FindByID(ctx, subscription.ID); err != nil {
			return err
		}
		repo.Log.Warn("subscriptionPostgresRepository.Update version conflict",
			zap.String(constvars.LoggingRequestIDKey, requestID),
			zap.String(constvars.LoggingSubscriptionIDKey, subscription.ID),
			zap.Int64("version", subscription.Version),
		)
		return exceptions.ErrStateConflict("subscription", subscription.ID, string(subscription.Status))
	}

	subscription.Version++
	return nil
}

func (repo *subscriptionPostgresRepository) ListDueForBilling(ctx context.Context, now time.Time, includePastDue bool, limit int) ([]models.Subscription, error) {
	return repo.list(ctx, "ListDueForBilling", queries.ListSubscriptionsDueForBilling, now, includePastDue, limit)
}

func (repo *subscriptionPostgresRepository) ListExpiryCandidates(ctx context.Context, now, pastDueCutoff time.Time, limit int) ([]models.Subscription, error) {
	return repo.list(ctx, "ListExpiryCandidates", queries.ListSubscriptionExpiryCandidates, now, pastDueCutoff, limit)
}

func (repo *subscriptionPostgresRepository) list(ctx context.Context, operation, query string, args ...interface{}) ([]models.Subscription, error) {
	requestID := utils.GetRequestID(ctx)
	rows, err := repo.DB.QueryContext(ctx, query, args...)
	if err != nil {
		repo.Log.Error("subscriptionPostgresRepository.list error executing query",
			zap.String(constvars.LoggingRequestIDKey, requestID),
			zap.String(constvars.LoggingOperationKey, operation),
			zap.Error(err),
		)
		return nil, exceptions.ErrPostgresQuery(err)
	}
	defer rows.Close()

	var subscriptions []models.Subscription
	for rows.Next() {
		subscription, err := scanSubscription(rows)
		if err != nil {
			return nil, exceptions.ErrPostgresQuery(err)
		}
		subscriptions = append(subscriptions, *subscription)
	}
	if err := rows.Err(); err != nil {
		return nil, exceptions.ErrPostgresQuery(err)
	}

	repo.Log.Info("subscriptionPostgresRepository.list succeeded",
		zap.String(constvars.LoggingRequestIDKey, requestID),
		zap.String(constvars.LoggingOperationKey, operation),
		zap.Int(constvars.LoggingCountKey, len(subscriptions)),
	)
	return subscriptions, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanSubscription(row rowScanner) (*models.Subscription, error) {
	var (
		subscription models.Subscription
		trialEndDate sql.NullTime
		pastDueSince sql.NullTime
		cancelledAt  sql.NullTime
		usage        []byte
	)
	err := row.Scan(
		&subscription.ID,
		&subscription.OwnerID,
		&subscription.WalletID,
		&subscription.PlanID,
		&subscription.Status,
		&subscription.BillingCycle,
		&subscription.PaymentMethod,
		&trialEndDate,
		&subscription.StartDate,
		&subscription.EndDate,
		&subscription.NextBillingDate,
		&subscription.AutoRenew,
		&usage,
		&pastDueSince,
		&subscription.FailureReason,
		&cancelledAt,
		&subscription.CancellationReason,
		&subscription.Version,
		&subscription.CreatedAt,
		&subscription.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	subscription.TrialEndDate = nullableTime(trialEndDate)
	subscription.PastDueSince = nullableTime(pastDueSince)
	subscription.CancelledAt = nullableTime(cancelledAt)
	subscription.UsageData = map[string]int64{}
	if len(usage) > 0 {
		if err := json.Unmarshal(usage, &subscription.UsageData); err != nil {
			return nil, err
		}
	}
	return &subscription, nil
}

func nullableTime(value sql.NullTime) *time.Time {
	if !value.Valid {
		return nil
	}
	return &value.Time
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && string(pqErr.Code) == pgUniqueViolation
}
