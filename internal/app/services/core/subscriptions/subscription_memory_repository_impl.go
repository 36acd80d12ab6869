package subscriptions

import (
	"context"
	"sort"
	"sync"
	"time"

	"konsulin-wallet-service/internal/app/contracts"
	"konsulin-wallet-service/internal/app/models"
	"konsulin-wallet-service/internal/pkg/exceptions"

	"github.com/google/uuid"
)

type subscriptionMemoryRepository struct {
	mu            sync.RWMutex
	subscriptions map[string]models.Subscription
}

func NewSubscriptionMemoryRepository() contracts.SubscriptionRepository {
	return &subscriptionMemoryRepository{subscriptions: map[string]models.Subscription{}}
}

func (repo *subscriptionMemoryRepository) Create(ctx context.Context, subscription *models.Subscription) error {
	repo.mu.Lock()
	defer repo.mu.Unlock()

	if subscription.Status.IsOpen() {
		if open := repo.openFor(subscription.OwnerID); open != nil {
			return exceptions.ErrSubscriptionAlreadyExists(nil, subscription.OwnerID, open.ID)
		}
	}
	if subscription.ID == "" {
		subscription.ID = uuid.NewString()
	}
	subscription.Version = 1
	repo.subscriptions[subscription.ID] = *cloneSubscription(subscription)
	return nil
}

func (repo *subscriptionMemoryRepository) FindByID(ctx context.Context, subscriptionID string) (*models.Subscription, error) {
	repo.mu.RLock()
	defer repo.mu.RUnlock()

	subscription, ok := repo.subscriptions[subscriptionID]
	if !ok {
		return nil, exceptions.ErrSubscriptionNotFound(nil, subscriptionID)
	}
	return cloneSubscription(&subscription), nil
}

func (repo *subscriptionMemoryRepository) FindOpenByOwnerID(ctx context.Context, ownerID string) (*models.Subscription, error) {
	repo.mu.RLock()
	defer repo.mu.RUnlock()

	open := repo.openFor(ownerID)
	if open == nil {
		return nil, exceptions.ErrSubscriptionNotFound(nil, ownerID)
	}
	return cloneSubscription(open), nil
}

func (repo *subscriptionMemoryRepository) Update(ctx context.Context, subscription *models.Subscription) error {
	repo.mu.Lock()
	defer repo.mu.Unlock()

	stored, ok := repo.subscriptions[subscription.ID]
	if !ok {
		return exceptions.ErrSubscriptionNotFound(nil, subscription.ID)
	}
	if stored.Version != subscription.Version {
		return exceptions.ErrStateConflict("subscription", subscription.ID, string(subscription.Status))
	}

	subscription.Version++
	repo.subscriptions[subscription.ID] = *cloneSubscription(subscription)
	return nil
}

func (repo *subscriptionMemoryRepository) ListDueForBilling(ctx context.Context, now time.Time, includePastDue bool, limit int) ([]models.Subscription, error) {
	return repo.list(limit, func(s *models.Subscription) bool {
		if !s.AutoRenew || s.NextBillingDate.After(now) {
			return false
		}
		return s.Status == models.SubscriptionStatusActive || (includePastDue && s.Status == models.SubscriptionStatusPastDue)
	}), nil
}

func (repo *subscriptionMemoryRepository) ListExpiryCandidates(ctx context.Context, now, pastDueCutoff time.Time, limit int) ([]models.Subscription, error) {
	return repo.list(limit, func(s *models.Subscription) bool {
		switch s.Status {
		case models.SubscriptionStatusTrial:
			return s.TrialEndDate != nil && !s.TrialEndDate.After(now)
		case models.SubscriptionStatusActive:
			return !s.AutoRenew && !s.EndDate.After(now)
		case models.SubscriptionStatusPastDue:
			return s.PastDueSince != nil && !s.PastDueSince.After(pastDueCutoff)
		}
		return false
	}), nil
}

func (repo *subscriptionMemoryRepository) list(limit int, match func(s *models.Subscription) bool) []models.Subscription {
	repo.mu.RLock()
	defer repo.mu.RUnlock()

	var matched []models.Subscription
	for id := range repo.subscriptions {
		subscription := repo.subscriptions[id]
		if match(&subscription) {
			matched = append(matched, *cloneSubscription(&subscription))
		}
	}
	sort.Slice(matched, func(i, j int) bool {
		if !matched[i].NextBillingDate.Equal(matched[j].NextBillingDate) {
			return matched[i].NextBillingDate.Before(matched[j].NextBillingDate)
		}
		return matched[i].ID < matched[j].ID
	})
	if limit > 0 && len(matched) > limit {
		matched = matched[:limit]
	}
	return matched
}

func (repo *subscriptionMemoryRepository) openFor(ownerID string) *models.Subscription {
	for id := range repo.subscriptions {
		subscription := repo.subscriptions[id]
		if subscription.OwnerID == ownerID && subscription.Status.IsOpen() {
			return &subscription
		}
	}
	return nil
}

func cloneSubscription(subscription *models.Subscription) *models.Subscription {
	clone := *subscription
	clone.UsageData = make(map[string]int64, len(subscription.UsageData))
	for resource, used := range subscription.UsageData {
		clone.UsageData[resource] = used
	}
	clone.TrialEndDate = cloneTime(subscription.TrialEndDate)
	clone.PastDueSince = cloneTime(subscription.PastDueSince)
	clone.CancelledAt = cloneTime(subscription.CancelledAt)
	return &clone
}

func cloneTime(at *time.Time) *time.Time {
	if at == nil {
		return nil
	}
	copied := *at
	return &copied
}
