package subscriptions

import (
	"context"
	"time"

	"konsulin-wallet-service/internal/app/models"
	"konsulin-wallet-service/internal/pkg/constvars"
	"konsulin-wallet-service/internal/pkg/dto/responses"
	"konsulin-wallet-service/internal/pkg/exceptions"
	"konsulin-wallet-service/internal/pkg/utils"

	"go.uber.org/zap"
)

type sweepOutcome int

const (
	outcomeSkipped sweepOutcome = iota
	outcomeSucceeded
	outcomeFailed
)

// sweepItem is the result of processing one subscription during a sweep.
type sweepItem struct {
	outcome sweepOutcome
	reason  string
}

func (r *sweepItem) fail(err error) {
	r.outcome = outcomeFailed
	r.reason = err.Error()
}

// ProcessRecurringBillings charges every subscription whose billing date has
// passed. Each item is handled under its own lock and failures never stop
// the sweep. Running it twice for the same period charges once: the charge
// reference is derived from the billing date.
func (uc *subscriptionUsecase) ProcessRecurringBillings(ctx context.Context) (*responses.SweepReport, error) {
	requestID := utils.GetRequestID(ctx)
	subscriptionConfig := uc.InternalConfig.Subscription
	now := uc.now()
	uc.Log.Info("subscriptionUsecase.ProcessRecurringBillings called",
		zap.String(constvars.LoggingRequestIDKey, requestID),
		zap.Time("now", now),
	)

	due, err := uc.SubscriptionRepository.ListDueForBilling(ctx, now, subscriptionConfig.RetryPastDue, subscriptionConfig.SweepBatchSize)
	if err != nil {
		uc.Log.Error("subscriptionUsecase.ProcessRecurringBillings error listing due subscriptions",
			zap.String(constvars.LoggingRequestIDKey, requestID),
			zap.Error(err),
		)
		return nil, err
	}

	report := responses.NewSweepReport(now)
	for i := range due {
		uc.record(ctx, report, due[i].ID, uc.renew(ctx, due[i].ID, now))
	}
	report.FinishedAt = uc.now()

	uc.Log.Info("subscriptionUsecase.ProcessRecurringBillings finished",
		zap.String(constvars.LoggingRequestIDKey, requestID),
		zap.Int("processed", report.Processed),
		zap.Int("succeeded", report.Succeeded),
		zap.Int("failed", report.Failed),
		zap.Int("skipped", report.Skipped),
	)
	return report, nil
}

func (uc *subscriptionUsecase) renew(ctx context.Context, subscriptionID string, now time.Time) sweepItem {
	var item sweepItem
	err := uc.withSubscriptionLock(ctx, subscriptionID, func() error {
		subscription, err := uc.SubscriptionRepository.FindByID(ctx, subscriptionID)
		if err != nil {
			return err
		}
		if !subscription.DueForBilling(now) {
			return nil
		}
		if subscription.Status == models.SubscriptionStatusPastDue && !uc.InternalConfig.Subscription.RetryPastDue {
			return nil
		}
		item, err = uc.billCycle(ctx, subscription, now)
		return err
	})
	if err != nil {
		item.fail(err)
	}
	return item
}

// ProcessExpirations closes subscriptions that have run out: non-renewing
// subscriptions past their end date, trials past their end (converted to a
// paid cycle when auto-renew is on) and past_due subscriptions beyond the
// grace period.
func (uc *subscriptionUsecase) ProcessExpirations(ctx context.Context) (*responses.SweepReport, error) {
	requestID := utils.GetRequestID(ctx)
	subscriptionConfig := uc.InternalConfig.Subscription
	now := uc.now()
	cutoff := now.AddDate(0, 0, -subscriptionConfig.PastDueGraceDays)
	uc.Log.Info("subscriptionUsecase.ProcessExpirations called",
		zap.String(constvars.LoggingRequestIDKey, requestID),
		zap.Time("now", now),
		zap.Time("past_due_cutoff", cutoff),
	)

	candidates, err := uc.SubscriptionRepository.ListExpiryCandidates(ctx, now, cutoff, subscriptionConfig.SweepBatchSize)
	if err != nil {
		uc.Log.Error("subscriptionUsecase.ProcessExpirations error listing candidates",
			zap.String(constvars.LoggingRequestIDKey, requestID),
			zap.Error(err),
		)
		return nil, err
	}

	report := responses.NewSweepReport(now)
	for i := range candidates {
		uc.record(ctx, report, candidates[i].ID, uc.expire(ctx, candidates[i].ID, now, cutoff))
	}
	report.FinishedAt = uc.now()

	uc.Log.Info("subscriptionUsecase.ProcessExpirations finished",
		zap.String(constvars.LoggingRequestIDKey, requestID),
		zap.Int("processed", report.Processed),
		zap.Int("succeeded", report.Succeeded),
		zap.Int("failed", report.Failed),
		zap.Int("skipped", report.Skipped),
	)
	return report, nil
}

func (uc *subscriptionUsecase) expire(ctx context.Context, subscriptionID string, now, pastDueCutoff time.Time) sweepItem {
	var item sweepItem
	err := uc.withSubscriptionLock(ctx, subscriptionID, func() error {
		subscription, err := uc.SubscriptionRepository.FindByID(ctx, subscriptionID)
		if err != nil {
			return err
		}

		switch {
		case subscription.Status == models.SubscriptionStatusTrial &&
			subscription.TrialEndDate != nil && !subscription.TrialEndDate.After(now):
			if subscription.AutoRenew {
				item, err = uc.billCycle(ctx, subscription, now)
				return err
			}
		case subscription.Status == models.SubscriptionStatusActive &&
			!subscription.AutoRenew && !subscription.EndDate.After(now):
		case subscription.Status == models.SubscriptionStatusPastDue &&
			subscription.PastDueSince != nil && !subscription.PastDueSince.After(pastDueCutoff):
		default:
			return nil
		}

		item.outcome = outcomeSucceeded
		return uc.moveTo(ctx, subscription, models.SubscriptionStatusExpired, now)
	})
	if err != nil {
		item.fail(err)
	}
	return item
}

// billCycle charges the next cycle and activates the subscription. A refused
// charge moves it to past_due; a transient failure leaves it untouched for
// the next sweep.
func (uc *subscriptionUsecase) billCycle(ctx context.Context, subscription *models.Subscription, now time.Time) (sweepItem, error) {
	plan, err := uc.PlanUsecase.GetPlan(ctx, subscription.PlanID)
	if err != nil {
		return sweepItem{}, err
	}

	oldStatus := subscription.Status
	reference := chargeReference(subscription.ID, subscription.NextBillingDate)
	_, chargeErr := uc.charge(ctx, subscription, plan.PriceFor(subscription.BillingCycle), reference, "renewal "+plan.Code)
	if chargeErr != nil && exceptions.IsRetryable(chargeErr) {
		return sweepItem{}, chargeErr
	}

	if chargeErr != nil {
		uc.Log.Warn("subscriptionUsecase.billCycle charge refused",
			zap.String(constvars.LoggingRequestIDKey, utils.GetRequestID(ctx)),
			zap.String(constvars.LoggingSubscriptionIDKey, subscription.ID),
			zap.String(constvars.LoggingReferenceKey, reference),
			zap.Error(chargeErr),
		)
		subscription.FailureReason = chargeErr.Error()
		if subscription.Status != models.SubscriptionStatusPastDue {
			subscription.Status = models.SubscriptionStatusPastDue
			subscription.PastDueSince = &now
		}
		subscription.SetUpdatedAt(now)
		if err := uc.SubscriptionRepository.Update(ctx, subscription); err != nil {
			return sweepItem{}, err
		}
		if subscription.Status != oldStatus {
			uc.publish(ctx, newSubscriptionEvent(subscription, oldStatus))
		}
		return sweepItem{outcome: outcomeFailed, reason: subscription.FailureReason}, nil
	}

	subscription.Status = models.SubscriptionStatusActive
	subscription.Extend(now)
	if err := uc.SubscriptionRepository.Update(ctx, subscription); err != nil {
		return sweepItem{}, err
	}
	if oldStatus != subscription.Status {
		uc.publish(ctx, newSubscriptionEvent(subscription, oldStatus))
	}
	return sweepItem{outcome: outcomeSucceeded}, nil
}

func (uc *subscriptionUsecase) moveTo(ctx context.Context, subscription *models.Subscription, next models.SubscriptionStatus, now time.Time) error {
	oldStatus := subscription.Status
	if !oldStatus.CanTransitionTo(next) {
		return exceptions.ErrInvalidStateTransition("subscription", string(oldStatus), string(next))
	}
	subscription.Status = next
	subscription.AutoRenew = false
	subscription.SetUpdatedAt(now)
	if err := uc.SubscriptionRepository.Update(ctx, subscription); err != nil {
		return err
	}
	uc.publish(ctx, newSubscriptionEvent(subscription, oldStatus))
	return nil
}

func (uc *subscriptionUsecase) record(ctx context.Context, report *responses.SweepReport, subscriptionID string, item sweepItem) {
	report.Processed++
	switch item.outcome {
	case outcomeSkipped:
		report.Skipped++
	case outcomeSucceeded:
		report.Succeeded++
	case outcomeFailed:
		report.Fail(subscriptionID, item.reason)
		uc.Log.Warn("subscriptionUsecase sweep item failed",
			zap.String(constvars.LoggingRequestIDKey, utils.GetRequestID(ctx)),
			zap.String(constvars.LoggingSubscriptionIDKey, subscriptionID),
			zap.String(constvars.LoggingErrorMessageKey, item.reason),
		)
	}
}
