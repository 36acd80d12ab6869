package subscriptions

import (
	"context"
	"errors"
	"fmt"
	"time"

	"konsulin-wallet-service/internal/app/config"
	"konsulin-wallet-service/internal/app/contracts"
	"konsulin-wallet-service/internal/app/models"
	"konsulin-wallet-service/internal/pkg/constvars"
	"konsulin-wallet-service/internal/pkg/dto/requests"
	"konsulin-wallet-service/internal/pkg/dto/responses"
	"konsulin-wallet-service/internal/pkg/exceptions"
	"konsulin-wallet-service/internal/pkg/money"
	"konsulin-wallet-service/internal/pkg/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type subscriptionUsecase struct {
	SubscriptionRepository contracts.SubscriptionRepository
	PlanUsecase            contracts.PlanUsecase
	WalletUsecase          contracts.WalletUsecase
	LockerService          contracts.LockerService
	EventPublisher         contracts.EventPublisher
	InternalConfig         *config.InternalConfig
	Log                    *zap.Logger

	now func() time.Time
}

func NewSubscriptionUsecase(
	subscriptionRepository contracts.SubscriptionRepository,
	planUsecase contracts.PlanUsecase,
	walletUsecase contracts.WalletUsecase,
	lockerService contracts.LockerService,
	eventPublisher contracts.EventPublisher,
	internalConfig *config.InternalConfig,
	logger *zap.Logger,
) contracts.SubscriptionUsecase {
	return &subscriptionUsecase{
		SubscriptionRepository: subscriptionRepository,
		PlanUsecase:            planUsecase,
		WalletUsecase:          walletUsecase,
		LockerService:          lockerService,
		EventPublisher:         eventPublisher,
		InternalConfig:         internalConfig,
		Log:                    logger,
		now:                    time.Now,
	}
}

func (uc *subscriptionUsecase) CreateSubscription(ctx context.Context, request *requests.CreateSubscription) (*models.Subscription, error) {
	requestID := utils.GetRequestID(ctx)
	uc.Log.Info("subscriptionUsecase.CreateSubscription called",
		zap.String(constvars.LoggingRequestIDKey, requestID),
		zap.String(constvars.LoggingOwnerIDKey, request.OwnerID),
		zap.String(constvars.LoggingPlanIDKey, request.PlanID),
	)

	cycle := models.BillingCycle(request.BillingCycle)
	if !cycle.IsValid() {
		return nil, exceptions.ErrInvalidBillingCycle(request.BillingCycle)
	}
	paymentMethod := request.PaymentMethod
	if paymentMethod == "" {
		paymentMethod = models.PaymentMethodWallet
	}
	if paymentMethod != models.PaymentMethodWallet {
		return nil, exceptions.ErrUnsupportedPaymentMethod(paymentMethod)
	}

	plan, err := uc.PlanUsecase.GetPlan(ctx, request.PlanID)
	if err != nil {
		return nil, err
	}
	if !plan.IsActive {
		return nil, exceptions.ErrPlanNotFound(nil, request.PlanID)
	}
	wallet, err := uc.WalletUsecase.GetWalletByOwner(ctx, request.OwnerID)
	if err != nil {
		return nil, err
	}

	var created *models.Subscription
	ownerLock := fmt.Sprintf(constvars.LockKeySubscriptionOwnerFormat, request.OwnerID)
	err = uc.withLock(ctx, ownerLock, func() error {
		if open, err := uc.SubscriptionRepository.FindOpenByOwnerID(ctx, request.OwnerID); err == nil {
			return exceptions.ErrSubscriptionAlreadyExists(nil, request.OwnerID, open.ID)
		} else if !errors.Is(err, exceptions.ErrNotFound) {
			return err
		}

		now := uc.now()
		subscription := &models.Subscription{
			ID:            uuid.NewString(),
			OwnerID:       request.OwnerID,
			WalletID:      wallet.ID,
			PlanID:        plan.ID,
			BillingCycle:  cycle,
			PaymentMethod: paymentMethod,
			StartDate:     now,
			AutoRenew:     request.AutoRenew == nil || *request.AutoRenew,
			UsageData:     map[string]int64{},
		}
		subscription.SetCreatedAtUpdatedAt(now)

		var charge *models.Transaction
		if uc.trialEligible(request, plan) {
			trialEnd := now.AddDate(0, 0, uc.InternalConfig.Subscription.TrialDays)
			subscription.Status = models.SubscriptionStatusTrial
			subscription.TrialEndDate = &trialEnd
			subscription.EndDate = trialEnd
			subscription.NextBillingDate = trialEnd
		} else {
			charge, err = uc.charge(ctx, subscription, plan.PriceFor(cycle), chargeReference(subscription.ID, now), "subscription "+plan.Code)
			if err != nil {
				return err
			}
			end := now.AddDate(0, 0, cycle.Days())
			subscription.Status = models.SubscriptionStatusActive
			subscription.EndDate = end
			subscription.NextBillingDate = end
		}

		if err := uc.SubscriptionRepository.Create(ctx, subscription); err != nil {
			uc.reverseCharge(ctx, charge, "subscription not created")
			return err
		}
		created = subscription
		return nil
	})
	if err != nil {
		uc.Log.Error("subscriptionUsecase.CreateSubscription error",
			zap.String(constvars.LoggingRequestIDKey, requestID),
			zap.String(constvars.LoggingOwnerIDKey, request.OwnerID),
			zap.Error(err),
		)
		return nil, err
	}

	uc.publish(ctx, newSubscriptionEvent(created, ""))
	uc.Log.Info("subscriptionUsecase.CreateSubscription succeeded",
		zap.String(constvars.LoggingRequestIDKey, requestID),
		zap.String(constvars.LoggingSubscriptionIDKey, created.ID),
		zap.String(constvars.LoggingStatusKey, string(created.Status)),
	)
	return created, nil
}

// trialEligible applies the trial policy: patient plans only, on request,
// when a trial length is configured.
func (uc *subscriptionUsecase) trialEligible(request *requests.CreateSubscription, plan *models.Plan) bool {
	return request.StartTrial && plan.Type == models.PlanTypePatient && uc.InternalConfig.Subscription.TrialDays > 0
}

func (uc *subscriptionUsecase) GetSubscription(ctx context.Context, subscriptionID string) (*models.Subscription, error) {
	uc.Log.Info("subscriptionUsecase.GetSubscription called",
		zap.String(constvars.LoggingRequestIDKey, utils.GetRequestID(ctx)),
		zap.String(constvars.LoggingSubscriptionIDKey, subscriptionID),
	)
	return uc.SubscriptionRepository.FindByID(ctx, subscriptionID)
}

func (uc *subscriptionUsecase) GetActiveSubscription(ctx context.Context, ownerID string) (*models.Subscription, error) {
	uc.Log.Info("subscriptionUsecase.GetActiveSubscription called",
		zap.String(constvars.LoggingRequestIDKey, utils.GetRequestID(ctx)),
		zap.String(constvars.LoggingOwnerIDKey, ownerID),
	)
	return uc.SubscriptionRepository.FindOpenByOwnerID(ctx, ownerID)
}

// UpgradeSubscription moves an active subscription to a more expensive plan.
// The unused part of the current cycle is credited against the new price and
// only the difference is charged.
func (uc *subscriptionUsecase) UpgradeSubscription(ctx context.Context, subscriptionID string, request *requests.UpgradeSubscription) (*responses.Upgrade, error) {
	requestID := utils.GetRequestID(ctx)
	uc.Log.Info("subscriptionUsecase.UpgradeSubscription called",
		zap.String(constvars.LoggingRequestIDKey, requestID),
		zap.String(constvars.LoggingSubscriptionIDKey, subscriptionID),
		zap.String(constvars.LoggingPlanIDKey, request.PlanID),
	)

	newPlan, err := uc.PlanUsecase.GetPlan(ctx, request.PlanID)
	if err != nil {
		return nil, err
	}
	if !newPlan.IsActive {
		return nil, exceptions.ErrPlanNotFound(nil, request.PlanID)
	}

	result := &responses.Upgrade{}
	err = uc.withSubscriptionLock(ctx, subscriptionID, func() error {
		subscription, err := uc.SubscriptionRepository.FindByID(ctx, subscriptionID)
		if err != nil {
			return err
		}
		if subscription.Status != models.SubscriptionStatusActive {
			return exceptions.ErrStateConflict("subscription", subscription.ID, string(models.SubscriptionStatusActive))
		}
		currentPlan, err := uc.PlanUsecase.GetPlan(ctx, subscription.PlanID)
		if err != nil {
			return err
		}

		oldPrice := currentPlan.PriceFor(subscription.BillingCycle)
		newPrice := newPlan.PriceFor(subscription.BillingCycle)
		if newPlan.Type != currentPlan.Type || newPrice <= oldPrice {
			return exceptions.ErrInvalidUpgrade(newPlan.ID, newPrice, oldPrice)
		}

		now := uc.now()
		cycleDays := subscription.BillingCycle.Days()
		result.RemainingCredit = money.Prorate(oldPrice, daysRemaining(subscription.EndDate, now, cycleDays), cycleDays)
		result.AmountDue = newPrice - result.RemainingCredit

		if result.AmountDue > 0 {
			reference := fmt.Sprintf(constvars.SubscriptionUpgradeReferenceFormat, subscription.ID, now.UTC().Format(constvars.ReferenceTimestampLayout))
			result.Charge, err = uc.charge(ctx, subscription, result.AmountDue, reference, "upgrade to "+newPlan.Code)
			if err != nil {
				return err
			}
		}

		subscription.PlanID = newPlan.ID
		subscription.UsageData = map[string]int64{}
		subscription.SetUpdatedAt(now)
		if err := uc.SubscriptionRepository.Update(ctx, subscription); err != nil {
			uc.reverseCharge(ctx, result.Charge, "upgrade not applied")
			return err
		}
		result.Subscription = subscription
		return nil
	})
	if err != nil {
		uc.Log.Error("subscriptionUsecase.UpgradeSubscription error",
			zap.String(constvars.LoggingRequestIDKey, requestID),
			zap.String(constvars.LoggingSubscriptionIDKey, subscriptionID),
			zap.Error(err),
		)
		return nil, err
	}

	uc.Log.Info("subscriptionUsecase.UpgradeSubscription succeeded",
		zap.String(constvars.LoggingRequestIDKey, requestID),
		zap.String(constvars.LoggingSubscriptionIDKey, subscriptionID),
		zap.Int64("remaining_credit", result.RemainingCredit.Int64()),
		zap.Int64("amount_due", result.AmountDue.Int64()),
	)
	return result, nil
}

// daysRemaining counts whole days left before end, clamped to [0, cycleDays].
func daysRemaining(end, now time.Time, cycleDays int) int {
	days := int(end.Sub(now) / (24 * time.Hour))
	if days < 0 {
		return 0
	}
	if days > cycleDays {
		return cycleDays
	}
	return days
}

func (uc *subscriptionUsecase) CancelSubscription(ctx context.Context, subscriptionID string, request *requests.CancelSubscription) (*models.Subscription, error) {
	requestID := utils.GetRequestID(ctx)
	uc.Log.Info("subscriptionUsecase.CancelSubscription called",
		zap.String(constvars.LoggingRequestIDKey, requestID),
		zap.String(constvars.LoggingSubscriptionIDKey, subscriptionID),
		zap.Bool("immediate", request.Immediate),
	)

	var (
		cancelled *models.Subscription
		oldStatus models.SubscriptionStatus
	)
	err := uc.withSubscriptionLock(ctx, subscriptionID, func() error {
		subscription, err := uc.SubscriptionRepository.FindByID(ctx, subscriptionID)
		if err != nil {
			return err
		}
		oldStatus = subscription.Status
		if subscription.Status.IsTerminal() {
			return exceptions.ErrInvalidStateTransition("subscription", string(subscription.Status), string(models.SubscriptionStatusCancelled))
		}

		now := uc.now()
		subscription.AutoRenew = false
		subscription.CancellationReason = request.Reason
		if request.Immediate {
			subscription.Status = models.SubscriptionStatusCancelled
			subscription.EndDate = now
			subscription.CancelledAt = &now
		}
		subscription.SetUpdatedAt(now)

		if err := uc.SubscriptionRepository.Update(ctx, subscription); err != nil {
			return err
		}
		cancelled = subscription
		return nil
	})
	if err != nil {
		uc.Log.Error("subscriptionUsecase.CancelSubscription error",
			zap.String(constvars.LoggingRequestIDKey, requestID),
			zap.String(constvars.LoggingSubscriptionIDKey, subscriptionID),
			zap.Error(err),
		)
		return nil, err
	}

	if cancelled.Status != oldStatus {
		uc.publish(ctx, newSubscriptionEvent(cancelled, oldStatus))
	}
	return cancelled, nil
}

// CheckUsageLimit reports whether amount more units of resource fit within
// the owner's current plan. Owners without a trial or active subscription
// get false.
func (uc *subscriptionUsecase) CheckUsageLimit(ctx context.Context, ownerID, resource string, amount int64) (bool, error) {
	uc.Log.Info("subscriptionUsecase.CheckUsageLimit called",
		zap.String(constvars.LoggingRequestIDKey, utils.GetRequestID(ctx)),
		zap.String(constvars.LoggingOwnerIDKey, ownerID),
		zap.String("resource", resource),
	)
	if amount == 0 {
		amount = 1
	}
	if amount < 0 {
		return false, exceptions.ErrInvalidAmount(money.Amount(amount))
	}

	subscription, err := uc.SubscriptionRepository.FindOpenByOwnerID(ctx, ownerID)
	if errors.Is(err, exceptions.ErrNotFound) {
		return false, nil
	} else if err != nil {
		return false, err
	}
	if !subscription.Status.GrantsAccess() {
		return false, nil
	}

	plan, err := uc.PlanUsecase.GetPlan(ctx, subscription.PlanID)
	if err != nil {
		return false, err
	}
	return withinLimit(plan, subscription, resource, amount), nil
}

func withinLimit(plan *models.Plan, subscription *models.Subscription, resource string, amount int64) bool {
	limit, limited := plan.Limit(resource)
	if !limited {
		return true
	}
	return subscription.UsageData[resource]+amount <= limit
}

// RecordUsage meters amount units of resource against the owner's open
// subscription.
func (uc *subscriptionUsecase) RecordUsage(ctx context.Context, ownerID, resource string, amount int64) (*models.Subscription, error) {
	requestID := utils.GetRequestID(ctx)
	uc.Log.Info("subscriptionUsecase.RecordUsage called",
		zap.String(constvars.LoggingRequestIDKey, requestID),
		zap.String(constvars.LoggingOwnerIDKey, ownerID),
		zap.String("resource", resource),
		zap.Int64(constvars.LoggingAmountKey, amount),
	)
	if amount == 0 {
		amount = 1
	}
	if maxUsage := uc.InternalConfig.Subscription.MaxUsagePerRequest; amount < 0 || (maxUsage > 0 && amount > maxUsage) {
		return nil, exceptions.ErrInvalidAmount(money.Amount(amount))
	}

	open, err := uc.SubscriptionRepository.FindOpenByOwnerID(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	var recorded *models.Subscription
	err = uc.withSubscriptionLock(ctx, open.ID, func() error {
		subscription, err := uc.SubscriptionRepository.FindByID(ctx, open.ID)
		if err != nil {
			return err
		}
		plan, err := uc.PlanUsecase.GetPlan(ctx, subscription.PlanID)
		if err != nil {
			return err
		}
		limit, _ := plan.Limit(resource)
		if !subscription.Status.GrantsAccess() || !withinLimit(plan, subscription, resource, amount) {
			return exceptions.ErrUsageLimitExceeded(resource, limit)
		}

		if subscription.UsageData == nil {
			subscription.UsageData = map[string]int64{}
		}
		subscription.UsageData[resource] += amount
		subscription.SetUpdatedAt(uc.now())
		if err := uc.SubscriptionRepository.Update(ctx, subscription); err != nil {
			return err
		}
		recorded = subscription
		return nil
	})
	if err != nil {
		uc.Log.Warn("subscriptionUsecase.RecordUsage rejected",
			zap.String(constvars.LoggingRequestIDKey, requestID),
			zap.String(constvars.LoggingOwnerIDKey, ownerID),
			zap.Error(err),
		)
		return nil, err
	}
	return recorded, nil
}

// ResolveCommissionRate returns the commission the platform takes on a
// consultation with practitionerID: their plan's rate while the subscription
// grants access, the configured default otherwise.
func (uc *subscriptionUsecase) ResolveCommissionRate(ctx context.Context, practitionerID string) (money.Rate, error) {
	defaultRate, err := money.ParseRate(uc.InternalConfig.Ledger.DefaultCommissionRate)
	if err != nil {
		return 0, exceptions.ErrInvalidRate(err, uc.InternalConfig.Ledger.DefaultCommissionRate)
	}

	subscription, err := uc.SubscriptionRepository.FindOpenByOwnerID(ctx, practitionerID)
	if errors.Is(err, exceptions.ErrNotFound) {
		return defaultRate, nil
	} else if err != nil {
		return 0, err
	}
	if !subscription.Status.GrantsAccess() {
		return defaultRate, nil
	}

	plan, err := uc.PlanUsecase.GetPlan(ctx, subscription.PlanID)
	if err != nil {
		return 0, err
	}
	if plan.Type != models.PlanTypePractitioner {
		return defaultRate, nil
	}
	return plan.CommissionRate, nil
}

// charge debits the subscriber's wallet. A zero amount is not charged.
func (uc *subscriptionUsecase) charge(ctx context.Context, subscription *models.Subscription, amount money.Amount, reference, description string) (*models.Transaction, error) {
	if amount <= 0 {
		return nil, nil
	}
	return uc.WalletUsecase.Charge(ctx, &requests.Charge{
		WalletID:        subscription.WalletID,
		Amount:          amount,
		Type:            models.TransactionTypeSubscription,
		ReferenceNumber: reference,
		Description:     description,
		Metadata: map[string]string{
			"subscription_id": subscription.ID,
			"plan_id":         subscription.PlanID,
		},
	})
}

func (uc *subscriptionUsecase) reverseCharge(ctx context.Context, charge *models.Transaction, reason string) {
	if charge == nil {
		return
	}
	if _, err := uc.WalletUsecase.Refund(ctx, charge.ID, reason); err != nil {
		uc.Log.Error("subscriptionUsecase.reverseCharge refund failed",
			zap.String(constvars.LoggingRequestIDKey, utils.GetRequestID(ctx)),
			zap.String(constvars.LoggingTransactionIDKey, charge.ID),
			zap.Error(err),
		)
	}
}

func chargeReference(subscriptionID string, billingDate time.Time) string {
	return fmt.Sprintf(constvars.SubscriptionChargeReferenceFormat, subscriptionID, billingDate.UTC().Format(constvars.SubscriptionReferenceDateLayout))
}

func (uc *subscriptionUsecase) withSubscriptionLock(ctx context.Context, subscriptionID string, fn func() error) error {
	return uc.withLock(ctx, fmt.Sprintf(constvars.LockKeySubscriptionFormat, subscriptionID), fn)
}

func (uc *subscriptionUsecase) withLock(ctx context.Context, key string, fn func() error) error {
	subscriptionConfig := uc.InternalConfig.Subscription
	token, err := uc.LockerService.Lock(ctx, key, subscriptionConfig.LockTTL, subscriptionConfig.LockWait)
	if err != nil {
		return err
	}
	defer uc.LockerService.Unlock(context.WithoutCancel(ctx), key, token)
	return fn()
}

func (uc *subscriptionUsecase) publish(ctx context.Context, events ...models.Event) {
	if uc.EventPublisher == nil || len(events) == 0 {
		return
	}
	if err := uc.EventPublisher.Publish(ctx, events...); err != nil {
		uc.Log.Warn("subscriptionUsecase.publish failed",
			zap.String(constvars.LoggingRequestIDKey, utils.GetRequestID(ctx)),
			zap.Error(err),
		)
	}
}

func newSubscriptionEvent(subscription *models.Subscription, oldStatus models.SubscriptionStatus) models.Event {
	data := map[string]interface{}{
		"owner_id":      subscription.OwnerID,
		"plan_id":       subscription.PlanID,
		"billing_cycle": string(subscription.BillingCycle),
	}
	if subscription.FailureReason != "" {
		data["failure_reason"] = subscription.FailureReason
	}
	return models.Event{
		ID:         uuid.NewString(),
		EntityType: models.EntityTypeSubscription,
		EntityID:   subscription.ID,
		OldState:   string(oldStatus),
		NewState:   string(subscription.Status),
		Timestamp:  subscription.UpdatedAt,
		Data:       data,
	}
}
