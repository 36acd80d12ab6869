package controllers

import (
	"context"
	"net/http"
	"strings"
	"sync"
	"time"

	"konsulin-wallet-service/internal/app/contracts"
	"konsulin-wallet-service/internal/app/models"
	"konsulin-wallet-service/internal/pkg/constvars"
	"konsulin-wallet-service/internal/pkg/dto/requests"
	"konsulin-wallet-service/internal/pkg/dto/responses"
	"konsulin-wallet-service/internal/pkg/exceptions"
	"konsulin-wallet-service/internal/pkg/utils"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type SubscriptionController struct {
	Log                 *zap.Logger
	PlanUsecase         contracts.PlanUsecase
	SubscriptionUsecase contracts.SubscriptionUsecase
}

var (
	subscriptionControllerInstance *SubscriptionController
	onceSubscriptionController     sync.Once
)

func NewSubscriptionController(logger *zap.Logger, planUsecase contracts.PlanUsecase, subscriptionUsecase contracts.SubscriptionUsecase) *SubscriptionController {
	onceSubscriptionController.Do(func() {
		instance := &SubscriptionController{
			Log:                 logger,
			PlanUsecase:         planUsecase,
			SubscriptionUsecase: subscriptionUsecase,
		}
		subscriptionControllerInstance = instance
	})
	return subscriptionControllerInstance
}

func (ctrl *SubscriptionController) ListPlans(w http.ResponseWriter, r *http.Request) {
	requestID, ok := requestIDFrom(ctrl.Log, w, r, "SubscriptionController.ListPlans")
	if !ok {
		return
	}

	planType := models.PlanType(r.URL.Query().Get("type"))

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	plans, err := ctrl.PlanUsecase.ListPlans(ctx, planType)
	if err != nil {
		ctrl.Log.Error("SubscriptionController.ListPlans error from usecase",
			zap.String(constvars.LoggingRequestIDKey, requestID),
			zap.Error(err),
		)
		writeUsecaseError(ctrl.Log, w, err)
		return
	}

	ctrl.Log.Info("SubscriptionController.ListPlans succeeded",
		zap.String(constvars.LoggingRequestIDKey, requestID),
		zap.Int(constvars.LoggingCountKey, len(plans)),
	)
	utils.BuildSuccessResponse(w, constvars.StatusOK, constvars.PlanListSuccessMessage, plans)
}

// GetPlan accepts either a plan id or a plan code.
func (ctrl *SubscriptionController) GetPlan(w http.ResponseWriter, r *http.Request) {
	requestID, ok := requestIDFrom(ctrl.Log, w, r, "SubscriptionController.GetPlan")
	if !ok {
		return
	}

	planID := chi.URLParam(r, paramPlanID)
	if strings.TrimSpace(planID) == "" {
		utils.BuildErrorResponse(ctrl.Log, w, exceptions.ErrURLParamIDValidation(nil, paramPlanID))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	plan, err := ctrl.PlanUsecase.GetPlan(ctx, planID)
	if err != nil {
		ctrl.Log.Error("SubscriptionController.GetPlan error from usecase",
			zap.String(constvars.LoggingRequestIDKey, requestID),
			zap.String(constvars.LoggingPlanIDKey, planID),
			zap.Error(err),
		)
		writeUsecaseError(ctrl.Log, w, err)
		return
	}

	utils.BuildSuccessResponse(w, constvars.StatusOK, constvars.PlanGetSuccessMessage, plan)
}

func (ctrl *SubscriptionController) CreateSubscription(w http.ResponseWriter, r *http.Request) {
	requestID, ok := requestIDFrom(ctrl.Log, w, r, "SubscriptionController.CreateSubscription")
	if !ok {
		return
	}

	request := new(requests.CreateSubscription)
	if err := utils.DecodeAndValidate(r, request); err != nil {
		utils.BuildErrorResponse(ctrl.Log, w, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 15*time.Second)
	defer cancel()

	subscription, err := ctrl.SubscriptionUsecase.CreateSubscription(ctx, request)
	if err != nil {
		ctrl.Log.Error("SubscriptionController.CreateSubscription error from usecase",
			zap.String(constvars.LoggingRequestIDKey, requestID),
			zap.String(constvars.LoggingOwnerIDKey, request.OwnerID),
			zap.String(constvars.LoggingPlanIDKey, request.PlanID),
			zap.Error(err),
		)
		writeUsecaseError(ctrl.Log, w, err)
		return
	}

	utils.LogBusinessEvent(ctrl.Log, "subscription_created", requestID,
		zap.String(constvars.LoggingSubscriptionIDKey, subscription.ID),
		zap.String(constvars.LoggingOwnerIDKey, subscription.OwnerID),
		zap.String("status", string(subscription.Status)),
	)
	utils.BuildSuccessResponse(w, constvars.StatusCreated, constvars.SubscriptionCreatedSuccessMessage, subscription)
}

func (ctrl *SubscriptionController) GetSubscription(w http.ResponseWriter, r *http.Request) {
	requestID, ok := requestIDFrom(ctrl.Log, w, r, "SubscriptionController.GetSubscription")
	if !ok {
		return
	}

	subscriptionID := chi.URLParam(r, paramSubscriptionID)
	if err := utils.ValidateUrlParamID(subscriptionID, paramSubscriptionID); err != nil {
		utils.BuildErrorResponse(ctrl.Log, w, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	subscription, err := ctrl.SubscriptionUsecase.GetSubscription(ctx, subscriptionID)
	if err != nil {
		ctrl.Log.Error("SubscriptionController.GetSubscription error from usecase",
			zap.String(constvars.LoggingRequestIDKey, requestID),
			zap.String(constvars.LoggingSubscriptionIDKey, subscriptionID),
			zap.Error(err),
		)
		writeUsecaseError(ctrl.Log, w, err)
		return
	}

	utils.BuildSuccessResponse(w, constvars.StatusOK, constvars.SubscriptionGetSuccessMessage, subscription)
}

func (ctrl *SubscriptionController) GetActiveSubscription(w http.ResponseWriter, r *http.Request) {
	requestID, ok := requestIDFrom(ctrl.Log, w, r, "SubscriptionController.GetActiveSubscription")
	if !ok {
		return
	}

	ownerID := chi.URLParam(r, paramOwnerID)
	if err := validateOwnerParam(ownerID); err != nil {
		utils.BuildErrorResponse(ctrl.Log, w, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	subscription, err := ctrl.SubscriptionUsecase.GetActiveSubscription(ctx, ownerID)
	if err != nil {
		ctrl.Log.Error("SubscriptionController.GetActiveSubscription error from usecase",
			zap.String(constvars.LoggingRequestIDKey, requestID),
			zap.String(constvars.LoggingOwnerIDKey, ownerID),
			zap.Error(err),
		)
		writeUsecaseError(ctrl.Log, w, err)
		return
	}

	utils.BuildSuccessResponse(w, constvars.StatusOK, constvars.SubscriptionGetSuccessMessage, subscription)
}

func (ctrl *SubscriptionController) UpgradeSubscription(w http.ResponseWriter, r *http.Request) {
	requestID, ok := requestIDFrom(ctrl.Log, w, r, "SubscriptionController.UpgradeSubscription")
	if !ok {
		return
	}

	subscriptionID := chi.URLParam(r, paramSubscriptionID)
	if err := utils.ValidateUrlParamID(subscriptionID, paramSubscriptionID); err != nil {
		utils.BuildErrorResponse(ctrl.Log, w, err)
		return
	}

	request := new(requests.UpgradeSubscription)
	if err := utils.DecodeAndValidate(r, request); err != nil {
		utils.BuildErrorResponse(ctrl.Log, w, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 15*time.Second)
	defer cancel()

	upgrade, err := ctrl.SubscriptionUsecase.UpgradeSubscription(ctx, subscriptionID, request)
	if err != nil {
		ctrl.Log.Error("SubscriptionController.UpgradeSubscription error from usecase",
			zap.String(constvars.LoggingRequestIDKey, requestID),
			zap.String(constvars.LoggingSubscriptionIDKey, subscriptionID),
			zap.String(constvars.LoggingPlanIDKey, request.PlanID),
			zap.Error(err),
		)
		writeUsecaseError(ctrl.Log, w, err)
		return
	}

	utils.LogBusinessEvent(ctrl.Log, "subscription_upgraded", requestID,
		zap.String(constvars.LoggingSubscriptionIDKey, subscriptionID),
		zap.Int64("amount_due", upgrade.AmountDue.Int64()),
	)
	utils.BuildSuccessResponse(w, constvars.StatusOK, constvars.SubscriptionUpgradedSuccessMessage, upgrade)
}

func (ctrl *SubscriptionController) CancelSubscription(w http.ResponseWriter, r *http.Request) {
	requestID, ok := requestIDFrom(ctrl.Log, w, r, "SubscriptionController.CancelSubscription")
	if !ok {
		return
	}

	subscriptionID := chi.URLParam(r, paramSubscriptionID)
	if err := utils.ValidateUrlParamID(subscriptionID, paramSubscriptionID); err != nil {
		utils.BuildErrorResponse(ctrl.Log, w, err)
		return
	}

	request := new(requests.CancelSubscription)
	if err := utils.DecodeAndValidate(r, request); err != nil {
		utils.BuildErrorResponse(ctrl.Log, w, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	subscription, err := ctrl.SubscriptionUsecase.CancelSubscription(ctx, subscriptionID, request)
	if err != nil {
		ctrl.Log.Error("SubscriptionController.CancelSubscription error from usecase",
			zap.String(constvars.LoggingRequestIDKey, requestID),
			zap.String(constvars.LoggingSubscriptionIDKey, subscriptionID),
			zap.Error(err),
		)
		writeUsecaseError(ctrl.Log, w, err)
		return
	}

	utils.BuildSuccessResponse(w, constvars.StatusOK, constvars.SubscriptionCancelledSuccessMessage, subscription)
}

func (ctrl *SubscriptionController) CheckUsage(w http.ResponseWriter, r *http.Request) {
	requestID, ok := requestIDFrom(ctrl.Log, w, r, "SubscriptionController.CheckUsage")
	if !ok {
		return
	}

	request := new(requests.Usage)
	if err := utils.DecodeAndValidate(r, request); err != nil {
		utils.BuildErrorResponse(ctrl.Log, w, err)
		return
	}
	if request.Amount == 0 {
		request.Amount = 1
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	allowed, err := ctrl.SubscriptionUsecase.CheckUsageLimit(ctx, request.OwnerID, request.Resource, request.Amount)
	if err != nil {
		ctrl.Log.Error("SubscriptionController.CheckUsage error from usecase",
			zap.String(constvars.LoggingRequestIDKey, requestID),
			zap.String(constvars.LoggingOwnerIDKey, request.OwnerID),
			zap.Error(err),
		)
		writeUsecaseError(ctrl.Log, w, err)
		return
	}

	utils.BuildSuccessResponse(w, constvars.StatusOK, constvars.SubscriptionUsageSuccessMessage, responses.UsageCheck{Allowed: allowed})
}

func (ctrl *SubscriptionController) RecordUsage(w http.ResponseWriter, r *http.Request) {
	requestID, ok := requestIDFrom(ctrl.Log, w, r, "SubscriptionController.RecordUsage")
	if !ok {
		return
	}

	request := new(requests.Usage)
	if err := utils.DecodeAndValidate(r, request); err != nil {
		utils.BuildErrorResponse(ctrl.Log, w, err)
		return
	}
	if request.Amount == 0 {
		request.Amount = 1
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	subscription, err := ctrl.SubscriptionUsecase.RecordUsage(ctx, request.OwnerID, request.Resource, request.Amount)
	if err != nil {
		ctrl.Log.Error("SubscriptionController.RecordUsage error from usecase",
			zap.String(constvars.LoggingRequestIDKey, requestID),
			zap.String(constvars.LoggingOwnerIDKey, request.OwnerID),
			zap.String("resource", request.Resource),
			zap.Error(err),
		)
		writeUsecaseError(ctrl.Log, w, err)
		return
	}

	utils.BuildSuccessResponse(w, constvars.StatusOK, constvars.SubscriptionUsageRecordedMessage, subscription)
}
