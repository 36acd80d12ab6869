package controllers

import (
	"context"
	"net/http"
	"sync"
	"time"

	"konsulin-wallet-service/internal/app/contracts"
	"konsulin-wallet-service/internal/pkg/constvars"
	"konsulin-wallet-service/internal/pkg/dto/responses"
	"konsulin-wallet-service/internal/pkg/utils"

	"go.uber.org/zap"
)

// AdminController lets operators run the scheduled sweeps on demand.
type AdminController struct {
	Log                 *zap.Logger
	SubscriptionUsecase contracts.SubscriptionUsecase
}

var (
	adminControllerInstance *AdminController
	onceAdminController     sync.Once
)

func NewAdminController(logger *zap.Logger, subscriptionUsecase contracts.SubscriptionUsecase) *AdminController {
	onceAdminController.Do(func() {
		instance := &AdminController{
			Log:                 logger,
			SubscriptionUsecase: subscriptionUsecase,
		}
		adminControllerInstance = instance
	})
	return adminControllerInstance
}

func (ctrl *AdminController) RunBillingSweep(w http.ResponseWriter, r *http.Request) {
	ctrl.runSweep(w, r, "AdminController.RunBillingSweep", ctrl.SubscriptionUsecase.ProcessRecurringBillings, constvars.RenewalSweepSuccessMessage)
}

func (ctrl *AdminController) RunExpirySweep(w http.ResponseWriter, r *http.Request) {
	ctrl.runSweep(w, r, "AdminController.RunExpirySweep", ctrl.SubscriptionUsecase.ProcessExpirations, constvars.ExpirySweepSuccessMessage)
}

func (ctrl *AdminController) runSweep(
	w http.ResponseWriter,
	r *http.Request,
	handler string,
	sweep func(ctx context.Context) (*responses.SweepReport, error),
	message string,
) {
	requestID, ok := requestIDFrom(ctrl.Log, w, r, handler)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Minute)
	defer cancel()

	report, err := sweep(ctx)
	if err != nil {
		ctrl.Log.Error(handler+" error from usecase",
			zap.String(constvars.LoggingRequestIDKey, requestID),
			zap.Error(err),
		)
		writeUsecaseError(ctrl.Log, w, err)
		return
	}

	ctrl.Log.Info(handler+" succeeded",
		zap.String(constvars.LoggingRequestIDKey, requestID),
		zap.Int("processed", report.Processed),
		zap.Int("failed", report.Failed),
	)
	utils.BuildSuccessResponse(w, constvars.StatusOK, message, report)
}
