package controllers

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"konsulin-wallet-service/internal/pkg/constvars"
	"konsulin-wallet-service/internal/pkg/exceptions"
	"konsulin-wallet-service/internal/pkg/utils"

	"go.uber.org/zap"
)

const (
	paramWalletID       = "wallet_id"
	paramOwnerID        = "owner_id"
	paramTransactionID  = "transaction_id"
	paramSubscriptionID = "subscription_id"
	paramPlanID         = "plan_id"
)

func requestIDFrom(log *zap.Logger, w http.ResponseWriter, r *http.Request, handler string) (string, bool) {
	requestID, ok := r.Context().Value(constvars.CONTEXT_REQUEST_ID_KEY).(string)
	if !ok || requestID == "" {
		log.Error(handler+" requestID not found in context",
			zap.String(constvars.LoggingEndpointKey, r.URL.Path),
			zap.String(constvars.LoggingMethodKey, r.Method),
		)
		utils.BuildErrorResponse(log, w, exceptions.ErrMissingRequestID(nil))
		return "", false
	}
	return requestID, true
}

func writeUsecaseError(log *zap.Logger, w http.ResponseWriter, err error) {
	if errors.Is(err, context.DeadlineExceeded) {
		utils.BuildErrorResponse(log, w, exceptions.ErrServerDeadlineExceeded(err))
		return
	}
	utils.BuildErrorResponse(log, w, err)
}

func validateOwnerParam(owner string) error {
	if strings.TrimSpace(owner) == "" || len(owner) > 64 {
		return exceptions.ErrURLParamIDValidation(nil, paramOwnerID)
	}
	return nil
}
