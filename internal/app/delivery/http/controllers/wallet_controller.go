package controllers

import (
	"context"
	"net/http"
	"sync"
	"time"

	"konsulin-wallet-service/internal/app/contracts"
	"konsulin-wallet-service/internal/app/models"
	"konsulin-wallet-service/internal/pkg/constvars"
	"konsulin-wallet-service/internal/pkg/dto/requests"
	"konsulin-wallet-service/internal/pkg/dto/responses"
	"konsulin-wallet-service/internal/pkg/money"
	"konsulin-wallet-service/internal/pkg/utils"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type WalletController struct {
	Log           *zap.Logger
	WalletUsecase contracts.WalletUsecase
}

var (
	walletControllerInstance *WalletController
	onceWalletController     sync.Once
)

func NewWalletController(logger *zap.Logger, walletUsecase contracts.WalletUsecase) *WalletController {
	onceWalletController.Do(func() {
		instance := &WalletController{
			Log:           logger,
			WalletUsecase: walletUsecase,
		}
		walletControllerInstance = instance
	})
	return walletControllerInstance
}

func (ctrl *WalletController) CreateWallet(w http.ResponseWriter, r *http.Request) {
	requestID, ok := requestIDFrom(ctrl.Log, w, r, "WalletController.CreateWallet")
	if !ok {
		return
	}

	request := new(requests.CreateWallet)
	if err := utils.DecodeAndValidate(r, request); err != nil {
		ctrl.Log.Error("WalletController.CreateWallet invalid request",
			zap.String(constvars.LoggingRequestIDKey, requestID),
			zap.Error(err),
		)
		utils.BuildErrorResponse(ctrl.Log, w, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	wallet, err := ctrl.WalletUsecase.CreateWallet(ctx, request)
	if err != nil {
		ctrl.Log.Error("WalletController.CreateWallet error from usecase",
			zap.String(constvars.LoggingRequestIDKey, requestID),
			zap.String(constvars.LoggingOwnerIDKey, request.OwnerID),
			zap.Error(err),
		)
		writeUsecaseError(ctrl.Log, w, err)
		return
	}

	utils.BuildSuccessResponse(w, constvars.StatusCreated, constvars.WalletCreatedSuccessMessage, responses.NewWallet(wallet))
}

func (ctrl *WalletController) GetWallet(w http.ResponseWriter, r *http.Request) {
	requestID, ok := requestIDFrom(ctrl.Log, w, r, "WalletController.GetWallet")
	if !ok {
		return
	}

	walletID := chi.URLParam(r, paramWalletID)
	if err := utils.ValidateUrlParamID(walletID, paramWalletID); err != nil {
		utils.BuildErrorResponse(ctrl.Log, w, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	wallet, err := ctrl.WalletUsecase.GetWallet(ctx, walletID)
	if err != nil {
		ctrl.Log.Error("WalletController.GetWallet error from usecase",
			zap.String(constvars.LoggingRequestIDKey, requestID),
			zap.String(constvars.LoggingWalletIDKey, walletID),
			zap.Error(err),
		)
		writeUsecaseError(ctrl.Log, w, err)
		return
	}

	utils.BuildSuccessResponse(w, constvars.StatusOK, constvars.WalletGetSuccessMessage, responses.NewWallet(wallet))
}

func (ctrl *WalletController) GetWalletByOwner(w http.ResponseWriter, r *http.Request) {
	requestID, ok := requestIDFrom(ctrl.Log, w, r, "WalletController.GetWalletByOwner")
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

	wallet, err := ctrl.WalletUsecase.GetWalletByOwner(ctx, ownerID)
	if err != nil {
		ctrl.Log.Error("WalletController.GetWalletByOwner error from usecase",
			zap.String(constvars.LoggingRequestIDKey, requestID),
			zap.String(constvars.LoggingOwnerIDKey, ownerID),
			zap.Error(err),
		)
		writeUsecaseError(ctrl.Log, w, err)
		return
	}

	utils.BuildSuccessResponse(w, constvars.StatusOK, constvars.WalletGetSuccessMessage, responses.NewWallet(wallet))
}

// ListTransactions pages through a wallet's history, newest first. The type
// and status query parameters narrow the result.
func (ctrl *WalletController) ListTransactions(w http.ResponseWriter, r *http.Request) {
	requestID, ok := requestIDFrom(ctrl.Log, w, r, "WalletController.ListTransactions")
	if !ok {
		return
	}

	walletID := chi.URLParam(r, paramWalletID)
	if err := utils.ValidateUrlParamID(walletID, paramWalletID); err != nil {
		utils.BuildErrorResponse(ctrl.Log, w, err)
		return
	}

	pagination := utils.BuildPaginationRequest(r)
	filter := models.TransactionFilter{
		WalletID: walletID,
		Type:     models.TransactionType(r.URL.Query().Get("type")),
		Status:   models.TransactionStatus(r.URL.Query().Get("status")),
		Limit:    pagination.PageSize,
		Offset:   pagination.Offset(),
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	transactions, total, err := ctrl.WalletUsecase.ListTransactions(ctx, filter)
	if err != nil {
		ctrl.Log.Error("WalletController.ListTransactions error from usecase",
			zap.String(constvars.LoggingRequestIDKey, requestID),
			zap.String(constvars.LoggingWalletIDKey, walletID),
			zap.Error(err),
		)
		writeUsecaseError(ctrl.Log, w, err)
		return
	}

	ctrl.Log.Info("WalletController.ListTransactions succeeded",
		zap.String(constvars.LoggingRequestIDKey, requestID),
		zap.Int(constvars.LoggingCountKey, len(transactions)),
	)
	paginationData := utils.BuildPaginationResponse(total, pagination.Page, pagination.PageSize, r.URL.Path)
	utils.BuildSuccessResponseWithPagination(w, constvars.StatusOK, constvars.TransactionListSuccessMessage, paginationData, transactions)
}

func (ctrl *WalletController) UpdateWalletSettings(w http.ResponseWriter, r *http.Request) {
	requestID, ok := requestIDFrom(ctrl.Log, w, r, "WalletController.UpdateWalletSettings")
	if !ok {
		return
	}

	walletID := chi.URLParam(r, paramWalletID)
	if err := utils.ValidateUrlParamID(walletID, paramWalletID); err != nil {
		utils.BuildErrorResponse(ctrl.Log, w, err)
		return
	}

	request := new(requests.UpdateWalletSettings)
	if err := utils.DecodeAndValidate(r, request); err != nil {
		utils.BuildErrorResponse(ctrl.Log, w, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	wallet, err := ctrl.WalletUsecase.UpdateWalletSettings(ctx, walletID, request)
	if err != nil {
		ctrl.Log.Error("WalletController.UpdateWalletSettings error from usecase",
			zap.String(constvars.LoggingRequestIDKey, requestID),
			zap.String(constvars.LoggingWalletIDKey, walletID),
			zap.Error(err),
		)
		writeUsecaseError(ctrl.Log, w, err)
		return
	}

	utils.BuildSuccessResponse(w, constvars.StatusOK, constvars.WalletSettingsUpdatedSuccessMessage, responses.NewWallet(wallet))
}

func (ctrl *WalletController) BlockFunds(w http.ResponseWriter, r *http.Request) {
	ctrl.holdFunds(w, r, "WalletController.BlockFunds", ctrl.WalletUsecase.BlockFunds, constvars.WalletFundsBlockedSuccessMessage)
}

func (ctrl *WalletController) UnblockFunds(w http.ResponseWriter, r *http.Request) {
	ctrl.holdFunds(w, r, "WalletController.UnblockFunds", ctrl.WalletUsecase.UnblockFunds, constvars.WalletFundsReleasedSuccessMessage)
}

func (ctrl *WalletController) holdFunds(
	w http.ResponseWriter,
	r *http.Request,
	handler string,
	apply func(ctx context.Context, walletID string, amount money.Amount) (*models.Wallet, error),
	message string,
) {
	requestID, ok := requestIDFrom(ctrl.Log, w, r, handler)
	if !ok {
		return
	}

	walletID := chi.URLParam(r, paramWalletID)
	if err := utils.ValidateUrlParamID(walletID, paramWalletID); err != nil {
		utils.BuildErrorResponse(ctrl.Log, w, err)
		return
	}

	request := new(requests.FundsHold)
	if err := utils.DecodeAndValidate(r, request); err != nil {
		utils.BuildErrorResponse(ctrl.Log, w, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	wallet, err := apply(ctx, walletID, request.Amount)
	if err != nil {
		ctrl.Log.Error(handler+" error from usecase",
			zap.String(constvars.LoggingRequestIDKey, requestID),
			zap.String(constvars.LoggingWalletIDKey, walletID),
			zap.Error(err),
		)
		writeUsecaseError(ctrl.Log, w, err)
		return
	}

	utils.BuildSuccessResponse(w, constvars.StatusOK, message, responses.NewWallet(wallet))
}

func (ctrl *WalletController) Deposit(w http.ResponseWriter, r *http.Request) {
	requestID, ok := requestIDFrom(ctrl.Log, w, r, "WalletController.Deposit")
	if !ok {
		return
	}

	walletID := chi.URLParam(r, paramWalletID)
	if err := utils.ValidateUrlParamID(walletID, paramWalletID); err != nil {
		utils.BuildErrorResponse(ctrl.Log, w, err)
		return
	}

	request := new(requests.Deposit)
	if err := utils.DecodeAndValidate(r, request); err != nil {
		utils.BuildErrorResponse(ctrl.Log, w, err)
		return
	}
	request.WalletID = walletID

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	transaction, err := ctrl.WalletUsecase.Deposit(ctx, request)
	if err != nil {
		ctrl.Log.Error("WalletController.Deposit error from usecase",
			zap.String(constvars.LoggingRequestIDKey, requestID),
			zap.String(constvars.LoggingWalletIDKey, walletID),
			zap.Error(err),
		)
		writeUsecaseError(ctrl.Log, w, err)
		return
	}

	utils.LogBusinessEvent(ctrl.Log, "wallet_deposit", requestID,
		zap.String(constvars.LoggingWalletIDKey, walletID),
		zap.String(constvars.LoggingReferenceKey, transaction.ReferenceNumber),
	)
	utils.BuildSuccessResponse(w, constvars.StatusCreated, constvars.WalletDepositSuccessMessage, transaction)
}

func (ctrl *WalletController) Withdraw(w http.ResponseWriter, r *http.Request) {
	requestID, ok := requestIDFrom(ctrl.Log, w, r, "WalletController.Withdraw")
	if !ok {
		return
	}

	walletID := chi.URLParam(r, paramWalletID)
	if err := utils.ValidateUrlParamID(walletID, paramWalletID); err != nil {
		utils.BuildErrorResponse(ctrl.Log, w, err)
		return
	}

	request := new(requests.Withdraw)
	if err := utils.DecodeAndValidate(r, request); err != nil {
		utils.BuildErrorResponse(ctrl.Log, w, err)
		return
	}
	request.WalletID = walletID

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	transaction, err := ctrl.WalletUsecase.Withdraw(ctx, request)
	if err != nil {
		ctrl.Log.Error("WalletController.Withdraw error from usecase",
			zap.String(constvars.LoggingRequestIDKey, requestID),
			zap.String(constvars.LoggingWalletIDKey, walletID),
			zap.Error(err),
		)
		writeUsecaseError(ctrl.Log, w, err)
		return
	}

	utils.LogBusinessEvent(ctrl.Log, "wallet_withdrawal", requestID,
		zap.String(constvars.LoggingWalletIDKey, walletID),
		zap.String(constvars.LoggingReferenceKey, transaction.ReferenceNumber),
	)
	utils.BuildSuccessResponse(w, constvars.StatusCreated, constvars.WalletWithdrawSuccessMessage, transaction)
}

func (ctrl *WalletController) Transfer(w http.ResponseWriter, r *http.Request) {
	requestID, ok := requestIDFrom(ctrl.Log, w, r, "WalletController.Transfer")
	if !ok {
		return
	}

	request := new(requests.Transfer)
	if err := utils.DecodeAndValidate(r, request); err != nil {
		utils.BuildErrorResponse(ctrl.Log, w, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	result, err := ctrl.WalletUsecase.Transfer(ctx, request)
	if err != nil {
		ctrl.Log.Error("WalletController.Transfer error from usecase",
			zap.String(constvars.LoggingRequestIDKey, requestID),
			zap.String("from_wallet_id", request.FromWalletID),
			zap.String("to_wallet_id", request.ToWalletID),
			zap.Error(err),
		)
		writeUsecaseError(ctrl.Log, w, err)
		return
	}

	utils.BuildSuccessResponse(w, constvars.StatusCreated, constvars.WalletTransferSuccessMessage, result)
}

func (ctrl *WalletController) GetTransaction(w http.ResponseWriter, r *http.Request) {
	requestID, ok := requestIDFrom(ctrl.Log, w, r, "WalletController.GetTransaction")
	if !ok {
		return
	}

	transactionID := chi.URLParam(r, paramTransactionID)
	if err := utils.ValidateUrlParamID(transactionID, paramTransactionID); err != nil {
		utils.BuildErrorResponse(ctrl.Log, w, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	transaction, err := ctrl.WalletUsecase.GetTransaction(ctx, transactionID)
	if err != nil {
		ctrl.Log.Error("WalletController.GetTransaction error from usecase",
			zap.String(constvars.LoggingRequestIDKey, requestID),
			zap.String(constvars.LoggingTransactionIDKey, transactionID),
			zap.Error(err),
		)
		writeUsecaseError(ctrl.Log, w, err)
		return
	}

	utils.BuildSuccessResponse(w, constvars.StatusOK, constvars.TransactionGetSuccessMessage, transaction)
}

func (ctrl *WalletController) RefundTransaction(w http.ResponseWriter, r *http.Request) {
	requestID, ok := requestIDFrom(ctrl.Log, w, r, "WalletController.RefundTransaction")
	if !ok {
		return
	}

	transactionID := chi.URLParam(r, paramTransactionID)
	if err := utils.ValidateUrlParamID(transactionID, paramTransactionID); err != nil {
		utils.BuildErrorResponse(ctrl.Log, w, err)
		return
	}

	request := new(requests.Reason)
	if err := utils.DecodeAndValidate(r, request); err != nil {
		utils.BuildErrorResponse(ctrl.Log, w, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	refunds, err := ctrl.WalletUsecase.Refund(ctx, transactionID, request.Reason)
	if err != nil {
		ctrl.Log.Error("WalletController.RefundTransaction error from usecase",
			zap.String(constvars.LoggingRequestIDKey, requestID),
			zap.String(constvars.LoggingTransactionIDKey, transactionID),
			zap.Error(err),
		)
		writeUsecaseError(ctrl.Log, w, err)
		return
	}

	utils.LogBusinessEvent(ctrl.Log, "transaction_refunded", requestID,
		zap.String(constvars.LoggingTransactionIDKey, transactionID),
		zap.Int(constvars.LoggingCountKey, len(refunds)),
	)
	utils.BuildSuccessResponse(w, constvars.StatusOK, constvars.TransactionRefundedSuccessMessage, refunds)
}

func (ctrl *WalletController) CancelTransaction(w http.ResponseWriter, r *http.Request) {
	requestID, ok := requestIDFrom(ctrl.Log, w, r, "WalletController.CancelTransaction")
	if !ok {
		return
	}

	transactionID := chi.URLParam(r, paramTransactionID)
	if err := utils.ValidateUrlParamID(transactionID, paramTransactionID); err != nil {
		utils.BuildErrorResponse(ctrl.Log, w, err)
		return
	}

	request := new(requests.Reason)
	if err := utils.DecodeAndValidate(r, request); err != nil {
		utils.BuildErrorResponse(ctrl.Log, w, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	transaction, err := ctrl.WalletUsecase.CancelPendingTransaction(ctx, transactionID, request.Reason)
	if err != nil {
		ctrl.Log.Error("WalletController.CancelTransaction error from usecase",
			zap.String(constvars.LoggingRequestIDKey, requestID),
			zap.String(constvars.LoggingTransactionIDKey, transactionID),
			zap.Error(err),
		)
		writeUsecaseError(ctrl.Log, w, err)
		return
	}

	utils.BuildSuccessResponse(w, constvars.StatusOK, constvars.TransactionCancelledSuccessMessage, transaction)
}
