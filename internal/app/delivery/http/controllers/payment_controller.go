package controllers

import (
	"context"
	"net/http"
	"sync"
	"time"

	"konsulin-wallet-service/internal/app/contracts"
	"konsulin-wallet-service/internal/pkg/constvars"
	"konsulin-wallet-service/internal/pkg/dto/requests"
	"konsulin-wallet-service/internal/pkg/dto/responses"
	"konsulin-wallet-service/internal/pkg/exceptions"
	"konsulin-wallet-service/internal/pkg/utils"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"
	"go.uber.org/zap"
)

type PaymentController struct {
	Log                 *zap.Logger
	WalletUsecase       contracts.WalletUsecase
	SubscriptionUsecase contracts.SubscriptionUsecase
}

var (
	paymentControllerInstance *PaymentController
	oncePaymentController     sync.Once
)

func NewPaymentController(logger *zap.Logger, walletUsecase contracts.WalletUsecase, subscriptionUsecase contracts.SubscriptionUsecase) *PaymentController {
	oncePaymentController.Do(func() {
		instance := &PaymentController{
			Log:                 logger,
			WalletUsecase:       walletUsecase,
			SubscriptionUsecase: subscriptionUsecase,
		}
		paymentControllerInstance = instance
	})
	return paymentControllerInstance
}

func (ctrl *PaymentController) InitiateTopUp(w http.ResponseWriter, r *http.Request) {
	requestID, ok := requestIDFrom(ctrl.Log, w, r, "PaymentController.InitiateTopUp")
	if !ok {
		return
	}

	walletID := chi.URLParam(r, paramWalletID)
	if err := utils.ValidateUrlParamID(walletID, paramWalletID); err != nil {
		utils.BuildErrorResponse(ctrl.Log, w, err)
		return
	}

	request := new(requests.InitiateTopUp)
	if err := utils.DecodeAndValidate(r, request); err != nil {
		utils.BuildErrorResponse(ctrl.Log, w, err)
		return
	}
	request.WalletID = walletID

	ctx, cancel := context.WithTimeout(r.Context(), 20*time.Second)
	defer cancel()

	topUp, err := ctrl.WalletUsecase.InitiateTopUp(ctx, request)
	if err != nil {
		ctrl.Log.Error("PaymentController.InitiateTopUp error from usecase",
			zap.String(constvars.LoggingRequestIDKey, requestID),
			zap.String(constvars.LoggingWalletIDKey, walletID),
			zap.Error(err),
		)
		writeUsecaseError(ctrl.Log, w, err)
		return
	}

	utils.BuildSuccessResponse(w, constvars.StatusCreated, constvars.WalletTopUpInitiatedSuccessMessage, topUp)
}

// OyCallback settles a top-up from an OY payment-routing callback. The body
// only says which payment to look at; the amount and outcome come from the
// provider's status endpoint.
func (ctrl *PaymentController) OyCallback(w http.ResponseWriter, r *http.Request) {
	requestID, ok := requestIDFrom(ctrl.Log, w, r, "PaymentController.OyCallback")
	if !ok {
		return
	}

	body := new(requests.OyPaymentCallback)
	if err := json.NewDecoder(r.Body).Decode(body); err != nil {
		ctrl.Log.Error("PaymentController.OyCallback failed to parse body",
			zap.String(constvars.LoggingRequestIDKey, requestID),
			zap.Error(err),
		)
		utils.BuildErrorResponse(ctrl.Log, w, exceptions.ErrCannotParseJSON(err))
		return
	}

	ctrl.Log.Info("PaymentController.OyCallback received",
		zap.String(constvars.LoggingRequestIDKey, requestID),
		zap.String(constvars.LoggingGatewayRefKey, body.PartnerTrxID),
		zap.String("payment_status", body.PaymentStatus),
	)
	ctrl.confirm(w, r, requestID, "PaymentController.OyCallback", body.PartnerTrxID)
}

func (ctrl *PaymentController) XenditInvoiceCallback(w http.ResponseWriter, r *http.Request) {
	requestID, ok := requestIDFrom(ctrl.Log, w, r, "PaymentController.XenditInvoiceCallback")
	if !ok {
		return
	}

	body := new(requests.XenditInvoiceCallbackBody)
	if err := json.NewDecoder(r.Body).Decode(body); err != nil {
		ctrl.Log.Error("PaymentController.XenditInvoiceCallback failed to parse body",
			zap.String(constvars.LoggingRequestIDKey, requestID),
			zap.Error(err),
		)
		utils.BuildErrorResponse(ctrl.Log, w, exceptions.ErrCannotParseJSON(err))
		return
	}

	ctrl.Log.Info("PaymentController.XenditInvoiceCallback received",
		zap.String(constvars.LoggingRequestIDKey, requestID),
		zap.String("invoice_id", body.ID),
		zap.String("external_id", body.ExternalID),
		zap.String("status", body.Status),
	)
	ctrl.confirm(w, r, requestID, "PaymentController.XenditInvoiceCallback", body.ID)
}

func (ctrl *PaymentController) SandboxCallback(w http.ResponseWriter, r *http.Request) {
	requestID, ok := requestIDFrom(ctrl.Log, w, r, "PaymentController.SandboxCallback")
	if !ok {
		return
	}

	body := new(requests.SandboxCallback)
	if err := utils.DecodeAndValidate(r, body); err != nil {
		utils.BuildErrorResponse(ctrl.Log, w, err)
		return
	}
	ctrl.confirm(w, r, requestID, "PaymentController.SandboxCallback", body.GatewayReference)
}

func (ctrl *PaymentController) confirm(w http.ResponseWriter, r *http.Request, requestID, handler, gatewayReference string) {
	if gatewayReference == "" {
		utils.BuildErrorResponse(ctrl.Log, w, exceptions.ErrInputValidation(nil))
		return
	}

	start := time.Now()
	ctx, cancel := context.WithTimeout(r.Context(), 20*time.Second)
	defer cancel()

	transaction, err := ctrl.WalletUsecase.ConfirmTopUp(ctx, gatewayReference)
	if err != nil {
		ctrl.Log.Error(handler+" error from usecase",
			zap.String(constvars.LoggingRequestIDKey, requestID),
			zap.String(constvars.LoggingGatewayRefKey, gatewayReference),
			zap.Duration(constvars.LoggingDurationKey, time.Since(start)),
			zap.Error(err),
		)
		writeUsecaseError(ctrl.Log, w, err)
		return
	}

	utils.LogBusinessEvent(ctrl.Log, "top_up_callback_processed", requestID,
		zap.String(constvars.LoggingGatewayRefKey, gatewayReference),
		zap.String(constvars.LoggingTransactionIDKey, transaction.ID),
		zap.String("status", string(transaction.Status)),
		zap.Duration(constvars.LoggingDurationKey, time.Since(start)),
	)
	utils.BuildSuccessResponse(w, constvars.StatusOK, constvars.WebhookAcceptedMessage, transaction)
}

// PayConsultation moves a consultation fee from the patient's wallet to the
// practitioner's, keeping the commission of the practitioner's plan.
func (ctrl *PaymentController) PayConsultation(w http.ResponseWriter, r *http.Request) {
	requestID, ok := requestIDFrom(ctrl.Log, w, r, "PaymentController.PayConsultation")
	if !ok {
		return
	}

	request := new(requests.ConsultationPayment)
	if err := utils.DecodeAndValidate(r, request); err != nil {
		utils.BuildErrorResponse(ctrl.Log, w, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	result, err := ctrl.payConsultation(ctx, request)
	if err != nil {
		ctrl.Log.Error("PaymentController.PayConsultation error from usecase",
			zap.String(constvars.LoggingRequestIDKey, requestID),
			zap.String("patient_id", request.PatientID),
			zap.String("practitioner_id", request.PractitionerID),
			zap.Error(err),
		)
		writeUsecaseError(ctrl.Log, w, err)
		return
	}

	utils.LogBusinessEvent(ctrl.Log, "consultation_paid", requestID,
		zap.String("patient_id", request.PatientID),
		zap.String("practitioner_id", request.PractitionerID),
		zap.Int64("commission", result.CommissionAmount.Int64()),
	)
	utils.BuildSuccessResponse(w, constvars.StatusCreated, constvars.ConsultationPaidSuccessMessage, result)
}

func (ctrl *PaymentController) payConsultation(ctx context.Context, request *requests.ConsultationPayment) (*responses.TransferResult, error) {
	patientWallet, err := ctrl.WalletUsecase.GetWalletByOwner(ctx, request.PatientID)
	if err != nil {
		return nil, err
	}
	practitionerWallet, err := ctrl.WalletUsecase.GetWalletByOwner(ctx, request.PractitionerID)
	if err != nil {
		return nil, err
	}
	rate, err := ctrl.SubscriptionUsecase.ResolveCommissionRate(ctx, request.PractitionerID)
	if err != nil {
		return nil, err
	}

	description := request.Description
	if description == "" {
		description = "consultation " + request.PractitionerID
	}
	return ctrl.WalletUsecase.Transfer(ctx, &requests.Transfer{
		FromWalletID:    patientWallet.ID,
		ToWalletID:      practitionerWallet.ID,
		Amount:          request.Amount,
		CommissionRate:  rate.String(),
		ReferenceNumber: request.ReferenceNumber,
		Description:     description,
	})
}
