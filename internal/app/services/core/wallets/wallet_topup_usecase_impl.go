package wallets

import (
	"context"
	"errors"
	"fmt"

	"konsulin-wallet-service/internal/app/contracts"
	"konsulin-wallet-service/internal/app/models"
	"konsulin-wallet-service/internal/pkg/constvars"
	"konsulin-wallet-service/internal/pkg/dto/requests"
	"konsulin-wallet-service/internal/pkg/dto/responses"
	"konsulin-wallet-service/internal/pkg/exceptions"
	"konsulin-wallet-service/internal/pkg/utils"

	"go.uber.org/zap"
)

// InitiateTopUp screens the request, opens a payment at the gateway and
// records a pending deposit keyed by the gateway reference.
func (uc *walletUsecase) InitiateTopUp(ctx context.Context, request *requests.InitiateTopUp) (*responses.TopUp, error) {
	requestID := utils.GetRequestID(ctx)
	uc.Log.Info("walletUsecase.InitiateTopUp called",
		zap.String(constvars.LoggingRequestIDKey, requestID),
		zap.String(constvars.LoggingWalletIDKey, request.WalletID),
		zap.Int64(constvars.LoggingAmountKey, request.Amount.Int64()),
	)
	if !request.Amount.IsPositive() {
		return nil, exceptions.ErrInvalidAmount(request.Amount)
	}

	wallet, err := uc.LedgerStore.FindWalletByID(ctx, request.WalletID)
	if err != nil {
		return nil, err
	}
	if err := requireActive(wallet); err != nil {
		return nil, err
	}

	reference, err := uc.TransactionManager.GenerateReference(constvars.ReferencePrefixDeposit)
	if err != nil {
		return nil, err
	}

	if uc.FraudChecker != nil {
		assessment, err := uc.FraudChecker.Assess(ctx, &requests.FraudAssessment{
			WalletID:  wallet.ID,
			OwnerID:   wallet.OwnerID,
			Amount:    request.Amount,
			Operation: "top_up",
		})
		if err != nil {
			return nil, err
		}
		if !assessment.Allowed {
			uc.Log.Warn("walletUsecase.InitiateTopUp rejected by fraud check",
				zap.String(constvars.LoggingRequestIDKey, requestID),
				zap.String(constvars.LoggingWalletIDKey, wallet.ID),
				zap.Int("score", assessment.Score),
				zap.Strings("reasons", assessment.Reasons),
			)
			return nil, exceptions.ErrFraudRejected(reference)
		}
	}

	initiation, err := uc.PaymentGateway.Initiate(ctx, &requests.GatewayInitiate{
		Amount:            request.Amount,
		OrderReference:    reference,
		CallbackReference: reference,
		CustomerID:        wallet.OwnerID,
		CustomerEmail:     request.CustomerEmail,
		Description:       request.Description,
	})
	if err != nil {
		uc.Log.Error("walletUsecase.InitiateTopUp gateway initiate failed",
			zap.String(constvars.LoggingRequestIDKey, requestID),
			zap.String(constvars.LoggingReferenceKey, reference),
			zap.Error(err),
		)
		return nil, err
	}

	var pending *models.Transaction
	err = uc.inUnit(ctx, func(u *ledgerUnit) error {
		if _, err := u.tx.LockWallet(ctx, wallet.ID); err != nil {
			return err
		}
		pending, err = uc.TransactionManager.CreateTransaction(ctx, u.tx, &models.TransactionDraft{
			WalletID:         wallet.ID,
			Amount:           request.Amount,
			Type:             models.TransactionTypeDeposit,
			ReferenceNumber:  reference,
			GatewayReference: &initiation.GatewayReference,
			Description:      request.Description,
			Metadata:         map[string]string{"source": uc.PaymentGateway.Name()},
		})
		return err
	})
	if err != nil {
		return nil, err
	}

	uc.Log.Info("walletUsecase.InitiateTopUp succeeded",
		zap.String(constvars.LoggingRequestIDKey, requestID),
		zap.String(constvars.LoggingTransactionIDKey, pending.ID),
		zap.String(constvars.LoggingGatewayRefKey, initiation.GatewayReference),
	)
	return &responses.TopUp{
		Transaction:      pending,
		RedirectURL:      initiation.RedirectURL,
		GatewayReference: initiation.GatewayReference,
	}, nil
}

// ConfirmTopUp settles the pending deposit behind a gateway callback.
// Re-delivery for an already completed deposit returns it unchanged.
func (uc *walletUsecase) ConfirmTopUp(ctx context.Context, gatewayReference string) (*models.Transaction, error) {
	requestID := utils.GetRequestID(ctx)
	uc.Log.Info("walletUsecase.ConfirmTopUp called",
		zap.String(constvars.LoggingRequestIDKey, requestID),
		zap.String(constvars.LoggingGatewayRefKey, gatewayReference),
	)

	var found *models.Transaction
	err := uc.LedgerStore.RunInTx(ctx, func(tx contracts.LedgerTx) error {
		var err error
		found, err = tx.FindTransactionByGatewayReference(ctx, gatewayReference)
		return err
	})
	if err != nil {
		return nil, err
	}
	if found == nil {
		return nil, exceptions.ErrTransactionNotFound(nil, gatewayReference)
	}
	if found.Status == models.TransactionStatusCompleted {
		uc.Log.Info("walletUsecase.ConfirmTopUp already completed",
			zap.String(constvars.LoggingRequestIDKey, requestID),
			zap.String(constvars.LoggingTransactionIDKey, found.ID),
		)
		return found, nil
	}
	if found.Status != models.TransactionStatusPending {
		return nil, exceptions.ErrInvalidStateTransition("transaction", string(found.Status), string(models.TransactionStatusCompleted))
	}

	expected := found.Amount
	verification, verifyErr := uc.PaymentGateway.Verify(ctx, gatewayReference, &expected)
	if verifyErr != nil && !errors.Is(verifyErr, exceptions.ErrPaymentRejected) {
		uc.Log.Error("walletUsecase.ConfirmTopUp verification unavailable",
			zap.String(constvars.LoggingRequestIDKey, requestID),
			zap.String(constvars.LoggingGatewayRefKey, gatewayReference),
			zap.Error(verifyErr),
		)
		return nil, verifyErr
	}

	var settled *models.Transaction
	err = uc.inUnit(ctx, func(u *ledgerUnit) error {
		wallet, err := u.tx.LockWallet(ctx, found.WalletID)
		if err != nil {
			return err
		}
		current, err := u.tx.GetTransaction(ctx, found.ID)
		if err != nil {
			return err
		}
		switch current.Status {
		case models.TransactionStatusCompleted:
			settled = current
			return nil
		case models.TransactionStatusPending:
		default:
			return exceptions.ErrInvalidStateTransition("transaction", string(current.Status), string(models.TransactionStatusCompleted))
		}

		var failure string
		switch {
		case verifyErr != nil:
			failure = verifyErr.Error()
		case verification.Amount != current.Amount:
			failure = fmt.Sprintf("gateway amount %s does not match %s", verification.Amount, current.Amount)
		}
		if failure != "" {
			settled, _, err = uc.TransactionManager.FailTransaction(ctx, u.tx, current.ID, failure)
			if err != nil {
				return err
			}
			u.emit(newTransactionEvent(settled, current.Status))
			return nil
		}

		settled, err = uc.settle(ctx, u, wallet, current, &gatewayReference)
		return err
	})
	if err != nil {
		uc.Log.Error("walletUsecase.ConfirmTopUp error",
			zap.String(constvars.LoggingRequestIDKey, requestID),
			zap.String(constvars.LoggingGatewayRefKey, gatewayReference),
			zap.Error(err),
		)
		return nil, err
	}

	uc.Log.Info("walletUsecase.ConfirmTopUp processed",
		zap.String(constvars.LoggingRequestIDKey, requestID),
		zap.String(constvars.LoggingTransactionIDKey, settled.ID),
		zap.String(constvars.LoggingStatusKey, string(settled.Status)),
	)
	return settled, nil
}
