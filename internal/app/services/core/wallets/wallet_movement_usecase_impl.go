package wallets

import (
	"context"
	"fmt"
	"time"

	"konsulin-wallet-service/internal/app/models"
	"konsulin-wallet-service/internal/pkg/constvars"
	"konsulin-wallet-service/internal/pkg/dto/requests"
	"konsulin-wallet-service/internal/pkg/dto/responses"
	"konsulin-wallet-service/internal/pkg/exceptions"
	"konsulin-wallet-service/internal/pkg/money"
	"konsulin-wallet-service/internal/pkg/utils"

	"go.uber.org/zap"
)

func (uc *walletUsecase) Deposit(ctx context.Context, request *requests.Deposit) (*models.Transaction, error) {
	requestID := utils.GetRequestID(ctx)
	uc.Log.Info("walletUsecase.Deposit called",
		zap.String(constvars.LoggingRequestIDKey, requestID),
		zap.String(constvars.LoggingWalletIDKey, request.WalletID),
		zap.Int64(constvars.LoggingAmountKey, request.Amount.Int64()),
	)
	if !request.Amount.IsPositive() {
		return nil, exceptions.ErrInvalidAmount(request.Amount)
	}

	var gatewayReference *string
	if request.GatewayReference != "" {
		gatewayReference = &request.GatewayReference
	}

	var deposit *models.Transaction
	err := uc.inUnit(ctx, func(u *ledgerUnit) error {
		wallet, err := u.tx.LockWallet(ctx, request.WalletID)
		if err != nil {
			return err
		}
		if err := requireActive(wallet); err != nil {
			return err
		}

		if gatewayReference != nil {
			existing, err := u.tx.FindTransactionByGatewayReference(ctx, *gatewayReference)
			if err != nil {
				return err
			}
			if existing != nil {
				if existing.Status == models.TransactionStatusCompleted && existing.WalletID == wallet.ID {
					deposit = existing
					return nil
				}
				return exceptions.ErrStateConflict("transaction", existing.ID, string(models.TransactionStatusPending))
			}
		}

		pending, err := uc.TransactionManager.CreateTransaction(ctx, u.tx, &models.TransactionDraft{
			WalletID:         wallet.ID,
			Amount:           request.Amount,
			Type:             models.TransactionTypeDeposit,
			ReferenceNumber:  request.ReferenceNumber,
			GatewayReference: gatewayReference,
			Description:      request.Description,
			Metadata:         map[string]string{"source": request.Source},
		})
		if err != nil {
			return err
		}

		deposit, err = uc.settle(ctx, u, wallet, pending, gatewayReference)
		return err
	})
	if err != nil {
		uc.Log.Error("walletUsecase.Deposit error",
			zap.String(constvars.LoggingRequestIDKey, requestID),
			zap.String(constvars.LoggingWalletIDKey, request.WalletID),
			zap.Error(err),
		)
		return nil, err
	}

	uc.Log.Info("walletUsecase.Deposit succeeded",
		zap.String(constvars.LoggingRequestIDKey, requestID),
		zap.String(constvars.LoggingTransactionIDKey, deposit.ID),
		zap.String(constvars.LoggingReferenceKey, deposit.ReferenceNumber),
	)
	return deposit, nil
}

func (uc *walletUsecase) Withdraw(ctx context.Context, request *requests.Withdraw) (*models.Transaction, error) {
	requestID := utils.GetRequestID(ctx)
	uc.Log.Info("walletUsecase.Withdraw called",
		zap.String(constvars.LoggingRequestIDKey, requestID),
		zap.String(constvars.LoggingWalletIDKey, request.WalletID),
		zap.Int64(constvars.LoggingAmountKey, request.Amount.Int64()),
	)
	if !request.Amount.IsPositive() {
		return nil, exceptions.ErrInvalidAmount(request.Amount)
	}

	var withdrawal *models.Transaction
	err := uc.inUnit(ctx, func(u *ledgerUnit) error {
		wallet, err := u.tx.LockWallet(ctx, request.WalletID)
		if err != nil {
			return err
		}
		if err := requireActive(wallet); err != nil {
			return err
		}
		if err := uc.validateWithdrawal(ctx, u, wallet, request.Amount); err != nil {
			return err
		}

		pending, err := uc.TransactionManager.CreateTransaction(ctx, u.tx, &models.TransactionDraft{
			WalletID:        wallet.ID,
			Amount:          request.Amount.Neg(),
			Type:            models.TransactionTypeWithdrawal,
			ReferenceNumber: request.ReferenceNumber,
			Description:     request.Description,
			Metadata:        map[string]string{"destination": request.Destination},
		})
		if err != nil {
			return err
		}

		withdrawal, err = uc.settle(ctx, u, wallet, pending, nil)
		return err
	})
	if err != nil {
		uc.Log.Error("walletUsecase.Withdraw error",
			zap.String(constvars.LoggingRequestIDKey, requestID),
			zap.String(constvars.LoggingWalletIDKey, request.WalletID),
			zap.Error(err),
		)
		return nil, err
	}

	uc.Log.Info("walletUsecase.Withdraw succeeded",
		zap.String(constvars.LoggingRequestIDKey, requestID),
		zap.String(constvars.LoggingTransactionIDKey, withdrawal.ID),
	)
	return withdrawal, nil
}

// validateWithdrawal runs the withdrawal policy against a locked wallet.
// Limits of zero or less are treated as unlimited.
func (uc *walletUsecase) validateWithdrawal(ctx context.Context, u *ledgerUnit, wallet *models.Wallet, amount money.Amount) error {
	ledgerConfig := uc.InternalConfig.Ledger

	if amount < ledgerConfig.MinimumWithdrawal {
		return exceptions.ErrBelowMinimumWithdrawal(amount, ledgerConfig.MinimumWithdrawal)
	}
	if available := wallet.AvailableBalance(); available < amount {
		return exceptions.ErrInsufficientFunds(wallet.ID, available, amount)
	}
	if ledgerConfig.VerificationThreshold > 0 && amount > ledgerConfig.VerificationThreshold && !wallet.IsVerified {
		return exceptions.ErrWalletVerificationRequired(wallet.ID, amount)
	}

	now := uc.now()
	if wallet.DailyWithdrawalLimit > 0 {
		daily, err := u.tx.SumCompletedWithdrawals(ctx, wallet.ID, now.Add(-24*time.Hour))
		if err != nil {
			return err
		}
		if daily+amount > wallet.DailyWithdrawalLimit {
			return exceptions.ErrDailyLimitExceeded(wallet.ID)
		}
	}
	if wallet.MonthlyWithdrawalLimit > 0 {
		monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
		monthly, err := u.tx.SumCompletedWithdrawals(ctx, wallet.ID, monthStart)
		if err != nil {
			return err
		}
		if monthly+amount > wallet.MonthlyWithdrawalLimit {
			return exceptions.ErrMonthlyLimitExceeded(wallet.ID)
		}
	}
	return nil
}

// Transfer moves amount between two wallets, crediting the commission to the
// platform wallet. All wallets involved are locked in ascending id order.
func (uc *walletUsecase) Transfer(ctx context.Context, request *requests.Transfer) (*responses.TransferResult, error) {
	requestID := utils.GetRequestID(ctx)
	uc.Log.Info("walletUsecase.Transfer called",
		zap.String(constvars.LoggingRequestIDKey, requestID),
		zap.String("from_wallet_id", request.FromWalletID),
		zap.String("to_wallet_id", request.ToWalletID),
		zap.Int64(constvars.LoggingAmountKey, request.Amount.Int64()),
	)
	if !request.Amount.IsPositive() {
		return nil, exceptions.ErrInvalidAmount(request.Amount)
	}
	if request.FromWalletID == request.ToWalletID {
		return nil, exceptions.ErrSameWalletTransfer(request.FromWalletID)
	}

	rate, err := uc.commissionRate(request.CommissionRate)
	if err != nil {
		return nil, err
	}
	net, commission := money.Split(request.Amount, rate)

	lockIDs := []string{request.FromWalletID, request.ToWalletID}
	var platformID string
	if commission > 0 {
		platformID, err = uc.platformWallet(ctx)
		if err != nil {
			return nil, err
		}
		lockIDs = append(lockIDs, platformID)
	}

	result := &responses.TransferResult{NetAmount: net, CommissionAmount: commission}
	err = uc.inUnit(ctx, func(u *ledgerUnit) error {
		wallets, err := uc.lockWallets(ctx, u, lockIDs...)
		if err != nil {
			return err
		}
		from, to := wallets[request.FromWalletID], wallets[request.ToWalletID]
		if err := requireActive(from); err != nil {
			return err
		}
		if err := requireActive(to); err != nil {
			return err
		}
		if available := from.AvailableBalance(); available < request.Amount {
			return exceptions.ErrInsufficientFunds(from.ID, available, request.Amount)
		}

		out, err := uc.TransactionManager.CreateTransaction(ctx, u.tx, &models.TransactionDraft{
			WalletID:        from.ID,
			Amount:          request.Amount.Neg(),
			Type:            models.TransactionTypeTransferOut,
			ReferenceNumber: request.ReferenceNumber,
			RelatedWalletID: &to.ID,
			Description:     request.Description,
			Metadata:        map[string]string{"commission_rate": rate.String()},
		})
		if err != nil {
			return err
		}
		result.Debit, err = uc.settle(ctx, u, from, out, nil)
		if err != nil || result.Debit == nil {
			return err
		}

		in, err := uc.TransactionManager.CreateTransaction(ctx, u.tx, &models.TransactionDraft{
			WalletID:             to.ID,
			Amount:               net,
			Type:                 models.TransactionTypeTransferIn,
			RelatedTransactionID: &out.ID,
			RelatedWalletID:      &from.ID,
			Description:          request.Description,
		})
		if err != nil {
			return err
		}
		if result.Credit, err = uc.settle(ctx, u, to, in, nil); err != nil {
			return err
		}

		if commission > 0 {
			platform := wallets[platformID]
			fee, err := uc.TransactionManager.CreateTransaction(ctx, u.tx, &models.TransactionDraft{
				WalletID:             platform.ID,
				Amount:               commission,
				Type:                 models.TransactionTypeCommission,
				RelatedTransactionID: &out.ID,
				RelatedWalletID:      &from.ID,
				Description:          request.Description,
			})
			if err != nil {
				return err
			}
			if result.Commission, err = uc.settle(ctx, u, platform, fee, nil); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		uc.Log.Error("walletUsecase.Transfer error",
			zap.String(constvars.LoggingRequestIDKey, requestID),
			zap.Error(err),
		)
		return nil, err
	}

	uc.Log.Info("walletUsecase.Transfer succeeded",
		zap.String(constvars.LoggingRequestIDKey, requestID),
		zap.String(constvars.LoggingTransactionIDKey, result.Debit.ID),
		zap.Int64("commission", commission.Int64()),
	)
	return result, nil
}

// Charge debits a wallet in favour of the platform wallet. A caller reference
// makes the charge idempotent: a completed charge with the same reference is
// returned as is. A failed or cancelled attempt is superseded by a retry
// posted under "<reference>-R<n>".
func (uc *walletUsecase) Charge(ctx context.Context, request *requests.Charge) (*models.Transaction, error) {
	requestID := utils.GetRequestID(ctx)
	uc.Log.Info("walletUsecase.Charge called",
		zap.String(constvars.LoggingRequestIDKey, requestID),
		zap.String(constvars.LoggingWalletIDKey, request.WalletID),
		zap.String(constvars.LoggingReferenceKey, request.ReferenceNumber),
		zap.Int64(constvars.LoggingAmountKey, request.Amount.Int64()),
	)
	if !request.Amount.IsPositive() {
		return nil, exceptions.ErrInvalidAmount(request.Amount)
	}
	chargeType := request.Type
	if chargeType == "" {
		chargeType = models.TransactionTypePayment
	}

	platformID, err := uc.platformWallet(ctx)
	if err != nil {
		return nil, err
	}
	if request.WalletID == platformID {
		return nil, exceptions.ErrSameWalletTransfer(platformID)
	}

	var debit *models.Transaction
	err = uc.inUnit(ctx, func(u *ledgerUnit) error {
		reference := request.ReferenceNumber
		if reference != "" {
			attempt, existing, err := uc.chargeAttempt(ctx, u, reference)
			if err != nil {
				return err
			}
			if existing != nil {
				return uc.resolveExistingCharge(existing, request, &debit)
			}
			reference = attempt
		}

		wallets, err := uc.lockWallets(ctx, u, request.WalletID, platformID)
		if err != nil {
			return err
		}
		payer, platform := wallets[request.WalletID], wallets[platformID]
		if err := requireActive(payer); err != nil {
			return err
		}
		if available := payer.AvailableBalance(); available < request.Amount {
			return exceptions.ErrInsufficientFunds(payer.ID, available, request.Amount)
		}

		pending, err := uc.TransactionManager.CreateTransaction(ctx, u.tx, &models.TransactionDraft{
			WalletID:        payer.ID,
			Amount:          request.Amount.Neg(),
			Type:            chargeType,
			ReferenceNumber: reference,
			RelatedWalletID: &platform.ID,
			Description:     request.Description,
			Metadata:        request.Metadata,
		})
		if err != nil {
			return err
		}
		debit, err = uc.settle(ctx, u, payer, pending, nil)
		if err != nil || debit == nil {
			return err
		}

		credit, err := uc.TransactionManager.CreateTransaction(ctx, u.tx, &models.TransactionDraft{
			WalletID:             platform.ID,
			Amount:               request.Amount,
			Type:                 chargeType,
			RelatedTransactionID: &pending.ID,
			RelatedWalletID:      &payer.ID,
			Description:          request.Description,
			Metadata:             request.Metadata,
		})
		if err != nil {
			return err
		}
		_, err = uc.settle(ctx, u, platform, credit, nil)
		return err
	})
	if err != nil {
		uc.Log.Error("walletUsecase.Charge error",
			zap.String(constvars.LoggingRequestIDKey, requestID),
			zap.String(constvars.LoggingWalletIDKey, request.WalletID),
			zap.Error(err),
		)
		return nil, err
	}
	return debit, nil
}

// chargeAttempt walks the attempts made under reference. It returns the live
// attempt if there is one, otherwise the first free reference in the chain.
func (uc *walletUsecase) chargeAttempt(ctx context.Context, u *ledgerUnit, reference string) (string, *models.Transaction, error) {
	candidate := reference
	for retry := 1; retry <= constvars.MaxChargeRetries+1; retry++ {
		existing, err := u.tx.FindTransactionByReference(ctx, candidate)
		if err != nil {
			return "", nil, err
		}
		if existing == nil {
			return candidate, nil, nil
		}
		switch existing.Status {
		case models.TransactionStatusFailed, models.TransactionStatusCancelled:
			candidate = fmt.Sprintf(constvars.ChargeRetryReferenceFormat, reference, retry)
		default:
			return candidate, existing, nil
		}
	}
	return "", nil, exceptions.ErrReferenceTaken(nil, reference)
}

func (uc *walletUsecase) resolveExistingCharge(existing *models.Transaction, request *requests.Charge, debit **models.Transaction) error {
	if existing.WalletID != request.WalletID || existing.Amount != request.Amount.Neg() {
		return exceptions.ErrReferenceTaken(nil, existing.ReferenceNumber)
	}
	switch existing.Status {
	case models.TransactionStatusCompleted:
		*debit = existing
		return nil
	case models.TransactionStatusPending:
		return exceptions.ErrStateConflict("transaction", existing.ID, string(models.TransactionStatusCompleted))
	default:
		return exceptions.ErrReferenceTaken(nil, existing.ReferenceNumber)
	}
}
