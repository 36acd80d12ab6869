package wallets

import (
	"context"
	"errors"

	"konsulin-wallet-service/internal/app/models"
	"konsulin-wallet-service/internal/pkg/constvars"
	"konsulin-wallet-service/internal/pkg/exceptions"
	"konsulin-wallet-service/internal/pkg/money"
	"konsulin-wallet-service/internal/pkg/utils"

	"go.uber.org/zap"
)

// Refund reverses a completed transaction together with the legs that were
// posted alongside it (transfer credit and commission, platform side of a
// charge). Deposits funded through the gateway are reserved on the ledger
// first, refunded at the gateway, then posted.
func (uc *walletUsecase) Refund(ctx context.Context, transactionID, reason string) ([]models.Transaction, error) {
	requestID := utils.GetRequestID(ctx)
	uc.Log.Info("walletUsecase.Refund called",
		zap.String(constvars.LoggingRequestIDKey, requestID),
		zap.String(constvars.LoggingTransactionIDKey, transactionID),
	)

	original, err := uc.LedgerStore.FindTransactionByID(ctx, transactionID)
	if err != nil {
		return nil, err
	}
	if isSecondaryLeg(original) {
		original, err = uc.LedgerStore.FindTransactionByID(ctx, *original.RelatedTransactionID)
		if err != nil {
			return nil, err
		}
	}
	if original.Type == models.TransactionTypeRefund || original.Status != models.TransactionStatusCompleted {
		return nil, exceptions.ErrInvalidStateTransition("transaction", string(original.Status), string(models.TransactionStatusRefunded))
	}

	var refunds []models.Transaction
	if original.Type == models.TransactionTypeDeposit && original.GatewayReference != nil && uc.PaymentGateway != nil {
		refunds, err = uc.refundThroughGateway(ctx, original, reason)
	} else {
		refunds, err = uc.refundOnLedger(ctx, original, reason)
	}
	if err != nil {
		uc.Log.Error("walletUsecase.Refund error",
			zap.String(constvars.LoggingRequestIDKey, requestID),
			zap.String(constvars.LoggingTransactionIDKey, original.ID),
			zap.Error(err),
		)
		return nil, err
	}

	uc.Log.Info("walletUsecase.Refund succeeded",
		zap.String(constvars.LoggingRequestIDKey, requestID),
		zap.String(constvars.LoggingTransactionIDKey, original.ID),
		zap.Int(constvars.LoggingCountKey, len(refunds)),
	)
	return refunds, nil
}

// refundPlan is the set of legs a refund reverses, with their wallets locked
// and the net movement each wallet takes.
type refundPlan struct {
	legs    []models.Transaction
	wallets map[string]*models.Wallet
	deltas  map[string]money.Amount
}

// planRefund locks every wallet the refund touches, then re-reads the
// original and its legs under those locks and checks that each wallet can
// absorb its reversal before anything is written.
func (uc *walletUsecase) planRefund(ctx context.Context, u *ledgerUnit, originalID string) (*refundPlan, error) {
	original, err := u.tx.GetTransaction(ctx, originalID)
	if err != nil {
		return nil, err
	}
	related, err := u.tx.FindTransactionsByRelated(ctx, original.ID)
	if err != nil {
		return nil, err
	}
	walletIDs := []string{original.WalletID}
	for _, leg := range related {
		walletIDs = append(walletIDs, leg.WalletID)
	}
	wallets, err := uc.lockWallets(ctx, u, walletIDs...)
	if err != nil {
		return nil, err
	}

	original, err = u.tx.GetTransaction(ctx, originalID)
	if err != nil {
		return nil, err
	}
	if original.Status != models.TransactionStatusCompleted {
		return nil, exceptions.ErrInvalidStateTransition("transaction", string(original.Status), string(models.TransactionStatusRefunded))
	}
	related, err = u.tx.FindTransactionsByRelated(ctx, original.ID)
	if err != nil {
		return nil, err
	}

	plan := &refundPlan{
		legs:    []models.Transaction{*original},
		wallets: wallets,
		deltas:  map[string]money.Amount{original.WalletID: original.Amount.Neg()},
	}
	for _, leg := range related {
		if leg.Type == models.TransactionTypeRefund {
			if leg.Status == models.TransactionStatusPending {
				return nil, exceptions.ErrStateConflict("transaction", original.ID, constvars.RefundableState)
			}
			continue
		}
		if leg.Status != models.TransactionStatusCompleted {
			continue
		}
		if _, ok := wallets[leg.WalletID]; !ok {
			return nil, exceptions.ErrStateConflict("transaction", original.ID, constvars.RefundableState)
		}
		plan.legs = append(plan.legs, leg)
		plan.deltas[leg.WalletID] -= leg.Amount
	}

	for id, delta := range plan.deltas {
		available := wallets[id].AvailableBalance()
		if delta < 0 && available+delta < 0 {
			return nil, exceptions.ErrInsufficientFunds(id, available, delta.Abs())
		}
	}
	return plan, nil
}

// refundOnLedger reverses every leg in one unit.
func (uc *walletUsecase) refundOnLedger(ctx context.Context, original *models.Transaction, reason string) ([]models.Transaction, error) {
	var refunds []models.Transaction
	err := uc.inUnit(ctx, func(u *ledgerUnit) error {
		refunds = nil
		plan, err := uc.planRefund(ctx, u, original.ID)
		if err != nil {
			return err
		}

		pending := make([]*models.Transaction, 0, len(plan.legs))
		for i := range plan.legs {
			refund, err := uc.TransactionManager.RefundTransaction(ctx, u.tx, plan.legs[i].ID, reason)
			if err != nil {
				return err
			}
			plan.legs[i].Status = models.TransactionStatusRefunded
			u.emit(newTransactionEvent(&plan.legs[i], models.TransactionStatusCompleted))
			pending = append(pending, refund)
		}

		refunds, err = uc.postRefunds(ctx, u, plan.wallets, pending)
		return err
	})
	if err != nil {
		return nil, err
	}
	return refunds, nil
}

// refundThroughGateway holds the reversal as blocked balance while the
// gateway is called, so the ledger never owes the gateway money it cannot
// take back. A refused or failed gateway call releases the hold.
func (uc *walletUsecase) refundThroughGateway(ctx context.Context, original *models.Transaction, reason string) ([]models.Transaction, error) {
	requestID := utils.GetRequestID(ctx)

	var (
		pending  []*models.Transaction
		reserved map[string]money.Amount
	)
	err := uc.inUnit(ctx, func(u *ledgerUnit) error {
		pending = nil
		plan, err := uc.planRefund(ctx, u, original.ID)
		if err != nil {
			return err
		}

		reserved = make(map[string]money.Amount, len(plan.deltas))
		for id, delta := range plan.deltas {
			if delta >= 0 {
				continue
			}
			wallet := plan.wallets[id]
			wallet.BlockedBalance += delta.Abs()
			wallet.SetUpdatedAt(uc.now())
			if err := u.tx.SaveWallet(ctx, wallet); err != nil {
				return err
			}
			reserved[id] = delta.Abs()
		}

		for i := range plan.legs {
			refund, err := uc.TransactionManager.CreateRefund(ctx, u.tx, plan.legs[i].ID, reason)
			if err != nil {
				return err
			}
			pending = append(pending, refund)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	amount := original.Amount
	refunded, err := uc.PaymentGateway.Refund(ctx, *original.GatewayReference, &amount)
	if err == nil && !refunded.Refunded {
		err = exceptions.ErrPaymentDeclined(nil, original.ReferenceNumber)
	}
	settleCtx := context.WithoutCancel(ctx)
	if err != nil {
		uc.Log.Error("walletUsecase.refundThroughGateway gateway refund failed",
			zap.String(constvars.LoggingRequestIDKey, requestID),
			zap.String(constvars.LoggingGatewayRefKey, *original.GatewayReference),
			zap.Error(err),
		)
		if releaseErr := uc.releaseRefund(settleCtx, pending, reserved, err.Error()); releaseErr != nil {
			return nil, errors.Join(err, releaseErr)
		}
		return nil, err
	}

	var refunds []models.Transaction
	err = uc.inUnit(settleCtx, func(u *ledgerUnit) error {
		refunds = nil
		wallets, err := uc.lockWallets(settleCtx, u, walletIDsOf(pending)...)
		if err != nil {
			return err
		}
		for id, amount := range reserved {
			wallets[id].BlockedBalance -= amount
		}

		for _, refund := range pending {
			leg, err := uc.TransactionManager.MarkRefunded(settleCtx, u.tx, *refund.RelatedTransactionID)
			if err != nil {
				return err
			}
			u.emit(newTransactionEvent(leg, models.TransactionStatusCompleted))
		}

		refunds, err = uc.postRefunds(settleCtx, u, wallets, pending)
		return err
	})
	if err != nil {
		uc.Log.Error("walletUsecase.refundThroughGateway gateway refunded but ledger posting failed",
			zap.String(constvars.LoggingRequestIDKey, requestID),
			zap.String(constvars.LoggingTransactionIDKey, original.ID),
			zap.String(constvars.LoggingGatewayRefKey, *original.GatewayReference),
			zap.Error(err),
		)
		return nil, err
	}
	return refunds, nil
}

// releaseRefund drops the hold taken for a gateway refund and cancels its
// pending records.
func (uc *walletUsecase) releaseRefund(ctx context.Context, pending []*models.Transaction, reserved map[string]money.Amount, reason string) error {
	return uc.inUnit(ctx, func(u *ledgerUnit) error {
		wallets, err := uc.lockWallets(ctx, u, walletIDsOf(pending)...)
		if err != nil {
			return err
		}
		for id, amount := range reserved {
			wallet := wallets[id]
			wallet.BlockedBalance -= amount
			wallet.SetUpdatedAt(uc.now())
			if err := u.tx.SaveWallet(ctx, wallet); err != nil {
				return err
			}
		}
		for _, refund := range pending {
			cancelled, err := uc.TransactionManager.CancelTransaction(ctx, u.tx, refund.ID, reason)
			if err != nil {
				return err
			}
			u.emit(newTransactionEvent(cancelled, models.TransactionStatusPending))
		}
		return nil
	})
}

// postRefunds applies pending refunds to their locked wallets and completes
// them.
func (uc *walletUsecase) postRefunds(ctx context.Context, u *ledgerUnit, wallets map[string]*models.Wallet, pending []*models.Transaction) ([]models.Transaction, error) {
	for _, refund := range pending {
		wallets[refund.WalletID].Apply(refund.Amount, uc.now())
	}
	for id, wallet := range wallets {
		if !wallet.Consistent() {
			delta := totalFor(pending, id)
			return nil, exceptions.ErrInsufficientFunds(id, wallet.AvailableBalance()-delta, delta.Abs())
		}
		if err := u.tx.SaveWallet(ctx, wallet); err != nil {
			return nil, err
		}
	}

	refunds := make([]models.Transaction, 0, len(pending))
	for _, refund := range pending {
		completed, err := uc.TransactionManager.CompleteTransaction(ctx, u.tx, refund.ID, nil)
		if err != nil {
			return nil, err
		}
		u.emit(newTransactionEvent(completed, models.TransactionStatusPending))
		refunds = append(refunds, *completed)
	}
	return refunds, nil
}

func (uc *walletUsecase) CancelPendingTransaction(ctx context.Context, transactionID, reason string) (*models.Transaction, error) {
	requestID := utils.GetRequestID(ctx)
	uc.Log.Info("walletUsecase.CancelPendingTransaction called",
		zap.String(constvars.LoggingRequestIDKey, requestID),
		zap.String(constvars.LoggingTransactionIDKey, transactionID),
	)

	var cancelled *models.Transaction
	err := uc.inUnit(ctx, func(u *ledgerUnit) error {
		current, err := u.tx.GetTransaction(ctx, transactionID)
		if err != nil {
			return err
		}
		if current.Type == models.TransactionTypeRefund {
			return exceptions.ErrStateConflict("transaction", current.ID, constvars.CancellableState)
		}
		if _, err := u.tx.LockWallet(ctx, current.WalletID); err != nil {
			return err
		}

		cancelled, err = uc.TransactionManager.CancelTransaction(ctx, u.tx, transactionID, reason)
		if err != nil {
			return err
		}
		u.emit(newTransactionEvent(cancelled, current.Status))
		return nil
	})
	if err != nil {
		return nil, err
	}
	return cancelled, nil
}

// isSecondaryLeg reports whether the record was posted as a consequence of
// another one and must be refunded through it.
func isSecondaryLeg(transaction *models.Transaction) bool {
	if transaction.RelatedTransactionID == nil {
		return false
	}
	switch transaction.Type {
	case models.TransactionTypeTransferIn, models.TransactionTypeCommission:
		return true
	case models.TransactionTypePayment, models.TransactionTypeSubscription:
		return transaction.Amount > 0
	}
	return false
}

func walletIDsOf(transactions []*models.Transaction) []string {
	ids := make([]string, 0, len(transactions))
	for _, transaction := range transactions {
		ids = append(ids, transaction.WalletID)
	}
	return ids
}

func totalFor(transactions []*models.Transaction, walletID string) money.Amount {
	var total money.Amount
	for _, transaction := range transactions {
		if transaction.WalletID == walletID {
			total += transaction.Amount
		}
	}
	return total
}
