package wallets

import (
	"context"
	"sort"

	"konsulin-wallet-service/internal/app/contracts"
	"konsulin-wallet-service/internal/app/models"
	"konsulin-wallet-service/internal/pkg/constvars"
	"konsulin-wallet-service/internal/pkg/exceptions"
	"konsulin-wallet-service/internal/pkg/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ledgerUnit carries one ledger transaction plus whatever must happen once it
// commits. compensated holds the error of a debit that was reversed inside the
// unit: the failure record commits and the error is returned afterwards.
type ledgerUnit struct {
	tx          contracts.LedgerTx
	events      []models.Event
	compensated error
}

func (u *ledgerUnit) emit(event models.Event) {
	u.events = append(u.events, event)
}

func (uc *walletUsecase) inUnit(ctx context.Context, fn func(u *ledgerUnit) error) error {
	u := &ledgerUnit{}
	err := uc.LedgerStore.RunInTx(ctx, func(tx contracts.LedgerTx) error {
		u.tx = tx
		u.events = nil
		u.compensated = nil
		return fn(u)
	})
	if err != nil {
		return err
	}

	uc.publish(ctx, u.events)
	return u.compensated
}

// lockWallets locks every id once, in ascending id order.
func (uc *walletUsecase) lockWallets(ctx context.Context, u *ledgerUnit, walletIDs ...string) (map[string]*models.Wallet, error) {
	ordered := make([]string, 0, len(walletIDs))
	seen := make(map[string]bool, len(walletIDs))
	for _, id := range walletIDs {
		if !seen[id] {
			seen[id] = true
			ordered = append(ordered, id)
		}
	}
	sort.Strings(ordered)

	locked := make(map[string]*models.Wallet, len(ordered))
	for _, id := range ordered {
		wallet, err := u.tx.LockWallet(ctx, id)
		if err != nil {
			return nil, err
		}
		locked[id] = wallet
	}
	return locked, nil
}

// settle posts a pending record against its locked wallet. Outflows are
// applied before completion and reversed if completion fails; inflows are
// applied only once the record is completed. A nil record with a nil error
// means the outflow was compensated and the unit should commit the failure.
func (uc *walletUsecase) settle(ctx context.Context, u *ledgerUnit, wallet *models.Wallet, pending *models.Transaction, gatewayReference *string) (*models.Transaction, error) {
	debit := pending.Amount < 0
	if debit {
		wallet.Apply(pending.Amount, uc.now())
		if err := u.tx.SaveWallet(ctx, wallet); err != nil {
			return nil, err
		}
	}

	completed, err := uc.TransactionManager.CompleteTransaction(ctx, u.tx, pending.ID, gatewayReference)
	if err != nil {
		if !debit {
			return nil, err
		}
		return nil, uc.compensate(ctx, u, wallet, pending, err)
	}

	if !debit {
		wallet.Apply(pending.Amount, uc.now())
		if err := u.tx.SaveWallet(ctx, wallet); err != nil {
			return nil, err
		}
	}

	u.emit(newTransactionEvent(completed, pending.Status))
	return completed, nil
}

func (uc *walletUsecase) compensate(ctx context.Context, u *ledgerUnit, wallet *models.Wallet, pending *models.Transaction, cause error) error {
	requestID := utils.GetRequestID(ctx)

	failed, reverse, err := uc.TransactionManager.FailTransaction(ctx, u.tx, pending.ID, cause.Error())
	if err != nil {
		uc.Log.Error("walletUsecase.compensate could not fail transaction",
			zap.String(constvars.LoggingRequestIDKey, requestID),
			zap.String(constvars.LoggingTransactionIDKey, pending.ID),
			zap.Error(err),
		)
		return exceptions.ErrCompensationFailed(cause, pending.ID)
	}

	if reverse {
		wallet.Apply(pending.Amount.Neg(), uc.now())
		if err := u.tx.SaveWallet(ctx, wallet); err != nil {
			return exceptions.ErrCompensationFailed(err, pending.ID)
		}
	}

	uc.Log.Warn("walletUsecase.compensate reversed debit",
		zap.String(constvars.LoggingRequestIDKey, requestID),
		zap.String(constvars.LoggingTransactionIDKey, pending.ID),
		zap.String(constvars.LoggingWalletIDKey, wallet.ID),
		zap.Error(cause),
	)
	u.emit(newTransactionEvent(failed, pending.Status))
	u.compensated = cause
	return nil
}

func (uc *walletUsecase) publish(ctx context.Context, events []models.Event) {
	if uc.EventPublisher == nil || len(events) == 0 {
		return
	}
	if err := uc.EventPublisher.Publish(ctx, events...); err != nil {
		uc.Log.Warn("walletUsecase.publish failed",
			zap.String(constvars.LoggingRequestIDKey, utils.GetRequestID(ctx)),
			zap.Int(constvars.LoggingCountKey, len(events)),
			zap.Error(err),
		)
	}
}

func newTransactionEvent(transaction *models.Transaction, oldStatus models.TransactionStatus) models.Event {
	return models.Event{
		ID:         uuid.NewString(),
		EntityType: models.EntityTypeTransaction,
		EntityID:   transaction.ID,
		OldState:   string(oldStatus),
		NewState:   string(transaction.Status),
		Timestamp:  transaction.UpdatedAt,
		Data: map[string]interface{}{
			"wallet_id":        transaction.WalletID,
			"amount":           transaction.Amount.Int64(),
			"type":             string(transaction.Type),
			"reference_number": transaction.ReferenceNumber,
		},
	}
}

func newWalletEvent(wallet *models.Wallet, oldState, newState string) models.Event {
	return models.Event{
		ID:         uuid.NewString(),
		EntityType: models.EntityTypeWallet,
		EntityID:   wallet.ID,
		OldState:   oldState,
		NewState:   newState,
		Timestamp:  wallet.UpdatedAt,
		Data: map[string]interface{}{
			"owner_id":   wallet.OwnerID,
			"owner_type": string(wallet.OwnerType),
		},
	}
}

func walletState(wallet *models.Wallet) string {
	if wallet.IsActive {
		return "active"
	}
	return "inactive"
}
