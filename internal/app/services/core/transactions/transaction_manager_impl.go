package transactions

import (
	"context"
	"errors"
	"time"

	"konsulin-wallet-service/internal/app/contracts"
	"konsulin-wallet-service/internal/app/models"
	"konsulin-wallet-service/internal/pkg/constvars"
	"konsulin-wallet-service/internal/pkg/exceptions"
	"konsulin-wallet-service/internal/pkg/utils"

	"go.uber.org/zap"
)

var referencePrefixes = map[models.TransactionType]string{
	models.TransactionTypeDeposit:      constvars.ReferencePrefixDeposit,
	models.TransactionTypeWithdrawal:   constvars.ReferencePrefixWithdrawal,
	models.TransactionTypeTransferIn:   constvars.ReferencePrefixTransfer,
	models.TransactionTypeTransferOut:  constvars.ReferencePrefixTransfer,
	models.TransactionTypeCommission:   constvars.ReferencePrefixCommission,
	models.TransactionTypeRefund:       constvars.ReferencePrefixRefund,
	models.TransactionTypeSubscription: constvars.ReferencePrefixSubscription,
	models.TransactionTypePayment:      constvars.ReferencePrefixCharge,
	models.TransactionTypeGiftCredit:   constvars.ReferencePrefixGiftCredit,
}

func ReferencePrefix(transactionType models.TransactionType) string {
	if prefix, ok := referencePrefixes[transactionType]; ok {
		return prefix
	}
	return constvars.ReferencePrefixCharge
}

type transactionManager struct {
	Log               *zap.Logger
	ReferenceAttempts int
	now               func() time.Time
	generate          func(prefix string, now time.Time) (string, error)
}

func NewTransactionManager(logger *zap.Logger, referenceAttempts int, clock func() time.Time) contracts.TransactionManager {
	if referenceAttempts <= 0 {
		referenceAttempts = constvars.DefaultReferenceAttempts
	}
	if clock == nil {
		clock = time.Now
	}
	return &transactionManager{
		Log:               logger,
		ReferenceAttempts: referenceAttempts,
		now:               clock,
		generate:          utils.GenerateReferenceNumber,
	}
}

func (m *transactionManager) GenerateReference(prefix string) (string, error) {
	return m.generate(prefix, m.now())
}

// CreateTransaction inserts a pending record. A caller-supplied reference is
// tried once; generated references are retried on collision.
func (m *transactionManager) CreateTransaction(ctx context.Context, tx contracts.LedgerTx, draft *models.TransactionDraft) (*models.Transaction, error) {
	requestID := utils.GetRequestID(ctx)
	if draft.Amount == 0 {
		return nil, exceptions.ErrInvalidAmount(draft.Amount)
	}

	now := m.now()
	transaction := &models.Transaction{
		WalletID:             draft.WalletID,
		Amount:               draft.Amount,
		Type:                 draft.Type,
		Status:               models.TransactionStatusPending,
		ReferenceNumber:      draft.ReferenceNumber,
		GatewayReference:     draft.GatewayReference,
		RelatedTransactionID: draft.RelatedTransactionID,
		RelatedWalletID:      draft.RelatedWalletID,
		Description:          draft.Description,
		Metadata:             draft.Metadata,
	}
	transaction.SetCreatedAtUpdatedAt(now)

	if draft.ReferenceNumber != "" {
		if err := tx.InsertTransaction(ctx, transaction); err != nil {
			return nil, err
		}
		return transaction, nil
	}

	var lastErr error
	for attempt := 1; attempt <= m.ReferenceAttempts; attempt++ {
		reference, err := m.generate(ReferencePrefix(draft.Type), now)
		if err != nil {
			return nil, err
		}
		transaction.ID = ""
		transaction.ReferenceNumber = reference

		err = tx.InsertTransaction(ctx, transaction)
		if err == nil {
			return transaction, nil
		}
		if !errors.Is(err, exceptions.ErrDuplicateReference) {
			return nil, err
		}
		lastErr = err
		m.Log.Warn("transactionManager.CreateTransaction reference collision",
			zap.String(constvars.LoggingRequestIDKey, requestID),
			zap.String(constvars.LoggingReferenceKey, reference),
			zap.Int(constvars.LoggingCountKey, attempt),
		)
	}

	return nil, exceptions.ErrReferenceGenerationExhausted(lastErr, m.ReferenceAttempts)
}

func (m *transactionManager) CompleteTransaction(ctx context.Context, tx contracts.LedgerTx, transactionID string, gatewayReference *string) (*models.Transaction, error) {
	return m.transition(ctx, tx, transactionID, models.TransactionStatusCompleted, gatewayReference, "")
}

// FailTransaction marks a pending record failed. The returned flag reports
// whether the caller must reverse a debit that was already applied.
func (m *transactionManager) FailTransaction(ctx context.Context, tx contracts.LedgerTx, transactionID, reason string) (*models.Transaction, bool, error) {
	failed, err := m.transition(ctx, tx, transactionID, models.TransactionStatusFailed, nil, reason)
	if err != nil {
		return nil, false, err
	}
	return failed, failed.Type.IsDebit(), nil
}

func (m *transactionManager) CancelTransaction(ctx context.Context, tx contracts.LedgerTx, transactionID, reason string) (*models.Transaction, error) {
	return m.transition(ctx, tx, transactionID, models.TransactionStatusCancelled, nil, reason)
}

// RefundTransaction creates the pending reversal of a completed record and
// marks the original refunded. Applying the reversal delta and completing it
// is left to the caller.
func (m *transactionManager) RefundTransaction(ctx context.Context, tx contracts.LedgerTx, transactionID, reason string) (*models.Transaction, error) {
	refund, err := m.CreateRefund(ctx, tx, transactionID, reason)
	if err != nil {
		return nil, err
	}
	if _, err := m.MarkRefunded(ctx, tx, transactionID); err != nil {
		return nil, err
	}
	return refund, nil
}

// CreateRefund inserts the pending reversal of a completed record without
// touching the original. Refunds that wait on the gateway stay in this state
// until MarkRefunded posts them.
func (m *transactionManager) CreateRefund(ctx context.Context, tx contracts.LedgerTx, transactionID, reason string) (*models.Transaction, error) {
	original, err := tx.GetTransaction(ctx, transactionID)
	if err != nil {
		return nil, err
	}
	if !original.Status.CanTransitionTo(models.TransactionStatusRefunded) {
		return nil, exceptions.ErrInvalidStateTransition("transaction", string(original.Status), string(models.TransactionStatusRefunded))
	}

	metadata := map[string]string{"original_reference": original.ReferenceNumber}
	if reason != "" {
		metadata["reason"] = reason
	}
	return m.CreateTransaction(ctx, tx, &models.TransactionDraft{
		WalletID:             original.WalletID,
		Amount:               original.Amount.Neg(),
		Type:                 models.TransactionTypeRefund,
		RelatedTransactionID: &original.ID,
		RelatedWalletID:      original.RelatedWalletID,
		Description:          reason,
		Metadata:             metadata,
	})
}

func (m *transactionManager) MarkRefunded(ctx context.Context, tx contracts.LedgerTx, transactionID string) (*models.Transaction, error) {
	return m.transition(ctx, tx, transactionID, models.TransactionStatusRefunded, nil, "")
}

func (m *transactionManager) transition(ctx context.Context, tx contracts.LedgerTx, transactionID string, next models.TransactionStatus, gatewayReference *string, reason string) (*models.Transaction, error) {
	requestID := utils.GetRequestID(ctx)

	current, err := tx.GetTransaction(ctx, transactionID)
	if err != nil {
		return nil, err
	}
	if !current.Status.CanTransitionTo(next) {
		return nil, exceptions.ErrInvalidStateTransition("transaction", string(current.Status), string(next))
	}

	updated, err := tx.UpdateTransactionStatus(ctx, transactionID, models.TransactionStatusChange{
		From:             current.Status,
		To:               next,
		GatewayReference: gatewayReference,
		FailureReason:    reason,
		At:               m.now(),
	})
	if err != nil {
		return nil, err
	}

	m.Log.Debug("transactionManager.transition applied",
		zap.String(constvars.LoggingRequestIDKey, requestID),
		zap.String(constvars.LoggingTransactionIDKey, transactionID),
		zap.String(constvars.LoggingStatusKey, string(next)),
	)
	return updated, nil
}
