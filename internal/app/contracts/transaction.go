package contracts

import (
	"context"

	"konsulin-wallet-service/internal/app/models"
)

// TransactionManager owns reference numbers and the transaction state machine.
// It never touches balances; callers apply deltas inside the same LedgerTx.
type TransactionManager interface {
	GenerateReference(prefix string) (string, error)
	CreateTransaction(ctx context.Context, tx LedgerTx, draft *models.TransactionDraft) (*models.Transaction, error)
	CompleteTransaction(ctx context.Context, tx LedgerTx, transactionID string, gatewayReference *string) (*models.Transaction, error)
	FailTransaction(ctx context.Context, tx LedgerTx, transactionID, reason string) (*models.Transaction, bool, error)
	CancelTransaction(ctx context.Context, tx LedgerTx, transactionID, reason string) (*models.Transaction, error)
	RefundTransaction(ctx context.Context, tx LedgerTx, transactionID, reason string) (*models.Transaction, error)
	CreateRefund(ctx context.Context, tx LedgerTx, transactionID, reason string) (*models.Transaction, error)
	MarkRefunded(ctx context.Context, tx LedgerTx, transactionID string) (*models.Transaction, error)
}
