package contracts

import (
	"context"
	"time"

	"konsulin-wallet-service/internal/app/models"
	"konsulin-wallet-service/internal/pkg/money"
)

// LedgerStore persists wallets and transactions. Every balance change goes
// through RunInTx so that the lock, the balance write and the transaction
// records commit or roll back together.
type LedgerStore interface {
	RunInTx(ctx context.Context, fn func(tx LedgerTx) error) error
	CreateWallet(ctx context.Context, wallet *models.Wallet) error
	FindWalletByID(ctx context.Context, walletID string) (*models.Wallet, error)
	FindWalletByOwnerID(ctx context.Context, ownerID string) (*models.Wallet, error)
	FindTransactionByID(ctx context.Context, transactionID string) (*models.Transaction, error)
	FindTransactionByReference(ctx context.Context, referenceNumber string) (*models.Transaction, error)
	ListTransactions(ctx context.Context, filter models.TransactionFilter) ([]models.Transaction, int, error)
}

// LedgerTx is one unit of work. Wallet rows returned by LockWallet stay
// exclusively held until the unit commits or rolls back.
type LedgerTx interface {
	LockWallet(ctx context.Context, walletID string) (*models.Wallet, error)
	SaveWallet(ctx context.Context, wallet *models.Wallet) error
	GetTransaction(ctx context.Context, transactionID string) (*models.Transaction, error)
	FindTransactionByReference(ctx context.Context, referenceNumber string) (*models.Transaction, error)
	FindTransactionByGatewayReference(ctx context.Context, gatewayReference string) (*models.Transaction, error)
	FindTransactionsByRelated(ctx context.Context, transactionID string) ([]models.Transaction, error)
	InsertTransaction(ctx context.Context, transaction *models.Transaction) error
	UpdateTransactionStatus(ctx context.Context, transactionID string, change models.TransactionStatusChange) (*models.Transaction, error)
	SumCompletedWithdrawals(ctx context.Context, walletID string, since time.Time) (money.Amount, error)
}
