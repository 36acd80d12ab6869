package contracts

import (
	"context"

	"konsulin-wallet-service/internal/app/models"
	"konsulin-wallet-service/internal/pkg/dto/requests"
	"konsulin-wallet-service/internal/pkg/dto/responses"
	"konsulin-wallet-service/internal/pkg/money"
)

type WalletUsecase interface {
	CreateWallet(ctx context.Context, request *requests.CreateWallet) (*models.Wallet, error)
	EnsurePlatformWallet(ctx context.Context) (*models.Wallet, error)
	GetWallet(ctx context.Context, walletID string) (*models.Wallet, error)
	GetWalletByOwner(ctx context.Context, ownerID string) (*models.Wallet, error)
	GetTransaction(ctx context.Context, transactionID string) (*models.Transaction, error)
	ListTransactions(ctx context.Context, filter models.TransactionFilter) ([]models.Transaction, int, error)
	UpdateWalletSettings(ctx context.Context, walletID string, request *requests.UpdateWalletSettings) (*models.Wallet, error)
	BlockFunds(ctx context.Context, walletID string, amount money.Amount) (*models.Wallet, error)
	UnblockFunds(ctx context.Context, walletID string, amount money.Amount) (*models.Wallet, error)
	Deposit(ctx context.Context, request *requests.Deposit) (*models.Transaction, error)
	Withdraw(ctx context.Context, request *requests.Withdraw) (*models.Transaction, error)
	Transfer(ctx context.Context, request *requests.Transfer) (*responses.TransferResult, error)
	Charge(ctx context.Context, request *requests.Charge) (*models.Transaction, error)
	Refund(ctx context.Context, transactionID, reason string) ([]models.Transaction, error)
	CancelPendingTransaction(ctx context.Context, transactionID, reason string) (*models.Transaction, error)
	InitiateTopUp(ctx context.Context, request *requests.InitiateTopUp) (*responses.TopUp, error)
	ConfirmTopUp(ctx context.Context, gatewayReference string) (*models.Transaction, error)
}
