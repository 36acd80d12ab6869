package wallets

import (
	"context"
	"errors"
	"sync"
	"time"

	"konsulin-wallet-service/internal/app/config"
	"konsulin-wallet-service/internal/app/contracts"
	"konsulin-wallet-service/internal/app/models"
	"konsulin-wallet-service/internal/pkg/constvars"
	"konsulin-wallet-service/internal/pkg/dto/requests"
	"konsulin-wallet-service/internal/pkg/exceptions"
	"konsulin-wallet-service/internal/pkg/money"
	"konsulin-wallet-service/internal/pkg/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type walletUsecase struct {
	LedgerStore        contracts.LedgerStore
	TransactionManager contracts.TransactionManager
	PaymentGateway     contracts.PaymentGateway
	FraudChecker       contracts.FraudChecker
	EventPublisher     contracts.EventPublisher
	InternalConfig     *config.InternalConfig
	Log                *zap.Logger

	now              func() time.Time
	platformMu       sync.Mutex
	platformWalletID string
}

func NewWalletUsecase(
	ledgerStore contracts.LedgerStore,
	transactionManager contracts.TransactionManager,
	paymentGateway contracts.PaymentGateway,
	fraudChecker contracts.FraudChecker,
	eventPublisher contracts.EventPublisher,
	internalConfig *config.InternalConfig,
	logger *zap.Logger,
) contracts.WalletUsecase {
	return &walletUsecase{
		LedgerStore:        ledgerStore,
		TransactionManager: transactionManager,
		PaymentGateway:     paymentGateway,
		FraudChecker:       fraudChecker,
		EventPublisher:     eventPublisher,
		InternalConfig:     internalConfig,
		Log:                logger,
		now:                time.Now,
	}
}

func (uc *walletUsecase) CreateWallet(ctx context.Context, request *requests.CreateWallet) (*models.Wallet, error) {
	requestID := utils.GetRequestID(ctx)
	uc.Log.Info("walletUsecase.CreateWallet called",
		zap.String(constvars.LoggingRequestIDKey, requestID),
		zap.String(constvars.LoggingOwnerIDKey, request.OwnerID),
	)

	ledgerConfig := uc.InternalConfig.Ledger
	ownerType := models.OwnerType(request.OwnerType)

	wallet := &models.Wallet{
		ID:                     uuid.NewString(),
		OwnerID:                request.OwnerID,
		OwnerType:              ownerType,
		Currency:               request.Currency,
		DailyWithdrawalLimit:   request.DailyWithdrawalLimit,
		MonthlyWithdrawalLimit: request.MonthlyWithdrawalLimit,
		IsActive:               true,
		IsVerified:             request.IsVerified || (ownerType == models.OwnerTypePlatform && ledgerConfig.AutoVerifyPlatformOwner),
	}
	if wallet.Currency == "" {
		wallet.Currency = ledgerConfig.Currency
	}
	if wallet.DailyWithdrawalLimit <= 0 {
		wallet.DailyWithdrawalLimit = ledgerConfig.DailyWithdrawalLimit
	}
	if wallet.MonthlyWithdrawalLimit <= 0 {
		wallet.MonthlyWithdrawalLimit = ledgerConfig.MonthlyWithdrawalLimit
	}
	wallet.SetCreatedAtUpdatedAt(uc.now())

	if err := uc.LedgerStore.CreateWallet(ctx, wallet); err != nil {
		uc.Log.Error("walletUsecase.CreateWallet error creating wallet",
			zap.String(constvars.LoggingRequestIDKey, requestID),
			zap.Error(err),
		)
		return nil, err
	}

	uc.publish(ctx, []models.Event{newWalletEvent(wallet, "", walletState(wallet))})
	uc.Log.Info("walletUsecase.CreateWallet succeeded",
		zap.String(constvars.LoggingRequestIDKey, requestID),
		zap.String(constvars.LoggingWalletIDKey, wallet.ID),
	)
	return wallet, nil
}

// EnsurePlatformWallet returns the platform operating wallet, creating it on
// first use.
func (uc *walletUsecase) EnsurePlatformWallet(ctx context.Context) (*models.Wallet, error) {
	uc.platformMu.Lock()
	defer uc.platformMu.Unlock()

	if uc.platformWalletID != "" {
		return uc.LedgerStore.FindWalletByID(ctx, uc.platformWalletID)
	}

	ownerID := uc.InternalConfig.Ledger.PlatformOwnerID
	wallet, err := uc.LedgerStore.FindWalletByOwnerID(ctx, ownerID)
	if errors.Is(err, exceptions.ErrNotFound) {
		wallet, err = uc.CreateWallet(ctx, &requests.CreateWallet{
			OwnerID:   ownerID,
			OwnerType: string(models.OwnerTypePlatform),
		})
		if errors.Is(err, exceptions.ErrInvalidState) {
			wallet, err = uc.LedgerStore.FindWalletByOwnerID(ctx, ownerID)
		}
	}
	if err != nil {
		return nil, err
	}

	uc.platformWalletID = wallet.ID
	return wallet, nil
}

func (uc *walletUsecase) GetWallet(ctx context.Context, walletID string) (*models.Wallet, error) {
	uc.Log.Info("walletUsecase.GetWallet called",
		zap.String(constvars.LoggingRequestIDKey, utils.GetRequestID(ctx)),
		zap.String(constvars.LoggingWalletIDKey, walletID),
	)
	return uc.LedgerStore.FindWalletByID(ctx, walletID)
}

func (uc *walletUsecase) GetWalletByOwner(ctx context.Context, ownerID string) (*models.Wallet, error) {
	uc.Log.Info("walletUsecase.GetWalletByOwner called",
		zap.String(constvars.LoggingRequestIDKey, utils.GetRequestID(ctx)),
		zap.String(constvars.LoggingOwnerIDKey, ownerID),
	)
	return uc.LedgerStore.FindWalletByOwnerID(ctx, ownerID)
}

func (uc *walletUsecase) GetTransaction(ctx context.Context, transactionID string) (*models.Transaction, error) {
	uc.Log.Info("walletUsecase.GetTransaction called",
		zap.String(constvars.LoggingRequestIDKey, utils.GetRequestID(ctx)),
		zap.String(constvars.LoggingTransactionIDKey, transactionID),
	)
	return uc.LedgerStore.FindTransactionByID(ctx, transactionID)
}

func (uc *walletUsecase) ListTransactions(ctx context.Context, filter models.TransactionFilter) ([]models.Transaction, int, error) {
	uc.Log.Info("walletUsecase.ListTransactions called",
		zap.String(constvars.LoggingRequestIDKey, utils.GetRequestID(ctx)),
		zap.String(constvars.LoggingWalletIDKey, filter.WalletID),
	)

	if filter.WalletID != "" {
		if _, err := uc.LedgerStore.FindWalletByID(ctx, filter.WalletID); err != nil {
			return nil, 0, err
		}
	}
	return uc.LedgerStore.ListTransactions(ctx, filter)
}

func (uc *walletUsecase) UpdateWalletSettings(ctx context.Context, walletID string, request *requests.UpdateWalletSettings) (*models.Wallet, error) {
	requestID := utils.GetRequestID(ctx)
	uc.Log.Info("walletUsecase.UpdateWalletSettings called",
		zap.String(constvars.LoggingRequestIDKey, requestID),
		zap.String(constvars.LoggingWalletIDKey, walletID),
	)

	if request.DailyWithdrawalLimit != nil && *request.DailyWithdrawalLimit < 0 {
		return nil, exceptions.ErrInvalidAmount(*request.DailyWithdrawalLimit)
	}
	if request.MonthlyWithdrawalLimit != nil && *request.MonthlyWithdrawalLimit < 0 {
		return nil, exceptions.ErrInvalidAmount(*request.MonthlyWithdrawalLimit)
	}

	var updated *models.Wallet
	err := uc.inUnit(ctx, func(u *ledgerUnit) error {
		wallet, err := u.tx.LockWallet(ctx, walletID)
		if err != nil {
			return err
		}
		oldState := walletState(wallet)

		if request.IsActive != nil {
			wallet.IsActive = *request.IsActive
		}
		if request.IsVerified != nil {
			wallet.IsVerified = *request.IsVerified
		}
		if request.DailyWithdrawalLimit != nil {
			wallet.DailyWithdrawalLimit = *request.DailyWithdrawalLimit
		}
		if request.MonthlyWithdrawalLimit != nil {
			wallet.MonthlyWithdrawalLimit = *request.MonthlyWithdrawalLimit
		}
		wallet.SetUpdatedAt(uc.now())

		if err := u.tx.SaveWallet(ctx, wallet); err != nil {
			return err
		}
		if newState := walletState(wallet); newState != oldState {
			u.emit(newWalletEvent(wallet, oldState, newState))
		}
		updated = wallet
		return nil
	})
	if err != nil {
		uc.Log.Error("walletUsecase.UpdateWalletSettings error",
			zap.String(constvars.LoggingRequestIDKey, requestID),
			zap.Error(err),
		)
		return nil, err
	}
	return updated, nil
}

func (uc *walletUsecase) BlockFunds(ctx context.Context, walletID string, amount money.Amount) (*models.Wallet, error) {
	requestID := utils.GetRequestID(ctx)
	uc.Log.Info("walletUsecase.BlockFunds called",
		zap.String(constvars.LoggingRequestIDKey, requestID),
		zap.String(constvars.LoggingWalletIDKey, walletID),
		zap.Int64(constvars.LoggingAmountKey, amount.Int64()),
	)
	if !amount.IsPositive() {
		return nil, exceptions.ErrInvalidAmount(amount)
	}

	var updated *models.Wallet
	err := uc.inUnit(ctx, func(u *ledgerUnit) error {
		wallet, err := u.tx.LockWallet(ctx, walletID)
		if err != nil {
			return err
		}
		if available := wallet.AvailableBalance(); available < amount {
			return exceptions.ErrInsufficientFunds(walletID, available, amount)
		}
		wallet.BlockedBalance += amount
		wallet.SetUpdatedAt(uc.now())
		updated = wallet
		return u.tx.SaveWallet(ctx, wallet)
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (uc *walletUsecase) UnblockFunds(ctx context.Context, walletID string, amount money.Amount) (*models.Wallet, error) {
	requestID := utils.GetRequestID(ctx)
	uc.Log.Info("walletUsecase.UnblockFunds called",
		zap.String(constvars.LoggingRequestIDKey, requestID),
		zap.String(constvars.LoggingWalletIDKey, walletID),
		zap.Int64(constvars.LoggingAmountKey, amount.Int64()),
	)
	if !amount.IsPositive() {
		return nil, exceptions.ErrInvalidAmount(amount)
	}

	var updated *models.Wallet
	err := uc.inUnit(ctx, func(u *ledgerUnit) error {
		wallet, err := u.tx.LockWallet(ctx, walletID)
		if err != nil {
			return err
		}
		if wallet.BlockedBalance < amount {
			return exceptions.ErrInvalidAmount(amount)
		}
		wallet.BlockedBalance -= amount
		wallet.SetUpdatedAt(uc.now())
		updated = wallet
		return u.tx.SaveWallet(ctx, wallet)
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// platformWallet resolves the platform wallet id, provisioning it if needed.
func (uc *walletUsecase) platformWallet(ctx context.Context) (string, error) {
	uc.platformMu.Lock()
	cached := uc.platformWalletID
	uc.platformMu.Unlock()
	if cached != "" {
		return cached, nil
	}

	wallet, err := uc.EnsurePlatformWallet(ctx)
	if err != nil {
		return "", err
	}
	return wallet.ID, nil
}

func (uc *walletUsecase) commissionRate(raw string) (money.Rate, error) {
	if raw == "" {
		raw = uc.InternalConfig.Ledger.DefaultCommissionRate
	}
	rate, err := money.ParseRate(raw)
	if err != nil {
		return 0, exceptions.ErrInvalidRate(err, raw)
	}
	return rate, nil
}

func requireActive(wallet *models.Wallet) error {
	if !wallet.IsActive {
		return exceptions.ErrWalletInactive(wallet.ID)
	}
	return nil
}
