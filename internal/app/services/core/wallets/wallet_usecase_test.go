package wallets

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"konsulin-wallet-service/internal/app/config"
	"konsulin-wallet-service/internal/app/contracts"
	"konsulin-wallet-service/internal/app/models"
	"konsulin-wallet-service/internal/app/services/core/ledger"
	"konsulin-wallet-service/internal/app/services/core/transactions"
	"konsulin-wallet-service/internal/app/services/shared/events"
	"konsulin-wallet-service/internal/app/services/shared/fraud"
	"konsulin-wallet-service/internal/app/services/shared/payment_gateway"
	"konsulin-wallet-service/internal/pkg/dto/requests"
	"konsulin-wallet-service/internal/pkg/dto/responses"
	"konsulin-wallet-service/internal/pkg/exceptions"
	"konsulin-wallet-service/internal/pkg/money"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type walletFixture struct {
	uc        *walletUsecase
	store     contracts.LedgerStore
	gateway   *payment_gateway.SandboxService
	publisher *events.MemoryPublisher
	now       time.Time
}

type fixtureOption func(manager contracts.TransactionManager, checker contracts.FraudChecker) (contracts.TransactionManager, contracts.FraudChecker)

func testInternalConfig() *config.InternalConfig {
	return &config.InternalConfig{
		Ledger: config.AppLedger{
			PlatformOwnerID:         "platform",
			Currency:                "IDR",
			LockTimeout:             2 * time.Second,
			ReferenceAttempts:       5,
			DailyWithdrawalLimit:    10_000_000,
			MonthlyWithdrawalLimit:  100_000_000,
			VerificationThreshold:   5_000_000,
			MinimumWithdrawal:       10_000,
			DefaultCommissionRate:   "0.05",
			AutoVerifyPlatformOwner: true,
		},
	}
}

func newWalletFixture(t *testing.T, options ...fixtureOption) *walletFixture {
	t.Helper()
	f := &walletFixture{now: time.Date(2024, 5, 15, 9, 0, 0, 0, time.UTC)}
	clock := func() time.Time { return f.now }
	logger := zap.NewNop()
	cfg := testInternalConfig()

	f.store = ledger.NewLedgerMemoryStore(logger, cfg.Ledger.LockTimeout)
	f.gateway = payment_gateway.NewSandboxService(logger)
	f.publisher = events.NewMemoryPublisher()

	var manager contracts.TransactionManager = transactions.NewTransactionManager(logger, cfg.Ledger.ReferenceAttempts, clock)
	checker := fraud.NewAllowAllChecker()
	for _, option := range options {
		manager, checker = option(manager, checker)
	}

	f.uc = NewWalletUsecase(f.store, manager, f.gateway, checker, f.publisher, cfg, logger).(*walletUsecase)
	f.uc.now = clock
	return f
}

func (f *walletFixture) wallet(t *testing.T, ownerID string, balance money.Amount) *models.Wallet {
	t.Helper()
	wallet, err := f.uc.CreateWallet(context.Background(), &requests.CreateWallet{
		OwnerID:   ownerID,
		OwnerType: string(models.OwnerTypePatient),
	})
	require.NoError(t, err)
	if balance > 0 {
		_, err = f.uc.Deposit(context.Background(), &requests.Deposit{WalletID: wallet.ID, Amount: balance, Source: "seed"})
		require.NoError(t, err)
	}
	return wallet
}

func (f *walletFixture) balance(t *testing.T, walletID string) money.Amount {
	t.Helper()
	wallet, err := f.uc.GetWallet(context.Background(), walletID)
	require.NoError(t, err)
	return wallet.Balance
}

// assertPostedSum checks that the stored balance equals the sum of posted
// transactions for the wallet and that the blocked amount is covered.
func (f *walletFixture) assertPostedSum(t *testing.T, walletID string) {
	t.Helper()
	wallet, err := f.uc.GetWallet(context.Background(), walletID)
	require.NoError(t, err)
	history, _, err := f.uc.ListTransactions(context.Background(), models.TransactionFilter{WalletID: walletID, Limit: 1000})
	require.NoError(t, err)

	var sum money.Amount
	for _, transaction := range history {
		if transaction.Status.IsPosted() {
			sum += transaction.Amount
		}
	}
	assert.Equal(t, wallet.Balance, sum, "balance must equal posted transactions")
	assert.True(t, wallet.Consistent())
}

type failingCompleteManager struct {
	contracts.TransactionManager
	failType models.TransactionType
	err      error
}

func (m *failingCompleteManager) CompleteTransaction(ctx context.Context, tx contracts.LedgerTx, transactionID string, gatewayReference *string) (*models.Transaction, error) {
	current, err := tx.GetTransaction(ctx, transactionID)
	if err != nil {
		return nil, err
	}
	if current.Type == m.failType {
		return nil, m.err
	}
	return m.TransactionManager.CompleteTransaction(ctx, tx, transactionID, gatewayReference)
}

func failCompletionOf(transactionType models.TransactionType, cause error) fixtureOption {
	return func(manager contracts.TransactionManager, checker contracts.FraudChecker) (contracts.TransactionManager, contracts.FraudChecker) {
		return &failingCompleteManager{TransactionManager: manager, failType: transactionType, err: cause}, checker
	}
}

type rejectingChecker struct{}

func (rejectingChecker) Assess(ctx context.Context, request *requests.FraudAssessment) (*responses.FraudAssessment, error) {
	return &responses.FraudAssessment{Score: 95, Allowed: false, Reasons: []string{"velocity"}}, nil
}

func TestDepositThenOverdrawnWithdrawal(t *testing.T) {
	f := newWalletFixture(t)
	ctx := context.Background()
	wallet := f.wallet(t, "patient-1", 0)

	deposit, err := f.uc.Deposit(ctx, &requests.Deposit{WalletID: wallet.ID, Amount: 50_000, Source: "bank_transfer"})
	require.NoError(t, err)
	assert.Equal(t, models.TransactionStatusCompleted, deposit.Status)
	assert.Equal(t, money.Amount(50_000), f.balance(t, wallet.ID))

	_, err = f.uc.Withdraw(ctx, &requests.Withdraw{WalletID: wallet.ID, Amount: 60_000, Destination: "bca:123"})
	assert.ErrorIs(t, err, exceptions.ErrInsufficientBalance)
	assert.Equal(t, money.Amount(50_000), f.balance(t, wallet.ID))

	history, total, err := f.uc.ListTransactions(ctx, models.TransactionFilter{WalletID: wallet.ID})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	assert.Equal(t, models.TransactionTypeDeposit, history[0].Type)
	assert.Equal(t, models.TransactionStatusCompleted, history[0].Status)
	f.assertPostedSum(t, wallet.ID)
}

func TestDepositValidation(t *testing.T) {
	f := newWalletFixture(t)
	ctx := context.Background()
	wallet := f.wallet(t, "patient-1", 0)

	tests := []struct {
		name    string
		request *requests.Deposit
		kind    error
	}{
		{"zero amount", &requests.Deposit{WalletID: wallet.ID, Amount: 0}, exceptions.ErrInvalidInput},
		{"unknown wallet", &requests.Deposit{WalletID: "missing", Amount: 100}, exceptions.ErrNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.uc.Deposit(ctx, tt.request)
			assert.ErrorIs(t, err, tt.kind)
		})
	}

	inactive := false
	_, err := f.uc.UpdateWalletSettings(ctx, wallet.ID, &requests.UpdateWalletSettings{IsActive: &inactive})
	require.NoError(t, err)
	_, err = f.uc.Deposit(ctx, &requests.Deposit{WalletID: wallet.ID, Amount: 100})
	assert.ErrorIs(t, err, exceptions.ErrInactiveWallet)
}

func TestDepositGatewayReferenceIsIdempotent(t *testing.T) {
	f := newWalletFixture(t)
	ctx := context.Background()
	wallet := f.wallet(t, "patient-1", 0)

	request := &requests.Deposit{WalletID: wallet.ID, Amount: 25_000, Source: "oy", GatewayReference: "oy-777"}
	first, err := f.uc.Deposit(ctx, request)
	require.NoError(t, err)
	second, err := f.uc.Deposit(ctx, request)
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, money.Amount(25_000), f.balance(t, wallet.ID))
}

func TestTransferWithCommission(t *testing.T) {
	f := newWalletFixture(t)
	ctx := context.Background()
	x := f.wallet(t, "patient-x", 20_000)
	y := f.wallet(t, "practitioner-y", 0)

	result, err := f.uc.Transfer(ctx, &requests.Transfer{FromWalletID: x.ID, ToWalletID: y.ID, Amount: 10_000, CommissionRate: "0.05"})
	require.NoError(t, err)

	assert.Equal(t, money.Amount(9_500), result.NetAmount)
	assert.Equal(t, money.Amount(500), result.CommissionAmount)
	assert.Equal(t, result.NetAmount+result.CommissionAmount, money.Amount(10_000))

	platform, err := f.uc.EnsurePlatformWallet(ctx)
	require.NoError(t, err)
	assert.Equal(t, money.Amount(10_000), f.balance(t, x.ID))
	assert.Equal(t, money.Amount(9_500), f.balance(t, y.ID))
	assert.Equal(t, money.Amount(500), platform.Balance)

	require.NotNil(t, result.Credit.RelatedTransactionID)
	require.NotNil(t, result.Commission)
	assert.Equal(t, result.Debit.ID, *result.Credit.RelatedTransactionID)
	assert.Equal(t, result.Debit.ID, *result.Commission.RelatedTransactionID)
	assert.Equal(t, models.TransactionTypeCommission, result.Commission.Type)

	for _, id := range []string{x.ID, y.ID, platform.ID} {
		f.assertPostedSum(t, id)
	}
}

func TestTransferWithoutCommissionSkipsPlatform(t *testing.T) {
	f := newWalletFixture(t)
	ctx := context.Background()
	x := f.wallet(t, "patient-x", 1_000)
	y := f.wallet(t, "patient-y", 0)

	result, err := f.uc.Transfer(ctx, &requests.Transfer{FromWalletID: x.ID, ToWalletID: y.ID, Amount: 19, CommissionRate: "0.05"})
	require.NoError(t, err)
	assert.Nil(t, result.Commission, "floor(19 * 0.05) is zero")
	assert.Equal(t, money.Amount(19), result.NetAmount)
	assert.Equal(t, money.Amount(19), f.balance(t, y.ID))
}

func TestTransferRejections(t *testing.T) {
	f := newWalletFixture(t)
	ctx := context.Background()
	x := f.wallet(t, "patient-x", 5_000)
	y := f.wallet(t, "patient-y", 0)

	tests := []struct {
		name    string
		request *requests.Transfer
		kind    error
	}{
		{"same wallet", &requests.Transfer{FromWalletID: x.ID, ToWalletID: x.ID, Amount: 100}, exceptions.ErrSameWallet},
		{"missing destination", &requests.Transfer{FromWalletID: x.ID, ToWalletID: "nope", Amount: 100}, exceptions.ErrNotFound},
		{"insufficient", &requests.Transfer{FromWalletID: x.ID, ToWalletID: y.ID, Amount: 5_001}, exceptions.ErrInsufficientBalance},
		{"rate above one", &requests.Transfer{FromWalletID: x.ID, ToWalletID: y.ID, Amount: 100, CommissionRate: "1.5"}, exceptions.ErrInvalidInput},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.uc.Transfer(ctx, tt.request)
			assert.ErrorIs(t, err, tt.kind)
		})
	}
	assert.Equal(t, money.Amount(5_000), f.balance(t, x.ID))
	assert.Equal(t, money.Amount(0), f.balance(t, y.ID))
}

func TestConcurrentOppositeTransfers(t *testing.T) {
	f := newWalletFixture(t)
	ctx := context.Background()
	a := f.wallet(t, "patient-a", 100_000)
	b := f.wallet(t, "patient-b", 100_000)

	const rounds = 25
	var wg sync.WaitGroup
	errs := make(chan error, 2*rounds)
	for i := 0; i < rounds; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_, err := f.uc.Transfer(ctx, &requests.Transfer{FromWalletID: a.ID, ToWalletID: b.ID, Amount: 1_000, CommissionRate: "0"})
			errs <- err
		}()
		go func() {
			defer wg.Done()
			_, err := f.uc.Transfer(ctx, &requests.Transfer{FromWalletID: b.ID, ToWalletID: a.ID, Amount: 1_000, CommissionRate: "0"})
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		assert.NoError(t, err)
	}
	assert.Equal(t, money.Amount(100_000), f.balance(t, a.ID))
	assert.Equal(t, money.Amount(100_000), f.balance(t, b.ID))
	f.assertPostedSum(t, a.ID)
	f.assertPostedSum(t, b.ID)
}

func TestWithdrawalPolicy(t *testing.T) {
	ctx := context.Background()

	t.Run("daily limit counts the trailing 24 hours", func(t *testing.T) {
		f := newWalletFixture(t)
		wallet, err := f.uc.CreateWallet(ctx, &requests.CreateWallet{
			OwnerID:              "practitioner-1",
			OwnerType:            string(models.OwnerTypePractitioner),
			DailyWithdrawalLimit: 100_000,
		})
		require.NoError(t, err)
		_, err = f.uc.Deposit(ctx, &requests.Deposit{WalletID: wallet.ID, Amount: 500_000})
		require.NoError(t, err)

		_, err = f.uc.Withdraw(ctx, &requests.Withdraw{WalletID: wallet.ID, Amount: 60_000})
		require.NoError(t, err)
		_, err = f.uc.Withdraw(ctx, &requests.Withdraw{WalletID: wallet.ID, Amount: 50_000})
		assert.ErrorIs(t, err, exceptions.ErrLimitExceeded)
		assert.ErrorIs(t, err, exceptions.ErrDailyLimit)

		f.now = f.now.Add(25 * time.Hour)
		_, err = f.uc.Withdraw(ctx, &requests.Withdraw{WalletID: wallet.ID, Amount: 50_000})
		assert.NoError(t, err)
		assert.Equal(t, money.Amount(390_000), f.balance(t, wallet.ID))
		f.assertPostedSum(t, wallet.ID)
	})

	t.Run("monthly limit counts the calendar month", func(t *testing.T) {
		f := newWalletFixture(t)
		wallet, err := f.uc.CreateWallet(ctx, &requests.CreateWallet{
			OwnerID:                "practitioner-2",
			OwnerType:              string(models.OwnerTypePractitioner),
			DailyWithdrawalLimit:   1_000_000,
			MonthlyWithdrawalLimit: 150_000,
		})
		require.NoError(t, err)
		_, err = f.uc.Deposit(ctx, &requests.Deposit{WalletID: wallet.ID, Amount: 500_000})
		require.NoError(t, err)

		_, err = f.uc.Withdraw(ctx, &requests.Withdraw{WalletID: wallet.ID, Amount: 100_000})
		require.NoError(t, err)
		f.now = f.now.Add(48 * time.Hour)
		_, err = f.uc.Withdraw(ctx, &requests.Withdraw{WalletID: wallet.ID, Amount: 60_000})
		assert.ErrorIs(t, err, exceptions.ErrMonthlyLimit)

		f.now = time.Date(2024, 6, 1, 0, 0, 1, 0, time.UTC)
		_, err = f.uc.Withdraw(ctx, &requests.Withdraw{WalletID: wallet.ID, Amount: 60_000})
		assert.NoError(t, err)
	})

	t.Run("high value needs a verified wallet", func(t *testing.T) {
		f := newWalletFixture(t)
		wallet := f.wallet(t, "patient-rich", 8_000_000)
		_, err := f.uc.Withdraw(ctx, &requests.Withdraw{WalletID: wallet.ID, Amount: 5_500_000})
		assert.ErrorIs(t, err, exceptions.ErrVerificationRequired)

		verified := true
		_, err = f.uc.UpdateWalletSettings(ctx, wallet.ID, &requests.UpdateWalletSettings{IsVerified: &verified})
		require.NoError(t, err)
		_, err = f.uc.Withdraw(ctx, &requests.Withdraw{WalletID: wallet.ID, Amount: 5_500_000})
		assert.NoError(t, err)
	})

	t.Run("below minimum", func(t *testing.T) {
		f := newWalletFixture(t)
		wallet := f.wallet(t, "patient-small", 50_000)
		_, err := f.uc.Withdraw(ctx, &requests.Withdraw{WalletID: wallet.ID, Amount: 5_000})
		assert.ErrorIs(t, err, exceptions.ErrInvalidInput)
	})
}

func TestWithdrawCompensatesFailedCompletion(t *testing.T) {
	cause := errors.New("status write failed")
	f := newWalletFixture(t, failCompletionOf(models.TransactionTypeWithdrawal, cause))
	ctx := context.Background()
	wallet := f.wallet(t, "patient-1", 50_000)
	f.publisher.Reset()

	_, err := f.uc.Withdraw(ctx, &requests.Withdraw{WalletID: wallet.ID, Amount: 20_000, Destination: "bca:1"})
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, money.Amount(50_000), f.balance(t, wallet.ID))

	history, _, err := f.uc.ListTransactions(ctx, models.TransactionFilter{WalletID: wallet.ID, Type: models.TransactionTypeWithdrawal})
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, models.TransactionStatusFailed, history[0].Status)
	assert.Equal(t, cause.Error(), history[0].FailureReason)
	assert.Equal(t, []string{"transaction.failed"}, f.publisher.RoutingKeys())
	f.assertPostedSum(t, wallet.ID)
}

func TestTransferCompensatesFailedDebit(t *testing.T) {
	cause := errors.New("status write failed")
	f := newWalletFixture(t, failCompletionOf(models.TransactionTypeTransferOut, cause))
	ctx := context.Background()
	x := f.wallet(t, "patient-x", 20_000)
	y := f.wallet(t, "patient-y", 0)

	_, err := f.uc.Transfer(ctx, &requests.Transfer{FromWalletID: x.ID, ToWalletID: y.ID, Amount: 10_000})
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, money.Amount(20_000), f.balance(t, x.ID))
	assert.Equal(t, money.Amount(0), f.balance(t, y.ID))

	credits, total, err := f.uc.ListTransactions(ctx, models.TransactionFilter{WalletID: y.ID})
	require.NoError(t, err)
	assert.Zero(t, total)
	assert.Empty(t, credits)
}

func TestTopUpFlow(t *testing.T) {
	ctx := context.Background()

	t.Run("confirmation is idempotent", func(t *testing.T) {
		f := newWalletFixture(t)
		wallet := f.wallet(t, "patient-1", 0)

		topUp, err := f.uc.InitiateTopUp(ctx, &requests.InitiateTopUp{WalletID: wallet.ID, Amount: 75_000})
		require.NoError(t, err)
		assert.Equal(t, models.TransactionStatusPending, topUp.Transaction.Status)
		assert.Regexp(t, `^DEP-`, topUp.Transaction.ReferenceNumber)
		assert.Equal(t, money.Amount(0), f.balance(t, wallet.ID))

		first, err := f.uc.ConfirmTopUp(ctx, topUp.GatewayReference)
		require.NoError(t, err)
		assert.Equal(t, models.TransactionStatusCompleted, first.Status)

		second, err := f.uc.ConfirmTopUp(ctx, topUp.GatewayReference)
		require.NoError(t, err)
		assert.Equal(t, first.ID, second.ID)
		assert.Equal(t, money.Amount(75_000), f.balance(t, wallet.ID))
		f.assertPostedSum(t, wallet.ID)
	})

	t.Run("declined payment fails the deposit", func(t *testing.T) {
		f := newWalletFixture(t)
		wallet := f.wallet(t, "patient-2", 0)

		topUp, err := f.uc.InitiateTopUp(ctx, &requests.InitiateTopUp{WalletID: wallet.ID, Amount: 75_000})
		require.NoError(t, err)
		f.gateway.Decline(topUp.GatewayReference)

		failed, err := f.uc.ConfirmTopUp(ctx, topUp.GatewayReference)
		require.NoError(t, err)
		assert.Equal(t, models.TransactionStatusFailed, failed.Status)
		assert.Equal(t, money.Amount(0), f.balance(t, wallet.ID))
	})

	t.Run("amount mismatch fails the deposit", func(t *testing.T) {
		f := newWalletFixture(t)
		wallet := f.wallet(t, "patient-3", 0)

		topUp, err := f.uc.InitiateTopUp(ctx, &requests.InitiateTopUp{WalletID: wallet.ID, Amount: 75_000})
		require.NoError(t, err)
		f.gateway.SetPaidAmount(topUp.GatewayReference, 70_000)

		failed, err := f.uc.ConfirmTopUp(ctx, topUp.GatewayReference)
		require.NoError(t, err)
		assert.Equal(t, models.TransactionStatusFailed, failed.Status)
		assert.Contains(t, failed.FailureReason, "does not match")
	})

	t.Run("unknown gateway reference", func(t *testing.T) {
		f := newWalletFixture(t)
		_, err := f.uc.ConfirmTopUp(ctx, "sbx-unknown")
		assert.ErrorIs(t, err, exceptions.ErrNotFound)
	})

	t.Run("fraud veto stops the top-up", func(t *testing.T) {
		f := newWalletFixture(t, func(manager contracts.TransactionManager, _ contracts.FraudChecker) (contracts.TransactionManager, contracts.FraudChecker) {
			return manager, rejectingChecker{}
		})
		wallet := f.wallet(t, "patient-4", 0)

		_, err := f.uc.InitiateTopUp(ctx, &requests.InitiateTopUp{WalletID: wallet.ID, Amount: 75_000})
		assert.ErrorIs(t, err, exceptions.ErrPaymentRejected)
		_, total, err := f.uc.ListTransactions(ctx, models.TransactionFilter{WalletID: wallet.ID})
		require.NoError(t, err)
		assert.Zero(t, total)
	})
}

func TestChargeWithReferenceIsIdempotent(t *testing.T) {
	f := newWalletFixture(t)
	ctx := context.Background()
	wallet := f.wallet(t, "patient-1", 100_000)

	request := &requests.Charge{
		WalletID:        wallet.ID,
		Amount:          30_000,
		Type:            models.TransactionTypeSubscription,
		ReferenceNumber: "SUB-abc-20240515",
	}
	first, err := f.uc.Charge(ctx, request)
	require.NoError(t, err)
	second, err := f.uc.Charge(ctx, request)
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)

	platform, err := f.uc.EnsurePlatformWallet(ctx)
	require.NoError(t, err)
	assert.Equal(t, money.Amount(70_000), f.balance(t, wallet.ID))
	assert.Equal(t, money.Amount(30_000), platform.Balance)

	_, err = f.uc.Charge(ctx, &requests.Charge{WalletID: wallet.ID, Amount: 1_000, ReferenceNumber: "SUB-abc-20240515"})
	assert.ErrorIs(t, err, exceptions.ErrDuplicateReference)

	_, err = f.uc.Charge(ctx, &requests.Charge{WalletID: wallet.ID, Amount: 500_000})
	assert.ErrorIs(t, err, exceptions.ErrInsufficientBalance)
	f.assertPostedSum(t, wallet.ID)
	f.assertPostedSum(t, platform.ID)
}

func TestChargeSupersedesFailedAttempt(t *testing.T) {
	f := newWalletFixture(t)
	ctx := context.Background()
	wallet := f.wallet(t, "patient-1", 100_000)

	// first attempt fails at completion and is compensated
	flaky := &failingCompleteManager{TransactionManager: f.uc.TransactionManager, failType: models.TransactionTypeSubscription, err: exceptions.ErrPostgresTx(errors.New("connection reset"))}
	f.uc.TransactionManager = flaky
	request := &requests.Charge{
		WalletID:        wallet.ID,
		Amount:          30_000,
		Type:            models.TransactionTypeSubscription,
		ReferenceNumber: "SUB-abc-20240515",
	}
	_, err := f.uc.Charge(ctx, request)
	require.Error(t, err)
	assert.True(t, exceptions.IsRetryable(err))
	assert.Equal(t, money.Amount(100_000), f.balance(t, wallet.ID))

	f.uc.TransactionManager = flaky.TransactionManager
	retried, err := f.uc.Charge(ctx, request)
	require.NoError(t, err)
	assert.Equal(t, "SUB-abc-20240515-R1", retried.ReferenceNumber)
	assert.Equal(t, models.TransactionStatusCompleted, retried.Status)

	again, err := f.uc.Charge(ctx, request)
	require.NoError(t, err)
	assert.Equal(t, retried.ID, again.ID)
	assert.Equal(t, money.Amount(70_000), f.balance(t, wallet.ID))

	failed, err := f.store.FindTransactionByReference(ctx, "SUB-abc-20240515")
	require.NoError(t, err)
	assert.Equal(t, models.TransactionStatusFailed, failed.Status)
	f.assertPostedSum(t, wallet.ID)
}

func TestRefund(t *testing.T) {
	ctx := context.Background()

	t.Run("transfer refund reverses every leg", func(t *testing.T) {
		f := newWalletFixture(t)
		x := f.wallet(t, "patient-x", 20_000)
		y := f.wallet(t, "practitioner-y", 0)

		result, err := f.uc.Transfer(ctx, &requests.Transfer{FromWalletID: x.ID, ToWalletID: y.ID, Amount: 10_000, CommissionRate: "0.05"})
		require.NoError(t, err)

		refunds, err := f.uc.Refund(ctx, result.Credit.ID, "session cancelled")
		require.NoError(t, err)
		assert.Len(t, refunds, 3)
		for _, refund := range refunds {
			assert.Equal(t, models.TransactionTypeRefund, refund.Type)
			assert.Equal(t, models.TransactionStatusCompleted, refund.Status)
		}

		platform, err := f.uc.EnsurePlatformWallet(ctx)
		require.NoError(t, err)
		assert.Equal(t, money.Amount(20_000), f.balance(t, x.ID))
		assert.Equal(t, money.Amount(0), f.balance(t, y.ID))
		assert.Equal(t, money.Amount(0), platform.Balance)

		original, err := f.uc.GetTransaction(ctx, result.Debit.ID)
		require.NoError(t, err)
		assert.Equal(t, models.TransactionStatusRefunded, original.Status)
		assert.Equal(t, money.Amount(-10_000), original.Amount)

		_, err = f.uc.Refund(ctx, result.Debit.ID, "again")
		assert.ErrorIs(t, err, exceptions.ErrInvalidState)
		for _, id := range []string{x.ID, y.ID, platform.ID} {
			f.assertPostedSum(t, id)
		}
	})

	t.Run("refund fails when the recipient already spent the funds", func(t *testing.T) {
		f := newWalletFixture(t)
		x := f.wallet(t, "patient-x", 100_000)
		y := f.wallet(t, "practitioner-y", 0)

		result, err := f.uc.Transfer(ctx, &requests.Transfer{FromWalletID: x.ID, ToWalletID: y.ID, Amount: 50_000, CommissionRate: "0"})
		require.NoError(t, err)
		_, err = f.uc.Withdraw(ctx, &requests.Withdraw{WalletID: y.ID, Amount: 40_000})
		require.NoError(t, err)

		_, err = f.uc.Refund(ctx, result.Debit.ID, "dispute")
		assert.ErrorIs(t, err, exceptions.ErrInsufficientBalance)
		assert.Equal(t, money.Amount(50_000), f.balance(t, x.ID))
		assert.Equal(t, money.Amount(10_000), f.balance(t, y.ID))
	})

	t.Run("gateway deposit is refunded at the provider", func(t *testing.T) {
		f := newWalletFixture(t)
		wallet := f.wallet(t, "patient-1", 0)
		topUp, err := f.uc.InitiateTopUp(ctx, &requests.InitiateTopUp{WalletID: wallet.ID, Amount: 40_000})
		require.NoError(t, err)
		deposit, err := f.uc.ConfirmTopUp(ctx, topUp.GatewayReference)
		require.NoError(t, err)

		_, err = f.uc.Refund(ctx, deposit.ID, "requested")
		require.NoError(t, err)
		assert.True(t, f.gateway.Refunded(topUp.GatewayReference))
		assert.Equal(t, money.Amount(0), f.balance(t, wallet.ID))
		f.assertPostedSum(t, wallet.ID)
	})

	t.Run("spent gateway deposit never reaches the provider", func(t *testing.T) {
		f := newWalletFixture(t)
		wallet := f.wallet(t, "patient-1", 0)
		topUp, err := f.uc.InitiateTopUp(ctx, &requests.InitiateTopUp{WalletID: wallet.ID, Amount: 75_000})
		require.NoError(t, err)
		deposit, err := f.uc.ConfirmTopUp(ctx, topUp.GatewayReference)
		require.NoError(t, err)
		_, err = f.uc.Withdraw(ctx, &requests.Withdraw{WalletID: wallet.ID, Amount: 60_000, Destination: "bca:1"})
		require.NoError(t, err)

		_, err = f.uc.Refund(ctx, deposit.ID, "requested")
		assert.ErrorIs(t, err, exceptions.ErrInsufficientBalance)
		assert.Zero(t, f.gateway.RefundCalls(topUp.GatewayReference))
		assert.False(t, f.gateway.Refunded(topUp.GatewayReference))

		current, err := f.uc.GetWallet(ctx, wallet.ID)
		require.NoError(t, err)
		assert.Equal(t, money.Amount(15_000), current.Balance)
		assert.Zero(t, current.BlockedBalance)

		original, err := f.uc.GetTransaction(ctx, deposit.ID)
		require.NoError(t, err)
		assert.Equal(t, models.TransactionStatusCompleted, original.Status)
		_, total, err := f.uc.ListTransactions(ctx, models.TransactionFilter{WalletID: wallet.ID, Type: models.TransactionTypeRefund})
		require.NoError(t, err)
		assert.Zero(t, total)
		f.assertPostedSum(t, wallet.ID)
	})

	t.Run("refused gateway refund releases the hold", func(t *testing.T) {
		f := newWalletFixture(t)
		wallet := f.wallet(t, "patient-1", 0)
		topUp, err := f.uc.InitiateTopUp(ctx, &requests.InitiateTopUp{WalletID: wallet.ID, Amount: 40_000})
		require.NoError(t, err)
		deposit, err := f.uc.ConfirmTopUp(ctx, topUp.GatewayReference)
		require.NoError(t, err)
		f.gateway.RefuseRefunds(topUp.GatewayReference, true)

		_, err = f.uc.Refund(ctx, deposit.ID, "requested")
		assert.ErrorIs(t, err, exceptions.ErrPaymentRejected)

		current, err := f.uc.GetWallet(ctx, wallet.ID)
		require.NoError(t, err)
		assert.Equal(t, money.Amount(40_000), current.Balance)
		assert.Zero(t, current.BlockedBalance)

		original, err := f.uc.GetTransaction(ctx, deposit.ID)
		require.NoError(t, err)
		assert.Equal(t, models.TransactionStatusCompleted, original.Status)
		cancelled, _, err := f.uc.ListTransactions(ctx, models.TransactionFilter{WalletID: wallet.ID, Type: models.TransactionTypeRefund})
		require.NoError(t, err)
		require.Len(t, cancelled, 1)
		assert.Equal(t, models.TransactionStatusCancelled, cancelled[0].Status)

		f.gateway.RefuseRefunds(topUp.GatewayReference, false)
		refunds, err := f.uc.Refund(ctx, deposit.ID, "requested again")
		require.NoError(t, err)
		assert.Len(t, refunds, 1)
		assert.Equal(t, 2, f.gateway.RefundCalls(topUp.GatewayReference))
		assert.Equal(t, money.Amount(0), f.balance(t, wallet.ID))
		f.assertPostedSum(t, wallet.ID)
	})

	t.Run("failed posting keeps the hold after the provider refunded", func(t *testing.T) {
		cause := errors.New("status write failed")
		f := newWalletFixture(t, failCompletionOf(models.TransactionTypeRefund, cause))
		wallet := f.wallet(t, "patient-1", 0)
		topUp, err := f.uc.InitiateTopUp(ctx, &requests.InitiateTopUp{WalletID: wallet.ID, Amount: 40_000})
		require.NoError(t, err)
		deposit, err := f.uc.ConfirmTopUp(ctx, topUp.GatewayReference)
		require.NoError(t, err)

		_, err = f.uc.Refund(ctx, deposit.ID, "requested")
		assert.ErrorIs(t, err, cause)
		assert.True(t, f.gateway.Refunded(topUp.GatewayReference))

		current, err := f.uc.GetWallet(ctx, wallet.ID)
		require.NoError(t, err)
		assert.Equal(t, money.Amount(40_000), current.BlockedBalance)
		assert.Zero(t, current.AvailableBalance())

		pending, _, err := f.uc.ListTransactions(ctx, models.TransactionFilter{WalletID: wallet.ID, Type: models.TransactionTypeRefund})
		require.NoError(t, err)
		require.Len(t, pending, 1)
		assert.Equal(t, models.TransactionStatusPending, pending[0].Status)

		_, err = f.uc.CancelPendingTransaction(ctx, pending[0].ID, "operator")
		assert.ErrorIs(t, err, exceptions.ErrConflict)
		_, err = f.uc.Refund(ctx, deposit.ID, "again")
		assert.ErrorIs(t, err, exceptions.ErrConflict)
		assert.Equal(t, 1, f.gateway.RefundCalls(topUp.GatewayReference))
	})
}

func TestFundsHold(t *testing.T) {
	f := newWalletFixture(t)
	ctx := context.Background()
	wallet := f.wallet(t, "patient-1", 50_000)

	held, err := f.uc.BlockFunds(ctx, wallet.ID, 30_000)
	require.NoError(t, err)
	assert.Equal(t, money.Amount(20_000), held.AvailableBalance())

	_, err = f.uc.Withdraw(ctx, &requests.Withdraw{WalletID: wallet.ID, Amount: 30_000})
	assert.ErrorIs(t, err, exceptions.ErrInsufficientBalance)

	_, err = f.uc.BlockFunds(ctx, wallet.ID, 20_001)
	assert.ErrorIs(t, err, exceptions.ErrInsufficientBalance)

	released, err := f.uc.UnblockFunds(ctx, wallet.ID, 30_000)
	require.NoError(t, err)
	assert.Equal(t, money.Amount(0), released.BlockedBalance)

	_, err = f.uc.UnblockFunds(ctx, wallet.ID, 1)
	assert.ErrorIs(t, err, exceptions.ErrInvalidInput)
	f.assertPostedSum(t, wallet.ID)
}

func TestCreateWallet(t *testing.T) {
	f := newWalletFixture(t)
	ctx := context.Background()

	wallet, err := f.uc.CreateWallet(ctx, &requests.CreateWallet{OwnerID: "clinic-1", OwnerType: string(models.OwnerTypeClinic)})
	require.NoError(t, err)
	assert.Equal(t, "IDR", wallet.Currency)
	assert.Equal(t, money.Amount(10_000_000), wallet.DailyWithdrawalLimit)
	assert.True(t, wallet.IsActive)
	assert.False(t, wallet.IsVerified)

	_, err = f.uc.CreateWallet(ctx, &requests.CreateWallet{OwnerID: "clinic-1", OwnerType: string(models.OwnerTypeClinic)})
	assert.ErrorIs(t, err, exceptions.ErrInvalidState)

	platform, err := f.uc.EnsurePlatformWallet(ctx)
	require.NoError(t, err)
	assert.True(t, platform.IsVerified)
	again, err := f.uc.EnsurePlatformWallet(ctx)
	require.NoError(t, err)
	assert.Equal(t, platform.ID, again.ID)

	assert.Equal(t, []string{"wallet.active", "wallet.active"}, f.publisher.RoutingKeys())
}
