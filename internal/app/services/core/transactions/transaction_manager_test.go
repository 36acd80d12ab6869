package transactions

import (
	"context"
	"regexp"
	"testing"
	"time"

	"konsulin-wallet-service/internal/app/contracts"
	"konsulin-wallet-service/internal/app/models"
	"konsulin-wallet-service/internal/app/services/core/ledger"
	"konsulin-wallet-service/internal/pkg/exceptions"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var fixedNow = time.Date(2024, 5, 1, 8, 30, 0, 0, time.UTC)

func setup(t *testing.T) (contracts.LedgerStore, *transactionManager, *models.Wallet) {
	t.Helper()
	store := ledger.NewLedgerMemoryStore(zap.NewNop(), time.Second)
	wallet := &models.Wallet{OwnerID: "owner-1", OwnerType: models.OwnerTypePatient, Currency: "IDR", IsActive: true}
	require.NoError(t, store.CreateWallet(context.Background(), wallet))

	manager := NewTransactionManager(zap.NewNop(), 3, func() time.Time { return fixedNow }).(*transactionManager)
	return store, manager, wallet
}

func TestCreateTransactionGeneratesReference(t *testing.T) {
	ctx := context.Background()
	store, manager, wallet := setup(t)

	var created *models.Transaction
	require.NoError(t, store.RunInTx(ctx, func(tx contracts.LedgerTx) error {
		var err error
		created, err = manager.CreateTransaction(ctx, tx, &models.TransactionDraft{
			WalletID: wallet.ID,
			Amount:   10000,
			Type:     models.TransactionTypeDeposit,
		})
		return err
	}))

	assert.Equal(t, models.TransactionStatusPending, created.Status)
	assert.Regexp(t, regexp.MustCompile(`^DEP-20240501083000-[A-Z2-9]{6}$`), created.ReferenceNumber)
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, fixedNow, created.CreatedAt)
}

func TestCreateTransactionRejectsZeroAmount(t *testing.T) {
	ctx := context.Background()
	store, manager, wallet := setup(t)

	err := store.RunInTx(ctx, func(tx contracts.LedgerTx) error {
		_, err := manager.CreateTransaction(ctx, tx, &models.TransactionDraft{WalletID: wallet.ID, Type: models.TransactionTypeDeposit})
		return err
	})
	assert.ErrorIs(t, err, exceptions.ErrInvalidInput)
}

func TestCreateTransactionExhaustsReferenceAttempts(t *testing.T) {
	ctx := context.Background()
	store, manager, wallet := setup(t)

	calls := 0
	manager.generate = func(prefix string, now time.Time) (string, error) {
		calls++
		return prefix + "-FIXED", nil
	}

	draft := func() *models.TransactionDraft {
		return &models.TransactionDraft{WalletID: wallet.ID, Amount: 1, Type: models.TransactionTypeDeposit}
	}
	require.NoError(t, store.RunInTx(ctx, func(tx contracts.LedgerTx) error {
		_, err := manager.CreateTransaction(ctx, tx, draft())
		return err
	}))

	calls = 0
	err := store.RunInTx(ctx, func(tx contracts.LedgerTx) error {
		_, err := manager.CreateTransaction(ctx, tx, draft())
		return err
	})
	assert.ErrorIs(t, err, exceptions.ErrDuplicateReference)
	assert.ErrorIs(t, err, exceptions.ErrReferenceExhausted)
	assert.Equal(t, 3, calls)
}

func TestSuppliedReferenceIsTriedOnce(t *testing.T) {
	ctx := context.Background()
	store, manager, wallet := setup(t)

	create := func() error {
		return store.RunInTx(ctx, func(tx contracts.LedgerTx) error {
			_, err := manager.CreateTransaction(ctx, tx, &models.TransactionDraft{
				WalletID:        wallet.ID,
				Amount:          100,
				Type:            models.TransactionTypeDeposit,
				ReferenceNumber: "CALLER-REF",
			})
			return err
		})
	}
	require.NoError(t, create())

	err := create()
	assert.ErrorIs(t, err, exceptions.ErrDuplicateReference)
	assert.NotErrorIs(t, err, exceptions.ErrReferenceExhausted)
}

func TestTransitionsFollowStateMachine(t *testing.T) {
	ctx := context.Background()
	store, manager, wallet := setup(t)

	var withdrawal *models.Transaction
	require.NoError(t, store.RunInTx(ctx, func(tx contracts.LedgerTx) error {
		var err error
		withdrawal, err = manager.CreateTransaction(ctx, tx, &models.TransactionDraft{WalletID: wallet.ID, Amount: -500, Type: models.TransactionTypeWithdrawal})
		return err
	}))

	require.NoError(t, store.RunInTx(ctx, func(tx contracts.LedgerTx) error {
		failed, reverse, err := manager.FailTransaction(ctx, tx, withdrawal.ID, "bank rejected")
		require.NoError(t, err)
		assert.True(t, reverse)
		assert.Equal(t, "bank rejected", failed.FailureReason)
		return nil
	}))

	err := store.RunInTx(ctx, func(tx contracts.LedgerTx) error {
		_, err := manager.CompleteTransaction(ctx, tx, withdrawal.ID, nil)
		return err
	})
	assert.ErrorIs(t, err, exceptions.ErrTransition)
}

func TestFailCreditNeedsNoReversal(t *testing.T) {
	ctx := context.Background()
	store, manager, wallet := setup(t)

	require.NoError(t, store.RunInTx(ctx, func(tx contracts.LedgerTx) error {
		deposit, err := manager.CreateTransaction(ctx, tx, &models.TransactionDraft{WalletID: wallet.ID, Amount: 500, Type: models.TransactionTypeDeposit})
		require.NoError(t, err)
		_, reverse, err := manager.FailTransaction(ctx, tx, deposit.ID, "declined")
		assert.False(t, reverse)
		return err
	}))
}

func TestRefundTransaction(t *testing.T) {
	ctx := context.Background()
	store, manager, wallet := setup(t)

	var payment *models.Transaction
	require.NoError(t, store.RunInTx(ctx, func(tx contracts.LedgerTx) error {
		created, err := manager.CreateTransaction(ctx, tx, &models.TransactionDraft{WalletID: wallet.ID, Amount: -7500, Type: models.TransactionTypePayment})
		if err != nil {
			return err
		}
		payment, err = manager.CompleteTransaction(ctx, tx, created.ID, nil)
		return err
	}))

	var refund *models.Transaction
	require.NoError(t, store.RunInTx(ctx, func(tx contracts.LedgerTx) error {
		var err error
		refund, err = manager.RefundTransaction(ctx, tx, payment.ID, "session cancelled")
		return err
	}))

	assert.EqualValues(t, 7500, refund.Amount)
	assert.Equal(t, models.TransactionTypeRefund, refund.Type)
	assert.Equal(t, models.TransactionStatusPending, refund.Status)
	require.NotNil(t, refund.RelatedTransactionID)
	assert.Equal(t, payment.ID, *refund.RelatedTransactionID)

	original, err := store.FindTransactionByID(ctx, payment.ID)
	require.NoError(t, err)
	assert.Equal(t, models.TransactionStatusRefunded, original.Status)
	assert.True(t, original.Status.IsPosted())

	err = store.RunInTx(ctx, func(tx contracts.LedgerTx) error {
		_, err := manager.RefundTransaction(ctx, tx, payment.ID, "again")
		return err
	})
	assert.ErrorIs(t, err, exceptions.ErrInvalidState)
}

func TestReferencePrefix(t *testing.T) {
	assert.Equal(t, "WDR", ReferencePrefix(models.TransactionTypeWithdrawal))
	assert.Equal(t, "TRF", ReferencePrefix(models.TransactionTypeTransferIn))
	assert.Equal(t, "SUB", ReferencePrefix(models.TransactionTypeSubscription))
	assert.Equal(t, "RFD", ReferencePrefix(models.TransactionTypeRefund))
}

func TestCreateRefundLeavesOriginalUntilMarked(t *testing.T) {
	ctx := context.Background()
	store, manager, wallet := setup(t)

	var deposit, refund *models.Transaction
	require.NoError(t, store.RunInTx(ctx, func(tx contracts.LedgerTx) error {
		var err error
		deposit, err = manager.CreateTransaction(ctx, tx, &models.TransactionDraft{WalletID: wallet.ID, Amount: 700, Type: models.TransactionTypeDeposit})
		require.NoError(t, err)
		_, err = manager.CompleteTransaction(ctx, tx, deposit.ID, nil)
		require.NoError(t, err)

		refund, err = manager.CreateRefund(ctx, tx, deposit.ID, "requested")
		return err
	}))
	assert.EqualValues(t, -700, refund.Amount)
	assert.Equal(t, models.TransactionStatusPending, refund.Status)
	require.NotNil(t, refund.RelatedTransactionID)
	assert.Equal(t, deposit.ID, *refund.RelatedTransactionID)

	original, err := store.FindTransactionByID(ctx, deposit.ID)
	require.NoError(t, err)
	assert.Equal(t, models.TransactionStatusCompleted, original.Status)

	require.NoError(t, store.RunInTx(ctx, func(tx contracts.LedgerTx) error {
		marked, err := manager.MarkRefunded(ctx, tx, deposit.ID)
		require.NoError(t, err)
		assert.Equal(t, models.TransactionStatusRefunded, marked.Status)
		return nil
	}))

	err = store.RunInTx(ctx, func(tx contracts.LedgerTx) error {
		_, err := manager.CreateRefund(ctx, tx, deposit.ID, "again")
		return err
	})
	assert.ErrorIs(t, err, exceptions.ErrInvalidState)
}
