package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	"konsulin-wallet-service/internal/app/contracts"
	"konsulin-wallet-service/internal/app/models"
	"konsulin-wallet-service/internal/pkg/constvars"
	"konsulin-wallet-service/internal/pkg/exceptions"
	"konsulin-wallet-service/internal/pkg/money"
	"konsulin-wallet-service/internal/pkg/queries"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/lib/pq"
	"go.uber.org/zap"
)

const (
	pgUniqueViolation  = "23505"
	pgLockNotAvailable = "55P03"
	insertSavepoint    = "insert_wallet_transaction"
)

type ledgerPostgresStore struct {
	DB          *sql.DB
	Log         *zap.Logger
	LockTimeout time.Duration
}

var (
	ledgerPostgresStoreInstance contracts.LedgerStore
	onceLedgerPostgresStore     sync.Once
)

func NewLedgerPostgresStore(db *sql.DB, logger *zap.Logger, lockTimeout time.Duration) contracts.LedgerStore {
	onceLedgerPostgresStore.Do(func() {
		if lockTimeout <= 0 {
			lockTimeout = constvars.DefaultLockTimeout
		}
		instance := &ledgerPostgresStore{
			DB:          db,
			Log:         logger,
			LockTimeout: lockTimeout,
		}
		ledgerPostgresStoreInstance = instance
	})
	return ledgerPostgresStoreInstance
}

func (s *ledgerPostgresStore) RunInTx(ctx context.Context, fn func(tx contracts.LedgerTx) error) error {
	sqlTx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return exceptions.ErrPostgresTx(err)
	}
	defer sqlTx.Rollback()

	lockTimeout := fmt.Sprintf(queries.SetLocalLockTimeout, s.LockTimeout.Milliseconds())
	if _, err := sqlTx.ExecContext(ctx, lockTimeout); err != nil {
		return exceptions.ErrPostgresTx(err)
	}

	if err := fn(&postgresLedgerTx{tx: sqlTx}); err != nil {
		return err
	}

	if err := sqlTx.Commit(); err != nil {
		return exceptions.ErrPostgresTx(err)
	}
	return nil
}

func (s *ledgerPostgresStore) CreateWallet(ctx context.Context, wallet *models.Wallet) error {
	if wallet.ID == "" {
		wallet.ID = uuid.NewString()
	}
	_, err := s.DB.ExecContext(ctx, queries.InsertWallet,
		wallet.ID,
		wallet.OwnerID,
		wallet.OwnerType,
		wallet.Currency,
		wallet.Balance,
		wallet.BlockedBalance,
		wallet.DailyWithdrawalLimit,
		wallet.MonthlyWithdrawalLimit,
		wallet.IsActive,
		wallet.IsVerified,
		wallet.LastTransactionAt,
		wallet.CreatedAt,
		wallet.UpdatedAt,
	)
	if isPostgresCode(err, pgUniqueViolation) {
		return exceptions.ErrWalletAlreadyExists(err, wallet.OwnerID)
	} else if err != nil {
		return exceptions.ErrPostgresQuery(err)
	}
	return nil
}

func (s *ledgerPostgresStore) FindWalletByID(ctx context.Context, walletID string) (*models.Wallet, error) {
	wallet, err := scanWallet(s.DB.QueryRowContext(ctx, queries.GetWalletByID, walletID))
	if err == sql.ErrNoRows {
		return nil, exceptions.ErrWalletNotFound(err, walletID)
	} else if err != nil {
		return nil, exceptions.ErrPostgresQuery(err)
	}
	return wallet, nil
}

func (s *ledgerPostgresStore) FindWalletByOwnerID(ctx context.Context, ownerID string) (*models.Wallet, error) {
	wallet, err := scanWallet(s.DB.QueryRowContext(ctx, queries.GetWalletByOwnerID, ownerID))
	if err == sql.ErrNoRows {
		return nil, exceptions.ErrWalletOwnerNotFound(err, ownerID)
	} else if err != nil {
		return nil, exceptions.ErrPostgresQuery(err)
	}
	return wallet, nil
}

func (s *ledgerPostgresStore) FindTransactionByID(ctx context.Context, transactionID string) (*models.Transaction, error) {
	transaction, err := scanTransaction(s.DB.QueryRowContext(ctx, queries.GetWalletTransactionByID, transactionID))
	if err == sql.ErrNoRows {
		return nil, exceptions.ErrTransactionNotFound(err, transactionID)
	} else if err != nil {
		return nil, exceptions.ErrPostgresQuery(err)
	}
	return transaction, nil
}

func (s *ledgerPostgresStore) FindTransactionByReference(ctx context.Context, referenceNumber string) (*models.Transaction, error) {
	transaction, err := scanTransaction(s.DB.QueryRowContext(ctx, queries.GetWalletTransactionByReference, referenceNumber))
	if err == sql.ErrNoRows {
		return nil, nil
	} else if err != nil {
		return nil, exceptions.ErrPostgresQuery(err)
	}
	return transaction, nil
}

func (s *ledgerPostgresStore) ListTransactions(ctx context.Context, filter models.TransactionFilter) ([]models.Transaction, int, error) {
	limit := filter.Limit
	if limit <= 0 {
		limit = constvars.DefaultPageSize
	}

	var total int
	err := s.DB.QueryRowContext(ctx, queries.CountWalletTransactions,
		filter.WalletID,
		string(filter.Type),
		string(filter.Status),
	).Scan(&total)
	if err != nil {
		return nil, 0, exceptions.ErrPostgresQuery(err)
	}

	rows, err := s.DB.QueryContext(ctx, queries.ListWalletTransactions,
		filter.WalletID,
		string(filter.Type),
		string(filter.Status),
		limit,
		filter.Offset,
	)
	if err != nil {
		return nil, 0, exceptions.ErrPostgresQuery(err)
	}
	defer rows.Close()

	transactions, err := scanTransactions(rows)
	if err != nil {
		return nil, 0, exceptions.ErrPostgresQuery(err)
	}
	return transactions, total, nil
}

type postgresLedgerTx struct {
	tx *sql.Tx
}

func (t *postgresLedgerTx) LockWallet(ctx context.Context, walletID string) (*models.Wallet, error) {
	wallet, err := scanWallet(t.tx.QueryRowContext(ctx, queries.LockWalletByID, walletID))
	if err != nil {
		return nil, lockWalletError(err, walletID)
	}
	return wallet, nil
}

func (t *postgresLedgerTx) SaveWallet(ctx context.Context, wallet *models.Wallet) error {
	_, err := t.tx.ExecContext(ctx, queries.UpdateWallet,
		wallet.ID,
		wallet.Balance,
		wallet.BlockedBalance,
		wallet.DailyWithdrawalLimit,
		wallet.MonthlyWithdrawalLimit,
		wallet.IsActive,
		wallet.IsVerified,
		wallet.LastTransactionAt,
		wallet.UpdatedAt,
	)
	if err != nil {
		return exceptions.ErrPostgresQuery(err)
	}
	return nil
}

func (t *postgresLedgerTx) GetTransaction(ctx context.Context, transactionID string) (*models.Transaction, error) {
	transaction, err := scanTransaction(t.tx.QueryRowContext(ctx, queries.GetWalletTransactionByID, transactionID))
	if err == sql.ErrNoRows {
		return nil, exceptions.ErrTransactionNotFound(err, transactionID)
	} else if err != nil {
		return nil, exceptions.ErrPostgresQuery(err)
	}
	return transaction, nil
}

func (t *postgresLedgerTx) FindTransactionByReference(ctx context.Context, referenceNumber string) (*models.Transaction, error) {
	transaction, err := scanTransaction(t.tx.QueryRowContext(ctx, queries.GetWalletTransactionByReference, referenceNumber))
	if err == sql.ErrNoRows {
		return nil, nil
	} else if err != nil {
		return nil, exceptions.ErrPostgresQuery(err)
	}
	return transaction, nil
}

func (t *postgresLedgerTx) FindTransactionByGatewayReference(ctx context.Context, gatewayReference string) (*models.Transaction, error) {
	transaction, err := scanTransaction(t.tx.QueryRowContext(ctx, queries.GetWalletTransactionByGatewayReference, gatewayReference))
	if err == sql.ErrNoRows {
		return nil, nil
	} else if err != nil {
		return nil, exceptions.ErrPostgresQuery(err)
	}
	return transaction, nil
}

func (t *postgresLedgerTx) FindTransactionsByRelated(ctx context.Context, transactionID string) ([]models.Transaction, error) {
	rows, err := t.tx.QueryContext(ctx, queries.GetWalletTransactionsByRelated, transactionID)
	if err != nil {
		return nil, exceptions.ErrPostgresQuery(err)
	}
	defer rows.Close()

	transactions, err := scanTransactions(rows)
	if err != nil {
		return nil, exceptions.ErrPostgresQuery(err)
	}
	return transactions, nil
}

// InsertTransaction runs under a savepoint so a reference collision leaves
// the surrounding unit usable for another attempt.
func (t *postgresLedgerTx) InsertTransaction(ctx context.Context, transaction *models.Transaction) error {
	if transaction.ID == "" {
		transaction.ID = uuid.NewString()
	}
	metadata := transaction.Metadata
	if metadata == nil {
		metadata = map[string]string{}
	}
	metadataJSON, err := json.Marshal(metadata)
	if err != nil {
		return exceptions.ErrCannotMarshalJSON(err)
	}

	if _, err := t.tx.ExecContext(ctx, "SAVEPOINT "+insertSavepoint); err != nil {
		return exceptions.ErrPostgresTx(err)
	}

	_, err = t.tx.ExecContext(ctx, queries.InsertWalletTransaction,
		transaction.ID,
		transaction.WalletID,
		transaction.Amount,
		transaction.Type,
		transaction.Status,
		transaction.ReferenceNumber,
		transaction.GatewayReference,
		transaction.RelatedTransactionID,
		transaction.RelatedWalletID,
		transaction.Description,
		transaction.FailureReason,
		metadataJSON,
		transaction.CompletedAt,
		transaction.CreatedAt,
		transaction.UpdatedAt,
	)
	if err != nil {
		if _, rollbackErr := t.tx.ExecContext(ctx, "ROLLBACK TO SAVEPOINT "+insertSavepoint); rollbackErr != nil {
			return exceptions.ErrPostgresTx(rollbackErr)
		}
		return insertTransactionError(err, transaction.ReferenceNumber)
	}

	if _, err := t.tx.ExecContext(ctx, "RELEASE SAVEPOINT "+insertSavepoint); err != nil {
		return exceptions.ErrPostgresTx(err)
	}
	return nil
}

func (t *postgresLedgerTx) UpdateTransactionStatus(ctx context.Context, transactionID string, change models.TransactionStatusChange) (*models.Transaction, error) {
	var completedAt *time.Time
	if change.To == models.TransactionStatusCompleted {
		at := change.At
		completedAt = &at
	}

	updated, err := scanTransaction(t.tx.QueryRowContext(ctx, queries.UpdateWalletTransactionStatus,
		transactionID,
		change.From,
		change.To,
		change.GatewayReference,
		change.FailureReason,
		completedAt,
		change.At,
	))
	if err == sql.ErrNoRows {
		if _, findErr := t.GetTransaction(ctx, transactionID); findErr != nil {
			return nil, findErr
		}
		return nil, exceptions.ErrStateConflict("transaction", transactionID, string(change.From))
	} else if err != nil {
		return nil, exceptions.ErrPostgresQuery(err)
	}
	return updated, nil
}

func (t *postgresLedgerTx) SumCompletedWithdrawals(ctx context.Context, walletID string, since time.Time) (money.Amount, error) {
	var total money.Amount
	if err := t.tx.QueryRowContext(ctx, queries.SumCompletedWithdrawals, walletID, since).Scan(&total); err != nil {
		return 0, exceptions.ErrPostgresQuery(err)
	}
	return total, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanWallet(row rowScanner) (*models.Wallet, error) {
	var (
		wallet            models.Wallet
		lastTransactionAt sql.NullTime
	)
	err := row.Scan(
		&wallet.ID,
		&wallet.OwnerID,
		&wallet.OwnerType,
		&wallet.Currency,
		&wallet.Balance,
		&wallet.BlockedBalance,
		&wallet.DailyWithdrawalLimit,
		&wallet.MonthlyWithdrawalLimit,
		&wallet.IsActive,
		&wallet.IsVerified,
		&lastTransactionAt,
		&wallet.CreatedAt,
		&wallet.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if lastTransactionAt.Valid {
		wallet.LastTransactionAt = &lastTransactionAt.Time
	}
	return &wallet, nil
}

func scanTransaction(row rowScanner) (*models.Transaction, error) {
	var (
		transaction          models.Transaction
		gatewayReference     sql.NullString
		relatedTransactionID sql.NullString
		relatedWalletID      sql.NullString
		metadata             []byte
		completedAt          sql.NullTime
	)
	err := row.Scan(
		&transaction.ID,
		&transaction.WalletID,
		&transaction.Amount,
		&transaction.Type,
		&transaction.Status,
		&transaction.ReferenceNumber,
		&gatewayReference,
		&relatedTransactionID,
		&relatedWalletID,
		&transaction.Description,
		&transaction.FailureReason,
		&metadata,
		&completedAt,
		&transaction.CreatedAt,
		&transaction.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	transaction.GatewayReference = nullableString(gatewayReference)
	transaction.RelatedTransactionID = nullableString(relatedTransactionID)
	transaction.RelatedWalletID = nullableString(relatedWalletID)
	if completedAt.Valid {
		transaction.CompletedAt = &completedAt.Time
	}
	if len(metadata) > 0 {
		if err := json.Unmarshal(metadata, &transaction.Metadata); err != nil {
			return nil, err
		}
	}
	return &transaction, nil
}

func scanTransactions(rows *sql.Rows) ([]models.Transaction, error) {
	transactions := make([]models.Transaction, 0)
	for rows.Next() {
		transaction, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		transactions = append(transactions, *transaction)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return transactions, nil
}

func nullableString(value sql.NullString) *string {
	if !value.Valid {
		return nil
	}
	return &value.String
}

// lockWalletError maps a failed FOR UPDATE read. An expired lock_timeout
// surfaces as 55P03.
func lockWalletError(err error, walletID string) error {
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return exceptions.ErrWalletNotFound(err, walletID)
	case isPostgresCode(err, pgLockNotAvailable):
		return exceptions.ErrLockAcquireTimeout(err, "wallet "+walletID)
	default:
		return exceptions.ErrPostgresQuery(err)
	}
}

func insertTransactionError(err error, referenceNumber string) error {
	if isPostgresCode(err, pgUniqueViolation) {
		return exceptions.ErrReferenceTaken(err, referenceNumber)
	}
	return exceptions.ErrPostgresQuery(err)
}

func isPostgresCode(err error, code string) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && string(pqErr.Code) == code
}
