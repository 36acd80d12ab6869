package ledger

import (
	"context"
	"sort"
	"sync"
	"time"

	"konsulin-wallet-service/internal/app/contracts"
	"konsulin-wallet-service/internal/app/models"
	"konsulin-wallet-service/internal/pkg/constvars"
	"konsulin-wallet-service/internal/pkg/exceptions"
	"konsulin-wallet-service/internal/pkg/money"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ledgerMemoryStore keeps the ledger in process memory. Wallet locks are
// per-wallet semaphores so that units touching disjoint wallets run in
// parallel; mu only guards the maps.
type ledgerMemoryStore struct {
	Log         *zap.Logger
	LockTimeout time.Duration

	mu           sync.Mutex
	wallets      map[string]models.Wallet
	owners       map[string]string
	transactions map[string]models.Transaction
	references   map[string]string
	walletLocks  map[string]chan struct{}
}

func NewLedgerMemoryStore(logger *zap.Logger, lockTimeout time.Duration) contracts.LedgerStore {
	if lockTimeout <= 0 {
		lockTimeout = constvars.DefaultLockTimeout
	}
	return &ledgerMemoryStore{
		Log:          logger,
		LockTimeout:  lockTimeout,
		wallets:      make(map[string]models.Wallet),
		owners:       make(map[string]string),
		transactions: make(map[string]models.Transaction),
		references:   make(map[string]string),
		walletLocks:  make(map[string]chan struct{}),
	}
}

func (s *ledgerMemoryStore) RunInTx(ctx context.Context, fn func(tx contracts.LedgerTx) error) error {
	tx := &memoryLedgerTx{
		store:    s,
		held:     make(map[string]chan struct{}),
		wallets:  make(map[string]*models.Wallet),
		inserted: make(map[string]*models.Transaction),
		updated:  make(map[string]*models.Transaction),
		expected: make(map[string]models.TransactionStatus),
	}
	defer tx.release()

	if err := fn(tx); err != nil {
		return err
	}
	return tx.commit()
}

func (s *ledgerMemoryStore) CreateWallet(ctx context.Context, wallet *models.Wallet) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.owners[wallet.OwnerID]; exists {
		return exceptions.ErrWalletAlreadyExists(nil, wallet.OwnerID)
	}
	if wallet.ID == "" {
		wallet.ID = uuid.NewString()
	}
	s.wallets[wallet.ID] = *wallet
	s.owners[wallet.OwnerID] = wallet.ID
	return nil
}

func (s *ledgerMemoryStore) FindWalletByID(ctx context.Context, walletID string) (*models.Wallet, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	wallet, ok := s.wallets[walletID]
	if !ok {
		return nil, exceptions.ErrWalletNotFound(nil, walletID)
	}
	return &wallet, nil
}

func (s *ledgerMemoryStore) FindWalletByOwnerID(ctx context.Context, ownerID string) (*models.Wallet, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	walletID, ok := s.owners[ownerID]
	if !ok {
		return nil, exceptions.ErrWalletOwnerNotFound(nil, ownerID)
	}
	wallet := s.wallets[walletID]
	return &wallet, nil
}

func (s *ledgerMemoryStore) FindTransactionByID(ctx context.Context, transactionID string) (*models.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	transaction, ok := s.transactions[transactionID]
	if !ok {
		return nil, exceptions.ErrTransactionNotFound(nil, transactionID)
	}
	return &transaction, nil
}

func (s *ledgerMemoryStore) FindTransactionByReference(ctx context.Context, referenceNumber string) (*models.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	transactionID, ok := s.references[referenceNumber]
	if !ok {
		return nil, nil
	}
	transaction := s.transactions[transactionID]
	return &transaction, nil
}

func (s *ledgerMemoryStore) ListTransactions(ctx context.Context, filter models.TransactionFilter) ([]models.Transaction, int, error) {
	s.mu.Lock()
	matched := make([]models.Transaction, 0)
	for _, transaction := range s.transactions {
		if matchesFilter(&transaction, filter) {
			matched = append(matched, transaction)
		}
	}
	s.mu.Unlock()

	sort.Slice(matched, func(i, j int) bool {
		if matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return matched[i].ID > matched[j].ID
		}
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})

	total := len(matched)
	limit := filter.Limit
	if limit <= 0 {
		limit = constvars.DefaultPageSize
	}
	if filter.Offset >= total {
		return []models.Transaction{}, total, nil
	}
	end := filter.Offset + limit
	if end > total {
		end = total
	}
	return matched[filter.Offset:end], total, nil
}

func matchesFilter(transaction *models.Transaction, filter models.TransactionFilter) bool {
	if filter.WalletID != "" && transaction.WalletID != filter.WalletID {
		return false
	}
	if filter.Type != "" && transaction.Type != filter.Type {
		return false
	}
	if filter.Status != "" && transaction.Status != filter.Status {
		return false
	}
	return true
}

func (s *ledgerMemoryStore) walletLock(walletID string) chan struct{} {
	s.mu.Lock()
	defer s.mu.Unlock()

	lock, ok := s.walletLocks[walletID]
	if !ok {
		lock = make(chan struct{}, 1)
		s.walletLocks[walletID] = lock
	}
	return lock
}

// memoryLedgerTx stages every write and applies them on commit. Updates to
// transactions committed by earlier units are re-checked against the status
// they were read with, so two units racing on the same record cannot both win.
type memoryLedgerTx struct {
	store    *ledgerMemoryStore
	held     map[string]chan struct{}
	wallets  map[string]*models.Wallet
	inserted map[string]*models.Transaction
	order    []string
	updated  map[string]*models.Transaction
	expected map[string]models.TransactionStatus
}

func (tx *memoryLedgerTx) LockWallet(ctx context.Context, walletID string) (*models.Wallet, error) {
	if staged, ok := tx.wallets[walletID]; ok {
		wallet := *staged
		return &wallet, nil
	}

	lock := tx.store.walletLock(walletID)
	timer := time.NewTimer(tx.store.LockTimeout)
	defer timer.Stop()

	select {
	case lock <- struct{}{}:
	case <-timer.C:
		return nil, exceptions.ErrLockAcquireTimeout(nil, "wallet "+walletID)
	case <-ctx.Done():
		return nil, exceptions.ErrLockAcquireTimeout(ctx.Err(), "wallet "+walletID)
	}
	tx.held[walletID] = lock

	tx.store.mu.Lock()
	wallet, ok := tx.store.wallets[walletID]
	tx.store.mu.Unlock()
	if !ok {
		delete(tx.held, walletID)
		<-lock
		return nil, exceptions.ErrWalletNotFound(nil, walletID)
	}

	staged := wallet
	tx.wallets[walletID] = &staged
	return &wallet, nil
}

func (tx *memoryLedgerTx) SaveWallet(ctx context.Context, wallet *models.Wallet) error {
	staged, ok := tx.wallets[wallet.ID]
	if !ok {
		return exceptions.ErrInvalidStateTransition("wallet", "unlocked", "saved")
	}
	*staged = *wallet
	return nil
}

func (tx *memoryLedgerTx) GetTransaction(ctx context.Context, transactionID string) (*models.Transaction, error) {
	transaction, ok := tx.view(transactionID)
	if !ok {
		return nil, exceptions.ErrTransactionNotFound(nil, transactionID)
	}
	return &transaction, nil
}

func (tx *memoryLedgerTx) FindTransactionByReference(ctx context.Context, referenceNumber string) (*models.Transaction, error) {
	for _, id := range tx.order {
		if tx.inserted[id].ReferenceNumber == referenceNumber {
			transaction := *tx.inserted[id]
			return &transaction, nil
		}
	}

	tx.store.mu.Lock()
	transactionID, ok := tx.store.references[referenceNumber]
	tx.store.mu.Unlock()
	if !ok {
		return nil, nil
	}
	transaction, _ := tx.view(transactionID)
	return &transaction, nil
}

func (tx *memoryLedgerTx) FindTransactionByGatewayReference(ctx context.Context, gatewayReference string) (*models.Transaction, error) {
	var found *models.Transaction
	for _, transaction := range tx.snapshot() {
		transaction := transaction
		if transaction.GatewayReference == nil || *transaction.GatewayReference != gatewayReference {
			continue
		}
		if found == nil || transaction.CreatedAt.After(found.CreatedAt) {
			found = &transaction
		}
	}
	return found, nil
}

func (tx *memoryLedgerTx) FindTransactionsByRelated(ctx context.Context, transactionID string) ([]models.Transaction, error) {
	related := make([]models.Transaction, 0)
	for _, transaction := range tx.snapshot() {
		if transaction.RelatedTransactionID != nil && *transaction.RelatedTransactionID == transactionID {
			related = append(related, transaction)
		}
	}
	sort.Slice(related, func(i, j int) bool {
		return related[i].CreatedAt.Before(related[j].CreatedAt)
	})
	return related, nil
}

func (tx *memoryLedgerTx) InsertTransaction(ctx context.Context, transaction *models.Transaction) error {
	if existing, _ := tx.FindTransactionByReference(ctx, transaction.ReferenceNumber); existing != nil {
		return exceptions.ErrReferenceTaken(nil, transaction.ReferenceNumber)
	}
	if transaction.ID == "" {
		transaction.ID = uuid.NewString()
	}

	staged := *transaction
	staged.Metadata = copyMetadata(transaction.Metadata)
	tx.inserted[staged.ID] = &staged
	tx.order = append(tx.order, staged.ID)
	return nil
}

func (tx *memoryLedgerTx) UpdateTransactionStatus(ctx context.Context, transactionID string, change models.TransactionStatusChange) (*models.Transaction, error) {
	current, ok := tx.view(transactionID)
	if !ok {
		return nil, exceptions.ErrTransactionNotFound(nil, transactionID)
	}
	if current.Status != change.From {
		return nil, exceptions.ErrStateConflict("transaction", transactionID, string(change.From))
	}

	current.Status = change.To
	current.FailureReason = change.FailureReason
	if change.GatewayReference != nil {
		current.GatewayReference = change.GatewayReference
	}
	if change.To == models.TransactionStatusCompleted {
		at := change.At
		current.CompletedAt = &at
	}
	current.SetUpdatedAt(change.At)

	if staged, ok := tx.inserted[transactionID]; ok {
		*staged = current
	} else {
		if _, seen := tx.expected[transactionID]; !seen {
			tx.expected[transactionID] = change.From
		}
		tx.updated[transactionID] = &current
	}

	result := current
	return &result, nil
}

func (tx *memoryLedgerTx) SumCompletedWithdrawals(ctx context.Context, walletID string, since time.Time) (money.Amount, error) {
	var total money.Amount
	for _, transaction := range tx.snapshot() {
		if transaction.WalletID != walletID || !transaction.Type.IsWithdrawal() {
			continue
		}
		if transaction.Status != models.TransactionStatusCompleted || transaction.CreatedAt.Before(since) {
			continue
		}
		total += transaction.Amount.Abs()
	}
	return total, nil
}

// view returns the transaction as this unit currently sees it.
func (tx *memoryLedgerTx) view(transactionID string) (models.Transaction, bool) {
	if staged, ok := tx.inserted[transactionID]; ok {
		return *staged, true
	}
	if staged, ok := tx.updated[transactionID]; ok {
		return *staged, true
	}

	tx.store.mu.Lock()
	defer tx.store.mu.Unlock()
	transaction, ok := tx.store.transactions[transactionID]
	return transaction, ok
}

func (tx *memoryLedgerTx) snapshot() []models.Transaction {
	tx.store.mu.Lock()
	all := make([]models.Transaction, 0, len(tx.store.transactions)+len(tx.inserted))
	for id, transaction := range tx.store.transactions {
		if staged, ok := tx.updated[id]; ok {
			transaction = *staged
		}
		all = append(all, transaction)
	}
	tx.store.mu.Unlock()

	for _, id := range tx.order {
		all = append(all, *tx.inserted[id])
	}
	return all
}

func (tx *memoryLedgerTx) commit() error {
	s := tx.store
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, id := range tx.order {
		reference := tx.inserted[id].ReferenceNumber
		if _, taken := s.references[reference]; taken {
			return exceptions.ErrReferenceTaken(nil, reference)
		}
	}
	for id, from := range tx.expected {
		committed, ok := s.transactions[id]
		if !ok {
			return exceptions.ErrTransactionNotFound(nil, id)
		}
		if committed.Status != from {
			return exceptions.ErrStateConflict("transaction", id, string(from))
		}
	}

	for id, wallet := range tx.wallets {
		s.wallets[id] = *wallet
	}
	for _, id := range tx.order {
		transaction := *tx.inserted[id]
		s.transactions[id] = transaction
		s.references[transaction.ReferenceNumber] = id
	}
	for id, transaction := range tx.updated {
		s.transactions[id] = *transaction
	}
	return nil
}

func (tx *memoryLedgerTx) release() {
	for walletID, lock := range tx.held {
		<-lock
		delete(tx.held, walletID)
	}
}

func copyMetadata(metadata map[string]string) map[string]string {
	if metadata == nil {
		return nil
	}
	copied := make(map[string]string, len(metadata))
	for key, value := range metadata {
		copied[key] = value
	}
	return copied
}
