package queries

const (
	walletColumns = `
			id,
			owner_id,
			owner_type,
			currency,
			balance,
			blocked_balance,
			daily_withdrawal_limit,
			monthly_withdrawal_limit,
			is_active,
			is_verified,
			last_transaction_at,
			created_at,
			updated_at`

	transactionColumns = `
			id,
			wallet_id,
			amount,
			type,
			status,
			reference_number,
			gateway_reference,
			related_transaction_id,
			related_wallet_id,
			description,
			failure_reason,
			metadata,
			completed_at,
			created_at,
			updated_at`
)

const (
	InsertWallet = `
		INSERT INTO wallets (` + walletColumns + `
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`

	GetWalletByID = `
		SELECT ` + walletColumns + `
		FROM wallets
		WHERE id = $1
	`

	GetWalletByOwnerID = `
		SELECT ` + walletColumns + `
		FROM wallets
		WHERE owner_id = $1
	`

	LockWalletByID = `
		SELECT ` + walletColumns + `
		FROM wallets
		WHERE id = $1
		FOR UPDATE
	`

	UpdateWallet = `
		UPDATE wallets
		SET
			balance = $2,
			blocked_balance = $3,
			daily_withdrawal_limit = $4,
			monthly_withdrawal_limit = $5,
			is_active = $6,
			is_verified = $7,
			last_transaction_at = $8,
			updated_at = $9
		WHERE id = $1
	`

	SetLocalLockTimeout = `SET LOCAL lock_timeout = '%dms'`
)

const (
	InsertWalletTransaction = `
		INSERT INTO wallet_transactions (` + transactionColumns + `
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
	`

	GetWalletTransactionByID = `
		SELECT ` + transactionColumns + `
		FROM wallet_transactions
		WHERE id = $1
	`

	GetWalletTransactionByReference = `
		SELECT ` + transactionColumns + `
		FROM wallet_transactions
		WHERE reference_number = $1
	`

	GetWalletTransactionByGatewayReference = `
		SELECT ` + transactionColumns + `
		FROM wallet_transactions
		WHERE gateway_reference = $1
		ORDER BY created_at DESC
		LIMIT 1
	`

	GetWalletTransactionsByRelated = `
		SELECT ` + transactionColumns + `
		FROM wallet_transactions
		WHERE related_transaction_id = $1
		ORDER BY created_at ASC
	`

	// Compare-and-swap on status; zero affected rows means the row moved on.
	UpdateWalletTransactionStatus = `
		UPDATE wallet_transactions
		SET
			status = $3,
			gateway_reference = COALESCE($4, gateway_reference),
			failure_reason = $5,
			completed_at = COALESCE($6, completed_at),
			updated_at = $7
		WHERE id = $1 AND status = $2
		RETURNING ` + transactionColumns + `
	`

	SumCompletedWithdrawals = `
		SELECT COALESCE(SUM(-amount), 0)
		FROM wallet_transactions
		WHERE wallet_id = $1
			AND type = 'withdrawal'
			AND status = 'completed'
			AND created_at >= $2
	`

	ListWalletTransactions = `
		SELECT ` + transactionColumns + `
		FROM wallet_transactions
		WHERE ($1 = '' OR wallet_id::text = $1)
			AND ($2 = '' OR type = $2)
			AND ($3 = '' OR status = $3)
		ORDER BY created_at DESC, id DESC
		LIMIT $4 OFFSET $5
	`

	CountWalletTransactions = `
		SELECT COUNT(*)
		FROM wallet_transactions
		WHERE ($1 = '' OR wallet_id::text = $1)
			AND ($2 = '' OR type = $2)
			AND ($3 = '' OR status = $3)
	`
)
