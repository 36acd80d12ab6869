package queries

const (
	subscriptionColumns = `
			id,
			owner_id,
			wallet_id,
			plan_id,
			status,
			billing_cycle,
			payment_method,
			trial_end_date,
			start_date,
			end_date,
			next_billing_date,
			auto_renew,
			usage_data,
			past_due_since,
			failure_reason,
			cancelled_at,
			cancellation_reason,
			version,
			created_at,
			updated_at`
)

const (
	InsertSubscription = `
		INSERT INTO subscriptions (` + subscriptionColumns + `
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20)
	`

	GetSubscriptionByID = `
		SELECT ` + subscriptionColumns + `
		FROM subscriptions
		WHERE id = $1
	`

	GetOpenSubscriptionByOwnerID = `
		SELECT ` + subscriptionColumns + `
		FROM subscriptions
		WHERE owner_id = $1
		AND status IN ('trial', 'active', 'past_due')
	`

	// UpdateSubscription is a compare-and-swap on version.
	UpdateSubscription = `
		UPDATE subscriptions SET
			plan_id = $2,
			status = $3,
			trial_end_date = $4,
			end_date = $5,
			next_billing_date = $6,
			auto_renew = $7,
			usage_data = $8,
			past_due_since = $9,
			failure_reason = $10,
			cancelled_at = $11,
			cancellation_reason = $12,
			updated_at = $13,
			version = version + 1
		WHERE id = $1 AND version = $14
	`

	ListSubscriptionsDueForBilling = `
		SELECT ` + subscriptionColumns + `
		FROM subscriptions
		WHERE auto_renew = TRUE
		AND next_billing_date <= $1
		AND (status = 'active' OR ($2 = TRUE AND status = 'past_due'))
		ORDER BY next_billing_date ASC, id ASC
		LIMIT $3
	`

	ListSubscriptionExpiryCandidates = `
		SELECT ` + subscriptionColumns + `
		FROM subscriptions
		WHERE (status = 'trial' AND trial_end_date <= $1)
		OR (status = 'active' AND auto_renew = FALSE AND end_date <= $1)
		OR (status = 'past_due' AND past_due_since <= $2)
		ORDER BY next_billing_date ASC, id ASC
		LIMIT $3
	`
)
