package queries

const (
	planColumns = `
			id,
			code,
			name,
			type,
			monthly_price,
			yearly_price,
			limits,
			commission_rate,
			is_active,
			created_at,
			updated_at`
)

const (
	GetPlanByID = `
		SELECT ` + planColumns + `
		FROM plans
		WHERE id = $1
	`

	GetPlanByCode = `
		SELECT ` + planColumns + `
		FROM plans
		WHERE code = $1
	`

	ListPlans = `
		SELECT ` + planColumns + `
		FROM plans
		WHERE ($1 = '' OR type = $1)
		AND ($2 = FALSE OR is_active = TRUE)
		ORDER BY monthly_price ASC, code ASC
	`

	UpsertPlan = `
		INSERT INTO plans (` + planColumns + `
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (code) DO UPDATE SET
			name = EXCLUDED.name,
			type = EXCLUDED.type,
			monthly_price = EXCLUDED.monthly_price,
			yearly_price = EXCLUDED.yearly_price,
			limits = EXCLUDED.limits,
			commission_rate = EXCLUDED.commission_rate,
			is_active = EXCLUDED.is_active,
			updated_at = EXCLUDED.updated_at
		RETURNING id
	`
)
