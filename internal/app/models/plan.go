package models

import (
	"konsulin-wallet-service/internal/pkg/constvars"
	"konsulin-wallet-service/internal/pkg/money"
)

type PlanType string

const (
	PlanTypePatient      PlanType = "patient"
	PlanTypePractitioner PlanType = "practitioner"
)

type BillingCycle string

const (
	BillingCycleMonthly BillingCycle = "monthly"
	BillingCycleYearly  BillingCycle = "yearly"
)

func (c BillingCycle) IsValid() bool {
	return c == BillingCycleMonthly || c == BillingCycleYearly
}

// Days is the fixed cycle length: 30 days monthly, 365 days yearly.
func (c BillingCycle) Days() int {
	if c == BillingCycleYearly {
		return constvars.YearlyCycleDays
	}
	return constvars.MonthlyCycleDays
}

type Plan struct {
	ID             string           `json:"id"`
	Code           string           `json:"code"`
	Name           string           `json:"name"`
	Type           PlanType         `json:"type"`
	MonthlyPrice   money.Amount     `json:"monthly_price"`
	YearlyPrice    money.Amount     `json:"yearly_price"`
	Limits         map[string]int64 `json:"limits"`
	CommissionRate money.Rate       `json:"commission_rate"`
	IsActive       bool             `json:"is_active"`
	TimeModel
}

func (p *Plan) PriceFor(cycle BillingCycle) money.Amount {
	if cycle == BillingCycleYearly {
		return p.YearlyPrice
	}
	return p.MonthlyPrice
}

// Limit returns the monthly cap for resource. ok is false when the
// resource is unlimited, either absent or set to -1.
func (p *Plan) Limit(resource string) (limit int64, ok bool) {
	limit, found := p.Limits[resource+constvars.UsageLimitSuffix]
	if !found || limit == constvars.UsageLimitUnlimited {
		return 0, false
	}
	return limit, true
}
