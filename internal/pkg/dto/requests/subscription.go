package requests

type CreateSubscription struct {
	OwnerID       string `json:"owner_id" validate:"required,max=64"`
	PlanID        string `json:"plan_id" validate:"required"`
	BillingCycle  string `json:"billing_cycle" validate:"required,billing_cycle"`
	PaymentMethod string `json:"payment_method" validate:"omitempty,oneof=wallet"`
	StartTrial    bool   `json:"start_trial"`
	AutoRenew     *bool  `json:"auto_renew"`
}

type UpgradeSubscription struct {
	PlanID string `json:"plan_id" validate:"required"`
}

type CancelSubscription struct {
	Reason    string `json:"reason" validate:"omitempty,max=255"`
	Immediate bool   `json:"immediate"`
}

type Usage struct {
	OwnerID  string `json:"owner_id" validate:"required,max=64"`
	Resource string `json:"resource" validate:"required,max=64"`
	Amount   int64  `json:"amount" validate:"omitempty,gte=1"`
}
