package responses

import (
	"time"

	"konsulin-wallet-service/internal/app/models"
	"konsulin-wallet-service/internal/pkg/money"
)

type Upgrade struct {
	Subscription    *models.Subscription `json:"subscription"`
	RemainingCredit money.Amount         `json:"remaining_credit"`
	AmountDue       money.Amount         `json:"amount_due"`
	Charge          *models.Transaction  `json:"charge,omitempty"`
}

type UsageCheck struct {
	Allowed bool `json:"allowed"`
}

// SweepReport summarises one scheduled sweep. Failures maps subscription id
// to the reason the item could not be processed.
type SweepReport struct {
	Processed  int               `json:"processed"`
	Succeeded  int               `json:"succeeded"`
	Failed     int               `json:"failed"`
	Skipped    int               `json:"skipped"`
	Failures   map[string]string `json:"failures,omitempty"`
	StartedAt  time.Time         `json:"started_at"`
	FinishedAt time.Time         `json:"finished_at"`
}

func NewSweepReport(startedAt time.Time) *SweepReport {
	return &SweepReport{StartedAt: startedAt, Failures: map[string]string{}}
}

func (r *SweepReport) Fail(subscriptionID, reason string) {
	r.Failed++
	r.Failures[subscriptionID] = reason
}
