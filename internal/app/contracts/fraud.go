package contracts

import (
	"context"

	"konsulin-wallet-service/internal/pkg/dto/requests"
	"konsulin-wallet-service/internal/pkg/dto/responses"
)

type FraudChecker interface {
	Assess(ctx context.Context, request *requests.FraudAssessment) (*responses.FraudAssessment, error)
}
