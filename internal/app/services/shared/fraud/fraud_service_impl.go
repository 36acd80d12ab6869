package fraud

import (
	"context"
	"fmt"

	"konsulin-wallet-service/internal/app/config"
	"konsulin-wallet-service/internal/app/contracts"
	"konsulin-wallet-service/internal/pkg/constvars"
	"konsulin-wallet-service/internal/pkg/dto/requests"
	"konsulin-wallet-service/internal/pkg/dto/responses"
	"konsulin-wallet-service/internal/pkg/utils"

	"go.uber.org/zap"
)

const (
	highAmountScore = 50
	velocityScore   = 60
	maxScore        = 100
)

type velocityChecker struct {
	redisRepo contracts.RedisRepository
	config    config.AppFraud
	Log       *zap.Logger
}

// NewVelocityChecker scores a request from its amount and how many attempts
// the wallet made for the same operation inside the velocity window.
func NewVelocityChecker(redisRepo contracts.RedisRepository, internalConfig *config.InternalConfig, logger *zap.Logger) contracts.FraudChecker {
	return &velocityChecker{
		redisRepo: redisRepo,
		config:    internalConfig.Fraud,
		Log:       logger,
	}
}

func (c *velocityChecker) Assess(ctx context.Context, request *requests.FraudAssessment) (*responses.FraudAssessment, error) {
	requestID := utils.GetRequestID(ctx)
	c.Log.Info("velocityChecker.Assess called",
		zap.String(constvars.LoggingRequestIDKey, requestID),
		zap.String(constvars.LoggingWalletIDKey, request.WalletID),
		zap.Int64(constvars.LoggingAmountKey, request.Amount.Int64()),
	)

	if !c.config.Enabled {
		return &responses.FraudAssessment{Allowed: true}, nil
	}

	assessment := &responses.FraudAssessment{}
	if c.config.HighAmount > 0 && request.Amount >= c.config.HighAmount {
		assessment.Score += highAmountScore
		assessment.Reasons = append(assessment.Reasons, "high_amount")
	}

	key := fmt.Sprintf(constvars.FraudVelocityKeyFormat, request.Operation, request.WalletID)
	attempts, err := c.redisRepo.Increment(ctx, key)
	if err != nil {
		c.Log.Error("velocityChecker.Assess error calling redisRepo.Increment",
			zap.String(constvars.LoggingRequestIDKey, requestID),
			zap.Error(err),
		)
		return nil, err
	}
	if attempts == 1 {
		if err := c.redisRepo.Expire(ctx, key, c.config.VelocityWindow); err != nil {
			return nil, err
		}
	}
	if c.config.VelocityMaxEvents > 0 && attempts > c.config.VelocityMaxEvents {
		assessment.Score += velocityScore
		assessment.Reasons = append(assessment.Reasons, "velocity")
	}

	if assessment.Score > maxScore {
		assessment.Score = maxScore
	}
	assessment.Allowed = assessment.Score < c.config.ScoreThreshold

	c.Log.Info("velocityChecker.Assess scored",
		zap.String(constvars.LoggingRequestIDKey, requestID),
		zap.Int("score", assessment.Score),
		zap.Bool("allowed", assessment.Allowed),
	)
	return assessment, nil
}

type allowAllChecker struct{}

func NewAllowAllChecker() contracts.FraudChecker {
	return allowAllChecker{}
}

func (allowAllChecker) Assess(ctx context.Context, request *requests.FraudAssessment) (*responses.FraudAssessment, error) {
	return &responses.FraudAssessment{Allowed: true}, nil
}
