package plans

import (
	"context"
	"errors"
	"time"

	"konsulin-wallet-service/internal/app/config"
	"konsulin-wallet-service/internal/app/contracts"
	"konsulin-wallet-service/internal/app/models"
	"konsulin-wallet-service/internal/pkg/constvars"
	"konsulin-wallet-service/internal/pkg/exceptions"
	"konsulin-wallet-service/internal/pkg/money"
	"konsulin-wallet-service/internal/pkg/utils"

	"go.uber.org/zap"
)

type planUsecase struct {
	PlanRepository contracts.PlanRepository
	InternalConfig *config.InternalConfig
	Log            *zap.Logger

	now func() time.Time
}

func NewPlanUsecase(planRepository contracts.PlanRepository, internalConfig *config.InternalConfig, logger *zap.Logger) contracts.PlanUsecase {
	return &planUsecase{
		PlanRepository: planRepository,
		InternalConfig: internalConfig,
		Log:            logger,
		now:            time.Now,
	}
}

func (uc *planUsecase) ListPlans(ctx context.Context, planType models.PlanType) ([]models.Plan, error) {
	uc.Log.Info("planUsecase.ListPlans called",
		zap.String(constvars.LoggingRequestIDKey, utils.GetRequestID(ctx)),
		zap.String("plan_type", string(planType)),
	)
	if planType != "" && planType != models.PlanTypePatient && planType != models.PlanTypePractitioner {
		return nil, exceptions.ErrURLParamIDValidation(nil, "type")
	}
	return uc.PlanRepository.List(ctx, planType, true)
}

// GetPlan resolves planID as an id first and as a plan code second.
func (uc *planUsecase) GetPlan(ctx context.Context, planID string) (*models.Plan, error) {
	uc.Log.Info("planUsecase.GetPlan called",
		zap.String(constvars.LoggingRequestIDKey, utils.GetRequestID(ctx)),
		zap.String(constvars.LoggingPlanIDKey, planID),
	)

	plan, err := uc.PlanRepository.FindByID(ctx, planID)
	if errors.Is(err, exceptions.ErrNotFound) {
		plan, err = uc.PlanRepository.FindByCode(ctx, planID)
	}
	if err != nil {
		return nil, err
	}
	return plan, nil
}

func (uc *planUsecase) SeedDefaultPlans(ctx context.Context) error {
	requestID := utils.GetRequestID(ctx)
	now := uc.now()

	for _, plan := range DefaultPlans() {
		plan.SetCreatedAtUpdatedAt(now)
		if err := uc.PlanRepository.Upsert(ctx, &plan); err != nil {
			uc.Log.Error("planUsecase.SeedDefaultPlans error upserting plan",
				zap.String(constvars.LoggingRequestIDKey, requestID),
				zap.String("plan_code", plan.Code),
				zap.Error(err),
			)
			return err
		}
	}

	uc.Log.Info("planUsecase.SeedDefaultPlans succeeded",
		zap.String(constvars.LoggingRequestIDKey, requestID),
	)
	return nil
}

// DefaultPlans is the catalogue installed on first start.
func DefaultPlans() []models.Plan {
	limit := func(resource string) string { return resource + constvars.UsageLimitSuffix }

	return []models.Plan{
		{
			Code:         constvars.PlanCodePatientBasic,
			Name:         "Patient Basic",
			Type:         models.PlanTypePatient,
			MonthlyPrice: 49_000,
			YearlyPrice:  490_000,
			Limits: map[string]int64{
				limit(constvars.UsageResourceConsultations): 2,
				limit(constvars.UsageResourceAssessments):   5,
			},
			IsActive: true,
		},
		{
			Code:         constvars.PlanCodePatientPremium,
			Name:         "Patient Premium",
			Type:         models.PlanTypePatient,
			MonthlyPrice: 99_000,
			YearlyPrice:  990_000,
			Limits: map[string]int64{
				limit(constvars.UsageResourceConsultations): 10,
				limit(constvars.UsageResourceAssessments):   constvars.UsageLimitUnlimited,
			},
			IsActive: true,
		},
		{
			Code:           constvars.PlanCodePractitionerBasic,
			Name:           "Practitioner Basic",
			Type:           models.PlanTypePractitioner,
			MonthlyPrice:   149_000,
			YearlyPrice:    1_490_000,
			Limits:         map[string]int64{limit(constvars.UsageResourceActivePatients): 50},
			CommissionRate: money.MustParseRate("0.10"),
			IsActive:       true,
		},
		{
			Code:           constvars.PlanCodePractitionerPro,
			Name:           "Practitioner Pro",
			Type:           models.PlanTypePractitioner,
			MonthlyPrice:   299_000,
			YearlyPrice:    2_990_000,
			Limits:         map[string]int64{limit(constvars.UsageResourceActivePatients): constvars.UsageLimitUnlimited},
			CommissionRate: money.MustParseRate("0.05"),
			IsActive:       true,
		},
	}
}
