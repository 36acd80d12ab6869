package contracts

import (
	"context"

	"konsulin-wallet-service/internal/app/models"
)

type PlanRepository interface {
	FindByID(ctx context.Context, planID string) (*models.Plan, error)
	FindByCode(ctx context.Context, code string) (*models.Plan, error)
	List(ctx context.Context, planType models.PlanType, activeOnly bool) ([]models.Plan, error)
	Upsert(ctx context.Context, plan *models.Plan) error
}

type PlanUsecase interface {
	ListPlans(ctx context.Context, planType models.PlanType) ([]models.Plan, error)
	GetPlan(ctx context.Context, planID string) (*models.Plan, error)
	SeedDefaultPlans(ctx context.Context) error
}
