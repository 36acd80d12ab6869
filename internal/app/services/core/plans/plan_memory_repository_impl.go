package plans

import (
	"context"
	"sort"
	"sync"

	"konsulin-wallet-service/internal/app/contracts"
	"konsulin-wallet-service/internal/app/models"
	"konsulin-wallet-service/internal/pkg/exceptions"

	"github.com/google/uuid"
)

type planMemoryRepository struct {
	mu     sync.RWMutex
	plans  map[string]models.Plan
	byCode map[string]string
}

func NewPlanMemoryRepository() contracts.PlanRepository {
	return &planMemoryRepository{
		plans:  map[string]models.Plan{},
		byCode: map[string]string{},
	}
}

func (repo *planMemoryRepository) FindByID(ctx context.Context, planID string) (*models.Plan, error) {
	repo.mu.RLock()
	defer repo.mu.RUnlock()

	plan, ok := repo.plans[planID]
	if !ok {
		return nil, exceptions.ErrPlanNotFound(nil, planID)
	}
	return clonePlan(plan), nil
}

func (repo *planMemoryRepository) FindByCode(ctx context.Context, code string) (*models.Plan, error) {
	repo.mu.RLock()
	defer repo.mu.RUnlock()

	id, ok := repo.byCode[code]
	if !ok {
		return nil, exceptions.ErrPlanNotFound(nil, code)
	}
	return clonePlan(repo.plans[id]), nil
}

func (repo *planMemoryRepository) List(ctx context.Context, planType models.PlanType, activeOnly bool) ([]models.Plan, error) {
	repo.mu.RLock()
	defer repo.mu.RUnlock()

	plans := make([]models.Plan, 0, len(repo.plans))
	for _, plan := range repo.plans {
		if planType != "" && plan.Type != planType {
			continue
		}
		if activeOnly && !plan.IsActive {
			continue
		}
		plans = append(plans, *clonePlan(plan))
	}
	sort.Slice(plans, func(i, j int) bool {
		if plans[i].MonthlyPrice != plans[j].MonthlyPrice {
			return plans[i].MonthlyPrice < plans[j].MonthlyPrice
		}
		return plans[i].Code < plans[j].Code
	})
	return plans, nil
}

func (repo *planMemoryRepository) Upsert(ctx context.Context, plan *models.Plan) error {
	repo.mu.Lock()
	defer repo.mu.Unlock()

	if id, ok := repo.byCode[plan.Code]; ok {
		plan.ID = id
		plan.CreatedAt = repo.plans[id].CreatedAt
	} else if plan.ID == "" {
		plan.ID = uuid.NewString()
	}
	repo.plans[plan.ID] = *clonePlan(*plan)
	repo.byCode[plan.Code] = plan.ID
	return nil
}

func clonePlan(plan models.Plan) *models.Plan {
	limits := make(map[string]int64, len(plan.Limits))
	for key, value := range plan.Limits {
		limits[key] = value
	}
	plan.Limits = limits
	return &plan
}
