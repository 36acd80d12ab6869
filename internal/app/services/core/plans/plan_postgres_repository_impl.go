package plans

import (
	"context"
	"database/sql"
	"sync"

	"konsulin-wallet-service/internal/app/contracts"
	"konsulin-wallet-service/internal/app/models"
	"konsulin-wallet-service/internal/pkg/constvars"
	"konsulin-wallet-service/internal/pkg/exceptions"
	"konsulin-wallet-service/internal/pkg/queries"
	"konsulin-wallet-service/internal/pkg/utils"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type planPostgresRepository struct {
	DB  *sql.DB
	Log *zap.Logger
}

var (
	planPostgresRepositoryInstance contracts.PlanRepository
	oncePlanPostgresRepository     sync.Once
)

func NewPlanPostgresRepository(db *sql.DB, logger *zap.Logger) contracts.PlanRepository {
	oncePlanPostgresRepository.Do(func() {
		instance := &planPostgresRepository{
			DB:  db,
			Log: logger,
		}
		planPostgresRepositoryInstance = instance
	})
	return planPostgresRepositoryInstance
}

func (repo *planPostgresRepository) FindByID(ctx context.Context, planID string) (*models.Plan, error) {
	requestID := utils.GetRequestID(ctx)
	repo.Log.Info("planPostgresRepository.FindByID called",
		zap.String(constvars.LoggingRequestIDKey, requestID),
		zap.String(constvars.LoggingPlanIDKey, planID),
	)

	plan, err := scanPlan(repo.DB.QueryRowContext(ctx, queries.GetPlanByID, planID))
	if err == sql.ErrNoRows {
		repo.Log.Warn("planPostgresRepository.FindByID no rows found",
			zap.String(constvars.LoggingRequestIDKey, requestID),
			zap.String(constvars.LoggingPlanIDKey, planID),
		)
		return nil, exceptions.ErrPlanNotFound(err, planID)
	} else if err != nil {
		repo.Log.Error("planPostgresRepository.FindByID error executing query",
			zap.String(constvars.LoggingRequestIDKey, requestID),
			zap.String(constvars.LoggingPlanIDKey, planID),
			zap.Error(err),
		)
		return nil, exceptions.ErrPostgresQuery(err)
	}
	return plan, nil
}

func (repo *planPostgresRepository) FindByCode(ctx context.Context, code string) (*models.Plan, error) {
	requestID := utils.GetRequestID(ctx)
	repo.Log.Info("planPostgresRepository.FindByCode called",
		zap.String(constvars.LoggingRequestIDKey, requestID),
		zap.String("plan_code", code),
	)

	plan, err := scanPlan(repo.DB.QueryRowContext(ctx, queries.GetPlanByCode, code))
	if err == sql.ErrNoRows {
		return nil, exceptions.ErrPlanNotFound(err, code)
	} else if err != nil {
		repo.Log.Error("planPostgresRepository.FindByCode error executing query",
			zap.String(constvars.LoggingRequestIDKey, requestID),
			zap.Error(err),
		)
		return nil, exceptions.ErrPostgresQuery(err)
	}
	return plan, nil
}

func (repo *planPostgresRepository) List(ctx context.Context, planType models.PlanType, activeOnly bool) ([]models.Plan, error) {
	requestID := utils.GetRequestID(ctx)
	repo.Log.Info("planPostgresRepository.List called",
		zap.String(constvars.LoggingRequestIDKey, requestID),
		zap.String("plan_type", string(planType)),
	)

	rows, err := repo.DB.QueryContext(ctx, queries.ListPlans, string(planType), activeOnly)
	if err != nil {
		repo.Log.Error("planPostgresRepository.List error executing query",
			zap.String(constvars.LoggingRequestIDKey, requestID),
			zap.Error(err),
		)
		return nil, exceptions.ErrPostgresQuery(err)
	}
	defer rows.Close()

	var plans []models.Plan
	for rows.Next() {
		plan, err := scanPlan(rows)
		if err != nil {
			repo.Log.Error("planPostgresRepository.List error scanning row",
				zap.String(constvars.LoggingRequestIDKey, requestID),
				zap.Error(err),
			)
			return nil, exceptions.ErrPostgresQuery(err)
		}
		plans = append(plans, *plan)
	}
	if err := rows.Err(); err != nil {
		repo.Log.Error("planPostgresRepository.List rows iteration error",
			zap.String(constvars.LoggingRequestIDKey, requestID),
			zap.Error(err),
		)
		return nil, exceptions.ErrPostgresQuery(err)
	}

	repo.Log.Info("planPostgresRepository.List succeeded",
		zap.String(constvars.LoggingRequestIDKey, requestID),
		zap.Int(constvars.LoggingCountKey, len(plans)),
	)
	return plans, nil
}

// Upsert inserts the plan or refreshes the stored row with the same code.
// plan.ID is set to the stored id either way.
func (repo *planPostgresRepository) Upsert(ctx context.Context, plan *models.Plan) error {
	requestID := utils.GetRequestID(ctx)
	repo.Log.Info("planPostgresRepository.Upsert called",
		zap.String(constvars.LoggingRequestIDKey, requestID),
		zap.String("plan_code", plan.Code),
	)

	if plan.ID == "" {
		plan.ID = uuid.NewString()
	}
	limits, err := json.Marshal(plan.Limits)
	if err != nil {
		return exceptions.ErrCannotMarshalJSON(err)
	}

	err = repo.DB.QueryRowContext(ctx, queries.UpsertPlan,
		plan.ID,
		plan.Code,
		plan.Name,
		plan.Type,
		plan.MonthlyPrice,
		plan.YearlyPrice,
		limits,
		plan.CommissionRate,
		plan.IsActive,
		plan.CreatedAt,
		plan.UpdatedAt,
	).Scan(&plan.ID)
	if err != nil {
		repo.Log.Error("planPostgresRepository.Upsert error executing query",
			zap.String(constvars.LoggingRequestIDKey, requestID),
			zap.Error(err),
		)
		return exceptions.ErrPostgresQuery(err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanPlan(row rowScanner) (*models.Plan, error) {
	var (
		plan   models.Plan
		limits []byte
	)
	err := row.Scan(
		&plan.ID,
		&plan.Code,
		&plan.Name,
		&plan.Type,
		&plan.MonthlyPrice,
		&plan.YearlyPrice,
		&limits,
		&plan.CommissionRate,
		&plan.IsActive,
		&plan.CreatedAt,
		&plan.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	plan.Limits = map[string]int64{}
	if len(limits) > 0 {
		if err := json.Unmarshal(limits, &plan.Limits); err != nil {
			return nil, err
		}
	}
	return &plan, nil
}
