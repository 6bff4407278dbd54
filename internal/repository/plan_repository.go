package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"goalplanner/internal/model"
)

// PlanRepository handles CRUD for plans.
type PlanRepository struct {
	db *gorm.DB
}

func NewPlanRepository(db *gorm.DB) *PlanRepository {
	return &PlanRepository{db: db}
}

func (r *PlanRepository) Create(ctx context.Context, plan *model.Plan) error {
	if err := r.db.WithContext(ctx).Create(plan).Error; err != nil {
		return fmt.Errorf("create plan: %w", err)
	}
	return nil
}

func (r *PlanRepository) FindByID(ctx context.Context, userID, planID uint) (*model.Plan, error) {
	var plan model.Plan
	if err := r.db.WithContext(ctx).Where("user_id = ? AND id = ?", userID, planID).First(&plan).Error; err != nil {
		return nil, err
	}
	return &plan, nil
}

// UpdateFields applies a partial update to the plan's mutable columns.
func (r *PlanRepository) UpdateFields(ctx context.Context, planID uint, fields map[string]interface{}) error {
	if err := r.db.WithContext(ctx).Model(&model.Plan{}).Where("id = ?", planID).
		Updates(fields).Error; err != nil {
		return fmt.Errorf("update plan: %w", err)
	}
	return nil
}

func (r *PlanRepository) ListByUser(ctx context.Context, userID uint) ([]model.Plan, error) {
	var plans []model.Plan
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).
		Order("created_at DESC").Find(&plans).Error; err != nil {
		return nil, err
	}
	return plans, nil
}
