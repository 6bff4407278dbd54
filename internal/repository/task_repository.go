package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"goalplanner/internal/model"
)

// TaskRepository handles CRUD for tasks.
type TaskRepository struct {
	db *gorm.DB
}

func NewTaskRepository(db *gorm.DB) *TaskRepository {
	return &TaskRepository{db: db}
}

func (r *TaskRepository) ListByPlan(ctx context.Context, planID uint) ([]model.Task, error) {
	var tasks []model.Task
	if err := r.db.WithContext(ctx).Where("plan_id = ?", planID).
		Order("idx ASC").Find(&tasks).Error; err != nil {
		return nil, err
	}
	return tasks, nil
}

func (r *TaskRepository) FindByID(ctx context.Context, taskID uint) (*model.Task, error) {
	var task model.Task
	if err := r.db.WithContext(ctx).First(&task, taskID).Error; err != nil {
		return nil, err
	}
	return &task, nil
}

// InsertBatch creates the given tasks in one statement, preserving Idx order.
func (r *TaskRepository) InsertBatch(ctx context.Context, tasks []model.Task) error {
	if len(tasks) == 0 {
		return nil
	}
	if err := r.db.WithContext(ctx).Create(&tasks).Error; err != nil {
		return fmt.Errorf("insert tasks: %w", err)
	}
	return nil
}

func (r *TaskRepository) DeleteByPlan(ctx context.Context, planID uint) error {
	if err := r.db.WithContext(ctx).Where("plan_id = ?", planID).
		Delete(&model.Task{}).Error; err != nil {
		return fmt.Errorf("delete plan tasks: %w", err)
	}
	return nil
}

func (r *TaskRepository) MarkCompleted(ctx context.Context, taskID uint) error {
	if err := r.db.WithContext(ctx).Model(&model.Task{}).Where("id = ?", taskID).
		Update("completed", true).Error; err != nil {
		return fmt.Errorf("complete task: %w", err)
	}
	return nil
}
