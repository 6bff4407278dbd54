package repository

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"goalplanner/internal/model"
)

// ScheduleRepository handles TaskSchedule rows. Rows are append-only: moving
// a placement inserts a new row, so "current" rows are those no later row
// points at via rescheduled_from.
type ScheduleRepository struct {
	db *gorm.DB
}

func NewScheduleRepository(db *gorm.DB) *ScheduleRepository {
	return &ScheduleRepository{db: db}
}

// current narrows a query to rows not superseded by a reschedule.
func (r *ScheduleRepository) current(db *gorm.DB) *gorm.DB {
	sub := r.db.Model(&model.TaskSchedule{}).
		Select("rescheduled_from").
		Where("rescheduled_from IS NOT NULL")
	return db.Where("id NOT IN (?)", sub)
}

func (r *ScheduleRepository) Insert(ctx context.Context, s *model.TaskSchedule) error {
	if err := r.db.WithContext(ctx).Create(s).Error; err != nil {
		return fmt.Errorf("insert schedule: %w", err)
	}
	return nil
}

func (r *ScheduleRepository) InsertBatch(ctx context.Context, rows []model.TaskSchedule) error {
	if len(rows) == 0 {
		return nil
	}
	if err := r.db.WithContext(ctx).Create(&rows).Error; err != nil {
		return fmt.Errorf("insert schedules: %w", err)
	}
	return nil
}

func (r *ScheduleRepository) FindByID(ctx context.Context, userID, scheduleID uint) (*model.TaskSchedule, error) {
	var s model.TaskSchedule
	if err := r.db.WithContext(ctx).Where("user_id = ? AND id = ?", userID, scheduleID).
		First(&s).Error; err != nil {
		return nil, err
	}
	return &s, nil
}

// ListCurrentByUser returns the user's live placements overlapping
// [from, to), optionally excluding one plan (pass 0 to exclude none).
func (r *ScheduleRepository) ListCurrentByUser(ctx context.Context, userID uint, from, to time.Time, excludePlanID uint) ([]model.TaskSchedule, error) {
	q := r.current(r.db.WithContext(ctx)).
		Where("user_id = ? AND start_at < ? AND end_at > ?", userID, to, from)
	if excludePlanID != 0 {
		q = q.Where("plan_id <> ?", excludePlanID)
	}

	var rows []model.TaskSchedule
	if err := q.Order("start_at ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *ScheduleRepository) ListByPlan(ctx context.Context, planID uint) ([]model.TaskSchedule, error) {
	var rows []model.TaskSchedule
	if err := r.current(r.db.WithContext(ctx)).Where("plan_id = ?", planID).
		Order("start_at ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// ListOverdue returns live placements that ended before now and whose task
// has not been completed.
func (r *ScheduleRepository) ListOverdue(ctx context.Context, userID uint, now time.Time) ([]model.TaskSchedule, error) {
	var rows []model.TaskSchedule
	q := r.current(r.db.WithContext(ctx)).
		Joins("JOIN tasks ON tasks.id = task_schedules.task_id").
		Where("task_schedules.user_id = ? AND task_schedules.end_at < ? AND tasks.completed = ?", userID, now, false)
	if err := q.Order("task_schedules.start_at ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// HasSuccessor reports whether a later row supersedes the given schedule.
func (r *ScheduleRepository) HasSuccessor(ctx context.Context, scheduleID uint) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&model.TaskSchedule{}).
		Where("rescheduled_from = ?", scheduleID).Count(&count).Error; err != nil {
		return false, fmt.Errorf("check successor: %w", err)
	}
	return count > 0, nil
}

func (r *ScheduleRepository) DeleteByPlan(ctx context.Context, planID uint) error {
	if err := r.db.WithContext(ctx).Where("plan_id = ?", planID).
		Delete(&model.TaskSchedule{}).Error; err != nil {
		return fmt.Errorf("delete plan schedules: %w", err)
	}
	return nil
}
