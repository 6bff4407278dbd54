package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"goalplanner/internal/model"
)

// ErrLockHeld is returned by Acquire when another saga already holds the plan.
var ErrLockHeld = errors.New("plan lock held")

// StaleLockAge is how long a lock may live before it is considered abandoned
// by a crashed saga and stolen by the next acquirer.
const StaleLockAge = 10 * time.Minute

// PlanLockRepository is an advisory single-writer gate per plan, backed by a
// unique index so acquisition is a plain insert race.
type PlanLockRepository struct {
	db *gorm.DB
}

func NewPlanLockRepository(db *gorm.DB) *PlanLockRepository {
	return &PlanLockRepository{db: db}
}

// Acquire takes the lock for planID and returns an ownership token. A fresh
// concurrent holder yields ErrLockHeld; stale locks are expired first.
func (r *PlanLockRepository) Acquire(ctx context.Context, planID uint, now time.Time) (string, error) {
	db := r.db.WithContext(ctx)

	if err := db.Where("plan_id = ? AND acquired_at < ?", planID, now.Add(-StaleLockAge)).
		Delete(&model.PlanLock{}).Error; err != nil {
		return "", fmt.Errorf("expire stale lock: %w", err)
	}

	lock := model.PlanLock{
		PlanID:     planID,
		Token:      uuid.NewString(),
		AcquiredAt: now,
	}
	if err := db.Create(&lock).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return "", ErrLockHeld
		}
		return "", fmt.Errorf("acquire plan lock: %w", err)
	}
	return lock.Token, nil
}

// Release drops the lock if the token still owns it. Releasing a lock that
// was already stolen is a no-op.
func (r *PlanLockRepository) Release(ctx context.Context, planID uint, token string) error {
	if err := r.db.WithContext(ctx).Where("plan_id = ? AND token = ?", planID, token).
		Delete(&model.PlanLock{}).Error; err != nil {
		return fmt.Errorf("release plan lock: %w", err)
	}
	return nil
}
