package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"goalplanner/internal/model"
)

// SettingsRepository manages workday preferences.
type SettingsRepository struct {
	db *gorm.DB
}

func NewSettingsRepository(db *gorm.DB) *SettingsRepository {
	return &SettingsRepository{db: db}
}

// GetByUser returns the user's saved settings, or defaults when none exist.
func (r *SettingsRepository) GetByUser(ctx context.Context, userID uint) (model.WorkdaySettings, error) {
	var settings model.WorkdaySettings
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&settings).Error
	switch {
	case err == nil:
		return settings, nil
	case err == gorm.ErrRecordNotFound:
		return model.DefaultWorkdaySettings(userID), nil
	default:
		return settings, fmt.Errorf("find settings: %w", err)
	}
}

func (r *SettingsRepository) Save(ctx context.Context, settings *model.WorkdaySettings) error {
	if err := r.db.WithContext(ctx).Save(settings).Error; err != nil {
		return fmt.Errorf("save settings: %w", err)
	}
	return nil
}
