package service

import (
	"context"

	"github.com/rs/zerolog"

	"goalplanner/internal/model"
)

const minutesPerDay = 24 * 60

// SettingsService reads and validates workday preferences.
type SettingsService struct {
	repo SettingsStore
	log  zerolog.Logger
}

func NewSettingsService(repo SettingsStore, log zerolog.Logger) *SettingsService {
	return &SettingsService{repo: repo, log: log.With().Str("component", "settings").Logger()}
}

// Get returns the user's settings, falling back to defaults when unsaved.
func (s *SettingsService) Get(ctx context.Context, user *model.User) (model.WorkdaySettings, error) {
	settings, err := s.repo.GetByUser(ctx, user.ID)
	if err != nil {
		return model.WorkdaySettings{}, internalError(CodeSettingsFetch, "load workday settings", err)
	}
	return settings, nil
}

// Save validates and persists new preferences, preserving the row identity of
// any previously saved settings.
func (s *SettingsService) Save(ctx context.Context, user *model.User, settings model.WorkdaySettings) (model.WorkdaySettings, error) {
	if settings.StartHour < 0 || settings.EndHour > 24 || settings.StartHour >= settings.EndHour {
		return model.WorkdaySettings{}, validationError("workday start hour must be before end hour, within 0..24")
	}
	if settings.LunchStartMinute < 0 || settings.LunchEndMinute > minutesPerDay ||
		settings.LunchStartMinute > settings.LunchEndMinute {
		return model.WorkdaySettings{}, validationError("lunch window must be a valid span of minutes within the day")
	}

	existing, err := s.repo.GetByUser(ctx, user.ID)
	if err != nil {
		return model.WorkdaySettings{}, internalError(CodeSettingsFetch, "load workday settings", err)
	}
	settings.ID = existing.ID
	settings.UserID = user.ID
	if err := s.repo.Save(ctx, &settings); err != nil {
		return model.WorkdaySettings{}, internalError(CodeSettingsFetch, "save workday settings", err)
	}

	s.log.Info().Uint("user_id", user.ID).Int("start_hour", settings.StartHour).
		Int("end_hour", settings.EndHour).Msg("workday settings saved")
	return settings, nil
}
