package service

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"goalplanner/internal/calendar"
	"goalplanner/internal/model"
	"goalplanner/internal/schedule"
)

// AvailabilityService merges a user's existing placements and external
// calendar commitments into one canonical busy set per day.
type AvailabilityService struct {
	scheduleRepo ScheduleStore
	busySource   calendar.BusySource
	log          zerolog.Logger
}

func NewAvailabilityService(scheduleRepo ScheduleStore, busySource calendar.BusySource, log zerolog.Logger) *AvailabilityService {
	return &AvailabilityService{
		scheduleRepo: scheduleRepo,
		busySource:   busySource,
		log:          log.With().Str("component", "availability").Logger(),
	}
}

// BusyIntervals collects all commitments in [from, to): the user's live task
// placements outside excludePlanID (0 to exclude none) plus external calendar
// events. The result is merged and sorted; spans crossing midnight are split
// at the boundary during per-day bucketing downstream.
func (s *AvailabilityService) BusyIntervals(ctx context.Context, user *model.User, from, to time.Time, excludePlanID uint) ([]schedule.Interval, error) {
	rows, err := s.scheduleRepo.ListCurrentByUser(ctx, user.ID, from, to, excludePlanID)
	if err != nil {
		return nil, internalError(CodeRegeneration, "load existing placements", err)
	}

	intervals := make([]schedule.Interval, 0, len(rows))
	for _, row := range rows {
		intervals = append(intervals, schedule.Interval{Start: row.StartAt, End: row.EndAt})
	}

	external, err := s.busySource.BusyIntervals(ctx, user.ExternalRef, from, to)
	if err != nil {
		// A dead calendar link should not block planning around known tasks.
		s.log.Warn().Err(err).Uint("user_id", user.ID).Msg("calendar fetch failed, using task placements only")
	} else {
		intervals = append(intervals, external...)
	}

	return schedule.Merge(intervals), nil
}
