package service

import (
	"context"
	"regexp"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"goalplanner/internal/model"
	"goalplanner/internal/schedule"
)

// defaultHorizonDays bounds placement when a plan has no explicit end date.
const defaultHorizonDays = 28

// ScheduleService runs the placement engine for a plan's task set and
// persists the resulting TaskSchedule rows.
type ScheduleService struct {
	scheduleRepo ScheduleStore
	settingsRepo SettingsStore
	availability *AvailabilityService
	log          zerolog.Logger
}

func NewScheduleService(scheduleRepo ScheduleStore, settingsRepo SettingsStore, availability *AvailabilityService, log zerolog.Logger) *ScheduleService {
	return &ScheduleService{
		scheduleRepo: scheduleRepo,
		settingsRepo: settingsRepo,
		availability: availability,
		log:          log.With().Str("component", "schedule").Logger(),
	}
}

// GenerateForPlan places every task of the plan into free calendar gaps and
// stores the placements. Tasks that fit nowhere are returned as unscheduled,
// never dropped.
func (s *ScheduleService) GenerateForPlan(ctx context.Context, user *model.User, plan *model.Plan, tasks []model.Task) ([]model.TaskSchedule, []schedule.Unplaced, error) {
	settings, err := s.settingsRepo.GetByUser(ctx, user.ID)
	if err != nil {
		return nil, nil, internalError(CodeSettingsFetch, "load workday settings", err)
	}

	start := schedule.DayOf(plan.StartDate)
	days := planHorizonDays(plan)
	end := start.AddDate(0, 0, days)

	busy, err := s.availability.BusyIntervals(ctx, user, start, end, plan.ID)
	if err != nil {
		return nil, nil, err
	}

	usage := DetectUsagePattern(plan.GoalText)
	result := schedule.Place(schedule.Request{
		Start: start,
		Days:  days,
		Tasks: taskSpecs(tasks),
		Busy:  busy,
		WindowsFor: func(day time.Time) []schedule.Interval {
			return schedule.WindowsForDay(day, settings, usage)
		},
	})

	rows := make([]model.TaskSchedule, 0, len(result.Slots))
	for _, slot := range result.Slots {
		rows = append(rows, model.TaskSchedule{
			TaskID:  slot.TaskID,
			PlanID:  plan.ID,
			UserID:  user.ID,
			Date:    slot.Date,
			StartAt: slot.Start,
			EndAt:   slot.End,
			Origin:  model.OriginOriginal,
		})
	}
	if err := s.scheduleRepo.InsertBatch(ctx, rows); err != nil {
		return nil, nil, internalError(CodeScheduleGeneration, "persist placements", err)
	}

	if len(result.Unscheduled) > 0 {
		s.log.Warn().Uint("plan_id", plan.ID).Int("count", len(result.Unscheduled)).
			Msg("tasks left unscheduled")
	}
	return rows, result.Unscheduled, nil
}

// ListPlanSchedule returns the plan's live placements for the calling layer.
func (s *ScheduleService) ListPlanSchedule(ctx context.Context, user *model.User, planID uint) ([]model.TaskSchedule, error) {
	rows, err := s.scheduleRepo.ListByPlan(ctx, planID)
	if err != nil {
		return nil, internalError(CodeRegeneration, "list plan schedule", err)
	}
	filtered := rows[:0]
	for _, row := range rows {
		if row.UserID == user.ID {
			filtered = append(filtered, row)
		}
	}
	return filtered, nil
}

func taskSpecs(tasks []model.Task) []schedule.TaskSpec {
	specs := make([]schedule.TaskSpec, 0, len(tasks))
	for _, t := range tasks {
		if t.Completed {
			continue
		}
		specs = append(specs, schedule.TaskSpec{
			ID:              t.ID,
			Idx:             t.Idx,
			Name:            t.Name,
			DurationMinutes: t.DurationMinutes,
			Priority:        t.Priority,
			Recurring:       t.Recurring,
			Indefinite:      t.Indefinite,
			CalendarEvent:   t.CalendarEvent,
		})
	}
	return specs
}

func planHorizonDays(plan *model.Plan) int {
	if plan.EndDate != nil {
		days := int(schedule.DayOf(*plan.EndDate).Sub(schedule.DayOf(plan.StartDate)).Hours()/24) + 1
		if days > 0 {
			return days
		}
	}
	if plan.TimelineDays > 0 {
		return plan.TimelineDays
	}
	return defaultHorizonDays
}

var (
	eveningRe = regexp.MustCompile(`(?i)\b(evenings?|after work|nights?)\b`)
	hoursRe   = regexp.MustCompile(`(?i)\b(\d{1,2})\s*(?:hours?|hrs?|h)\b`)
	afterRe   = regexp.MustCompile(`(?i)\bafter\s+(\d{1,2})(?::(\d{2}))?\b`)
)

// DetectUsagePattern extracts an evening-work signal from the user's own goal
// text. Returns nil when the text gives no such signal.
func DetectUsagePattern(goalText string) *schedule.UsagePattern {
	if !eveningRe.MatchString(goalText) {
		return nil
	}

	pattern := &schedule.UsagePattern{TimeOfDay: "evening", HoursPerDay: 2}

	if m := hoursRe.FindStringSubmatch(goalText); m != nil {
		if hours, err := strconv.Atoi(m[1]); err == nil && hours > 0 && hours <= 12 {
			pattern.HoursPerDay = hours
		}
	}

	if m := afterRe.FindStringSubmatch(goalText); m != nil {
		hour, err := strconv.Atoi(m[1])
		if err == nil && hour <= 23 {
			minutes := hour * 60
			if m[2] != "" {
				if mm, err := strconv.Atoi(m[2]); err == nil && mm < 60 {
					minutes += mm
				}
			}
			pattern.MentionMinutes = minutes
		}
	}

	return pattern
}
