package service

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"goalplanner/internal/model"
	"goalplanner/internal/schedule"
)

// maxChainHops caps provenance walks; a longer chain means corrupted data.
const maxChainHops = 1000

// RescheduleService moves placements without rewriting history: every move
// inserts a new TaskSchedule row linked to its predecessor, so the full
// provenance chain stays intact.
type RescheduleService struct {
	scheduleRepo ScheduleStore
	taskRepo     TaskStore
	settingsRepo SettingsStore
	availability *AvailabilityService
	log          zerolog.Logger
}

func NewRescheduleService(scheduleRepo ScheduleStore, taskRepo TaskStore, settingsRepo SettingsStore, availability *AvailabilityService, log zerolog.Logger) *RescheduleService {
	return &RescheduleService{
		scheduleRepo: scheduleRepo,
		taskRepo:     taskRepo,
		settingsRepo: settingsRepo,
		availability: availability,
		log:          log.With().Str("component", "reschedule").Logger(),
	}
}

// MoveSchedule relocates one placement to the requested slot. The old row is
// freed from the busy set before the new interval is validated, so moving a
// task within its own former slot is allowed.
func (s *RescheduleService) MoveSchedule(ctx context.Context, user *model.User, scheduleID uint, newStart, newEnd time.Time) (*model.TaskSchedule, error) {
	if !newEnd.After(newStart) {
		return nil, validationError("new end must be after new start")
	}

	old, err := s.scheduleRepo.FindByID(ctx, user.ID, scheduleID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFoundError("schedule not found", err)
		}
		return nil, internalError(CodeRegeneration, "load schedule", err)
	}

	superseded, err := s.scheduleRepo.HasSuccessor(ctx, old.ID)
	if err != nil {
		return nil, internalError(CodeRegeneration, "check schedule chain", err)
	}
	if superseded {
		return nil, conflictError("schedule has already been rescheduled")
	}

	task, err := s.taskRepo.FindByID(ctx, old.TaskID)
	if err != nil {
		return nil, internalError(CodeRegeneration, "load task", err)
	}
	minutes := int(newEnd.Sub(newStart).Minutes())
	if !task.CalendarEvent && (minutes < model.MinTaskDurationMinutes || minutes > model.MaxTaskDurationMinutes) {
		return nil, validationError("duration must be between 5 and 360 minutes")
	}

	// The slot may cross midnight, so the busy window runs through the end
	// of the day the slot finishes on.
	day := schedule.DayOf(newStart)
	busy, err := s.availability.BusyIntervals(ctx, user, day, schedule.DayOf(newEnd).AddDate(0, 0, 1), 0)
	if err != nil {
		return nil, err
	}
	// Free the slot being moved before checking for conflicts.
	busy = schedule.Subtract(busy, []schedule.Interval{{Start: old.StartAt, End: old.EndAt}})

	want := schedule.Interval{Start: newStart, End: newEnd}
	for _, b := range busy {
		if want.Overlaps(b) {
			return nil, conflictError("requested slot overlaps an existing commitment")
		}
	}

	moved := &model.TaskSchedule{
		TaskID:          old.TaskID,
		PlanID:          old.PlanID,
		UserID:          user.ID,
		Date:            day,
		StartAt:         newStart,
		EndAt:           newEnd,
		Origin:          model.OriginRescheduled,
		RescheduledFrom: &old.ID,
	}
	if err := s.scheduleRepo.Insert(ctx, moved); err != nil {
		return nil, internalError(CodeRegeneration, "insert moved schedule", err)
	}

	s.log.Info().Uint("schedule_id", old.ID).Uint("new_id", moved.ID).
		Time("start", newStart).Msg("schedule moved")
	return moved, nil
}

// History walks the provenance chain from the given row back to the original
// placement, newest first. A cycle or over-long chain is corruption.
func (s *RescheduleService) History(ctx context.Context, user *model.User, scheduleID uint) ([]model.TaskSchedule, error) {
	seen := make(map[uint]bool)
	var chain []model.TaskSchedule

	id := scheduleID
	for hops := 0; hops < maxChainHops; hops++ {
		if seen[id] {
			return nil, internalError(CodeRegeneration, "reschedule chain contains a cycle", nil)
		}
		seen[id] = true

		row, err := s.scheduleRepo.FindByID(ctx, user.ID, id)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) && len(chain) == 0 {
				return nil, notFoundError("schedule not found", err)
			}
			return nil, internalError(CodeRegeneration, "walk reschedule chain", err)
		}
		chain = append(chain, *row)

		if row.RescheduledFrom == nil {
			return chain, nil
		}
		id = *row.RescheduledFrom
	}
	return nil, internalError(CodeRegeneration, "reschedule chain exceeds hop limit", nil)
}

// RescheduleOverdue re-places every overdue, uncompleted placement from today
// forward, chaining each new row to the one it replaces.
func (s *RescheduleService) RescheduleOverdue(ctx context.Context, user *model.User, now time.Time) ([]model.TaskSchedule, []schedule.Unplaced, error) {
	overdue, err := s.scheduleRepo.ListOverdue(ctx, user.ID, now)
	if err != nil {
		return nil, nil, internalError(CodeRegeneration, "list overdue schedules", err)
	}
	if len(overdue) == 0 {
		return nil, nil, nil
	}

	settings, err := s.settingsRepo.GetByUser(ctx, user.ID)
	if err != nil {
		return nil, nil, internalError(CodeSettingsFetch, "load workday settings", err)
	}

	start := schedule.DayOf(now)
	end := start.AddDate(0, 0, defaultHorizonDays)
	busy, err := s.availability.BusyIntervals(ctx, user, start, end, 0)
	if err != nil {
		return nil, nil, err
	}
	// The elapsed part of today is spent; without it an overdue task lands in
	// a gap that has already passed and comes straight back on the next sweep.
	busy = schedule.Merge(append(busy, schedule.Interval{Start: start, End: now}))

	// One spec per overdue row, keyed by schedule id: a recurring task may
	// have several overdue instances and each moves independently.
	byScheduleID := make(map[uint]model.TaskSchedule, len(overdue))
	specs := make([]schedule.TaskSpec, 0, len(overdue))
	for _, row := range overdue {
		task, err := s.taskRepo.FindByID(ctx, row.TaskID)
		if err != nil {
			return nil, nil, internalError(CodeRegeneration, "load overdue task", err)
		}
		byScheduleID[row.ID] = row
		specs = append(specs, schedule.TaskSpec{
			ID:              row.ID,
			Idx:             task.Idx,
			Name:            task.Name,
			DurationMinutes: row.DurationMinutes(),
			Priority:        task.Priority,
		})
	}

	result := schedule.Place(schedule.Request{
		Start: start,
		Days:  defaultHorizonDays,
		Tasks: specs,
		Busy:  busy,
		WindowsFor: func(day time.Time) []schedule.Interval {
			return schedule.WindowsForDay(day, settings, nil)
		},
	})

	moved := make([]model.TaskSchedule, 0, len(result.Slots))
	for _, slot := range result.Slots {
		prev := byScheduleID[slot.TaskID]
		prevID := prev.ID
		row := model.TaskSchedule{
			TaskID:          prev.TaskID,
			PlanID:          prev.PlanID,
			UserID:          user.ID,
			Date:            slot.Date,
			StartAt:         slot.Start,
			EndAt:           slot.End,
			Origin:          model.OriginRescheduled,
			RescheduledFrom: &prevID,
		}
		if err := s.scheduleRepo.Insert(ctx, &row); err != nil {
			return moved, result.Unscheduled, internalError(CodeRegeneration, "insert rescheduled row", err)
		}
		moved = append(moved, row)
	}

	s.log.Info().Uint("user_id", user.ID).Int("moved", len(moved)).
		Int("unplaced", len(result.Unscheduled)).Msg("overdue sweep complete")
	return moved, result.Unscheduled, nil
}
