package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"goalplanner/internal/model"
	"goalplanner/internal/schedule"
)

func TestBusyIntervalsMergesPlacementsAndCalendar(t *testing.T) {
	user := &model.User{ID: 3, ExternalRef: "u-3"}
	ft := newFakeTasks()
	schedules := newFakeSchedules(ft,
		model.TaskSchedule{ID: 1, TaskID: 10, PlanID: 7, UserID: 3,
			StartAt: planStart.Add(9 * time.Hour), EndAt: planStart.Add(10 * time.Hour)},
		model.TaskSchedule{ID: 2, TaskID: 11, PlanID: 7, UserID: 3,
			StartAt: planStart.Add(10 * time.Hour), EndAt: planStart.Add(11 * time.Hour)},
	)
	busySource := &fakeBusySource{intervals: []schedule.Interval{
		{Start: planStart.Add(14 * time.Hour), End: planStart.Add(15 * time.Hour)},
	}}

	svc := NewAvailabilityService(schedules, busySource, zerolog.Nop())
	got, err := svc.BusyIntervals(context.Background(), user, planStart, planStart.AddDate(0, 0, 1), 0)

	require.NoError(t, err)
	// The two adjacent placements coalesce into one span.
	require.Len(t, got, 2)
	assert.Equal(t, planStart.Add(9*time.Hour), got[0].Start)
	assert.Equal(t, planStart.Add(11*time.Hour), got[0].End)
	assert.Equal(t, planStart.Add(14*time.Hour), got[1].Start)
}

func TestBusyIntervalsExcludesPlanUnderRegeneration(t *testing.T) {
	user := &model.User{ID: 3, ExternalRef: "u-3"}
	ft := newFakeTasks()
	schedules := newFakeSchedules(ft,
		model.TaskSchedule{ID: 1, TaskID: 10, PlanID: 7, UserID: 3,
			StartAt: planStart.Add(9 * time.Hour), EndAt: planStart.Add(10 * time.Hour)},
		model.TaskSchedule{ID: 2, TaskID: 20, PlanID: 8, UserID: 3,
			StartAt: planStart.Add(11 * time.Hour), EndAt: planStart.Add(12 * time.Hour)},
	)

	svc := NewAvailabilityService(schedules, &fakeBusySource{}, zerolog.Nop())
	got, err := svc.BusyIntervals(context.Background(), user, planStart, planStart.AddDate(0, 0, 1), 7)

	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, planStart.Add(11*time.Hour), got[0].Start)
}

func TestBusyIntervalsIgnoresSupersededRows(t *testing.T) {
	user := &model.User{ID: 3, ExternalRef: "u-3"}
	old := uint(1)
	ft := newFakeTasks()
	schedules := newFakeSchedules(ft,
		model.TaskSchedule{ID: 1, TaskID: 10, PlanID: 7, UserID: 3,
			StartAt: planStart.Add(9 * time.Hour), EndAt: planStart.Add(10 * time.Hour)},
		model.TaskSchedule{ID: 2, TaskID: 10, PlanID: 7, UserID: 3, RescheduledFrom: &old,
			StartAt: planStart.Add(15 * time.Hour), EndAt: planStart.Add(16 * time.Hour)},
	)

	svc := NewAvailabilityService(schedules, &fakeBusySource{}, zerolog.Nop())
	got, err := svc.BusyIntervals(context.Background(), user, planStart, planStart.AddDate(0, 0, 1), 0)

	require.NoError(t, err)
	require.Len(t, got, 1, "only the live end of the chain blocks time")
	assert.Equal(t, planStart.Add(15*time.Hour), got[0].Start)
}

func TestBusyIntervalsToleratesCalendarFailure(t *testing.T) {
	user := &model.User{ID: 3, ExternalRef: "u-3"}
	ft := newFakeTasks()
	schedules := newFakeSchedules(ft,
		model.TaskSchedule{ID: 1, TaskID: 10, PlanID: 7, UserID: 3,
			StartAt: planStart.Add(9 * time.Hour), EndAt: planStart.Add(10 * time.Hour)},
	)
	busySource := &fakeBusySource{err: errors.New("calendar upstream 502")}

	svc := NewAvailabilityService(schedules, busySource, zerolog.Nop())
	got, err := svc.BusyIntervals(context.Background(), user, planStart, planStart.AddDate(0, 0, 1), 0)

	require.NoError(t, err, "a dead calendar link must not block planning")
	require.Len(t, got, 1)
	assert.Equal(t, planStart.Add(9*time.Hour), got[0].Start)
}
