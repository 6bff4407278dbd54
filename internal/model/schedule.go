package model

import "time"

// ScheduleOrigin tags how a TaskSchedule row came to exist.
type ScheduleOrigin string

const (
	OriginOriginal    ScheduleOrigin = "original"
	OriginRescheduled ScheduleOrigin = "rescheduled"
)

// TaskSchedule is one concrete placement of a task on the calendar.
//
// Rows are immutable once created. Moving a placement inserts a new row whose
// RescheduledFrom points at the superseded one, so the full provenance chain
// is preserved; walking RescheduledFrom backward always reaches the original.
type TaskSchedule struct {
	ID              uint `gorm:"primaryKey"`
	TaskID          uint `gorm:"index"`
	PlanID          uint `gorm:"index"`
	UserID          uint `gorm:"index"`
	Date            time.Time
	StartAt         time.Time `gorm:"index"`
	EndAt           time.Time
	Origin          ScheduleOrigin `gorm:"default:original"`
	RescheduledFrom *uint
	CreatedAt       time.Time
}

// DurationMinutes is the placed length of the slot.
func (s TaskSchedule) DurationMinutes() int {
	return int(s.EndAt.Sub(s.StartAt).Minutes())
}
