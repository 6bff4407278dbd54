package model

import "time"

// Duration and priority bounds enforced on every task row that is not a
// calendar-event passthrough.
const (
	MinTaskDurationMinutes = 5
	MaxTaskDurationMinutes = 360
	MinTaskPriority        = 1
	MaxTaskPriority        = 4
)

// Task represents a single schedulable item inside a plan.
//
// Idx is the content generator's ordering within the plan (unique per plan,
// starting at 1). The placement engine consumes tasks as given and never
// reorders priorities.
type Task struct {
	ID              uint `gorm:"primaryKey"`
	PlanID          uint `gorm:"index;index:idx_plan_task_idx,unique"`
	Idx             int  `gorm:"index:idx_plan_task_idx,unique"`
	Name            string
	Detail          string
	DurationMinutes int
	Priority        int
	Recurring       bool `gorm:"default:false"`
	Indefinite      bool `gorm:"default:false"`
	CalendarEvent   bool `gorm:"default:false"`
	Completed       bool `gorm:"default:false"`
	CreatedAt       time.Time
	UpdatedAt       time.Time
}
