package model

import "time"

// PlanStatus tracks the plan lifecycle.
type PlanStatus string

const (
	PlanStatusActive       PlanStatus = "active"
	PlanStatusRegenerating PlanStatus = "regenerating"
	PlanStatusArchived     PlanStatus = "archived"
)

// Plan is a user goal broken down into a day-by-day task calendar.
type Plan struct {
	ID           uint `gorm:"primaryKey"`
	UserID       uint `gorm:"index"`
	GoalText     string
	Summary      string
	TimelineDays int
	StartDate    time.Time
	EndDate      *time.Time
	Status       PlanStatus `gorm:"default:active"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
	Tasks        []Task `gorm:"foreignKey:PlanID"`
}
