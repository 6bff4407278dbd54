package model

import "time"

// User stores account metadata for the owner of plans and schedules.
type User struct {
	ID          uint   `gorm:"primaryKey"`
	ExternalRef string `gorm:"uniqueIndex"`
	DisplayName string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
