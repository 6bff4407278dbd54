package model

import "time"

// WorkdaySettings stores a user's raw scheduling preferences.
//
// Hours are 0-23 wall-clock hours; lunch bounds are minutes from midnight so
// half-hour lunches round-trip without a separate minutes column.
type WorkdaySettings struct {
	ID               uint `gorm:"primaryKey"`
	UserID           uint `gorm:"uniqueIndex"`
	StartHour        int  `gorm:"default:9"`
	EndHour          int  `gorm:"default:17"`
	LunchStartMinute int  `gorm:"default:720"`
	LunchEndMinute   int  `gorm:"default:780"`
	AllowWeekends    bool `gorm:"default:false"`
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// DefaultWorkdaySettings is used when a user has never saved preferences.
func DefaultWorkdaySettings(userID uint) WorkdaySettings {
	return WorkdaySettings{
		UserID:           userID,
		StartHour:        9,
		EndHour:          17,
		LunchStartMinute: 12 * 60,
		LunchEndMinute:   13 * 60,
		AllowWeekends:    false,
	}
}
