package model

import "time"

// CreditLedger meters expensive regeneration calls per user.
//
// Remaining/Reserved move only through the repository's reserve, commit and
// release verbs, each a single conditional UPDATE, so the quota check stays
// correct across concurrent service instances.
type CreditLedger struct {
	ID        uint `gorm:"primaryKey"`
	UserID    uint `gorm:"uniqueIndex"`
	Remaining int
	Reserved  int `gorm:"default:0"`
	CreatedAt time.Time
	UpdatedAt time.Time
}
