package model

import "time"

// PlanLock is an advisory single-writer gate held for the duration of a
// regeneration saga. The unique index on PlanID makes acquisition a plain
// insert race; the token proves ownership on release.
type PlanLock struct {
	ID         uint `gorm:"primaryKey"`
	PlanID     uint `gorm:"uniqueIndex"`
	Token      string
	AcquiredAt time.Time
}
