package calendar

import (
	"context"
	"time"

	"goalplanner/internal/schedule"
)

// BusySource yields a user's external calendar commitments for a date range.
// Provider syncing (OAuth, Google/Outlook plumbing) lives behind this
// interface; the engine only consumes the resulting intervals.
type BusySource interface {
	BusyIntervals(ctx context.Context, externalRef string, from, to time.Time) ([]schedule.Interval, error)
}

// Empty is a BusySource for users with no linked calendar.
type Empty struct{}

func (Empty) BusyIntervals(ctx context.Context, externalRef string, from, to time.Time) ([]schedule.Interval, error) {
	return nil, nil
}
