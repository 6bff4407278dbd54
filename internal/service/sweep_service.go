package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

// SweepService runs the periodic overdue-reschedule sweep over all users.
type SweepService struct {
	cron       *cron.Cron
	userRepo   UserStore
	reschedule *RescheduleService
	log        zerolog.Logger
}

func NewSweepService(loc *time.Location, userRepo UserStore, reschedule *RescheduleService, log zerolog.Logger) *SweepService {
	return &SweepService{
		cron:       cron.New(cron.WithLocation(loc), cron.WithSeconds()),
		userRepo:   userRepo,
		reschedule: reschedule,
		log:        log.With().Str("component", "sweep").Logger(),
	}
}

// ScheduleDaily registers the sweep at the given HH:MM time string.
func (s *SweepService) ScheduleDaily(timeStr string) (cron.EntryID, error) {
	spec, err := buildDailySpec(timeStr)
	if err != nil {
		return 0, err
	}
	return s.cron.AddFunc(spec, s.runOnce)
}

// ScheduleInterval registers the sweep every given duration.
func (s *SweepService) ScheduleInterval(interval time.Duration) (cron.EntryID, error) {
	if interval <= 0 {
		return 0, fmt.Errorf("interval must be positive")
	}
	seconds := int(interval.Seconds())
	if seconds <= 0 {
		seconds = 1
	}
	return s.cron.AddFunc(fmt.Sprintf("@every %ds", seconds), s.runOnce)
}

func (s *SweepService) Start() {
	s.cron.Start()
}

func (s *SweepService) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
}

func (s *SweepService) runOnce() {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	users, err := s.userRepo.ListAll(ctx)
	if err != nil {
		s.log.Error().Err(err).Msg("list users for sweep")
		return
	}

	now := time.Now()
	for i := range users {
		moved, unplaced, err := s.reschedule.RescheduleOverdue(ctx, &users[i], now)
		if err != nil {
			s.log.Error().Err(err).Uint("user_id", users[i].ID).Msg("overdue sweep failed")
			continue
		}
		if len(moved) > 0 || len(unplaced) > 0 {
			s.log.Info().Uint("user_id", users[i].ID).
				Int("moved", len(moved)).Int("unplaced", len(unplaced)).
				Msg("overdue sweep")
		}
	}
}

func buildDailySpec(timeStr string) (string, error) {
	parts := strings.Split(timeStr, ":")
	if len(parts) != 2 {
		return "", fmt.Errorf("invalid time %q, expected HH:MM", timeStr)
	}
	hour, err := strconv.Atoi(parts[0])
	if err != nil || hour < 0 || hour > 23 {
		return "", fmt.Errorf("invalid hour in %q", timeStr)
	}
	minute, err := strconv.Atoi(parts[1])
	if err != nil || minute < 0 || minute > 59 {
		return "", fmt.Errorf("invalid minute in %q", timeStr)
	}
	// cron format: second minute hour dom month dow
	return fmt.Sprintf("0 %d %d * * *", minute, hour), nil
}
