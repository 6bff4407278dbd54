package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"goalplanner/internal/model"
	"goalplanner/internal/schedule"
)

// maxPlanTimelineDays bounds user-supplied timelines.
const maxPlanTimelineDays = 365

// TaskInput is one task as submitted by the caller at plan intake.
type TaskInput struct {
	Name            string `json:"name"`
	Detail          string `json:"detail"`
	DurationMinutes int    `json:"duration_minutes"`
	Priority        int    `json:"priority"`
	Recurring       bool   `json:"recurring"`
	Indefinite      bool   `json:"indefinite"`
}

// CreatePlanInput is the full intake payload.
type CreatePlanInput struct {
	GoalText     string      `json:"goal_text"`
	Summary      string      `json:"summary"`
	TimelineDays int         `json:"timeline_days"`
	Tasks        []TaskInput `json:"tasks"`
}

// PlanCreation reports a finished intake. ScheduleGenerationSuccess is false
// when the plan and tasks were stored but placement failed; the plan is still
// usable and can be scheduled later.
type PlanCreation struct {
	Plan                      *model.Plan
	Tasks                     []model.Task
	ScheduleGenerationSuccess bool
	Unscheduled               []schedule.Unplaced
}

// PlanService handles plan intake and the task lifecycle outside regeneration.
type PlanService struct {
	planRepo  PlanStore
	taskRepo  TaskStore
	scheduler *ScheduleService
	log       zerolog.Logger
}

func NewPlanService(planRepo PlanStore, taskRepo TaskStore, scheduler *ScheduleService, log zerolog.Logger) *PlanService {
	return &PlanService{
		planRepo:  planRepo,
		taskRepo:  taskRepo,
		scheduler: scheduler,
		log:       log.With().Str("component", "plan").Logger(),
	}
}

// CreatePlan stores a new plan with its tasks and attempts an initial
// placement. Unlike regeneration, intake mutates nothing until the whole
// payload has validated, so there is no compensation to run.
func (s *PlanService) CreatePlan(ctx context.Context, user *model.User, input CreatePlanInput, now time.Time) (*PlanCreation, error) {
	goal := strings.TrimSpace(input.GoalText)
	if goal == "" {
		return nil, validationError("goal text must not be empty")
	}
	if len(input.Tasks) == 0 {
		return nil, validationError("plan needs at least one task")
	}

	timeline := input.TimelineDays
	if timeline == 0 {
		timeline = defaultHorizonDays
	}
	if timeline < 1 || timeline > maxPlanTimelineDays {
		return nil, validationError(fmt.Sprintf("timeline must be between 1 and %d days", maxPlanTimelineDays))
	}

	tasks := make([]model.Task, 0, len(input.Tasks))
	for i, in := range input.Tasks {
		name := strings.TrimSpace(in.Name)
		if name == "" {
			return nil, validationError(fmt.Sprintf("task %d: name must not be empty", i+1))
		}
		duration := in.DurationMinutes
		if duration < model.MinTaskDurationMinutes || duration > model.MaxTaskDurationMinutes {
			return nil, validationError(fmt.Sprintf("task %d: duration must be between %d and %d minutes",
				i+1, model.MinTaskDurationMinutes, model.MaxTaskDurationMinutes))
		}
		priority := in.Priority
		if priority == 0 {
			priority = 2
		}
		if priority < model.MinTaskPriority || priority > model.MaxTaskPriority {
			return nil, validationError(fmt.Sprintf("task %d: priority must be between %d and %d",
				i+1, model.MinTaskPriority, model.MaxTaskPriority))
		}
		tasks = append(tasks, model.Task{
			Idx:             i + 1,
			Name:            name,
			Detail:          strings.TrimSpace(in.Detail),
			DurationMinutes: duration,
			Priority:        priority,
			Recurring:       in.Recurring,
			Indefinite:      in.Indefinite,
		})
	}

	start := schedule.DayOf(now)
	end := start.AddDate(0, 0, timeline-1)
	plan := &model.Plan{
		UserID:       user.ID,
		GoalText:     goal,
		Summary:      strings.TrimSpace(input.Summary),
		StartDate:    start,
		EndDate:      &end,
		Status:       model.PlanStatusActive,
		TimelineDays: timeline,
	}
	if err := s.planRepo.Create(ctx, plan); err != nil {
		return nil, internalError(CodeRegeneration, "create plan", err)
	}

	for i := range tasks {
		tasks[i].PlanID = plan.ID
	}
	if err := s.taskRepo.InsertBatch(ctx, tasks); err != nil {
		return nil, internalError(CodeTaskInsertion, "insert plan tasks", err)
	}

	result := &PlanCreation{Plan: plan, Tasks: tasks, ScheduleGenerationSuccess: true}
	if _, unplaced, err := s.scheduler.GenerateForPlan(ctx, user, plan, tasks); err != nil {
		s.log.Warn().Err(err).Uint("plan_id", plan.ID).Msg("initial placement failed, plan stored unscheduled")
		result.ScheduleGenerationSuccess = false
	} else {
		result.Unscheduled = unplaced
	}

	s.log.Info().Uint("user_id", user.ID).Uint("plan_id", plan.ID).
		Int("tasks", len(tasks)).Msg("plan created")
	return result, nil
}

// ListPlans returns the user's plans, newest first per store ordering.
func (s *PlanService) ListPlans(ctx context.Context, user *model.User) ([]model.Plan, error) {
	plans, err := s.planRepo.ListByUser(ctx, user.ID)
	if err != nil {
		return nil, internalError(CodeRegeneration, "list plans", err)
	}
	return plans, nil
}

// CompleteTask marks the task done after checking the caller owns its plan.
// Completed tasks drop out of placement and of the overdue sweep.
func (s *PlanService) CompleteTask(ctx context.Context, user *model.User, taskID uint) error {
	task, err := s.taskRepo.FindByID(ctx, taskID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return notFoundError("task not found", err)
		}
		return internalError(CodeRegeneration, "load task", err)
	}
	if _, err := s.planRepo.FindByID(ctx, user.ID, task.PlanID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return notFoundError("task not found", err)
		}
		return internalError(CodeRegeneration, "check task ownership", err)
	}
	if err := s.taskRepo.MarkCompleted(ctx, taskID); err != nil {
		return internalError(CodeRegeneration, "mark task completed", err)
	}
	return nil
}
