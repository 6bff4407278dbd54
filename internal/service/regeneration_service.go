package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"goalplanner/internal/generator"
	"goalplanner/internal/model"
	"goalplanner/internal/repository"
	"goalplanner/internal/schedule"
)

// RegenerationResult is the happy-path answer for a regeneration request.
// ScheduleGenerationSuccess is false when the plan and tasks committed fine
// but placement failed; an unscheduled plan is still a usable plan.
type RegenerationResult struct {
	Plan                      *model.Plan
	Tasks                     []model.Task
	ScheduleGenerationSuccess bool
	Unscheduled               []schedule.Unplaced
}

// planSnapshot captures everything the saga may need to put back.
type planSnapshot struct {
	fields map[string]interface{}
	tasks  []model.Task
}

// RegenerationService rebuilds a plan's task set from fresh generator output.
//
// The backing store offers no transaction spanning these steps, so the whole
// operation runs as a saga: snapshot first, then mutate in a fixed order,
// compensating back to the snapshot on structural failure. The expensive
// generator call sits behind a credit reservation that is always settled
// (committed or released) before the saga returns, even when the caller's
// context has been abandoned.
type RegenerationService struct {
	planRepo     PlanStore
	taskRepo     TaskStore
	scheduleRepo ScheduleStore
	creditRepo   CreditLedger
	lockRepo     PlanLocker
	generator    generator.ContentGenerator
	scheduler    *ScheduleService
	log          zerolog.Logger
}

func NewRegenerationService(
	planRepo PlanStore,
	taskRepo TaskStore,
	scheduleRepo ScheduleStore,
	creditRepo CreditLedger,
	lockRepo PlanLocker,
	gen generator.ContentGenerator,
	scheduler *ScheduleService,
	log zerolog.Logger,
) *RegenerationService {
	return &RegenerationService{
		planRepo:     planRepo,
		taskRepo:     taskRepo,
		scheduleRepo: scheduleRepo,
		creditRepo:   creditRepo,
		lockRepo:     lockRepo,
		generator:    gen,
		scheduler:    scheduler,
		log:          log.With().Str("component", "regeneration").Logger(),
	}
}

// Regenerate replaces the plan's tasks and schedule with fresh generator
// output. Step order and failure handling:
//
//	lock plan      -> CONFLICT if another saga holds it
//	snapshot       -> no mutation yet
//	reserve credit -> USAGE_LIMIT_EXCEEDED, no side effects
//	generate       -> release credit
//	update plan    -> release credit, PLAN_UPDATE_FAILED
//	delete tasks   -> restore snapshot, release, TASK_DELETION_FAILED
//	insert tasks   -> restore snapshot, release, TASK_INSERTION_FAILED
//	drop schedules -> logged, non-fatal
//	place tasks    -> soft failure, flag only
//	commit credit
func (s *RegenerationService) Regenerate(ctx context.Context, user *model.User, planID uint) (*RegenerationResult, error) {
	if planID == 0 {
		return nil, validationError("plan id is required")
	}

	sagaID := uuid.NewString()
	log := s.log.With().Str("saga_id", sagaID).Uint("plan_id", planID).Logger()

	plan, err := s.planRepo.FindByID(ctx, user.ID, planID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFoundError("plan not found", err)
		}
		return nil, internalError(CodeRegeneration, "load plan", err)
	}

	token, err := s.lockRepo.Acquire(ctx, plan.ID, time.Now())
	if err != nil {
		if errors.Is(err, repository.ErrLockHeld) {
			return nil, conflictError("another regeneration is already running for this plan")
		}
		return nil, internalError(CodeRegeneration, "acquire plan lock", err)
	}
	// Cleanup must survive caller abandonment mid-saga.
	cleanupCtx := context.WithoutCancel(ctx)
	defer func() {
		if err := s.lockRepo.Release(cleanupCtx, plan.ID, token); err != nil {
			log.Error().Err(err).Msg("release plan lock failed")
		}
	}()

	snapshot, err := s.snapshot(ctx, plan)
	if err != nil {
		return nil, internalError(CodeRegeneration, "snapshot plan", err)
	}

	remaining, err := s.creditRepo.Reserve(ctx, user.ID)
	if err != nil {
		if errors.Is(err, repository.ErrQuotaExhausted) {
			return nil, usageLimitError(remaining)
		}
		return nil, internalError(CodeRegeneration, "reserve credit", err)
	}
	settled := false
	defer func() {
		if settled {
			return
		}
		// Reached only on panic or an unhandled exit path; the reservation
		// must not leak either way.
		if err := s.creditRepo.Release(cleanupCtx, user.ID); err != nil {
			log.Error().Err(err).Msg("credit release failed during cleanup")
		}
	}()
	release := func() {
		settled = true
		if err := s.creditRepo.Release(cleanupCtx, user.ID); err != nil {
			log.Error().Err(err).Msg("credit release failed")
		}
	}

	generated, err := s.generator.Generate(ctx, plan.GoalText)
	if err != nil {
		release()
		return nil, internalError(CodeRegeneration, "content generation failed", err)
	}

	newTasks, err := buildTasks(plan.ID, generated)
	if err != nil {
		release()
		return nil, err
	}

	if err := s.updatePlanMeta(ctx, plan, generated); err != nil {
		release()
		return nil, internalError(CodePlanUpdate, "update plan metadata", err)
	}

	if err := s.taskRepo.DeleteByPlan(ctx, plan.ID); err != nil {
		s.restore(cleanupCtx, plan.ID, snapshot, log)
		release()
		return nil, internalError(CodeTaskDeletion, "delete old tasks", err)
	}

	if err := s.taskRepo.InsertBatch(ctx, newTasks); err != nil {
		s.restore(cleanupCtx, plan.ID, snapshot, log)
		release()
		return nil, internalError(CodeTaskInsertion, "insert new tasks", err)
	}

	if err := s.scheduleRepo.DeleteByPlan(ctx, plan.ID); err != nil {
		// Schedules are regenerated below regardless; stale rows are a
		// cleanup concern, not a rollback trigger.
		log.Warn().Err(err).Msg("old schedule cleanup failed")
	}

	result := &RegenerationResult{Plan: plan, Tasks: newTasks, ScheduleGenerationSuccess: true}
	if _, unplaced, err := s.scheduler.GenerateForPlan(ctx, user, plan, newTasks); err != nil {
		log.Warn().Err(err).Msg("schedule generation failed, plan and tasks kept")
		result.ScheduleGenerationSuccess = false
	} else {
		result.Unscheduled = unplaced
	}

	settled = true
	if err := s.creditRepo.Commit(cleanupCtx, user.ID); err != nil {
		log.Error().Err(err).Msg("credit commit failed")
	}

	log.Info().Int("tasks", len(newTasks)).Bool("scheduled", result.ScheduleGenerationSuccess).
		Msg("plan regenerated")
	return result, nil
}

func (s *RegenerationService) snapshot(ctx context.Context, plan *model.Plan) (*planSnapshot, error) {
	tasks, err := s.taskRepo.ListByPlan(ctx, plan.ID)
	if err != nil {
		return nil, err
	}
	return &planSnapshot{
		fields: map[string]interface{}{
			"goal_text":     plan.GoalText,
			"summary":       plan.Summary,
			"timeline_days": plan.TimelineDays,
			"end_date":      plan.EndDate,
			"status":        plan.Status,
		},
		tasks: tasks,
	}, nil
}

func (s *RegenerationService) updatePlanMeta(ctx context.Context, plan *model.Plan, generated *generator.GeneratedPlan) error {
	endDate := schedule.DayOf(plan.StartDate).AddDate(0, 0, generated.TimelineDays-1)
	fields := map[string]interface{}{
		"summary":       generated.PlanSummary,
		"timeline_days": generated.TimelineDays,
		"end_date":      endDate,
		"status":        model.PlanStatusActive,
	}
	if title := strings.TrimSpace(generated.GoalTitle); title != "" {
		fields["goal_text"] = title
	}
	if err := s.planRepo.UpdateFields(ctx, plan.ID, fields); err != nil {
		return err
	}
	plan.Summary = generated.PlanSummary
	plan.TimelineDays = generated.TimelineDays
	plan.EndDate = &endDate
	plan.Status = model.PlanStatusActive
	return nil
}

// restore puts the snapshot back after a structural failure. Reinsertion is
// best effort: a partial restore is still better than leaving the half-done
// mutation in place, and every miss is logged.
func (s *RegenerationService) restore(ctx context.Context, planID uint, snap *planSnapshot, log zerolog.Logger) {
	if err := s.planRepo.UpdateFields(ctx, planID, snap.fields); err != nil {
		log.Error().Err(err).Msg("restore plan fields failed")
	}
	if err := s.taskRepo.DeleteByPlan(ctx, planID); err != nil {
		log.Error().Err(err).Msg("clear partial tasks before restore failed")
	}
	tasks := make([]model.Task, len(snap.tasks))
	copy(tasks, snap.tasks)
	for i := range tasks {
		tasks[i].ID = 0
	}
	if err := s.taskRepo.InsertBatch(ctx, tasks); err != nil {
		log.Error().Err(err).Msg("restore task set failed")
	}
}

// buildTasks validates and sanitizes generator output into task rows: trimmed
// non-empty names, durations clamped to [5,360], priorities clamped to 1..4,
// Idx assigned from 1 in generator order.
func buildTasks(planID uint, generated *generator.GeneratedPlan) ([]model.Task, error) {
	tasks := make([]model.Task, 0, len(generated.Tasks))
	idx := 1
	for _, g := range generated.Tasks {
		name := strings.TrimSpace(g.Name)
		if name == "" {
			continue
		}
		tasks = append(tasks, model.Task{
			PlanID:          planID,
			Idx:             idx,
			Name:            name,
			Detail:          strings.TrimSpace(g.Details),
			DurationMinutes: clamp(g.DurationMinutes, model.MinTaskDurationMinutes, model.MaxTaskDurationMinutes),
			Priority:        clamp(g.Priority, model.MinTaskPriority, model.MaxTaskPriority),
			Recurring:       g.Recurring,
			Indefinite:      g.Indefinite,
		})
		idx++
	}
	if len(tasks) == 0 {
		return nil, internalError(CodeTaskInsertion, "generator produced no usable tasks", nil)
	}
	return tasks, nil
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
