package service

import (
	"context"
	"time"

	"goalplanner/internal/model"
)

// Consumer-side views of the repository layer. The gorm repositories satisfy
// these; tests substitute in-memory fakes with failure injection.

type PlanStore interface {
	Create(ctx context.Context, plan *model.Plan) error
	FindByID(ctx context.Context, userID, planID uint) (*model.Plan, error)
	ListByUser(ctx context.Context, userID uint) ([]model.Plan, error)
	UpdateFields(ctx context.Context, planID uint, fields map[string]interface{}) error
}

type TaskStore interface {
	ListByPlan(ctx context.Context, planID uint) ([]model.Task, error)
	FindByID(ctx context.Context, taskID uint) (*model.Task, error)
	InsertBatch(ctx context.Context, tasks []model.Task) error
	DeleteByPlan(ctx context.Context, planID uint) error
	MarkCompleted(ctx context.Context, taskID uint) error
}

type ScheduleStore interface {
	Insert(ctx context.Context, s *model.TaskSchedule) error
	InsertBatch(ctx context.Context, rows []model.TaskSchedule) error
	FindByID(ctx context.Context, userID, scheduleID uint) (*model.TaskSchedule, error)
	ListCurrentByUser(ctx context.Context, userID uint, from, to time.Time, excludePlanID uint) ([]model.TaskSchedule, error)
	ListByPlan(ctx context.Context, planID uint) ([]model.TaskSchedule, error)
	ListOverdue(ctx context.Context, userID uint, now time.Time) ([]model.TaskSchedule, error)
	HasSuccessor(ctx context.Context, scheduleID uint) (bool, error)
	DeleteByPlan(ctx context.Context, planID uint) error
}

type SettingsStore interface {
	GetByUser(ctx context.Context, userID uint) (model.WorkdaySettings, error)
	Save(ctx context.Context, settings *model.WorkdaySettings) error
}

type UserStore interface {
	ListAll(ctx context.Context) ([]model.User, error)
}

// IdentityStore resolves the upstream identity header to a local user row.
type IdentityStore interface {
	UpsertByExternalRef(ctx context.Context, externalRef, displayName string) (*model.User, bool, error)
}

// CreditAccount is the account-facing half of the ledger; the saga only ever
// sees the CreditLedger verbs.
type CreditAccount interface {
	Grant(ctx context.Context, userID uint, n int) error
	Remaining(ctx context.Context, userID uint) (int, error)
}

// CreditLedger is the admission-control surface around the metered generator
// call. Reserve reports the post-reservation balance, or the current balance
// alongside repository.ErrQuotaExhausted.
type CreditLedger interface {
	Reserve(ctx context.Context, userID uint) (int, error)
	Commit(ctx context.Context, userID uint) error
	Release(ctx context.Context, userID uint) error
}

// PlanLocker is the per-plan single-writer gate held for a whole saga.
type PlanLocker interface {
	Acquire(ctx context.Context, planID uint, now time.Time) (string, error)
	Release(ctx context.Context, planID uint, token string) error
}
