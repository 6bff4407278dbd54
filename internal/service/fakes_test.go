package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"gorm.io/gorm"

	"goalplanner/internal/generator"
	"goalplanner/internal/model"
	"goalplanner/internal/repository"
	"goalplanner/internal/schedule"
)

// In-memory stores mirroring the repository semantics, with single-shot
// failure injection so every saga branch can be driven.

type fakePlans struct {
	plans     map[uint]*model.Plan
	nextID    uint
	updates   []map[string]interface{}
	updateErr error
}

func newFakePlans(plans ...*model.Plan) *fakePlans {
	m := make(map[uint]*model.Plan)
	var next uint = 1
	for _, p := range plans {
		m[p.ID] = p
		if p.ID >= next {
			next = p.ID + 1
		}
	}
	return &fakePlans{plans: m, nextID: next}
}

func (f *fakePlans) Create(ctx context.Context, plan *model.Plan) error {
	if plan.ID == 0 {
		plan.ID = f.nextID
		f.nextID++
	}
	cp := *plan
	f.plans[plan.ID] = &cp
	return nil
}

func (f *fakePlans) ListByUser(ctx context.Context, userID uint) ([]model.Plan, error) {
	var out []model.Plan
	for _, p := range f.plans {
		if p.UserID == userID {
			out = append(out, *p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakePlans) FindByID(ctx context.Context, userID, planID uint) (*model.Plan, error) {
	p, ok := f.plans[planID]
	if !ok || p.UserID != userID {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *p
	return &cp, nil
}

func (f *fakePlans) UpdateFields(ctx context.Context, planID uint, fields map[string]interface{}) error {
	if f.updateErr != nil {
		err := f.updateErr
		f.updateErr = nil
		return err
	}
	p, ok := f.plans[planID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	for key, val := range fields {
		switch key {
		case "goal_text":
			p.GoalText = val.(string)
		case "summary":
			p.Summary = val.(string)
		case "timeline_days":
			p.TimelineDays = val.(int)
		case "status":
			p.Status = val.(model.PlanStatus)
		case "end_date":
			switch v := val.(type) {
			case time.Time:
				p.EndDate = &v
			case *time.Time:
				p.EndDate = v
			}
		}
	}
	f.updates = append(f.updates, fields)
	return nil
}

type fakeTasks struct {
	tasks     map[uint]model.Task
	nextID    uint
	deleteErr error
	insertErr error
}

func newFakeTasks(tasks ...model.Task) *fakeTasks {
	f := &fakeTasks{tasks: make(map[uint]model.Task), nextID: 1}
	for _, t := range tasks {
		if t.ID >= f.nextID {
			f.nextID = t.ID + 1
		}
		f.tasks[t.ID] = t
	}
	return f
}

func (f *fakeTasks) ListByPlan(ctx context.Context, planID uint) ([]model.Task, error) {
	var out []model.Task
	for _, t := range f.tasks {
		if t.PlanID == planID {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Idx < out[j].Idx })
	return out, nil
}

func (f *fakeTasks) FindByID(ctx context.Context, taskID uint) (*model.Task, error) {
	t, ok := f.tasks[taskID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &t, nil
}

func (f *fakeTasks) InsertBatch(ctx context.Context, tasks []model.Task) error {
	if f.insertErr != nil {
		err := f.insertErr
		f.insertErr = nil
		return err
	}
	// Mirror the unique (plan_id, idx) index.
	taken := make(map[[2]uint]bool)
	for _, existing := range f.tasks {
		taken[[2]uint{existing.PlanID, uint(existing.Idx)}] = true
	}
	for i := range tasks {
		key := [2]uint{tasks[i].PlanID, uint(tasks[i].Idx)}
		if taken[key] {
			return fmt.Errorf("UNIQUE constraint failed: tasks.plan_id, tasks.idx")
		}
		taken[key] = true
	}
	for i := range tasks {
		if tasks[i].ID == 0 {
			tasks[i].ID = f.nextID
			f.nextID++
		}
		f.tasks[tasks[i].ID] = tasks[i]
	}
	return nil
}

func (f *fakeTasks) DeleteByPlan(ctx context.Context, planID uint) error {
	if f.deleteErr != nil {
		err := f.deleteErr
		f.deleteErr = nil
		return err
	}
	for id, t := range f.tasks {
		if t.PlanID == planID {
			delete(f.tasks, id)
		}
	}
	return nil
}

func (f *fakeTasks) MarkCompleted(ctx context.Context, taskID uint) error {
	t, ok := f.tasks[taskID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	t.Completed = true
	f.tasks[taskID] = t
	return nil
}

func (f *fakeTasks) names(planID uint) []string {
	list, _ := f.ListByPlan(context.Background(), planID)
	out := make([]string, 0, len(list))
	for _, t := range list {
		out = append(out, t.Name)
	}
	return out
}

type fakeSchedules struct {
	rows      map[uint]model.TaskSchedule
	nextID    uint
	tasks     *fakeTasks
	insertErr error
	deleteErr error
}

func newFakeSchedules(tasks *fakeTasks, rows ...model.TaskSchedule) *fakeSchedules {
	f := &fakeSchedules{rows: make(map[uint]model.TaskSchedule), nextID: 1, tasks: tasks}
	for _, row := range rows {
		if row.ID >= f.nextID {
			f.nextID = row.ID + 1
		}
		f.rows[row.ID] = row
	}
	return f
}

func (f *fakeSchedules) Insert(ctx context.Context, s *model.TaskSchedule) error {
	if f.insertErr != nil {
		err := f.insertErr
		f.insertErr = nil
		return err
	}
	if s.ID == 0 {
		s.ID = f.nextID
		f.nextID++
	}
	f.rows[s.ID] = *s
	return nil
}

func (f *fakeSchedules) InsertBatch(ctx context.Context, rows []model.TaskSchedule) error {
	for i := range rows {
		if err := f.Insert(ctx, &rows[i]); err != nil {
			return err
		}
	}
	return nil
}

func (f *fakeSchedules) FindByID(ctx context.Context, userID, scheduleID uint) (*model.TaskSchedule, error) {
	row, ok := f.rows[scheduleID]
	if !ok || row.UserID != userID {
		return nil, gorm.ErrRecordNotFound
	}
	return &row, nil
}

func (f *fakeSchedules) isCurrent(id uint) bool {
	for _, row := range f.rows {
		if row.RescheduledFrom != nil && *row.RescheduledFrom == id {
			return false
		}
	}
	return true
}

func (f *fakeSchedules) ListCurrentByUser(ctx context.Context, userID uint, from, to time.Time, excludePlanID uint) ([]model.TaskSchedule, error) {
	var out []model.TaskSchedule
	for id, row := range f.rows {
		if row.UserID != userID || !f.isCurrent(id) {
			continue
		}
		if excludePlanID != 0 && row.PlanID == excludePlanID {
			continue
		}
		if row.StartAt.Before(to) && row.EndAt.After(from) {
			out = append(out, row)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartAt.Before(out[j].StartAt) })
	return out, nil
}

func (f *fakeSchedules) ListByPlan(ctx context.Context, planID uint) ([]model.TaskSchedule, error) {
	var out []model.TaskSchedule
	for id, row := range f.rows {
		if row.PlanID == planID && f.isCurrent(id) {
			out = append(out, row)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartAt.Before(out[j].StartAt) })
	return out, nil
}

func (f *fakeSchedules) ListOverdue(ctx context.Context, userID uint, now time.Time) ([]model.TaskSchedule, error) {
	var out []model.TaskSchedule
	for id, row := range f.rows {
		if row.UserID != userID || !f.isCurrent(id) || !row.EndAt.Before(now) {
			continue
		}
		task, ok := f.tasks.tasks[row.TaskID]
		if !ok || task.Completed {
			continue
		}
		out = append(out, row)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartAt.Before(out[j].StartAt) })
	return out, nil
}

func (f *fakeSchedules) HasSuccessor(ctx context.Context, scheduleID uint) (bool, error) {
	return !f.isCurrent(scheduleID), nil
}

func (f *fakeSchedules) DeleteByPlan(ctx context.Context, planID uint) error {
	if f.deleteErr != nil {
		err := f.deleteErr
		f.deleteErr = nil
		return err
	}
	for id, row := range f.rows {
		if row.PlanID == planID {
			delete(f.rows, id)
		}
	}
	return nil
}

type fakeSettings struct {
	settings model.WorkdaySettings
	err      error
}

func (f *fakeSettings) GetByUser(ctx context.Context, userID uint) (model.WorkdaySettings, error) {
	if f.err != nil {
		return model.WorkdaySettings{}, f.err
	}
	return f.settings, nil
}

func (f *fakeSettings) Save(ctx context.Context, settings *model.WorkdaySettings) error {
	if f.err != nil {
		return f.err
	}
	if settings.ID == 0 {
		settings.ID = 1
	}
	f.settings = *settings
	return nil
}

type fakeLedger struct {
	remaining    int
	reserved     int
	grants       int
	commits      int
	releases     int
	reserveCalls int
}

func (f *fakeLedger) Grant(ctx context.Context, userID uint, n int) error {
	f.remaining += n
	f.grants++
	return nil
}

func (f *fakeLedger) Remaining(ctx context.Context, userID uint) (int, error) {
	return f.remaining, nil
}

func (f *fakeLedger) Reserve(ctx context.Context, userID uint) (int, error) {
	f.reserveCalls++
	if f.remaining <= 0 {
		return f.remaining, repository.ErrQuotaExhausted
	}
	f.remaining--
	f.reserved++
	return f.remaining, nil
}

func (f *fakeLedger) Commit(ctx context.Context, userID uint) error {
	if f.reserved <= 0 {
		return fmt.Errorf("no reservation held")
	}
	f.reserved--
	f.commits++
	return nil
}

func (f *fakeLedger) Release(ctx context.Context, userID uint) error {
	if f.reserved <= 0 {
		return fmt.Errorf("no reservation held")
	}
	f.reserved--
	f.remaining++
	f.releases++
	return nil
}

type fakeLocker struct {
	held     bool
	acquired int
	released int
}

func (f *fakeLocker) Acquire(ctx context.Context, planID uint, now time.Time) (string, error) {
	if f.held {
		return "", repository.ErrLockHeld
	}
	f.held = true
	f.acquired++
	return "token", nil
}

func (f *fakeLocker) Release(ctx context.Context, planID uint, token string) error {
	f.held = false
	f.released++
	return nil
}

type fakeIdentity struct {
	users  map[string]*model.User
	nextID uint
}

func (f *fakeIdentity) UpsertByExternalRef(ctx context.Context, externalRef, displayName string) (*model.User, bool, error) {
	if f.users == nil {
		f.users = make(map[string]*model.User)
	}
	if u, ok := f.users[externalRef]; ok {
		u.DisplayName = displayName
		return u, false, nil
	}
	f.nextID++
	u := &model.User{ID: f.nextID, ExternalRef: externalRef, DisplayName: displayName}
	f.users[externalRef] = u
	return u, true, nil
}

type fakeGenerator struct {
	result *generator.GeneratedPlan
	err    error
	calls  int
}

func (f *fakeGenerator) Generate(ctx context.Context, goal string) (*generator.GeneratedPlan, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.result, nil
}

type fakeBusySource struct {
	intervals []schedule.Interval
	err       error
}

func (f *fakeBusySource) BusyIntervals(ctx context.Context, externalRef string, from, to time.Time) ([]schedule.Interval, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.intervals, nil
}
