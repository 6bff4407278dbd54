package httpapi

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"goalplanner/internal/model"
	"goalplanner/internal/schedule"
	"goalplanner/internal/service"
)

func (s *Server) currentUser(w http.ResponseWriter, r *http.Request) (*model.User, bool) {
	ref := strings.TrimSpace(r.Header.Get("X-User-Ref"))
	if ref == "" {
		writeJSON(w, http.StatusBadRequest, errorBody{
			Error:   service.CodeValidation,
			Message: "missing X-User-Ref header",
		})
		return nil, false
	}
	name := strings.TrimSpace(r.Header.Get("X-User-Name"))
	user, err := s.account.Identify(r.Context(), ref, name)
	if err != nil {
		s.writeError(w, err)
		return nil, false
	}
	return user, true
}

func pathID(w http.ResponseWriter, r *http.Request) (uint, bool) {
	id, err := strconv.ParseUint(r.PathValue("id"), 10, 32)
	if err != nil || id == 0 {
		writeJSON(w, http.StatusBadRequest, errorBody{
			Error:   service.CodeValidation,
			Message: "invalid id in path",
		})
		return 0, false
	}
	return uint(id), true
}

func (s *Server) handleCreatePlan(w http.ResponseWriter, r *http.Request) {
	user, ok := s.currentUser(w, r)
	if !ok {
		return
	}

	var input service.CreatePlanInput
	if err := decodeJSON(r, &input); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{
			Error:   service.CodeValidation,
			Message: "malformed request body",
		})
		return
	}

	created, err := s.plans.CreatePlan(r.Context(), user, input, time.Now())
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"success":                   true,
		"plan":                      created.Plan,
		"tasks":                     created.Tasks,
		"scheduleGenerationSuccess": created.ScheduleGenerationSuccess,
		"unscheduled":               created.Unscheduled,
	})
}

func (s *Server) handleListPlans(w http.ResponseWriter, r *http.Request) {
	user, ok := s.currentUser(w, r)
	if !ok {
		return
	}

	plans, err := s.plans.ListPlans(r.Context(), user)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"success": true, "plans": plans})
}

func (s *Server) handleCompleteTask(w http.ResponseWriter, r *http.Request) {
	user, ok := s.currentUser(w, r)
	if !ok {
		return
	}
	taskID, ok := pathID(w, r)
	if !ok {
		return
	}

	if err := s.plans.CompleteTask(r.Context(), user, taskID); err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"success": true})
}

func (s *Server) handleGetSettings(w http.ResponseWriter, r *http.Request) {
	user, ok := s.currentUser(w, r)
	if !ok {
		return
	}

	settings, err := s.settings.Get(r.Context(), user)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"success": true, "settings": settings})
}

type settingsRequest struct {
	StartHour        int  `json:"start_hour"`
	EndHour          int  `json:"end_hour"`
	LunchStartMinute int  `json:"lunch_start_minute"`
	LunchEndMinute   int  `json:"lunch_end_minute"`
	AllowWeekends    bool `json:"allow_weekends"`
}

func (s *Server) handleSaveSettings(w http.ResponseWriter, r *http.Request) {
	user, ok := s.currentUser(w, r)
	if !ok {
		return
	}

	var req settingsRequest
	if err := decodeJSON(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{
			Error:   service.CodeValidation,
			Message: "malformed request body",
		})
		return
	}

	saved, err := s.settings.Save(r.Context(), user, model.WorkdaySettings{
		StartHour:        req.StartHour,
		EndHour:          req.EndHour,
		LunchStartMinute: req.LunchStartMinute,
		LunchEndMinute:   req.LunchEndMinute,
		AllowWeekends:    req.AllowWeekends,
	})
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"success": true, "settings": saved})
}

func (s *Server) handleCredits(w http.ResponseWriter, r *http.Request) {
	user, ok := s.currentUser(w, r)
	if !ok {
		return
	}

	remaining, err := s.account.Credits(r.Context(), user)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"success": true, "remaining": remaining})
}

type regenerateResponse struct {
	Success                   bool                `json:"success"`
	Plan                      *model.Plan         `json:"plan"`
	Tasks                     []model.Task        `json:"tasks"`
	ScheduleGenerationSuccess bool                `json:"scheduleGenerationSuccess"`
	Unscheduled               []schedule.Unplaced `json:"unscheduled,omitempty"`
}

func (s *Server) handleRegenerate(w http.ResponseWriter, r *http.Request) {
	user, ok := s.currentUser(w, r)
	if !ok {
		return
	}
	planID, ok := pathID(w, r)
	if !ok {
		return
	}

	result, err := s.regeneration.Regenerate(r.Context(), user, planID)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, regenerateResponse{
		Success:                   true,
		Plan:                      result.Plan,
		Tasks:                     result.Tasks,
		ScheduleGenerationSuccess: result.ScheduleGenerationSuccess,
		Unscheduled:               result.Unscheduled,
	})
}

func (s *Server) handlePlanSchedule(w http.ResponseWriter, r *http.Request) {
	user, ok := s.currentUser(w, r)
	if !ok {
		return
	}
	planID, ok := pathID(w, r)
	if !ok {
		return
	}

	rows, err := s.schedules.ListPlanSchedule(r.Context(), user, planID)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"success": true, "schedules": rows})
}

type moveRequest struct {
	NewStart time.Time `json:"new_start"`
	NewEnd   time.Time `json:"new_end"`
}

func (s *Server) handleMoveSchedule(w http.ResponseWriter, r *http.Request) {
	user, ok := s.currentUser(w, r)
	if !ok {
		return
	}
	scheduleID, ok := pathID(w, r)
	if !ok {
		return
	}

	var req moveRequest
	if err := decodeJSON(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{
			Error:   service.CodeValidation,
			Message: "malformed request body",
		})
		return
	}

	moved, err := s.reschedule.MoveSchedule(r.Context(), user, scheduleID, req.NewStart, req.NewEnd)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"success": true, "schedule": moved})
}

func (s *Server) handleScheduleHistory(w http.ResponseWriter, r *http.Request) {
	user, ok := s.currentUser(w, r)
	if !ok {
		return
	}
	scheduleID, ok := pathID(w, r)
	if !ok {
		return
	}

	chain, err := s.reschedule.History(r.Context(), user, scheduleID)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"success": true, "history": chain})
}

func (s *Server) handleRescheduleOverdue(w http.ResponseWriter, r *http.Request) {
	user, ok := s.currentUser(w, r)
	if !ok {
		return
	}

	moved, unplaced, err := s.reschedule.RescheduleOverdue(r.Context(), user, time.Now())
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success":     true,
		"moved":       moved,
		"unscheduled": unplaced,
	})
}
