package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"goalplanner/internal/service"
)

// Server is the thin JSON surface over the scheduling engine. Auth is an
// upstream concern: the caller's identity arrives as an already-verified
// external reference header.
type Server struct {
	account      *service.AccountService
	plans        *service.PlanService
	settings     *service.SettingsService
	regeneration *service.RegenerationService
	reschedule   *service.RescheduleService
	schedules    *service.ScheduleService
	log          zerolog.Logger
	httpServer   *http.Server
}

func NewServer(addr string, account *service.AccountService, plans *service.PlanService, settings *service.SettingsService, regeneration *service.RegenerationService, reschedule *service.RescheduleService, schedules *service.ScheduleService, log zerolog.Logger) *Server {
	s := &Server{
		account:      account,
		plans:        plans,
		settings:     settings,
		regeneration: regeneration,
		reschedule:   reschedule,
		schedules:    schedules,
		log:          log.With().Str("component", "http").Logger(),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /plans", s.handleCreatePlan)
	mux.HandleFunc("GET /plans", s.handleListPlans)
	mux.HandleFunc("POST /plans/{id}/regenerate", s.handleRegenerate)
	mux.HandleFunc("GET /plans/{id}/schedule", s.handlePlanSchedule)
	mux.HandleFunc("POST /schedules/{id}/move", s.handleMoveSchedule)
	mux.HandleFunc("GET /schedules/{id}/history", s.handleScheduleHistory)
	mux.HandleFunc("POST /schedules/reschedule-overdue", s.handleRescheduleOverdue)
	mux.HandleFunc("POST /tasks/{id}/complete", s.handleCompleteTask)
	mux.HandleFunc("GET /settings", s.handleGetSettings)
	mux.HandleFunc("PUT /settings", s.handleSaveSettings)
	mux.HandleFunc("GET /credits", s.handleCredits)
	mux.HandleFunc("GET /healthz", s.handleHealth)

	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           s.logged(mux),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// ListenAndServe blocks until the context is cancelled or the listener fails.
func (s *Server) ListenAndServe(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- s.httpServer.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = s.httpServer.Shutdown(shutdownCtx)
		return ctx.Err()
	case err := <-errCh:
		return err
	}
}

func (s *Server) logged(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		s.log.Debug().Str("method", r.Method).Str("path", r.URL.Path).
			Dur("took", time.Since(start)).Msg("request")
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type errorBody struct {
	Error   service.ErrorCode      `json:"error"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
}

// writeError maps service errors to their HTTP status class; anything
// untyped degrades to a generic 500 REGENERATION_FAILED-style body.
func (s *Server) writeError(w http.ResponseWriter, err error) {
	if se, ok := service.AsServiceError(err); ok {
		writeJSON(w, se.Status, errorBody{Error: se.Code, Message: se.Message, Details: se.Details})
		return
	}
	s.log.Error().Err(err).Msg("unhandled error")
	writeJSON(w, http.StatusInternalServerError, errorBody{
		Error:   service.CodeRegeneration,
		Message: "internal error",
	})
}

func decodeJSON(r *http.Request, dst interface{}) error {
	defer r.Body.Close()
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
