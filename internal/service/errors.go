package service

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorCode identifies the failure kind reported to the calling layer.
type ErrorCode string

const (
	CodeValidation         ErrorCode = "VALIDATION_ERROR"
	CodeNotFound           ErrorCode = "NOT_FOUND"
	CodeConflict           ErrorCode = "CONFLICT"
	CodeUsageLimitExceeded ErrorCode = "USAGE_LIMIT_EXCEEDED"
	CodeSettingsFetch      ErrorCode = "SETTINGS_FETCH_FAILED"
	CodePlanUpdate         ErrorCode = "PLAN_UPDATE_FAILED"
	CodeTaskDeletion       ErrorCode = "TASK_DELETION_FAILED"
	CodeTaskInsertion      ErrorCode = "TASK_INSERTION_FAILED"
	CodeScheduleGeneration ErrorCode = "SCHEDULE_GENERATION_FAILED"
	CodeRegeneration       ErrorCode = "REGENERATION_FAILED"
)

// ServiceError is the structured error surfaced to callers. Structural
// failures are compensated locally before one of these is returned; a
// ServiceError never describes a half-applied state.
type ServiceError struct {
	Code    ErrorCode
	Message string
	Status  int
	Details map[string]interface{}
	cause   error
}

func (e *ServiceError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *ServiceError) Unwrap() error {
	return e.cause
}

// AsServiceError extracts a ServiceError from an error chain.
func AsServiceError(err error) (*ServiceError, bool) {
	var se *ServiceError
	if errors.As(err, &se) {
		return se, true
	}
	return nil, false
}

func newError(code ErrorCode, status int, message string, cause error) *ServiceError {
	return &ServiceError{Code: code, Message: message, Status: status, cause: cause}
}

func validationError(message string) *ServiceError {
	return newError(CodeValidation, http.StatusBadRequest, message, nil)
}

func notFoundError(message string, cause error) *ServiceError {
	return newError(CodeNotFound, http.StatusNotFound, message, cause)
}

func conflictError(message string) *ServiceError {
	return newError(CodeConflict, http.StatusConflict, message, nil)
}

func usageLimitError(remaining int) *ServiceError {
	e := newError(CodeUsageLimitExceeded, http.StatusTooManyRequests, "regeneration quota exhausted", nil)
	e.Details = map[string]interface{}{"remaining": remaining}
	return e
}

func internalError(code ErrorCode, message string, cause error) *ServiceError {
	return newError(code, http.StatusInternalServerError, message, cause)
}
