package mcp

import (
	"errors"
	"fmt"

	"github.com/ganot/estimate-poker/internal/domain/estimation"
	"github.com/ganot/estimate-poker/internal/domain/project"
	"github.com/ganot/estimate-poker/internal/domain/task"
	"github.com/ganot/estimate-poker/internal/localdb"
	"github.com/ganot/estimate-poker/internal/repository"
)

// APIError represents an MCP error response.
type APIError struct {
	Code         string `json:"code"`
	Message      string `json:"message"`
	RecoveryHint string `json:"recovery_hint,omitempty"`
	err          error
}

func (e *APIError) Error() string {
	if e.RecoveryHint != "" {
		return fmt.Sprintf("%s: %s (%s)", e.Code, e.Message, e.RecoveryHint)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *APIError) Unwrap() error {
	return e.err
}

// MapError maps domain errors to MCP error codes. Unknown errors map to nil.
func MapError(err error) *APIError {
	if err == nil {
		return nil
	}
	apiErr := func(code, message, hint string) *APIError {
		return &APIError{Code: code, Message: message, RecoveryHint: hint, err: err}
	}
	switch {
	case errors.Is(err, localdb.ErrNotSignedIn):
		return apiErr("NOT_SIGNED_IN", "no user is signed in", "Call sign_in first")
	case errors.Is(err, project.ErrProjectNotFound):
		return apiErr("PROJECT_NOT_FOUND", "project not found", "Check the id with list_projects")
	case errors.Is(err, task.ErrTaskNotFound):
		return apiErr("TASK_NOT_FOUND", "task not found", "Check the id with list_tasks")
	case errors.Is(err, project.ErrNotOwner), errors.Is(err, task.ErrNotOwner):
		return apiErr("NOT_OWNER", "only the project owner can do this", "")
	case errors.Is(err, estimation.ErrInvalidFormat):
		return apiErr("INVALID_ESTIMATION", err.Error(), "Use a value such as 4h or 1.5d")
	case errors.Is(err, estimation.ErrInvalidValue):
		return apiErr("INVALID_ESTIMATION", err.Error(), "Use a non-negative number before the d or h suffix")
	case errors.Is(err, project.ErrInvalidInput),
		errors.Is(err, task.ErrInvalidInput),
		errors.Is(err, estimation.ErrInvalidInput),
		errors.Is(err, repository.ErrInvalidInput):
		return apiErr("INVALID_INPUT", err.Error(), "")
	default:
		return nil
	}
}

// toolError maps err for a tool result, keeping unmapped errors as they are.
func toolError(err error) error {
	if apiErr := MapError(err); apiErr != nil {
		return apiErr
	}
	return err
}
