package task

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/ganot/estimate-poker/internal/repository"
)

var validate = validator.New()

// Service handles task operations.
type Service struct {
	repo   Repository
	logger *slog.Logger
}

// NewService creates a new task service.
func NewService(repo Repository, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Service{repo: repo, logger: logger}
}

// CreateRequest defines task creation inputs.
type CreateRequest struct {
	ProjectID   string `validate:"required"`
	Name        string `validate:"required,max=200"`
	Description string `validate:"max=2000"`
}

// Create creates a task with a fresh share token.
func (s *Service) Create(ctx context.Context, req CreateRequest) (*Task, error) {
	req.ProjectID = strings.TrimSpace(req.ProjectID)
	req.Name = strings.TrimSpace(req.Name)
	req.Description = strings.TrimSpace(req.Description)
	if err := validate.Struct(req); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	t := &Task{
		ID:            uuid.NewString(),
		ProjectID:     req.ProjectID,
		Name:          req.Name,
		EstimationURL: uuid.NewString(),
	}
	if req.Description != "" {
		t.Description = &req.Description
	}

	if err := s.repo.Create(ctx, t); err != nil {
		return nil, fmt.Errorf("creating task: %w", err)
	}

	s.logger.Info("task created", "task_id", t.ID, "project_id", t.ProjectID)
	return t, nil
}

func (s *Service) mapErr(err error, action string) error {
	if errors.Is(err, repository.ErrNotFound) {
		return ErrTaskNotFound
	}
	return fmt.Errorf("%s: %w", action, err)
}

// Get fetches a task joined with its project.
func (s *Service) Get(ctx context.Context, id string) (*WithProject, error) {
	t, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, s.mapErr(err, "getting task")
	}
	return t, nil
}

// GetByShareToken fetches the task behind a shared estimation link.
func (s *Service) GetByShareToken(ctx context.Context, token string) (*WithProject, error) {
	if strings.TrimSpace(token) == "" {
		return nil, fmt.Errorf("%w: share token is required", ErrInvalidInput)
	}
	t, err := s.repo.GetByShareToken(ctx, token)
	if err != nil {
		return nil, s.mapErr(err, "getting shared task")
	}
	return t, nil
}

// ListByProject returns a project's tasks, newest first.
func (s *Service) ListByProject(ctx context.Context, projectID string) ([]Task, error) {
	if strings.TrimSpace(projectID) == "" {
		return nil, fmt.Errorf("%w: project id is required", ErrInvalidInput)
	}
	tasks, err := s.repo.ListByProject(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("listing tasks: %w", err)
	}
	return tasks, nil
}

// RequireOwner fetches a task and checks that userID owns its project.
func (s *Service) RequireOwner(ctx context.Context, id, userID string) (*WithProject, error) {
	t, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !t.OwnedBy(userID) {
		return nil, ErrNotOwner
	}
	return t, nil
}

// SetShowEstimations sets whether non-owners see individual estimations.
func (s *Service) SetShowEstimations(ctx context.Context, id string, show bool) (*Task, error) {
	t, err := s.repo.Update(ctx, id, Patch{ShowEstimations: &show})
	if err != nil {
		return nil, s.mapErr(err, "updating task visibility")
	}
	s.logger.Debug("task visibility changed", "task_id", id, "show_estimations", show)
	return t, nil
}

// ToggleShowEstimations flips the visibility flag.
func (s *Service) ToggleShowEstimations(ctx context.Context, id string) (*Task, error) {
	current, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.SetShowEstimations(ctx, id, !current.ShowEstimations)
}

// Complete marks a task completed, optionally recording its final estimate.
func (s *Service) Complete(ctx context.Context, id string, final *float64) (*Task, error) {
	if final != nil && *final < 0 {
		return nil, fmt.Errorf("%w: final estimation must not be negative", ErrInvalidInput)
	}
	done := true
	t, err := s.repo.Update(ctx, id, Patch{IsCompleted: &done, FinalEstimation: final})
	if err != nil {
		return nil, s.mapErr(err, "completing task")
	}
	return t, nil
}

// Delete removes a task.
func (s *Service) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return s.mapErr(err, "deleting task")
	}
	s.logger.Info("task deleted", "task_id", id)
	return nil
}
