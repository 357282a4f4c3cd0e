package project

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

// Service handles project operations.
type Service struct {
	repo   Repository
	logger *slog.Logger
}

// NewService creates a new project service.
func NewService(repo Repository, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Service{repo: repo, logger: logger}
}

// CreateRequest defines project creation inputs.
type CreateRequest struct {
	ID          string
	Name        string `validate:"required,max=200"`
	Description string `validate:"max=2000"`
}

// Create creates a new project owned by userID.
func (s *Service) Create(ctx context.Context, userID string, req CreateRequest) (*Project, error) {
	req.Name = strings.TrimSpace(req.Name)
	req.Description = strings.TrimSpace(req.Description)
	if strings.TrimSpace(userID) == "" {
		return nil, fmt.Errorf("%w: owner is required", ErrInvalidInput)
	}
	if err := validate.Struct(req); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	id := req.ID
	if strings.TrimSpace(id) == "" {
		id = uuid.NewString()
	}

	proj := &Project{
		ID:     id,
		Name:   req.Name,
		UserID: userID,
	}
	if req.Description != "" {
		proj.Description = &req.Description
	}

	if err := s.repo.Create(ctx, proj); err != nil {
		return nil, fmt.Errorf("creating project: %w", err)
	}

	s.logger.Info("project created", "project_id", proj.ID, "user_id", userID)
	return proj, nil
}

// Get fetches a project by ID.
func (s *Service) Get(ctx context.Context, id string) (*Project, error) {
	proj, err := s.repo.Get(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrProjectNotFound
		}
		return nil, fmt.Errorf("getting project: %w", err)
	}
	return proj, nil
}

// List returns all projects, newest first.
func (s *Service) List(ctx context.Context) ([]Project, error) {
	projects, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing projects: %w", err)
	}
	return projects, nil
}

// RequireOwner fetches a project and checks that userID owns it.
func (s *Service) RequireOwner(ctx context.Context, id, userID string) (*Project, error) {
	proj, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if proj.UserID != userID {
		return nil, ErrNotOwner
	}
	return proj, nil
}

// Complete marks a project completed, optionally recording the final
// estimate in hours.
func (s *Service) Complete(ctx context.Context, id string, finalHours *float64) (*Project, error) {
	if finalHours != nil && *finalHours < 0 {
		return nil, fmt.Errorf("%w: final estimation must not be negative", ErrInvalidInput)
	}

	done := true
	proj, err := s.repo.Update(ctx, id, Patch{IsCompleted: &done, FinalEstimation: finalHours})
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrProjectNotFound
		}
		return nil, fmt.Errorf("completing project: %w", err)
	}
	return proj, nil
}

// Delete removes a project.
func (s *Service) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrProjectNotFound
		}
		return fmt.Errorf("deleting project: %w", err)
	}
	s.logger.Info("project deleted", "project_id", id)
	return nil
}
