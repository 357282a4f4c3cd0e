package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/ganot/estimate-poker/internal/domain/estimation"
	"github.com/ganot/estimate-poker/internal/domain/project"
	"github.com/ganot/estimate-poker/internal/domain/task"
)

// ProjectRepository is a mock for repository.ProjectRepository.
type ProjectRepository struct {
	mock.Mock
}

func (m *ProjectRepository) Create(ctx context.Context, proj *project.Project) error {
	args := m.Called(ctx, proj)
	return args.Error(0)
}

func (m *ProjectRepository) Get(ctx context.Context, id string) (*project.Project, error) {
	args := m.Called(ctx, id)
	if proj, ok := args.Get(0).(*project.Project); ok {
		return proj, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *ProjectRepository) List(ctx context.Context) ([]project.Project, error) {
	args := m.Called(ctx)
	if list, ok := args.Get(0).([]project.Project); ok {
		return list, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *ProjectRepository) Update(ctx context.Context, id string, patch project.Patch) (*project.Project, error) {
	args := m.Called(ctx, id, patch)
	if proj, ok := args.Get(0).(*project.Project); ok {
		return proj, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *ProjectRepository) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// TaskRepository is a mock for repository.TaskRepository.
type TaskRepository struct {
	mock.Mock
}

func (m *TaskRepository) Create(ctx context.Context, t *task.Task) error {
	args := m.Called(ctx, t)
	return args.Error(0)
}

func (m *TaskRepository) Get(ctx context.Context, id string) (*task.WithProject, error) {
	args := m.Called(ctx, id)
	if t, ok := args.Get(0).(*task.WithProject); ok {
		return t, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *TaskRepository) GetByShareToken(ctx context.Context, token string) (*task.WithProject, error) {
	args := m.Called(ctx, token)
	if t, ok := args.Get(0).(*task.WithProject); ok {
		return t, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *TaskRepository) ListByProject(ctx context.Context, projectID string) ([]task.Task, error) {
	args := m.Called(ctx, projectID)
	if list, ok := args.Get(0).([]task.Task); ok {
		return list, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *TaskRepository) Update(ctx context.Context, id string, patch task.Patch) (*task.Task, error) {
	args := m.Called(ctx, id, patch)
	if t, ok := args.Get(0).(*task.Task); ok {
		return t, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *TaskRepository) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// EstimationRepository is a mock for repository.EstimationRepository.
type EstimationRepository struct {
	mock.Mock
}

func (m *EstimationRepository) Upsert(ctx context.Context, e *estimation.Estimation) (*estimation.Estimation, error) {
	args := m.Called(ctx, e)
	if got, ok := args.Get(0).(*estimation.Estimation); ok {
		return got, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *EstimationRepository) ListForTask(ctx context.Context, taskID string) ([]estimation.Estimation, error) {
	args := m.Called(ctx, taskID)
	if list, ok := args.Get(0).([]estimation.Estimation); ok {
		return list, args.Error(1)
	}
	return nil, args.Error(1)
}
