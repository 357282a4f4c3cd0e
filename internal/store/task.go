package store

import (
	"context"

	"github.com/ganot/estimate-poker/internal/domain/task"
	"github.com/ganot/estimate-poker/internal/localdb"
)

const withProject = "*, " + localdb.TableProjects + "!inner(*)"

// TaskRepository implements task.Repository.
type TaskRepository struct {
	db *localdb.DB
}

var _ task.Repository = (*TaskRepository)(nil)

// NewTaskRepository creates a new TaskRepository
func NewTaskRepository(db *localdb.DB) *TaskRepository {
	return &TaskRepository{db: db}
}

// Create inserts t and copies back the assigned fields.
func (r *TaskRepository) Create(ctx context.Context, t *task.Task) error {
	resp := r.db.From(localdb.TableTasks).Insert(t).Select("*").Single().Execute(ctx)
	return one(resp, t, "failed to create task")
}

// Get retrieves a task joined with its project
func (r *TaskRepository) Get(ctx context.Context, id string) (*task.WithProject, error) {
	return r.getBy(ctx, "id", id)
}

// GetByShareToken retrieves the task behind a share link
func (r *TaskRepository) GetByShareToken(ctx context.Context, token string) (*task.WithProject, error) {
	return r.getBy(ctx, "estimation_url", token)
}

func (r *TaskRepository) getBy(ctx context.Context, field, value string) (*task.WithProject, error) {
	var t task.WithProject
	resp := r.db.From(localdb.TableTasks).Select(withProject).Eq(field, value).Single().Execute(ctx)
	if err := one(resp, &t, "failed to get task"); err != nil {
		return nil, err
	}
	return &t, nil
}

// ListByProject returns a project's tasks, newest first
func (r *TaskRepository) ListByProject(ctx context.Context, projectID string) ([]task.Task, error) {
	tasks := []task.Task{}
	resp := r.db.From(localdb.TableTasks).Select("*").Eq("project_id", projectID).Order("created_at", false).Execute(ctx)
	if err := many(resp, &tasks, "failed to list tasks"); err != nil {
		return nil, err
	}
	return tasks, nil
}

// Update applies patch to a task
func (r *TaskRepository) Update(ctx context.Context, id string, patch task.Patch) (*task.Task, error) {
	var t task.Task
	resp := r.db.From(localdb.TableTasks).Update(patch).Eq("id", id).Execute(ctx)
	if err := one(resp, &t, "failed to update task"); err != nil {
		return nil, err
	}
	return &t, nil
}

// Delete removes a task
func (r *TaskRepository) Delete(ctx context.Context, id string) error {
	var removed task.Task
	resp := r.db.From(localdb.TableTasks).Delete().Eq("id", id).Execute(ctx)
	return one(resp, &removed, "failed to delete task")
}
