package task

import "context"

// Repository provides persistence for tasks.
type Repository interface {
	// Create stores t and fills in its server-assigned fields.
	Create(ctx context.Context, t *Task) error
	// Get returns the task joined with its project.
	Get(ctx context.Context, id string) (*WithProject, error)
	// GetByShareToken returns the task whose estimation_url equals token.
	GetByShareToken(ctx context.Context, token string) (*WithProject, error)
	// ListByProject returns the project's tasks, newest first.
	ListByProject(ctx context.Context, projectID string) ([]Task, error)
	Update(ctx context.Context, id string, patch Patch) (*Task, error)
	Delete(ctx context.Context, id string) error
}
