package project

import "context"

// Repository provides persistence for projects.
type Repository interface {
	// Create stores proj and fills in its server-assigned fields.
	Create(ctx context.Context, proj *Project) error
	Get(ctx context.Context, id string) (*Project, error)
	// List returns every project, newest first.
	List(ctx context.Context) ([]Project, error)
	Update(ctx context.Context, id string, patch Patch) (*Project, error)
	Delete(ctx context.Context, id string) error
}
