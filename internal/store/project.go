package store

import (
	"context"

	"github.com/ganot/estimate-poker/internal/domain/project"
	"github.com/ganot/estimate-poker/internal/localdb"
)

// ProjectRepository implements project.Repository.
type ProjectRepository struct {
	db *localdb.DB
}

var _ project.Repository = (*ProjectRepository)(nil)

// NewProjectRepository creates a new ProjectRepository
func NewProjectRepository(db *localdb.DB) *ProjectRepository {
	return &ProjectRepository{db: db}
}

// Create inserts proj and copies back the assigned id and created_at.
func (r *ProjectRepository) Create(ctx context.Context, proj *project.Project) error {
	resp := r.db.From(localdb.TableProjects).Insert(proj).Select("*").Single().Execute(ctx)
	return one(resp, proj, "failed to create project")
}

// Get retrieves a project by ID
func (r *ProjectRepository) Get(ctx context.Context, id string) (*project.Project, error) {
	var proj project.Project
	resp := r.db.From(localdb.TableProjects).Select("*").Eq("id", id).Single().Execute(ctx)
	if err := one(resp, &proj, "failed to get project"); err != nil {
		return nil, err
	}
	return &proj, nil
}

// List returns all projects, newest first
func (r *ProjectRepository) List(ctx context.Context) ([]project.Project, error) {
	projects := []project.Project{}
	resp := r.db.From(localdb.TableProjects).Select("*").Order("created_at", false).Execute(ctx)
	if err := many(resp, &projects, "failed to list projects"); err != nil {
		return nil, err
	}
	return projects, nil
}

// Update applies patch to a project
func (r *ProjectRepository) Update(ctx context.Context, id string, patch project.Patch) (*project.Project, error) {
	var proj project.Project
	resp := r.db.From(localdb.TableProjects).Update(patch).Eq("id", id).Execute(ctx)
	if err := one(resp, &proj, "failed to update project"); err != nil {
		return nil, err
	}
	return &proj, nil
}

// Delete removes a project
func (r *ProjectRepository) Delete(ctx context.Context, id string) error {
	var removed project.Project
	resp := r.db.From(localdb.TableProjects).Delete().Eq("id", id).Execute(ctx)
	return one(resp, &removed, "failed to delete project")
}
