package estimation

import (
	"context"

	"github.com/ganot/estimate-poker/internal/domain/task"
)

// Repository provides persistence for estimations.
type Repository interface {
	// Upsert stores e, replacing any estimation by the same user for the
	// same task.
	Upsert(ctx context.Context, e *Estimation) (*Estimation, error)
	ListForTask(ctx context.Context, taskID string) ([]Estimation, error)
}

// TaskRepository resolves the task an estimation round belongs to.
type TaskRepository interface {
	Get(ctx context.Context, id string) (*task.WithProject, error)
}
