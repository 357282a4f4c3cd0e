package store

import (
	"context"

	"github.com/ganot/estimate-poker/internal/domain/estimation"
	"github.com/ganot/estimate-poker/internal/localdb"
)

// EstimationRepository implements estimation.Repository.
type EstimationRepository struct {
	db *localdb.DB
}

var _ estimation.Repository = (*EstimationRepository)(nil)

// NewEstimationRepository creates a new EstimationRepository
func NewEstimationRepository(db *localdb.DB) *EstimationRepository {
	return &EstimationRepository{db: db}
}

// Upsert stores e keyed on (task_id, user_id).
func (r *EstimationRepository) Upsert(ctx context.Context, e *estimation.Estimation) (*estimation.Estimation, error) {
	var stored estimation.Estimation
	resp := r.db.From(localdb.TableEstimations).
		Upsert(e).
		OnConflict("task_id", "user_id").
		Single().
		Execute(ctx)
	if err := one(resp, &stored, "failed to upsert estimation"); err != nil {
		return nil, err
	}
	return &stored, nil
}

// ListForTask returns a task's estimations, oldest first
func (r *EstimationRepository) ListForTask(ctx context.Context, taskID string) ([]estimation.Estimation, error) {
	list := []estimation.Estimation{}
	resp := r.db.From(localdb.TableEstimations).Select("*").Eq("task_id", taskID).Order("created_at", true).Execute(ctx)
	if err := many(resp, &list, "failed to list estimations"); err != nil {
		return nil, err
	}
	return list, nil
}
