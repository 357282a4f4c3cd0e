package task

import (
	"time"

	"github.com/ganot/estimate-poker/internal/domain/project"
)

// Task is a unit of work estimated by the team.
type Task struct {
	ID              string    `json:"id"`
	ProjectID       string    `json:"project_id"`
	Name            string    `json:"name"`
	Description     *string   `json:"description"`
	CreatedAt       time.Time `json:"created_at,omitzero"`
	IsCompleted     bool      `json:"is_completed"`
	FinalEstimation *float64  `json:"final_estimation"`
	// ShowEstimations reveals individual estimations to non-owners.
	ShowEstimations bool `json:"show_estimations"`
	// EstimationURL is the share token of the public estimation link.
	EstimationURL string `json:"estimation_url"`
}

// WithProject is a task joined with its parent project.
type WithProject struct {
	Task
	Project *project.Project `json:"projects"`
}

// OwnedBy reports whether userID owns the task's project.
func (t *WithProject) OwnedBy(userID string) bool {
	return t.Project != nil && userID != "" && t.Project.UserID == userID
}

// Patch holds the mutable task fields. Nil fields are left unchanged.
type Patch struct {
	Name            *string  `json:"name,omitempty"`
	IsCompleted     *bool    `json:"is_completed,omitempty"`
	FinalEstimation *float64 `json:"final_estimation,omitempty"`
	ShowEstimations *bool    `json:"show_estimations,omitempty"`
}
