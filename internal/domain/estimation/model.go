package estimation

import (
	"time"

	"github.com/ganot/estimate-poker/internal/domain/task"
)

// Estimation is one user's estimate for a task, in days.
type Estimation struct {
	ID         string    `json:"id"`
	TaskID     string    `json:"task_id"`
	UserID     string    `json:"user_id"`
	Estimation float64   `json:"estimation"`
	CreatedAt  time.Time `json:"created_at,omitzero"`
	// IsCustom marks free-form values that are not on the preset deck.
	IsCustom bool `json:"is_custom"`
}

// Display renders the estimate the way it was entered.
func (e Estimation) Display() string {
	return FormatValue(e.Estimation)
}

// Board is a viewer's picture of a task's estimation round.
type Board struct {
	Task    *task.WithProject `json:"task"`
	IsOwner bool              `json:"is_owner"`
	// Selected is the viewer's own estimate, formatted, or "".
	Selected string `json:"selected,omitempty"`
	// Visible reports whether individual estimations are revealed.
	Visible     bool         `json:"visible"`
	Estimations []Estimation `json:"estimations"`
	Summary     Summary      `json:"summary"`
}
