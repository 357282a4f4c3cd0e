package project

import "time"

// Project groups tasks owned by one user.
type Project struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description *string   `json:"description"`
	CreatedAt   time.Time `json:"created_at,omitzero"`
	UserID      string    `json:"user_id"`
	IsCompleted bool      `json:"is_completed"`
	// FinalEstimation is the agreed estimate in hours.
	FinalEstimation *float64 `json:"final_estimation"`
}

// Patch holds the mutable project fields. Nil fields are left unchanged.
type Patch struct {
	Name            *string  `json:"name,omitempty"`
	IsCompleted     *bool    `json:"is_completed,omitempty"`
	FinalEstimation *float64 `json:"final_estimation,omitempty"`
}
