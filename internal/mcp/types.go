package mcp

import (
	"github.com/ganot/estimate-poker/internal/domain/estimation"
	"github.com/ganot/estimate-poker/internal/domain/project"
	"github.com/ganot/estimate-poker/internal/domain/task"
	"github.com/ganot/estimate-poker/internal/localdb"
)

type CredentialsParams struct {
	Email    string `json:"email" jsonschema:"email address to sign in as"`
	Password string `json:"password,omitempty" jsonschema:"password; accepted as given"`
}

type NoParams struct{}

type CreateProjectParams struct {
	ID          string `json:"id,omitempty" jsonschema:"project id; generated when omitted"`
	Name        string `json:"name" jsonschema:"project display name"`
	Description string `json:"description,omitempty" jsonschema:"project description"`
}

type ProjectIDParams struct {
	ID string `json:"id" jsonschema:"project id"`
}

type CompleteParams struct {
	ID              string   `json:"id" jsonschema:"project or task id"`
	FinalEstimation *float64 `json:"final_estimation,omitempty" jsonschema:"final estimate; hours for projects, days for tasks"`
}

type CreateTaskParams struct {
	ProjectID   string `json:"project_id" jsonschema:"parent project id"`
	Name        string `json:"name" jsonschema:"task name"`
	Description string `json:"description,omitempty" jsonschema:"task description"`
}

type ListTasksParams struct {
	ProjectID string `json:"project_id" jsonschema:"project id"`
}

type TaskIDParams struct {
	ID string `json:"id" jsonschema:"task id"`
}

type SharedTaskParams struct {
	Token string `json:"token" jsonschema:"share token from the task's estimation link"`
}

type TaskVisibilityParams struct {
	ID   string `json:"id" jsonschema:"task id"`
	Show *bool  `json:"show,omitempty" jsonschema:"reveal estimations to everyone; toggles when omitted"`
}

type SubmitEstimationParams struct {
	TaskID string `json:"task_id" jsonschema:"task id"`
	Value  string `json:"value" jsonschema:"estimate such as 4h or 1.5d"`
}

type EstimationBoardParams struct {
	TaskID string `json:"task_id,omitempty" jsonschema:"task id"`
	Token  string `json:"token,omitempty" jsonschema:"share token; used when task_id is omitted"`
}

type SessionResponse struct {
	SignedIn bool          `json:"signed_in"`
	User     *localdb.User `json:"user,omitempty"`
}

type ProjectListResponse struct {
	Projects []project.Project `json:"projects"`
}

type TaskListResponse struct {
	Tasks []task.Task `json:"tasks"`
}

type DeletedResponse struct {
	ID      string `json:"id"`
	Deleted bool   `json:"deleted"`
}

type EstimationResponse struct {
	Estimation *estimation.Estimation `json:"estimation"`
	Display    string                 `json:"display"`
}

func sessionResponse(s *localdb.Session) SessionResponse {
	if s == nil {
		return SessionResponse{}
	}
	user := s.User
	return SessionResponse{SignedIn: true, User: &user}
}
