package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/ganot/estimate-poker/internal/domain/estimation"
	"github.com/ganot/estimate-poker/internal/domain/project"
	"github.com/ganot/estimate-poker/internal/domain/task"
	"github.com/ganot/estimate-poker/internal/repository"
)

// addTool registers a tool whose result is rendered as JSON. Calls are timed
// and their errors mapped to stable codes.
func addTool[In any](server *sdkmcp.Server, cfg Config, tool *sdkmcp.Tool, handler func(context.Context, In) (any, error)) {
	sdkmcp.AddTool(server, tool, func(ctx context.Context, _ *sdkmcp.CallToolRequest, in In) (*sdkmcp.CallToolResult, any, error) {
		start := time.Now()
		out, err := handler(ctx, in)
		cfg.Metrics.ObserveTool(tool.Name, time.Since(start), err)
		if err != nil {
			cfg.Logger.Debug("tool failed", "tool", tool.Name, "error", err)
			return nil, nil, toolError(err)
		}
		res, err := jsonResult(out)
		return res, nil, err
	})
}

func jsonResult(out any) (*sdkmcp.CallToolResult, error) {
	data, err := json.Marshal(out)
	if err != nil {
		return nil, fmt.Errorf("encoding result: %w", err)
	}
	return &sdkmcp.CallToolResult{
		Content:           []sdkmcp.Content{&sdkmcp.TextContent{Text: string(data)}},
		StructuredContent: json.RawMessage(data),
	}, nil
}

func registerTools(server *sdkmcp.Server, cfg Config) {
	registerSessionTools(server, cfg)
	registerProjectTools(server, cfg)
	registerTaskTools(server, cfg)
	registerEstimationTools(server, cfg)
}

func registerSessionTools(server *sdkmcp.Server, cfg Config) {
	auth := cfg.Services.Auth

	signIn := func(signUp bool) func(context.Context, CredentialsParams) (any, error) {
		return func(ctx context.Context, in CredentialsParams) (any, error) {
			email := strings.TrimSpace(in.Email)
			if email == "" {
				return nil, fmt.Errorf("%w: email is required", repository.ErrInvalidInput)
			}
			call := auth.SignIn
			if signUp {
				call = auth.SignUp
			}
			session, err := call(ctx, email, in.Password)
			if err != nil {
				return nil, err
			}
			return sessionResponse(session), nil
		}
	}

	addTool(server, cfg, &sdkmcp.Tool{
		Name:        "sign_in",
		Description: "Sign in with an email address. Any password is accepted.",
	}, signIn(false))

	addTool(server, cfg, &sdkmcp.Tool{
		Name:        "sign_up",
		Description: "Register an email address and sign in",
	}, signIn(true))

	addTool(server, cfg, &sdkmcp.Tool{
		Name:        "sign_out",
		Description: "Sign out the current user",
	}, func(ctx context.Context, _ NoParams) (any, error) {
		if err := auth.SignOut(ctx); err != nil {
			return nil, err
		}
		return SessionResponse{}, nil
	})

	addTool(server, cfg, &sdkmcp.Tool{
		Name:        "get_session",
		Description: "Report whether a user is signed in, and who",
	}, func(ctx context.Context, _ NoParams) (any, error) {
		session, err := auth.GetSession(ctx)
		if err != nil {
			return nil, err
		}
		return sessionResponse(session), nil
	})
}

func registerProjectTools(server *sdkmcp.Server, cfg Config) {
	projects := cfg.Services.Projects

	addTool(server, cfg, &sdkmcp.Tool{
		Name:        "create_project",
		Description: "Create a project owned by the signed-in user",
	}, func(ctx context.Context, in CreateProjectParams) (any, error) {
		userID, err := requireUserID(ctx)
		if err != nil {
			return nil, err
		}
		return projects.Create(ctx, userID, project.CreateRequest{
			ID:          in.ID,
			Name:        in.Name,
			Description: in.Description,
		})
	})

	addTool(server, cfg, &sdkmcp.Tool{
		Name:        "list_projects",
		Description: "List all projects, newest first",
	}, func(ctx context.Context, _ NoParams) (any, error) {
		if _, err := requireUserID(ctx); err != nil {
			return nil, err
		}
		list, err := projects.List(ctx)
		if err != nil {
			return nil, err
		}
		return ProjectListResponse{Projects: list}, nil
	})

	addTool(server, cfg, &sdkmcp.Tool{
		Name:        "get_project",
		Description: "Get a project by id",
	}, func(ctx context.Context, in ProjectIDParams) (any, error) {
		if _, err := requireUserID(ctx); err != nil {
			return nil, err
		}
		return projects.Get(ctx, in.ID)
	})

	addTool(server, cfg, &sdkmcp.Tool{
		Name:        "complete_project",
		Description: "Mark a project completed, optionally recording the final estimate in hours. Owner only.",
	}, func(ctx context.Context, in CompleteParams) (any, error) {
		userID, err := requireUserID(ctx)
		if err != nil {
			return nil, err
		}
		if _, err := projects.RequireOwner(ctx, in.ID, userID); err != nil {
			return nil, err
		}
		return projects.Complete(ctx, in.ID, in.FinalEstimation)
	})

	addTool(server, cfg, &sdkmcp.Tool{
		Name:        "delete_project",
		Description: "Delete a project. Owner only.",
	}, func(ctx context.Context, in ProjectIDParams) (any, error) {
		userID, err := requireUserID(ctx)
		if err != nil {
			return nil, err
		}
		if _, err := projects.RequireOwner(ctx, in.ID, userID); err != nil {
			return nil, err
		}
		if err := projects.Delete(ctx, in.ID); err != nil {
			return nil, err
		}
		return DeletedResponse{ID: in.ID, Deleted: true}, nil
	})
}

func registerTaskTools(server *sdkmcp.Server, cfg Config) {
	projects := cfg.Services.Projects
	tasks := cfg.Services.Tasks

	addTool(server, cfg, &sdkmcp.Tool{
		Name:        "create_task",
		Description: "Add a task to a project and generate its share link token. Owner only.",
	}, func(ctx context.Context, in CreateTaskParams) (any, error) {
		userID, err := requireUserID(ctx)
		if err != nil {
			return nil, err
		}
		if _, err := projects.RequireOwner(ctx, in.ProjectID, userID); err != nil {
			return nil, err
		}
		return tasks.Create(ctx, task.CreateRequest{
			ProjectID:   in.ProjectID,
			Name:        in.Name,
			Description: in.Description,
		})
	})

	addTool(server, cfg, &sdkmcp.Tool{
		Name:        "list_tasks",
		Description: "List the tasks of a project, newest first",
	}, func(ctx context.Context, in ListTasksParams) (any, error) {
		if _, err := requireUserID(ctx); err != nil {
			return nil, err
		}
		list, err := tasks.ListByProject(ctx, in.ProjectID)
		if err != nil {
			return nil, err
		}
		return TaskListResponse{Tasks: list}, nil
	})

	addTool(server, cfg, &sdkmcp.Tool{
		Name:        "get_task",
		Description: "Get a task with its project",
	}, func(ctx context.Context, in TaskIDParams) (any, error) {
		if _, err := requireUserID(ctx); err != nil {
			return nil, err
		}
		return tasks.Get(ctx, in.ID)
	})

	addTool(server, cfg, &sdkmcp.Tool{
		Name:        "get_shared_task",
		Description: "Resolve a share token to its task. No sign in required.",
	}, func(ctx context.Context, in SharedTaskParams) (any, error) {
		return tasks.GetByShareToken(ctx, in.Token)
	})

	addTool(server, cfg, &sdkmcp.Tool{
		Name:        "set_task_visibility",
		Description: "Reveal or hide individual estimations of a task for non-owners. Owner only.",
	}, func(ctx context.Context, in TaskVisibilityParams) (any, error) {
		userID, err := requireUserID(ctx)
		if err != nil {
			return nil, err
		}
		if _, err := tasks.RequireOwner(ctx, in.ID, userID); err != nil {
			return nil, err
		}
		if in.Show == nil {
			return tasks.ToggleShowEstimations(ctx, in.ID)
		}
		return tasks.SetShowEstimations(ctx, in.ID, *in.Show)
	})

	addTool(server, cfg, &sdkmcp.Tool{
		Name:        "complete_task",
		Description: "Mark a task completed, optionally recording the final estimate in days. Owner only.",
	}, func(ctx context.Context, in CompleteParams) (any, error) {
		userID, err := requireUserID(ctx)
		if err != nil {
			return nil, err
		}
		if _, err := tasks.RequireOwner(ctx, in.ID, userID); err != nil {
			return nil, err
		}
		return tasks.Complete(ctx, in.ID, in.FinalEstimation)
	})

	addTool(server, cfg, &sdkmcp.Tool{
		Name:        "delete_task",
		Description: "Delete a task. Owner only.",
	}, func(ctx context.Context, in TaskIDParams) (any, error) {
		userID, err := requireUserID(ctx)
		if err != nil {
			return nil, err
		}
		if _, err := tasks.RequireOwner(ctx, in.ID, userID); err != nil {
			return nil, err
		}
		if err := tasks.Delete(ctx, in.ID); err != nil {
			return nil, err
		}
		return DeletedResponse{ID: in.ID, Deleted: true}, nil
	})
}

func registerEstimationTools(server *sdkmcp.Server, cfg Config) {
	tasks := cfg.Services.Tasks
	estimations := cfg.Services.Estimations

	addTool(server, cfg, &sdkmcp.Tool{
		Name:        "submit_estimation",
		Description: "Submit or replace the signed-in user's estimate for a task, e.g. 4h or 1.5d",
	}, func(ctx context.Context, in SubmitEstimationParams) (any, error) {
		userID, err := requireUserID(ctx)
		if err != nil {
			return nil, err
		}
		if _, err := tasks.Get(ctx, in.TaskID); err != nil {
			return nil, err
		}
		stored, err := estimations.Submit(ctx, estimation.SubmitRequest{
			TaskID: in.TaskID,
			UserID: userID,
			Value:  in.Value,
		})
		if err != nil {
			return nil, err
		}
		return EstimationResponse{Estimation: stored, Display: stored.Display()}, nil
	})

	addTool(server, cfg, &sdkmcp.Tool{
		Name:        "get_estimation_board",
		Description: "Show a task's estimation round as the caller sees it. Individual estimates are hidden from non-owners until revealed.",
	}, func(ctx context.Context, in EstimationBoardParams) (any, error) {
		taskID := in.TaskID
		if taskID == "" {
			if in.Token == "" {
				return nil, fmt.Errorf("%w: task_id or token is required", repository.ErrInvalidInput)
			}
			shared, err := tasks.GetByShareToken(ctx, in.Token)
			if err != nil {
				return nil, err
			}
			taskID = shared.ID
		}
		return estimations.Board(ctx, taskID, getUserID(ctx))
	})
}
