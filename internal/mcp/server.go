package mcp

import (
	"context"
	"io"
	"log/slog"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/ganot/estimate-poker/internal/domain/estimation"
	"github.com/ganot/estimate-poker/internal/domain/project"
	"github.com/ganot/estimate-poker/internal/domain/task"
	"github.com/ganot/estimate-poker/internal/localdb"
	"github.com/ganot/estimate-poker/internal/metrics"
)

// ProjectService defines project operations needed by MCP.
type ProjectService interface {
	Create(ctx context.Context, userID string, req project.CreateRequest) (*project.Project, error)
	Get(ctx context.Context, id string) (*project.Project, error)
	List(ctx context.Context) ([]project.Project, error)
	RequireOwner(ctx context.Context, id, userID string) (*project.Project, error)
	Complete(ctx context.Context, id string, finalHours *float64) (*project.Project, error)
	Delete(ctx context.Context, id string) error
}

// TaskService defines task operations needed by MCP.
type TaskService interface {
	Create(ctx context.Context, req task.CreateRequest) (*task.Task, error)
	Get(ctx context.Context, id string) (*task.WithProject, error)
	GetByShareToken(ctx context.Context, token string) (*task.WithProject, error)
	ListByProject(ctx context.Context, projectID string) ([]task.Task, error)
	RequireOwner(ctx context.Context, id, userID string) (*task.WithProject, error)
	SetShowEstimations(ctx context.Context, id string, show bool) (*task.Task, error)
	ToggleShowEstimations(ctx context.Context, id string) (*task.Task, error)
	Complete(ctx context.Context, id string, final *float64) (*task.Task, error)
	Delete(ctx context.Context, id string) error
}

// EstimationService defines estimation operations needed by MCP.
type EstimationService interface {
	Submit(ctx context.Context, req estimation.SubmitRequest) (*estimation.Estimation, error)
	Board(ctx context.Context, taskID, viewerID string) (*estimation.Board, error)
}

// SessionProvider is the sign-in service the tools act through.
type SessionProvider interface {
	SignIn(ctx context.Context, email, password string) (*localdb.Session, error)
	SignUp(ctx context.Context, email, password string) (*localdb.Session, error)
	SignOut(ctx context.Context) error
	GetSession(ctx context.Context) (*localdb.Session, error)
}

// Services contains all domain services needed by MCP.
type Services struct {
	Projects    ProjectService
	Tasks       TaskService
	Estimations EstimationService
	Auth        SessionProvider
}

// Config contains server configuration.
type Config struct {
	Services Services
	Metrics  *metrics.Metrics
	Logger   *slog.Logger
	Version  string
}

// NewServer creates and configures an MCP server with all tools and middleware.
func NewServer(cfg Config) *sdkmcp.Server {
	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if cfg.Version == "" {
		cfg.Version = "dev"
	}

	server := sdkmcp.NewServer(&sdkmcp.Implementation{
		Name:    "estimate-poker",
		Version: cfg.Version,
	}, &sdkmcp.ServerOptions{
		Instructions: serverInstructions,
		Logger:       cfg.Logger,
	})

	registerDocResources(server)

	server.AddReceivingMiddleware(sessionMiddleware(cfg.Services.Auth, cfg.Logger))
	server.AddReceivingMiddleware(trafficLoggingMiddleware(cfg.Logger, "inbound"))
	server.AddSendingMiddleware(trafficLoggingMiddleware(cfg.Logger, "outbound"))

	registerTools(server, cfg)

	return server
}
