package mcp

import (
	"context"
	"encoding/json"
	"testing"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ganot/estimate-poker/internal/domain/estimation"
	"github.com/ganot/estimate-poker/internal/domain/project"
	"github.com/ganot/estimate-poker/internal/domain/task"
	"github.com/ganot/estimate-poker/internal/localdb"
	"github.com/ganot/estimate-poker/internal/metrics"
	"github.com/ganot/estimate-poker/internal/storage"
	"github.com/ganot/estimate-poker/internal/store"
)

type harness struct {
	db      *localdb.DB
	metrics *metrics.Metrics
	session *sdkmcp.ClientSession
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	ctx := context.Background()

	db, err := localdb.Open(ctx, storage.NewMemory())
	require.NoError(t, err)

	taskRepo := store.NewTaskRepository(db)
	m := metrics.New()
	server := NewServer(Config{
		Services: Services{
			Projects:    project.NewService(store.NewProjectRepository(db), nil),
			Tasks:       task.NewService(taskRepo, nil),
			Estimations: estimation.NewService(store.NewEstimationRepository(db), taskRepo, nil),
			Auth:        db.Auth(),
		},
		Metrics: m,
	})

	serverTransport, clientTransport := sdkmcp.NewInMemoryTransports()
	serverSession, err := server.Connect(ctx, serverTransport, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = serverSession.Close() })

	client := sdkmcp.NewClient(&sdkmcp.Implementation{Name: "test-client", Version: "v0.0.1"}, nil)
	session, err := client.Connect(ctx, clientTransport, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = session.Close() })

	return &harness{db: db, metrics: m, session: session}
}

func (h *harness) call(t *testing.T, name string, args map[string]any) *sdkmcp.CallToolResult {
	t.Helper()
	if args == nil {
		args = map[string]any{}
	}
	res, err := h.session.CallTool(context.Background(), &sdkmcp.CallToolParams{Name: name, Arguments: args})
	require.NoError(t, err, "calling %s", name)
	return res
}

func resultText(t *testing.T, res *sdkmcp.CallToolResult) string {
	t.Helper()
	require.NotEmpty(t, res.Content)
	text, ok := res.Content[0].(*sdkmcp.TextContent)
	require.True(t, ok, "expected text content, got %T", res.Content[0])
	return text.Text
}

func decodeResult[T any](t *testing.T, res *sdkmcp.CallToolResult) T {
	t.Helper()
	require.False(t, res.IsError, "tool error: %s", resultText(t, res))
	var out T
	require.NoError(t, json.Unmarshal([]byte(resultText(t, res)), &out))
	return out
}

func requireToolError(t *testing.T, res *sdkmcp.CallToolResult, code string) {
	t.Helper()
	require.True(t, res.IsError, "expected %s, got %s", code, resultText(t, res))
	assert.Contains(t, resultText(t, res), code)
}

func TestTools_Listed(t *testing.T) {
	h := newHarness(t)

	res, err := h.session.ListTools(context.Background(), nil)
	require.NoError(t, err)

	var names []string
	for _, tool := range res.Tools {
		names = append(names, tool.Name)
	}
	assert.ElementsMatch(t, []string{
		"sign_in", "sign_up", "sign_out", "get_session",
		"create_project", "list_projects", "get_project", "complete_project", "delete_project",
		"create_task", "list_tasks", "get_task", "get_shared_task", "set_task_visibility",
		"complete_task", "delete_task",
		"submit_estimation", "get_estimation_board",
	}, names)
}

func TestResources_Readable(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	list, err := h.session.ListResources(ctx, nil)
	require.NoError(t, err)
	require.Len(t, list.Resources, len(docResources))

	read, err := h.session.ReadResource(ctx, &sdkmcp.ReadResourceParams{URI: "poker://docs/estimation-values"})
	require.NoError(t, err)
	require.Len(t, read.Contents, 1)
	assert.Contains(t, read.Contents[0].Text, "8 hours per day")
}

func TestTools_RequireSignIn(t *testing.T) {
	h := newHarness(t)

	session := decodeResult[SessionResponse](t, h.call(t, "get_session", nil))
	assert.False(t, session.SignedIn)

	requireToolError(t, h.call(t, "create_project", map[string]any{"name": "P"}), "NOT_SIGNED_IN")
	requireToolError(t, h.call(t, "list_projects", nil), "NOT_SIGNED_IN")
	requireToolError(t, h.call(t, "submit_estimation", map[string]any{"task_id": "t1", "value": "1d"}), "NOT_SIGNED_IN")
}

func TestTools_EstimationRound(t *testing.T) {
	h := newHarness(t)

	signedIn := decodeResult[SessionResponse](t, h.call(t, "sign_in", map[string]any{"email": "dev@example.com", "password": "x"}))
	require.True(t, signedIn.SignedIn)
	assert.Equal(t, localdb.LocalUserID, signedIn.User.ID)

	proj := decodeResult[project.Project](t, h.call(t, "create_project", map[string]any{"name": "P1幸"}))
	assert.Equal(t, "P1幸", proj.Name)
	assert.Equal(t, localdb.LocalUserID, proj.UserID)

	tk := decodeResult[task.Task](t, h.call(t, "create_task", map[string]any{"project_id": proj.ID, "name": "Login form"}))
	require.NotEmpty(t, tk.EstimationURL)

	tasks := decodeResult[TaskListResponse](t, h.call(t, "list_tasks", map[string]any{"project_id": proj.ID}))
	require.Len(t, tasks.Tasks, 1)

	submitted := decodeResult[EstimationResponse](t, h.call(t, "submit_estimation", map[string]any{"task_id": tk.ID, "value": "6h"}))
	assert.Equal(t, "6h", submitted.Display)
	assert.True(t, submitted.Estimation.IsCustom)

	board := decodeResult[estimation.Board](t, h.call(t, "get_estimation_board", map[string]any{"task_id": tk.ID}))
	assert.True(t, board.IsOwner)
	assert.True(t, board.Visible)
	assert.Equal(t, "6h", board.Selected)
	assert.InDelta(t, 0.75, board.Summary.Mean, 1e-9)

	shared := decodeResult[task.WithProject](t, h.call(t, "get_shared_task", map[string]any{"token": tk.EstimationURL}))
	assert.Equal(t, tk.ID, shared.ID)

	shown := decodeResult[task.Task](t, h.call(t, "set_task_visibility", map[string]any{"id": tk.ID}))
	assert.True(t, shown.ShowEstimations)

	done := decodeResult[task.Task](t, h.call(t, "complete_task", map[string]any{"id": tk.ID, "final_estimation": 0.75}))
	assert.True(t, done.IsCompleted)

	doneProject := decodeResult[project.Project](t, h.call(t, "complete_project", map[string]any{"id": proj.ID, "final_estimation": 6}))
	assert.True(t, doneProject.IsCompleted)
	require.NotNil(t, doneProject.FinalEstimation)
	assert.Equal(t, 6.0, *doneProject.FinalEstimation)

	n, err := testutil.GatherAndCount(h.metrics.Registry(), "poker_tool_calls_total")
	require.NoError(t, err)
	assert.Positive(t, n)
}

func TestTools_GuestBoardViaShareToken(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	resp := h.db.From(localdb.TableProjects).Insert(localdb.Row{"id": "p1", "name": "Theirs", "user_id": "someone-else"}).Execute(ctx)
	require.NoError(t, resp.Error)
	resp = h.db.From(localdb.TableTasks).Insert(localdb.Row{"id": "t1", "project_id": "p1", "name": "Task", "estimation_url": "tok"}).Execute(ctx)
	require.NoError(t, resp.Error)
	resp = h.db.From(localdb.TableEstimations).Insert(localdb.Row{"task_id": "t1", "user_id": "someone-else", "estimation": 2.0}).Execute(ctx)
	require.NoError(t, resp.Error)

	board := decodeResult[estimation.Board](t, h.call(t, "get_estimation_board", map[string]any{"token": "tok"}))
	assert.False(t, board.IsOwner)
	assert.False(t, board.Visible)
	assert.Equal(t, 1, board.Summary.Count)
	assert.Empty(t, board.Estimations)

	decodeResult[SessionResponse](t, h.call(t, "sign_in", map[string]any{"email": "guest@example.com"}))
	requireToolError(t, h.call(t, "delete_project", map[string]any{"id": "p1"}), "NOT_OWNER")
	requireToolError(t, h.call(t, "set_task_visibility", map[string]any{"id": "t1", "show": true}), "NOT_OWNER")
	requireToolError(t, h.call(t, "create_task", map[string]any{"project_id": "p1", "name": "x"}), "NOT_OWNER")

	decodeResult[EstimationResponse](t, h.call(t, "submit_estimation", map[string]any{"task_id": "t1", "value": "1d"}))
	board = decodeResult[estimation.Board](t, h.call(t, "get_estimation_board", map[string]any{"task_id": "t1"}))
	assert.Equal(t, "1d", board.Selected)
	assert.Equal(t, 2, board.Summary.Count)
}

func TestTools_ErrorCodes(t *testing.T) {
	h := newHarness(t)
	decodeResult[SessionResponse](t, h.call(t, "sign_up", map[string]any{"email": "dev@example.com"}))

	requireToolError(t, h.call(t, "get_project", map[string]any{"id": "missing"}), "PROJECT_NOT_FOUND")
	requireToolError(t, h.call(t, "get_task", map[string]any{"id": "missing"}), "TASK_NOT_FOUND")
	requireToolError(t, h.call(t, "get_shared_task", map[string]any{"token": "missing"}), "TASK_NOT_FOUND")
	requireToolError(t, h.call(t, "create_project", map[string]any{"name": "  "}), "INVALID_INPUT")
	requireToolError(t, h.call(t, "get_estimation_board", nil), "INVALID_INPUT")
	requireToolError(t, h.call(t, "sign_in", map[string]any{"email": " "}), "INVALID_INPUT")

	proj := decodeResult[project.Project](t, h.call(t, "create_project", map[string]any{"name": "P"}))
	tk := decodeResult[task.Task](t, h.call(t, "create_task", map[string]any{"project_id": proj.ID, "name": "T"}))
	requireToolError(t, h.call(t, "submit_estimation", map[string]any{"task_id": tk.ID, "value": "2w"}), "INVALID_ESTIMATION")
	requireToolError(t, h.call(t, "submit_estimation", map[string]any{"task_id": tk.ID, "value": "-1d"}), "INVALID_ESTIMATION")

	board := decodeResult[estimation.Board](t, h.call(t, "get_estimation_board", map[string]any{"task_id": tk.ID}))
	assert.Zero(t, board.Summary.Count)

	deleted := decodeResult[DeletedResponse](t, h.call(t, "delete_task", map[string]any{"id": tk.ID}))
	assert.True(t, deleted.Deleted)
	decodeResult[DeletedResponse](t, h.call(t, "delete_project", map[string]any{"id": proj.ID}))

	decodeResult[SessionResponse](t, h.call(t, "sign_out", nil))
	session := decodeResult[SessionResponse](t, h.call(t, "get_session", nil))
	assert.False(t, session.SignedIn)
}

func TestMapError(t *testing.T) {
	assert.Nil(t, MapError(nil))
	assert.Nil(t, MapError(assert.AnError))

	apiErr := MapError(localdb.ErrNotSignedIn)
	require.NotNil(t, apiErr)
	assert.Equal(t, "NOT_SIGNED_IN", apiErr.Code)
	assert.ErrorIs(t, apiErr, localdb.ErrNotSignedIn)

	assert.Equal(t, "NOT_OWNER", MapError(task.ErrNotOwner).Code)
	assert.Equal(t, "INVALID_ESTIMATION", MapError(estimation.ErrInvalidValue).Code)
}
