package testserver_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/require"

	"github.com/ganot/estimate-poker/internal/localdb"
	"github.com/ganot/estimate-poker/internal/realtime"
	"github.com/ganot/estimate-poker/internal/storage"
	"github.com/ganot/estimate-poker/internal/testserver"
)

// callTool calls a tool and returns the JSON text of a successful result.
func callTool(t *testing.T, session *sdkmcp.ClientSession, name string, args map[string]any) json.RawMessage {
	t.Helper()
	if args == nil {
		args = map[string]any{}
	}

	res, err := session.CallTool(context.Background(), &sdkmcp.CallToolParams{Name: name, Arguments: args})
	require.NoError(t, err, "RPC error calling %s", name)
	require.NotEmpty(t, res.Content)

	text, ok := res.Content[0].(*sdkmcp.TextContent)
	require.True(t, ok)
	require.False(t, res.IsError, "Tool error: %s", text.Text)
	return json.RawMessage(text.Text)
}

func decode[T any](t *testing.T, raw json.RawMessage) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(raw, &out))
	return out
}

type idOnly struct {
	ID            string `json:"id"`
	EstimationURL string `json:"estimation_url"`
}

func dialRealtime(t *testing.T, ts *testserver.TestServer, query string) *websocket.Conn {
	t.Helper()
	before := ts.DB.Hub().SubscriptionCount()

	url := "ws" + strings.TrimPrefix(ts.Server.URL, "http") + "/realtime?" + query
	ws, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	_ = resp.Body.Close()
	t.Cleanup(func() { _ = ws.Close() })

	require.Eventually(t, func() bool {
		return ts.DB.Hub().SubscriptionCount() > before
	}, time.Second, 5*time.Millisecond)
	return ws
}

func readChange(t *testing.T, ws *websocket.Conn, wait time.Duration) (realtime.Change, error) {
	t.Helper()
	require.NoError(t, ws.SetReadDeadline(time.Now().Add(wait)))
	var c realtime.Change
	err := ws.ReadJSON(&c)
	return c, err
}

func TestFunctional_RealtimeRequiresSignIn(t *testing.T) {
	ts := testserver.New(t)

	resp, err := http.Get(ts.Server.URL + "/realtime?table=tasks")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestFunctional_EstimationRoundStreamsChanges(t *testing.T) {
	ts := testserver.New(t)
	session := ts.Connect(t)

	callTool(t, session, "sign_in", map[string]any{"email": "owner@example.com", "password": "pw"})
	proj := decode[idOnly](t, callTool(t, session, "create_project", map[string]any{"name": "Sprint 12"}))
	tk := decode[idOnly](t, callTool(t, session, "create_task", map[string]any{"project_id": proj.ID, "name": "Checkout"}))

	ws := dialRealtime(t, ts, "table=estimations")

	callTool(t, session, "submit_estimation", map[string]any{"task_id": tk.ID, "value": "4h"})
	c, err := readChange(t, ws, 2*time.Second)
	require.NoError(t, err)
	require.Equal(t, realtime.EventInsert, c.Event)
	require.Equal(t, tk.ID, c.New["task_id"])

	callTool(t, session, "submit_estimation", map[string]any{"task_id": tk.ID, "value": "1.5d"})
	c, err = readChange(t, ws, 2*time.Second)
	require.NoError(t, err)
	require.Equal(t, realtime.EventUpdate, c.Event)
	require.InDelta(t, 1.5, c.New["estimation"], 1e-9)

	board := decode[struct {
		Selected string `json:"selected"`
		Summary  struct {
			Count int `json:"count"`
		} `json:"summary"`
	}](t, callTool(t, session, "get_estimation_board", map[string]any{"token": tk.EstimationURL}))
	require.Equal(t, "1.5d", board.Selected)
	require.Equal(t, 1, board.Summary.Count)

	resp, err := http.Get(ts.Server.URL + "/metrics")
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	require.Contains(t, string(body), `poker_table_changes_total{event="INSERT",table="estimations"} 1`)
	require.Contains(t, string(body), `poker_tool_calls_total{result="ok",tool="submit_estimation"} 2`)
}

func TestFunctional_FilterEnforcement(t *testing.T) {
	ts := testserver.New(t, testserver.WithFilterEnforcement())
	session := ts.Connect(t)

	callTool(t, session, "sign_in", map[string]any{"email": "owner@example.com"})
	proj := decode[idOnly](t, callTool(t, session, "create_project", map[string]any{"name": "P"}))
	first := decode[idOnly](t, callTool(t, session, "create_task", map[string]any{"project_id": proj.ID, "name": "A"}))
	second := decode[idOnly](t, callTool(t, session, "create_task", map[string]any{"project_id": proj.ID, "name": "B"}))

	ws := dialRealtime(t, ts, "table=estimations&filter=task_id=eq."+second.ID)

	callTool(t, session, "submit_estimation", map[string]any{"task_id": first.ID, "value": "1d"})
	callTool(t, session, "submit_estimation", map[string]any{"task_id": second.ID, "value": "2d"})

	c, err := readChange(t, ws, 2*time.Second)
	require.NoError(t, err)
	require.Equal(t, second.ID, c.New["task_id"])
}

func TestFunctional_StateSurvivesRestart(t *testing.T) {
	dir := t.TempDir()

	backend, err := storage.NewFile(dir)
	require.NoError(t, err)
	ts := testserver.New(t, testserver.WithBackend(backend))
	session := ts.Connect(t)

	callTool(t, session, "sign_in", map[string]any{"email": "owner@example.com"})
	proj := decode[idOnly](t, callTool(t, session, "create_project", map[string]any{"name": "Durable"}))

	reopened, err := storage.NewFile(dir)
	require.NoError(t, err)
	db, err := localdb.Open(context.Background(), reopened)
	require.NoError(t, err)

	signedIn, err := db.Auth().GetSession(context.Background())
	require.NoError(t, err)
	require.NotNil(t, signedIn)
	require.Equal(t, "owner@example.com", signedIn.User.Email)

	resp := db.From(localdb.TableProjects).Select("*").Eq("id", proj.ID).Single().Execute(context.Background())
	require.NoError(t, resp.Error)
	require.Equal(t, "Durable", resp.Row().String("name"))
}
