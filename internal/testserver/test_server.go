// Package testserver runs the full HTTP stack on an in-memory store for
// end-to-end tests.
package testserver

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/require"

	"github.com/ganot/estimate-poker/internal/domain/estimation"
	"github.com/ganot/estimate-poker/internal/domain/project"
	"github.com/ganot/estimate-poker/internal/domain/task"
	"github.com/ganot/estimate-poker/internal/localdb"
	"github.com/ganot/estimate-poker/internal/mcp"
	"github.com/ganot/estimate-poker/internal/metrics"
	"github.com/ganot/estimate-poker/internal/realtime"
	"github.com/ganot/estimate-poker/internal/storage"
	"github.com/ganot/estimate-poker/internal/store"
	"github.com/ganot/estimate-poker/internal/transport"
)

var tables = []string{localdb.TableProjects, localdb.TableTasks, localdb.TableEstimations}

type TestServer struct {
	Server  *httptest.Server
	DB      *localdb.DB
	Backend storage.Backend
	Metrics *metrics.Metrics
}

// Option adjusts the stack before it starts.
type Option func(*options)

type options struct {
	backend        storage.Backend
	enforceFilters bool
}

// WithBackend runs the store on backend instead of a fresh in-memory one.
func WithBackend(backend storage.Backend) Option {
	return func(o *options) { o.backend = backend }
}

// WithFilterEnforcement makes the hub apply binding filters.
func WithFilterEnforcement() Option {
	return func(o *options) { o.enforceFilters = true }
}

func New(t *testing.T, opts ...Option) *TestServer {
	t.Helper()

	o := options{backend: storage.NewMemory()}
	for _, opt := range opts {
		opt(&o)
	}

	var hubOpts []realtime.Option
	if o.enforceFilters {
		hubOpts = append(hubOpts, realtime.WithFilterEnforcement())
	}
	hub := realtime.NewHub(hubOpts...)

	db, err := localdb.Open(context.Background(), o.backend, localdb.WithHub(hub))
	require.NoError(t, err)

	m := metrics.New()
	_, err = m.Attach(hub, tables...)
	require.NoError(t, err)

	taskRepo := store.NewTaskRepository(db)
	mcpServer := mcp.NewServer(mcp.Config{
		Services: mcp.Services{
			Projects:    project.NewService(store.NewProjectRepository(db), nil),
			Tasks:       task.NewService(taskRepo, nil),
			Estimations: estimation.NewService(store.NewEstimationRepository(db), taskRepo, nil),
			Auth:        db.Auth(),
		},
		Metrics: m,
	})

	router := transport.NewServer(transport.Options{
		MCP: sdkmcp.NewStreamableHTTPHandler(func(*http.Request) *sdkmcp.Server { return mcpServer }, nil),
		Metrics: m.Handler(),
		Realtime: transport.NewRealtime(hub, transport.RealtimeConfig{
			Tables:  tables,
			Metrics: m,
		}),
		Sessions: db.Auth(),
	})
	server := httptest.NewServer(router)

	t.Cleanup(func() {
		server.Close()
		_ = o.backend.Close()
	})

	return &TestServer{Server: server, DB: db, Backend: o.backend, Metrics: m}
}

// Connect opens an MCP client session against the /mcp endpoint.
func (ts *TestServer) Connect(t *testing.T) *sdkmcp.ClientSession {
	t.Helper()

	client := sdkmcp.NewClient(&sdkmcp.Implementation{Name: "testserver-client", Version: "v0.0.1"}, nil)
	session, err := client.Connect(context.Background(), &sdkmcp.StreamableClientTransport{Endpoint: ts.Server.URL + "/mcp"}, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = session.Close() })
	return session
}
