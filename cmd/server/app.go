package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/ganot/estimate-poker/internal/config"
	"github.com/ganot/estimate-poker/internal/domain/estimation"
	"github.com/ganot/estimate-poker/internal/domain/project"
	"github.com/ganot/estimate-poker/internal/domain/task"
	"github.com/ganot/estimate-poker/internal/localdb"
	"github.com/ganot/estimate-poker/internal/mcp"
	"github.com/ganot/estimate-poker/internal/metrics"
	"github.com/ganot/estimate-poker/internal/realtime"
	"github.com/ganot/estimate-poker/internal/sqlite"
	"github.com/ganot/estimate-poker/internal/storage"
	"github.com/ganot/estimate-poker/internal/storage/badgerkv"
	"github.com/ganot/estimate-poker/internal/store"
	"github.com/ganot/estimate-poker/internal/transport"
)

// app holds the wired components of one process.
type app struct {
	driver   string
	backend  storage.Backend
	db       *localdb.DB
	metrics  *metrics.Metrics
	mcp      *sdkmcp.Server
	realtime *transport.Realtime
	logger   *slog.Logger
}

func newApp(ctx context.Context, cfg config.Config, logger *slog.Logger) (*app, error) {
	backend, err := openBackend(cfg.Storage, logger)
	if err != nil {
		return nil, err
	}

	hubOpts := []realtime.Option{realtime.WithLogger(logger)}
	if cfg.Realtime.EnforceFilters {
		hubOpts = append(hubOpts, realtime.WithFilterEnforcement())
	}
	hub := realtime.NewHub(hubOpts...)

	db, err := localdb.Open(ctx, backend, localdb.WithHub(hub), localdb.WithLogger(logger))
	if err != nil {
		_ = backend.Close()
		return nil, fmt.Errorf("opening local store: %w", err)
	}

	m := metrics.New()
	if _, err := m.Attach(hub, tables...); err != nil {
		_ = backend.Close()
		return nil, fmt.Errorf("attaching metrics: %w", err)
	}

	projectRepo := store.NewProjectRepository(db)
	taskRepo := store.NewTaskRepository(db)
	estimationRepo := store.NewEstimationRepository(db)

	mcpServer := mcp.NewServer(mcp.Config{
		Services: mcp.Services{
			Projects:    project.NewService(projectRepo, logger),
			Tasks:       task.NewService(taskRepo, logger),
			Estimations: estimation.NewService(estimationRepo, taskRepo, logger),
			Auth:        db.Auth(),
		},
		Metrics: m,
		Logger:  logger,
		Version: version,
	})

	return &app{
		driver:  cfg.Storage.Driver,
		backend: backend,
		db:      db,
		metrics: m,
		mcp:     mcpServer,
		realtime: transport.NewRealtime(hub, transport.RealtimeConfig{
			Tables:  tables,
			Buffer:  cfg.Realtime.Buffer,
			Metrics: m,
			Logger:  logger,
		}),
		logger: logger,
	}, nil
}

// watch reloads the store when another process writes the backend. Backends
// that cannot be watched return immediately.
func (a *app) watch(ctx context.Context) error {
	w, ok := a.backend.(storage.Watcher)
	if !ok {
		a.logger.Warn("storage driver does not support watching", "driver", a.driver)
		return nil
	}
	a.logger.Info("watching storage for external writes", "driver", a.driver)
	err := w.Watch(ctx, func(key string) {
		if err := a.db.Refresh(ctx, key); err != nil {
			a.logger.Error("reloading external change", "key", key, "error", err)
		}
	})
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func (a *app) Close() error {
	return a.backend.Close()
}

func openBackend(cfg config.StorageConfig, logger *slog.Logger) (storage.Backend, error) {
	switch cfg.Driver {
	case config.DriverMemory:
		return storage.NewMemory(), nil
	case config.DriverFile:
		b, err := storage.NewFile(cfg.Path, storage.WithFileLogger(logger))
		if err != nil {
			return nil, fmt.Errorf("opening file storage: %w", err)
		}
		return b, nil
	case config.DriverSQLite:
		if err := ensureDBDir(cfg.Path); err != nil {
			return nil, fmt.Errorf("preparing database path: %w", err)
		}
		b, err := sqlite.Open(cfg.Path)
		if err != nil {
			return nil, fmt.Errorf("opening sqlite storage: %w", err)
		}
		return b, nil
	case config.DriverBadger:
		bcfg := badgerkv.DefaultConfig(cfg.Path)
		bcfg.Logger = logger
		b, err := badgerkv.Open(bcfg)
		if err != nil {
			return nil, fmt.Errorf("opening badger storage: %w", err)
		}
		return b, nil
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
	}
}

func ensureDBDir(path string) error {
	if path == ":memory:" || path == "" {
		return nil
	}
	dir := filepath.Dir(path)
	if dir == "." {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}
