package main

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ganot/estimate-poker/internal/config"
	"github.com/ganot/estimate-poker/internal/localdb"
	"github.com/ganot/estimate-poker/internal/realtime"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestParseLogLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, parseLogLevel("debug"))
	assert.Equal(t, slog.LevelWarn, parseLogLevel("warn"))
	assert.Equal(t, slog.LevelWarn, parseLogLevel("warning"))
	assert.Equal(t, slog.LevelError, parseLogLevel("error"))
	assert.Equal(t, slog.LevelInfo, parseLogLevel("info"))
	assert.Equal(t, slog.LevelInfo, parseLogLevel("verbose"))
}

func TestOpenBackend_AllDrivers(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	for _, cfg := range []config.StorageConfig{
		{Driver: config.DriverMemory},
		{Driver: config.DriverFile, Path: filepath.Join(dir, "files")},
		{Driver: config.DriverSQLite, Path: filepath.Join(dir, "db", "poker.db")},
		{Driver: config.DriverBadger, Path: filepath.Join(dir, "badger")},
	} {
		t.Run(cfg.Driver, func(t *testing.T) {
			backend, err := openBackend(cfg, discardLogger())
			require.NoError(t, err)
			defer backend.Close()

			require.NoError(t, backend.Set(ctx, localdb.DataKey, []byte(`{"projects":[]}`)))
			got, ok, err := backend.Get(ctx, localdb.DataKey)
			require.NoError(t, err)
			require.True(t, ok)
			assert.JSONEq(t, `{"projects":[]}`, string(got))
		})
	}

	_, err := openBackend(config.StorageConfig{Driver: "redis"}, discardLogger())
	require.Error(t, err)
}

func TestApp_WatchReloadsExternalWrites(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg := config.Default()
	cfg.Storage = config.StorageConfig{Driver: config.DriverFile, Path: t.TempDir(), Watch: true}

	a, err := newApp(ctx, cfg, discardLogger())
	require.NoError(t, err)
	defer a.Close()

	reloaded := make(chan realtime.Change, 4)
	_, err = a.db.Channel("test").On(realtime.Binding{Table: localdb.TableProjects}, func(c realtime.Change) {
		reloaded <- c
	}).Subscribe()
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() { done <- a.watch(ctx) }()
	// Give the watcher time to register the directory.
	time.Sleep(100 * time.Millisecond)

	external := `{"projects":[{"id":"p1","name":"From elsewhere","user_id":"u","created_at":"2024-01-01T00:00:00.000000Z"}],"tasks":[],"estimations":[]}`
	require.NoError(t, os.WriteFile(filepath.Join(cfg.Storage.Path, localdb.DataKey+".json"), []byte(external), 0o644))

	select {
	case c := <-reloaded:
		assert.Equal(t, realtime.EventReload, c.Event)
	case <-time.After(3 * time.Second):
		t.Fatal("no reload after external write")
	}

	cancel()
	require.NoError(t, <-done)
}

func TestLogFileWriter_Truncates(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "poker.log")
	w, file, err := newLogFileWriter(path)
	require.NoError(t, err)
	defer file.Close()
	w.max, w.keep = 16, 8

	_, err = w.Write([]byte("0123456789"))
	require.NoError(t, err)
	_, err = w.Write([]byte("abcdefghij"))
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "cdefghij", string(data))

	_, err = w.Write([]byte("XY"))
	require.NoError(t, err)
	data, err = os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, bytes.HasSuffix(data, []byte("XY")))
}

func TestRootCommand_Subcommands(t *testing.T) {
	root := newRootCmd()
	var names []string
	for _, c := range root.Commands() {
		names = append(names, c.Name())
	}
	assert.Contains(t, names, "serve")
	assert.Contains(t, names, "stdio")
	assert.NotNil(t, root.PersistentFlags().Lookup("config"))
}
