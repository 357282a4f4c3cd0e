package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func backendRoundTrip(t *testing.T, b Backend) {
	t.Helper()
	ctx := context.Background()

	_, ok, err := b.Get(ctx, "missing")
	require.NoError(t, err)
	require.False(t, ok)

	require.NoError(t, b.Set(ctx, "doc", []byte(`{"a":1}`)))
	v, ok, err := b.Get(ctx, "doc")
	require.NoError(t, err)
	require.True(t, ok)
	require.JSONEq(t, `{"a":1}`, string(v))

	require.NoError(t, b.Set(ctx, "doc", []byte(`{"a":2}`)))
	v, _, err = b.Get(ctx, "doc")
	require.NoError(t, err)
	require.JSONEq(t, `{"a":2}`, string(v))

	require.NoError(t, b.Delete(ctx, "doc"))
	require.NoError(t, b.Delete(ctx, "doc"))
	_, ok, err = b.Get(ctx, "doc")
	require.NoError(t, err)
	require.False(t, ok)

	require.NoError(t, b.Close())
	_, _, err = b.Get(ctx, "doc")
	require.ErrorIs(t, err, ErrClosed)
}

func TestMemory_RoundTrip(t *testing.T) {
	backendRoundTrip(t, NewMemory())
}

func TestMemory_CopiesValues(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	buf := []byte("abc")
	require.NoError(t, m.Set(ctx, "k", buf))
	buf[0] = 'z'

	v, _, err := m.Get(ctx, "k")
	require.NoError(t, err)
	require.Equal(t, "abc", string(v))
}

func TestFile_RoundTrip(t *testing.T) {
	f, err := NewFile(t.TempDir())
	require.NoError(t, err)
	backendRoundTrip(t, f)
}

func TestFile_InvalidKey(t *testing.T) {
	f, err := NewFile(t.TempDir())
	require.NoError(t, err)

	err = f.Set(context.Background(), "../escape", []byte("x"))
	require.ErrorIs(t, err, ErrInvalidKey)
}

func TestFile_NoTempFilesLeft(t *testing.T) {
	dir := t.TempDir()
	f, err := NewFile(dir)
	require.NoError(t, err)
	require.NoError(t, f.Set(context.Background(), "doc", []byte("{}")))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.Equal(t, "doc.json", entries[0].Name())
}

func TestFile_WatchReportsExternalWrite(t *testing.T) {
	dir := t.TempDir()
	f, err := NewFile(dir, WithDebounce(10*time.Millisecond))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	changed := make(chan string, 4)
	done := make(chan error, 1)
	go func() {
		done <- f.Watch(ctx, func(key string) { changed <- key })
	}()

	// Give the watcher time to register the directory.
	time.Sleep(50 * time.Millisecond)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "shared.json"), []byte("{}"), 0o644))

	select {
	case key := <-changed:
		require.Equal(t, "shared", key)
	case <-time.After(2 * time.Second):
		t.Fatal("watcher did not report the write")
	}

	cancel()
	require.NoError(t, <-done)
}
