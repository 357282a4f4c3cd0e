package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

const (
	fileExt         = ".json"
	defaultDebounce = 100 * time.Millisecond
)

// ErrInvalidKey is returned for keys that cannot be mapped to a file name.
var ErrInvalidKey = errors.New("invalid storage key")

// File stores each key as <dir>/<key>.json. Writes go through a temp file and
// rename so readers never observe a partial document.
type File struct {
	dir      string
	logger   *slog.Logger
	debounce time.Duration

	mu     sync.RWMutex
	closed bool
}

// FileOption configures a File backend.
type FileOption func(*File)

// WithFileLogger sets the logger used by the watcher.
func WithFileLogger(logger *slog.Logger) FileOption {
	return func(f *File) {
		if logger != nil {
			f.logger = logger
		}
	}
}

// WithDebounce sets how long the watcher waits for writes to settle.
func WithDebounce(d time.Duration) FileOption {
	return func(f *File) {
		f.debounce = d
	}
}

// NewFile opens a file backend rooted at dir, creating it if needed.
func NewFile(dir string, opts ...FileOption) (*File, error) {
	if strings.TrimSpace(dir) == "" {
		return nil, fmt.Errorf("file backend: directory is required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create storage directory: %w", err)
	}
	f := &File{
		dir:      dir,
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
		debounce: defaultDebounce,
	}
	for _, o := range opts {
		o(f)
	}
	return f, nil
}

// Dir returns the backing directory.
func (f *File) Dir() string {
	return f.dir
}

func (f *File) path(key string) (string, error) {
	if key == "" || strings.ContainsAny(key, `/\`) || strings.HasPrefix(key, ".") {
		return "", fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	return filepath.Join(f.dir, key+fileExt), nil
}

// Get reads the document for key.
func (f *File) Get(_ context.Context, key string) ([]byte, bool, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	if f.closed {
		return nil, false, ErrClosed
	}
	p, err := f.path(key)
	if err != nil {
		return nil, false, err
	}
	data, err := os.ReadFile(p)
	if errors.Is(err, os.ErrNotExist) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("read %s: %w", key, err)
	}
	return data, true, nil
}

// Set atomically replaces the document for key.
func (f *File) Set(_ context.Context, key string, value []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.closed {
		return ErrClosed
	}
	p, err := f.path(key)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(f.dir, "."+key+"-*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(value); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write %s: %w", key, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmpName, p); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replace %s: %w", key, err)
	}
	return nil
}

// Delete removes the document for key.
func (f *File) Delete(_ context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.closed {
		return ErrClosed
	}
	p, err := f.path(key)
	if err != nil {
		return err
	}
	if err := os.Remove(p); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("delete %s: %w", key, err)
	}
	return nil
}

// Close marks the backend closed. Files stay on disk.
func (f *File) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

// Watch reports documents rewritten in the backing directory. Bursts of
// events for one key collapse into a single callback after the debounce
// interval. The callback also fires for this process's own writes; callers
// dedupe by content.
func (f *File) Watch(ctx context.Context, onChange func(key string)) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(f.dir); err != nil {
		return fmt.Errorf("watch %s: %w", f.dir, err)
	}

	var (
		mu     sync.Mutex
		timers = make(map[string]*time.Timer)
	)
	defer func() {
		mu.Lock()
		for _, t := range timers {
			t.Stop()
		}
		mu.Unlock()
	}()

	trigger := func(key string) {
		mu.Lock()
		defer mu.Unlock()
		if t, ok := timers[key]; ok {
			t.Stop()
		}
		timers[key] = time.AfterFunc(f.debounce, func() {
			if ctx.Err() != nil {
				return
			}
			onChange(key)
		})
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			name := filepath.Base(event.Name)
			if strings.HasPrefix(name, ".") || !strings.HasSuffix(name, fileExt) {
				continue
			}
			trigger(strings.TrimSuffix(name, fileExt))
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			f.logger.Warn("storage watcher error", "dir", f.dir, "error", err)
		}
	}
}
