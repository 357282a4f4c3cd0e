// Package localdb is a local stand-in for a hosted relational backend. It
// keeps the projects, tasks and estimations collections in memory, persists
// them as one JSON document through a storage.Backend after every mutation,
// and publishes row changes to a realtime.Hub.
package localdb

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"reflect"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/ganot/estimate-poker/internal/realtime"
	"github.com/ganot/estimate-poker/internal/storage"
)

// Storage keys of the durable documents.
const (
	DataKey = "estimatePokerData"
	AuthKey = "estimatePokerAuth"
)

// TimeLayout is the fixed-width UTC layout of created_at values, so that
// string order equals time order.
const TimeLayout = "2006-01-02T15:04:05.000000Z"

type snapshot struct {
	Projects    []Row `json:"projects"`
	Tasks       []Row `json:"tasks"`
	Estimations []Row `json:"estimations"`
}

// DB is the local store engine.
type DB struct {
	backend storage.Backend
	hub     *realtime.Hub
	logger  *slog.Logger
	clock   func() time.Time
	newID   func() string
	auth    *Auth

	mu          sync.Mutex
	tables      map[string][]Row
	collator    *collate.Collator
	lastTime    time.Time
	lastWritten []byte
}

// Option configures a DB.
type Option func(*DB)

// WithHub publishes changes to hub instead of a private one.
func WithHub(hub *realtime.Hub) Option {
	return func(db *DB) {
		if hub != nil {
			db.hub = hub
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(db *DB) {
		if logger != nil {
			db.logger = logger
		}
	}
}

// WithClock sets the time source for created_at values.
func WithClock(clock func() time.Time) Option {
	return func(db *DB) {
		if clock != nil {
			db.clock = clock
		}
	}
}

// WithIDGenerator sets the id source for inserted rows.
func WithIDGenerator(newID func() string) Option {
	return func(db *DB) {
		if newID != nil {
			db.newID = newID
		}
	}
}

// Open loads the data and auth documents from backend. Missing documents
// start empty; undecodable ones return an error wrapping ErrCorruptSnapshot.
func Open(ctx context.Context, backend storage.Backend, opts ...Option) (*DB, error) {
	db := &DB{
		backend:  backend,
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
		clock:    time.Now,
		newID:    uuid.NewString,
		collator: collate.New(language.Und),
	}
	for _, o := range opts {
		o(db)
	}
	if db.hub == nil {
		db.hub = realtime.NewHub(realtime.WithLogger(db.logger))
	}

	raw, ok, err := backend.Get(ctx, DataKey)
	if err != nil {
		return nil, fmt.Errorf("loading %s: %w", DataKey, err)
	}
	tables, err := decodeSnapshot(raw, ok)
	if err != nil {
		return nil, err
	}
	db.tables = tables
	if ok {
		db.lastWritten = raw
	}
	db.observeTimestamps()

	db.auth = &Auth{backend: backend, logger: db.logger, clock: db.clock}
	if err := db.auth.load(ctx); err != nil {
		return nil, err
	}

	db.logger.Debug("local store opened",
		"projects", len(tables[TableProjects]),
		"tasks", len(tables[TableTasks]),
		"estimations", len(tables[TableEstimations]))
	return db, nil
}

func decodeSnapshot(raw []byte, ok bool) (map[string][]Row, error) {
	var snap snapshot
	if ok {
		if err := json.Unmarshal(raw, &snap); err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrCorruptSnapshot, DataKey, err)
		}
	}
	tables := map[string][]Row{
		TableProjects:    snap.Projects,
		TableTasks:       snap.Tasks,
		TableEstimations: snap.Estimations,
	}
	for name, rows := range tables {
		if rows == nil {
			tables[name] = []Row{}
		}
		for i, r := range rows {
			if r == nil {
				return nil, fmt.Errorf("%w: %s: null row %d in %s", ErrCorruptSnapshot, DataKey, i, name)
			}
		}
	}
	return tables, nil
}

// Hub returns the hub changes are published to.
func (db *DB) Hub() *realtime.Hub {
	return db.hub
}

// Auth returns the session emulator sharing this store's backend.
func (db *DB) Auth() *Auth {
	return db.auth
}

// Channel is a shorthand for Hub().Channel.
func (db *DB) Channel(name string) *realtime.Channel {
	return db.hub.Channel(name)
}

// RemoveChannel is a shorthand for Hub().RemoveChannel.
func (db *DB) RemoveChannel(id string) bool {
	return db.hub.RemoveChannel(id)
}

// Snapshot returns a deep copy of every table.
func (db *DB) Snapshot() map[string][]Row {
	db.mu.Lock()
	defer db.mu.Unlock()

	out := make(map[string][]Row, len(db.tables))
	for name, rows := range db.tables {
		out[name] = cloneRows(rows)
	}
	return out
}

// Run evaluates spec and publishes the resulting change, if any, after the
// store lock is released.
func (db *DB) Run(ctx context.Context, spec QuerySpec) Response {
	if err := ctx.Err(); err != nil {
		return Response{Error: err}
	}

	db.mu.Lock()
	resp, changes := db.evaluate(ctx, spec)
	db.mu.Unlock()

	if resp.Error != nil {
		db.logger.Debug("query failed", "table", spec.Table, "op", spec.Operation, "error", resp.Error)
	}
	for _, c := range changes {
		db.hub.Publish(c)
	}
	return resp
}

// Reload re-reads the data document, replacing tables that differ and
// publishing a RELOAD change for each. The engine's own last write is
// ignored.
func (db *DB) Reload(ctx context.Context) error {
	db.mu.Lock()
	raw, ok, err := db.backend.Get(ctx, DataKey)
	if err != nil {
		db.mu.Unlock()
		return fmt.Errorf("reloading %s: %w", DataKey, err)
	}
	if ok && bytes.Equal(raw, db.lastWritten) {
		db.mu.Unlock()
		return nil
	}
	tables, err := decodeSnapshot(raw, ok)
	if err != nil {
		db.mu.Unlock()
		return err
	}

	var changes []realtime.Change
	for _, name := range tableNames {
		if reflect.DeepEqual(db.tables[name], tables[name]) {
			continue
		}
		db.tables[name] = tables[name]
		changes = append(changes, realtime.Change{Table: name, Event: realtime.EventReload})
	}
	db.lastWritten = raw
	db.observeTimestamps()
	db.mu.Unlock()

	if len(changes) > 0 {
		db.logger.Info("reloaded external changes", "tables", len(changes))
	}
	for _, c := range changes {
		db.hub.Publish(c)
	}
	return nil
}

// Refresh reloads whichever document key names. Unknown keys are ignored.
func (db *DB) Refresh(ctx context.Context, key string) error {
	switch key {
	case DataKey:
		return db.Reload(ctx)
	case AuthKey:
		return db.auth.Reload(ctx)
	default:
		return nil
	}
}

// persistLocked writes the data document. Callers hold db.mu.
func (db *DB) persistLocked(ctx context.Context) error {
	raw, err := json.Marshal(snapshot{
		Projects:    db.tables[TableProjects],
		Tasks:       db.tables[TableTasks],
		Estimations: db.tables[TableEstimations],
	})
	if err != nil {
		return fmt.Errorf("encoding %s: %w", DataKey, err)
	}
	if err := db.backend.Set(context.WithoutCancel(ctx), DataKey, raw); err != nil {
		return fmt.Errorf("persisting %s: %w", DataKey, err)
	}
	db.lastWritten = raw
	return nil
}

// nextTimestamp returns a created_at value strictly after every earlier one.
// Callers hold db.mu.
func (db *DB) nextTimestamp() string {
	now := db.clock().UTC().Truncate(time.Microsecond)
	if !now.After(db.lastTime) {
		now = db.lastTime.Add(time.Microsecond)
	}
	db.lastTime = now
	return now.Format(TimeLayout)
}

// observeTimestamps advances the clock floor past every stored created_at.
func (db *DB) observeTimestamps() {
	for _, rows := range db.tables {
		for _, r := range rows {
			db.observeTimestamp(r.String(ColumnCreatedAt))
		}
	}
}

// observeTimestamp lifts the clock floor to value when it parses and is later.
// Callers hold db.mu.
func (db *DB) observeTimestamp(value string) {
	ts, err := time.Parse(time.RFC3339Nano, value)
	if err != nil {
		return
	}
	if ts.After(db.lastTime) {
		db.lastTime = ts.UTC()
	}
}
