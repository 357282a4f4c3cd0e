// Package realtime is an in-process stand-in for push-based table change
// feeds. Mutations are published to a Hub, which invokes the callbacks bound
// to the changed table synchronously and in registration order.
package realtime

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/google/uuid"
)

// Event identifies the kind of table change.
type Event string

const (
	EventInsert Event = "INSERT"
	EventUpdate Event = "UPDATE"
	EventDelete Event = "DELETE"
	// EventReload is published when the table was replaced by a snapshot
	// written outside this process.
	EventReload Event = "RELOAD"
	// EventAll matches every event in a Binding.
	EventAll Event = "*"
)

// DefaultSchema is assumed when a binding leaves Schema empty.
const DefaultSchema = "public"

// ErrInvalidBinding is returned by Subscribe when a staged binding cannot be
// registered.
var ErrInvalidBinding = errors.New("invalid channel binding")

// Change describes one mutation of a table.
type Change struct {
	Schema string         `json:"schema"`
	Table  string         `json:"table"`
	Event  Event          `json:"eventType"`
	New    map[string]any `json:"new,omitempty"`
	Old    map[string]any `json:"old,omitempty"`
}

// Binding scopes a callback to a table and event.
type Binding struct {
	Event  Event
	Schema string
	Table  string
	// Filter restricts delivery to one row value, e.g. "task_id=eq.42". It is
	// only applied when the hub enforces filters.
	Filter string
}

// Callback receives matching changes.
type Callback func(Change)

type subscription struct {
	channelID string
	binding   Binding
	filter    *Filter
	callback  Callback
}

// Hub routes published changes to subscribed callbacks.
type Hub struct {
	logger        *slog.Logger
	enforceFilter bool

	mu   sync.RWMutex
	subs []*subscription
}

// Option configures a Hub.
type Option func(*Hub)

// WithLogger sets the hub logger.
func WithLogger(logger *slog.Logger) Option {
	return func(h *Hub) {
		if logger != nil {
			h.logger = logger
		}
	}
}

// WithFilterEnforcement makes binding filters restrict delivery. Without it
// every change on a table reaches every callback bound to that table.
func WithFilterEnforcement() Option {
	return func(h *Hub) {
		h.enforceFilter = true
	}
}

// NewHub creates a hub.
func NewHub(opts ...Option) *Hub {
	h := &Hub{logger: slog.New(slog.NewTextHandler(io.Discard, nil))}
	for _, o := range opts {
		o(h)
	}
	return h
}

// EnforcesFilters reports whether binding filters restrict delivery.
func (h *Hub) EnforcesFilters() bool {
	return h.enforceFilter
}

// Channel returns a handle for staging bindings under name.
func (h *Hub) Channel(name string) *Channel {
	return &Channel{hub: h, name: name}
}

// RemoveChannel drops every binding registered under id. It reports whether
// anything was removed; removing an unknown id is a no-op.
func (h *Hub) RemoveChannel(id string) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	kept := h.subs[:0]
	removed := false
	for _, s := range h.subs {
		if s.channelID == id {
			removed = true
			continue
		}
		kept = append(kept, s)
	}
	// Clear the tail so removed callbacks can be collected.
	for i := len(kept); i < len(h.subs); i++ {
		h.subs[i] = nil
	}
	h.subs = kept
	return removed
}

// SubscriptionCount returns the number of active bindings.
func (h *Hub) SubscriptionCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}

// Publish delivers c to every matching callback on the calling goroutine.
func (h *Hub) Publish(c Change) {
	if c.Schema == "" {
		c.Schema = DefaultSchema
	}

	h.mu.RLock()
	targets := make([]*subscription, 0, len(h.subs))
	for _, s := range h.subs {
		if h.matches(s, c) {
			targets = append(targets, s)
		}
	}
	h.mu.RUnlock()

	for _, s := range targets {
		h.deliver(s, c)
	}
}

func (h *Hub) matches(s *subscription, c Change) bool {
	if s.binding.Table != c.Table {
		return false
	}
	if s.binding.Schema != "" && s.binding.Schema != c.Schema {
		return false
	}
	if s.binding.Event != EventAll && s.binding.Event != c.Event {
		return false
	}
	if h.enforceFilter && s.filter != nil && c.Event != EventReload {
		row := c.New
		if row == nil {
			row = c.Old
		}
		return s.filter.Match(row)
	}
	return true
}

func (h *Hub) deliver(s *subscription, c Change) {
	defer func() {
		if r := recover(); r != nil {
			h.logger.Error("realtime callback panicked",
				"channel", s.channelID,
				"table", c.Table,
				"event", c.Event,
				"panic", fmt.Sprint(r))
		}
	}()
	s.callback(c)
}

// Channel stages bindings until Subscribe activates them.
type Channel struct {
	hub    *Hub
	name   string
	id     string
	staged []*subscription
	err    error
}

// Name returns the channel name.
func (c *Channel) Name() string {
	return c.name
}

// On stages a callback for b. Calls chain.
func (c *Channel) On(b Binding, cb Callback) *Channel {
	if b.Event == "" {
		b.Event = EventAll
	}
	switch {
	case b.Table == "":
		c.err = errors.Join(c.err, fmt.Errorf("%w: table is required", ErrInvalidBinding))
		return c
	case cb == nil:
		c.err = errors.Join(c.err, fmt.Errorf("%w: callback is required", ErrInvalidBinding))
		return c
	}

	f, err := ParseFilter(b.Filter)
	if err != nil {
		c.err = errors.Join(c.err, fmt.Errorf("%w: %w", ErrInvalidBinding, err))
		return c
	}
	c.staged = append(c.staged, &subscription{binding: b, filter: f, callback: cb})
	return c
}

// Subscribe activates the staged bindings and returns the channel id used
// with RemoveChannel. Bindings staged after a Subscribe are activated by the
// next Subscribe under the same id.
func (c *Channel) Subscribe() (string, error) {
	if c.err != nil {
		return "", c.err
	}
	if c.id == "" {
		c.id = c.name + ":" + uuid.NewString()
	}

	c.hub.mu.Lock()
	for _, s := range c.staged {
		s.channelID = c.id
		c.hub.subs = append(c.hub.subs, s)
	}
	c.hub.mu.Unlock()
	c.staged = nil

	c.hub.logger.Debug("realtime channel subscribed", "channel", c.id)
	return c.id, nil
}
