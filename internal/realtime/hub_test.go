package realtime

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHub_DeliversOncePerChangeOnBoundTable(t *testing.T) {
	hub := NewHub()
	var got []Change

	_, err := hub.Channel("projects").
		On(Binding{Event: EventAll, Table: "projects"}, func(c Change) { got = append(got, c) }).
		Subscribe()
	require.NoError(t, err)

	hub.Publish(Change{Table: "projects", Event: EventInsert, New: map[string]any{"id": "p1"}})
	hub.Publish(Change{Table: "tasks", Event: EventInsert, New: map[string]any{"id": "t1"}})
	hub.Publish(Change{Table: "projects", Event: EventDelete, Old: map[string]any{"id": "p1"}})

	require.Len(t, got, 2)
	assert.Equal(t, EventInsert, got[0].Event)
	assert.Equal(t, DefaultSchema, got[0].Schema)
	assert.Equal(t, EventDelete, got[1].Event)
}

func TestHub_EventMustMatch(t *testing.T) {
	hub := NewHub()
	count := 0

	_, err := hub.Channel("inserts").
		On(Binding{Event: EventInsert, Table: "tasks"}, func(Change) { count++ }).
		Subscribe()
	require.NoError(t, err)

	hub.Publish(Change{Table: "tasks", Event: EventUpdate})
	hub.Publish(Change{Table: "tasks", Event: EventInsert})
	assert.Equal(t, 1, count)
}

func TestHub_RegistrationOrder(t *testing.T) {
	hub := NewHub()
	var order []string

	_, err := hub.Channel("a").On(Binding{Table: "tasks"}, func(Change) { order = append(order, "a") }).Subscribe()
	require.NoError(t, err)
	_, err = hub.Channel("b").On(Binding{Table: "tasks"}, func(Change) { order = append(order, "b") }).Subscribe()
	require.NoError(t, err)

	hub.Publish(Change{Table: "tasks", Event: EventInsert})
	assert.Equal(t, []string{"a", "b"}, order)
}

func TestHub_FilterNotEnforcedByDefault(t *testing.T) {
	hub := NewHub()
	count := 0

	_, err := hub.Channel("estimations").
		On(Binding{Event: EventAll, Table: "estimations", Filter: "task_id=eq.t1"}, func(Change) { count++ }).
		Subscribe()
	require.NoError(t, err)

	hub.Publish(Change{Table: "estimations", Event: EventInsert, New: map[string]any{"task_id": "t2"}})
	assert.Equal(t, 1, count)
}

func TestHub_FilterEnforced(t *testing.T) {
	hub := NewHub(WithFilterEnforcement())
	count := 0

	_, err := hub.Channel("estimations").
		On(Binding{Event: EventAll, Table: "estimations", Filter: "task_id=eq.t1"}, func(Change) { count++ }).
		Subscribe()
	require.NoError(t, err)

	hub.Publish(Change{Table: "estimations", Event: EventInsert, New: map[string]any{"task_id": "t2"}})
	hub.Publish(Change{Table: "estimations", Event: EventDelete, Old: map[string]any{"task_id": "t1"}})
	assert.Equal(t, 1, count)
}

func TestHub_RemoveChannelIsIdempotent(t *testing.T) {
	hub := NewHub()
	count := 0

	id, err := hub.Channel("tasks").
		On(Binding{Table: "tasks"}, func(Change) { count++ }).
		On(Binding{Table: "projects"}, func(Change) { count++ }).
		Subscribe()
	require.NoError(t, err)
	require.Equal(t, 2, hub.SubscriptionCount())

	assert.True(t, hub.RemoveChannel(id))
	assert.False(t, hub.RemoveChannel(id))
	assert.Equal(t, 0, hub.SubscriptionCount())

	hub.Publish(Change{Table: "tasks", Event: EventInsert})
	assert.Equal(t, 0, count)
}

func TestHub_PanickingCallbackDoesNotStopDelivery(t *testing.T) {
	hub := NewHub()
	delivered := false

	_, err := hub.Channel("a").On(Binding{Table: "tasks"}, func(Change) { panic("boom") }).Subscribe()
	require.NoError(t, err)
	_, err = hub.Channel("b").On(Binding{Table: "tasks"}, func(Change) { delivered = true }).Subscribe()
	require.NoError(t, err)

	hub.Publish(Change{Table: "tasks", Event: EventUpdate})
	assert.True(t, delivered)
}

func TestHub_CallbackMaySubscribeDuringDelivery(t *testing.T) {
	hub := NewHub()
	inner := 0

	_, err := hub.Channel("outer").On(Binding{Table: "tasks"}, func(Change) {
		_, err := hub.Channel("inner").On(Binding{Table: "tasks"}, func(Change) { inner++ }).Subscribe()
		require.NoError(t, err)
	}).Subscribe()
	require.NoError(t, err)

	hub.Publish(Change{Table: "tasks", Event: EventInsert})
	assert.Equal(t, 0, inner)
	hub.Publish(Change{Table: "tasks", Event: EventInsert})
	assert.Equal(t, 1, inner)
}

func TestChannel_InvalidBinding(t *testing.T) {
	hub := NewHub()

	_, err := hub.Channel("x").On(Binding{Table: "tasks", Filter: "task_id"}, func(Change) {}).Subscribe()
	require.ErrorIs(t, err, ErrInvalidBinding)

	_, err = hub.Channel("y").On(Binding{}, func(Change) {}).Subscribe()
	require.ErrorIs(t, err, ErrInvalidBinding)
	assert.Equal(t, 0, hub.SubscriptionCount())
}

func TestParseFilter(t *testing.T) {
	f, err := ParseFilter("task_id=eq.abc.def")
	require.NoError(t, err)
	assert.Equal(t, "task_id", f.Column)
	assert.Equal(t, OpEq, f.Op)
	assert.Equal(t, "abc.def", f.Value)
	assert.Equal(t, "task_id=eq.abc.def", f.String())

	f, err = ParseFilter("")
	require.NoError(t, err)
	assert.Nil(t, f)

	_, err = ParseFilter("task_id=like.x")
	require.Error(t, err)
}

func TestFilter_Match(t *testing.T) {
	f := &Filter{Column: "estimation", Op: OpEq, Value: "1.5"}
	assert.True(t, f.Match(map[string]any{"estimation": 1.5}))
	assert.False(t, f.Match(map[string]any{"estimation": 2.0}))
	assert.False(t, f.Match(map[string]any{}))

	neq := &Filter{Column: "user_id", Op: OpNeq, Value: "u1"}
	assert.True(t, neq.Match(map[string]any{"user_id": "u2"}))
}
