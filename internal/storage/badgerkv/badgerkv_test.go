package badgerkv

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ganot/estimate-poker/internal/storage"
)

func TestStore_InMemoryRoundTrip(t *testing.T) {
	s, err := Open(InMemoryConfig())
	require.NoError(t, err)
	defer s.Close()
	ctx := context.Background()

	_, ok, err := s.Get(ctx, "estimatePokerData")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.Set(ctx, "estimatePokerData", []byte(`{"tasks":[]}`)))
	v, ok, err := s.Get(ctx, "estimatePokerData")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.JSONEq(t, `{"tasks":[]}`, string(v))

	require.NoError(t, s.Delete(ctx, "estimatePokerData"))
	_, ok, err = s.Get(ctx, "estimatePokerData")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestStore_PersistsAcrossOpen(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	cfg := DefaultConfig(dir)
	cfg.GCInterval = 0

	s, err := Open(cfg)
	require.NoError(t, err)
	require.NoError(t, s.Set(ctx, "estimatePokerAuth", []byte(`{"user":null}`)))
	require.NoError(t, s.Close())

	s, err = Open(cfg)
	require.NoError(t, err)
	defer s.Close()

	v, ok, err := s.Get(ctx, "estimatePokerAuth")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, `{"user":null}`, string(v))
}

func TestStore_ClosedOperationsFail(t *testing.T) {
	s, err := Open(InMemoryConfig())
	require.NoError(t, err)
	require.NoError(t, s.Close())
	require.NoError(t, s.Close())

	err = s.Set(context.Background(), "k", []byte("v"))
	assert.ErrorIs(t, err, storage.ErrClosed)
}

func TestOpen_RequiresPath(t *testing.T) {
	_, err := Open(Config{})
	require.Error(t, err)
}
