package session

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSweeper(t *testing.T) {
	ctx := context.Background()
	store := NewInMemoryStore()

	sweeper, err := NewSweeper(store, 2*time.Hour, "@every 10m")
	require.NoError(t, err)

	created, err := store.Create(ctx)
	require.NoError(t, err)

	removed, err := sweeper.Sweep(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, removed)

	sweeper.now = func() time.Time { return time.Now().Add(3 * time.Hour) }
	removed, err = sweeper.Sweep(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, removed)

	_, err = store.Get(ctx, created.ID)
	assert.Error(t, err)

	sweeper.Start()
	sweeper.Stop()
}

func TestNewSweeperValidation(t *testing.T) {
	_, err := NewSweeper(nil, time.Hour, "@every 1m")
	assert.Error(t, err)

	_, err = NewSweeper(NewInMemoryStore(), 0, "@every 1m")
	assert.Error(t, err)

	_, err = NewSweeper(NewInMemoryStore(), time.Hour, "not a schedule")
	assert.Error(t, err)
}
