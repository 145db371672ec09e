package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestMemoryStoreSetGetDelete(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "k", []byte("v"), time.Minute))

	value, found, err := store.Get(ctx, "k")
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, []byte("v"), value)

	require.NoError(t, store.Delete(ctx, "k"))

	_, found, err = store.Get(ctx, "k")
	require.NoError(t, err)
	require.False(t, found)
}

func TestMemoryStoreExpiry(t *testing.T) {
	now := time.Now()
	store := NewMemoryStoreWithClock(func() time.Time { return now })
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "k", []byte("v"), time.Minute))

	now = now.Add(2 * time.Minute)

	_, found, err := store.Get(ctx, "k")
	require.NoError(t, err)
	require.False(t, found)
}

func TestMemoryStoreIncrementWindow(t *testing.T) {
	now := time.Now()
	store := NewMemoryStoreWithClock(func() time.Time { return now })
	ctx := context.Background()

	count, _, err := store.IncrementWithTTL(ctx, "ip", time.Minute)
	require.NoError(t, err)
	require.EqualValues(t, 1, count)

	count, _, err = store.IncrementWithTTL(ctx, "ip", time.Minute)
	require.NoError(t, err)
	require.EqualValues(t, 2, count)

	now = now.Add(2 * time.Minute)

	count, _, err = store.IncrementWithTTL(ctx, "ip", time.Minute)
	require.NoError(t, err)
	require.EqualValues(t, 1, count, "expected a fresh window after expiry")
}

func TestMemoryStoreSweep(t *testing.T) {
	now := time.Now()
	store := NewMemoryStoreWithClock(func() time.Time { return now })
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "a", []byte("1"), time.Minute))
	require.NoError(t, store.Set(ctx, "b", []byte("2"), time.Hour))

	now = now.Add(30 * time.Minute)

	require.Equal(t, 1, store.Sweep())

	_, found, err := store.Get(ctx, "b")
	require.NoError(t, err)
	require.True(t, found)
}
