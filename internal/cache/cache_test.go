package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemorySetGet(t *testing.T) {
	m := NewMemory(Options{DefaultTTL: time.Minute})
	defer m.Close()
	ctx := context.Background()

	require.NoError(t, m.Set(ctx, "k", "hello", 0))

	var got string
	require.NoError(t, m.Get(ctx, "k", &got))
	assert.Equal(t, "hello", got)
}

func TestMemoryExpiry(t *testing.T) {
	m := NewMemory(Options{DefaultTTL: time.Minute})
	defer m.Close()
	ctx := context.Background()

	require.NoError(t, m.Set(ctx, "k", "v", time.Nanosecond))
	time.Sleep(5 * time.Millisecond)

	var got string
	assert.ErrorIs(t, m.Get(ctx, "k", &got), ErrNotFound)
}

func TestMemoryDelete(t *testing.T) {
	m := NewMemory(Options{})
	defer m.Close()
	ctx := context.Background()

	require.NoError(t, m.Set(ctx, "k", "v", 0))
	require.NoError(t, m.Delete(ctx, "k"))

	var got string
	assert.ErrorIs(t, m.Get(ctx, "k", &got), ErrNotFound)
}

func TestMemoryRejectsUnsupportedValues(t *testing.T) {
	m := NewMemory(Options{})
	defer m.Close()

	assert.ErrorIs(t, m.Set(context.Background(), "k", 42, 0), ErrInvalidValue)
	assert.ErrorIs(t, m.Set(context.Background(), "", "v", 0), ErrInvalidKey)
}

func TestMemoryRejectsWritesAfterClose(t *testing.T) {
	m := NewMemory(Options{})
	ctx := context.Background()

	require.NoError(t, m.Set(ctx, "k", "v", 0))
	require.NoError(t, m.Close())

	assert.ErrorIs(t, m.Set(ctx, "k", "v", 0), ErrClosed)
	assert.ErrorIs(t, m.Clear(ctx), ErrClosed)

	var got string
	assert.ErrorIs(t, m.Get(ctx, "k", &got), ErrNotFound)
}

func TestStatsHitRate(t *testing.T) {
	var s Stats
	for i := 0; i < 3; i++ {
		s.Hit()
	}
	s.Miss()
	s.Error()

	snap := s.Snapshot()
	assert.Equal(t, int64(3), snap.Hits)
	assert.Equal(t, int64(1), snap.Misses)
	assert.Equal(t, int64(1), snap.Errors)
	assert.InDelta(t, 0.75, snap.HitRate, 1e-9)
}

func TestStatsEmptySnapshot(t *testing.T) {
	var s Stats
	assert.Zero(t, s.Snapshot().HitRate)
}

func TestCacheKeys(t *testing.T) {
	assert.Equal(t, "payshift:job:j1", JobKey("j1"))
	assert.Equal(t, "payshift:userpayments:u1", UserPaymentsKey("u1"))
}
