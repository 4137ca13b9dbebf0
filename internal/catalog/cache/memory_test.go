package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

func TestMemory_HitWithinTTL(t *testing.T) {
	ctx := context.Background()
	clock := &fakeClock{now: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)}
	m := NewMemory(WithClock(clock.Now))

	require.NoError(t, m.Set(ctx, "tmdb:popular:1", []byte(`{"page":1}`), 5*time.Minute))

	clock.Advance(4*time.Minute + 59*time.Second)
	data, ok := m.Get(ctx, "tmdb:popular:1")
	require.True(t, ok)
	assert.JSONEq(t, `{"page":1}`, string(data))
}

func TestMemory_ExpiredEntryIsEvictedOnRead(t *testing.T) {
	ctx := context.Background()
	clock := &fakeClock{now: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)}
	m := NewMemory(WithClock(clock.Now))

	require.NoError(t, m.Set(ctx, "tmdb:details:7", []byte(`{}`), 5*time.Minute))
	clock.Advance(5 * time.Minute)

	_, ok := m.Get(ctx, "tmdb:details:7")
	assert.False(t, ok)
	assert.Equal(t, 0, m.Len())
}

func TestMemory_SetOverwritesAndRestartsTTL(t *testing.T) {
	ctx := context.Background()
	clock := &fakeClock{now: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)}
	m := NewMemory(WithClock(clock.Now))

	require.NoError(t, m.Set(ctx, "k", []byte("old"), time.Minute))
	clock.Advance(50 * time.Second)
	require.NoError(t, m.Set(ctx, "k", []byte("new"), time.Minute))
	clock.Advance(50 * time.Second)

	data, ok := m.Get(ctx, "k")
	require.True(t, ok)
	assert.Equal(t, "new", string(data))
}

func TestMemory_StoresACopy(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	buf := []byte("abc")
	require.NoError(t, m.Set(ctx, "k", buf, time.Minute))
	buf[0] = 'z'

	data, ok := m.Get(ctx, "k")
	require.True(t, ok)
	assert.Equal(t, "abc", string(data))
}

func TestMemory_Clear(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	require.NoError(t, m.Set(ctx, "a", []byte("1"), time.Minute))
	require.NoError(t, m.Set(ctx, "b", []byte("2"), time.Minute))

	require.NoError(t, m.Clear(ctx))

	_, ok := m.Get(ctx, "a")
	assert.False(t, ok)
	assert.Equal(t, 0, m.Len())
}
