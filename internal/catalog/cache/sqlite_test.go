package cache

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSQLite(t *testing.T) *SQLite {
	t.Helper()
	c, err := NewSQLite(filepath.Join(t.TempDir(), "nested", "cache.db"))
	require.NoError(t, err)
	t.Cleanup(func() { c.Close() })
	return c
}

func TestSQLite_SetGetAndExpire(t *testing.T) {
	ctx := context.Background()
	c := newTestSQLite(t)
	clock := &fakeClock{now: time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)}
	c.SetClock(clock.Now)

	require.NoError(t, c.Set(ctx, "tmdb:search:alien:1", []byte(`{"page":1}`), 5*time.Minute))

	data, ok := c.Get(ctx, "tmdb:search:alien:1")
	require.True(t, ok)
	assert.Equal(t, `{"page":1}`, string(data))

	clock.Advance(5 * time.Minute)
	_, ok = c.Get(ctx, "tmdb:search:alien:1")
	assert.False(t, ok)
}

func TestSQLite_PersistsAcrossReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "cache.db")

	first, err := NewSQLite(path)
	require.NoError(t, err)
	require.NoError(t, first.Set(ctx, "tmdb:credits:42", []byte(`{"id":42}`), time.Hour))
	require.NoError(t, first.Close())

	second, err := NewSQLite(path)
	require.NoError(t, err)
	defer second.Close()

	data, ok := second.Get(ctx, "tmdb:credits:42")
	require.True(t, ok)
	assert.Equal(t, `{"id":42}`, string(data))
}

func TestSQLite_Clear(t *testing.T) {
	ctx := context.Background()
	c := newTestSQLite(t)
	require.NoError(t, c.Set(ctx, "a", []byte("1"), time.Hour))

	require.NoError(t, c.Clear(ctx))

	_, ok := c.Get(ctx, "a")
	assert.False(t, ok)
}
