package storage

import (
	"path/filepath"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileStore_SetGet(t *testing.T) {
	fsys := afero.NewMemMapFs()
	store := NewFileStoreFs(fsys, "/data")

	_, found, err := store.Get("moviedeck_favorites")
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, store.Set("moviedeck_favorites", `[{"id":1}]`))

	value, found, err := store.Get("moviedeck_favorites")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, `[{"id":1}]`, value)

	exists, err := afero.Exists(fsys, "/data/moviedeck_favorites.json")
	require.NoError(t, err)
	assert.True(t, exists)
	tmpExists, _ := afero.Exists(fsys, "/data/moviedeck_favorites.json.tmp")
	assert.False(t, tmpExists)
}

func TestFileStore_Overwrite(t *testing.T) {
	store := NewFileStoreFs(afero.NewMemMapFs(), "/data")

	require.NoError(t, store.Set("k", "one"))
	require.NoError(t, store.Set("k", "two"))

	value, _, err := store.Get("k")
	require.NoError(t, err)
	assert.Equal(t, "two", value)
}

func TestFileStore_ReadOnlyFsFailsWrites(t *testing.T) {
	base := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(base, "/data/k.json", []byte("kept"), 0o644))
	store := NewFileStoreFs(afero.NewReadOnlyFs(base), "/data")

	err := store.Set("k", "new")
	assert.Error(t, err)

	value, found, err := store.Get("k")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "kept", value)
}

func TestFileStore_InvalidKeys(t *testing.T) {
	store := NewFileStoreFs(afero.NewMemMapFs(), "/data")

	for _, key := range []string{"", "../escape", `a\b`, "..", "a/b"} {
		assert.ErrorIs(t, store.Set(key, "x"), ErrInvalidKey, "key %q", key)
		_, _, err := store.Get(key)
		assert.ErrorIs(t, err, ErrInvalidKey, "key %q", key)
	}
}

func TestFileStore_KeyForPath(t *testing.T) {
	store := NewFileStoreFs(afero.NewMemMapFs(), "/data")

	tests := []struct {
		path string
		key  string
		ok   bool
	}{
		{"/data/moviedeck_favorites.json", "moviedeck_favorites", true},
		{"/data/moviedeck_favorites.json.tmp", "", false},
		{"/data/notes.txt", "", false},
		{"/other/moviedeck_favorites.json", "", false},
		{"/data/sub/k.json", "", false},
	}

	for _, tt := range tests {
		key, ok := store.KeyForPath(tt.path)
		assert.Equal(t, tt.ok, ok, tt.path)
		assert.Equal(t, tt.key, key, tt.path)
	}
}

func TestFileStore_OsFs(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested")
	store := NewFileStore(dir)

	require.NoError(t, store.Set("k", "v"))

	reopened := NewFileStore(dir)
	value, found, err := reopened.Get("k")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "v", value)
	assert.Equal(t, filepath.Join(dir, "k.json"), store.Path("k"))
}

func TestSQLiteStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "db", "moviedeck.db")
	store, err := NewSQLiteStore(path)
	require.NoError(t, err)

	_, found, err := store.Get("k")
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, store.Set("k", "one"))
	require.NoError(t, store.Set("k", "two"))
	require.NoError(t, store.Close())

	reopened, err := NewSQLiteStore(path)
	require.NoError(t, err)
	defer reopened.Close()

	value, found, err := reopened.Get("k")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "two", value)

	assert.ErrorIs(t, reopened.Set("", "x"), ErrInvalidKey)
}
