// Package ledger keeps the user's favorites and recent searches. Both are
// best-effort durable: they are read from a storage.BlobStore at startup and
// written back on every change, and storage failures are logged rather than
// returned.
package ledger

import (
	"encoding/json"
	"log/slog"
	"slices"
	"sync"

	"github.com/marco/movieDeck/internal/catalog"
	"github.com/marco/movieDeck/internal/storage"
)

const (
	FavoritesKey      = "moviedeck_favorites"
	RecentSearchesKey = "moviedeck_recent_searches"
)

// Favorites is the set of favorite movies, keyed by id, in the order they
// were added.
type Favorites struct {
	mu     sync.Mutex
	store  storage.BlobStore
	movies []catalog.Movie
	logger *slog.Logger
}

// NewFavorites loads favorites from store.
func NewFavorites(store storage.BlobStore, logger *slog.Logger) *Favorites {
	if logger == nil {
		logger = slog.Default()
	}
	f := &Favorites{
		store:  store,
		logger: logger.With("component", "favorites"),
	}
	f.Reload()
	return f
}

// Reload replaces the in-memory set with what the store holds.
func (f *Favorites) Reload() {
	movies := uniqueByID(load[[]catalog.Movie](f.store, FavoritesKey, f.logger))

	f.mu.Lock()
	f.movies = movies
	f.mu.Unlock()
}

// Toggle adds movie if it is not a favorite yet and removes it otherwise.
// It reports whether the movie is a favorite afterwards.
func (f *Favorites) Toggle(movie catalog.Movie) (added bool) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if i := f.index(movie.ID); i >= 0 {
		f.movies = slices.Delete(slices.Clone(f.movies), i, i+1)
	} else {
		f.movies = append(slices.Clone(f.movies), movie)
		added = true
	}
	save(f.store, FavoritesKey, f.movies, f.logger)
	return added
}

// Contains reports whether id is a favorite.
func (f *Favorites) Contains(id int) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.index(id) >= 0
}

// List returns the favorites in insertion order.
func (f *Favorites) List() []catalog.Movie {
	f.mu.Lock()
	defer f.mu.Unlock()
	return slices.Clone(f.movies)
}

func (f *Favorites) Len() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.movies)
}

func (f *Favorites) index(id int) int {
	return slices.IndexFunc(f.movies, func(m catalog.Movie) bool {
		return m.ID == id
	})
}

// uniqueByID keeps the first movie stored under each id.
func uniqueByID(movies []catalog.Movie) []catalog.Movie {
	seen := make(map[int]bool, len(movies))
	out := make([]catalog.Movie, 0, len(movies))
	for _, m := range movies {
		if seen[m.ID] {
			continue
		}
		seen[m.ID] = true
		out = append(out, m)
	}
	return out
}

// load decodes the blob at key. Missing, unreadable or malformed blobs yield
// the zero value.
func load[T any](store storage.BlobStore, key string, logger *slog.Logger) T {
	var zero T
	raw, found, err := store.Get(key)
	if err != nil {
		logger.Warn("failed to read ledger, starting empty", "key", key, "error", err)
		return zero
	}
	if !found || raw == "" {
		return zero
	}
	var v T
	if err := json.Unmarshal([]byte(raw), &v); err != nil {
		logger.Warn("malformed ledger, starting empty", "key", key, "error", err)
		return zero
	}
	return v
}

func save(store storage.BlobStore, key string, v any, logger *slog.Logger) {
	data, err := json.Marshal(v)
	if err != nil {
		logger.Warn("failed to encode ledger", "key", key, "error", err)
		return
	}
	if err := store.Set(key, string(data)); err != nil {
		logger.Warn("failed to persist ledger, keeping in-memory state", "key", key, "error", err)
	}
}
