package ledger

import (
	"log/slog"
	"slices"
	"strings"
	"sync"

	"github.com/marco/movieDeck/internal/storage"
)

// MaxRecentSearches is how many queries are remembered.
const MaxRecentSearches = 5

// RecentSearches is a most-recent-first list of distinct queries.
type RecentSearches struct {
	mu      sync.Mutex
	store   storage.BlobStore
	queries []string
	logger  *slog.Logger
}

// NewRecentSearches loads recent searches from store.
func NewRecentSearches(store storage.BlobStore, logger *slog.Logger) *RecentSearches {
	if logger == nil {
		logger = slog.Default()
	}
	r := &RecentSearches{
		store:  store,
		logger: logger.With("component", "recent-searches"),
	}
	r.Reload()
	return r
}

// Reload replaces the in-memory list with what the store holds.
func (r *RecentSearches) Reload() {
	queries := load[[]string](r.store, RecentSearchesKey, r.logger)
	queries = normalize(queries)

	r.mu.Lock()
	r.queries = queries
	r.mu.Unlock()
}

// Add puts query at the front. An existing entry is moved rather than
// duplicated and the oldest entry falls off past MaxRecentSearches.
// Blank queries are ignored.
func (r *RecentSearches) Add(query string) {
	query = strings.TrimSpace(query)
	if query == "" {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	queries := make([]string, 0, MaxRecentSearches)
	queries = append(queries, query)
	for _, q := range r.queries {
		if q != query && len(queries) < MaxRecentSearches {
			queries = append(queries, q)
		}
	}
	r.queries = queries
	save(r.store, RecentSearchesKey, r.queries, r.logger)
}

// Remove drops query from the list if present.
func (r *RecentSearches) Remove(query string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	i := slices.Index(r.queries, query)
	if i < 0 {
		return
	}
	r.queries = slices.Delete(slices.Clone(r.queries), i, i+1)
	save(r.store, RecentSearchesKey, r.queries, r.logger)
}

// List returns the queries, most recent first.
func (r *RecentSearches) List() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Clone(r.queries)
}

// normalize drops blanks and duplicates from a stored list and applies the cap.
func normalize(queries []string) []string {
	out := make([]string, 0, len(queries))
	for _, q := range queries {
		q = strings.TrimSpace(q)
		if q == "" || slices.Contains(out, q) {
			continue
		}
		out = append(out, q)
		if len(out) == MaxRecentSearches {
			break
		}
	}
	return out
}
