package state

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marco/movieDeck/internal/catalog"
)

func movie(id int) catalog.Movie {
	return catalog.Movie{ID: id, Title: "Movie"}
}

func page(n, totalPages, totalResults int, movies ...catalog.Movie) catalog.PagedResult {
	return catalog.PagedResult{Page: n, Results: movies, TotalPages: totalPages, TotalResults: totalResults}
}

func TestNewStore_InitialState(t *testing.T) {
	s := NewStore().Snapshot()

	assert.Empty(t, s.Movies)
	assert.Nil(t, s.Selected)
	assert.Equal(t, "", s.SearchQuery)
	assert.Equal(t, 1, s.CurrentPage)
	assert.Equal(t, 0, s.TotalPages)
	assert.Equal(t, 0, s.TotalResults)
	assert.False(t, s.Loading)
	assert.Equal(t, "", s.Error)
	assert.Equal(t, catalog.CategoryPopular, s.Category)
	assert.False(t, s.HasNextPage())
	assert.False(t, s.HasPreviousPage())
}

func TestSetMovies_Replace(t *testing.T) {
	store := NewStore()
	store.SetMovies(page(1, 3, 60, movie(1), movie(2)), false)

	result := page(2, 3, 60, movie(3))
	store.SetMovies(result, false)

	s := store.Snapshot()
	assert.Equal(t, result.Results, s.Movies)
	assert.Equal(t, 2, s.CurrentPage)
}

func TestSetMovies_AppendConcatenatesInOrder(t *testing.T) {
	store := NewStore()
	store.SetMovies(page(1, 3, 60, movie(1)), false)
	store.SetMovies(page(2, 3, 60, movie(2)), true)

	s := store.Snapshot()
	assert.Equal(t, []catalog.Movie{movie(1), movie(2)}, s.Movies)
	assert.Equal(t, 2, s.CurrentPage)
}

// Overlapping pages are appended as they come.
func TestSetMovies_AppendKeepsDuplicates(t *testing.T) {
	store := NewStore()
	store.SetMovies(page(1, 3, 60, movie(1), movie(2)), false)
	store.SetMovies(page(2, 3, 60, movie(2), movie(3)), true)

	ids := []int{}
	for _, m := range store.Snapshot().Movies {
		ids = append(ids, m.ID)
	}
	assert.Equal(t, []int{1, 2, 2, 3}, ids)
}

func TestSetMovies_ClearsLoadingAndError(t *testing.T) {
	store := NewStore()
	store.SetError("boom")
	store.SetLoading(true)

	store.SetMovies(page(1, 1, 1, movie(1)), false)

	s := store.Snapshot()
	assert.False(t, s.Loading)
	assert.Equal(t, "", s.Error)
	assert.Equal(t, 1, s.TotalResults)
}

func TestSetMovies_DoesNotAliasCallerSlice(t *testing.T) {
	store := NewStore()
	result := page(1, 1, 2, movie(1), movie(2))
	store.SetMovies(result, false)

	result.Results[0].Title = "mutated"

	assert.Equal(t, "Movie", store.Snapshot().Movies[0].Title)
}

func TestSetMovies_AppendDoesNotShareBackingArray(t *testing.T) {
	store := NewStore()
	store.SetMovies(page(1, 3, 60, movie(1)), false)
	before := store.Snapshot()

	store.SetMovies(page(2, 3, 60, movie(2)), true)

	assert.Len(t, before.Movies, 1)
	assert.Len(t, store.Snapshot().Movies, 2)
}

func TestSnapshot_IsACopy(t *testing.T) {
	store := NewStore()
	store.SetMovies(page(1, 1, 1, movie(1)), false)
	store.SetSelectedMovie(&catalog.MovieDetail{Movie: movie(1), Runtime: 90})

	snap := store.Snapshot()
	snap.Movies[0].Title = "changed"
	snap.Selected.Runtime = 1

	fresh := store.Snapshot()
	assert.Equal(t, "Movie", fresh.Movies[0].Title)
	assert.Equal(t, 90, fresh.Selected.Runtime)
}

func TestSetError(t *testing.T) {
	store := NewStore()
	store.SetLoading(true)
	store.SetError("Failed to load movies. Please try again.")

	s := store.Snapshot()
	assert.False(t, s.Loading)
	assert.Equal(t, "Failed to load movies. Please try again.", s.Error)
}

func TestClearError_LeavesLoading(t *testing.T) {
	store := NewStore()
	store.SetError("boom")
	store.SetLoading(true)

	store.ClearError()

	s := store.Snapshot()
	assert.Equal(t, "", s.Error)
	assert.True(t, s.Loading)
}

func TestSetLoading_OnlyTouchesLoading(t *testing.T) {
	store := NewStore()
	store.SetError("boom")
	store.SetLoading(true)

	s := store.Snapshot()
	assert.True(t, s.Loading)
	assert.Equal(t, "boom", s.Error)
}

func TestSetCategory(t *testing.T) {
	tests := []struct {
		name      string
		category  catalog.Category
		wantQuery string
	}{
		{"search keeps query", catalog.CategorySearch, "alien"},
		{"popular clears query", catalog.CategoryPopular, ""},
		{"top rated clears query", catalog.CategoryTopRated, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := NewStore()
			store.SetSearchQuery("alien")
			store.SetMovies(page(4, 10, 200, movie(1)), false)

			store.SetCategory(tt.category)

			s := store.Snapshot()
			assert.Equal(t, tt.category, s.Category)
			assert.Equal(t, 1, s.CurrentPage)
			assert.Empty(t, s.Movies)
			assert.Equal(t, tt.wantQuery, s.SearchQuery)
		})
	}
}

func TestSetSearchQuery_ResetsPage(t *testing.T) {
	store := NewStore()
	store.SetCurrentPage(7)

	store.SetSearchQuery("matrix")

	s := store.Snapshot()
	assert.Equal(t, "matrix", s.SearchQuery)
	assert.Equal(t, 1, s.CurrentPage)
}

func TestSetCurrentPage_NoOtherEffect(t *testing.T) {
	store := NewStore()
	store.SetMovies(page(1, 10, 200, movie(1)), false)
	store.SetLoading(true)
	before := store.Snapshot()

	store.SetCurrentPage(3)

	after := store.Snapshot()
	assert.Equal(t, 3, after.CurrentPage)
	after.CurrentPage = before.CurrentPage
	assert.Equal(t, before, after)
}

func TestSetSelectedMovie(t *testing.T) {
	store := NewStore()
	detail := &catalog.MovieDetail{Movie: movie(550), Tagline: "Mischief. Mayhem. Soap."}

	store.SetSelectedMovie(detail)
	require.NotNil(t, store.Snapshot().Selected)
	assert.Equal(t, 550, store.Snapshot().Selected.ID)

	detail.Tagline = "changed"
	assert.Equal(t, "Mischief. Mayhem. Soap.", store.Snapshot().Selected.Tagline)

	store.SetSelectedMovie(nil)
	assert.Nil(t, store.Snapshot().Selected)
}

func TestReset(t *testing.T) {
	store := NewStore()
	store.SetCategory(catalog.CategorySearch)
	store.SetSearchQuery("alien")
	store.SetMovies(page(3, 10, 200, movie(1)), false)
	store.SetSelectedMovie(&catalog.MovieDetail{})
	store.SetError("boom")

	store.Reset()

	assert.Equal(t, Initial(), store.Snapshot())
}

func TestHasNextPage(t *testing.T) {
	tests := []struct {
		current, total int
		want           bool
	}{
		{1, 10, true},
		{9, 10, true},
		{10, 10, false},
		{1, 1, false},
		{1, 0, false},
	}

	for _, tt := range tests {
		s := State{CurrentPage: tt.current, TotalPages: tt.total}
		assert.Equal(t, tt.want, s.HasNextPage(), "current=%d total=%d", tt.current, tt.total)
	}
}

func TestHasPreviousPage(t *testing.T) {
	assert.False(t, State{CurrentPage: 1}.HasPreviousPage())
	assert.True(t, State{CurrentPage: 2}.HasPreviousPage())
}

func TestPagination_TracksState(t *testing.T) {
	store := NewStore()
	store.SetMovies(page(1, 10, 200, movie(1)), false)

	assert.Equal(t, Pagination{
		CurrentPage:     1,
		TotalPages:      10,
		TotalResults:    200,
		HasNextPage:     true,
		HasPreviousPage: false,
	}, store.Snapshot().Pagination())

	store.SetCurrentPage(10)
	p := store.Snapshot().Pagination()
	assert.False(t, p.HasNextPage)
	assert.True(t, p.HasPreviousPage)
}

func TestSubscribe_EmitsCurrentThenEveryChange(t *testing.T) {
	store := NewStore()
	store.SetSearchQuery("first")

	var seen []State
	unsubscribe := store.Subscribe(func(s State) {
		seen = append(seen, s)
	})

	store.SetLoading(true)
	store.SetMovies(page(1, 2, 40, movie(1)), false)
	unsubscribe()
	store.SetLoading(true)

	require.Len(t, seen, 3)
	assert.Equal(t, "first", seen[0].SearchQuery)
	assert.True(t, seen[1].Loading)
	assert.False(t, seen[2].Loading)
	assert.Len(t, seen[2].Movies, 1)
}

func TestSubscribe_MultipleSubscribersInOrder(t *testing.T) {
	store := NewStore()
	var order []string
	store.Subscribe(func(State) { order = append(order, "a") })
	store.Subscribe(func(State) { order = append(order, "b") })
	order = nil

	store.SetLoading(true)

	assert.Equal(t, []string{"a", "b"}, order)
}

func TestSubscribe_UnsubscribeTwiceIsSafe(t *testing.T) {
	store := NewStore()
	unsubscribe := store.Subscribe(func(State) {})
	unsubscribe()
	assert.NotPanics(t, unsubscribe)
}

// A response that completes late overwrites a newer one; the store does not
// track request order.
func TestStaleResponseOverwrites(t *testing.T) {
	store := NewStore()
	newer := page(2, 10, 200, movie(2))
	stale := page(1, 10, 200, movie(1))

	store.SetMovies(newer, false)
	store.SetMovies(stale, false)

	s := store.Snapshot()
	assert.Equal(t, 1, s.CurrentPage)
	assert.Equal(t, stale.Results, s.Movies)
}

func TestConcurrentMutationsAreSerialized(t *testing.T) {
	store := NewStore()
	var mu sync.Mutex
	var pages []int
	store.Subscribe(func(s State) {
		mu.Lock()
		pages = append(pages, len(s.Movies))
		mu.Unlock()
	})

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			store.SetMovies(page(i+1, 100, 2000, movie(i)), true)
		}(i)
	}
	wg.Wait()

	assert.Len(t, store.Snapshot().Movies, 50)
	mu.Lock()
	defer mu.Unlock()
	// every notification saw one more movie than the previous one
	for i := 1; i < len(pages); i++ {
		assert.Equal(t, pages[i-1]+1, pages[i])
	}
}

func TestSubscribe_CallbackCanSnapshotDuringConcurrentMutation(t *testing.T) {
	store := NewStore()
	entered := make(chan struct{})
	release := make(chan struct{})

	var mu sync.Mutex
	var seen []State
	store.Subscribe(func(s State) {
		if s.CurrentPage == 7 && !s.Loading {
			close(entered)
			<-release
			_ = store.Snapshot()
		}
		mu.Lock()
		seen = append(seen, s)
		mu.Unlock()
	})

	done := make(chan struct{})
	go func() {
		store.SetCurrentPage(7)
		close(done)
	}()
	<-entered

	loaded := make(chan struct{})
	go func() {
		store.SetLoading(true)
		close(loaded)
	}()
	// the second mutation is applied even while the first is being delivered
	require.Eventually(t, func() bool { return store.Snapshot().Loading }, time.Second, 5*time.Millisecond)
	close(release)

	for _, ch := range []chan struct{}{done, loaded} {
		select {
		case <-ch:
		case <-time.After(2 * time.Second):
			t.Fatal("store deadlocked")
		}
	}

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, seen, 3)
	assert.Equal(t, 7, seen[1].CurrentPage)
	assert.False(t, seen[1].Loading)
	assert.True(t, seen[2].Loading)
}
