// Package state holds the view state of the browse screen: which movies are
// visible, where pagination stands, and whether a load is in flight or failed.
package state

import (
	"slices"
	"sync"

	"github.com/marco/movieDeck/internal/catalog"
)

// State is one immutable snapshot of the view.
type State struct {
	Movies       []catalog.Movie
	Selected     *catalog.MovieDetail
	SearchQuery  string
	CurrentPage  int
	TotalPages   int
	TotalResults int
	Loading      bool
	// Error is the user-facing failure message, "" when there is none.
	Error    string
	Category catalog.Category
}

// Initial returns the state of a freshly opened screen.
func Initial() State {
	return State{
		CurrentPage: 1,
		Category:    catalog.CategoryPopular,
	}
}

// HasNextPage reports whether a page after the current one exists.
func (s State) HasNextPage() bool {
	return s.CurrentPage < s.TotalPages
}

// HasPreviousPage reports whether the current page is past the first.
func (s State) HasPreviousPage() bool {
	return s.CurrentPage > 1
}

// Pagination is the composite pagination view of a State.
type Pagination struct {
	CurrentPage     int
	TotalPages      int
	TotalResults    int
	HasNextPage     bool
	HasPreviousPage bool
}

func (s State) Pagination() Pagination {
	return Pagination{
		CurrentPage:     s.CurrentPage,
		TotalPages:      s.TotalPages,
		TotalResults:    s.TotalResults,
		HasNextPage:     s.HasNextPage(),
		HasPreviousPage: s.HasPreviousPage(),
	}
}

func (s State) clone() State {
	s.Movies = slices.Clone(s.Movies)
	if s.Selected != nil {
		detail := *s.Selected
		s.Selected = &detail
	}
	return s
}

// Store is the single shared view state. Every mutation replaces the state
// atomically and subscribers see snapshots in mutation order.
//
// Subscribers run synchronously on the mutating goroutine. A callback may read the
// store with Snapshot but must not mutate it.
type Store struct {
	mu     sync.Mutex
	state  State
	subs   map[int]func(State)
	nextID int
	seq    uint64 // next delivery turn, guarded by mu

	// Deliveries take turns by sequence number so mu is never held while
	// waiting for or running callbacks.
	turnMu    sync.Mutex
	turn      *sync.Cond
	delivered uint64
}

// NewStore returns a store in the initial state.
func NewStore() *Store {
	s := &Store{
		state: Initial(),
		subs:  make(map[int]func(State)),
	}
	s.turn = sync.NewCond(&s.turnMu)
	return s
}

// Snapshot returns a copy of the current state.
func (s *Store) Snapshot() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.clone()
}

// Subscribe registers fn, calls it once with the current state, and then
// with every new state. The returned func removes the subscription.
func (s *Store) Subscribe(fn func(State)) (unsubscribe func()) {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.subs[id] = fn
	snap := s.state.clone()
	seq := s.seq
	s.seq++
	s.mu.Unlock()

	s.deliver(seq, func() { fn(snap) })

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.subs, id)
			s.mu.Unlock()
		})
	}
}

// update applies mutate to the state under the lock and publishes the result.
func (s *Store) update(mutate func(*State)) {
	s.mu.Lock()
	next := s.state
	mutate(&next)
	s.state = next

	ids := make([]int, 0, len(s.subs))
	for id := range s.subs {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	fns := make([]func(State), 0, len(ids))
	for _, id := range ids {
		fns = append(fns, s.subs[id])
	}
	seq := s.seq
	s.seq++
	s.mu.Unlock()

	s.deliver(seq, func() {
		for _, fn := range fns {
			fn(next.clone())
		}
	})
}

// deliver waits for turn seq, runs fn, and hands the turn on.
func (s *Store) deliver(seq uint64, fn func()) {
	s.turnMu.Lock()
	for s.delivered != seq {
		s.turn.Wait()
	}
	s.turnMu.Unlock()

	defer func() {
		s.turnMu.Lock()
		s.delivered++
		s.turn.Broadcast()
		s.turnMu.Unlock()
	}()
	fn()
}

// SetLoading toggles the loading flag only.
func (s *Store) SetLoading(loading bool) {
	s.update(func(st *State) {
		st.Loading = loading
	})
}

// SetError records a failure message and ends any load. An empty message
// clears the error.
func (s *Store) SetError(message string) {
	s.update(func(st *State) {
		st.Error = message
		st.Loading = false
	})
}

// ClearError removes the error and leaves loading untouched.
func (s *Store) ClearError() {
	s.update(func(st *State) {
		st.Error = ""
	})
}

// SetMovies installs a fetched page. With appendPage the results are added
// after the visible movies as they are, with no reordering and no dedupe by
// id; otherwise they replace the collection.
func (s *Store) SetMovies(result catalog.PagedResult, appendPage bool) {
	s.update(func(st *State) {
		if appendPage {
			movies := make([]catalog.Movie, 0, len(st.Movies)+len(result.Results))
			movies = append(movies, st.Movies...)
			st.Movies = append(movies, result.Results...)
		} else {
			st.Movies = slices.Clone(result.Results)
		}
		st.CurrentPage = result.Page
		st.TotalPages = result.TotalPages
		st.TotalResults = result.TotalResults
		st.Loading = false
		st.Error = ""
	})
}

// SetSelectedMovie replaces the selected detail. nil clears it.
func (s *Store) SetSelectedMovie(detail *catalog.MovieDetail) {
	var stored *catalog.MovieDetail
	if detail != nil {
		d := *detail
		stored = &d
	}
	s.update(func(st *State) {
		st.Selected = stored
	})
}

// SetSearchQuery sets the query and restarts pagination.
func (s *Store) SetSearchQuery(query string) {
	s.update(func(st *State) {
		st.SearchQuery = query
		st.CurrentPage = 1
	})
}

// SetCategory switches the category, resets the page to 1 and drops the
// visible movies. The query survives only a switch to search.
func (s *Store) SetCategory(category catalog.Category) {
	s.update(func(st *State) {
		st.Category = category
		st.CurrentPage = 1
		st.Movies = nil
		if category != catalog.CategorySearch {
			st.SearchQuery = ""
		}
	})
}

// SetCurrentPage moves the page cursor and nothing else.
func (s *Store) SetCurrentPage(page int) {
	s.update(func(st *State) {
		st.CurrentPage = page
	})
}

// Reset restores the initial state.
func (s *Store) Reset() {
	s.update(func(st *State) {
		*st = Initial()
	})
}
