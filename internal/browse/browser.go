// Package browse ties the catalog client, the view-state store and the ledger
// together into the user-level flows: pick a category, search, page through
// results and open a movie.
package browse

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/sourcegraph/conc"
	"github.com/sourcegraph/conc/pool"

	"github.com/marco/movieDeck/internal/auth"
	"github.com/marco/movieDeck/internal/catalog"
	"github.com/marco/movieDeck/internal/ledger"
	"github.com/marco/movieDeck/internal/state"
)

const (
	// MaxTotalPages is the deepest page TMDB will serve.
	MaxTotalPages = 500

	// TopCastSize is how many cast members a detail view lists.
	TopCastSize = 12

	ErrLoadMessage   = "Failed to load movies. Please try again."
	ErrSearchMessage = "Failed to search movies. Please try again."
)

var (
	ErrDetailsUnavailable = errors.New("failed to load movie details")
	ErrSignInRequired     = errors.New("sign in to manage favorites")
)

// Catalog is the part of catalog.Client the browser needs.
type Catalog interface {
	FetchByCategory(ctx context.Context, category catalog.Category, page int) catalog.Result[catalog.PagedResult]
	Search(ctx context.Context, query string, page int) catalog.Result[catalog.PagedResult]
	FetchDetail(ctx context.Context, id int) catalog.Result[catalog.MovieDetail]
	FetchCredits(ctx context.Context, id int) catalog.Result[catalog.Credits]
}

// Config wires a Browser. Recent, Favorites and Session are optional.
type Config struct {
	Catalog   Catalog
	Store     *state.Store
	Recent    *ledger.RecentSearches
	Favorites *ledger.Favorites
	Session   *auth.Session

	// RequireSignIn gates favorite changes behind a signed-in session.
	RequireSignIn bool

	Logger *slog.Logger
}

// Browser runs browse flows against the store. Flows never return catalog
// failures; they land in the store's error field.
type Browser struct {
	catalog       Catalog
	store         *state.Store
	recent        *ledger.RecentSearches
	favorites     *ledger.Favorites
	session       *auth.Session
	requireSignIn bool
	logger        *slog.Logger
}

func New(cfg Config) *Browser {
	if cfg.Store == nil {
		cfg.Store = state.NewStore()
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Browser{
		catalog:       cfg.Catalog,
		store:         cfg.Store,
		recent:        cfg.Recent,
		favorites:     cfg.Favorites,
		session:       cfg.Session,
		requireSignIn: cfg.RequireSignIn,
		logger:        cfg.Logger.With("component", "browse"),
	}
}

// Store returns the view state the browser writes to.
func (b *Browser) Store() *state.Store {
	return b.store
}

// LoadCategory switches to category and shows its first page.
func (b *Browser) LoadCategory(ctx context.Context, category catalog.Category) {
	b.store.SetLoading(true)
	b.store.SetCategory(category)

	st := b.store.Snapshot()
	res := b.fetch(ctx, st.Category, st.SearchQuery, 1)
	b.apply(res, false, failureMessage(st.Category))
}

// Search records query and shows the first page of its results. Blank
// queries are ignored.
func (b *Browser) Search(ctx context.Context, query string) {
	query = strings.TrimSpace(query)
	if query == "" {
		return
	}
	if b.recent != nil {
		b.recent.Add(query)
	}
	b.runSearch(ctx, query)
}

func (b *Browser) runSearch(ctx context.Context, query string) {
	b.store.SetLoading(true)
	b.store.SetCategory(catalog.CategorySearch)
	b.store.SetSearchQuery(query)

	res := b.catalog.Search(ctx, query, 1)
	b.apply(res, false, ErrSearchMessage)
}

// LoadPage fetches page of the active category or search. With appendPage
// the results are added after the visible ones. On failure the page cursor
// goes back to where it was.
func (b *Browser) LoadPage(ctx context.Context, page int, appendPage bool) {
	if page < 1 {
		page = 1
	}
	st := b.store.Snapshot()

	b.store.SetLoading(true)
	b.store.SetCurrentPage(page)

	res := b.fetch(ctx, st.Category, st.SearchQuery, page)
	if !res.OK() {
		b.store.SetCurrentPage(st.CurrentPage)
	}
	b.apply(res, appendPage, failureMessage(st.Category))
}

// NextPage replaces the view with the following page. It reports whether a
// load was started.
func (b *Browser) NextPage(ctx context.Context) bool {
	st := b.store.Snapshot()
	if st.Loading || !st.HasNextPage() {
		return false
	}
	b.LoadPage(ctx, st.CurrentPage+1, false)
	return true
}

// PreviousPage replaces the view with the preceding page.
func (b *Browser) PreviousPage(ctx context.Context) bool {
	st := b.store.Snapshot()
	if st.Loading || !st.HasPreviousPage() {
		return false
	}
	b.LoadPage(ctx, st.CurrentPage-1, false)
	return true
}

// LoadMore appends the following page to the visible movies.
func (b *Browser) LoadMore(ctx context.Context) bool {
	st := b.store.Snapshot()
	if st.Loading || !st.HasNextPage() {
		return false
	}
	b.LoadPage(ctx, st.CurrentPage+1, true)
	return true
}

// Retry clears the error and reloads the first page of whatever was active.
func (b *Browser) Retry(ctx context.Context) {
	b.store.ClearError()
	st := b.store.Snapshot()

	switch {
	case st.Category == catalog.CategorySearch && st.SearchQuery != "":
		b.runSearch(ctx, st.SearchQuery)
	case st.Category == catalog.CategorySearch:
		b.LoadCategory(ctx, catalog.CategoryPopular)
	default:
		b.LoadCategory(ctx, st.Category)
	}
}

// DetailView is what the detail screen shows for one movie.
type DetailView struct {
	Detail   catalog.MovieDetail
	Cast     []catalog.CastMember
	Crew     []catalog.CrewMember
	Favorite bool
}

// SelectMovie loads detail and credits for id in parallel and stores the
// detail as the selected movie.
func (b *Browser) SelectMovie(ctx context.Context, id int) (DetailView, error) {
	var (
		detail  catalog.Result[catalog.MovieDetail]
		credits catalog.Result[catalog.Credits]
		wg      conc.WaitGroup
	)
	wg.Go(func() { detail = b.catalog.FetchDetail(ctx, id) })
	wg.Go(func() { credits = b.catalog.FetchCredits(ctx, id) })
	wg.Wait()

	if err := errors.Join(detail.Err, credits.Err); err != nil {
		return DetailView{}, fmt.Errorf("%w: %w", ErrDetailsUnavailable, err)
	}

	selected := detail.Data
	b.store.SetSelectedMovie(&selected)

	return DetailView{
		Detail:   detail.Data,
		Cast:     catalog.TopCast(credits.Data.Cast, TopCastSize),
		Crew:     catalog.KeyCrew(credits.Data.Crew),
		Favorite: b.IsFavorite(id),
	}, nil
}

// CloseDetails clears the selected movie.
func (b *Browser) CloseDetails() {
	b.store.SetSelectedMovie(nil)
}

// ToggleFavorite flips movie in the favorites and reports whether it is a
// favorite afterwards.
func (b *Browser) ToggleFavorite(movie catalog.Movie) (bool, error) {
	if b.favorites == nil {
		return false, errors.New("favorites are not configured")
	}
	if b.requireSignIn && (b.session == nil || !b.session.SignedIn()) {
		return false, ErrSignInRequired
	}
	added := b.favorites.Toggle(movie)
	b.logger.Debug("favorite toggled", "movie_id", movie.ID, "added", added)
	return added, nil
}

func (b *Browser) IsFavorite(id int) bool {
	return b.favorites != nil && b.favorites.Contains(id)
}

// WarmSummary counts the outcome of a Warm run.
type WarmSummary struct {
	Requested int
	Fetched   int
	Cached    int
	Failed    int
}

// Warm fetches pages 1..pages of every listing through the catalog so later
// requests are served from cache. At most workers requests run at once.
func (b *Browser) Warm(ctx context.Context, pages, workers int) WarmSummary {
	if pages < 1 {
		pages = 1
	}
	if workers < 1 {
		workers = 1
	}

	p := pool.NewWithResults[catalog.Result[catalog.PagedResult]]().WithMaxGoroutines(workers)
	for _, category := range catalog.Listings {
		for page := 1; page <= pages; page++ {
			p.Go(func() catalog.Result[catalog.PagedResult] {
				return b.catalog.FetchByCategory(ctx, category, page)
			})
		}
	}

	summary := WarmSummary{}
	for _, res := range p.Wait() {
		summary.Requested++
		switch {
		case !res.OK():
			summary.Failed++
		case res.Cached:
			summary.Cached++
		default:
			summary.Fetched++
		}
	}
	b.logger.Info("cache warmed",
		"requested", summary.Requested,
		"fetched", summary.Fetched,
		"cached", summary.Cached,
		"failed", summary.Failed,
	)
	return summary
}

func (b *Browser) fetch(ctx context.Context, category catalog.Category, query string, page int) catalog.Result[catalog.PagedResult] {
	if category == catalog.CategorySearch {
		return b.catalog.Search(ctx, query, page)
	}
	return b.catalog.FetchByCategory(ctx, category, page)
}

// apply moves a fetch result into the store.
func (b *Browser) apply(res catalog.Result[catalog.PagedResult], appendPage bool, message string) {
	if !res.OK() {
		b.store.SetError(message)
		return
	}
	result := res.Data
	result.TotalPages = min(result.TotalPages, MaxTotalPages)
	b.store.SetMovies(result, appendPage)
}

func failureMessage(category catalog.Category) string {
	if category == catalog.CategorySearch {
		return ErrSearchMessage
	}
	return ErrLoadMessage
}
