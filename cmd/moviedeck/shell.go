package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/spf13/cobra"

	"github.com/marco/movieDeck/internal/auth"
	"github.com/marco/movieDeck/internal/browse"
	"github.com/marco/movieDeck/internal/catalog"
	"github.com/marco/movieDeck/internal/ledger"
	"github.com/marco/movieDeck/internal/state"
	"github.com/marco/movieDeck/internal/storage"
)

const shellHelp = `Commands:
  popular | now | top | upcoming   show a category
  search <query>                   search by title
  quick [n]                        list quick searches, or run number n
  recent [n]                       list recent searches, or rerun number n
  next | prev | more | page <n>    paginate ("more" appends the next page)
  open <n>                         details for movie number n on screen
  id <movie-id>                    details for a TMDB movie id
  close                            close the details view
  fav <n>                          toggle movie number n as favorite
  favs                             list favorites
  retry                            reload after an error
  whoami                           show the signed-in user
  help | quit`

func newShellCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "shell",
		Short: "Interactive browsing session",
		Args:  cobra.NoArgs,
		RunE: withApp(true, func(ctx context.Context, a *app, args []string) error {
			sh := &shell{a: a, out: os.Stdout}
			return sh.run(ctx, os.Stdin)
		}),
	}
}

type shell struct {
	a   *app
	out io.Writer

	mu   sync.Mutex
	user *auth.User
}

func (sh *shell) run(ctx context.Context, in io.Reader) error {
	a := sh.a

	// Render whenever a load settles
	wasLoading := false
	unsubscribe := a.browser.Store().Subscribe(func(s state.State) {
		if s.Loading && !wasLoading {
			fmt.Fprintln(sh.out, "Loading...")
		}
		if !s.Loading && wasLoading {
			renderState(sh.out, s, a.favorites.Contains)
		}
		wasLoading = s.Loading
	})
	defer unsubscribe()

	stopUser := a.session.Subscribe(func(u *auth.User) {
		sh.mu.Lock()
		sh.user = u
		sh.mu.Unlock()
	})
	defer stopUser()

	if stop := sh.watchLedger(); stop != nil {
		defer stop()
	}

	fmt.Fprintln(sh.out, `movieDeck shell. Type "help" for commands.`)
	a.browser.LoadCategory(ctx, catalog.CategoryPopular)

	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprint(sh.out, sh.prompt())
		if !scanner.Scan() {
			fmt.Fprintln(sh.out)
			return scanner.Err()
		}
		if ctx.Err() != nil {
			return nil
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if quit := sh.exec(ctx, line); quit {
			return nil
		}
	}
}

// watchLedger reloads favorites and recent searches when another process
// rewrites them. Only the file backend can be watched.
func (sh *shell) watchLedger() func() {
	a := sh.a
	if a.cfg.Storage.Backend != "file" {
		return nil
	}
	w, err := storage.NewWatcher(storage.WatcherConfig{
		Dir:           a.cfg.Storage.Dir,
		DebounceDelay: 300 * time.Millisecond,
		Logger:        a.logger,
	}, func(key string) {
		switch key {
		case ledger.FavoritesKey:
			a.favorites.Reload()
		case ledger.RecentSearchesKey:
			a.recent.Reload()
		}
	})
	if err == nil {
		err = w.Start()
	}
	if err != nil {
		a.logger.Warn("ledger changes from other sessions will not be picked up", "error", err)
		return nil
	}
	return func() { w.Stop() }
}

func (sh *shell) prompt() string {
	sh.mu.Lock()
	defer sh.mu.Unlock()
	if sh.user != nil {
		return fmt.Sprintf("moviedeck (%s)> ", sh.user.Email)
	}
	return "moviedeck> "
}

// exec runs one shell line and reports whether the shell should exit.
func (sh *shell) exec(ctx context.Context, line string) bool {
	a := sh.a
	b := a.browser
	cmd, rest, _ := strings.Cut(line, " ")
	rest = strings.TrimSpace(rest)

	switch strings.ToLower(cmd) {
	case "quit", "exit", "q":
		return true
	case "help", "?":
		fmt.Fprintln(sh.out, shellHelp)
	case "popular":
		b.LoadCategory(ctx, catalog.CategoryPopular)
	case "now":
		b.LoadCategory(ctx, catalog.CategoryNowPlaying)
	case "top":
		b.LoadCategory(ctx, catalog.CategoryTopRated)
	case "upcoming":
		b.LoadCategory(ctx, catalog.CategoryUpcoming)
	case "search", "s":
		if rest == "" {
			fmt.Fprintln(sh.out, "usage: search <query>")
			break
		}
		b.Search(ctx, rest)
	case "quick":
		sh.quick(ctx, rest)
	case "recent":
		sh.recent(ctx, rest)
	case "next", "n":
		if !b.NextPage(ctx) {
			fmt.Fprintln(sh.out, "Already on the last page")
		}
	case "prev", "p":
		if !b.PreviousPage(ctx) {
			fmt.Fprintln(sh.out, "Already on the first page")
		}
	case "more", "m":
		if !b.LoadMore(ctx) {
			fmt.Fprintln(sh.out, "No more results")
		}
	case "page":
		n, err := strconv.Atoi(rest)
		total := b.Store().Snapshot().TotalPages
		if err != nil || n < 1 || n > total {
			fmt.Fprintf(sh.out, "usage: page <1-%d>\n", total)
			break
		}
		b.LoadPage(ctx, n, false)
	case "open", "o":
		if m, ok := sh.onScreen(rest); ok {
			sh.details(ctx, m.ID)
		}
	case "id":
		id, err := parseMovieID(rest)
		if err != nil {
			fmt.Fprintln(sh.out, err)
			break
		}
		sh.details(ctx, id)
	case "close":
		b.CloseDetails()
		renderState(sh.out, b.Store().Snapshot(), a.favorites.Contains)
	case "fav", "f":
		m, ok := sh.onScreen(rest)
		if !ok {
			break
		}
		added, err := b.ToggleFavorite(m)
		switch {
		case err != nil:
			fmt.Fprintln(sh.out, err)
		case added:
			fmt.Fprintf(sh.out, "Added %q to favorites\n", m.Title)
		default:
			fmt.Fprintf(sh.out, "Removed %q from favorites\n", m.Title)
		}
	case "favs":
		renderMovies(sh.out, a.favorites.List(), nil)
	case "retry", "r":
		b.Retry(ctx)
	case "whoami":
		if u := a.session.User(); u != nil {
			fmt.Fprintf(sh.out, "Signed in as %s\n", u.Email)
		} else {
			fmt.Fprintln(sh.out, "Not signed in")
		}
	default:
		fmt.Fprintf(sh.out, "Unknown command %q. Type \"help\".\n", cmd)
	}
	return false
}

func (sh *shell) details(ctx context.Context, id int) {
	view, err := sh.a.browser.SelectMovie(ctx, id)
	if err != nil {
		fmt.Fprintln(sh.out, "Failed to load movie details. Please try again.")
		return
	}
	renderDetail(sh.out, sh.a.client, view)
}

// onScreen resolves a 1-based position among the visible movies.
func (sh *shell) onScreen(arg string) (catalog.Movie, bool) {
	movies := sh.a.browser.Store().Snapshot().Movies
	n, err := strconv.Atoi(arg)
	if err != nil || n < 1 || n > len(movies) {
		fmt.Fprintf(sh.out, "Pick a movie number between 1 and %d\n", len(movies))
		return catalog.Movie{}, false
	}
	return movies[n-1], true
}

func (sh *shell) quick(ctx context.Context, arg string) {
	if arg == "" {
		for i, f := range browse.QuickFilters {
			fmt.Fprintf(sh.out, "%d. %s\n", i+1, f.Label)
		}
		return
	}
	n, err := strconv.Atoi(arg)
	if err != nil || n < 1 || n > len(browse.QuickFilters) {
		fmt.Fprintf(sh.out, "Pick a quick search between 1 and %d\n", len(browse.QuickFilters))
		return
	}
	sh.a.browser.Search(ctx, browse.QuickFilters[n-1].Query)
}

func (sh *shell) recent(ctx context.Context, arg string) {
	queries := sh.a.recent.List()
	if arg == "" {
		if len(queries) == 0 {
			fmt.Fprintln(sh.out, "No recent searches")
		}
		for i, q := range queries {
			fmt.Fprintf(sh.out, "%d. %s\n", i+1, q)
		}
		return
	}
	n, err := strconv.Atoi(arg)
	if err != nil || n < 1 || n > len(queries) {
		fmt.Fprintf(sh.out, "Pick a recent search between 1 and %d\n", len(queries))
		return
	}
	sh.a.browser.Search(ctx, queries[n-1])
}
