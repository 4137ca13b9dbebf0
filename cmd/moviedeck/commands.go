package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/marco/movieDeck/internal/browse"
	"github.com/marco/movieDeck/internal/catalog"
)

func newBrowseCmd() *cobra.Command {
	var page int
	cmd := &cobra.Command{
		Use:   "browse [category]",
		Short: "List a curated category (popular, now-playing, top-rated, upcoming)",
		Args:  cobra.MaximumNArgs(1),
		RunE: withApp(true, func(ctx context.Context, a *app, args []string) error {
			category := catalog.CategoryPopular
			if len(args) == 1 {
				c, err := catalog.ParseCategory(args[0])
				if err != nil {
					return err
				}
				if !c.IsListing() {
					return fmt.Errorf("use the search command for free-text search")
				}
				category = c
			}

			a.browser.LoadCategory(ctx, category)
			if page > 1 {
				a.browser.LoadPage(ctx, page, false)
			}
			return printState(a)
		}),
	}
	cmd.Flags().IntVarP(&page, "page", "p", 1, "Page to show")
	return cmd
}

func newSearchCmd() *cobra.Command {
	var page int
	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Search movies by title",
		Args:  cobra.MinimumNArgs(1),
		RunE: withApp(true, func(ctx context.Context, a *app, args []string) error {
			query := strings.TrimSpace(strings.Join(args, " "))
			if query == "" {
				return fmt.Errorf("search query is required")
			}
			a.browser.Search(ctx, query)
			if page > 1 {
				a.browser.LoadPage(ctx, page, false)
			}
			return printState(a)
		}),
	}
	cmd.Flags().IntVarP(&page, "page", "p", 1, "Page to show")
	return cmd
}

func printState(a *app) error {
	s := a.browser.Store().Snapshot()
	renderState(os.Stdout, s, a.favorites.Contains)
	if s.Error != "" {
		return errors.New(s.Error)
	}
	return nil
}

func newDetailsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "details <movie-id>",
		Short: "Show details, cast and key crew for a movie",
		Args:  cobra.ExactArgs(1),
		RunE: withApp(true, func(ctx context.Context, a *app, args []string) error {
			id, err := parseMovieID(args[0])
			if err != nil {
				return err
			}
			view, err := a.browser.SelectMovie(ctx, id)
			if err != nil {
				return fmt.Errorf("%w. Please try again", err)
			}
			renderDetail(os.Stdout, a.client, view)
			return nil
		}),
	}
}

func newFavoritesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "favorites",
		Aliases: []string{"favs"},
		Short:   "List favorite movies",
		Args:    cobra.NoArgs,
		RunE: withApp(false, func(ctx context.Context, a *app, args []string) error {
			renderMovies(os.Stdout, a.favorites.List(), nil)
			return nil
		}),
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "toggle <movie-id>",
		Short: "Add a movie to favorites, or remove it if already there",
		Args:  cobra.ExactArgs(1),
		RunE: withApp(true, func(ctx context.Context, a *app, args []string) error {
			id, err := parseMovieID(args[0])
			if err != nil {
				return err
			}
			return toggleFavorite(ctx, a, id)
		}),
	})
	return cmd
}

// toggleFavorite flips id, fetching its summary first when it is not a
// favorite yet.
func toggleFavorite(ctx context.Context, a *app, id int) error {
	movie := catalog.Movie{ID: id}
	for _, m := range a.favorites.List() {
		if m.ID == id {
			movie = m
		}
	}
	if !a.favorites.Contains(id) {
		res := a.client.FetchDetail(ctx, id)
		if !res.OK() {
			return fmt.Errorf("failed to load movie %d: %w", id, res.Err)
		}
		movie = res.Data.Movie
	}

	added, err := a.browser.ToggleFavorite(movie)
	if err != nil {
		return err
	}
	if added {
		fmt.Printf("Added %q to favorites\n", movie.Title)
	} else {
		fmt.Printf("Removed %q from favorites\n", movie.Title)
	}
	return nil
}

func newRecentCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "recent",
		Short: "List recent searches",
		Args:  cobra.NoArgs,
		RunE: withApp(false, func(ctx context.Context, a *app, args []string) error {
			queries := a.recent.List()
			if len(queries) == 0 {
				fmt.Println("No recent searches")
				return nil
			}
			for i, q := range queries {
				fmt.Printf("%d. %s\n", i+1, q)
			}
			return nil
		}),
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "remove <query>",
		Short: "Forget a recent search",
		Args:  cobra.MinimumNArgs(1),
		RunE: withApp(false, func(ctx context.Context, a *app, args []string) error {
			a.recent.Remove(strings.Join(args, " "))
			return nil
		}),
	})
	return cmd
}

func newSignUpCmd() *cobra.Command {
	var email string
	cmd := &cobra.Command{
		Use:   "signup",
		Short: "Create a local account",
		Args:  cobra.NoArgs,
		RunE: withApp(false, func(ctx context.Context, a *app, args []string) error {
			if email == "" {
				return fmt.Errorf("email is required (--email)")
			}
			password, err := readPassword("Password: ")
			if err != nil {
				return err
			}
			confirm, err := readPassword("Confirm password: ")
			if err != nil {
				return err
			}
			if password != confirm {
				return fmt.Errorf("passwords do not match")
			}

			user, err := a.session.SignUp(ctx, email, password)
			if err != nil {
				return err
			}
			fmt.Printf("Welcome, %s\n", user.Email)
			return nil
		}),
	}
	cmd.Flags().StringVar(&email, "email", "", "Account email")
	return cmd
}

func newLoginCmd() *cobra.Command {
	var email string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in to a local account",
		Args:  cobra.NoArgs,
		RunE: withApp(false, func(ctx context.Context, a *app, args []string) error {
			if email == "" {
				return fmt.Errorf("email is required (--email)")
			}
			password, err := readPassword("Password: ")
			if err != nil {
				return err
			}
			user, err := a.session.SignIn(ctx, email, password)
			if err != nil {
				return err
			}
			fmt.Printf("Signed in as %s\n", user.Email)
			return nil
		}),
	}
	cmd.Flags().StringVar(&email, "email", "", "Account email")
	return cmd
}

func newLogoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Sign out",
		Args:  cobra.NoArgs,
		RunE: withApp(false, func(ctx context.Context, a *app, args []string) error {
			if err := a.session.SignOut(ctx); err != nil {
				return err
			}
			fmt.Println("Signed out")
			return nil
		}),
	}
}

func newWarmCmd() *cobra.Command {
	var pages, workers int
	var every time.Duration
	cmd := &cobra.Command{
		Use:   "warm",
		Short: "Prefetch the first pages of every category into the cache",
		Args:  cobra.NoArgs,
		RunE: withApp(true, func(ctx context.Context, a *app, args []string) error {
			if a.cfg.Cache.Backend == "memory" {
				fmt.Println("Note: the memory cache does not outlive this command; configure sqlite or redis to keep warmed pages")
			}
			if every > 0 {
				sched := &warmScheduler{
					interval: every,
					logger:   a.logger,
					warm: func(ctx context.Context) browse.WarmSummary {
						return a.browser.Warm(ctx, pages, workers)
					},
				}
				sched.run(ctx)
				return nil
			}

			s := a.browser.Warm(ctx, pages, workers)
			fmt.Printf("Requested %d pages: %d fetched, %d already cached, %d failed\n",
				s.Requested, s.Fetched, s.Cached, s.Failed)
			if s.Failed > 0 {
				return fmt.Errorf("%d pages could not be fetched", s.Failed)
			}
			return nil
		}),
	}
	cmd.Flags().IntVar(&pages, "pages", 1, "Pages per category")
	cmd.Flags().IntVar(&workers, "workers", 4, "Concurrent requests")
	cmd.Flags().DurationVar(&every, "every", 0, "Keep running and re-warm at this interval (e.g. 30m)")
	return cmd
}

func newCacheCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage the TMDB response cache",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "clear",
		Short: "Drop every cached response",
		Args:  cobra.NoArgs,
		RunE: withApp(true, func(ctx context.Context, a *app, args []string) error {
			if err := a.client.ClearCache(ctx); err != nil {
				return err
			}
			fmt.Println("Cache cleared")
			return nil
		}),
	})
	return cmd
}

func parseMovieID(s string) (int, error) {
	id, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid movie id %q", s)
	}
	return id, nil
}

// stdin is shared so piped input is not lost between prompts.
var stdin = bufio.NewReader(os.Stdin)

// readPassword prompts without echo on a terminal and falls back to a plain
// line read when stdin is piped.
func readPassword(prompt string) (string, error) {
	fmt.Print(prompt)
	fd := int(syscall.Stdin)
	if term.IsTerminal(fd) {
		b, err := term.ReadPassword(fd)
		fmt.Println()
		if err != nil {
			return "", fmt.Errorf("failed to read password: %w", err)
		}
		return string(b), nil
	}
	line, err := stdin.ReadString('\n')
	if err != nil && line == "" {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}
