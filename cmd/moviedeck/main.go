// Command moviedeck browses TMDB from the terminal: curated listings, search,
// movie details, favorites and recent searches.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/marco/movieDeck/internal/auth"
	"github.com/marco/movieDeck/internal/browse"
	"github.com/marco/movieDeck/internal/catalog"
	"github.com/marco/movieDeck/internal/catalog/cache"
	"github.com/marco/movieDeck/internal/config"
	"github.com/marco/movieDeck/internal/ledger"
	"github.com/marco/movieDeck/internal/logging"
	"github.com/marco/movieDeck/internal/state"
	"github.com/marco/movieDeck/internal/storage"
)

var (
	configPath   string
	forceRefresh bool
	verbose      bool
)

func main() {
	// .env is optional; real environment variables win
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "moviedeck",
		Short:         "Browse TMDB movies from the terminal",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&configPath, "config", "./config/config.yaml", "Path to configuration file")
	root.PersistentFlags().BoolVar(&forceRefresh, "force-refresh", false, "Ignore cached TMDB responses")
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Show debug logging")

	root.AddCommand(
		newBrowseCmd(),
		newSearchCmd(),
		newDetailsCmd(),
		newFavoritesCmd(),
		newRecentCmd(),
		newSignUpCmd(),
		newLoginCmd(),
		newLogoutCmd(),
		newWarmCmd(),
		newCacheCmd(),
		newShellCmd(),
	)
	return root
}

// app is everything a command may need, built from configuration.
type app struct {
	cfg       *config.Config
	logger    *slog.Logger
	client    *catalog.Client
	blobs     storage.BlobStore
	favorites *ledger.Favorites
	recent    *ledger.RecentSearches
	session   *auth.Session
	browser   *browse.Browser
	closers   []func() error
}

// newApp wires the application. needCatalog is false for commands that only
// touch local state, so they work without an API key.
func newApp(ctx context.Context, needCatalog bool) (*app, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("error loading config: %w", err)
	}

	level := cfg.Logging.Level
	if verbose {
		level = "debug"
	}
	logger, closeLog, err := logging.New(logging.Options{
		Level:  level,
		Format: cfg.Logging.Format,
		File:   cfg.Logging.File,
	})
	if err != nil {
		return nil, err
	}
	slog.SetDefault(logger)

	a := &app{cfg: cfg, logger: logger, closers: []func() error{closeLog}}

	blobs, err := openBlobStore(cfg)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.blobs = blobs
	if c, ok := blobs.(interface{ Close() error }); ok {
		a.closers = append(a.closers, c.Close)
	}

	a.favorites = ledger.NewFavorites(blobs, logger)
	a.recent = ledger.NewRecentSearches(blobs, logger)
	a.session = auth.NewSession(ctx, auth.NewLocalProvider(blobs), logger)

	if needCatalog {
		if err := cfg.RequireAPIKey(); err != nil {
			a.Close()
			return nil, err
		}
		responseCache, err := openCache(ctx, cfg)
		if err != nil {
			a.Close()
			return nil, err
		}
		a.closers = append(a.closers, responseCache.Close)

		a.client = catalog.NewClient(catalog.Config{
			APIKey:         cfg.TMDB.APIKey,
			Language:       cfg.TMDB.Language,
			BaseURL:        cfg.TMDB.BaseURL,
			ImageBaseURL:   cfg.TMDB.ImageBaseURL,
			Timeout:        cfg.Timeout(),
			RequestsPerSec: cfg.TMDB.RequestsPerSecond,
			MaxAttempts:    cfg.TMDB.MaxAttempts,
			InitialBackoff: cfg.InitialBackoff(),
			Cache:          responseCache,
			CacheTTL:       cfg.CacheTTL(),
			ForceRefresh:   forceRefresh,
			Logger:         logger,
		})
		a.browser = browse.New(browse.Config{
			Catalog:       a.client,
			Store:         state.NewStore(),
			Recent:        a.recent,
			Favorites:     a.favorites,
			Session:       a.session,
			RequireSignIn: cfg.Auth.Required,
			Logger:        logger,
		})
	}

	return a, nil
}

// Close releases resources in reverse order of acquisition.
func (a *app) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func openBlobStore(cfg *config.Config) (storage.BlobStore, error) {
	switch cfg.Storage.Backend {
	case "sqlite":
		return storage.NewSQLiteStore(filepath.Join(cfg.Storage.Dir, "moviedeck.db"))
	default:
		return storage.NewFileStore(cfg.Storage.Dir), nil
	}
}

func openCache(ctx context.Context, cfg *config.Config) (cache.Cache, error) {
	switch cfg.Cache.Backend {
	case "sqlite":
		return cache.NewSQLite(cfg.Cache.Path)
	case "redis":
		return cache.NewRedis(ctx, cfg.Cache.RedisAddr)
	default:
		return cache.NewMemory(), nil
	}
}

// withApp builds the app for a command and closes it afterwards.
func withApp(needCatalog bool, run func(ctx context.Context, a *app, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		a, err := newApp(ctx, needCatalog)
		if err != nil {
			return err
		}
		defer a.Close()
		return run(ctx, a, args)
	}
}
