// Package catalog is the TMDB client used by the browse flows. Every public
// operation returns a Result instead of an error: transport failures are
// logged here and reported as "no data" so one bad request never breaks the
// caller's render loop.
package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"slices"
	"strconv"
	"time"

	"golang.org/x/time/rate"

	"github.com/marco/movieDeck/internal/catalog/cache"
	"github.com/marco/movieDeck/internal/retry"
)

const (
	DefaultBaseURL      = "https://api.themoviedb.org/3"
	DefaultImageBaseURL = "https://image.tmdb.org/t/p"
	PosterSize          = "w500"
	BackdropSize        = "w1280"

	// PageSize is the number of results TMDB returns per page.
	PageSize = 20
)

// ErrUnknownCategory is reported for a category TMDB has no listing for.
var ErrUnknownCategory = errors.New("unknown category")

// Result carries the outcome of a catalog call. Err is non-nil when no data
// could be obtained; Data is then the zero value.
type Result[T any] struct {
	Data   T
	Err    error
	Cached bool
}

// OK reports whether the call produced data.
func (r Result[T]) OK() bool { return r.Err == nil }

// Config holds configuration for the TMDB client
type Config struct {
	APIKey       string
	Language     string
	BaseURL      string
	ImageBaseURL string

	HTTPClient     *http.Client
	Timeout        time.Duration
	RequestsPerSec float64
	MaxAttempts    int
	InitialBackoff time.Duration

	Cache        cache.Cache
	CacheTTL     time.Duration
	ForceRefresh bool

	Logger *slog.Logger
}

// Client represents a TMDB API client
type Client struct {
	apiKey       string
	language     string
	baseURL      string
	imageBaseURL string
	httpClient   *http.Client
	limiter      *rate.Limiter
	retryPolicy  retry.Policy
	cache        cache.Cache
	cacheTTL     time.Duration
	forceRefresh bool
	logger       *slog.Logger
}

// NewClient creates a new TMDB API client
func NewClient(cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.ImageBaseURL == "" {
		cfg.ImageBaseURL = DefaultImageBaseURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{Timeout: cfg.Timeout}
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 3
	}
	if cfg.InitialBackoff <= 0 {
		cfg.InitialBackoff = 500 * time.Millisecond
	}
	if cfg.Cache == nil {
		cfg.Cache = cache.NewMemory()
	}
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = cache.DefaultTTL
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	limit := rate.Inf
	if cfg.RequestsPerSec > 0 {
		limit = rate.Limit(cfg.RequestsPerSec)
	}

	logger := cfg.Logger.With("component", "catalog")
	return &Client{
		apiKey:       cfg.APIKey,
		language:     cfg.Language,
		baseURL:      cfg.BaseURL,
		imageBaseURL: cfg.ImageBaseURL,
		httpClient:   cfg.HTTPClient,
		limiter:      rate.NewLimiter(limit, 1),
		retryPolicy: retry.Policy{
			MaxAttempts:    cfg.MaxAttempts,
			InitialBackoff: cfg.InitialBackoff,
			MaxBackoff:     10 * time.Second,
			OnRetry: func(attempt, maxAttempts int, backoff time.Duration, err error) {
				logger.Debug("retrying request",
					"attempt", attempt,
					"max_attempts", maxAttempts,
					"backoff", backoff,
					"error", err,
				)
			},
		},
		cache:        cfg.Cache,
		cacheTTL:     cfg.CacheTTL,
		forceRefresh: cfg.ForceRefresh,
		logger:       logger,
	}
}

// FetchByCategory fetches one page of a curated listing.
func (c *Client) FetchByCategory(ctx context.Context, category Category, page int) Result[PagedResult] {
	page = normalizePage(page)
	if !category.IsListing() {
		err := fmt.Errorf("%w: %q", ErrUnknownCategory, category)
		c.logger.Warn("catalog request rejected", "op", "category", "error", err)
		return Result[PagedResult]{Err: err}
	}

	params := url.Values{}
	params.Set("page", strconv.Itoa(page))
	return fetch[PagedResult](ctx, c, string(category), categoryKey(category, page), "/movie/"+string(category), params)
}

// Search runs a free-text movie search. The query is sent as given.
func (c *Client) Search(ctx context.Context, query string, page int) Result[PagedResult] {
	page = normalizePage(page)
	params := url.Values{}
	params.Set("query", query)
	params.Set("page", strconv.Itoa(page))
	return fetch[PagedResult](ctx, c, "search", searchKey(query, page), "/search/movie", params)
}

// FetchDetail fetches detailed information about a movie
func (c *Client) FetchDetail(ctx context.Context, id int) Result[MovieDetail] {
	return fetch[MovieDetail](ctx, c, "details", detailsKey(id), fmt.Sprintf("/movie/%d", id), url.Values{})
}

// FetchCredits fetches cast and crew information
func (c *Client) FetchCredits(ctx context.Context, id int) Result[Credits] {
	return fetch[Credits](ctx, c, "credits", creditsKey(id), fmt.Sprintf("/movie/%d/credits", id), url.Values{})
}

// ClearCache drops every cached response.
func (c *Client) ClearCache(ctx context.Context) error {
	return c.cache.Clear(ctx)
}

// ImageURL returns the full image URL for a TMDB path fragment, or "" when the
// movie has no such image.
func (c *Client) ImageURL(path, size string) string {
	if path == "" {
		return ""
	}
	if size == "" {
		size = PosterSize
	}
	return fmt.Sprintf("%s/%s%s", c.imageBaseURL, size, path)
}

// PosterURL returns the poster image URL at the default poster size.
func (c *Client) PosterURL(path string) string {
	return c.ImageURL(path, PosterSize)
}

// BackdropURL returns the backdrop image URL at the default backdrop size.
func (c *Client) BackdropURL(path string) string {
	return c.ImageURL(path, BackdropSize)
}

// fetch serves key from cache or performs the request and caches the payload.
func fetch[T any](ctx context.Context, c *Client, op, key, path string, params url.Values) Result[T] {
	if data, found := c.getFromCache(ctx, key); found {
		var cached T
		if err := json.Unmarshal(data, &cached); err == nil {
			return Result[T]{Data: cached, Cached: true}
		}
		c.logger.Warn("discarding unreadable cache entry", "key", key)
	}

	var payload T
	if err := c.get(ctx, path, params, &payload); err != nil {
		c.logger.Warn("catalog request failed", "op", op, "key", key, "error", err)
		return Result[T]{Err: fmt.Errorf("%s: %w", op, err)}
	}

	if raw, err := json.Marshal(payload); err == nil {
		c.setToCache(ctx, key, raw)
	}
	return Result[T]{Data: payload}
}

// get executes a GET against the API with rate limiting and retry and decodes
// the JSON body into out.
func (c *Client) get(ctx context.Context, path string, params url.Values, out any) error {
	query := url.Values{}
	for k, v := range params {
		query[k] = slices.Clone(v)
	}
	query.Set("api_key", c.apiKey)
	if c.language != "" {
		query.Set("language", c.language)
	}
	requestURL := c.baseURL + path + "?" + query.Encode()

	return retry.Do(ctx, c.retryPolicy, func() error {
		if err := c.limiter.Wait(ctx); err != nil {
			return err
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, requestURL, nil)
		if err != nil {
			return fmt.Errorf("failed to build request: %w", err)
		}
		req.Header.Set("Accept", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			// url.Error embeds the request URL and with it the API key
			var urlErr *url.Error
			if errors.As(err, &urlErr) {
				return fmt.Errorf("GET %s: %w", path, urlErr.Err)
			}
			return err
		}
		defer resp.Body.Close()

		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
			return &retry.StatusError{Code: resp.StatusCode, Body: string(body)}
		}

		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
		return nil
	})
}

// getFromCache retrieves data from cache if available and not force-refreshing
func (c *Client) getFromCache(ctx context.Context, key string) ([]byte, bool) {
	if c.forceRefresh {
		return nil, false
	}
	data, found := c.cache.Get(ctx, key)
	c.logger.Debug("cache lookup", "key", key, "hit", found)
	return data, found
}

func (c *Client) setToCache(ctx context.Context, key string, data []byte) {
	if err := c.cache.Set(ctx, key, data, c.cacheTTL); err != nil {
		c.logger.Warn("cache write failed", "key", key, "error", err)
	}
}

func normalizePage(page int) int {
	if page < 1 {
		return 1
	}
	return page
}

// Cache keys always end with the integer page or id, so a query containing
// ':' cannot produce another operation's key.
func categoryKey(category Category, page int) string {
	return fmt.Sprintf("tmdb:%s:%d", category, page)
}

func searchKey(query string, page int) string {
	return fmt.Sprintf("tmdb:search:%s:%d", query, page)
}

func detailsKey(id int) string {
	return fmt.Sprintf("tmdb:details:%d", id)
}

func creditsKey(id int) string {
	return fmt.Sprintf("tmdb:credits:%d", id)
}
