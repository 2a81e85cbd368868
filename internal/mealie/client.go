// Package mealie reads recipes, tags and categories from a Mealie server
package mealie

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/ppiankov/flagaudit/internal/cache"
	"github.com/ppiankov/flagaudit/internal/model"
	"github.com/ppiankov/flagaudit/internal/util"
)

const (
	fetchMaxRetries = 3
	maxBodyBytes    = 32 << 20
	userAgent       = "flagaudit/0.1 (+https://github.com/ppiankov/flagaudit)"
)

// fetchSleepFunc is the sleep function used between retries (injectable for tests)
var fetchSleepFunc = time.Sleep

// Options wire the client's supporting infrastructure
type Options struct {
	Cache        cache.Cache // nil disables caching
	CacheTTL     time.Duration
	Throttle     *Throttle // nil disables throttling
	FetchWorkers int       // Recipe detail requests in flight
	Logger       *zap.Logger
}

// Client talks to the Mealie REST API
type Client struct {
	baseURL      *url.URL
	token        string
	perPage      int
	httpClient   *http.Client
	cache        cache.Cache
	cacheTTL     time.Duration
	throttle     *Throttle
	fetchWorkers int
	log          *zap.Logger
}

// RecipeSummary is a recipe as listed by /api/recipes
type RecipeSummary struct {
	ID   string `json:"id"`
	Slug string `json:"slug"`
	Name string `json:"name"`
}

type page[T any] struct {
	Page       int `json:"page"`
	PerPage    int `json:"per_page"`
	Total      int `json:"total"`
	TotalPages int `json:"total_pages"`
	Items      []T `json:"items"`
}

// NewClient creates a client for the server described by cfg
func NewClient(cfg model.MealieConfig, opts Options) (*Client, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("mealie URL is required")
	}
	if cfg.Token == "" {
		return nil, fmt.Errorf("mealie token is required")
	}

	base, err := url.Parse(strings.TrimRight(cfg.URL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse mealie URL: %w", err)
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return nil, fmt.Errorf("mealie URL must be http or https, got %q", cfg.URL)
	}

	transport, err := util.NewTransport(util.TransportOptions{
		HTTPProxy:  cfg.HTTPProxy,
		HTTPSProxy: cfg.HTTPSProxy,
		NoProxy:    cfg.NoProxy,
		CAPath:     cfg.CAPath,
	})
	if err != nil {
		return nil, err
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	perPage := cfg.PerPage
	if perPage <= 0 {
		perPage = 50
	}
	workers := opts.FetchWorkers
	if workers <= 0 {
		workers = 4
	}
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}

	return &Client{
		baseURL: base,
		token:   cfg.Token,
		perPage: perPage,
		httpClient: &http.Client{
			Timeout:   timeout,
			Transport: transport,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= 3 {
					return fmt.Errorf("stopped after 3 redirects")
				}
				return nil
			},
		},
		cache:        opts.Cache,
		cacheTTL:     opts.CacheTTL,
		throttle:     opts.Throttle,
		fetchWorkers: workers,
		log:          log,
	}, nil
}

// Tags returns every tag known to the server
func (c *Client) Tags(ctx context.Context) ([]model.Tag, error) {
	return fetchAll[model.Tag](ctx, c, "/api/organizers/tags")
}

// Categories returns every category known to the server
func (c *Client) Categories(ctx context.Context) ([]model.Category, error) {
	return fetchAll[model.Category](ctx, c, "/api/organizers/categories")
}

// RecipeSummaries lists every recipe without its details
func (c *Client) RecipeSummaries(ctx context.Context) ([]RecipeSummary, error) {
	return fetchAll[RecipeSummary](ctx, c, "/api/recipes")
}

// Recipe fetches one recipe with all its details
func (c *Client) Recipe(ctx context.Context, slug string) (*model.Recipe, error) {
	var recipe model.Recipe
	if err := c.getJSON(ctx, "/api/recipes/"+url.PathEscape(slug), nil, &recipe); err != nil {
		return nil, fmt.Errorf("recipe %s: %w", slug, err)
	}
	return &recipe, nil
}

// Recipes fetches the full details of the given recipes, or of every recipe when slugs is empty.
// Order follows slugs, or the server's listing order.
func (c *Client) Recipes(ctx context.Context, slugs []string) ([]model.Recipe, error) {
	if len(slugs) == 0 {
		summaries, err := c.RecipeSummaries(ctx)
		if err != nil {
			return nil, err
		}
		slugs = make([]string, 0, len(summaries))
		for _, s := range summaries {
			slugs = append(slugs, s.Slug)
		}
	}

	c.log.Info("fetching recipe details", zap.Int("recipes", len(slugs)), zap.Int("workers", c.fetchWorkers))

	recipes := make([]model.Recipe, len(slugs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.fetchWorkers)

	for i, slug := range slugs {
		i, slug := i, slug
		g.Go(func() error {
			recipe, err := c.Recipe(gctx, slug)
			if err != nil {
				return err
			}
			recipes[i] = *recipe
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	return recipes, nil
}

// fetchAll walks every page of a paginated listing
func fetchAll[T any](ctx context.Context, c *Client, path string) ([]T, error) {
	var items []T

	for n := 1; ; n++ {
		query := url.Values{}
		query.Set("page", strconv.Itoa(n))
		query.Set("perPage", strconv.Itoa(c.perPage))

		var p page[T]
		if err := c.getJSON(ctx, path, query, &p); err != nil {
			return nil, fmt.Errorf("list %s page %d: %w", path, n, err)
		}

		items = append(items, p.Items...)
		c.log.Debug("fetched page",
			zap.String("path", path),
			zap.Int("page", n),
			zap.Int("total_pages", p.TotalPages),
			zap.Int("items", len(p.Items)))

		if n >= p.TotalPages || len(p.Items) == 0 {
			break
		}
	}

	return items, nil
}

// getJSON performs a cached, throttled, retried GET and decodes the body into out
func (c *Client) getJSON(ctx context.Context, path string, query url.Values, out any) error {
	u := *c.baseURL
	u.Path = strings.TrimRight(u.Path, "/") + path
	u.RawQuery = query.Encode()
	rawURL := u.String()

	key := cache.Key(rawURL, c.token)
	if c.cache != nil {
		if data, found := c.cache.Get(key); found {
			if err := json.Unmarshal(data, out); err == nil {
				c.log.Debug("cache hit", zap.String("url", rawURL))
				return nil
			}
			_ = c.cache.Delete(key)
		}
	}

	data, err := c.getWithRetry(ctx, rawURL)
	if err != nil {
		return err
	}

	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}

	if c.cache != nil {
		if err := c.cache.Set(key, data, c.cacheTTL); err != nil {
			c.log.Warn("cache write failed", zap.String("url", rawURL), zap.Error(err))
		}
	}

	return nil
}

// getWithRetry retries transient failures with exponential backoff
func (c *Client) getWithRetry(ctx context.Context, rawURL string) ([]byte, error) {
	var lastErr error
	for attempt := 0; attempt < fetchMaxRetries; attempt++ {
		data, err := c.get(ctx, rawURL)
		if err == nil {
			return data, nil
		}
		lastErr = err

		if !isRetryable(err) || ctx.Err() != nil {
			return nil, err
		}
		if attempt < fetchMaxRetries-1 {
			backoff := time.Duration(1<<uint(attempt)) * time.Second
			c.log.Debug("retrying request", zap.String("url", rawURL), zap.Int("attempt", attempt+1), zap.Error(err))
			fetchSleepFunc(backoff)
		}
	}
	return nil, lastErr
}

// StatusError is returned for non-2xx responses
type StatusError struct {
	StatusCode int
	Detail     string
}

func (e *StatusError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("unexpected status %d: %s", e.StatusCode, e.Detail)
	}
	return fmt.Sprintf("unexpected status %d", e.StatusCode)
}

// Unwrap maps auth and lookup failures onto the model sentinels
func (e *StatusError) Unwrap() error {
	switch e.StatusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		return model.ErrUnauthorized
	case http.StatusNotFound:
		return model.ErrNotFound
	}
	return nil
}

func (c *Client) get(ctx context.Context, rawURL string) ([]byte, error) {
	if err := c.throttle.Wait(ctx); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &StatusError{StatusCode: resp.StatusCode, Detail: errorDetail(body)}
	}

	return body, nil
}

// errorDetail extracts FastAPI's {"detail": ...} message
func errorDetail(body []byte) string {
	var payload struct {
		Detail json.RawMessage `json:"detail"`
	}
	if err := json.Unmarshal(body, &payload); err != nil || len(payload.Detail) == 0 {
		return ""
	}

	var s string
	if err := json.Unmarshal(payload.Detail, &s); err == nil {
		return s
	}
	return string(payload.Detail)
}

// isRetryable returns true for transient failures
func isRetryable(err error) bool {
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return statusErr.StatusCode == http.StatusTooManyRequests || statusErr.StatusCode >= 500
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	s := strings.ToLower(err.Error())
	return strings.Contains(s, "timeout") ||
		strings.Contains(s, "connection refused") ||
		strings.Contains(s, "connection reset") ||
		strings.Contains(s, "eof")
}
