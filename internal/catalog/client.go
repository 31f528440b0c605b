package catalog

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/jrosolowski/videolib/internal/videoerr"
)

const cacheTTL = 24 * time.Hour

const (
	retryBaseDelay = 1 * time.Second
	retryMaxDelay  = 60 * time.Second
	retryAttempts  = 5
)

// PersistentCache is the durable half of the two-tier cache (spec §4.3):
// an on-disk store the process can restart into without re-paying every
// upstream call. The catalog store package implements this against sqlite.
type PersistentCache interface {
	Get(ctx context.Context, key string) (value []byte, expires time.Time, ok bool, err error)
	Set(ctx context.Context, key string, value []byte, expires time.Time) error
}

// memCache is the in-process first tier: cheap, volatile, checked before
// the persistent tier on every lookup.
type memCache struct {
	mu sync.RWMutex
	m  map[string]cacheEntry
}

func newMemCache() *memCache {
	return &memCache{m: make(map[string]cacheEntry)}
}

func (c *memCache) get(key string) (interface{}, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.m[key]
	if !ok || e.expired(time.Now()) {
		return nil, false
	}
	return e.Value, true
}

func (c *memCache) set(key string, value interface{}, expires time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.m[key] = cacheEntry{Value: value, Expires: expires}
}

// movieSource is the raw upstream movie operations CachedClient caches and
// throttles. TMDBSource implements it; tests substitute a fake.
type movieSource interface {
	SearchMovies(ctx context.Context, query string, year *int) ([]MovieResult, error)
	GetMovieDetails(ctx context.Context, externalID string) (*MovieResult, error)
	FindByIMDBID(ctx context.Context, imdbID string) (*MovieResult, error)
}

// seriesSource is the raw upstream series operations CachedClient caches
// and throttles. TVDBSource implements it; tests substitute a fake.
type seriesSource interface {
	SearchSeries(ctx context.Context, query string, year *int) ([]SeriesResult, error)
	GetSeriesDetails(ctx context.Context, externalID string) (*SeriesResult, error)
	GetEpisodeTitles(ctx context.Context, seriesExternalID string, season int) ([]EpisodeTitle, error)
}

// CachedClient wraps a movieSource and seriesSource with the two-tier
// cache, token-bucket rate limiting, and retry-with-backoff every Client
// caller gets for free, so individual sources stay dumb HTTP wrappers.
type CachedClient struct {
	tmdb movieSource
	tvdb seriesSource

	limiter *rate.Limiter
	mem     *memCache
	persist PersistentCache
}

// NewCachedClient builds the production Client. persist may be nil, in
// which case only the in-memory tier is used (useful for tests and
// short-lived processes).
func NewCachedClient(tmdb *TMDBSource, tvdb *TVDBSource, persist PersistentCache) *CachedClient {
	return &CachedClient{
		tmdb: tmdb,
		tvdb: tvdb,
		// ~4 requests/second, matching both TMDB's and TVDB's documented
		// soft rate limits without tripping their 429 thresholds.
		limiter: rate.NewLimiter(rate.Limit(4), 4),
		mem:     newMemCache(),
		persist: persist,
	}
}

func fingerprint(parts ...string) string {
	h := sha256.New()
	for _, p := range parts {
		h.Write([]byte(p))
		h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil))
}

// withCache runs fetch only on a cache miss, storing the result in both
// tiers keyed by key, and returns the value from whichever tier hit.
func withCache[T any](ctx context.Context, c *CachedClient, key string, fetch func(ctx context.Context) (T, error)) (T, error) {
	var zero T

	if v, ok := c.mem.get(key); ok {
		return v.(T), nil
	}

	if c.persist != nil {
		if raw, _, ok, err := c.persist.Get(ctx, key); err == nil && ok {
			if decoded, ok := decodeCached[T](raw); ok {
				c.mem.set(key, decoded, time.Now().Add(cacheTTL))
				return decoded, nil
			}
		}
	}

	value, err := withRetry(ctx, c, fetch)
	if err != nil {
		return zero, err
	}

	expires := time.Now().Add(cacheTTL)
	c.mem.set(key, value, expires)
	if c.persist != nil {
		if raw, ok := encodeCached(value); ok {
			_ = c.persist.Set(ctx, key, raw, expires)
		}
	}
	return value, nil
}

// withRetry applies the rate limiter and retries transient upstream
// failures with exponential backoff, honoring ctx cancellation at every
// suspension point (waiting on the limiter, and between attempts).
func withRetry[T any](ctx context.Context, c *CachedClient, fetch func(ctx context.Context) (T, error)) (T, error) {
	var zero T
	delay := retryBaseDelay

	for attempt := 0; attempt < retryAttempts; attempt++ {
		if err := c.limiter.Wait(ctx); err != nil {
			return zero, videoerr.New(videoerr.Cancelled, "catalog.withRetry", err)
		}

		value, err := fetch(ctx)
		if err == nil {
			return value, nil
		}
		if !isRetryable(err) || attempt == retryAttempts-1 {
			return zero, classifyErr(err)
		}

		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return zero, videoerr.New(videoerr.Cancelled, "catalog.withRetry", ctx.Err())
		}
		delay *= 2
		if delay > retryMaxDelay {
			delay = retryMaxDelay
		}
	}
	return zero, videoerr.New(videoerr.ExternalTransient, "catalog.withRetry", fmt.Errorf("exhausted %d attempts", retryAttempts))
}

func (c *CachedClient) SearchMovies(ctx context.Context, query string, year *int) ([]MovieResult, error) {
	key := fingerprint("movie_search", query, yearKey(year))
	return withCache(ctx, c, key, func(ctx context.Context) ([]MovieResult, error) {
		return c.tmdb.SearchMovies(ctx, query, year)
	})
}

func (c *CachedClient) GetMovieDetails(ctx context.Context, externalID string) (*MovieResult, error) {
	key := fingerprint("movie_details", externalID)
	return withCache(ctx, c, key, func(ctx context.Context) (*MovieResult, error) {
		return c.tmdb.GetMovieDetails(ctx, externalID)
	})
}

func (c *CachedClient) FindMovieByExternalID(ctx context.Context, idKind, id string) (*MovieResult, error) {
	key := fingerprint("movie_by_id", idKind, id)
	return withCache(ctx, c, key, func(ctx context.Context) (*MovieResult, error) {
		if idKind == "imdb" {
			return c.tmdb.FindByIMDBID(ctx, id)
		}
		return c.tmdb.GetMovieDetails(ctx, id)
	})
}

func (c *CachedClient) SearchSeries(ctx context.Context, query string, year *int) ([]SeriesResult, error) {
	key := fingerprint("series_search", query, yearKey(year))
	return withCache(ctx, c, key, func(ctx context.Context) ([]SeriesResult, error) {
		return c.tvdb.SearchSeries(ctx, query, year)
	})
}

func (c *CachedClient) GetSeriesDetails(ctx context.Context, externalID string) (*SeriesResult, error) {
	key := fingerprint("series_details", externalID)
	return withCache(ctx, c, key, func(ctx context.Context) (*SeriesResult, error) {
		return c.tvdb.GetSeriesDetails(ctx, externalID)
	})
}

func (c *CachedClient) GetSeriesExternalIDs(ctx context.Context, externalID string) (string, string, error) {
	details, err := c.GetSeriesDetails(ctx, externalID)
	if err != nil {
		return "", "", err
	}
	return details.IMDBID, details.TVDBID, nil
}

func (c *CachedClient) GetEpisodeTitles(ctx context.Context, seriesExternalID string, season int) ([]EpisodeTitle, error) {
	key := fingerprint("episode_titles", seriesExternalID, fmt.Sprintf("%d", season))
	return withCache(ctx, c, key, func(ctx context.Context) ([]EpisodeTitle, error) {
		return c.tvdb.GetEpisodeTitles(ctx, seriesExternalID, season)
	})
}

func yearKey(y *int) string {
	if y == nil {
		return ""
	}
	return fmt.Sprintf("%d", *y)
}

var _ Client = (*CachedClient)(nil)
