// Package fetch - cached.go wraps URL fetching with an in-process page cache.
package fetch

import (
	"context"
	"sync"
	"time"
)

// DefaultPageCacheTTL is how long a fetched page is served from cache.
const DefaultPageCacheTTL = 24 * time.Hour

// DefaultFailureBackoff is how long a URL that failed permanently is skipped.
const DefaultFailureBackoff = 15 * time.Minute

// CachedFetcher wraps URL fetching with a TTL cache. Permanent failures (4xx)
// are remembered so repeated requests for a dead posting do not hit the board again.
type CachedFetcher struct {
	options   *Options
	cacheTTL  time.Duration
	backoff   time.Duration
	skipCache bool
	now       func() time.Time

	mu       sync.Mutex
	pages    map[string]cachedPage
	failures map[string]cachedFailure
}

type cachedPage struct {
	result    *Result
	fetchedAt time.Time
}

type cachedFailure struct {
	err      *Error
	failedAt time.Time
}

// CachedFetcherConfig holds configuration for the cached fetcher.
type CachedFetcherConfig struct {
	CacheTTL       time.Duration
	FailureBackoff time.Duration
	SkipCache      bool
	Options        *Options
}

// DefaultCachedFetcherConfig returns sensible defaults.
func DefaultCachedFetcherConfig() *CachedFetcherConfig {
	return &CachedFetcherConfig{
		CacheTTL:       DefaultPageCacheTTL,
		FailureBackoff: DefaultFailureBackoff,
		Options:        DefaultOptions(),
	}
}

// NewCachedFetcher creates a new cached fetcher.
func NewCachedFetcher(config *CachedFetcherConfig) *CachedFetcher {
	if config == nil {
		config = DefaultCachedFetcherConfig()
	}
	if config.Options == nil {
		config.Options = DefaultOptions()
	}
	if config.CacheTTL == 0 {
		config.CacheTTL = DefaultPageCacheTTL
	}
	if config.FailureBackoff == 0 {
		config.FailureBackoff = DefaultFailureBackoff
	}
	return &CachedFetcher{
		options:   config.Options,
		cacheTTL:  config.CacheTTL,
		backoff:   config.FailureBackoff,
		skipCache: config.SkipCache,
		now:       time.Now,
		pages:     make(map[string]cachedPage),
		failures:  make(map[string]cachedFailure),
	}
}

// CachedResult extends Result with cache metadata.
type CachedResult struct {
	*Result
	FromCache bool
	FetchedAt time.Time
}

// Fetch returns the page for urlStr, from cache when fresh.
func (f *CachedFetcher) Fetch(ctx context.Context, urlStr string) (*CachedResult, error) {
	now := f.now()
	if !f.skipCache {
		f.mu.Lock()
		if page, ok := f.pages[urlStr]; ok && now.Sub(page.fetchedAt) < f.cacheTTL {
			f.mu.Unlock()
			return &CachedResult{Result: page.result, FromCache: true, FetchedAt: page.fetchedAt}, nil
		}
		if failure, ok := f.failures[urlStr]; ok && now.Sub(failure.failedAt) < f.backoff {
			f.mu.Unlock()
			return nil, failure.err
		}
		f.mu.Unlock()
	}

	result, err := URL(ctx, urlStr, f.options)
	if err != nil {
		if fe, ok := err.(*Error); ok && result != nil && isPermanent(result.StatusCode) {
			f.mu.Lock()
			f.failures[urlStr] = cachedFailure{err: fe, failedAt: now}
			f.mu.Unlock()
		}
		return nil, err
	}

	f.mu.Lock()
	f.pages[urlStr] = cachedPage{result: result, fetchedAt: now}
	delete(f.failures, urlStr)
	f.mu.Unlock()
	return &CachedResult{Result: result, FetchedAt: now}, nil
}

// Forget drops any cached page or failure for urlStr.
func (f *CachedFetcher) Forget(urlStr string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.pages, urlStr)
	delete(f.failures, urlStr)
}

// isPermanent reports whether a status is not worth retrying soon.
// 408 and 429 are transient.
func isPermanent(status int) bool {
	return status >= 400 && status < 500 && status != 408 && status != 429
}
