package fetch

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultCachedFetcherConfig(t *testing.T) {
	config := DefaultCachedFetcherConfig()
	assert.Equal(t, DefaultPageCacheTTL, config.CacheTTL)
	assert.Equal(t, DefaultFailureBackoff, config.FailureBackoff)
	assert.False(t, config.SkipCache)
	assert.NotNil(t, config.Options)
}

func TestNewCachedFetcher_NilConfig(t *testing.T) {
	f := NewCachedFetcher(nil)
	assert.Equal(t, DefaultPageCacheTTL, f.cacheTTL)
	assert.NotNil(t, f.options)
}

func TestNewCachedFetcher_EmptyConfig(t *testing.T) {
	f := NewCachedFetcher(&CachedFetcherConfig{})
	assert.Equal(t, DefaultPageCacheTTL, f.cacheTTL)
	assert.Equal(t, DefaultFailureBackoff, f.backoff)
	assert.NotNil(t, f.options)
}

func TestCachedFetcher_ServesFromCacheUntilExpiry(t *testing.T) {
	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		_, _ = w.Write([]byte("<html><body>posting</body></html>"))
	}))
	defer server.Close()

	f := NewCachedFetcher(&CachedFetcherConfig{CacheTTL: time.Hour, Options: localOptions()})
	clock := time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC)
	f.now = func() time.Time { return clock }

	first, err := f.Fetch(context.Background(), server.URL)
	require.NoError(t, err)
	assert.False(t, first.FromCache)

	second, err := f.Fetch(context.Background(), server.URL)
	require.NoError(t, err)
	assert.True(t, second.FromCache)
	assert.Equal(t, int32(1), hits.Load())

	clock = clock.Add(2 * time.Hour)
	third, err := f.Fetch(context.Background(), server.URL)
	require.NoError(t, err)
	assert.False(t, third.FromCache)
	assert.Equal(t, int32(2), hits.Load())
}

func TestCachedFetcher_RemembersPermanentFailures(t *testing.T) {
	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	f := NewCachedFetcher(&CachedFetcherConfig{Options: localOptions()})
	_, err := f.Fetch(context.Background(), server.URL)
	require.Error(t, err)
	_, err = f.Fetch(context.Background(), server.URL)
	require.Error(t, err)
	assert.Equal(t, int32(1), hits.Load())

	f.Forget(server.URL)
	_, err = f.Fetch(context.Background(), server.URL)
	require.Error(t, err)
	assert.Equal(t, int32(2), hits.Load())
}

func TestCachedFetcher_RetriesTransientFailures(t *testing.T) {
	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	f := NewCachedFetcher(&CachedFetcherConfig{Options: localOptions()})
	_, _ = f.Fetch(context.Background(), server.URL)
	_, _ = f.Fetch(context.Background(), server.URL)
	assert.Equal(t, int32(2), hits.Load())
}

func TestCachedFetcher_SkipCache(t *testing.T) {
	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		_, _ = w.Write([]byte("ok"))
	}))
	defer server.Close()

	f := NewCachedFetcher(&CachedFetcherConfig{SkipCache: true, Options: localOptions()})
	_, err := f.Fetch(context.Background(), server.URL)
	require.NoError(t, err)
	_, err = f.Fetch(context.Background(), server.URL)
	require.NoError(t, err)
	assert.Equal(t, int32(2), hits.Load())
}
