package ingestion

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jonathan/career-compass/internal/fetch"
)

var (
	// ErrHTTPRequestFailed is returned when the posting page cannot be fetched
	ErrHTTPRequestFailed = errors.New("HTTP request failed")
	// ErrContentExtractionFailed is returned when no posting text can be extracted
	ErrContentExtractionFailed = errors.New("content extraction failed")
)

// BrowserFunc renders a page in a headless browser and returns its HTML.
type BrowserFunc func(ctx context.Context, url string, logger *slog.Logger) (string, error)

// JobFetcher fetches job posting pages and reduces them to description text.
type JobFetcher struct {
	pages   *fetch.CachedFetcher
	browser BrowserFunc
	logger  *slog.Logger
}

// NewJobFetcher creates a fetcher. A nil browser disables the headless fallback.
func NewJobFetcher(pages *fetch.CachedFetcher, browser BrowserFunc, logger *slog.Logger) *JobFetcher {
	if pages == nil {
		pages = fetch.NewCachedFetcher(nil)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &JobFetcher{pages: pages, browser: browser, logger: logger}
}

// FetchJobDescription fetches urlStr, extracts the posting with board-specific
// selectors and returns the cleaned text. Pages that render client-side are
// re-rendered in the browser when one is configured.
func (f *JobFetcher) FetchJobDescription(ctx context.Context, urlStr string) (string, *Metadata, error) {
	platform := fetch.DetectPlatform(urlStr)
	log := f.logger.With("url", urlStr, "platform", platform)

	result, err := f.pages.Fetch(ctx, urlStr)
	if err != nil {
		return "", nil, fmt.Errorf("%w: %w", ErrHTTPRequestFailed, err)
	}

	contentSelectors := fetch.PlatformContentSelectors(platform)
	noiseSelectors := fetch.PlatformNoiseSelectors(platform)

	text, err := fetch.ExtractMainText(result.HTML, contentSelectors, noiseSelectors...)
	if err != nil {
		return "", nil, fmt.Errorf("%w: %w", ErrContentExtractionFailed, err)
	}

	rendered := false
	if f.browser != nil && (fetch.ShouldUseBrowser(text) || fetch.RendersClientSide(platform)) {
		log.Debug("falling back to browser rendering", "chars", len(text))
		html, err := f.browser(ctx, urlStr, f.logger)
		switch {
		case err != nil:
			log.Warn("browser rendering failed, using HTTP content", "error", err)
		default:
			if browserText, err := fetch.ExtractMainText(html, contentSelectors, noiseSelectors...); err == nil && len(browserText) > len(text) {
				text = browserText
				rendered = true
			}
		}
	}

	cleaned := CleanText(text)
	if cleaned == "" {
		return "", nil, fmt.Errorf("%w: no text found at %s", ErrContentExtractionFailed, urlStr)
	}

	metadata := NewMetadata(cleaned, urlStr)
	metadata.Platform = string(platform)
	metadata.Rendered = rendered
	metadata.FromCache = result.FromCache
	log.Debug("fetched job description", "chars", len(cleaned), "cached", result.FromCache)
	return cleaned, metadata, nil
}
