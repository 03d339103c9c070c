package extractor

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"musicfeed/pkg/feed"
)

// maxPageSize caps how much of a page we read, YouTube result pages are large
const maxPageSize = 10 * 1024 * 1024

// defaultUserAgent matches what the pages are served to in a desktop browser
const defaultUserAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

// PageFetcher retrieves rendered page markup over HTTP with browser-like
// headers. Each page load is bounded by the client timeout, a slow page is
// a terminal upstream error, never retried.
type PageFetcher struct {
	client    *http.Client
	userAgent string
}

// NewPageFetcher creates a fetcher with the given per-request timeout.
// An empty userAgent falls back to a desktop browser string.
func NewPageFetcher(timeout time.Duration, userAgent string) *PageFetcher {
	if userAgent == "" {
		userAgent = defaultUserAgent
	}
	return &PageFetcher{
		client:    &http.Client{Timeout: timeout},
		userAgent: userAgent,
	}
}

// Get fetches the page and returns its markup plus the final URL after
// redirects, which is the canonical location of the content.
func (f *PageFetcher) Get(ctx context.Context, pageURL string) (body []byte, finalURL string, err error) {
	parsed, err := url.Parse(pageURL)
	if err != nil {
		return nil, "", fmt.Errorf("parse URL: %w", err)
	}
	if parsed.Scheme == "" || parsed.Host == "" {
		return nil, "", fmt.Errorf("%w: invalid URL %s", feed.ErrUpstream, pageURL)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, http.NoBody)
	if err != nil {
		return nil, "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", f.userAgent)
	addBrowserHeaders(req)

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("%w: fetch %s: %v", feed.ErrUpstream, pageURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, "", fmt.Errorf("%w: unexpected status %d for %s", feed.ErrUpstream, resp.StatusCode, pageURL)
	}

	body, err = io.ReadAll(io.LimitReader(resp.Body, maxPageSize))
	if err != nil {
		return nil, "", fmt.Errorf("%w: read %s: %v", feed.ErrUpstream, pageURL, err)
	}

	return body, resp.Request.URL.String(), nil
}
