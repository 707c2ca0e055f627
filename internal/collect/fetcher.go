package collect

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/mmcdole/gofeed"
)

const (
	// MaxArticlesPerFeed caps how many entries of each feed are kept.
	MaxArticlesPerFeed = 5

	defaultUserAgent = "feedboard/1.0 (feed aggregator)"
	maxRedirects     = 10
)

// Fetcher retrieves one feed and returns its entries in feed order.
type Fetcher interface {
	Fetch(ctx context.Context, feedURL string) ([]RawEntry, error)
}

// FetchError reports a failed feed retrieval together with the feed URL.
type FetchError struct {
	URL string
	Err error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("feed %s: %v", e.URL, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// StatusError is returned for non-2xx responses.
type StatusError struct {
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("HTTP %d %s", e.Code, http.StatusText(e.Code))
}

// HTTPFetcher fetches feeds over HTTP and parses RSS, Atom and JSON feeds.
type HTTPFetcher struct {
	client    *http.Client
	userAgent string
}

// NewHTTPFetcher creates a fetcher. A zero timeout leaves requests bounded
// only by the caller's context.
func NewHTTPFetcher(timeout time.Duration, userAgent string) *HTTPFetcher {
	if userAgent == "" {
		userAgent = defaultUserAgent
	}
	return &HTTPFetcher{
		userAgent: userAgent,
		client: &http.Client{
			Timeout: timeout,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= maxRedirects {
					return http.ErrUseLastResponse
				}
				return nil
			},
		},
	}
}

// Fetch retrieves and parses feedURL. Any failure is returned as a
// *FetchError and no entries are returned with it.
func (f *HTTPFetcher) Fetch(ctx context.Context, feedURL string) ([]RawEntry, error) {
	entries, err := f.fetch(ctx, feedURL)
	if err != nil {
		return nil, &FetchError{URL: feedURL, Err: err}
	}
	return entries, nil
}

func (f *HTTPFetcher) fetch(ctx context.Context, feedURL string) ([]RawEntry, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, feedURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "application/rss+xml, application/atom+xml, application/feed+json, application/xml;q=0.9, */*;q=0.8")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &StatusError{Code: resp.StatusCode}
	}

	// gofeed parsers keep per-document state, so each fetch gets its own.
	feed, err := gofeed.NewParser().Parse(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parsing feed: %w", err)
	}

	entries := make([]RawEntry, 0, len(feed.Items))
	for _, item := range feed.Items {
		if item == nil {
			continue
		}
		entries = append(entries, entryFromItem(item))
	}
	return entries, nil
}
