// Package calendar implements the feed sync pipeline: fetching iCal feeds,
// parsing them, normalizing per-platform conventions into booking drafts,
// and reconciling drafts against the bookings store.
package calendar

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// DefaultFetchTimeout bounds a single feed request.
const DefaultFetchTimeout = 10 * time.Second

// DefaultMaxFeedBytes is the response size ceiling for one feed.
const DefaultMaxFeedBytes = 5 << 20 // 5 MiB

// Fetcher retrieves raw feed text over HTTP. It performs no retries;
// retry policy belongs to the caller.
type Fetcher struct {
	client   *http.Client
	maxBytes int64
}

// NewFetcher creates a fetcher with the given per-request timeout and
// response size ceiling. Zero values select the defaults.
func NewFetcher(timeout time.Duration, maxBytes int64) *Fetcher {
	if timeout <= 0 {
		timeout = DefaultFetchTimeout
	}
	if maxBytes <= 0 {
		maxBytes = DefaultMaxFeedBytes
	}
	return &Fetcher{
		client:   &http.Client{Timeout: timeout},
		maxBytes: maxBytes,
	}
}

// Fetch downloads the feed at url and returns its body as text.
// Any transport-level failure comes back as a *FetchError carrying the
// redacted URL, never the raw one.
func (f *Fetcher) Fetch(ctx context.Context, url string) (string, error) {
	src := RedactURL(url)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", &FetchError{Source: src, Err: err}
	}
	req.Header.Set("Accept", "text/calendar, text/plain")

	resp, err := f.client.Do(req)
	if err != nil {
		return "", &FetchError{Source: src, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", &FetchError{Source: src, Err: fmt.Errorf("feed returned status %d", resp.StatusCode)}
	}

	// Read one byte past the ceiling so an oversized feed is detected
	// instead of silently truncated.
	body, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBytes+1))
	if err != nil {
		return "", &FetchError{Source: src, Err: fmt.Errorf("reading feed body: %w", err)}
	}
	if int64(len(body)) > f.maxBytes {
		return "", &FetchError{Source: src, Err: fmt.Errorf("feed exceeds %d byte limit", f.maxBytes)}
	}

	return string(body), nil
}

// RedactURL hides the path and query of a feed URL for logging. Platform
// feed URLs embed opaque access tokens that must not reach the logs.
func RedactURL(u string) string {
	const suffix = "/...(redacted)"

	i := strings.Index(u, "://")
	if i == -1 {
		return "feed://...(redacted)"
	}

	rest := u[i+3:]
	j := strings.IndexByte(rest, '/')
	if j == -1 {
		return u + suffix
	}
	return u[:i+3+j] + suffix
}
