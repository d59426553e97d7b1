// Package ndbc fetches per-station realtime files from the National Data Buoy
// Center.
package ndbc

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/couchcryptid/swell-alert-etl/internal/domain"
	"github.com/couchcryptid/swell-alert-etl/internal/observability"
)

const (
	// DefaultBaseURL is the public NDBC site.
	DefaultBaseURL = "https://www.ndbc.noaa.gov"

	userAgent    = "swell-alert-etl (+https://github.com/couchcryptid/swell-alert-etl)"
	maxBodyBytes = 4 << 20 // a 45-day realtime2 file is well under 1 MiB
	cacheEntries = 256
)

// Client implements pipeline.FeedFetcher over HTTP. Responses carrying an
// ETag or Last-Modified are cached and revalidated on the next fetch. A
// failed request is not retried; the station is skipped for that run.
type Client struct {
	httpClient *http.Client
	baseURL    string
	maxBody    int64
	cache      *lruCache[cachedFeed]
	metrics    *observability.Metrics
	logger     *slog.Logger
}

// NewClient creates an NDBC client whose requests fail after timeout.
func NewClient(baseURL string, timeout time.Duration, metrics *observability.Metrics, logger *slog.Logger) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		httpClient: &http.Client{
			Timeout: timeout,
		},
		baseURL: strings.TrimRight(baseURL, "/"),
		maxBody: maxBodyBytes,
		cache:   newLRUCache[cachedFeed](cacheEntries),
		metrics: metrics,
		logger:  logger,
	}
}

// URL returns the realtime2 file location for a station feed.
func (c *Client) URL(station string, feed domain.Feed) string {
	return fmt.Sprintf("%s/data/realtime2/%s.%s", c.baseURL, url.PathEscape(strings.ToUpper(strings.TrimSpace(station))), feed)
}

// Fetch returns the body of one station feed. Failures are *domain.FetchError.
func (c *Client) Fetch(ctx context.Context, station string, feed domain.Feed) (string, error) {
	u := c.URL(station, feed)
	start := time.Now()

	body, err := c.doRequest(ctx, station, u)

	c.metrics.FeedFetchDuration.WithLabelValues(string(feed)).Observe(time.Since(start).Seconds())
	if err != nil {
		c.metrics.FeedRequests.WithLabelValues(string(feed), "error").Inc()
		return "", err
	}
	c.metrics.FeedRequests.WithLabelValues(string(feed), "success").Inc()
	return body, nil
}

func (c *Client) doRequest(ctx context.Context, station, u string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return "", &domain.FetchError{Station: station, URL: u, Err: fmt.Errorf("create request: %w", err)}
	}
	req.Header.Set("User-Agent", userAgent)

	cached, haveCached := c.cache.get(u)
	if haveCached {
		if cached.etag != "" {
			req.Header.Set("If-None-Match", cached.etag)
		}
		if cached.lastModified != "" {
			req.Header.Set("If-Modified-Since", cached.lastModified)
		}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", &domain.FetchError{Station: station, URL: u, Err: err}
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotModified && haveCached:
		c.logger.Debug("feed not modified", "station", station, "url", u)
		return cached.body, nil
	case resp.StatusCode != http.StatusOK:
		io.Copy(io.Discard, io.LimitReader(resp.Body, c.maxBody)) //nolint:errcheck // drain for connection reuse
		return "", &domain.FetchError{Station: station, URL: u, StatusCode: resp.StatusCode}
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, c.maxBody+1))
	if err != nil {
		return "", &domain.FetchError{Station: station, URL: u, Err: fmt.Errorf("read body: %w", err)}
	}
	if int64(len(data)) > c.maxBody {
		return "", &domain.FetchError{Station: station, URL: u, Err: fmt.Errorf("body exceeds %d bytes", c.maxBody)}
	}
	body := string(data)

	etag, lastModified := resp.Header.Get("ETag"), resp.Header.Get("Last-Modified")
	if etag != "" || lastModified != "" {
		c.cache.put(u, cachedFeed{etag: etag, lastModified: lastModified, body: body})
	}
	return body, nil
}
