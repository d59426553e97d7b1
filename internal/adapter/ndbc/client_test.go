package ndbc

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/swell-alert-etl/internal/domain"
	"github.com/couchcryptid/swell-alert-etl/internal/observability"
)

const feedBody = `#YY  MM DD hh mm WDIR WSPD GST  WVHT   DPD   APD MWD
#yr  mo dy hr mn degT m/s  m/s     m   sec   sec degT
2024 01 15 12 40 100  4.0  5.0   0.6  14.0   7.2 110
`

func testClient(baseURL string) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: 5 * time.Second},
		baseURL:    baseURL,
		maxBody:    maxBodyBytes,
		cache:      newLRUCache[cachedFeed](cacheEntries),
		metrics:    observability.NewMetricsForTesting(),
		logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

func requireFetchError(t *testing.T, err error) *domain.FetchError {
	t.Helper()
	require.Error(t, err)
	var fe *domain.FetchError
	require.True(t, errors.As(err, &fe), "expected *domain.FetchError, got %T", err)
	return fe
}

func TestClient_URL(t *testing.T) {
	c := NewClient("https://www.ndbc.noaa.gov/", time.Second, observability.NewMetricsForTesting(), slog.Default())
	assert.Equal(t, "https://www.ndbc.noaa.gov/data/realtime2/41117.txt", c.URL("41117", domain.FeedStandard))
	assert.Equal(t, "https://www.ndbc.noaa.gov/data/realtime2/SFXC1.spec", c.URL(" sfxc1 ", domain.FeedSpectral))

	assert.Equal(t, DefaultBaseURL+"/data/realtime2/41117.json", NewClient("", time.Second, observability.NewMetricsForTesting(), slog.Default()).URL("41117", domain.FeedJSON))
}

func TestClient_Fetch_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/data/realtime2/41117.txt", r.URL.Path)
		assert.Contains(t, r.Header.Get("User-Agent"), "swell-alert-etl")
		_, _ = io.WriteString(w, feedBody)
	}))
	defer srv.Close()

	c := testClient(srv.URL)
	body, err := c.Fetch(context.Background(), "41117", domain.FeedStandard)
	require.NoError(t, err)
	assert.Equal(t, feedBody, body)
	assert.InDelta(t, 1, testutil.ToFloat64(c.metrics.FeedRequests.WithLabelValues("txt", "success")), 0)
}

func TestClient_Fetch_NotFound(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		http.NotFound(w, nil)
	}))
	defer srv.Close()

	c := testClient(srv.URL)
	_, err := c.Fetch(context.Background(), "00000", domain.FeedStandard)

	fe := requireFetchError(t, err)
	assert.Equal(t, http.StatusNotFound, fe.StatusCode)
	assert.Equal(t, "00000", fe.Station)
	assert.Equal(t, int32(1), calls.Load())
	assert.InDelta(t, 1, testutil.ToFloat64(c.metrics.FeedRequests.WithLabelValues("txt", "error")), 0)
}

func TestClient_Fetch_ServerErrorIsNotRetried(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	_, err := testClient(srv.URL).Fetch(context.Background(), "41117", domain.FeedStandard)

	fe := requireFetchError(t, err)
	assert.Equal(t, http.StatusServiceUnavailable, fe.StatusCode)
	assert.Equal(t, int32(1), calls.Load())
}

func TestClient_Fetch_Timeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		<-release
	}))
	defer srv.Close()
	defer close(release)

	c := testClient(srv.URL)
	c.httpClient.Timeout = 50 * time.Millisecond

	_, err := c.Fetch(context.Background(), "41117", domain.FeedStandard)
	fe := requireFetchError(t, err)
	assert.Zero(t, fe.StatusCode)
}

func TestClient_Fetch_NetworkError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := testClient(url).Fetch(context.Background(), "41117", domain.FeedStandard)

	fe := requireFetchError(t, err)
	assert.Zero(t, fe.StatusCode)
	assert.Error(t, fe.Err)
}

func TestClient_Fetch_ContextCancelled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := testClient(srv.URL).Fetch(ctx, "41117", domain.FeedStandard)
	requireFetchError(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestClient_Fetch_RevalidatesCachedFeed(t *testing.T) {
	const etag = `"5f3c-61a2"`
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		if r.Header.Get("If-None-Match") == etag {
			w.WriteHeader(http.StatusNotModified)
			return
		}
		w.Header().Set("ETag", etag)
		_, _ = io.WriteString(w, feedBody)
	}))
	defer srv.Close()

	c := testClient(srv.URL)
	first, err := c.Fetch(context.Background(), "41117", domain.FeedStandard)
	require.NoError(t, err)
	second, err := c.Fetch(context.Background(), "41117", domain.FeedStandard)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, int32(2), calls.Load())
	assert.Equal(t, 1, c.cache.len())
}

func TestClient_Fetch_NotModifiedWithoutCacheIsError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotModified)
	}))
	defer srv.Close()

	_, err := testClient(srv.URL).Fetch(context.Background(), "41117", domain.FeedStandard)
	fe := requireFetchError(t, err)
	assert.Equal(t, http.StatusNotModified, fe.StatusCode)
}

func TestClient_Fetch_OversizedBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, feedBody)
	}))
	defer srv.Close()

	c := testClient(srv.URL)
	c.maxBody = int64(len(feedBody)) - 1

	_, err := c.Fetch(context.Background(), "41117", domain.FeedStandard)
	fe := requireFetchError(t, err)
	assert.Zero(t, fe.StatusCode)
	assert.ErrorContains(t, err, "body exceeds")
	assert.Zero(t, c.cache.len())

	c.maxBody = int64(len(feedBody))
	body, err := c.Fetch(context.Background(), "41117", domain.FeedStandard)
	require.NoError(t, err)
	assert.Equal(t, feedBody, body, "a body exactly at the limit is accepted")
}
