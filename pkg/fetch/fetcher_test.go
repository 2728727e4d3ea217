package fetch

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sriram-PR/md-toc/pkg/config"
	"github.com/Sriram-PR/md-toc/pkg/utils"
)

// testConfig returns validated fetch settings with fast retry delays
func testConfig(maxRetries int) config.FetchConfig {
	cfg := config.FetchConfig{
		MaxRetries:        maxRetries,
		InitialRetryDelay: 5 * time.Millisecond,
		MaxRetryDelay:     20 * time.Millisecond,
	}
	appCfg := config.AppConfig{NumWorkers: 1, StateDir: "s", Fetch: cfg}
	if _, err := appCfg.Validate(); err != nil {
		panic(err)
	}
	appCfg.Fetch.MaxRetries = maxRetries
	return appCfg.Fetch
}

func testLogger() *logrus.Entry {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return logrus.NewEntry(log)
}

// statusServer answers with statusCodes in sequence, repeating the last one
func statusServer(t *testing.T, statusCodes ...int) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	attempts := &atomic.Int32{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		idx := int(attempts.Add(1)) - 1
		if idx >= len(statusCodes) {
			idx = len(statusCodes) - 1
		}
		w.WriteHeader(statusCodes[idx])
	}))
	t.Cleanup(server.Close)
	return server, attempts
}

func fetchOnce(t *testing.T, ctx context.Context, cfg config.FetchConfig, url string) (*http.Response, error) {
	t.Helper()
	fetcher := NewFetcher(NewClient(cfg, testLogger()), cfg, testLogger())
	req, err := http.NewRequest(http.MethodGet, url, nil)
	require.NoError(t, err)
	resp, err := fetcher.FetchWithRetry(ctx, req)
	if resp != nil {
		t.Cleanup(func() { resp.Body.Close() })
	}
	return resp, err
}

func TestFetchWithRetry(t *testing.T) {
	tests := []struct {
		name       string
		retries    int
		statuses   []int
		attempts   int32
		wantStatus int   // 0: no response expected
		wantErr    error // nil: success expected
	}{
		{"ok", 3, []int{200}, 1, 200, nil},
		{"no content", 3, []int{204}, 1, 204, nil},
		{"5xx then ok", 3, []int{500, 503, 200}, 3, 200, nil},
		{"429 then ok", 3, []int{429, 200}, 2, 200, nil},
		{"mixed then ok", 3, []int{500, 429, 502, 200}, 4, 200, nil},
		{"5xx exhausted", 3, []int{500}, 4, 0, utils.ErrServerHTTPError},
		{"429 exhausted", 2, []int{429}, 3, 0, utils.ErrRetryFailed},
		{"zero retries", 0, []int{500}, 1, 0, utils.ErrRetryFailed},
		{"404 not retried", 3, []int{404}, 1, 404, utils.ErrClientHTTPError},
		{"403 not retried", 3, []int{403}, 1, 403, utils.ErrClientHTTPError},
		{"3xx without location", 3, []int{304}, 1, 304, utils.ErrOtherHTTPError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server, attempts := statusServer(t, tt.statuses...)
			resp, err := fetchOnce(t, context.Background(), testConfig(tt.retries), server.URL)

			assert.Equal(t, tt.attempts, attempts.Load())
			if tt.wantErr == nil {
				require.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, tt.wantErr)
			}
			if tt.wantStatus == 0 {
				assert.Nil(t, resp)
				return
			}
			require.NotNil(t, resp)
			assert.Equal(t, tt.wantStatus, resp.StatusCode)
		})
	}
}

func TestFetchWithRetry_ExhaustedWrapsBoth(t *testing.T) {
	server, _ := statusServer(t, 500)
	_, err := fetchOnce(t, context.Background(), testConfig(1), server.URL)

	assert.ErrorIs(t, err, utils.ErrRetryFailed)
	assert.ErrorIs(t, err, utils.ErrServerHTTPError)
	assert.Equal(t, "RetryFailed_HTTPServer", utils.CategorizeError(err))
}

func TestFetchWithRetry_ContextCancelledBeforeAttempt(t *testing.T) {
	server, attempts := statusServer(t, 200)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	resp, err := fetchOnce(t, ctx, testConfig(3), server.URL)
	assert.Nil(t, resp)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, int32(0), attempts.Load())
}

func TestFetchWithRetry_ContextTimeoutDuringBackoff(t *testing.T) {
	server, attempts := statusServer(t, 500)
	cfg := testConfig(3)
	cfg.InitialRetryDelay = 10 * time.Second
	cfg.MaxRetryDelay = 10 * time.Second

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	start := time.Now()
	resp, err := fetchOnce(t, ctx, cfg, server.URL)
	assert.Nil(t, resp)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.ErrorIs(t, err, utils.ErrServerHTTPError)
	assert.Equal(t, int32(1), attempts.Load())
	assert.Less(t, time.Since(start), 5*time.Second)
}

func TestFetchWithRetry_ContextTimeoutDuringRequest(t *testing.T) {
	slow := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-time.After(time.Second):
		case <-r.Context().Done():
		}
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(slow.Close)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	resp, err := fetchOnce(t, ctx, testConfig(3), slow.URL)
	assert.Nil(t, resp)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestFetchWithRetry_NetworkErrorRetried(t *testing.T) {
	attempts := &atomic.Int32{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if attempts.Add(1) == 1 {
			hj, ok := w.(http.Hijacker)
			if !ok {
				t.Error("server doesn't support hijacking")
				return
			}
			conn, _, _ := hj.Hijack()
			conn.Close()
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(server.Close)

	resp, err := fetchOnce(t, context.Background(), testConfig(3), server.URL)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, int32(2), attempts.Load())
}

func TestBackoff(t *testing.T) {
	f := &Fetcher{cfg: config.FetchConfig{InitialRetryDelay: 100 * time.Millisecond, MaxRetryDelay: 300 * time.Millisecond}}

	tests := []struct {
		attempt int
		base    time.Duration
	}{
		{1, 100 * time.Millisecond},
		{2, 200 * time.Millisecond},
		{3, 300 * time.Millisecond}, // capped
		{10, 300 * time.Millisecond},
	}
	for _, tt := range tests {
		d := f.backoff(tt.attempt)
		assert.GreaterOrEqual(t, d, tt.base-tt.base/10, "attempt %d", tt.attempt)
		assert.LessOrEqual(t, d, tt.base+tt.base/10, "attempt %d", tt.attempt)
	}

	zero := &Fetcher{}
	assert.Equal(t, time.Duration(0), zero.backoff(1))
}
