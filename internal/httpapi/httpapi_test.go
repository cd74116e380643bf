package httpapi_test

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/schedcheck/schedcheck/internal/config"
	"github.com/schedcheck/schedcheck/internal/httpapi"
	"github.com/schedcheck/schedcheck/internal/store"
)

// fakeRunCache is httpapi's own in-memory RunCache double, in the spirit
// of pkg/loadbalancer's MockLoadBalancer (see internal/store/cache_test.go
// for the sibling fake; this package cannot import that one since it is
// unexported and package-scoped to store_test).
type fakeRunCache struct {
	mu   sync.Mutex
	runs map[string]string
}

func newFakeRunCache() *fakeRunCache { return &fakeRunCache{runs: make(map[string]string)} }

func (f *fakeRunCache) Get(_ context.Context, digest string) (string, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	runID, ok := f.runs[digest]
	return runID, ok, nil
}

func (f *fakeRunCache) Set(_ context.Context, digest, runID string, _ time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.runs[digest] = runID
	return nil
}

func (f *fakeRunCache) PublishProgress(context.Context, string, []byte) error { return nil }

func (f *fakeRunCache) SubscribeProgress(context.Context, string) (<-chan []byte, func(), error) {
	ch := make(chan []byte)
	return ch, func() {}, nil
}

var _ store.RunCache = (*fakeRunCache)(nil)

const sampleWorkload = `
processorGroups:
  - name: cpu
    index: 0
    cores: 1
standaloneJobs:
  - name: J1
    id:
      taskId: 1
      jobIndex: 0
    arrival:
      lo: 0
      hi: 0
    cost:
      lo: 1
      hi: 2
    deadline: 10
    group: 0
`

func newTestServer(t *testing.T, cache store.RunCache) *httpapi.Server {
	t.Helper()
	cfg := config.Default()
	cfg.Auth.Enabled = false
	cfg.API.RateLimit.Enabled = false
	srv, err := httpapi.NewServer(cfg, nil, cache, slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)
	return srv
}

// TestSubmitAndGetRun exercises POST /runs for a single standalone job,
// then polls GET /runs/:id until the background analysis reaches a terminal
// status (completed or failed).
func TestSubmitAndGetRun(t *testing.T) {
	srv := newTestServer(t, newFakeRunCache())
	router := srv.Router()

	req := httptest.NewRequest(http.MethodPost, "/runs", strings.NewReader(sampleWorkload))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusAccepted, rec.Code)

	var submitted struct {
		RunID  string `json:"runId"`
		Status string `json:"status"`
		Cached bool   `json:"cached"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &submitted))
	assert.False(t, submitted.Cached)
	assert.NotEmpty(t, submitted.RunID)

	require.Eventually(t, func() bool {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/runs/"+submitted.RunID, nil))
		if rec.Code != http.StatusOK {
			return false
		}
		var rs struct {
			Status string `json:"status"`
		}
		_ = json.Unmarshal(rec.Body.Bytes(), &rs)
		return rs.Status == "completed" || rs.Status == "failed"
	}, 2*time.Second, 10*time.Millisecond)
}

// TestSubmitRunCacheDedup is W-S3: resubmitting byte-identical workload
// content within the cache TTL returns the same RunID without a second
// engine invocation, asserted against fakeRunCache rather than a live
// Redis server.
func TestSubmitRunCacheDedup(t *testing.T) {
	cache := newFakeRunCache()
	srv := newTestServer(t, cache)
	router := srv.Router()

	post := func() string {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/runs", strings.NewReader(sampleWorkload)))
		require.Equal(t, http.StatusAccepted, rec.Code)
		var body struct {
			RunID string `json:"runId"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		return body.RunID
	}

	first := post()
	require.Eventually(t, func() bool {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/runs/"+first, nil))
		return strings.Contains(rec.Body.String(), `"completed"`)
	}, 2*time.Second, 10*time.Millisecond)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/runs", strings.NewReader(sampleWorkload))
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var second struct {
		RunID  string `json:"runId"`
		Cached bool   `json:"cached"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &second))
	assert.True(t, second.Cached)
	assert.Equal(t, first, second.RunID)
}

func TestHealthz(t *testing.T) {
	srv := newTestServer(t, nil)
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}
