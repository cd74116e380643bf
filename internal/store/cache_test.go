package store_test

import (
	"context"
	"sync"
	"time"

	"github.com/schedcheck/schedcheck/internal/store"
)

// fakeRunCache is an in-memory RunCache test double, in the spirit of
// pkg/loadbalancer's MockLoadBalancer: a minimal stand-in for the real
// Redis-backed implementation. No test in this package uses it; the W-S3
// run-cache assertion lives in internal/httpapi/httpapi_test.go, which
// carries its own copy of this double.
type fakeRunCache struct {
	mu   sync.Mutex
	runs map[string]string
}

func newFakeRunCache() *fakeRunCache {
	return &fakeRunCache{runs: make(map[string]string)}
}

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
