package client

import (
	"context"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal("condition not met in time")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func waiters(c *Client) int {
	c.cache.mu.RLock()
	defer c.cache.mu.RUnlock()
	if c.cache.flight == nil {
		return 0
	}
	return c.cache.flight.waiters
}

// gatedServer holds every request until release is closed or the client
// goes away.
func gatedServer(t *testing.T, body []byte) (*artifactServer, chan struct{}, chan struct{}) {
	t.Helper()
	release := make(chan struct{})
	aborted := make(chan struct{}, 16)
	srv := serve(t, func(w http.ResponseWriter, r *http.Request, _ int) {
		select {
		case <-release:
			w.Write(body)
		case <-r.Context().Done():
			aborted <- struct{}{}
		}
	})
	return srv, release, aborted
}

func TestLoaderCloseDoesNotWaitForSharedFetch(t *testing.T) {
	_, body := fixtureArtifact(t)
	srv, release, _ := gatedServer(t, body)
	c := newTestClient(srv, WithTimeout(3*time.Second), WithRetries(0))

	a := NewLoader(c, nil)
	b := NewLoader(c, nil)
	a.Load("agents")
	waitFor(t, func() bool { return srv.requests.Load() == 1 })
	b.Load("hello")

	start := time.Now()
	b.Close()
	assert.Less(t, time.Since(start), 500*time.Millisecond, "closing one loader must not wait for another loader's fetch")

	close(release)
	a.Wait()
	status, entry := a.State()
	require.Equal(t, StatusPopulated, status)
	require.NotNil(t, entry.Navigation.Prev)
	assert.Equal(t, "chunking", entry.Navigation.Prev.Slug)
	a.Close()
	assert.EqualValues(t, 1, srv.requests.Load())
}

func TestLookupHonoursOwnDeadlineWhileSharing(t *testing.T) {
	_, body := fixtureArtifact(t)
	srv, release, _ := gatedServer(t, body)
	defer close(release)
	c := newTestClient(srv, WithTimeout(3*time.Second), WithRetries(0))

	first, cancelFirst := context.WithCancel(context.Background())
	defer cancelFirst()
	go c.Lookup(first, "agents")
	waitFor(t, func() bool { return srv.requests.Load() == 1 })

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	start := time.Now()
	_, err := c.Lookup(ctx, "hello")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), 500*time.Millisecond)
}

func TestLastCallerLeavingAbortsSharedFetch(t *testing.T) {
	_, body := fixtureArtifact(t)
	srv, release, aborted := gatedServer(t, body)
	defer close(release)
	c := newTestClient(srv, WithTimeout(time.Minute), WithRetries(0))

	ctxA, cancelA := context.WithCancel(context.Background())
	ctxB, cancelB := context.WithCancel(context.Background())
	errs := make(chan error, 2)
	go func() { _, err := c.Lookup(ctxA, "agents"); errs <- err }()
	waitFor(t, func() bool { return srv.requests.Load() == 1 })
	go func() { _, err := c.Lookup(ctxB, "hello"); errs <- err }()
	waitFor(t, func() bool { return waiters(c) == 2 })

	cancelA()
	assert.ErrorIs(t, <-errs, context.Canceled)
	select {
	case <-aborted:
		t.Fatal("fetch aborted while a caller was still waiting")
	case <-time.After(50 * time.Millisecond):
	}

	cancelB()
	assert.ErrorIs(t, <-errs, context.Canceled)
	select {
	case <-aborted:
	case <-time.After(2 * time.Second):
		t.Fatal("fetch kept running after every caller left")
	}
}

func TestConcurrentLookupsShareOneRequest(t *testing.T) {
	_, body := fixtureArtifact(t)
	srv, release, _ := gatedServer(t, body)
	c := newTestClient(srv)

	var wg sync.WaitGroup
	errs := make(chan error, 5)
	for _, slug := range []string{"evals", "chunking", "agents", "embeddings", "hello"} {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := c.Lookup(context.Background(), slug)
			errs <- err
		}()
	}
	waitFor(t, func() bool { return srv.requests.Load() == 1 })
	close(release)
	wg.Wait()
	close(errs)
	for err := range errs {
		assert.NoError(t, err)
	}
	assert.EqualValues(t, 1, srv.requests.Load())
}
