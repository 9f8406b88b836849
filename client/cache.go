package client

import (
	"context"
	"strconv"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// documentCache holds the last successfully decoded artifact for ttl.
// Failed loads are never cached. Concurrent misses share one load, and
// each caller stops waiting as soon as its own context is done.
type documentCache struct {
	mu      sync.RWMutex
	doc     document
	fetched time.Time
	ttl     time.Duration

	group  singleflight.Group
	flight *flight
	nextID uint64
}

// flight is one shared load. Its context is cancelled once every caller
// waiting on it has gone.
type flight struct {
	key     string
	ctx     context.Context
	cancel  context.CancelFunc
	waiters int
}

func (c *documentCache) valid() bool {
	return c.doc != nil && c.ttl > 0 && time.Since(c.fetched) < c.ttl
}

func (c *documentCache) cached() (document, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.valid() {
		return c.doc, true
	}
	return nil, false
}

// Invalidate clears the cache so the next read triggers a fresh load.
func (c *documentCache) Invalidate() {
	c.mu.Lock()
	c.doc = nil
	c.mu.Unlock()
}

// ensureLoaded returns the cached document, calling load when it is stale.
// load runs without the lock held, on a context detached from any single
// caller.
func (c *documentCache) ensureLoaded(ctx context.Context, load func(context.Context) (document, error)) (document, error) {
	if doc, ok := c.cached(); ok {
		return doc, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f := c.join(ctx)
	defer c.leave(f)

	ch := c.group.DoChan(f.key, func() (any, error) {
		if doc, ok := c.cached(); ok {
			return doc, nil
		}
		doc, err := load(f.ctx)
		if err != nil {
			return nil, err
		}
		c.store(doc)
		return doc, nil
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(document), nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (c *documentCache) store(doc document) {
	if c.ttl <= 0 {
		return
	}
	c.mu.Lock()
	c.doc = doc
	c.fetched = time.Now()
	c.mu.Unlock()
}

// join registers the caller on the current flight, starting one if needed.
func (c *documentCache) join(ctx context.Context) *flight {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.flight == nil {
		c.nextID++
		fctx, cancel := context.WithCancel(context.WithoutCancel(ctx))
		c.flight = &flight{key: strconv.FormatUint(c.nextID, 10), ctx: fctx, cancel: cancel}
	}
	c.flight.waiters++
	return c.flight
}

// leave drops the caller from f and cancels the load when nobody waits.
func (c *documentCache) leave(f *flight) {
	c.mu.Lock()
	defer c.mu.Unlock()
	f.waiters--
	if f.waiters > 0 {
		return
	}
	f.cancel()
	if c.flight == f {
		c.flight = nil
	}
}
