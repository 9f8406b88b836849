package pubindex

import (
	"context"
	"errors"
	"io/fs"
	"sync"
	"time"
)

// ErrNotFound is returned when a requested slug is not in the artifact.
var ErrNotFound = errors.New("pubindex: not found")

// SiteCache is the preview server's in-memory view of the ordered posts and
// the artifact on disk, refreshed after ttl or on Invalidate.
type SiteCache struct {
	mu           sync.RWMutex
	posts        []Summary
	artifact     Artifact
	fetched      time.Time
	ttl          time.Duration
	indexer      *Indexer
	artifactPath string
}

// NewSiteCache creates a SiteCache over the posts indexer and artifact path.
func NewSiteCache(ix *Indexer, artifactPath string, ttl time.Duration) *SiteCache {
	return &SiteCache{indexer: ix, artifactPath: artifactPath, ttl: ttl}
}

func (c *SiteCache) valid() bool {
	return c.artifact != nil && time.Since(c.fetched) < c.ttl
}

// Invalidate clears the cache so the next read triggers a fresh load.
func (c *SiteCache) Invalidate() {
	c.mu.Lock()
	c.posts = nil
	c.artifact = nil
	c.mu.Unlock()
}

func (c *SiteCache) load(ctx context.Context) error {
	if c.valid() {
		return nil
	}
	posts, err := c.indexer.Index(ctx)
	if err != nil {
		return err
	}
	artifact, err := ReadArtifact(c.artifactPath)
	if errors.Is(err, fs.ErrNotExist) {
		artifact, err = Artifact{}, nil
	}
	if err != nil {
		return err
	}
	c.posts = posts
	c.artifact = artifact
	c.fetched = time.Now()
	return nil
}

// ensureLoaded returns cached posts and artifact after ensuring the cache is fresh.
// It tries a read lock first; only takes a write lock if a reload is needed.
func (c *SiteCache) ensureLoaded(ctx context.Context) ([]Summary, Artifact, error) {
	c.mu.RLock()
	if c.valid() {
		posts, artifact := c.posts, c.artifact
		c.mu.RUnlock()
		return posts, artifact, nil
	}
	c.mu.RUnlock()

	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.load(ctx); err != nil {
		return nil, nil, err
	}
	return c.posts, c.artifact, nil
}

// Posts returns the ordered collection.
func (c *SiteCache) Posts(ctx context.Context) ([]Summary, error) {
	posts, _, err := c.ensureLoaded(ctx)
	return posts, err
}

// Entry returns the artifact entry for slug.
func (c *SiteCache) Entry(ctx context.Context, slug string) (Entry, error) {
	_, artifact, err := c.ensureLoaded(ctx)
	if err != nil {
		return Entry{}, err
	}
	entry, ok := artifact[slug]
	if !ok {
		return Entry{}, ErrNotFound
	}
	return entry, nil
}
