// Package client fetches the relationship artifact published by a pubindex
// build and extracts the entry for one slug.
//
// Navigation and related posts are an enhancement, so nothing in this
// package surfaces an error to the page: Fetch always returns a usable
// entry, falling back to no neighbours and no related posts.
package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/eringen/pubindex"
)

// maxArtifactBytes bounds how much of a response body is read.
const maxArtifactBytes = 16 << 20

// ErrNoEntry is returned by Lookup when the artifact has no entry for a slug.
var ErrNoEntry = errors.New("no entry for slug")

// StatusError is a non-200 artifact response.
type StatusError struct {
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("artifact request returned %d %s", e.Code, http.StatusText(e.Code))
}

// Temporary reports whether the status is worth retrying.
func (e *StatusError) Temporary() bool {
	return e.Code >= 500 || e.Code == http.StatusTooManyRequests || e.Code == http.StatusRequestTimeout
}

// Client retrieves artifact entries over HTTP.
type Client struct {
	http           *http.Client
	artifactURL    string
	timeout        time.Duration
	retries        int
	initialBackoff time.Duration
	maxBackoff     time.Duration
	log            *zap.Logger
	cache          *documentCache
	attempts       *prometheus.CounterVec
}

// Option configures a Client.
type Option func(*clientOptions)

type clientOptions struct {
	httpClient     *http.Client
	artifactPath   string
	timeout        time.Duration
	retries        int
	initialBackoff time.Duration
	maxBackoff     time.Duration
	cacheTTL       time.Duration
	log            *zap.Logger
	reg            prometheus.Registerer
}

// WithHTTPClient sets the HTTP client used for requests.
func WithHTTPClient(c *http.Client) Option {
	return func(o *clientOptions) { o.httpClient = c }
}

// WithArtifactPath sets the artifact's path on the base URL (default "/blog-data.json").
func WithArtifactPath(p string) Option {
	return func(o *clientOptions) { o.artifactPath = p }
}

// WithTimeout sets the per-attempt timeout (default 10s).
func WithTimeout(d time.Duration) Option {
	return func(o *clientOptions) { o.timeout = d }
}

// WithRetries sets how many retries follow a failed first attempt (default 3).
func WithRetries(n int) Option {
	return func(o *clientOptions) { o.retries = n }
}

// WithBackoff sets the exponential backoff bounds (default 250ms, 2s).
func WithBackoff(initial, max time.Duration) Option {
	return func(o *clientOptions) {
		o.initialBackoff = initial
		o.maxBackoff = max
	}
}

// WithCacheTTL sets how long a fetched artifact is reused (default 5m, 0 disables).
func WithCacheTTL(d time.Duration) Option {
	return func(o *clientOptions) { o.cacheTTL = d }
}

// WithLogger sets the logger for fetch warnings.
func WithLogger(l *zap.Logger) Option {
	return func(o *clientOptions) { o.log = l }
}

// WithRegisterer registers the client's metrics.
func WithRegisterer(reg prometheus.Registerer) Option {
	return func(o *clientOptions) { o.reg = reg }
}

// New creates a Client for the site at baseURL.
func New(baseURL string, opts ...Option) *Client {
	o := clientOptions{
		artifactPath:   "/blog-data.json",
		timeout:        10 * time.Second,
		retries:        3,
		initialBackoff: 250 * time.Millisecond,
		maxBackoff:     2 * time.Second,
		cacheTTL:       5 * time.Minute,
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.httpClient == nil {
		o.httpClient = &http.Client{}
	}
	if o.log == nil {
		o.log = zap.NewNop()
	}
	if o.retries < 0 {
		o.retries = 0
	}
	return &Client{
		http:           o.httpClient,
		artifactURL:    joinURL(baseURL, o.artifactPath),
		timeout:        o.timeout,
		retries:        o.retries,
		initialBackoff: o.initialBackoff,
		maxBackoff:     o.maxBackoff,
		log:            o.log,
		cache:          &documentCache{ttl: o.cacheTTL},
		attempts:       newAttemptsCounter(o.reg),
	}
}

// FromConfig creates a Client from the client section of a pubindex config.
func FromConfig(cfg pubindex.ClientConfig, artifactName string, opts ...Option) *Client {
	base := []Option{
		WithArtifactPath("/" + strings.TrimPrefix(artifactName, "/")),
		WithTimeout(cfg.Timeout),
		WithRetries(cfg.Retries),
		WithBackoff(cfg.InitialBackoff, cfg.MaxBackoff),
	}
	return New(cfg.BaseURL, append(base, opts...)...)
}

// URL returns the artifact URL the client requests.
func (c *Client) URL() string { return c.artifactURL }

// Invalidate drops the cached artifact.
func (c *Client) Invalidate() { c.cache.Invalidate() }

// Fetch returns the entry for slug, or the empty default when the slug is
// blank, the artifact cannot be fetched, or it holds no usable entry.
func (c *Client) Fetch(ctx context.Context, slug string) pubindex.Entry {
	entry, err := c.Lookup(ctx, slug)
	if err != nil {
		if !errors.Is(err, context.Canceled) {
			c.log.Warn("failed to load blog data", zap.String("slug", slug), zap.Error(err))
		}
		return pubindex.EmptyEntry()
	}
	return entry
}

// Lookup is Fetch with the failure reported. A blank slug yields the empty
// default and no error, without any request.
func (c *Client) Lookup(ctx context.Context, slug string) (pubindex.Entry, error) {
	slug = strings.TrimSpace(slug)
	if slug == "" {
		return pubindex.EmptyEntry(), nil
	}
	doc, err := c.cache.ensureLoaded(ctx, c.fetchDocument)
	if err != nil {
		return pubindex.EmptyEntry(), err
	}
	entry, ok := doc.entry(slug)
	if !ok {
		return pubindex.EmptyEntry(), fmt.Errorf("%w %q", ErrNoEntry, slug)
	}
	return entry, nil
}

// fetchDocument requests the artifact, retrying transient failures with
// exponential backoff until the retry budget or ctx is exhausted.
func (c *Client) fetchDocument(ctx context.Context) (document, error) {
	var doc document
	op := func() error {
		d, err := c.attempt(ctx)
		switch {
		case err == nil:
			c.attempts.WithLabelValues(outcomeSuccess).Inc()
			doc = d
			return nil
		case ctx.Err() != nil:
			return backoff.Permanent(ctx.Err())
		case isTransient(err):
			c.attempts.WithLabelValues(outcomeTransient).Inc()
			return err
		default:
			c.attempts.WithLabelValues(outcomePermanent).Inc()
			return backoff.Permanent(err)
		}
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = c.initialBackoff
	b.MaxInterval = c.maxBackoff
	b.MaxElapsedTime = 0
	policy := backoff.WithContext(backoff.WithMaxRetries(b, uint64(c.retries)), ctx)

	notify := func(err error, wait time.Duration) {
		c.log.Debug("retrying blog data fetch", zap.Error(err), zap.Duration("backoff", wait))
	}
	if err := backoff.RetryNotify(op, policy, notify); err != nil {
		return nil, err
	}
	return doc, nil
}

func (c *Client) attempt(ctx context.Context) (document, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.artifactURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, transient(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		se := &StatusError{Code: resp.StatusCode}
		if se.Temporary() {
			return nil, transient(se)
		}
		return nil, se
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxArtifactBytes))
	if err != nil {
		return nil, transient(err)
	}
	doc, err := decodeDocument(body)
	if err != nil {
		var syntaxErr *json.SyntaxError
		if errors.As(err, &syntaxErr) || errors.Is(err, io.ErrUnexpectedEOF) {
			// A truncated body from a cache or proxy usually heals.
			return nil, transient(err)
		}
		return nil, err
	}
	return doc, nil
}

type transientError struct{ err error }

func (e transientError) Error() string { return e.err.Error() }
func (e transientError) Unwrap() error { return e.err }

func transient(err error) error { return transientError{err: err} }

func isTransient(err error) bool {
	var te transientError
	return errors.As(err, &te)
}

func joinURL(base, p string) string {
	u, err := url.Parse(strings.TrimRight(base, "/"))
	if err != nil || base == "" {
		return p
	}
	u.Path = strings.TrimRight(u.Path, "/") + "/" + strings.TrimLeft(p, "/")
	return u.String()
}
