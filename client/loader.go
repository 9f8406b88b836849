package client

import (
	"context"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/eringen/pubindex"
)

// Status is the Loader's lifecycle state.
type Status int

const (
	StatusIdle      Status = iota // default empty entry, nothing requested
	StatusLoading                 // request in flight, entry still the default
	StatusPopulated               // entry came from the artifact
	StatusFailed                  // fetch gave up; entry stays the default
)

func (s Status) String() string {
	switch s {
	case StatusIdle:
		return "idle"
	case StatusLoading:
		return "loading"
	case StatusPopulated:
		return "populated"
	case StatusFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// EntrySource resolves one slug; *Client satisfies it.
type EntrySource interface {
	Lookup(ctx context.Context, slug string) (pubindex.Entry, error)
}

// Loader tracks the entry for the slug currently on display. Each Load
// cancels the previous one, and a cancelled load never writes its result.
// Load, State, Wait and Close may be called from any goroutine.
type Loader struct {
	src EntrySource
	log *zap.Logger

	mu     sync.Mutex
	idle   *sync.Cond // signalled when active drops to zero
	active int        // loads whose goroutine has not returned
	status Status
	entry  pubindex.Entry
	gen    uint64
	cancel context.CancelFunc
}

// NewLoader creates an idle Loader reading from src.
func NewLoader(src EntrySource, log *zap.Logger) *Loader {
	if log == nil {
		log = zap.NewNop()
	}
	l := &Loader{src: src, log: log, entry: pubindex.EmptyEntry()}
	l.idle = sync.NewCond(&l.mu)
	return l
}

// Load starts resolving slug in the background. A blank slug resets the
// loader to idle without a request.
func (l *Loader) Load(slug string) {
	slug = strings.TrimSpace(slug)

	l.mu.Lock()
	l.stopLocked()
	l.entry = pubindex.EmptyEntry()
	if slug == "" {
		l.status = StatusIdle
		l.mu.Unlock()
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	l.cancel = cancel
	l.status = StatusLoading
	gen := l.gen
	l.active++
	l.mu.Unlock()

	go func() {
		defer cancel()
		entry, err := l.src.Lookup(ctx, slug)

		l.mu.Lock()
		defer l.mu.Unlock()
		defer l.finishLocked()
		if gen != l.gen {
			return
		}
		l.cancel = nil
		if err != nil {
			l.log.Warn("blog data unavailable", zap.String("slug", slug), zap.Error(err))
			l.status = StatusFailed
			l.entry = pubindex.EmptyEntry()
			return
		}
		l.status = StatusPopulated
		l.entry = entry
	}()
}

// State returns the current status and entry.
func (l *Loader) State() (Status, pubindex.Entry) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.status, l.entry
}

// Wait blocks until every started load has returned.
func (l *Loader) Wait() {
	l.mu.Lock()
	l.waitLocked()
	l.mu.Unlock()
}

// Close cancels any in-flight load and waits for it to return.
func (l *Loader) Close() {
	l.mu.Lock()
	l.stopLocked()
	l.waitLocked()
	l.mu.Unlock()
}

func (l *Loader) waitLocked() {
	for l.active > 0 {
		l.idle.Wait()
	}
}

func (l *Loader) finishLocked() {
	l.active--
	if l.active == 0 {
		l.idle.Broadcast()
	}
}

// stopLocked invalidates the current load. l.mu must be held.
func (l *Loader) stopLocked() {
	l.gen++
	if l.cancel != nil {
		l.cancel()
		l.cancel = nil
	}
}
