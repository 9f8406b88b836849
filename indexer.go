package pubindex

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
)

// Date fields a document can be ordered by.
const (
	DateFieldDate    = "date"
	DateFieldUpdated = "updated"
)

// ParseError reports a document whose metadata header could not be read.
type ParseError struct {
	Slug string
	Path string
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse %s: %v", e.Path, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// Indexer scans one content directory and produces the ordered collection.
type Indexer struct {
	dir       string
	exts      []string
	dateField string
	fallback  bool
	drafts    bool
	log       *zap.Logger
}

// IndexerOption configures an Indexer.
type IndexerOption func(*Indexer)

// WithExtensions sets the file extensions treated as documents.
func WithExtensions(exts ...string) IndexerOption {
	return func(ix *Indexer) {
		ix.exts = ix.exts[:0]
		for _, e := range exts {
			e = strings.ToLower(strings.TrimSpace(e))
			if e == "" {
				continue
			}
			if !strings.HasPrefix(e, ".") {
				e = "." + e
			}
			ix.exts = append(ix.exts, e)
		}
	}
}

// WithDateField selects the frontmatter key used for ordering.
func WithDateField(field string) IndexerOption {
	return func(ix *Indexer) { ix.dateField = field }
}

// WithFallback controls what happens to an unparsable document: included
// with a slug-derived title and no date (true), or skipped (false).
func WithFallback(enabled bool) IndexerOption {
	return func(ix *Indexer) { ix.fallback = enabled }
}

// WithDrafts includes documents marked draft: true.
func WithDrafts(enabled bool) IndexerOption {
	return func(ix *Indexer) { ix.drafts = enabled }
}

// WithLogger sets the logger used for per-document failures.
func WithLogger(l *zap.Logger) IndexerOption {
	return func(ix *Indexer) {
		if l != nil {
			ix.log = l
		}
	}
}

// NewIndexer creates an Indexer rooted at dir.
func NewIndexer(dir string, opts ...IndexerOption) *Indexer {
	ix := &Indexer{
		dir:       dir,
		exts:      []string{".mdx", ".md"},
		dateField: DateFieldDate,
		fallback:  true,
		log:       zap.NewNop(),
	}
	for _, opt := range opts {
		opt(ix)
	}
	return ix
}

// Dir returns the content directory.
func (ix *Indexer) Dir() string { return ix.dir }

// Files lists the document filenames in lexical order. A missing directory
// yields no files and no error.
func (ix *Indexer) Files() ([]string, error) {
	entries, err := os.ReadDir(ix.dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("read content dir %s: %w", ix.dir, err)
	}
	var names []string
	for _, e := range entries {
		if !e.Type().IsRegular() {
			continue
		}
		if ix.accepts(e.Name()) {
			names = append(names, e.Name())
		}
	}
	return names, nil
}

func (ix *Indexer) accepts(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	for _, e := range ix.exts {
		if ext == e {
			return true
		}
	}
	return false
}

// Index reads every document and returns the collection ordered newest
// first. Only a failure to list the directory is returned as an error;
// individual documents that fail are logged and skipped or fallback-filled.
func (ix *Indexer) Index(ctx context.Context) ([]Summary, error) {
	names, err := ix.Files()
	if err != nil {
		return nil, err
	}
	if names == nil {
		ix.log.Debug("content directory missing or empty", zap.String("dir", ix.dir))
	}

	posts := make([]Summary, 0, len(names))
	for _, name := range names {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		s, draft, err := ix.parseFile(name)
		if err != nil {
			if !ix.fallback {
				ix.log.Warn("skipping unparsable document", zap.Error(err))
				continue
			}
			ix.log.Warn("using fallback metadata for unparsable document", zap.Error(err))
			s = fallbackSummary(slugOf(name))
		} else if draft && !ix.drafts {
			ix.log.Debug("skipping draft", zap.String("slug", s.Slug))
			continue
		}
		posts = append(posts, s)
	}

	SortByDate(posts)
	return posts, nil
}

func (ix *Indexer) parseFile(name string) (Summary, bool, error) {
	slug := slugOf(name)
	path := filepath.Join(ix.dir, name)
	raw, err := os.ReadFile(path)
	if err != nil {
		return Summary{}, false, &ParseError{Slug: slug, Path: path, Err: err}
	}
	s, fm, err := ParseDocument(slug, raw, ix.dateField)
	if err != nil {
		return Summary{}, false, &ParseError{Slug: slug, Path: path, Err: err}
	}
	return s, fm.Draft, nil
}

func slugOf(name string) string {
	return strings.TrimSuffix(name, filepath.Ext(name))
}
