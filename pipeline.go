package pubindex

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"
)

// Manifest scopes.
const (
	scopePosts  = "posts"
	scopeNotes  = "notes"
	scopeConfig = "config"
)

// Builder runs one site build: index, then the post-build tasks.
type Builder struct {
	cfg   Config
	log   *zap.Logger
	posts *Indexer
	notes *Indexer
	now   func() time.Time
}

// BuildOptions tune a single Run.
type BuildOptions struct {
	Force bool // ignore the change cache
}

// Report summarizes a build.
type Report struct {
	Posts          int
	Notes          int
	CacheHit       bool
	SitemapWritten bool
	Duration       time.Duration
}

// NewBuilder creates a Builder for cfg.
func NewBuilder(cfg Config, log *zap.Logger) *Builder {
	if log == nil {
		log = zap.NewNop()
	}
	return &Builder{
		cfg:   cfg,
		log:   log,
		posts: PostsIndexer(cfg, log),
		notes: NotesIndexer(cfg, log),
		now:   time.Now,
	}
}

// PostsIndexer returns the indexer for the posts directory.
func PostsIndexer(cfg Config, log *zap.Logger) *Indexer {
	return NewIndexer(cfg.Content.PostsDir,
		WithExtensions(cfg.Content.Extensions...),
		WithFallback(cfg.Content.OnError == "fallback"),
		WithDrafts(cfg.Content.IncludeDrafts),
		WithLogger(log.With(zap.String("collection", scopePosts))),
	)
}

// NotesIndexer returns the indexer for the notes directory, ordered by the
// "updated" field.
func NotesIndexer(cfg Config, log *zap.Logger) *Indexer {
	return NewIndexer(cfg.Content.NotesDir,
		WithExtensions(cfg.Content.Extensions...),
		WithDateField(DateFieldUpdated),
		WithFallback(cfg.Content.OnError == "fallback"),
		WithDrafts(cfg.Content.IncludeDrafts),
		WithLogger(log.With(zap.String("collection", scopeNotes))),
	)
}

// Run indexes the content and writes every artifact. Failure to index the
// posts or to write any artifact is returned; the caller should treat it as
// a failed build.
func (b *Builder) Run(ctx context.Context, opts BuildOptions) (Report, error) {
	start := b.now()
	var report Report

	posts, err := b.posts.Index(ctx)
	if err != nil {
		return report, fmt.Errorf("index posts: %w", err)
	}
	report.Posts = len(posts)

	hashes, err := b.hashes()
	if err != nil {
		b.log.Warn("change detection unavailable", zap.Error(err))
		hashes = nil
	}

	var manifest *Manifest
	if hashes != nil {
		manifest, err = OpenManifest(b.cfg.Build.ManifestPath)
		if err != nil {
			b.log.Warn("build manifest unavailable", zap.String("path", b.cfg.Build.ManifestPath), zap.Error(err))
			manifest = nil
		} else {
			defer manifest.Close()
		}
	}

	if !opts.Force && manifest != nil && b.upToDate(manifest, hashes) {
		b.log.Info("skipping post-build tasks, no changes detected")
		report.CacheHit = true
		report.Duration = b.now().Sub(start)
		return report, nil
	}

	notes, err := b.notes.Index(ctx)
	if err != nil {
		return report, fmt.Errorf("index notes: %w", err)
	}
	report.Notes = len(notes)

	g, _ := errgroup.WithContext(ctx)
	g.Go(func() error {
		artifact := BuildArtifact(posts, b.cfg.Build.RelatedLimit, b.log)
		if err := WriteJSON(b.cfg.ArtifactPath(), artifact); err != nil {
			return err
		}
		b.log.Info("generated blog data", zap.Int("posts", len(artifact)), zap.String("path", b.cfg.ArtifactPath()))
		return nil
	})
	g.Go(func() error {
		data := BuildNotesArtifact(notes, b.cfg.Build.NoteRelatedLimit, b.log)
		if err := WriteJSON(b.cfg.NotesArtifactPath(), data); err != nil {
			return err
		}
		b.log.Info("generated notes data", zap.Int("notes", len(data)), zap.String("path", b.cfg.NotesArtifactPath()))
		return nil
	})
	if b.cfg.Build.RSS {
		g.Go(func() error {
			path := filepath.Join(b.cfg.Build.OutputDir, "rss.xml")
			if err := WriteRSS(path, b.cfg.Site, posts); err != nil {
				return fmt.Errorf("write rss: %w", err)
			}
			b.log.Info("generated rss feed", zap.String("path", path))
			return nil
		})
	}
	if b.cfg.Build.Sitemap {
		g.Go(func() error {
			path := filepath.Join(b.cfg.Build.OutputDir, "sitemap.xml")
			written, err := WriteSitemap(path, b.cfg.Site, posts, b.cfg.Build.OverwriteSitemap)
			if err != nil {
				return fmt.Errorf("write sitemap: %w", err)
			}
			report.SitemapWritten = written
			if written {
				b.log.Info("generated sitemap", zap.String("path", path))
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return report, err
	}

	if manifest != nil {
		if err := manifest.Record(hashes, b.now()); err != nil {
			b.log.Warn("could not update build manifest", zap.Error(err))
		}
	}
	report.Duration = b.now().Sub(start)
	return report, nil
}

func (b *Builder) upToDate(m *Manifest, hashes Hashes) bool {
	if _, err := os.Stat(b.cfg.ArtifactPath()); err != nil {
		return false
	}
	last, err := m.LastBuild()
	if err != nil || last.IsZero() || b.now().Sub(last) >= b.cfg.Build.CacheTTL {
		return false
	}
	ok, err := m.Matches(hashes)
	if err != nil {
		b.log.Warn("read build manifest", zap.Error(err))
		return false
	}
	return ok
}

// hashes fingerprints every content file and the build-relevant config.
func (b *Builder) hashes() (Hashes, error) {
	out := make(Hashes, 3)
	for scope, ix := range map[string]*Indexer{scopePosts: b.posts, scopeNotes: b.notes} {
		names, err := ix.Files()
		if err != nil {
			return nil, err
		}
		files, err := HashFiles(ix.Dir(), names)
		if err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
		out[scope] = files
	}
	cfgBytes, err := yaml.Marshal(struct {
		Site    SiteConfig    `yaml:"site"`
		Content ContentConfig `yaml:"content"`
		Build   BuildConfig   `yaml:"build"`
	}{b.cfg.Site, b.cfg.Content, b.cfg.Build})
	if err != nil {
		return nil, err
	}
	out[scopeConfig] = map[string]string{"config": HashBytes(cfgBytes)}
	return out, nil
}
