package pubindex

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration for a pubindex build, preview server and client.
type Config struct {
	Site    SiteConfig    `yaml:"site"`
	Content ContentConfig `yaml:"content"`
	Build   BuildConfig   `yaml:"build"`
	Client  ClientConfig  `yaml:"client"`
	Server  ServerConfig  `yaml:"server"`
	Logging LoggingConfig `yaml:"logging"`
}

// SiteConfig describes the published site.
type SiteConfig struct {
	Name        string   `yaml:"name"`         // default "Writing"
	URL         string   `yaml:"url"`          // canonical URL, default "http://localhost:3000"
	Description string   `yaml:"description"`  // RSS channel description
	Section     string   `yaml:"section"`      // URL segment for posts, default "writing"
	StaticPages []string `yaml:"static_pages"` // extra sitemap paths
}

// ContentConfig points at the content sources.
type ContentConfig struct {
	PostsDir      string   `yaml:"posts_dir"`  // default "pages/writing"
	NotesDir      string   `yaml:"notes_dir"`  // default "pages/notes"
	Extensions    []string `yaml:"extensions"` // default [".mdx", ".md"]
	OnError       string   `yaml:"on_error"`   // "fallback" (default) or "skip"
	IncludeDrafts bool     `yaml:"include_drafts"`
}

// BuildConfig controls the artifacts written by a build.
type BuildConfig struct {
	OutputDir         string        `yaml:"output_dir"`          // default "public"
	ArtifactName      string        `yaml:"artifact_name"`       // default "blog-data.json"
	NotesArtifactName string        `yaml:"notes_artifact_name"` // default "notes-data.json"
	RelatedLimit      int           `yaml:"related_limit"`       // default 3
	NoteRelatedLimit  int           `yaml:"note_related_limit"`  // default 5
	ManifestPath      string        `yaml:"manifest_path"`       // default ".pubindex/manifest.db"
	CacheTTL          time.Duration `yaml:"cache_ttl"`           // default 24h
	RSS               bool          `yaml:"rss"`
	Sitemap           bool          `yaml:"sitemap"`
	OverwriteSitemap  bool          `yaml:"overwrite_sitemap"`
}

// ClientConfig configures the artifact fetcher.
type ClientConfig struct {
	BaseURL        string        `yaml:"base_url"`
	Timeout        time.Duration `yaml:"timeout"` // per attempt, default 10s
	Retries        int           `yaml:"retries"` // default 3
	InitialBackoff time.Duration `yaml:"initial_backoff"`
	MaxBackoff     time.Duration `yaml:"max_backoff"`
}

// ServerConfig configures the preview server.
type ServerConfig struct {
	Addr          string        `yaml:"addr"` // default ":3000"
	Watch         bool          `yaml:"watch"`
	DebounceDelay time.Duration `yaml:"debounce_delay"` // default 500ms
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Env   string `yaml:"env"`   // local, dev, prod (default local)
	Level string `yaml:"level"` // debug, info, warn, error
}

// DefaultConfig returns a Config with every default applied.
func DefaultConfig() Config {
	c := seedConfig()
	c.ApplyDefaults()
	return c
}

// seedConfig sets the defaults that a zero value cannot express, before a
// config file gets the chance to override them.
func seedConfig() Config {
	var c Config
	c.Build.RSS = true
	c.Build.Sitemap = true
	c.Client.Retries = 3
	return c
}

// LoadConfig reads a YAML config file, expands ${VAR} references, applies
// environment overrides and defaults, and validates the result. A missing
// file is not an error: the defaults are used.
func LoadConfig(path string) (Config, error) {
	cfg := seedConfig()
	if path != "" {
		data, err := os.ReadFile(filepath.Clean(path))
		switch {
		case errors.Is(err, fs.ErrNotExist):
		case err != nil:
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		default:
			if err := yaml.Unmarshal(expandEnvVars(data), &cfg); err != nil {
				return Config{}, fmt.Errorf("parse config %s: %w", path, err)
			}
		}
	}
	cfg.applyEnv()
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	c.Site.URL = EnvOr("SITE_URL", c.Site.URL)
	c.Site.Name = EnvOr("SITE_NAME", c.Site.Name)
	c.Content.PostsDir = EnvOr("CONTENT_DIR", c.Content.PostsDir)
	c.Build.OutputDir = EnvOr("OUTPUT_DIR", c.Build.OutputDir)
	c.Logging.Env = EnvOr("ENV", c.Logging.Env)
	c.Logging.Level = EnvOr("LOG_LEVEL", c.Logging.Level)
}

// ApplyDefaults fills empty fields with default values.
func (c *Config) ApplyDefaults() {
	if c.Site.Name == "" {
		c.Site.Name = "Writing"
	}
	if c.Site.URL == "" {
		c.Site.URL = "http://localhost:3000"
	}
	c.Site.URL = trimTrailingSlash(c.Site.URL)
	if c.Site.Section == "" {
		c.Site.Section = "writing"
	}
	if c.Site.StaticPages == nil {
		c.Site.StaticPages = []string{"/writing", "/about", "/projects"}
	}
	if c.Content.PostsDir == "" {
		c.Content.PostsDir = filepath.Join("pages", "writing")
	}
	if c.Content.NotesDir == "" {
		c.Content.NotesDir = filepath.Join("pages", "notes")
	}
	if len(c.Content.Extensions) == 0 {
		c.Content.Extensions = []string{".mdx", ".md"}
	}
	if c.Content.OnError == "" {
		c.Content.OnError = "fallback"
	}
	if c.Build.OutputDir == "" {
		c.Build.OutputDir = "public"
	}
	if c.Build.ArtifactName == "" {
		c.Build.ArtifactName = "blog-data.json"
	}
	if c.Build.NotesArtifactName == "" {
		c.Build.NotesArtifactName = "notes-data.json"
	}
	if c.Build.RelatedLimit <= 0 {
		c.Build.RelatedLimit = DefaultRelatedLimit
	}
	if c.Build.NoteRelatedLimit <= 0 {
		c.Build.NoteRelatedLimit = DefaultNoteRelatedLimit
	}
	if c.Build.ManifestPath == "" {
		c.Build.ManifestPath = filepath.Join(".pubindex", "manifest.db")
	}
	if c.Build.CacheTTL <= 0 {
		c.Build.CacheTTL = 24 * time.Hour
	}
	if c.Client.BaseURL == "" {
		c.Client.BaseURL = c.Site.URL
	}
	if c.Client.Timeout <= 0 {
		c.Client.Timeout = 10 * time.Second
	}
	if c.Client.Retries < 0 {
		c.Client.Retries = 0
	}
	if c.Client.InitialBackoff <= 0 {
		c.Client.InitialBackoff = 250 * time.Millisecond
	}
	if c.Client.MaxBackoff <= 0 {
		c.Client.MaxBackoff = 2 * time.Second
	}
	if c.Server.Addr == "" {
		c.Server.Addr = ":3000"
	}
	if c.Server.DebounceDelay <= 0 {
		c.Server.DebounceDelay = 500 * time.Millisecond
	}
	if c.Logging.Env == "" {
		c.Logging.Env = "local"
	}
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	switch c.Content.OnError {
	case "fallback", "skip":
	default:
		return fmt.Errorf("content.on_error must be \"fallback\" or \"skip\", got %q", c.Content.OnError)
	}
	switch c.Logging.Env {
	case "local", "dev", "prod":
	default:
		return fmt.Errorf("logging.env must be local, dev or prod, got %q", c.Logging.Env)
	}
	if c.Client.InitialBackoff > c.Client.MaxBackoff {
		return fmt.Errorf("client.initial_backoff (%s) exceeds client.max_backoff (%s)", c.Client.InitialBackoff, c.Client.MaxBackoff)
	}
	return nil
}

// ArtifactPath is where the relationship artifact is written.
func (c *Config) ArtifactPath() string {
	return filepath.Join(c.Build.OutputDir, c.Build.ArtifactName)
}

// NotesArtifactPath is where the notes artifact is written.
func (c *Config) NotesArtifactPath() string {
	return filepath.Join(c.Build.OutputDir, c.Build.NotesArtifactName)
}

var envVarPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)\}`)

// expandEnvVars substitutes ${VAR} with the environment value, leaving unknown
// references empty.
func expandEnvVars(data []byte) []byte {
	return envVarPattern.ReplaceAllFunc(data, func(m []byte) []byte {
		name := envVarPattern.FindSubmatch(m)[1]
		return []byte(os.Getenv(string(name)))
	})
}

func trimTrailingSlash(s string) string {
	for len(s) > 0 && s[len(s)-1] == '/' {
		s = s[:len(s)-1]
	}
	return s
}
